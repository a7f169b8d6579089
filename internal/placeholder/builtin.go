package placeholder

import (
	"fmt"
	"regexp"
	"time"

	"github.com/theroutercompany/goldenapi/internal/value"
)

// Built-in predicate names.
const (
	DateTime    = "assertDateTime"
	Date        = "assertDate"
	DateTimeNow = "assertDateTimeNow"
	FileURL     = "assertFileUrl"
	FileName    = "assertFileName"
	UUID        = "assertUUID"
)

var (
	// Five hyphen-separated alphanumeric groups. Deliberately looser than RFC 4122
	// so identifiers minted by other generators still match.
	uuidPattern     = regexp.MustCompile(`^[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+-[a-zA-Z0-9]+$`)
	fileURLPattern  = regexp.MustCompile(`^https?://[^\s/?#]+(?:/[^\s/?#]+)*/[^\s/?#]+\.[A-Za-z0-9]{1,10}(?:\?[^\s#]*)?$`)
	fileNamePattern = regexp.MustCompile(`^[^\s/\\]+\.[A-Za-z0-9]{1,10}$`)
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

var dateTimeLayouts = []string{
	"2006-01-02T15:04:05Z07:00",
	"2006-01-02T15:04:05Z0700",
}

const localDateTimeLayout = "2006-01-02T15:04:05"

func (r *Registry) registerBuiltins() {
	r.predicates[DateTime] = assertDateTime
	r.predicates[Date] = assertDate
	r.predicates[DateTimeNow] = r.assertDateTimeNow
	r.predicates[FileURL] = matchPattern(fileURLPattern, "absolute file URL")
	r.predicates[FileName] = matchPattern(fileNamePattern, "file name")
	r.predicates[UUID] = matchPattern(uuidPattern, "UUID")
}

func stringValue(actual any) (string, error) {
	s, ok := actual.(string)
	if !ok {
		return "", fmt.Errorf("expected string, got %s", value.KindOf(actual))
	}
	return s, nil
}

func matchPattern(pattern *regexp.Regexp, what string) Predicate {
	return func(actual any) error {
		s, err := stringValue(actual)
		if err != nil {
			return err
		}
		if !pattern.MatchString(s) {
			return fmt.Errorf("%q is not a valid %s", s, what)
		}
		return nil
	}
}

// parseDateTime accepts ISO-8601 date-times with any sub-second precision and
// an optional Z or numeric offset. Values without offset are read as local time.
func parseDateTime(s string) (time.Time, error) {
	for _, layout := range dateTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	t, err := time.ParseInLocation(localDateTimeLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not an ISO-8601 date-time", s)
	}
	return t, nil
}

func assertDateTime(actual any) error {
	s, err := stringValue(actual)
	if err != nil {
		return err
	}
	_, err = parseDateTime(s)
	return err
}

func assertDate(actual any) error {
	s, err := stringValue(actual)
	if err != nil {
		return err
	}
	if !datePattern.MatchString(s) {
		return fmt.Errorf("%q is not a YYYY-MM-DD date", s)
	}
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%q is not a calendar date", s)
	}
	return nil
}

func (r *Registry) assertDateTimeNow(actual any) error {
	s, err := stringValue(actual)
	if err != nil {
		return err
	}
	t, err := parseDateTime(s)
	if err != nil {
		return err
	}

	delta := r.now().Sub(t)
	if delta < 0 {
		delta = -delta
	}
	if delta > r.tolerance {
		return fmt.Errorf("%q is %s away from now (tolerance %s)", s, delta.Round(time.Millisecond), r.tolerance)
	}
	return nil
}
