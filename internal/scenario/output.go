package scenario

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/theroutercompany/goldenapi/internal/value"
)

// Output exposes one completed exchange to the runner. Implementations never
// initiate I/O of their own.
type Output interface {
	StatusCode() int
	Header(name string) string
	Headers() map[string]string
	Body() (any, error)
	RawBody() []byte
}

// HTTPOutput adapts a completed *http.Response.
type HTTPOutput struct {
	status  int
	headers http.Header
	raw     []byte
}

// NewHTTPOutput reads and closes the response body.
func NewHTTPOutput(resp *http.Response) (*HTTPOutput, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}
	var raw []byte
	if resp.Body != nil {
		defer resp.Body.Close()
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read response body: %w", err)
		}
		raw = data
	}
	return &HTTPOutput{
		status:  resp.StatusCode,
		headers: resp.Header.Clone(),
		raw:     raw,
	}, nil
}

func (o *HTTPOutput) StatusCode() int { return o.status }

func (o *HTTPOutput) Header(name string) string { return o.headers.Get(name) }

// Headers returns the first value of every header, keyed by canonical name.
func (o *HTTPOutput) Headers() map[string]string {
	out := make(map[string]string, len(o.headers))
	for name, values := range o.headers {
		if len(values) > 0 {
			out[http.CanonicalHeaderKey(name)] = values[0]
		}
	}
	return out
}

// Body decodes the response as JSON. An empty body decodes to nil.
func (o *HTTPOutput) Body() (any, error) {
	return decodeBody(o.raw)
}

func (o *HTTPOutput) RawBody() []byte { return o.raw }

// StaticOutput is an Output built from literal values, for replaying captured
// exchanges and for tests.
type StaticOutput struct {
	Status int
	Head   map[string]string
	Raw    []byte
}

func (o StaticOutput) StatusCode() int { return o.Status }

// Header looks name up case-insensitively.
func (o StaticOutput) Header(name string) string {
	want := http.CanonicalHeaderKey(name)
	for k, v := range o.Head {
		if http.CanonicalHeaderKey(k) == want {
			return v
		}
	}
	return ""
}

func (o StaticOutput) Headers() map[string]string {
	out := make(map[string]string, len(o.Head))
	for k, v := range o.Head {
		out[http.CanonicalHeaderKey(k)] = v
	}
	return out
}

func (o StaticOutput) Body() (any, error) {
	return decodeBody(o.Raw)
}

func (o StaticOutput) RawBody() []byte { return o.Raw }

func decodeBody(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	v, err := value.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode response body: %w", err)
	}
	return v, nil
}
