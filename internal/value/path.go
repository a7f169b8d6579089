package value

import (
	"strconv"
	"strings"
)

// Path locates a value inside a structured value. Elements are mapping keys
// (string) or sequence indices (int).
type Path []any

// Key returns a copy of p extended with a mapping key.
func (p Path) Key(k string) Path {
	return p.with(k)
}

// Index returns a copy of p extended with a sequence index.
func (p Path) Index(i int) Path {
	return p.with(i)
}

func (p Path) with(elem any) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, elem)
}

// String renders the path as items[2].createdAt. The root renders as "$".
func (p Path) String() string {
	if len(p) == 0 {
		return "$"
	}

	var b strings.Builder
	for i, elem := range p {
		switch e := elem.(type) {
		case int:
			b.WriteByte('[')
			b.WriteString(strconv.Itoa(e))
			b.WriteByte(']')
		case string:
			if e == "" || strings.ContainsAny(e, ".[]\" ") {
				b.WriteByte('[')
				b.WriteString(strconv.Quote(e))
				b.WriteByte(']')
				continue
			}
			if i > 0 {
				b.WriteByte('.')
			}
			b.WriteString(e)
		}
	}
	return b.String()
}
