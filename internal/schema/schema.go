// Package schema describes the fields of a request form so that a default
// payload can be synthesized for it.
package schema

import (
	"context"
	"errors"
)

// ErrOperationNotFound reports an OpenAPI operation ID absent from the document.
var ErrOperationNotFound = errors.New("operation not found")

// Field types understood by the synthesizer.
const (
	TypeString  = "string"
	TypeText    = "text"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeArray   = "array"
	TypeEntity  = "entity"
)

// Field formats.
const (
	FormatDate     = "date"
	FormatDateTime = "date-time"
	FormatArray    = "array"
)

// Candidate is one allowed value of an entity or boolean field.
type Candidate struct {
	ID    any
	Label string
}

// HasID reports whether the candidate carries an identifier.
func (c Candidate) HasID() bool {
	return c.ID != nil
}

// FieldDescriptor describes one form field.
type FieldDescriptor struct {
	Name   string
	Type   string
	Format string
	Values []Candidate
}

// Provider yields the ordered field descriptors of one form.
type Provider interface {
	Fields(ctx context.Context) ([]FieldDescriptor, error)
}

// Static is a Provider over a fixed descriptor list.
type Static []FieldDescriptor

// Fields returns a copy of the descriptors.
func (s Static) Fields(context.Context) ([]FieldDescriptor, error) {
	out := make([]FieldDescriptor, len(s))
	copy(out, s)
	return out, nil
}
