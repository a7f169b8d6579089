package schema

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
)

// DescribeForm reads the field list returned by a describe-form endpoint:
//
//	{"fields": [{"name": "owner", "type": "entity", "values": [{"id": 3, "label": "Ada"}]}]}
type DescribeForm struct {
	data []byte
}

type describeDocument struct {
	Fields []describeField `json:"fields"`
}

type describeField struct {
	Name   string           `json:"name"`
	Type   string           `json:"type"`
	Format string           `json:"format"`
	Values []map[string]any `json:"values"`
}

// NewDescribeForm wraps a describe-form document.
func NewDescribeForm(data []byte) *DescribeForm {
	return &DescribeForm{data: bytes.Clone(data)}
}

// LoadDescribeForm reads a describe-form document from disk.
func LoadDescribeForm(path string) (*DescribeForm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read describe form: %w", err)
	}
	return &DescribeForm{data: data}, nil
}

// Fields decodes the document. Identifiers keep their JSON representation.
func (d *DescribeForm) Fields(context.Context) ([]FieldDescriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(d.data))
	dec.UseNumber()

	var doc describeDocument
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode describe form: %w", err)
	}

	fields := make([]FieldDescriptor, 0, len(doc.Fields))
	for i, f := range doc.Fields {
		if f.Name == "" {
			return nil, fmt.Errorf("decode describe form: field %d has no name", i)
		}
		fd := FieldDescriptor{Name: f.Name, Type: f.Type, Format: f.Format}
		for _, v := range f.Values {
			fd.Values = append(fd.Values, Candidate{ID: v["id"], Label: candidateLabel(v)})
		}
		fields = append(fields, fd)
	}
	return fields, nil
}

func candidateLabel(v map[string]any) string {
	for _, key := range []string{"label", "name", "title"} {
		if s, ok := v[key].(string); ok {
			return s
		}
	}
	return ""
}
