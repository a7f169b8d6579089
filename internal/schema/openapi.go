package schema

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

const fieldTypeExtension = "x-field-type"

// OpenAPI derives field descriptors from the JSON request body of one
// operation in an OpenAPI 3 document.
type OpenAPI struct {
	doc         *openapi3.T
	operationID string
}

// LoadOpenAPI reads the document at path. External references are resolved
// relative to the file.
func LoadOpenAPI(path, operationID string) (*OpenAPI, error) {
	loader := openapi3.NewLoader()
	loader.IsExternalRefsAllowed = true

	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi document %s: %w", path, err)
	}
	return &OpenAPI{doc: doc, operationID: operationID}, nil
}

// NewOpenAPI parses an in-memory document.
func NewOpenAPI(data []byte, operationID string) (*OpenAPI, error) {
	doc, err := openapi3.NewLoader().LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("load openapi document: %w", err)
	}
	return &OpenAPI{doc: doc, operationID: operationID}, nil
}

// Fields maps the request body properties to descriptors, sorted by name.
func (o *OpenAPI) Fields(ctx context.Context) ([]FieldDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	op := o.findOperation()
	if op == nil {
		return nil, fmt.Errorf("%w: %s", ErrOperationNotFound, o.operationID)
	}

	body := requestSchema(op)
	if body == nil {
		return nil, nil
	}

	names := make([]string, 0, len(body.Properties))
	for name := range body.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	fields := make([]FieldDescriptor, 0, len(names))
	for _, name := range names {
		ref := body.Properties[name]
		if ref == nil || ref.Value == nil {
			continue
		}
		fields = append(fields, describeSchema(name, ref.Value))
	}
	return fields, nil
}

func (o *OpenAPI) findOperation() *openapi3.Operation {
	if o.doc == nil || o.doc.Paths == nil {
		return nil
	}
	items := o.doc.Paths.Map()
	paths := make([]string, 0, len(items))
	for path := range items {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	for _, path := range paths {
		ops := items[path].Operations()
		methods := make([]string, 0, len(ops))
		for method := range ops {
			methods = append(methods, method)
		}
		sort.Strings(methods)
		for _, method := range methods {
			if op := ops[method]; op.OperationID == o.operationID {
				return op
			}
		}
	}
	return nil
}

func requestSchema(op *openapi3.Operation) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}
	media := op.RequestBody.Value.Content.Get("application/json")
	if media == nil || media.Schema == nil {
		return nil
	}
	return media.Schema.Value
}

func describeSchema(name string, s *openapi3.Schema) FieldDescriptor {
	fd := FieldDescriptor{Name: name, Format: s.Format}

	switch {
	case s.Type.Is(openapi3.TypeString):
		switch {
		case len(s.Enum) > 0:
			fd.Type = TypeEntity
			fd.Values = enumCandidates(s.Enum)
		case extensionString(s.Extensions, fieldTypeExtension) == TypeText:
			fd.Type = TypeText
		default:
			fd.Type = TypeString
		}
	case s.Type.Is(openapi3.TypeInteger):
		fd.Type = TypeInteger
	case s.Type.Is(openapi3.TypeNumber):
		fd.Type = TypeNumber
	case s.Type.Is(openapi3.TypeBoolean):
		fd.Type = TypeBoolean
	case s.Type.Is(openapi3.TypeArray):
		fd.Type = TypeArray
		if s.Items != nil && s.Items.Value != nil && len(s.Items.Value.Enum) > 0 {
			fd.Type = TypeEntity
			fd.Format = FormatArray
			fd.Values = enumCandidates(s.Items.Value.Enum)
		}
	default:
		if types := s.Type.Slice(); len(types) > 0 {
			fd.Type = types[0]
		}
	}
	return fd
}

func enumCandidates(enum []any) []Candidate {
	out := make([]Candidate, 0, len(enum))
	for _, v := range enum {
		c := Candidate{ID: v}
		if s, ok := v.(string); ok {
			c.Label = s
		}
		out = append(out, c)
	}
	return out
}

func extensionString(ext map[string]any, key string) string {
	switch v := ext[key].(type) {
	case string:
		return v
	case json.RawMessage:
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			return s
		}
	}
	return ""
}
