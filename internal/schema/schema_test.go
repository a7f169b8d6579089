package schema

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestStaticReturnsCopy(t *testing.T) {
	s := Static{{Name: "age", Type: TypeInteger}}
	fields, err := s.Fields(context.Background())
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	fields[0].Name = "changed"
	if s[0].Name != "age" {
		t.Fatalf("static provider must not expose its backing slice")
	}
}

func TestCandidateHasID(t *testing.T) {
	if (Candidate{Label: "none"}).HasID() {
		t.Fatalf("candidate without id reported an id")
	}
	if !(Candidate{ID: json.Number("0")}).HasID() {
		t.Fatalf("candidate with zero id must report an id")
	}
}

func TestDescribeFormFields(t *testing.T) {
	doc := `{
		"fields": [
			{"name": "label", "type": "string"},
			{"name": "publishedOn", "type": "string", "format": "date"},
			{"name": "owner", "type": "entity", "values": [{"id": 3, "label": "Ada"}, {"name": "orphan"}]},
			{"name": "tags", "type": "entity", "format": "array", "values": [{"id": "a"}, {"id": "b"}]}
		]
	}`

	fields, err := NewDescribeForm([]byte(doc)).Fields(context.Background())
	if err != nil {
		t.Fatalf("fields: %v", err)
	}

	want := []FieldDescriptor{
		{Name: "label", Type: TypeString},
		{Name: "publishedOn", Type: TypeString, Format: FormatDate},
		{Name: "owner", Type: TypeEntity, Values: []Candidate{{ID: json.Number("3"), Label: "Ada"}, {Label: "orphan"}}},
		{Name: "tags", Type: TypeEntity, Format: FormatArray, Values: []Candidate{{ID: "a"}, {ID: "b"}}},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
}

func TestDescribeFormRejectsInvalidDocuments(t *testing.T) {
	for _, doc := range []string{`{"fields": [`, `{"fields": [{"type": "string"}]}`} {
		if _, err := NewDescribeForm([]byte(doc)).Fields(context.Background()); err == nil {
			t.Fatalf("expected error for %s", doc)
		}
	}
}

func TestLoadDescribeFormFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "describe.json")
	if err := os.WriteFile(path, []byte(`{"fields":[{"name":"age","type":"integer"}]}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	provider, err := LoadDescribeForm(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	fields, err := provider.Fields(context.Background())
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if len(fields) != 1 || fields[0].Type != TypeInteger {
		t.Fatalf("unexpected fields %+v", fields)
	}

	if _, err := LoadDescribeForm(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

const invoiceDocument = `{
  "openapi": "3.0.3",
  "info": {"title": "invoices", "version": "1.0.0"},
  "paths": {
    "/invoices": {
      "post": {
        "operationId": "createInvoice",
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {"$ref": "#/components/schemas/InvoiceInput"}
            }
          }
        },
        "responses": {"201": {"description": "created"}}
      },
      "get": {
        "operationId": "listInvoices",
        "responses": {"200": {"description": "ok"}}
      }
    }
  },
  "components": {
    "schemas": {
      "InvoiceInput": {
        "type": "object",
        "properties": {
          "label": {"type": "string"},
          "notes": {"type": "string", "x-field-type": "text"},
          "issuedOn": {"type": "string", "format": "date"},
          "amount": {"type": "number"},
          "quantity": {"type": "integer"},
          "paid": {"type": "boolean"},
          "status": {"type": "string", "enum": ["draft", "sent"]},
          "lines": {"type": "array", "items": {"type": "object"}},
          "labels": {"type": "array", "items": {"type": "string", "enum": ["urgent", "archived"]}}
        }
      }
    }
  }
}`

func TestOpenAPIFields(t *testing.T) {
	provider, err := NewOpenAPI([]byte(invoiceDocument), "createInvoice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	fields, err := provider.Fields(context.Background())
	if err != nil {
		t.Fatalf("fields: %v", err)
	}

	want := []FieldDescriptor{
		{Name: "amount", Type: TypeNumber},
		{Name: "issuedOn", Type: TypeString, Format: FormatDate},
		{Name: "label", Type: TypeString},
		{Name: "labels", Type: TypeEntity, Format: FormatArray, Values: []Candidate{{ID: "urgent", Label: "urgent"}, {ID: "archived", Label: "archived"}}},
		{Name: "lines", Type: TypeArray},
		{Name: "notes", Type: TypeText},
		{Name: "paid", Type: TypeBoolean},
		{Name: "quantity", Type: TypeInteger},
		{Name: "status", Type: TypeEntity, Values: []Candidate{{ID: "draft", Label: "draft"}, {ID: "sent", Label: "sent"}}},
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Fatalf("unexpected fields (-want +got):\n%s", diff)
	}
}

func TestOpenAPIOperationWithoutBody(t *testing.T) {
	provider, err := NewOpenAPI([]byte(invoiceDocument), "listInvoices")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	fields, err := provider.Fields(context.Background())
	if err != nil {
		t.Fatalf("fields: %v", err)
	}
	if len(fields) != 0 {
		t.Fatalf("expected no fields, got %+v", fields)
	}
}

func TestOpenAPIUnknownOperation(t *testing.T) {
	provider, err := NewOpenAPI([]byte(invoiceDocument), "deleteInvoice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if _, err := provider.Fields(context.Background()); !errors.Is(err, ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestLoadOpenAPIFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openapi.json")
	if err := os.WriteFile(path, []byte(invoiceDocument), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	provider, err := LoadOpenAPI(path, "createInvoice")
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := provider.Fields(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestOpenAPIDuplicateOperationIDResolvesBySortedPath(t *testing.T) {
	doc := `{
  "openapi": "3.0.3",
  "info": {"title": "dupes", "version": "1.0.0"},
  "paths": {
    "/z/items": {
      "post": {
        "operationId": "createItem",
        "requestBody": {"content": {"application/json": {"schema": {"type": "object", "properties": {"late": {"type": "string"}}}}}},
        "responses": {"201": {"description": "created"}}
      }
    },
    "/a/items": {
      "put": {
        "operationId": "createItem",
        "requestBody": {"content": {"application/json": {"schema": {"type": "object", "properties": {"later": {"type": "string"}}}}}},
        "responses": {"200": {"description": "ok"}}
      },
      "post": {
        "operationId": "createItem",
        "requestBody": {"content": {"application/json": {"schema": {"type": "object", "properties": {"early": {"type": "integer"}}}}}},
        "responses": {"201": {"description": "created"}}
      }
    }
  }
}`

	provider, err := NewOpenAPI([]byte(doc), "createItem")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	for i := 0; i < 20; i++ {
		fields, err := provider.Fields(context.Background())
		if err != nil {
			t.Fatalf("fields: %v", err)
		}
		if diff := cmp.Diff([]FieldDescriptor{{Name: "early", Type: TypeInteger}}, fields); diff != "" {
			t.Fatalf("unexpected fields (-want +got):\n%s", diff)
		}
	}
}
