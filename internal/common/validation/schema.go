package validation

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema used to check request body shape before
// the payload is decoded into typed sections.
type Schema struct {
	name   string
	schema *gojsonschema.Schema
}

// CompileSchema parses a JSON schema document.
func CompileSchema(name, schemaJSON string) (*Schema, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Schema{name: name, schema: s}, nil
}

// MustCompileSchema is CompileSchema for package-level schemas.
func MustCompileSchema(name, schemaJSON string) *Schema {
	s, err := CompileSchema(name, schemaJSON)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *Schema) Name() string {
	return s.name
}

// Validate checks a raw JSON document. Malformed JSON is reported under the
// "body" field.
func (s *Schema) Validate(document []byte) FieldErrors {
	fe := FieldErrors{}
	if !json.Valid(document) {
		fe.Add("body", "malformed JSON")
		return fe
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(document))
	if err != nil {
		fe.Add("body", err.Error())
		return fe
	}

	for _, desc := range result.Errors() {
		fe.Add(fieldPath(desc), desc.Description())
	}
	return fe
}

// fieldPath converts gojsonschema's "customers.1.email" into
// "customers[1].email". Root-level errors name the missing property when
// there is one.
func fieldPath(desc gojsonschema.ResultError) string {
	field := desc.Field()
	if field == gojsonschema.STRING_ROOT_SCHEMA_PROPERTY {
		if p, ok := desc.Details()["property"].(string); ok && p != "" {
			return p
		}
		return "body"
	}
	if desc.Type() == "required" {
		if p, ok := desc.Details()["property"].(string); ok && p != "" &&
			field != p && !strings.HasSuffix(field, "."+p) {
			field = field + "." + p
		}
	}

	parts := strings.Split(field, ".")
	var b strings.Builder
	for i, part := range parts {
		if isIndex(part) {
			b.WriteString("[" + part + "]")
			continue
		}
		if i > 0 {
			b.WriteString(".")
		}
		b.WriteString(part)
	}
	return b.String()
}

func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
