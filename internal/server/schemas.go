package server

import (
	"errors"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/joseph-ayodele/ballooning/internal/common"
)

var requestSchemas = map[string]string{
	"process_drawing": `{
  "type": "object",
  "required": ["path"],
  "properties": {
    "path": {"type": "string", "minLength": 1}
  },
  "additionalProperties": false
}`,
	"ingest_directory": `{
  "type": "object",
  "required": ["root"],
  "properties": {
    "root": {"type": "string", "minLength": 1},
    "skip_hidden": {"type": "boolean"}
  },
  "additionalProperties": false
}`,
	"list_dimensions": `{
  "type": "object",
  "required": ["document_id"],
  "properties": {
    "document_id": {"type": "string"}
  },
  "additionalProperties": false
}`,
	"export_dimensions": `{
  "type": "object",
  "required": ["document_ids"],
  "properties": {
    "document_ids": {"type": "array", "minItems": 1, "items": {"type": "string"}},
    "layout": {"enum": ["basic", "extended"]}
  },
  "additionalProperties": false
}`,
}

type validator struct {
	schemas map[string]*jsonschema.Schema
}

func newValidator() (*validator, error) {
	v := &validator{schemas: make(map[string]*jsonschema.Schema, len(requestSchemas))}
	for name, src := range requestSchemas {
		s, err := jsonschema.CompileString("ballooning://requests/"+name+".json", src)
		if err != nil {
			return nil, fmt.Errorf("compile %s schema: %w", name, err)
		}
		v.schemas[name] = s
	}
	return v, nil
}

// check validates req against the named schema and returns its plain-map
// form. Failures are InvalidArgument status errors.
func (v *validator) check(name string, req *structpb.Struct) (map[string]any, error) {
	m := req.AsMap()
	if err := v.schemas[name].Validate(m); err != nil {
		msg := err.Error()
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			msg = leafMessage(ve)
		}
		return nil, common.InvalidArgumentErrorf("invalid request: %s", msg)
	}
	return m, nil
}

// leafMessage flattens the deepest causes into one line, e.g.
// "/path: length must be >= 1".
func leafMessage(ve *jsonschema.ValidationError) string {
	if len(ve.Causes) == 0 {
		loc := ve.InstanceLocation
		if loc == "" {
			loc = "/"
		}
		return loc + ": " + ve.Message
	}
	parts := make([]string, 0, len(ve.Causes))
	for _, c := range ve.Causes {
		parts = append(parts, leafMessage(c))
	}
	return strings.Join(parts, "; ")
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func stringsField(m map[string]any, key string) []string {
	raw, _ := m[key].([]any)
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if s, ok := r.(string); ok {
			out = append(out, strings.TrimSpace(s))
		}
	}
	return out
}
