package reasoning

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// stepsSchema describes the accepted block body: an array of objects whose
// optional "title" and "details" members are strings.
const stepsSchema = `{
  "type": "array",
  "items": {
    "type": "object",
    "properties": {
      "title":   {"type": "string"},
      "details": {"type": "string"}
    }
  }
}`

var compiledSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewStringLoader(stepsSchema))
})

// DecodeSteps parses a block body into steps numbered from 1 in array order.
// Only the exact "title" and "details" members are read; missing fields
// default to the empty string and other members are ignored.
func DecodeSteps(body string) ([]Step, error) {
	var doc any
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}

	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return nil, fmt.Errorf("schema validation failed: %w", err)
	}
	if !result.Valid() {
		var problems []string
		for _, e := range result.Errors() {
			problems = append(problems, e.String())
		}
		return nil, fmt.Errorf("unexpected shape: %s", strings.Join(problems, "; "))
	}

	items, _ := doc.([]any)
	steps := make([]Step, 0, len(items))
	for i, item := range items {
		fields, _ := item.(map[string]any)
		title, _ := fields["title"].(string)
		details, _ := fields["details"].(string)
		steps = append(steps, Step{ID: i + 1, Title: title, Details: details})
	}
	return steps, nil
}
