package ai

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

var schemaCache sync.Map // reflect.Type -> map[string]any

// SchemaFor returns the JSON schema of T as a plain map, inlined with no
// $ref or $schema keys.
//
// Every field without `omitempty` is required. Constraints come from
// jsonschema struct tags:
//
//	type verdict struct {
//	    Sentiment string `json:"sentiment" jsonschema:"enum=positive,enum=negative,enum=neutral"`
//	    Score     int    `json:"score" jsonschema:"minimum=1,maximum=10"`
//	}
func SchemaFor[T any]() map[string]any {
	t := reflect.TypeOf((*T)(nil)).Elem()
	if cached, ok := schemaCache.Load(t); ok {
		return cached.(map[string]any)
	}

	reflector := &jsonschema.Reflector{
		ExpandedStruct: true,
		DoNotReference: true,
	}
	schema := reflector.Reflect(new(T))

	m, err := schemaToMap(schema)
	if err != nil {
		// Reflection output always marshals; a failure here is a programming error
		panic(fmt.Sprintf("ai: cannot convert schema for %s: %v", t, err))
	}

	schemaCache.Store(t, m)
	return m
}

func schemaToMap(schema *jsonschema.Schema) (map[string]any, error) {
	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	delete(result, "$schema")
	delete(result, "$id")
	return result, nil
}

// requiredFields lists the schema's top-level required property names.
func requiredFields(schema map[string]any) []string {
	raw, ok := schema["required"].([]any)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(raw))
	for _, r := range raw {
		if name, ok := r.(string); ok {
			fields = append(fields, name)
		}
	}
	return fields
}

// missingRequired returns the required fields absent (or null) in the decoded
// JSON object, sorted for stable error messages.
func missingRequired(schema map[string]any, jsonText string) ([]string, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(jsonText), &obj); err != nil {
		return nil, fmt.Errorf("response is not a JSON object: %w", err)
	}

	var missing []string
	for _, field := range requiredFields(schema) {
		if v, ok := obj[field]; !ok || v == nil {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing, nil
}

// schemaInstruction is appended to prompts so providers without native
// structured output still know the exact shape expected.
func schemaInstruction(schema map[string]any) string {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nRespond with a single JSON object and nothing else. ")
	b.WriteString("It must match this JSON schema, and every required field must be present:\n")
	b.Write(data)
	b.WriteString("\n")
	return b.String()
}
