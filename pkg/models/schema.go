package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation is returned when a workflow document does not match WorkflowSchema.
var ErrSchemaViolation = errors.New("workflow does not match schema")

// JSONSchema represents a JSON Schema document.
type JSONSchema struct {
	Schema      string               `json:"$schema,omitempty"`
	Type        string               `json:"type"`
	Properties  map[string]*Property `json:"properties,omitempty"`
	Required    []string             `json:"required,omitempty"`
	Title       string               `json:"title,omitempty"`
	Description string               `json:"description,omitempty"`
}

// Property represents a JSON Schema property.
type Property struct {
	Type                 string               `json:"type,omitempty"`
	Description          string               `json:"description,omitempty"`
	Enum                 []any                `json:"enum,omitempty"`
	Pattern              string               `json:"pattern,omitempty"`
	MinLength            *int                 `json:"minLength,omitempty"`
	Items                *Property            `json:"items,omitempty"`
	Properties           map[string]*Property `json:"properties,omitempty"`
	Required             []string             `json:"required,omitempty"`
	PropertyNames        *Property            `json:"propertyNames,omitempty"`
	AdditionalProperties *Property            `json:"additionalProperties,omitempty"`
}

// SchemaError lists every schema violation found in a document.
type SchemaError struct {
	Violations []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSchemaViolation, strings.Join(e.Violations, "; "))
}

func (e *SchemaError) Is(target error) bool {
	return target == ErrSchemaViolation
}

var variableTypes = []any{"STRING", "NUMBER", "BOOLEAN", "OBJECT", "ARRAY", "DATE"}

func variableProperty() *Property {
	return &Property{
		Type:     "object",
		Required: []string{"name"},
		Properties: map[string]*Property{
			"name":        {Type: "string"},
			"type":        {Type: "string", Enum: variableTypes},
			"description": {Type: "string"},
			"parent":      {Type: "string"},
		},
	}
}

func fieldMapProperty() *Property {
	return &Property{
		Type: "object",
		AdditionalProperties: &Property{
			Type: "object",
			Properties: map[string]*Property{
				"name":        {Type: "string"},
				"type":        {Type: "string", Enum: variableTypes},
				"description": {Type: "string"},
				"required":    {Type: "boolean"},
			},
		},
	}
}

// WorkflowSchema returns the schema of the workflow wire format.
func WorkflowSchema() *JSONSchema {
	one := 1

	node := &Property{
		Type:     "object",
		Required: []string{"id", "type", "position"},
		Properties: map[string]*Property{
			"id":          {Type: "string", MinLength: &one},
			"type":        {Type: "string"},
			"name":        {Type: "string"},
			"description": {Type: "string"},
			"position": {
				Type:     "object",
				Required: []string{"x", "y"},
				Properties: map[string]*Property{
					"x": {Type: "number"},
					"y": {Type: "number"},
				},
			},
			"nextNodes": {
				Type:                 "object",
				PropertyNames:        &Property{Pattern: `^(default|true|false|else|case[1-9][0-9]*)$`},
				AdditionalProperties: &Property{Type: "string"},
			},
			"toolName":   {Type: "string"},
			"parameters": {Type: "object"},
			"conditions": {Type: "array", Items: &Property{Type: "object"}},
			"inputMap":   {Type: "object", AdditionalProperties: variableProperty()},
		},
	}

	return &JSONSchema{
		Schema:   "http://json-schema.org/draft-07/schema#",
		Title:    "Workflow",
		Type:     "object",
		Required: []string{"name", "nodes"},
		Properties: map[string]*Property{
			"id":              {Type: "string"},
			"name":            {Type: "string"},
			"description":     {Type: "string"},
			"nodes":           {Type: "array", Items: node},
			"startNodeId":     {Type: "string"},
			"isActive":        {Type: "boolean"},
			"inputs":          fieldMapProperty(),
			"outputs":         {Type: "object", AdditionalProperties: variableProperty()},
			"globalVariables": {Type: "object"},
			"tools": {
				Type: "object",
				AdditionalProperties: &Property{
					Type: "object",
					Properties: map[string]*Property{
						"name":    {Type: "string"},
						"inputs":  fieldMapProperty(),
						"outputs": fieldMapProperty(),
					},
				},
			},
		},
	}
}

// ValidateJSON checks a raw workflow document against WorkflowSchema.
func ValidateJSON(data []byte) error {
	schemaLoader := gojsonschema.NewGoLoader(WorkflowSchema())
	dataLoader := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, dataLoader)
	if err != nil {
		return fmt.Errorf("failed to validate workflow: %w", err)
	}

	if !result.Valid() {
		violations := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			violations = append(violations, e.String())
		}

		return &SchemaError{Violations: violations}
	}

	return nil
}
