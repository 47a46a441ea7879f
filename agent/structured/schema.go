package structured

import (
	"encoding/json"
	"fmt"
)

// SchemaType represents JSON Schema types.
type SchemaType string

const (
	TypeString  SchemaType = "string"
	TypeNumber  SchemaType = "number"
	TypeInteger SchemaType = "integer"
	TypeBoolean SchemaType = "boolean"
	TypeNull    SchemaType = "null"
	TypeObject  SchemaType = "object"
	TypeArray   SchemaType = "array"
)

// NonBlankPattern matches strings containing at least one non-whitespace character.
const NonBlankPattern = `\S`

// JSONSchema represents the subset of JSON Schema used to describe artifact shapes.
type JSONSchema struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Type SchemaType `json:"type,omitempty"`

	// Object properties
	Properties           map[string]*JSONSchema `json:"properties,omitempty"`
	Required             []string               `json:"required,omitempty"`
	AdditionalProperties *AdditionalProperties  `json:"additionalProperties,omitempty"`

	// Array items
	Items    *JSONSchema `json:"items,omitempty"`
	MinItems *int        `json:"minItems,omitempty"`

	// Enum and const
	Enum  []any `json:"enum,omitempty"`
	Const any   `json:"const,omitempty"`

	// String constraints
	MinLength *int   `json:"minLength,omitempty"`
	MaxLength *int   `json:"maxLength,omitempty"`
	Pattern   string `json:"pattern,omitempty"`

	// Composition / conditional keywords
	AllOf []*JSONSchema `json:"allOf,omitempty"`
	If    *JSONSchema   `json:"if,omitempty"`
	Then  *JSONSchema   `json:"then,omitempty"`
	Else  *JSONSchema   `json:"else,omitempty"`
}

// AdditionalProperties represents the additionalProperties field which can be
// either a boolean or a schema.
type AdditionalProperties struct {
	Allowed bool
	Schema  *JSONSchema
}

func (ap *AdditionalProperties) MarshalJSON() ([]byte, error) {
	if ap.Schema != nil {
		return json.Marshal(ap.Schema)
	}
	return json.Marshal(ap.Allowed)
}

func (ap *AdditionalProperties) UnmarshalJSON(data []byte) error {
	*ap = AdditionalProperties{}
	if err := json.Unmarshal(data, &ap.Allowed); err == nil {
		return nil
	}
	var schema JSONSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return fmt.Errorf("additionalProperties must be boolean or schema")
	}
	ap.Allowed, ap.Schema = true, &schema
	return nil
}

// 构造函数

func NewObjectSchema() *JSONSchema {
	return &JSONSchema{Type: TypeObject, Properties: map[string]*JSONSchema{}}
}

func NewArraySchema(items *JSONSchema) *JSONSchema {
	return &JSONSchema{Type: TypeArray, Items: items}
}

func NewStringSchema() *JSONSchema { return &JSONSchema{Type: TypeString} }
func NewIntegerSchema() *JSONSchema { return &JSONSchema{Type: TypeInteger} }

// NewNonBlankStringSchema rejects empty and whitespace-only strings.
func NewNonBlankStringSchema() *JSONSchema {
	return NewStringSchema().WithPattern(NonBlankPattern)
}

// NewEnumSchema has no type; any listed value is accepted.
func NewEnumSchema(values ...any) *JSONSchema {
	return &JSONSchema{Enum: values}
}

// 链式设置，均返回 s 本身

func (s *JSONSchema) WithTitle(title string) *JSONSchema { s.Title = title; return s }
func (s *JSONSchema) WithDescription(desc string) *JSONSchema { s.Description = desc; return s }
func (s *JSONSchema) WithPattern(pattern string) *JSONSchema { s.Pattern = pattern; return s }
func (s *JSONSchema) WithEnum(values ...any) *JSONSchema { s.Enum = values; return s }
func (s *JSONSchema) WithConst(value any) *JSONSchema { s.Const = value; return s }
func (s *JSONSchema) WithMinLength(n int) *JSONSchema { s.MinLength = &n; return s }
func (s *JSONSchema) WithMaxLength(n int) *JSONSchema { s.MaxLength = &n; return s }
func (s *JSONSchema) WithMinItems(n int) *JSONSchema { s.MinItems = &n; return s }

func (s *JSONSchema) AddProperty(name string, prop *JSONSchema) *JSONSchema {
	if s.Properties == nil {
		s.Properties = map[string]*JSONSchema{}
	}
	s.Properties[name] = prop
	return s
}

func (s *JSONSchema) AddRequired(names ...string) *JSONSchema {
	s.Required = append(s.Required, names...)
	return s
}

// WithAdditionalProperties(false) 让未声明的字段成为违规
func (s *JSONSchema) WithAdditionalProperties(allowed bool) *JSONSchema {
	s.AdditionalProperties = &AdditionalProperties{Allowed: allowed}
	return s
}

// WithCondition sets if/then/else; elseSchema may be nil.
func (s *JSONSchema) WithCondition(ifSchema, thenSchema, elseSchema *JSONSchema) *JSONSchema {
	s.If, s.Then, s.Else = ifSchema, thenSchema, elseSchema
	return s
}

// ToJSON renders the schema for embedding in prompts.
func (s *JSONSchema) ToJSON() ([]byte, error) {
	return json.Marshal(s)
}
