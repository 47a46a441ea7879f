package structured

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSchema(t *testing.T) {
	tests := []struct {
		name     string
		schemaFn func() *JSONSchema
		wantType SchemaType
	}{
		{"string", NewStringSchema, TypeString},
		{"non-blank string", NewNonBlankStringSchema, TypeString},
		{"integer", NewIntegerSchema, TypeInteger},
		{"object", NewObjectSchema, TypeObject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema := tt.schemaFn()
			assert.Equal(t, tt.wantType, schema.Type)
		})
	}
}

func TestObjectSchemaBuilder(t *testing.T) {
	schema := NewObjectSchema().
		WithTitle("UserStory").
		WithDescription("A user story").
		AddProperty("title", NewNonBlankStringSchema()).
		AddProperty("acceptance_criteria", NewArraySchema(NewNonBlankStringSchema()).WithMinItems(1)).
		AddRequired("title", "acceptance_criteria").
		WithAdditionalProperties(true)

	assert.Equal(t, "UserStory", schema.Title)
	assert.Len(t, schema.Properties, 2)
	assert.Equal(t, []string{"title", "acceptance_criteria"}, schema.Required)
	require.NotNil(t, schema.Properties["acceptance_criteria"].MinItems)
	assert.Equal(t, 1, *schema.Properties["acceptance_criteria"].MinItems)
	assert.Equal(t, NonBlankPattern, schema.Properties["title"].Pattern)
}

func TestSchema_ToJSON(t *testing.T) {
	schema := NewObjectSchema().
		AddProperty("status", NewEnumSchema("PASS", "FAIL")).
		AddRequired("status").
		WithAdditionalProperties(false)

	data, err := schema.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "object", decoded["type"])
	assert.Equal(t, false, decoded["additionalProperties"])
	assert.Equal(t, []any{"status"}, decoded["required"])
}

func TestAdditionalProperties_JSON(t *testing.T) {
	var ap AdditionalProperties
	require.NoError(t, json.Unmarshal([]byte(`false`), &ap))
	assert.False(t, ap.Allowed)
	assert.Nil(t, ap.Schema)

	require.NoError(t, json.Unmarshal([]byte(`{"type":"string"}`), &ap))
	assert.True(t, ap.Allowed)
	require.NotNil(t, ap.Schema)
	assert.Equal(t, TypeString, ap.Schema.Type)

	assert.Error(t, json.Unmarshal([]byte(`"nope"`), &ap))
}
