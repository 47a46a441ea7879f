package artifacts

import (
	"encoding/json"
	"fmt"

	"github.com/BaSui01/devpod/agent/structured"
	"github.com/BaSui01/devpod/types"
)

// Validator checks decoded payloads against the per-kind batch schemas.
type Validator struct {
	schema structured.SchemaValidator
}

// NewValidator creates a Validator backed by structured.DefaultValidator.
func NewValidator() *Validator {
	return &Validator{schema: structured.NewValidator()}
}

// Validate checks value against kind's batch schema and returns the typed
// artifacts. The batch is all-or-nothing: one bad element rejects every
// element, and no field is ever defaulted or coerced.
//
// A rejection is a SCHEMA_VIOLATION *types.Error whose cause is a
// *structured.ValidationErrors with the field-level violations.
func (v *Validator) Validate(kind Kind, value any) ([]Artifact, error) {
	schema, err := BatchSchema(kind)
	if err != nil {
		return nil, err
	}
	if err := v.schema.ValidateValue(value, schema); err != nil {
		return nil, types.NewError(types.ErrSchemaViolation,
			fmt.Sprintf("%s batch rejected", kind)).WithKind(string(kind)).WithCause(err)
	}

	data, err := json.Marshal(value)
	if err != nil {
		return nil, types.NewError(types.ErrSchemaViolation, "re-encode payload").WithKind(string(kind)).WithCause(err)
	}

	switch kind {
	case KindUserStory:
		return decodeBatch[UserStory](kind, data)
	case KindTestCase:
		return decodeBatch[TestCase](kind, data)
	case KindTestResult:
		return decodeBatch[TestResult](kind, data)
	default:
		var names []string
		if err := json.Unmarshal(data, &names); err != nil {
			return nil, types.NewError(types.ErrSchemaViolation, "decode file manifest").WithKind(string(kind)).WithCause(err)
		}
		return []Artifact{FileManifest{Filenames: names}}, nil
	}
}

func decodeBatch[T Artifact](kind Kind, data []byte) ([]Artifact, error) {
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, types.NewError(types.ErrSchemaViolation,
			fmt.Sprintf("decode %s batch", kind)).WithKind(string(kind)).WithCause(err)
	}
	out := make([]Artifact, len(items))
	for i, item := range items {
		out[i] = item
	}
	return out, nil
}

// Violations returns the field-level violations carried by a validation error.
func Violations(err error) []structured.ParseError {
	e, ok := types.AsError(err)
	if !ok {
		return nil
	}
	if ve, ok := e.Cause.(*structured.ValidationErrors); ok {
		return ve.Errors
	}
	return nil
}

// Encode renders artifacts back to the wire shape Validate accepts.
func Encode(kind Kind, items []Artifact) ([]byte, error) {
	if kind == KindFileManifest {
		m, ok := Manifest(items)
		if !ok {
			return []byte("[]"), nil
		}
		return json.Marshal(m.Filenames)
	}
	return json.Marshal(items)
}
