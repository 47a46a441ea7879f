package structured

import (
	"encoding/json"
	"fmt"
	"maps"
	"math"
	"regexp"
	"slices"
	"strings"
	"sync"
)

// SchemaValidator validates JSON data against a JSONSchema.
type SchemaValidator interface {
	Validate(data []byte, schema *JSONSchema) error
	ValidateValue(value any, schema *JSONSchema) error
}

// ParseError represents a validation error with field path.
type ParseError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationErrors represents multiple validation errors.
type ValidationErrors struct {
	Errors []ParseError `json:"errors"`
}

// Error implements the error interface.
func (e *ValidationErrors) Error() string {
	if len(e.Errors) == 0 {
		return "validation failed"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Sprintf("validation failed with %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

// Paths returns the distinct violating paths in report order.
func (e *ValidationErrors) Paths() []string {
	seen := make(map[string]bool, len(e.Errors))
	var paths []string
	for _, pe := range e.Errors {
		if !seen[pe.Path] {
			seen[pe.Path] = true
			paths = append(paths, pe.Path)
		}
	}
	return paths
}

// DefaultValidator is the default implementation of SchemaValidator.
// It never coerces: a mistyped value is reported, not converted.
type DefaultValidator struct {
	mu       sync.RWMutex
	patterns map[string]*regexp.Regexp
}

// NewValidator creates a new DefaultValidator.
func NewValidator() *DefaultValidator {
	return &DefaultValidator{patterns: make(map[string]*regexp.Regexp)}
}

// Validate validates JSON data against a schema.
func (v *DefaultValidator) Validate(data []byte, schema *JSONSchema) error {
	if schema == nil {
		return nil
	}

	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationErrors{
			Errors: []ParseError{{Path: "", Message: fmt.Sprintf("invalid JSON: %v", err)}},
		}
	}
	return v.ValidateValue(value, schema)
}

// ValidateValue validates an already decoded value against a schema.
func (v *DefaultValidator) ValidateValue(value any, schema *JSONSchema) error {
	if schema == nil {
		return nil
	}
	w := &walk{v: v}
	w.value(value, schema, "")
	if len(w.errs) > 0 {
		return &ValidationErrors{Errors: w.errs}
	}
	return nil
}

// walk 收集一次校验中的全部违规
type walk struct {
	v    *DefaultValidator
	errs []ParseError
}

func (w *walk) fail(path, format string, args ...any) {
	w.errs = append(w.errs, ParseError{Path: path, Message: fmt.Sprintf(format, args...)})
}

func (w *walk) value(value any, schema *JSONSchema, path string) {
	if schema == nil {
		return
	}
	if schema.Const != nil {
		if !equalValues(value, schema.Const) {
			w.fail(path, "value must be %v", schema.Const)
		}
		return
	}
	if len(schema.Enum) > 0 && !slices.ContainsFunc(schema.Enum, func(e any) bool { return equalValues(value, e) }) {
		w.fail(path, "value must be one of: %v", schema.Enum)
	}

	switch schema.Type {
	case "":
	case TypeString:
		w.str(value, schema, path)
	case TypeObject:
		w.object(value, schema, path)
	case TypeArray:
		w.array(value, schema, path)
	default:
		if !scalarMatches(schema.Type, value) {
			w.fail(path, "expected %s, got %s", schema.Type, typeName(value))
		}
	}

	for _, sub := range schema.AllOf {
		w.value(value, sub, path)
	}

	// if 只作探测，其违规不计入结果
	if schema.If != nil {
		probe := &walk{v: w.v}
		probe.value(value, schema.If, path)
		branch := schema.Else
		if len(probe.errs) == 0 {
			branch = schema.Then
		}
		w.value(value, branch, path)
	}
}

func scalarMatches(t SchemaType, value any) bool {
	switch t {
	case TypeNumber:
		_, ok := toFloat64(value)
		return ok
	case TypeInteger:
		n, ok := toFloat64(value)
		return ok && n == math.Trunc(n)
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeNull:
		return value == nil
	}
	return true
}

func (w *walk) str(value any, schema *JSONSchema, path string) {
	s, ok := value.(string)
	if !ok {
		w.fail(path, "expected string, got %s", typeName(value))
		return
	}
	if schema.MinLength != nil && len(s) < *schema.MinLength {
		w.fail(path, "string length %d is less than minimum %d", len(s), *schema.MinLength)
	}
	if schema.MaxLength != nil && len(s) > *schema.MaxLength {
		w.fail(path, "string length %d exceeds maximum %d", len(s), *schema.MaxLength)
	}
	if schema.Pattern == "" {
		return
	}
	re, err := w.v.compile(schema.Pattern)
	switch {
	case err != nil:
		w.fail(path, "invalid pattern %q: %v", schema.Pattern, err)
	case !re.MatchString(s):
		w.fail(path, "string does not match pattern %q", schema.Pattern)
	}
}

func (w *walk) object(value any, schema *JSONSchema, path string) {
	obj, ok := value.(map[string]any)
	if !ok {
		w.fail(path, "expected object, got %s", typeName(value))
		return
	}

	for _, name := range schema.Required {
		switch val, exists := obj[name]; {
		case !exists:
			w.fail(joinPath(path, name), "required field is missing")
		case val == nil:
			w.fail(joinPath(path, name), "required field must not be null")
		}
	}

	// 按键名排序，错误顺序稳定
	keys := slices.Sorted(maps.Keys(obj))
	for _, name := range keys {
		val, sub := obj[name], joinPath(path, name)
		if prop, declared := schema.Properties[name]; declared {
			// 必填字段为 null 已在上面报告
			if val != nil || !slices.Contains(schema.Required, name) {
				w.value(val, prop, sub)
			}
			continue
		}
		switch extra := schema.AdditionalProperties; {
		case extra == nil:
		case extra.Schema != nil:
			w.value(val, extra.Schema, sub)
		case !extra.Allowed:
			w.fail(sub, "additional property not allowed")
		}
	}
}

func (w *walk) array(value any, schema *JSONSchema, path string) {
	arr, ok := value.([]any)
	if !ok {
		w.fail(path, "expected array, got %s", typeName(value))
		return
	}
	if schema.MinItems != nil && len(arr) < *schema.MinItems {
		w.fail(path, "array has %d items, minimum is %d", len(arr), *schema.MinItems)
	}
	for i, item := range arr {
		w.value(item, schema.Items, fmt.Sprintf("%s[%d]", path, i))
	}
}

func (v *DefaultValidator) compile(pattern string) (*regexp.Regexp, error) {
	v.mu.RLock()
	re, ok := v.patterns[pattern]
	v.mu.RUnlock()
	if ok {
		return re, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	v.mu.Lock()
	v.patterns[pattern] = re
	v.mu.Unlock()
	return re, nil
}

func toFloat64(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}

// equalValues 数值按值比较（1 与 1.0 相等），其余按 JSON 编码比较
func equalValues(a, b any) bool {
	if x, ok := toFloat64(a); ok {
		y, ok := toFloat64(b)
		return ok && x == y
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	aj, errA := json.Marshal(a)
	bj, errB := json.Marshal(b)
	return errA == nil && errB == nil && string(aj) == string(bj)
}

func joinPath(base, segment string) string {
	if base == "" {
		return segment
	}
	return base + "." + segment
}

// typeName reports JSON type names rather than Go ones.
func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "boolean"
	case float64, float32, int, int64, json.Number:
		return "number"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	default:
		return fmt.Sprintf("%T", value)
	}
}
