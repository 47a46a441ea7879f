package structured

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// 缺失必填字段时，错误路径必须定位到该字段
func TestProperty_SchemaValidation_ErrorPathLocalization(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		validator := NewValidator()

		fieldName := rapid.StringMatching(`[a-z]{3,10}`).Draw(rt, "fieldName")
		schema := NewObjectSchema().
			AddProperty(fieldName, NewStringSchema()).
			AddRequired(fieldName)

		err := validator.Validate([]byte(`{}`), schema)
		require.Error(t, err)

		validationErr, ok := err.(*ValidationErrors)
		require.True(t, ok)
		require.Len(t, validationErr.Errors, 1)
		assert.Equal(t, fieldName, validationErr.Errors[0].Path)
		assert.NotEmpty(t, validationErr.Errors[0].Message)
	})
}

// 数组中任一元素违规，错误路径携带该元素下标
func TestProperty_SchemaValidation_ArrayIndexInPath(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		validator := NewValidator()
		n := rapid.IntRange(1, 8).Draw(rt, "n")
		bad := rapid.IntRange(0, n-1).Draw(rt, "bad")

		items := make([]any, n)
		for i := range items {
			items[i] = rapid.StringMatching(`[a-z]{1,6}`).Draw(rt, "item")
		}
		items[bad] = strings.Repeat(" ", rapid.IntRange(0, 3).Draw(rt, "spaces"))

		err := validator.ValidateValue(items, NewArraySchema(NewNonBlankStringSchema()))
		require.Error(t, err)
		ve := err.(*ValidationErrors)
		assert.Equal(t, []string{"[" + strconv.Itoa(bad) + "]"}, ve.Paths())
	})
}

// 对同一值重复校验结果一致
func TestProperty_SchemaValidation_Idempotent(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		validator := NewValidator()
		schema := NewArraySchema(NewObjectSchema().
			AddProperty("title", NewNonBlankStringSchema()).
			AddRequired("title"))

		n := rapid.IntRange(0, 5).Draw(rt, "n")
		value := make([]any, n)
		for i := range value {
			value[i] = map[string]any{"title": rapid.String().Draw(rt, "title")}
		}

		first := validator.ValidateValue(value, schema)
		second := validator.ValidateValue(value, schema)
		if first == nil {
			assert.NoError(t, second)
			return
		}
		require.Error(t, second)
		assert.Equal(t, first.Error(), second.Error())
	})
}
