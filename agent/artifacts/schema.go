package artifacts

import (
	"fmt"

	"github.com/BaSui01/devpod/agent/structured"
	"github.com/BaSui01/devpod/types"
)

// Shape returns the bracket shape a completion for kind is expected to carry.
// Every kind travels as a JSON array.
func Shape(kind Kind) structured.Shape {
	return structured.ShapeArray
}

// BatchSchema returns the schema of a whole completion payload for kind.
func BatchSchema(kind Kind) (*structured.JSONSchema, error) {
	switch kind {
	case KindUserStory:
		return batchOf(userStorySchema()), nil
	case KindTestCase:
		return batchOf(testCaseSchema()), nil
	case KindTestResult:
		return batchOf(testResultSchema()), nil
	case KindFileManifest:
		// 清单载荷是文件名字符串数组，整体对应一个 FileManifest
		return structured.NewArraySchema(structured.NewNonBlankStringSchema()).
			WithMinItems(1).
			WithTitle("FileManifest"), nil
	default:
		return nil, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown artifact kind %q", kind))
	}
}

func batchOf(item *structured.JSONSchema) *structured.JSONSchema {
	return structured.NewArraySchema(item).WithMinItems(1)
}

func nonBlankList() *structured.JSONSchema {
	return structured.NewArraySchema(structured.NewNonBlankStringSchema()).WithMinItems(1)
}

func userStorySchema() *structured.JSONSchema {
	return structured.NewObjectSchema().
		WithTitle("UserStory").
		AddProperty("title", structured.NewNonBlankStringSchema()).
		AddProperty("role", structured.NewNonBlankStringSchema()).
		AddProperty("want", structured.NewNonBlankStringSchema()).
		AddProperty("so_that", structured.NewNonBlankStringSchema()).
		AddProperty("acceptance_criteria", nonBlankList()).
		AddRequired("title", "role", "want", "so_that", "acceptance_criteria")
}

func testCaseSchema() *structured.JSONSchema {
	return structured.NewObjectSchema().
		WithTitle("TestCase").
		AddProperty("title", structured.NewNonBlankStringSchema()).
		AddProperty("description", structured.NewNonBlankStringSchema()).
		AddProperty("steps", nonBlankList()).
		AddProperty("expected_result", structured.NewNonBlankStringSchema()).
		AddRequired("title", "description", "steps", "expected_result")
}

func testResultSchema() *structured.JSONSchema {
	failing := structured.NewObjectSchema().
		AddProperty("status", structured.NewStringSchema().WithConst(string(StatusFail)))

	return structured.NewObjectSchema().
		WithTitle("TestResult").
		AddProperty("title", structured.NewNonBlankStringSchema()).
		AddProperty("description", structured.NewNonBlankStringSchema()).
		AddProperty("status", structured.NewStringSchema().WithEnum(string(StatusPass), string(StatusFail))).
		AddProperty("details", structured.NewStringSchema()).
		AddRequired("title", "description", "status").
		WithCondition(
			failing,
			structured.NewObjectSchema().
				AddProperty("details", structured.NewNonBlankStringSchema()).
				AddRequired("details"),
			structured.NewObjectSchema().
				AddProperty("details", structured.NewStringSchema().WithMaxLength(0)),
		)
}
