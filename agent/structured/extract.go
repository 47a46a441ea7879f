package structured

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BaSui01/devpod/types"
)

// Shape selects the bracket pair ExtractJSON scans for.
type Shape int

const (
	// ShapeAuto 取文本中最先出现的开括号类型
	ShapeAuto Shape = iota
	ShapeArray
	ShapeObject
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeObject:
		return "object"
	default:
		return "auto"
	}
}

func (s Shape) delimiters() (byte, byte) {
	if s == ShapeObject {
		return '{', '}'
	}
	return '[', ']'
}

// Payload is a structured value isolated from free text.
type Payload struct {
	Value any
	Text  string
	// Start/End 为原文中的字节区间 [Start, End)
	Start int
	End   int
}

// ExtractJSON isolates the substring between the first opening bracket and
// the last closing bracket of the requested shape and decodes it.
//
// Prose before and after the payload is tolerated. Several independent JSON
// blocks in one text are not: the span then covers all of them and decoding
// fails with a PARSE error.
func ExtractJSON(text string, shape Shape) (*Payload, error) {
	if shape == ShapeAuto {
		shape = detectShape(text)
	}
	open, close := shape.delimiters()

	start := strings.IndexByte(text, open)
	if start < 0 {
		return nil, types.NewError(types.ErrParse,
			fmt.Sprintf("no opening %q found", open))
	}
	end := strings.LastIndexByte(text, close)
	if end < start {
		return nil, types.NewError(types.ErrParse,
			fmt.Sprintf("no closing %q after offset %d", close, start))
	}

	span := text[start : end+1]
	var value any
	if err := json.Unmarshal([]byte(span), &value); err != nil {
		return nil, types.NewError(types.ErrParse,
			fmt.Sprintf("%s payload is not well-formed JSON", shape)).WithCause(err)
	}

	return &Payload{Value: value, Text: span, Start: start, End: end + 1}, nil
}

// detectShape picks the bracket type whose opening delimiter appears first.
func detectShape(text string) Shape {
	arr := strings.IndexByte(text, '[')
	obj := strings.IndexByte(text, '{')
	switch {
	case arr < 0 && obj >= 0:
		return ShapeObject
	case obj >= 0 && obj < arr:
		return ShapeObject
	default:
		return ShapeArray
	}
}
