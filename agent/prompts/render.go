package prompts

import (
	"fmt"
	"strings"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/llm/tokenizer"
)

// RenderStories 以 "User Story #N" 格式渲染用户故事，每个故事后空一行
func RenderStories(stories []artifacts.UserStory) string {
	var sb strings.Builder
	for i, s := range stories {
		fmt.Fprintf(&sb, "User Story #%d: %s\n", i+1, s.Title)
		fmt.Fprintf(&sb, "As a %s, I want %s so that %s\n", s.Role, s.Want, s.SoThat)
		sb.WriteString("Acceptance Criteria:\n")
		for _, c := range s.AcceptanceCriteria {
			fmt.Fprintf(&sb, "- %s\n", c)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// RenderTestCases 以 "Test #N" 格式渲染测试用例
func RenderTestCases(cases []artifacts.TestCase) string {
	var sb strings.Builder
	for i, tc := range cases {
		fmt.Fprintf(&sb, "Test #%d: %s\n", i+1, tc.Title)
		fmt.Fprintf(&sb, "Description: %s\n", tc.Description)
		sb.WriteString("Steps:\n")
		for _, step := range tc.Steps {
			fmt.Fprintf(&sb, "- %s\n", step)
		}
		fmt.Fprintf(&sb, "Expected Result: %s\n\n", tc.ExpectedResult)
	}
	return sb.String()
}

// renderCodePreviews 每个文件列出名称与截断后的代码片段
func renderCodePreviews(tk tokenizer.Tokenizer, files []artifacts.CodeFile, budget int) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "- %s\n", f.Name)
		fmt.Fprintf(&sb, "```python\n%s\n```\n\n", tokenizer.Truncate(tk, f.Content, budget))
	}
	return sb.String()
}

// renderCodeListing 以 "FILE:" 标记列出每个文件的截断代码
func renderCodeListing(tk tokenizer.Tokenizer, files []artifacts.CodeFile, budget int) string {
	var sb strings.Builder
	for _, f := range files {
		fmt.Fprintf(&sb, "FILE: %s\n", f.Name)
		fmt.Fprintf(&sb, "```python\n%s\n```\n\n", tokenizer.Truncate(tk, f.Content, budget))
	}
	return sb.String()
}
