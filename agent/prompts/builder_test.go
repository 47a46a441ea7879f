package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/llm/tokenizer"
	"github.com/BaSui01/devpod/testutil/fixtures"
	"github.com/BaSui01/devpod/types"
)

func TestRenderStories(t *testing.T) {
	got := RenderStories([]artifacts.UserStory{{
		Title: "Login", Role: "member", Want: "to sign in", SoThat: "I see my data",
		AcceptanceCriteria: []string{"a", "b"},
	}})
	want := "User Story #1: Login\nAs a member, I want to sign in so that I see my data\nAcceptance Criteria:\n- a\n- b\n\n"
	assert.Equal(t, want, got)
	assert.Empty(t, RenderStories(nil))
}

func TestRenderTestCases(t *testing.T) {
	got := RenderTestCases(fixtures.TestCases()[:1])
	assert.Equal(t, "Test #1: Register with valid email\nDescription: Happy path registration\n"+
		"Steps:\n- Open signup\n- Fill form\n- Submit\nExpected Result: Account created\n\n", got)
}

func TestBuilder_ForKind(t *testing.T) {
	b := NewBuilder(nil, "")
	src := artifacts.SourceContext{
		Requirements: fixtures.Requirements,
		UserStories:  fixtures.Stories(),
		TestCases:    fixtures.TestCases(),
		DesignDoc:    "# Design\nA web app.",
		CodeFiles:    []artifacts.CodeFile{{Name: "app.py", Content: "print('hi')"}},
	}

	for _, kind := range artifacts.Kinds() {
		t.Run(string(kind), func(t *testing.T) {
			p, err := b.ForKind(kind, src)
			require.NoError(t, err)
			assert.NotContains(t, p.User, "{{", "all template variables resolved")
			assert.Contains(t, p.System, "Respond with exactly one JSON array.")
			assert.Contains(t, p.System, `"type":"array"`)
		})
	}
}

func TestBuilder_UserStoriesIncludesRequirementsAndHints(t *testing.T) {
	b := NewBuilder(nil, "You work for ACME.")
	p, err := b.ForKind(artifacts.KindUserStory, artifacts.SourceContext{
		Requirements: "Members can reset passwords",
		RoleHints:    []string{"admin", "guest"},
	})
	require.NoError(t, err)

	assert.Contains(t, p.User, "THE HIGH-LEVEL BUSINESS REQUIREMENTS:\nMembers can reset passwords")
	assert.Contains(t, p.User, "admin, guest")
	assert.Contains(t, p.User, "## Acceptance Criteria")
	assert.True(t, strings.HasPrefix(p.System, "You work for ACME.\nYou are a senior Business Analyst"))
}

func TestBuilder_TestCasesTruncatesPreviews(t *testing.T) {
	b := NewBuilder(tokenizer.NewEstimatorTokenizer("", 0), "")
	longDesign := strings.Repeat("design ", 1000)
	longCode := strings.Repeat("x = 1\n", 1000)

	p, err := b.ForKind(artifacts.KindTestCase, artifacts.SourceContext{
		UserStories: fixtures.Stories(),
		DesignDoc:   longDesign,
		CodeFiles:   []artifacts.CodeFile{{Name: "main.py", Content: longCode}},
	})
	require.NoError(t, err)

	assert.Less(t, strings.Count(p.User, "design "), 300)
	assert.Contains(t, p.User, "- main.py\n```python\n")
	assert.Contains(t, p.User, tokenizer.TruncationMarker+"\n```")
}

func TestBuilder_TestResultsListsCodeAndCases(t *testing.T) {
	b := NewBuilder(nil, "")
	p, err := b.ForKind(artifacts.KindTestResult, artifacts.SourceContext{
		TestCases: fixtures.TestCases(),
		CodeFiles: []artifacts.CodeFile{{Name: "auth.py", Content: "def login(): pass"}},
	})
	require.NoError(t, err)

	assert.Contains(t, p.User, "FILE: auth.py\n```python\ndef login(): pass\n```")
	assert.Contains(t, p.User, "Test #2: Reset with expired link")
}

func TestBuilder_UnknownKind(t *testing.T) {
	_, err := NewBuilder(nil, "").ForKind(artifacts.Kind("nope"), artifacts.SourceContext{})
	assert.Equal(t, types.ErrInvalidRequest, types.GetErrorCode(err))
}

func TestBuilder_FreeTextPrompts(t *testing.T) {
	b := NewBuilder(nil, "")

	design, err := b.Design("Build a shop", fixtures.Stories())
	require.NoError(t, err)
	assert.Contains(t, design.User, "Build a shop")
	assert.Contains(t, design.User, "# Design Document")
	assert.Equal(t, "You are a senior Software Architect on an AI development pod.", design.System)

	code, err := b.CodeFile("# Design", fixtures.Stories(), "models.py")
	require.NoError(t, err)
	assert.Contains(t, code.User, "You need to implement the file: models.py")
	assert.Contains(t, code.User, "class [ClassName]:")

	lead, err := b.ProjectLead("Shop", "Build a shop", "USER STORIES SUMMARY:\n- x", "What is left?")
	require.NoError(t, err)
	assert.Contains(t, lead.User, `working on the project "Shop"`)
	assert.Contains(t, lead.User, `"What is left?"`)
	assert.Empty(t, lead.System)
}

func TestRender_DoesNotExpandValues(t *testing.T) {
	out, err := Render(TemplateProjectLead, map[string]string{
		"project":  "{{question}}",
		"question": "Q",
	})
	require.NoError(t, err)
	assert.Contains(t, out, `project "{{question}}"`)
	assert.Contains(t, out, "{{requirements}}", "未提供的变量保持原样")
}

func TestTemplates(t *testing.T) {
	names := Templates()
	assert.Contains(t, names, TemplateUserStories)
	assert.Contains(t, names, DocCodeTemplate)

	_, err := Template("missing.tmpl")
	assert.Error(t, err)

	vars, err := Variables(TemplateCodeFile)
	require.NoError(t, err)
	assert.Equal(t, []string{"design", "filename", "stories", "template"}, vars)
}

func TestSystemPrompt_Render(t *testing.T) {
	assert.True(t, SystemPrompt{}.IsZero())
	assert.Empty(t, SystemPrompt{}.Render())

	out := SystemPrompt{
		Role:        "Role",
		OutputRules: []string{"one", " "},
		Prohibits:   []string{"two"},
		Schema:      `{"type":"array"}`,
	}.Render()
	assert.Equal(t, "Role\n\nOutput rules:\n- one\n\nNever:\n- two\n\nThe JSON must conform to this JSON Schema:\n{\"type\":\"array\"}", out)
}
