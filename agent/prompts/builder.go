package prompts

import (
	"fmt"
	"strings"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/llm/tokenizer"
	"github.com/BaSui01/devpod/types"
)

// Prompt 一次补全调用的用户提示与系统指令
type Prompt struct {
	User   string
	System string
}

var structuredRules = []string{
	"Respond with exactly one JSON array.",
	"Every string field must contain visible text.",
	"Use only the field names shown in the schema.",
}

var structuredProhibits = []string{
	"emit more than one JSON block",
	"leave required fields out or set them to null",
}

var roleIdentities = map[artifacts.Kind]string{
	artifacts.KindUserStory:    "You are a senior Business Analyst on an AI development pod.",
	artifacts.KindFileManifest: "You are a senior Software Developer on an AI development pod.",
	artifacts.KindTestCase:     "You are a QA Engineer on an AI development pod.",
	artifacts.KindTestResult:   "You are a QA Engineer on an AI development pod.",
}

// Builder 依据上游制品构建各阶段提示词
type Builder struct {
	tokenizer tokenizer.Tokenizer
	persona   string
}

// NewBuilder 创建 Builder；persona 会置于每条系统指令之前
func NewBuilder(tk tokenizer.Tokenizer, persona string) *Builder {
	if tk == nil {
		tk = tokenizer.NewEstimatorTokenizer("", 0)
	}
	return &Builder{tokenizer: tk, persona: strings.TrimSpace(persona)}
}

// Tokenizer 返回用于预览截断的分词器
func (b *Builder) Tokenizer() tokenizer.Tokenizer {
	return b.tokenizer
}

// ForKind 构建结构化制品的提示词
func (b *Builder) ForKind(kind artifacts.Kind, src artifacts.SourceContext) (Prompt, error) {
	var (
		user string
		err  error
	)
	switch kind {
	case artifacts.KindUserStory:
		user, err = b.userStories(src)
	case artifacts.KindFileManifest:
		user, err = Render(TemplateFileManifest, map[string]string{
			"design":  src.DesignDoc,
			"stories": RenderStories(src.UserStories),
		})
	case artifacts.KindTestCase:
		user, err = b.testCases(src)
	case artifacts.KindTestResult:
		user, err = Render(TemplateTestResults, map[string]string{
			"code":       renderCodeListing(b.tokenizer, src.CodeFiles, tokenizer.CodeListingTokens),
			"test_cases": RenderTestCases(src.TestCases),
		})
	default:
		return Prompt{}, types.NewError(types.ErrInvalidRequest, fmt.Sprintf("no prompt for artifact kind %q", kind))
	}
	if err != nil {
		return Prompt{}, err
	}

	system, err := b.structuredSystem(kind)
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{User: user, System: system}, nil
}

func (b *Builder) userStories(src artifacts.SourceContext) (string, error) {
	tmpl, err := Template(DocUserStory)
	if err != nil {
		return "", err
	}
	hints := ""
	if len(src.RoleHints) > 0 {
		hints = "\nWrite at least one story for each of these roles: " + strings.Join(src.RoleHints, ", ") + "\n"
	}
	return Render(TemplateUserStories, map[string]string{
		"requirements": src.Requirements,
		"role_hints":   hints,
		"template":     tmpl,
	})
}

func (b *Builder) testCases(src artifacts.SourceContext) (string, error) {
	tmpl, err := Template(DocTestCase)
	if err != nil {
		return "", err
	}
	return Render(TemplateTestCases, map[string]string{
		"stories":  RenderStories(src.UserStories),
		"design":   tokenizer.Truncate(b.tokenizer, src.DesignDoc, tokenizer.DesignPreviewTokens),
		"code":     renderCodePreviews(b.tokenizer, src.CodeFiles, tokenizer.CodePreviewTokens),
		"template": tmpl,
	})
}

func (b *Builder) structuredSystem(kind artifacts.Kind) (string, error) {
	schema, err := artifacts.BatchSchema(kind)
	if err != nil {
		return "", err
	}
	data, err := schema.ToJSON()
	if err != nil {
		return "", fmt.Errorf("encode %s schema: %w", kind, err)
	}

	role := roleIdentities[kind]
	if b.persona != "" {
		role = b.persona + "\n" + role
	}
	return SystemPrompt{
		Role:        role,
		OutputRules: structuredRules,
		Prohibits:   structuredProhibits,
		Schema:      string(data),
	}.Render(), nil
}

// Design 构建架构设计文档提示词（自由文本输出）
func (b *Builder) Design(requirements string, stories []artifacts.UserStory) (Prompt, error) {
	tmpl, err := Template(DocDesign)
	if err != nil {
		return Prompt{}, err
	}
	user, err := Render(TemplateDesign, map[string]string{
		"requirements": requirements,
		"stories":      RenderStories(stories),
		"template":     tmpl,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{User: user, System: b.freeTextSystem("You are a senior Software Architect on an AI development pod.")}, nil
}

// CodeFile 构建单个源文件的代码生成提示词
func (b *Builder) CodeFile(design string, stories []artifacts.UserStory, filename string) (Prompt, error) {
	tmpl, err := Template(DocCodeTemplate)
	if err != nil {
		return Prompt{}, err
	}
	user, err := Render(TemplateCodeFile, map[string]string{
		"design":   design,
		"stories":  RenderStories(stories),
		"filename": filename,
		"template": tmpl,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{User: user, System: b.freeTextSystem("You are a senior Software Developer on an AI development pod.")}, nil
}

// ProjectLead 构建项目负责人问答提示词
func (b *Builder) ProjectLead(project, requirements, summary, question string) (Prompt, error) {
	user, err := Render(TemplateProjectLead, map[string]string{
		"project":      project,
		"requirements": requirements,
		"context":      summary,
		"question":     question,
	})
	if err != nil {
		return Prompt{}, err
	}
	return Prompt{User: user, System: b.freeTextSystem("")}, nil
}

func (b *Builder) freeTextSystem(role string) string {
	parts := make([]string, 0, 2)
	if b.persona != "" {
		parts = append(parts, b.persona)
	}
	if role != "" {
		parts = append(parts, role)
	}
	return SystemPrompt{Role: strings.Join(parts, "\n")}.Render()
}
