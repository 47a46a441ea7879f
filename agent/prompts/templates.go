package prompts

import (
	"embed"
	"fmt"
	"regexp"
	"sort"
	"strings"
)

//go:embed templates/*
var templateFS embed.FS

// 模板名称
const (
	TemplateUserStories  = "user_stories.tmpl"
	TemplateDesign       = "design.tmpl"
	TemplateFileManifest = "file_manifest.tmpl"
	TemplateCodeFile     = "code_file.tmpl"
	TemplateTestCases    = "test_cases.tmpl"
	TemplateTestResults  = "test_results.tmpl"
	TemplateProjectLead  = "project_lead.tmpl"

	DocUserStory    = "user_story.md"
	DocDesign       = "design_doc.md"
	DocCodeTemplate = "code_template.py"
	DocTestCase     = "test_case.md"
)

// templateVarRegexp 匹配模板变量 {{variable}} 或 {{ variable }}
var templateVarRegexp = regexp.MustCompile(`\{\{\s*([a-zA-Z_][a-zA-Z0-9_.-]*)\s*\}\}`)

// Template 返回内嵌模板原文
func Template(name string) (string, error) {
	data, err := templateFS.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("template %q not found: %w", name, err)
	}
	return string(data), nil
}

// Templates 返回全部内嵌模板名称（已排序）
func Templates() []string {
	entries, err := templateFS.ReadDir("templates")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

// Render 读取模板并替换变量；未提供的变量保持原样
func Render(name string, vars map[string]string) (string, error) {
	tmpl, err := Template(name)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(replaceTemplateVars(tmpl, vars)), nil
}

// replaceTemplateVars 单遍替换，变量值中的 {{...}} 不会被再次展开
func replaceTemplateVars(text string, vars map[string]string) string {
	if len(vars) == 0 {
		return text
	}
	return templateVarRegexp.ReplaceAllStringFunc(text, func(match string) string {
		sub := templateVarRegexp.FindStringSubmatch(match)
		if len(sub) < 2 {
			return match
		}
		if v, ok := vars[sub[1]]; ok {
			return v
		}
		return match
	})
}

// Variables 返回模板中引用的变量名（去重、排序）
func Variables(name string) ([]string, error) {
	tmpl, err := Template(name)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var out []string
	for _, m := range templateVarRegexp.FindAllStringSubmatch(tmpl, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			out = append(out, m[1])
		}
	}
	sort.Strings(out)
	return out, nil
}
