package prompts

import "strings"

// SystemPrompt 结构化系统指令
type SystemPrompt struct {
	Role        string
	OutputRules []string
	Prohibits   []string
	// Schema 为输出须满足的 JSON Schema 原文
	Schema string
}

// IsZero 报告是否没有任何内容
func (s SystemPrompt) IsZero() bool {
	return strings.TrimSpace(s.Role) == "" && len(s.OutputRules) == 0 &&
		len(s.Prohibits) == 0 && strings.TrimSpace(s.Schema) == ""
}

// Render 渲染为单段系统指令
func (s SystemPrompt) Render() string {
	var parts []string
	if v := strings.TrimSpace(s.Role); v != "" {
		parts = append(parts, v)
	}
	if section := formatBulletSection("Output rules:", s.OutputRules); section != "" {
		parts = append(parts, section)
	}
	if section := formatBulletSection("Never:", s.Prohibits); section != "" {
		parts = append(parts, section)
	}
	if v := strings.TrimSpace(s.Schema); v != "" {
		parts = append(parts, "The JSON must conform to this JSON Schema:\n"+v)
	}
	return strings.Join(parts, "\n\n")
}

func formatBulletSection(title string, items []string) string {
	var cleaned []string
	for _, it := range items {
		it = strings.TrimSpace(it)
		if it != "" {
			cleaned = append(cleaned, "- "+it)
		}
	}
	if len(cleaned) == 0 {
		return ""
	}
	return strings.TrimSpace(title) + "\n" + strings.Join(cleaned, "\n")
}
