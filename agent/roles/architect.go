package roles

import (
	"context"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
)

// Architect 根据需求与用户故事撰写 Markdown 设计文档
type Architect struct {
	writer writer
	logger *zap.Logger
}

// CreateDesign 生成设计文档。补全失败不返回错误，Text.Content 为失败文本。
func (a *Architect) CreateDesign(ctx context.Context, requirements string, stories []artifacts.UserStory) (Text, error) {
	prompt, err := a.writer.prompts.Design(requirements, stories)
	if err != nil {
		return Text{}, err
	}
	doc := a.writer.write(ctx, prompt)
	if doc.Failed() {
		a.logger.Warn("design completion failed", zap.Error(doc.Err))
	}
	return doc, nil
}
