package roles

import (
	"context"
	"strings"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/pipeline"
	"github.com/BaSui01/devpod/types"
)

// BusinessAnalyst 将高层需求拆解为用户故事
type BusinessAnalyst struct {
	pipeline *pipeline.Pipeline
}

// GenerateUserStories 运行用户故事流水线。roleHints 非空时兜底按角色生成。
func (a *BusinessAnalyst) GenerateUserStories(ctx context.Context, project, requirements string, roleHints ...string) ([]artifacts.UserStory, *pipeline.Result, error) {
	if strings.TrimSpace(requirements) == "" {
		return nil, nil, types.NewError(types.ErrInvalidRequest, "requirements cannot be empty")
	}
	res, err := a.pipeline.Run(ctx, artifacts.KindUserStory, artifacts.SourceContext{
		Project:      project,
		Requirements: requirements,
		RoleHints:    roleHints,
	})
	if err != nil {
		return nil, nil, err
	}
	return artifacts.UserStories(res.Artifacts), res, nil
}
