package roles

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/persistence"
	"github.com/BaSui01/devpod/agent/pipeline"
	"github.com/BaSui01/devpod/agent/prompts"
	"github.com/BaSui01/devpod/llm"
)

// 默认值
const (
	DefaultCodeConcurrency = 4
	DefaultQueryLimit      = 5
)

// Text 自由文本阶段的产出
type Text struct {
	Content string
	// Err 为被吸收的补全错误；非空时 Content 为 "Error: <msg>"
	Err error
}

// Failed 报告补全是否失败
func (t Text) Failed() bool {
	return t.Err != nil
}

// Team 开发小组的五个角色
type Team struct {
	Analyst   *BusinessAnalyst
	Architect *Architect
	Developer *Developer
	Tester    *Tester
	Lead      *ProjectLead
}

// Option 配置 Team
type Option func(*teamOptions)

type teamOptions struct {
	logger          *zap.Logger
	codeConcurrency int
	queryLimit      int
}

// WithLogger 设置日志
func WithLogger(logger *zap.Logger) Option {
	return func(o *teamOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCodeConcurrency 设置同时生成的源文件数上限
func WithCodeConcurrency(n int) Option {
	return func(o *teamOptions) {
		if n > 0 {
			o.codeConcurrency = n
		}
	}
}

// WithQueryLimit 设置项目负责人每个集合检索的文档数
func WithQueryLimit(n int) Option {
	return func(o *teamOptions) {
		if n > 0 {
			o.queryLimit = n
		}
	}
}

// NewTeam 组装全部角色。结构化阶段走 p，自由文本阶段直接调用 completer，
// 两者共用 p 的提示词构建器。
func NewTeam(p *pipeline.Pipeline, completer llm.Completer, store persistence.Store, opts ...Option) *Team {
	o := teamOptions{
		logger:          zap.NewNop(),
		codeConcurrency: DefaultCodeConcurrency,
		queryLimit:      DefaultQueryLimit,
	}
	for _, opt := range opts {
		opt(&o)
	}

	w := writer{completer: completer, prompts: p.Prompts()}
	return &Team{
		Analyst:   &BusinessAnalyst{pipeline: p},
		Architect: &Architect{writer: w, logger: o.logger.With(zap.String("role", "architect"))},
		Developer: &Developer{
			pipeline:    p,
			writer:      w,
			concurrency: o.codeConcurrency,
			logger:      o.logger.With(zap.String("role", "developer")),
		},
		Tester: &Tester{pipeline: p},
		Lead: &ProjectLead{
			writer:     w,
			store:      store,
			queryLimit: o.queryLimit,
			logger:     o.logger.With(zap.String("role", "project_lead")),
		},
	}
}

// writer 执行一次自由文本补全，失败时以 "Error: <msg>" 代替输出
type writer struct {
	completer llm.Completer
	prompts   *prompts.Builder
}

func (w writer) write(ctx context.Context, p prompts.Prompt) Text {
	out, err := w.completer.Complete(ctx, p.User, p.System)
	if err != nil {
		return Text{Content: llm.FailureText(err), Err: err}
	}
	return Text{Content: strings.TrimSpace(out)}
}
