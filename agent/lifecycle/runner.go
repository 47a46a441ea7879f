package lifecycle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/persistence"
	"github.com/BaSui01/devpod/agent/roles"
	"github.com/BaSui01/devpod/internal/ctxkeys"
	"github.com/BaSui01/devpod/types"
)

// handler 执行一个阶段的工作，会话以指针传入
type handler func(ctx context.Context, s *Session) error

// Runner 驱动开发小组依次完成各阶段，并持久化每个阶段的产出
type Runner struct {
	team     *roles.Team
	store    persistence.Store
	logger   *zap.Logger
	now      func() time.Time
	handlers map[Phase]handler
}

// NewRunner 创建 Runner
func NewRunner(team *roles.Team, store persistence.Store, logger *zap.Logger) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &Runner{
		team:   team,
		store:  store,
		logger: logger.With(zap.String("component", "runner")),
		now:    time.Now,
	}
	r.handlers = map[Phase]handler{
		PhaseRequirements: r.requirements,
		PhaseDesign:       r.design,
		PhaseDevelopment:  r.development,
		PhaseTesting:      r.tests,
		PhaseChat:         func(context.Context, *Session) error { return nil },
	}
	return r
}

// Initialize 记录项目名与需求并存储需求文档，会话进入 requirements 阶段。
// 存储失败时会话保持在 setup。
func (r *Runner) Initialize(ctx context.Context, s *Session, project, requirements string) error {
	project = strings.TrimSpace(project)
	if project == "" || strings.TrimSpace(requirements) == "" {
		return types.NewError(types.ErrInvalidRequest, "project name and requirements are required")
	}
	if s.machine.Initialized() {
		return invalidTransition(s.Phase(), PhaseRequirements, "project already initialized")
	}

	if _, err := r.store.PutDocument(ctx, persistence.RequirementsDocument(project, requirements)); err != nil {
		return fmt.Errorf("store requirements: %w", err)
	}
	s.update(func(s *Session) {
		s.project = project
		s.requirements = requirements
	})
	if err := s.machine.Start(); err != nil {
		return err
	}

	r.logger.Info("project initialized", zap.String("project", project), zap.String("session_id", s.ID()))
	return nil
}

// RunPhase 切换到 phase 并执行其工作；产出已存在的部分不会重新生成
func (r *Runner) RunPhase(ctx context.Context, s *Session, phase Phase) error {
	h, ok := r.handlers[phase]
	if !ok {
		return invalidTransition(s.Phase(), phase, "unknown phase")
	}
	if err := s.machine.GoTo(phase); err != nil {
		return err
	}

	ctx = ctxkeys.WithPhase(ctxkeys.WithProject(ctx, s.Project()), string(phase))
	start := r.now()
	if err := h(ctx, s); err != nil {
		r.logger.Error("phase failed",
			zap.String("project", s.Project()),
			zap.String("phase", string(phase)),
			zap.Error(err))
		return fmt.Errorf("%s phase: %w", phase, err)
	}
	r.logger.Info("phase completed",
		zap.String("project", s.Project()),
		zap.String("phase", string(phase)),
		zap.Duration("duration", r.now().Sub(start)))
	return nil
}

// RunAll 按顺序执行全部阶段，结束时会话处于 chat 阶段
func (r *Runner) RunAll(ctx context.Context, s *Session) error {
	if !s.machine.Initialized() {
		return invalidTransition(PhaseSetup, PhaseRequirements, "project not initialized")
	}
	for _, phase := range workPhases {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.RunPhase(ctx, s, phase); err != nil {
			return err
		}
	}
	return nil
}

// Ask 向项目负责人提问并记录问答；不改变当前阶段
func (r *Runner) Ask(ctx context.Context, s *Session, question string) (roles.Text, error) {
	if !s.machine.Initialized() {
		return roles.Text{}, invalidTransition(PhaseSetup, PhaseChat, "project not initialized")
	}
	answer, err := r.team.Lead.Respond(ctx, s.Snapshot(), question)
	if answer.Content != "" {
		s.update(func(s *Session) {
			s.conversation = append(s.conversation, Exchange{
				Question: question,
				Answer:   answer.Content,
				Failed:   answer.Failed(),
				At:       r.now(),
			})
		})
	}
	return answer, err
}

// =============================================================================
// 阶段处理
// =============================================================================

func (r *Runner) requirements(ctx context.Context, s *Session) error {
	if len(s.Stories()) > 0 {
		return nil
	}
	project := s.Project()
	stories, res, err := r.team.Analyst.GenerateUserStories(ctx, project, s.Requirements())
	if err != nil {
		return err
	}
	if _, err := persistence.PutAll(ctx, r.store, project, artifacts.KindUserStory, res.Artifacts); err != nil {
		return err
	}
	s.update(func(s *Session) {
		s.stories = stories
		s.origins[StageUserStories] = res.Origin
	})
	return nil
}

func (r *Runner) design(ctx context.Context, s *Session) error {
	if s.Design() != "" {
		return nil
	}
	project := s.Project()
	doc, err := r.team.Architect.CreateDesign(ctx, s.Requirements(), s.Stories())
	if err != nil {
		return err
	}
	if _, err := r.store.PutDocument(ctx, persistence.DesignDocument(project, doc.Content)); err != nil {
		return err
	}
	s.update(func(s *Session) {
		s.design = doc.Content
		s.origins[StageDesign] = origin(doc.Failed())
	})
	return nil
}

func (r *Runner) development(ctx context.Context, s *Session) error {
	if len(s.Code()) > 0 {
		return nil
	}
	project := s.Project()
	code, err := r.team.Developer.GenerateCode(ctx, project, s.Stories(), s.Design())
	if err != nil {
		return err
	}
	if _, err := persistence.PutAll(ctx, r.store, project, artifacts.KindFileManifest, code.Manifest.Artifacts); err != nil {
		return err
	}
	for i, f := range code.Files {
		if _, err := r.store.PutDocument(ctx, persistence.CodeDocument(project, i, f)); err != nil {
			return err
		}
	}
	s.update(func(s *Session) {
		s.code = code.Files
		s.origins[StageFileManifest] = code.Manifest.Origin
		s.origins[StageCode] = origin(len(code.Failed) > 0)
	})
	return nil
}

// tests 先编写测试用例，再执行测试
func (r *Runner) tests(ctx context.Context, s *Session) error {
	project := s.Project()

	if len(s.TestCases()) == 0 {
		cases, res, err := r.team.Tester.CreateTestCases(ctx, project, s.Stories(), s.Design(), s.Code())
		if err != nil {
			return err
		}
		if _, err := persistence.PutAll(ctx, r.store, project, artifacts.KindTestCase, res.Artifacts); err != nil {
			return err
		}
		s.update(func(s *Session) {
			s.testCases = cases
			s.origins[StageTestCases] = res.Origin
		})
	}

	if len(s.TestResults()) == 0 {
		results, res, err := r.team.Tester.ExecuteTests(ctx, project, s.TestCases(), s.Code())
		if err != nil {
			return err
		}
		if _, err := persistence.PutAll(ctx, r.store, project, artifacts.KindTestResult, res.Artifacts); err != nil {
			return err
		}
		s.update(func(s *Session) {
			s.testResults = results
			s.origins[StageTestResults] = res.Origin
		})
		sum := artifacts.Summarize(results)
		r.logger.Info("tests executed",
			zap.String("project", project),
			zap.Int("total", sum.Total),
			zap.Int("passed", sum.Passed),
			zap.Float64("pass_rate", sum.PassRate))
	}
	return nil
}
