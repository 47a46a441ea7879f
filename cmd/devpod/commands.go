package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/lifecycle"
	"github.com/BaSui01/devpod/agent/roles"
	"github.com/BaSui01/devpod/internal/migration"
)

var errMissingFlag = errors.New("missing required flag")

// commonFlags 各子命令共享的参数
type commonFlags struct {
	configPath   string
	project      string
	requirements string
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", "", "Path to config file")
	fs.StringVar(&c.project, "project", "", "Project name")
	fs.StringVar(&c.requirements, "requirements", "", `Requirements file, "-" reads stdin`)
}

func (c *commonFlags) requireProject() error {
	if strings.TrimSpace(c.project) == "" {
		return fmt.Errorf("%w: -project", errMissingFlag)
	}
	return nil
}

// setup 加载配置、初始化日志并装配组件
func setup(ctx context.Context, configPath string) (*app, error) {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	logger := initLogger(cfg.Log)
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

func readRequirements(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return "", fmt.Errorf("%w: -requirements", errMissingFlag)
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read requirements: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// =============================================================================
// run
// =============================================================================

type summaryReport struct {
	Total       int      `json:"total"`
	Passed      int      `json:"passed"`
	PassRate    float64  `json:"pass_rate"`
	FailedTests []string `json:"failed_tests"`
}

type exchangeReport struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Failed   bool   `json:"failed,omitempty"`
}

// report run 与 ask 的输出
type report struct {
	SessionID    string                               `json:"session_id"`
	Project      string                               `json:"project"`
	Phase        lifecycle.Phase                      `json:"phase"`
	Origins      map[lifecycle.Stage]artifacts.Origin `json:"origins"`
	Stories      []artifacts.UserStory                `json:"user_stories"`
	Design       string                               `json:"design"`
	CodeFiles    []artifacts.CodeFile                 `json:"code_files"`
	TestCases    []artifacts.TestCase                 `json:"test_cases"`
	TestResults  []artifacts.TestResult               `json:"test_results"`
	Summary      summaryReport                        `json:"summary"`
	Conversation []exchangeReport                     `json:"conversation,omitempty"`
}

func newReport(s *lifecycle.Session) report {
	sum := s.TestSummary()
	r := report{
		SessionID:   s.ID(),
		Project:     s.Project(),
		Phase:       s.Phase(),
		Origins:     s.Origins(),
		Stories:     s.Stories(),
		Design:      s.Design(),
		CodeFiles:   s.Code(),
		TestCases:   s.TestCases(),
		TestResults: s.TestResults(),
		Summary: summaryReport{
			Total:       sum.Total,
			Passed:      sum.Passed,
			PassRate:    sum.PassRate,
			FailedTests: sum.FailedTests,
		},
	}
	for _, ex := range s.Conversation() {
		r.Conversation = append(r.Conversation, exchangeReport{Question: ex.Question, Answer: ex.Answer, Failed: ex.Failed})
	}
	return r
}

// runSession 初始化会话并执行全部阶段
func runSession(ctx context.Context, a *app, project, requirements string) (*lifecycle.Session, error) {
	s := a.newSession()
	if err := a.runner.Initialize(ctx, s, project, requirements); err != nil {
		return nil, err
	}
	if err := a.runner.RunAll(ctx, s); err != nil {
		return s, err
	}
	a.logger.Info("project run complete",
		zap.String("session_id", s.ID()),
		zap.String("project", project),
		zap.Any("origins", s.Origins()),
	)
	return s, nil
}

func runAll(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	var cf commonFlags
	cf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cf.requireProject(); err != nil {
		return err
	}
	reqs, err := readRequirements(cf.requirements, stdin)
	if err != nil {
		return err
	}

	a, err := setup(ctx, cf.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	s, err := runSession(ctx, a, cf.project, reqs)
	if err != nil {
		return err
	}
	return writeJSON(stdout, newReport(s))
}

// =============================================================================
// stories
// =============================================================================

type storiesReport struct {
	RunID   string                `json:"run_id"`
	Origin  artifacts.Origin      `json:"origin"`
	Reason  string                `json:"reason,omitempty"`
	Stories []artifacts.UserStory `json:"user_stories"`
}

func runStories(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("stories", flag.ContinueOnError)
	var cf commonFlags
	cf.register(fs)
	roleHints := fs.String("roles", "", "Comma-separated user roles for synthesized stories")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cf.requireProject(); err != nil {
		return err
	}
	reqs, err := readRequirements(cf.requirements, stdin)
	if err != nil {
		return err
	}

	a, err := setup(ctx, cf.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	stories, res, err := a.team.Analyst.GenerateUserStories(ctx, cf.project, reqs, splitList(*roleHints)...)
	if err != nil {
		return err
	}
	return writeJSON(stdout, storiesReport{
		RunID:   res.RunID,
		Origin:  res.Origin,
		Reason:  string(res.Reason),
		Stories: stories,
	})
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// =============================================================================
// query
// =============================================================================

func runQuery(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("query", flag.ContinueOnError)
	var cf commonFlags
	cf.register(fs)
	text := fs.String("text", "", "Query text")
	limit := fs.Int("limit", 0, "Results per collection (0 uses agents.query_limit)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cf.requireProject(); err != nil {
		return err
	}
	if strings.TrimSpace(*text) == "" {
		return fmt.Errorf("%w: -text", errMissingFlag)
	}

	a, err := setup(ctx, cf.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	n := *limit
	if n <= 0 {
		n = a.cfg.Agents.QueryLimit
	}
	hits, err := a.store.Query(ctx, cf.project, *text, n)
	if err != nil {
		return err
	}
	return writeJSON(stdout, hits)
}

// =============================================================================
// ask
// =============================================================================

func runAsk(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("ask", flag.ContinueOnError)
	var cf commonFlags
	cf.register(fs)
	question := fs.String("question", "", "Question for the project lead")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := cf.requireProject(); err != nil {
		return err
	}
	if strings.TrimSpace(*question) == "" {
		return fmt.Errorf("%w: -question", errMissingFlag)
	}

	a, err := setup(ctx, cf.configPath)
	if err != nil {
		return err
	}
	defer a.close()

	// 没有需求文档时只依据存储中的制品回答
	if cf.requirements == "" {
		answer, err := a.team.Lead.Respond(ctx, roles.Snapshot{Project: cf.project}, *question)
		if answer.Content != "" {
			fmt.Fprintln(stdout, answer.Content)
		}
		return err
	}

	reqs, err := readRequirements(cf.requirements, stdin)
	if err != nil {
		return err
	}
	s, err := runSession(ctx, a, cf.project, reqs)
	if err != nil {
		return err
	}
	if _, err := a.runner.Ask(ctx, s, *question); err != nil {
		return err
	}
	return writeJSON(stdout, newReport(s))
}

// =============================================================================
// migrate
// =============================================================================

func runMigrate(ctx context.Context, args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}
	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	m, err := migration.New(cfg.Database, logger)
	if err != nil {
		return err
	}
	defer m.Close()
	return migration.NewCLI(m, stdout).Run(ctx, fs.Arg(0))
}
