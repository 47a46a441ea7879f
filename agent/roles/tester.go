package roles

import (
	"context"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/pipeline"
)

// Tester 编写测试用例并给出（模拟的）执行结果
type Tester struct {
	pipeline *pipeline.Pipeline
}

// CreateTestCases 为用户故事生成测试用例；兜底时每个故事一个用例
func (t *Tester) CreateTestCases(ctx context.Context, project string, stories []artifacts.UserStory, design string, code []artifacts.CodeFile) ([]artifacts.TestCase, *pipeline.Result, error) {
	res, err := t.pipeline.Run(ctx, artifacts.KindTestCase, artifacts.SourceContext{
		Project:     project,
		UserStories: stories,
		DesignDoc:   design,
		CodeFiles:   code,
	})
	if err != nil {
		return nil, nil, err
	}
	return artifacts.TestCases(res.Artifacts), res, nil
}

// ExecuteTests 根据代码评估测试用例
func (t *Tester) ExecuteTests(ctx context.Context, project string, cases []artifacts.TestCase, code []artifacts.CodeFile) ([]artifacts.TestResult, *pipeline.Result, error) {
	res, err := t.pipeline.Run(ctx, artifacts.KindTestResult, artifacts.SourceContext{
		Project:   project,
		TestCases: cases,
		CodeFiles: code,
	})
	if err != nil {
		return nil, nil, err
	}
	return artifacts.TestResults(res.Artifacts), res, nil
}
