/*
Package testutil 提供 devpod 测试的共享工具和辅助函数。

# 核心能力

  - 上下文辅助: TestContext / CancelledContext，自动注册 Cleanup
  - 时钟: FixedClock，固定制品键中的时间戳

# 子包

  - testutil/mocks: MockProvider（llm.Provider），支持脚本响应、延迟与错误注入；
    ScriptedCompleter（llm.Completer），按提示词子串匹配响应并记录调用
  - testutil/fixtures: 模型原始输出样例与上游制品

# 使用示例

	ctx := testutil.TestContext(t)
	provider := mocks.NewMockProvider().WithResponses(fixtures.StoriesResponse)
*/
package testutil
