// =============================================================================
// 📦 测试数据工厂 - 模型输出样例
// =============================================================================
// 提供预定义的模型原始输出与上游制品，用于流水线与角色测试
// =============================================================================
package fixtures

import "github.com/BaSui01/devpod/agent/artifacts"

// =============================================================================
// 🎯 原始补全文本
// =============================================================================

// StoriesResponse 两个合法用户故事，前后带解释文字
const StoriesResponse = "Here are the user stories:\n```json\n" + `[
  {"title": "Register account", "role": "visitor", "want": "to create an account",
   "so_that": "I can save my preferences",
   "acceptance_criteria": ["Form validates email", "Password is hashed", "Welcome mail is sent"]},
  {"title": "Reset password", "role": "member", "want": "to reset my password",
   "so_that": "I can regain access",
   "acceptance_criteria": ["Reset link expires", "Old password stops working", "User is notified"]}
]` + "\n```\nLet me know if you need more."

// StoriesMissingCriteria 三个故事中第二个缺少 acceptance_criteria
const StoriesMissingCriteria = `[
  {"title": "A", "role": "r", "want": "w", "so_that": "s", "acceptance_criteria": ["c"]},
  {"title": "B", "role": "r", "want": "w", "so_that": "s"},
  {"title": "C", "role": "r", "want": "w", "so_that": "s", "acceptance_criteria": ["c"]}
]`

// TestCasesResponse 两个合法测试用例
const TestCasesResponse = `Test plan:
[
  {"title": "Register with valid email", "description": "Happy path registration",
   "steps": ["Open signup", "Fill form", "Submit"], "expected_result": "Account created"},
  {"title": "Reset with expired link", "description": "Expired reset link",
   "steps": ["Request reset", "Wait 25 hours", "Open link"], "expected_result": "Link rejected"}
]`

// TestResultsWithInvalidStatus 含非法状态 MAYBE
const TestResultsWithInvalidStatus = `[
  {"title": "Register with valid email", "description": "Happy path registration", "status": "PASS", "details": ""},
  {"title": "Reset with expired link", "description": "Expired reset link", "status": "MAYBE", "details": "unclear"}
]`

// TestResultsResponse 一个通过、一个失败
const TestResultsResponse = `Results:
[
  {"title": "Register with valid email", "description": "Happy path registration", "status": "PASS", "details": ""},
  {"title": "Reset with expired link", "description": "Expired reset link", "status": "FAIL", "details": "Expiry is never checked"}
]`

// ManifestResponse 文件清单
const ManifestResponse = "Files:\n```json\n[\"app.py\", \"auth.py\", \"models.py\"]\n```"

// Refusal 不含任何括号的拒答
const Refusal = "I cannot comply."

// =============================================================================
// 🧱 上游制品
// =============================================================================

// Requirements 高层业务需求
const Requirements = `- Visitors can register an account
- Members can reset their password
- Admins can list all members`

// Stories 返回与 StoriesResponse 对应的用户故事
func Stories() []artifacts.UserStory {
	return []artifacts.UserStory{
		{
			Title: "Register account", Role: "visitor", Want: "to create an account",
			SoThat:             "I can save my preferences",
			AcceptanceCriteria: []string{"Form validates email", "Password is hashed", "Welcome mail is sent"},
		},
		{
			Title: "Reset password", Role: "member", Want: "to reset my password",
			SoThat:             "I can regain access",
			AcceptanceCriteria: []string{"Reset link expires", "Old password stops working", "User is notified"},
		},
	}
}

// TestCases 返回与 TestCasesResponse 对应的测试用例
func TestCases() []artifacts.TestCase {
	return []artifacts.TestCase{
		{
			Title: "Register with valid email", Description: "Happy path registration",
			Steps: []string{"Open signup", "Fill form", "Submit"}, ExpectedResult: "Account created",
		},
		{
			Title: "Reset with expired link", Description: "Expired reset link",
			Steps: []string{"Request reset", "Wait 25 hours", "Open link"}, ExpectedResult: "Link rejected",
		},
	}
}
