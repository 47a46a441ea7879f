package roles

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/persistence"
	"github.com/BaSui01/devpod/agent/pipeline"
	"github.com/BaSui01/devpod/testutil"
	"github.com/BaSui01/devpod/testutil/fixtures"
	"github.com/BaSui01/devpod/testutil/mocks"
	"github.com/BaSui01/devpod/types"
)

// 提示词中可用于路由的片段
const (
	analystMarker   = "senior Business Analyst"
	architectMarker = "senior Software Architect"
	manifestMarker  = "identify all the Python files"
	codeFileMarker  = "You need to implement the file: "
	testCaseMarker  = "creating comprehensive test cases"
	executeMarker   = "executing test cases"
	leadMarker      = "Project Lead of an AI development pod"
)

func happyCompleter() *mocks.ScriptedCompleter {
	return mocks.NewScriptedCompleter().
		On(analystMarker, fixtures.StoriesResponse).
		On(architectMarker, "# Design\n\nFlask API backed by SQLite.").
		On(manifestMarker, fixtures.ManifestResponse).
		OnFunc(codeFileMarker, func(prompt string) (string, error) {
			return "# " + requestedFile(prompt) + "\nprint('ok')\n", nil
		}).
		On(testCaseMarker, fixtures.TestCasesResponse).
		On(executeMarker, fixtures.TestResultsResponse).
		On(leadMarker, "Two of the stories are covered.")
}

func requestedFile(prompt string) string {
	rest := prompt[strings.Index(prompt, codeFileMarker)+len(codeFileMarker):]
	if i := strings.IndexByte(rest, '\n'); i >= 0 {
		rest = rest[:i]
	}
	return strings.TrimSpace(rest)
}

func newTestTeam(c *mocks.ScriptedCompleter, store persistence.Store, opts ...Option) *Team {
	return NewTeam(pipeline.New(c), c, store, opts...)
}

// =============================================================================
// 🧑‍💼 BusinessAnalyst
// =============================================================================

func TestBusinessAnalyst_GenerateUserStories(t *testing.T) {
	ctx := testutil.TestContext(t)
	team := newTestTeam(happyCompleter(), nil)

	stories, res, err := team.Analyst.GenerateUserStories(ctx, "shop", fixtures.Requirements)
	require.NoError(t, err)
	assert.Equal(t, fixtures.Stories(), stories)
	assert.Equal(t, artifacts.OriginExtracted, res.Origin)
}

func TestBusinessAnalyst_FallbackUsesRequirementLines(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := mocks.NewScriptedCompleter().OnError(analystMarker, "service unavailable")
	team := newTestTeam(c, nil)

	stories, res, err := team.Analyst.GenerateUserStories(ctx, "shop", fixtures.Requirements)
	require.NoError(t, err)
	assert.Equal(t, artifacts.OriginFallback, res.Origin)
	assert.Equal(t, types.ErrTransport, res.Reason)
	assert.Equal(t, "Error: service unavailable", res.Raw)
	require.Len(t, stories, 3)
	assert.Equal(t, "Visitors can register an account", stories[0].Title)
}

func TestBusinessAnalyst_EmptyRequirements(t *testing.T) {
	c := happyCompleter()
	team := newTestTeam(c, nil)

	_, _, err := team.Analyst.GenerateUserStories(testutil.TestContext(t), "shop", "  \n")
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
	assert.Zero(t, c.CallCount())
}

// =============================================================================
// 🏗️ Architect
// =============================================================================

func TestArchitect_CreateDesign(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := happyCompleter()
	team := newTestTeam(c, nil)

	doc, err := team.Architect.CreateDesign(ctx, fixtures.Requirements, fixtures.Stories())
	require.NoError(t, err)
	assert.False(t, doc.Failed())
	assert.Equal(t, "# Design\n\nFlask API backed by SQLite.", doc.Content)

	calls := c.Calls()
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0].Prompt, "User Story #2: Reset password")
	assert.Contains(t, calls[0].Prompt, fixtures.Requirements)
}

func TestArchitect_TransportFailureYieldsErrorText(t *testing.T) {
	c := mocks.NewScriptedCompleter().OnError(architectMarker, "rate limited")
	team := newTestTeam(c, nil)

	doc, err := team.Architect.CreateDesign(testutil.TestContext(t), fixtures.Requirements, nil)
	require.NoError(t, err)
	assert.True(t, doc.Failed())
	assert.Equal(t, "Error: rate limited", doc.Content)
}

// =============================================================================
// 👩‍💻 Developer
// =============================================================================

func TestDeveloper_GenerateCode(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := happyCompleter()
	team := newTestTeam(c, nil)

	code, err := team.Developer.GenerateCode(ctx, "shop", fixtures.Stories(), "# Design")
	require.NoError(t, err)
	assert.Equal(t, artifacts.OriginExtracted, code.Manifest.Origin)
	assert.Empty(t, code.Failed)

	require.Len(t, code.Files, 3)
	for i, name := range []string{"app.py", "auth.py", "models.py"} {
		assert.Equal(t, name, code.Files[i].Name)
		assert.Equal(t, "# "+name+"\nprint('ok')", code.Files[i].Content)
	}
	assert.Equal(t, 3, c.CallsMatching(codeFileMarker))
}

func TestDeveloper_ManifestFallbackAndFileFailure(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := mocks.NewScriptedCompleter().
		On(manifestMarker, fixtures.Refusal).
		OnError(codeFileMarker+"api.py", "upstream timeout").
		OnFunc(codeFileMarker, func(prompt string) (string, error) {
			return "pass", nil
		})
	team := newTestTeam(c, nil)

	code, err := team.Developer.GenerateCode(ctx, "shop", fixtures.Stories(), "# Design")
	require.NoError(t, err)
	assert.Equal(t, artifacts.OriginFallback, code.Manifest.Origin)
	assert.Equal(t, types.ErrParse, code.Manifest.Reason)

	names := make([]string, len(code.Files))
	for i, f := range code.Files {
		names[i] = f.Name
	}
	assert.Equal(t, artifacts.DefaultFilenames(), names)
	assert.Equal(t, []string{"api.py"}, code.Failed)
	assert.Equal(t, "Error: upstream timeout", code.Files[2].Content)
	assert.Equal(t, "pass", code.Files[0].Content)
}

func TestDeveloper_ConcurrencyLimit(t *testing.T) {
	ctx := testutil.TestContext(t)
	var inFlight, peak atomic.Int32

	c := mocks.NewScriptedCompleter().
		On(manifestMarker, `["a.py", "b.py", "c.py", "d.py", "e.py", "f.py"]`).
		OnFunc(codeFileMarker, func(string) (string, error) {
			n := inFlight.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			inFlight.Add(-1)
			return "pass", nil
		})
	team := newTestTeam(c, nil, WithCodeConcurrency(2))

	code, err := team.Developer.GenerateCode(ctx, "shop", fixtures.Stories(), "# Design")
	require.NoError(t, err)
	assert.Len(t, code.Files, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

// =============================================================================
// 🧪 Tester
// =============================================================================

func TestTester_CreateAndExecute(t *testing.T) {
	ctx := testutil.TestContext(t)
	team := newTestTeam(happyCompleter(), nil)
	code := []artifacts.CodeFile{{Name: "app.py", Content: "print('ok')"}}

	cases, res, err := team.Tester.CreateTestCases(ctx, "shop", fixtures.Stories(), "# Design", code)
	require.NoError(t, err)
	assert.True(t, res.Extracted())
	assert.Equal(t, fixtures.TestCases(), cases)

	results, res, err := team.Tester.ExecuteTests(ctx, "shop", cases, code)
	require.NoError(t, err)
	assert.True(t, res.Extracted())
	require.Len(t, results, 2)
	assert.Equal(t, artifacts.StatusFail, results[1].Status)
}

func TestTester_Fallbacks(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := mocks.NewScriptedCompleter().Default(fixtures.Refusal)
	team := newTestTeam(c, nil)

	cases, res, err := team.Tester.CreateTestCases(ctx, "shop", fixtures.Stories(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, artifacts.OriginFallback, res.Origin)
	require.Len(t, cases, 2)
	assert.Equal(t, "Test Register account", cases[0].Title)

	results, res, err := team.Tester.ExecuteTests(ctx, "shop", cases, nil)
	require.NoError(t, err)
	assert.Equal(t, artifacts.OriginFallback, res.Origin)
	require.Len(t, results, 2)
	assert.Equal(t, artifacts.StatusFail, results[0].Status)
	assert.Equal(t, artifacts.FailureDetails, results[0].Details)
	assert.Equal(t, artifacts.StatusPass, results[1].Status)
	assert.Empty(t, results[1].Details)
}

// =============================================================================
// 🧭 ProjectLead
// =============================================================================

func TestProjectLead_Respond(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := happyCompleter()
	store := persistence.NewMemoryStore()
	team := newTestTeam(c, store)

	_, err := store.PutDocument(ctx, persistence.DesignDocument("shop", "Password reset uses signed links."))
	require.NoError(t, err)

	snap := Snapshot{
		Project:      "shop",
		Requirements: fixtures.Requirements,
		Stories:      fixtures.Stories(),
		TestResults: []artifacts.TestResult{
			{Title: "Register", Status: artifacts.StatusPass},
			{Title: "Reset", Status: artifacts.StatusFail, Details: "x"},
		},
	}
	answer, err := team.Lead.Respond(ctx, snap, "How does password reset work?")
	require.NoError(t, err)
	assert.Equal(t, "Two of the stories are covered.", answer.Content)

	prompt := c.Calls()[0].Prompt
	assert.Contains(t, prompt, `working on the project "shop"`)
	assert.Contains(t, prompt, "- Pass Rate: 50.0%")
	assert.Contains(t, prompt, "- From DESIGN:\n  Document 1: Password reset uses signed links.")
	assert.Contains(t, prompt, `"How does password reset work?"`)

	// 问答被存储，但不参与检索
	n, err := store.Count(ctx, persistence.CollectionConversations)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	hits, err := store.Query(ctx, "shop", "password reset", 5)
	require.NoError(t, err)
	assert.NotContains(t, hits, persistence.CollectionConversations)
}

func TestProjectLead_FailedAnswerIsStored(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := mocks.NewScriptedCompleter().OnError(leadMarker, "bad gateway")
	store := persistence.NewMemoryStore()
	team := newTestTeam(c, store)

	answer, err := team.Lead.Respond(ctx, Snapshot{Project: "shop"}, "status?")
	require.NoError(t, err)
	assert.True(t, answer.Failed())
	assert.Equal(t, "Error: bad gateway", answer.Content)

	n, err := store.Count(ctx, persistence.CollectionConversations)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProjectLead_InvalidInput(t *testing.T) {
	ctx := testutil.TestContext(t)
	c := happyCompleter()
	team := newTestTeam(c, nil)

	_, err := team.Lead.Respond(ctx, Snapshot{Project: "shop"}, " ")
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
	_, err = team.Lead.Respond(ctx, Snapshot{}, "status?")
	assert.True(t, types.IsErrorCode(err, types.ErrInvalidRequest))
	assert.Zero(t, c.CallCount())
}

func TestProjectLead_StoreFailure(t *testing.T) {
	ctx := testutil.TestContext(t)
	store := persistence.NewMemoryStore()
	require.NoError(t, store.Close())
	team := newTestTeam(happyCompleter(), store)

	answer, err := team.Lead.Respond(ctx, Snapshot{Project: "shop"}, "status?")
	require.Error(t, err)
	assert.ErrorIs(t, err, persistence.ErrStoreClosed)
	assert.Equal(t, "Two of the stories are covered.", answer.Content)
}

func TestSummarize(t *testing.T) {
	long := strings.Repeat("d", 600)
	snap := Snapshot{
		Stories: []artifacts.UserStory{{
			Title: "Checkout", Role: "shopper",
			Want: strings.Repeat("w", 60),
		}},
		DesignDoc: long,
		CodeFiles: []artifacts.CodeFile{{Name: "main.py"}, {Name: "api.py"}},
		TestCases: []artifacts.TestCase{{Title: "Pay"}},
		TestResults: []artifacts.TestResult{
			{Title: "Pay", Status: artifacts.StatusFail},
			{Title: "Refund", Status: artifacts.StatusPass},
			{Title: "Cancel", Status: artifacts.StatusPass},
		},
	}
	hits := map[persistence.Collection][]persistence.Hit{
		persistence.CollectionCode: {{Content: strings.Repeat("c", 250)}},
	}

	got := Summarize(snap, hits)

	want := strings.Join([]string{
		"\nUSER STORIES SUMMARY:\n- User Story #1: Checkout (As a shopper, I want " + strings.Repeat("w", 50) + "...)\n",
		"\nDESIGN DOCUMENT PREVIEW:\n" + strings.Repeat("d", 500) + "...",
		"\nCODE FILES:\n- main.py\n- api.py\n",
		"\nTEST CASES SUMMARY:\n- Test #1: Pay\n",
		"\nTEST RESULTS SUMMARY:\n- Total Tests: 3\n- Tests Passed: 2\n- Pass Rate: 66.7%\n- Failed Tests:\n  - Pay\n",
		"\nRELEVANT INFORMATION FROM DATABASE:\n- From CODE:\n  Document 1: " + strings.Repeat("c", 200) + "...\n",
	}, "\n")
	assert.Equal(t, want, got)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Empty(t, Summarize(Snapshot{Project: "shop"}, nil))
}

func TestText_Failed(t *testing.T) {
	assert.False(t, Text{Content: "ok"}.Failed())
	assert.True(t, Text{Content: "Error: x", Err: context.Canceled}.Failed())
}
