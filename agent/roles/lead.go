package roles

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/persistence"
	"github.com/BaSui01/devpod/llm/tokenizer"
	"github.com/BaSui01/devpod/types"
)

// 摘要中各类预览的字符数
const (
	wantPreviewChars   = 50
	designPreviewChars = 500
	hitPreviewChars    = 200
)

// Snapshot 项目负责人回答问题时可见的全部制品
type Snapshot struct {
	Project      string
	Requirements string
	Stories      []artifacts.UserStory
	DesignDoc    string
	CodeFiles    []artifacts.CodeFile
	TestCases    []artifacts.TestCase
	TestResults  []artifacts.TestResult
}

// ProjectLead 基于项目制品与存储检索回答团队成员的问题
type ProjectLead struct {
	writer     writer
	store      persistence.Store
	queryLimit int
	logger     *zap.Logger
}

// Respond 回答 question 并把问答记录存入 conversations 集合。
//
// 补全失败时回答为失败文本，同样会被存储。检索失败只记录日志，
// 摘要中省略检索部分；存储失败时返回回答与 STORE 错误。
func (l *ProjectLead) Respond(ctx context.Context, snap Snapshot, question string) (Text, error) {
	if strings.TrimSpace(question) == "" {
		return Text{}, types.NewError(types.ErrInvalidRequest, "question cannot be empty")
	}
	if strings.TrimSpace(snap.Project) == "" {
		return Text{}, types.NewError(types.ErrInvalidRequest, "project cannot be empty")
	}

	var hits map[persistence.Collection][]persistence.Hit
	if l.store != nil {
		var err error
		hits, err = l.store.Query(ctx, snap.Project, question, l.queryLimit)
		if err != nil {
			l.logger.Warn("project query failed", zap.String("project", snap.Project), zap.Error(err))
		}
	}

	prompt, err := l.writer.prompts.ProjectLead(snap.Project, snap.Requirements, Summarize(snap, hits), question)
	if err != nil {
		return Text{}, err
	}
	answer := l.writer.write(ctx, prompt)
	if answer.Failed() {
		l.logger.Warn("answer completion failed", zap.Error(answer.Err))
	}

	if l.store != nil {
		if _, err := l.store.PutDocument(ctx, persistence.ConversationDocument(snap.Project, question, answer.Content)); err != nil {
			return answer, fmt.Errorf("store conversation: %w", err)
		}
	}
	return answer, nil
}

// Summarize 渲染项目制品摘要。各部分仅在有内容时出现，以空行分隔。
func Summarize(snap Snapshot, hits map[persistence.Collection][]persistence.Hit) string {
	var sections []string

	if len(snap.Stories) > 0 {
		var sb strings.Builder
		sb.WriteString("\nUSER STORIES SUMMARY:\n")
		for i, s := range snap.Stories {
			fmt.Fprintf(&sb, "- User Story #%d: %s (As a %s, I want %s...)\n",
				i+1, s.Title, s.Role, tokenizer.TruncateChars(s.Want, wantPreviewChars))
		}
		sections = append(sections, sb.String())
	}

	if snap.DesignDoc != "" {
		sections = append(sections, "\nDESIGN DOCUMENT PREVIEW:\n"+preview(snap.DesignDoc, designPreviewChars))
	}

	if len(snap.CodeFiles) > 0 {
		var sb strings.Builder
		sb.WriteString("\nCODE FILES:\n")
		for _, f := range snap.CodeFiles {
			fmt.Fprintf(&sb, "- %s\n", f.Name)
		}
		sections = append(sections, sb.String())
	}

	if len(snap.TestCases) > 0 {
		var sb strings.Builder
		sb.WriteString("\nTEST CASES SUMMARY:\n")
		for i, tc := range snap.TestCases {
			fmt.Fprintf(&sb, "- Test #%d: %s\n", i+1, tc.Title)
		}
		sections = append(sections, sb.String())
	}

	if len(snap.TestResults) > 0 {
		sum := artifacts.Summarize(snap.TestResults)
		var sb strings.Builder
		sb.WriteString("\nTEST RESULTS SUMMARY:\n")
		fmt.Fprintf(&sb, "- Total Tests: %d\n", sum.Total)
		fmt.Fprintf(&sb, "- Tests Passed: %d\n", sum.Passed)
		fmt.Fprintf(&sb, "- Pass Rate: %.1f%%\n", sum.PassRate)
		if len(sum.FailedTests) > 0 {
			sb.WriteString("- Failed Tests:\n")
			for _, title := range sum.FailedTests {
				fmt.Fprintf(&sb, "  - %s\n", title)
			}
		}
		sections = append(sections, sb.String())
	}

	if len(hits) > 0 {
		var sb strings.Builder
		sb.WriteString("\nRELEVANT INFORMATION FROM DATABASE:\n")
		for _, c := range persistence.QueryCollections() {
			docs := hits[c]
			if len(docs) == 0 {
				continue
			}
			fmt.Fprintf(&sb, "- From %s:\n", strings.ToUpper(string(c)))
			for i, h := range docs {
				fmt.Fprintf(&sb, "  Document %d: %s\n", i+1, preview(h.Content, hitPreviewChars))
			}
		}
		sections = append(sections, sb.String())
	}

	return strings.Join(sections, "\n")
}

// preview 超过 n 个字符时截断并追加省略号
func preview(s string, n int) string {
	cut := tokenizer.TruncateChars(s, n)
	if cut == s {
		return s
	}
	return cut + tokenizer.TruncationMarker
}
