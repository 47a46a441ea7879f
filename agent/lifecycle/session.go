package lifecycle

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/agent/roles"
)

// Stage 会话中记录来源的产出
type Stage string

const (
	StageUserStories  Stage = "user_stories"
	StageDesign       Stage = "design"
	StageFileManifest Stage = "file_manifest"
	StageCode         Stage = "code"
	StageTestCases    Stage = "test_cases"
	StageTestResults  Stage = "test_results"
)

// Exchange 一轮问答
type Exchange struct {
	Question string
	Answer   string
	Failed   bool
	At       time.Time
}

// Session 一个项目的全部状态，由阶段处理函数以指针共享。
// 所有方法并发安全。
type Session struct {
	id      string
	machine *Machine

	mu           sync.RWMutex
	project      string
	requirements string
	stories      []artifacts.UserStory
	design       string
	code         []artifacts.CodeFile
	testCases    []artifacts.TestCase
	testResults  []artifacts.TestResult
	origins      map[Stage]artifacts.Origin
	conversation []Exchange
}

// NewSession 创建处于 setup 阶段的会话
func NewSession(recorder TransitionRecorder, logger *zap.Logger) *Session {
	id := uuid.NewString()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		id:      id,
		machine: NewMachine(recorder, logger.With(zap.String("session_id", id))),
		origins: make(map[Stage]artifacts.Origin),
	}
}

// ID 返回会话 ID
func (s *Session) ID() string { return s.id }

// Machine 返回阶段状态机
func (s *Session) Machine() *Machine { return s.machine }

// Phase 返回当前阶段
func (s *Session) Phase() Phase { return s.machine.Current() }

// Project 返回项目名
func (s *Session) Project() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.project
}

// Requirements 返回需求原文
func (s *Session) Requirements() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requirements
}

// Stories 返回用户故事副本
func (s *Session) Stories() []artifacts.UserStory {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]artifacts.UserStory(nil), s.stories...)
}

// Design 返回设计文档
func (s *Session) Design() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.design
}

// Code 返回源文件副本，顺序与清单一致
func (s *Session) Code() []artifacts.CodeFile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]artifacts.CodeFile(nil), s.code...)
}

// TestCases 返回测试用例副本
func (s *Session) TestCases() []artifacts.TestCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]artifacts.TestCase(nil), s.testCases...)
}

// TestResults 返回测试结果副本
func (s *Session) TestResults() []artifacts.TestResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]artifacts.TestResult(nil), s.testResults...)
}

// TestSummary 汇总测试结果
func (s *Session) TestSummary() artifacts.TestSummary {
	return artifacts.Summarize(s.TestResults())
}

// Origin 返回某个产出的来源；尚未生成时 ok 为 false
func (s *Session) Origin(stage Stage) (artifacts.Origin, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.origins[stage]
	return o, ok
}

// Origins 返回全部来源记录的副本
func (s *Session) Origins() map[Stage]artifacts.Origin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[Stage]artifacts.Origin, len(s.origins))
	for k, v := range s.origins {
		out[k] = v
	}
	return out
}

// Conversation 返回问答历史副本
func (s *Session) Conversation() []Exchange {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Exchange(nil), s.conversation...)
}

// Snapshot 返回项目负责人可见的制品
func (s *Session) Snapshot() roles.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return roles.Snapshot{
		Project:      s.project,
		Requirements: s.requirements,
		Stories:      append([]artifacts.UserStory(nil), s.stories...),
		DesignDoc:    s.design,
		CodeFiles:    append([]artifacts.CodeFile(nil), s.code...),
		TestCases:    append([]artifacts.TestCase(nil), s.testCases...),
		TestResults:  append([]artifacts.TestResult(nil), s.testResults...),
	}
}

func (s *Session) update(fn func(s *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

func origin(failed bool) artifacts.Origin {
	if failed {
		return artifacts.OriginFallback
	}
	return artifacts.OriginExtracted
}
