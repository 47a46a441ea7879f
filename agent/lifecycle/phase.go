package lifecycle

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/types"
)

// Phase 项目所处阶段
type Phase string

const (
	PhaseSetup        Phase = "setup"
	PhaseRequirements Phase = "requirements"
	PhaseDesign       Phase = "design"
	PhaseDevelopment  Phase = "development"
	PhaseTesting      Phase = "testing"
	PhaseChat         Phase = "chat"
)

var workPhases = []Phase{PhaseRequirements, PhaseDesign, PhaseDevelopment, PhaseTesting, PhaseChat}

// Phases 返回初始化之后可自由切换的五个阶段，按流程顺序
func Phases() []Phase {
	return append([]Phase(nil), workPhases...)
}

// Valid 报告 p 是否为已知阶段
func (p Phase) Valid() bool {
	return p == PhaseSetup || p.index() >= 0
}

// index 返回 p 在 workPhases 中的位置；setup 与未知阶段为 -1
func (p Phase) index() int {
	for i, w := range workPhases {
		if w == p {
			return i
		}
	}
	return -1
}

// ParsePhase 解析阶段名称，大小写不敏感
func ParsePhase(s string) (Phase, error) {
	p := Phase(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown phase %q", s))
	}
	return p, nil
}

// TransitionRecorder 接收阶段切换指标
type TransitionRecorder interface {
	RecordPhaseTransition(from, to string)
}

type nopTransitionRecorder struct{}

func (nopTransitionRecorder) RecordPhaseTransition(string, string) {}

// Machine 项目阶段状态机。
// setup 只能通过 Start 离开，且离开后不可返回；其余阶段之间可任意跳转。
type Machine struct {
	mu       sync.RWMutex
	current  Phase
	recorder TransitionRecorder
	logger   *zap.Logger
}

// NewMachine 创建处于 setup 阶段的状态机
func NewMachine(recorder TransitionRecorder, logger *zap.Logger) *Machine {
	if recorder == nil {
		recorder = nopTransitionRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Machine{
		current:  PhaseSetup,
		recorder: recorder,
		logger:   logger.With(zap.String("component", "lifecycle")),
	}
}

// Current 返回当前阶段
func (m *Machine) Current() Phase {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Initialized 报告是否已离开 setup
func (m *Machine) Initialized() bool {
	return m.Current() != PhaseSetup
}

// Start 从 setup 进入 requirements
func (m *Machine) Start() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current != PhaseSetup {
		return invalidTransition(m.current, PhaseRequirements, "project already initialized")
	}
	m.move(PhaseRequirements)
	return nil
}

// Next 前进一个阶段
func (m *Machine) Next() (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.current.index()
	switch {
	case i < 0:
		return m.current, invalidTransition(m.current, "", "project not initialized")
	case i == len(workPhases)-1:
		return m.current, invalidTransition(m.current, "", "already at the last phase")
	}
	m.move(workPhases[i+1])
	return m.current, nil
}

// Previous 后退一个阶段；不能回到 setup
func (m *Machine) Previous() (Phase, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.current.index()
	switch {
	case i < 0:
		return m.current, invalidTransition(m.current, "", "project not initialized")
	case i == 0:
		return m.current, invalidTransition(m.current, PhaseSetup, "cannot return to setup")
	}
	m.move(workPhases[i-1])
	return m.current, nil
}

// GoTo 跳转到指定阶段；目标与当前阶段相同时不做任何事
func (m *Machine) GoTo(target Phase) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch {
	case m.current == PhaseSetup:
		return invalidTransition(m.current, target, "project not initialized")
	case target == PhaseSetup:
		return invalidTransition(m.current, target, "cannot return to setup")
	case target.index() < 0:
		return invalidTransition(m.current, target, "unknown phase")
	case target == m.current:
		return nil
	}
	m.move(target)
	return nil
}

// move 调用方持有写锁
func (m *Machine) move(to Phase) {
	from := m.current
	m.current = to
	m.recorder.RecordPhaseTransition(string(from), string(to))
	m.logger.Debug("phase changed", zap.String("from", string(from)), zap.String("to", string(to)))
}

func invalidTransition(from, to Phase, reason string) *types.Error {
	msg := fmt.Sprintf("invalid phase transition from %s: %s", from, reason)
	if to != "" {
		msg = fmt.Sprintf("invalid phase transition %s -> %s: %s", from, to, reason)
	}
	return types.NewError(types.ErrInvalidTransition, msg)
}
