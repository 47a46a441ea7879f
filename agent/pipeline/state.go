package pipeline

import (
	"fmt"

	"github.com/BaSui01/devpod/types"
)

// State 单次流水线调用的状态
type State string

const (
	StateStarted             State = "started"
	StateCompletionRequested State = "completion_requested"
	StateCompletionFailed    State = "completion_failed"
	StateCompletionReceived  State = "completion_received"
	StateExtracting          State = "extracting"
	StateExtractFailed       State = "extract_failed"
	StateExtracted           State = "extracted"
	StateValidating          State = "validating"
	StateInvalid             State = "invalid"
	StateValid               State = "valid"
	StateFallbackUsed        State = "fallback_used" // terminal
	StateDone                State = "done"          // terminal
)

// validTransitions 定义合法的状态转换
var validTransitions = map[State][]State{
	StateStarted:             {StateCompletionRequested},
	StateCompletionRequested: {StateCompletionFailed, StateCompletionReceived},
	StateCompletionFailed:    {StateFallbackUsed},
	StateCompletionReceived:  {StateExtracting},
	StateExtracting:          {StateExtractFailed, StateExtracted},
	StateExtractFailed:       {StateFallbackUsed},
	StateExtracted:           {StateValidating},
	StateValidating:          {StateInvalid, StateValid},
	StateInvalid:             {StateFallbackUsed},
	StateValid:               {StateDone},
}

// CanTransition 检查状态转换是否合法
func CanTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal 报告状态是否为终态
func (s State) Terminal() bool {
	return s == StateFallbackUsed || s == StateDone
}

// tracker 记录一次调用的状态轨迹；首个非法转换之后的推进都被忽略
type tracker struct {
	current State
	trail   []State
	err     error
}

func newTracker() *tracker {
	return &tracker{current: StateStarted, trail: []State{StateStarted}}
}

func (t *tracker) advance(next State) {
	if t.err != nil {
		return
	}
	if !CanTransition(t.current, next) {
		t.err = types.NewError(types.ErrInvalidTransition,
			fmt.Sprintf("invalid pipeline transition: %s -> %s", t.current, next))
		return
	}
	t.current = next
	t.trail = append(t.trail, next)
}

func (t *tracker) states() []State {
	return append([]State(nil), t.trail...)
}
