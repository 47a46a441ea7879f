package mocks

import (
	"context"
	"strings"
	"sync"

	"github.com/BaSui01/devpod/llm"
	"github.com/BaSui01/devpod/types"
)

// ScriptedCompleter 按提示词内容路由响应的 llm.Completer 模拟实现。
// 规则按注册顺序匹配，第一条命中的规则生效；无规则命中时返回默认响应。
type ScriptedCompleter struct {
	mu       sync.Mutex
	rules    []completerRule
	fallback string
	calls    []CompleterCall
}

type completerRule struct {
	match string
	fn    func(prompt string) (string, error)
}

// CompleterCall 记录单次调用
type CompleterCall struct {
	Prompt       string
	SystemPrompt string
	Response     string
	Error        error
}

var _ llm.Completer = (*ScriptedCompleter)(nil)

// NewScriptedCompleter 创建新的 ScriptedCompleter
func NewScriptedCompleter() *ScriptedCompleter {
	return &ScriptedCompleter{}
}

// On 提示词包含 match 时返回 response
func (c *ScriptedCompleter) On(match, response string) *ScriptedCompleter {
	return c.OnFunc(match, func(string) (string, error) { return response, nil })
}

// OnError 提示词包含 match 时返回 TRANSPORT 错误
func (c *ScriptedCompleter) OnError(match, message string) *ScriptedCompleter {
	return c.OnFunc(match, func(string) (string, error) {
		return "", types.NewError(types.ErrTransport, message)
	})
}

// OnFunc 提示词包含 match 时由 fn 生成响应
func (c *ScriptedCompleter) OnFunc(match string, fn func(prompt string) (string, error)) *ScriptedCompleter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rules = append(c.rules, completerRule{match: match, fn: fn})
	return c
}

// Default 设置无规则命中时的响应
func (c *ScriptedCompleter) Default(response string) *ScriptedCompleter {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fallback = response
	return c
}

// Complete 实现 llm.Completer
func (c *ScriptedCompleter) Complete(ctx context.Context, prompt, systemPrompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		e := types.NewError(types.ErrTransport, err.Error()).WithCause(err)
		c.record(CompleterCall{Prompt: prompt, SystemPrompt: systemPrompt, Error: e})
		return "", e
	}

	c.mu.Lock()
	fn := func(string) (string, error) { return c.fallback, nil }
	for _, r := range c.rules {
		if strings.Contains(prompt, r.match) {
			fn = r.fn
			break
		}
	}
	c.mu.Unlock()

	out, err := fn(prompt)
	c.record(CompleterCall{Prompt: prompt, SystemPrompt: systemPrompt, Response: out, Error: err})
	return out, err
}

func (c *ScriptedCompleter) record(call CompleterCall) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

// Calls 返回所有调用记录
func (c *ScriptedCompleter) Calls() []CompleterCall {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]CompleterCall(nil), c.calls...)
}

// CallCount 返回调用次数
func (c *ScriptedCompleter) CallCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

// CallsMatching 返回提示词包含 substr 的调用次数
func (c *ScriptedCompleter) CallsMatching(substr string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, call := range c.calls {
		if strings.Contains(call.Prompt, substr) {
			n++
		}
	}
	return n
}
