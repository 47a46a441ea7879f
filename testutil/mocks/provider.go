// Package mocks 提供 llm.Provider 与 llm.Completer 的测试替身。
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/BaSui01/devpod/llm"
)

// CompletionFunc 自定义 Completion 行为
type CompletionFunc func(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error)

// MockProvider 是 llm.Provider 的模拟实现。
// 响应优先级：错误 > CompletionFunc > 脚本响应 > 固定响应。
type MockProvider struct {
	mu       sync.Mutex
	response string
	script   []string
	err      error
	fn       CompletionFunc
	delay    time.Duration
	calls    []MockProviderCall
}

// MockProviderCall 记录单次 Completion 调用
type MockProviderCall struct {
	Request  *llm.ChatRequest
	Response *llm.ChatResponse
	Error    error
}

func NewMockProvider() *MockProvider {
	return &MockProvider{response: "Mock response"}
}

func (m *MockProvider) configure(apply func()) *MockProvider {
	m.mu.Lock()
	defer m.mu.Unlock()
	apply()
	return m
}

// WithResponse 设置固定响应
func (m *MockProvider) WithResponse(response string) *MockProvider {
	return m.configure(func() { m.response = response })
}

// WithResponses 按调用顺序依次返回，用尽后回到固定响应
func (m *MockProvider) WithResponses(responses ...string) *MockProvider {
	return m.configure(func() { m.script = append([]string(nil), responses...) })
}

func (m *MockProvider) WithError(err error) *MockProvider {
	return m.configure(func() { m.err = err })
}

// WithDelay 响应前等待 d，期间 ctx 取消则返回 ctx.Err()
func (m *MockProvider) WithDelay(d time.Duration) *MockProvider {
	return m.configure(func() { m.delay = d })
}

func (m *MockProvider) WithCompletionFunc(fn CompletionFunc) *MockProvider {
	return m.configure(func() { m.fn = fn })
}

func (m *MockProvider) Name() string { return "mock" }

func (m *MockProvider) HealthCheck(context.Context) (*llm.HealthStatus, error) {
	return &llm.HealthStatus{Healthy: true, Latency: time.Millisecond}, nil
}

func (m *MockProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	delay := m.delay
	m.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return m.record(req, nil, ctx.Err())
		case <-timer.C:
		}
	}

	m.mu.Lock()
	err, fn := m.err, m.fn
	content := m.response
	if len(m.script) > 0 {
		content, m.script = m.script[0], m.script[1:]
	}
	m.mu.Unlock()

	switch {
	case err != nil:
		return m.record(req, nil, err)
	case fn != nil:
		resp, err := fn(ctx, req)
		return m.record(req, resp, err)
	}
	return m.record(req, &llm.ChatResponse{
		ID:        "mock-response-id",
		Provider:  m.Name(),
		Model:     req.Model,
		Choices:   []llm.ChatChoice{{FinishReason: "stop", Message: llm.Message{Role: llm.RoleAssistant, Content: content}}},
		CreatedAt: time.Now(),
	}, nil)
}

func (m *MockProvider) record(req *llm.ChatRequest, resp *llm.ChatResponse, err error) (*llm.ChatResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockProviderCall{Request: req, Response: resp, Error: err})
	return resp, err
}

// Calls 返回调用记录副本
func (m *MockProvider) Calls() []MockProviderCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockProviderCall(nil), m.calls...)
}

func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// LastRequest 返回最近一次请求，没有调用时为 nil
func (m *MockProvider) LastRequest() *llm.ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.calls) == 0 {
		return nil
	}
	return m.calls[len(m.calls)-1].Request
}
