package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/BaSui01/devpod/llm"
)

// MapHTTPError 将推理接口的 HTTP 状态码映射为 llm.Error。
// 429、5xx 与超时可重试；400 中提到额度的消息归为 ErrQuotaExceeded。
func MapHTTPError(status int, msg string, provider string) *llm.Error {
	e := &llm.Error{Message: msg, HTTPStatus: status, Provider: provider}
	lower := strings.ToLower(msg)

	switch {
	case status == http.StatusUnauthorized:
		e.Code = llm.ErrUnauthorized
	case status == http.StatusForbidden:
		e.Code = llm.ErrForbidden
	case status == http.StatusTooManyRequests:
		e.Code, e.Retryable = llm.ErrRateLimited, true
	case status == http.StatusBadRequest && mentionsQuota(lower):
		e.Code = llm.ErrQuotaExceeded
	case status == http.StatusBadRequest:
		e.Code = llm.ErrInvalidRequest
	case status == http.StatusRequestTimeout, status == http.StatusGatewayTimeout:
		e.Code, e.Retryable = llm.ErrUpstreamTimeout, true
	case status == http.StatusServiceUnavailable && strings.Contains(lower, "loading"):
		// 模型冷启动
		e.Code, e.Retryable = llm.ErrModelOverloaded, true
	default:
		e.Code, e.Retryable = llm.ErrUpstreamError, status >= 500
	}
	return e
}

func mentionsQuota(lower string) bool {
	for _, w := range []string{"quota", "credit", "limit"} {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}

// ReadErrorMessage 读取响应体中的错误消息
// 支持 {"error":"..."} 与 {"error":{"message":"..."}} 两种格式，失败则回退到原始文本
func ReadErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return "failed to read error response"
	}

	var flat struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(data, &flat); err == nil && flat.Error != "" {
		return flat.Error
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
			Type    string `json:"type"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &nested); err == nil && nested.Error.Message != "" {
		if nested.Error.Type != "" {
			return fmt.Sprintf("%s (type: %s)", nested.Error.Message, nested.Error.Type)
		}
		return nested.Error.Message
	}

	return strings.TrimSpace(string(data))
}

// ChooseModel 根据请求和默认值选择模型
func ChooseModel(req *llm.ChatRequest, defaultModel, fallbackModel string) string {
	if req != nil && req.Model != "" {
		return req.Model
	}
	if defaultModel != "" {
		return defaultModel
	}
	return fallbackModel
}

// BearerTokenHeaders 设置 Bearer 认证与 JSON 内容类型
func BearerTokenHeaders(r *http.Request, apiKey string) {
	if apiKey != "" {
		r.Header.Set("Authorization", "Bearer "+apiKey)
	}
	r.Header.Set("Content-Type", "application/json")
}

// SafeCloseBody 安全关闭 HTTP 响应体并忽略错误
func SafeCloseBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
