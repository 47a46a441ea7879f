package tokenizer

import (
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"
)

// Tokenizer 是统一的 token 计数接口
type Tokenizer interface {
	// CountTokens 返回给定文本的 token 数
	CountTokens(text string) (int, error)

	// Encode 将文本转换为 token ID 列表
	Encode(text string) ([]int, error)

	// Decode 将 token ID 转换回文本
	Decode(tokens []int) (string, error)

	// MaxTokens 返回模型的最大上下文长度
	MaxTokens() int

	// Name 返回分词器名称
	Name() string
}

// 预览预算，约 4 字符/token
const (
	DesignPreviewTokens  = 250
	CodeListingTokens    = 250
	CodePreviewTokens    = 125
	SummaryPreviewTokens = 50
	TruncationMarker     = "..."
)

var (
	modelTokenizers   = make(map[string]Tokenizer)
	modelTokenizersMu sync.RWMutex
)

// RegisterTokenizer 为模型名称注册分词器
func RegisterTokenizer(model string, t Tokenizer) {
	modelTokenizersMu.Lock()
	defer modelTokenizersMu.Unlock()
	modelTokenizers[model] = t
}

// GetTokenizer 返回为模型注册的分词器，支持前缀匹配（"gpt-4o" 匹配 "gpt-4o-mini"）
func GetTokenizer(model string) (Tokenizer, error) {
	modelTokenizersMu.RLock()
	defer modelTokenizersMu.RUnlock()

	if t, ok := modelTokenizers[model]; ok {
		return t, nil
	}
	for prefix, t := range modelTokenizers {
		if strings.HasPrefix(model, prefix) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("no tokenizer registered for model: %s", model)
}

// GetTokenizerOrEstimator 未注册时回退到估算器
func GetTokenizerOrEstimator(model string) Tokenizer {
	t, err := GetTokenizer(model)
	if err != nil {
		return NewEstimatorTokenizer(model, 0)
	}
	return t
}

// Truncate 将 text 截断到 maxTokens 以内并追加 "..."；未超出时原样返回。
// 分词器无法解码时按字符前缀二分查找。
func Truncate(t Tokenizer, text string, maxTokens int) string {
	if maxTokens <= 0 || text == "" {
		return text
	}
	count, err := t.CountTokens(text)
	if err != nil || count <= maxTokens {
		return text
	}

	if tokens, err := t.Encode(text); err == nil && len(tokens) > maxTokens {
		if prefix, err := t.Decode(tokens[:maxTokens]); err == nil {
			return strings.TrimRight(prefix, " \t\r\n") + TruncationMarker
		}
	}
	return truncateRunes(t, text, maxTokens) + TruncationMarker
}

// truncateRunes 二分查找 token 数不超过 maxTokens 的最长字符前缀
func truncateRunes(t Tokenizer, text string, maxTokens int) string {
	runes := []rune(text)
	lo, hi := 0, len(runes)
	for lo < hi {
		mid := (lo + hi + 1) / 2
		n, err := t.CountTokens(string(runes[:mid]))
		if err == nil && n <= maxTokens {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return strings.TrimRight(string(runes[:lo]), " \t\r\n")
}

// TruncateChars 按字符数截断，不追加标记
func TruncateChars(text string, n int) string {
	if n < 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	return string([]rune(text)[:n])
}
