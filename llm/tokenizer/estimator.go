package tokenizer

import (
	"errors"
	"unicode"
)

const (
	defaultEstimatorBudget = 4096
	defaultCharsPerToken   = 4.0
	// 中日韩字符大约 1.5 字符/token
	cjkCharsPerToken = 1.5
)

var errEstimatorDecode = errors.New("estimator tokenizer does not support decode")

// EstimatorTokenizer estimates token counts from character classes. It is
// the fallback when no tiktoken encoding fits the configured model, which
// is the usual case for the hosted Mixtral endpoint.
type EstimatorTokenizer struct {
	model         string
	maxTokens     int
	charsPerToken float64
}

func NewEstimatorTokenizer(model string, maxTokens int) *EstimatorTokenizer {
	if maxTokens <= 0 {
		maxTokens = defaultEstimatorBudget
	}
	return &EstimatorTokenizer{model: model, maxTokens: maxTokens, charsPerToken: defaultCharsPerToken}
}

// WithCharsPerToken overrides the ratio used for non-CJK text. Non-positive
// ratios are ignored.
func (e *EstimatorTokenizer) WithCharsPerToken(ratio float64) *EstimatorTokenizer {
	if ratio > 0 {
		e.charsPerToken = ratio
	}
	return e
}

func (e *EstimatorTokenizer) CountTokens(text string) (int, error) {
	var cjk, other int
	for _, r := range text {
		if isCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	if cjk+other == 0 {
		return 0, nil
	}
	n := int(float64(cjk)/cjkCharsPerToken + float64(other)/e.charsPerToken)
	return max(n, 1), nil
}

// Encode returns placeholder ids; only the length is meaningful.
func (e *EstimatorTokenizer) Encode(text string) ([]int, error) {
	n, err := e.CountTokens(text)
	if err != nil {
		return nil, err
	}
	ids := make([]int, n)
	for i := range ids {
		ids[i] = i
	}
	return ids, nil
}

func (e *EstimatorTokenizer) Decode([]int) (string, error) {
	return "", errEstimatorDecode
}

func (e *EstimatorTokenizer) MaxTokens() int { return e.maxTokens }

func (e *EstimatorTokenizer) Name() string { return "estimator" }

func isCJK(r rune) bool {
	return unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) ||
		(r >= 0x3000 && r <= 0x303F) || // 标点
		(r >= 0xFF00 && r <= 0xFFEF) // 全角
}
