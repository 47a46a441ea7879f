package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

// TiktokenTokenizer 基于 tiktoken 的 BPE 分词器，编码数据在首次使用时加载
type TiktokenTokenizer struct {
	encoding  string
	maxTokens int
	enc       *tiktoken.Tiktoken
	once      sync.Once
	initErr   error
}

// 已知编码及其默认上下文长度
var encodingContexts = map[string]int{
	"cl100k_base": 8192,
	"o200k_base":  128000,
	"p50k_base":   4096,
}

// NewTiktokenTokenizer 按编码名创建分词器；未知编码报错
func NewTiktokenTokenizer(encoding string) (*TiktokenTokenizer, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	maxTokens, ok := encodingContexts[encoding]
	if !ok {
		known := make([]string, 0, len(encodingContexts))
		for k := range encodingContexts {
			known = append(known, k)
		}
		return nil, fmt.Errorf("unknown tiktoken encoding %q (known: %s)", encoding, strings.Join(known, ", "))
	}
	return &TiktokenTokenizer{encoding: encoding, maxTokens: maxTokens}, nil
}

func (t *TiktokenTokenizer) init() error {
	t.once.Do(func() {
		enc, err := tiktoken.GetEncoding(t.encoding)
		if err != nil {
			t.initErr = fmt.Errorf("init tiktoken encoding %s: %w", t.encoding, err)
			return
		}
		t.enc = enc
	})
	return t.initErr
}

func (t *TiktokenTokenizer) CountTokens(text string) (int, error) {
	if err := t.init(); err != nil {
		return 0, err
	}
	return len(t.enc.Encode(text, nil, nil)), nil
}

func (t *TiktokenTokenizer) Encode(text string) ([]int, error) {
	if err := t.init(); err != nil {
		return nil, err
	}
	return t.enc.Encode(text, nil, nil), nil
}

func (t *TiktokenTokenizer) Decode(tokens []int) (string, error) {
	if err := t.init(); err != nil {
		return "", err
	}
	return t.enc.Decode(tokens), nil
}

func (t *TiktokenTokenizer) MaxTokens() int {
	return t.maxTokens
}

func (t *TiktokenTokenizer) Name() string {
	return fmt.Sprintf("tiktoken[%s]", t.encoding)
}

// New 按名称构造分词器："" 或 "estimator" 返回估算器，其余视为 tiktoken 编码名
func New(name, model string) (Tokenizer, error) {
	switch name {
	case "", "estimator":
		return GetTokenizerOrEstimator(model), nil
	default:
		return NewTiktokenTokenizer(name)
	}
}
