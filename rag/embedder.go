package rag

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// DefaultDimension HashEmbedder 的默认向量维度
const DefaultDimension = 256

// Embedder 将文本映射为向量
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
	Dimension() int
}

// HashEmbedder 基于特征哈希的词袋嵌入生成器。
// 不依赖外部嵌入服务也不持有词表，同一文本在任何进程中得到相同向量，
// 适用于本地开发、测试与演示规模的检索。
type HashEmbedder struct {
	dimension int
}

// NewHashEmbedder 创建 HashEmbedder；dimension <= 0 时使用 DefaultDimension
func NewHashEmbedder(dimension int) *HashEmbedder {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashEmbedder{dimension: dimension}
}

// Dimension 返回向量维度
func (e *HashEmbedder) Dimension() int {
	return e.dimension
}

// Embed 为文本生成 L2 归一化的嵌入向量；空文本得到零向量
func (e *HashEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float64, e.dimension)
	for _, word := range terms(text) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(word))
		sum := h.Sum64()
		pos := int(sum % uint64(e.dimension))
		// 最高位决定符号
		if sum>>63 == 1 {
			vec[pos] -= 1.0
		} else {
			vec[pos] += 1.0
		}
	}

	normalize(vec)
	return vec, nil
}

// terms 小写分词，按非字母数字字符切分
func terms(text string) []string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
	return fields
}

// normalize 对向量进行 L2 归一化
func normalize(vec []float64) {
	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
}
