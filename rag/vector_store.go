package rag

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Document 可检索的文档
type Document struct {
	ID        string            `json:"id"`
	Content   string            `json:"content"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Embedding []float64         `json:"embedding,omitempty"`
}

// VectorStore 向量数据库接口
type VectorStore interface {
	// 添加文档，ID 相同时覆盖
	AddDocuments(ctx context.Context, docs []Document) error

	// 搜索相似文档
	Search(ctx context.Context, queryEmbedding []float64, topK int) ([]VectorSearchResult, error)

	// 删除文档
	DeleteDocuments(ctx context.Context, ids []string) error

	// 获取文档数量
	Count(ctx context.Context) (int, error)
}

// Filter 按元数据筛选文档；nil 表示不筛选
type Filter func(Document) bool

// MetadataEquals 返回要求 key 的元数据等于 value 的 Filter
func MetadataEquals(key, value string) Filter {
	return func(d Document) bool {
		return d.Metadata[key] == value
	}
}

// VectorSearchResult 向量搜索结果
type VectorSearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
	Distance float64  `json:"distance"`
}

// ====== 内存向量存储 ======

// InMemoryVectorStore 内存向量存储，按插入顺序保存文档
type InMemoryVectorStore struct {
	documents []Document
	index     map[string]int
	mu        sync.RWMutex
	logger    *zap.Logger
}

// NewInMemoryVectorStore 创建内存向量存储
func NewInMemoryVectorStore(logger *zap.Logger) *InMemoryVectorStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InMemoryVectorStore{
		documents: make([]Document, 0),
		index:     make(map[string]int),
		logger:    logger,
	}
}

// AddDocuments 添加文档
func (s *InMemoryVectorStore) AddDocuments(ctx context.Context, docs []Document) error {
	for _, doc := range docs {
		if doc.Embedding == nil {
			return fmt.Errorf("document %s has no embedding", doc.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, doc := range docs {
		if i, ok := s.index[doc.ID]; ok {
			s.documents[i] = doc
			continue
		}
		s.index[doc.ID] = len(s.documents)
		s.documents = append(s.documents, doc)
	}

	s.logger.Debug("documents added to vector store",
		zap.Int("count", len(docs)),
		zap.Int("total", len(s.documents)))

	return nil
}

// Search 搜索相似文档
func (s *InMemoryVectorStore) Search(ctx context.Context, queryEmbedding []float64, topK int) ([]VectorSearchResult, error) {
	return s.SearchFiltered(ctx, queryEmbedding, topK, nil)
}

// SearchFiltered 在满足 filter 的文档中搜索
func (s *InMemoryVectorStore) SearchFiltered(ctx context.Context, queryEmbedding []float64, topK int, filter Filter) ([]VectorSearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	candidates := make([]Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if filter == nil || filter(doc) {
			candidates = append(candidates, doc)
		}
	}
	s.mu.RUnlock()

	return rank(queryEmbedding, candidates, topK), nil
}

// DeleteDocuments 删除文档
func (s *InMemoryVectorStore) DeleteDocuments(ctx context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}

	filtered := make([]Document, 0, len(s.documents))
	index := make(map[string]int, len(s.documents))
	for _, doc := range s.documents {
		if !idSet[doc.ID] {
			index[doc.ID] = len(filtered)
			filtered = append(filtered, doc)
		}
	}

	deleted := len(s.documents) - len(filtered)
	s.documents = filtered
	s.index = index

	s.logger.Debug("documents deleted from vector store",
		zap.Int("deleted", deleted),
		zap.Int("remaining", len(s.documents)))

	return nil
}

// Count 返回文档数量
func (s *InMemoryVectorStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.documents), nil
}

// RankDocuments 用 embedder 为 docs 中缺少向量的文档补齐向量，按与 query 的相似度返回前 topK 个。
// 供没有原生向量检索的存储后端使用。
func RankDocuments(ctx context.Context, embedder Embedder, query string, docs []Document, topK int) ([]VectorSearchResult, error) {
	queryEmbedding, err := embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	embedded := make([]Document, len(docs))
	for i, doc := range docs {
		if doc.Embedding == nil {
			if doc.Embedding, err = embedder.Embed(ctx, doc.Content); err != nil {
				return nil, fmt.Errorf("embed document %s: %w", doc.ID, err)
			}
		}
		embedded[i] = doc
	}
	return rank(queryEmbedding, embedded, topK), nil
}

func rank(queryEmbedding []float64, docs []Document, topK int) []VectorSearchResult {
	results := make([]VectorSearchResult, 0, len(docs))
	for _, doc := range docs {
		if doc.Embedding == nil {
			continue
		}
		similarity := cosineSimilarity(queryEmbedding, doc.Embedding)
		results = append(results, VectorSearchResult{
			Document: doc,
			Score:    similarity,
			Distance: 1.0 - similarity,
		})
	}

	sortByScore(results)

	if topK <= 0 || topK > len(results) {
		topK = len(results)
	}
	return results[:topK]
}

// cosineSimilarity 余弦相似度；维度不一致或零向量时为 0
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0.0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0.0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sortByScore 按分数降序排序，同分保持插入顺序
func sortByScore(results []VectorSearchResult) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
