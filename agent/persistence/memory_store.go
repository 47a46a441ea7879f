package persistence

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/rag"
)

// MemoryStore keeps one in-memory vector store per collection.
// Suitable for development, tests and single-process demos.
type MemoryStore struct {
	collections map[Collection]*rag.InMemoryVectorStore
	opts        options
	logger      *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore(opts ...Option) *MemoryStore {
	o := newOptions(opts)
	s := &MemoryStore{
		collections: make(map[Collection]*rag.InMemoryVectorStore),
		opts:        o,
		logger:      o.logger.With(zap.String("component", "store"), zap.String("backend", string(StoreTypeMemory))),
	}
	for _, c := range Collections() {
		s.collections[c] = rag.NewInMemoryVectorStore(s.logger.With(zap.String("collection", string(c))))
	}
	return s
}

// Put stores one artifact.
func (s *MemoryStore) Put(ctx context.Context, project string, kind artifacts.Kind, a artifacts.Artifact, index int) (string, error) {
	rec, err := artifactRecord(project, kind, a, index, s.opts.now())
	if err != nil {
		return "", err
	}
	return rec.ID, s.add(ctx, rec)
}

// PutDocument stores a free-text document.
func (s *MemoryStore) PutDocument(ctx context.Context, doc Document) (string, error) {
	rec, err := documentRecord(doc, s.opts.now())
	if err != nil {
		return "", err
	}
	return rec.ID, s.add(ctx, rec)
}

func (s *MemoryStore) add(ctx context.Context, rec Record) (err error) {
	defer func() { s.opts.recorder.RecordStoreWrite(string(StoreTypeMemory), string(rec.Collection), err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return storeError("put "+rec.ID, ErrStoreClosed)
	}

	doc := ragDocument(rec)
	if doc.Embedding, err = s.opts.embedder.Embed(ctx, rec.Content); err != nil {
		return storeError("embed "+rec.ID, err)
	}
	if err = s.collections[rec.Collection].AddDocuments(ctx, []rag.Document{doc}); err != nil {
		return storeError("put "+rec.ID, err)
	}
	return nil
}

// Query searches the project's documents in every queryable collection.
func (s *MemoryStore) Query(ctx context.Context, project, text string, limit int) (map[Collection][]Hit, error) {
	if err := checkQuery(project, limit); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.opts.recorder.RecordStoreQuery(string(StoreTypeMemory), time.Since(start)) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, storeError("query", ErrStoreClosed)
	}

	q, err := s.opts.embedder.Embed(ctx, text)
	if err != nil {
		return nil, storeError("embed query", err)
	}

	out := make(map[Collection][]Hit)
	for _, c := range QueryCollections() {
		results, err := s.collections[c].SearchFiltered(ctx, q, limit, rag.MetadataEquals(MetaProject, project))
		if err != nil {
			return nil, storeError("query "+string(c), err)
		}
		if len(results) > 0 {
			out[c] = hits(results)
		}
	}
	return out, nil
}

// Count returns the number of documents in a collection.
func (s *MemoryStore) Count(ctx context.Context, c Collection) (int, error) {
	vs, ok := s.collections[c]
	if !ok {
		return 0, invalidInput("unknown collection " + string(c))
	}
	return vs.Count(ctx)
}

// Ping checks if the store is healthy
func (s *MemoryStore) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Close closes the store
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}
