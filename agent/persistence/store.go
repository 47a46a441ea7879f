package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/BaSui01/devpod/agent/artifacts"
)

// Common errors
var (
	ErrStoreClosed  = errors.New("store is closed")
	ErrInvalidInput = errors.New("invalid input")
)

// StoreType represents the type of storage backend
type StoreType string

const (
	StoreTypeMemory StoreType = "memory"
	StoreTypeSQL    StoreType = "sql"
	StoreTypeRedis  StoreType = "redis"
)

// Collection groups documents of one stage. Query results are keyed by it.
type Collection string

const (
	CollectionRequirements  Collection = "requirements"
	CollectionUserStories   Collection = "user_stories"
	CollectionDesign        Collection = "design"
	CollectionCode          Collection = "code"
	CollectionTests         Collection = "tests"
	CollectionConversations Collection = "conversations"
)

// Collections returns every collection.
func Collections() []Collection {
	return []Collection{
		CollectionRequirements, CollectionUserStories, CollectionDesign,
		CollectionCode, CollectionTests, CollectionConversations,
	}
}

// QueryCollections returns the collections Query searches. Conversations
// are stored but never searched.
func QueryCollections() []Collection {
	return []Collection{
		CollectionRequirements, CollectionUserStories, CollectionDesign,
		CollectionCode, CollectionTests,
	}
}

// Metadata keys written on every record.
const (
	MetaProject   = "project"
	MetaTimestamp = "timestamp"
	MetaKind      = "kind"
	MetaIndex     = "index"
	MetaTitle     = "title"
	MetaType      = "type"
	MetaStatus    = "status"
	MetaFilename  = "filename"
	MetaQuestion  = "question"
)

// Document is a free-text stage output (requirements, design document, code
// file, conversation) to be stored in a collection.
type Document struct {
	Project    string
	Collection Collection
	Index      int
	Content    string
	Metadata   map[string]string
}

// Record is one stored document with its generated key and full metadata.
type Record struct {
	ID         string
	Project    string
	Collection Collection
	Kind       string
	Index      int
	Content    string
	Metadata   map[string]string
	CreatedAt  time.Time
}

// Hit is one query result.
type Hit struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata"`
	Score    float64           `json:"score"`
}

// Store persists artifacts keyed by project and kind and answers free-text
// queries over them. Implementations are safe for concurrent use.
type Store interface {
	// Put stores one artifact at its position in the batch and returns the key.
	Put(ctx context.Context, project string, kind artifacts.Kind, artifact artifacts.Artifact, index int) (string, error)

	// PutDocument stores a free-text document and returns the key.
	PutDocument(ctx context.Context, doc Document) (string, error)

	// Query searches the QueryCollections of project. Only non-empty
	// collections appear in the result, each ordered by relevance.
	Query(ctx context.Context, project, text string, limit int) (map[Collection][]Hit, error)

	// Ping checks if the store is healthy
	Ping(ctx context.Context) error

	// Close closes the store and releases resources
	Close() error
}

// PutAll stores items in order, using each item's position as its index.
func PutAll(ctx context.Context, s Store, project string, kind artifacts.Kind, items []artifacts.Artifact) ([]string, error) {
	keys := make([]string, 0, len(items))
	for i, item := range items {
		key, err := s.Put(ctx, project, kind, item, i)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}
