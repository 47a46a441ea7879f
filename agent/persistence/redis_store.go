package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
)

// DefaultKeyPrefix namespaces every Redis key of the store.
const DefaultKeyPrefix = "devpod:"

// Hash fields of a stored record.
const (
	fieldID         = "id"
	fieldProject    = "project"
	fieldCollection = "collection"
	fieldKind       = "kind"
	fieldIndex      = "index"
	fieldContent    = "content"
	fieldMetadata   = "metadata"
	fieldCreatedAt  = "created_at"
)

// RedisStore is a Redis-based implementation of Store.
// Each record is a hash; a sorted set per project and collection, scored by
// creation time, indexes the hashes.
type RedisStore struct {
	client    redis.UniversalClient
	keyPrefix string
	opts      options
	logger    *zap.Logger
}

// NewRedisStore wraps an existing client. An empty keyPrefix means
// DefaultKeyPrefix.
func NewRedisStore(client redis.UniversalClient, keyPrefix string, opts ...Option) (*RedisStore, error) {
	if client == nil {
		return nil, invalidInput("redis client cannot be nil")
	}
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	o := newOptions(opts)
	return &RedisStore{
		client:    client,
		keyPrefix: keyPrefix,
		opts:      o,
		logger:    o.logger.With(zap.String("component", "store"), zap.String("backend", string(StoreTypeRedis))),
	}, nil
}

// docKey returns the Redis key for a record
func (s *RedisStore) docKey(id string) string {
	return s.keyPrefix + "doc:" + id
}

// indexKey returns the Redis key for a project's collection index
func (s *RedisStore) indexKey(project string, c Collection) string {
	return s.keyPrefix + "idx:" + project + ":" + string(c)
}

// Put stores one artifact.
func (s *RedisStore) Put(ctx context.Context, project string, kind artifacts.Kind, a artifacts.Artifact, index int) (string, error) {
	rec, err := artifactRecord(project, kind, a, index, s.opts.now())
	if err != nil {
		return "", err
	}
	return rec.ID, s.save(ctx, rec)
}

// PutDocument stores a free-text document.
func (s *RedisStore) PutDocument(ctx context.Context, doc Document) (string, error) {
	rec, err := documentRecord(doc, s.opts.now())
	if err != nil {
		return "", err
	}
	return rec.ID, s.save(ctx, rec)
}

func (s *RedisStore) save(ctx context.Context, rec Record) (err error) {
	defer func() { s.opts.recorder.RecordStoreWrite(string(StoreTypeRedis), string(rec.Collection), err) }()

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return storeError("encode metadata", err)
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, s.docKey(rec.ID), map[string]any{
		fieldID:         rec.ID,
		fieldProject:    rec.Project,
		fieldCollection: string(rec.Collection),
		fieldKind:       rec.Kind,
		fieldIndex:      rec.Index,
		fieldContent:    rec.Content,
		fieldMetadata:   string(meta),
		fieldCreatedAt:  rec.CreatedAt.UnixNano(),
	})
	pipe.ZAdd(ctx, s.indexKey(rec.Project, rec.Collection), redis.Z{
		Score:  float64(rec.CreatedAt.UnixNano()),
		Member: rec.ID,
	})
	if _, err = pipe.Exec(ctx); err != nil {
		s.logger.Error("artifact write failed", zap.String("id", rec.ID), zap.Error(err))
		return storeError("put "+rec.ID, err)
	}
	return nil
}

// Query loads each queryable collection of project through its index and
// ranks the records by similarity to text.
func (s *RedisStore) Query(ctx context.Context, project, text string, limit int) (map[Collection][]Hit, error) {
	if err := checkQuery(project, limit); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.opts.recorder.RecordStoreQuery(string(StoreTypeRedis), time.Since(start)) }()

	out := make(map[Collection][]Hit)
	for _, c := range QueryCollections() {
		recs, err := s.load(ctx, project, c)
		if err != nil {
			return nil, err
		}
		if len(recs) == 0 {
			continue
		}
		ranked, err := rankRecords(ctx, s.opts.embedder, text, recs, limit)
		if err != nil {
			return nil, storeError("rank "+string(c), err)
		}
		out[c] = ranked
	}
	return out, nil
}

func (s *RedisStore) load(ctx context.Context, project string, c Collection) ([]Record, error) {
	ids, err := s.client.ZRange(ctx, s.indexKey(project, c), 0, -1).Result()
	if err != nil {
		return nil, storeError("read index "+string(c), err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	pipe := s.client.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, s.docKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, storeError("read "+string(c), err)
	}

	recs := make([]Record, 0, len(ids))
	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			// 索引残留，哈希已不存在
			s.logger.Debug("dangling index entry", zap.String("id", ids[i]))
			continue
		}
		rec, err := recordFromHash(fields)
		if err != nil {
			return nil, storeError("decode "+ids[i], err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func recordFromHash(fields map[string]string) (Record, error) {
	index, err := strconv.Atoi(fields[fieldIndex])
	if err != nil {
		return Record{}, fmt.Errorf("index: %w", err)
	}
	nanos, err := strconv.ParseInt(fields[fieldCreatedAt], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("created_at: %w", err)
	}
	meta := map[string]string{}
	if raw := fields[fieldMetadata]; raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return Record{}, fmt.Errorf("metadata: %w", err)
		}
	}
	return Record{
		ID:         fields[fieldID],
		Project:    fields[fieldProject],
		Collection: Collection(fields[fieldCollection]),
		Kind:       fields[fieldKind],
		Index:      index,
		Content:    fields[fieldContent],
		Metadata:   meta,
		CreatedAt:  time.Unix(0, nanos),
	}, nil
}

// Ping checks if the store is healthy
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the store
func (s *RedisStore) Close() error {
	return s.client.Close()
}
