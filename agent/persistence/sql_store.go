package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/internal/database"
)

// writeRetries bounds transaction retries on transient driver errors.
const writeRetries = 3

// Transactor runs fn in a transaction, retrying transient failures.
// *database.PoolManager implements it.
type Transactor interface {
	WithTransactionRetry(ctx context.Context, maxRetries int, fn database.TransactionFunc) error
}

// artifactRow is the table layout of SQLStore.
type artifactRow struct {
	ID         string    `gorm:"primaryKey;size:255"`
	Project    string    `gorm:"size:255;not null;index:idx_artifacts_project_collection,priority:1"`
	Collection string    `gorm:"size:64;not null;index:idx_artifacts_project_collection,priority:2"`
	Kind       string    `gorm:"size:64;not null"`
	Seq        int       `gorm:"not null"`
	Content    string    `gorm:"type:text"`
	Metadata   string    `gorm:"type:text"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (artifactRow) TableName() string { return "artifacts" }

// SQLStore persists records in a relational table through GORM and ranks
// query candidates in process.
type SQLStore struct {
	db            *gorm.DB
	opts          options
	logger        *zap.Logger
	closer        func() error
	tx            Transactor
	skipMigration bool
}

// SQLOption configures SQLStore beyond the shared options.
type SQLOption func(*SQLStore)

// WithCloser runs fn when the store is closed, typically the pool's Close.
func WithCloser(fn func() error) SQLOption {
	return func(s *SQLStore) {
		s.closer = fn
	}
}

// WithTransactor routes writes through t instead of the bare connection.
func WithTransactor(t Transactor) SQLOption {
	return func(s *SQLStore) {
		s.tx = t
	}
}

// WithoutAutoMigrate leaves the schema to versioned migrations.
func WithoutAutoMigrate() SQLOption {
	return func(s *SQLStore) {
		s.skipMigration = true
	}
}

// NewSQLStore migrates the artifacts table and returns the store.
func NewSQLStore(ctx context.Context, db *gorm.DB, sqlOpts []SQLOption, opts ...Option) (*SQLStore, error) {
	if db == nil {
		return nil, invalidInput("db cannot be nil")
	}
	o := newOptions(opts)
	s := &SQLStore{
		db:     db,
		opts:   o,
		logger: o.logger.With(zap.String("component", "store"), zap.String("backend", string(StoreTypeSQL))),
	}
	for _, opt := range sqlOpts {
		opt(s)
	}

	if !s.skipMigration {
		if err := db.WithContext(ctx).AutoMigrate(&artifactRow{}); err != nil {
			return nil, storeError("migrate artifacts table", err)
		}
	}
	return s, nil
}

// Put stores one artifact.
func (s *SQLStore) Put(ctx context.Context, project string, kind artifacts.Kind, a artifacts.Artifact, index int) (string, error) {
	rec, err := artifactRecord(project, kind, a, index, s.opts.now())
	if err != nil {
		return "", err
	}
	return rec.ID, s.save(ctx, rec)
}

// PutDocument stores a free-text document.
func (s *SQLStore) PutDocument(ctx context.Context, doc Document) (string, error) {
	rec, err := documentRecord(doc, s.opts.now())
	if err != nil {
		return "", err
	}
	return rec.ID, s.save(ctx, rec)
}

func (s *SQLStore) save(ctx context.Context, rec Record) (err error) {
	defer func() { s.opts.recorder.RecordStoreWrite(string(StoreTypeSQL), string(rec.Collection), err) }()

	meta, err := json.Marshal(rec.Metadata)
	if err != nil {
		return storeError("encode metadata", err)
	}
	row := artifactRow{
		ID:         rec.ID,
		Project:    rec.Project,
		Collection: string(rec.Collection),
		Kind:       rec.Kind,
		Seq:        rec.Index,
		Content:    rec.Content,
		Metadata:   string(meta),
		CreatedAt:  rec.CreatedAt,
	}

	// 同键覆盖
	upsert := func(db *gorm.DB) error {
		return db.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	}
	if s.tx != nil {
		err = s.tx.WithTransactionRetry(ctx, writeRetries, upsert)
	} else {
		err = upsert(s.db.WithContext(ctx))
	}
	if err != nil {
		s.logger.Error("artifact write failed", zap.String("id", rec.ID), zap.Error(err))
		return storeError("put "+rec.ID, err)
	}
	return nil
}

// Query loads the project's rows of the queryable collections and ranks
// each collection by similarity to text.
func (s *SQLStore) Query(ctx context.Context, project, text string, limit int) (map[Collection][]Hit, error) {
	if err := checkQuery(project, limit); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() { s.opts.recorder.RecordStoreQuery(string(StoreTypeSQL), time.Since(start)) }()

	names := make([]string, 0, len(QueryCollections()))
	for _, c := range QueryCollections() {
		names = append(names, string(c))
	}

	var rows []artifactRow
	err := s.db.WithContext(ctx).
		Where("project = ? AND collection IN ?", project, names).
		Order("created_at ASC").Order("seq ASC").
		Find(&rows).Error
	if err != nil {
		return nil, storeError("query "+project, err)
	}

	grouped := make(map[Collection][]Record)
	for _, row := range rows {
		rec, err := row.record()
		if err != nil {
			return nil, storeError("decode "+row.ID, err)
		}
		grouped[rec.Collection] = append(grouped[rec.Collection], rec)
	}

	out := make(map[Collection][]Hit, len(grouped))
	for c, recs := range grouped {
		ranked, err := rankRecords(ctx, s.opts.embedder, text, recs, limit)
		if err != nil {
			return nil, storeError("rank "+string(c), err)
		}
		out[c] = ranked
	}
	return out, nil
}

func (r artifactRow) record() (Record, error) {
	meta := map[string]string{}
	if r.Metadata != "" {
		if err := json.Unmarshal([]byte(r.Metadata), &meta); err != nil {
			return Record{}, fmt.Errorf("metadata: %w", err)
		}
	}
	return Record{
		ID:         r.ID,
		Project:    r.Project,
		Collection: Collection(r.Collection),
		Kind:       r.Kind,
		Index:      r.Seq,
		Content:    r.Content,
		Metadata:   meta,
		CreatedAt:  r.CreatedAt,
	}, nil
}

// Ping checks if the store is healthy
func (s *SQLStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the store
func (s *SQLStore) Close() error {
	if s.closer != nil {
		return s.closer()
	}
	return nil
}
