package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/BaSui01/devpod/agent/artifacts"
	"github.com/BaSui01/devpod/rag"
	"github.com/BaSui01/devpod/types"
)

// questionPreviewRunes 会话元数据中问题预览的长度
const questionPreviewRunes = 100

// Recorder receives store metrics.
type Recorder interface {
	RecordStoreWrite(backend, collection string, err error)
	RecordStoreQuery(backend string, duration time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) RecordStoreWrite(string, string, error) {}
func (nopRecorder) RecordStoreQuery(string, time.Duration) {}

// Option configures a store.
type Option func(*options)

type options struct {
	logger   *zap.Logger
	embedder rag.Embedder
	recorder Recorder
	now      func() time.Time
}

func newOptions(opts []Option) options {
	o := options{
		logger:   zap.NewNop(),
		embedder: rag.NewHashEmbedder(0),
		recorder: nopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithEmbedder replaces the default hash embedder.
func WithEmbedder(e rag.Embedder) Option {
	return func(o *options) {
		if e != nil {
			o.embedder = e
		}
	}
}

// WithRecorder reports writes and queries to r.
func WithRecorder(r Recorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithClock sets the clock used for keys and timestamps.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// Key composes the storage key {project}_{kind}_{index}_{timestamp}.
func Key(project, kind string, index int, ts time.Time) string {
	return fmt.Sprintf("%s_%s_%d_%d", project, kind, index, ts.UnixNano())
}

// keyKind is the kind segment of a key and the "kind" metadata value.
func keyKind(kind artifacts.Kind) string {
	switch kind {
	case artifacts.KindUserStory:
		return "story"
	case artifacts.KindFileManifest:
		return "manifest"
	default:
		return string(kind)
	}
}

func collectionKind(c Collection) string {
	switch c {
	case CollectionConversations:
		return "chat"
	default:
		return string(c)
	}
}

// collectionFor maps an artifact kind to its collection.
func collectionFor(kind artifacts.Kind) (Collection, error) {
	switch kind {
	case artifacts.KindUserStory:
		return CollectionUserStories, nil
	case artifacts.KindTestCase, artifacts.KindTestResult:
		return CollectionTests, nil
	case artifacts.KindFileManifest:
		return CollectionCode, nil
	default:
		return "", invalidInput(fmt.Sprintf("unknown artifact kind %q", kind))
	}
}

func validCollection(c Collection) bool {
	for _, known := range Collections() {
		if c == known {
			return true
		}
	}
	return false
}

func invalidInput(msg string) *types.Error {
	return types.NewError(types.ErrStore, msg).WithCause(ErrInvalidInput)
}

func storeError(msg string, cause error) *types.Error {
	return types.NewError(types.ErrStore, msg).WithCause(cause).WithRetryable(true)
}

func baseMetadata(project, kind string, index int, ts time.Time) map[string]string {
	return map[string]string{
		MetaProject:   project,
		MetaTimestamp: ts.UTC().Format(time.RFC3339Nano),
		MetaKind:      kind,
		MetaIndex:     strconv.Itoa(index),
	}
}

// artifactRecord renders an artifact as its JSON document plus metadata.
func artifactRecord(project string, kind artifacts.Kind, a artifacts.Artifact, index int, ts time.Time) (Record, error) {
	if strings.TrimSpace(project) == "" {
		return Record{}, invalidInput("project is required")
	}
	if a == nil || a.Kind() != kind {
		return Record{}, invalidInput(fmt.Sprintf("artifact does not match kind %q", kind))
	}
	if index < 0 {
		return Record{}, invalidInput("index must not be negative")
	}
	collection, err := collectionFor(kind)
	if err != nil {
		return Record{}, err
	}

	var content []byte
	if m, ok := a.(artifacts.FileManifest); ok {
		content, err = json.Marshal(m.Filenames)
	} else {
		content, err = json.Marshal(a)
	}
	if err != nil {
		return Record{}, types.NewError(types.ErrStore, "encode artifact").WithCause(err)
	}

	k := keyKind(kind)
	meta := baseMetadata(project, k, index, ts)
	switch v := a.(type) {
	case artifacts.UserStory:
		meta[MetaTitle] = v.Title
	case artifacts.TestCase:
		meta[MetaTitle] = v.Title
		meta[MetaType] = string(artifacts.KindTestCase)
	case artifacts.TestResult:
		meta[MetaTitle] = v.Title
		meta[MetaType] = string(artifacts.KindTestResult)
		meta[MetaStatus] = string(v.Status)
	case artifacts.FileManifest:
		meta[MetaType] = string(artifacts.KindFileManifest)
	}

	return Record{
		ID:         Key(project, k, index, ts),
		Project:    project,
		Collection: collection,
		Kind:       k,
		Index:      index,
		Content:    string(content),
		Metadata:   meta,
		CreatedAt:  ts,
	}, nil
}

// documentRecord merges caller metadata under the fixed keys.
func documentRecord(doc Document, ts time.Time) (Record, error) {
	if strings.TrimSpace(doc.Project) == "" {
		return Record{}, invalidInput("project is required")
	}
	if !validCollection(doc.Collection) {
		return Record{}, invalidInput(fmt.Sprintf("unknown collection %q", doc.Collection))
	}
	if doc.Index < 0 {
		return Record{}, invalidInput("index must not be negative")
	}

	k := collectionKind(doc.Collection)
	meta := make(map[string]string, len(doc.Metadata)+4)
	for key, v := range doc.Metadata {
		meta[key] = v
	}
	for key, v := range baseMetadata(doc.Project, k, doc.Index, ts) {
		meta[key] = v
	}

	return Record{
		ID:         Key(doc.Project, k, doc.Index, ts),
		Project:    doc.Project,
		Collection: doc.Collection,
		Kind:       k,
		Index:      doc.Index,
		Content:    doc.Content,
		Metadata:   meta,
		CreatedAt:  ts,
	}, nil
}

// RequirementsDocument wraps the requirements text of a project.
func RequirementsDocument(project, requirements string) Document {
	return Document{Project: project, Collection: CollectionRequirements, Content: requirements}
}

// DesignDocument wraps a design document.
func DesignDocument(project, design string) Document {
	return Document{Project: project, Collection: CollectionDesign, Content: design}
}

// CodeDocument wraps one generated file at its manifest position.
func CodeDocument(project string, index int, file artifacts.CodeFile) Document {
	return Document{
		Project:    project,
		Collection: CollectionCode,
		Index:      index,
		Content:    file.Content,
		Metadata:   map[string]string{MetaFilename: file.Name},
	}
}

// ConversationDocument stores a question with its answer; metadata keeps
// a preview of the question.
func ConversationDocument(project, question, answer string) Document {
	preview := question
	if utf8.RuneCountInString(preview) > questionPreviewRunes {
		preview = string([]rune(preview)[:questionPreviewRunes])
	}
	return Document{
		Project:    project,
		Collection: CollectionConversations,
		Content:    question + "\n\n" + answer,
		Metadata:   map[string]string{MetaQuestion: preview},
	}
}

// ragDocument converts a record for the vector store.
func ragDocument(r Record) rag.Document {
	return rag.Document{ID: r.ID, Content: r.Content, Metadata: r.Metadata}
}

// rankRecords orders recs by similarity to text and keeps the first limit.
func rankRecords(ctx context.Context, e rag.Embedder, text string, recs []Record, limit int) ([]Hit, error) {
	docs := make([]rag.Document, len(recs))
	for i, r := range recs {
		docs[i] = ragDocument(r)
	}
	results, err := rag.RankDocuments(ctx, e, text, docs, limit)
	if err != nil {
		return nil, err
	}
	return hits(results), nil
}

func hits(results []rag.VectorSearchResult) []Hit {
	out := make([]Hit, len(results))
	for i, r := range results {
		out[i] = Hit{
			ID:       r.Document.ID,
			Content:  r.Document.Content,
			Metadata: r.Document.Metadata,
			Score:    r.Score,
		}
	}
	return out
}

func checkQuery(project string, limit int) error {
	if strings.TrimSpace(project) == "" {
		return invalidInput("project is required")
	}
	if limit <= 0 {
		return invalidInput("limit must be positive")
	}
	return nil
}
