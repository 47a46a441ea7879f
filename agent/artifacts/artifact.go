// Package artifacts defines the structured artifacts exchanged between the
// role agents and the rules that make them valid.
package artifacts

import (
	"fmt"
	"strings"

	"github.com/BaSui01/devpod/types"
)

// Kind tags an artifact variant.
type Kind string

const (
	KindUserStory    Kind = "user_story"
	KindTestCase     Kind = "test_case"
	KindTestResult   Kind = "test_result"
	KindFileManifest Kind = "file_manifest"
)

// Kinds returns every artifact kind in pipeline order.
func Kinds() []Kind {
	return []Kind{KindUserStory, KindTestCase, KindTestResult, KindFileManifest}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	switch k {
	case KindUserStory, KindTestCase, KindTestResult, KindFileManifest:
		return true
	}
	return false
}

// ParseKind parses a kind name, accepting "-" as a separator.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !k.Valid() {
		return "", types.NewError(types.ErrInvalidRequest, fmt.Sprintf("unknown artifact kind %q", s))
	}
	return k, nil
}

// Origin marks whether artifacts came from model output or were synthesized.
type Origin string

const (
	OriginExtracted Origin = "extracted"
	OriginFallback  Origin = "fallback"
)

// Artifact is a typed structured value produced by one pipeline run.
// Artifacts are immutable once created.
type Artifact interface {
	Kind() Kind
	// Label 用于存储元数据与日志
	Label() string
}

// UserStory is an "As a ..., I want ..., so that ..." story.
type UserStory struct {
	Title              string   `json:"title"`
	Role               string   `json:"role"`
	Want               string   `json:"want"`
	SoThat             string   `json:"so_that"`
	AcceptanceCriteria []string `json:"acceptance_criteria"`
}

func (UserStory) Kind() Kind { return KindUserStory }
func (s UserStory) Label() string { return s.Title }

// TestCase describes one manual verification procedure.
type TestCase struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Steps          []string `json:"steps"`
	ExpectedResult string   `json:"expected_result"`
}

func (TestCase) Kind() Kind { return KindTestCase }
func (c TestCase) Label() string { return c.Title }

// Status is a test verdict.
type Status string

const (
	StatusPass Status = "PASS"
	StatusFail Status = "FAIL"
)

// TestResult is the verdict for one test case. Details is non-empty exactly
// when Status is FAIL.
type TestResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      Status `json:"status"`
	Details     string `json:"details"`
}

func (TestResult) Kind() Kind { return KindTestResult }
func (r TestResult) Label() string { return r.Title }

// FileManifest lists the source files a developer agent will produce.
type FileManifest struct {
	Filenames []string `json:"filenames"`
}

func (FileManifest) Kind() Kind { return KindFileManifest }
func (m FileManifest) Label() string {
	return strings.Join(m.Filenames, ",")
}

// UserStories filters the user stories out of a batch.
func UserStories(items []Artifact) []UserStory {
	return collect[UserStory](items)
}

// TestCases filters the test cases out of a batch.
func TestCases(items []Artifact) []TestCase {
	return collect[TestCase](items)
}

// TestResults filters the test results out of a batch.
func TestResults(items []Artifact) []TestResult {
	return collect[TestResult](items)
}

// Manifest returns the first file manifest of a batch.
func Manifest(items []Artifact) (FileManifest, bool) {
	ms := collect[FileManifest](items)
	if len(ms) == 0 {
		return FileManifest{}, false
	}
	return ms[0], true
}

func collect[T Artifact](items []Artifact) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if v, ok := item.(T); ok {
			out = append(out, v)
		}
	}
	return out
}
