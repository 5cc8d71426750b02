// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/desertthunder/tunegrab/internal/models"
	"github.com/desertthunder/tunegrab/internal/services"
)

// FakeAudio is written by [MockExtractor] as download output. It is long enough for ID3 parsing.
var FakeAudio = []byte("fake mp3 payload for tag tests")

// Sent is one message recorded by [MockMessenger].
type Sent struct {
	Kind    string // "text", "photo", "audio", "edit"
	Ref     models.MessageRef
	Text    string
	Photo   string
	Title   string
	Path    string
	Existed bool // audio file was present at send time
}

// MockMessenger is a test double for the pipeline messenger. It records every call.
type MockMessenger struct {
	mu     sync.Mutex
	nextID int
	calls  []Sent

	TextErr  error
	EditErr  error
	PhotoErr error
	AudioErr error

	// OnAudio runs before the audio send is recorded, while the artifact still exists.
	OnAudio func(a *models.Artifact)

	// RespectContext makes every call fail with ctx.Err() once ctx is done, like a real transport.
	RespectContext bool
}

func (m *MockMessenger) done(ctx context.Context) error {
	if m.RespectContext {
		return ctx.Err()
	}
	return nil
}

func (m *MockMessenger) ref(chatID int64) models.MessageRef {
	m.nextID++
	return models.MessageRef{ChatID: chatID, MessageID: m.nextID}
}

func (m *MockMessenger) SendText(ctx context.Context, chatID int64, text string) (models.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.done(ctx); err != nil {
		return models.MessageRef{}, err
	}
	if m.TextErr != nil {
		return models.MessageRef{}, m.TextErr
	}
	r := m.ref(chatID)
	m.calls = append(m.calls, Sent{Kind: "text", Ref: r, Text: text})
	return r, nil
}

func (m *MockMessenger) EditText(ctx context.Context, ref models.MessageRef, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.done(ctx); err != nil {
		return err
	}
	if m.EditErr != nil {
		return m.EditErr
	}
	m.calls = append(m.calls, Sent{Kind: "edit", Ref: ref, Text: text})
	return nil
}

func (m *MockMessenger) SendPhoto(ctx context.Context, chatID int64, photoURL, caption string) (models.MessageRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.done(ctx); err != nil {
		return models.MessageRef{}, err
	}
	if m.PhotoErr != nil {
		return models.MessageRef{}, m.PhotoErr
	}
	r := m.ref(chatID)
	m.calls = append(m.calls, Sent{Kind: "photo", Ref: r, Text: caption, Photo: photoURL})
	return r, nil
}

func (m *MockMessenger) SendAudio(ctx context.Context, chatID int64, a *models.Artifact) error {
	if m.OnAudio != nil {
		m.OnAudio(a)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	_, statErr := os.Stat(a.Path)
	m.calls = append(m.calls, Sent{
		Kind:    "audio",
		Ref:     models.MessageRef{ChatID: chatID},
		Title:   a.Title,
		Path:    a.Path,
		Existed: statErr == nil,
	})
	return m.AudioErr
}

// Calls returns a copy of the recorded calls.
func (m *MockMessenger) Calls() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.calls...)
}

// Kind returns the recorded calls of one kind.
func (m *MockMessenger) Kind(kind string) []Sent {
	var out []Sent
	for _, c := range m.Calls() {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// LastEdit returns the text of the most recent edit, or "".
func (m *MockMessenger) LastEdit() string {
	edits := m.Kind("edit")
	if len(edits) == 0 {
		return ""
	}
	return edits[len(edits)-1].Text
}

// MockCatalog is a test double for [services.CatalogProvider].
type MockCatalog struct {
	mu     sync.Mutex
	Result *services.SpotifyTrack
	Err    error
	calls  int
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) Track(ctx context.Context, trackID string) (*services.SpotifyTrack, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.Result, m.Err
}

// Calls reports how many lookups were made.
func (m *MockCatalog) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockExtractor is a test double for [services.Extractor]. Download writes [FakeAudio] to the
// requested path.
type MockExtractor struct {
	mu sync.Mutex

	Results     []services.SearchResult
	SearchErr   error
	DownloadErr error
	Title       string

	// OnDownload runs at the start of every download.
	OnDownload func()

	Queries   []string
	Downloads []string // output paths written
	URLs      []string
}

func (m *MockExtractor) Search(ctx context.Context, query string, limit int) ([]services.SearchResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Queries = append(m.Queries, query)
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	if limit > 0 && len(m.Results) > limit {
		return m.Results[:limit], nil
	}
	return m.Results, nil
}

func (m *MockExtractor) Download(ctx context.Context, url string, opts services.DownloadOptions) (*services.DownloadResult, error) {
	m.mu.Lock()
	m.URLs = append(m.URLs, url)
	m.mu.Unlock()

	if m.OnDownload != nil {
		m.OnDownload()
	}
	if m.DownloadErr != nil {
		return nil, m.DownloadErr
	}

	path := filepath.Join(opts.Dir, opts.Name+"."+opts.AudioFormat)
	if _, err := os.Stat(path); err == nil {
		return nil, fmt.Errorf("output %s already exists", path)
	}
	if err := os.WriteFile(path, FakeAudio, 0o644); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.Downloads = append(m.Downloads, path)
	m.mu.Unlock()

	return &services.DownloadResult{Title: m.Title, WebpageURL: url, Path: path, Duration: 185}, nil
}

// DownloadCount reports how many downloads were attempted.
func (m *MockExtractor) DownloadCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.URLs)
}

// MockCovers is a test double for [services.CoverFetcher].
type MockCovers struct {
	Data []byte
	Err  error
}

func (m *MockCovers) Fetch(ctx context.Context, url string) ([]byte, error) {
	return m.Data, m.Err
}

// MockRecorder collects request records.
type MockRecorder struct {
	mu      sync.Mutex
	Records []models.RequestRecord
	Err     error
}

func (m *MockRecorder) Record(ctx context.Context, r models.RequestRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, r)
	return m.Err
}

// All returns a copy of the recorded entries.
func (m *MockRecorder) All() []models.RequestRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.RequestRecord(nil), m.Records...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

// AssertEmptyDir fails when dir contains any entry. A missing dir counts as empty.
func AssertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil && !os.IsNotExist(err) {
		t.Fatalf("Failed to read %s: %v", dir, err)
	}
	for _, e := range entries {
		t.Errorf("Leaked entry in %s: %s", dir, e.Name())
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
