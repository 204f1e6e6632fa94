package indexer

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"media-indexer/internal/database"
	"media-indexer/internal/logging"
	"media-indexer/internal/media"
	"media-indexer/internal/mediatypes"
)

type fakeScanner struct {
	files []media.ScannedFile
	err   error
}

func (f *fakeScanner) Scan(context.Context) (*media.ScanResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	files := make([]media.ScannedFile, len(f.files))
	copy(files, f.files)
	return &media.ScanResult{Files: files}, nil
}

type fakeExtractor struct {
	mu      sync.Mutex
	results map[string]media.Extraction
	calls   []string
	// onCall runs before the result is returned; n is the 1-based call count.
	onCall func(n int, path string)
}

func (f *fakeExtractor) extract(path string) media.Extraction {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	n := len(f.calls)
	hook := f.onCall
	ex, ok := f.results[path]
	f.mu.Unlock()

	if hook != nil {
		hook(n, path)
	}
	if !ok {
		return media.Extraction{Width: 640, Height: 480, CaptureTimestamp: "2020-01-01 00:00:00"}
	}
	return ex
}

func (f *fakeExtractor) ImageProperties(_ context.Context, path string) media.Extraction {
	return f.extract(path)
}

func (f *fakeExtractor) VideoProperties(_ context.Context, path string) media.Extraction {
	return f.extract(path)
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeGenerator struct {
	mu    sync.Mutex
	calls []media.ArtifactRequest
	fail  map[string]bool
}

func (f *fakeGenerator) Generate(_ context.Context, req media.ArtifactRequest) error {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	fail := f.fail[req.Source]
	f.mu.Unlock()

	if fail {
		return &media.ArtifactGenerationFailure{Source: req.Source, Size: req.Size, Err: fmt.Errorf("decode failed")}
	}
	if err := os.MkdirAll(filepath.Dir(req.OutPath), 0o755); err != nil {
		return err
	}
	return os.WriteFile(req.OutPath, []byte("jpeg"), 0o644)
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// memoryBackend keeps the last saved records and every save's length.
type memoryBackend struct {
	mu      sync.Mutex
	records []database.MediaRecord
	saved   []int
	saveErr error
}

func (m *memoryBackend) Load(context.Context) ([]database.MediaRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records == nil {
		return nil, nil
	}
	out := make([]database.MediaRecord, len(m.records))
	copy(out, m.records)
	return out, nil
}

func (m *memoryBackend) Save(_ context.Context, records []database.MediaRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return &database.PersistenceFailure{Path: "memory", Op: "save", Err: m.saveErr}
	}
	m.records = make([]database.MediaRecord, len(records))
	copy(m.records, records)
	m.saved = append(m.saved, len(records))
	return nil
}

func (m *memoryBackend) persisted() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *memoryBackend) Location() string { return "memory" }
func (m *memoryBackend) Close() error     { return nil }

func scanned(path string) media.ScannedFile {
	ext := mediatypes.NormalizeExtension(filepath.Ext(path))
	kind := mediatypes.KindImage
	switch ext {
	case ".mov", ".mp4", ".m4v":
		kind = mediatypes.KindVideo
	}
	return media.ScannedFile{
		Path:      path,
		Name:      filepath.Base(path),
		Ext:       ext,
		Kind:      kind,
		SizeBytes: 4096,
	}
}

type harness struct {
	t         *testing.T
	dir       string
	scanner   *fakeScanner
	extractor *fakeExtractor
	// metadata replaces extractor when set.
	metadata  MetadataExtractor
	generator *fakeGenerator
	backend   database.Backend
	layout    *media.Layout
	errorLog  *logging.ErrorLog
	opts      Options
}

func newHarness(t *testing.T, files ...string) *harness {
	t.Helper()
	dir := t.TempDir()

	h := &harness{
		t:         t,
		dir:       dir,
		scanner:   &fakeScanner{},
		extractor: &fakeExtractor{results: map[string]media.Extraction{}},
		generator: &fakeGenerator{fail: map[string]bool{}},
		backend:   database.NewJSONDocument(filepath.Join(dir, "thumbs", "metadata.json")),
		layout:    media.NewLayout(filepath.Join(dir, "thumbs")),
		errorLog:  logging.NewErrorLog(filepath.Join(dir, "thumbs", "errors.log")),
	}
	for _, f := range files {
		h.scanner.files = append(h.scanner.files, scanned(f))
	}
	return h
}

// orchestrator builds a fresh Orchestrator and Store over the harness
// backend, as a restarted process would.
func (h *harness) orchestrator() (*Orchestrator, *database.Store) {
	h.t.Helper()
	store := database.NewStore(h.backend)

	opts := h.opts
	opts.Scanner = h.scanner
	opts.Store = store
	opts.Extractor = h.extractor
	if h.metadata != nil {
		opts.Extractor = h.metadata
	}
	opts.Generator = h.generator
	opts.Layout = h.layout
	opts.ErrorLog = h.errorLog

	o, err := New(opts)
	if err != nil {
		h.t.Fatalf("New failed: %v", err)
	}
	return o, store
}

func (h *harness) run() (RunResult, *Orchestrator, *database.Store) {
	h.t.Helper()
	o, store := h.orchestrator()
	result, err := o.Run(context.Background())
	if err != nil {
		h.t.Fatalf("Run failed: %v", err)
	}
	return result, o, store
}

func (h *harness) artifactsExist(path string) bool {
	id := media.ID(path)
	for _, size := range media.ArtifactSizes {
		if !h.layout.Exists(id, size) {
			return false
		}
	}
	return true
}

func seconds(v float64) *float64 {
	return &v
}

// toolRunner answers exiftool through handler with the caller's ctx.
type toolRunner struct {
	handler func(ctx context.Context, name string, args []string) ([]byte, error)
}

func (r *toolRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return r.handler(ctx, name, args)
}

func writePNG(t *testing.T, dir, name string, w, h int) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewNRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
