package database

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"media-indexer/internal/mediatypes"
)

func sampleRecords() []MediaRecord {
	d := 2.5
	return []MediaRecord{
		{
			ID:               "aa11",
			SourcePath:       "/o/IMG_01.jpg",
			DisplayName:      "IMG_01.jpg",
			MediaType:        mediatypes.MediaTypePhoto,
			Width:            4000,
			Height:           3000,
			CaptureTimestamp: "2023-06-01 12:00:00",
			SizeKB:           2048,
		},
		{
			ID:               "bb22",
			SourcePath:       "/o/IMG_01.mov",
			DisplayName:      "IMG_01.mov",
			MediaType:        mediatypes.MediaTypeLivePhotoVideo,
			Width:            1920,
			Height:           1080,
			DurationSeconds:  &d,
			CaptureTimestamp: "2023-06-01 12:00:00",
			SizeKB:           900,
		},
	}
}

func TestJSONDocumentMissingFile(t *testing.T) {
	doc := NewJSONDocument(filepath.Join(t.TempDir(), "metadata.json"))

	records, err := doc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if records != nil {
		t.Errorf("Expected nil records, got %v", records)
	}
}

func TestJSONDocumentRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	doc := NewJSONDocument(path)
	ctx := context.Background()

	if err := doc.Save(ctx, sampleRecords()); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := doc.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(got))
	}
	if got[1].DurationSeconds == nil || *got[1].DurationSeconds != 2.5 {
		t.Errorf("Duration not preserved: %v", got[1].DurationSeconds)
	}
	if got[0].DurationSeconds != nil {
		t.Errorf("Expected nil duration for photo, got %v", *got[0].DurationSeconds)
	}
	if got[1].MediaType != mediatypes.MediaTypeLivePhotoVideo {
		t.Errorf("MediaType = %s", got[1].MediaType)
	}
}

func TestJSONDocumentWireFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := NewJSONDocument(path).Save(context.Background(), sampleRecords()[:1]); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{`"guid"`, `"location"`, `"name"`, `"type"`, `"width"`, `"height"`, `"lengthSeconds": null`, `"dateTaken"`, `"sizeKb"`} {
		if !bytes.Contains(data, []byte(key)) {
			t.Errorf("Document missing %s:\n%s", key, data)
		}
	}
	if !strings.HasPrefix(string(data), "[\n  {") {
		t.Errorf("Expected two-space indented array, got:\n%s", data)
	}
	if !bytes.HasSuffix(data, []byte("\n")) {
		t.Error("Expected trailing newline")
	}
}

func TestJSONDocumentEmptySaveIsArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	if err := NewJSONDocument(path).Save(context.Background(), nil); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != "[]\n" {
		t.Errorf("Expected empty array, got %q", data)
	}
}

func TestJSONDocumentSaveIsByteIdentical(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	doc := NewJSONDocument(path)
	ctx := context.Background()

	if err := doc.Save(ctx, sampleRecords()); err != nil {
		t.Fatal(err)
	}
	first, _ := os.ReadFile(path)

	loaded, err := doc.Load(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if err := doc.Save(ctx, NewCatalog(loaded).Snapshot()); err != nil {
		t.Fatal(err)
	}
	second, _ := os.ReadFile(path)

	if !bytes.Equal(first, second) {
		t.Errorf("Documents differ:\n%s\n---\n%s", first, second)
	}
}

func TestJSONDocumentCorruptMovedAside(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metadata.json")
	if err := os.WriteFile(path, []byte("[{\"guid\": "), 0o644); err != nil {
		t.Fatal(err)
	}

	doc := NewJSONDocument(path)
	doc.now = func() time.Time { return time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC) }

	records, err := doc.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if records != nil {
		t.Errorf("Expected no records, got %v", records)
	}

	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Error("Corrupt document should have been moved")
	}
	if _, err := os.Stat(path + ".corrupt-20240301T083000Z"); err != nil {
		t.Errorf("Expected corrupt copy: %v", err)
	}
}

func TestJSONDocumentSaveFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	// The parent "directory" is a regular file, so the write cannot succeed.
	doc := NewJSONDocument(filepath.Join(blocker, "metadata.json"))
	err := doc.Save(context.Background(), sampleRecords())

	var pf *PersistenceFailure
	if !errors.As(err, &pf) {
		t.Fatalf("Expected PersistenceFailure, got %v", err)
	}
	if pf.Op != "save" {
		t.Errorf("Op = %s, want save", pf.Op)
	}
}

func TestOpenBackend(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenBackend(ctx, "json", filepath.Join(dir, "m.json"))
	if err != nil {
		t.Fatalf("json backend: %v", err)
	}
	if _, ok := b.(*JSONDocument); !ok {
		t.Errorf("Expected *JSONDocument, got %T", b)
	}

	if _, err := OpenBackend(ctx, "yaml", filepath.Join(dir, "m.yaml")); err == nil {
		t.Error("Expected error for unknown backend")
	}
}
