package database

import (
	"errors"
	"testing"

	"media-indexer/internal/mediatypes"
)

func record(path, date string) MediaRecord {
	return MediaRecord{
		ID:               "id-" + path,
		SourcePath:       path,
		DisplayName:      path,
		MediaType:        mediatypes.MediaTypePhoto,
		CaptureTimestamp: date,
	}
}

func paths(records []MediaRecord) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.SourcePath
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCatalogStoredOrder(t *testing.T) {
	c := NewCatalog(nil)

	for _, r := range []MediaRecord{
		record("/o/c.jpg", "2023-05-01 10:00:00"),
		record("/o/undated.jpg", mediatypes.SentinelNoDate),
		record("/o/a.jpg", "2021-01-01 00:00:00"),
		record("/o/b.jpg", "2023-05-01 10:00:00"),
	} {
		if err := c.Add(r); err != nil {
			t.Fatalf("Add(%s) failed: %v", r.SourcePath, err)
		}
	}

	got := paths(c.Snapshot())
	want := []string{"/o/a.jpg", "/o/b.jpg", "/o/c.jpg", "/o/undated.jpg"}
	if !equalStrings(got, want) {
		t.Errorf("Snapshot order = %v, want %v", got, want)
	}
}

func TestCatalogListingPutsSentinelLast(t *testing.T) {
	orders := [][]MediaRecord{
		{
			record("/o/undated.jpg", mediatypes.SentinelNoDate),
			record("/o/old.jpg", "2001-01-01 00:00:00"),
			record("/o/new.jpg", "2024-12-31 23:59:59"),
		},
		{
			record("/o/new.jpg", "2024-12-31 23:59:59"),
			record("/o/old.jpg", "2001-01-01 00:00:00"),
			record("/o/undated.jpg", mediatypes.SentinelNoDate),
		},
	}

	want := []string{"/o/new.jpg", "/o/old.jpg", "/o/undated.jpg"}
	for i, recs := range orders {
		c := NewCatalog(nil)
		for _, r := range recs {
			if err := c.Add(r); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
		if got := paths(c.Listing()); !equalStrings(got, want) {
			t.Errorf("order %d: Listing = %v, want %v", i, got, want)
		}
	}
}

func TestCatalogRejectsDuplicatePath(t *testing.T) {
	c := NewCatalog(nil)
	if err := c.Add(record("/o/a.jpg", "2020-01-01 00:00:00")); err != nil {
		t.Fatalf("first Add failed: %v", err)
	}

	err := c.Add(record("/o/a.jpg", "2021-01-01 00:00:00"))
	if !errors.Is(err, ErrDuplicatePath) {
		t.Errorf("Expected ErrDuplicatePath, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("Expected 1 record, got %d", c.Len())
	}
}

func TestCatalogRemove(t *testing.T) {
	c := NewCatalog([]MediaRecord{
		record("/o/a.jpg", "2020-01-01 00:00:00"),
		record("/o/b.jpg", "2020-01-01 00:00:00"),
		record("/o/c.jpg", "2020-01-01 00:00:00"),
	})

	rec, ok := c.Remove("/o/b.jpg")
	if !ok {
		t.Fatal("Expected Remove to find /o/b.jpg")
	}
	if rec.ID != "id-/o/b.jpg" {
		t.Errorf("Removed record ID = %s", rec.ID)
	}
	if c.Contains("/o/b.jpg") {
		t.Error("Removed path still present")
	}
	if _, ok := c.GetByID("id-/o/b.jpg"); ok {
		t.Error("Removed id still resolvable")
	}
	if got := paths(c.Snapshot()); !equalStrings(got, []string{"/o/a.jpg", "/o/c.jpg"}) {
		t.Errorf("Snapshot after remove = %v", got)
	}

	if _, ok := c.Remove("/o/missing.jpg"); ok {
		t.Error("Expected Remove of unknown path to report false")
	}
}

func TestNewCatalogDropsInvalidAndDuplicate(t *testing.T) {
	bad := record("/o/bad.jpg", "2020-01-01 00:00:00")
	bad.MediaType = "sticker"

	c := NewCatalog([]MediaRecord{
		record("/o/a.jpg", "2020-01-01 00:00:00"),
		record("/o/a.jpg", "2022-01-01 00:00:00"),
		bad,
		{SourcePath: "/o/noid.jpg"},
	})

	if c.Len() != 1 {
		t.Fatalf("Expected 1 record, got %d", c.Len())
	}
	rec, _ := c.Get("/o/a.jpg")
	if rec.CaptureTimestamp != "2020-01-01 00:00:00" {
		t.Errorf("Expected first occurrence to win, got %s", rec.CaptureTimestamp)
	}
}

func TestCatalogCountByType(t *testing.T) {
	video := record("/o/v.mov", "2020-01-01 00:00:00")
	video.MediaType = mediatypes.MediaTypeVideo
	live := record("/o/l.mov", mediatypes.SentinelNoDate)
	live.MediaType = mediatypes.MediaTypeLivePhotoVideo

	c := NewCatalog([]MediaRecord{record("/o/a.jpg", mediatypes.SentinelNoDate), video, live})

	counts, undated := c.CountByType()
	if counts[mediatypes.MediaTypePhoto] != 1 || counts[mediatypes.MediaTypeVideo] != 1 || counts[mediatypes.MediaTypeLivePhotoVideo] != 1 {
		t.Errorf("Unexpected counts: %v", counts)
	}
	if undated != 2 {
		t.Errorf("Expected 2 undated, got %d", undated)
	}
}

func TestCatalogSnapshotIsCopy(t *testing.T) {
	c := NewCatalog([]MediaRecord{record("/o/a.jpg", "2020-01-01 00:00:00")})

	snap := c.Snapshot()
	snap[0].DisplayName = "changed"

	rec, _ := c.Get("/o/a.jpg")
	if rec.DisplayName != "/o/a.jpg" {
		t.Error("Snapshot mutation leaked into the catalog")
	}
}

func TestSizeKBFromBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want int64
	}{
		{0, 0},
		{-5, 0},
		{1023, 0},
		{1024, 1},
		{2047, 1},
		{5 * 1024 * 1024, 5120},
	}

	for _, tt := range tests {
		if got := SizeKBFromBytes(tt.in); got != tt.want {
			t.Errorf("SizeKBFromBytes(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
