package indexer

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"media-indexer/internal/database"
	"media-indexer/internal/logging"
	"media-indexer/internal/media"
	"media-indexer/internal/mediatypes"
	"media-indexer/internal/metrics"
)

const (
	// Number of committed files between flushes
	defaultFlushEvery = 50

	defaultSmallWidth    = 300
	defaultMediumWidth   = 1200
	defaultSmallQuality  = 80
	defaultMediumQuality = 95

	// How often EnsureIndexed re-checks a run started by another caller
	ensurePollInterval = 100 * time.Millisecond
)

// ErrNotFound is returned by ResolveSourcePath for unknown identifiers.
var ErrNotFound = errors.New("media not found")

// State is the lifecycle of the orchestrator's single indexing run.
type State int32

const (
	StateNotStarted State = iota
	StateRunning
	StateDone
)

func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StateRunning:
		return "running"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Scanner lists the originals to reconcile.
type Scanner interface {
	Scan(ctx context.Context) (*media.ScanResult, error)
}

// MetadataExtractor reads metadata. Failures are reported inside the
// returned Extraction, never as errors.
type MetadataExtractor interface {
	ImageProperties(ctx context.Context, path string) media.Extraction
	VideoProperties(ctx context.Context, path string) media.Extraction
}

// ArtifactGenerator writes one preview.
type ArtifactGenerator interface {
	Generate(ctx context.Context, req media.ArtifactRequest) error
}

// Backpressure delays new extraction work, for example under memory
// pressure. Wait returns ctx.Err() if ctx ends first.
type Backpressure interface {
	Wait(ctx context.Context) error
}

// Options configures an Orchestrator. Zero numeric fields take defaults.
type Options struct {
	Scanner   Scanner
	Store     *database.Store
	Extractor MetadataExtractor
	Generator ArtifactGenerator
	Layout    *media.Layout
	ErrorLog  *logging.ErrorLog

	// Backpressure is consulted before each extraction window. Optional.
	Backpressure Backpressure

	SmallWidth          int
	MediumWidth         int
	SmallQuality        int
	MediumQuality       int
	FlushEvery          int
	Workers             int
	LivePhotoMaxSeconds float64
}

// RunResult summarizes one run.
type RunResult struct {
	Skipped          bool          `json:"skipped"`
	Scanned          int           `json:"scanned"`
	Added            int           `json:"added"`
	Removed          int           `json:"removed"`
	Failed           int           `json:"failed"`
	Degraded         int           `json:"degraded"`
	Repaired         int           `json:"repaired"`
	ArtifactFailures int           `json:"artifactFailures"`
	ScanWarnings     int           `json:"scanWarnings"`
	Flushes          int           `json:"flushes"`
	StartedAt        time.Time     `json:"startedAt"`
	Duration         time.Duration `json:"duration"`
}

// Status is a point-in-time view for the ops surface.
type Status struct {
	State           string     `json:"state"`
	Records         int        `json:"records"`
	Photos          int        `json:"photos"`
	Videos          int        `json:"videos"`
	LivePhotoVideos int        `json:"livePhotoVideos"`
	Undated         int        `json:"undated"`
	LastRun         *RunResult `json:"lastRun,omitempty"`
	LastError       string     `json:"lastError,omitempty"`
}

// Orchestrator runs the indexing pipeline and serves the resulting catalog.
type Orchestrator struct {
	opts  Options
	state atomic.Int32

	done     chan struct{}
	doneOnce sync.Once

	mu        sync.RWMutex
	lastRun   *RunResult
	lastError error
}

// New creates an Orchestrator. Scanner, Store, Extractor, Generator and
// Layout are required.
func New(opts Options) (*Orchestrator, error) {
	switch {
	case opts.Scanner == nil:
		return nil, errors.New("indexer: scanner is required")
	case opts.Store == nil:
		return nil, errors.New("indexer: store is required")
	case opts.Extractor == nil:
		return nil, errors.New("indexer: extractor is required")
	case opts.Generator == nil:
		return nil, errors.New("indexer: generator is required")
	case opts.Layout == nil:
		return nil, errors.New("indexer: layout is required")
	}

	if opts.SmallWidth <= 0 {
		opts.SmallWidth = defaultSmallWidth
	}
	if opts.MediumWidth <= 0 {
		opts.MediumWidth = defaultMediumWidth
	}
	if opts.SmallQuality <= 0 {
		opts.SmallQuality = defaultSmallQuality
	}
	if opts.MediumQuality <= 0 {
		opts.MediumQuality = defaultMediumQuality
	}
	if opts.FlushEvery <= 0 {
		opts.FlushEvery = defaultFlushEvery
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.LivePhotoMaxSeconds <= 0 {
		opts.LivePhotoMaxSeconds = DefaultLivePhotoMaxSeconds
	}

	return &Orchestrator{opts: opts, done: make(chan struct{})}, nil
}

// State returns the current run state.
func (o *Orchestrator) State() State {
	return State(o.state.Load())
}

// Done is closed once a run has completed successfully.
func (o *Orchestrator) Done() <-chan struct{} {
	return o.done
}

// Run performs the indexing run if none has started or completed yet.
// Concurrent and later calls return a skipped result immediately.
func (o *Orchestrator) Run(ctx context.Context) (RunResult, error) {
	if !o.state.CompareAndSwap(int32(StateNotStarted), int32(StateRunning)) {
		logging.Debug("Index run already %s, skipping", o.State())
		metrics.IndexerRunsTotal.WithLabelValues("skipped").Inc()
		return RunResult{Skipped: true}, nil
	}

	metrics.IndexerIsRunning.Set(1)
	defer metrics.IndexerIsRunning.Set(0)

	result, err := o.run(ctx)

	metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
	metrics.IndexerLastRunDuration.Set(result.Duration.Seconds())

	o.mu.Lock()
	o.lastRun = &result
	o.lastError = err
	o.mu.Unlock()

	if err != nil {
		metrics.IndexerRunsTotal.WithLabelValues("error").Inc()
		logging.Error("Index run failed after %v: %v", result.Duration, err)
		o.state.Store(int32(StateNotStarted))
		return result, err
	}

	metrics.IndexerRunsTotal.WithLabelValues("success").Inc()
	o.state.Store(int32(StateDone))
	o.doneOnce.Do(func() { close(o.done) })

	logging.Info("Index complete in %v: %d scanned, %d added, %d removed, %d failed, %d degraded, %d repaired, %d flushes",
		result.Duration, result.Scanned, result.Added, result.Removed, result.Failed,
		result.Degraded, result.Repaired, result.Flushes)
	return result, nil
}

// EnsureIndexed starts a run if needed and waits until one has completed.
// It returns the error of a run it started itself.
func (o *Orchestrator) EnsureIndexed(ctx context.Context) error {
	ticker := time.NewTicker(ensurePollInterval)
	defer ticker.Stop()

	for {
		if o.State() == StateDone {
			return nil
		}

		result, err := o.Run(ctx)
		if err != nil {
			return err
		}
		if !result.Skipped {
			return nil
		}

		// Another caller owns the run. If it fails the state drops back to
		// NotStarted and the next iteration retries.
		select {
		case <-o.done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// GetIndexedMedia returns every record newest first with undated records
// last, indexing first if no run has completed yet.
func (o *Orchestrator) GetIndexedMedia(ctx context.Context) ([]database.MediaRecord, error) {
	if err := o.EnsureIndexed(ctx); err != nil {
		return nil, err
	}
	return o.opts.Store.Catalog().Listing(), nil
}

// ResolveSourcePath maps a record identifier back to its original file.
func (o *Orchestrator) ResolveSourcePath(ctx context.Context, id string) (string, error) {
	if !media.IsID(id) {
		return "", ErrNotFound
	}
	if err := o.EnsureIndexed(ctx); err != nil {
		return "", err
	}
	rec, ok := o.opts.Store.Catalog().GetByID(id)
	if !ok {
		return "", ErrNotFound
	}
	return rec.SourcePath, nil
}

// Stats returns the run state and catalog counts.
func (o *Orchestrator) Stats() Status {
	s := Status{State: o.State().String()}

	if c := o.opts.Store.Catalog(); c != nil {
		counts, undated := c.CountByType()
		s.Records = c.Len()
		s.Photos = counts[mediatypes.MediaTypePhoto]
		s.Videos = counts[mediatypes.MediaTypeVideo]
		s.LivePhotoVideos = counts[mediatypes.MediaTypeLivePhotoVideo]
		s.Undated = undated
	}

	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.lastRun != nil {
		r := *o.lastRun
		s.LastRun = &r
	}
	if o.lastError != nil {
		s.LastError = o.lastError.Error()
	}
	return s
}

// GetStats implements metrics.StatsProvider.
func (o *Orchestrator) GetStats() metrics.Stats {
	s := o.Stats()
	return metrics.Stats{
		TotalRecords:    s.Records,
		Photos:          s.Photos,
		Videos:          s.Videos,
		LivePhotoVideos: s.LivePhotoVideos,
		Undated:         s.Undated,
	}
}

// run is the body of one indexing pass. Only fatal errors are returned.
func (o *Orchestrator) run(ctx context.Context) (result RunResult, err error) {
	result.StartedAt = time.Now()
	defer func() { result.Duration = time.Since(result.StartedAt) }()

	logging.Info("Starting index run")

	catalog, err := o.opts.Store.Load(ctx)
	if err != nil {
		return result, err
	}
	flushesBefore := o.opts.Store.Flushes()
	defer func() { result.Flushes = o.opts.Store.Flushes() - flushesBefore }()

	scan, err := o.opts.Scanner.Scan(ctx)
	if err != nil {
		return result, err
	}
	result.Scanned = len(scan.Files)
	result.ScanWarnings = len(scan.Warnings)
	for _, w := range scan.Warnings {
		logging.Warn("Skipped during scan: %v", w)
	}

	toAdd, toRemove, kept := reconcile(catalog, scan.Files)
	logging.Info("Reconciled %d files: %d to add, %d to remove, %d unchanged",
		len(scan.Files), len(toAdd), len(toRemove), len(kept))

	for _, path := range toRemove {
		o.removeRecord(catalog, path)
		result.Removed++
	}

	sidecars := newSidecarIndex(catalog.Snapshot())
	metrics.IndexerPendingFiles.Set(float64(len(toAdd)))
	defer metrics.IndexerPendingFiles.Set(0)

	committed := 0
	commit := func(f media.ScannedFile, out fileOutcome) error {
		metrics.IndexerPendingFiles.Dec()
		result.ArtifactFailures += out.artifactFailures

		if out.err != nil {
			result.Failed++
			metrics.IndexerFilesProcessed.WithLabelValues("failed").Inc()
			logging.Error("Failed to index %s: %v", f.Path, out.err)
			o.opts.ErrorLog.Record("Error loading photo", f.Path, out.err)
			return nil
		}

		if err := catalog.Add(*out.record); err != nil {
			logging.Error("Failed to add %s to catalog: %v", f.Path, err)
			result.Failed++
			metrics.IndexerFilesProcessed.WithLabelValues("failed").Inc()
			o.opts.ErrorLog.Record("Error loading photo", f.Path, err)
			return nil
		}
		sidecars.add(*out.record)

		result.Added++
		if out.degraded {
			result.Degraded++
			metrics.IndexerFilesProcessed.WithLabelValues("degraded").Inc()
		} else {
			metrics.IndexerFilesProcessed.WithLabelValues("indexed").Inc()
		}

		committed++
		if committed%o.opts.FlushEvery == 0 {
			return o.opts.Store.Flush(ctx)
		}
		return nil
	}

	photos, videos := splitByKind(toAdd)
	for _, phase := range [][]media.ScannedFile{photos, videos} {
		if err := o.processPhase(ctx, phase, sidecars, commit); err != nil {
			return result, o.abort(ctx, err)
		}
	}

	repaired, failures, err := o.repairArtifacts(ctx, catalog, kept)
	result.Repaired = repaired
	result.ArtifactFailures += failures
	if err != nil {
		return result, o.abort(ctx, err)
	}
	if err := ctx.Err(); err != nil {
		return result, o.abort(ctx, err)
	}

	if err := o.opts.Store.Flush(ctx); err != nil {
		return result, err
	}
	return result, nil
}

// abort flushes what has been committed when a run stops early for a
// reason other than a persistence failure.
func (o *Orchestrator) abort(ctx context.Context, cause error) error {
	var pf *database.PersistenceFailure
	if errors.As(cause, &pf) {
		return cause
	}
	if err := o.opts.Store.Flush(context.WithoutCancel(ctx)); err != nil {
		return errors.Join(cause, err)
	}
	return cause
}

func (o *Orchestrator) removeRecord(catalog *database.Catalog, path string) {
	rec, ok := catalog.Remove(path)
	if !ok {
		return
	}
	if err := o.opts.Layout.Remove(rec.ID); err != nil {
		logging.Warn("Failed to delete previews for %s: %v", path, err)
	}
	metrics.IndexerFilesProcessed.WithLabelValues("removed").Inc()
	logging.Debug("Removed %s (%s)", path, rec.ID)
}

// reconcile diffs scanned files against the catalog. toAdd keeps scan order;
// toRemove is sorted; kept lists records present on both sides.
func reconcile(catalog *database.Catalog, scanned []media.ScannedFile) (toAdd []media.ScannedFile, toRemove []string, kept []string) {
	stored := catalog.Paths()
	seen := make(map[string]struct{}, len(scanned))

	for _, f := range scanned {
		seen[f.Path] = struct{}{}
		if _, ok := stored[f.Path]; ok {
			kept = append(kept, f.Path)
			continue
		}
		toAdd = append(toAdd, f)
	}

	for p := range stored {
		if _, ok := seen[p]; !ok {
			toRemove = append(toRemove, p)
		}
	}
	sort.Strings(toRemove)
	return toAdd, toRemove, kept
}

// splitByKind separates images from videos, preserving order within each.
func splitByKind(files []media.ScannedFile) (images, videos []media.ScannedFile) {
	for _, f := range files {
		if f.Kind == mediatypes.KindVideo {
			videos = append(videos, f)
		} else {
			images = append(images, f)
		}
	}
	return images, videos
}

// fileOutcome is the result of preparing one new file.
type fileOutcome struct {
	record           *database.MediaRecord
	degraded         bool
	artifactFailures int
	err              error
}

// processPhase prepares files in windows of Workers concurrent tasks and
// commits each window in order on the calling goroutine.
func (o *Orchestrator) processPhase(
	ctx context.Context,
	files []media.ScannedFile,
	sidecars sidecarIndex,
	commit func(media.ScannedFile, fileOutcome) error,
) error {
	window := o.opts.Workers

	for start := 0; start < len(files); start += window {
		if err := ctx.Err(); err != nil {
			return err
		}
		if o.opts.Backpressure != nil {
			if err := o.opts.Backpressure.Wait(ctx); err != nil {
				return err
			}
		}

		end := min(start+window, len(files))
		batch := files[start:end]
		outcomes := make([]fileOutcome, len(batch))

		var g errgroup.Group
		g.SetLimit(window)
		for i := range batch {
			g.Go(func() error {
				outcomes[i] = o.prepareFile(ctx, batch[i], sidecars)
				return nil
			})
		}
		_ = g.Wait()

		// Extraction that raced a cancellation is degraded, not final.
		// Leave the whole window for the next run.
		if err := ctx.Err(); err != nil {
			return err
		}

		for i := range batch {
			if err := commit(batch[i], outcomes[i]); err != nil {
				return err
			}
		}

		if end/500 != start/500 || end == len(files) {
			logging.Info("Index progress: %d/%d %ss", end, len(files), batch[0].Kind)
		}
	}
	return nil
}

// prepareFile extracts metadata and generates previews for one new file.
// Panics are recovered into a per-file failure.
func (o *Orchestrator) prepareFile(ctx context.Context, f media.ScannedFile, sidecars sidecarIndex) (out fileOutcome) {
	defer func() {
		if r := recover(); r != nil {
			logging.Error("Recovered panic while indexing %s: %v\n%s", f.Path, r, debug.Stack())
			out = fileOutcome{err: fmt.Errorf("panic: %v", r)}
		}
	}()

	rec := database.MediaRecord{
		ID:          media.ID(f.Path),
		SourcePath:  f.Path,
		DisplayName: f.Name,
		SizeKB:      database.SizeKBFromBytes(f.SizeBytes),
	}

	var ex media.Extraction
	switch f.Kind {
	case mediatypes.KindImage:
		ex = o.opts.Extractor.ImageProperties(ctx, f.Path)
		rec.MediaType = mediatypes.MediaTypePhoto
		rec.CaptureTimestamp = ex.CaptureTimestamp
	case mediatypes.KindVideo:
		ex = o.opts.Extractor.VideoProperties(ctx, f.Path)
		var paired *database.MediaRecord
		if sc, ok := sidecars.lookup(f.Path); ok {
			paired = &sc
		}
		rec.MediaType, rec.CaptureTimestamp = classifyVideo(ex, paired, o.opts.LivePhotoMaxSeconds)
		rec.DurationSeconds = ex.DurationSeconds
	default:
		return fileOutcome{err: fmt.Errorf("unsupported kind %q", f.Kind)}
	}

	rec.Width, rec.Height = ex.Width, ex.Height
	if rec.CaptureTimestamp == "" {
		rec.CaptureTimestamp = mediatypes.SentinelNoDate
	}

	for _, failure := range ex.Failures {
		o.opts.ErrorLog.Record("Incomplete metadata", f.Path, failure)
	}

	out.record = &rec
	out.degraded = ex.Degraded()
	_, out.artifactFailures = o.ensureArtifacts(ctx, rec, f.Kind)
	return out
}

// ensureArtifacts generates whichever previews of rec are missing and
// returns how many were written and how many failed.
func (o *Orchestrator) ensureArtifacts(ctx context.Context, rec database.MediaRecord, kind mediatypes.Kind) (generated, failed int) {
	for _, size := range media.ArtifactSizes {
		if o.opts.Layout.Exists(rec.ID, size) {
			continue
		}

		if err := o.opts.Layout.Ensure(rec.ID); err != nil {
			failed++
			o.opts.ErrorLog.Record("Error generating thumbnail", rec.SourcePath, err)
			continue
		}

		target, quality := o.opts.SmallWidth, o.opts.SmallQuality
		if size == media.SizeMedium {
			target, quality = o.opts.MediumWidth, o.opts.MediumQuality
		}
		w, h := media.TargetBox(rec.Width, rec.Height, target)

		err := o.opts.Generator.Generate(ctx, media.ArtifactRequest{
			Source:       rec.SourcePath,
			Kind:         kind,
			Size:         size,
			TargetWidth:  w,
			TargetHeight: h,
			OutPath:      o.opts.Layout.Path(rec.ID, size),
			Quality:      quality,
		})
		if err != nil {
			failed++
			logging.Warn("Preview generation failed for %s: %v", rec.SourcePath, err)
			o.opts.ErrorLog.Record("Error generating thumbnail", rec.SourcePath, err)
			continue
		}
		generated++
	}
	return generated, failed
}

// repairArtifacts regenerates missing previews for records that were
// already indexed before this run.
func (o *Orchestrator) repairArtifacts(ctx context.Context, catalog *database.Catalog, kept []string) (repaired, failed int, err error) {
	var missing []database.MediaRecord
	for _, path := range kept {
		rec, ok := catalog.Get(path)
		if !ok {
			continue
		}
		for _, size := range media.ArtifactSizes {
			if !o.opts.Layout.Exists(rec.ID, size) {
				missing = append(missing, rec)
				break
			}
		}
	}
	if len(missing) == 0 {
		return 0, 0, nil
	}

	logging.Info("Regenerating previews for %d records", len(missing))

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.opts.Workers)

	for _, rec := range missing {
		g.Go(func() (taskErr error) {
			defer func() {
				if r := recover(); r != nil {
					logging.Error("Recovered panic while repairing %s: %v", rec.SourcePath, r)
					mu.Lock()
					failed++
					mu.Unlock()
				}
			}()

			if err := gctx.Err(); err != nil {
				return err
			}

			kind := mediatypes.KindImage
			if rec.MediaType.IsVideo() {
				kind = mediatypes.KindVideo
			}
			gen, fails := o.ensureArtifacts(gctx, rec, kind)

			mu.Lock()
			defer mu.Unlock()
			failed += fails
			if gen > 0 {
				repaired++
				metrics.IndexerFilesProcessed.WithLabelValues("repaired").Inc()
			}
			return nil
		})
	}

	err = g.Wait()
	return repaired, failed, err
}
