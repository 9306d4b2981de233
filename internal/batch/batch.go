package batch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/mls-photo-enhancer/internal/archive"
	"github.com/ironsheep/mls-photo-enhancer/internal/enhance"
	"github.com/ironsheep/mls-photo-enhancer/internal/imaging"
	"github.com/ironsheep/mls-photo-enhancer/internal/metering"
)

// Item is one upload to enhance.
type Item struct {
	// Name identifies the upload in results and logs, usually the file name.
	Name string

	// Data holds the undecoded image bytes.
	Data []byte

	// Err marks an upload that could not be read. The item keeps its
	// position and fails with Err without being enhanced.
	Err error
}

// ItemFromUpload converts a file read from disk into a batch item.
func ItemFromUpload(u *imaging.Upload) Item {
	return Item{Name: u.Name, Data: u.Data}
}

// ReadItems reads every path into an Item. An unreadable path becomes an
// Item carrying the read error, so one bad path never aborts the batch.
func ReadItems(paths []string) []Item {
	items := make([]Item, len(paths))
	for i, p := range paths {
		up, err := imaging.ReadUpload(p)
		if err != nil {
			items[i] = Item{Name: filepath.Base(p), Err: err}
			continue
		}
		items[i] = ItemFromUpload(up)
	}
	return items
}

// Result holds the outcome for a single item.
type Result struct {
	// Index is the 1-based position of the item in the input slice.
	Index int

	// Source is the item name.
	Source string

	// Image is the enhanced JPEG (nil if Err is non-nil).
	Image *enhance.EncodedImage

	// Err is the per-item failure, or the context error for items that never started.
	Err error
}

// Quota gates a batch on an account's remaining credits.
//
// Reserve is called once with the full item count before any work starts and
// must check and hold the credits atomically. Release is called once
// afterwards with the number of items that produced no image.
type Quota interface {
	Reserve(ctx context.Context, account string, n int) (metering.Reservation, error)
	Release(ctx context.Context, r metering.Reservation, n int) error
}

// Options configures one batch run.
type Options struct {
	// Workers is the number of concurrent workers. 0 = runtime.NumCPU().
	Workers int

	// Variant selects the pipeline. Empty uses the Enhancer's default.
	Variant enhance.Variant

	// Account is charged through the Runner's Quota. Ignored without a Quota.
	Account string

	// OnItem is called after each item completes (for progress reporting).
	OnItem func(completed, total int)
}

// Runner enhances batches of uploads on a bounded worker pool.
type Runner struct {
	enhancer *enhance.Enhancer
	quota    Quota
	logger   *zap.Logger
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithQuota makes every run reserve credits on an account.
func WithQuota(q Quota) RunnerOption {
	return func(r *Runner) { r.quota = q }
}

// WithLogger sets the logger for batch and per-item events.
func WithLogger(logger *zap.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a Runner around a shared Enhancer.
func NewRunner(e *enhance.Enhancer, opts ...RunnerOption) *Runner {
	r := &Runner{enhancer: e, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Report is the complete outcome of a batch.
type Report struct {
	// ID correlates log lines of one run.
	ID string

	Variant enhance.Variant

	// Results are in input order regardless of completion order.
	Results []Result

	Summary Summary
}

// Images returns the successful images in input order.
func (r *Report) Images() []*enhance.EncodedImage {
	images := make([]*enhance.EncodedImage, 0, r.Summary.Succeeded)
	for _, res := range r.Results {
		if res.Err == nil && res.Image != nil {
			images = append(images, res.Image)
		}
	}
	return images
}

// Entries returns the archive entries for the successful images.
func (r *Report) Entries() []archive.Entry {
	images := r.Images()
	entries := make([]archive.Entry, len(images))
	for i, img := range images {
		entries[i] = archive.Entry{Name: img.Name, Data: img.Data}
	}
	return entries
}

// Run enhances every item and returns results in input order.
//
// Each item is processed independently: a corrupt upload produces an error in
// its own Result and the rest of the batch continues. The context can be used
// to cancel the batch; in-flight items finish but items not yet started get
// ctx.Err().
//
// An error is returned only when the batch is refused before any work starts
// (unknown variant, or the Quota rejects the account).
func (r *Runner) Run(ctx context.Context, items []Item, opts Options) (*Report, error) {
	variant := opts.Variant
	if variant == "" {
		variant = r.enhancer.Config().Variant
	}
	if _, err := r.enhancer.Stages(variant); err != nil {
		return nil, err
	}

	report := &Report{
		ID:      uuid.New().String(),
		Variant: variant,
	}
	logger := r.logger.With(zap.String("batch_id", report.ID))

	if len(items) == 0 {
		return report, nil
	}

	var reservation metering.Reservation
	if r.quota != nil {
		var err error
		if reservation, err = r.quota.Reserve(ctx, opts.Account, len(items)); err != nil {
			logger.Info("batch refused",
				zap.String("account", opts.Account),
				zap.Int("items", len(items)),
				zap.Error(err),
			)
			return nil, err
		}
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers > len(items) {
		workers = len(items)
	}

	logger.Info("batch started",
		zap.String("variant", string(variant)),
		zap.Int("items", len(items)),
		zap.Int("workers", workers),
	)
	start := time.Now()

	results := make([]Result, len(items))
	var completed atomic.Int64

	var g errgroup.Group
	g.SetLimit(workers)
	for i := range items {
		g.Go(func() error {
			item := items[i]
			res := Result{Index: i + 1, Source: item.Name}

			if err := ctx.Err(); err != nil {
				res.Err = err
				results[i] = res
				return nil
			}

			if item.Err != nil {
				res.Err = item.Err
			} else {
				res.Image, res.Err = r.enhancer.EnhanceImage(item.Data, item.Name, variant)
			}
			if res.Err != nil {
				logger.Warn("item failed",
					zap.Int("index", res.Index),
					zap.String("source", item.Name),
					zap.Error(res.Err),
				)
			} else {
				res.Image.Index = res.Index
				res.Image.Name = archive.EntryName(res.Index)
			}
			results[i] = res

			c := completed.Add(1)
			if opts.OnItem != nil {
				opts.OnItem(int(c), len(items))
			}
			return nil
		})
	}
	_ = g.Wait()

	report.Results = results
	report.Summary = Summarize(results)

	if unused := len(items) - report.Summary.Succeeded; r.quota != nil && unused > 0 {
		if err := r.quota.Release(context.WithoutCancel(ctx), reservation, unused); err != nil {
			// The images exist; report the refund failure rather than discarding them.
			logger.Error("failed to release unused credits",
				zap.String("account", opts.Account),
				zap.Int("images", unused),
				zap.Error(err),
			)
		}
	}

	logger.Info("batch complete",
		zap.Int("succeeded", report.Summary.Succeeded),
		zap.Int("failed", report.Summary.Failed),
		zap.Int("canceled", report.Summary.Canceled),
		zap.Duration("elapsed", time.Since(start)),
	)
	return report, nil
}

// Summary provides aggregate statistics for a batch.
type Summary struct {
	Total     int   `json:"total"`
	Succeeded int   `json:"succeeded"`
	Failed    int   `json:"failed"`
	Canceled  int   `json:"canceled"`
	Bytes     int64 `json:"bytes"`
}

// Summarize computes aggregate statistics from batch results.
// Canceled items are counted separately from failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Err == nil:
			s.Succeeded++
			if r.Image != nil {
				s.Bytes += int64(len(r.Image.Data))
			}
		case errors.Is(r.Err, context.Canceled), errors.Is(r.Err, context.DeadlineExceeded):
			s.Canceled++
		default:
			s.Failed++
		}
	}
	return s
}

// String returns a human-readable batch summary.
func (s Summary) String() string {
	msg := fmt.Sprintf("Batch: %d/%d succeeded", s.Succeeded, s.Total)
	if s.Failed > 0 {
		msg += fmt.Sprintf(" | %d failed", s.Failed)
	}
	if s.Canceled > 0 {
		msg += fmt.Sprintf(" | %d canceled", s.Canceled)
	}
	return msg + fmt.Sprintf(" | %s", humanBytes(s.Bytes))
}

func humanBytes(b int64) string {
	if b == 0 {
		return "0 B"
	}
	units := []string{"B", "KB", "MB", "GB"}
	i := 0
	bf := float64(b)
	for bf >= 1024 && i < len(units)-1 {
		bf /= 1024
		i++
	}
	if i == 0 {
		return fmt.Sprintf("%d B", b)
	}
	return fmt.Sprintf("%.1f %s", bf, units[i])
}
