package features

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/keytrace-cli/internal/runlog"
)

var datasetHeader = []string{
	"json_file", "profile", "site_mode", "start_time", "end_time",
	"chars_typed", "duration_s", "computed_wpm",
	"mean_iki_ms", "std_iki_ms", "median_iki_ms", "min_iki_ms", "max_iki_ms",
	"backspace_count", "backspace_rate", "burst_fraction", "autocorr_lag1",
	"extracted_wpm", "extracted_accuracy",
}

// Builder turns a directory of stored run records into a tabular feature
// dataset. Records are independent, so extraction fans out across a bounded
// worker pool; output rows keep the sorted file-name order regardless.
type Builder struct {
	log *zap.Logger
	// Parallelism bounds concurrent record extraction. Zero means GOMAXPROCS.
	Parallelism int
}

// NewBuilder creates a dataset builder.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{log: logger.Named("features")}
}

// Build reads every run record under rawDir, extracts one feature row per
// readable record, and writes the dataset CSV to outPath. Malformed records
// are skipped with a warning; only I/O failures on the directory or the
// output file abort the build. Returns the number of rows written.
func (b *Builder) Build(ctx context.Context, rawDir, outPath string) (int, error) {
	paths, err := runlog.ListRecords(rawDir)
	if err != nil {
		return 0, err
	}

	rows := make([]Record, len(paths))
	ok := make([]bool, len(paths))

	limit := b.Parallelism
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, path := range paths {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			record, err := runlog.ReadRecord(path)
			if err != nil {
				// Skip and continue; one bad record must not abort the batch.
				b.log.Warn("skipping run record", zap.String("path", path), zap.Error(err))
				return nil
			}
			row := Extract(record.Meta, record.KeystrokeLog)
			row.JSONFile = filepath.Base(path)
			rows[i] = row
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	kept := rows[:0]
	for i, row := range rows {
		if ok[i] {
			kept = append(kept, row)
		}
	}
	if err := writeDataset(outPath, kept); err != nil {
		return 0, err
	}

	b.log.Info("wrote feature dataset",
		zap.String("path", outPath),
		zap.Int("rows", len(kept)),
		zap.Int("skipped", len(paths)-len(kept)))
	return len(kept), nil
}

func writeDataset(path string, rows []Record) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("features: failed to create output directory %q: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("features: failed to create dataset file %q: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(datasetHeader); err != nil {
		return fmt.Errorf("features: failed to write dataset header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row.csvRow()); err != nil {
			return fmt.Errorf("features: failed to write dataset row for %q: %w", row.JSONFile, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("features: failed to flush dataset: %w", err)
	}
	return nil
}

func (r Record) csvRow() []string {
	return []string{
		r.JSONFile,
		r.Profile,
		r.SiteMode,
		r.StartTime,
		r.EndTime,
		strconv.Itoa(r.CharsTyped),
		formatFloat(r.DurationS),
		formatFloat(r.ComputedWPM),
		formatFloat(r.MeanIKIMs),
		formatFloat(r.StdIKIMs),
		formatFloat(r.MedianIKIMs),
		formatFloat(r.MinIKIMs),
		formatFloat(r.MaxIKIMs),
		strconv.Itoa(r.BackspaceCount),
		formatFloat(r.BackspaceRate),
		formatFloat(r.BurstFraction),
		formatFloat(r.AutocorrLag1),
		formatOptFloat(r.ExtractedWPM),
		formatOptFloat(r.ExtractedAccuracy),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func formatOptFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}
