// Package runlog persists typing runs: one JSON record per run plus an
// append-only CSV summary table, and reads the record directory back for
// batch analysis.
package runlog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/api/schemas"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SummaryFile is the name of the append-only summary table inside the record
// directory.
const SummaryFile = "runs_summary.csv"

var summaryHeader = []string{
	"iteration", "profile", "site_mode", "start_time", "end_time",
	"extracted_wpm", "computed_wpm", "extracted_accuracy", "keystrokes_count", "json_file",
}

// Store writes run records and summary rows under a single directory.
type Store struct {
	dir    string
	prefix string
	log    *zap.Logger
}

// NewStore creates the record directory if needed.
func NewStore(dir, prefix string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("runlog: failed to create record directory %q: %w", dir, err)
	}
	return &Store{dir: dir, prefix: prefix, log: logger.Named("runlog")}, nil
}

// Dir returns the record directory.
func (s *Store) Dir() string { return s.dir }

// WriteRecord persists one run record as pretty-printed JSON and returns the
// file name (not the full path) for cross-referencing in summary rows.
func (s *Store) WriteRecord(record schemas.RunRecord, stamp time.Time) (string, error) {
	name := fmt.Sprintf("%s_%s_iter%d.json",
		s.prefix, stamp.UTC().Format("20060102T150405"), record.Meta.Iteration)
	path := filepath.Join(s.dir, name)

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("runlog: failed to encode run record: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("runlog: failed to write %q: %w", path, err)
	}

	s.log.Debug("wrote run record",
		zap.String("file", name),
		zap.Int("keystrokes", record.Meta.KeystrokesCount))
	return name, nil
}

// AppendSummary appends one row to the summary table, writing the header
// first if the table does not exist yet.
func (s *Store) AppendSummary(meta schemas.RunMeta, jsonFile string) error {
	path := filepath.Join(s.dir, SummaryFile)
	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("runlog: failed to open summary table: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if writeHeader {
		if err := w.Write(summaryHeader); err != nil {
			return fmt.Errorf("runlog: failed to write summary header: %w", err)
		}
	}
	row := []string{
		strconv.Itoa(meta.Iteration),
		meta.Profile,
		meta.SiteMode,
		meta.StartTime,
		meta.EndTime,
		formatOptFloat(meta.ExtractedWPM),
		formatFloat(meta.ComputedWPM),
		formatOptFloat(meta.ExtractedAccuracy),
		strconv.Itoa(meta.KeystrokesCount),
		jsonFile,
	}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("runlog: failed to append summary row: %w", err)
	}
	w.Flush()
	return w.Error()
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
