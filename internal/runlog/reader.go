package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/xkilldash9x/keytrace-cli/api/schemas"
)

// ListRecords returns the full paths of all run record files in dir, sorted
// by file name so batch output is stable across invocations.
func ListRecords(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("runlog: failed to read record directory %q: %w", dir, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, e.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// SkipRecordError marks a record that failed decoding or shape validation.
// Batch consumers log it and move on rather than aborting the whole build.
type SkipRecordError struct {
	Path   string
	Reason string
	Err    error
}

func (e *SkipRecordError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("runlog: skipping record %q: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("runlog: skipping record %q: %s", e.Path, e.Reason)
}

func (e *SkipRecordError) Unwrap() error { return e.Err }

// ReadRecord decodes and validates a single run record. A decode failure or
// a record violating the basic shape invariants is reported as a
// *SkipRecordError so batch consumers can skip it and continue.
func ReadRecord(path string) (schemas.RunRecord, error) {
	var record schemas.RunRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return record, fmt.Errorf("runlog: failed to read %q: %w", path, err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, &SkipRecordError{Path: path, Reason: "malformed JSON", Err: err}
	}
	if record.Meta.Profile == "" {
		return record, &SkipRecordError{Path: path, Reason: "missing meta.profile"}
	}
	if record.Meta.KeystrokesCount != len(record.KeystrokeLog) {
		return record, &SkipRecordError{
			Path:   path,
			Reason: fmt.Sprintf("keystroke count mismatch: meta says %d, log has %d", record.Meta.KeystrokesCount, len(record.KeystrokeLog)),
		}
	}
	return record, nil
}
