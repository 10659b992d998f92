package features

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xkilldash9x/keytrace-cli/api/schemas"
	"github.com/xkilldash9x/keytrace-cli/internal/runlog"
)

func writeTestRecord(t *testing.T, store *runlog.Store, iteration int, profile string) string {
	t.Helper()
	events := []schemas.KeystrokeEvent{
		{Key: "a", Timestamp: 0.0, Action: schemas.ActionKeypress},
		{Key: "b", Timestamp: 0.1, Action: schemas.ActionKeypress},
		{Key: "c", Timestamp: 0.2, Action: schemas.ActionKeypress},
	}
	record := schemas.RunRecord{
		Meta: schemas.RunMeta{
			Iteration:       iteration,
			Profile:         profile,
			SiteMode:        "standard",
			KeystrokesCount: len(events),
		},
		KeystrokeLog:     events,
		TargetTextSample: "abc",
	}
	stamp := time.Date(2026, 8, 30, 12, 0, iteration, 0, time.UTC)
	name, err := store.WriteRecord(record, stamp)
	require.NoError(t, err)
	return name
}

func TestBuilder_Build(t *testing.T) {
	rawDir := t.TempDir()
	store, err := runlog.NewStore(rawDir, "run", zap.NewNop())
	require.NoError(t, err)

	first := writeTestRecord(t, store, 1, "superhuman")
	second := writeTestRecord(t, store, 2, "human_like")

	// A file that is not valid JSON must be skipped, not abort the batch.
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "aaa_garbage.json"), []byte("{not json"), 0o644))

	outPath := filepath.Join(t.TempDir(), "features.csv")
	builder := NewBuilder(zap.NewNop())
	rows, err := builder.Build(context.Background(), rawDir, outPath)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	f, err := os.Open(outPath)
	require.NoError(t, err)
	defer f.Close()
	table, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)

	require.Len(t, table, 3, "header plus two rows")
	assert.Equal(t, datasetHeader, table[0])
	// Rows follow sorted file-name order.
	assert.Equal(t, first, table[1][0])
	assert.Equal(t, second, table[2][0])
	assert.Equal(t, "superhuman", table[1][1])
	assert.Equal(t, "human_like", table[2][1])
	assert.Equal(t, "3", table[1][5], "chars_typed column")
}

func TestBuilder_Build_CountMismatchSkipped(t *testing.T) {
	rawDir := t.TempDir()
	store, err := runlog.NewStore(rawDir, "run", zap.NewNop())
	require.NoError(t, err)
	writeTestRecord(t, store, 1, "superhuman")

	// A record whose meta count disagrees with its log violates the schema
	// invariant and is skipped.
	bad := `{"meta":{"profile":"human_like","keystrokes_count":5},"keystroke_log":[],"target_text_sample":""}`
	require.NoError(t, os.WriteFile(filepath.Join(rawDir, "zzz_bad.json"), []byte(bad), 0o644))

	outPath := filepath.Join(t.TempDir(), "features.csv")
	rows, err := NewBuilder(zap.NewNop()).Build(context.Background(), rawDir, outPath)
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestBuilder_Build_EmptyDirectory(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "features.csv")
	rows, err := NewBuilder(zap.NewNop()).Build(context.Background(), t.TempDir(), outPath)
	require.NoError(t, err)
	assert.Zero(t, rows)

	// Header-only dataset is still written.
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestBuilder_Build_MissingDirectory(t *testing.T) {
	_, err := NewBuilder(zap.NewNop()).Build(context.Background(),
		filepath.Join(t.TempDir(), "does-not-exist"), filepath.Join(t.TempDir(), "out.csv"))
	assert.Error(t, err)
}
