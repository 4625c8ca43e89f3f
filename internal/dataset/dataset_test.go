package dataset

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/couchcryptid/emergency-severity/internal/domain"
	"github.com/couchcryptid/emergency-severity/internal/synth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testHeader = "city,time_of_day,day_of_week,weather,temp,population_density,emergency_type,severity"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWriteRead_RoundTrip(t *testing.T) {
	records := synth.Generate(300, 42)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, records))
	assert.True(t, strings.HasPrefix(buf.String(), testHeader+"\n"))

	decoded, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, records, decoded)
}

func TestWrite_ByteIdenticalForSameSeed(t *testing.T) {
	var a, b bytes.Buffer
	require.NoError(t, Write(&a, synth.Generate(1000, 42)))
	require.NoError(t, Write(&b, synth.Generate(1000, 42)))
	assert.Equal(t, a.Bytes(), b.Bytes())
}

func TestRead_Rejects(t *testing.T) {
	cases := []struct {
		name string
		body string
		want string
	}{
		{"empty", "", "empty file"},
		{"wrong header", "city,weather\nDelhi,Clear\n", "header"},
		{"bad temperature", testHeader + "\nDelhi,Night,Fri,Stormy,hot,9000,Fire,High\n", "line 2"},
		{"out of range", testHeader + "\nDelhi,Night,Fri,Stormy,50,9000,Fire,High\n", "temp"},
		{"unknown city", testHeader + "\nParis,Night,Fri,Stormy,30,9000,Fire,High\n", "city"},
		{"unknown label", testHeader + "\nDelhi,Night,Fri,Stormy,30,9000,Fire,Extreme\n", "severity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tc.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestRead_DomainErrorsAreTyped(t *testing.T) {
	_, err := Read(strings.NewReader(testHeader + "\nDelhi,Night,Fri,Stormy,50,9000,Fire,High\n"))
	assert.ErrorIs(t, err, domain.ErrDataDomain)
}

func TestStore_LoadOrGenerate_GeneratesOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "table.csv")
	store := NewStore(path, discardLogger())

	first, generated, err := store.LoadOrGenerate(context.Background(), 200, 42)
	require.NoError(t, err)
	assert.True(t, generated)
	assert.Len(t, first, 200)

	info, err := os.Stat(path)
	require.NoError(t, err)
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	// A different seed and size must not alter an existing table.
	second, generated, err := store.LoadOrGenerate(context.Background(), 50, 7)
	require.NoError(t, err)
	assert.False(t, generated)
	assert.Equal(t, first, second)

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)
	info2, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, info.ModTime(), info2.ModTime())
}

func TestStore_LoadOrGenerate_CorruptTableIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))

	_, _, err := NewStore(path, discardLogger()).LoadOrGenerate(context.Background(), 10, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestStore_LoadOrGenerate_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := NewStore(filepath.Join(t.TempDir(), "t.csv"), discardLogger()).LoadOrGenerate(ctx, 10, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStore_SaveReplacesWholesale(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.csv")
	store := NewStore(path, discardLogger())

	require.NoError(t, store.Save(synth.Generate(100, 1)))
	require.NoError(t, store.Save(synth.Generate(10, 2)))

	records, err := store.Load()
	require.NoError(t, err)
	assert.Equal(t, synth.Generate(10, 2), records)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files should be cleaned up")
}
