package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlaskin/docvision/constants"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.Record(ctx, Entry{
		Identifier: "invoice-1.pdf",
		Mode:       constants.ModeText,
		MediaType:  constants.MediaTypePDF,
		Result:     "# Invoice 1",
		Status:     constants.StatusOK,
		CreatedAt:  base,
	}))
	require.NoError(t, store.Record(ctx, Entry{
		Identifier: "invoice-2.png",
		Mode:       constants.ModeStructured,
		MediaType:  constants.MediaTypePNG,
		Fields:     "invoiceNumber,amountDue",
		Result:     `{"invoiceNumber":"INV-2"}`,
		Status:     constants.StatusOK,
		CreatedAt:  base.Add(time.Minute),
	}))

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	// Newest first.
	assert.Equal(t, "invoice-2.png", entries[0].Identifier)
	assert.Equal(t, constants.ModeStructured, entries[0].Mode)
	assert.Equal(t, "invoiceNumber,amountDue", entries[0].Fields)
	assert.Equal(t, "invoice-1.pdf", entries[1].Identifier)
	assert.Equal(t, constants.ModeText, entries[1].Mode)
	assert.NotEmpty(t, entries[0].ID)
}

func TestRecordFillsDefaults(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Record(ctx, Entry{
		Identifier: "doc.jpg",
		Mode:       constants.ModeText,
		Status:     constants.StatusFailed,
		ErrorMsg:   "resource unavailable",
	}))

	entries, err := store.Recent(ctx, 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.NotEmpty(t, entries[0].ID)
	assert.False(t, entries[0].CreatedAt.IsZero())
	assert.Equal(t, constants.StatusFailed, entries[0].Status)
	assert.Equal(t, "resource unavailable", entries[0].ErrorMsg)
}

func TestRecentLimit(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, store.Record(ctx, Entry{
			Identifier: "doc.jpg",
			Mode:       constants.ModeText,
			Status:     constants.StatusOK,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		}))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestRecentEmpty(t *testing.T) {
	store := openTestStore(t)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}
