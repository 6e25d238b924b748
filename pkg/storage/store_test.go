package storage

import (
	"context"
	stderrors "errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-intake/pkg/config"
	apperrors "form-intake/pkg/errors"
	"form-intake/pkg/models"
)

func sampleRecord(id string) models.UserRecord {
	return models.UserRecord{
		ID:        id,
		Name:      "Ann",
		Email:     "ann@example.com",
		Mobile:    "+15551234567",
		Checkbox1: true,
	}
}

func TestOpen_Memory(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{
		StoreBackend:    config.BackendMemory,
		StoreCollection: "userdata",
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), sampleRecord("u1")))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpen_SQLite(t *testing.T) {
	s, err := Open(context.Background(), &config.Config{
		StoreBackend:    config.BackendSQLite,
		StoreCollection: "userdata",
		StoreURL:        filepath.Join(t.TempDir(), "intake.db"),
	})
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Put(context.Background(), sampleRecord("u1")))
	require.NoError(t, s.Put(context.Background(), sampleRecord("u2")))
	n, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{StoreBackend: "redis"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown store backend")
}

func TestOpen_FirestoreMissingBundle(t *testing.T) {
	_, err := Open(context.Background(), &config.Config{
		StoreBackend:    config.BackendFirestore,
		StoreCollection: "userdata",
		CredentialsFile: filepath.Join(t.TempDir(), "missing.json"),
	})
	require.Error(t, err)
}

func TestInstrument_WrapsFailures(t *testing.T) {
	cause := stderrors.New("connection reset")
	mem := NewMemory()
	mem.PutErr = cause
	mem.CountErr = cause
	s := Instrument("memory", mem)

	err := s.Put(context.Background(), sampleRecord("u1"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorage))
	assert.ErrorIs(t, err, cause)

	n, err := s.Count(context.Background())
	require.Error(t, err)
	assert.Equal(t, int64(0), n)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeStorage))
}

func TestMemory_SameIDOverwrites(t *testing.T) {
	mem := NewMemory()
	ctx := context.Background()

	first := sampleRecord("u1")
	second := sampleRecord("u1")
	second.Name = "Bob"

	require.NoError(t, mem.Put(ctx, first))
	require.NoError(t, mem.Put(ctx, second))

	n, err := mem.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, ok := mem.Get("u1")
	require.True(t, ok)
	assert.Equal(t, "Bob", got.Name)
	assert.Equal(t, 2, mem.Puts())
}
