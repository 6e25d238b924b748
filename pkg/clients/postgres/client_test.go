package postgres

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"form-intake/pkg/models"
)

// newTestClient connects to POSTGRES_TEST_DSN and creates a throwaway table.
func newTestClient(t *testing.T) *clientImpl {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}

	table := "users_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	c, err := NewClient(context.Background(), dsn, table)
	require.NoError(t, err)

	impl := c.(*clientImpl)
	t.Cleanup(func() {
		_, _ = impl.db.Exec(`DROP TABLE IF EXISTS ` + impl.table)
		_ = impl.Close()
	})
	return impl
}

func TestPutAndCount(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	ann := models.UserRecord{ID: "u1", Name: "Ann", Email: "ann@example.com", Mobile: "+15551234567", Checkbox1: true}
	require.NoError(t, c.Put(ctx, ann))
	require.NoError(t, c.Put(ctx, models.UserRecord{ID: "u2", Name: "Bob"}))

	ann.Name = "Annabel"
	ann.Checkbox1 = false
	require.NoError(t, c.Put(ctx, ann))

	n, err = c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var name string
	var consent bool
	require.NoError(t, c.db.QueryRowContext(ctx, `SELECT name, checkbox1 FROM `+c.table+` WHERE id = $1`, "u1").Scan(&name, &consent))
	assert.Equal(t, "Annabel", name)
	assert.False(t, consent)
}

func TestNewClient_MigrateIsIdempotent(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.migrate(context.Background()))
}

func TestNewClient_Unreachable(t *testing.T) {
	_, err := NewClient(context.Background(), "postgres://nobody@127.0.0.1:1/none?connect_timeout=1", "users")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to ping postgres")
}
