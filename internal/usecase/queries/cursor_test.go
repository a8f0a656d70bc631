//go:build unit

package queries_test

import (
	"encoding/base64"
	"testing"
	"time"

	"sharpii-ledger/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAfterCursor(t *testing.T) {
	t.Run("round trip preserves microsecond precision", func(t *testing.T) {
		at := time.Date(2026, 3, 1, 12, 0, 0, 123456000, time.UTC)
		id := uuid.New()

		cursor := queries.EncodeAfterCursor(at, id)
		gotAt, gotID, err := queries.DecodeAfterCursor(cursor)

		require.NoError(t, err)
		assert.True(t, at.Equal(gotAt))
		assert.Equal(t, id, gotID)
	})

	t.Run("empty cursor", func(t *testing.T) {
		_, _, err := queries.DecodeAfterCursor("")
		assert.Error(t, err)
	})

	t.Run("not base64", func(t *testing.T) {
		_, _, err := queries.DecodeAfterCursor("!!not-base64!!")
		assert.Error(t, err)
	})

	t.Run("wrong version", func(t *testing.T) {
		raw := base64.URLEncoding.EncodeToString([]byte("v9:123-" + uuid.NewString()))
		_, _, err := queries.DecodeAfterCursor(raw)
		assert.Error(t, err)
	})

	t.Run("mangled payload", func(t *testing.T) {
		raw := base64.URLEncoding.EncodeToString([]byte("v1:notanumber-" + uuid.NewString()))
		_, _, err := queries.DecodeAfterCursor(raw)
		assert.Error(t, err)

		raw = base64.URLEncoding.EncodeToString([]byte("v1:123-notauuid"))
		_, _, err = queries.DecodeAfterCursor(raw)
		assert.Error(t, err)
	})
}

func TestValidateLimit(t *testing.T) {
	assert.Equal(t, 20, queries.ValidateLimit(0))
	assert.Equal(t, 20, queries.ValidateLimit(-1))
	assert.Equal(t, 50, queries.ValidateLimit(50))
	assert.Equal(t, queries.MaxListLimit, queries.ValidateLimit(10000))
}
