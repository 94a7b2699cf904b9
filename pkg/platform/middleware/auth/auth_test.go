package auth

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "familyshare/pkg/domain"
	dErrors "familyshare/pkg/domain-errors"
	"familyshare/pkg/requestcontext"
)

func TestHS256_IssueAndValidate(t *testing.T) {
	signer := NewHS256("test-key", "familyshare")
	userID := id.NewUserID()

	token, err := signer.Issue(userID, time.Minute)
	require.NoError(t, err)

	got, err := signer.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	t.Run("wrong key", func(t *testing.T) {
		_, err := NewHS256("other-key", "familyshare").ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong issuer", func(t *testing.T) {
		_, err := NewHS256("test-key", "someone-else").ValidateToken(token)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("expired", func(t *testing.T) {
		expired, err := signer.Issue(userID, -time.Minute)
		require.NoError(t, err)
		_, err = signer.ValidateToken(expired)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestRequireAuth(t *testing.T) {
	signer := NewHS256("test-key", "familyshare")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	var seen id.UserID
	protected := RequireAuth(signer, logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestcontext.UserID(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid token", func(t *testing.T) {
		userID := id.NewUserID()
		token, err := signer.Issue(userID, time.Minute)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, userID, seen)
	})
}
