package taskserver

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kastheco/tareas/internal/clock"
)

func TestAuthenticator_IssueAndVerify(t *testing.T) {
	fake := clock.NewFake(epoch)
	auth := NewAuthenticator([]byte("s3cret"), fake)

	token, err := auth.IssueToken("ana", time.Hour)
	require.NoError(t, err)

	sub, err := auth.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "ana", sub)

	fake.Advance(2 * time.Hour)
	_, err = auth.Verify(token)
	assert.Error(t, err, "expired token")

	other := NewAuthenticator([]byte("different"), fake)
	fresh, err := other.IssueToken("ana", 0)
	require.NoError(t, err)
	_, err = auth.Verify(fresh)
	assert.Error(t, err, "wrong signing key")
}

func TestHandler_RequiresBearerWhenAuthEnabled(t *testing.T) {
	auth := NewAuthenticator([]byte("s3cret"), nil)
	srv, _ := newTestServer(t, WithAuth(auth))

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/api/tasks", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "No autorizado", errorText(t, body))

	token, err := auth.IssueToken("cli", 0)
	require.NoError(t, err)
	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/tasks", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+token)
	ok, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	ok.Body.Close()
	assert.Equal(t, http.StatusOK, ok.StatusCode)

	// Health stays public.
	resp, _ = doJSON(t, http.MethodGet, srv.URL+"/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBearerToken(t *testing.T) {
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	_, err := bearerToken(req)
	assert.ErrorIs(t, err, errMissingToken)

	req.Header.Set("Authorization", "Basic abc")
	_, err = bearerToken(req)
	assert.ErrorIs(t, err, errMissingToken)

	req.Header.Set("Authorization", "bearer  abc ")
	tok, err := bearerToken(req)
	require.NoError(t, err)
	assert.Equal(t, "abc", tok)
}
