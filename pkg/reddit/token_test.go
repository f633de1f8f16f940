package reddit

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"imagegrab/pkg/apiclient"
	"imagegrab/pkg/config"
	"imagegrab/pkg/errors"
	"imagegrab/pkg/logger"
)

func newTestAcquirer(t *testing.T, handler http.HandlerFunc) *TokenAcquirer {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := config.DefaultConfig()
	cfg.HTTP.RequestsPerSecond = 0
	cfg.Reddit.AuthURL = server.URL
	cfg.Reddit.AppID = "my-app"
	cfg.Reddit.DeviceID = "device-0123456789"

	log := logger.NewNopLogger()
	return NewTokenAcquirer(cfg, apiclient.NewClient(cfg, log), log)
}

func TestAcquireTokenRequest(t *testing.T) {
	var calls int32
	a := newTestAcquirer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("my-app:")), r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "https://oauth.reddit.com/grants/installed_client", r.PostForm.Get("grant_type"))
		assert.Equal(t, "device-0123456789", r.PostForm.Get("device_id"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"abc","expires_in":3600,"token_type":"bearer","scope":"*"}`))
	})

	token, err := a.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)

	again, err := a.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Same(t, token, again)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAcquireTokenRefreshesNearExpiry(t *testing.T) {
	var calls int32
	a := newTestAcquirer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"access_token":"abc","expires_in":3600}`))
	})

	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }

	_, err := a.AcquireToken(context.Background())
	require.NoError(t, err)

	now = now.Add(54 * time.Minute)
	_, err = a.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))

	now = now.Add(2 * time.Minute)
	_, err = a.AcquireToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestAcquireTokenFailure(t *testing.T) {
	a := newTestAcquirer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})

	token, err := a.AcquireToken(context.Background())
	assert.Nil(t, token)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrTokenUnavailable))
	assert.True(t, errors.IsType(err, errors.ErrorTypeAuth))
}

func TestAcquireTokenEmpty(t *testing.T) {
	a := newTestAcquirer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error":"invalid_grant"}`))
	})

	_, err := a.AcquireToken(context.Background())
	assert.True(t, errors.Is(err, errors.ErrTokenUnavailable))
}

func TestNewDeviceID(t *testing.T) {
	id := NewDeviceID()
	assert.Len(t, id, 25)
	assert.NotContains(t, id, "-")
	assert.NotEqual(t, id, NewDeviceID())
}

func TestTokenValid(t *testing.T) {
	now := time.Now()
	var nilToken *Token
	assert.False(t, nilToken.Valid(now))
	assert.False(t, (&Token{}).Valid(now))
	assert.True(t, (&Token{AccessToken: "x", ExpiresIn: 3600, AcquiredAt: now}).Valid(now))
	assert.False(t, (&Token{AccessToken: "x", ExpiresIn: 200, AcquiredAt: now}).Valid(now))
}
