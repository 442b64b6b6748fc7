package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/config"
	"github.com/cuongbtq/farmhand/shared/logger"
)

func TestObjectName(t *testing.T) {
	at := time.UnixMilli(1760000000123)
	assert.Equal(t, "1760000000123-recording.webm", ObjectName(at, ""))
	assert.Equal(t, "1760000000123-job-7.webm", ObjectName(at, "job-7"))
}

func TestSupabaseStorage_Upload(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "audio/webm", r.Header.Get("Content-Type"))
		assert.Equal(t, "3600", r.Header.Get("cache-control"))
		assert.Equal(t, "false", r.Header.Get("x-upsert"))
		assert.Equal(t, "anon", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, []byte("voice"), body)
		_, _ = io.WriteString(w, `{"Key":"ok"}`)
	}))
	defer srv.Close()

	u := NewSupabaseStorage(config.AuthConfig{URL: srv.URL, AnonKey: "anon"}, logger.NewDiscard().Logger)
	u.now = func() time.Time { return time.UnixMilli(42) }

	publicURL, err := u.Upload(context.Background(), auth.Session{UserID: "W1", AccessToken: "tok"}, []byte("voice"), "", "")
	require.NoError(t, err)

	assert.Equal(t, "/storage/v1/object/voice-applications/42-recording.webm", gotPath)
	assert.Equal(t, srv.URL+"/storage/v1/object/public/voice-applications/42-recording.webm", publicURL)
}

func TestSupabaseStorage_UploadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "duplicate", http.StatusConflict)
	}))
	defer srv.Close()

	u := NewSupabaseStorage(config.AuthConfig{URL: srv.URL, AnonKey: "anon"}, logger.NewDiscard().Logger)

	_, err := u.Upload(context.Background(), auth.Session{UserID: "W1"}, []byte("x"), "a", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "409")
}

func TestSupabaseStorage_Unconfigured(t *testing.T) {
	u := NewSupabaseStorage(config.AuthConfig{URL: "http://x", AnonKey: "k"}, logger.NewDiscard().Logger)

	_, err := u.Upload(context.Background(), auth.Unconfigured(), []byte("x"), "", "")
	assert.ErrorIs(t, err, auth.ErrNotConfigured)
}
