// Package storage uploads voice recordings to the object store.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/config"
)

const (
	// DefaultBucket holds voice applications
	DefaultBucket = "voice-applications"
	// DefaultName is the object name stem used when none is given
	DefaultName = "recording"

	audioContentType = "audio/webm"
)

// Uploader stores audio and returns its public URL
type Uploader interface {
	Upload(ctx context.Context, s auth.Session, data []byte, name, bucket string) (string, error)
}

// SupabaseStorage uploads through the Supabase storage REST API
type SupabaseStorage struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	logger     *slog.Logger
	now        func() time.Time
}

// NewSupabaseStorage builds an uploader from the auth provider settings
func NewSupabaseStorage(cfg config.AuthConfig, logger *slog.Logger) *SupabaseStorage {
	return &SupabaseStorage{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
		now:        time.Now,
	}
}

// ObjectName returns <unix-millis>-<name>.webm
func ObjectName(at time.Time, name string) string {
	if name == "" {
		name = DefaultName
	}
	return fmt.Sprintf("%d-%s.webm", at.UnixMilli(), name)
}

// PublicURL returns the public address of object in bucket
func (u *SupabaseStorage) PublicURL(bucket, object string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", u.baseURL, bucket, url.PathEscape(object))
}

// Upload stores data as a new object. Existing objects are never overwritten.
func (u *SupabaseStorage) Upload(ctx context.Context, s auth.Session, data []byte, name, bucket string) (string, error) {
	if !s.Configured() || u.baseURL == "" {
		return "", auth.ErrNotConfigured
	}
	if bucket == "" {
		bucket = DefaultBucket
	}
	object := ObjectName(u.now(), name)

	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", u.baseURL, bucket, url.PathEscape(object))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", audioContentType)
	req.Header.Set("cache-control", "3600")
	req.Header.Set("x-upsert", "false")
	req.Header.Set("apikey", u.anonKey)
	token := s.AccessToken
	if token == "" {
		token = u.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload audio: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("storage upload returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	u.logger.Info("Audio uploaded",
		slog.String("bucket", bucket),
		slog.String("object", object),
		slog.Int("bytes", len(data)),
	)

	return u.PublicURL(bucket, object), nil
}
