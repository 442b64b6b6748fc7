// Package backend is the REST client for the farmhand API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/domain"
)

var (
	// ErrUnexpectedStatus is wrapped by every *StatusError
	ErrUnexpectedStatus = errors.New("unexpected response status")
	// ErrMalformedResponse is returned when a success body cannot be decoded
	ErrMalformedResponse = errors.New("malformed response body")
)

// StatusError is a non-2xx answer from the API
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("api returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api returned %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	return ErrUnexpectedStatus
}

// ApplicationQuery filters GET /applications. Empty fields are omitted.
type ApplicationQuery struct {
	Status   domain.ApplicationStatus
	GrowerID string
}

// Values renders the query string parameters
func (q ApplicationQuery) Values() url.Values {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.GrowerID != "" {
		v.Set("grower_id", q.GrowerID)
	}
	return v
}

// Client talks to the API on behalf of a session
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// New returns a client for baseURL. A zero timeout means no client timeout.
func New(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// ListJobs returns the open jobs
func (c *Client) ListJobs(ctx context.Context, s auth.Session) ([]domain.Job, error) {
	var wire []wireJob
	if err := c.do(ctx, s, http.MethodGet, "/jobs", nil, &wire); err != nil {
		return nil, err
	}

	jobs := make([]domain.Job, 0, len(wire))
	for _, j := range wire {
		jobs = append(jobs, j.normalize())
	}
	return jobs, nil
}

// CreateJob posts a new job and returns the stored record
func (c *Client) CreateJob(ctx context.Context, s auth.Session, job domain.NewJob) (domain.Job, error) {
	var wire wireJob
	if err := c.do(ctx, s, http.MethodPost, "/jobs", job, &wire); err != nil {
		return domain.Job{}, err
	}
	return wire.normalize(), nil
}

// SubmitApplication applies to a job
func (c *Client) SubmitApplication(ctx context.Context, s auth.Session, sub domain.ApplicationSubmission) (domain.Application, error) {
	var app domain.Application
	if err := c.do(ctx, s, http.MethodPost, "/applications", sub, &app); err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

// ListApplications fetches applications matching q
func (c *Client) ListApplications(ctx context.Context, s auth.Session, q ApplicationQuery) ([]domain.Application, error) {
	path := "/applications"
	if enc := q.Values().Encode(); enc != "" {
		path += "?" + enc
	}

	var apps []domain.Application
	if err := c.do(ctx, s, http.MethodGet, path, nil, &apps); err != nil {
		return nil, err
	}
	if apps == nil {
		apps = []domain.Application{}
	}
	return apps, nil
}

// UpdateApplicationStatus moves an application to status. Only success or
// failure of the call is reported.
func (c *Client) UpdateApplicationStatus(ctx context.Context, s auth.Session, id int64, status domain.ApplicationStatus) error {
	path := "/applications/" + strconv.FormatInt(id, 10)
	return c.do(ctx, s, http.MethodPatch, path, domain.StatusUpdate{Status: status}, nil)
}

// ListContracts returns the contracts visible to the session
func (c *Client) ListContracts(ctx context.Context, s auth.Session) ([]domain.Contract, error) {
	var contracts []domain.Contract
	if err := c.do(ctx, s, http.MethodGet, "/contracts", nil, &contracts); err != nil {
		return nil, err
	}
	return contracts, nil
}

func (c *Client) do(ctx context.Context, s auth.Session, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.AccessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("API request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrMalformedResponse, method, path, err)
	}

	return nil
}

// errorMessage extracts {"error": "..."} from a failure body when present
func errorMessage(r io.Reader) string {
	var body struct {
		Error string `json:"error"`
	}
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || json.Unmarshal(data, &body) != nil {
		return ""
	}
	return body.Error
}
