package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cuongbtq/farmhand/internal/config"
	"github.com/cuongbtq/farmhand/internal/domain"
)

const defaultRequestTimeout = 10 * time.Second

// User is the identity the provider reports for an access token
type User struct {
	ID       string      `json:"id"`
	Email    string      `json:"email,omitempty"`
	Role     domain.Role `json:"role"`
	Name     string      `json:"name,omitempty"`
	Phone    string      `json:"phone,omitempty"`
	FarmName string      `json:"farm_name,omitempty"`
}

// SupabaseProvider signs users in against Supabase GoTrue and resolves tokens
type SupabaseProvider struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
	store      *FileStore
	logger     *slog.Logger
	now        func() time.Time
}

var _ Provider = (*SupabaseProvider)(nil)

// NewSupabaseProvider builds a provider from the auth config. store may be nil
// when sessions are not persisted (the API service).
func NewSupabaseProvider(cfg config.AuthConfig, store *FileStore, logger *slog.Logger) *SupabaseProvider {
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}

	return &SupabaseProvider{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		anonKey:    cfg.AnonKey,
		httpClient: &http.Client{Timeout: timeout},
		store:      store,
		logger:     logger,
		now:        time.Now,
	}
}

// Configured reports whether URL and anon key are both present
func (p *SupabaseProvider) Configured() bool {
	return p.baseURL != "" && p.anonKey != ""
}

// Session returns the stored session, a signed-out session when none is
// stored or it has expired, and Unconfigured when credentials are missing.
func (p *SupabaseProvider) Session(ctx context.Context) (Session, error) {
	if !p.Configured() {
		return Unconfigured(), nil
	}
	if p.store == nil {
		return Session{}, nil
	}

	s, err := p.store.Load()
	if errors.Is(err, ErrNoSession) {
		return Session{}, nil
	}
	if err != nil {
		return Session{}, err
	}

	if s.Expired(p.now()) {
		p.logger.Info("Stored session expired",
			slog.String("user_id", s.UserID),
		)
		return Session{}, nil
	}

	return s, nil
}

type tokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"`
	User        userResponse `json:"user"`
}

type userResponse struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

func (u userResponse) toUser() User {
	return User{
		ID:       u.ID,
		Email:    u.Email,
		Role:     roleFromMetadata(u.UserMetadata, u.AppMetadata),
		Name:     metadataString(u.UserMetadata, "full_name"),
		Phone:    metadataString(u.UserMetadata, "phone"),
		FarmName: metadataString(u.UserMetadata, "farm_name"),
	}
}

func metadataString(md map[string]any, key string) string {
	v, _ := md[key].(string)
	return v
}

// roleFromMetadata prefers the role in app metadata, which only the project
// can set. User metadata is editable by the user, so a role there is honored
// for worker and grower only. Anything else falls back to worker.
func roleFromMetadata(userMD, appMD map[string]any) domain.Role {
	if r := metadataRole(appMD); r != "" {
		return r
	}
	if r := metadataRole(userMD); r != "" && r != domain.RoleAdmin {
		return r
	}
	return domain.RoleWorker
}

func metadataRole(md map[string]any) domain.Role {
	raw, _ := md["role"].(string)
	return domain.ParseRole(raw)
}

// SignIn exchanges email and password for a session and persists it
func (p *SupabaseProvider) SignIn(ctx context.Context, email, password string) (Session, error) {
	if !p.Configured() {
		return Session{}, ErrNotConfigured
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return Session{}, fmt.Errorf("failed to encode sign-in request: %w", err)
	}

	req, err := p.newRequest(ctx, http.MethodPost, "/auth/v1/token?grant_type=password", bytes.NewReader(body))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var tok tokenResponse
	if err := p.do(req, &tok); err != nil {
		if errors.Is(err, errRejected) {
			return Session{}, ErrInvalidCredentials
		}
		return Session{}, err
	}

	user := tok.User.toUser()
	s := Session{
		UserID:      user.ID,
		Email:       user.Email,
		Role:        user.Role,
		AccessToken: tok.AccessToken,
	}
	if tok.ExpiresIn > 0 {
		s.ExpiresAt = p.now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}

	if p.store != nil {
		if err := p.store.Save(s); err != nil {
			return Session{}, err
		}
	}

	p.logger.Info("Signed in",
		slog.String("user_id", s.UserID),
		slog.String("role", string(s.Role)),
	)

	return s, nil
}

// SignOut forgets the stored session
func (p *SupabaseProvider) SignOut() error {
	if p.store == nil {
		return nil
	}
	return p.store.Clear()
}

// User resolves an access token to the user it belongs to
func (p *SupabaseProvider) User(ctx context.Context, accessToken string) (User, error) {
	if !p.Configured() {
		return User{}, ErrNotConfigured
	}

	req, err := p.newRequest(ctx, http.MethodGet, "/auth/v1/user", nil)
	if err != nil {
		return User{}, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	var u userResponse
	if err := p.do(req, &u); err != nil {
		if errors.Is(err, errRejected) {
			return User{}, ErrInvalidToken
		}
		return User{}, err
	}
	if u.ID == "" {
		return User{}, ErrInvalidToken
	}

	return u.toUser(), nil
}

// errRejected marks a 4xx answer from the provider
var errRejected = errors.New("request rejected by auth provider")

func (p *SupabaseProvider) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build auth request: %w", err)
	}
	req.Header.Set("apikey", p.anonKey)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (p *SupabaseProvider) do(req *http.Request, dest any) error {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach auth provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: status %d", errRejected, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("auth provider returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode auth response: %w", err)
	}

	return nil
}
