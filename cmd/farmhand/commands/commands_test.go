package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// marketplace fakes Supabase auth, Supabase storage and the API in one server
type marketplace struct {
	mu          sync.Mutex
	submissions []domain.ApplicationSubmission
	createdJobs []domain.NewJob
	updates     map[int64]domain.ApplicationStatus
	appQueries  []string
	uploads     int
	apps        []domain.Application
}

func newMarketplace(t *testing.T) (*marketplace, *httptest.Server) {
	t.Helper()

	m := &marketplace{
		updates: map[int64]domain.ApplicationStatus{},
		apps: []domain.Application{
			{ID: 1, JobID: 7, JobTitle: "Strawberry picking", WorkerName: domain.Ptr("Ana Ruiz"),
				WorkerPhone: domain.Ptr("555-0100"), Status: domain.StatusPending, Notes: domain.Ptr("Five seasons picking")},
			{ID: 2, JobID: 7, JobTitle: "Strawberry picking", Status: domain.StatusAccepted,
				AudioURL: domain.Ptr("https://cdn.example/voice.webm")},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/v1/token", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body["password"] != "hunter2" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-grower",
			"expires_in":   3600,
			"user": map[string]any{
				"id":            "G1",
				"email":         body["email"],
				"user_metadata": map[string]any{"role": "grower"},
			},
		})
	})
	mux.HandleFunc("GET /auth/v1/user", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok-grower" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":            "G1",
			"user_metadata": map[string]any{"role": "grower", "full_name": "Sam Lee", "farm_name": "Sunny Acres"},
		})
	})
	mux.HandleFunc("POST /storage/v1/object/voice-applications/{object}", func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		assert.Equal(t, "RIFF-audio", string(data))
		m.mu.Lock()
		m.uploads++
		m.mu.Unlock()
		_, _ = io.WriteString(w, `{"Key":"voice-applications/x"}`)
	})
	mux.HandleFunc("GET /jobs", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[{"id":7,"title":"Strawberry picking","pay":"$18/hr","location":"Watsonville","date":"2026-06-01","farm_name":"Sunny Acres"}]`)
	})
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		var job domain.NewJob
		require.NoError(t, json.NewDecoder(r.Body).Decode(&job))
		m.mu.Lock()
		m.createdJobs = append(m.createdJobs, job)
		m.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 9, "title": job.Title, "pay": job.Pay, "location": job.Location, "date": job.Date})
	})
	mux.HandleFunc("POST /applications", func(w http.ResponseWriter, r *http.Request) {
		var sub domain.ApplicationSubmission
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sub))
		m.mu.Lock()
		m.submissions = append(m.submissions, sub)
		m.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(domain.Application{
			ID: 31, JobID: sub.JobID, Status: domain.StatusPending, AudioURL: sub.AudioURL, Notes: sub.Notes,
		})
	})
	mux.HandleFunc("GET /applications", func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.appQueries = append(m.appQueries, r.URL.RawQuery)

		status := domain.ApplicationStatus(r.URL.Query().Get("status"))
		out := []domain.Application{}
		for _, app := range m.apps {
			if status == "" || app.Status == status {
				out = append(out, app)
			}
		}
		_ = json.NewEncoder(w).Encode(out)
	})
	mux.HandleFunc("PATCH /applications/{id}", func(w http.ResponseWriter, r *http.Request) {
		var update domain.StatusUpdate
		require.NoError(t, json.NewDecoder(r.Body).Decode(&update))
		var id int64
		_, err := fmt.Sscan(r.PathValue("id"), &id)
		require.NoError(t, err)

		m.mu.Lock()
		m.updates[id] = update.Status
		for i := range m.apps {
			if m.apps[i].ID == id {
				m.apps[i].Status = update.Status
			}
		}
		m.mu.Unlock()
		_, _ = io.WriteString(w, `{"id":1}`)
	})
	mux.HandleFunc("GET /contracts", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]domain.Contract{{
			ID: "c-1", ApplicationID: 2, JobID: 7, JobTitle: "Strawberry picking", Pay: "$18/hr",
			StartDate: "2026-06-01", WorkerID: "W1", GrowerID: "G1", FarmName: "Sunny Acres",
			Status: domain.ContractStatusIssued, CreatedAt: time.Date(2026, 5, 20, 9, 30, 0, 0, time.UTC),
		}})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return m, srv
}

type harness struct {
	t          *testing.T
	dir        string
	configPath string
	store      *auth.FileStore
}

func newHarness(t *testing.T, srv *httptest.Server) *harness {
	t.Helper()

	dir := t.TempDir()
	sessionPath := filepath.Join(dir, "session.yaml")
	configPath := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`auth:
  url: %s
  anon_key: anon
client:
  api_url: %s
  session_file: %s
  storage_bucket: voice-applications
logging:
  level: error
  output: stderr
`, srv.URL, srv.URL, sessionPath)
	require.NoError(t, os.WriteFile(configPath, []byte(cfg), 0o600))

	// the environment wins over the file, so pin it
	t.Setenv("SUPABASE_URL", srv.URL)
	t.Setenv("SUPABASE_ANON_KEY", "anon")
	t.Setenv("FARMHAND_API_URL", srv.URL)
	t.Setenv("FARMHAND_ENV", "test")

	return &harness{t: t, dir: dir, configPath: configPath, store: &auth.FileStore{Path: sessionPath}}
}

func (h *harness) signIn(role domain.Role) {
	h.t.Helper()
	require.NoError(h.t, h.store.Save(auth.Session{
		UserID:      strings.ToUpper(string(role[:1])) + "1",
		Role:        role,
		AccessToken: "tok-" + string(role),
		ExpiresAt:   time.Now().Add(time.Hour),
	}))
}

func (h *harness) run(stdin string, args ...string) (string, string, error) {
	h.t.Helper()

	var out, errOut bytes.Buffer
	root := Root()
	root.Writer = &out
	root.ErrWriter = &errOut
	root.Reader = strings.NewReader(stdin)

	argv := append([]string{"farmhand", "--config", h.configPath, "--env", filepath.Join(h.dir, "missing.env")}, args...)
	err := root.Run(context.Background(), argv)
	return out.String(), errOut.String(), err
}

func TestAuthLogin(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)

	out, _, err := h.run("", "auth", "login", "--email", "sam@farm.test", "--password", "hunter2")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as sam@farm.test (grower).")

	stored, err := h.store.Load()
	require.NoError(t, err)
	assert.Equal(t, "G1", stored.UserID)
	assert.Equal(t, domain.RoleGrower, stored.Role)

	out, _, err = h.run("", "auth", "whoami", "--verify")
	require.NoError(t, err)
	assert.Contains(t, out, "Role:    grower")
	assert.Contains(t, out, "Home:    /dashboard")
	assert.Contains(t, out, "Farm:    Sunny Acres")
	assert.Contains(t, out, "Token:   valid")

	out, _, err = h.run("", "auth", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")

	out, _, err = h.run("", "auth", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestAuthLogin_PromptsForPassword(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)
	t.Setenv("FARMHAND_PASSWORD", "")

	out, prompt, err := h.run("hunter2\n", "auth", "login", "--email", "sam@farm.test")
	require.NoError(t, err)
	assert.Contains(t, prompt, "Password: ")
	assert.Contains(t, out, "Signed in as")
}

func TestAuthLogin_WrongPassword(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)

	_, _, err := h.run("", "auth", "login", "--email", "sam@farm.test", "--password", "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = h.store.Load()
	assert.ErrorIs(t, err, auth.ErrNoSession)
}

func TestGuard(t *testing.T) {
	tests := []struct {
		name      string
		role      domain.Role
		noConfig  bool
		args      []string
		wantErrIs error
		wantText  string
	}{
		{name: "unconfigured", noConfig: true, args: []string{"jobs", "list"}, wantErrIs: ErrUnconfigured},
		{name: "signed out", args: []string{"jobs", "list"}, wantErrIs: ErrSignInRequired, wantText: "/login?from=%2Fjobs"},
		{name: "worker on applications", role: domain.RoleWorker, args: []string{"applications", "list"}, wantText: "try /jobs"},
		{name: "worker posting a job", role: domain.RoleWorker, args: []string{"jobs", "post", "--title", "x"}, wantText: "try /jobs"},
		{name: "grower on contracts", role: domain.RoleGrower, args: []string{"contracts", "list"}, wantText: "try /dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, srv := newMarketplace(t)
			h := newHarness(t, srv)
			if tt.noConfig {
				t.Setenv("SUPABASE_URL", "")
			}
			if tt.role != "" {
				h.signIn(tt.role)
			}

			_, _, err := h.run("", tt.args...)
			require.Error(t, err)
			if tt.wantErrIs != nil {
				assert.ErrorIs(t, err, tt.wantErrIs)
			}
			if tt.wantText != "" {
				assert.Contains(t, err.Error(), tt.wantText)
			}
		})
	}
}

func TestJobsList(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleWorker)

	out, _, err := h.run("", "jobs", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Strawberry picking")
	assert.Contains(t, out, "Watsonville")
	assert.Contains(t, out, "Sunny Acres")
}

func TestJobsPost(t *testing.T) {
	m, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleGrower)

	_, _, err := h.run("", "jobs", "post", "--title", "Pruning", "--location", "Napa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--pay, --date")
	assert.Empty(t, m.createdJobs)

	out, _, err := h.run("", "jobs", "post",
		"--title", "Pruning", "--pay", "$20/hr", "--location", "Napa", "--date", "next week")
	require.NoError(t, err)
	assert.Contains(t, out, "Posted job 9: Pruning")

	require.Len(t, m.createdJobs, 1)
	assert.Equal(t, "next week", m.createdJobs[0].Date)
	assert.Nil(t, m.createdJobs[0].Description)
}

func TestApply(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "note.webm")
	require.NoError(t, os.WriteFile(audioPath, []byte("RIFF-audio"), 0o600))

	tests := []struct {
		name        string
		args        []string
		wantOut     string
		wantNotes   *string
		wantAudio   bool
		wantUploads int
	}{
		{name: "quick apply", args: []string{"--job", "7"}, wantOut: "Sent quick application 31 for job 7"},
		{name: "text", args: []string{"--job", "7", "--text", "  I can start Monday  "},
			wantOut: "Sent text application 31", wantNotes: domain.Ptr("I can start Monday")},
		{name: "voice", args: []string{"--job", "7", "--audio", audioPath},
			wantOut: "Sent voice application 31", wantAudio: true, wantUploads: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, srv := newMarketplace(t)
			h := newHarness(t, srv)
			h.signIn(domain.RoleWorker)

			out, _, err := h.run("", append([]string{"apply"}, tt.args...)...)
			require.NoError(t, err)
			assert.Contains(t, out, tt.wantOut)

			require.Len(t, m.submissions, 1)
			sub := m.submissions[0]
			assert.Equal(t, int64(7), sub.JobID)
			assert.Equal(t, tt.wantNotes, sub.Notes)
			assert.Equal(t, tt.wantUploads, m.uploads)
			if tt.wantAudio {
				require.NotNil(t, sub.AudioURL)
				assert.Contains(t, *sub.AudioURL, srv.URL+"/storage/v1/object/public/voice-applications/")
			} else {
				assert.Nil(t, sub.AudioURL)
			}
		})
	}
}

func TestApply_Rejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "blank text", args: []string{"--job", "7", "--text", "   "}, want: "notes must not be empty"},
		{name: "audio and text", args: []string{"--job", "7", "--audio", "a.webm", "--text", "hi"}, want: "cannot be combined"},
		{name: "missing audio file", args: []string{"--job", "7", "--audio", "/does/not/exist.webm"}, want: "failed to read audio file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, srv := newMarketplace(t)
			h := newHarness(t, srv)
			h.signIn(domain.RoleWorker)

			_, _, err := h.run("", append([]string{"apply"}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Empty(t, m.submissions)
		})
	}
}

func TestApplicationsList(t *testing.T) {
	m, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleGrower)

	out, _, err := h.run("", "applications", "list", "--status", "pending")
	require.NoError(t, err)
	assert.Contains(t, out, "[pending (1)]")
	assert.Contains(t, out, "Ana Ruiz")
	assert.Contains(t, out, "Five seasons picking")
	assert.NotContains(t, out, "voice.webm")

	require.Len(t, m.appQueries, 1)
	assert.Equal(t, "grower_id=G1&status=pending", m.appQueries[0])

	_, _, err = h.run("", "applications", "list", "--status", "archived")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown status")
}

func TestApplicationsList_AdminSeesEverything(t *testing.T) {
	m, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleAdmin)

	out, _, err := h.run("", "applications", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "[all (2)]")
	assert.Contains(t, out, "Unknown worker")
	assert.Contains(t, out, "voice: https://cdn.example/voice.webm")

	require.Len(t, m.appQueries, 1)
	assert.Empty(t, m.appQueries[0])
}

func TestApplicationsDecide(t *testing.T) {
	m, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleGrower)

	out, _, err := h.run("", "applications", "accept", "--id", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "Application 1 accepted.")
	assert.Equal(t, map[int64]domain.ApplicationStatus{1: domain.StatusAccepted}, m.updates)

	_, _, err = h.run("", "applications", "reject", "--id", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "application 2 is already accepted")
	assert.NotContains(t, m.updates, int64(2))

	_, _, err = h.run("", "applications", "reject", "--id", "99")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestApplicationsPlay_NoRecording(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleGrower)

	_, _, err := h.run("", "applications", "play", "--id", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no recording")

	_, _, err = h.run("", "applications", "play")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "either --id or --url")
}

func TestContractsList(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleWorker)

	out, _, err := h.run("", "contracts", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Strawberry picking")
	assert.Contains(t, out, "2026-05-20 09:30")
	assert.Contains(t, out, domain.ContractStatusIssued)
}

func TestContractsDownload(t *testing.T) {
	_, srv := newMarketplace(t)
	h := newHarness(t, srv)
	h.signIn(domain.RoleWorker)
	path := filepath.Join(h.dir, "contract.pdf")

	out, _, err := h.run("", "contracts", "download", "--application", "2", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Saved contract c-1 to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))

	_, _, err = h.run("", "contracts", "download", "--application", "99", "--out", path)
	assert.ErrorContains(t, err, "no contract for application 99")
}

func TestLoadConfig_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := loadConfig("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Auth.URL)

	_, err = loadConfig("elsewhere.yaml")
	require.Error(t, err)
}
