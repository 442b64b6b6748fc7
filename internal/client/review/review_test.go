package review

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/client/backend"
	"github.com/cuongbtq/farmhand/internal/domain"
	"github.com/cuongbtq/farmhand/shared/logger"
)

var (
	growerG1 = auth.Session{UserID: "G1", Role: domain.RoleGrower, AccessToken: "t"}
	admin    = auth.Session{UserID: "A1", Role: domain.RoleAdmin, AccessToken: "t"}
)

// fakeAPI is an in-memory applications store
type fakeAPI struct {
	mu        sync.Mutex
	apps      []domain.Application
	queries   []backend.ApplicationQuery
	updates   []domain.StatusUpdate
	listErr   error
	updateErr error
	// hold, when set, blocks the next list call until released
	hold chan struct{}
}

func (f *fakeAPI) ListApplications(_ context.Context, _ auth.Session, q backend.ApplicationQuery) ([]domain.Application, error) {
	f.mu.Lock()
	f.queries = append(f.queries, q)
	hold := f.hold
	f.hold = nil
	f.mu.Unlock()

	if hold != nil {
		<-hold
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Application
	for _, a := range f.apps {
		if q.Status == "" || a.Status == q.Status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAPI) UpdateApplicationStatus(_ context.Context, _ auth.Session, id int64, status domain.ApplicationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updates = append(f.updates, domain.StatusUpdate{Status: status})
	for i := range f.apps {
		if f.apps[i].ID == id {
			f.apps[i].Status = status
		}
	}
	return nil
}

type alerts struct {
	mu   sync.Mutex
	msgs []string
}

func (a *alerts) Alert(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.msgs = append(a.msgs, msg)
}

func (a *alerts) list() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.msgs...)
}

func sampleApps() []domain.Application {
	return []domain.Application{
		{ID: 41, JobID: 1, Status: domain.StatusPending, Notes: domain.Ptr("Ready Monday")},
		{ID: 42, JobID: 1, Status: domain.StatusPending, AudioURL: domain.Ptr("https://cdn/42.webm")},
		{ID: 43, JobID: 2, Status: domain.StatusAccepted},
		{ID: 44, JobID: 2, Status: domain.StatusRejected},
	}
}

func newReview(api *fakeAPI, al *alerts) *Review {
	return New(api, &fakePlayer{}, al, logger.NewDiscard().Logger)
}

func TestBuildQuery(t *testing.T) {
	tests := []struct {
		name    string
		session auth.Session
		filter  domain.StatusFilter
		want    backend.ApplicationQuery
		wantErr error
	}{
		{name: "grower all", session: growerG1, filter: domain.FilterAll, want: backend.ApplicationQuery{GrowerID: "G1"}},
		{name: "grower pending", session: growerG1, filter: domain.FilterPending, want: backend.ApplicationQuery{Status: domain.StatusPending, GrowerID: "G1"}},
		{name: "admin all", session: admin, filter: domain.FilterAll, want: backend.ApplicationQuery{}},
		{name: "admin rejected", session: admin, filter: domain.FilterRejected, want: backend.ApplicationQuery{Status: domain.StatusRejected}},
		{name: "worker refused", session: auth.Session{UserID: "W1", Role: domain.RoleWorker}, filter: domain.FilterAll, wantErr: ErrRoleNotPermitted},
		{name: "signed out", session: auth.Session{}, filter: domain.FilterAll, wantErr: ErrNotSignedIn},
		{name: "unconfigured", session: auth.Unconfigured(), filter: domain.FilterAll, wantErr: ErrNotSignedIn},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildQuery(tt.session, tt.filter)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReview_LoadGrowerAll(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	r := newReview(api, &alerts{})

	require.NoError(t, r.Load(context.Background(), growerG1, domain.FilterAll))

	require.Len(t, api.queries, 1)
	assert.Equal(t, "grower_id=G1", api.queries[0].Values().Encode())
	assert.Len(t, r.Visible(), 4)
	assert.Equal(t, Counts{All: 4, Pending: 2, Accepted: 1, Rejected: 1}, r.Counts())
	assert.False(t, r.Loading())
	assert.Equal(t, domain.FilterAll, r.Filter())
}

func TestReview_LoadAdminHasNoGrowerFilter(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	r := newReview(api, &alerts{})

	require.NoError(t, r.Load(context.Background(), admin, domain.FilterPending))

	require.Len(t, api.queries, 1)
	assert.Equal(t, "status=pending", api.queries[0].Values().Encode())
	assert.Len(t, r.Visible(), 2)
	assert.Equal(t, 2, r.Counts().For(domain.FilterPending))
}

func TestReview_LoadReplacesSet(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	r := newReview(api, &alerts{})

	require.NoError(t, r.Load(context.Background(), admin, domain.FilterAll))
	api.apps = api.apps[:1]
	require.NoError(t, r.Load(context.Background(), admin, domain.FilterAll))

	assert.Len(t, r.Visible(), 1)
}

func TestReview_LoadFailureKeepsSetAndDoesNotAlert(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	al := &alerts{}
	r := newReview(api, al)

	require.NoError(t, r.Load(context.Background(), admin, domain.FilterAll))
	api.listErr = errors.New("network down")

	require.Error(t, r.Load(context.Background(), admin, domain.FilterAll))
	assert.Len(t, r.Visible(), 4)
	assert.False(t, r.Loading())
	assert.Empty(t, al.list())
}

func TestReview_SupersededLoadIsDiscarded(t *testing.T) {
	api := &fakeAPI{apps: sampleApps(), hold: make(chan struct{})}
	r := newReview(api, &alerts{})
	slow := api.hold

	done := make(chan error, 1)
	go func() { done <- r.Load(context.Background(), admin, domain.FilterAll) }()

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.queries) == 1
	}, testTimeout, testTick)

	require.NoError(t, r.Load(context.Background(), admin, domain.FilterRejected))
	close(slow)
	require.NoError(t, <-done)

	assert.Equal(t, domain.FilterRejected, r.Filter())
	visible := r.Visible()
	require.Len(t, visible, 1)
	assert.Equal(t, int64(44), visible[0].ID)
}

func TestReview_UpdateStatusReloads(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	r := newReview(api, &alerts{})
	require.NoError(t, r.Load(context.Background(), growerG1, domain.FilterAll))

	require.NoError(t, r.UpdateStatus(context.Background(), growerG1, 42, domain.StatusAccepted))

	assert.Equal(t, []domain.StatusUpdate{{Status: domain.StatusAccepted}}, api.updates)
	assert.Len(t, api.queries, 2)
	app, ok := r.Application(42)
	require.True(t, ok)
	assert.Equal(t, domain.StatusAccepted, app.Status)
	assert.Empty(t, r.Actions(app))
}

func TestReview_UpdateStatusFailureAlerts(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	al := &alerts{}
	r := newReview(api, al)
	require.NoError(t, r.Load(context.Background(), growerG1, domain.FilterAll))
	api.updateErr = &backend.StatusError{StatusCode: 500}

	err := r.UpdateStatus(context.Background(), growerG1, 41, domain.StatusRejected)
	require.Error(t, err)

	assert.Equal(t, []string{AlertUpdateFailed}, al.list())
	assert.Len(t, api.queries, 1)
	app, _ := r.Application(41)
	assert.Equal(t, domain.StatusPending, app.Status)
}

func TestReview_UpdateStatusInvalidTransition(t *testing.T) {
	api := &fakeAPI{apps: sampleApps()}
	r := newReview(api, &alerts{})
	require.NoError(t, r.Load(context.Background(), admin, domain.FilterAll))

	tests := []struct {
		name string
		id   int64
		next domain.ApplicationStatus
	}{
		{name: "already accepted", id: 43, next: domain.StatusRejected},
		{name: "already rejected", id: 44, next: domain.StatusAccepted},
		{name: "back to pending", id: 41, next: domain.StatusPending},
		{name: "unknown status", id: 41, next: "archived"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := r.UpdateStatus(context.Background(), admin, tt.id, tt.next)
			assert.ErrorIs(t, err, ErrInvalidTransition)
		})
	}
	assert.Empty(t, api.updates)
}

func TestReview_Actions(t *testing.T) {
	r := newReview(&fakeAPI{}, &alerts{})

	assert.Equal(t, []domain.ApplicationStatus{domain.StatusAccepted, domain.StatusRejected},
		r.Actions(domain.Application{Status: domain.StatusPending}))
	assert.Empty(t, r.Actions(domain.Application{Status: domain.StatusAccepted}))
	assert.Empty(t, r.Actions(domain.Application{Status: domain.StatusRejected}))
}

func TestReview_OnChange(t *testing.T) {
	var calls int
	r := New(&fakeAPI{apps: sampleApps()}, &fakePlayer{}, &alerts{}, logger.NewDiscard().Logger,
		WithOnChange(func() { calls++ }))

	require.NoError(t, r.Load(context.Background(), admin, domain.FilterAll))
	assert.Equal(t, 2, calls)
}
