// Package tui is the interactive terminal front-end of the marketplace client.
// Workers browse jobs and apply by voice, text or quick-apply; growers and
// admins post jobs and review the applications they receive.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cuongbtq/farmhand/internal/client/apply"
	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/client/guard"
	"github.com/cuongbtq/farmhand/internal/client/jobform"
	"github.com/cuongbtq/farmhand/internal/client/playback"
	"github.com/cuongbtq/farmhand/internal/client/review"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// screen is the view currently shown
type screen int

const (
	screenNotice screen = iota
	screenJobs
	screenVoice
	screenCompose
	screenPostJob
	screenReview
)

// JobCreator posts new jobs
type JobCreator interface {
	CreateJob(ctx context.Context, s auth.Session, job domain.NewJob) (domain.Job, error)
}

// Services are the client components the UI drives
type Services struct {
	Session   auth.Session
	Listing   *apply.Listing
	Jobs      JobCreator
	ReviewAPI review.API
	Player    playback.Player
	Logger    *slog.Logger
}

// App is the root bubbletea model
type App struct {
	ctx     context.Context
	session auth.Session
	logger  *slog.Logger

	listing *apply.Listing
	creator JobCreator
	review  *review.Review

	// events carries alerts and playback changes raised off the update loop
	events chan tea.Msg

	screen    screen
	notice    string
	statusMsg string
	alert     string

	jobs       list.Model
	submission *apply.Submission
	pending    *pendingApplication
	composer   composer

	form     *jobform.Form
	formView formView
	created  *domain.NewJob

	reviewCursor int

	width  int
	height int
}

type pendingApplication struct {
	jobID int64
	audio []byte
	notes *string
}

// NewApp builds the UI for the session. Sessions the route guard rejects
// for the job board get a notice screen instead.
func NewApp(ctx context.Context, svc Services) *App {
	logger := svc.Logger
	if logger == nil {
		logger = slog.Default()
	}

	jobs := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	jobs.Title = "Open jobs"
	jobs.SetShowStatusBar(false)
	jobs.SetFilteringEnabled(false)
	jobs.SetShowHelp(false)

	a := &App{
		ctx:      ctx,
		session:  svc.Session,
		logger:   logger,
		listing:  svc.Listing,
		creator:  svc.Jobs,
		events:   make(chan tea.Msg, 16),
		screen:   screenJobs,
		jobs:     jobs,
		composer: newComposer(),
		formView: newFormView(),
	}
	a.form = jobform.New(func(job domain.NewJob) { a.created = &job })
	a.review = review.New(svc.ReviewAPI, svc.Player, review.AlertFunc(a.pushAlert), logger,
		review.WithOnChange(a.notifyChanged))

	if d := guard.Check(a.session, guard.RouteJobs); !d.Allowed() {
		a.screen = screenNotice
		a.notice = noticeFor(d)
	}

	return a
}

type alertMsg string

type reviewChangedMsg struct{}

// playToggledMsg ends a play toggle. Unlike reviewChangedMsg it does not come
// from the events channel, so it must not re-arm listen.
type playToggledMsg struct{}

func (a *App) pushAlert(msg string) {
	select {
	case a.events <- alertMsg(msg):
	default:
		a.logger.Warn("Dropping alert, event queue full", slog.String("alert", msg))
	}
}

func (a *App) notifyChanged() {
	select {
	case a.events <- reviewChangedMsg{}:
	default:
	}
}

// listen waits for the next event raised outside the update loop
func (a *App) listen() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-a.events:
			return msg
		case <-a.ctx.Done():
			return nil
		}
	}
}

func noticeFor(d guard.Decision) string {
	switch d.Outcome {
	case guard.OutcomeUnconfigured:
		return "Supabase is not configured. Set SUPABASE_URL and SUPABASE_ANON_KEY, then restart."
	case guard.OutcomeRedirect:
		if d.Target == guard.RouteLogin {
			return fmt.Sprintf("Sign in with `farmhand auth login` to open %s.", d.From)
		}
		return fmt.Sprintf("Your role cannot open this page. Try %s.", d.Target)
	default:
		return ""
	}
}

// Init is called once when the program starts
func (a *App) Init() tea.Cmd {
	if a.screen == screenNotice {
		return nil
	}
	return tea.Batch(a.listen(), a.refreshJobs())
}

// Update routes messages to the active screen
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.jobs.SetSize(max(20, msg.Width-6), max(5, msg.Height-10))
		return a, nil

	case alertMsg:
		a.alert = string(msg)
		return a, a.listen()

	case reviewChangedMsg:
		a.clampReviewCursor()
		return a, a.listen()

	case playToggledMsg:
		a.clampReviewCursor()
		return a, nil

	case jobsLoadedMsg:
		return a, a.handleJobsLoaded(msg)

	case recordedMsg:
		return a, a.handleRecorded(msg)

	case appliedMsg:
		return a, a.handleApplied(msg)

	case jobCreatedMsg:
		return a, a.handleJobCreated(msg)

	case reviewLoadedMsg:
		a.handleReviewLoaded(msg)
		return a, nil

	case statusUpdatedMsg:
		a.handleStatusUpdated(msg)
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, a.quit()
		}
		a.alert = ""

		switch a.screen {
		case screenNotice:
			if msg.String() == "q" || msg.String() == "esc" || msg.String() == "enter" {
				return a, a.quit()
			}
			return a, nil
		case screenJobs:
			return a, a.updateJobs(msg)
		case screenVoice:
			return a, a.updateVoice(msg)
		case screenCompose:
			return a, a.updateCompose(msg)
		case screenPostJob:
			return a, a.updatePostJob(msg)
		case screenReview:
			return a, a.updateReview(msg)
		}
	}

	return a, nil
}

func (a *App) quit() tea.Cmd {
	if a.review.Playing() != "" {
		a.review.StopPlayback()
	}
	return tea.Quit
}

// open switches to a protected screen when the guard allows it
func (a *App) open(route string) bool {
	d := guard.Check(a.session, route)
	if !d.Allowed() {
		a.statusMsg = noticeFor(d)
		return false
	}
	return true
}

// View renders the active screen
func (a *App) View() string {
	var content string
	switch a.screen {
	case screenNotice:
		content = alertStyle.Render(a.notice) + "\n\n" + mutedStyle.Render("Press q to quit.")
	case screenJobs:
		content = a.viewJobs()
	case screenVoice:
		content = a.viewVoice()
	case screenCompose:
		content = a.viewCompose()
	case screenPostJob:
		content = a.viewPostJob()
	case screenReview:
		content = a.viewReview()
	}

	sections := []string{headerStyle.Render(a.title()), boxStyle.Render(content)}
	if a.alert != "" {
		sections = append(sections, alertStyle.Render("! "+a.alert))
	}
	if a.statusMsg != "" {
		sections = append(sections, footerStyle.Render(a.statusMsg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) title() string {
	parts := []string{"FARMHAND"}
	if a.session.SignedIn() {
		who := a.session.Email
		if who == "" {
			who = a.session.UserID
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", who, a.session.Role))
	}
	return strings.Join(parts, " · ")
}
