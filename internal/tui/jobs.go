package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cuongbtq/farmhand/internal/client/apply"
	"github.com/cuongbtq/farmhand/internal/client/guard"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// jobItem implements list.Item for a job
type jobItem struct {
	job domain.Job
}

func (i jobItem) Title() string { return i.job.Title }

func (i jobItem) Description() string {
	parts := []string{i.job.Pay, i.job.Location, i.job.Date}
	if i.job.FarmName != "" {
		parts = append(parts, i.job.FarmName)
	}
	return strings.Join(parts, " · ")
}

func (i jobItem) FilterValue() string { return i.job.Title }

type jobsLoadedMsg struct {
	jobs []domain.Job
	err  error
}

type recordedMsg struct {
	audio []byte
	err   error
}

type appliedMsg struct {
	jobID int64
	err   error
}

// composer is the single-line input shared by the voice and text screens
type composer struct {
	input textinput.Model
}

func newComposer() composer {
	input := textinput.New()
	input.CharLimit = 500
	input.Width = 60
	return composer{input: input}
}

func (c *composer) reset(placeholder string) tea.Cmd {
	c.input.SetValue("")
	c.input.Placeholder = placeholder
	return c.input.Focus()
}

func (a *App) refreshJobs() tea.Cmd {
	listing, ctx, s := a.listing, a.ctx, a.session
	return func() tea.Msg {
		if err := listing.Refresh(ctx, s); err != nil {
			return jobsLoadedMsg{err: err}
		}
		return jobsLoadedMsg{jobs: listing.Jobs()}
	}
}

func (a *App) handleJobsLoaded(msg jobsLoadedMsg) tea.Cmd {
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Could not load jobs: %v", msg.err)
		return nil
	}

	items := make([]list.Item, len(msg.jobs))
	for i, job := range msg.jobs {
		items[i] = jobItem{job: job}
	}
	return a.jobs.SetItems(items)
}

func (a *App) selectedJob() (domain.Job, bool) {
	item, ok := a.jobs.SelectedItem().(jobItem)
	if !ok {
		return domain.Job{}, false
	}
	return item.job, true
}

// beginSubmission starts a submission for the highlighted job
func (a *App) beginSubmission() bool {
	job, ok := a.selectedJob()
	if !ok {
		a.statusMsg = "No job selected."
		return false
	}
	if a.submission == nil || a.submission.JobID() != job.ID {
		a.submission = apply.NewSubmission(job.ID, a.capture)
	}
	return true
}

// capture is the Submission's SubmitFunc. The upload and POST run as a
// command so the update loop never blocks on the network.
func (a *App) capture(jobID int64, audio []byte, notes *string) {
	a.pending = &pendingApplication{jobID: jobID, audio: audio, notes: notes}
}

func (a *App) flushPending() tea.Cmd {
	p := a.pending
	if p == nil {
		return nil
	}
	a.pending = nil
	a.statusMsg = "Sending application..."

	listing, ctx, s := a.listing, a.ctx, a.session
	return func() tea.Msg {
		if _, err := listing.Apply(ctx, s, p.jobID, p.audio, p.notes); err != nil {
			return appliedMsg{jobID: p.jobID, err: err}
		}
		return appliedMsg{jobID: p.jobID}
	}
}

func (a *App) handleApplied(msg appliedMsg) tea.Cmd {
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Application failed: %v", msg.err)
		return nil
	}

	title := fmt.Sprintf("job %d", msg.jobID)
	if job, ok := a.listing.Job(msg.jobID); ok {
		title = job.Title
	}
	a.statusMsg = fmt.Sprintf("Application sent for %s.", title)
	return a.refreshJobs()
}

func (a *App) updateJobs(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return a.quit()
	case "r":
		a.statusMsg = "Refreshing jobs..."
		return a.refreshJobs()
	case "a":
		if !a.beginSubmission() {
			return nil
		}
		if err := a.submission.QuickApply(); err != nil {
			a.statusMsg = err.Error()
			return nil
		}
		return a.flushPending()
	case "t":
		if !a.beginSubmission() {
			return nil
		}
		if err := a.submission.StartText(); err != nil {
			a.statusMsg = err.Error()
			return nil
		}
		a.screen = screenCompose
		a.statusMsg = ""
		return a.composer.reset("Tell the grower about your experience")
	case "v":
		if !a.beginSubmission() {
			return nil
		}
		if err := a.submission.StartVoice(); err != nil {
			a.statusMsg = err.Error()
			return nil
		}
		a.screen = screenVoice
		a.statusMsg = ""
		return a.composer.reset("path/to/recording.webm")
	case "n":
		if !a.open(guard.RouteDashboard) {
			return nil
		}
		a.screen = screenPostJob
		a.statusMsg = ""
		return a.formView.focus(0)
	case "d":
		if !a.open(guard.RouteApplication) {
			return nil
		}
		a.screen = screenReview
		a.reviewCursor = 0
		a.statusMsg = ""
		return a.loadReview(a.review.Filter())
	}

	var cmd tea.Cmd
	a.jobs, cmd = a.jobs.Update(msg)
	return cmd
}

func (a *App) updateVoice(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.submission.Cancel()
		a.screen = screenJobs
		a.statusMsg = "Recording canceled."
		return nil
	case "enter":
		path := strings.TrimSpace(a.composer.input.Value())
		ctx := a.ctx
		return func() tea.Msg {
			audio, err := apply.FileRecorder{Path: path}.Record(ctx)
			return recordedMsg{audio: audio, err: err}
		}
	}

	var cmd tea.Cmd
	a.composer.input, cmd = a.composer.input.Update(msg)
	return cmd
}

func (a *App) handleRecorded(msg recordedMsg) tea.Cmd {
	if a.submission == nil || a.submission.Mode() != apply.ModeRecordingVoice {
		return nil
	}

	a.screen = screenJobs
	switch {
	case errors.Is(msg.err, apply.ErrRecordingCanceled):
		a.submission.Cancel()
		a.statusMsg = "Recording canceled."
		return nil
	case msg.err != nil:
		a.submission.Cancel()
		a.statusMsg = fmt.Sprintf("Recording failed: %v", msg.err)
		return nil
	}

	if err := a.submission.CompleteRecording(msg.audio); err != nil {
		a.statusMsg = err.Error()
		return nil
	}
	return a.flushPending()
}

func (a *App) updateCompose(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.submission.Cancel()
		a.screen = screenJobs
		a.statusMsg = ""
		return nil
	case "enter":
		if !a.submission.CanSubmitText() {
			a.statusMsg = "Write a note before sending."
			return nil
		}
		if err := a.submission.SubmitText(); err != nil {
			a.statusMsg = err.Error()
			return nil
		}
		a.screen = screenJobs
		return a.flushPending()
	}

	var cmd tea.Cmd
	a.composer.input, cmd = a.composer.input.Update(msg)
	_ = a.submission.SetText(a.composer.input.Value())
	return cmd
}

func (a *App) viewJobs() string {
	help := "↑/↓ select · a quick apply · t text · v voice · r refresh · q quit"
	if guard.Check(a.session, guard.RouteDashboard).Allowed() {
		help = "↑/↓ select · n post job · d applications · r refresh · q quit"
	}
	if len(a.jobs.Items()) == 0 {
		return "No open jobs right now.\n\n" + mutedStyle.Render(help)
	}
	return a.jobs.View() + "\n" + mutedStyle.Render(help)
}

func (a *App) jobHeading() string {
	if a.submission == nil {
		return ""
	}
	if job, ok := a.listing.Job(a.submission.JobID()); ok {
		return job.Title
	}
	return fmt.Sprintf("Job %d", a.submission.JobID())
}

func (a *App) viewVoice() string {
	return fmt.Sprintf("Voice application · %s\n\nAudio file:\n%s\n\n%s",
		selectedStyle.Render(a.jobHeading()),
		a.composer.input.View(),
		mutedStyle.Render("enter send · esc cancel"),
	)
}

func (a *App) viewCompose() string {
	hint := "enter send · esc cancel"
	if !a.submission.CanSubmitText() {
		hint = "write a note to enable sending · esc cancel"
	}
	return fmt.Sprintf("Text application · %s\n\n%s\n\n%s",
		selectedStyle.Render(a.jobHeading()),
		a.composer.input.View(),
		mutedStyle.Render(hint),
	)
}
