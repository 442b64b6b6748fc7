package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cuongbtq/farmhand/internal/domain"
)

type reviewLoadedMsg struct {
	err error
}

type statusUpdatedMsg struct {
	id     int64
	status domain.ApplicationStatus
	err    error
}

func (a *App) loadReview(filter domain.StatusFilter) tea.Cmd {
	r, ctx, s := a.review, a.ctx, a.session
	return func() tea.Msg {
		return reviewLoadedMsg{err: r.Load(ctx, s, filter)}
	}
}

func (a *App) handleReviewLoaded(msg reviewLoadedMsg) {
	if msg.err != nil {
		a.statusMsg = fmt.Sprintf("Could not load applications: %v", msg.err)
		return
	}
	a.statusMsg = ""
	a.clampReviewCursor()
}

func (a *App) handleStatusUpdated(msg statusUpdatedMsg) {
	if msg.err != nil {
		// the review component raises the alert itself
		return
	}
	a.statusMsg = fmt.Sprintf("Application %d %s.", msg.id, msg.status)
	a.clampReviewCursor()
}

func (a *App) clampReviewCursor() {
	n := len(a.review.Visible())
	if a.reviewCursor >= n {
		a.reviewCursor = n - 1
	}
	if a.reviewCursor < 0 {
		a.reviewCursor = 0
	}
}

func (a *App) selectedApplication() (domain.Application, bool) {
	visible := a.review.Visible()
	if a.reviewCursor < 0 || a.reviewCursor >= len(visible) {
		return domain.Application{}, false
	}
	return visible[a.reviewCursor], true
}

func (a *App) shiftFilter(delta int) tea.Cmd {
	current := a.review.Filter()
	idx := 0
	for i, f := range domain.Filters {
		if f == current {
			idx = i
		}
	}
	idx = (idx + delta + len(domain.Filters)) % len(domain.Filters)
	a.reviewCursor = 0
	return a.loadReview(domain.Filters[idx])
}

func (a *App) decide(next domain.ApplicationStatus) tea.Cmd {
	app, ok := a.selectedApplication()
	if !ok {
		return nil
	}

	allowed := false
	for _, action := range a.review.Actions(app) {
		if action == next {
			allowed = true
		}
	}
	if !allowed {
		a.statusMsg = fmt.Sprintf("Application %d is already %s.", app.ID, app.Status)
		return nil
	}

	r, ctx, s := a.review, a.ctx, a.session
	return func() tea.Msg {
		err := r.UpdateStatus(ctx, s, app.ID, next)
		return statusUpdatedMsg{id: app.ID, status: next, err: err}
	}
}

func (a *App) togglePlay() tea.Cmd {
	app, ok := a.selectedApplication()
	if !ok || !app.HasAudio() {
		a.statusMsg = "This application has no recording."
		return nil
	}

	r, ctx, url := a.review, a.ctx, *app.AudioURL
	return func() tea.Msg {
		// failures reach the user through the alert channel
		_ = r.TogglePlay(ctx, url)
		return playToggledMsg{}
	}
}

func (a *App) updateReview(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "q":
		return a.quit()
	case "esc":
		a.review.StopPlayback()
		a.screen = screenJobs
		a.statusMsg = ""
		return nil
	case "tab", "right", "l":
		return a.shiftFilter(1)
	case "shift+tab", "left", "h":
		return a.shiftFilter(-1)
	case "up", "k":
		if a.reviewCursor > 0 {
			a.reviewCursor--
		}
	case "down", "j":
		if a.reviewCursor < len(a.review.Visible())-1 {
			a.reviewCursor++
		}
	case "a":
		return a.decide(domain.StatusAccepted)
	case "x":
		return a.decide(domain.StatusRejected)
	case "p", "enter":
		return a.togglePlay()
	case "r":
		return a.loadReview(a.review.Filter())
	}
	return nil
}

func (a *App) viewTabs() string {
	counts := a.review.Counts()
	current := a.review.Filter()

	tabs := make([]string, len(domain.Filters))
	for i, f := range domain.Filters {
		label := fmt.Sprintf("%s (%d)", strings.ToUpper(string(f[:1]))+string(f[1:]), counts.For(f))
		if f == current {
			tabs[i] = activeTabStyle.Render(label)
		} else {
			tabs[i] = tabStyle.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (a *App) viewReview() string {
	var b strings.Builder
	b.WriteString(a.viewTabs())
	b.WriteString("\n\n")

	visible := a.review.Visible()
	switch {
	case a.review.Loading():
		b.WriteString("Loading applications...\n")
	case len(visible) == 0:
		b.WriteString("No applications.\n")
	}

	playing := a.review.Playing()
	for i, app := range visible {
		line := a.renderApplication(app, playing)
		if i == a.reviewCursor {
			line = selectedStyle.Render("> ") + line
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(mutedStyle.Render("tab filter · a accept · x reject · p play/stop · r reload · esc back"))
	return b.String()
}

func (a *App) renderApplication(app domain.Application, playing string) string {
	who := "Unknown worker"
	if app.WorkerName != nil && *app.WorkerName != "" {
		who = *app.WorkerName
	}
	if app.WorkerPhone != nil && *app.WorkerPhone != "" {
		who += " " + mutedStyle.Render(*app.WorkerPhone)
	}

	status := string(app.Status)
	if style, ok := statusStyles[status]; ok {
		status = style.Render(status)
	}

	parts := []string{fmt.Sprintf("#%d", app.ID), app.JobTitle, who, status}

	switch {
	case app.HasAudio() && playing == *app.AudioURL:
		parts = append(parts, selectedStyle.Render("♪ playing"))
	case app.HasAudio():
		parts = append(parts, "♪ voice")
	case app.HasNotes():
		parts = append(parts, fmt.Sprintf("%q", *app.Notes))
	default:
		parts = append(parts, mutedStyle.Render("quick apply"))
	}

	if actions := a.review.Actions(app); len(actions) > 0 {
		parts = append(parts, mutedStyle.Render("a accept · x reject"))
	}

	return strings.Join(parts, "  ")
}
