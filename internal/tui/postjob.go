package tui

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/cuongbtq/farmhand/internal/client/jobform"
	"github.com/cuongbtq/farmhand/internal/domain"
)

var fieldLabels = map[string]string{
	jobform.FieldTitle:       "Title",
	jobform.FieldPay:         "Pay",
	jobform.FieldLocation:    "Location",
	jobform.FieldDate:        "Date",
	jobform.FieldDescription: "Description (optional)",
}

var fieldPlaceholders = map[string]string{
	jobform.FieldTitle:       "Strawberry picking",
	jobform.FieldPay:         "$18/hr",
	jobform.FieldLocation:    "Watsonville, CA",
	jobform.FieldDate:        "2026-06-01",
	jobform.FieldDescription: "Bring gloves and a hat",
}

type jobCreatedMsg struct {
	job domain.Job
	err error
}

// formView holds one input per job form field
type formView struct {
	inputs []textinput.Model
	active int
}

func newFormView() formView {
	inputs := make([]textinput.Model, len(jobform.Fields))
	for i, field := range jobform.Fields {
		in := textinput.New()
		in.Placeholder = fieldPlaceholders[field]
		in.CharLimit = 200
		in.Width = 50
		inputs[i] = in
	}
	return formView{inputs: inputs}
}

func (f *formView) focus(i int) tea.Cmd {
	if i < 0 {
		i = len(f.inputs) - 1
	}
	if i >= len(f.inputs) {
		i = 0
	}
	f.active = i

	var cmd tea.Cmd
	for j := range f.inputs {
		if j == i {
			cmd = f.inputs[j].Focus()
			continue
		}
		f.inputs[j].Blur()
	}
	return cmd
}

func (f *formView) clear() {
	for i := range f.inputs {
		f.inputs[i].SetValue("")
	}
}

func (a *App) updatePostJob(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.form.Reset()
		a.formView.clear()
		a.screen = screenJobs
		a.statusMsg = ""
		return nil
	case "tab", "down":
		return a.formView.focus(a.formView.active + 1)
	case "shift+tab", "up":
		return a.formView.focus(a.formView.active - 1)
	case "enter":
		if a.formView.active < len(a.formView.inputs)-1 {
			return a.formView.focus(a.formView.active + 1)
		}
		return a.submitJob()
	case "ctrl+s":
		return a.submitJob()
	}

	var cmd tea.Cmd
	i := a.formView.active
	a.formView.inputs[i], cmd = a.formView.inputs[i].Update(msg)
	_ = a.form.Set(jobform.Fields[i], a.formView.inputs[i].Value())
	return cmd
}

// submitJob hands the form to the backend once every required field is set
func (a *App) submitJob() tea.Cmd {
	a.created = nil
	if _, err := a.form.Submit(); err != nil {
		var verr *jobform.ValidationError
		if errors.As(err, &verr) {
			a.statusMsg = fmt.Sprintf("Fill in: %s", strings.Join(verr.Missing, ", "))
			return nil
		}
		a.statusMsg = err.Error()
		return nil
	}
	if a.created == nil {
		return nil
	}

	job := *a.created
	a.created = nil
	a.formView.clear()
	a.statusMsg = "Posting job..."

	a.formView.focus(0)

	creator, ctx, s := a.creator, a.ctx, a.session
	return func() tea.Msg {
		created, err := creator.CreateJob(ctx, s, job)
		return jobCreatedMsg{job: created, err: err}
	}
}

func (a *App) handleJobCreated(msg jobCreatedMsg) tea.Cmd {
	if msg.err != nil {
		a.logger.Error("Failed to create job", slog.Any("error", msg.err))
		a.statusMsg = fmt.Sprintf("Could not post job: %v", msg.err)
		return nil
	}
	a.statusMsg = fmt.Sprintf("Posted %q.", msg.job.Title)
	return a.refreshJobs()
}

func (a *App) viewPostJob() string {
	var b strings.Builder
	b.WriteString("Post a job\n\n")
	for i, field := range jobform.Fields {
		label := fieldLabels[field]
		if i == a.formView.active {
			label = selectedStyle.Render(label)
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", label, a.formView.inputs[i].View())
	}
	b.WriteString(mutedStyle.Render("tab next · enter on last field or ctrl+s submit · esc cancel"))
	return b.String()
}
