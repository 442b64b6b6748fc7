package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/client/guard"
	"github.com/cuongbtq/farmhand/internal/client/review"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// newReview returns a review that prints alerts to stderr
func newReview(cmd *cli.Command, appCtx *AppContext) *review.Review {
	alerts := stderr(cmd)
	return review.New(appCtx.Backend, appCtx.Player, review.AlertFunc(func(msg string) {
		fmt.Fprintln(alerts, msg)
	}), appCtx.Logger())
}

// ApplicationsListAction prints applications for the selected status tab
func ApplicationsListAction(ctx context.Context, cmd *cli.Command) error {
	filter, ok := domain.ParseStatusFilter(cmd.String("status"))
	if !ok {
		return fmt.Errorf("unknown status %q: use all, pending, accepted or rejected", cmd.String("status"))
	}

	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteApplication); err != nil {
		return err
	}

	r := newReview(cmd, appCtx)
	if err := r.Load(ctx, appCtx.Session, filter); err != nil {
		return fmt.Errorf("failed to load applications: %w", err)
	}

	out := stdout(cmd)
	fmt.Fprintln(out, renderTabs(r.Counts(), filter))

	visible := r.Visible()
	if len(visible) == 0 {
		fmt.Fprintln(out, "No applications.")
		return nil
	}

	return renderApplicationsTable(out, visible)
}

// ApplicationsDecideAction returns the action behind accept or reject
func ApplicationsDecideAction(next domain.ApplicationStatus) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := int64(cmd.Int("id"))
		if id <= 0 {
			return errors.New("--id must be a positive application id")
		}

		appCtx, err := openApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer appCtx.Close()

		if err := appCtx.Require(guard.RouteApplication); err != nil {
			return err
		}

		r := newReview(cmd, appCtx)
		if err := r.Load(ctx, appCtx.Session, domain.FilterAll); err != nil {
			return fmt.Errorf("failed to load applications: %w", err)
		}

		app, found := r.Application(id)
		if !found {
			return fmt.Errorf("application %d not found among your applications", id)
		}

		if err := r.UpdateStatus(ctx, appCtx.Session, id, next); err != nil {
			if errors.Is(err, review.ErrInvalidTransition) {
				return fmt.Errorf("application %d is already %s", id, app.Status)
			}
			return err
		}

		fmt.Fprintf(stdout(cmd), "Application %d %s.\n", id, next)
		return nil
	}
}

// ApplicationsPlayAction plays a voice application until it ends or the
// command is interrupted.
func ApplicationsPlayAction(ctx context.Context, cmd *cli.Command) error {
	id := int64(cmd.Int("id"))
	url := cmd.String("url")
	if id <= 0 && url == "" {
		return errors.New("either --id or --url is required")
	}

	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteApplication); err != nil {
		return err
	}

	if url == "" {
		r := newReview(cmd, appCtx)
		if err := r.Load(ctx, appCtx.Session, domain.FilterAll); err != nil {
			return fmt.Errorf("failed to load applications: %w", err)
		}
		app, found := r.Application(id)
		if !found {
			return fmt.Errorf("application %d not found among your applications", id)
		}
		if !app.HasAudio() {
			return fmt.Errorf("application %d has no recording", id)
		}
		url = *app.AudioURL
	}

	pb, err := appCtx.Player.Play(ctx, url)
	if err != nil {
		fmt.Fprintln(stderr(cmd), review.AlertPlaybackFailed)
		return err
	}

	fmt.Fprintf(stdout(cmd), "Playing %s (Ctrl+C to stop)\n", url)

	select {
	case err := <-pb.Done():
		if err != nil {
			fmt.Fprintln(stderr(cmd), review.AlertPlaybackFailed)
			return err
		}
	case <-ctx.Done():
		pb.Stop()
		<-pb.Done()
		appCtx.Logger().Info("Playback stopped", slog.String("url", url))
	}

	return nil
}

func renderTabs(c review.Counts, current domain.StatusFilter) string {
	tabs := make([]string, len(domain.Filters))
	for i, f := range domain.Filters {
		label := fmt.Sprintf("%s (%d)", f, c.For(f))
		if f == current {
			label = "[" + label + "]"
		}
		tabs[i] = label
	}
	return strings.Join(tabs, "  ")
}

func renderApplicationsTable(w io.Writer, apps []domain.Application) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Job", "Worker", "Phone", "Status", "Application")

	for _, app := range apps {
		table.Append(
			fmt.Sprintf("%d", app.ID),
			app.JobTitle,
			deref(app.WorkerName, "Unknown worker"),
			deref(app.WorkerPhone, ""),
			string(app.Status),
			describeApplication(app),
		)
	}

	return table.Render()
}

func describeApplication(app domain.Application) string {
	switch {
	case app.HasAudio():
		return "voice: " + *app.AudioURL
	case app.HasNotes():
		return *app.Notes
	default:
		return "quick apply"
	}
}

func deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
