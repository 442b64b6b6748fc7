package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/client/apply"
	"github.com/cuongbtq/farmhand/internal/client/guard"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// ApplyAction applies to a job by voice (--audio), text (--text) or, with
// neither, quick-apply.
func ApplyAction(ctx context.Context, cmd *cli.Command) error {
	jobID := int64(cmd.Int("job"))
	audioPath := cmd.String("audio")
	text := cmd.String("text")

	if jobID <= 0 {
		return errors.New("--job must be a positive job id")
	}
	if audioPath != "" && cmd.IsSet("text") {
		return errors.New("--audio and --text cannot be combined")
	}

	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteJobs); err != nil {
		return err
	}

	bucket := appCtx.Config.Client.StorageBucket
	listing := apply.NewListing(appCtx.Backend, appCtx.Storage, bucket, appCtx.Logger())

	var (
		app    domain.Application
		sent   bool
		sendFn = func(id int64, audio []byte, notes *string) {
			sent = true
			app, err = listing.Apply(ctx, appCtx.Session, id, audio, notes)
		}
	)
	sub := apply.NewSubmission(jobID, sendFn)

	switch {
	case audioPath != "":
		if rerr := sub.Record(ctx, apply.FileRecorder{Path: audioPath}); rerr != nil {
			return rerr
		}
	case cmd.IsSet("text"):
		if serr := sub.StartText(); serr != nil {
			return serr
		}
		if serr := sub.SetText(text); serr != nil {
			return serr
		}
		if serr := sub.SubmitText(); serr != nil {
			return fmt.Errorf("--text: %w", serr)
		}
	default:
		if serr := sub.QuickApply(); serr != nil {
			return serr
		}
	}

	if !sent {
		fmt.Fprintln(stdout(cmd), "Nothing sent.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("application failed: %w", err)
	}

	kind := "quick application"
	switch {
	case app.HasAudio():
		kind = "voice application"
	case app.HasNotes():
		kind = "text application"
	}
	fmt.Fprintf(stdout(cmd), "Sent %s %d for job %d (%s).\n", kind, app.ID, jobID, app.Status)
	return nil
}
