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
	"github.com/cuongbtq/farmhand/internal/client/jobform"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// JobsListAction prints the open jobs
func JobsListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteJobs); err != nil {
		return err
	}

	jobs, err := appCtx.Backend.ListJobs(ctx, appCtx.Session)
	if err != nil {
		return fmt.Errorf("failed to list jobs: %w", err)
	}

	if len(jobs) == 0 {
		fmt.Fprintln(stdout(cmd), "No open jobs right now.")
		return nil
	}

	return renderJobsTable(stdout(cmd), jobs)
}

// JobsPostAction creates a job from flags. Only growers and admins reach it.
func JobsPostAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteDashboard); err != nil {
		return err
	}

	form := jobform.New(nil)
	for _, field := range jobform.Fields {
		if err := form.Set(field, cmd.String(field)); err != nil {
			return err
		}
	}

	newJob, err := form.Submit()
	if err != nil {
		var verr *jobform.ValidationError
		if errors.As(err, &verr) {
			return fmt.Errorf("missing required flags: --%s", strings.Join(verr.Missing, ", --"))
		}
		return err
	}

	job, err := appCtx.Backend.CreateJob(ctx, appCtx.Session, newJob)
	if err != nil {
		appCtx.Logger().Error("Failed to create job", slog.Any("error", err))
		return fmt.Errorf("failed to post job: %w", err)
	}

	fmt.Fprintf(stdout(cmd), "Posted job %d: %s\n", job.ID, job.Title)
	return nil
}

func renderJobsTable(w io.Writer, jobs []domain.Job) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Title", "Pay", "Location", "Date", "Farm")

	for _, job := range jobs {
		table.Append(
			fmt.Sprintf("%d", job.ID),
			job.Title,
			job.Pay,
			job.Location,
			job.Date,
			job.FarmName,
		)
	}

	return table.Render()
}
