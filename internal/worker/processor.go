package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	core "github.com/cuongbtq/farmhand/internal/domain"
	"github.com/cuongbtq/farmhand/internal/worker/domain"
)

// processEvent issues a contract for accepted applications. Rejections need no
// follow-up and are acknowledged as is.
func (w *Worker) processEvent(ctx context.Context, ev core.DecisionEvent) error {
	logger := w.logger.With(
		slog.String("event_id", ev.EventID),
		slog.Int64("application_id", ev.ApplicationID),
		slog.String("status", string(ev.Status)),
	)

	switch ev.Status {
	case core.StatusRejected:
		logger.Info("Application rejected, nothing to issue")
		return nil
	case core.StatusAccepted:
	default:
		return fmt.Errorf("%w: %q", domain.ErrUnknownDecision, ev.Status)
	}

	if w.eventTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.eventTimeout)
		defer cancel()
	}

	app, err := w.store.GetDecidedApplication(ctx, ev.ApplicationID)
	if err != nil {
		if errors.Is(err, domain.ErrApplicationNotFound) {
			return err
		}
		return domain.NewRetryableError(err)
	}

	// Events are published inside the deciding transaction and can arrive
	// before its commit is visible.
	if app.Status == core.StatusPending {
		return domain.NewRetryableError(fmt.Errorf("%w: decision not committed yet", domain.ErrNotAccepted))
	}
	if app.Status != core.StatusAccepted {
		return fmt.Errorf("%w: stored status is %q", domain.ErrNotAccepted, app.Status)
	}

	contract := core.Contract{
		ID:            w.newID(),
		ApplicationID: app.ApplicationID,
		JobID:         app.JobID,
		JobTitle:      app.JobTitle,
		Pay:           app.Pay,
		StartDate:     app.StartDate,
		WorkerID:      app.WorkerID,
		GrowerID:      app.GrowerID,
		Status:        core.ContractStatusIssued,
	}
	if app.FarmName != nil {
		contract.FarmName = *app.FarmName
	}

	created, err := w.store.IssueContract(ctx, contract, ev.EventID)
	if err != nil {
		return domain.NewRetryableError(err)
	}

	if created {
		logger.Info("Contract issued", slog.String("contract_id", contract.ID))
	} else {
		logger.Info("Contract already exists, acknowledging duplicate event")
	}

	return nil
}
