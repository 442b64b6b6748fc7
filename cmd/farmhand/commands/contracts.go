package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/client/contractdoc"
	"github.com/cuongbtq/farmhand/internal/client/guard"
	"github.com/cuongbtq/farmhand/internal/domain"
)

// ContractsListAction prints the contracts issued to the signed-in worker
func ContractsListAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteMyContracts); err != nil {
		return err
	}

	contracts, err := appCtx.Backend.ListContracts(ctx, appCtx.Session)
	if err != nil {
		return fmt.Errorf("failed to list contracts: %w", err)
	}

	if len(contracts) == 0 {
		fmt.Fprintln(stdout(cmd), "No contracts yet.")
		return nil
	}

	return renderContractsTable(stdout(cmd), contracts)
}

func renderContractsTable(w io.Writer, contracts []domain.Contract) error {
	table := tablewriter.NewWriter(w)
	table.Header("Application", "Job", "Pay", "Start", "Farm", "Status", "Issued")

	for _, c := range contracts {
		table.Append(
			fmt.Sprintf("%d", c.ApplicationID),
			c.JobTitle,
			c.Pay,
			c.StartDate,
			c.FarmName,
			c.Status,
			c.CreatedAt.Format("2006-01-02 15:04"),
		)
	}

	return table.Render()
}

// ContractsDownloadAction writes the contract for one application as a PDF
func ContractsDownloadAction(ctx context.Context, cmd *cli.Command) error {
	appID := int64(cmd.Int("application"))
	if appID <= 0 {
		return fmt.Errorf("--application must be a positive application id")
	}

	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Require(guard.RouteMyContracts); err != nil {
		return err
	}

	contracts, err := appCtx.Backend.ListContracts(ctx, appCtx.Session)
	if err != nil {
		return fmt.Errorf("failed to list contracts: %w", err)
	}

	var (
		contract domain.Contract
		found    bool
	)
	for _, c := range contracts {
		if c.ApplicationID == appID {
			contract, found = c, true
			break
		}
	}
	if !found {
		return fmt.Errorf("no contract for application %d", appID)
	}

	doc := contractdoc.Document{Contract: contract}
	if contract.WorkerID == appCtx.Session.UserID {
		user, uerr := appCtx.Auth.User(ctx, appCtx.Session.AccessToken)
		if uerr != nil {
			appCtx.Logger().Warn("Failed to load worker profile for contract",
				slog.String("contract_id", contract.ID),
				slog.Any("error", uerr),
			)
		} else {
			doc.WorkerName = user.Name
			doc.WorkerPhone = user.Phone
		}
	}

	path := cmd.String("out")
	if path == "" {
		path = fmt.Sprintf("contract-%d.pdf", appID)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := contractdoc.Write(f, doc); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(stdout(cmd), "Saved contract %s to %s.\n", contract.ID, path)
	return nil
}
