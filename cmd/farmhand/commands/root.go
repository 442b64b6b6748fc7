package commands

import (
	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/domain"
)

// Root builds the farmhand command tree
func Root() *cli.Command {
	return &cli.Command{
		Name:  "farmhand",
		Usage: "Find farm work, apply by voice or text, and review applicants",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to the client config file",
				Value:   DefaultConfigPath,
				Sources: cli.EnvVars("FARMHAND_CONFIG"),
			},
			&cli.StringFlag{
				Name:  "env",
				Usage: "path to an env file",
				Value: ".env",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Manage the signed-in session",
				Commands: []*cli.Command{
					{
						Name:  "login",
						Usage: "Sign in with email and password",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "email",
								Usage:    "account email",
								Required: true,
							},
							&cli.StringFlag{
								Name:    "password",
								Usage:   "account password, prompted when omitted",
								Sources: cli.EnvVars("FARMHAND_PASSWORD"),
							},
						},
						Action: AuthLoginAction,
					},
					{
						Name:   "logout",
						Usage:  "Forget the stored session",
						Action: AuthLogoutAction,
					},
					{
						Name:  "whoami",
						Usage: "Show the signed-in user",
						Flags: []cli.Flag{
							&cli.BoolFlag{
								Name:  "verify",
								Usage: "check the access token with the provider",
							},
						},
						Action: AuthWhoamiAction,
					},
				},
			},
			{
				Name:  "jobs",
				Usage: "Browse and post jobs",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List open jobs",
						Action: JobsListAction,
					},
					{
						Name:  "post",
						Usage: "Post a job (growers and admins)",
						Flags: []cli.Flag{
							&cli.StringFlag{Name: "title", Usage: "job title"},
							&cli.StringFlag{Name: "pay", Usage: "pay, free text such as $18/hr"},
							&cli.StringFlag{Name: "location", Usage: "where the work is"},
							&cli.StringFlag{Name: "date", Usage: "start date, free text"},
							&cli.StringFlag{Name: "description", Usage: "optional details"},
						},
						Action: JobsPostAction,
					},
				},
			},
			{
				Name:  "apply",
				Usage: "Apply to a job by voice, text or quick-apply",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:     "job",
						Usage:    "job id",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "audio",
						Usage: "recorded audio file for a voice application",
					},
					&cli.StringFlag{
						Name:  "text",
						Usage: "note for a text application",
					},
				},
				Action: ApplyAction,
			},
			{
				Name:  "applications",
				Usage: "Review applications to your jobs (growers and admins)",
				Commands: []*cli.Command{
					{
						Name:  "list",
						Usage: "List applications by status",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:  "status",
								Usage: "all, pending, accepted or rejected",
								Value: string(domain.FilterAll),
							},
						},
						Action: ApplicationsListAction,
					},
					{
						Name:  "accept",
						Usage: "Accept a pending application",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "id", Usage: "application id", Required: true},
						},
						Action: ApplicationsDecideAction(domain.StatusAccepted),
					},
					{
						Name:  "reject",
						Usage: "Reject a pending application",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "id", Usage: "application id", Required: true},
						},
						Action: ApplicationsDecideAction(domain.StatusRejected),
					},
					{
						Name:  "play",
						Usage: "Play a voice application",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "id", Usage: "application id"},
							&cli.StringFlag{Name: "url", Usage: "recording url"},
						},
						Action: ApplicationsPlayAction,
					},
				},
			},
			{
				Name:  "contracts",
				Usage: "Contracts issued for accepted applications",
				Commands: []*cli.Command{
					{
						Name:   "list",
						Usage:  "List your contracts (workers and admins)",
						Action: ContractsListAction,
					},
					{
						Name:  "download",
						Usage: "Save the contract for an application as a PDF",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "application", Usage: "application id", Required: true},
							&cli.StringFlag{Name: "out", Usage: "output file, contract-<application>.pdf by default"},
						},
						Action: ContractsDownloadAction,
					},
				},
			},
			{
				Name:   "tui",
				Usage:  "Open the interactive terminal client",
				Action: TUIAction,
			},
		},
	}
}
