package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/client/auth"
	"github.com/cuongbtq/farmhand/internal/client/backend"
	"github.com/cuongbtq/farmhand/internal/client/guard"
	"github.com/cuongbtq/farmhand/internal/client/playback"
	"github.com/cuongbtq/farmhand/internal/client/storage"
	"github.com/cuongbtq/farmhand/internal/config"
	"github.com/cuongbtq/farmhand/shared/logger"
)

// DefaultConfigPath is read when --config is not given. A missing file at
// this path is not an error.
const DefaultConfigPath = "configs/farmhand/config.yaml"

var (
	// ErrUnconfigured is returned for protected commands when Supabase credentials are missing
	ErrUnconfigured = errors.New("supabase is not configured: set SUPABASE_URL and SUPABASE_ANON_KEY")
	// ErrSignInRequired is returned for protected commands without a session
	ErrSignInRequired = errors.New("not signed in")
)

// AppContext holds what every command needs: config, logger, the signed-in
// session and the client components built from them.
type AppContext struct {
	Config  *config.Config
	Session auth.Session

	Auth    *auth.SupabaseProvider
	Backend *backend.Client
	Storage *storage.SupabaseStorage
	Player  *playback.CommandPlayer

	logger *logger.Logger
}

// NewAppContext loads the env file and config, then resolves the stored session
func NewAppContext(ctx context.Context, configPath, envFile string) (*AppContext, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	if err := cfg.ValidateClientConfig(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	apiURL, err := cfg.ResolveAPIURL()
	if err != nil {
		return nil, err
	}

	level := cfg.Logging.Level
	if level == "" {
		level = "warn"
	}
	output := cfg.Logging.Output
	if output == "" {
		output = "stderr"
	}
	appLogger, err := logger.New(&logger.Config{
		Level:        level,
		Format:       cfg.Logging.Format,
		Output:       output,
		EnableSource: cfg.Logging.EnableCaller,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	sessionPath := cfg.Client.SessionFile
	if sessionPath == "" {
		if sessionPath, err = auth.DefaultSessionPath(); err != nil {
			_ = appLogger.Close()
			return nil, err
		}
	}

	provider := auth.NewSupabaseProvider(cfg.Auth, &auth.FileStore{Path: sessionPath}, appLogger.Logger)
	session, err := provider.Session(ctx)
	if err != nil {
		_ = appLogger.Close()
		return nil, fmt.Errorf("failed to resolve session: %w", err)
	}

	if session.SignedIn() {
		appLogger = appLogger.WithAttrs(
			slog.String("user_id", session.UserID),
			slog.String("role", string(session.Role)),
		)
	}

	appLogger.Debug("Client initialized",
		slog.String("api_url", apiURL),
		slog.Bool("configured", session.Configured()),
		slog.Bool("signed_in", session.SignedIn()),
	)

	return &AppContext{
		Config:  cfg,
		Session: session,
		Auth:    provider,
		Backend: backend.New(apiURL, cfg.Client.RequestTimeout, appLogger.Logger),
		Storage: storage.NewSupabaseStorage(cfg.Auth, appLogger.Logger),
		Player:  playback.NewCommandPlayer(cfg.Client.PlayerCommand, appLogger.Logger),
		logger:  appLogger,
	}, nil
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = DefaultConfigPath
	}

	cfg, err := config.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultConfigPath {
		return &config.Config{}, nil
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// Close releases the log file, if any
func (ac *AppContext) Close() {
	if ac.logger != nil {
		_ = ac.logger.Close()
	}
}

// Logger returns the client logger
func (ac *AppContext) Logger() *slog.Logger {
	if ac.logger != nil {
		return ac.logger.Logger
	}
	return slog.Default()
}

// Require runs the route guard for route and turns a refusal into an error
// the user can act on.
func (ac *AppContext) Require(route string) error {
	d := guard.Check(ac.Session, route)
	switch {
	case d.Allowed():
		return nil
	case d.Outcome == guard.OutcomeUnconfigured:
		return ErrUnconfigured
	case d.Target == guard.RouteLogin:
		return fmt.Errorf("%w (redirected to %s): run `farmhand auth login`", ErrSignInRequired, d.LoginURL())
	default:
		return fmt.Errorf("role %q cannot open %s, try %s", ac.Session.Role, route, d.Target)
	}
}

// openApp builds the AppContext from the global flags
func openApp(ctx context.Context, cmd *cli.Command) (*AppContext, error) {
	return NewAppContext(ctx, cmd.String("config"), cmd.String("env"))
}

// stdout is where command results go
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// stderr is where prompts and alerts go
func stderr(cmd *cli.Command) io.Writer {
	if w := cmd.Root().ErrWriter; w != nil {
		return w
	}
	return os.Stderr
}
