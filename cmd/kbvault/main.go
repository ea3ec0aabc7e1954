// Command kbvault manages a local knowledge base and decision history stored
// in a single SQLite file. Commands map 1:1 onto service operations; the exit
// code identifies the error class when one fails.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/crypto"
	"github.com/kbvault/kbvault/internal/db"
	"github.com/kbvault/kbvault/internal/db/migrations"
	"github.com/kbvault/kbvault/internal/domain"
	"github.com/kbvault/kbvault/internal/models"
	"github.com/kbvault/kbvault/internal/service"
	"github.com/kbvault/kbvault/internal/store"
)

// Build-time variables set via ldflags.
var (
	commit    = ""
	buildDate = ""
)

// Persistent flag values. Empty means unset; resolveConfig fills the gaps
// from environment variables and the config file.
var (
	flagDB  string
	flagFmt string
	flagLog string
)

// app holds the wired services for the running command. setup populates it
// before any Run function executes.
var app *appContext

type appContext struct {
	cfg       *config.Config
	log       *logrus.Logger
	knowledge domain.KnowledgeService
	match     domain.MatchService
	decisions domain.DecisionService
	comments  domain.CommentService
	users     domain.UserService
	audit     domain.AuditService
	admin     domain.AdminService
	export    domain.ExportService
	corpora   domain.CorpusService
}

func versionString() string {
	if commit != "" && buildDate != "" {
		return fmt.Sprintf("kbvault version %s (commit: %s, built: %s)", config.Version, commit, buildDate)
	}
	return fmt.Sprintf("kbvault version %s-dev", config.Version)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:     "kbvault",
		Short:   "Local knowledge base and decision history in one SQLite file",
		Version: versionString(),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setup()
		},
		SilenceUsage: true,
	}
	rootCmd.SetVersionTemplate("{{.Version}}\n")

	rootCmd.PersistentFlags().StringVar(&flagDB, "database", "", "Database file path (env: KBVAULT_DB)")
	rootCmd.PersistentFlags().StringVar(&flagFmt, "format", "", "Output format: table|json|quiet (env: KBVAULT_FORMAT)")
	rootCmd.PersistentFlags().StringVar(&flagLog, "log-level", "", "Log level: trace|debug|info|warn|error (env: KBVAULT_LOG_LEVEL)")

	initCmd := newInitCmd()
	initCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // does its own setup
	doctorCmd := newDoctorCmd()
	doctorCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {} // must not create the database

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(newKnowledgeCmd())
	rootCmd.AddCommand(newAskCmd())
	rootCmd.AddCommand(newDecisionCmd())
	rootCmd.AddCommand(newCommentCmd())
	rootCmd.AddCommand(newUserCmd())
	rootCmd.AddCommand(newAdminCmd())
	rootCmd.AddCommand(newCorpusCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

// setup resolves configuration and wires the services. It runs once per
// invocation, before the selected command.
func setup() {
	cfg, err := resolveConfig()
	if err != nil {
		fatal("load configuration", err)
	}

	a, err := buildApp(cfg)
	if err != nil {
		fatal("initialize database", err)
	}
	app = a
}

// resolveConfig layers flag values over the file/env configuration.
// Precedence: flag, then environment, then config file, then defaults.
func resolveConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if flagDB != "" {
		cfg.DatabasePath = flagDB
	}
	if flagLog != "" {
		cfg.LogLevel = flagLog
	}
	if flagFmt != "" {
		cfg.Format = flagFmt
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// The output helpers read flagFmt; reflect the resolved value back.
	flagFmt = cfg.Format

	return cfg, nil
}

// buildApp opens the database, applies pending migrations, and wires every
// service over the shared handle.
func buildApp(cfg *config.Config) (*appContext, error) {
	log := newLogger(cfg.LogLevel)

	sqlDB, err := store.Open(cfg.DatabasePath)
	if err != nil {
		return nil, err
	}

	if err := db.RunMigrations(context.Background(), sqlDB, log, migrations.FS); err != nil {
		sqlDB.Close() //nolint:errcheck // already failing.

		return nil, err
	}

	base := store.Base{DB: sqlDB, Log: log}

	return &appContext{
		cfg:       cfg,
		log:       log,
		knowledge: service.NewKnowledgeService(store.NewKnowledgeStore(base), log),
		match:     service.NewMatchService(store.NewKnowledgeStore(base), log),
		decisions: service.NewDecisionService(store.NewDecisionStore(base), store.NewCommentStore(base), log),
		comments:  service.NewCommentService(store.NewCommentStore(base), log),
		users:     service.NewUserService(store.NewUserStore(base), crypto.NewHasher(), log),
		audit:     service.NewAuditService(store.NewAuditStore(base), log),
		admin:     service.NewAdminService(store.NewAdminStore(base), log),
		export:    service.NewExportService(store.NewExportStore(base), db.SchemaVersion(), config.Version, log),
		corpora:   service.NewCorpusService(store.NewCorpusStore(base), log),
	}, nil
}

// newLogger builds the CLI logger. Logrus writes to stderr, so stdout stays
// clean for command output.
func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		log.SetLevel(lvl)
	}
	return log
}

// exitCode maps an error to the exit code of its class: 0 success, 1 storage
// or unclassified, 2 validation, 3 not found, 4 conflict, 5 permission,
// 6 authentication, 7 import.
func exitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, models.ErrInvalid):
		return 2
	case errors.Is(err, models.ErrNotFound):
		return 3
	case errors.Is(err, models.ErrConflict):
		return 4
	case errors.Is(err, models.ErrPermission):
		return 5
	case errors.Is(err, models.ErrAuth):
		return 6
	case errors.Is(err, models.ErrImport):
		return 7
	default:
		return 1
	}
}

func fatal(msg string, err error) {
	fmt.Fprintf(os.Stderr, "Error: %s: %v\n", msg, err)
	os.Exit(exitCode(err))
}

// parseID parses a positional id argument. Malformed ids exit with the
// validation code before any service call is made.
func parseID(arg string) int64 {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		fmt.Fprintf(os.Stderr, "Error: invalid id %q\n", arg)
		os.Exit(2)
	}
	return id
}
