package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/db"
	"github.com/kbvault/kbvault/internal/store"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose configuration and database health",
		Long:  "Run diagnostic checks against the config file, database and schema without modifying anything",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor()
		},
	}
}

type checkResult struct {
	Name   string
	Passed bool
	Detail string
	Hint   string
}

func runDoctor() error {
	fmt.Println("\nkbvault Doctor")
	fmt.Println("==============")

	var results []checkResult

	// 1. Config file.
	cfgPath := config.FilePath()
	if cfgPath == "" {
		results = append(results, checkResult{
			Name: "Config file", Passed: true, Detail: "none (defaults apply)",
		})
	} else if _, err := os.Stat(cfgPath); err == nil {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("found (%s)", cfgPath),
		})
	} else if errors.Is(err, fs.ErrNotExist) {
		results = append(results, checkResult{
			Name: "Config file", Passed: true,
			Detail: fmt.Sprintf("not present (%s)", cfgPath),
		})
	} else {
		results = append(results, checkResult{
			Name: "Config file", Passed: false,
			Detail: cfgPath,
			Hint:   err.Error(),
		})
	}

	// 2. Resolved configuration.
	cfg, err := resolveConfig()
	if err != nil {
		results = append(results, checkResult{
			Name: "Configuration", Passed: false,
			Hint: err.Error(),
		})
		printChecks(results)
		return fmt.Errorf("doctor found issues")
	}
	results = append(results, checkResult{
		Name: "Configuration", Passed: true,
		Detail: fmt.Sprintf("database: %s", cfg.DatabasePath),
	})

	// 3. Database file. Opening would create it, so stat first.
	if _, err := os.Stat(cfg.DatabasePath); err != nil {
		results = append(results, checkResult{
			Name: "Database file", Passed: false,
			Detail: cfg.DatabasePath,
			Hint:   "Run: kbvault init",
		})
		printChecks(results)
		return fmt.Errorf("doctor found issues")
	}
	results = append(results, checkResult{
		Name: "Database file", Passed: true, Detail: cfg.DatabasePath,
	})

	// 4. Database opens.
	sqlDB, err := store.Open(cfg.DatabasePath)
	if err != nil {
		results = append(results, checkResult{
			Name: "Database opens", Passed: false,
			Hint: err.Error(),
		})
		printChecks(results)
		return fmt.Errorf("doctor found issues")
	}
	defer sqlDB.Close()
	results = append(results, checkResult{
		Name: "Database opens", Passed: true,
	})

	ctx := context.Background()

	// 5. Schema version.
	var applied int
	want := db.SchemaVersion()
	scanErr := sqlDB.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version_id), 0) FROM goose_db_version").Scan(&applied)
	switch {
	case scanErr != nil:
		results = append(results, checkResult{
			Name: "Schema", Passed: false,
			Detail: "migrations never applied",
			Hint:   "Run: kbvault init",
		})
	case applied < want:
		results = append(results, checkResult{
			Name: "Schema", Passed: false,
			Detail: fmt.Sprintf("v%d (want v%d)", applied, want),
			Hint:   "Any kbvault command applies pending migrations",
		})
	case applied > want:
		results = append(results, checkResult{
			Name: "Schema", Passed: false,
			Detail: fmt.Sprintf("v%d (binary knows v%d)", applied, want),
			Hint:   "Database was created by a newer kbvault; upgrade the binary",
		})
	default:
		results = append(results, checkResult{
			Name: "Schema", Passed: true,
			Detail: fmt.Sprintf("v%d (current)", applied),
		})
	}

	// 6. Entity counts, once the schema is known good.
	if scanErr == nil && applied == want {
		quiet := logrus.New()
		quiet.SetLevel(logrus.ErrorLevel)
		summary, err := store.NewAdminStore(store.Base{DB: sqlDB, Log: quiet}).Summary(ctx)
		if err != nil {
			results = append(results, checkResult{
				Name: "Entity counts", Passed: false,
				Hint: err.Error(),
			})
		} else {
			results = append(results, checkResult{
				Name: "Entity counts", Passed: true,
				Detail: fmt.Sprintf("%d knowledge, %d decisions, %d users",
					summary.KnowledgeEntries, summary.DecisionRecords, summary.Users),
			})
		}
	}

	if !printChecks(results) {
		return fmt.Errorf("doctor found issues")
	}
	return nil
}

func printChecks(results []checkResult) bool {
	fmt.Println()
	allPassed := true
	for _, r := range results {
		if r.Passed {
			if r.Detail != "" {
				fmt.Printf("✅ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("✅ %s\n", r.Name)
			}
		} else {
			allPassed = false
			if r.Detail != "" {
				fmt.Printf("❌ %s: %s\n", r.Name, r.Detail)
			} else {
				fmt.Printf("❌ %s\n", r.Name)
			}
			if r.Hint != "" {
				fmt.Printf("   Hint: %s\n", r.Hint)
			}
		}
	}

	fmt.Println()
	if allPassed {
		fmt.Println("✅ All checks passed!")
	} else {
		fmt.Println("❌ Some checks failed.")
	}
	return allPassed
}
