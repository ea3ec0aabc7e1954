package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/kbvault/kbvault/internal/config"
	"github.com/kbvault/kbvault/internal/db"
	"github.com/kbvault/kbvault/internal/models"
)

func newInitCmd() *cobra.Command {
	var seed bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Set up the config file and database",
		Long:  "Writes a config file with the resolved settings, creates the database and applies all migrations. Safe to run repeatedly.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(seed)
		},
	}

	cmd.Flags().BoolVar(&seed, "seed", false, "Insert a demo admin account and sample records")
	return cmd
}

func runInit(seed bool) error {
	cfg, err := resolveConfig()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	cfgPath, written, err := writeConfigFile(cfg)
	if err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	switch {
	case written:
		fmt.Printf("Config written to %s\n", cfgPath)
	case cfgPath != "":
		fmt.Printf("Config already present at %s\n", cfgPath)
	}

	a, err := buildApp(cfg)
	if err != nil {
		return fmt.Errorf("initialize database: %w", err)
	}
	app = a

	fmt.Printf("Database ready at %s (schema v%d)\n", cfg.DatabasePath, db.SchemaVersion())

	if seed {
		if err := seedDemoData(context.Background()); err != nil {
			return fmt.Errorf("seed demo data: %w", err)
		}
	}

	fmt.Println()
	fmt.Println("Next steps:")
	fmt.Println("  kbvault doctor          # Check the installation")
	fmt.Println("  kbvault knowledge add   # Store your first entry")
	fmt.Println("  kbvault --help          # See all commands")

	return nil
}

// writeConfigFile persists the resolved settings, unless a config file already
// exists. It returns the path and whether a new file was written.
func writeConfigFile(cfg *config.Config) (string, bool, error) {
	path := config.FilePath()
	if path == "" {
		return "", false, nil
	}

	if _, err := os.Stat(path); err == nil {
		return path, false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", false, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", false, err
	}

	data, err := yaml.Marshal(map[string]string{
		"database":  cfg.DatabasePath,
		"log_level": cfg.LogLevel,
		"format":    cfg.Format,
	})
	if err != nil {
		return "", false, err
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", false, err
	}

	return path, true, nil
}

const (
	seedAdminUser     = "admin"
	seedAdminPassword = "Admin@123"
)

// seedDemoData inserts a demo admin and a handful of sample records, the kind
// a small machine shop would store. Running it twice is a no-op.
func seedDemoData(ctx context.Context) error {
	_, err := app.users.Register(ctx, models.RegisterUserRequest{
		Username: seedAdminUser,
		Password: seedAdminPassword,
		IsAdmin:  true,
	})
	switch {
	case errors.Is(err, models.ErrDuplicateUsername):
		fmt.Println("Seed data already present; skipping.")
		return nil
	case errors.Is(err, models.ErrPermission):
		// The bootstrap exemption only covers an empty user table.
		fmt.Println("Users already exist; skipping seed.")
		return nil
	case err != nil:
		return err
	}
	fmt.Printf("Created demo admin %q (password %q)\n", seedAdminUser, seedAdminPassword)

	entries := []models.CreateKnowledgeRequest{
		{
			Title:    "退火炉温度异常处理",
			Question: "退火炉温度异常如何处理？",
			Answer:   "先检查热电偶接线是否松动，再核对仪表设定值与工艺卡是否一致。偏差超过 ±10℃ 时停炉检修。",
			Tags:     []string{"退火", "温度", "设备"},
		},
		{
			Title:    "淬火硬度不足排查",
			Question: "淬火后硬度不足是什么原因？",
			Answer:   "常见原因：加热温度偏低、保温时间不足、冷却介质老化。按此顺序逐项排查。",
			Tags:     []string{"淬火", "硬度"},
		},
	}
	for _, req := range entries {
		if _, err := app.knowledge.CreateEntry(ctx, req); err != nil {
			return err
		}
	}

	decisions := []models.CreateDecisionRequest{
		{
			Title:      "热处理炉异常停机决策",
			Background: "夜班期间 2 号退火炉温度持续超上限，报警后 10 分钟内未回落。",
			Steps:      "1. 立即切断加热电源并通知当班班长\n2. 核对记录仪曲线，确认实际炉温与显示值\n3. 联系设备科检查热电偶和控温仪表",
			Result:     "确认为热电偶老化导致测温偏低，更换后恢复生产，工件未报废。",
			Tags:       []string{"热处理", "应急"},
		},
		{
			Title:      "CNC 主轴震动快速处理决策",
			Background: "精加工批次表面粗糙度突然变差，主轴超过 8000 rpm 后出现明显震动。",
			Steps:      "1. 降速复测，确认震动随转速升高而加剧\n2. 检查刀柄和夹头清洁度，重新装夹\n3. 做主轴动平衡检测，记录偏差值",
			Result:     "动平衡偏差超标，现场校正后震动消失，批次返工两件。",
			Tags:       []string{"CNC", "设备"},
		},
	}
	authors := []string{seedAdminUser, "process_lead"}
	bodies := []string{
		"处理及时，避免了整炉工件报废。",
		"建议把动平衡检查列入月度保养计划。",
	}
	ratings := []int{5, 4}

	for i, req := range decisions {
		rec, err := app.decisions.CreateDecision(ctx, req)
		if err != nil {
			return err
		}
		if _, err := app.comments.CreateComment(ctx, models.CreateCommentRequest{
			DecisionID: rec.ID,
			Author:     authors[i],
			Body:       bodies[i],
			Rating:     &ratings[i],
		}); err != nil {
			return err
		}
	}

	fmt.Printf("Seeded %d knowledge entries and %d decision records\n", len(entries), len(decisions))
	return nil
}
