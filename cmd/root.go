package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizpool/internal/session"
	"github.com/abhisek/quizpool/internal/store"
	"github.com/abhisek/quizpool/internal/xapi"
)

var rootCmd = &cobra.Command{
	Use:   "quizpool",
	Short: "Question-bank draw and scoring engine",
	Long:  "QuizPool draws randomized question sets from question banks, grades learner responses and tracks mastery.",

	SilenceUsage:      true,
	PersistentPreRunE: loadEnv,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides QUIZPOOL_DB env var)")
	rootCmd.PersistentFlags().String("env-file", ".env", "Dotenv file with QUIZPOOL_* settings")

	rootCmd.AddCommand(bankCmd)
	rootCmd.AddCommand(poolCmd)
	rootCmd.AddCommand(drawCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(gradeCmd)
	rootCmd.AddCommand(takeCmd)
	rootCmd.AddCommand(masteryCmd)
	rootCmd.AddCommand(eventsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadEnv reads the dotenv file if present. Variables already set in the
// environment win.
func loadEnv(cmd *cobra.Command, args []string) error {
	f := cmd.Flag("env-file")
	if f == nil || f.Value.String() == "" {
		return nil
	}
	path := f.Value.String()
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// resolveDBPath returns the database path using --db flag (highest priority),
// then QUIZPOOL_DB env var, then the default XDG path.
func resolveDBPath(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("db"); p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}

// openStore opens the database selected by the command's flags.
func openStore(cmd *cobra.Command) (*store.Store, error) {
	dbPath, err := resolveDBPath(cmd)
	if err != nil {
		return nil, fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return s, nil
}

// newService wires the session service to the LRS configured in the
// environment. The service reports telemetry failures on stderr.
func newService(s *store.Store) (*session.Service, error) {
	cfg := xapi.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	lrs, err := xapi.New(cfg)
	if err != nil {
		return nil, err
	}
	return session.NewService(s, lrs, xapi.NewBuilder(cfg)), nil
}
