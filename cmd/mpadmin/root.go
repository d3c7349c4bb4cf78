package main

import (
	"fmt"
	"io"
	"os"

	"github.com/dmitrijs2005/mpmonitor/internal/server/config"
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	envLookupOS = os.LookupEnv
	lookupEnv   = envLookupOS
	dsnFlag     string
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "mpadmin",
		Short:         "Administrative tasks for the mpmonitor server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&dsnFlag, "dsn", "d", "", "database DSN (overrides MPM_DATABASE_DSN)")

	root.AddCommand(newMigrateCmd())
	root.AddCommand(newAdminCmd())
	return root
}

// Execute runs the root command and prints failures in red.
func Execute() error {
	_ = godotenv.Load(".env")

	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("error: %v", err))
		return err
	}
	return nil
}

// loadConfig reads the environment and applies the command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(nil, lookupEnv)
	if err != nil {
		return nil, err
	}
	if dsnFlag != "" {
		cfg.DatabaseDSN = dsnFlag
	}
	return cfg, nil
}

func success(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, color.GreenString("✓ "+format, args...))
}
