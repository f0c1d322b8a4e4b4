package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"beestore/internal/database"

	"github.com/spf13/cobra"
)

var migrationsDir string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return database.RunMigrations(cmd.Context(), e.db.DB(), migrationsPath(e), e.log)
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back the most recent migration",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()
		return database.RollbackMigration(cmd.Context(), e.db.DB(), migrationsPath(e), e.log)
	},
}

var migrateStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print which migrations have been applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		states, err := database.MigrationStatus(cmd.Context(), e.db.DB(), migrationsPath(e))
		if err != nil {
			return err
		}
		return printMigrations(cmd.OutOrStdout(), states)
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd, migrateDownCmd, migrateStatusCmd)

	migrateCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "", "migrations directory (default DB_MIGRATIONS_DIR)")
}

func migrationsPath(e *env) string {
	if migrationsDir != "" {
		return migrationsDir
	}
	return e.cfg.Database.MigrationsDir
}

func printMigrations(out io.Writer, states []database.MigrationState) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tFILE\tAPPLIED AT")
	for _, st := range states {
		applied := "pending"
		if st.Applied {
			applied = st.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", st.Version, st.File, applied)
	}
	return tw.Flush()
}
