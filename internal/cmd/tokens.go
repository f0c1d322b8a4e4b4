package cmd

import (
	"fmt"
	"time"

	"beestore/internal/repository"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var pruneGrace time.Duration

var tokensCmd = &cobra.Command{
	Use:   "tokens",
	Short: "Maintain refresh tokens",
}

var tokensPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete expired and revoked refresh tokens",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		cutoff := time.Now().Add(-pruneGrace)
		n, err := repository.NewRefreshTokenRepository(e.db.DB()).DeleteExpired(cmd.Context(), cutoff)
		if err != nil {
			return err
		}

		e.log.Info("Pruned refresh tokens", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %d refresh tokens\n", n)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tokensCmd)
	tokensCmd.AddCommand(tokensPruneCmd)
	tokensPruneCmd.Flags().DurationVar(&pruneGrace, "grace", 24*time.Hour, "keep tokens that ended within this window")
}
