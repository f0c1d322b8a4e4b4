package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"beestore/internal/repository"
	"beestore/internal/service"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var exportOut string

var exportCmd = &cobra.Command{
	Use:       "export {products|users|orders}",
	Short:     "Write a CSV export to stdout or a file",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"products", "users", "orders"},
	RunE:      runExport,
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output file (default stdout)")
}

func adminService(e *env) service.AdminService {
	db := e.db.DB()
	return service.NewAdminService(
		repository.NewUserRepository(db),
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewLedgerRepository(db),
		e.log,
	)
}

func runExport(cmd *cobra.Command, args []string) error {
	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	var out io.Writer = cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", exportOut, err)
		}
		defer f.Close()
		out = f
	}

	if err := writeExport(cmd.Context(), adminService(e), args[0], out); err != nil {
		return err
	}

	if exportOut != "" {
		e.log.Info("Export written", zap.String("kind", args[0]), zap.String("file", exportOut))
	}
	return nil
}

func writeExport(ctx context.Context, admin service.AdminService, kind string, out io.Writer) error {
	switch kind {
	case "products":
		return admin.ExportProducts(ctx, out)
	case "users":
		return admin.ExportUsers(ctx, out)
	case "orders":
		return admin.ExportOrders(ctx, out)
	}
	return fmt.Errorf("unknown export %q", kind)
}
