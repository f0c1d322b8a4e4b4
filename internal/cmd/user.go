package cmd

import (
	"fmt"

	"beestore/internal/domain"
	"beestore/internal/service"

	"github.com/spf13/cobra"
)

var newAdmin service.UserInput

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage accounts",
}

// The API only lets admins create admins, so the first one comes from here.
var createAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create an administrator account",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		in := newAdmin
		in.Role = domain.RoleAdmin
		user, err := adminService(e).CreateUser(cmd.Context(), in)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "created admin %s (%s)\n", user.Login, user.ID)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(userCmd)
	userCmd.AddCommand(createAdminCmd)

	f := createAdminCmd.Flags()
	f.StringVar(&newAdmin.Login, "login", "", "login name")
	f.StringVar(&newAdmin.Email, "email", "", "email address")
	f.StringVar(&newAdmin.Password, "password", "", "password")
	f.StringVar(&newAdmin.FullName, "name", "", "full name")
	_ = createAdminCmd.MarkFlagRequired("login")
	_ = createAdminCmd.MarkFlagRequired("email")
	_ = createAdminCmd.MarkFlagRequired("password")
}
