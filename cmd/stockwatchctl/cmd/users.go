package cmd

import (
	"fmt"

	"stockwatch/pkg/apperr"
	"stockwatch/pkg/auth"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := st.Migrate(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "migration completed")
		return nil
	},
}

var createUserCmd = &cobra.Command{
	Use:   "create-user <username> <password>",
	Short: "Register a user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts := auth.NewAccounts(st, cfg.BcryptCost)
		user, err := accounts.Register(cmd.Context(), args[0], args[1])
		if apperr.Is(err, apperr.KindConflict) {
			fmt.Fprintf(cmd.OutOrStdout(), "user %s already exists\n", args[0])
			return nil
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "created user %s id=%d\n", user.Username, user.ID)
		return nil
	},
}

var resetPasswordCmd = &cobra.Command{
	Use:   "reset-password <username> <password>",
	Short: "Replace a user's password",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		accounts := auth.NewAccounts(st, cfg.BcryptCost)
		if err := accounts.ResetPassword(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
		return nil
	},
}

var deleteUserCmd = &cobra.Command{
	Use:   "delete-user <username>",
	Short: "Delete a user with its watchlists and refresh tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		user, err := st.UserByUsername(ctx, args[0])
		if err != nil {
			return err
		}
		if err := st.DeleteUser(ctx, user.ID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted user %s id=%d\n", user.Username, user.ID)
		return nil
	},
}
