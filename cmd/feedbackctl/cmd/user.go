package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/templui/feedbackdesk/internal/service"
)

func UserCmd() *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage desk accounts",
	}

	user.AddCommand(userCreateCmd())
	user.AddCommand(userPasswordCmd())
	user.AddCommand(userGroupCmd())

	return user
}

func userCreateCmd() *cobra.Command {
	var params service.CreateUserParams

	c := &cobra.Command{
		Use:   "create USERNAME",
		Short: "Create an active account",
		Example: `  feedbackctl user create maria --password 'correct horse battery' --group Suporte
  feedbackctl user create admin --password 'correct horse battery' --superuser`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			params.Username = args[0]
			u, err := a.UserService.Create(cmd.Context(), params)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (%s)\n", u.Username, u.ID)
			return nil
		},
	}

	c.Flags().StringVar(&params.Password, "password", "", "account password (12 to 72 characters)")
	c.Flags().StringVar(&params.FullName, "full-name", "", "name stamped as operator on new feedback")
	c.Flags().BoolVar(&params.Superuser, "superuser", false, "grant access regardless of groups")
	c.Flags().StringSliceVar(&params.Groups, "group", nil, "group membership, repeatable")
	_ = c.MarkFlagRequired("password")

	return c
}

func userPasswordCmd() *cobra.Command {
	var password string

	c := &cobra.Command{
		Use:   "passwd USERNAME",
		Short: "Replace an account password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			err = a.UserService.SetPassword(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "password updated for %s\n", args[0])
			return nil
		},
	}

	c.Flags().StringVar(&password, "password", "", "new password (12 to 72 characters)")
	_ = c.MarkFlagRequired("password")

	return c
}

func userGroupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add-group USERNAME GROUP",
		Short: "Add an account to a group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			err = a.UserService.AddGroup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s added to %s\n", args[0], args[1])
			return nil
		},
	}
}
