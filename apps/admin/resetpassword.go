package main

import (
	"context"

	"github.com/spf13/cobra"
)

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset the password of an account. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := readPassword(cmd)
			if err != nil {
				return err
			}
			return cli.svc.ResetPassword(context.Background(), email, pwd)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "The account's email")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}
