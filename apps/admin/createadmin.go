package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/trezcool/academia/core/academic"
	"github.com/trezcool/academia/core/account"
)

func (cli *commandLine) createAdminCmd() *cobra.Command {
	var na academic.NewAdministrator

	cmd := &cobra.Command{
		Use:   "createadmin",
		Short: "Create an administrator account. The password is prompted next.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := readPassword(cmd)
			if err != nil {
				return err
			}
			na.Password = pwd
			return cli.createAdmin(cmd, na)
		},
	}
	cmd.Flags().StringVar(&na.Email, "email", "", "The administrator's email")
	cmd.Flags().StringVar(&na.FirstName, "first-name", "", "The administrator's first name")
	cmd.Flags().StringVar(&na.LastName, "last-name", "", "The administrator's last name")
	cmd.Flags().StringVar(&na.EmployeeCode, "employee-code", "", "Defaults to a code derived from the account id")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("first-name")
	_ = cmd.MarkFlagRequired("last-name")
	return cmd
}

func (cli *commandLine) createAdmin(cmd *cobra.Command, na academic.NewAdministrator) error {
	adm, err := cli.svc.Bootstrap(context.Background(), na)
	if err != nil {
		return err
	}
	cmd.Printf("%s %q created (employee code %s)\n", account.RoleAdministrator, adm.Email, adm.EmployeeCode)
	return nil
}
