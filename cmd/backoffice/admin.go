package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/apiclient"
	"github.com/foxzi/backoffice/internal/auth"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin account commands",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create another admin account",
	RunE:  runAdminCreate,
}

var (
	adminEmail    string
	adminPassword string
	adminType     string
)

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Account email")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Account password (will prompt if not provided)")
	adminCreateCmd.Flags().StringVar(&adminType, "type", "individual", "Account type (individual, business)")
	adminCreateCmd.MarkFlagRequired("email")

	adminCmd.AddCommand(adminCreateCmd)
}

func runAdminCreate(cmd *cobra.Command, args []string) error {
	password := adminPassword
	if password == "" {
		var err error
		if password, err = readPassword("Password: "); err != nil {
			return err
		}
		again, err := readPassword("Confirm password: ")
		if err != nil {
			return err
		}
		if password != again {
			return fmt.Errorf("passwords do not match")
		}
	}

	req := auth.SignUpRequest{Email: adminEmail, Password: password, UserType: adminType}
	if err := auth.ValidateSignUp(req); err != nil {
		return err
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if _, err := a.auth.SignUp(context.Background(), req); err != nil {
		if msg := apiclient.Message(err); msg != "" {
			return fmt.Errorf("failed to create admin: %s", msg)
		}
		return err
	}

	fmt.Printf("Admin account created for %s\n", adminEmail)
	return nil
}
