package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/session"
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the admin API and keep the tokens for later commands",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored CLI tokens",
	RunE:  runLogout,
}

var (
	loginEmail    string
	loginPassword string
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Admin email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Admin password (will prompt if not provided)")
	loginCmd.MarkFlagRequired("email")
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	password := loginPassword
	if password == "" {
		if password, err = readPassword("Password: "); err != nil {
			return err
		}
	}

	ctx := context.Background()

	sess := session.New(loginEmail, a.cfg.Sessions.TTL)
	sess.ID = cliSessionID
	if err := a.sessions.Save(ctx, sess); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}

	resp, err := a.auth.SignIn(ctx, loginEmail, password)
	if err != nil {
		a.sessions.Delete(ctx, cliSessionID)
		return err
	}

	name := loginEmail
	if resp.User != nil && resp.User.Email != "" {
		name = resp.User.Email
	}
	fmt.Printf("Signed in as %s (session expires %s)\n", name, sess.ExpiresAt.Format("2006-01-02 15:04:05"))
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.auth.Logout(context.Background()); err != nil {
		return err
	}
	fmt.Println("Signed out")
	return nil
}
