package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Session store maintenance",
}

var sessionsCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := cliApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.sessions.Count(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Sessions: %d\n", n)
		return nil
	},
}

var sessionsCleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete expired sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := cliApp()
		if err != nil {
			return err
		}
		defer a.Close()

		n, err := a.sessions.Cleanup(context.Background())
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d expired session(s)\n", n)
		return nil
	},
}

func init() {
	sessionsCmd.AddCommand(sessionsCountCmd)
	sessionsCmd.AddCommand(sessionsCleanupCmd)
}
