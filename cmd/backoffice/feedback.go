package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/models"
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback",
	Short: "Feedback commands",
}

var feedbackListCmd = &cobra.Command{
	Use:   "list",
	Short: "List submitted feedback",
	RunE:  runFeedbackList,
}

var (
	feedbackStatus string
	feedbackPage   int
	feedbackLimit  int
	feedbackSearch string
	feedbackJSON   bool
)

func init() {
	feedbackListCmd.Flags().StringVar(&feedbackStatus, "status", "", "Filter by status (open, triaged, in_progress, resolved, closed)")
	feedbackListCmd.Flags().IntVar(&feedbackPage, "page", 1, "Page number")
	feedbackListCmd.Flags().IntVar(&feedbackLimit, "limit", 20, "Items per page")
	feedbackListCmd.Flags().StringVar(&feedbackSearch, "search", "", "Search term")
	feedbackListCmd.Flags().BoolVar(&feedbackJSON, "json", false, "Print the page as JSON")

	feedbackCmd.AddCommand(feedbackListCmd)
}

func runFeedbackList(cmd *cobra.Command, args []string) error {
	status := models.FeedbackStatus(feedbackStatus)
	if status != "" && !status.Valid() {
		return fmt.Errorf("invalid status: %s", feedbackStatus)
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	page, err := a.feedback.List(context.Background(), models.FeedbackQuery{
		Status: status,
		Page:   feedbackPage,
		Limit:  feedbackLimit,
		Search: feedbackSearch,
	})
	if err != nil {
		return err
	}

	if feedbackJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	if len(page.Items) == 0 {
		fmt.Println("No feedbacks found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tFROM\tCREATED\tSUBJECT")
	for _, f := range page.Items {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			f.ID, f.Status.Label(), f.Submitter(), f.CreatedAt.Format("2006-01-02 15:04"), truncate(f.Subject, 60))
	}
	w.Flush()

	if page.Meta != nil {
		fmt.Printf("\nPage %d of %d (%d total)\n", page.Meta.Page, page.Meta.TotalPages, page.Meta.Total)
	}
	return nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
