package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/models"
	"github.com/foxzi/backoffice/internal/preview"
)

var waitlistCmd = &cobra.Command{
	Use:   "waitlist",
	Short: "Waitlist commands",
}

var waitlistListCmd = &cobra.Command{
	Use:   "list",
	Short: "List waitlist entrants, newest first",
	RunE:  runWaitlistList,
}

var waitlistEmailCmd = &cobra.Command{
	Use:   "email",
	Short: "Email waitlist entrants one by one",
	Long: `Sends one message per recipient through the waitlist send endpoint.
Recipients are the --to addresses, or every entrant matching --search.
With --template the template is rendered per recipient ({{name}},
{{firstName}} and {{email}} are available).`,
	RunE: runWaitlistEmail,
}

var (
	waitlistSearch string
	waitlistLimit  int
	waitlistOffset int
	waitlistJSON   bool

	emailTo       []string
	emailSubject  string
	emailText     string
	emailTextFile string
	emailHTMLFile string
	emailTemplate string
	emailYes      bool
	emailDryRun   bool
)

func init() {
	waitlistListCmd.Flags().StringVar(&waitlistSearch, "search", "", "Filter by email or name")
	waitlistListCmd.Flags().IntVar(&waitlistLimit, "limit", 100, "Maximum entrants to show")
	waitlistListCmd.Flags().IntVar(&waitlistOffset, "offset", 0, "Skip this many matching entrants")
	waitlistListCmd.Flags().BoolVar(&waitlistJSON, "json", false, "Print the page as JSON")

	waitlistEmailCmd.Flags().StringSliceVar(&emailTo, "to", nil, "Recipient addresses (repeatable or comma separated)")
	waitlistEmailCmd.Flags().StringVar(&waitlistSearch, "search", "", "Email every entrant matching this term")
	waitlistEmailCmd.Flags().IntVar(&waitlistLimit, "limit", 100, "Maximum entrants taken from the waitlist")
	waitlistEmailCmd.Flags().StringVar(&emailSubject, "subject", "", "Subject")
	waitlistEmailCmd.Flags().StringVar(&emailText, "text", "", "Plain text body")
	waitlistEmailCmd.Flags().StringVar(&emailTextFile, "text-file", "", "Read the plain text body from a file")
	waitlistEmailCmd.Flags().StringVar(&emailHTMLFile, "html-file", "", "Read the HTML body from a file")
	waitlistEmailCmd.Flags().StringVar(&emailTemplate, "template", "", "Template ID to render per recipient")
	waitlistEmailCmd.Flags().BoolVarP(&emailYes, "yes", "y", false, "Do not ask for confirmation")
	waitlistEmailCmd.Flags().BoolVar(&emailDryRun, "dry-run", false, "Show the recipients without sending")

	waitlistCmd.AddCommand(waitlistListCmd)
	waitlistCmd.AddCommand(waitlistEmailCmd)
}

func runWaitlistList(cmd *cobra.Command, args []string) error {
	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	svc, err := a.waitlistService(ctx)
	if err != nil {
		return err
	}

	page, err := svc.List(ctx, models.WaitlistQuery{Search: waitlistSearch, Limit: waitlistLimit, Offset: waitlistOffset})
	if err != nil {
		return err
	}

	if waitlistJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(page)
	}

	if len(page.Users) == 0 {
		fmt.Println("No waitlist users found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMAIL\tNAME\tJOINED")
	for _, u := range page.Users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.CreatedAt.Format("2006-01-02 15:04"))
	}
	w.Flush()

	fmt.Printf("\nShowing %d of %d\n", len(page.Users), page.Total)
	return nil
}

func runWaitlistEmail(cmd *cobra.Command, args []string) error {
	if len(emailTo) == 0 && waitlistSearch == "" {
		return fmt.Errorf("name recipients with --to or select entrants with --search")
	}

	text, err := readBody(emailText, emailTextFile)
	if err != nil {
		return err
	}
	html, err := readBody("", emailHTMLFile)
	if err != nil {
		return err
	}
	if emailTemplate == "" {
		if strings.TrimSpace(emailSubject) == "" {
			return fmt.Errorf("--subject is required without --template")
		}
		if strings.TrimSpace(text) == "" && strings.TrimSpace(html) == "" {
			return fmt.Errorf("a body is required: use --text, --text-file or --html-file")
		}
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	ctx := context.Background()
	svc, err := a.waitlistService(ctx)
	if err != nil {
		return err
	}

	recipients := recipientsFromFlags(emailTo)
	if waitlistSearch != "" {
		page, err := svc.List(ctx, models.WaitlistQuery{Search: waitlistSearch, Limit: waitlistLimit})
		if err != nil {
			return err
		}
		recipients = append(recipients, page.Users...)
	}
	recipients = dedupeRecipients(recipients)
	if len(recipients) == 0 {
		return fmt.Errorf("no recipients matched")
	}

	fmt.Printf("Recipients: %d\n", len(recipients))
	if emailDryRun {
		for _, u := range recipients {
			fmt.Printf("  %s\n", u.Email)
		}
		return nil
	}
	if !emailYes && !confirm(fmt.Sprintf("Send to %d recipient(s)?", len(recipients))) {
		fmt.Println("Aborted")
		return nil
	}

	var resp *models.SendEmailResponse
	if emailTemplate != "" {
		id, perr := strconv.ParseInt(emailTemplate, 10, 64)
		if perr != nil {
			return fmt.Errorf("invalid template ID: %s", emailTemplate)
		}
		tmpl, gerr := a.templates.Get(ctx, id)
		if gerr != nil {
			return gerr
		}
		if emailSubject != "" {
			tmpl.Subject = emailSubject
		}
		resp, err = svc.SendPersonalized(ctx, recipients, *tmpl)
	} else {
		emails := make([]string, len(recipients))
		for i, u := range recipients {
			emails[i] = u.Email
		}
		text, html = plainAlternative(text, html)
		resp, err = svc.SendEmailToMultiple(ctx, emails, emailSubject, text, html)
	}
	if resp == nil {
		return err
	}

	// An interrupted run still reports what went out
	fmt.Println(resp.Message)
	for _, addr := range resp.FailedEmails {
		fmt.Printf("  failed: %s\n", addr)
	}
	if err != nil {
		return err
	}
	if !resp.Success {
		return fmt.Errorf("%d of %d email(s) failed", resp.FailedCount, len(recipients))
	}
	return nil
}

// plainAlternative trims both bodies and derives the text part from the HTML
// one when only HTML was given
func plainAlternative(text, html string) (string, string) {
	text, html = strings.TrimSpace(text), strings.TrimSpace(html)
	if text == "" && html != "" {
		text = preview.StripHTML(html)
	}
	return text, html
}

func recipientsFromFlags(addrs []string) []models.WaitlistUser {
	users := make([]models.WaitlistUser, 0, len(addrs))
	for _, addr := range addrs {
		addr = strings.TrimSpace(addr)
		if addr != "" {
			users = append(users, models.WaitlistUser{Email: addr})
		}
	}
	return users
}

// dedupeRecipients drops repeated addresses, keeping the first occurrence
func dedupeRecipients(users []models.WaitlistUser) []models.WaitlistUser {
	seen := make(map[string]bool, len(users))
	out := users[:0]
	for _, u := range users {
		key := strings.ToLower(u.Email)
		if u.Email == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, u)
	}
	return out
}
