package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/foxzi/backoffice/internal/email"
	"github.com/foxzi/backoffice/internal/models"
)

var (
	templateName      string
	templateSubject   string
	templateTextFile  string
	templateHTMLFile  string
	templateCategory  string
	templateVariables []string
	templateActive    bool
	templateInactive  bool
	templateSearch    string
	templateForce     bool
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Email template management commands",
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List email templates",
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show template details",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new template",
	RunE:  runTemplateCreate,
}

var templateUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateUpdate,
}

var templateDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateDelete,
}

func init() {
	templateListCmd.Flags().StringVar(&templateCategory, "category", "", "Filter by category")
	templateListCmd.Flags().BoolVar(&templateActive, "active", false, "Only active templates")
	templateListCmd.Flags().StringVar(&templateSearch, "search", "", "Search term")

	for _, c := range []*cobra.Command{templateCreateCmd, templateUpdateCmd} {
		c.Flags().StringVar(&templateName, "name", "", "Template name")
		c.Flags().StringVar(&templateSubject, "subject", "", "Subject template")
		c.Flags().StringVar(&templateTextFile, "text", "", "Path to text template file")
		c.Flags().StringVar(&templateHTMLFile, "html", "", "Path to HTML template file")
		c.Flags().StringVar(&templateCategory, "category", "", "Category")
		c.Flags().StringSliceVar(&templateVariables, "var", nil, "Declared variable names")
		c.Flags().BoolVar(&templateActive, "active", false, "Mark the template active")
		c.Flags().BoolVar(&templateInactive, "inactive", false, "Mark the template inactive")
	}
	templateCreateCmd.MarkFlagRequired("name")
	templateCreateCmd.MarkFlagRequired("subject")

	templateDeleteCmd.Flags().BoolVarP(&templateForce, "force", "f", false, "Do not ask for confirmation")

	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateCreateCmd)
	templateCmd.AddCommand(templateUpdateCmd)
	templateCmd.AddCommand(templateDeleteCmd)
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	q := models.TemplateQuery{Category: templateCategory, Search: templateSearch}
	if templateActive {
		active := true
		q.IsActive = &active
	}

	templates, err := a.templates.List(context.Background(), q)
	if err != nil {
		return err
	}

	if len(templates) == 0 {
		fmt.Println("No templates found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tACTIVE\tBODY\tSUBJECT")
	for _, t := range templates {
		body := "text"
		if t.HasHTML() {
			body = "html"
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%s\t%s\n", t.ID, t.Name, t.Category, t.IsActive, body, truncate(t.Subject, 50))
	}
	w.Flush()

	fmt.Printf("\nTotal: %d templates\n", len(templates))
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tmpl, err := a.templates.Get(context.Background(), id)
	if err != nil {
		return err
	}

	fmt.Printf("ID:          %d\n", tmpl.ID)
	fmt.Printf("Name:        %s\n", tmpl.Name)
	if tmpl.Description != "" {
		fmt.Printf("Description: %s\n", tmpl.Description)
	}
	if tmpl.Category != "" {
		fmt.Printf("Category:    %s\n", tmpl.Category)
	}
	fmt.Printf("Active:      %v\n", tmpl.IsActive)
	if !tmpl.CreatedAt.IsZero() {
		fmt.Printf("Created:     %s\n", tmpl.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	if !tmpl.UpdatedAt.IsZero() {
		fmt.Printf("Updated:     %s\n", tmpl.UpdatedAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("\nSubject:\n  %s\n", tmpl.Subject)

	if tmpl.Text != "" {
		fmt.Printf("\nText Template:\n")
		printIndented(tmpl.Text, 0)
	}
	if tmpl.HTML != "" {
		fmt.Printf("\nHTML Template:\n")
		printIndented(tmpl.HTML, 20)
	}
	if len(tmpl.Variables) > 0 {
		fmt.Printf("\nVariables:\n")
		for _, v := range tmpl.Variables {
			fmt.Printf("  - %s\n", v)
		}
	}
	return nil
}

// printIndented prints s with an indent, at most limit lines when limit > 0
func printIndented(s string, limit int) {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		if limit > 0 && i == limit {
			fmt.Printf("  ... (%d more lines)\n", len(lines)-limit)
			return
		}
		fmt.Printf("  %s\n", line)
	}
}

func templateInput() (models.TemplateInput, error) {
	text, err := readBody("", templateTextFile)
	if err != nil {
		return models.TemplateInput{}, err
	}
	html, err := readBody("", templateHTMLFile)
	if err != nil {
		return models.TemplateInput{}, err
	}

	in := models.TemplateInput{
		Name:      templateName,
		Subject:   templateSubject,
		Text:      text,
		HTML:      html,
		Variables: templateVariables,
		Category:  templateCategory,
	}
	switch {
	case templateActive && templateInactive:
		return in, fmt.Errorf("--active and --inactive are mutually exclusive")
	case templateActive:
		v := true
		in.IsActive = &v
	case templateInactive:
		v := false
		in.IsActive = &v
	}

	probe := models.EmailTemplate{Subject: in.Subject, Text: in.Text, HTML: in.HTML}
	if err := email.ValidateTemplate(probe); err != nil {
		return in, err
	}
	return in, nil
}

func runTemplateCreate(cmd *cobra.Command, args []string) error {
	in, err := templateInput()
	if err != nil {
		return err
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tmpl, err := a.templates.Create(context.Background(), in)
	if err != nil {
		return err
	}

	fmt.Printf("Template created successfully\n")
	fmt.Printf("  ID:   %d\n", tmpl.ID)
	fmt.Printf("  Name: %s\n", tmpl.Name)
	return nil
}

func runTemplateUpdate(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}
	in, err := templateInput()
	if err != nil {
		return err
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	tmpl, err := a.templates.Update(context.Background(), id, in)
	if err != nil {
		return err
	}

	fmt.Printf("Template %d updated\n", tmpl.ID)
	return nil
}

func runTemplateDelete(cmd *cobra.Command, args []string) error {
	id, err := parseTemplateID(args[0])
	if err != nil {
		return err
	}

	if !templateForce && !confirm(fmt.Sprintf("Delete template %d?", id)) {
		fmt.Println("Aborted")
		return nil
	}

	a, err := cliApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.templates.Delete(context.Background(), id); err != nil {
		return err
	}

	fmt.Printf("Template %d deleted\n", id)
	return nil
}

func parseTemplateID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid template ID: %s", s)
	}
	return id, nil
}
