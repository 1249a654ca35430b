package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/lukman83/pricehub/internal/alert"
	"github.com/lukman83/pricehub/internal/catalog"
	"github.com/lukman83/pricehub/internal/compare"
	"github.com/lukman83/pricehub/internal/models"
	"github.com/lukman83/pricehub/internal/ui"
	"github.com/lukman83/pricehub/internal/validate"
	"github.com/spf13/cobra"
)

var alertCmd = &cobra.Command{
	Use:   "alert",
	Short: "Manage price alerts",
}

var alertListCmd = &cobra.Command{
	Use:   "list",
	Short: "List your price alerts",
	RunE:  runAlertList,
}

var alertSetCmd = &cobra.Command{
	Use:     "set [product-id]",
	Aliases: []string{"create", "update"},
	Short:   "Create or update the price alert for a product",
	Args:    cobra.ExactArgs(1),
	RunE:    runAlertSet,
}

var alertDeleteCmd = &cobra.Command{
	Use:   "delete [alert-id]",
	Short: "Delete a price alert",
	Args:  cobra.ExactArgs(1),
	RunE:  runAlertDelete,
}

func init() {
	alertListCmd.Flags().String("format", "table", "Output format: json, table")

	alertSetCmd.Flags().Float64("target", 0, "Target price (default: 90% of the current lowest price)")
	alertSetCmd.Flags().String("notify", "", "Notification method: email, browser, both")
	alertSetCmd.Flags().String("email", "", "Email address for email notifications")
	alertSetCmd.Flags().String("name", "", "Alert name")
	alertSetCmd.Flags().Bool("increase", false, "Also notify when the price goes up")
	alertSetCmd.Flags().StringSlice("categories", compare.DefaultCategories, "Categories to look the product up in")
	alertSetCmd.Flags().Bool("dry-run", false, "Validate and print the form without saving")

	alertCmd.AddCommand(alertListCmd, alertSetCmd, alertDeleteCmd)
	rootCmd.AddCommand(alertCmd)
}

func runAlertList(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	svc, err := newServices()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := svc.requireUser(ctx); err != nil {
		return err
	}

	alerts := alert.NewBell(svc.alerts, svc.store).Refresh(ctx)
	if format == "json" {
		return printJSON(os.Stdout, alerts)
	}
	fmt.Fprintf(os.Stdout, "%d active alerts\n\n", alert.ActiveCount(alerts))
	printAlerts(os.Stdout, alerts)
	return nil
}

func runAlertSet(cmd *cobra.Command, args []string) error {
	categories, _ := cmd.Flags().GetStringSlice("categories")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	svc, err := newServices()
	if err != nil {
		return err
	}
	ctx := context.Background()
	user, err := svc.requireUser(ctx)
	if err != nil && !dryRun {
		return err
	}

	spin := ui.NewSpinner(os.Stderr)
	spin.Start("Looking up product...")
	products, err := compare.Lookup(catalog.WithProgress(ctx, spin.Update), svc.source, categories, args)
	spin.Stop()
	if err != nil {
		return err
	}

	modal := alert.NewModal(svc.alerts, svc.store)
	modal.Show(products[0], modal.Existing(products[0].ID))
	form := modal.Edit(func(f *alert.Form) {
		if user != nil && f.EmailAddress == "" {
			f.EmailAddress = user.Email
		}
		applyAlertFlags(cmd, f)
	})

	if dryRun {
		if errs := form.Validate(); errs != nil {
			printValidation(errs)
		}
		return printJSON(os.Stdout, form)
	}

	saved, err := modal.Submit(ctx)
	if err != nil {
		var errs validate.Errors
		if errors.As(err, &errs) {
			printValidation(errs)
		}
		return err
	}
	verb := "Created"
	if form.ExistingID != "" {
		verb = "Updated"
	}
	fmt.Fprintf(os.Stdout, "%s alert %s: notify when %s drops to %s\n", verb, saved.ID, form.ProductName, formatPrice(saved.TargetPrice))
	return nil
}

func applyAlertFlags(cmd *cobra.Command, f *alert.Form) {
	if cmd.Flags().Changed("target") {
		f.TargetPrice, _ = cmd.Flags().GetFloat64("target")
	}
	if v, _ := cmd.Flags().GetString("notify"); v != "" {
		f.NotificationMethod = v
	}
	if v, _ := cmd.Flags().GetString("email"); v != "" {
		f.EmailAddress = v
	}
	if v, _ := cmd.Flags().GetString("name"); v != "" {
		f.AlertName = v
	}
	if cmd.Flags().Changed("increase") {
		f.PriceIncreaseAlert, _ = cmd.Flags().GetBool("increase")
	}
	if f.NotificationMethod == models.NotifyBrowser {
		f.EmailAddress = ""
	}
}

func printValidation(errs validate.Errors) {
	for _, field := range errs.Fields() {
		fmt.Fprintf(os.Stderr, "  %s: %s\n", field, errs[field])
	}
}

func runAlertDelete(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	ctx := context.Background()
	if _, err := svc.requireUser(ctx); err != nil {
		return err
	}
	if err := alert.NewBell(svc.alerts, svc.store).Delete(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(os.Stdout, "Deleted alert %s\n", args[0])
	return nil
}
