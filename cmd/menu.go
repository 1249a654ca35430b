package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lukman83/pricehub/internal/nav"
	"github.com/spf13/cobra"
)

var menuCmd = &cobra.Command{
	Use:   "menu [category]",
	Short: "Show the navigation menu and the login state",
	Long:  "Without arguments prints the full menu. With a category prints its breadcrumb trail.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	menu := nav.DefaultMenu()

	if len(args) == 1 {
		trail := menu.Trail(args[0])
		if len(trail) == 0 {
			return fmt.Errorf("unknown category %q", args[0])
		}
		labels := make([]string, len(trail))
		for i, it := range trail {
			labels[i] = it.Label
		}
		fmt.Fprintf(os.Stdout, "Home > %s\n", strings.Join(labels, " > "))
		return nil
	}

	svc, err := newServices()
	if err != nil {
		return err
	}
	login := svc.header().LoginState(context.Background())
	fmt.Fprintf(os.Stdout, "PriceHub  |  %s\n\n", login.Greeting())
	if notice, ok := svc.auth.Notice(); ok {
		fmt.Fprintf(os.Stdout, "%s\n\n", notice)
	}

	for _, section := range menu.Sections {
		fmt.Fprintf(os.Stdout, " %-20s %s\n", section.Label, section.Path)
		for _, child := range section.Children {
			fmt.Fprintf(os.Stdout, "   %-18s %s\n", child.Label, child.Path)
		}
	}
	return nil
}
