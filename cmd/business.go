package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lukman83/pricehub/internal/apperr"
	"github.com/lukman83/pricehub/internal/business"
	"github.com/lukman83/pricehub/internal/ui"
	"github.com/spf13/cobra"
)

var businessCmd = &cobra.Command{
	Use:     "business",
	Aliases: []string{"biz"},
	Short:   "View and interact with business profiles",
}

var businessShowCmd = &cobra.Command{
	Use:   "show [business-id]",
	Short: "Show a business profile with galleries and reviews",
	Args:  cobra.ExactArgs(1),
	RunE:  runBusinessShow,
}

var businessFollowCmd = &cobra.Command{
	Use:   "follow [business-id]",
	Short: "Follow or unfollow a business",
	Args:  cobra.ExactArgs(1),
	RunE:  runBusinessFollow,
}

var businessLikeCmd = &cobra.Command{
	Use:   "like [business-id] [gallery]",
	Short: "Like or unlike a service gallery",
	Args:  cobra.ExactArgs(2),
	RunE:  runBusinessLike,
}

var businessReviewCmd = &cobra.Command{
	Use:   "review [business-id]",
	Short: "Write a review",
	Args:  cobra.ExactArgs(1),
	RunE:  runBusinessReview,
}

var businessHelpfulCmd = &cobra.Command{
	Use:   "helpful [business-id] [review-id]",
	Short: "Mark a review as helpful",
	Args:  cobra.ExactArgs(2),
	RunE:  runBusinessHelpful,
}

var businessReportCmd = &cobra.Command{
	Use:   "report [business-id]",
	Short: "Report a business, or one of its reviews with --review",
	Args:  cobra.ExactArgs(1),
	RunE:  runBusinessReport,
}

func init() {
	businessShowCmd.Flags().String("format", "table", "Output format: json, table")
	businessReviewCmd.Flags().Int("rating", 0, "Rating from 1 to 5")
	businessReviewCmd.Flags().String("comment", "", "Review text")
	businessReportCmd.Flags().String("reason", "", "Why you are reporting")
	businessReportCmd.Flags().String("review", "", "Report this review instead of the business")

	businessCmd.AddCommand(businessShowCmd, businessFollowCmd, businessLikeCmd,
		businessReviewCmd, businessHelpfulCmd, businessReportCmd)
	rootCmd.AddCommand(businessCmd)
}

// loadProfile loads a profile for the current viewer, anonymous when nobody
// is signed in.
func loadProfile(ctx context.Context, id string) (*business.Profile, error) {
	svc, err := newServices()
	if err != nil {
		return nil, err
	}
	viewerID := ""
	if user, err := svc.auth.CurrentUser(ctx); err == nil && user != nil {
		viewerID = user.ID
	} else if err != nil && !apperr.IsKind(err, apperr.Unauthorized) {
		return nil, err
	}

	profile := business.NewProfile(svc.business, viewerID)
	spin := ui.NewSpinner(os.Stderr)
	spin.Start("Loading business profile...")
	err = profile.Load(ctx, id)
	spin.Stop()
	if err != nil {
		return nil, err
	}
	return profile, nil
}

func runBusinessShow(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")
	profile, err := loadProfile(context.Background(), args[0])
	if err != nil {
		return err
	}
	if format == "json" {
		return printJSON(os.Stdout, profile.View())
	}
	printBusiness(os.Stdout, profile.View())
	return nil
}

func runBusinessFollow(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	profile, err := loadProfile(ctx, args[0])
	if err != nil {
		return err
	}
	if err := profile.ToggleFollow(ctx); err != nil {
		return err
	}
	view := profile.View()
	verb := "Unfollowed"
	if view.Following {
		verb = "Following"
	}
	fmt.Fprintf(os.Stdout, "%s %s (%d followers)\n", verb, view.Business.Name, view.Followers)
	return nil
}

func runBusinessLike(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	profile, err := loadProfile(ctx, args[0])
	if err != nil {
		return err
	}
	gallery := args[1]
	if err := profile.ToggleLike(ctx, gallery); err != nil {
		return err
	}
	r := profile.View().Reactions[gallery]
	verb := "Unliked"
	if r.Liked {
		verb = "Liked"
	}
	fmt.Fprintf(os.Stdout, "%s %q (%d likes)\n", verb, gallery, r.Likes)
	return nil
}

func runBusinessReview(cmd *cobra.Command, args []string) error {
	rating, _ := cmd.Flags().GetInt("rating")
	comment, _ := cmd.Flags().GetString("comment")
	ctx := context.Background()

	profile, err := loadProfile(ctx, args[0])
	if err != nil {
		return err
	}
	if err := profile.SubmitReview(ctx, rating, strings.TrimSpace(comment)); err != nil {
		return err
	}
	stats := profile.View().Stats
	fmt.Fprintf(os.Stdout, "Review submitted. Average is now %.1f from %d reviews.\n", stats.Average, stats.Total)
	return nil
}

func runBusinessHelpful(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	profile, err := loadProfile(ctx, args[0])
	if err != nil {
		return err
	}
	if err := profile.MarkHelpful(ctx, args[1]); err != nil {
		return err
	}
	for _, r := range profile.View().Reviews {
		if r.ID == args[1] {
			fmt.Fprintf(os.Stdout, "Marked helpful (%d people found this helpful)\n", r.HelpfulCount)
			return nil
		}
	}
	fmt.Fprintln(os.Stdout, "Marked helpful.")
	return nil
}

func runBusinessReport(cmd *cobra.Command, args []string) error {
	reason, _ := cmd.Flags().GetString("reason")
	reviewID, _ := cmd.Flags().GetString("review")
	ctx := context.Background()

	profile, err := loadProfile(ctx, args[0])
	if err != nil {
		return err
	}
	if reviewID != "" {
		err = profile.ReportReview(ctx, reviewID, reason)
	} else {
		err = profile.ReportBusiness(ctx, reason)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, "Thanks, your report has been sent.")
	return nil
}
