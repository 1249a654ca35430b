package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lukman83/pricehub/internal/auth"
	"github.com/spf13/cobra"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Sign in, sign out and manage your account",
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in with email and password",
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	RunE:  runLogout,
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create a shopper account",
	RunE:  runRegister,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show who is signed in",
	RunE:  runWhoami,
}

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Update your name or phone number",
	RunE:  runProfile,
}

var passwordCmd = &cobra.Command{
	Use:   "password",
	Short: "Change your password",
	RunE:  runPassword,
}

var emailCmd = &cobra.Command{
	Use:   "email [new-email]",
	Short: "Change your account email",
	Args:  cobra.ExactArgs(1),
	RunE:  runEmail,
}

var deleteAccountCmd = &cobra.Command{
	Use:   "delete-account",
	Short: "Permanently delete your account",
	RunE:  runDeleteAccount,
}

func init() {
	loginCmd.Flags().String("email", "", "Account email")
	loginCmd.Flags().Bool("business", false, "Sign in to a business owner account")
	logoutCmd.Flags().Bool("business", false, "Sign out of the business owner account")
	registerCmd.Flags().String("email", "", "Account email")
	registerCmd.Flags().String("name", "", "Display name")
	registerCmd.Flags().String("phone", "", "Phone number in E.164 format, e.g. +254700000000")
	profileCmd.Flags().String("name", "", "New display name")
	profileCmd.Flags().String("phone", "", "New phone number in E.164 format")

	deleteAccountCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	authCmd.AddCommand(loginCmd, logoutCmd, registerCmd, whoamiCmd, profileCmd,
		passwordCmd, emailCmd, deleteAccountCmd)
	rootCmd.AddCommand(authCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		email = prompt(in, out, "Email: ")
	}
	creds := auth.Credentials{Email: email, Password: prompt(in, out, "Password: ")}
	ctx := context.Background()

	if b, _ := cmd.Flags().GetBool("business"); b {
		user, err := svc.owner.Login(ctx, creds)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Signed in to business account %s\n", user.Email)
		return nil
	}

	result, err := svc.auth.Login(ctx, creds)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Signed in as %s\n", result.User.Email)
	if result.ReturnURL != "" {
		fmt.Fprintf(out, "Continue with: pricehub %s\n", result.ReturnURL)
	}
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	if b, _ := cmd.Flags().GetBool("business"); b {
		svc.owner.Logout()
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out of the business account.")
		return nil
	}
	if err := svc.auth.Logout(context.Background()); err != nil {
		return err
	}
	if notice, ok := svc.auth.Notice(); ok {
		fmt.Fprintln(cmd.OutOrStdout(), notice)
	}
	return nil
}

func runRegister(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	reg := auth.Registration{}
	reg.Email, _ = cmd.Flags().GetString("email")
	reg.Name, _ = cmd.Flags().GetString("name")
	reg.Phone, _ = cmd.Flags().GetString("phone")
	if reg.Email == "" {
		reg.Email = prompt(in, out, "Email: ")
	}
	if reg.Name == "" {
		reg.Name = prompt(in, out, "Name: ")
	}
	reg.Password = prompt(in, out, "Password (min 8 characters): ")

	user, err := svc.auth.Register(context.Background(), reg)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Account created for %s\n", user.Email)
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	login := svc.header().LoginState(context.Background())
	out := cmd.OutOrStdout()
	if notice, ok := svc.auth.Notice(); ok {
		fmt.Fprintln(out, notice)
	}
	if !login.SignedIn {
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}
	fmt.Fprintf(out, "%s (%s account, id %s)\n", login.Greeting(), login.Source, login.User.ID)
	return nil
}

func runProfile(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	var upd auth.ProfileUpdate
	upd.Name, _ = cmd.Flags().GetString("name")
	upd.Phone, _ = cmd.Flags().GetString("phone")
	if upd.Name == "" && upd.Phone == "" {
		return fmt.Errorf("nothing to update: pass --name or --phone")
	}
	user, err := svc.auth.UpdateProfile(context.Background(), upd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Profile updated for %s\n", user.Email)
	return nil
}

func runPassword(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	change := auth.PasswordChange{
		Current: prompt(in, out, "Current password: "),
		New:     prompt(in, out, "New password: "),
	}
	if err := svc.auth.ChangePassword(context.Background(), change); err != nil {
		return err
	}
	fmt.Fprintln(out, "Password changed.")
	return nil
}

func runEmail(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	password := prompt(bufio.NewReader(cmd.InOrStdin()), out, "Password: ")
	if err := svc.auth.ChangeEmail(context.Background(), args[0], password); err != nil {
		return err
	}
	fmt.Fprintf(out, "Email changed to %s\n", args[0])
	return nil
}

func runDeleteAccount(cmd *cobra.Command, args []string) error {
	svc, err := newServices()
	if err != nil {
		return err
	}
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()
	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		answer := prompt(in, out, "This cannot be undone. Delete your account? [y/N] ")
		if !strings.EqualFold(answer, "y") && !strings.EqualFold(answer, "yes") {
			fmt.Fprintln(out, "Cancelled.")
			return nil
		}
	}
	del := auth.AccountDeletion{Password: prompt(in, out, "Password: ")}
	if err := svc.auth.DeleteAccount(context.Background(), del); err != nil {
		return err
	}
	fmt.Fprintln(out, "Account deleted.")
	return nil
}

// prompt reads one trimmed line from in. Input is echoed; pipe secrets in
// when that matters.
func prompt(in *bufio.Reader, out io.Writer, label string) string {
	fmt.Fprint(out, label)
	line, err := in.ReadString('\n')
	if err != nil && err != io.EOF {
		fmt.Fprintln(os.Stderr, err)
	}
	return strings.TrimSpace(line)
}
