package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var signupDeviceID string

var signupCmd = &cobra.Command{
	Use:   "signup <email>",
	Short: "Create an account and sign in",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSignUp,
}

var signinCmd = &cobra.Command{
	Use:   "signin <email>",
	Short: "Sign in and keep the session",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSignIn,
}

var signoutCmd = &cobra.Command{
	Use:   "signout",
	Short: "Sign out and forget the session",
	RunE:  runSignOut,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoAmI,
}

func init() {
	signupCmd.Flags().StringVar(&signupDeviceID, "device", "", "composter device id (defaults to the server's)")
	rootCmd.AddCommand(signupCmd, signinCmd, signoutCmd, whoamiCmd)
}

func runSignUp(cmd *cobra.Command, args []string) error {
	e := envFrom(cmd)
	email, err := emailArg(args)
	if err != nil {
		return err
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		return err
	}
	confirm, err := readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return fmt.Errorf("passwords do not match")
	}
	if err := e.holder.SignUp(cmd.Context(), email, password, signupDeviceID); err != nil {
		return fmt.Errorf("sign up failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Account created, signed in as %s\n", email)
	return nil
}

func runSignIn(cmd *cobra.Command, args []string) error {
	e := envFrom(cmd)
	email, err := emailArg(args)
	if err != nil {
		return err
	}
	password, err := readPassword("Enter password: ")
	if err != nil {
		return err
	}
	if err := e.holder.SignIn(cmd.Context(), email, password); err != nil {
		return fmt.Errorf("sign in failed: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", email)
	return nil
}

func runSignOut(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if err := e.holder.SignOut(cmd.Context()); err != nil {
		return fmt.Errorf("sign out failed: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}

func runWhoAmI(cmd *cobra.Command, _ []string) error {
	e := envFrom(cmd)
	if _, err := requireUser(e); err != nil {
		return err
	}
	profile, err := e.client.Profile(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to load profile: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID: %s\n", profile.ID)
	fmt.Fprintf(out, "Email: %s\n", profile.Email)
	fmt.Fprintf(out, "Device: %s\n", profile.DeviceID)
	fmt.Fprintf(out, "Created: %s\n", profile.CreatedAt.Format("2006-01-02 15:04:05"))
	return nil
}

func emailArg(args []string) (string, error) {
	if len(args) == 1 {
		return strings.TrimSpace(args[0]), nil
	}
	fmt.Print("Enter email: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read email: %w", err)
	}
	email := strings.TrimSpace(line)
	if email == "" {
		return "", fmt.Errorf("email cannot be empty")
	}
	return email, nil
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	raw, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	if len(raw) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(raw), nil
}
