package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
	"github.com/spf13/cobra"
)

var loginPassword string

var loginCmd = &cobra.Command{
	Use:   "login <email>",
	Short: "Sign in and keep the session on disk",
	Args:  cobra.ExactArgs(1),
	RunE:  runLogin,
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and remove the stored session",
	RunE:  runLogout,
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in account",
	RunE:  runWhoami,
}

func init() {
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "password (default: $PORTAL_PASSWORD, then stdin)")
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func runLogin(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	password, err := readPassword(cmd)
	if err != nil {
		return err
	}
	resp, _, err := a.auth.Login(cmd.Context(), domain.LoginRequest{Email: args[0], Password: password}, a.profile.Company)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s (%s)\n", resp.User.Email, resp.User.Role)
	return nil
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	a.auth.Logout(cmd.Context(), a.store, a.profile.Company)
	fmt.Fprintln(cmd.OutOrStdout(), "signed out")
	return nil
}

func runWhoami(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	user, err := a.auth.Me(cmd.Context(), a.store)
	if err != nil {
		return err
	}
	if jsonOutput {
		return printJSON(cmd, user)
	}
	w := table(cmd)
	fmt.Fprintf(w, "ID\t%s\n", user.ID)
	fmt.Fprintf(w, "Email\t%s\n", user.Email)
	fmt.Fprintf(w, "Role\t%s\n", user.Role)
	fmt.Fprintf(w, "Company\t%s\n", user.CompanyID)
	return w.Flush()
}

func readPassword(cmd *cobra.Command) (string, error) {
	if loginPassword != "" {
		return loginPassword, nil
	}
	if p := os.Getenv("PORTAL_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("no password given")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
