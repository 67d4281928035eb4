package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"
	"github.com/spiffcs/storefront/internal/forms"
	"github.com/spiffcs/storefront/internal/log"
	"github.com/spiffcs/storefront/internal/model"
	"github.com/spiffcs/storefront/internal/shopclient"
)

// errInvalidInput is returned after field errors have been printed.
var errInvalidInput = errors.New("please correct the errors above")

// NewCmdLogin creates the login command.
func NewCmdLogin() *cobra.Command {
	var email string
	var verbosity int

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the shop",
		Long: `Sign in with your email and password. The password is read without
echo. The access token is saved to the session file in your config directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Initialize(verbosity, cmd.ErrOrStderr())
			return runLogin(cmd, email)
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email (prompted if not set)")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	return cmd
}

// NewCmdRegister creates the register command.
func NewCmdRegister() *cobra.Command {
	var reg model.Registration
	var verbosity int

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a shop account",
		Long: `Create an account. Any field not given as a flag is prompted for;
passwords are always prompted. On success you are signed in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Initialize(verbosity, cmd.ErrOrStderr())
			return runRegister(cmd, reg)
		},
	}

	cmd.Flags().StringVar(&reg.Name, "name", "", "Full name")
	cmd.Flags().StringVar(&reg.Email, "email", "", "Account email")
	cmd.Flags().StringVar(&reg.EducationStartDate, "start-date", "", "Education start date ("+forms.DateLayout+")")
	cmd.Flags().StringVar(&reg.EducationEndDate, "end-date", "", "Education end date ("+forms.DateLayout+")")
	cmd.Flags().BoolVar(&reg.Terms, "accept-terms", false, "Accept the terms and conditions")
	cmd.Flags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug, -vvv trace)")
	return cmd
}

// NewCmdLogout creates the logout command.
func NewCmdLogout() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the saved token",
		Args:  cobra.NoArgs,
		RunE:  runLogout,
	}
}

// NewCmdWhoami creates the whoami command.
func NewCmdWhoami() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runLogin(cmd *cobra.Command, email string) error {
	shop, err := loadShop()
	if err != nil {
		return err
	}

	p := newPrompter(cmd)
	email, err = p.line("Email", email)
	if err != nil {
		return err
	}
	password, err := p.secret("Password")
	if err != nil {
		return err
	}

	creds := model.LoginCredentials{Email: email, Password: password}
	if err := forms.New().Login(creds); err != nil {
		return reportFieldErrors(cmd.ErrOrStderr(), err)
	}

	resp, err := shop.client.Login(cmd.Context(), creds)
	if err != nil {
		return reportFieldErrors(cmd.ErrOrStderr(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s.\n", displayName(resp.User, creds.Email))
	return nil
}

func runRegister(cmd *cobra.Command, reg model.Registration) error {
	shop, err := loadShop()
	if err != nil {
		return err
	}

	p := newPrompter(cmd)
	if reg.Name, err = p.line("Name", reg.Name); err != nil {
		return err
	}
	if reg.Email, err = p.line("Email", reg.Email); err != nil {
		return err
	}
	if reg.EducationStartDate, err = p.line("Education start date ("+forms.DateLayout+")", reg.EducationStartDate); err != nil {
		return err
	}
	if reg.EducationEndDate, err = p.line("Education end date ("+forms.DateLayout+")", reg.EducationEndDate); err != nil {
		return err
	}
	if reg.Password, err = p.secret("Password"); err != nil {
		return err
	}
	if reg.PasswordConfirmation, err = p.secret("Confirm password"); err != nil {
		return err
	}
	if !reg.Terms {
		if reg.Terms, err = p.confirm("Accept the terms and conditions?"); err != nil {
			return err
		}
	}

	if err := forms.New().Registration(reg); err != nil {
		return reportFieldErrors(cmd.ErrOrStderr(), err)
	}

	resp, err := shop.client.Register(cmd.Context(), reg)
	if err != nil {
		return reportFieldErrors(cmd.ErrOrStderr(), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Account created. Logged in as %s.\n", displayName(resp.User, reg.Email))
	return nil
}

func runLogout(cmd *cobra.Command, _ []string) error {
	shop, err := loadShop()
	if err != nil {
		return err
	}
	if !shop.sess.LoggedIn() {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}

	if err := shop.client.Logout(cmd.Context()); err != nil {
		// the local session is gone either way
		log.Warn("server logout failed", "error", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
	return nil
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	shop, err := loadShop()
	if err != nil {
		return err
	}
	if err := shop.sess.Require(); err != nil {
		return err
	}

	user, err := shop.client.CurrentUser(cmd.Context())
	if err != nil {
		return err
	}
	if err := shop.sess.SetUser(user); err != nil {
		log.Warn("failed to update saved user", "error", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s>\n", user.Name, user.Email)
	if user.EducationStartDate != "" || user.EducationEndDate != "" {
		fmt.Fprintf(out, "  education: %s to %s\n", user.EducationStartDate, user.EducationEndDate)
	}
	return nil
}

// reportFieldErrors prints per-field validation errors from local checks or
// the server and returns errInvalidInput. Other errors are returned as is.
func reportFieldErrors(w io.Writer, err error) error {
	var local forms.FieldErrors
	if errors.As(err, &local) {
		for _, field := range sortedKeys(local) {
			fmt.Fprintf(w, "  %s: %s\n", field, local[field])
		}
		return errInvalidInput
	}

	var apiErr *shopclient.APIError
	if errors.As(err, &apiErr) && len(apiErr.Errors) > 0 {
		if apiErr.Message != "" {
			fmt.Fprintln(w, apiErr.Message)
		}
		for _, field := range sortedKeys(apiErr.Errors) {
			for _, msg := range apiErr.Errors[field] {
				fmt.Fprintf(w, "  %s: %s\n", field, msg)
			}
		}
		return errInvalidInput
	}

	return err
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func displayName(u *model.User, fallback string) string {
	if u == nil || u.Name == "" {
		return fallback
	}
	return u.Name
}
