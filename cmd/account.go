package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conceptclarity/clarity/internal/gateway"
)

var loginCmd = &cobra.Command{
	Use:   "login <username-or-email>",
	Short: "Sign in and store the session token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			st, err := c.shell.Login(ctx, gateway.Credentials{Identifier: args[0], Password: password})
			if err != nil {
				return explain(err, "Incorrect credentials. Please try again.")
			}
			fmt.Printf("Signed in as %s.\n", st.Username)
			return nil
		})
	},
}

var signupCmd = &cobra.Command{
	Use:   "signup",
	Short: "Create an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		form := gateway.SignupForm{}
		form.Email, _ = cmd.Flags().GetString("email")
		form.Username, _ = cmd.Flags().GetString("username")
		form.Role, _ = cmd.Flags().GetString("role")
		form.Language, _ = cmd.Flags().GetString("language")
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		form.Password = password
		form.ConfirmPassword = password

		if err := gateway.Validate(form); err != nil {
			return explain(err, "")
		}
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.gw.Signup(ctx, form); err != nil {
				return explain(err, "")
			}
			id := form.Username
			if id == "" {
				id = form.Email
			}
			if _, err := c.shell.Login(ctx, gateway.Credentials{Identifier: id, Password: password}); err != nil {
				return explain(err, "Account created, but signing in failed.")
			}
			fmt.Printf("Welcome, %s! You are signed in.\n", id)
			return nil
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client) error {
			if err := c.shell.Logout(ctx); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		})
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(cmd, func(ctx context.Context, c *client) error {
			p, err := c.shell.Profile(ctx)
			if err != nil {
				return explain(err, "")
			}
			fmt.Printf("Username:  %s\n", p.Username)
			if p.Email != "" {
				fmt.Printf("Email:     %s\n", p.Email)
			}
			if name := strings.TrimSpace(p.FirstName + " " + p.LastName); name != "" {
				fmt.Printf("Name:      %s\n", name)
			}
			fmt.Printf("Role:      %s\n", p.Role)
			fmt.Printf("Language:  %s\n", p.Language)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, signupCmd, adminLoginCmd} {
		c.Flags().String("password", "", "Password (default CLARITY_PASSWORD, else read from stdin)")
	}
	signupCmd.Flags().String("email", "", "Email address")
	signupCmd.Flags().String("username", "", "Username")
	signupCmd.Flags().String("role", "general_user", "One of "+strings.Join(gateway.Roles, ", "))
	signupCmd.Flags().String("language", "", "Preferred language: en, te or hi")
}

// readPassword takes --password, then CLARITY_PASSWORD, then one line of
// stdin.
func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	if p := os.Getenv("CLARITY_PASSWORD"); p != "" {
		return p, nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// explain turns gateway errors into messages fit for the terminal.
// authMsg replaces the generic text for rejected credentials.
func explain(err error, authMsg string) error {
	var verr *gateway.ValidationError
	switch {
	case errors.As(err, &verr):
		return verr
	case errors.Is(err, gateway.ErrAuth) && authMsg != "":
		return errors.New(authMsg)
	case errors.Is(err, gateway.ErrAuth):
		return errors.New("not signed in or session expired, run `clarity login`")
	case errors.Is(err, gateway.ErrTransport):
		return fmt.Errorf("the server could not be reached at %s: %w", cfg.Gateway.URL, err)
	}
	return err
}
