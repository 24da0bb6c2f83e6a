package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/davarch/tenant-console/internal/domain"
	"github.com/davarch/tenant-console/internal/infrastructure/session_fs"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	loginUser     string
	loginPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		user := loginUser
		pass := firstNonEmpty(loginPassword, os.Getenv("CONSOLE_PASSWORD"))

		in := bufio.NewReader(os.Stdin)
		if user == "" {
			if user, err = prompt(in, "username: "); err != nil {
				return err
			}
		}
		if pass == "" {
			if pass, err = prompt(in, "password: "); err != nil {
				return err
			}
		}

		tok, err := d.api.Login(cmd.Context(), user, pass)
		if err != nil {
			if errors.Is(err, domain.ErrAuthRejected) {
				return errors.New("login failed: incorrect username or password")
			}
			return fmt.Errorf("login: %w", err)
		}

		if err := d.session.SetToken(tok); err != nil {
			return fmt.Errorf("store session: %w", err)
		}

		d.log.Info("signed in", zap.String("user", user))
		color.Green("signed in as %s", user)
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		if err := d.session.Clear(); err != nil {
			return err
		}
		fmt.Println("signed out")
		return nil
	},
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Show the stored session identity and expiry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := setup()
		if err != nil {
			return err
		}
		defer d.close()

		tok, ok := d.session.Token()
		if !ok {
			return domain.ErrNoSession
		}

		c, err := session_fs.Inspect(tok)
		if err != nil {
			// opaque tokens are valid credentials too
			fmt.Println("session: present (opaque token)")
			return nil
		}

		fmt.Printf("subject: %s\n", c.Subject)
		switch {
		case c.ExpiresAt.IsZero():
			fmt.Println("expires: never")
		case c.Expired(time.Now()):
			color.Red("expired: %s", c.ExpiresAt.Local().Format(time.RFC3339))
		default:
			fmt.Printf("expires: %s (in %s)\n", c.ExpiresAt.Local().Format(time.RFC3339), time.Until(c.ExpiresAt).Round(time.Second))
		}
		return nil
	},
}

func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Fprint(os.Stderr, label)
	line, err := in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("%sempty input", label)
	}
	return line, nil
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	loginCmd.Flags().StringVarP(&loginUser, "username", "u", "", "operator username")
	loginCmd.Flags().StringVarP(&loginPassword, "password", "p", "", "operator password (or CONSOLE_PASSWORD)")

	rootCmd.AddCommand(loginCmd, logoutCmd, sessionCmd)
}
