package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/cuongbtq/farmhand/internal/client/auth"
)

// AuthLoginAction signs in with email and password and stores the session
func AuthLoginAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if !appCtx.Auth.Configured() {
		return ErrUnconfigured
	}

	email := strings.TrimSpace(cmd.String("email"))
	if email == "" {
		return errors.New("email is required")
	}

	password := cmd.String("password")
	if password == "" {
		if password, err = promptPassword(cmd); err != nil {
			return err
		}
	}

	s, err := appCtx.Auth.SignIn(ctx, email, password)
	if err != nil {
		return fmt.Errorf("sign-in failed: %w", err)
	}

	fmt.Fprintf(stdout(cmd), "Signed in as %s (%s).\n", s.Email, s.Role)
	return nil
}

// promptPassword reads one line from the command's reader
func promptPassword(cmd *cli.Command) (string, error) {
	var in io.Reader = os.Stdin
	if r := cmd.Root().Reader; r != nil {
		in = r
	}

	fmt.Fprint(stderr(cmd), "Password: ")
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}

	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", errors.New("password is required")
	}
	return password, nil
}

// AuthLogoutAction forgets the stored session
func AuthLogoutAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	if err := appCtx.Auth.SignOut(); err != nil {
		return err
	}

	fmt.Fprintln(stdout(cmd), "Signed out.")
	return nil
}

// AuthWhoamiAction prints the stored session. With --verify the access token
// is checked against the provider.
func AuthWhoamiAction(ctx context.Context, cmd *cli.Command) error {
	appCtx, err := openApp(ctx, cmd)
	if err != nil {
		return err
	}
	defer appCtx.Close()

	s := appCtx.Session
	out := stdout(cmd)

	switch {
	case !s.Configured():
		return ErrUnconfigured
	case !s.SignedIn():
		fmt.Fprintln(out, "Not signed in.")
		return nil
	}

	fmt.Fprintf(out, "User:    %s\n", s.UserID)
	if s.Email != "" {
		fmt.Fprintf(out, "Email:   %s\n", s.Email)
	}
	fmt.Fprintf(out, "Role:    %s\n", s.Role)
	fmt.Fprintf(out, "Home:    %s\n", s.Role.DefaultPath())
	if !s.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "Expires: %s\n", s.ExpiresAt.Format(time.RFC3339))
	}

	if !cmd.Bool("verify") {
		return nil
	}

	user, err := appCtx.Auth.User(ctx, s.AccessToken)
	if errors.Is(err, auth.ErrInvalidToken) {
		return fmt.Errorf("stored session is no longer valid, sign in again: %w", err)
	}
	if err != nil {
		return err
	}

	if user.Name != "" {
		fmt.Fprintf(out, "Name:    %s\n", user.Name)
	}
	if user.FarmName != "" {
		fmt.Fprintf(out, "Farm:    %s\n", user.FarmName)
	}
	fmt.Fprintln(out, "Token:   valid")
	return nil
}
