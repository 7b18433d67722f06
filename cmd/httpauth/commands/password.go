package commands

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// PasswordEnv names the environment variable consulted when --password is
// not given.
const PasswordEnv = "HTTPAUTH_PASSWORD"

// readPassword returns the password from the flag, PasswordEnv, or a
// prompt on stdin. Terminal input is not echoed.
func readPassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if env := os.Getenv(PasswordEnv); env != "" {
		return env, nil
	}

	fmt.Fprint(cmd.ErrOrStderr(), "Password: ")

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(b), nil
	}

	// Piped input: one line.
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return "", errors.New("password is required (use --password, " + PasswordEnv + " or stdin)")
	}
	return strings.TrimRight(line, "\r\n"), nil
}
