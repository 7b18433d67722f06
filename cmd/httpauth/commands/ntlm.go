package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smnsjas/go-httpauth/auth"
	"github.com/smnsjas/go-httpauth/challenge"
)

func newNTLMCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ntlm",
		Short: "Build NTLM handshake messages",
		Long: `Build the client side of the NTLM handshake.

Run "type1" to start, send its output to the server, then pass the
server's "NTLM <base64>" challenge to "type3".`,
	}
	cmd.AddCommand(newType1Cmd(a))
	cmd.AddCommand(newType3Cmd(a))
	return cmd
}

// ntlmTarget holds the workstation and domain flags shared by both steps.
type ntlmTarget struct {
	host, domain string
}

func (t *ntlmTarget) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&t.host, "host", "", "Workstation name (overrides config)")
	cmd.Flags().StringVar(&t.domain, "domain", "", "NT domain (overrides config and a DOMAIN\\ user prefix)")
}

func (t *ntlmTarget) resolve(a *app) (host, domain string) {
	host, domain = t.host, t.domain
	if host == "" {
		host = a.cfg.NTLM.Host
	}
	if domain == "" {
		domain = a.cfg.NTLM.Domain
	}
	return host, domain
}

func newType1Cmd(a *app) *cobra.Command {
	var target ntlmTarget

	cmd := &cobra.Command{
		Use:   "type1",
		Short: "Print the NTLM Type 1 (negotiate) header value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			host, domain := target.resolve(a)

			scheme := auth.NewNTLMScheme(auth.WithLogger(a.logger))
			if err := scheme.ProcessChallenge(auth.NTLMName); err != nil {
				return err
			}
			// A Type 1 message carries no user name or password.
			value, err := scheme.Authenticate(auth.NewNTCredentials("", "", host, domain))
			if err != nil {
				return err
			}
			return a.printValue(cmd, value)
		},
	}
	target.register(cmd)
	return cmd
}

func newType3Cmd(a *app) *cobra.Command {
	var (
		target                          ntlmTarget
		challengeValue, user, password string
		charsetName                     string
	)

	cmd := &cobra.Command{
		Use:   "type3",
		Short: "Answer an NTLM Type 2 challenge with a Type 3 header value",
		Long: `Answer the server's "NTLM <base64>" challenge.

--user may be given as DOMAIN\user; an explicit --domain wins over the
prefix, and the prefix wins over the configured domain.`,
		Example: `  httpauth ntlm type3 --user 'CORP\alice' --host WS01 \
    --challenge 'NTLM TlRMTVNTUAACAAAAAAAAACgAAAABggAAU3J2Tm9uY2UAAAAAAAAAAA=='`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := lookupCharset(charsetName, "")
			if err != nil {
				return err
			}
			set, err := challenge.Parse([]string{challengeValue})
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			host, domain := target.resolve(a)
			creds := auth.ParseNTCredentials(user, pw, host)
			switch {
			case target.domain != "":
				creds.Domain = target.domain
			case creds.Domain == "":
				creds.Domain = domain
			}

			proc := a.processor(enc)
			state := auth.NewState()
			scheme, err := proc.Process(state, set, auth.WithPriority(auth.NTLMName))
			if err != nil {
				return err
			}
			if s, ok := scheme.(*auth.NTLMScheme); ok && s.State() != auth.StateType2Received {
				return errors.New("challenge carries no Type 2 message; run \"ntlm type1\" first")
			}

			value, err := proc.Authenticate(state, creds)
			if err != nil {
				return fmt.Errorf("ntlm type3: %w", err)
			}
			return a.printValue(cmd, value)
		},
	}

	target.register(cmd)
	cmd.Flags().StringVarP(&challengeValue, "challenge", "c", "", "Server challenge, \"NTLM <base64>\" (required)")
	cmd.Flags().StringVarP(&user, "user", "u", "", "User name, optionally DOMAIN\\user (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (use "+PasswordEnv+" instead)")
	cmd.Flags().StringVar(&charsetName, "charset", "", "Charset for the user name (default US-ASCII)")
	_ = cmd.MarkFlagRequired("challenge")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
