package commands

import (
	"github.com/spf13/cobra"

	"github.com/smnsjas/go-httpauth/auth"
)

func newBasicCmd(a *app) *cobra.Command {
	var user, password, charsetName string

	cmd := &cobra.Command{
		Use:   "basic",
		Short: "Print a Basic authorization header value",
		Long: `Print the Basic credentials for --user as they would be sent
preemptively, before the server asks.

The user name and password are encoded in --charset, or the configured
charset (ISO-8859-1 by default).`,
		Example: `  httpauth basic --user Aladdin --password 'open sesame'
  HTTPAUTH_PASSWORD=secret httpauth basic --user alice --charset UTF-8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc, err := lookupCharset(charsetName, a.cfg.Charset)
			if err != nil {
				return err
			}
			pw, err := readPassword(cmd, password)
			if err != nil {
				return err
			}

			creds := auth.UsernamePasswordCredentials{Username: user, Password: pw}
			value, err := a.processor(enc).Preempt(auth.NewState(), creds)
			if err != nil {
				return err
			}
			return a.printValue(cmd, value)
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "User name (required)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Password (use "+PasswordEnv+" instead)")
	cmd.Flags().StringVar(&charsetName, "charset", "", "Credential charset (overrides config)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}
