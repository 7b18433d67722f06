package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smnsjas/go-httpauth/auth"
	"github.com/smnsjas/go-httpauth/challenge"
)

func newSelectCmd(a *app) *cobra.Command {
	var (
		challenges []string
		priority   []string
	)

	cmd := &cobra.Command{
		Use:   "select",
		Short: "Show which scheme a set of challenges selects",
		Long: `Show the scheme httpauth would answer for the given challenges.

Pass one --challenge per WWW-Authenticate (or Proxy-Authenticate) value.
Schemes are tried in --priority order, or the configured priority.`,
		Example: `  httpauth select --challenge 'Basic realm="intranet"' --challenge NTLM
  httpauth select --priority basic --challenge 'Basic realm="x"' --challenge NTLM`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := challenge.Parse(challenges)
			if err != nil {
				return err
			}

			var opts []auth.SelectOption
			if len(priority) > 0 {
				opts = append(opts, auth.WithPriority(priority...))
			}
			scheme, err := a.processor(nil).Select(set, opts...)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "scheme:           %s\n", scheme.Name())
			fmt.Fprintf(w, "realm:            %s\n", scheme.Realm())
			fmt.Fprintf(w, "connection-based: %t\n", scheme.ConnectionBased())
			_, err = fmt.Fprintf(w, "response header:  %s\n", challenge.ResponseHeader(a.proxy))
			return err
		},
	}

	cmd.Flags().StringArrayVarP(&challenges, "challenge", "c", nil, "Challenge header value (repeatable, required)")
	cmd.Flags().StringSliceVar(&priority, "priority", nil, "Scheme order, e.g. ntlm,basic (overrides config)")
	_ = cmd.MarkFlagRequired("challenge")

	return cmd
}
