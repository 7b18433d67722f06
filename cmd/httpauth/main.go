// Command httpauth prints HTTP authentication header values for Basic and
// NTLM, and shows which scheme a set of challenges selects. It performs no
// network I/O.
//
// Passwords are read from, in order:
//   - the --password flag
//   - the HTTPAUTH_PASSWORD environment variable (recommended)
//   - an interactive prompt
//
// Example:
//
//	export HTTPAUTH_PASSWORD='secret'
//	httpauth ntlm type1 --host WORKSTATION --domain CORP
//	httpauth ntlm type3 --user 'CORP\alice' --challenge "NTLM TlRMTVNTUAACAAAA..."
package main

import (
	"fmt"
	"os"

	"github.com/smnsjas/go-httpauth/cmd/httpauth/commands"
)

// Build-time variables injected via ldflags
var version = "dev"

func main() {
	commands.Version = version

	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
