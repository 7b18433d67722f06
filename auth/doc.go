// Package auth implements client-side HTTP challenge-response authentication.
//
// # Supported Schemes
//
//   - Basic: RFC 7617, single round, not connection-based (use only over TLS)
//   - NTLM: LM-response handshake bound to one connection
//
// Digest keeps its place in the default priority order but has no
// implementation; register a Factory under "digest" to provide one.
//
// # Components
//
// A Registry maps scheme names to factories and picks the strongest scheme
// a server offers. A State tracks the scheme and flags for one realm or
// connection. A Processor ties both together and emits audit events and
// metrics.
//
// # Usage
//
// Answering a 401:
//
//	proc := auth.NewProcessor(auth.DefaultRegistry())
//	state := auth.NewState()
//
//	set, _ := challenge.FromHeader(resp.Header, false)
//	if _, err := proc.Process(state, set); err != nil {
//	    return err
//	}
//	value, err := proc.Authenticate(state, auth.NewNTCredentials("user", "pass", "WORKSTATION", "DOMAIN"))
//	req.Header.Set(challenge.Authorization, value)
//
// Sending Basic credentials before any challenge:
//
//	value, err := proc.Preempt(state, auth.UsernamePasswordCredentials{Username: "user", Password: "pass"})
//
// The package does no I/O. Retrying after a 401, and opening a new
// connection when a connection-based scheme must restart, are up to the
// caller.
package auth
