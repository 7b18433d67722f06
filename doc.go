// Package httpauth is the client side of HTTP challenge-response
// authentication: it reads WWW-Authenticate and Proxy-Authenticate
// challenges, picks a scheme, and produces Authorization and
// Proxy-Authorization values for Basic and NTLM.
//
// It performs no network I/O. The caller sends requests and feeds the
// challenges it receives back in.
//
// # Architecture
//
// The library is organized into layers:
//
//	┌─────────────────────────────────────────────────────────┐
//	│  auth/         Processor, State, Registry, schemes      │
//	├─────────────────────────────────────────────────────────┤
//	│  challenge/    Challenge header parsing                 │
//	├─────────────────────────────────────────────────────────┤
//	│  ntlm/         NTLM Type 1/2/3 messages, LM response    │
//	└─────────────────────────────────────────────────────────┘
//
// # Quick Start
//
//	proc := auth.NewProcessor(auth.DefaultRegistry())
//	state := auth.NewState()
//
//	set, err := challenge.FromHeader(resp.Header, false)
//	if err != nil {
//	    return err
//	}
//	if _, err := proc.Process(state, set); err != nil {
//	    return err
//	}
//	value, err := proc.Authenticate(state, auth.NewNTCredentials("alice", "secret", "WS01", "CORP"))
//	if err != nil {
//	    return err
//	}
//	req.Header.Set(challenge.Authorization, value)
//
// NTLM authenticates a connection, not a request: send every leg of the
// handshake on the same keep-alive connection.
package httpauth
