// Package tunnel supervises port-forwarding tunnels.
//
// Each Endpoint forwards one local source port to one destination port
// using one of three strategies:
//
//   - direct-ssh: a single `ssh -L` to a host.
//   - direct-kubectl: a single `kubectl port-forward` from the local machine.
//   - tunneled-kubectl: kubectl runs on an intermediate client host reached
//     over ssh (optionally through a teleport jump host) and binds an
//     ephemeral port, which is scraped from its output and forwarded to the
//     local source port by a second ssh process.
//
// An Orchestrator runs one Loop per endpoint. A Loop runs one Attempt at a
// time and starts a new one a fixed backoff after the previous attempt
// ended, forever, until its context is cancelled. All external processes
// are started through a Runner, and every process started by an attempt is
// terminated and reaped before the attempt returns.
package tunnel
