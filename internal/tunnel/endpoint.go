package tunnel

import (
	"fmt"

	"tunnelo/internal/config"
)

// Kind is the transport strategy of an endpoint.
type Kind string

const (
	KindDirectSSH       Kind = "direct-ssh"
	KindDirectKubectl   Kind = "direct-kubectl"
	KindTunneledKubectl Kind = "tunneled-kubectl"
)

// Teleport describes the tsh jump host of a tunneled kubectl endpoint.
type Teleport struct {
	Host        string
	SSHJumpArgs []string
}

// Sudo is the privilege elevation applied to the remote kubectl.
type Sudo struct {
	Enabled bool
	User    string
}

// Endpoint is one tunnel the orchestrator keeps alive: a single source
// port forwarded to a single destination port. It is immutable once built.
type Endpoint struct {
	Kind            Kind
	SourcePort      int
	DestinationPort int

	// Host is the ssh host for KindDirectSSH and the intermediate client
	// host running kubectl for KindTunneledKubectl.
	Host    string
	SSHArgs []string

	Resource    string
	Context     string
	Namespace   string
	KubectlArgs []string
	Sudo        Sudo

	// Teleport is optional, KindTunneledKubectl only.
	Teleport *Teleport
}

// Name is the human readable identity used to tag logs, e.g.
// "svc/web:8080->80" or "db1:5432->5432".
func (e Endpoint) Name() string {
	target := e.Resource
	if e.Kind == KindDirectSSH {
		target = e.Host
	}
	return fmt.Sprintf("%s:%d->%d", target, e.SourcePort, e.DestinationPort)
}

// Expand turns validated host definitions into one endpoint per declared
// port, in declaration order.
func Expand(hosts []config.HostConfig) []Endpoint {
	var endpoints []Endpoint
	for _, h := range hosts {
		switch h.Mode {
		case config.ModeSSH:
			for _, m := range h.Mounts {
				endpoints = append(endpoints, Endpoint{
					Kind:            KindDirectSSH,
					SourcePort:      m.SrcPort,
					DestinationPort: m.DstPort,
					Host:            h.Hostname,
					SSHArgs:         clone(h.SSHArgs),
				})
			}
		case config.ModeKubectl, config.ModeTunneledKubectl:
			for _, r := range h.Resources {
				for _, p := range r.Ports {
					endpoints = append(endpoints, kubectlEndpoint(h, r.Resource, p))
				}
			}
		}
	}
	return endpoints
}

func kubectlEndpoint(h config.HostConfig, resource string, port config.Mount) Endpoint {
	ep := Endpoint{
		Kind:            KindDirectKubectl,
		SourcePort:      port.SrcPort,
		DestinationPort: port.DstPort,
		Resource:        resource,
		Context:         h.Context,
		Namespace:       h.Namespace,
		KubectlArgs:     clone(h.KubectlArgs),
	}
	if h.Mode != config.ModeTunneledKubectl {
		return ep
	}

	ep.Kind = KindTunneledKubectl
	ep.Host = h.RemoteKubeClient
	ep.SSHArgs = clone(h.SSHArgs)
	ep.Sudo = Sudo{Enabled: h.Sudo.Enabled, User: h.Sudo.User}
	if h.Teleport != nil {
		ep.Teleport = &Teleport{
			Host:        h.Teleport.Host,
			SSHJumpArgs: clone(h.Teleport.SSHJumpArgs),
		}
	}
	return ep
}

func clone(args []string) []string {
	if len(args) == 0 {
		return nil
	}
	return append([]string(nil), args...)
}
