package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"gopkg.in/yaml.v3"
)

// HostMode selects the transport used for every tunnel declared by a host.
type HostMode string

const (
	ModeSSH             HostMode = "ssh"
	ModeKubectl         HostMode = "kubectl"
	ModeTunneledKubectl HostMode = "tunneled_kubectl"
)

// File is the top-level structure of a tunnel definition file.
type File struct {
	Hosts []HostConfig `yaml:"hosts"`
}

// HostConfig declares one host and the tunnels to keep open through it.
// Which fields apply depends on Mode.
type HostConfig struct {
	Mode HostMode `yaml:"mode"`

	// Fields for Mode = "ssh"
	Hostname string  `yaml:"hostname,omitempty"`
	Mounts   []Mount `yaml:"mounts,omitempty"`

	// Fields for Mode = "ssh" and "tunneled_kubectl"
	SSHArgs Args `yaml:"ssh_args,omitempty"`

	// Fields for Mode = "kubectl" and "tunneled_kubectl"
	Resources   []KubectlResource `yaml:"resources,omitempty"`
	Context     string            `yaml:"context,omitempty"`
	Namespace   string            `yaml:"namespace,omitempty"`
	KubectlArgs Args              `yaml:"kubectl_args,omitempty"`
	Sudo        Sudo              `yaml:"sudo,omitempty"`

	// Fields for Mode = "tunneled_kubectl"
	RemoteKubeClient string          `yaml:"remote_kube_client,omitempty"`
	Teleport         *TeleportConfig `yaml:"teleport,omitempty"`
}

// KubectlResource is a Kubernetes resource (e.g. "svc/web") and the ports
// to forward to it.
type KubectlResource struct {
	Resource string  `yaml:"resource"`
	Ports    []Mount `yaml:"ports"`
}

// TeleportConfig routes a tunneled kubectl host through a tsh jump host.
type TeleportConfig struct {
	Host        string `yaml:"tsh_host"`
	SSHJumpArgs Args   `yaml:"tsh_ssh_jump_args,omitempty"`
}

// Mount is a "src:dst" port pair.
type Mount struct {
	SrcPort int
	DstPort int
}

// ParseMount parses a "src:dst" port pair.
func ParseMount(s string) (Mount, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Mount{}, fmt.Errorf("invalid port mapping %q: expected \"src:dst\"", s)
	}
	src, err := strconv.Atoi(parts[0])
	if err != nil {
		return Mount{}, fmt.Errorf("invalid source port in %q: %w", s, err)
	}
	dst, err := strconv.Atoi(parts[1])
	if err != nil {
		return Mount{}, fmt.Errorf("invalid destination port in %q: %w", s, err)
	}
	return Mount{SrcPort: src, DstPort: dst}, nil
}

// String returns the "src:dst" form.
func (m Mount) String() string {
	return fmt.Sprintf("%d:%d", m.SrcPort, m.DstPort)
}

func (m *Mount) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := ParseMount(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Mount) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// Args is a list of extra command line arguments. In YAML it may be written
// as a list or as a single shell-quoted string.
type Args []string

func (a *Args) UnmarshalYAML(node *yaml.Node) error {
	var multi []string
	if err := node.Decode(&multi); err == nil {
		*a = multi
		return nil
	}
	var single string
	if err := node.Decode(&single); err != nil {
		return err
	}
	values, err := shellquote.Split(single)
	if err != nil {
		return fmt.Errorf("invalid argument string %q: %w", single, err)
	}
	*a = values
	return nil
}

// Sudo is the privilege elevation directive for the remote kubectl. In YAML
// it is either a boolean or the name of the user to run as.
type Sudo struct {
	Enabled bool
	User    string
}

func (s *Sudo) UnmarshalYAML(node *yaml.Node) error {
	var enabled bool
	if err := node.Decode(&enabled); err == nil {
		*s = Sudo{Enabled: enabled}
		return nil
	}
	var user string
	if err := node.Decode(&user); err != nil {
		return fmt.Errorf("sudo must be a boolean or a user name: %w", err)
	}
	*s = Sudo{Enabled: user != "", User: user}
	return nil
}

func (s Sudo) MarshalYAML() (interface{}, error) {
	if s.User != "" {
		return s.User, nil
	}
	return s.Enabled, nil
}

// IsZero lets omitempty drop a disabled directive.
func (s Sudo) IsZero() bool {
	return !s.Enabled && s.User == ""
}
