package tunnel

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/kballard/go-shellquote"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
)

// OutputMode selects what happens to a child's stdout and stderr. Stdin is
// always closed.
type OutputMode int

const (
	// OutputDiscard sends output to the null device.
	OutputDiscard OutputMode = iota
	// OutputInherit shows output to the operator.
	OutputInherit
	// OutputCapture merges stdout and stderr into Process.Lines.
	OutputCapture
)

// Command is a fully built external command line.
type Command struct {
	Name   string
	Args   []string
	Output OutputMode
	// Label names the endpoint the command belongs to.
	Label string
}

// Argv returns the program name followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Name}, c.Args...)
}

// String renders the command line shell-quoted, as printed before each
// attempt.
func (c Command) String() string {
	return shellquote.Join(c.Argv()...)
}

const sshConfigPath = "~/.ssh/config"

// SSHConfigFlags returns ["-F", <path>] when the user's ssh client
// configuration exists, nil otherwise. It is evaluated once per run and the
// result passed to every attempt.
func SSHConfigFlags(fs afero.Fs) []string {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	path, err := homedir.Expand(sshConfigPath)
	if err != nil {
		return nil
	}
	if ok, err := afero.Exists(fs, path); err != nil || !ok {
		return nil
	}
	return []string{"-F", path}
}

// DirectSSHCommand builds
//
//	ssh [-F cfg] -L <src>:localhost:<dst> -N <host> [ssh_args...]
func DirectSSHCommand(ep Endpoint, sshFlags []string) Command {
	args := append([]string{}, sshFlags...)
	args = append(args, "-L", fmt.Sprintf("%d:localhost:%d", ep.SourcePort, ep.DestinationPort), "-N", ep.Host)
	args = append(args, ep.SSHArgs...)
	return Command{Name: "ssh", Args: args, Output: OutputDiscard, Label: ep.Name()}
}

// DirectKubectlCommand builds
//
//	kubectl [kubectl_args...] port-forward [--context C] [--namespace N] <resource> <src>:<dst>
func DirectKubectlCommand(ep Endpoint) Command {
	args := append([]string{}, ep.KubectlArgs...)
	args = append(args, "port-forward")
	args = appendKubeTarget(args, ep)
	args = append(args, ep.Resource, fmt.Sprintf("%d:%d", ep.SourcePort, ep.DestinationPort))
	return Command{Name: "kubectl", Args: args, Output: OutputInherit, Label: ep.Name()}
}

// RemoteLegCommand builds the first leg of a tunneled kubectl endpoint: a
// port-forward on the intermediate client host bound to an ephemeral port.
//
//	[tsh ssh <tsh_host> exec] ssh -tt [-F cfg | jump args] [ssh_args...] <client> exec
//	  [sudo -i [-u U]] kubectl [kubectl_args...] port-forward --address=0.0.0.0
//	  [--context C] [--namespace N] <resource> 0:<dst>
func RemoteLegCommand(ep Endpoint, sshFlags []string) Command {
	var argv []string
	if ep.Teleport != nil {
		argv = append(argv, "tsh", "ssh", ep.Teleport.Host, "exec")
	}
	argv = append(argv, "ssh", "-tt")
	if ep.Teleport != nil {
		argv = append(argv, ep.Teleport.SSHJumpArgs...)
	} else {
		argv = append(argv, sshFlags...)
	}
	argv = append(argv, ep.SSHArgs...)
	argv = append(argv, ep.Host, "exec")
	if ep.Sudo.Enabled {
		argv = append(argv, "sudo", "-i")
		if ep.Sudo.User != "" {
			argv = append(argv, "-u", ep.Sudo.User)
		}
	}
	argv = append(argv, "kubectl")
	argv = append(argv, ep.KubectlArgs...)
	argv = append(argv, "port-forward", "--address=0.0.0.0")
	argv = appendKubeTarget(argv, ep)
	argv = append(argv, ep.Resource, fmt.Sprintf("0:%d", ep.DestinationPort))

	return Command{Name: argv[0], Args: argv[1:], Output: OutputCapture, Label: ep.Name()}
}

// LocalLegCommand builds the second leg of a tunneled kubectl endpoint: a
// local forward onto the port discovered from the remote leg.
//
//	[tsh] ssh [-F cfg] [ssh_args...] -L <src>:<localhost|client>:<port> -N <client|tsh_host>
func LocalLegCommand(ep Endpoint, sshFlags []string, port int) Command {
	var argv []string
	target := ep.Host
	if ep.Teleport != nil {
		argv = append(argv, "tsh")
		target = ep.Teleport.Host
	}
	argv = append(argv, "ssh")
	if ep.Teleport == nil {
		argv = append(argv, sshFlags...)
	}
	argv = append(argv, ep.SSHArgs...)
	argv = append(argv, "-L", localForwardPrefix(ep)+strconv.Itoa(port), "-N", target)

	return Command{Name: argv[0], Args: argv[1:], Output: OutputInherit, Label: ep.Name()}
}

// localForwardPrefix is the "-L" argument of the local leg up to the port.
func localForwardPrefix(ep Endpoint) string {
	forwardHost := "localhost"
	if ep.Teleport != nil {
		forwardHost = ep.Host
	}
	return fmt.Sprintf("%d:%s:", ep.SourcePort, forwardHost)
}

// Plan returns the printable command lines an attempt of ep runs. The local
// leg of a tunneled kubectl endpoint shows the port it will learn from the
// remote leg as <port>.
func Plan(ep Endpoint, sshFlags []string) []string {
	switch ep.Kind {
	case KindDirectSSH:
		return []string{DirectSSHCommand(ep, sshFlags).String()}
	case KindDirectKubectl:
		return []string{DirectKubectlCommand(ep).String()}
	case KindTunneledKubectl:
		prefix := localForwardPrefix(ep)
		local := strings.Replace(LocalLegCommand(ep, sshFlags, 0).String(), prefix+"0", prefix+"<port>", 1)
		return []string{RemoteLegCommand(ep, sshFlags).String(), local}
	default:
		return nil
	}
}

func appendKubeTarget(args []string, ep Endpoint) []string {
	if ep.Context != "" {
		args = append(args, "--context", ep.Context)
	}
	if ep.Namespace != "" {
		args = append(args, "--namespace", ep.Namespace)
	}
	return args
}

var forwardingPattern = regexp.MustCompile(`Forwarding from 0\.0\.0\.0:(\d+)`)

// ParseForwardedPort extracts the port kubectl bound from a line such as
// "Forwarding from 0.0.0.0:54321 -> 80".
func ParseForwardedPort(line string) (int, bool) {
	m := forwardingPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	port, err := strconv.Atoi(m[1])
	if err != nil || port <= 0 || port > 65535 {
		return 0, false
	}
	return port, true
}
