package app

import (
	"os/exec"
	"sort"
	"strings"

	"tunnelo/internal/kube"
	"tunnelo/internal/tunnel"
	"tunnelo/pkg/logging"
)

// For mocking in tests
var (
	lookPath        = exec.LookPath
	missingContexts = kube.MissingContexts
	currentContext  = kube.GetCurrentKubeContext
)

// preflight warns about problems that would make every attempt of an
// endpoint fail. Nothing here is fatal.
func preflight(endpoints []tunnel.Endpoint) {
	for _, tool := range requiredTools(endpoints) {
		if _, err := lookPath(tool); err != nil {
			logging.Warn("Preflight", "%s not found in PATH, tunnels using it will keep failing", tool)
		}
	}

	var (
		contexts     []string
		needsCurrent bool
	)
	for _, ep := range endpoints {
		if ep.Kind != tunnel.KindDirectKubectl {
			continue
		}
		if ep.Context == "" {
			needsCurrent = true
			continue
		}
		contexts = append(contexts, ep.Context)
	}
	if needsCurrent {
		if name, err := currentContext(); err != nil {
			logging.Warn("Preflight", "Tunnels without a context use the current kubeconfig context: %v", err)
		} else {
			logging.Debug("Preflight", "Tunnels without a context use %s", name)
		}
	}

	missing, err := missingContexts(contexts)
	if err != nil {
		logging.Warn("Preflight", "Could not read kubeconfig: %v", err)
		return
	}
	if len(missing) > 0 {
		logging.Warn("Preflight", "Kubernetes contexts not found in kubeconfig: %s", strings.Join(missing, ", "))
	}
}

// requiredTools lists the executables the endpoints launch locally.
func requiredTools(endpoints []tunnel.Endpoint) []string {
	set := map[string]struct{}{}
	for _, ep := range endpoints {
		switch ep.Kind {
		case tunnel.KindDirectSSH:
			set["ssh"] = struct{}{}
		case tunnel.KindDirectKubectl:
			set["kubectl"] = struct{}{}
		case tunnel.KindTunneledKubectl:
			if ep.Teleport != nil {
				set["tsh"] = struct{}{}
			} else {
				set["ssh"] = struct{}{}
			}
		}
	}
	tools := make([]string, 0, len(set))
	for t := range set {
		tools = append(tools, t)
	}
	sort.Strings(tools)
	return tools
}
