package config

import (
	"errors"
	"fmt"
	"strings"

	"k8s.io/apimachinery/pkg/util/validation"
)

// Validate checks that the host carries every field its mode requires.
// It does not check that hosts, contexts or resources actually exist.
func (h HostConfig) Validate() error {
	switch h.Mode {
	case ModeSSH:
		if h.Hostname == "" {
			return errors.New("hostname is required for ssh mode")
		}
		if len(h.Mounts) == 0 {
			return errors.New("at least one mount is required for ssh mode")
		}
		for _, m := range h.Mounts {
			if err := m.Validate(); err != nil {
				return fmt.Errorf("mount %s: %w", m, err)
			}
		}
		return nil
	case ModeKubectl:
		return h.validateKubectl()
	case ModeTunneledKubectl:
		if h.RemoteKubeClient == "" {
			return errors.New("remote_kube_client is required for tunneled_kubectl mode")
		}
		if h.Teleport != nil && h.Teleport.Host == "" {
			return errors.New("teleport.tsh_host is required when teleport is set")
		}
		return h.validateKubectl()
	case "":
		return errors.New("mode is required")
	default:
		return fmt.Errorf("invalid mode %q", h.Mode)
	}
}

func (h HostConfig) validateKubectl() error {
	if len(h.Resources) == 0 {
		return fmt.Errorf("resources are required for %s mode", h.Mode)
	}
	if h.Namespace != "" {
		if errs := validation.IsDNS1123Label(h.Namespace); len(errs) > 0 {
			return fmt.Errorf("invalid namespace %q: %s", h.Namespace, strings.Join(errs, "; "))
		}
	}
	if h.Context != "" && strings.TrimSpace(h.Context) == "" {
		return errors.New("context must not be blank")
	}
	for _, r := range h.Resources {
		if r.Resource == "" {
			return errors.New("resource name is required")
		}
		if len(r.Ports) == 0 {
			return fmt.Errorf("resource %s: at least one port is required", r.Resource)
		}
		for _, p := range r.Ports {
			if err := p.Validate(); err != nil {
				return fmt.Errorf("resource %s port %s: %w", r.Resource, p, err)
			}
		}
	}
	return nil
}

// Validate checks both ports are usable TCP ports.
func (m Mount) Validate() error {
	if errs := validation.IsValidPortNum(m.SrcPort); len(errs) > 0 {
		return fmt.Errorf("source port: %s", strings.Join(errs, "; "))
	}
	if errs := validation.IsValidPortNum(m.DstPort); len(errs) > 0 {
		return fmt.Errorf("destination port: %s", strings.Join(errs, "; "))
	}
	return nil
}
