package kube

import (
	"fmt"
	"sort"

	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/clientcmd/api"
)

// GetStartingConfig returns the merged kubeconfig the local kubectl would
// see, honouring KUBECONFIG.
var GetStartingConfig = func() (*api.Config, error) {
	pathOptions := clientcmd.NewDefaultPathOptions()
	config, err := pathOptions.GetStartingConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get starting kubeconfig: %w", err)
	}
	return config, nil
}

// GetCurrentKubeContext retrieves the name of the currently active Kubernetes context
func GetCurrentKubeContext() (string, error) {
	config, err := GetStartingConfig()
	if err != nil {
		return "", err
	}
	if config.CurrentContext == "" {
		return "", fmt.Errorf("current kubeconfig context is not set")
	}
	return config.CurrentContext, nil
}

// MissingContexts returns the names that are not defined in the local
// kubeconfig, sorted and without duplicates. Empty names are ignored.
func MissingContexts(names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	config, err := GetStartingConfig()
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(names))
	var missing []string
	for _, name := range names {
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		if _, ok := config.Contexts[name]; !ok {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing, nil
}
