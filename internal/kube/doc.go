// Package kube inspects the local kubeconfig.
//
// Direct kubectl endpoints run `kubectl port-forward` on this machine, so
// their contexts must exist in the kubeconfig kubectl loads (KUBECONFIG or
// ~/.kube/config). MissingContexts lets the supervisor warn about typos
// before the first attempt fails. Tunneled endpoints run kubectl on a
// remote host and are not checked.
package kube
