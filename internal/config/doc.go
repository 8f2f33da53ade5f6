// Package config loads the tunnel definitions tunnelo keeps alive.
//
// A definition file is YAML, optionally templated. Several files may be
// given; their hosts are concatenated in order.
//
//	hosts:
//	  - mode: ssh
//	    hostname: db1
//	    mounts: ["5432:5432", "8080:80"]
//	    ssh_args: "-o ServerAliveInterval=30"
//
//	  - mode: kubectl
//	    context: prod
//	    namespace: monitoring
//	    resources:
//	      - resource: svc/grafana
//	        ports: ["3000:80"]
//
//	  - mode: tunneled_kubectl
//	    remote_kube_client: bastion-1
//	    sudo: kube
//	    teleport:
//	      tsh_host: jump.example.com
//	    resources:
//	      - resource: svc/{{ .service }}
//	        ports: ["9090:9090"]
//
// # Processing
//
// Each file is rendered as a text/template with the variables given on the
// command line (a raise function aborts rendering with a message), then
// ${VAR} and ${VAR:-default} references are expanded from the environment,
// and the result is decoded strictly and validated.
//
// Validation is structural only: an unreachable host or an unknown context
// is a runtime tunnel failure, not a configuration error.
package config
