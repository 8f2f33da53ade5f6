package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetVersion(t *testing.T) {
	SetVersion("1.2.3-test")
	assert.Equal(t, "1.2.3-test", rootCmd.Version)
}

func TestRootCommand(t *testing.T) {
	assert.Equal(t, "tunnelo", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
	assert.True(t, rootCmd.SilenceUsage)
}

func TestVersionTemplate(t *testing.T) {
	testCmd := &cobra.Command{
		Use:     "test",
		Version: "1.0.0",
	}
	testCmd.SetVersionTemplate(`{{printf "tunnelo version %s\n" .Version}}`)

	var buf bytes.Buffer
	testCmd.SetOut(&buf)
	testCmd.SetArgs([]string{"--version"})
	require.NoError(t, testCmd.Execute())

	assert.Equal(t, "tunnelo version 1.0.0\n", buf.String())
}

func TestSubcommands(t *testing.T) {
	found := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, want := range []string{"up", "list", "version"} {
		assert.True(t, found[want], "missing subcommand %s", want)
	}
}

func TestUpFlags(t *testing.T) {
	up := newUpCmd()
	for _, name := range []string{"var", "vars-file", "debug", "tui", "log-file"} {
		assert.NotNil(t, up.Flags().Lookup(name), "missing flag --%s", name)
	}
	assert.Error(t, up.Args(up, nil), "at least one config file is required")
}

func TestVersionCommand(t *testing.T) {
	SetVersion("0.4.2")
	var buf bytes.Buffer
	v := newVersionCmd()
	v.SetOut(&buf)
	v.Run(v, nil)
	assert.Equal(t, "tunnelo version 0.4.2\n", buf.String())
}

const listConfig = `
hosts:
  - mode: ssh
    hostname: db1
    mounts: ["5432:5432"]
  - mode: tunneled_kubectl
    remote_kube_client: jump1
    namespace: {{ .ns }}
    resources:
      - resource: svc/web
        ports: ["8080:80"]
`

func TestListCommand(t *testing.T) {
	// No ~/.ssh/config, so no -F flag in the printed commands.
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "tunnels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(listConfig), 0o644))

	var buf bytes.Buffer
	list := newListCmd()
	list.SetOut(&buf)
	list.SetArgs([]string{path, "--var", "ns=prod"})
	require.NoError(t, list.Execute())

	out := buf.String()
	assert.Contains(t, out, "db1:5432->5432")
	assert.Contains(t, out, "ssh -L 5432:localhost:5432 -N db1")
	assert.Contains(t, out, "svc/web:8080->80")
	assert.Contains(t, out, "tunneled-kubectl")
	assert.Contains(t, out, "--namespace prod svc/web 0:80")
	assert.Contains(t, out, "ssh -L 8080:localhost:<port> -N jump1")
}

func TestListCommandMissingVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tunnels.yaml")
	require.NoError(t, os.WriteFile(path, []byte(listConfig), 0o644))

	list := newListCmd()
	list.SetOut(&bytes.Buffer{})
	list.SetErr(&bytes.Buffer{})
	list.SetArgs([]string{path})
	err := list.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}
