// Package kube wraps the kubectl/helm command surface the harness drives.
// Everything here is a thin shell boundary: the interesting logic lives in
// the conductor and oracles, which depend only on the Client interface so
// tests can substitute a fake cluster.
package kube

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"time"

	"stratus/internal/logging"
)

// Client is the cluster command surface used by the harness.
type Client interface {
	// ExecCommand runs a shell command (kubectl/helm/cockroach) and returns
	// its combined output. Blocking for the full command duration.
	ExecCommand(cmd string) (string, error)

	// DeploymentReady reports whether a deployment exists and has all
	// replicas available.
	DeploymentReady(name, namespace string) bool

	// NamespaceActive reports whether a namespace exists and is not
	// terminating.
	NamespaceActive(namespace string) bool

	// WaitForReady blocks until all pods in the namespace are ready.
	WaitForReady(namespace string) error

	// WaitForNamespaceDeletion blocks until the namespace is gone.
	WaitForNamespaceDeletion(namespace string) error
}

// CLI is the exec-backed Client used against a real cluster.
type CLI struct {
	// Timeout bounds a single command invocation. Zero means no bound;
	// deploys and waits routinely run for minutes.
	Timeout time.Duration

	// Kubeconfig, when set, is exported as KUBECONFIG to every command
	// so the harness can target a non-default cluster.
	Kubeconfig string
}

// NewCLI returns a Client that shells out to kubectl/helm.
func NewCLI() *CLI {
	return &CLI{}
}

func (c *CLI) ExecCommand(cmd string) (string, error) {
	logging.New("kube").Debug("exec", "cmd", cmd)

	ctx := context.Background()
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}
	ec := exec.CommandContext(ctx, "sh", "-c", cmd)
	if c.Kubeconfig != "" {
		ec.Env = append(os.Environ(), "KUBECONFIG="+c.Kubeconfig)
	}
	out, err := ec.CombinedOutput()
	if err != nil {
		return string(out), fmt.Errorf("exec %q: %w: %s", cmd, err, strings.TrimSpace(string(out)))
	}
	return strings.TrimSpace(string(out)), nil
}

func (c *CLI) DeploymentReady(name, namespace string) bool {
	out, err := c.ExecCommand(fmt.Sprintf(
		"kubectl get deployment %s -n %s -o jsonpath='{.status.availableReplicas}/{.spec.replicas}'",
		name, namespace))
	if err != nil {
		return false
	}
	parts := strings.SplitN(strings.Trim(out, "'"), "/", 2)
	return len(parts) == 2 && parts[0] != "" && parts[0] == parts[1]
}

func (c *CLI) NamespaceActive(namespace string) bool {
	out, err := c.ExecCommand(fmt.Sprintf(
		"kubectl get namespace %s -o jsonpath='{.status.phase}' --ignore-not-found", namespace))
	if err != nil {
		return false
	}
	return strings.Trim(out, "'") == "Active"
}

func (c *CLI) WaitForReady(namespace string) error {
	_, err := c.ExecCommand(fmt.Sprintf(
		"kubectl wait --for=condition=Ready pods --all -n %s --timeout=600s", namespace))
	if err != nil {
		return fmt.Errorf("wait for pods in %s: %w", namespace, err)
	}
	return nil
}

func (c *CLI) WaitForNamespaceDeletion(namespace string) error {
	_, err := c.ExecCommand(fmt.Sprintf(
		"kubectl wait --for=delete namespace/%s --timeout=600s", namespace))
	if err != nil {
		return fmt.Errorf("wait for namespace %s deletion: %w", namespace, err)
	}
	return nil
}
