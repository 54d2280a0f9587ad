package kube

import (
	"fmt"
	"strings"
	"sync"
)

// Fake is an in-memory Client for tests. Commands are recorded in order;
// responses can be scripted per substring. State maps drive the status
// queries so tests can model deployments appearing and namespaces going away.
type Fake struct {
	mu sync.Mutex

	Commands []string

	// Responses maps a command substring to scripted output. First match
	// in insertion order wins; unmatched commands return "".
	Responses map[string]string

	// Errors maps a command substring to an error to return.
	Errors map[string]error

	ReadyDeployments map[string]bool // "name/namespace" -> ready
	ActiveNamespaces map[string]bool
}

// NewFake returns an empty fake cluster.
func NewFake() *Fake {
	return &Fake{
		Responses:        make(map[string]string),
		Errors:           make(map[string]error),
		ReadyDeployments: make(map[string]bool),
		ActiveNamespaces: make(map[string]bool),
	}
}

func (f *Fake) ExecCommand(cmd string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Commands = append(f.Commands, cmd)

	for sub, err := range f.Errors {
		if strings.Contains(cmd, sub) {
			return "", err
		}
	}
	for sub, out := range f.Responses {
		if strings.Contains(cmd, sub) {
			return out, nil
		}
	}
	return "", nil
}

func (f *Fake) DeploymentReady(name, namespace string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ReadyDeployments[name+"/"+namespace]
}

func (f *Fake) NamespaceActive(namespace string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.ActiveNamespaces[namespace]
}

func (f *Fake) WaitForReady(namespace string) error {
	return nil
}

func (f *Fake) WaitForNamespaceDeletion(namespace string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.ActiveNamespaces[namespace] {
		return fmt.Errorf("namespace %s still active", namespace)
	}
	return nil
}

// SetDeploymentReady marks a deployment ready or not.
func (f *Fake) SetDeploymentReady(name, namespace string, ready bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ReadyDeployments[name+"/"+namespace] = ready
}

// SetNamespaceActive marks a namespace active or gone.
func (f *Fake) SetNamespaceActive(namespace string, active bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ActiveNamespaces[namespace] = active
}

// CommandsMatching returns recorded commands containing the substring.
func (f *Fake) CommandsMatching(sub string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.Commands {
		if strings.Contains(c, sub) {
			out = append(out, c)
		}
	}
	return out
}
