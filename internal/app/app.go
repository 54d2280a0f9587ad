// Package app defines the target-application contract the conductor drives
// and the registry of benchmark applications. Apps are helm-chart wrappers:
// deploy/delete/cleanup shell out through the kube client, and the
// delete-before-deploy pattern in the conductor assumes all three are
// tolerant of being called against a half-present release.
package app

import (
	"fmt"
	"time"

	"stratus/internal/kube"
	"stratus/internal/logging"
)

// Application is the collaborator contract any benchmark app must satisfy.
// All operations are synchronous and idempotent-tolerant.
type Application interface {
	Name() string
	Namespace() string
	Delete() error
	Deploy() error
	StartWorkload() error
	Cleanup() error
}

// HelmApp is a helm-release-backed Application.
type HelmApp struct {
	AppName      string
	Ns           string
	Chart        string
	Release      string
	ValuesFile   string
	WorkloadName string // deployment generating traffic, e.g. "wrk-load"

	Kube kube.Client
}

func (a *HelmApp) Name() string      { return a.AppName }
func (a *HelmApp) Namespace() string { return a.Ns }

// Delete removes the helm release and namespace if present. Missing
// releases are fine: this is the clean-slate half of delete-before-deploy.
func (a *HelmApp) Delete() error {
	log := logging.New("app")
	log.Info("deleting app", "app", a.AppName, "namespace", a.Ns)

	if _, err := a.Kube.ExecCommand(fmt.Sprintf(
		"helm uninstall %s -n %s --ignore-not-found", a.Release, a.Ns)); err != nil {
		log.Warn("helm uninstall failed, continuing", "app", a.AppName, "error", err)
	}
	if _, err := a.Kube.ExecCommand(fmt.Sprintf(
		"kubectl delete namespace %s --ignore-not-found --wait=false", a.Ns)); err != nil {
		return fmt.Errorf("delete namespace %s: %w", a.Ns, err)
	}
	return nil
}

// Deploy installs the chart and waits for all pods to come up.
func (a *HelmApp) Deploy() error {
	logging.New("app").Info("deploying app", "app", a.AppName, "namespace", a.Ns, "chart", a.Chart)

	cmd := fmt.Sprintf("helm install %s %s -n %s --create-namespace", a.Release, a.Chart, a.Ns)
	if a.ValuesFile != "" {
		cmd += " -f " + a.ValuesFile
	}
	if _, err := a.Kube.ExecCommand(cmd); err != nil {
		return fmt.Errorf("helm install %s: %w", a.Release, err)
	}
	if err := a.Kube.WaitForReady(a.Ns); err != nil {
		return fmt.Errorf("deploy %s: %w", a.AppName, err)
	}
	return nil
}

// StartWorkload scales up the load generator so traffic flows before any
// fault is injected.
func (a *HelmApp) StartWorkload() error {
	if a.WorkloadName == "" {
		return nil
	}
	_, err := a.Kube.ExecCommand(fmt.Sprintf(
		"kubectl scale deployment %s -n %s --replicas=1", a.WorkloadName, a.Ns))
	if err != nil {
		return fmt.Errorf("start workload %s: %w", a.WorkloadName, err)
	}
	return nil
}

// Cleanup tears the app down fully: release, namespace, and a blocking wait
// so shared-infra teardown that follows sees an accurate namespace count.
func (a *HelmApp) Cleanup() error {
	if err := a.Delete(); err != nil {
		return err
	}
	// Namespace deletion is asynchronous; give the API server a beat before
	// blocking on the wait, which errors on an already-gone namespace in
	// some kubectl versions.
	time.Sleep(time.Second)
	if a.Kube.NamespaceActive(a.Ns) {
		if err := a.Kube.WaitForNamespaceDeletion(a.Ns); err != nil {
			return fmt.Errorf("cleanup %s: %w", a.AppName, err)
		}
	}
	return nil
}

// WorkloadHealthy reports whether the load generator deployment is ready.
// Used by the workload oracle to judge end-to-end traffic health.
func (a *HelmApp) WorkloadHealthy() bool {
	if a.WorkloadName == "" {
		return true
	}
	return a.Kube.DeploymentReady(a.WorkloadName, a.Ns)
}
