package conductor

import (
	"fmt"

	"stratus/internal/kube"
	"stratus/internal/logging"
)

const monitoringNamespace = "monitoring"

// Infra manages the cluster-wide supporting stack the benchmark apps
// depend on: metrics-server, the OpenEBS storage provisioner, and the
// Prometheus monitoring release. Setup is idempotent — each component is
// skipped when already present — because runs reuse a warm cluster and a
// second apply would churn pods mid-benchmark.
type Infra struct {
	Kube kube.Client
}

// EnsureMetricsServer installs metrics-server into kube-system unless it
// is already serving.
func (f *Infra) EnsureMetricsServer() error {
	if f.Kube.DeploymentReady("metrics-server", "kube-system") {
		fmt.Println("metrics-server already deployed. Skipping setup.")
		return nil
	}
	fmt.Println("Setting up metrics-server...")
	if _, err := f.Kube.ExecCommand(
		"kubectl apply -f https://github.com/kubernetes-sigs/metrics-server/releases/latest/download/components.yaml"); err != nil {
		return fmt.Errorf("install metrics-server: %w", err)
	}
	if _, err := f.Kube.ExecCommand(
		`kubectl -n kube-system patch deployment metrics-server --type=json -p='[` +
			`{"op":"add","path":"/spec/template/spec/containers/0/args/-","value":"--kubelet-insecure-tls"},` +
			`{"op":"add","path":"/spec/template/spec/containers/0/args/-","value":"--kubelet-preferred-address-types=InternalIP"}]'`); err != nil {
		return fmt.Errorf("patch metrics-server: %w", err)
	}
	if err := f.Kube.WaitForReady("kube-system"); err != nil {
		return fmt.Errorf("metrics-server readiness: %w", err)
	}
	return nil
}

// EnsureStorage installs the OpenEBS hostpath provisioner and marks its
// storage class default, unless the openebs namespace is already active.
func (f *Infra) EnsureStorage() error {
	if f.Kube.NamespaceActive("openebs") {
		fmt.Println("OpenEBS already deployed. Skipping setup.")
		return nil
	}
	fmt.Println("Setting up OpenEBS...")
	if _, err := f.Kube.ExecCommand(
		"kubectl apply -f https://openebs.github.io/charts/openebs-operator.yaml"); err != nil {
		return fmt.Errorf("install openebs: %w", err)
	}
	if _, err := f.Kube.ExecCommand(
		`kubectl patch storageclass openebs-hostpath -p '{"metadata":{"annotations":{"storageclass.kubernetes.io/is-default-class":"true"}}}'`); err != nil {
		return fmt.Errorf("set default storage class: %w", err)
	}
	if err := f.Kube.WaitForReady("openebs"); err != nil {
		return fmt.Errorf("openebs readiness: %w", err)
	}
	fmt.Println("OpenEBS setup completed.")
	return nil
}

// EnsureMonitoring installs the Prometheus stack unless its namespace is
// already active.
func (f *Infra) EnsureMonitoring() error {
	if f.Kube.NamespaceActive(monitoringNamespace) {
		fmt.Println("Monitoring already deployed. Skipping setup.")
		return nil
	}
	fmt.Println("Deploying Prometheus...")
	if _, err := f.Kube.ExecCommand(fmt.Sprintf(
		"helm upgrade --install monitoring prometheus-community/kube-prometheus-stack -n %s --create-namespace",
		monitoringNamespace)); err != nil {
		return fmt.Errorf("install monitoring: %w", err)
	}
	return nil
}

// TeardownShared removes the monitoring release and the OpenEBS
// provisioner. Callers gate this on no other benchmark app remaining
// deployed.
func (f *Infra) TeardownShared() error {
	log := logging.New("conductor")

	if _, err := f.Kube.ExecCommand(fmt.Sprintf(
		"helm uninstall monitoring -n %s --ignore-not-found", monitoringNamespace)); err != nil {
		log.Warn("monitoring teardown failed, continuing", "error", err)
	}
	if _, err := f.Kube.ExecCommand(fmt.Sprintf(
		"kubectl delete namespace %s --ignore-not-found --wait=false", monitoringNamespace)); err != nil {
		log.Warn("monitoring namespace deletion failed, continuing", "error", err)
	}

	if _, err := f.Kube.ExecCommand(
		"kubectl delete sc openebs-hostpath openebs-device --ignore-not-found"); err != nil {
		log.Warn("storage class deletion failed, continuing", "error", err)
	}
	if _, err := f.Kube.ExecCommand(
		"kubectl delete -f https://openebs.github.io/charts/openebs-operator.yaml --ignore-not-found"); err != nil {
		log.Warn("openebs deletion failed, continuing", "error", err)
	}
	if err := f.Kube.WaitForNamespaceDeletion("openebs"); err != nil {
		return fmt.Errorf("wait for openebs teardown: %w", err)
	}
	return nil
}
