// Package inject applies and reverses cluster faults. Each fault is an
// inject/recover pair over the kube command boundary; injection records
// whatever original state recovery needs, and recovery is defensive — it
// must run safely from the exit-cleanup path even when injection never
// completed or only partially applied.
package inject

import (
	"fmt"
	"strconv"
	"strings"

	"stratus/internal/kube"
	"stratus/internal/logging"
)

// Injector mutates one namespace through the kube client.
type Injector struct {
	Kube      kube.Client
	Namespace string

	originalReplicas map[string]int
	originalPorts    map[string]string
}

// New returns an injector bound to the namespace.
func New(kc kube.Client, namespace string) *Injector {
	return &Injector{
		Kube:             kc,
		Namespace:        namespace,
		originalReplicas: make(map[string]int),
		originalPorts:    make(map[string]string),
	}
}

// ScalePodsToZero scales each service's deployment to zero replicas,
// remembering the original count for recovery.
func (i *Injector) ScalePodsToZero(services []string) error {
	for _, svc := range services {
		out, err := i.Kube.ExecCommand(fmt.Sprintf(
			"kubectl get deployment %s -n %s -o jsonpath='{.spec.replicas}'", svc, i.Namespace))
		if err != nil {
			return fmt.Errorf("read replicas of %s: %w", svc, err)
		}
		if n, convErr := strconv.Atoi(strings.Trim(out, "'")); convErr == nil {
			i.originalReplicas[svc] = n
		} else {
			i.originalReplicas[svc] = 1
		}

		if _, err := i.Kube.ExecCommand(fmt.Sprintf(
			"kubectl scale deployment %s -n %s --replicas=0", svc, i.Namespace)); err != nil {
			return fmt.Errorf("scale %s to zero: %w", svc, err)
		}
	}
	return nil
}

// RestoreScaledPods scales services back to their recorded replica counts.
// Services with no recorded count (injection interrupted) restore to 1.
func (i *Injector) RestoreScaledPods(services []string) error {
	log := logging.New("inject")
	for _, svc := range services {
		replicas, ok := i.originalReplicas[svc]
		if !ok {
			log.Warn("no recorded replica count, restoring to 1", "service", svc)
			replicas = 1
		}
		if _, err := i.Kube.ExecCommand(fmt.Sprintf(
			"kubectl scale deployment %s -n %s --replicas=%d", svc, i.Namespace, replicas)); err != nil {
			return fmt.Errorf("restore replicas of %s: %w", svc, err)
		}
	}
	return nil
}

// BreakServiceSelector points the service at a label no pod carries.
func (i *Injector) BreakServiceSelector(service string) error {
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		`kubectl patch service %s -n %s -p '{"spec":{"selector":{"app":"%s-nonexistent"}}}'`,
		service, i.Namespace, service))
	if err != nil {
		return fmt.Errorf("break selector of %s: %w", service, err)
	}
	return nil
}

// RestoreServiceSelector points the service back at its app label.
func (i *Injector) RestoreServiceSelector(service string) error {
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		`kubectl patch service %s -n %s -p '{"spec":{"selector":{"app":"%s"}}}'`,
		service, i.Namespace, service))
	if err != nil {
		return fmt.Errorf("restore selector of %s: %w", service, err)
	}
	return nil
}

// ApplyDenyAllPolicy isolates the service with a deny-all network policy.
func (i *Injector) ApplyDenyAllPolicy(service string) error {
	manifest := fmt.Sprintf(`apiVersion: networking.k8s.io/v1
kind: NetworkPolicy
metadata:
  name: stratus-deny-%s
  namespace: %s
spec:
  podSelector:
    matchLabels:
      app: %s
  policyTypes: ["Ingress", "Egress"]`, service, i.Namespace, service)

	_, err := i.Kube.ExecCommand(fmt.Sprintf("cat <<'EOF' | kubectl apply -f -\n%s\nEOF", manifest))
	if err != nil {
		return fmt.Errorf("apply deny-all policy for %s: %w", service, err)
	}
	return nil
}

// RemoveDenyAllPolicy deletes the injected policy. Missing policy is fine:
// recovery may run after an interrupted injection.
func (i *Injector) RemoveDenyAllPolicy(service string) error {
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		"kubectl delete networkpolicy stratus-deny-%s -n %s --ignore-not-found", service, i.Namespace))
	if err != nil {
		return fmt.Errorf("remove deny-all policy for %s: %w", service, err)
	}
	return nil
}

// MisconfigureTargetPort rewrites the service's target port, recording the
// original for recovery.
func (i *Injector) MisconfigureTargetPort(service string, wrongPort int) error {
	out, err := i.Kube.ExecCommand(fmt.Sprintf(
		"kubectl get service %s -n %s -o jsonpath='{.spec.ports[0].targetPort}'", service, i.Namespace))
	if err != nil {
		return fmt.Errorf("read target port of %s: %w", service, err)
	}
	i.originalPorts[service] = strings.Trim(out, "'")

	_, err = i.Kube.ExecCommand(fmt.Sprintf(
		`kubectl patch service %s -n %s --type=json -p '[{"op":"replace","path":"/spec/ports/0/targetPort","value":%d}]'`,
		service, i.Namespace, wrongPort))
	if err != nil {
		return fmt.Errorf("misconfigure target port of %s: %w", service, err)
	}
	return nil
}

// RestoreTargetPort patches the recorded original target port back.
func (i *Injector) RestoreTargetPort(service string) error {
	original, ok := i.originalPorts[service]
	if !ok || original == "" {
		logging.New("inject").Warn("no recorded target port, skipping restore", "service", service)
		return nil
	}

	value := original
	if _, convErr := strconv.Atoi(original); convErr != nil {
		value = `"` + original + `"` // named ports are JSON strings
	}
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		`kubectl patch service %s -n %s --type=json -p '[{"op":"replace","path":"/spec/ports/0/targetPort","value":%s}]'`,
		service, i.Namespace, value))
	if err != nil {
		return fmt.Errorf("restore target port of %s: %w", service, err)
	}
	return nil
}

// ApplyPodQuota installs a ResourceQuota capping pod count at the current
// usage, so any scale-up strands new pods in Pending.
func (i *Injector) ApplyPodQuota(quotaName string, podLimit int) error {
	manifest := fmt.Sprintf(`apiVersion: v1
kind: ResourceQuota
metadata:
  name: %s
  namespace: %s
spec:
  hard:
    pods: "%d"`, quotaName, i.Namespace, podLimit)

	_, err := i.Kube.ExecCommand(fmt.Sprintf("cat <<'EOF' | kubectl apply -f -\n%s\nEOF", manifest))
	if err != nil {
		return fmt.Errorf("apply pod quota %s: %w", quotaName, err)
	}
	return nil
}

// RemovePodQuota deletes the quota, tolerating absence.
func (i *Injector) RemovePodQuota(quotaName string) error {
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		"kubectl delete resourcequota %s -n %s --ignore-not-found", quotaName, i.Namespace))
	if err != nil {
		return fmt.Errorf("remove pod quota %s: %w", quotaName, err)
	}
	return nil
}

// ScaleDeployment sets an explicit replica count (used to trigger quota
// exhaustion after the quota is in place).
func (i *Injector) ScaleDeployment(service string, replicas int) error {
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		"kubectl scale deployment %s -n %s --replicas=%d", service, i.Namespace, replicas))
	if err != nil {
		return fmt.Errorf("scale %s to %d: %w", service, replicas, err)
	}
	return nil
}

// KillContainer deletes the service's pods once; the controller restarts
// them, yielding a transient crash signature.
func (i *Injector) KillContainer(service string) error {
	_, err := i.Kube.ExecCommand(fmt.Sprintf(
		"kubectl delete pods -l app=%s -n %s --wait=false", service, i.Namespace))
	if err != nil {
		return fmt.Errorf("kill containers of %s: %w", service, err)
	}
	return nil
}

// OriginalReplicas exposes the recorded replica count for oracles that
// verify a repair restored the original scale.
func (i *Injector) OriginalReplicas(service string) (int, bool) {
	n, ok := i.originalReplicas[service]
	return n, ok
}
