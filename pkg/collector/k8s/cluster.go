// Copyright (c) 2026, Anomalo, Inc.  All rights reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package k8s

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/anomalo/diagnostics/pkg/executor"
)

const metricsGroupVersion = "metrics.k8s.io/v1beta1"

func (c *Collector) writeClusterInfo(ctx context.Context, w io.Writer) error {
	v, err := c.clientset.Discovery().ServerVersion()
	if err != nil {
		return fmt.Errorf("failed to get server version: %w", err)
	}
	fmt.Fprintf(w, "Server Version: %s\n", v.GitVersion)
	fmt.Fprintf(w, "Platform:       %s\n", v.Platform)
	fmt.Fprintf(w, "Go Version:     %s\n", v.GoVersion)
	fmt.Fprintf(w, "Build Date:     %s\n", v.BuildDate)
	fmt.Fprintf(w, "Namespace:      %s\n", c.cfg.Namespace)
	return ctx.Err()
}

// writeAllResources lists the workload kinds kubectl get all shows. Each
// kind is independent; failures are noted inline and returned together.
func (c *Collector) writeAllResources(ctx context.Context, w io.Writer) error {
	ns := c.cfg.Namespace
	var errs []error

	kinds := []struct {
		name string
		fn   func(context.Context, string, io.Writer) error
	}{
		{"pods", c.listPods},
		{"services", c.listServices},
		{"deployments", c.listDeployments},
		{"replicasets", c.listReplicaSets},
		{"statefulsets", c.listStatefulSets},
		{"daemonsets", c.listDaemonSets},
		{"jobs", c.listJobs},
		{"cronjobs", c.listCronJobs},
	}
	for _, k := range kinds {
		section(w, k.name)
		if err := k.fn(ctx, ns, w); err != nil {
			fmt.Fprintf(w, "ERROR: %v\n", err)
			errs = append(errs, fmt.Errorf("%s: %w", k.name, err))
		}
	}
	return stderrors.Join(errs...)
}

func (c *Collector) listPods(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.CoreV1().Pods(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "READY", "STATUS", "RESTARTS", "AGE", "NODE")
	for i := range list.Items {
		p := &list.Items[i]
		ready, restarts := 0, int32(0)
		for _, cs := range p.Status.ContainerStatuses {
			if cs.Ready {
				ready++
			}
			restarts += cs.RestartCount
		}
		t.row(p.Name, fmt.Sprintf("%d/%d", ready, len(p.Spec.Containers)), podStatus(p),
			strconv.Itoa(int(restarts)), age(p.CreationTimestamp), orNone(p.Spec.NodeName))
	}
	return t.flush()
}

// podStatus is the STATUS column: the first waiting or terminated reason
// of a container, else the pod phase.
func podStatus(p *corev1.Pod) string {
	if p.DeletionTimestamp != nil {
		return "Terminating"
	}
	for _, cs := range p.Status.ContainerStatuses {
		if cs.State.Waiting != nil && cs.State.Waiting.Reason != "" {
			return cs.State.Waiting.Reason
		}
		if cs.State.Terminated != nil && cs.State.Terminated.Reason != "" {
			return cs.State.Terminated.Reason
		}
	}
	if p.Status.Reason != "" {
		return p.Status.Reason
	}
	return orNone(string(p.Status.Phase))
}

func (c *Collector) listServices(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.CoreV1().Services(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "TYPE", "CLUSTER-IP", "PORTS", "AGE")
	for i := range list.Items {
		s := &list.Items[i]
		ports := make([]string, 0, len(s.Spec.Ports))
		for _, p := range s.Spec.Ports {
			ports = append(ports, fmt.Sprintf("%d/%s", p.Port, p.Protocol))
		}
		t.row(s.Name, string(s.Spec.Type), orNone(s.Spec.ClusterIP), orNone(strings.Join(ports, ",")), age(s.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) listDeployments(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.AppsV1().Deployments(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "READY", "UP-TO-DATE", "AVAILABLE", "AGE")
	for i := range list.Items {
		d := &list.Items[i]
		desired := int32(1)
		if d.Spec.Replicas != nil {
			desired = *d.Spec.Replicas
		}
		t.row(d.Name, fmt.Sprintf("%d/%d", d.Status.ReadyReplicas, desired),
			strconv.Itoa(int(d.Status.UpdatedReplicas)), strconv.Itoa(int(d.Status.AvailableReplicas)), age(d.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) listReplicaSets(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.AppsV1().ReplicaSets(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "DESIRED", "CURRENT", "READY", "AGE")
	for i := range list.Items {
		rs := &list.Items[i]
		desired := int32(0)
		if rs.Spec.Replicas != nil {
			desired = *rs.Spec.Replicas
		}
		t.row(rs.Name, strconv.Itoa(int(desired)), strconv.Itoa(int(rs.Status.Replicas)),
			strconv.Itoa(int(rs.Status.ReadyReplicas)), age(rs.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) listStatefulSets(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.AppsV1().StatefulSets(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "READY", "AGE")
	for i := range list.Items {
		s := &list.Items[i]
		desired := int32(1)
		if s.Spec.Replicas != nil {
			desired = *s.Spec.Replicas
		}
		t.row(s.Name, fmt.Sprintf("%d/%d", s.Status.ReadyReplicas, desired), age(s.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) listDaemonSets(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.AppsV1().DaemonSets(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "DESIRED", "CURRENT", "READY", "AGE")
	for i := range list.Items {
		d := &list.Items[i]
		t.row(d.Name, strconv.Itoa(int(d.Status.DesiredNumberScheduled)), strconv.Itoa(int(d.Status.CurrentNumberScheduled)),
			strconv.Itoa(int(d.Status.NumberReady)), age(d.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) listJobs(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.BatchV1().Jobs(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "SUCCEEDED", "FAILED", "ACTIVE", "AGE")
	for i := range list.Items {
		j := &list.Items[i]
		t.row(j.Name, strconv.Itoa(int(j.Status.Succeeded)), strconv.Itoa(int(j.Status.Failed)),
			strconv.Itoa(int(j.Status.Active)), age(j.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) listCronJobs(ctx context.Context, ns string, w io.Writer) error {
	list, err := c.clientset.BatchV1().CronJobs(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		return err
	}
	t := newTable(w, "NAME", "SCHEDULE", "SUSPEND", "ACTIVE", "LAST SCHEDULE")
	for i := range list.Items {
		cj := &list.Items[i]
		suspend := cj.Spec.Suspend != nil && *cj.Spec.Suspend
		last := "<none>"
		if cj.Status.LastScheduleTime != nil {
			last = age(*cj.Status.LastScheduleTime)
		}
		t.row(cj.Name, cj.Spec.Schedule, strconv.FormatBool(suspend), strconv.Itoa(len(cj.Status.Active)), last)
	}
	return t.flush()
}

func eventTime(e *corev1.Event) metav1.Time {
	switch {
	case !e.LastTimestamp.IsZero():
		return e.LastTimestamp
	case !e.EventTime.IsZero():
		return metav1.NewTime(e.EventTime.Time)
	default:
		return e.CreationTimestamp
	}
}

func sortEvents(events []corev1.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		ti, tj := eventTime(&events[i]), eventTime(&events[j])
		return ti.Before(&tj)
	})
}

func writeEventTable(w io.Writer, events []corev1.Event) error {
	t := newTable(w, "LAST SEEN", "TYPE", "REASON", "OBJECT", "COUNT", "MESSAGE")
	for i := range events {
		e := &events[i]
		obj := strings.ToLower(e.InvolvedObject.Kind) + "/" + e.InvolvedObject.Name
		t.row(age(eventTime(e)), e.Type, e.Reason, obj, strconv.Itoa(int(max(e.Count, 1))), strings.TrimSpace(e.Message))
	}
	return t.flush()
}

func (c *Collector) writeEvents(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.CoreV1().Events(c.cfg.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}
	if len(list.Items) == 0 {
		fmt.Fprintf(w, "No events found in %s namespace.\n", c.cfg.Namespace)
		return nil
	}
	sortEvents(list.Items)
	return writeEventTable(w, list.Items)
}

func (c *Collector) writeNodes(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list nodes: %w", err)
	}

	t := newTable(w, "NAME", "STATUS", "ROLES", "AGE", "VERSION", "INTERNAL-IP", "OS-IMAGE", "KERNEL-VERSION", "CONTAINER-RUNTIME")
	for i := range list.Items {
		n := &list.Items[i]
		t.row(n.Name, nodeStatus(n), nodeRoles(n), age(n.CreationTimestamp), n.Status.NodeInfo.KubeletVersion,
			orNone(nodeAddress(n, corev1.NodeInternalIP)), n.Status.NodeInfo.OSImage,
			n.Status.NodeInfo.KernelVersion, n.Status.NodeInfo.ContainerRuntimeVersion)
	}
	if err := t.flush(); err != nil {
		return err
	}

	for i := range list.Items {
		n := &list.Items[i]
		section(w, "node "+n.Name)
		ct := newTable(w, "RESOURCE", "CAPACITY", "ALLOCATABLE")
		for _, res := range []corev1.ResourceName{corev1.ResourceCPU, corev1.ResourceMemory, corev1.ResourceEphemeralStorage, corev1.ResourcePods} {
			capacity, allocatable := n.Status.Capacity[res], n.Status.Allocatable[res]
			ct.row(string(res), capacity.String(), allocatable.String())
		}
		if err := ct.flush(); err != nil {
			return err
		}
		fmt.Fprintln(w, "Conditions:")
		cond := newTable(w, "  TYPE", "STATUS", "REASON", "MESSAGE")
		for _, cd := range n.Status.Conditions {
			cond.row("  "+string(cd.Type), string(cd.Status), cd.Reason, cd.Message)
		}
		if err := cond.flush(); err != nil {
			return err
		}
		if len(n.Spec.Taints) > 0 {
			taints := make([]string, 0, len(n.Spec.Taints))
			for _, tn := range n.Spec.Taints {
				taints = append(taints, tn.ToString())
			}
			fmt.Fprintf(w, "Taints: %s\n", strings.Join(taints, ", "))
		}
	}
	return nil
}

func nodeStatus(n *corev1.Node) string {
	status := "Unknown"
	for _, cd := range n.Status.Conditions {
		if cd.Type == corev1.NodeReady {
			if cd.Status == corev1.ConditionTrue {
				status = "Ready"
			} else {
				status = "NotReady"
			}
		}
	}
	if n.Spec.Unschedulable {
		status += ",SchedulingDisabled"
	}
	return status
}

func nodeRoles(n *corev1.Node) string {
	var roles []string
	for k := range n.Labels {
		if role, ok := strings.CutPrefix(k, "node-role.kubernetes.io/"); ok && role != "" {
			roles = append(roles, role)
		}
	}
	sort.Strings(roles)
	return orNone(strings.Join(roles, ","))
}

func nodeAddress(n *corev1.Node, t corev1.NodeAddressType) string {
	for _, a := range n.Status.Addresses {
		if a.Type == t {
			return a.Address
		}
	}
	return ""
}

type nodeMetricsList struct {
	Items []struct {
		Metadata struct {
			Name string `json:"name"`
		} `json:"metadata"`
		Timestamp string            `json:"timestamp"`
		Window    string            `json:"window"`
		Usage     map[string]string `json:"usage"`
	} `json:"items"`
}

func (c *Collector) writeNodeMetrics(ctx context.Context, w io.Writer) error {
	if _, err := c.clientset.Discovery().ServerResourcesForGroupVersion(metricsGroupVersion); err != nil {
		return executor.Advisory(fmt.Errorf("metrics API (%s) is not available: %w", metricsGroupVersion, err))
	}

	raw, err := c.fetchMetrics(ctx)
	if err != nil {
		return executor.Advisory(fmt.Errorf("failed to read node metrics: %w", err))
	}

	var list nodeMetricsList
	if err := json.Unmarshal(raw, &list); err != nil {
		return fmt.Errorf("failed to decode node metrics: %w", err)
	}
	sort.Slice(list.Items, func(i, j int) bool { return list.Items[i].Metadata.Name < list.Items[j].Metadata.Name })

	t := newTable(w, "NAME", "CPU", "MEMORY", "WINDOW", "TIMESTAMP")
	for _, item := range list.Items {
		t.row(item.Metadata.Name, orNone(item.Usage["cpu"]), orNone(item.Usage["memory"]), orNone(item.Window), orNone(item.Timestamp))
	}
	return t.flush()
}

func (c *Collector) restNodeMetrics(ctx context.Context) ([]byte, error) {
	rc := c.clientset.Discovery().RESTClient()
	if rc == nil {
		return nil, fmt.Errorf("no REST client available")
	}
	return rc.Get().AbsPath("/apis", metricsGroupVersion, "nodes").DoRaw(ctx)
}
