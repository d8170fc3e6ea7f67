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
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/utils/ptr"

	"github.com/anomalo/diagnostics/pkg/collector/step"
	"github.com/anomalo/diagnostics/pkg/executor"
)

// podTask looks up the current status of pod and returns the task that
// captures it: a describe dump when the pod is not Running, the log tail of
// all its containers otherwise.
func (c *Collector) podTask(ctx context.Context, env *step.Env, pod *corev1.Pod) executor.Task {
	current, err := c.clientset.CoreV1().Pods(pod.Namespace).Get(ctx, pod.Name, metav1.GetOptions{})
	if err != nil {
		slog.Debug("pod status lookup failed, using listed status", "pod", pod.Name, "error", err)
		current = pod
	}

	if current.Status.Phase != corev1.PodRunning {
		return executor.Task{
			Description: fmt.Sprintf("describe pod %s (%s)", current.Name, orNone(string(current.Status.Phase))),
			OutputPath:  env.Path(fmt.Sprintf("describe_%s.txt", current.Name)),
			Op:          func(ctx context.Context, w io.Writer) error { return c.describePod(ctx, w, current) },
		}
	}

	n := c.cfg.LogLines
	return executor.Task{
		Description: fmt.Sprintf("logs for pod %s (last %d lines)", current.Name, n),
		OutputPath:  env.Path(fmt.Sprintf("logs_%s_last%d.txt", current.Name, n)),
		Op:          func(ctx context.Context, w io.Writer) error { return c.podLogs(ctx, w, current, int64(n)) },
	}
}

// podLogs streams the tail of every init and app container. A container
// that cannot be read is noted inline and the rest are still collected.
func (c *Collector) podLogs(ctx context.Context, w io.Writer, pod *corev1.Pod, lines int64) error {
	containers := make([]string, 0, len(pod.Spec.InitContainers)+len(pod.Spec.Containers))
	for _, ct := range pod.Spec.InitContainers {
		containers = append(containers, ct.Name)
	}
	for _, ct := range pod.Spec.Containers {
		containers = append(containers, ct.Name)
	}

	var errs []error
	for _, name := range containers {
		fmt.Fprintf(w, "==> %s/%s <==\n", pod.Name, name)
		if err := c.containerLogs(ctx, w, pod, name, lines); err != nil {
			fmt.Fprintf(w, "ERROR: %v\n", err)
			errs = append(errs, fmt.Errorf("container %s: %w", name, err))
		}
		fmt.Fprintln(w)
	}
	return stderrors.Join(errs...)
}

func (c *Collector) containerLogs(ctx context.Context, w io.Writer, pod *corev1.Pod, container string, lines int64) error {
	req := c.clientset.CoreV1().Pods(pod.Namespace).GetLogs(pod.Name, &corev1.PodLogOptions{
		Container: container,
		TailLines: ptr.To(lines),
	})
	stream, err := req.Stream(ctx)
	if err != nil {
		return err
	}
	defer stream.Close()

	_, err = io.Copy(w, stream)
	return err
}

func (c *Collector) describePod(ctx context.Context, w io.Writer, pod *corev1.Pod) error {
	fmt.Fprintf(w, "Name:         %s\n", pod.Name)
	fmt.Fprintf(w, "Namespace:    %s\n", pod.Namespace)
	fmt.Fprintf(w, "Node:         %s\n", orNone(pod.Spec.NodeName))
	if pod.Status.StartTime != nil {
		fmt.Fprintf(w, "Start Time:   %s\n", pod.Status.StartTime.Format(time.RFC1123Z))
	}
	fmt.Fprintf(w, "Labels:       %s\n", formatMap(pod.Labels))
	fmt.Fprintf(w, "Status:       %s\n", podStatus(pod))
	if pod.Status.Reason != "" {
		fmt.Fprintf(w, "Reason:       %s\n", pod.Status.Reason)
	}
	if pod.Status.Message != "" {
		fmt.Fprintf(w, "Message:      %s\n", pod.Status.Message)
	}
	fmt.Fprintf(w, "IP:           %s\n", orNone(pod.Status.PodIP))
	if ref := metav1.GetControllerOf(pod); ref != nil {
		fmt.Fprintf(w, "Controlled By: %s/%s\n", ref.Kind, ref.Name)
	}

	statuses := map[string]corev1.ContainerStatus{}
	for _, cs := range pod.Status.InitContainerStatuses {
		statuses[cs.Name] = cs
	}
	for _, cs := range pod.Status.ContainerStatuses {
		statuses[cs.Name] = cs
	}
	if len(pod.Spec.InitContainers) > 0 {
		fmt.Fprintln(w, "Init Containers:")
		for _, ct := range pod.Spec.InitContainers {
			describeContainer(w, ct, statuses[ct.Name])
		}
	}
	fmt.Fprintln(w, "Containers:")
	for _, ct := range pod.Spec.Containers {
		describeContainer(w, ct, statuses[ct.Name])
	}

	fmt.Fprintln(w, "Conditions:")
	cond := newTable(w, "  Type", "Status", "Reason")
	for _, cd := range pod.Status.Conditions {
		cond.row("  "+string(cd.Type), string(cd.Status), cd.Reason)
	}
	if err := cond.flush(); err != nil {
		return err
	}

	fmt.Fprintln(w, "Events:")
	events, err := c.podEvents(ctx, pod)
	if err != nil {
		return fmt.Errorf("failed to list events for pod %s: %w", pod.Name, err)
	}
	if len(events) == 0 {
		fmt.Fprintln(w, "  <none>")
		return nil
	}
	return writeEventTable(w, events)
}

func describeContainer(w io.Writer, ct corev1.Container, cs corev1.ContainerStatus) {
	fmt.Fprintf(w, "  %s:\n", ct.Name)
	fmt.Fprintf(w, "    Image:          %s\n", ct.Image)
	fmt.Fprintf(w, "    State:          %s\n", describeState(cs.State))
	if cs.LastTerminationState.Terminated != nil {
		fmt.Fprintf(w, "    Last State:     %s\n", describeState(cs.LastTerminationState))
	}
	fmt.Fprintf(w, "    Ready:          %t\n", cs.Ready)
	fmt.Fprintf(w, "    Restart Count:  %d\n", cs.RestartCount)
	if len(ct.Resources.Limits) > 0 || len(ct.Resources.Requests) > 0 {
		fmt.Fprintf(w, "    Limits:         %s\n", formatResources(ct.Resources.Limits))
		fmt.Fprintf(w, "    Requests:       %s\n", formatResources(ct.Resources.Requests))
	}
}

func describeState(s corev1.ContainerState) string {
	switch {
	case s.Waiting != nil:
		return strings.TrimSpace(fmt.Sprintf("Waiting %s %s", s.Waiting.Reason, s.Waiting.Message))
	case s.Running != nil:
		return fmt.Sprintf("Running (started %s)", s.Running.StartedAt.Format(time.RFC3339))
	case s.Terminated != nil:
		return fmt.Sprintf("Terminated %s (exit code %d)", s.Terminated.Reason, s.Terminated.ExitCode)
	default:
		return "<unknown>"
	}
}

// podEvents returns the events of pod, oldest first. The field selector
// narrows the request; matching is repeated locally because not every
// server honors it.
func (c *Collector) podEvents(ctx context.Context, pod *corev1.Pod) ([]corev1.Event, error) {
	selector := fields.SelectorFromSet(fields.Set{
		"involvedObject.name": pod.Name,
		"involvedObject.kind": "Pod",
	}).String()

	list, err := c.clientset.CoreV1().Events(pod.Namespace).List(ctx, metav1.ListOptions{FieldSelector: selector})
	if err != nil {
		return nil, err
	}

	var out []corev1.Event
	for _, e := range list.Items {
		if e.InvolvedObject.Name == pod.Name && (e.InvolvedObject.Kind == "" || e.InvolvedObject.Kind == "Pod") {
			out = append(out, e)
		}
	}
	sortEvents(out)
	return out, nil
}

func formatMap(m map[string]string) string {
	if len(m) == 0 {
		return "<none>"
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+m[k])
	}
	return strings.Join(parts, ",")
}

func formatResources(rl corev1.ResourceList) string {
	if len(rl) == 0 {
		return "<none>"
	}
	names := make([]string, 0, len(rl))
	for name := range rl {
		names = append(names, string(name))
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		q := rl[corev1.ResourceName(name)]
		parts = append(parts, name+"="+q.String())
	}
	return strings.Join(parts, ",")
}
