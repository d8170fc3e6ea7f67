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
	"strconv"
	"strings"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	networkingv1 "k8s.io/api/networking/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/anomalo/diagnostics/pkg/executor"
)

func (c *Collector) writeDeployments(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.AppsV1().Deployments(c.cfg.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list deployments: %w", err)
	}
	return writeListYAML(w, appsv1.SchemeGroupVersion.WithKind("Deployment"), list.Items,
		func(d *appsv1.Deployment) (*metav1.TypeMeta, *metav1.ObjectMeta) { return &d.TypeMeta, &d.ObjectMeta })
}

func (c *Collector) writeServices(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.CoreV1().Services(c.cfg.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list services: %w", err)
	}
	return writeListYAML(w, corev1.SchemeGroupVersion.WithKind("Service"), list.Items,
		func(s *corev1.Service) (*metav1.TypeMeta, *metav1.ObjectMeta) { return &s.TypeMeta, &s.ObjectMeta })
}

func (c *Collector) writeIngress(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.NetworkingV1().Ingresses(c.cfg.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list ingresses: %w", err)
	}
	return writeListYAML(w, networkingv1.SchemeGroupVersion.WithKind("Ingress"), list.Items,
		func(i *networkingv1.Ingress) (*metav1.TypeMeta, *metav1.ObjectMeta) { return &i.TypeMeta, &i.ObjectMeta })
}

// writeStorage lists the namespace claims, the volumes bound to them and
// the storage classes they use.
func (c *Collector) writeStorage(ctx context.Context, w io.Writer) error {
	ns := c.cfg.Namespace
	var errs []error

	section(w, "persistentvolumeclaims")
	claims, err := c.clientset.CoreV1().PersistentVolumeClaims(ns).List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(w, "ERROR: %v\n", err)
		errs = append(errs, fmt.Errorf("persistentvolumeclaims: %w", err))
		claims = &corev1.PersistentVolumeClaimList{}
	} else {
		t := newTable(w, "NAME", "STATUS", "VOLUME", "CAPACITY", "ACCESS MODES", "STORAGECLASS", "AGE")
		for i := range claims.Items {
			pvc := &claims.Items[i]
			capacity := pvc.Status.Capacity[corev1.ResourceStorage]
			t.row(pvc.Name, string(pvc.Status.Phase), orNone(pvc.Spec.VolumeName), capacity.String(),
				accessModes(pvc.Status.AccessModes), orNone(ptrString(pvc.Spec.StorageClassName)), age(pvc.CreationTimestamp))
		}
		if err := t.flush(); err != nil {
			return err
		}
	}

	section(w, "persistentvolumes")
	volumes, err := c.clientset.CoreV1().PersistentVolumes().List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(w, "ERROR: %v\n", err)
		errs = append(errs, fmt.Errorf("persistentvolumes: %w", err))
	} else {
		t := newTable(w, "NAME", "CAPACITY", "ACCESS MODES", "RECLAIM POLICY", "STATUS", "CLAIM", "STORAGECLASS", "AGE")
		for i := range volumes.Items {
			pv := &volumes.Items[i]
			if pv.Spec.ClaimRef == nil || pv.Spec.ClaimRef.Namespace != ns {
				continue
			}
			capacity := pv.Spec.Capacity[corev1.ResourceStorage]
			t.row(pv.Name, capacity.String(), accessModes(pv.Spec.AccessModes), string(pv.Spec.PersistentVolumeReclaimPolicy),
				string(pv.Status.Phase), pv.Spec.ClaimRef.Namespace+"/"+pv.Spec.ClaimRef.Name, orNone(pv.Spec.StorageClassName), age(pv.CreationTimestamp))
		}
		if err := t.flush(); err != nil {
			return err
		}
	}

	section(w, "storageclasses")
	classes, err := c.clientset.StorageV1().StorageClasses().List(ctx, metav1.ListOptions{})
	if err != nil {
		fmt.Fprintf(w, "ERROR: %v\n", err)
		errs = append(errs, fmt.Errorf("storageclasses: %w", err))
	} else {
		t := newTable(w, "NAME", "PROVISIONER", "RECLAIM POLICY", "VOLUME BINDING MODE", "ALLOW EXPANSION", "AGE")
		for i := range classes.Items {
			sc := &classes.Items[i]
			name := sc.Name
			if sc.Annotations["storageclass.kubernetes.io/is-default-class"] == "true" {
				name += " (default)"
			}
			reclaim := "Delete"
			if sc.ReclaimPolicy != nil {
				reclaim = string(*sc.ReclaimPolicy)
			}
			binding := "Immediate"
			if sc.VolumeBindingMode != nil {
				binding = string(*sc.VolumeBindingMode)
			}
			expand := sc.AllowVolumeExpansion != nil && *sc.AllowVolumeExpansion
			t.row(name, sc.Provisioner, reclaim, binding, strconv.FormatBool(expand), age(sc.CreationTimestamp))
		}
		if err := t.flush(); err != nil {
			return err
		}
	}

	return stderrors.Join(errs...)
}

func accessModes(modes []corev1.PersistentVolumeAccessMode) string {
	short := map[corev1.PersistentVolumeAccessMode]string{
		corev1.ReadWriteOnce:    "RWO",
		corev1.ReadOnlyMany:     "ROX",
		corev1.ReadWriteMany:    "RWX",
		corev1.ReadWriteOncePod: "RWOP",
	}
	out := make([]string, 0, len(modes))
	for _, m := range modes {
		if s, ok := short[m]; ok {
			out = append(out, s)
		} else {
			out = append(out, string(m))
		}
	}
	return orNone(strings.Join(out, ","))
}

func ptrString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (c *Collector) writeConfigMapNames(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.CoreV1().ConfigMaps(c.cfg.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list config maps: %w", err)
	}
	t := newTable(w, "NAME", "DATA", "AGE")
	for i := range list.Items {
		cm := &list.Items[i]
		t.row(cm.Name, strconv.Itoa(len(cm.Data)+len(cm.BinaryData)), age(cm.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) configMapBody(name string) executor.Op {
	return func(ctx context.Context, w io.Writer) error {
		cm, err := c.clientset.CoreV1().ConfigMaps(c.cfg.Namespace).Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return executor.Advisory(fmt.Errorf("config map %s not found in %s", name, c.cfg.Namespace))
		}
		if err != nil {
			return fmt.Errorf("failed to get config map %s: %w", name, err)
		}
		return writeObjectYAML(w, corev1.SchemeGroupVersion.WithKind("ConfigMap"), &cm.TypeMeta, &cm.ObjectMeta, cm)
	}
}

// writeSecretNames records names and types only; secret values never
// appear in this listing.
func (c *Collector) writeSecretNames(ctx context.Context, w io.Writer) error {
	list, err := c.clientset.CoreV1().Secrets(c.cfg.Namespace).List(ctx, metav1.ListOptions{})
	if err != nil {
		return fmt.Errorf("failed to list secrets: %w", err)
	}
	t := newTable(w, "NAME", "TYPE", "DATA", "AGE")
	for i := range list.Items {
		s := &list.Items[i]
		t.row(s.Name, string(s.Type), strconv.Itoa(len(s.Data)), age(s.CreationTimestamp))
	}
	return t.flush()
}

func (c *Collector) secretBody(name string) executor.Op {
	return func(ctx context.Context, w io.Writer) error {
		s, err := c.clientset.CoreV1().Secrets(c.cfg.Namespace).Get(ctx, name, metav1.GetOptions{})
		if apierrors.IsNotFound(err) {
			return executor.Advisory(fmt.Errorf("secret %s not found in %s", name, c.cfg.Namespace))
		}
		if err != nil {
			return fmt.Errorf("failed to get secret %s: %w", name, err)
		}
		return writeObjectYAML(w, corev1.SchemeGroupVersion.WithKind("Secret"), &s.TypeMeta, &s.ObjectMeta, s)
	}
}
