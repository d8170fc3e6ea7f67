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
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/apimachinery/pkg/util/duration"
	"sigs.k8s.io/yaml"
)

// table writes aligned columns the way kubectl get does.
type table struct {
	tw *tabwriter.Writer
}

func newTable(w io.Writer, headers ...string) *table {
	t := &table{tw: tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)}
	t.row(headers...)
	return t
}

func (t *table) row(cols ...string) {
	fmt.Fprintln(t.tw, strings.Join(cols, "\t"))
}

func (t *table) flush() error {
	return t.tw.Flush()
}

func section(w io.Writer, title string) {
	fmt.Fprintf(w, "\n==> %s <==\n", title)
}

var now = time.Now

func age(ts metav1.Time) string {
	if ts.IsZero() {
		return "<unknown>"
	}
	return duration.HumanDuration(now().Sub(ts.Time))
}

func orNone(s string) string {
	if s == "" {
		return "<none>"
	}
	return s
}

// writeListYAML writes items as a v1 List, the shape kubectl -o yaml
// produces. Typed list items carry no TypeMeta so it is filled in from gvk,
// and managed fields are dropped.
func writeListYAML[T any](w io.Writer, gvk schema.GroupVersionKind, items []T, meta func(*T) (*metav1.TypeMeta, *metav1.ObjectMeta)) error {
	out := make([]any, 0, len(items))
	for i := range items {
		tm, om := meta(&items[i])
		tm.APIVersion, tm.Kind = gvk.GroupVersion().String(), gvk.Kind
		om.ManagedFields = nil
		out = append(out, &items[i])
	}

	doc := map[string]any{
		"apiVersion": "v1",
		"kind":       "List",
		"items":      out,
	}
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to render %s list: %w", gvk.Kind, err)
	}
	_, err = w.Write(raw)
	return err
}

// writeObjectYAML writes a single object with its TypeMeta set.
func writeObjectYAML(w io.Writer, gvk schema.GroupVersionKind, tm *metav1.TypeMeta, om *metav1.ObjectMeta, obj any) error {
	tm.APIVersion, tm.Kind = gvk.GroupVersion().String(), gvk.Kind
	om.ManagedFields = nil
	raw, err := yaml.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to render %s: %w", gvk.Kind, err)
	}
	_, err = w.Write(raw)
	return err
}
