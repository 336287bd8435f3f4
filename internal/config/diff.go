// SPDX-License-Identifier: MIT

package config

import (
	"reflect"
	"sort"
	"strings"
)

// ChangeSummary describes the result of comparing two experiments.
type ChangeSummary struct {
	ChangedFields []string // dotted YAML paths, e.g. "backend.hub_kwargs.revision"
}

// Changed reports whether any field differs.
func (s ChangeSummary) Changed() bool {
	return len(s.ChangedFields) > 0
}

// Diff compares two experiments field by field. Option maps are compared
// per key so a change reports the key that moved.
func Diff(old, next Experiment) ChangeSummary {
	var s ChangeSummary
	s.compareStruct("", reflect.ValueOf(old), reflect.ValueOf(next))
	sort.Strings(s.ChangedFields)
	return s
}

func (s *ChangeSummary) compareStruct(prefix string, oldVal, nextVal reflect.Value) {
	t := oldVal.Type()
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}

		name, inline := yamlName(f)
		ov, nv := oldVal.Field(i), nextVal.Field(i)
		if inline {
			s.compareStruct(prefix, ov, nv)
			continue
		}
		fieldPath := joinPath(prefix, name)

		if ov.Kind() == reflect.Ptr {
			if ov.IsNil() && nv.IsNil() {
				continue
			}
			if ov.IsNil() != nv.IsNil() {
				s.ChangedFields = append(s.ChangedFields, fieldPath)
				continue
			}
			ov, nv = ov.Elem(), nv.Elem()
		}

		switch {
		case ov.Kind() == reflect.Struct:
			s.compareStruct(fieldPath, ov, nv)
		case ov.Type() == reflect.TypeOf(Options{}):
			s.compareOptions(fieldPath, ov.Interface().(Options), nv.Interface().(Options))
		case !reflect.DeepEqual(normalizeValue(name, ov), normalizeValue(name, nv)):
			s.ChangedFields = append(s.ChangedFields, fieldPath)
		}
	}
}

func (s *ChangeSummary) compareOptions(prefix string, old, next Options) {
	keys := map[string]struct{}{}
	for k := range old {
		keys[k] = struct{}{}
	}
	for k := range next {
		keys[k] = struct{}{}
	}
	for k := range keys {
		ov, oldOK := old[k]
		nv, nextOK := next[k]
		if oldOK != nextOK || !reflect.DeepEqual(ov, nv) {
			s.ChangedFields = append(s.ChangedFields, joinPath(prefix, k))
		}
	}
}

// yamlName returns the YAML key of f and whether it is inlined.
func yamlName(f reflect.StructField) (string, bool) {
	tag := f.Tag.Get("yaml")
	name, opts, _ := strings.Cut(tag, ",")
	if strings.Contains(opts, "inline") {
		return "", true
	}
	if name == "" {
		name = strings.ToLower(f.Name)
	}
	return name, false
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// normalizeValue returns a canonical representation for specific fields.
func normalizeValue(name string, v reflect.Value) any {
	// device_ids order does not change which devices are visible
	if v.Kind() == reflect.String && name == "device_ids" {
		parts := strings.Split(v.String(), ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		sort.Strings(parts)
		return strings.Join(parts, ",")
	}
	return v.Interface()
}
