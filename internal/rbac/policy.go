package rbac

import (
	"encoding/json"
	"sort"
)

// PermissionSet is a deduplicated set of permission keys. Iteration order is
// not significant; Keys returns a sorted copy for stable output.
type PermissionSet map[PermissionKey]struct{}

// NewPermissionSet builds a set from the given keys.
func NewPermissionSet(keys ...PermissionKey) PermissionSet {
	set := make(PermissionSet, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// Union returns a new set containing the members of both sets.
func (s PermissionSet) Union(other PermissionSet) PermissionSet {
	merged := make(PermissionSet, len(s)+len(other))
	for k := range s {
		merged[k] = struct{}{}
	}
	for k := range other {
		merged[k] = struct{}{}
	}
	return merged
}

// Has reports whether the set contains the key.
func (s PermissionSet) Has(key PermissionKey) bool {
	_, ok := s[key]
	return ok
}

// HasAny reports whether the set contains at least one of the required keys.
func (s PermissionSet) HasAny(required ...PermissionKey) bool {
	for _, k := range required {
		if _, ok := s[k]; ok {
			return true
		}
	}
	return false
}

// HasAll reports whether the set contains every required key.
func (s PermissionSet) HasAll(required ...PermissionKey) bool {
	for _, k := range required {
		if _, ok := s[k]; !ok {
			return false
		}
	}
	return true
}

// Keys returns the members sorted lexicographically.
func (s PermissionSet) Keys() []PermissionKey {
	keys := make([]PermissionKey, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// MarshalJSON renders the set as a sorted array.
func (s PermissionSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Keys())
}
