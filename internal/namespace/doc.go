// Package namespace names and persists ID namespaces. Each table column gets
// its own generator state under the namespace "{table}_{column}_seq"; the
// layout it was created with is pinned in pebble so later opens cannot mix
// incompatible bit splits.
package namespace
