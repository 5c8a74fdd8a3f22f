// Package sliceutil provides generic slice manipulation utilities.
package sliceutil

// Deduplicate removes duplicate items from a slice while preserving order.
// The keyFunc extracts a unique key from each item for comparison.
// Only the first occurrence of each key is kept.
//
// Example:
//
//	names := []string{"算法", "数据库", "算法"}
//	unique := sliceutil.Deduplicate(names, func(s string) string { return s })
//	// Result: ["算法", "数据库"]
func Deduplicate[T any, K comparable](items []T, keyFunc func(T) K) []T {
	if len(items) == 0 {
		return items
	}

	seen := make(map[K]struct{}, len(items))
	result := make([]T, 0, len(items))

	for _, item := range items {
		key := keyFunc(item)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, item)
	}

	return result
}

// DeduplicateBy drops an item when any of its keys was already produced by
// an earlier kept item. Every key of a kept item is recorded, so two items
// sharing only their second key still collapse to the first.
func DeduplicateBy[T any, K comparable](items []T, keyFuncs ...func(T) K) []T {
	if len(items) == 0 || len(keyFuncs) == 0 {
		return items
	}

	seen := make(map[int]map[K]struct{}, len(keyFuncs))
	for i := range keyFuncs {
		seen[i] = make(map[K]struct{}, len(items))
	}
	result := make([]T, 0, len(items))

	for _, item := range items {
		keys := make([]K, len(keyFuncs))
		duplicate := false
		for i, fn := range keyFuncs {
			keys[i] = fn(item)
			if _, ok := seen[i][keys[i]]; ok {
				duplicate = true
			}
		}
		if duplicate {
			continue
		}
		for i, key := range keys {
			seen[i][key] = struct{}{}
		}
		result = append(result, item)
	}

	return result
}
