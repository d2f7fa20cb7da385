package filters

// Normalize enforces the sentinel rule on a multi-selection: an empty list or
// any list containing All collapses to [All]; otherwise duplicates are
// dropped and order is kept.
func Normalize[T ~string](values []T) []T {
	if len(values) == 0 {
		return []T{T(All)}
	}
	seen := make(map[T]struct{}, len(values))
	out := make([]T, 0, len(values))
	for _, v := range values {
		if string(v) == All {
			return []T{T(All)}
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Select is the single-select rule: picking All yields [All], anything else
// replaces the selection.
func Select[T ~string](value T) []T {
	if string(value) == All || value == "" {
		return []T{T(All)}
	}
	return []T{value}
}

// Toggle is the multi-select rule. Toggling All resets to [All]; toggling a
// specific value clears All, adds or removes the value, and falls back to
// [All] when nothing specific remains.
func Toggle[T ~string](current []T, value T) []T {
	if string(value) == All || value == "" {
		return []T{T(All)}
	}
	out := make([]T, 0, len(current)+1)
	found := false
	for _, v := range current {
		if string(v) == All {
			continue
		}
		if v == value {
			found = true
			continue
		}
		out = append(out, v)
	}
	if !found {
		out = append(out, value)
	}
	return Normalize(out)
}

// IsAll reports whether the selection is the sentinel.
func IsAll[T ~string](values []T) bool {
	return len(values) == 1 && string(values[0]) == All
}

// Matches reports whether value passes the selection.
func Matches[T ~string](selection []T, value T) bool {
	if len(selection) == 0 || IsAll(selection) {
		return true
	}
	for _, v := range selection {
		if v == value {
			return true
		}
	}
	return false
}
