// Package objectiveid canonicalizes objective names typed on the command
// line or found in older run logs.
package objectiveid

import "strings"

const (
	Population   = "population"
	Displacement = "displacement"
)

// Normalize lower-cases name, folds separators to '-', strips the optional
// "objective" prefix or suffix and maps known aliases onto the canonical
// names. Unknown names are returned in their folded form.
func Normalize(name string) string {
	normalized := strings.TrimSpace(strings.ToLower(name))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	normalized = strings.ReplaceAll(normalized, " ", "-")
	normalized = strings.Trim(normalized, "-")
	if normalized == "" {
		return ""
	}
	for _, candidate := range aliasCandidates(normalized) {
		if canonical, ok := canonicalName(candidate); ok {
			return canonical
		}
	}
	return normalized
}

func aliasCandidates(normalized string) []string {
	candidates := []string{normalized}
	trimmed := strings.TrimPrefix(normalized, "objective-")
	trimmed = strings.TrimSuffix(trimmed, "-objective")
	trimmed = strings.TrimSuffix(trimmed, "-fitness")
	if trimmed != "" && trimmed != normalized {
		candidates = append(candidates, trimmed)
	}
	return candidates
}

func canonicalName(alias string) (string, bool) {
	switch strings.ReplaceAll(alias, "-", "") {
	case "population", "pop", "livecount", "alive", "live":
		return Population, true
	case "displacement", "centroid", "proximity", "distance", "target":
		return Displacement, true
	default:
		return "", false
	}
}
