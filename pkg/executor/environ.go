package executor

import (
	"os"
	"sort"
	"strings"
)

// Environ returns the environment of the current process merged with overrides.
// Overrides win on key collision; variables only present in overrides are appended
// in sorted order so the result is deterministic.
func Environ(overrides map[string]string) []string {
	return mergeEnv(os.Environ(), overrides)
}

func mergeEnv(base []string, overrides map[string]string) []string {
	merged := make([]string, 0, len(base)+len(overrides))
	seen := map[string]bool{}

	for _, entry := range base {
		key := strings.SplitN(entry, "=", 2)[0]
		if seen[key] {
			continue
		}
		seen[key] = true
		if value, ok := overrides[key]; ok {
			merged = append(merged, key+"="+value)
			continue
		}
		merged = append(merged, entry)
	}

	added := []string{}
	for key := range overrides {
		if !seen[key] {
			added = append(added, key)
		}
	}
	sort.Strings(added)
	for _, key := range added {
		merged = append(merged, key+"="+overrides[key])
	}
	return merged
}
