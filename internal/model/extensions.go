package model

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
)

// ExtensionPrefix namespaces vendor extensions understood by the loaders.
const ExtensionPrefix = "x-formexpr"

// CanonicalizeExtensionValue turns an extension payload into the string form
// stored on a field. Returns false when the value cannot be represented
// deterministically.
func CanonicalizeExtensionValue(value any) (string, bool) {
	switch v := value.(type) {
	case nil:
		return "", false
	case string:
		return v, v != ""
	case bool:
		return strconv.FormatBool(v), true
	case int:
		return strconv.Itoa(v), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 64), true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case []string:
		if len(v) == 0 {
			return "", false
		}
		return strings.Join(v, " AND "), true
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := CanonicalizeExtensionValue(item); ok {
				parts = append(parts, s)
			}
		}
		if len(parts) == 0 {
			return "", false
		}
		return strings.Join(parts, " AND "), true
	case map[string]any:
		if len(v) == 0 {
			return "", false
		}
		payload, err := json.Marshal(v)
		if err != nil {
			return "", false
		}
		return string(payload), true
	default:
		return "", false
	}
}

// MetadataFromExtensions collects every x-formexpr-meta-* extension into a
// flat metadata map. Returns nil when nothing matched.
func MetadataFromExtensions(ext map[string]any) map[string]string {
	if len(ext) == 0 {
		return nil
	}
	prefix := ExtensionPrefix + "-meta-"
	keys := make([]string, 0, len(ext))
	for key := range ext {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if s, ok := CanonicalizeExtensionValue(ext[key]); ok {
			out[strings.TrimPrefix(key, prefix)] = s
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
