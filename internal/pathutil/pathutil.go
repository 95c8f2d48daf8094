// Package pathutil normalizes keys for backends that keep objects in a flat
// namespace (object stores, Redis, SQL tables).
package pathutil

import (
	"path"
	"strings"
)

// Normalize cleans a key: backslashes become forward slashes, "." and ".."
// segments are resolved, and leading/trailing slashes are trimmed.
// Returns "." for keys that clean to nothing.
func Normalize(key string) string {
	key = path.Clean(strings.ReplaceAll(key, "\\", "/"))
	key = strings.Trim(key, "/")
	if key == "" {
		return "."
	}
	return key
}

// NormalizePrefix normalizes a namespace prefix the same way as Normalize,
// except that an empty or "." prefix yields "".
func NormalizePrefix(prefix string) string {
	if prefix == "" || prefix == "." {
		return ""
	}
	prefix = Normalize(prefix)
	if prefix == "." {
		return ""
	}
	return prefix
}

// JoinPath joins a normalized prefix with a key using the given separator.
func JoinPath(prefix, key, sep string) string {
	key = Normalize(key)
	if key == "." {
		return prefix
	}
	if prefix == "" {
		return key
	}
	return prefix + sep + key
}
