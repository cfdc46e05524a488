package talna

import "github.com/cuemby/talna/internal/tagstore"

// TagSet is a data point's tag set: a mapping from tag key to tag value. A
// missing group-by tag causes a series to be dropped from grouped
// aggregation rather than raising an error.
type TagSet map[string]string

// ValidMetricName reports whether name uses the engine's allowed character
// set (lower-case ASCII letters, digits, '_' and '.') and is non-empty.
func ValidMetricName(name string) bool {
	return tagstore.ValidMetricName(name)
}
