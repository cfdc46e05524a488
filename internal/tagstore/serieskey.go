// Package tagstore renders and parses the canonical series-key string (the
// sorted "key:value" tag pairs joined with ';', prefixed by the metric name
// and a '#' separator, grounded on original_source/src/series_key.rs's sort
// + join + allocate_string_for_tags pre-sizing) and durably maps a series ID
// to its tag set in partition "_talna#tags" (see store.go).
package tagstore

import (
	"sort"
	"strings"

	"github.com/cuemby/talna/internal/tsdberr"
)

// validMetricNameByte reports whether b is in the allowed character set for
// a metric name: lowercase ASCII letters, digits, underscore and dot.
func validMetricNameByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_' || b == '.':
		return true
	}
	return false
}

// ValidMetricName reports whether name uses only the allowed character set
// and is non-empty.
func ValidMetricName(name string) bool {
	if name == "" {
		return false
	}
	for i := 0; i < len(name); i++ {
		if !validMetricNameByte(name[i]) {
			return false
		}
	}
	return true
}

// BuildKey renders the canonical series-key string for metric and tags:
// metric#k1:v1;k2:v2;... with tag keys sorted lexicographically.
func BuildKey(metric string, tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	size := len(metric) + 1
	for _, k := range keys {
		size += len(k) + 1 + len(tags[k]) + 1
	}
	b.Grow(size)

	b.WriteString(metric)
	b.WriteByte('#')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(';')
		}
		b.WriteString(k)
		b.WriteByte(':')
		b.WriteString(tags[k])
	}
	return b.String()
}

// Parse splits a canonical series-key string back into its metric name and
// tag set.
func Parse(seriesKey string) (metric string, tags map[string]string, err error) {
	hash := strings.IndexByte(seriesKey, '#')
	if hash < 0 {
		return "", nil, tsdberr.ErrStorage
	}
	metric = seriesKey[:hash]
	rest := seriesKey[hash+1:]
	tags = make(map[string]string)
	if rest == "" {
		return metric, tags, nil
	}
	for _, pair := range strings.Split(rest, ";") {
		colon := strings.IndexByte(pair, ':')
		if colon < 0 {
			return "", nil, tsdberr.ErrStorage
		}
		tags[pair[:colon]] = pair[colon+1:]
	}
	return metric, tags, nil
}
