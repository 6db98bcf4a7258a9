// keys.go
package mediagate

import (
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// BuildKey derives the canonical cache key for a query configuration.
//
// The key is a structural encoding, not a hash: zero-valued fields are
// omitted, field names are sorted lexicographically, and values are
// percent-escaped, so two field-for-field equal configurations always yield
// the same key and two distinct configurations never collide. BuildKey is
// pure; NoCache is a call directive and never enters the key.
func BuildKey(cfg QueryConfig) string {
	fields := make(map[string]string, 9)
	if cfg.Type != "" {
		fields["type"] = cfg.Type
	}
	if cfg.Username != "" {
		fields["username"] = cfg.Username
	}
	if cfg.MediaID != 0 {
		fields["mediaId"] = strconv.Itoa(cfg.MediaID)
	}
	if cfg.MediaType != "" {
		fields["mediaType"] = cfg.MediaType
	}
	if cfg.ListType != "" {
		fields["listType"] = cfg.ListType
	}
	if cfg.Layout != "" {
		fields["layout"] = cfg.Layout
	}
	if cfg.Search != "" {
		fields["search"] = cfg.Search
	}
	if cfg.Page != 0 {
		fields["page"] = strconv.Itoa(cfg.Page)
	}
	if cfg.PerPage != 0 {
		fields["perPage"] = strconv.Itoa(cfg.PerPage)
	}

	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+"="+url.QueryEscape(fields[name]))
	}
	return strings.Join(parts, "&")
}

// ParseKey is the best-effort inverse of BuildKey, recovering the subset of
// fields invalidation needs (notably mediaId). Malformed segments are
// skipped, never fatal: a key that cannot be parsed simply matches nothing.
func ParseKey(key string) map[string]string {
	fields := make(map[string]string)
	for _, part := range strings.Split(key, "&") {
		name, raw, ok := strings.Cut(part, "=")
		if !ok || name == "" {
			continue
		}
		value, err := url.QueryUnescape(raw)
		if err != nil {
			continue
		}
		fields[name] = value
	}
	return fields
}
