// Package limits defines resource caps enforced during feed parsing and the
// bounded append primitive used at every collection growth point. The caps
// protect against hostile feeds that try to exhaust memory or CPU.
package limits

// Limits holds all configurable parsing caps. The zero value is not usable,
// obtain one from Default and override fields as needed.
type Limits struct {
	MaxFeedSize        int `yaml:"max_feed_size" json:"max_feed_size" jsonschema:"default=104857600,description=Maximum feed size in bytes"`
	MaxNestingDepth    int `yaml:"max_nesting_depth" json:"max_nesting_depth" jsonschema:"default=100,description=Maximum XML element nesting depth"`
	MaxEntries         int `yaml:"max_entries" json:"max_entries" jsonschema:"default=10000,description=Maximum number of entries kept"`
	MaxTextLength      int `yaml:"max_text_length" json:"max_text_length" jsonschema:"default=10485760,description=Maximum length of a single text field in bytes"`
	MaxAttributeLength int `yaml:"max_attribute_length" json:"max_attribute_length" jsonschema:"default=65536,description=Maximum length of a single attribute value in bytes"`
	MaxLinksPerFeed    int `yaml:"max_links_per_feed" json:"max_links_per_feed" jsonschema:"default=100,description=Maximum links at feed level"`
	MaxLinksPerEntry   int `yaml:"max_links_per_entry" json:"max_links_per_entry" jsonschema:"default=50,description=Maximum links per entry"`
	MaxAuthors         int `yaml:"max_authors" json:"max_authors" jsonschema:"default=20,description=Maximum authors per feed or entry"`
	MaxContributors    int `yaml:"max_contributors" json:"max_contributors" jsonschema:"default=20,description=Maximum contributors per feed or entry"`
	MaxTags            int `yaml:"max_tags" json:"max_tags" jsonschema:"default=100,description=Maximum tags per feed or entry"`
	MaxContentBlocks   int `yaml:"max_content_blocks" json:"max_content_blocks" jsonschema:"default=10,description=Maximum content blocks per entry"`
	MaxEnclosures      int `yaml:"max_enclosures" json:"max_enclosures" jsonschema:"default=20,description=Maximum enclosures per entry"`
	MaxNamespaces      int `yaml:"max_namespaces" json:"max_namespaces" jsonschema:"default=100,description=Maximum recorded namespace declarations"`
}

// Default returns the standard limits: 100 MB feed, 10k entries, depth 100,
// 10 MB per text field, 64 KB per attribute.
func Default() Limits {
	return Limits{
		MaxFeedSize:        100 * 1024 * 1024,
		MaxNestingDepth:    100,
		MaxEntries:         10_000,
		MaxTextLength:      10 * 1024 * 1024,
		MaxAttributeLength: 64 * 1024,
		MaxLinksPerFeed:    100,
		MaxLinksPerEntry:   50,
		MaxAuthors:         20,
		MaxContributors:    20,
		MaxTags:            100,
		MaxContentBlocks:   10,
		MaxEnclosures:      20,
		MaxNamespaces:      100,
	}
}

// Push appends v to *s only while the slice is below max. It reports whether
// the value was stored; on a full collection nothing is inserted and the
// caller is expected to flag the feed as bozo, once per collection.
func Push[T any](s *[]T, v T, max int) bool {
	if len(*s) >= max {
		return false
	}
	*s = append(*s, v)
	return true
}
