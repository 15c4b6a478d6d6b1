package topic

import (
	"strings"
)

// Builder constructs topic strings of the form {root}/{segment}/{id}.
type Builder struct {
	root  string
	group string
}

// NewBuilder returns a Builder rooted at root (e.g. "truckwatch/v1").
func NewBuilder(root string) *Builder {
	return &Builder{root: strings.TrimSuffix(root, "/")}
}

// Root returns the namespace shared by every topic.
func (b *Builder) Root() string {
	return b.root
}

// Shared returns a copy of the builder whose wildcard filters are shared
// subscriptions for group: $share/{group}/{root}/{segment}/+.
func (b *Builder) Shared(group string) *Builder {
	return &Builder{root: b.root, group: group}
}

// Build returns the concrete topic for id.
func (b *Builder) Build(segment, id string) string {
	return b.root + "/" + segment + "/" + id
}

// BuildWildcard returns a filter matching segment for every id.
func (b *Builder) BuildWildcard(segment string) string {
	filter := b.Build(segment, Wildcard)
	if b.group != "" {
		return sharePrefix + "/" + b.group + "/" + filter
	}
	return filter
}

// ID extracts the trailing identifier from a concrete topic produced by
// Build. The second result is false when topic does not belong to segment.
func (b *Builder) ID(segment, topic string) (string, bool) {
	prefix := b.root + "/" + segment + "/"
	if !strings.HasPrefix(topic, prefix) {
		return "", false
	}
	id := strings.TrimPrefix(topic, prefix)
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}
	return id, true
}
