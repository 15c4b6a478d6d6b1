package topic

// Standard MQTT wildcard definitions.
const (
	// Wildcard matches exactly one topic level.
	Wildcard = "+"

	// MultiWildcard matches the current level and everything below it. It
	// must be the last level of a filter.
	MultiWildcard = "#"

	sharePrefix = "$share"
)
