package mqtt

import (
	"fmt"
	"strings"
)

// Wildcard tokens.
//
// Patterns may use either MQTT wildcards or the SMF-style wildcards common on
// enterprise brokers; the latter are translated before subscribing.
const (
	singleLevelWildcard = "+"
	multiLevelWildcard  = "#"

	smfSingleLevelWildcard = "*"
	smfMultiLevelWildcard  = ">"

	topicSeparator = "/"
)

// ToFilter converts a topic pattern into an MQTT topic filter.
//
// Translation rules:
//   - "*" as a whole level becomes "+"
//   - ">" as the last level becomes "#"
//   - "+" and "#" are kept as-is
//
// Wildcards that are not a whole level (e.g. "AB*") and multi-level
// wildcards anywhere but the last level are rejected.
//
// Example:
//
//	ToFilter("TIC/v1/*/*/*/*") // "TIC/v1/+/+/+/+"
//	ToFilter("QUO/v1/>")       // "QUO/v1/#"
func ToFilter(pattern string) (string, error) {
	if strings.TrimSpace(pattern) == "" {
		return "", fmt.Errorf("%w: empty pattern", ErrInvalidTopic)
	}

	levels := strings.Split(pattern, topicSeparator)
	last := len(levels) - 1

	for i, level := range levels {
		switch level {
		case smfSingleLevelWildcard, singleLevelWildcard:
			levels[i] = singleLevelWildcard
		case smfMultiLevelWildcard, multiLevelWildcard:
			if i != last {
				return "", fmt.Errorf("%w: %q multi-level wildcard must be the last level", ErrInvalidTopic, pattern)
			}
			levels[i] = multiLevelWildcard
		default:
			if strings.ContainsAny(level, "*>+#") {
				return "", fmt.Errorf("%w: %q wildcard must occupy a whole level", ErrInvalidTopic, pattern)
			}
		}
	}

	return strings.Join(levels, topicSeparator), nil
}
