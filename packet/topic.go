package packet

import "strings"

// ValidatePublishTopic checks a topic name used in a PUBLISH packet: it
// must be non-empty, within the 65535-byte wire limit, and free of the
// wildcard characters reserved for subscription filters (spec.md §4.1).
// A leading '$' is accepted (it reserves the $SYS/ namespace for the
// broker side) and a trailing '/' is preserved rather than stripped.
func ValidatePublishTopic(topic string) error {
	if len(topic) == 0 {
		return ErrEmptyTopic
	}
	if len(topic) > 65535 {
		return ErrTopicTooLong
	}
	if strings.ContainsAny(topic, "+#") {
		return ErrTopicWildcard
	}
	return nil
}

// ValidateTopicFilter checks a topic filter used in SUBSCRIBE/UNSUBSCRIBE.
// Unlike a publish topic, a filter may contain the '+' and '#' wildcards.
func ValidateTopicFilter(filter string) error {
	if len(filter) == 0 {
		return ErrEmptyTopic
	}
	if len(filter) > 65535 {
		return ErrTopicTooLong
	}
	return nil
}
