package pipeline

import "strings"

const locationPrefix = "airpay_"

// NormalizeLocations parses the raw comma-separated Locations cell into a
// list of location identifiers.
//
// A field that is exactly "default" (any casing) stands for the connection's
// default location and comes back as ["default"]. In a multi-entry field a
// "default" entry carries no information and is dropped. The "airpay_"
// prefix is stripped; anything else is kept verbatim, in order, duplicates
// included. An empty field yields [""]: the empty token is neither the
// sentinel nor prefixed, so it passes through like any other unrecognized
// value.
func NormalizeLocations(field string) []string {
	parts := strings.Split(field, ",")
	entries := make([]string, 0, len(parts))
	for _, p := range parts {
		entries = append(entries, strings.TrimSpace(p))
	}

	if len(entries) == 1 && strings.EqualFold(entries[0], "default") {
		return []string{"default"}
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.EqualFold(entry, "default") {
			continue
		}
		if strings.HasPrefix(entry, locationPrefix) {
			out = append(out, entry[len(locationPrefix):])
			continue
		}
		out = append(out, entry)
	}
	return out
}
