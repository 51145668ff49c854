package gather

import (
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrFeedFormat is returned when a node's activity feed does not describe a
// draining transition in its first entry.
var ErrFeedFormat = errors.New("feed does not describe a draining node")

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	Summary string `xml:"summary"`
	Updated string `xml:"updated"`
}

// ExtractDrainedAt parses a load-balancer node's atom activity feed and
// returns the time the node entered the DRAINING condition.
//
// Only the first (most recent) entry is consulted: the latest event is
// assumed to be the draining transition. If unrelated events have been
// recorded on the node since it started draining, the true transition time
// is not recovered; the parse fails instead of guessing.
func ExtractDrainedAt(feed []byte) (time.Time, error) {
	var parsed atomFeed
	if err := xml.Unmarshal(feed, &parsed); err != nil {
		return time.Time{}, fmt.Errorf("failed to parse activity feed: %w", err)
	}
	if len(parsed.Entries) == 0 {
		return time.Time{}, fmt.Errorf("%w: feed has no entries", ErrFeedFormat)
	}

	entry := parsed.Entries[0]
	if !strings.Contains(entry.Summary, "Node successfully updated") ||
		!strings.Contains(entry.Summary, "DRAINING") {
		return time.Time{}, fmt.Errorf("%w: summary %q", ErrFeedFormat, entry.Summary)
	}

	updated, err := time.Parse(time.RFC3339, entry.Updated)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse feed timestamp %q: %w", entry.Updated, err)
	}
	return updated, nil
}
