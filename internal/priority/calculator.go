// Package priority computes transparent 0-100 priority scores for
// conversations from five weighted signals.
package priority

import (
	"math"
	"strings"
	"time"

	"github.com/priorityhub/inbox-platform/internal/model"
)

// InactivityThreshold is the window after which a conversation scores 0
// regardless of every other signal.
const InactivityThreshold = 7 * 24 * time.Hour

// Input carries everything the calculator needs. Now is passed explicitly
// so the function stays pure and deterministic under test.
type Input struct {
	Channel         model.Channel
	Content         string
	LastMessageAt   time.Time
	ContactPriority int
	Metadata        map[string]any
	Now             time.Time
}

// urgencyKeywords maps content substrings to urgency scores. The signal is
// the maximum matching score, not a sum.
var urgencyKeywords = map[string]int{
	"urgent":         20,
	"asap":           20,
	"emergency":      20,
	"critical":       18,
	"immediately":    18,
	"deadline":       15,
	"important":      10,
	"time-sensitive": 10,
	"priority":       8,
	"needed":         7,
	"soon":           6,
	"quick question": 5,
	"when you can":   3,
	"no rush":        0,
}

// responseExpectation reflects platform norms for expected reply latency.
var responseExpectation = map[model.Channel]int{
	model.ChannelEmail:     5,
	model.ChannelChat:      12,
	model.ChannelMessaging: 15,
	model.ChannelNetwork:   3,
}

// Signal weights, summing to 1.
const (
	weightContact     = 0.40
	weightUrgency     = 0.20
	weightRecency     = 0.20
	weightExpectation = 0.15
	weightBoost       = 0.05
)

// Calculate returns the conversation priority for one scoring context.
func Calculate(in Input) int {
	if in.Now.Sub(in.LastMessageAt) >= InactivityThreshold {
		return 0
	}

	contact := clamp(in.ContactPriority, 0, 100)
	urgency := urgencyScore(in.Content)
	recency := recencyScore(in.Now.Sub(in.LastMessageAt))
	expectation := responseExpectation[in.Channel]
	boost := providerBoost(in.Channel, in.Metadata)

	// Normalize each signal to 0-100, then weight.
	weighted := float64(contact)*weightContact +
		float64(urgency)/20*100*weightUrgency +
		float64(recency)/20*100*weightRecency +
		float64(expectation)/15*100*weightExpectation +
		float64(boost+10)/20*100*weightBoost

	return clamp(int(math.Round(weighted)), 0, 100)
}

// WithInactivityCheck is the read-time companion: it forces a stored
// priority to 0 once the conversation crosses the inactivity threshold,
// without recomputing anything else.
func WithInactivityCheck(stored int, lastMessageAt, now time.Time) int {
	if now.Sub(lastMessageAt) >= InactivityThreshold {
		return 0
	}
	return stored
}

func urgencyScore(content string) int {
	lowered := strings.ToLower(content)
	score := 0
	for keyword, v := range urgencyKeywords {
		if strings.Contains(lowered, keyword) && v > score {
			score = v
		}
	}
	if score > 20 {
		score = 20
	}
	return score
}

func recencyScore(age time.Duration) int {
	switch {
	case age < time.Hour:
		return 20
	case age < 4*time.Hour:
		return 15
	case age < 24*time.Hour:
		return 10
	case age < 72*time.Hour:
		return 5
	default:
		return 0
	}
}

// providerBoost computes the channel-specific metadata boost. Components
// are summed first; only the combined value is clamped to the -10..+10 band.
func providerBoost(channel model.Channel, metadata map[string]any) int {
	boost := 0

	switch channel {
	case model.ChannelEmail:
		switch metaString(metadata, "importance") {
		case "high":
			boost += 5
		case "low":
			boost -= 3
		}

	case model.ChannelChat:
		direct := metaBool(metadata, "is_direct_message")
		mentioned := metaBool(metadata, "has_mention") || metaLen(metadata, "mentions") > 0
		if direct {
			boost += 10
		}
		if mentioned {
			boost += 5
		}
		if !direct && !mentioned {
			boost -= 5
		}

	case model.ChannelMessaging:
		if metaBool(metadata, "is_forwarded") {
			boost -= 5
		}
		if metaBool(metadata, "is_group") {
			boost -= 10
		}

	case model.ChannelNetwork:
		if metaInt(metadata, "connection_degree") == 1 {
			boost += 5
		}
		if metaBool(metadata, "is_inmail") {
			boost -= 5
		}
	}

	return clamp(boost, -10, 10)
}

func metaString(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func metaBool(m map[string]any, key string) bool {
	if m == nil {
		return false
	}
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}

// metaInt reads an integer flag, tolerating the float64 that JSON decoding
// produces for all numbers.
func metaInt(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func metaLen(m map[string]any, key string) int {
	if m == nil {
		return 0
	}
	if list, ok := m[key].([]any); ok {
		return len(list)
	}
	if list, ok := m[key].([]string); ok {
		return len(list)
	}
	return 0
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
