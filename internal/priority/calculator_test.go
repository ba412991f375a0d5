package priority

import (
	"testing"
	"time"

	"github.com/priorityhub/inbox-platform/internal/model"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func TestUrgentEmailScenario(t *testing.T) {
	// contact 90, "urgent"+"asap" (max 20, not 40), 30 minutes old,
	// importance=high: 36 + 20 + 20 + 5 + 3.75 = 84.75 -> 85
	got := Calculate(Input{
		Channel:         model.ChannelEmail,
		Content:         "This is urgent, need the figures asap",
		LastMessageAt:   testNow.Add(-30 * time.Minute),
		ContactPriority: 90,
		Metadata:        map[string]any{"importance": "high"},
		Now:             testNow,
	})
	if got != 85 {
		t.Fatalf("expected 85, got %d", got)
	}
}

func TestChatDirectMessageScenario(t *testing.T) {
	// contact 60, no keywords, 2h old, DM: 24 + 0 + 15 + 12 + 5 = 56
	got := Calculate(Input{
		Channel:         model.ChannelChat,
		Content:         "hey, got a minute later today?",
		LastMessageAt:   testNow.Add(-2 * time.Hour),
		ContactPriority: 60,
		Metadata:        map[string]any{"is_direct_message": true},
		Now:             testNow,
	})
	if got != 56 {
		t.Fatalf("expected 56, got %d", got)
	}
}

func TestBoundsAcrossExtremes(t *testing.T) {
	cases := []Input{
		{Channel: model.ChannelMessaging, Content: "urgent emergency critical", LastMessageAt: testNow.Add(-time.Minute), ContactPriority: 100, Now: testNow},
		{Channel: model.ChannelNetwork, Content: "no rush", LastMessageAt: testNow.Add(-71 * time.Hour), ContactPriority: 0, Metadata: map[string]any{"is_inmail": true}, Now: testNow},
		{Channel: model.ChannelChat, Content: "", LastMessageAt: testNow, ContactPriority: 250, Now: testNow},
		{Channel: model.ChannelEmail, Content: "", LastMessageAt: testNow, ContactPriority: -5, Now: testNow},
	}
	for i, in := range cases {
		got := Calculate(in)
		if got < 0 || got > 100 {
			t.Fatalf("case %d: score %d out of [0,100]", i, got)
		}
	}
}

func TestInactivityShortCircuit(t *testing.T) {
	in := Input{
		Channel:         model.ChannelMessaging,
		Content:         "urgent!!!",
		LastMessageAt:   testNow.Add(-7 * 24 * time.Hour),
		ContactPriority: 100,
		Now:             testNow,
	}
	if got := Calculate(in); got != 0 {
		t.Fatalf("expected 0 for inactive conversation, got %d", got)
	}

	// The read-time check agrees without recomputing.
	if got := WithInactivityCheck(97, in.LastMessageAt, testNow); got != 0 {
		t.Fatalf("expected read-time 0, got %d", got)
	}
	if got := WithInactivityCheck(97, testNow.Add(-6*24*time.Hour), testNow); got != 97 {
		t.Fatalf("expected stored value passthrough, got %d", got)
	}
}

func TestDeterminism(t *testing.T) {
	in := Input{
		Channel:         model.ChannelChat,
		Content:         "deadline for the critical launch, important",
		LastMessageAt:   testNow.Add(-5 * time.Hour),
		ContactPriority: 73,
		Metadata:        map[string]any{"has_mention": true},
		Now:             testNow,
	}
	first := Calculate(in)
	for i := 0; i < 10; i++ {
		if got := Calculate(in); got != first {
			t.Fatalf("run %d: got %d, want %d", i, got, first)
		}
	}
}

func TestUrgencyTakesMaxNotSum(t *testing.T) {
	base := Input{Channel: model.ChannelEmail, LastMessageAt: testNow.Add(-time.Minute), ContactPriority: 50, Now: testNow}

	single := base
	single.Content = "this is urgent"
	stacked := base
	stacked.Content = "urgent asap emergency critical deadline important"

	if Calculate(single) != Calculate(stacked) {
		t.Fatalf("stacked keywords changed the score: %d vs %d", Calculate(single), Calculate(stacked))
	}
}

func TestRecencySteps(t *testing.T) {
	cases := []struct {
		age  time.Duration
		want int
	}{
		{30 * time.Minute, 20},
		{time.Hour, 15},
		{3 * time.Hour, 15},
		{4 * time.Hour, 10},
		{23 * time.Hour, 10},
		{48 * time.Hour, 5},
		{72 * time.Hour, 0},
		{100 * time.Hour, 0},
	}
	for _, tc := range cases {
		if got := recencyScore(tc.age); got != tc.want {
			t.Fatalf("age %v: got %d, want %d", tc.age, got, tc.want)
		}
	}
}

func TestProviderBoostClampsCombinedValue(t *testing.T) {
	// DM (+10) and mention (+5) sum to +15, clamped to +10: same score as
	// a bare DM.
	dm := map[string]any{"is_direct_message": true}
	dmMention := map[string]any{"is_direct_message": true, "has_mention": true}
	if providerBoost(model.ChannelChat, dm) != providerBoost(model.ChannelChat, dmMention) {
		t.Fatalf("combined chat boost not clamped to band")
	}

	// Forwarded group message sums to -15, clamped to -10.
	meta := map[string]any{"is_forwarded": true, "is_group": true}
	if got := providerBoost(model.ChannelMessaging, meta); got != -10 {
		t.Fatalf("expected -10, got %d", got)
	}
}

func TestProviderBoostPerChannel(t *testing.T) {
	cases := []struct {
		channel model.Channel
		meta    map[string]any
		want    int
	}{
		{model.ChannelEmail, map[string]any{"importance": "high"}, 5},
		{model.ChannelEmail, map[string]any{"importance": "low"}, -3},
		{model.ChannelEmail, nil, 0},
		{model.ChannelChat, map[string]any{}, -5},
		{model.ChannelChat, map[string]any{"mentions": []any{"ana"}}, 5},
		{model.ChannelMessaging, map[string]any{"is_forwarded": true}, -5},
		{model.ChannelMessaging, map[string]any{"is_group": true}, -10},
		{model.ChannelNetwork, map[string]any{"connection_degree": float64(1)}, 5},
		{model.ChannelNetwork, map[string]any{"is_inmail": true}, -5},
		{model.ChannelNetwork, map[string]any{"connection_degree": 1, "is_inmail": true}, 0},
	}
	for i, tc := range cases {
		if got := providerBoost(tc.channel, tc.meta); got != tc.want {
			t.Fatalf("case %d (%s): got %d, want %d", i, tc.channel, got, tc.want)
		}
	}
}

func TestNoRushKeywordScoresZero(t *testing.T) {
	if got := urgencyScore("no rush on this one"); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
	// But a stronger keyword alongside it still wins.
	if got := urgencyScore("no rush, but there is a deadline"); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
}
