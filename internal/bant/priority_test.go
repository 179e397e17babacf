package bant

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
)

func TestLeadPriorityNeverExceedsHundred(t *testing.T) {
	p := LeadPriority(Score{TotalScore: 100}, behavior.ProfileImpulsive, 100)
	assert.Equal(t, 100, p.Score)
	assert.Equal(t, TierHot, p.Tier)
	assert.Equal(t, ChannelCall, p.Channel)
}

func TestLeadPriorityTiers(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		profile  behavior.Profile
		scarcity int
		score    int
		tier     Tier
		channel  Channel
	}{
		{"impulsive boost reaches hot", 70, behavior.ProfileImpulsive, 0, 80, TierHot, ChannelCall},
		{"scarcity boost reaches warm", 45, behavior.ProfileAnalytic, 70, 60, TierWarm, ChannelWhatsApp},
		{"scarcity below threshold", 45, behavior.ProfileAnalytic, 69, 45, TierCold, ChannelEmail},
		{"both boosts", 50, behavior.ProfileImpulsive, 90, 75, TierWarm, ChannelWhatsApp},
		{"unknown profile", 59, "", 0, 59, TierCold, ChannelEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := LeadPriority(Score{TotalScore: tt.total}, tt.profile, tt.scarcity)
			assert.Equal(t, tt.score, p.Score)
			assert.Equal(t, tt.tier, p.Tier)
			assert.Equal(t, tt.channel, p.Channel)
		})
	}
}

func TestRecommend(t *testing.T) {
	assert.Equal(t, "book_now", Recommend(Score{Status: StatusQualified}).Action)
	assert.Equal(t, "offer_entry_service",
		Recommend(Score{Status: StatusDisqualified, DisqualifiedReason: ReasonBudgetFloor}).Action)
	assert.Equal(t, "nurture",
		Recommend(Score{Status: StatusDisqualified, DisqualifiedReason: ReasonLowComposite}).Action)

	pending := Score{Status: StatusPending, AuthorityScore: 40, NeedScore: 80, TimelineScore: 90}
	assert.Equal(t, "involve_decision_maker", Recommend(pending).Action)
	pending.AuthorityScore = 100
	pending.NeedScore = 30
	assert.Equal(t, "educate", Recommend(pending).Action)
	pending.NeedScore = 75
	pending.TimelineScore = 30
	assert.Equal(t, "schedule_follow_up", Recommend(pending).Action)
	pending.TimelineScore = 75
	rec := Recommend(pending)
	assert.Equal(t, "follow_up", rec.Action)
	assert.Equal(t, "medium", rec.Priority)
	assert.NotEmpty(t, rec.Message)
}
