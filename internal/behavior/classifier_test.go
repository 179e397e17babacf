package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name   string
		sample Sample
		want   Profile
	}{
		{
			name:   "fast clicker who scrolled deep",
			sample: Sample{TimeOnPageSec: 20, ClicksCount: 8, ScrollDepthPct: 85},
			want:   ProfileImpulsive,
		},
		{
			name:   "testimonial reader",
			sample: Sample{TimeOnPageSec: 150, ScrollDepthPct: 90, ViewedTestimonials: true},
			want:   ProfileAnalytic,
		},
		{
			name:   "pricing viewer with few clicks",
			sample: Sample{TimeOnPageSec: 75, ClicksCount: 1, ScrollDepthPct: 40, ViewedPricing: true},
			want:   ProfilePriceSensitive,
		},
		{
			name:   "exit intent",
			sample: Sample{TimeOnPageSec: 10, ExitIntentTriggered: true},
			want:   ProfileHesitant,
		},
		{
			name:   "long idle visit",
			sample: Sample{TimeOnPageSec: 100, ClicksCount: 4},
			want:   ProfileHesitant,
		},
		{
			name:   "nothing matches",
			sample: Sample{TimeOnPageSec: 45, ClicksCount: 6, ScrollDepthPct: 50},
			want:   ProfileHesitant,
		},
		{
			name: "impulsive wins over exit intent",
			sample: Sample{
				TimeOnPageSec: 25, ClicksCount: 7, ScrollDepthPct: 95, ExitIntentTriggered: true,
			},
			want: ProfileImpulsive,
		},
		{
			name: "analytic wins over price sensitive",
			sample: Sample{
				TimeOnPageSec: 200, ClicksCount: 1, ScrollDepthPct: 95,
				ViewedTestimonials: true, ViewedPricing: true,
			},
			want: ProfileAnalytic,
		},
		{
			name:   "boundary 30s is not impulsive",
			sample: Sample{TimeOnPageSec: 30, ClicksCount: 8, ScrollDepthPct: 85},
			want:   ProfileHesitant,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.sample))
		})
	}
}

func TestClassifyTotalAndDeterministic(t *testing.T) {
	for secs := 0; secs <= 240; secs += 15 {
		for clicks := 0; clicks <= 10; clicks++ {
			for depth := 0; depth <= 100; depth += 10 {
				for flags := 0; flags < 16; flags++ {
					s := Sample{
						TimeOnPageSec:       secs,
						ClicksCount:         clicks,
						ScrollDepthPct:      depth,
						ViewedPricing:       flags&1 != 0,
						ViewedTestimonials:  flags&2 != 0,
						ViewedServices:      flags&4 != 0,
						ExitIntentTriggered: flags&8 != 0,
					}
					got := Classify(s)
					if !got.Valid() {
						t.Fatalf("invalid profile %q for %+v", got, s)
					}
					if again := Classify(s); again != got {
						t.Fatalf("non-deterministic classification for %+v: %s then %s", s, got, again)
					}
				}
			}
		}
	}
}
