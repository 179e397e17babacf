package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/wolfman30/clinic-growth-platform/internal/bant"
	"github.com/wolfman30/clinic-growth-platform/internal/behavior"
)

func classifyCmd() *cobra.Command {
	var (
		seconds, clicks, scroll         int
		pricing, testimonials, services bool
		exitIntent                      bool
		device                          string
	)
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a landing-page session into a psychographic profile",
		Long: `Replays one session's behavior through the tracker, runs the psychographic
classifier and prints the profile together with the landing copy variant it
unlocks. "ready" is false when the landing page would still be observing.

Examples:
  clinicctl classify --time 20 --clicks 6 --scroll 80 --exit-intent --device mobile
  clinicctl classify --time 300 --scroll 90 --pricing --testimonials`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr := behavior.NewTracker(behavior.DeviceType(strings.ToLower(device)))
			tr.Tick(time.Duration(seconds) * time.Second)
			tr.OnScroll(scroll)
			for i := 0; i < clicks; i++ {
				tr.OnClick()
			}
			if pricing {
				tr.OnSectionView(behavior.SectionPricing)
			}
			if testimonials {
				tr.OnSectionView(behavior.SectionTestimonials)
			}
			if services {
				tr.OnSectionView(behavior.SectionServices)
			}
			if exitIntent {
				tr.OnExitIntent()
			}

			profile := behavior.Classify(tr.Snapshot())
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"ready":   tr.Ready(),
				"profile": profile,
				"content": behavior.ContentVariant(profile),
			})
		},
	}

	cmd.Flags().IntVar(&seconds, "time", 0, "seconds on page")
	cmd.Flags().IntVar(&clicks, "clicks", 0, "click count")
	cmd.Flags().IntVar(&scroll, "scroll", 0, "scroll depth percentage")
	cmd.Flags().BoolVar(&pricing, "pricing", false, "visitor opened the pricing section")
	cmd.Flags().BoolVar(&testimonials, "testimonials", false, "visitor opened testimonials")
	cmd.Flags().BoolVar(&services, "services", false, "visitor opened the services list")
	cmd.Flags().BoolVar(&exitIntent, "exit-intent", false, "exit intent fired")
	cmd.Flags().StringVar(&device, "device", string(behavior.DeviceDesktop), "device type (mobile, tablet, desktop)")
	return cmd
}

func qualifyCmd() *cobra.Command {
	var in bant.Input
	cmd := &cobra.Command{
		Use:   "qualify",
		Short: "Score a lead with BANT",
		Long: `Computes the BANT score for a lead without persisting it and prints the score
and the routing recommendation.

Example:
  clinicctl qualify --budget 150000 --authority --need "arrugas" --timeline 10`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			score := bant.Qualify(in)
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"score":          score,
				"recommendation": bant.Recommend(score),
			})
		},
	}

	cmd.Flags().Int64Var(&in.Budget, "budget", 0, "budget in CLP")
	cmd.Flags().BoolVar(&in.Authority, "authority", false, "lead decides the purchase")
	cmd.Flags().StringVar(&in.JobTitle, "job-title", "", "lead's job title")
	cmd.Flags().StringSliceVar(&in.NeedAnswers, "need", nil, "need answers (repeatable)")
	cmd.Flags().IntVar(&in.TimelineDays, "timeline", 0, "days until the lead wants the treatment")
	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}
