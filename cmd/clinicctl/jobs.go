package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wolfman30/clinic-growth-platform/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-growth-platform/internal/config"
	"github.com/wolfman30/clinic-growth-platform/internal/jobs"
	"github.com/wolfman30/clinic-growth-platform/internal/pursuit"
	"github.com/wolfman30/clinic-growth-platform/pkg/logging"
)

func jobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run scheduler jobs by hand",
	}
	cmd.AddCommand(jobsRunCmd())
	cmd.AddCommand(jobsTickCmd())
	return cmd
}

func jobsRunCmd() *cobra.Command {
	var clinicID, trigger string
	cmd := &cobra.Command{
		Use:   "run <pursuit|flash_offer|auto_renewal>",
		Short: "Run one job for one clinic in this process",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := jobs.ParseKind(args[0])
			if err != nil {
				return err
			}
			if clinicID == "" {
				return fmt.Errorf("--clinic is required")
			}
			task := jobs.NewTask(kind, clinicID, "clinicctl")
			if trigger != "" {
				if kind != jobs.KindPursuit {
					return fmt.Errorf("--trigger only applies to pursuit jobs")
				}
				t, err := pursuit.ParseTrigger(trigger)
				if err != nil {
					return err
				}
				task.Trigger = string(t)
			}

			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			res, err := rt.services.Runner.Run(cmd.Context(), task)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&clinicID, "clinic", "", "clinic id")
	cmd.Flags().StringVar(&trigger, "trigger", "", "pursuit window (15min, 2h, eod); all windows when empty")
	return cmd
}

func jobsTickCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tick [kind]",
		Short: "Run a job for every active clinic, or every job when kind is omitted",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			cron := jobs.NewCron(rt.services.Clinics, jobs.Inline{Runner: rt.services.Runner}, jobs.Intervals{}, rt.logger)
			var n int
			if len(args) == 0 {
				n, err = cron.TickAll(cmd.Context())
			} else {
				kind, perr := jobs.ParseKind(args[0])
				if perr != nil {
					return perr
				}
				n, err = cron.Tick(cmd.Context(), kind)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ran %d task(s)\n", n)
			return err
		},
	}
}

func gapsCmd() *cobra.Command {
	var clinicID string
	var minGap time.Duration
	cmd := &cobra.Command{
		Use:   "gaps",
		Short: "List idle calendar gaps in the next 24 hours",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if clinicID == "" {
				return fmt.Errorf("--clinic is required")
			}
			rt, err := openRuntime(cmd.Context())
			if err != nil {
				return err
			}
			defer rt.Close()

			gaps, err := rt.services.FlashOffers.DetectGaps(cmd.Context(), clinicID, minGap)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), gaps)
		},
	}
	cmd.Flags().StringVar(&clinicID, "clinic", "", "clinic id")
	cmd.Flags().DurationVar(&minGap, "min-gap", time.Hour, "minimum gap length")
	return cmd
}

// runtime holds the connections a database-backed command needs.
type runtime struct {
	db       *bootstrap.Database
	closeFn  func()
	services *bootstrap.Services
	logger   *logging.Logger
}

func (r *runtime) Close() {
	if r.closeFn != nil {
		r.closeFn()
	}
	r.db.Close()
}

func openRuntime(ctx context.Context) (*runtime, error) {
	cfg := appconfig.Load()
	logger := logging.New(viper.GetString("log_level"))

	db, err := bootstrap.BuildDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient == nil {
		db.Close()
		return nil, fmt.Errorf("redis unavailable at %s", cfg.RedisAddr)
	}

	services, err := bootstrap.BuildServices(bootstrap.Deps{
		Config: cfg,
		DB:     db,
		Redis:  redisClient,
		Logger: logger,
	})
	if err != nil {
		_ = redisClient.Close()
		db.Close()
		return nil, err
	}
	return &runtime{
		db:       db,
		closeFn:  func() { _ = redisClient.Close() },
		services: services,
		logger:   logger,
	}, nil
}
