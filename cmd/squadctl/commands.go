package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/config"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/mail"
	"github.com/spec-kit/squad-service/internal/observability"
	"github.com/spec-kit/squad-service/internal/persistence"
	"github.com/spec-kit/squad-service/internal/quiz"
	"github.com/spec-kit/squad-service/internal/realtime"
	"github.com/spec-kit/squad-service/internal/repository"
	"github.com/spec-kit/squad-service/internal/service"
	"github.com/spec-kit/squad-service/internal/worker"
	"github.com/spec-kit/squad-service/migrations"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()
			return persistence.RunMigrations(cmd.Context(), e.pg.PoolHandle(), migrations.FS, e.logger)
		},
	}
}

func dispatchCallupsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dispatch-callups",
		Short: "Send every scheduled callup that is due, once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			redis := persistence.NewRedis(cmd.Context(), e.cfg.Redis, e.logger)
			defer redis.Close()

			pool := e.pg.PoolHandle()
			p := newCallupPipeline(e.cfg, callupRepos{
				profiles:   repository.NewProfileRepository(pool),
				teams:      repository.NewTeamRepository(pool),
				activities: repository.NewActivityRepository(pool),
				callups:    repository.NewCallupRepository(pool),
				scheduled:  repository.NewScheduledCallupRepository(pool),
			}, realtime.NewRedisBus(redis.Client), mail.NewSender(e.cfg.Notification, e.cfg.App.Name, e.logger), e.logger)
			defer p.notifications.Wait()

			report, err := worker.RunDispatchPass(cmd.Context(), p.scheduled, observability.NewMetrics("squadctl"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "claimed=%d sent=%d failed=%d\n", report.Claimed, report.Sent, report.Failed)
			return nil
		},
	}
}

type callupRepos struct {
	profiles   repository.ProfileRepository
	teams      repository.TeamRepository
	activities repository.ActivityRepository
	callups    repository.CallupRepository
	scheduled  repository.ScheduledCallupRepository
}

// callupPipeline is what a dispatch pass needs. It registers the same event
// consumers as the API process, so players are mailed and connected clients
// see the changes.
type callupPipeline struct {
	dispatcher    events.Dispatcher
	scheduled     *service.ScheduledCallupService
	notifications *service.NotificationService
}

func newCallupPipeline(cfg *config.Config, repos callupRepos, bus realtime.Bus, sender mail.Sender, logger *zap.Logger) *callupPipeline {
	dispatcher := events.NewInMemoryDispatcher()
	hub := realtime.NewHub(bus, cfg.Realtime.ChannelPrefix, logger, nil)
	notifications := service.NewNotificationService(dispatcher, repos.profiles, sender, logger, cfg.Calendar)
	worker.StartNotificationWorker(dispatcher, notifications, hub)

	callups := service.NewCallupService(service.CallupDependencies{
		ActivityRepo: repos.activities,
		CallupRepo:   repos.callups,
		ProfileRepo:  repos.profiles,
		TeamRepo:     repos.teams,
		Dispatcher:   dispatcher,
		Logger:       logger,
	})
	scheduled := service.NewScheduledCallupService(service.ScheduledCallupDependencies{
		ScheduledRepo: repos.scheduled,
		ActivityRepo:  repos.activities,
		ProfileRepo:   repos.profiles,
		TeamRepo:      repos.teams,
		Callups:       callups,
		Dispatcher:    dispatcher,
		Logger:        logger,
		BatchSize:     cfg.Scheduler.BatchSize,
	})
	return &callupPipeline{dispatcher: dispatcher, scheduled: scheduled, notifications: notifications}
}

func importQuizCmd() *cobra.Command {
	var teamID, coachID, file string

	cmd := &cobra.Command{
		Use:   "import-quiz",
		Short: "Create a custom quiz for a team from a YAML file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			def, err := quiz.ParseYAML(f)
			if err != nil {
				return err
			}

			e, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer e.close()

			pool := e.pg.PoolHandle()
			profiles := repository.NewProfileRepository(pool)
			coach, err := profiles.GetByID(cmd.Context(), coachID)
			if err != nil {
				return fmt.Errorf("load coach %s: %w", coachID, err)
			}
			if !coach.HasRole(domain.RoleCoach) {
				return fmt.Errorf("profile %s is not a coach", coachID)
			}

			quizzes := service.NewQuizService(repository.NewQuizRepository(pool), repository.NewTeamRepository(pool), nil, e.logger)
			created, err := quizzes.Create(cmd.Context(), &auth.Principal{Profile: coach, Role: domain.RoleCoach}, teamID, service.QuizInput{
				Title:       def.Title,
				Description: def.Description,
				Questions:   def.Questions,
			})
			if err != nil {
				return err
			}
			e.logger.Info("quiz imported",
				zap.String("quiz_id", created.ID),
				zap.String("team_id", created.TeamID),
				zap.Int("questions", len(created.Questions)))
			fmt.Fprintln(cmd.OutOrStdout(), created.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "Team id")
	cmd.Flags().StringVar(&coachID, "coach", "", "Profile id of the coach who owns the team")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Path to the quiz YAML file")
	_ = cmd.MarkFlagRequired("team")
	_ = cmd.MarkFlagRequired("coach")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
