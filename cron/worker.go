package cron

import (
	"context"
	"encoding/json"
	"time"

	"workerlly/config"
	reportRepo "workerlly/database/repository/report"
	"workerlly/models"
	jobService "workerlly/services/job"
	"workerlly/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Task types processed by the background worker.
const (
	TypeMidnightSweep  = "job:sweep"
	TypeDeliveryReport = "report:persist"
)

func queueOpts() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}
}

// StartWorker runs the asynq server and the cron scheduler in the
// background. The scheduler fires the stale-job sweep at midnight on
// the business clock; the server also drains queued delivery reports.
func StartWorker(jobs *jobService.Service, reports reportRepo.ReportRepository) {
	logger := utils.GetLogger()

	srv := asynq.NewServer(
		queueOpts(),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeMidnightSweep, func(ctx context.Context, _ *asynq.Task) error {
		return jobs.Sweep(ctx)
	})
	mux.HandleFunc(TypeDeliveryReport, handleDeliveryReport(reports))

	go func() {
		logger.Info("starting background worker")
		const maxAttempts = 5

		for attempt := 1; attempt <= maxAttempts; attempt++ {
			if err := srv.Run(mux); err != nil {
				logger.Error("background worker failed to start",
					zap.Int("attempt", attempt), zap.Error(err))

				if attempt == maxAttempts {
					logger.Fatal("background worker exhausted retries")
				}
				time.Sleep(time.Duration(attempt*2) * time.Second)
			} else {
				break
			}
		}
	}()

	scheduler := asynq.NewScheduler(queueOpts(), &asynq.SchedulerOpts{
		Location: utils.BusinessLocation(),
	})
	if _, err := scheduler.Register("0 0 * * *", asynq.NewTask(TypeMidnightSweep, nil)); err != nil {
		logger.Fatal("failed to register midnight sweep", zap.Error(err))
	}

	go func() {
		if err := scheduler.Run(); err != nil {
			logger.Fatal("scheduler failed", zap.Error(err))
		}
	}()
}

func handleDeliveryReport(reports reportRepo.ReportRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var report models.DeliveryReport
		if err := json.Unmarshal(task.Payload(), &report); err != nil {
			utils.GetLogger().Warn("dropping malformed delivery report", zap.Error(err))
			return nil
		}
		return reports.Insert(ctx, &report)
	}
}
