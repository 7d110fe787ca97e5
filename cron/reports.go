package cron

import (
	"context"
	"encoding/json"

	reportRepo "workerlly/database/repository/report"
	"workerlly/models"
	"workerlly/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// QueuedReportSink pushes delivery reports onto the asynq queue so the
// hot notification path never waits on Mongo. If the enqueue fails the
// report is written directly instead of being dropped.
type QueuedReportSink struct {
	client  *asynq.Client
	reports reportRepo.ReportRepository
}

// NewQueuedReportSink builds the sink. The caller owns the repository;
// the sink owns its asynq client.
func NewQueuedReportSink(reports reportRepo.ReportRepository) *QueuedReportSink {
	return &QueuedReportSink{
		client:  asynq.NewClient(queueOpts()),
		reports: reports,
	}
}

// Record enqueues the report for background persistence.
func (s *QueuedReportSink) Record(ctx context.Context, report *models.DeliveryReport) {
	payload, err := json.Marshal(report)
	if err != nil {
		utils.GetLogger().Error("failed to marshal delivery report", zap.Error(err))
		return
	}

	if _, err := s.client.EnqueueContext(ctx, asynq.NewTask(TypeDeliveryReport, payload)); err != nil {
		utils.GetLogger().Warn("enqueue failed, persisting delivery report inline", zap.Error(err))
		if err := s.reports.Insert(ctx, report); err != nil {
			utils.GetLogger().Error("failed to persist delivery report",
				zap.String("event_type", report.EventType), zap.Error(err))
		}
	}
}

// Close releases the queue connection.
func (s *QueuedReportSink) Close() error {
	return s.client.Close()
}
