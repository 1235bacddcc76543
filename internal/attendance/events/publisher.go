package events

import (
	"context"
	"time"

	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/hrflow/hrflow-backend/pkg/messaging"
)

// eventPublisher is satisfied by *messaging.Publisher.
type eventPublisher interface {
	Publish(ctx context.Context, eventType string, data interface{}) error
}

// AttendanceEventPublisher publishes reconciliation run events
type AttendanceEventPublisher struct {
	publisher eventPublisher
	logger    *logger.Logger
}

var _ service.EventPublisher = (*AttendanceEventPublisher)(nil)

// NewAttendanceEventPublisher creates a new attendance event publisher
func NewAttendanceEventPublisher(rmq *messaging.RabbitMQ, log *logger.Logger) (*AttendanceEventPublisher, error) {
	publisher, err := messaging.NewPublisher(rmq, messaging.ExchangeAttendanceEvents, "attendance-service", log)
	if err != nil {
		return nil, err
	}

	return newAttendanceEventPublisher(publisher, log), nil
}

func newAttendanceEventPublisher(p eventPublisher, log *logger.Logger) *AttendanceEventPublisher {
	return &AttendanceEventPublisher{
		publisher: p,
		logger:    log,
	}
}

// PublishReconciliationCompleted publishes a run summary
func (p *AttendanceEventPublisher) PublishReconciliationCompleted(ctx context.Context, summary *service.RunSummary) {
	data := messaging.ReconciliationCompletedEvent{
		RunID:                   summary.RunID,
		Trigger:                 string(summary.Trigger),
		CompanyID:               summary.CompanyID,
		EmployeeID:              summary.EmployeeID,
		DateFrom:                summary.DateFrom,
		DateTo:                  summary.DateTo,
		Processed:               summary.Processed,
		Created:                 summary.Created,
		Updated:                 summary.Updated,
		Skipped:                 summary.Skipped,
		Failed:                  len(summary.Failures),
		PermissionConsumedHours: summary.PermissionConsumedHours.String(),
	}

	if err := p.publisher.Publish(ctx, messaging.EventReconciliationCompleted, data); err != nil {
		p.logger.Error().Err(err).Str("run_id", summary.RunID).Msg("failed to publish reconciliation completed event")
	}
}

// PublishReconciliationSkipped publishes a dropped scheduled run
func (p *AttendanceEventPublisher) PublishReconciliationSkipped(ctx context.Context, trigger service.Trigger, date time.Time, reason string) {
	data := messaging.ReconciliationSkippedEvent{
		Trigger: string(trigger),
		Date:    domain.DateKey(date),
		Reason:  reason,
	}

	if err := p.publisher.Publish(ctx, messaging.EventReconciliationSkipped, data); err != nil {
		p.logger.Error().Err(err).Str("date", data.Date).Msg("failed to publish reconciliation skipped event")
	}
}
