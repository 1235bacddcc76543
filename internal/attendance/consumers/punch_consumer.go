package consumers

import (
	"context"

	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/actor"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/hrflow/hrflow-backend/pkg/messaging"
)

// PunchQueue is the queue biometric punch events are delivered on.
const PunchQueue = "attendance-service.punches"

// RangeReconciler re-derives attendance for a date range.
type RangeReconciler interface {
	ReconcileRange(ctx context.Context, req service.RangeRequest) (*service.RunSummary, error)
}

// PunchEventConsumer reconciles an employee's day whenever new punches arrive for it
type PunchEventConsumer struct {
	consumer   *messaging.Consumer
	reconciler RangeReconciler
	logger     *logger.Logger
}

// NewPunchEventConsumer creates a new punch event consumer
func NewPunchEventConsumer(rmq *messaging.RabbitMQ, reconciler RangeReconciler, log *logger.Logger) (*PunchEventConsumer, error) {
	consumer, err := messaging.NewConsumer(rmq, PunchQueue, log)
	if err != nil {
		return nil, err
	}

	if err := consumer.Subscribe(messaging.ExchangeBiometricEvents, messaging.EventPunchIngested); err != nil {
		return nil, err
	}

	c := &PunchEventConsumer{
		consumer:   consumer,
		reconciler: reconciler,
		logger:     log.WithComponent("punch-consumer"),
	}

	consumer.RegisterHandler(messaging.EventPunchIngested, c.handlePunchIngested)

	return c, nil
}

// Start starts consuming messages
func (c *PunchEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Start(ctx)
}

func (c *PunchEventConsumer) handlePunchIngested(ctx context.Context, event *messaging.Event) error {
	var data messaging.PunchIngestedEvent
	if err := event.UnmarshalData(&data); err != nil {
		return err
	}

	log := c.logger.With().
		Str("event_id", event.ID).
		Str("company_id", data.CompanyID).
		Str("employee_id", data.EmployeeID).
		Str("punch_date", data.PunchDate).
		Logger()

	log.Info().Msg("received punch ingested event")

	ctx = actor.WithActor(ctx, actor.SystemActor())
	summary, err := c.reconciler.ReconcileRange(ctx, service.RangeRequest{
		CompanyID:  data.CompanyID,
		DateFrom:   data.PunchDate,
		DateTo:     data.PunchDate,
		EmployeeID: data.EmployeeID,
		Trigger:    service.TriggerPunchEvent,
	})
	if err != nil {
		// Redelivering a malformed or dangling event cannot succeed.
		if errors.Is(err, errors.ErrInvalidInput) || errors.Is(err, errors.ErrNotFound) {
			log.Warn().Err(err).Msg("dropping punch event")
			return nil
		}
		return err
	}

	if len(summary.Failures) > 0 {
		return errors.Internal("punch reconciliation failed: " + summary.Failures[0].Error)
	}
	return nil
}
