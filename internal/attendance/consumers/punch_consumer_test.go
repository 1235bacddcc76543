package consumers

import (
	"context"
	"testing"

	"github.com/hrflow/hrflow-backend/internal/attendance/service"
	"github.com/hrflow/hrflow-backend/pkg/actor"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/hrflow/hrflow-backend/pkg/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls   []service.RangeRequest
	actorID string
	summary *service.RunSummary
	err     error
}

func (f *fakeReconciler) ReconcileRange(ctx context.Context, req service.RangeRequest) (*service.RunSummary, error) {
	f.calls = append(f.calls, req)
	f.actorID = actor.IDFromContext(ctx)
	if f.err != nil {
		return nil, f.err
	}
	if f.summary != nil {
		return f.summary, nil
	}
	return &service.RunSummary{Processed: 1}, nil
}

func newTestConsumer(r RangeReconciler) *PunchEventConsumer {
	return &PunchEventConsumer{reconciler: r, logger: logger.Nop()}
}

func punchEvent(t *testing.T, data any) *messaging.Event {
	t.Helper()
	event, err := messaging.NewEvent(messaging.EventPunchIngested, "biometric-service", "corr-1", data)
	require.NoError(t, err)
	return event
}

func TestHandlePunchIngested_ReconcilesTheDay(t *testing.T) {
	fake := &fakeReconciler{}
	c := newTestConsumer(fake)

	err := c.handlePunchIngested(context.Background(), punchEvent(t, messaging.PunchIngestedEvent{
		CompanyID:  "company-1",
		EmployeeID: "employee-1",
		PunchDate:  "2024-03-07",
	}))

	require.NoError(t, err)
	require.Len(t, fake.calls, 1)
	assert.Equal(t, service.RangeRequest{
		CompanyID:  "company-1",
		DateFrom:   "2024-03-07",
		DateTo:     "2024-03-07",
		EmployeeID: "employee-1",
		Trigger:    service.TriggerPunchEvent,
	}, fake.calls[0])
	assert.Equal(t, actor.SystemID, fake.actorID)
}

func TestHandlePunchIngested_DropsUnrecoverableEvents(t *testing.T) {
	for _, err := range []error{
		errors.InvalidInput("invalid date"),
		errors.NotFound("company"),
	} {
		c := newTestConsumer(&fakeReconciler{err: err})
		assert.NoError(t, c.handlePunchIngested(context.Background(), punchEvent(t, messaging.PunchIngestedEvent{PunchDate: "x"})))
	}
}

func TestHandlePunchIngested_RetriesTransientErrors(t *testing.T) {
	c := newTestConsumer(&fakeReconciler{err: context.DeadlineExceeded})
	err := c.handlePunchIngested(context.Background(), punchEvent(t, messaging.PunchIngestedEvent{
		CompanyID: "company-1", EmployeeID: "employee-1", PunchDate: "2024-03-07",
	}))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHandlePunchIngested_FailedDayIsRetried(t *testing.T) {
	c := newTestConsumer(&fakeReconciler{summary: &service.RunSummary{
		Failures: []service.DayFailure{{EmployeeID: "employee-1", Date: "2024-03-07", Error: "disk full"}},
	}})

	err := c.handlePunchIngested(context.Background(), punchEvent(t, messaging.PunchIngestedEvent{
		CompanyID: "company-1", EmployeeID: "employee-1", PunchDate: "2024-03-07",
	}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestHandlePunchIngested_MalformedPayload(t *testing.T) {
	fake := &fakeReconciler{}
	c := newTestConsumer(fake)

	event := punchEvent(t, nil)
	event.Data = []byte(`{"punch_date": 7}`)

	assert.Error(t, c.handlePunchIngested(context.Background(), event))
	assert.Empty(t, fake.calls)
}
