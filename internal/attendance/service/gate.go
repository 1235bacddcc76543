package service

import "context"

// runGate serializes reconciliation runs. Backfills queue behind a running job while the
// scheduled job gives up, mirroring the isAttendanceJobRunning flag of the daily cron.
type runGate struct {
	slot chan struct{}
}

func newRunGate() *runGate {
	return &runGate{slot: make(chan struct{}, 1)}
}

func (g *runGate) acquire(ctx context.Context) error {
	select {
	case g.slot <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *runGate) tryAcquire() bool {
	select {
	case g.slot <- struct{}{}:
		return true
	default:
		return false
	}
}

func (g *runGate) release() {
	<-g.slot
}

// busy reports whether a run holds the gate.
func (g *runGate) busy() bool {
	return len(g.slot) > 0
}
