package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/hrflow/hrflow-backend/internal/attendance/domain"
	"github.com/hrflow/hrflow-backend/internal/attendance/engine"
	"github.com/hrflow/hrflow-backend/pkg/errors"
	"github.com/hrflow/hrflow-backend/pkg/logger"
	"github.com/shopspring/decimal"
)

// MaxRangeDays bounds a single backfill request.
const MaxRangeDays = 366

// ErrRunInProgress is returned by ReconcileDate when another run holds the gate.
var ErrRunInProgress = errors.Conflict("an attendance reconciliation run is already in progress")

// Trigger names what started a run.
type Trigger string

const (
	TriggerBackfill   Trigger = "backfill"
	TriggerScheduled  Trigger = "scheduled"
	TriggerPunchEvent Trigger = "punch_event"
)

// managesQuota reports whether the run applies the permission quota. The daily job does not.
func (t Trigger) managesQuota() bool {
	return t != TriggerScheduled
}

// RangeRequest selects the days of a backfill. Dates are YYYY-MM-DD.
type RangeRequest struct {
	CompanyID  string
	DateFrom   string
	DateTo     string
	EmployeeID string
	// SkipAbsent leaves zero-punch working days unwritten.
	SkipAbsent bool
	Trigger    Trigger
}

// DayFailure is one employee day that could not be reconciled.
type DayFailure struct {
	CompanyID  string `json:"company_id"`
	EmployeeID string `json:"employee_id"`
	Date       string `json:"date"`
	Error      string `json:"error"`
}

// RunSummary reports what a run did. Processed counts persisted days. PermissionConsumedHours
// is the net quota the run took from balances, so re-running an unchanged range reports zero
// and a run that only releases hours reports a negative value.
type RunSummary struct {
	RunID                   string          `json:"run_id"`
	Trigger                 Trigger         `json:"trigger"`
	CompanyID               string          `json:"company_id,omitempty"`
	EmployeeID              string          `json:"employee_id,omitempty"`
	DateFrom                string          `json:"date_from"`
	DateTo                  string          `json:"date_to"`
	Processed               int             `json:"processed"`
	Created                 int             `json:"created"`
	Updated                 int             `json:"updated"`
	Skipped                 int             `json:"skipped"`
	PermissionConsumedHours decimal.Decimal `json:"permission_consumed_hours"`
	Failures                []DayFailure    `json:"failures"`
}

// ReconciliationService derives one attendance record per employee day.
type ReconciliationService struct {
	store     Store
	publisher EventPublisher
	observer  Observer
	gate      *runGate
	logger    *logger.Logger
	now       func() time.Time
}

// Option customizes a ReconciliationService.
type Option func(*ReconciliationService)

// WithPublisher sets where run events go.
func WithPublisher(p EventPublisher) Option {
	return func(s *ReconciliationService) { s.publisher = p }
}

// WithObserver sets the metrics sink.
func WithObserver(o Observer) Option {
	return func(s *ReconciliationService) { s.observer = o }
}

// NewReconciliationService creates a new reconciliation service
func NewReconciliationService(store Store, log *logger.Logger, opts ...Option) *ReconciliationService {
	s := &ReconciliationService{
		store:     store,
		publisher: noopPublisher{},
		observer:  noopObserver{},
		gate:      newRunGate(),
		logger:    log.WithComponent("reconciliation"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Running reports whether a reconciliation run is executing.
func (s *ReconciliationService) Running() bool {
	return s.gate.busy()
}

// ============================================================================
// ENTRY POINTS
// ============================================================================

// ReconcileRange reconciles [DateFrom, DateTo] for one company, optionally one employee,
// applying the permission quota. It waits for any run in progress.
func (s *ReconciliationService) ReconcileRange(ctx context.Context, req RangeRequest) (*RunSummary, error) {
	from, to, err := validateRange(req)
	if err != nil {
		return nil, err
	}

	company, err := s.store.GetCompany(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}

	trigger := req.Trigger
	if trigger == "" {
		trigger = TriggerBackfill
	}

	if err := s.gate.acquire(ctx); err != nil {
		return nil, err
	}
	defer s.gate.release()

	summary := s.newSummary(trigger, from, to)
	summary.CompanyID = company.ID
	summary.EmployeeID = req.EmployeeID

	started := s.now()
	if err := s.reconcileCompany(ctx, summary, company, req.EmployeeID, from, to, req.SkipAbsent); err != nil {
		s.observer.RunFinished(string(trigger), "error", s.now().Sub(started))
		return nil, err
	}
	s.finish(ctx, summary, started)
	return summary, nil
}

// ReconcileDate reconciles date for every active employee of every company without touching
// the permission quota. It returns ErrRunInProgress instead of waiting.
func (s *ReconciliationService) ReconcileDate(ctx context.Context, date time.Time) (*RunSummary, error) {
	date = domain.Day(date)
	return s.reconcileAll(ctx, date, func(*domain.Company) time.Time { return date })
}

// ReconcileDue is the scheduled run at instant at. Each company reconciles the day that is
// lookbackDays before its own local today; companies without a usable timezone use fallback.
// Like ReconcileDate it leaves the quota alone and does not wait for the gate.
func (s *ReconciliationService) ReconcileDue(ctx context.Context, at time.Time, lookbackDays int, fallback *time.Location) (*RunSummary, error) {
	dueOn := func(company *domain.Company) time.Time {
		return domain.Day(at.In(s.companyLocation(company, fallback))).AddDate(0, 0, -lookbackDays)
	}
	return s.reconcileAll(ctx, dueOn(nil), dueOn)
}

// companyLocation resolves the company's timezone, falling back when it has none or it does
// not load.
func (s *ReconciliationService) companyLocation(company *domain.Company, fallback *time.Location) *time.Location {
	if fallback == nil {
		fallback = time.UTC
	}
	if company == nil || company.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(company.Timezone)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("company_id", company.ID).
			Str("timezone", company.Timezone).
			Msg("unknown company timezone, using default")
		return fallback
	}
	return loc
}

// reconcileAll runs the quota-free daily reconciliation over every active company, each on
// the date dateFor picks for it. nominal names the run when it is skipped.
func (s *ReconciliationService) reconcileAll(ctx context.Context, nominal time.Time, dateFor func(*domain.Company) time.Time) (*RunSummary, error) {
	if !s.gate.tryAcquire() {
		s.logger.Warn().Str("date", domain.DateKey(nominal)).Msg("attendance run already in progress, skipping scheduled run")
		s.observer.RunSkipped(string(TriggerScheduled))
		s.publisher.PublishReconciliationSkipped(ctx, TriggerScheduled, nominal, "run in progress")
		return nil, ErrRunInProgress
	}
	defer s.gate.release()

	companies, err := s.store.ListActiveCompanies(ctx)
	if err != nil {
		return nil, err
	}

	summary := s.newSummary(TriggerScheduled, nominal, nominal)
	started := s.now()
	for i, company := range companies {
		date := dateFor(&companies[i])
		if i == 0 {
			summary.DateFrom, summary.DateTo = domain.DateKey(date), domain.DateKey(date)
		}
		summary.cover(date)
		if err := s.reconcileCompany(ctx, summary, &companies[i], "", date, date, false); err != nil {
			// A company whose inputs cannot be loaded does not stop the others.
			s.logger.Error().Err(err).Str("company_id", company.ID).Msg("failed to load company scope")
			summary.Failures = append(summary.Failures, DayFailure{
				CompanyID: company.ID,
				Date:      domain.DateKey(date),
				Error:     err.Error(),
			})
		}
	}
	s.finish(ctx, summary, started)
	return summary, nil
}

func validateRange(req RangeRequest) (time.Time, time.Time, error) {
	if req.CompanyID == "" {
		return time.Time{}, time.Time{}, errors.InvalidInput("company_id is required")
	}
	from, err := domain.ParseDate(req.DateFrom)
	if err != nil {
		return time.Time{}, time.Time{}, errors.InvalidInput("date_from: " + err.Error())
	}
	to, err := domain.ParseDate(req.DateTo)
	if err != nil {
		return time.Time{}, time.Time{}, errors.InvalidInput("date_to: " + err.Error())
	}
	if from.After(to) {
		return time.Time{}, time.Time{}, errors.InvalidInput("date_from must not be after date_to")
	}
	if to.Sub(from) >= MaxRangeDays*24*time.Hour {
		return time.Time{}, time.Time{}, errors.InvalidInput("date range must not exceed 366 days")
	}
	return from, to, nil
}

func (s *ReconciliationService) newSummary(trigger Trigger, from, to time.Time) *RunSummary {
	return &RunSummary{
		RunID:                   uuid.New().String(),
		Trigger:                 trigger,
		DateFrom:                domain.DateKey(from),
		DateTo:                  domain.DateKey(to),
		PermissionConsumedHours: decimal.Zero,
		Failures:                []DayFailure{},
	}
}

// cover widens the summary's date range to include date.
func (r *RunSummary) cover(date time.Time) {
	key := domain.DateKey(date)
	if key < r.DateFrom {
		r.DateFrom = key
	}
	if key > r.DateTo {
		r.DateTo = key
	}
}

func (s *ReconciliationService) finish(ctx context.Context, summary *RunSummary, started time.Time) {
	outcome := "success"
	if len(summary.Failures) > 0 {
		outcome = "partial"
	}
	s.observer.RunFinished(string(summary.Trigger), outcome, s.now().Sub(started))

	s.logger.WithRunID(summary.RunID).Info().
		Str("trigger", string(summary.Trigger)).
		Str("company_id", summary.CompanyID).
		Str("date_from", summary.DateFrom).
		Str("date_to", summary.DateTo).
		Int("processed", summary.Processed).
		Int("created", summary.Created).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Int("failed", len(summary.Failures)).
		Str("permission_consumed_hours", summary.PermissionConsumedHours.String()).
		Msg("attendance reconciliation finished")

	s.publisher.PublishReconciliationCompleted(ctx, summary)
}

// ============================================================================
// COMPANY SCOPE
// ============================================================================

// scope is everything one company needs for a run, loaded once and indexed by employee.
type scope struct {
	company     *domain.Company
	employees   []domain.Employee
	shiftTypes  map[string]domain.ShiftType
	assignments map[string][]domain.ShiftAssignment
	calendar    engine.HolidayCalendar
	leaves      map[string][]domain.LeaveRequest
	punches     map[string][]domain.Punch
}

func (sc *scope) leaveOn(employeeID string, date time.Time) *domain.LeaveRequest {
	for i, l := range sc.leaves[employeeID] {
		if l.Covers(date) {
			return &sc.leaves[employeeID][i]
		}
	}
	return nil
}

func (s *ReconciliationService) loadScope(ctx context.Context, company *domain.Company, employeeID string, from, to time.Time) (*scope, error) {
	employees, err := s.store.ListActiveEmployees(ctx, company.ID, employeeID)
	if err != nil {
		return nil, err
	}
	if employeeID != "" && len(employees) == 0 {
		return nil, errors.NotFound("employee")
	}

	sc := &scope{
		company:     company,
		employees:   employees,
		shiftTypes:  make(map[string]domain.ShiftType),
		assignments: make(map[string][]domain.ShiftAssignment),
		leaves:      make(map[string][]domain.LeaveRequest),
		punches:     make(map[string][]domain.Punch),
	}
	if len(employees) == 0 {
		return sc, nil
	}

	ids := make([]string, len(employees))
	for i, e := range employees {
		ids[i] = e.ID
	}

	shiftTypes, err := s.store.ListShiftTypes(ctx, company.ID)
	if err != nil {
		return nil, err
	}
	for _, st := range shiftTypes {
		if err := st.Validate(); err != nil {
			s.logger.Warn().
				Err(errors.ConfigurationInconsistency(err.Error())).
				Str("company_id", company.ID).
				Str("shift_type_id", st.ID).
				Msg("ignoring inconsistent shift type")
			continue
		}
		sc.shiftTypes[st.ID] = st
	}

	assignments, err := s.store.ListActiveAssignments(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}
	for _, a := range assignments {
		if err := a.Validate(); err != nil {
			s.logger.Warn().
				Err(errors.ConfigurationInconsistency(err.Error())).
				Str("employee_id", a.EmployeeID).
				Str("assignment_id", a.ID).
				Msg("ignoring unreadable shift assignment")
			continue
		}
		sc.assignments[a.EmployeeID] = append(sc.assignments[a.EmployeeID], a)
	}

	holidays, err := s.store.ListHolidays(ctx, company.ID, from, to)
	if err != nil {
		return nil, err
	}
	sc.calendar = engine.NewHolidayCalendar(holidays)

	leaves, err := s.store.ListApprovedLeaves(ctx, ids, from, to)
	if err != nil {
		return nil, err
	}
	for _, l := range leaves {
		sc.leaves[l.EmployeeID] = append(sc.leaves[l.EmployeeID], l)
	}

	// Overnight shifts and check-out windows reach into the following day.
	punches, err := s.store.ListPunches(ctx, ids, from.AddDate(0, 0, -1), to.AddDate(0, 0, 2))
	if err != nil {
		return nil, err
	}
	for _, p := range punches {
		sc.punches[p.EmployeeID] = append(sc.punches[p.EmployeeID], p)
	}

	return sc, nil
}

func (s *ReconciliationService) reconcileCompany(ctx context.Context, summary *RunSummary, company *domain.Company, employeeID string, from, to time.Time, skipAbsent bool) error {
	sc, err := s.loadScope(ctx, company, employeeID, from, to)
	if err != nil {
		return err
	}

	for _, emp := range sc.employees {
		var ctxErr error
		domain.EachDay(from, to, func(date time.Time) {
			if ctxErr != nil {
				return
			}
			if ctxErr = ctx.Err(); ctxErr != nil {
				return
			}

			out, err := s.reconcileDay(ctx, summary.Trigger, sc, emp, date, skipAbsent)
			if err != nil {
				s.observer.DayFailed()
				s.logger.Error().
					Err(err).
					Str("run_id", summary.RunID).
					Str("employee_id", emp.ID).
					Str("date", domain.DateKey(date)).
					Msg("failed to reconcile attendance day")
				summary.Failures = append(summary.Failures, DayFailure{
					CompanyID:  company.ID,
					EmployeeID: emp.ID,
					Date:       domain.DateKey(date),
					Error:      err.Error(),
				})
				return
			}

			switch {
			case out.skipped:
				summary.Skipped++
				return
			case out.created:
				summary.Created++
			default:
				summary.Updated++
			}
			summary.Processed++
			summary.PermissionConsumedHours = summary.PermissionConsumedHours.Add(out.quotaTaken)
			s.observer.DayRecorded(string(out.status))
			if out.quotaTaken.IsPositive() {
				s.observer.PermissionConsumed(out.quotaTaken.InexactFloat64())
			}
		})
		if ctxErr != nil {
			return ctxErr
		}
	}
	return nil
}
