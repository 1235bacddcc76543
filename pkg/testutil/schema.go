package testutil

// AttendanceMigrations returns the schema the attendance service reads and writes.
// It mirrors the production tables closely enough for repository tests.
func AttendanceMigrations() []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS companies (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(255) NOT NULL,
			permission_hours_per_month NUMERIC(5,2) NOT NULL DEFAULT 0,
			timezone VARCHAR(64),
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS shift_types (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			start_time TIME NOT NULL,
			end_time TIME NOT NULL,
			begin_check_in_before INTEGER NOT NULL DEFAULT 0,
			allow_check_out_after INTEGER NOT NULL DEFAULT 0,
			late_grace_period INTEGER NOT NULL DEFAULT 0,
			early_exit_period INTEGER NOT NULL DEFAULT 0,
			half_day_hours NUMERIC(5,2) NOT NULL DEFAULT 0,
			minimum_hours NUMERIC(5,2) NOT NULL DEFAULT 0,
			weekly_offs JSONB NOT NULL DEFAULT '[]'
		)`,

		`CREATE TABLE IF NOT EXISTS employees (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(255) NOT NULL,
			shift_type_id UUID REFERENCES shift_types(id),
			status VARCHAR(20) NOT NULL DEFAULT 'Active',
			remaining_permission_hours NUMERIC(5,2) NOT NULL DEFAULT 0,
			permission_month CHAR(7),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS shift_assignments (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			shift_type_id UUID NOT NULL REFERENCES shift_types(id),
			start_date DATE,
			end_date DATE,
			status VARCHAR(20) NOT NULL DEFAULT 'Active',
			is_recurring BOOLEAN NOT NULL DEFAULT FALSE,
			recurrence_pattern VARCHAR(20),
			recurrence_days JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,

		`CREATE TABLE IF NOT EXISTS holiday_plans (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL,
			valid_from DATE NOT NULL,
			valid_to DATE NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		`CREATE TABLE IF NOT EXISTS holidays (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			holiday_plan_id UUID NOT NULL REFERENCES holiday_plans(id) ON DELETE CASCADE,
			holiday_date DATE NOT NULL,
			holiday_type VARCHAR(30) NOT NULL DEFAULT 'Holiday',
			description TEXT
		)`,

		`CREATE TABLE IF NOT EXISTS leave_types (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			name VARCHAR(100) NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS leave_requests (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			leave_type_id UUID REFERENCES leave_types(id),
			start_date DATE NOT NULL,
			end_date DATE NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Pending'
		)`,

		`CREATE TABLE IF NOT EXISTS biometric_punches (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			punch_time TIMESTAMP NOT NULL,
			status VARCHAR(20) NOT NULL DEFAULT 'Valid'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_biometric_punches_employee_time ON biometric_punches(employee_id, punch_time)`,

		`CREATE TABLE IF NOT EXISTS attendance (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			attendance_date DATE NOT NULL,
			shift_type_id UUID REFERENCES shift_types(id),
			first_check_in TIMESTAMP,
			last_check_out TIMESTAMP,
			punch_count INTEGER NOT NULL DEFAULT 0,
			working_hours NUMERIC(5,2) NOT NULL DEFAULT 0,
			overtime_hours NUMERIC(5,2) NOT NULL DEFAULT 0,
			is_late BOOLEAN NOT NULL DEFAULT FALSE,
			late_by_minutes INTEGER NOT NULL DEFAULT 0,
			is_early_exit BOOLEAN NOT NULL DEFAULT FALSE,
			early_exit_minutes INTEGER NOT NULL DEFAULT 0,
			is_holiday BOOLEAN NOT NULL DEFAULT FALSE,
			is_week_off BOOLEAN NOT NULL DEFAULT FALSE,
			attendance_status VARCHAR(40) NOT NULL,
			permission_used_hours NUMERIC(5,2),
			remarks TEXT,
			created_by UUID,
			updated_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT attendance_employee_date UNIQUE (employee_id, attendance_date),
			CONSTRAINT attendance_status_valid CHECK (attendance_status IN (
				'Present', 'Late', 'Early Exit', 'Half-Day', 'Absent', 'Leave',
				'Permission', 'Holiday', 'Week Off') OR attendance_status LIKE 'Leave - %'),
			CONSTRAINT attendance_hours_non_negative CHECK (working_hours >= 0 AND overtime_hours >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS permissions (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			attendance_id UUID NOT NULL REFERENCES attendance(id) ON DELETE CASCADE,
			permission_date DATE NOT NULL,
			hours NUMERIC(5,2) NOT NULL,
			created_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			CONSTRAINT permissions_employee_date UNIQUE (employee_id, permission_date),
			CONSTRAINT permissions_hours_non_negative CHECK (hours >= 0)
		)`,

		`CREATE TABLE IF NOT EXISTS permission_ledger (
			id UUID PRIMARY KEY,
			employee_id UUID NOT NULL REFERENCES employees(id) ON DELETE CASCADE,
			company_id UUID NOT NULL REFERENCES companies(id) ON DELETE CASCADE,
			month CHAR(7) NOT NULL,
			delta NUMERIC(6,2) NOT NULL,
			reason VARCHAR(10) NOT NULL,
			attendance_date DATE,
			created_by UUID,
			created_at TIMESTAMPTZ NOT NULL DEFAULT clock_timestamp(),
			CONSTRAINT permission_ledger_reason_valid CHECK (reason IN ('grant', 'consume', 'release'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_permission_ledger_employee_month ON permission_ledger(employee_id, month)`,

		// Rows written by the engine are visible only inside their company scope.
		`ALTER TABLE attendance ENABLE ROW LEVEL SECURITY`,
		`ALTER TABLE permissions ENABLE ROW LEVEL SECURITY`,
		`ALTER TABLE permission_ledger ENABLE ROW LEVEL SECURITY`,
		`DROP POLICY IF EXISTS attendance_company ON attendance`,
		`CREATE POLICY attendance_company ON attendance
			USING (company_id = current_setting('app.current_company', true)::uuid)`,
		`DROP POLICY IF EXISTS permissions_company ON permissions`,
		`CREATE POLICY permissions_company ON permissions
			USING (company_id = current_setting('app.current_company', true)::uuid)`,
		`DROP POLICY IF EXISTS permission_ledger_company ON permission_ledger`,
		`CREATE POLICY permission_ledger_company ON permission_ledger
			USING (company_id = current_setting('app.current_company', true)::uuid)`,
	}
}

// attendanceTables lists the tables Reset truncates, children first.
var attendanceTables = []string{
	"permission_ledger", "permissions", "attendance", "biometric_punches",
	"leave_requests", "leave_types", "holidays", "holiday_plans",
	"shift_assignments", "employees", "shift_types", "companies",
}
