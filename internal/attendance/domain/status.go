package domain

// AttendanceStatus is the terminal classification of one employee day.
type AttendanceStatus string

const (
	StatusPresent    AttendanceStatus = "Present"
	StatusLate       AttendanceStatus = "Late"
	StatusEarlyExit  AttendanceStatus = "Early Exit"
	StatusHalfDay    AttendanceStatus = "Half-Day"
	StatusAbsent     AttendanceStatus = "Absent"
	StatusLeave      AttendanceStatus = "Leave"
	StatusPermission AttendanceStatus = "Permission"
	StatusHoliday    AttendanceStatus = "Holiday"
	StatusWeekOff    AttendanceStatus = "Week Off"
)

// LeaveStatus labels a short day covered by an approved leave, e.g. "Leave - Sick Leave".
func LeaveStatus(leaveType string) AttendanceStatus {
	if leaveType == "" {
		return StatusLeave
	}
	return AttendanceStatus("Leave - " + leaveType)
}

// Holiday row types.
const (
	HolidayTypeHoliday  = "Holiday"
	HolidayTypeWeekOff  = "Week Off"
	HolidayTypeOptional = "Optional Holiday"
)

// PunchStatusInvalid marks punches rejected by the ingestion side.
const PunchStatusInvalid = "Invalid"

// Record statuses used by the upstream stores.
const (
	EmployeeStatusActive   = "Active"
	AssignmentStatusActive = "Active"
	LeaveStatusApproved    = "Approved"
)
