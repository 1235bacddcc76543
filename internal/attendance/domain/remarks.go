package domain

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

const permissionRemarkKey = "permUsedHours="

var permissionRemarkPattern = regexp.MustCompile(`permUsedHours=(\d+(?:\.\d+)?)`)

// PermissionRemark renders the machine readable remark downstream readers parse.
func PermissionRemark(used decimal.Decimal) string {
	return permissionRemarkKey + used.String()
}

// ParsePermissionRemark extracts the hours from a remarks string.
func ParsePermissionRemark(remarks string) (decimal.Decimal, bool) {
	m := permissionRemarkPattern.FindStringSubmatch(remarks)
	if m == nil {
		return decimal.Zero, false
	}
	v, err := decimal.NewFromString(m[1])
	if err != nil {
		return decimal.Zero, false
	}
	return v, true
}

// WithPermissionRemark replaces any existing permission remark in remarks, keeping free text.
func WithPermissionRemark(remarks string, used decimal.Decimal) string {
	rest := strings.TrimSpace(permissionRemarkPattern.ReplaceAllString(remarks, ""))
	rest = strings.Trim(rest, "; ")
	if rest == "" {
		return PermissionRemark(used)
	}
	return rest + "; " + PermissionRemark(used)
}

// PreviousPermissionUsed returns what a persisted day consumed. The column wins; legacy rows
// fall back to the remark.
func (a *Attendance) PreviousPermissionUsed() decimal.Decimal {
	if a == nil {
		return decimal.Zero
	}
	if a.PermissionUsedHours != nil {
		return *a.PermissionUsedHours
	}
	v, _ := ParsePermissionRemark(a.Remarks)
	return v
}
