package constants

import "fmt"

const (
	RoleUser       = "user"
	RoleTeacher    = "teacher"
	RoleAdmin      = "admin"
	RoleOwner      = "owner"
	RoleAccountant = "accountant"
)

// Template pesan error role
const ErrOnlyFinanceStaffCanAccess = "❌ Hanya accountant, admin, atau owner yang boleh mengakses fitur %s."

func RoleErrorFinance(feature string) string {
	return fmt.Sprintf(ErrOnlyFinanceStaffCanAccess, feature)
}

// ==========================
// ✅ Grouped Role Slices
// ==========================
var (
	// boleh akses /api/a/finance
	FinanceStaff = []string{
		RoleAccountant,
		RoleAdmin,
		RoleOwner,
	}
)
