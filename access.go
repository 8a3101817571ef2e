package comply

import "strings"

// OperationSelect is the read operation against which most advisory grants
// are evaluated. Any other operation string is treated as a write.
const OperationSelect = "SELECT"

// Resources with write carve-outs. These mirror the server-enforced RBAC
// matrix closely enough to hide or disable controls; the server remains the
// source of truth and any divergence resolves in the server's favor.
var (
	representativeWritableResources = map[string]bool{
		"cpd_activities": true,
		"documents":      true,
		"clients":        true,
	}
	roleAdministrationResources = map[string]bool{
		"roles":            true,
		"role_permissions": true,
	}
	staffRestrictedResources = map[string]bool{
		"users":            true,
		"roles":            true,
		"role_permissions": true,
	}
)

// complianceOfficerDeniedFunctions is the small set of destructive
// role-administration functions withheld from Compliance Officers.
var complianceOfficerDeniedFunctions = map[string]bool{
	"delete_user":             true,
	"delete_role":             true,
	"update_role_permissions": true,
}

// representativeWritePrefixes extends the read-only prefixes with the
// function families representatives maintain themselves.
var representativeWritePrefixes = []string{
	"create_cpd",
	"update_cpd",
	"create_document",
	"update_document",
}

// RoleCanAccess is the advisory resource gate. Precedence is evaluated top to
// bottom with the first matching rule winning.
func RoleCanAccess(role Role, resource, operation string) bool {
	if operation == "" {
		operation = OperationSelect
	}
	write := operation != OperationSelect

	switch {
	case role.Implies(RoleAdmin):
		return true
	case role.Implies(RoleComplianceOfficer):
		if write && roleAdministrationResources[resource] {
			return false
		}
		return true
	case role.Implies(RoleKeyIndividual):
		return !write
	case role.Implies(RoleRepresentative):
		if representativeWritableResources[resource] {
			return true
		}
		return !write
	case role == RoleAdministrativeStaff:
		if write && staffRestrictedResources[resource] {
			return false
		}
		return true
	case role.Implies(RoleViewer):
		return !write
	}
	// Unknown or unrecognized roles fall through to a read-only grant; the
	// server will refuse anything it actually objects to.
	return !write
}

// RoleCanInvoke is the advisory gate for named proxy functions.
func RoleCanInvoke(role Role, functionName string) bool {
	switch {
	case role.Implies(RoleAdmin):
		return true
	case role.Implies(RoleComplianceOfficer):
		return !complianceOfficerDeniedFunctions[functionName]
	case role.Implies(RoleKeyIndividual):
		return hasReadOnlyPrefix(functionName)
	case role.Implies(RoleRepresentative):
		if hasReadOnlyPrefix(functionName) {
			return true
		}
		for _, prefix := range representativeWritePrefixes {
			if strings.HasPrefix(functionName, prefix) {
				return true
			}
		}
		return false
	case role.Implies(RoleViewer):
		return hasReadOnlyPrefix(functionName)
	}
	return false
}

func hasReadOnlyPrefix(functionName string) bool {
	return strings.HasPrefix(functionName, "get_") ||
		strings.HasPrefix(functionName, "list_")
}
