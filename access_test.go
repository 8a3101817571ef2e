package comply

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoleCanAccessAdminTiers(t *testing.T) {
	require.True(t, RoleCanAccess(RoleFSPOwner, "role_permissions", "DELETE"))
	require.True(t, RoleCanAccess(RoleAdmin, "roles", "UPDATE"))
}

func TestRoleCanAccessComplianceOfficerCarveOut(t *testing.T) {
	require.False(t, RoleCanAccess(RoleComplianceOfficer, "roles", "UPDATE"))
	require.False(
		t,
		RoleCanAccess(RoleComplianceOfficer, "role_permissions", "INSERT"),
	)
	require.True(t, RoleCanAccess(RoleComplianceOfficer, "roles", "SELECT"))
	require.True(t, RoleCanAccess(RoleComplianceOfficer, "clients", "UPDATE"))
}

func TestRoleCanAccessKeyIndividualReadOnly(t *testing.T) {
	require.True(t, RoleCanAccess(RoleKeyIndividual, "complaints", "SELECT"))
	require.False(t, RoleCanAccess(RoleKeyIndividual, "complaints", "UPDATE"))
	require.False(
		t,
		RoleCanAccess(RoleKeyIndividual, "cpd_activities", "INSERT"),
	)
}

func TestRoleCanAccessRepresentativeOwnedResources(t *testing.T) {
	for _, resource := range []string{"cpd_activities", "documents", "clients"} {
		require.True(t, RoleCanAccess(RoleRepresentative, resource, "INSERT"))
		require.True(t, RoleCanAccess(RoleRepresentative, resource, "UPDATE"))
	}
	require.True(t, RoleCanAccess(RoleRepresentative, "complaints", "SELECT"))
	require.False(t, RoleCanAccess(RoleRepresentative, "complaints", "UPDATE"))
	// The FSP Representative spelling carries the same grants.
	require.True(t, RoleCanAccess(RoleFSPRepresentative, "documents", "UPDATE"))
}

func TestRoleCanAccessAdministrativeStaff(t *testing.T) {
	require.True(t, RoleCanAccess(RoleAdministrativeStaff, "clients", "UPDATE"))
	require.False(t, RoleCanAccess(RoleAdministrativeStaff, "users", "UPDATE"))
	require.False(t, RoleCanAccess(RoleAdministrativeStaff, "roles", "INSERT"))
	require.True(t, RoleCanAccess(RoleAdministrativeStaff, "users", "SELECT"))
}

func TestRoleCanAccessViewerAndFallthrough(t *testing.T) {
	require.True(t, RoleCanAccess(RoleViewer, "alerts", "SELECT"))
	require.False(t, RoleCanAccess(RoleViewer, "alerts", "UPDATE"))
	// Operation defaults to SELECT.
	require.True(t, RoleCanAccess(RoleUser, "alerts", ""))
	require.False(t, RoleCanAccess(RoleUnknown, "alerts", "UPDATE"))
}

func TestRoleCanInvokeAdminTiers(t *testing.T) {
	require.True(t, RoleCanInvoke(RoleFSPOwner, "delete_user"))
	require.True(t, RoleCanInvoke(RoleAdmin, "update_role_permissions"))
}

func TestRoleCanInvokeComplianceOfficerDenylist(t *testing.T) {
	for _, name := range []string{
		"delete_user",
		"delete_role",
		"update_role_permissions",
	} {
		require.False(t, RoleCanInvoke(RoleComplianceOfficer, name))
	}
	require.True(t, RoleCanInvoke(RoleComplianceOfficer, "delete_complaint"))
	require.True(t, RoleCanInvoke(RoleComplianceOfficer, "list_users"))
}

func TestRoleCanInvokeRepresentativePrefixes(t *testing.T) {
	require.True(t, RoleCanInvoke(RoleRepresentative, "create_cpd_entry"))
	require.True(t, RoleCanInvoke(RoleRepresentative, "update_document_meta"))
	require.True(t, RoleCanInvoke(RoleRepresentative, "get_alerts"))
	require.True(t, RoleCanInvoke(RoleRepresentative, "list_complaints"))
	require.False(t, RoleCanInvoke(RoleRepresentative, "delete_user"))
	require.False(t, RoleCanInvoke(RoleRepresentative, "create_role"))
}

func TestRoleCanInvokeReadOnlyTiers(t *testing.T) {
	require.True(t, RoleCanInvoke(RoleKeyIndividual, "get_dashboard"))
	require.False(t, RoleCanInvoke(RoleKeyIndividual, "create_cpd_entry"))
	require.True(t, RoleCanInvoke(RoleViewer, "list_documents"))
	require.False(t, RoleCanInvoke(RoleViewer, "create_document"))
	require.False(t, RoleCanInvoke(RoleUnknown, "get_dashboard"))
}
