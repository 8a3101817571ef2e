package comply

// Role represents a named authorization tier. Roles are ordered from lowest
// to highest privilege, with each higher role implying all capabilities of
// the roles beneath it unless a specific carve-out applies. The
// representative-type roles (User, Administrative Staff, Representative, Key
// Individual) are siblings rather than a strict chain, but all of them imply
// Viewer.
type Role string

const (
	RoleViewer              Role = "Viewer"
	RoleUser                Role = "User"
	RoleAdministrativeStaff Role = "Administrative Staff"
	RoleRepresentative      Role = "Representative"
	RoleFSPRepresentative   Role = "FSP Representative"
	RoleKeyIndividual       Role = "Key Individual"
	RoleComplianceOfficer   Role = "Compliance Officer"
	RoleAdmin               Role = "Admin"
	RoleFSPOwner            Role = "FSP Owner"

	// RoleUnknown is the sentinel for a profile that references a role by ID
	// without a resolved role name. It grants nothing by implication; the UI
	// is expected to display it verbatim rather than silently degrade to
	// Viewer.
	RoleUnknown Role = "Unknown Role"
)

// roleImplications declares the hierarchy exactly once. Each role maps to the
// full set of roles it implies, itself included. Every helper and advisory
// gate queries this table instead of re-encoding the ordering.
var roleImplications = map[Role][]Role{
	RoleFSPOwner: {
		RoleFSPOwner,
		RoleAdmin,
		RoleComplianceOfficer,
		RoleKeyIndividual,
		RoleRepresentative,
		RoleUser,
		RoleViewer,
	},
	RoleAdmin: {
		RoleAdmin,
		RoleComplianceOfficer,
		RoleKeyIndividual,
		RoleRepresentative,
		RoleUser,
		RoleViewer,
	},
	RoleComplianceOfficer: {
		RoleComplianceOfficer,
		RoleKeyIndividual,
		RoleRepresentative,
		RoleUser,
		RoleViewer,
	},
	RoleKeyIndividual: {
		RoleKeyIndividual,
		RoleRepresentative,
		RoleUser,
		RoleViewer,
	},
	RoleRepresentative: {
		RoleRepresentative,
		RoleUser,
		RoleViewer,
	},
	RoleFSPRepresentative: {
		RoleFSPRepresentative,
		RoleRepresentative,
		RoleUser,
		RoleViewer,
	},
	RoleAdministrativeStaff: {
		RoleAdministrativeStaff,
		RoleUser,
		RoleViewer,
	},
	RoleUser: {
		RoleUser,
		RoleViewer,
	},
	RoleViewer: {
		RoleViewer,
	},
	RoleUnknown: {},
}

// Implies indicates whether r carries all capabilities of other per the
// declared hierarchy. An unrecognized role name implies nothing beyond exact
// equality.
func (r Role) Implies(other Role) bool {
	if r == other {
		return true
	}
	for _, implied := range roleImplications[r] {
		if implied == other {
			return true
		}
	}
	return false
}

// ParseRole derives a Role from the role name and role ID cached on a user
// profile. A populated name wins; a role ID with no resolved name yields the
// Unknown Role sentinel; an entirely absent role defaults to the lowest tier.
func ParseRole(roleName, roleID string) Role {
	if roleName != "" {
		return Role(roleName)
	}
	if roleID != "" {
		return RoleUnknown
	}
	return RoleViewer
}
