package comply

import "fmt"

// UserProfile represents the identity and authorization attributes the proxy
// returns at login and that the client caches for the life of the session.
type UserProfile struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	RoleID     string `json:"role_id,omitempty"`
	RoleName   string `json:"role_name,omitempty"`
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	JobTitle   string `json:"job_title,omitempty"`
	Department string `json:"department,omitempty"`
}

// Incomplete indicates that the profile carries a role reference that hasn't
// been resolved to a role name yet. Role-dependent UI decisions must not be
// trusted until the profile has been enriched.
func (u UserProfile) Incomplete() bool {
	return u.RoleName == "" && u.RoleID != ""
}

// DisplayName returns a human-friendly name for the user, falling back to the
// email address when name fields are absent.
func (u UserProfile) DisplayName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Email
	}
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return fmt.Sprintf("%s %s", u.FirstName, u.LastName)
}

// merge copies non-empty fields of other into a copy of u and returns it.
// Used when an enrichment lookup back-fills an incomplete profile.
func (u UserProfile) merge(other UserProfile) UserProfile {
	if other.RoleName != "" {
		u.RoleName = other.RoleName
	}
	if other.RoleID != "" {
		u.RoleID = other.RoleID
	}
	if other.Email != "" {
		u.Email = other.Email
	}
	if other.FirstName != "" {
		u.FirstName = other.FirstName
	}
	if other.LastName != "" {
		u.LastName = other.LastName
	}
	if other.JobTitle != "" {
		u.JobTitle = other.JobTitle
	}
	if other.Department != "" {
		u.Department = other.Department
	}
	return u
}
