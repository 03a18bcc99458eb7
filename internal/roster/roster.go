// Package roster models the field-force hierarchy: roles, employment
// status, user profiles and the territories each user owns.
package roster

// Role is a position in the reporting hierarchy.
type Role string

const (
	RoleMR    Role = "MR"    // Medical Representative
	RoleASM   Role = "ASM"   // Area Sales Manager
	RoleRM    Role = "RM"    // Regional Manager
	RoleZM    Role = "ZM"    // Zonal Manager
	RoleAdmin Role = "ADMIN" // Head office administrator
)

// roleLevel orders roles from field rep up to admin.
var roleLevel = map[Role]int{
	RoleMR:    1,
	RoleASM:   2,
	RoleRM:    3,
	RoleZM:    4,
	RoleAdmin: 5,
}

// IsValid reports whether r is a known role.
func (r Role) IsValid() bool {
	_, ok := roleLevel[r]
	return ok
}

// Level returns the hierarchy level of r (0 for unknown roles).
func (r Role) Level() int {
	return roleLevel[r]
}

// AtLeast reports whether r sits at or above min in the hierarchy.
func (r Role) AtLeast(min Role) bool {
	return r.IsValid() && r.Level() >= min.Level()
}

// IsManager reports whether r has direct reports in the field hierarchy.
func (r Role) IsManager() bool {
	return r == RoleASM || r == RoleRM || r == RoleZM
}

// Status is the employment status used together with Role to pick a rate.
type Status string

const (
	StatusTrainee   Status = "TRAINEE"
	StatusConfirmed Status = "CONFIRMED"
)

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	return s == StatusTrainee || s == StatusConfirmed
}

// Actor is the authenticated user performing an operation.
type Actor struct {
	UserID string `json:"userId"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// IsAdmin reports whether the actor has the ADMIN role.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Profile is a user's stored profile document.
type Profile struct {
	ID                 string      `json:"id"`
	Email              string      `json:"email"`
	DisplayName        string      `json:"displayName"`
	Role               Role        `json:"role"`
	Status             Status      `json:"status"`
	HQLocation         string      `json:"hqLocation"`
	State              string      `json:"state,omitempty"`
	ReportingManagerID string      `json:"reportingManagerId,omitempty"`
	Territories        []Territory `json:"territories"`
	HQLat              *float64    `json:"hqLat,omitempty"`
	HQLng              *float64    `json:"hqLng,omitempty"`
	PasswordHash       string      `json:"passwordHash,omitempty"`
	Version            int64       `json:"version"`
}

// Actor returns the profile as an acting identity.
func (p Profile) Actor() Actor {
	return Actor{UserID: p.ID, Role: p.Role, Status: p.Status}
}

// ReportsTo reports whether p is a direct report of managerID.
func (p Profile) ReportsTo(managerID string) bool {
	return managerID != "" && p.ReportingManagerID == managerID
}

// Territory returns the owned territory with the given id.
func (p Profile) Territory(id string) (Territory, bool) {
	return FindTerritory(p.Territories, id)
}

// Public returns a copy of p without credentials, safe to serialize to clients.
func (p Profile) Public() Profile {
	p.PasswordHash = ""
	return p
}
