package roster

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRole_Hierarchy(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleASM))
	assert.True(t, RoleASM.AtLeast(RoleASM))
	assert.False(t, RoleMR.AtLeast(RoleASM))
	assert.False(t, Role("INTERN").AtLeast(RoleMR))

	assert.True(t, RoleASM.IsManager())
	assert.True(t, RoleZM.IsManager())
	assert.False(t, RoleMR.IsManager())
	assert.False(t, RoleAdmin.IsManager())
}

func TestProfile_ReportsTo(t *testing.T) {
	p := Profile{ID: "mr1", ReportingManagerID: "asm1"}

	assert.True(t, p.ReportsTo("asm1"))
	assert.False(t, p.ReportsTo("asm2"))
	assert.False(t, Profile{ID: "mr2"}.ReportsTo(""))
}

func TestTerritory_Radius(t *testing.T) {
	r := 500.0
	zero := 0.0

	assert.Equal(t, 500.0, Territory{GeoRadius: &r}.Radius())
	assert.Equal(t, DefaultGeoRadiusMeters, Territory{}.Radius())
	assert.Equal(t, DefaultGeoRadiusMeters, Territory{GeoRadius: &zero}.Radius())
}

func TestProfile_PublicDropsPasswordHash(t *testing.T) {
	p := Profile{ID: "mr1", PasswordHash: "$2a$12$abc"}

	assert.Empty(t, p.Public().PasswordHash)
	assert.Equal(t, "$2a$12$abc", p.PasswordHash)
}
