package model

// Role identifies a company's function on a construction project.
type Role string

const (
	RoleDeveloperOwner      Role = "Developer/Owner"
	RoleDeveloper           Role = "Developer"
	RoleOwner               Role = "Owner"
	RoleGCContractor        Role = "GC/Contractor"
	RoleConstructionManager Role = "Construction Manager"
	RoleArchitect           Role = "Architect"
	RoleStructuralEngineer  Role = "Structural Engineer"
	RoleMEPEngineer         Role = "MEP Engineer"
	// RoleCompany is the fallback when a listing carries no role marker.
	RoleCompany Role = "Company"
)

// rolePriority orders roles from most to least valuable as an outreach
// target. Lower wins during company dedup.
var rolePriority = map[Role]int{
	RoleDeveloperOwner:      0,
	RoleDeveloper:           1,
	RoleOwner:               2,
	RoleGCContractor:        3,
	RoleConstructionManager: 4,
	RoleArchitect:           5,
	RoleStructuralEngineer:  6,
	RoleMEPEngineer:         7,
	RoleCompany:             99,
}

// Priority returns the dedup priority for r. Unknown roles rank last.
func (r Role) Priority() int {
	if p, ok := rolePriority[r]; ok {
		return p
	}
	return 99
}

// IsDeveloperFamily reports whether r is a developer or owner role.
func (r Role) IsDeveloperFamily() bool {
	return r == RoleDeveloperOwner || r == RoleDeveloper || r == RoleOwner
}

// IsContractorFamily reports whether r is a general contractor or
// construction manager role. These companies hire inspection services
// directly and never need plan review pitched to them.
func (r Role) IsContractorFamily() bool {
	return r == RoleGCContractor || r == RoleConstructionManager
}
