package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRolePriority_Ordering(t *testing.T) {
	assert.Less(t, RoleDeveloperOwner.Priority(), RoleDeveloper.Priority())
	assert.Less(t, RoleOwner.Priority(), RoleGCContractor.Priority())
	assert.Less(t, RoleArchitect.Priority(), RoleStructuralEngineer.Priority())
	assert.Equal(t, 99, RoleCompany.Priority())
}

func TestRolePriority_UnknownRanksLast(t *testing.T) {
	assert.Equal(t, 99, Role("Tenant").Priority())
}

func TestRoleFamilies(t *testing.T) {
	assert.True(t, RoleDeveloperOwner.IsDeveloperFamily())
	assert.True(t, RoleOwner.IsDeveloperFamily())
	assert.False(t, RoleArchitect.IsDeveloperFamily())

	assert.True(t, RoleGCContractor.IsContractorFamily())
	assert.True(t, RoleConstructionManager.IsContractorFamily())
	assert.False(t, RoleDeveloper.IsContractorFamily())
}

func TestCompanyResearch_BestContact(t *testing.T) {
	cr := CompanyResearch{Contacts: []Contact{
		{Name: "No Email"},
		{Name: "Has Email", Email: "pm@acme.com"},
	}}

	best, ok := cr.BestContact()
	assert.True(t, ok)
	assert.Equal(t, "pm@acme.com", best.Email)

	empty := CompanyResearch{}
	_, ok = empty.BestContact()
	assert.False(t, ok)
}

func TestCompanyResearch_HasVerifiedEmail(t *testing.T) {
	cr := CompanyResearch{Contacts: []Contact{
		{Name: "Guess", Email: "guess@acme.com"},
	}}
	assert.False(t, cr.HasVerifiedEmail())

	cr.Contacts = append(cr.Contacts, Contact{Name: "Listed", Email: "pm@acme.com", Verified: true})
	assert.True(t, cr.HasVerifiedEmail())
}
