package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateTenantWithProperty(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	ctx := context.Background()

	p, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)

	tenant, err := a.CreateTenant(ctx, owner, TenantInput{
		Name:       "Jane Renter",
		Email:      "jane@example.com",
		Phone:      "555-010-2030",
		PropertyID: &p.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, owner.ID, tenant.OwnerID)
	require.NotNil(t, tenant.PropertyID)
	assert.Equal(t, p.ID, *tenant.PropertyID)

	list, err := a.ListTenants(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Property)
	assert.Equal(t, "Loft", list[0].Property.Title)
}

func TestCreateTenantWithoutProperty(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")

	tenant, err := a.CreateTenant(context.Background(), owner, TenantInput{
		Name:  "Jane Renter",
		Email: "jane@example.com",
		Phone: "555-010-2030",
	})
	require.NoError(t, err)
	assert.Nil(t, tenant.PropertyID)
}

func TestCreateTenantValidation(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")

	_, err := a.CreateTenant(context.Background(), owner, TenantInput{
		Name:  "Jo",
		Email: "not-an-email",
		Phone: "123",
	})
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	fields := make(map[string]bool)
	for _, f := range ve.Fields {
		fields[f.Field] = true
	}
	assert.True(t, fields["name"])
	assert.True(t, fields["email"])
	assert.True(t, fields["phone"])
}

func TestCreateTenantOnForeignProperty(t *testing.T) {
	a, st, _ := newTestApp(t)
	owner := testUser(t, st, "u1", "u1@example.com")
	other := testUser(t, st, "u2", "u2@example.com")
	ctx := context.Background()

	p, err := a.CreateProperty(ctx, owner, loftInput())
	require.NoError(t, err)

	_, err = a.CreateTenant(ctx, other, TenantInput{
		Name:       "Jane Renter",
		Email:      "jane@example.com",
		Phone:      "555-010-2030",
		PropertyID: &p.ID,
	})
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := a.ListTenants(ctx, other)
	require.NoError(t, err)
	assert.Empty(t, list)
}
