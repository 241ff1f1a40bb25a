package app

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"rentfolio/internal/util"
	"rentfolio/pkg/domain"
)

// TenantInput is the boundary shape for tenant creation.
type TenantInput struct {
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	Phone      string  `json:"phone"`
	PropertyID *string `json:"propertyId"`
}

// CreateTenant validates the input and, when a property reference is
// supplied, confirms that property belongs to user before inserting.
func (a *App) CreateTenant(ctx context.Context, user domain.User, in TenantInput) (domain.Tenant, error) {
	var fe fieldErrors
	if len(strings.TrimSpace(in.Name)) < 3 {
		fe.add("name", "name must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		fe.add("email", "invalid email address")
	}
	if len(strings.TrimSpace(in.Phone)) < 10 {
		fe.add("phone", "enter a valid phone number")
	}
	if err := fe.err(); err != nil {
		return domain.Tenant{}, err
	}

	var propertyID *string
	if in.PropertyID != nil && strings.TrimSpace(*in.PropertyID) != "" {
		id := strings.TrimSpace(*in.PropertyID)
		owned, err := a.store.PropertyOwned(user.ID, id)
		if err != nil {
			return domain.Tenant{}, fmt.Errorf("check ownership: %w", err)
		}
		if !owned {
			return domain.Tenant{}, ErrNotFound
		}
		propertyID = &id
	}

	tenant := domain.Tenant{
		ID:         util.NewID(),
		OwnerID:    user.ID,
		PropertyID: propertyID,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		CreatedAt:  time.Now().UTC(),
	}
	created, err := a.store.CreateTenant(tenant)
	if err != nil {
		return domain.Tenant{}, fmt.Errorf("create tenant: %w", err)
	}
	return created, nil
}

// ListTenants returns the user's tenants with their property attached.
func (a *App) ListTenants(ctx context.Context, user domain.User) ([]domain.Tenant, error) {
	return a.store.ListTenantsByOwner(user.ID)
}
