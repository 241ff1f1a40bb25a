package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentfolio/internal/util"
	"rentfolio/pkg/domain"
)

// PropertyInput is the boundary shape for property create and update calls.
// Numeric fields coerce stringified numbers.
type PropertyInput struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       FlexFloat `json:"price"`
	Bedrooms    FlexInt   `json:"bedrooms"`
	Bathrooms   FlexInt   `json:"bathrooms"`
	Address     string    `json:"address"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	ZipCode     string    `json:"zipCode"`
	Images      []string  `json:"images"`
	Documents   []string  `json:"documents"`
}

func validatePropertyFields(in PropertyInput, requireImages bool) error {
	var fe fieldErrors
	if strings.TrimSpace(in.Title) == "" {
		fe.add("title", "title is required")
	}
	if strings.TrimSpace(in.Description) == "" {
		fe.add("description", "description is required")
	}
	if in.Bedrooms < 1 {
		fe.add("bedrooms", "at least 1 bedroom required")
	}
	if in.Bathrooms < 1 {
		fe.add("bathrooms", "at least 1 bathroom required")
	}
	if in.Price < 0 {
		fe.add("price", "price must not be negative")
	}
	if strings.TrimSpace(in.Address) == "" {
		fe.add("address", "address is required")
	}
	if strings.TrimSpace(in.City) == "" {
		fe.add("city", "city is required")
	}
	if len(strings.TrimSpace(in.State)) != 2 {
		fe.add("state", "state must be a 2-letter code")
	}
	if len(strings.TrimSpace(in.ZipCode)) < 5 {
		fe.add("zipCode", "invalid ZIP code")
	}
	if requireImages && len(in.Images) == 0 {
		fe.add("images", "at least 1 image required")
	}
	return fe.err()
}

// CreateProperty validates the input and inserts a property owned by user,
// together with one document row per supplied document URL.
func (a *App) CreateProperty(ctx context.Context, user domain.User, in PropertyInput) (domain.Property, error) {
	if err := validatePropertyFields(in, true); err != nil {
		return domain.Property{}, err
	}
	now := time.Now().UTC()
	property := domain.Property{
		ID:          util.NewID(),
		OwnerID:     user.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       float64(in.Price),
		Bedrooms:    int(in.Bedrooms),
		Bathrooms:   int(in.Bathrooms),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.ToUpper(strings.TrimSpace(in.State)),
		ZipCode:     strings.TrimSpace(in.ZipCode),
		Images:      in.Images,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	docs := make([]domain.PropertyDocument, 0, len(in.Documents))
	for _, url := range dedupeURLs(in.Documents) {
		docs = append(docs, newDocument(property.ID, url))
	}
	created, err := a.store.CreateProperty(property, docs)
	if err != nil {
		return domain.Property{}, fmt.Errorf("create property: %w", err)
	}
	return created, nil
}

// UpdateProperty verifies ownership, validates the body, and applies the
// field update together with the document-set delta in one transaction.
// Images may be emptied on update; the create-time minimum applies only to
// the initial listing.
func (a *App) UpdateProperty(ctx context.Context, user domain.User, in PropertyInput) (domain.Property, error) {
	if strings.TrimSpace(in.ID) == "" {
		var fe fieldErrors
		fe.add("id", "property id is required for update")
		return domain.Property{}, fe.err()
	}
	owned, err := a.store.PropertyOwned(user.ID, in.ID)
	if err != nil {
		return domain.Property{}, fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return domain.Property{}, ErrNotFound
	}
	if err := validatePropertyFields(in, false); err != nil {
		return domain.Property{}, err
	}

	existing, err := a.store.ListDocumentsByProperty(in.ID)
	if err != nil {
		return domain.Property{}, fmt.Errorf("list documents: %w", err)
	}
	existingURLs := make([]string, 0, len(existing))
	for _, d := range existing {
		existingURLs = append(existingURLs, d.URL)
	}
	toAdd, toRemove := reconcileDocuments(in.Documents, existingURLs)
	addDocs := make([]domain.PropertyDocument, 0, len(toAdd))
	for _, url := range toAdd {
		addDocs = append(addDocs, newDocument(in.ID, url))
	}

	property := domain.Property{
		ID:          in.ID,
		OwnerID:     user.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Price:       float64(in.Price),
		Bedrooms:    int(in.Bedrooms),
		Bathrooms:   int(in.Bathrooms),
		Address:     strings.TrimSpace(in.Address),
		City:        strings.TrimSpace(in.City),
		State:       strings.ToUpper(strings.TrimSpace(in.State)),
		ZipCode:     strings.TrimSpace(in.ZipCode),
		Images:      in.Images,
	}
	updated, err := a.store.UpdateProperty(property, addDocs, toRemove)
	if err != nil {
		return domain.Property{}, fmt.Errorf("update property: %w", err)
	}
	return updated, nil
}

// DeleteProperty verifies ownership, then removes the property, its documents
// and expenses, and detaches referencing tenants.
func (a *App) DeleteProperty(ctx context.Context, user domain.User, id string) error {
	owned, err := a.store.PropertyOwned(user.ID, id)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return ErrNotFound
	}
	if err := a.store.DeleteProperty(id); err != nil {
		return fmt.Errorf("delete property: %w", err)
	}
	return nil
}

// GetProperty returns one of the user's properties with documents and tenants.
func (a *App) GetProperty(ctx context.Context, user domain.User, id string) (domain.Property, error) {
	property, ok, err := a.store.GetProperty(id)
	if err != nil {
		return domain.Property{}, fmt.Errorf("get property: %w", err)
	}
	if !ok || property.OwnerID != user.ID {
		return domain.Property{}, ErrNotFound
	}
	return property, nil
}

// ListProperties returns the user's properties with tenants and documents.
func (a *App) ListProperties(ctx context.Context, user domain.User) ([]domain.Property, error) {
	return a.store.ListPropertiesByOwner(user.ID)
}

// ListPropertyRefs returns id+title pairs for selection dropdowns.
func (a *App) ListPropertyRefs(ctx context.Context, user domain.User) ([]domain.PropertyRef, error) {
	return a.store.ListPropertyRefsByOwner(user.ID)
}
