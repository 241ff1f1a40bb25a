package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"rentfolio/internal/util"
	"rentfolio/pkg/domain"
)

// ExpenseInput is the boundary shape for expense create and update calls.
type ExpenseInput struct {
	ID          string    `json:"id,omitempty"`
	Date        string    `json:"date"`
	Category    *string   `json:"category"`
	Type        string    `json:"type"`
	Amount      FlexFloat `json:"amount"`
	Description *string   `json:"description"`
	PropertyID  string    `json:"propertyId"`
}

func parseExpenseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), true
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), true
	}
	return time.Time{}, false
}

func validateExpenseFields(in ExpenseInput) (time.Time, domain.ExpenseType, error) {
	var fe fieldErrors
	date, ok := parseExpenseDate(in.Date)
	if !ok {
		fe.add("date", "date must be a calendar date")
	}
	var expenseType domain.ExpenseType
	switch in.Type {
	case string(domain.TypeExpense):
		expenseType = domain.TypeExpense
	case string(domain.TypeIncome):
		expenseType = domain.TypeIncome
	default:
		fe.add("type", "type must be EXPENSE or INCOME")
	}
	if in.Amount <= 0 {
		fe.add("amount", "amount must be greater than 0")
	}
	return date, expenseType, fe.err()
}

// CreateExpense validates the input, verifies the referenced property belongs
// to user, and inserts the row.
func (a *App) CreateExpense(ctx context.Context, user domain.User, in ExpenseInput) (domain.Expense, error) {
	date, expenseType, err := validateExpenseFields(in)
	var fe fieldErrors
	if !util.ValidID(in.PropertyID) {
		fe.add("propertyId", "invalid property ID format")
	}
	if err != nil {
		ve := err.(*ValidationError)
		ve.Fields = append(ve.Fields, fe...)
		return domain.Expense{}, ve
	}
	if err := fe.err(); err != nil {
		return domain.Expense{}, err
	}

	owned, ownErr := a.store.PropertyOwned(user.ID, in.PropertyID)
	if ownErr != nil {
		return domain.Expense{}, fmt.Errorf("check ownership: %w", ownErr)
	}
	if !owned {
		return domain.Expense{}, ErrNotFound
	}

	expense := domain.Expense{
		ID:          util.NewID(),
		PropertyID:  in.PropertyID,
		Date:        date,
		Category:    in.Category,
		Type:        expenseType,
		Amount:      float64(in.Amount),
		Description: in.Description,
		CreatedAt:   time.Now().UTC(),
	}
	created, err := a.store.CreateExpense(expense)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return created, nil
}

// UpdateExpense verifies the expense's parent property belongs to user, then
// applies the validated field changes.
func (a *App) UpdateExpense(ctx context.Context, user domain.User, in ExpenseInput) (domain.Expense, error) {
	if strings.TrimSpace(in.ID) == "" {
		var fe fieldErrors
		fe.add("id", "expense id is required for update")
		return domain.Expense{}, fe.err()
	}
	owned, err := a.store.ExpenseOwned(user.ID, in.ID)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return domain.Expense{}, ErrNotFound
	}
	date, expenseType, err := validateExpenseFields(in)
	if err != nil {
		return domain.Expense{}, err
	}
	existing, ok, err := a.store.GetExpense(in.ID)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	if !ok {
		return domain.Expense{}, ErrNotFound
	}
	existing.Date = date
	existing.Category = in.Category
	existing.Type = expenseType
	existing.Amount = float64(in.Amount)
	existing.Description = in.Description
	updated, err := a.store.UpdateExpense(existing)
	if err != nil {
		return domain.Expense{}, fmt.Errorf("update expense: %w", err)
	}
	return updated, nil
}

// DeleteExpense verifies ownership via the parent property and deletes the row.
func (a *App) DeleteExpense(ctx context.Context, user domain.User, id string) error {
	owned, err := a.store.ExpenseOwned(user.ID, id)
	if err != nil {
		return fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return ErrNotFound
	}
	if err := a.store.DeleteExpense(id); err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

// ListExpenses verifies property ownership and returns the property's
// expenses ordered by date descending.
func (a *App) ListExpenses(ctx context.Context, user domain.User, propertyID string) ([]domain.Expense, error) {
	if !util.ValidID(propertyID) {
		var fe fieldErrors
		fe.add("propertyId", "invalid property ID format")
		return nil, fe.err()
	}
	owned, err := a.store.PropertyOwned(user.ID, propertyID)
	if err != nil {
		return nil, fmt.Errorf("check ownership: %w", err)
	}
	if !owned {
		return nil, ErrNotFound
	}
	return a.store.ListExpensesByProperty(propertyID)
}
