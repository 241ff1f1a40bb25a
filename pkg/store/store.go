package store

import "rentfolio/pkg/domain"

// Store defines persistence operations for users, properties, tenants,
// documents, and expenses. Ownership checks are scoped existence queries and
// are meant to run immediately before the write they protect; results are
// never cached.
type Store interface {
	// users
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByEmailWithRelations(email string) (domain.User, bool, error)
	CreateUser(domain.User) error

	// properties
	CreateProperty(p domain.Property, docs []domain.PropertyDocument) (domain.Property, error)
	UpdateProperty(p domain.Property, addDocs []domain.PropertyDocument, removeURLs []string) (domain.Property, error)
	DeleteProperty(id string) error
	GetProperty(id string) (domain.Property, bool, error)
	ListPropertiesByOwner(ownerID string) ([]domain.Property, error)
	ListPropertyRefsByOwner(ownerID string) ([]domain.PropertyRef, error)
	PropertyOwned(ownerID, propertyID string) (bool, error)

	// documents
	CreateDocument(d domain.PropertyDocument) (domain.PropertyDocument, error)
	DeleteDocument(id string) error
	ListDocumentsByProperty(propertyID string) ([]domain.PropertyDocument, error)
	DocumentOwned(ownerID, documentID string) (bool, error)

	// tenants
	CreateTenant(t domain.Tenant) (domain.Tenant, error)
	ListTenantsByOwner(ownerID string) ([]domain.Tenant, error)

	// expenses
	CreateExpense(e domain.Expense) (domain.Expense, error)
	UpdateExpense(e domain.Expense) (domain.Expense, error)
	DeleteExpense(id string) error
	GetExpense(id string) (domain.Expense, bool, error)
	ListExpensesByProperty(propertyID string) ([]domain.Expense, error)
	ExpenseOwned(ownerID, expenseID string) (bool, error)
}
