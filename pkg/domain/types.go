package domain

import "time"

type ExpenseType string

const (
	TypeExpense ExpenseType = "EXPENSE"
	TypeIncome  ExpenseType = "INCOME"
)

type DocumentType string

const (
	DocPDF     DocumentType = "PDF"
	DocWord    DocumentType = "Word"
	DocExcel   DocumentType = "Excel"
	DocCSV     DocumentType = "CSV"
	DocGeneric DocumentType = "Document"
)

type UploadCategory string

const (
	CategoryImage    UploadCategory = "image"
	CategoryDocument UploadCategory = "document"
)

type User struct {
	ID         string     `json:"id"`
	ExternalID string     `json:"externalId"`
	Email      string     `json:"email"`
	Name       *string    `json:"name"`
	Properties []Property `json:"properties,omitempty"`
	Tenants    []Tenant   `json:"tenants,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

type Property struct {
	ID          string             `json:"id"`
	OwnerID     string             `json:"ownerId"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	Price       float64            `json:"price"`
	Bedrooms    int                `json:"bedrooms"`
	Bathrooms   int                `json:"bathrooms"`
	Address     string             `json:"address"`
	City        string             `json:"city"`
	State       string             `json:"state"`
	ZipCode     string             `json:"zipCode"`
	Images      []string           `json:"images"`
	Documents   []PropertyDocument `json:"documents,omitempty"`
	Tenants     []Tenant           `json:"tenants,omitempty"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

type Tenant struct {
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	PropertyID *string   `json:"propertyId"`
	Property   *Property `json:"property,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone"`
	CreatedAt  time.Time `json:"createdAt"`
}

type PropertyDocument struct {
	ID         string       `json:"id"`
	PropertyID string       `json:"propertyId"`
	URL        string       `json:"url"`
	Name       string       `json:"name"`
	Type       DocumentType `json:"type"`
	CreatedAt  time.Time    `json:"createdAt"`
}

type Expense struct {
	ID          string      `json:"id"`
	PropertyID  string      `json:"propertyId"`
	Date        time.Time   `json:"date"`
	Category    *string     `json:"category"`
	Type        ExpenseType `json:"type"`
	Amount      float64     `json:"amount"`
	Description *string     `json:"description"`
	CreatedAt   time.Time   `json:"createdAt"`
}

// PropertyRef is the lightweight shape used by selection dropdowns.
type PropertyRef struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// UploadResult is returned by the upload gateway after a successful store.
type UploadResult struct {
	URL          string `json:"url"`
	PublicID     string `json:"publicId"`
	OriginalName string `json:"originalName"`
}
