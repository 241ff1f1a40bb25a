package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"rentfolio/pkg/domain"
)

const migrateLockID int64 = 52415241

// GormStore implements Store using GORM + Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the DB and runs auto-migrations under an advisory lock.
func NewGormStore(dsn string) (*GormStore, error) {
	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := withMigrationLock(db, func(tx *gorm.DB) error {
		return migrate(tx)
	}); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// NewGormStoreFromDB wraps an already-open gorm DB and runs auto-migrations.
// Used by tests with the sqlite driver.
func NewGormStoreFromDB(db *gorm.DB) (*GormStore, error) {
	if err := migrate(db); err != nil {
		return nil, err
	}
	return &GormStore{db: db}, nil
}

func migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&UserModel{},
		&PropertyModel{},
		&TenantModel{},
		&PropertyDocumentModel{},
		&ExpenseModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func withMigrationLock(db *gorm.DB, fn func(*gorm.DB) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("get sql db: %w", err)
	}
	conn, err := sqlDB.Conn(ctx)
	if err != nil {
		return fmt.Errorf("open sql conn: %w", err)
	}
	defer conn.Close()
	if err := execAdvisory(ctx, conn, "SELECT pg_advisory_lock($1)", migrateLockID); err != nil {
		return fmt.Errorf("acquire migrate lock: %w", err)
	}
	defer func() {
		_ = execAdvisory(ctx, conn, "SELECT pg_advisory_unlock($1)", migrateLockID)
	}()
	return fn(db)
}

func execAdvisory(ctx context.Context, conn *sql.Conn, query string, lockID int64) error {
	_, err := conn.ExecContext(ctx, query, lockID)
	return err
}

// GetUserByEmail looks up a user by email without relations.
func (s *GormStore) GetUserByEmail(email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.Where("email = ?", email).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

// GetUserByEmailWithRelations returns a user with properties (including their
// tenants and documents) and tenants (including their property) attached.
func (s *GormStore) GetUserByEmailWithRelations(email string) (domain.User, bool, error) {
	user, ok, err := s.GetUserByEmail(email)
	if err != nil || !ok {
		return domain.User{}, ok, err
	}
	properties, err := s.ListPropertiesByOwner(user.ID)
	if err != nil {
		return domain.User{}, false, err
	}
	tenants, err := s.ListTenantsByOwner(user.ID)
	if err != nil {
		return domain.User{}, false, err
	}
	user.Properties = properties
	user.Tenants = tenants
	return user, true, nil
}

// CreateUser inserts a new user row.
func (s *GormStore) CreateUser(u domain.User) error {
	model := userToModel(u)
	return s.db.Create(&model).Error
}

// CreateProperty inserts a property and its initial document rows atomically.
func (s *GormStore) CreateProperty(p domain.Property, docs []domain.PropertyDocument) (domain.Property, error) {
	model := propertyToModel(p)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&model).Error; err != nil {
			return err
		}
		for _, d := range docs {
			docModel := documentToModel(d)
			docModel.PropertyID = model.ID
			if err := tx.Create(&docModel).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return domain.Property{}, err
	}
	return s.loadProperty(model.ID)
}

// UpdateProperty applies field changes and the document-set delta in one
// transaction. removeURLs are deleted scoped to the property id so a shared
// URL on another property is never touched.
func (s *GormStore) UpdateProperty(p domain.Property, addDocs []domain.PropertyDocument, removeURLs []string) (domain.Property, error) {
	model := propertyToModel(p)
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if len(removeURLs) > 0 {
			if err := tx.Delete(&PropertyDocumentModel{}, "property_id = ? AND url IN ?", p.ID, removeURLs).Error; err != nil {
				return err
			}
		}
		for _, d := range addDocs {
			docModel := documentToModel(d)
			docModel.PropertyID = p.ID
			if err := tx.Create(&docModel).Error; err != nil {
				return err
			}
		}
		return tx.Model(&PropertyModel{}).Where("id = ?", p.ID).Updates(map[string]any{
			"title":       model.Title,
			"description": model.Description,
			"price":       model.Price,
			"bedrooms":    model.Bedrooms,
			"bathrooms":   model.Bathrooms,
			"address":     model.Address,
			"city":        model.City,
			"state":       model.State,
			"zip_code":    model.ZipCode,
			"images":      model.Images,
			"updated_at":  time.Now().UTC(),
		}).Error
	})
	if err != nil {
		return domain.Property{}, err
	}
	return s.loadProperty(p.ID)
}

// DeleteProperty removes the property together with its documents and
// expenses, and detaches tenants that referenced it.
func (s *GormStore) DeleteProperty(id string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Delete(&PropertyDocumentModel{}, "property_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Delete(&ExpenseModel{}, "property_id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&TenantModel{}).Where("property_id = ?", id).Update("property_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&PropertyModel{}, "id = ?", id).Error
	})
}

// GetProperty retrieves a property with its documents and tenants.
func (s *GormStore) GetProperty(id string) (domain.Property, bool, error) {
	p, err := s.loadProperty(id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Property{}, false, nil
		}
		return domain.Property{}, false, err
	}
	return p, true, nil
}

func (s *GormStore) loadProperty(id string) (domain.Property, error) {
	var model PropertyModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		return domain.Property{}, err
	}
	p := propertyFromModel(model)
	docs, err := s.ListDocumentsByProperty(id)
	if err != nil {
		return domain.Property{}, err
	}
	p.Documents = docs
	var tenantModels []TenantModel
	if err := s.db.Where("property_id = ?", id).Order("created_at ASC").Find(&tenantModels).Error; err != nil {
		return domain.Property{}, err
	}
	for _, tm := range tenantModels {
		p.Tenants = append(p.Tenants, tenantFromModel(tm))
	}
	return p, nil
}

// ListPropertiesByOwner returns the owner's properties with documents and
// tenants attached, oldest first.
func (s *GormStore) ListPropertiesByOwner(ownerID string) ([]domain.Property, error) {
	var models []PropertyModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Property, 0, len(models))
	for _, m := range models {
		p, err := s.loadProperty(m.ID)
		if err != nil {
			return nil, err
		}
		res = append(res, p)
	}
	return res, nil
}

// ListPropertyRefsByOwner returns id+title pairs for selection purposes.
func (s *GormStore) ListPropertyRefsByOwner(ownerID string) ([]domain.PropertyRef, error) {
	var models []PropertyModel
	if err := s.db.Select("id", "title").Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	refs := make([]domain.PropertyRef, 0, len(models))
	for _, m := range models {
		refs = append(refs, domain.PropertyRef{ID: m.ID, Title: m.Title})
	}
	return refs, nil
}

// PropertyOwned reports whether the property exists and belongs to ownerID.
func (s *GormStore) PropertyOwned(ownerID, propertyID string) (bool, error) {
	var count int64
	if err := s.db.Model(&PropertyModel{}).
		Where("id = ? AND owner_id = ?", propertyID, ownerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateDocument inserts one document row.
func (s *GormStore) CreateDocument(d domain.PropertyDocument) (domain.PropertyDocument, error) {
	model := documentToModel(d)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.PropertyDocument{}, err
	}
	return documentFromModel(model), nil
}

// DeleteDocument removes one document row.
func (s *GormStore) DeleteDocument(id string) error {
	return s.db.Delete(&PropertyDocumentModel{}, "id = ?", id).Error
}

// ListDocumentsByProperty returns a property's documents, oldest first.
func (s *GormStore) ListDocumentsByProperty(propertyID string) ([]domain.PropertyDocument, error) {
	var models []PropertyDocumentModel
	if err := s.db.Where("property_id = ?", propertyID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	docs := make([]domain.PropertyDocument, 0, len(models))
	for _, m := range models {
		docs = append(docs, documentFromModel(m))
	}
	return docs, nil
}

// DocumentOwned reports whether the document's parent property belongs to
// ownerID.
func (s *GormStore) DocumentOwned(ownerID, documentID string) (bool, error) {
	var count int64
	if err := s.db.Model(&PropertyDocumentModel{}).
		Joins("JOIN property_models ON property_models.id = property_document_models.property_id").
		Where("property_document_models.id = ? AND property_models.owner_id = ?", documentID, ownerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// CreateTenant inserts a tenant row.
func (s *GormStore) CreateTenant(t domain.Tenant) (domain.Tenant, error) {
	model := tenantToModel(t)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Tenant{}, err
	}
	return tenantFromModel(model), nil
}

// ListTenantsByOwner returns the owner's tenants with their property attached.
func (s *GormStore) ListTenantsByOwner(ownerID string) ([]domain.Tenant, error) {
	var models []TenantModel
	if err := s.db.Where("owner_id = ?", ownerID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	tenants := make([]domain.Tenant, 0, len(models))
	for _, m := range models {
		t := tenantFromModel(m)
		if m.PropertyID != nil {
			var pm PropertyModel
			if err := s.db.First(&pm, "id = ?", *m.PropertyID).Error; err == nil {
				p := propertyFromModel(pm)
				t.Property = &p
			} else if err != gorm.ErrRecordNotFound {
				return nil, err
			}
		}
		tenants = append(tenants, t)
	}
	return tenants, nil
}

// CreateExpense inserts an expense row.
func (s *GormStore) CreateExpense(e domain.Expense) (domain.Expense, error) {
	model := expenseToModel(e)
	if err := s.db.Create(&model).Error; err != nil {
		return domain.Expense{}, err
	}
	return expenseFromModel(model), nil
}

// UpdateExpense applies field changes to an existing expense.
func (s *GormStore) UpdateExpense(e domain.Expense) (domain.Expense, error) {
	if err := s.db.Model(&ExpenseModel{}).Where("id = ?", e.ID).Updates(map[string]any{
		"date":        e.Date.UTC(),
		"category":    e.Category,
		"type":        string(e.Type),
		"amount":      e.Amount,
		"description": e.Description,
	}).Error; err != nil {
		return domain.Expense{}, err
	}
	updated, ok, err := s.GetExpense(e.ID)
	if err != nil {
		return domain.Expense{}, err
	}
	if !ok {
		return domain.Expense{}, gorm.ErrRecordNotFound
	}
	return updated, nil
}

// DeleteExpense removes one expense row.
func (s *GormStore) DeleteExpense(id string) error {
	return s.db.Delete(&ExpenseModel{}, "id = ?", id).Error
}

// GetExpense retrieves one expense.
func (s *GormStore) GetExpense(id string) (domain.Expense, bool, error) {
	var model ExpenseModel
	if err := s.db.First(&model, "id = ?", id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return domain.Expense{}, false, nil
		}
		return domain.Expense{}, false, err
	}
	return expenseFromModel(model), true, nil
}

// ListExpensesByProperty returns a property's expenses newest date first.
// The descending order is a contract the ledger UI depends on.
func (s *GormStore) ListExpensesByProperty(propertyID string) ([]domain.Expense, error) {
	var models []ExpenseModel
	if err := s.db.Where("property_id = ?", propertyID).
		Order("date DESC").
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	expenses := make([]domain.Expense, 0, len(models))
	for _, m := range models {
		expenses = append(expenses, expenseFromModel(m))
	}
	return expenses, nil
}

// ExpenseOwned reports whether the expense's parent property belongs to
// ownerID.
func (s *GormStore) ExpenseOwned(ownerID, expenseID string) (bool, error) {
	var count int64
	if err := s.db.Model(&ExpenseModel{}).
		Joins("JOIN property_models ON property_models.id = expense_models.property_id").
		Where("expense_models.id = ? AND property_models.owner_id = ?", expenseID, ownerID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func userToModel(u domain.User) UserModel {
	return UserModel{
		ID:         u.ID,
		ExternalID: u.ExternalID,
		Email:      u.Email,
		Name:       u.Name,
		CreatedAt:  u.CreatedAt,
	}
}

func userFromModel(m UserModel) domain.User {
	return domain.User{
		ID:         m.ID,
		ExternalID: m.ExternalID,
		Email:      m.Email,
		Name:       m.Name,
		CreatedAt:  m.CreatedAt,
	}
}

func propertyToModel(p domain.Property) PropertyModel {
	images := p.Images
	if images == nil {
		images = []string{}
	}
	raw, _ := json.Marshal(images)
	return PropertyModel{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Title:       p.Title,
		Description: p.Description,
		Price:       p.Price,
		Bedrooms:    p.Bedrooms,
		Bathrooms:   p.Bathrooms,
		Address:     p.Address,
		City:        p.City,
		State:       p.State,
		ZipCode:     p.ZipCode,
		Images:      raw,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func propertyFromModel(m PropertyModel) domain.Property {
	var images []string
	if len(m.Images) > 0 {
		_ = json.Unmarshal(m.Images, &images)
	}
	if images == nil {
		images = []string{}
	}
	return domain.Property{
		ID:          m.ID,
		OwnerID:     m.OwnerID,
		Title:       m.Title,
		Description: m.Description,
		Price:       m.Price,
		Bedrooms:    m.Bedrooms,
		Bathrooms:   m.Bathrooms,
		Address:     m.Address,
		City:        m.City,
		State:       m.State,
		ZipCode:     m.ZipCode,
		Images:      images,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func tenantToModel(t domain.Tenant) TenantModel {
	return TenantModel{
		ID:         t.ID,
		OwnerID:    t.OwnerID,
		PropertyID: t.PropertyID,
		Name:       t.Name,
		Email:      t.Email,
		Phone:      t.Phone,
		CreatedAt:  t.CreatedAt,
	}
}

func tenantFromModel(m TenantModel) domain.Tenant {
	return domain.Tenant{
		ID:         m.ID,
		OwnerID:    m.OwnerID,
		PropertyID: m.PropertyID,
		Name:       m.Name,
		Email:      m.Email,
		Phone:      m.Phone,
		CreatedAt:  m.CreatedAt,
	}
}

func documentToModel(d domain.PropertyDocument) PropertyDocumentModel {
	return PropertyDocumentModel{
		ID:         d.ID,
		PropertyID: d.PropertyID,
		URL:        d.URL,
		Name:       d.Name,
		Type:       string(d.Type),
		CreatedAt:  d.CreatedAt,
	}
}

func documentFromModel(m PropertyDocumentModel) domain.PropertyDocument {
	return domain.PropertyDocument{
		ID:         m.ID,
		PropertyID: m.PropertyID,
		URL:        m.URL,
		Name:       m.Name,
		Type:       domain.DocumentType(m.Type),
		CreatedAt:  m.CreatedAt,
	}
}

func expenseToModel(e domain.Expense) ExpenseModel {
	return ExpenseModel{
		ID:          e.ID,
		PropertyID:  e.PropertyID,
		Date:        e.Date.UTC(),
		Category:    e.Category,
		Type:        string(e.Type),
		Amount:      e.Amount,
		Description: e.Description,
		CreatedAt:   e.CreatedAt,
	}
}

func expenseFromModel(m ExpenseModel) domain.Expense {
	return domain.Expense{
		ID:          m.ID,
		PropertyID:  m.PropertyID,
		Date:        m.Date,
		Category:    m.Category,
		Type:        domain.ExpenseType(m.Type),
		Amount:      m.Amount,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
