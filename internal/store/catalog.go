package store

import (
	"context"

	"inventory-service/internal/models"
)

// ListCategories returns all categories ordered by name
func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := []models.Category{}
	err := s.db.SelectContext(ctx, &categories, "SELECT * FROM categories ORDER BY name")
	return categories, err
}

// GetCategory retrieves a category by ID
func (s *Store) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	var category models.Category
	if err := s.db.GetContext(ctx, &category, "SELECT * FROM categories WHERE id = $1", id); err != nil {
		return nil, translateError(err)
	}
	return &category, nil
}

// CreateCategory inserts a category
func (s *Store) CreateCategory(ctx context.Context, category *models.Category) error {
	query := `
		INSERT INTO categories (name, description)
		VALUES ($1, $2)
		RETURNING id, created_at`

	return translateError(s.db.GetContext(ctx, category, query, category.Name, category.Description))
}

// UpdateCategory overwrites a category's fields
func (s *Store) UpdateCategory(ctx context.Context, category *models.Category) error {
	query := `
		UPDATE categories SET name = $1, description = $2
		WHERE id = $3
		RETURNING created_at`

	return translateError(s.db.GetContext(ctx, &category.CreatedAt, query,
		category.Name, category.Description, category.ID))
}

// DeleteCategoryCascade deletes a category and every item in it atomically
func (s *Store) DeleteCategoryCascade(ctx context.Context, id int64) ([]int64, error) {
	return s.deleteCascade(ctx, "categories", "category_id", id)
}

// ListSuppliers returns all suppliers ordered by name
func (s *Store) ListSuppliers(ctx context.Context) ([]models.Supplier, error) {
	suppliers := []models.Supplier{}
	err := s.db.SelectContext(ctx, &suppliers, "SELECT * FROM suppliers ORDER BY name")
	return suppliers, err
}

// GetSupplier retrieves a supplier by ID
func (s *Store) GetSupplier(ctx context.Context, id int64) (*models.Supplier, error) {
	var supplier models.Supplier
	if err := s.db.GetContext(ctx, &supplier, "SELECT * FROM suppliers WHERE id = $1", id); err != nil {
		return nil, translateError(err)
	}
	return &supplier, nil
}

// CreateSupplier inserts a supplier
func (s *Store) CreateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `
		INSERT INTO suppliers (name, contact_name, email, phone, address)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	return translateError(s.db.GetContext(ctx, supplier, query,
		supplier.Name, supplier.ContactName, supplier.Email, supplier.Phone, supplier.Address))
}

// UpdateSupplier overwrites a supplier's fields
func (s *Store) UpdateSupplier(ctx context.Context, supplier *models.Supplier) error {
	query := `
		UPDATE suppliers
		SET name = $1, contact_name = $2, email = $3, phone = $4, address = $5
		WHERE id = $6
		RETURNING created_at`

	return translateError(s.db.GetContext(ctx, &supplier.CreatedAt, query,
		supplier.Name, supplier.ContactName, supplier.Email, supplier.Phone, supplier.Address, supplier.ID))
}

// DeleteSupplierCascade deletes a supplier and every item it provides atomically
func (s *Store) DeleteSupplierCascade(ctx context.Context, id int64) ([]int64, error) {
	return s.deleteCascade(ctx, "suppliers", "supplier_id", id)
}
