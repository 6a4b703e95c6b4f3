package store

import (
	"context"
	"fmt"
	"strings"

	"inventory-service/internal/models"
	"inventory-service/internal/stock"
)

const itemColumns = "id, sku, name, category_id, supplier_id, quantity, min_quantity, price, last_updated"

var (
	itemStatusExpr = stock.StatusSQL("quantity", "min_quantity")
	itemSelect     = "SELECT " + itemColumns + ", " + itemStatusExpr + " AS status FROM items"
)

// likeEscaper makes search input match literally inside an ILIKE pattern
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListItems returns items matching the filter and the total match count
func (s *Store) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, int, error) {
	var (
		conditions []string
		args       []interface{}
	)
	addCond := func(format string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(format, len(args)))
	}

	if filter.CategoryID > 0 {
		addCond("category_id = $%d", filter.CategoryID)
	}
	if filter.SupplierID > 0 {
		addCond("supplier_id = $%d", filter.SupplierID)
	}
	if filter.Status != "" {
		addCond("("+itemStatusExpr+") = $%d", filter.Status)
	}
	if filter.Search != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Search)+"%")
		conditions = append(conditions, fmt.Sprintf(`(sku ILIKE $%[1]d ESCAPE '\' OR name ILIKE $%[1]d ESCAPE '\')`, len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	query := itemSelect + where + " ORDER BY id"
	if !filter.Paginated() {
		items := []models.Item{}
		if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
			return nil, 0, err
		}
		return items, len(items), nil
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM items"+where, args...); err != nil {
		return nil, 0, err
	}

	query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PerPage, filter.Offset())
	items := []models.Item{}
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// GetItem retrieves an item by ID
func (s *Store) GetItem(ctx context.Context, id int64) (*models.Item, error) {
	var item models.Item
	if err := s.db.GetContext(ctx, &item, itemSelect+" WHERE id = $1", id); err != nil {
		return nil, translateError(err)
	}
	return &item, nil
}

// ListItemsNeedingNotification returns every item currently qualifying for a stock alert
func (s *Store) ListItemsNeedingNotification(ctx context.Context) ([]models.Item, error) {
	items := []models.Item{}
	query := itemSelect + " WHERE " + stock.NeedsNotificationSQL("quantity", "min_quantity") + " ORDER BY id"
	err := s.db.SelectContext(ctx, &items, query)
	return items, err
}

// CreateItem inserts an item
func (s *Store) CreateItem(ctx context.Context, item *models.Item) error {
	query := `
		INSERT INTO items (sku, name, category_id, supplier_id, quantity, min_quantity, price)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, last_updated`

	err := s.db.GetContext(ctx, item, query,
		item.SKU, item.Name, item.CategoryID, item.SupplierID, item.Quantity, item.MinQuantity, item.Price)
	if err != nil {
		return translateError(err)
	}
	item.Status = string(stock.StatusOf(item.Quantity, item.MinQuantity))
	return nil
}

// UpdateItem overwrites an item's fields
func (s *Store) UpdateItem(ctx context.Context, item *models.Item) error {
	query := `
		UPDATE items
		SET sku = $1, name = $2, category_id = $3, supplier_id = $4,
		    quantity = $5, min_quantity = $6, price = $7, last_updated = NOW()
		WHERE id = $8
		RETURNING last_updated`

	err := s.db.GetContext(ctx, &item.LastUpdated, query,
		item.SKU, item.Name, item.CategoryID, item.SupplierID, item.Quantity, item.MinQuantity, item.Price, item.ID)
	if err != nil {
		return translateError(err)
	}
	item.Status = string(stock.StatusOf(item.Quantity, item.MinQuantity))
	return nil
}

// DeleteItem removes an item
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	return s.execAffectingOne(ctx, "DELETE FROM items WHERE id = $1", id)
}
