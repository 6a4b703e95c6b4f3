// Package servicetest provides an in-memory store honouring the same
// constraints as the Postgres schema, for service and API tests.
package servicetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"inventory-service/internal/models"
	"inventory-service/internal/stock"
	"inventory-service/internal/store"
)

// MemoryStore keeps every table in maps guarded by one mutex
type MemoryStore struct {
	mu sync.Mutex

	nextID        int64
	items         map[int64]models.Item
	categories    map[int64]models.Category
	suppliers     map[int64]models.Supplier
	notifications map[int64]models.Notification
	reports       map[int64]models.Report

	// Injected failures, returned by the matching operation when set
	FindOpenErr           error
	CreateNotificationErr error
	ListItemsErr          error

	// FindOpenCalls counts open-alert lookups
	FindOpenCalls int
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items:         map[int64]models.Item{},
		categories:    map[int64]models.Category{},
		suppliers:     map[int64]models.Supplier{},
		notifications: map[int64]models.Notification{},
		reports:       map[int64]models.Report{},
	}
}

func (m *MemoryStore) id() int64 {
	m.nextID++
	return m.nextID
}

func sortedKeys[V any](rows map[int64]V) []int64 {
	keys := make([]int64, 0, len(rows))
	for k := range rows {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func withStatus(item models.Item) models.Item {
	item.Status = string(stock.StatusOf(item.Quantity, item.MinQuantity))
	return item
}

// Items

func (m *MemoryStore) ListItems(_ context.Context, filter models.ItemFilter) ([]models.Item, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListItemsErr != nil {
		return nil, 0, m.ListItemsErr
	}

	matched := []models.Item{}
	for _, id := range sortedKeys(m.items) {
		item := withStatus(m.items[id])
		if filter.CategoryID > 0 && item.CategoryID != filter.CategoryID {
			continue
		}
		if filter.SupplierID > 0 && item.SupplierID != filter.SupplierID {
			continue
		}
		if filter.Status != "" && item.Status != filter.Status {
			continue
		}
		if q := strings.ToLower(filter.Search); q != "" &&
			!strings.Contains(strings.ToLower(item.SKU), q) && !strings.Contains(strings.ToLower(item.Name), q) {
			continue
		}
		matched = append(matched, item)
	}

	total := len(matched)
	if filter.Paginated() {
		start := filter.Offset()
		if start > total {
			start = total
		}
		end := start + filter.PerPage
		if end > total {
			end = total
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (m *MemoryStore) GetItem(_ context.Context, id int64) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	item = withStatus(item)
	return &item, nil
}

func (m *MemoryStore) ListItemsNeedingNotification(_ context.Context) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.ListItemsErr != nil {
		return nil, m.ListItemsErr
	}

	items := []models.Item{}
	for _, id := range sortedKeys(m.items) {
		item := m.items[id]
		if stock.NeedsNotification(item.Quantity, item.MinQuantity) {
			items = append(items, withStatus(item))
		}
	}
	return items, nil
}

func (m *MemoryStore) checkItem(item *models.Item) error {
	for id, other := range m.items {
		if id != item.ID && other.SKU == item.SKU {
			return fmt.Errorf("%w: items_sku_key", store.ErrConflict)
		}
	}
	if _, ok := m.categories[item.CategoryID]; !ok {
		return fmt.Errorf("%w: items_category_id_fkey", store.ErrInvalidReference)
	}
	if _, ok := m.suppliers[item.SupplierID]; !ok {
		return fmt.Errorf("%w: items_supplier_id_fkey", store.ErrInvalidReference)
	}
	return nil
}

func (m *MemoryStore) CreateItem(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.checkItem(item); err != nil {
		return err
	}
	item.ID = m.id()
	item.LastUpdated = time.Now().UTC()
	*item = withStatus(*item)
	m.items[item.ID] = *item
	return nil
}

func (m *MemoryStore) UpdateItem(_ context.Context, item *models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; !ok {
		return store.ErrNotFound
	}
	if err := m.checkItem(item); err != nil {
		return err
	}
	item.LastUpdated = time.Now().UTC()
	*item = withStatus(*item)
	m.items[item.ID] = *item
	return nil
}

func (m *MemoryStore) DeleteItem(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return store.ErrNotFound
	}
	m.deleteItemLocked(id)
	return nil
}

// deleteItemLocked mirrors ON DELETE CASCADE on notifications.item_id
func (m *MemoryStore) deleteItemLocked(id int64) {
	delete(m.items, id)
	for nid, n := range m.notifications {
		if n.ItemID != nil && *n.ItemID == id {
			delete(m.notifications, nid)
		}
	}
}

// Categories and suppliers

func (m *MemoryStore) ListCategories(_ context.Context) ([]models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	categories := []models.Category{}
	for _, id := range sortedKeys(m.categories) {
		categories = append(categories, m.categories[id])
	}
	sort.SliceStable(categories, func(i, j int) bool { return categories[i].Name < categories[j].Name })
	return categories, nil
}

func (m *MemoryStore) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.categories[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (m *MemoryStore) putCategory(c *models.Category, create bool) error {
	for id, other := range m.categories {
		if id != c.ID && other.Name == c.Name {
			return fmt.Errorf("%w: categories_name_key", store.ErrConflict)
		}
	}
	if create {
		c.ID = m.id()
		c.CreatedAt = time.Now().UTC()
	} else {
		existing, ok := m.categories[c.ID]
		if !ok {
			return store.ErrNotFound
		}
		c.CreatedAt = existing.CreatedAt
	}
	m.categories[c.ID] = *c
	return nil
}

func (m *MemoryStore) CreateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putCategory(c, true)
}

func (m *MemoryStore) UpdateCategory(_ context.Context, c *models.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putCategory(c, false)
}

func (m *MemoryStore) DeleteCategoryCascade(_ context.Context, id int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.categories[id]; !ok {
		return nil, store.ErrNotFound
	}
	deleted := []int64{}
	for _, itemID := range sortedKeys(m.items) {
		if m.items[itemID].CategoryID == id {
			m.deleteItemLocked(itemID)
			deleted = append(deleted, itemID)
		}
	}
	delete(m.categories, id)
	return deleted, nil
}

func (m *MemoryStore) ListSuppliers(_ context.Context) ([]models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	suppliers := []models.Supplier{}
	for _, id := range sortedKeys(m.suppliers) {
		suppliers = append(suppliers, m.suppliers[id])
	}
	sort.SliceStable(suppliers, func(i, j int) bool { return suppliers[i].Name < suppliers[j].Name })
	return suppliers, nil
}

func (m *MemoryStore) GetSupplier(_ context.Context, id int64) (*models.Supplier, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.suppliers[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &s, nil
}

func (m *MemoryStore) putSupplier(s *models.Supplier, create bool) error {
	for id, other := range m.suppliers {
		if id != s.ID && other.Name == s.Name && other.Email == s.Email {
			return fmt.Errorf("%w: uq_suppliers_name_email", store.ErrConflict)
		}
	}
	if create {
		s.ID = m.id()
		s.CreatedAt = time.Now().UTC()
	} else {
		existing, ok := m.suppliers[s.ID]
		if !ok {
			return store.ErrNotFound
		}
		s.CreatedAt = existing.CreatedAt
	}
	m.suppliers[s.ID] = *s
	return nil
}

func (m *MemoryStore) CreateSupplier(_ context.Context, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putSupplier(s, true)
}

func (m *MemoryStore) UpdateSupplier(_ context.Context, s *models.Supplier) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.putSupplier(s, false)
}

func (m *MemoryStore) DeleteSupplierCascade(_ context.Context, id int64) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.suppliers[id]; !ok {
		return nil, store.ErrNotFound
	}
	deleted := []int64{}
	for _, itemID := range sortedKeys(m.items) {
		if m.items[itemID].SupplierID == id {
			m.deleteItemLocked(itemID)
			deleted = append(deleted, itemID)
		}
	}
	delete(m.suppliers, id)
	return deleted, nil
}

// Notifications

func isStockType(t string) bool {
	return t == models.NotificationTypeLowStock || t == models.NotificationTypeOutOfStock
}

func (m *MemoryStore) FindOpenStockNotification(_ context.Context, itemID int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.FindOpenCalls++
	if m.FindOpenErr != nil {
		return nil, m.FindOpenErr
	}

	var found *models.Notification
	for _, id := range sortedKeys(m.notifications) {
		n := m.notifications[id]
		if n.ItemID != nil && *n.ItemID == itemID && !n.IsRead && isStockType(n.Type) {
			n := n
			found = &n
		}
	}
	return found, nil
}

func (m *MemoryStore) CreateNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CreateNotificationErr != nil {
		return m.CreateNotificationErr
	}
	if n.ItemID != nil {
		if _, ok := m.items[*n.ItemID]; !ok {
			return fmt.Errorf("%w: notifications_item_id_fkey", store.ErrInvalidReference)
		}
		if isStockType(n.Type) {
			for _, other := range m.notifications {
				if other.ItemID != nil && *other.ItemID == *n.ItemID && !other.IsRead && isStockType(other.Type) {
					return fmt.Errorf("%w: uq_notifications_open_stock", store.ErrConflict)
				}
			}
		}
	}

	n.ID = m.id()
	n.IsRead = false
	n.CreatedAt = time.Now().UTC()
	m.notifications[n.ID] = *n
	return nil
}

func (m *MemoryStore) GetNotification(_ context.Context, id int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &n, nil
}

func (m *MemoryStore) ListNotifications(_ context.Context, filter models.NotificationFilter) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := sortedKeys(m.notifications)
	list := []models.Notification{}
	for i := len(ids) - 1; i >= 0; i-- {
		n := m.notifications[ids[i]]
		if n.UserID != filter.UserID || (filter.UnreadOnly && n.IsRead) {
			continue
		}
		list = append(list, n)
		if filter.Limit > 0 && len(list) == filter.Limit {
			break
		}
	}
	return list, nil
}

func (m *MemoryStore) CountUnreadNotifications(_ context.Context, userID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	count := 0
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *MemoryStore) MarkNotificationRead(_ context.Context, id int64) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n, ok := m.notifications[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if n.ReadAt == nil {
		now := time.Now().UTC()
		n.ReadAt = &now
	}
	n.IsRead = true
	m.notifications[id] = n
	return &n, nil
}

func (m *MemoryStore) MarkAllNotificationsRead(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var updated int64
	now := time.Now().UTC()
	for id, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &now
			m.notifications[id] = n
			updated++
		}
	}
	return updated, nil
}

func (m *MemoryStore) DeleteNotification(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.notifications[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.notifications, id)
	return nil
}

// Reports

func (m *MemoryStore) ListReports(_ context.Context, page models.PageRequest) ([]models.Report, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := sortedKeys(m.reports)
	reports := []models.Report{}
	for i := len(ids) - 1; i >= 0; i-- {
		reports = append(reports, m.reports[ids[i]])
	}

	total := len(reports)
	if page.Paginated() {
		start := page.Offset()
		if start > total {
			start = total
		}
		end := start + page.PerPage
		if end > total {
			end = total
		}
		reports = reports[start:end]
	}
	return reports, total, nil
}

func (m *MemoryStore) GetReport(_ context.Context, id int64) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	r, ok := m.reports[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &r, nil
}

func (m *MemoryStore) CreateReport(_ context.Context, r *models.Report) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	r.ID = m.id()
	r.CreatedAt = time.Now().UTC()
	m.reports[r.ID] = *r
	return nil
}

func (m *MemoryStore) DeleteReport(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.reports[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *MemoryStore) DeleteDuplicateReports(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type key struct {
		period     string
		start, end time.Time
	}
	newest := map[key]int64{}
	for id, r := range m.reports {
		k := key{r.Period, r.StartDate, r.EndDate}
		if id > newest[k] {
			newest[k] = id
		}
	}

	var removed int64
	for id, r := range m.reports {
		if newest[key{r.Period, r.StartDate, r.EndDate}] != id {
			delete(m.reports, id)
			removed++
		}
	}
	return removed, nil
}

// NotificationCount returns the number of stored notifications
func (m *MemoryStore) NotificationCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notifications)
}

// ItemCount returns the number of stored items
func (m *MemoryStore) ItemCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}
