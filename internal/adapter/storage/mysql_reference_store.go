package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/rl1809/order-backoffice/internal/core/domain"
)

// MySQLReferenceStore reads the entities orders point at. The Create methods
// stand in for the admin screens that own these tables.
type MySQLReferenceStore struct {
	db *sql.DB
}

func NewMySQLReferenceStore(db *sql.DB) *MySQLReferenceStore {
	return &MySQLReferenceStore{db: db}
}

func (m *MySQLReferenceStore) GetStatus(ctx context.Context, id int64) (*domain.Status, error) {
	var s domain.Status
	err := m.db.QueryRowContext(ctx, `SELECT id, name, hex_code FROM statuses WHERE id = ?`, id).
		Scan(&s.ID, &s.Name, &s.HexCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query status: %w", err)
	}
	return &s, nil
}

func (m *MySQLReferenceStore) ListStatuses(ctx context.Context) ([]domain.Status, error) {
	return queryAll(ctx, m.db, `SELECT id, name, hex_code FROM statuses ORDER BY id`, func(r rowScanner) (domain.Status, error) {
		var s domain.Status
		err := r.Scan(&s.ID, &s.Name, &s.HexCode)
		return s, err
	})
}

func (m *MySQLReferenceStore) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx, `SELECT id, name, price, discount_price FROM products WHERE id = ?`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return &p, nil
}

func (m *MySQLReferenceStore) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return queryAll(ctx, m.db, `SELECT id, name, price, discount_price FROM products ORDER BY id`, scanProduct)
}

func (m *MySQLReferenceStore) ListColors(ctx context.Context) ([]domain.Color, error) {
	return queryAll(ctx, m.db, `SELECT id, name, hex_code FROM colors ORDER BY id`, func(r rowScanner) (domain.Color, error) {
		var c domain.Color
		err := r.Scan(&c.ID, &c.Name, &c.HexCode)
		return c, err
	})
}

func (m *MySQLReferenceStore) ListSizes(ctx context.Context) ([]domain.Size, error) {
	return queryAll(ctx, m.db, `SELECT id, name FROM sizes ORDER BY id`, func(r rowScanner) (domain.Size, error) {
		var s domain.Size
		err := r.Scan(&s.ID, &s.Name)
		return s, err
	})
}

// customerBatchSize keeps IN lists well under the placeholder limit of a
// prepared statement.
const customerBatchSize = 1000

func (m *MySQLReferenceStore) GetCustomersByIDs(ctx context.Context, ids []int64) ([]domain.Customer, error) {
	customers := []domain.Customer{}
	for batch := range slices.Chunk(ids, customerBatchSize) {
		args := make([]any, len(batch))
		for i, id := range batch {
			args[i] = id
		}
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(batch)), ",")
		found, err := queryAll(ctx, m.db, `
			SELECT id, first_name, last_name, phone1, phone2, wilaya_id, commune_id
			FROM customers WHERE id IN (`+placeholders+`)`,
			scanCustomer, args...)
		if err != nil {
			return nil, err
		}
		customers = append(customers, found...)
	}
	return customers, nil
}

func (m *MySQLReferenceStore) FindCustomerByPhone(ctx context.Context, phone string) (*domain.Customer, error) {
	row := m.db.QueryRowContext(ctx, `
		SELECT id, first_name, last_name, phone1, phone2, wilaya_id, commune_id
		FROM customers WHERE phone1 = ? OR phone2 = ?
		ORDER BY id LIMIT 1`, phone, phone)
	c, err := scanCustomer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer: %w", err)
	}
	return &c, nil
}

func (m *MySQLReferenceStore) CreateCustomer(ctx context.Context, c *domain.Customer) error {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO customers (first_name, last_name, phone1, phone2, wilaya_id, commune_id)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullString(c.FirstName), nullString(c.LastName), nullString(c.Phone1), nullString(c.Phone2),
		nullInt64(c.WilayaID), nullInt64(c.CommuneID),
	)
	if err != nil {
		return fmt.Errorf("insert customer: %w", err)
	}
	c.ID, err = result.LastInsertId()
	return err
}

func (m *MySQLReferenceStore) CreateStatus(ctx context.Context, s *domain.Status) error {
	return m.insert(ctx, &s.ID, `INSERT INTO statuses (name, hex_code) VALUES (?, ?)`, s.Name, s.HexCode)
}

func (m *MySQLReferenceStore) CreateProduct(ctx context.Context, p *domain.Product) error {
	return m.insert(ctx, &p.ID, `INSERT INTO products (name, price, discount_price) VALUES (?, ?, ?)`,
		p.Name, p.Price, p.DiscountPrice)
}

func (m *MySQLReferenceStore) CreateColor(ctx context.Context, c *domain.Color) error {
	return m.insert(ctx, &c.ID, `INSERT INTO colors (name, hex_code) VALUES (?, ?)`, c.Name, c.HexCode)
}

func (m *MySQLReferenceStore) CreateSize(ctx context.Context, s *domain.Size) error {
	return m.insert(ctx, &s.ID, `INSERT INTO sizes (name) VALUES (?)`, s.Name)
}

func (m *MySQLReferenceStore) insert(ctx context.Context, id *int64, query string, args ...any) error {
	result, err := m.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	*id, err = result.LastInsertId()
	return err
}

func scanProduct(r rowScanner) (domain.Product, error) {
	var p domain.Product
	err := r.Scan(&p.ID, &p.Name, &p.Price, &p.DiscountPrice)
	return p, err
}

func scanCustomer(r rowScanner) (domain.Customer, error) {
	var (
		c                     domain.Customer
		first, last, ph1, ph2 sql.NullString
		wilaya, commune       sql.NullInt64
	)
	if err := r.Scan(&c.ID, &first, &last, &ph1, &ph2, &wilaya, &commune); err != nil {
		return domain.Customer{}, err
	}
	c.FirstName = stringPtr(first)
	c.LastName = stringPtr(last)
	c.Phone1 = stringPtr(ph1)
	c.Phone2 = stringPtr(ph2)
	c.WilayaID = int64Ptr(wilaya)
	c.CommuneID = int64Ptr(commune)
	return c, nil
}

func queryAll[T any](ctx context.Context, db *sql.DB, query string, scan func(rowScanner) (T, error), args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	items := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate: %w", err)
	}
	return items, nil
}
