package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/order-backoffice/internal/core/domain"
	"github.com/rl1809/order-backoffice/internal/port"
)

const orderColumns = `o.id, o.product_id, o.customer_id, o.color_id, o.size_id, o.status_id, o.quantity,
	o.product_price, o.selling_price, o.delivery_price, o.comment, o.exchange, o.stopdesk, o.created_at, o.version`

// newestFirst keeps rows without a timestamp last and breaks ties by id.
const newestFirst = `ORDER BY o.created_at IS NULL, o.created_at DESC, o.id ASC`

type MySQLOrderStore struct {
	db *sql.DB
}

func NewMySQLOrderStore(db *sql.DB) *MySQLOrderStore {
	return &MySQLOrderStore{db: db}
}

func (m *MySQLOrderStore) Migrate(ctx context.Context) error {
	return Migrate(ctx, m.db)
}

func (m *MySQLOrderStore) CreateOrder(ctx context.Context, order *domain.Order) error {
	var createdAt sql.NullTime
	if order.CreatedAt != nil {
		createdAt = sql.NullTime{Time: *order.CreatedAt, Valid: true}
	}

	result, err := m.db.ExecContext(ctx, `
		INSERT INTO customer_order (product_id, customer_id, color_id, size_id, status_id, quantity,
			product_price, selling_price, delivery_price, comment, exchange, stopdesk, created_at, version)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0)`,
		order.ProductID, order.CustomerID, nullInt64(order.ColorID), nullInt64(order.SizeID), nullInt64(order.StatusID),
		order.Quantity, order.ProductPrice, order.SellingPrice, order.DeliveryPrice, nullString(order.Comment),
		order.Exchange, order.Stopdesk, createdAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	order.ID = id
	order.Version = 0
	return nil
}

func (m *MySQLOrderStore) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	row := m.db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM customer_order o WHERE o.id = ?`, id)
	order, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}
	return &order, nil
}

func (m *MySQLOrderStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return m.queryOrders(ctx, `SELECT `+orderColumns+` FROM customer_order o ORDER BY o.id`)
}

func (m *MySQLOrderStore) ListOrdersCreatedBetween(ctx context.Context, start, end time.Time) ([]domain.Order, error) {
	return m.queryOrders(ctx, `
		SELECT `+orderColumns+` FROM customer_order o
		WHERE o.created_at >= ? AND o.created_at <= ?
		ORDER BY o.created_at, o.id`,
		start.UTC(), end.UTC(),
	)
}

func (m *MySQLOrderStore) UpdateOrderStatus(ctx context.Context, id, statusID int64, version int) error {
	result, err := m.db.ExecContext(ctx, `
		UPDATE customer_order
		SET status_id = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		statusID, id, version,
	)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return port.ErrOptimisticLock
	}
	return nil
}

// SearchOrders runs the listing filter in SQL. Pages past the end skip the
// row query and only report the total.
func (m *MySQLOrderStore) SearchOrders(ctx context.Context, c domain.OrderCriteria) ([]domain.Order, int, error) {
	from, args := criteriaClause(c)

	var total int
	if err := m.db.QueryRowContext(ctx, `SELECT COUNT(*) `+from, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count orders: %w", err)
	}
	if c.Offset >= total || c.Limit <= 0 {
		return []domain.Order{}, total, nil
	}

	orders, err := m.queryOrders(ctx,
		`SELECT `+orderColumns+` `+from+` `+newestFirst+` LIMIT ? OFFSET ?`,
		append(args, c.Limit, c.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func criteriaClause(c domain.OrderCriteria) (string, []any) {
	var (
		from  = `FROM customer_order o`
		conds []string
		args  []any
	)
	if c.StatusID != nil {
		conds = append(conds, `o.status_id = ?`)
		args = append(args, *c.StatusID)
	}
	if c.ProductID != 0 {
		conds = append(conds, `o.product_id = ?`)
		args = append(args, c.ProductID)
	}
	if c.Search != "" {
		from += ` JOIN customers c ON c.id = o.customer_id`
		pattern := "%" + escapeLike(strings.ToLower(c.Search)) + "%"
		var fields []string
		for _, col := range []string{"c.first_name", "c.last_name", "c.phone1", "c.phone2"} {
			fields = append(fields, `LOWER(COALESCE(`+col+`, '')) LIKE ? ESCAPE '!'`)
			args = append(args, pattern)
		}
		conds = append(conds, `(`+strings.Join(fields, ` OR `)+`)`)
	}
	if len(conds) > 0 {
		from += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	return from, args
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func (m *MySQLOrderStore) queryOrders(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	return orders, nil
}

func scanOrder(s rowScanner) (domain.Order, error) {
	var (
		o                       domain.Order
		colorID, sizeID, status sql.NullInt64
		comment                 sql.NullString
		createdAt               sql.NullTime
	)
	err := s.Scan(&o.ID, &o.ProductID, &o.CustomerID, &colorID, &sizeID, &status, &o.Quantity,
		&o.ProductPrice, &o.SellingPrice, &o.DeliveryPrice, &comment, &o.Exchange, &o.Stopdesk, &createdAt, &o.Version)
	if err != nil {
		return domain.Order{}, err
	}
	o.ColorID = int64Ptr(colorID)
	o.SizeID = int64Ptr(sizeID)
	o.StatusID = int64Ptr(status)
	o.Comment = stringPtr(comment)
	if createdAt.Valid {
		t := createdAt.Time
		o.CreatedAt = &t
	}
	return o, nil
}
