package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MySQLAdapter implements both InventoryRepository and OrderRepository
// against MySQL. Reserve relies on the conditional UPDATE pattern: the row
// lock taken by `UPDATE ... WHERE quantity >= ?` makes check-and-decrement
// atomic without an application-side mutex.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the inventory and order tables when missing.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) Create(ctx context.Context, item domain.Item) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory (id, name, quantity, price, description, version, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.Quantity, item.Price.String(), item.Description,
		item.Version, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

const selectItemSQL = `
	SELECT id, name, quantity, price, description, version, created_at, updated_at
	FROM inventory WHERE id = ?`

func (m *MySQLAdapter) Get(ctx context.Context, id string) (domain.Item, error) {
	return scanItem(m.db.QueryRowContext(ctx, selectItemSQL, id))
}

func (m *MySQLAdapter) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, quantity, price, description, version, created_at, updated_at
		FROM inventory`)
	if err != nil {
		return nil, fmt.Errorf("query inventory: %w", err)
	}
	defer rows.Close()

	var items []domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (m *MySQLAdapter) Update(ctx context.Context, id string, patch domain.ItemPatch) (domain.Item, error) {
	sets := []string{"version = version + 1", "updated_at = NOW()"}
	args := []any{}

	if patch.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *patch.Name)
	}
	if patch.Quantity != nil {
		sets = append(sets, "quantity = ?")
		args = append(args, *patch.Quantity)
	}
	if patch.Price != nil {
		sets = append(sets, "price = ?")
		args = append(args, patch.Price.String())
	}
	if patch.Description != nil {
		sets = append(sets, "description = ?")
		args = append(args, *patch.Description)
	}
	args = append(args, id)

	// MySQL reports 0 affected rows for both a missing id and a no-op
	// update, so the follow-up read is what distinguishes them.
	if _, err := m.db.ExecContext(ctx,
		"UPDATE inventory SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...); err != nil {
		return domain.Item{}, fmt.Errorf("update item: %w", err)
	}
	return m.Get(ctx, id)
}

func (m *MySQLAdapter) Delete(ctx context.Context, id string) error {
	result, err := m.db.ExecContext(ctx, `DELETE FROM inventory WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *MySQLAdapter) Reserve(ctx context.Context, id string, amount int) (domain.Item, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Item{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - ?, version = version + 1, updated_at = NOW()
		WHERE id = ? AND quantity >= ?`,
		amount, id, amount,
	)
	if err != nil {
		return domain.Item{}, fmt.Errorf("reserve stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// No row changed: read inside the tx to tell a missing item from an
		// insufficient one; any other read failure is surfaced as-is.
		if _, err := scanItem(tx.QueryRowContext(ctx, selectItemSQL, id)); err != nil {
			return domain.Item{}, err
		}
		return domain.Item{}, domain.ErrInsufficientStock
	}

	// The snapshot is read under the row lock the UPDATE took, so each
	// reservation observes its own post-decrement count.
	item, err := scanItem(tx.QueryRowContext(ctx, selectItemSQL, id))
	if err != nil {
		return domain.Item{}, err
	}
	return item, tx.Commit()
}

func (m *MySQLAdapter) Release(ctx context.Context, id string, amount int) (domain.Item, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Item{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity + ?, version = version + 1, updated_at = NOW()
		WHERE id = ?`,
		amount, id,
	)
	if err != nil {
		return domain.Item{}, fmt.Errorf("release stock: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.Item{}, domain.ErrNotFound
	}

	item, err := scanItem(tx.QueryRowContext(ctx, selectItemSQL, id))
	if err != nil {
		return domain.Item{}, err
	}
	return item, tx.Commit()
}

func (m *MySQLAdapter) CreateOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, request_id, total, status, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		order.ID, order.RequestID, order.Total.String(), order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, line := range order.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_lines (order_id, item_id, name, quantity, unit_price, subtotal)
			VALUES (?, ?, ?, ?, ?, ?)`,
			order.ID, line.ItemID, line.Name, line.Quantity,
			line.UnitPrice.String(), line.Subtotal.String(),
		)
		if err != nil {
			return fmt.Errorf("insert order line: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (domain.Order, error) {
	var (
		order    domain.Order
		totalStr string
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, request_id, total, status, created_at
		FROM orders WHERE id = ?`, id,
	).Scan(&order.ID, &order.RequestID, &totalStr, &order.Status, &order.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Order{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Order{}, fmt.Errorf("query order: %w", err)
	}
	if order.Total, err = decimal.NewFromString(totalStr); err != nil {
		return domain.Order{}, fmt.Errorf("parse order total: %w", err)
	}

	order.Lines, err = m.orderLines(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}

func (m *MySQLAdapter) ListOrders(ctx context.Context) ([]domain.Order, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, request_id, total, status, created_at
		FROM orders ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		var (
			order    domain.Order
			totalStr string
		)
		if err := rows.Scan(&order.ID, &order.RequestID, &totalStr, &order.Status, &order.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		if order.Total, err = decimal.NewFromString(totalStr); err != nil {
			return nil, fmt.Errorf("parse order total: %w", err)
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if orders[i].Lines, err = m.orderLines(ctx, orders[i].ID); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (m *MySQLAdapter) orderLines(ctx context.Context, orderID string) ([]domain.OrderLine, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT item_id, name, quantity, unit_price, subtotal
		FROM order_lines WHERE order_id = ? ORDER BY item_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("query order lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var (
			line     domain.OrderLine
			priceStr string
			subStr   string
		)
		if err := rows.Scan(&line.ItemID, &line.Name, &line.Quantity, &priceStr, &subStr); err != nil {
			return nil, fmt.Errorf("scan order line: %w", err)
		}
		if line.UnitPrice, err = decimal.NewFromString(priceStr); err != nil {
			return nil, fmt.Errorf("parse unit price: %w", err)
		}
		if line.Subtotal, err = decimal.NewFromString(subStr); err != nil {
			return nil, fmt.Errorf("parse subtotal: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (domain.Item, error) {
	var (
		item     domain.Item
		priceStr string
		desc     sql.NullString
	)
	err := row.Scan(&item.ID, &item.Name, &item.Quantity, &priceStr, &desc,
		&item.Version, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Item{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Item{}, fmt.Errorf("scan item: %w", err)
	}

	if item.Price, err = decimal.NewFromString(priceStr); err != nil {
		return domain.Item{}, fmt.Errorf("parse price: %w", err)
	}
	item.Description = desc.String
	return item, nil
}
