package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	_ "embed"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/rl1809/inventory-service/internal/core/domain"
	"github.com/rl1809/inventory-service/internal/port"
)

// ER_DUP_ENTRY
const mysqlErrDuplicateEntry = 1062

//go:embed schema.sql
var schemaSQL string

const itemColumns = `item_id, name, display_name, tag, cost_price, selling_price,
	volume_weight, supplier, quantity, status, created_at, updated_at`

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// Migrate creates the tables if they do not exist yet.
func (m *MySQLAdapter) Migrate(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return classify("migrate", err)
		}
	}
	return nil
}

// NextValue increments the counter row in a single statement. LAST_INSERT_ID(expr)
// hands the new value back on the same connection, so there is no separate read.
func (m *MySQLAdapter) NextValue(ctx context.Context, name string) (int64, error) {
	result, err := m.db.ExecContext(ctx, `
		INSERT INTO sequence_counters (name, value) VALUES (?, LAST_INSERT_ID(1))
		ON DUPLICATE KEY UPDATE value = LAST_INSERT_ID(value + 1)`, name)
	if err != nil {
		return 0, fmt.Errorf("next value %s: %w: %w", name, port.ErrStoreUnavailable, err)
	}

	n, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("next value %s: %w: %w", name, port.ErrStoreUnavailable, err)
	}
	return n, nil
}

func (m *MySQLAdapter) Insert(ctx context.Context, item domain.InventoryItem) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO inventory_items (`+itemColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.Name, item.DisplayName, item.Tag, item.CostPrice, item.SellingPrice,
		item.VolumeWeight, item.Supplier, item.Quantity, item.Status, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return classify("insert item "+item.ID, err)
	}
	return nil
}

func (m *MySQLAdapter) List(ctx context.Context) ([]domain.InventoryItem, error) {
	rows, err := m.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM inventory_items ORDER BY pk`)
	if err != nil {
		return nil, classify("list items", err)
	}
	defer rows.Close()

	var items []domain.InventoryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, classify("scan item", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("list items", err)
	}
	return items, nil
}

func (m *MySQLAdapter) Get(ctx context.Context, id string) (*domain.InventoryItem, error) {
	item, err := scanItem(m.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE item_id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, classify("get item "+id, err)
	}
	return item, nil
}

// Update returns ErrNotFound only when no row has the id. A write that changes
// no column still succeeds.
func (m *MySQLAdapter) Update(ctx context.Context, id string, fields domain.ItemFields, updatedAt time.Time) (*domain.InventoryItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback()

	_, err = scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE item_id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, classify("lock item "+id, err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE inventory_items
		SET name = ?, display_name = ?, tag = ?, cost_price = ?, selling_price = ?,
			volume_weight = ?, supplier = ?, quantity = ?, status = ?, updated_at = ?
		WHERE item_id = ?`,
		fields.Name, fields.DisplayName, fields.Tag, fields.CostPrice, fields.SellingPrice,
		fields.VolumeWeight, fields.Supplier, fields.Quantity, fields.Status, updatedAt, id,
	)
	if err != nil {
		return nil, classify("update item "+id, err)
	}

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE item_id = ?`, id))
	if err != nil {
		return nil, classify("reload item "+id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit", err)
	}
	return item, nil
}

func (m *MySQLAdapter) Delete(ctx context.Context, id string) (*domain.InventoryItem, error) {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, classify("begin tx", err)
	}
	defer tx.Rollback()

	item, err := scanItem(tx.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM inventory_items WHERE item_id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, port.ErrNotFound
	}
	if err != nil {
		return nil, classify("lock item "+id, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM inventory_items WHERE item_id = ?`, id); err != nil {
		return nil, classify("delete item "+id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, classify("commit", err)
	}
	return item, nil
}

func (m *MySQLAdapter) SalesBetween(ctx context.Context, from, to time.Time) ([]domain.Sale, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, customer_name, total_amount, created_at
		FROM sales WHERE created_at BETWEEN ? AND ?
		ORDER BY created_at`, from, to)
	if err != nil {
		return nil, classify("query sales", err)
	}
	defer rows.Close()

	var sales []domain.Sale
	for rows.Next() {
		var s domain.Sale
		if err := rows.Scan(&s.ID, &s.CustomerName, &s.TotalAmount, &s.CreatedAt); err != nil {
			return nil, classify("scan sale", err)
		}
		sales = append(sales, s)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("query sales", err)
	}

	if err := m.loadSaleItems(ctx, sales); err != nil {
		return nil, err
	}
	return sales, nil
}

// loadSaleItems fills ItemNames for every sale in one query, in line order.
func (m *MySQLAdapter) loadSaleItems(ctx context.Context, sales []domain.Sale) error {
	if len(sales) == 0 {
		return nil
	}

	index := make(map[string]int, len(sales))
	args := make([]any, 0, len(sales))
	for i, s := range sales {
		index[s.ID] = i
		args = append(args, s.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")

	rows, err := m.db.QueryContext(ctx, `
		SELECT sale_id, name FROM sale_items
		WHERE sale_id IN (`+placeholders+`)
		ORDER BY sale_id, position`, args...)
	if err != nil {
		return classify("query sale items", err)
	}
	defer rows.Close()

	for rows.Next() {
		var saleID, name string
		if err := rows.Scan(&saleID, &name); err != nil {
			return classify("scan sale item", err)
		}
		if i, ok := index[saleID]; ok {
			sales[i].ItemNames = append(sales[i].ItemNames, name)
		}
	}
	return classify("query sale items", rows.Err())
}

func (m *MySQLAdapter) ExpensesBetween(ctx context.Context, from, to time.Time) ([]domain.Expense, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price, date
		FROM expenses WHERE date BETWEEN ? AND ?
		ORDER BY date`, from, to)
	if err != nil {
		return nil, classify("query expenses", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		var e domain.Expense
		if err := rows.Scan(&e.ID, &e.Name, &e.Price, &e.Date); err != nil {
			return nil, classify("scan expense", err)
		}
		expenses = append(expenses, e)
	}
	return expenses, classify("query expenses", rows.Err())
}

func (m *MySQLAdapter) InsertSale(ctx context.Context, s domain.Sale) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return classify("begin tx", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sales (id, customer_name, total_amount, created_at) VALUES (?, ?, ?, ?)`,
		s.ID, s.CustomerName, s.TotalAmount, s.CreatedAt); err != nil {
		return classify("insert sale", err)
	}
	for i, name := range s.ItemNames {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO sale_items (sale_id, position, name) VALUES (?, ?, ?)`,
			s.ID, i, name); err != nil {
			return classify("insert sale item", err)
		}
	}

	return classify("commit", tx.Commit())
}

func (m *MySQLAdapter) InsertExpense(ctx context.Context, e domain.Expense) error {
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO expenses (id, name, price, date) VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, e.Price, e.Date)
	return classify("insert expense", err)
}

func (m *MySQLAdapter) Ping(ctx context.Context) error {
	return classify("ping", m.db.PingContext(ctx))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.InventoryItem, error) {
	var item domain.InventoryItem
	var status string
	err := row.Scan(
		&item.ID, &item.Name, &item.DisplayName, &item.Tag, &item.CostPrice, &item.SellingPrice,
		&item.VolumeWeight, &item.Supplier, &item.Quantity, &status, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	item.Status = domain.ItemStatus(status)
	return &item, nil
}

// classify maps driver errors onto the port sentinels. A nil err stays nil.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrDuplicateEntry {
		return fmt.Errorf("%s: %w: %w", op, port.ErrDuplicateKey, err)
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w: %w", op, port.ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isUnavailable(err error) bool {
	if errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) ||
		errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
