package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/MH-Project10/Kasir-App/internal/domain"
	"github.com/MH-Project10/Kasir-App/internal/store"
	"github.com/MH-Project10/Kasir-App/internal/xid"
)

type Store struct {
	db *sql.DB
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	db, err := sql.Open("pgx", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxIdleConns(8)
	db.SetMaxOpenConns(30)
	db.SetConnMaxLifetime(30 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 6*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, account domain.UserAccount) (*domain.UserAccount, error) {
	if account.ID == "" {
		account.ID = xid.New("user")
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, password_hash, full_name, role, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, account.ID, account.Username, account.PasswordHash, account.FullName, account.Role, account.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateKey
		}
		return nil, err
	}
	return &account, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error) {
	return s.getUser(ctx, `WHERE username = $1`, username)
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*domain.UserAccount, error) {
	return s.getUser(ctx, `WHERE id = $1`, id)
}

func (s *Store) getUser(ctx context.Context, where string, arg any) (*domain.UserAccount, error) {
	var account domain.UserAccount
	err := s.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, full_name, role, created_at
		FROM users
	`+where, arg).Scan(&account.ID, &account.Username, &account.PasswordHash, &account.FullName, &account.Role, &account.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

const productColumns = `id, name, sku, description, category,
	price_regular_cents, price_sales_cents, price_workshop_cents,
	stock_qty, min_stock_qty, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.Description, &p.Category,
		&p.PriceRegularCents, &p.PriceSalesCents, &p.PriceWorkshopCents,
		&p.StockQty, &p.MinStockQty, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (s *Store) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `SELECT `+productColumns+` FROM products ORDER BY name`)
}

func (s *Store) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	return s.queryProducts(ctx, `
		SELECT `+productColumns+`
		FROM products
		WHERE stock_qty <= min_stock_qty
		ORDER BY name
	`)
}

func (s *Store) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]domain.Product, 0, 64)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return products, nil
}

func (s *Store) CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO products (
			id, name, sku, description, category,
			price_regular_cents, price_sales_cents, price_workshop_cents,
			stock_qty, min_stock_qty, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, product.ID, product.Name, product.SKU, product.Description, product.Category,
		product.PriceRegularCents, product.PriceSalesCents, product.PriceWorkshopCents,
		product.StockQty, product.MinStockQty, product.CreatedAt, product.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateKey
		}
		return nil, err
	}
	return &product, nil
}

func (s *Store) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error) {
	product.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx, `
		UPDATE products
		SET name = $1, sku = $2, description = $3, category = $4,
			price_regular_cents = $5, price_sales_cents = $6, price_workshop_cents = $7,
			stock_qty = $8, min_stock_qty = $9, updated_at = $10
		WHERE id = $11
	`, product.Name, product.SKU, product.Description, product.Category,
		product.PriceRegularCents, product.PriceSalesCents, product.PriceWorkshopCents,
		product.StockQty, product.MinStockQty, product.UpdatedAt, product.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateKey
		}
		return nil, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, store.ErrNotFound
	}
	return s.GetProductByID(ctx, product.ID)
}

func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products`).Scan(&count)
	return count, err
}

func (s *Store) CountLowStockProducts(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM products WHERE stock_qty <= min_stock_qty`).Scan(&count)
	return count, err
}

func (s *Store) CreateCustomerType(ctx context.Context, ct domain.CustomerType) (*domain.CustomerType, error) {
	if ct.ID == "" {
		ct.ID = xid.New("ctype")
	}
	if ct.CreatedAt.IsZero() {
		ct.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO customer_types (id, name, display_name, discount_percent, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, ct.ID, ct.Name, ct.DisplayName, ct.DiscountPercent, ct.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateKey
		}
		return nil, err
	}
	return &ct, nil
}

func (s *Store) ListCustomerTypes(ctx context.Context) ([]domain.CustomerType, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, display_name, discount_percent, created_at
		FROM customer_types
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	types := make([]domain.CustomerType, 0, 4)
	for rows.Next() {
		var ct domain.CustomerType
		if err := rows.Scan(&ct.ID, &ct.Name, &ct.DisplayName, &ct.DiscountPercent, &ct.CreatedAt); err != nil {
			return nil, err
		}
		types = append(types, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return types, nil
}

func (s *Store) GetCustomerTypeByName(ctx context.Context, name string) (*domain.CustomerType, error) {
	var ct domain.CustomerType
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, display_name, discount_percent, created_at
		FROM customer_types
		WHERE name = $1
	`, name).Scan(&ct.ID, &ct.Name, &ct.DisplayName, &ct.DiscountPercent, &ct.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ct, nil
}

// CreateTransaction runs the whole checkout persistence step inside one
// serializable transaction: stock rows are locked and re-checked, the
// per-day counter is bumped, the header and lines are inserted, and
// stock is decremented. A failure at any point rolls everything back.
func (s *Store) CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	if len(tx.Items) == 0 {
		return nil, fmt.Errorf("transaction has no items")
	}

	pgTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, err
	}
	defer func() { _ = pgTx.Rollback() }()

	productIDs := make([]string, 0, len(tx.Items))
	for _, item := range tx.Items {
		productIDs = append(productIDs, item.ProductID)
	}

	stockRows, err := pgTx.QueryContext(ctx, `
		SELECT id, name, stock_qty
		FROM products
		WHERE id = ANY($1)
		FOR UPDATE
	`, productIDs)
	if err != nil {
		return nil, err
	}
	type stockState struct {
		name string
		qty  int
	}
	stockMap := make(map[string]stockState, len(productIDs))
	for stockRows.Next() {
		var id, name string
		var qty int
		if err := stockRows.Scan(&id, &name, &qty); err != nil {
			_ = stockRows.Close()
			return nil, err
		}
		stockMap[id] = stockState{name: name, qty: qty}
	}
	if err := stockRows.Err(); err != nil {
		_ = stockRows.Close()
		return nil, err
	}
	_ = stockRows.Close()

	for _, item := range tx.Items {
		state, exists := stockMap[item.ProductID]
		if !exists {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		if state.qty < item.Qty {
			return nil, fmt.Errorf("product %s: %w", state.name, store.ErrInsufficientStock)
		}
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	dateKey := tx.CreatedAt.UTC().Format("20060102")

	var seq int
	err = pgTx.QueryRowContext(ctx, `
		INSERT INTO transaction_counters (day_key, seq)
		VALUES ($1, 1)
		ON CONFLICT (day_key)
		DO UPDATE SET seq = transaction_counters.seq + 1
		RETURNING seq
	`, dateKey).Scan(&seq)
	if err != nil {
		return nil, err
	}
	tx.Number = fmt.Sprintf("TRX%s%04d", dateKey, seq)

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}

	_, err = pgTx.ExecContext(ctx, `
		INSERT INTO transactions (
			id, transaction_number, customer_type, customer_type_name,
			subtotal_cents, discount_cents, total_cents,
			payment_method, payment_cents, change_cents,
			cashier_id, cashier_name, status, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`, tx.ID, tx.Number, tx.CustomerType, tx.CustomerTypeName,
		tx.SubtotalCents, tx.DiscountCents, tx.TotalCents,
		tx.PaymentMethod, tx.PaymentCents, tx.ChangeCents,
		tx.CashierID, tx.CashierName, tx.Status, tx.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, store.ErrDuplicateKey
		}
		return nil, err
	}

	for _, item := range tx.Items {
		_, err = pgTx.ExecContext(ctx, `
			INSERT INTO transaction_items (
				transaction_id, product_id, product_name, product_sku,
				qty, unit_price_cents, discount_cents, total_cents
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, tx.ID, item.ProductID, item.ProductName, item.ProductSKU,
			item.Qty, item.UnitPriceCents, item.DiscountCents, item.TotalCents)
		if err != nil {
			return nil, err
		}

		_, err = pgTx.ExecContext(ctx, `
			UPDATE products
			SET stock_qty = stock_qty - $1, updated_at = $2
			WHERE id = $3
		`, item.Qty, tx.CreatedAt, item.ProductID)
		if err != nil {
			return nil, err
		}
	}

	if err := pgTx.Commit(); err != nil {
		return nil, err
	}
	return &tx, nil
}

const transactionColumns = `id, transaction_number, customer_type, customer_type_name,
	subtotal_cents, discount_cents, total_cents,
	payment_method, payment_cents, change_cents,
	cashier_id, cashier_name, status, created_at`

func scanTransaction(row interface{ Scan(...any) error }) (domain.Transaction, error) {
	var tx domain.Transaction
	err := row.Scan(&tx.ID, &tx.Number, &tx.CustomerType, &tx.CustomerTypeName,
		&tx.SubtotalCents, &tx.DiscountCents, &tx.TotalCents,
		&tx.PaymentMethod, &tx.PaymentCents, &tx.ChangeCents,
		&tx.CashierID, &tx.CashierName, &tx.Status, &tx.CreatedAt)
	return tx, err
}

func (s *Store) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	if limit < 1 {
		limit = 50
	}
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		ORDER BY created_at DESC, transaction_number DESC
		LIMIT $1
	`, limit)
}

func (s *Store) ListTransactionsBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	return s.queryTransactions(ctx, `
		SELECT `+transactionColumns+`
		FROM transactions
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY created_at ASC, transaction_number ASC
	`, from, to)
}

func (s *Store) queryTransactions(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	txs := make([]domain.Transaction, 0, 64)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range txs {
		items, err := s.loadTransactionItems(ctx, txs[i].ID)
		if err != nil {
			return nil, err
		}
		txs[i].Items = items
	}
	return txs, nil
}

func (s *Store) GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	items, err := s.loadTransactionItems(ctx, tx.ID)
	if err != nil {
		return nil, err
	}
	tx.Items = items
	return &tx, nil
}

func (s *Store) loadTransactionItems(ctx context.Context, transactionID string) ([]domain.TransactionLine, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT product_id, product_name, product_sku, qty, unit_price_cents, discount_cents, total_cents
		FROM transaction_items
		WHERE transaction_id = $1
		ORDER BY id
	`, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.TransactionLine, 0, 8)
	for rows.Next() {
		var line domain.TransactionLine
		if err := rows.Scan(&line.ProductID, &line.ProductName, &line.ProductSKU,
			&line.Qty, &line.UnitPriceCents, &line.DiscountCents, &line.TotalCents); err != nil {
			return nil, err
		}
		items = append(items, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}
