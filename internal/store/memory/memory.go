package memory

import (
	"context"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MH-Project10/Kasir-App/internal/domain"
	"github.com/MH-Project10/Kasir-App/internal/store"
	"github.com/MH-Project10/Kasir-App/internal/xid"
)

type Store struct {
	mu                  sync.RWMutex
	usersByID           map[string]domain.UserAccount
	usersByUsername     map[string]string
	productsByID        map[string]domain.Product
	productIDBySKU      map[string]string
	customerTypesByID   map[string]domain.CustomerType
	customerTypeByName  map[string]string
	transactionsByID    map[string]*domain.Transaction
	transactionNumbers  map[string]bool
	dailySequenceByDate map[string]int
}

func New() *Store {
	return &Store{
		usersByID:           map[string]domain.UserAccount{},
		usersByUsername:     map[string]string{},
		productsByID:        map[string]domain.Product{},
		productIDBySKU:      map[string]string{},
		customerTypesByID:   map[string]domain.CustomerType{},
		customerTypeByName:  map[string]string{},
		transactionsByID:    map[string]*domain.Transaction{},
		transactionNumbers:  map[string]bool{},
		dailySequenceByDate: map[string]int{},
	}
}

// NewSeeded builds a store preloaded with the customer types, a default
// admin account, and sample workshop inventory for dev/demo mode. The
// admin password is read from SEED_ADMIN_PASSWORD; a hardcoded dev
// default with a stdout warning is used when unset. Production deploys
// use PostgreSQL (DATABASE_URL) instead.
func NewSeeded() *Store {
	s := New()
	now := time.Now().UTC()

	for _, ct := range []domain.CustomerType{
		{Name: domain.CustomerTypeRegular, DisplayName: "Pelanggan Biasa", DiscountPercent: 0},
		{Name: domain.CustomerTypeSales, DisplayName: "Sales", DiscountPercent: 5},
		{Name: domain.CustomerTypeWorkshop, DisplayName: "Bengkel", DiscountPercent: 10},
	} {
		ct.ID = xid.New("ctype")
		ct.CreatedAt = now
		s.customerTypesByID[ct.ID] = ct
		s.customerTypeByName[ct.Name] = ct.ID
	}

	adminPwd := envOr("SEED_ADMIN_PASSWORD", "admin123")
	if os.Getenv("SEED_ADMIN_PASSWORD") == "" {
		log.Println("[memory-store] WARNING: using default dev admin credentials. Set SEED_ADMIN_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPwd), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("[memory-store] failed to hash seed admin password: %v", err)
	}
	admin := domain.UserAccount{
		ID:           xid.New("user"),
		Username:     "admin",
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         domain.RoleAdmin,
		CreatedAt:    now,
	}
	s.usersByID[admin.ID] = admin
	s.usersByUsername[admin.Username] = admin.ID

	for _, p := range []domain.Product{
		{SKU: "OLI-MPX1-08", Name: "Oli Mesin MPX1 0.8L", Category: "oli", PriceRegularCents: 55000, PriceSalesCents: 52000, PriceWorkshopCents: 49000, StockQty: 24, MinStockQty: 5},
		{SKU: "BUSI-C7E-01", Name: "Busi C7E", Category: "sparepart", PriceRegularCents: 18000, PriceSalesCents: 17000, PriceWorkshopCents: 15500, StockQty: 40, MinStockQty: 10},
		{SKU: "KAMPAS-RD-01", Name: "Kampas Rem Depan", Category: "sparepart", PriceRegularCents: 45000, PriceSalesCents: 43000, PriceWorkshopCents: 40000, StockQty: 12, MinStockQty: 4},
		{SKU: "FILTER-U-01", Name: "Filter Udara", Category: "sparepart", PriceRegularCents: 35000, PriceSalesCents: 33500, PriceWorkshopCents: 31000, StockQty: 8, MinStockQty: 5},
		{SKU: "BAN-80-90-14", Name: "Ban Luar 80/90-14", Category: "ban", PriceRegularCents: 185000, PriceSalesCents: 178000, PriceWorkshopCents: 169000, StockQty: 6, MinStockQty: 2},
		{SKU: "AKI-GTZ5S-01", Name: "Aki GTZ5S", Category: "kelistrikan", PriceRegularCents: 235000, PriceSalesCents: 228000, PriceWorkshopCents: 215000, StockQty: 5, MinStockQty: 3},
	} {
		p.ID = xid.New("prd")
		p.CreatedAt = now
		p.UpdatedAt = now
		s.productsByID[p.ID] = p
		s.productIDBySKU[p.SKU] = p.ID
	}

	return s
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (s *Store) CreateUser(_ context.Context, account domain.UserAccount) (*domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.usersByUsername[account.Username]; exists {
		return nil, store.ErrDuplicateKey
	}
	if account.ID == "" {
		account.ID = xid.New("user")
	}
	if account.CreatedAt.IsZero() {
		account.CreatedAt = time.Now().UTC()
	}
	s.usersByID[account.ID] = account
	s.usersByUsername[account.Username] = account.ID

	dup := account
	return &dup, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.usersByUsername[username]
	if !ok {
		return nil, store.ErrNotFound
	}
	account := s.usersByID[id]
	return &account, nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*domain.UserAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.usersByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &account, nil
}

func (s *Store) ListProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0, len(s.productsByID))
	for _, p := range s.productsByID {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) CreateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.productIDBySKU[product.SKU]; exists {
		return nil, store.ErrDuplicateKey
	}
	now := time.Now().UTC()
	if product.ID == "" {
		product.ID = xid.New("prd")
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now
	s.productsByID[product.ID] = product
	s.productIDBySKU[product.SKU] = product.ID

	dup := product
	return &dup, nil
}

func (s *Store) GetProductByID(_ context.Context, id string) (*domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	product, ok := s.productsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &product, nil
}

func (s *Store) UpdateProduct(_ context.Context, product domain.Product) (*domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.productsByID[product.ID]
	if !ok {
		return nil, store.ErrNotFound
	}
	if product.SKU != current.SKU {
		if _, taken := s.productIDBySKU[product.SKU]; taken {
			return nil, store.ErrDuplicateKey
		}
		delete(s.productIDBySKU, current.SKU)
		s.productIDBySKU[product.SKU] = product.ID
	}
	product.CreatedAt = current.CreatedAt
	product.UpdatedAt = time.Now().UTC()
	s.productsByID[product.ID] = product

	dup := product
	return &dup, nil
}

func (s *Store) DeleteProduct(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	product, ok := s.productsByID[id]
	if !ok {
		return store.ErrNotFound
	}
	delete(s.productsByID, id)
	delete(s.productIDBySKU, product.SKU)
	return nil
}

func (s *Store) ListLowStockProducts(_ context.Context) ([]domain.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, p := range s.productsByID {
		if p.LowStock() {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b domain.Product) int {
		return cmpString(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) CountProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.productsByID), nil
}

func (s *Store) CountLowStockProducts(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, p := range s.productsByID {
		if p.LowStock() {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateCustomerType(_ context.Context, ct domain.CustomerType) (*domain.CustomerType, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.customerTypeByName[ct.Name]; exists {
		return nil, store.ErrDuplicateKey
	}
	if ct.ID == "" {
		ct.ID = xid.New("ctype")
	}
	if ct.CreatedAt.IsZero() {
		ct.CreatedAt = time.Now().UTC()
	}
	s.customerTypesByID[ct.ID] = ct
	s.customerTypeByName[ct.Name] = ct.ID

	dup := ct
	return &dup, nil
}

func (s *Store) ListCustomerTypes(_ context.Context) ([]domain.CustomerType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.CustomerType, 0, len(s.customerTypesByID))
	for _, ct := range s.customerTypesByID {
		out = append(out, ct)
	}
	slices.SortFunc(out, func(a, b domain.CustomerType) int {
		return cmpString(a.Name, b.Name)
	})
	return out, nil
}

func (s *Store) GetCustomerTypeByName(_ context.Context, name string) (*domain.CustomerType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.customerTypeByName[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	ct := s.customerTypesByID[id]
	return &ct, nil
}

func (s *Store) CreateTransaction(_ context.Context, tx domain.Transaction) (*domain.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(tx.Items) == 0 {
		return nil, fmt.Errorf("transaction has no items")
	}

	// Re-verify every line before mutating anything so a failure leaves
	// stock and the sequence counter untouched.
	for _, item := range tx.Items {
		product, exists := s.productsByID[item.ProductID]
		if !exists {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, store.ErrNotFound)
		}
		if product.StockQty < item.Qty {
			return nil, fmt.Errorf("product %s: %w", product.Name, store.ErrInsufficientStock)
		}
	}

	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = time.Now().UTC()
	}
	dateKey := tx.CreatedAt.UTC().Format("20060102")
	seq := s.dailySequenceByDate[dateKey] + 1
	s.dailySequenceByDate[dateKey] = seq
	tx.Number = fmt.Sprintf("TRX%s%04d", dateKey, seq)
	if s.transactionNumbers[tx.Number] {
		return nil, fmt.Errorf("transaction number %s: %w", tx.Number, store.ErrDuplicateKey)
	}

	if tx.ID == "" {
		tx.ID = xid.New("trx")
	}
	if tx.Status == "" {
		tx.Status = domain.TxStatusCompleted
	}

	for _, item := range tx.Items {
		product := s.productsByID[item.ProductID]
		product.StockQty -= item.Qty
		product.UpdatedAt = tx.CreatedAt
		s.productsByID[item.ProductID] = product
	}

	txCopy := cloneTransaction(&tx)
	s.transactionsByID[tx.ID] = txCopy
	s.transactionNumbers[tx.Number] = true

	return cloneTransaction(txCopy), nil
}

func (s *Store) ListTransactions(_ context.Context, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0, len(s.transactionsByID))
	for _, tx := range s.transactionsByID {
		out = append(out, *cloneTransaction(tx))
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if a.CreatedAt.After(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.Before(b.CreatedAt) {
			return 1
		}
		return cmpString(b.Number, a.Number)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) GetTransactionByID(_ context.Context, id string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx, ok := s.transactionsByID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTransaction(tx), nil
}

func (s *Store) ListTransactionsBetween(_ context.Context, from time.Time, to time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Transaction, 0)
	for _, tx := range s.transactionsByID {
		at := tx.CreatedAt
		if at.Before(from) || !at.Before(to) {
			continue
		}
		out = append(out, *cloneTransaction(tx))
	}
	slices.SortFunc(out, func(a, b domain.Transaction) int {
		if a.CreatedAt.Before(b.CreatedAt) {
			return -1
		}
		if a.CreatedAt.After(b.CreatedAt) {
			return 1
		}
		return cmpString(a.Number, b.Number)
	})
	return out, nil
}

func cmpString(a string, b string) int {
	return strings.Compare(a, b)
}

func cloneTransaction(src *domain.Transaction) *domain.Transaction {
	if src == nil {
		return nil
	}
	dup := *src
	dupItems := make([]domain.TransactionLine, len(src.Items))
	copy(dupItems, src.Items)
	dup.Items = dupItems
	return &dup
}
