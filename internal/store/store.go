package store

import (
	"context"
	"errors"
	"time"

	"github.com/MH-Project10/Kasir-App/internal/domain"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateKey      = errors.New("duplicate key")
	ErrInsufficientStock = errors.New("insufficient stock")
)

type Repository interface {
	CreateUser(ctx context.Context, account domain.UserAccount) (*domain.UserAccount, error)
	GetUserByUsername(ctx context.Context, username string) (*domain.UserAccount, error)
	GetUserByID(ctx context.Context, id string) (*domain.UserAccount, error)

	ListProducts(ctx context.Context) ([]domain.Product, error)
	CreateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	GetProductByID(ctx context.Context, id string) (*domain.Product, error)
	UpdateProduct(ctx context.Context, product domain.Product) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	ListLowStockProducts(ctx context.Context) ([]domain.Product, error)
	CountProducts(ctx context.Context) (int, error)
	CountLowStockProducts(ctx context.Context) (int, error)

	CreateCustomerType(ctx context.Context, ct domain.CustomerType) (*domain.CustomerType, error)
	ListCustomerTypes(ctx context.Context) ([]domain.CustomerType, error)
	GetCustomerTypeByName(ctx context.Context, name string) (*domain.CustomerType, error)

	// CreateTransaction re-verifies stock, allocates the per-day sequence
	// number, persists the transaction, and decrements stock in one
	// atomic step. On any error nothing is persisted.
	CreateTransaction(ctx context.Context, tx domain.Transaction) (*domain.Transaction, error)
	ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error)
	GetTransactionByID(ctx context.Context, id string) (*domain.Transaction, error)
	ListTransactionsBetween(ctx context.Context, from time.Time, to time.Time) ([]domain.Transaction, error)
}
