package domain

import "time"

type Product struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name"`
	SKU                string    `json:"sku"`
	Description        string    `json:"description,omitempty"`
	Category           string    `json:"category,omitempty"`
	PriceRegularCents  int64     `json:"price_regular_cents"`
	PriceSalesCents    int64     `json:"price_sales_cents"`
	PriceWorkshopCents int64     `json:"price_workshop_cents"`
	StockQty           int       `json:"stock_qty"`
	MinStockQty        int       `json:"min_stock_qty"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// LowStock reports whether the product has reached its restock threshold.
func (p Product) LowStock() bool {
	return p.StockQty <= p.MinStockQty
}

type ProductCreateRequest struct {
	Name               string `json:"name"`
	SKU                string `json:"sku"`
	Description        string `json:"description"`
	Category           string `json:"category"`
	PriceRegularCents  int64  `json:"price_regular_cents"`
	PriceSalesCents    int64  `json:"price_sales_cents"`
	PriceWorkshopCents int64  `json:"price_workshop_cents"`
	StockQty           int    `json:"stock_qty"`
	MinStockQty        *int   `json:"min_stock_qty,omitempty"`
}

type ProductUpdateRequest struct {
	Name               *string `json:"name,omitempty"`
	Description        *string `json:"description,omitempty"`
	Category           *string `json:"category,omitempty"`
	PriceRegularCents  *int64  `json:"price_regular_cents,omitempty"`
	PriceSalesCents    *int64  `json:"price_sales_cents,omitempty"`
	PriceWorkshopCents *int64  `json:"price_workshop_cents,omitempty"`
	StockQty           *int    `json:"stock_qty,omitempty"`
	MinStockQty        *int    `json:"min_stock_qty,omitempty"`
}

type CustomerType struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	DisplayName     string    `json:"display_name"`
	DiscountPercent float64   `json:"discount_percent"`
	CreatedAt       time.Time `json:"created_at"`
}

type CustomerTypeCreateRequest struct {
	Name            string  `json:"name"`
	DisplayName     string  `json:"display_name"`
	DiscountPercent float64 `json:"discount_percent"`
}

type CartItem struct {
	ProductID string `json:"product_id"`
	Qty       int    `json:"qty"`
}

// TransactionLine is a snapshot of a product at sale time. Later catalog
// edits never change a persisted line.
type TransactionLine struct {
	ProductID      string `json:"product_id"`
	ProductName    string `json:"product_name"`
	ProductSKU     string `json:"product_sku"`
	Qty            int    `json:"qty"`
	UnitPriceCents int64  `json:"unit_price_cents"`
	DiscountCents  int64  `json:"discount_cents"`
	TotalCents     int64  `json:"total_cents"`
}

type Transaction struct {
	ID               string            `json:"id"`
	Number           string            `json:"transaction_number"`
	CustomerType     string            `json:"customer_type"`
	CustomerTypeName string            `json:"customer_type_name"`
	Items            []TransactionLine `json:"items"`
	SubtotalCents    int64             `json:"subtotal_cents"`
	DiscountCents    int64             `json:"discount_cents"`
	TotalCents       int64             `json:"total_cents"`
	PaymentMethod    string            `json:"payment_method"`
	PaymentCents     int64             `json:"payment_cents"`
	ChangeCents      int64             `json:"change_cents"`
	CashierID        string            `json:"cashier_id"`
	CashierName      string            `json:"cashier_name"`
	Status           string            `json:"status"`
	CreatedAt        time.Time         `json:"created_at"`
}

type TransactionCreateRequest struct {
	CustomerType  string     `json:"customer_type"`
	Items         []CartItem `json:"items"`
	PaymentMethod string     `json:"payment_method"`
	PaymentCents  int64      `json:"payment_cents"`
}

type ReportSummary struct {
	Period            string           `json:"period"`
	StartDate         string           `json:"start_date"`
	EndDate           string           `json:"end_date"`
	TotalTransactions int64            `json:"total_transactions"`
	TotalRevenueCents int64            `json:"total_revenue_cents"`
	TotalItemsSold    int64            `json:"total_items_sold"`
	PaymentMethods    map[string]int64 `json:"payment_methods"`
	CustomerTypes     map[string]int64 `json:"customer_types"`
}

type DashboardStats struct {
	TodayTransactions int64 `json:"today_transactions"`
	TodayRevenueCents int64 `json:"today_revenue_cents"`
	TotalProducts     int   `json:"total_products"`
	LowStockProducts  int   `json:"low_stock_products"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        User   `json:"user"`
	ExpiresAt   string `json:"expires_at"`
}

type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	ID           string
	Username     string
	PasswordHash string
	FullName     string
	Role         string
	CreatedAt    time.Time
}

func (a UserAccount) User() User {
	return User{
		ID:        a.ID,
		Username:  a.Username,
		FullName:  a.FullName,
		Role:      a.Role,
		CreatedAt: a.CreatedAt,
	}
}

type Actor struct {
	ID       string
	Username string
	Role     string
}

const (
	CustomerTypeRegular  = "regular"
	CustomerTypeSales    = "sales"
	CustomerTypeWorkshop = "workshop"
)

const (
	PaymentMethodCash     = "cash"
	PaymentMethodTransfer = "transfer"
)

const (
	TxStatusCompleted = "completed"
)

const (
	RoleAdmin   = "admin"
	RoleCashier = "cashier"
)

const DefaultMinStockQty = 5
