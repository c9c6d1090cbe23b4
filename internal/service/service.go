package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/MH-Project10/Kasir-App/internal/cache"
	"github.com/MH-Project10/Kasir-App/internal/domain"
	"github.com/MH-Project10/Kasir-App/internal/pricing"
	"github.com/MH-Project10/Kasir-App/internal/report"
	"github.com/MH-Project10/Kasir-App/internal/store"
)

var (
	ErrValidation          = errors.New("validation failed")
	ErrForbidden           = errors.New("admin role required")
	ErrUnknownCustomerType = errors.New("unknown customer type")
	ErrUnknownProduct      = errors.New("unknown product")
	ErrInsufficientPayment = errors.New("insufficient payment")
	ErrInvalidDateFormat   = errors.New("invalid date format")
	ErrInvalidDateRange    = errors.New("invalid date range")
)

type actorContextKey struct{}

func WithActor(ctx context.Context, actor domain.Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

func ActorFromContext(ctx context.Context) (domain.Actor, bool) {
	actor, ok := ctx.Value(actorContextKey{}).(domain.Actor)
	return actor, ok
}

type Service struct {
	repo         store.Repository
	dashCache    cache.DashboardCache
	dashCacheTTL time.Duration
}

func New(repo store.Repository, dashCache cache.DashboardCache, dashCacheTTL time.Duration) *Service {
	if dashCache == nil {
		dashCache = cache.NoopDashboardCache{}
	}
	if dashCacheTTL < time.Second {
		dashCacheTTL = 15 * time.Second
	}

	return &Service{
		repo:         repo,
		dashCache:    dashCache,
		dashCacheTTL: dashCacheTTL,
	}
}

// EnsureSeedData idempotently creates the three customer types and the
// default admin account. Re-running it never duplicates rows.
func (s *Service) EnsureSeedData(ctx context.Context, adminPassword string) error {
	seedTypes := []domain.CustomerType{
		{Name: domain.CustomerTypeRegular, DisplayName: "Pelanggan Biasa", DiscountPercent: 0},
		{Name: domain.CustomerTypeSales, DisplayName: "Sales", DiscountPercent: 5},
		{Name: domain.CustomerTypeWorkshop, DisplayName: "Bengkel", DiscountPercent: 10},
	}
	for _, ct := range seedTypes {
		_, err := s.repo.GetCustomerTypeByName(ctx, ct.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("check customer type %s: %w", ct.Name, err)
		}
		if _, err := s.repo.CreateCustomerType(ctx, ct); err != nil && !errors.Is(err, store.ErrDuplicateKey) {
			return fmt.Errorf("seed customer type %s: %w", ct.Name, err)
		}
	}

	if _, err := s.repo.GetUserByUsername(ctx, "admin"); err == nil {
		return nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("check admin account: %w", err)
	}

	if adminPassword == "" {
		adminPassword = "admin123"
		log.Println("[service] WARNING: seeding admin with default dev password. Set SEED_ADMIN_PASSWORD to override.")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	_, err = s.repo.CreateUser(ctx, domain.UserAccount{
		Username:     "admin",
		PasswordHash: string(hash),
		FullName:     "Administrator",
		Role:         domain.RoleAdmin,
	})
	if err != nil && !errors.Is(err, store.ErrDuplicateKey) {
		return fmt.Errorf("seed admin account: %w", err)
	}
	return nil
}

func (s *Service) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListProducts(ctx)
}

func (s *Service) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	product, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}
	return *product, nil
}

func (s *Service) ListLowStockProducts(ctx context.Context) ([]domain.Product, error) {
	return s.repo.ListLowStockProducts(ctx)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	req.SKU = strings.ToUpper(strings.TrimSpace(req.SKU))
	req.Name = strings.TrimSpace(req.Name)
	req.Category = strings.TrimSpace(req.Category)

	if req.SKU == "" || req.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: name and sku are required", ErrValidation)
	}
	if req.PriceRegularCents < 0 || req.PriceSalesCents < 0 || req.PriceWorkshopCents < 0 {
		return domain.Product{}, fmt.Errorf("%w: prices must not be negative", ErrValidation)
	}
	if req.StockQty < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	minStock := domain.DefaultMinStockQty
	if req.MinStockQty != nil {
		if *req.MinStockQty < 0 {
			return domain.Product{}, fmt.Errorf("%w: min stock must not be negative", ErrValidation)
		}
		minStock = *req.MinStockQty
	}

	created, err := s.repo.CreateProduct(ctx, domain.Product{
		Name:               req.Name,
		SKU:                req.SKU,
		Description:        strings.TrimSpace(req.Description),
		Category:           req.Category,
		PriceRegularCents:  req.PriceRegularCents,
		PriceSalesCents:    req.PriceSalesCents,
		PriceWorkshopCents: req.PriceWorkshopCents,
		StockQty:           req.StockQty,
		MinStockQty:        minStock,
	})
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateDashboard(ctx)
	return *created, nil
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.Product{}, err
	}

	existing, err := s.repo.GetProductByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Product{}, err
	}

	product := *existing
	if req.Name != nil {
		product.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		product.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		product.Category = strings.TrimSpace(*req.Category)
	}
	if req.PriceRegularCents != nil {
		product.PriceRegularCents = *req.PriceRegularCents
	}
	if req.PriceSalesCents != nil {
		product.PriceSalesCents = *req.PriceSalesCents
	}
	if req.PriceWorkshopCents != nil {
		product.PriceWorkshopCents = *req.PriceWorkshopCents
	}
	if req.StockQty != nil {
		product.StockQty = *req.StockQty
	}
	if req.MinStockQty != nil {
		product.MinStockQty = *req.MinStockQty
	}

	if product.Name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if product.PriceRegularCents < 0 || product.PriceSalesCents < 0 || product.PriceWorkshopCents < 0 {
		return domain.Product{}, fmt.Errorf("%w: prices must not be negative", ErrValidation)
	}
	if product.StockQty < 0 || product.MinStockQty < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock must not be negative", ErrValidation)
	}

	updated, err := s.repo.UpdateProduct(ctx, product)
	if err != nil {
		return domain.Product{}, err
	}

	s.invalidateDashboard(ctx)
	return *updated, nil
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	if err := requireAdmin(ctx); err != nil {
		return err
	}
	if err := s.repo.DeleteProduct(ctx, strings.TrimSpace(id)); err != nil {
		return err
	}
	s.invalidateDashboard(ctx)
	return nil
}

func (s *Service) ListCustomerTypes(ctx context.Context) ([]domain.CustomerType, error) {
	return s.repo.ListCustomerTypes(ctx)
}

func (s *Service) CreateCustomerType(ctx context.Context, req domain.CustomerTypeCreateRequest) (domain.CustomerType, error) {
	if err := requireAdmin(ctx); err != nil {
		return domain.CustomerType{}, err
	}

	name := strings.ToLower(strings.TrimSpace(req.Name))
	display := strings.TrimSpace(req.DisplayName)
	if name == "" || display == "" {
		return domain.CustomerType{}, fmt.Errorf("%w: name and display_name are required", ErrValidation)
	}
	if req.DiscountPercent < 0 || req.DiscountPercent > 100 {
		return domain.CustomerType{}, fmt.Errorf("%w: discount_percent must be between 0 and 100", ErrValidation)
	}

	created, err := s.repo.CreateCustomerType(ctx, domain.CustomerType{
		Name:            name,
		DisplayName:     display,
		DiscountPercent: req.DiscountPercent,
	})
	if err != nil {
		return domain.CustomerType{}, err
	}
	return *created, nil
}

// CreateTransaction runs the checkout: it validates the cart in request
// order, snapshots product details into line items, totals the sale,
// verifies payment, and hands the transaction to the store which numbers
// it, persists it, and decrements stock in one atomic step.
func (s *Service) CreateTransaction(ctx context.Context, req domain.TransactionCreateRequest) (domain.Transaction, error) {
	typeName := strings.ToLower(strings.TrimSpace(req.CustomerType))
	ct, err := s.repo.GetCustomerTypeByName(ctx, typeName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownCustomerType, typeName)
		}
		return domain.Transaction{}, err
	}
	tier := pricing.TierFor(ct.Name)

	if len(req.Items) == 0 {
		return domain.Transaction{}, fmt.Errorf("%w: transaction needs at least one item", ErrValidation)
	}
	method := strings.ToLower(strings.TrimSpace(req.PaymentMethod))
	if method != domain.PaymentMethodCash && method != domain.PaymentMethodTransfer {
		return domain.Transaction{}, fmt.Errorf("%w: unsupported payment method %q", ErrValidation, req.PaymentMethod)
	}
	if req.PaymentCents < 0 {
		return domain.Transaction{}, fmt.Errorf("%w: payment must not be negative", ErrValidation)
	}

	var (
		lines         = make([]domain.TransactionLine, 0, len(req.Items))
		subtotal      int64
		discountTotal int64
	)
	for _, item := range req.Items {
		if item.Qty < 1 {
			return domain.Transaction{}, fmt.Errorf("%w: qty must be at least 1", ErrValidation)
		}
		product, err := s.repo.GetProductByID(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return domain.Transaction{}, fmt.Errorf("%w: %s", ErrUnknownProduct, item.ProductID)
			}
			return domain.Transaction{}, err
		}
		if product.StockQty < item.Qty {
			return domain.Transaction{}, fmt.Errorf("%s: %w", product.Name, store.ErrInsufficientStock)
		}

		quote := pricing.Resolve(tier, *product, ct.DiscountPercent)
		lineDiscount, lineTotal := quote.Line(item.Qty)
		lines = append(lines, domain.TransactionLine{
			ProductID:      product.ID,
			ProductName:    product.Name,
			ProductSKU:     product.SKU,
			Qty:            item.Qty,
			UnitPriceCents: quote.UnitPriceCents,
			DiscountCents:  lineDiscount,
			TotalCents:     lineTotal,
		})
		subtotal += quote.UnitPriceCents * int64(item.Qty)
		discountTotal += lineDiscount
	}

	total := subtotal - discountTotal
	if req.PaymentCents < total {
		return domain.Transaction{}, fmt.Errorf("%w: need %d, got %d", ErrInsufficientPayment, total, req.PaymentCents)
	}
	change := req.PaymentCents - total
	if change < 0 {
		change = 0
	}

	tx := domain.Transaction{
		CustomerType:     ct.Name,
		CustomerTypeName: ct.DisplayName,
		Items:            lines,
		SubtotalCents:    subtotal,
		DiscountCents:    discountTotal,
		TotalCents:       total,
		PaymentMethod:    method,
		PaymentCents:     req.PaymentCents,
		ChangeCents:      change,
		Status:           domain.TxStatusCompleted,
		CreatedAt:        time.Now().UTC(),
	}
	if actor, ok := ActorFromContext(ctx); ok {
		tx.CashierID = actor.ID
		tx.CashierName = actor.Username
	}

	created, err := s.repo.CreateTransaction(ctx, tx)
	if err != nil {
		return domain.Transaction{}, err
	}

	s.invalidateDashboard(ctx)
	return *created, nil
}

func (s *Service) ListTransactions(ctx context.Context, limit int) ([]domain.Transaction, error) {
	return s.repo.ListTransactions(ctx, limit)
}

func (s *Service) GetTransaction(ctx context.Context, id string) (domain.Transaction, error) {
	tx, err := s.repo.GetTransactionByID(ctx, strings.TrimSpace(id))
	if err != nil {
		return domain.Transaction{}, err
	}
	return *tx, nil
}

func (s *Service) DailyReport(ctx context.Context, date string) (domain.ReportSummary, error) {
	day, err := parseDate(date)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	from, to := report.DailyWindow(day)
	return s.summarize(ctx, report.PeriodDaily, from, to)
}

func (s *Service) WeeklyReport(ctx context.Context, startDate string) (domain.ReportSummary, error) {
	start, err := parseDate(startDate)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	from, to := report.WeeklyWindow(start)
	return s.summarize(ctx, report.PeriodWeekly, from, to)
}

func (s *Service) MonthlyReport(ctx context.Context, month string) (domain.ReportSummary, error) {
	parsed, err := time.Parse("2006-01", strings.TrimSpace(month))
	if err != nil {
		return domain.ReportSummary{}, fmt.Errorf("%w: want YYYY-MM, got %q", ErrInvalidDateFormat, month)
	}
	from, to := report.MonthlyWindow(parsed.Year(), parsed.Month())
	return s.summarize(ctx, report.PeriodMonthly, from, to)
}

func (s *Service) RangeReport(ctx context.Context, fromDate string, toDate string) (domain.ReportSummary, error) {
	from, err := parseDate(fromDate)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	to, err := parseDate(toDate)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	if to.Before(from) {
		return domain.ReportSummary{}, fmt.Errorf("%w: %s is before %s", ErrInvalidDateRange, toDate, fromDate)
	}
	return s.summarize(ctx, report.PeriodRange, from, to.AddDate(0, 0, 1))
}

func (s *Service) summarize(ctx context.Context, period string, from time.Time, to time.Time) (domain.ReportSummary, error) {
	txs, err := s.repo.ListTransactionsBetween(ctx, from, to)
	if err != nil {
		return domain.ReportSummary{}, err
	}
	return report.Summarize(period, from, to, txs), nil
}

func (s *Service) DashboardStats(ctx context.Context) (domain.DashboardStats, error) {
	if cached, ok, err := s.dashCache.Get(ctx); err == nil && ok {
		return *cached, nil
	} else if err != nil {
		log.Printf("[service] WARN: dashboard cache read failed: %v", err)
	}

	totalProducts, err := s.repo.CountProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	lowStock, err := s.repo.CountLowStockProducts(ctx)
	if err != nil {
		return domain.DashboardStats{}, err
	}
	from, to := report.DailyWindow(time.Now().UTC())
	today, err := s.summarize(ctx, report.PeriodDaily, from, to)
	if err != nil {
		return domain.DashboardStats{}, err
	}

	stats := domain.DashboardStats{
		TodayTransactions: today.TotalTransactions,
		TodayRevenueCents: today.TotalRevenueCents,
		TotalProducts:     totalProducts,
		LowStockProducts:  lowStock,
	}
	if err := s.dashCache.Set(ctx, &stats, s.dashCacheTTL); err != nil {
		log.Printf("[service] WARN: dashboard cache write failed: %v", err)
	}
	return stats, nil
}

func (s *Service) invalidateDashboard(ctx context.Context) {
	if err := s.dashCache.Delete(ctx); err != nil {
		log.Printf("[service] WARN: dashboard cache invalidation failed: %v", err)
	}
}

func requireAdmin(ctx context.Context) error {
	actor, ok := ActorFromContext(ctx)
	if !ok || actor.Role != domain.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

func parseDate(raw string) (time.Time, error) {
	parsed, err := time.Parse("2006-01-02", strings.TrimSpace(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: want YYYY-MM-DD, got %q", ErrInvalidDateFormat, raw)
	}
	return parsed.UTC(), nil
}
