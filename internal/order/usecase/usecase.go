package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/catalog"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/order/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/pricing"
	"github.com/fekuna/omnipos-storefront-service/internal/storage"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	walletdto "github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Config struct {
	CreditsPerOrder  decimal.Decimal
	MinAddressLength int
	PhonePrefix      string // prepended to the tenant phone on receipts
	Location         *time.Location
}

func DefaultConfig() Config {
	return Config{
		CreditsPerOrder:  decimal.NewFromInt(1),
		MinAddressLength: 5,
		PhonePrefix:      "52",
		Location:         time.UTC,
	}
}

// Dependencies groups the collaborators of the order engine. Idempotency,
// Notifier and Cache are optional.
type Dependencies struct {
	Tx          storage.Transactor
	Orders      order.Repository
	Tenants     tenant.Repository
	Catalog     catalog.Repository
	Wallet      wallet.UseCase
	Resolver    *pricing.Resolver
	Idempotency order.IdempotencyStore
	Notifier    order.Notifier
	Cache       order.CacheInvalidator
}

type orderUseCase struct {
	Dependencies
	cfg    Config
	logger logger.ZapLogger
	now    func() time.Time
}

func NewOrderUseCase(deps Dependencies, cfg Config, log logger.ZapLogger) order.UseCase {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &orderUseCase{
		Dependencies: deps,
		cfg:          cfg,
		logger:       log,
		now:          time.Now,
	}
}

type placement struct {
	order   *model.Order
	lines   []string
	balance decimal.Decimal
}

// PlaceOrder prices the cart, consumes stock and one credit, and persists the
// order as a single unit of work. Notification happens after commit and never
// affects the outcome.
func (uc *orderUseCase) PlaceOrder(ctx context.Context, input *dto.PlaceOrderInput) (*dto.Receipt, error) {
	deliveryType, appointment, err := uc.validate(input)
	if err != nil {
		return nil, err
	}

	t, err := uc.Tenants.FindBySlug(ctx, strings.ToLower(strings.TrimSpace(input.Slug)))
	if err != nil {
		return nil, uc.classify(err)
	}
	if t == nil {
		return nil, apperror.ErrTenantNotFound
	}
	if !t.IsActive {
		return nil, uc.inactiveTenantError(ctx, t)
	}

	deliveryCost := decimal.Zero
	address := strings.TrimSpace(input.Address)
	if deliveryType == model.DeliveryDelivery {
		if !t.HasDelivery {
			return nil, apperror.ErrDeliveryUnavailable
		}
		if utf8.RuneCountInString(address) < uc.cfg.MinAddressLength {
			return nil, apperror.ErrAddressRequired
		}
		deliveryCost = t.DeliveryPrice
	}

	idemKey := ""
	if input.IdempotencyKey != "" && uc.Idempotency != nil {
		idemKey = t.ID + ":" + input.IdempotencyKey
		stored, claimed, err := uc.Idempotency.Claim(ctx, idemKey)
		switch {
		case err != nil:
			uc.logger.Warn("idempotency store unavailable, placing without it", zap.Error(err))
			idemKey = ""
		case stored != nil:
			return stored, nil
		case !claimed:
			return nil, apperror.ErrContention.WithMessage("an identical request is still being processed")
		}
	}

	var p *placement
	err = uc.Tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		p, err = uc.place(ctx, t, input, deliveryType, deliveryCost, address, appointment)
		return err
	})
	if err != nil {
		if idemKey != "" {
			if relErr := uc.Idempotency.Release(context.Background(), idemKey); relErr != nil {
				uc.logger.Warn("failed to release idempotency key", zap.Error(relErr))
			}
		}
		return nil, uc.classify(err)
	}

	receipt := uc.receipt(t, p)
	if idemKey != "" {
		if err := uc.Idempotency.Save(ctx, idemKey, receipt); err != nil {
			uc.logger.Warn("failed to store idempotent receipt", zap.String("order_id", p.order.ID), zap.Error(err))
		}
	}

	if uc.Notifier != nil {
		uc.Notifier.Notify(model.OrderEvent{
			Event:         model.EventNewOrder,
			TenantID:      t.ID,
			OrderID:       p.order.ID,
			Customer:      p.order.CustomerName,
			Total:         p.order.TotalAmount,
			DeliveryType:  p.order.DeliveryType,
			ItemsCount:    len(p.order.Items),
			WalletBalance: p.balance,
		})
	}
	if uc.Cache != nil {
		go uc.Cache.InvalidateCache(context.Background(), t.ID)
	}

	uc.logger.Info("order placed",
		zap.String("tenant_id", t.ID),
		zap.String("order_id", p.order.ID),
		zap.String("total", p.order.TotalAmount.String()),
	)
	return receipt, nil
}

// inactiveTenantError tells a tenant suspended for running out of credits
// apart from one switched off with money left in the wallet.
func (uc *orderUseCase) inactiveTenantError(ctx context.Context, t *model.Tenant) error {
	w, err := uc.Wallet.GetWallet(ctx, t.ID)
	if err != nil {
		if errors.Is(err, apperror.ErrWalletNotFound) {
			return apperror.ErrTenantNotFound
		}
		return uc.classify(err)
	}
	if !w.Balance.IsPositive() {
		return apperror.ErrInsufficientCredit
	}
	return apperror.ErrTenantNotFound
}

// place runs inside the transaction.
func (uc *orderUseCase) place(ctx context.Context, t *model.Tenant, input *dto.PlaceOrderInput, deliveryType model.DeliveryType, deliveryCost decimal.Decimal, address string, appointment *time.Time) (*placement, error) {
	// 1. Credit gate under the wallet row lock
	w, err := uc.Wallet.LockBalance(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if !w.Balance.IsPositive() {
		return nil, apperror.ErrInsufficientCredit
	}

	// 2. Lock every item of the cart in a stable order
	ids := make([]string, 0, len(input.Items))
	seen := make(map[string]struct{}, len(input.Items))
	for _, line := range input.Items {
		if _, err := uuid.Parse(line.ProductID); err != nil {
			continue
		}
		if _, dup := seen[line.ProductID]; dup {
			continue
		}
		seen[line.ProductID] = struct{}{}
		ids = append(ids, line.ProductID)
	}
	if err := uc.Catalog.LockItems(ctx, t.ID, ids); err != nil {
		return nil, err
	}

	// 3. Price lines and consume stock
	now := uc.now()
	o := &model.Order{
		BaseModel:     model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		TenantID:      t.ID,
		CustomerName:  strings.TrimSpace(input.CustomerName),
		AppointmentAt: appointment,
		DeliveryType:  deliveryType,
		DeliveryCost:  deliveryCost,
		Status:        model.OrderStatusPending,
	}
	if deliveryType == model.DeliveryDelivery {
		o.Address = &address
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		o.Notes = &notes
	}

	lines := make([]string, 0, len(input.Items)+2)
	subtotal := decimal.Zero
	for i, line := range input.Items {
		res, err := uc.Resolver.Resolve(ctx, t.ID, o.ID, pricing.CartLine{
			ItemID:      line.ProductID,
			Quantity:    line.Quantity,
			VariantName: line.VariantName,
			Extras:      line.Extras,
		})
		if err != nil {
			return nil, err
		}
		res.Item.Position = i
		o.Items = append(o.Items, res.Item)
		subtotal = subtotal.Add(res.Item.LineTotal)
		lines = append(lines, fmt.Sprintf("- %s %s", res.Summary, money(res.Item.LineTotal)))
	}

	// 4. Totals
	if deliveryType == model.DeliveryDelivery {
		lines = append(lines, "- Delivery: "+money(deliveryCost))
	}
	o.TotalAmount = subtotal.Add(deliveryCost).Round(2)
	lines = append(lines, "Total: "+money(o.TotalAmount))

	// 5. Persist
	if err := uc.Orders.Create(ctx, o); err != nil {
		return nil, err
	}

	// 6. Consume the credit
	res, err := uc.Wallet.ApplyDelta(ctx, &walletdto.ApplyDeltaInput{
		TenantID: t.ID,
		Amount:   uc.cfg.CreditsPerOrder.Neg(),
		Reason:   fmt.Sprintf("Order %s - %s", shortRef(o.ID), o.CustomerName),
	})
	if err != nil {
		return nil, err
	}

	return &placement{order: o, lines: lines, balance: res.NewBalance}, nil
}

func (uc *orderUseCase) validate(input *dto.PlaceOrderInput) (model.DeliveryType, *time.Time, error) {
	if strings.TrimSpace(input.CustomerName) == "" {
		return "", nil, apperror.ErrInvalidInput.WithMessage("customer name is required")
	}
	if len(input.Items) == 0 {
		return "", nil, apperror.ErrEmptyCart
	}
	deliveryType, ok := model.ParseDeliveryType(input.DeliveryType)
	if !ok {
		return "", nil, apperror.ErrInvalidInput.WithMessage("delivery type must be pickup or delivery")
	}

	var appointment *time.Time
	if raw := strings.TrimSpace(input.Appointment); raw != "" {
		at, err := parseAppointment(raw, uc.cfg.Location)
		if err != nil {
			return "", nil, apperror.ErrInvalidDate.WithMessage("invalid appointment date")
		}
		appointment = &at
	}
	return deliveryType, appointment, nil
}

var appointmentLayouts = []string{"2006-01-02T15:04", "2006-01-02 15:04", "2006-01-02T15:04:05"}

func parseAppointment(raw string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	var lastErr error
	for _, layout := range appointmentLayouts {
		t, err := time.ParseInLocation(layout, raw, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

// classify maps a failed unit of work onto the error taxonomy. Only errors
// that carry no domain meaning are logged; the client sees a generic message.
func (uc *orderUseCase) classify(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, postgres.ErrContention) {
		uc.logger.Warn("order placement lost a lock race", zap.Error(err))
		return apperror.ErrContention.Wrap(err)
	}
	uc.logger.Error("order placement failed", zap.Error(err))
	return apperror.ErrInternal.Wrap(err)
}

func (uc *orderUseCase) receipt(t *model.Tenant, p *placement) *dto.Receipt {
	r := &dto.Receipt{
		OrderID:       shortRef(p.order.ID),
		ID:            p.order.ID,
		Total:         p.order.TotalAmount,
		BusinessPhone: uc.cfg.PhonePrefix + t.Phone,
		Summary:       strings.Join(p.lines, "\n"),
		DeliveryType:  p.order.DeliveryType,
	}
	if p.order.AppointmentAt != nil {
		s := p.order.AppointmentAt.In(uc.cfg.Location).Format("02/01/2006 15:04")
		r.Appointment = &s
	}
	return r
}

func (uc *orderUseCase) UpdateStatus(ctx context.Context, tenantID, orderID, status string) (*model.Order, error) {
	next, ok := model.ParseOrderStatus(status)
	if !ok {
		return nil, apperror.ErrInvalidStatus
	}
	o, err := uc.GetOrder(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o.Status == next {
		return o, nil
	}
	if o.Status.IsTerminal() {
		return nil, apperror.ErrInvalidTransition.WithMessage(
			fmt.Sprintf("order is already %s", o.Status))
	}

	updated, err := uc.Orders.UpdateStatus(ctx, tenantID, o.ID, o.Status, next)
	if err != nil {
		return nil, uc.classify(err)
	}
	if !updated {
		return nil, apperror.ErrInvalidTransition.WithMessage("order status changed concurrently")
	}

	o.Status = next
	return o, nil
}

func (uc *orderUseCase) ListOrders(ctx context.Context, tenantID, status string) ([]model.Order, error) {
	filters := &dto.OrderFilters{TenantID: tenantID}
	if s := strings.TrimSpace(status); s != "" && !strings.EqualFold(s, "all") {
		st, ok := model.ParseOrderStatus(s)
		if !ok {
			return nil, apperror.ErrInvalidStatus
		}
		filters.Status = st
	}

	orders, err := uc.Orders.FindAll(ctx, filters)
	if err != nil {
		return nil, err
	}
	model.SortOrdersByPriority(orders)
	return orders, nil
}

func (uc *orderUseCase) GetOrder(ctx context.Context, tenantID, orderID string) (*model.Order, error) {
	if _, err := uuid.Parse(orderID); err != nil {
		return nil, apperror.ErrOrderNotFound
	}
	o, err := uc.Orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperror.ErrOrderNotFound
	}
	return o, nil
}

// GetAvailability lists the booked "15:04" slots of a day for the storefront calendar.
func (uc *orderUseCase) GetAvailability(ctx context.Context, slug, date string) ([]string, error) {
	day, err := time.ParseInLocation("2006-01-02", date, uc.cfg.Location)
	if err != nil {
		return nil, apperror.ErrInvalidDate.WithMessage("date must be YYYY-MM-DD")
	}

	t, err := uc.Tenants.FindBySlug(ctx, strings.ToLower(slug))
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, apperror.ErrTenantNotFound
	}

	times, err := uc.Orders.ListAppointments(ctx, &dto.AppointmentWindow{
		TenantID: t.ID,
		From:     day,
		To:       day.AddDate(0, 0, 1),
	})
	if err != nil {
		return nil, err
	}

	busy := make([]string, 0, len(times))
	seen := make(map[string]struct{}, len(times))
	for _, at := range times {
		slot := at.In(uc.cfg.Location).Format("15:04")
		if _, dup := seen[slot]; dup {
			continue
		}
		seen[slot] = struct{}{}
		busy = append(busy, slot)
	}
	sort.Strings(busy)
	return busy, nil
}

func (uc *orderUseCase) Count(ctx context.Context) (int, error) {
	return uc.Orders.Count(ctx)
}

func shortRef(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return strings.ToUpper(id)
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
