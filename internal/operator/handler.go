package operator

import (
	"context"
	"strings"

	"github.com/fekuna/omnipos-storefront-service/internal/apperror"
	"github.com/fekuna/omnipos-storefront-service/internal/model"
	"github.com/fekuna/omnipos-storefront-service/internal/order"
	"github.com/fekuna/omnipos-storefront-service/internal/tenant"
	tenantdto "github.com/fekuna/omnipos-storefront-service/internal/tenant/dto"
	"github.com/fekuna/omnipos-storefront-service/internal/wallet"
	walletdto "github.com/fekuna/omnipos-storefront-service/internal/wallet/dto"
	"github.com/fekuna/omnipos-storefront-service/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/structpb"
)

type OperatorHandler struct {
	tenants tenant.UseCase
	wallet  wallet.UseCase
	orders  order.UseCase
	logger  logger.ZapLogger
}

func NewOperatorHandler(tenants tenant.UseCase, wallet wallet.UseCase, orders order.UseCase, log logger.ZapLogger) *OperatorHandler {
	return &OperatorHandler{
		tenants: tenants,
		wallet:  wallet,
		orders:  orders,
		logger:  log,
	}
}

var _ OperatorServer = (*OperatorHandler)(nil)

func (h *OperatorHandler) AdjustCredits(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	tenantID := str(req, "tenant_id")
	if _, err := uuid.Parse(tenantID); err != nil {
		return nil, apperror.GRPCStatus(apperror.ErrTenantNotFound)
	}
	amount, err := dec(req, "amount")
	if err != nil {
		return nil, apperror.GRPCStatus(err)
	}
	reason := str(req, "reason")
	if reason == "" {
		reason = "Manual adjustment"
	}

	res, err := h.wallet.ApplyDelta(ctx, &walletdto.ApplyDeltaInput{
		TenantID: tenantID,
		Amount:   amount,
		Reason:   reason,
	})
	if err != nil {
		return nil, h.fail("AdjustCredits", err)
	}

	h.logger.Info("credits adjusted by operator",
		zap.String("tenant_id", tenantID),
		zap.String("amount", amount.String()),
		zap.String("new_balance", res.NewBalance.String()),
	)
	return structpb.NewStruct(map[string]interface{}{
		"transaction_id":   res.TransactionID,
		"previous_balance": res.PreviousBalance.String(),
		"new_balance":      res.NewBalance.String(),
		"tenant_active":    res.TenantActive,
	})
}

func (h *OperatorHandler) ToggleTenant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	t, err := h.tenants.ToggleActive(ctx, str(req, "tenant_id"))
	if err != nil {
		return nil, h.fail("ToggleTenant", err)
	}
	return structpb.NewStruct(map[string]interface{}{
		"tenant_id": t.ID,
		"is_active": t.IsActive,
	})
}

func (h *OperatorHandler) CreateTenant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	deliveryPrice, err := dec(req, "delivery_price")
	if err != nil {
		return nil, apperror.GRPCStatus(err)
	}
	credits, err := dec(req, "initial_credits")
	if err != nil {
		return nil, apperror.GRPCStatus(err)
	}

	t, err := h.tenants.CreateTenant(ctx, &tenantdto.CreateTenantInput{
		Name:           str(req, "name"),
		Slug:           str(req, "slug"),
		Phone:          str(req, "phone"),
		LogoURL:        str(req, "logo_url"),
		PrimaryColor:   str(req, "primary_color"),
		HasDelivery:    req.GetFields()["has_delivery"].GetBoolValue(),
		DeliveryPrice:  deliveryPrice,
		Plan:           str(req, "plan"),
		InitialCredits: credits,
	})
	if err != nil {
		return nil, h.fail("CreateTenant", err)
	}
	return structpb.NewStruct(tenantToMap(t))
}

func (h *OperatorHandler) ListWalletTransactions(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	filters := &walletdto.TransactionFilters{
		TenantID: str(req, "tenant_id"),
		Page:     int(req.GetFields()["page"].GetNumberValue()),
		PageSize: int(req.GetFields()["page_size"].GetNumberValue()),
	}
	if filters.TenantID != "" {
		if _, err := uuid.Parse(filters.TenantID); err != nil {
			return nil, apperror.GRPCStatus(apperror.ErrTenantNotFound)
		}
	}

	txs, total, err := h.wallet.ListTransactions(ctx, filters)
	if err != nil {
		return nil, h.fail("ListWalletTransactions", err)
	}

	list := make([]interface{}, 0, len(txs))
	for _, tx := range txs {
		list = append(list, map[string]interface{}{
			"id":               tx.ID,
			"tenant_id":        tx.TenantID,
			"amount":           tx.Amount.String(),
			"previous_balance": tx.PreviousBalance.String(),
			"new_balance":      tx.NewBalance.String(),
			"reason":           tx.Reason,
			"created_at":       tx.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}
	return structpb.NewStruct(map[string]interface{}{
		"transactions": list,
		"total":        total,
	})
}

func (h *OperatorHandler) GetGlobalStats(ctx context.Context, _ *structpb.Struct) (*structpb.Struct, error) {
	stats, err := h.tenants.Stats(ctx)
	if err != nil {
		return nil, h.fail("GetGlobalStats", err)
	}
	orders, err := h.orders.Count(ctx)
	if err != nil {
		return nil, h.fail("GetGlobalStats", err)
	}
	credits, err := h.wallet.TotalBalance(ctx)
	if err != nil {
		return nil, h.fail("GetGlobalStats", err)
	}

	return structpb.NewStruct(map[string]interface{}{
		"total_tenants":  stats.Total,
		"active_tenants": stats.Active,
		"total_orders":   orders,
		"total_credits":  credits.String(),
	})
}

func (h *OperatorHandler) fail(op string, err error) error {
	if appErr, ok := apperror.As(err); !ok || appErr.Kind == apperror.KindInternal {
		h.logger.Error("operator call failed", zap.String("method", op), zap.Error(err))
	}
	return apperror.GRPCStatus(err)
}

func str(req *structpb.Struct, key string) string {
	return strings.TrimSpace(req.GetFields()[key].GetStringValue())
}

// dec accepts the amount as a JSON number or a decimal string. Missing means zero.
func dec(req *structpb.Struct, key string) (decimal.Decimal, error) {
	v, ok := req.GetFields()[key]
	if !ok {
		return decimal.Zero, nil
	}
	switch kind := v.GetKind().(type) {
	case *structpb.Value_NumberValue:
		return decimal.NewFromFloat(kind.NumberValue), nil
	case *structpb.Value_StringValue:
		if strings.TrimSpace(kind.StringValue) == "" {
			return decimal.Zero, nil
		}
		d, err := decimal.NewFromString(strings.TrimSpace(kind.StringValue))
		if err != nil {
			return decimal.Zero, apperror.ErrInvalidAmount.WithMessage(key + " must be a number")
		}
		return d, nil
	case *structpb.Value_NullValue:
		return decimal.Zero, nil
	default:
		return decimal.Zero, apperror.ErrInvalidAmount.WithMessage(key + " must be a number")
	}
}

func tenantToMap(t *model.Tenant) map[string]interface{} {
	m := map[string]interface{}{
		"id":             t.ID,
		"name":           t.Name,
		"slug":           t.Slug,
		"phone":          t.Phone,
		"is_active":      t.IsActive,
		"has_delivery":   t.HasDelivery,
		"delivery_price": t.DeliveryPrice.String(),
	}
	if t.LogoURL != nil {
		m["logo_url"] = *t.LogoURL
	}
	if t.PrimaryColor != nil {
		m["primary_color"] = *t.PrimaryColor
	}
	return m
}
