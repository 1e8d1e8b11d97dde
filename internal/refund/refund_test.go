package refund

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/dmpolyakov/storefront-payments/internal/middleware"
	"github.com/dmpolyakov/storefront-payments/internal/storage"
	"github.com/dmpolyakov/storefront-payments/internal/types/order"
	"github.com/dmpolyakov/storefront-payments/internal/types/refund"
)

type stubOrderRepo struct {
	order *order.Order
}

func (r *stubOrderRepo) FindOrderByNumber(ctx context.Context, number string) (*order.Order, error) {
	if r.order == nil || r.order.Number != number {
		return nil, storage.ErrOrderNotFound
	}
	return r.order, nil
}

type stubRefundRepo struct {
	refunds []refund.Refund
}

func (r *stubRefundRepo) ListRefundsByOrder(ctx context.Context, orderID int64) ([]refund.Refund, error) {
	return r.refunds, nil
}

type stubGateway struct {
	calls   int
	intent  string
	amount  *decimal.Decimal
	callErr error
}

func (g *stubGateway) CreateRefund(ctx context.Context, intentID string, amount *decimal.Decimal) (string, error) {
	g.calls++
	g.intent = intentID
	g.amount = amount
	if g.callErr != nil {
		return "", g.callErr
	}
	return "re_1", nil
}

func strptr(s string) *string { return &s }

func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func paidOrder() *order.Order {
	return &order.Order{
		ID:              1001,
		Number:          "ORD-1001",
		Total:           decimal.RequireFromString("129.99"),
		Status:          order.StatusPaid,
		PaymentIntentID: strptr("pi_123"),
	}
}

func TestRequestFullRefund(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(&stubOrderRepo{order: paidOrder()}, &stubRefundRepo{}, gw)

	err := svc.Request(context.Background(), "ORD-1001", nil)
	assert.NoError(t, err)
	assert.Equal(t, 1, gw.calls)
	assert.Equal(t, "pi_123", gw.intent)
	assert.Nil(t, gw.amount, "omitted amount means full refund")
}

func TestRequestPartialRefund(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(&stubOrderRepo{order: paidOrder()}, &stubRefundRepo{}, gw)

	amount := decimal.RequireFromString("50.00")
	err := svc.Request(context.Background(), "ORD-1001", &amount)
	assert.NoError(t, err)
	assert.NotNil(t, gw.amount)
	assert.True(t, gw.amount.Equal(amount))
}

func TestRequestNonPositiveAmount(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(&stubOrderRepo{order: paidOrder()}, &stubRefundRepo{}, gw)

	amount := decimal.Zero
	err := svc.Request(context.Background(), "ORD-1001", &amount)
	assert.ErrorIs(t, err, ErrInvalidAmount)
	assert.Zero(t, gw.calls)
}

func TestRequestNonPaidOrder(t *testing.T) {
	for _, status := range []order.PaymentStatus{
		order.StatusPending, order.StatusFailed, order.StatusRefunded,
	} {
		o := paidOrder()
		o.Status = status
		gw := &stubGateway{}
		svc := NewService(&stubOrderRepo{order: o}, &stubRefundRepo{}, gw)

		err := svc.Request(context.Background(), "ORD-1001", nil)
		assert.ErrorIs(t, err, ErrNotRefundable, "status %s", status)
		assert.Zero(t, gw.calls)
	}
}

func TestRequestUnknownOrder(t *testing.T) {
	svc := NewService(&stubOrderRepo{}, &stubRefundRepo{}, &stubGateway{})
	err := svc.Request(context.Background(), "ORD-9999", nil)
	assert.ErrorIs(t, err, storage.ErrOrderNotFound)
}

func TestHandlerRequestRefund(t *testing.T) {
	gw := &stubGateway{}
	svc := NewService(&stubOrderRepo{order: paidOrder()}, &stubRefundRepo{}, gw)
	handler := NewHandler(svc)

	body := `{"amount":"50.00"}`
	req := httptest.NewRequest(http.MethodPost, "/orders/ORD-1001/refund", strings.NewReader(body))
	req = withURLParam(req, "number", "ORD-1001")
	req = req.WithContext(middleware.ContextWithAdminLogin(req.Context(), "ops"))

	w := httptest.NewRecorder()
	handler.Request(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusAccepted, resp.StatusCode)
	assert.Equal(t, 1, gw.calls)
}

func TestHandlerRequestRefundNotRefundable(t *testing.T) {
	o := paidOrder()
	o.Status = order.StatusPending
	svc := NewService(&stubOrderRepo{order: o}, &stubRefundRepo{}, &stubGateway{})
	handler := NewHandler(svc)

	req := httptest.NewRequest(http.MethodPost, "/orders/ORD-1001/refund", nil)
	req = withURLParam(req, "number", "ORD-1001")

	w := httptest.NewRecorder()
	handler.Request(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}
