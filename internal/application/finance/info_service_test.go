package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erp/finstate/internal/domain/billing"
	"github.com/erp/finstate/internal/domain/currency"
	"github.com/erp/finstate/internal/domain/ordering"
	"github.com/erp/finstate/internal/domain/shared/valueobject"
	"github.com/erp/finstate/internal/infrastructure/cache"
)

type fakeOrderReader struct {
	orders []*ordering.Order
}

func (r *fakeOrderReader) LoadAll(ctx context.Context) ([]*ordering.Order, error) {
	return r.orders, nil
}

func (r *fakeOrderReader) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	for _, o := range r.orders {
		if o.ID == id {
			return o, nil
		}
	}
	return nil, nil
}

type fakeInvoiceReader struct {
	invoices []*billing.Invoice
}

func (r *fakeInvoiceReader) LoadAll(ctx context.Context) ([]*billing.Invoice, error) {
	return r.invoices, nil
}

func (r *fakeInvoiceReader) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	for _, inv := range r.invoices {
		if inv.ID == id {
			return inv, nil
		}
	}
	return nil, nil
}

type fakeCurrencyReader struct {
	pairs []*currency.Pair
}

func (r *fakeCurrencyReader) LoadAll(ctx context.Context) ([]*currency.Pair, error) {
	return r.pairs, nil
}

func tp(t time.Time) *time.Time {
	return &t
}

func fixtureOrder() *ordering.Order {
	o := &ordering.Order{
		Number:      "AB-2024-010",
		Status:      ordering.StatusCommissioned,
		PeriodFrom:  tp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)),
		PeriodUntil: tp(time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC)),
		Positions: []ordering.OrderPosition{
			{
				Number:      1,
				Status:      ordering.StatusCommissioned,
				PaymentType: ordering.PaymentTypeTimeAndMaterials,
				NetSum:      decimal.RequireFromString("900"),
			},
			{
				Number:      2,
				Status:      ordering.StatusCommissioned,
				PaymentType: ordering.PaymentTypeFixedPrice,
				NetSum:      decimal.RequireFromString("300"),
				Deleted:     true,
			},
		},
	}
	o.ID = uuid.New()
	return o
}

func fixtureInvoice(orderID uuid.UUID) *billing.Invoice {
	posNumber := 1
	inv := &billing.Invoice{
		Number:    "RE-2024-010",
		Type:      billing.InvoiceTypeOutgoing,
		Status:    billing.InvoiceStatusIssued,
		Currency:  valueobject.EUR,
		IssueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		DueDate:   time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC),
		Positions: []billing.InvoicePosition{{
			Number:              1,
			UnitNetPrice:        decimal.RequireFromString("300"),
			VATRate:             decimal.RequireFromString("0.19"),
			OrderID:             &orderID,
			OrderPositionNumber: &posNumber,
		}},
	}
	inv.ID = uuid.New()
	return inv
}

func fixturePair() *currency.Pair {
	r := currency.Rate{
		ValidFrom: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		Rate:      decimal.RequireFromString("0.90"),
	}
	r.ID = uuid.New()
	p := &currency.Pair{
		Source: valueobject.USD,
		Target: valueobject.EUR,
		Rates:  []currency.Rate{r},
	}
	p.ID = uuid.New()
	return p
}

func newTestService(t *testing.T) (*InfoService, *ordering.Order, *billing.Invoice, *currency.Pair) {
	t.Helper()

	order := fixtureOrder()
	invoice := fixtureInvoice(order.ID)
	pair := fixturePair()

	orderReader := &fakeOrderReader{orders: []*ordering.Order{order}}
	invoiceCache := cache.NewInvoiceInfoCache(&fakeInvoiceReader{invoices: []*billing.Invoice{invoice}}, zap.NewNop())
	require.NoError(t, invoiceCache.Refresh(context.Background()))
	orderCache := cache.NewOrderInfoCache(orderReader, invoiceCache, zap.NewNop())
	currencyCache := cache.NewCurrencyCache(&fakeCurrencyReader{pairs: []*currency.Pair{pair}}, zap.NewNop())

	svc := NewInfoService(orderCache, invoiceCache, currencyCache, orderReader,
		WithLogger(zap.NewNop()))
	return svc, order, invoice, pair
}

func TestInfoService_GetOrderInfo(t *testing.T) {
	svc, order, _, _ := newTestService(t)

	info := svc.GetOrderInfo(context.Background(), order.ID)
	require.NotNil(t, info)
	assert.Equal(t, "AB-2024-010", info.Number)
	assert.True(t, decimal.RequireFromString("900.00").Equal(info.NetSum))
	assert.True(t, decimal.RequireFromString("300.00").Equal(info.InvoicedSum))

	assert.Nil(t, svc.GetOrderInfo(context.Background(), uuid.New()))
}

func TestInfoService_GetInvoiceInfo(t *testing.T) {
	svc, _, invoice, _ := newTestService(t)

	info := svc.GetInvoiceInfo(context.Background(), invoice.ID)
	require.NotNil(t, info)
	assert.Equal(t, "RE-2024-010", info.Number)
	assert.True(t, decimal.RequireFromString("300.00").Equal(info.NetSum))
	assert.True(t, decimal.RequireFromString("357.00").Equal(info.GrossSum))

	assert.Nil(t, svc.GetInvoiceInfo(context.Background(), uuid.New()))
}

func TestInfoService_GetConversionRate(t *testing.T) {
	svc, _, _, pair := newTestService(t)

	r := svc.GetConversionRate(context.Background(), pair.ID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), false)
	require.NotNil(t, r)
	assert.True(t, decimal.RequireFromString("0.90").Equal(r.Rate))

	assert.Nil(t, svc.GetConversionRate(context.Background(), pair.ID,
		time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), false))
}

func TestInfoService_Convert(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	got := svc.Convert(context.Background(), decimal.RequireFromString("100"),
		valueobject.USD, valueobject.EUR, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 2, false)
	require.NotNil(t, got)
	assert.True(t, decimal.RequireFromString("90.00").Equal(got.Amount()))
	assert.Equal(t, valueobject.EUR, got.Currency())

	assert.Nil(t, svc.Convert(context.Background(), decimal.RequireFromString("100"),
		valueobject.GBP, valueobject.CHF, time.Now(), 2, false))
}

func TestInfoService_ExportOrderAnalysis(t *testing.T) {
	svc, order, _, _ := newTestService(t)

	rows, err := svc.ExportOrderAnalysis(context.Background(), order.ID)
	require.NoError(t, err)
	// Deleted positions are excluded from the export.
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, order.ID, row.OrderID)
	assert.Equal(t, 1, row.PositionNumber)
	assert.True(t, decimal.RequireFromString("1").Equal(row.Probability))
	assert.True(t, decimal.RequireFromString("900.00").Equal(row.NetSum))
	// Three period months plus one trailing bucket.
	assert.Len(t, row.Months, 4)
}

func TestInfoService_ExportOrderAnalysis_UnknownOrder(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	rows, err := svc.ExportOrderAnalysis(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestInfoService_ExportOrderAnalysis_DeletedOrder(t *testing.T) {
	svc, order, _, _ := newTestService(t)
	order.Deleted = true

	rows, err := svc.ExportOrderAnalysis(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Nil(t, rows)
}

func TestInfoService_InvalidateAll(t *testing.T) {
	svc, order, _, _ := newTestService(t)

	ctx := context.Background()
	require.NotNil(t, svc.GetOrderInfo(ctx, order.ID))

	// After invalidation the next read recomputes and still serves.
	svc.InvalidateAll()
	assert.NotNil(t, svc.GetOrderInfo(ctx, order.ID))
}
