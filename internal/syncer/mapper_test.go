package syncer

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var mapNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func fullItem() SaleItem {
	return SaleItem{
		Purchase: &PurchaseInfo{
			Transaction:  "HP123",
			Status:       "approved",
			OrderDate:    1700000000000,
			ApprovedDate: 1700000100000,
			Price:        &PriceInfo{Value: 197.5, CurrencyCode: "BRL"},
			Payment:      &PaymentInfo{Type: "CREDIT_CARD", InstallmentsNumber: 3},
		},
		Buyer: &BuyerInfo{
			Ucode: "u-1", Name: "Ana", Email: "ana@x.com",
			Phone: "+5511999", Document: "123",
		},
		Product: &ProductInfo{ID: 5587176, Name: "Curso"},
	}
}

func TestMapItem_FullItem(t *testing.T) {
	rec, err := mapItem(fullItem(), mapNow)
	require.NoError(t, err)

	assert.Equal(t, "HP123", rec.Sale.TransactionID)
	assert.Equal(t, "APPROVED", rec.Sale.Status, "status is uppercased")
	assert.Equal(t, 197.5, rec.Sale.TotalPrice)
	assert.Equal(t, "BRL", rec.Sale.Currency)
	assert.Equal(t, int64(3), rec.Sale.Installments)
	assert.Equal(t, time.UnixMilli(1700000000000).UTC(), rec.Sale.PurchasedAt)

	assert.Equal(t, "u-1", rec.Customer.ID)
	assert.Equal(t, "ana@x.com", rec.Customer.Email)
	assert.Equal(t, "u-1", rec.Sale.CustomerID)

	assert.Equal(t, "5587176", rec.Product.ID)
	assert.Equal(t, "Curso", rec.Product.Name)
	assert.Equal(t, "5587176", rec.Sale.ProductID)
}

func TestMapItem_MissingTransactionRejected(t *testing.T) {
	_, err := mapItem(SaleItem{Buyer: &BuyerInfo{Email: "a@x.com"}}, mapNow)
	require.Error(t, err)

	var rerr *RecordError
	require.True(t, errors.As(err, &rerr))
	assert.Contains(t, rerr.Reason, "transaction")
}

func TestMapItem_TopLevelTransactionFallback(t *testing.T) {
	rec, err := mapItem(SaleItem{Transaction: "HP9", Status: "complete"}, mapNow)
	require.NoError(t, err)
	assert.Equal(t, "HP9", rec.Sale.TransactionID)
	assert.Equal(t, "COMPLETE", rec.Sale.Status)
}

func TestMapItem_Defaults(t *testing.T) {
	rec, err := mapItem(SaleItem{Transaction: "HP7"}, mapNow)
	require.NoError(t, err)

	assert.Equal(t, "UNKNOWN", rec.Sale.Status)
	assert.Equal(t, "BRL", rec.Sale.Currency)
	assert.Zero(t, rec.Sale.TotalPrice)
	assert.Equal(t, mapNow, rec.Sale.PurchasedAt, "missing order date falls back to now")

	assert.Equal(t, "HP7", rec.Customer.ID, "buyer id falls back to the transaction")
	assert.Equal(t, "unknown_HP7@noemail.com", rec.Customer.Email)
	assert.Equal(t, "Unknown Buyer", rec.Customer.Name)

	assert.Equal(t, "0", rec.Product.ID)
	assert.Equal(t, "Unknown Product", rec.Product.Name)
}

func TestMapItem_BuyerIDPrecedence(t *testing.T) {
	item := fullItem()
	item.Buyer.Ucode = ""
	item.Buyer.ID = "legacy-9"
	rec, err := mapItem(item, mapNow)
	require.NoError(t, err)
	assert.Equal(t, "legacy-9", rec.Customer.ID)
}

func TestMapItem_PhoneAndDocumentFallBackToPurchase(t *testing.T) {
	item := fullItem()
	item.Buyer.Phone = ""
	item.Buyer.Document = ""
	item.Purchase.Phone = "+5522888"
	item.Purchase.Document = "456"
	rec, err := mapItem(item, mapNow)
	require.NoError(t, err)
	assert.Equal(t, "+5522888", rec.Customer.Phone)
	assert.Equal(t, "456", rec.Customer.Document)
}
