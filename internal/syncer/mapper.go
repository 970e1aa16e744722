package syncer

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/vitrine-labs/crmsync/internal/model"
)

// Defaults substituted for missing upstream sub-fields. A page is never
// failed over one incomplete item; the item either maps with defaults or
// is rejected with a RecordError.
const (
	defaultStatus      = "UNKNOWN"
	defaultCurrency    = "BRL"
	defaultBuyerName   = "Unknown Buyer"
	defaultProductID   = "0"
	defaultProductName = "Unknown Product"
)

// RecordError marks a single sale item that cannot be mapped into a
// customer/product/sale triple. Callers log it and skip the item.
type RecordError struct {
	Transaction string
	Reason      string
}

func (e *RecordError) Error() string {
	if e.Transaction == "" {
		return fmt.Sprintf("unmappable sale item: %s", e.Reason)
	}
	return fmt.Sprintf("unmappable sale item %s: %s", e.Transaction, e.Reason)
}

// MappedSale is the typed triple one upstream item maps to.
type MappedSale struct {
	Customer model.Customer
	Product  model.Product
	Sale     model.Sale
}

// mapItem converts one loose upstream item into typed records, applying
// every defaulting rule in one place. now substitutes for missing dates.
//
// The only hard requirement is a transaction id; anything else missing is
// defaulted. A zero price is accepted but surfaced to the caller through
// the returned record so it can be flagged.
func mapItem(item SaleItem, now time.Time) (MappedSale, error) {
	purchase := item.Purchase
	if purchase == nil {
		purchase = &PurchaseInfo{}
	}
	buyer := item.Buyer
	if buyer == nil {
		buyer = &BuyerInfo{}
	}
	prod := item.Product
	if prod == nil {
		prod = &ProductInfo{}
	}

	txn := purchase.Transaction
	if txn == "" {
		txn = item.Transaction
	}
	if txn == "" {
		return MappedSale{}, &RecordError{Reason: "missing transaction id"}
	}

	status := purchase.Status
	if status == "" {
		status = item.Status
	}
	if status == "" {
		status = defaultStatus
	}
	status = strings.ToUpper(status)

	var price float64
	currency := defaultCurrency
	if purchase.Price != nil {
		price = purchase.Price.Value
		if purchase.Price.CurrencyCode != "" {
			currency = purchase.Price.CurrencyCode
		}
	}

	purchasedAt := now
	if purchase.OrderDate > 0 {
		purchasedAt = time.UnixMilli(purchase.OrderDate).UTC()
	}
	var updatedAt time.Time
	if purchase.ApprovedDate > 0 {
		updatedAt = time.UnixMilli(purchase.ApprovedDate).UTC()
	}

	buyerID := buyer.Ucode
	if buyerID == "" {
		buyerID = buyer.ID
	}
	if buyerID == "" {
		buyerID = txn
	}

	email := buyer.Email
	if email == "" {
		email = fmt.Sprintf("unknown_%s@noemail.com", txn)
	}
	name := buyer.Name
	if name == "" {
		name = defaultBuyerName
	}
	phone := buyer.Phone
	if phone == "" {
		phone = purchase.Phone
	}
	document := buyer.Document
	if document == "" {
		document = purchase.Document
	}

	productID := defaultProductID
	if prod.ID != 0 {
		productID = strconv.FormatInt(prod.ID, 10)
	}
	productName := prod.Name
	if productName == "" {
		productName = defaultProductName
	}

	paymentMethod := defaultStatus
	paymentType := ""
	var installments int64
	if purchase.Payment != nil {
		if purchase.Payment.Type != "" {
			paymentMethod = purchase.Payment.Type
			paymentType = purchase.Payment.Type
		}
		installments = purchase.Payment.InstallmentsNumber
	}

	return MappedSale{
		Customer: model.Customer{
			ID:        buyerID,
			Email:     email,
			Name:      name,
			Phone:     phone,
			Document:  document,
			CreatedAt: purchasedAt,
			UpdatedAt: updatedAt,
		},
		Product: model.Product{
			ID:   productID,
			Name: productName,
		},
		Sale: model.Sale{
			TransactionID: txn,
			Status:        status,
			TotalPrice:    price,
			Currency:      currency,
			PaymentMethod: paymentMethod,
			PaymentType:   paymentType,
			Installments:  installments,
			ApprovedDate:  purchase.ApprovedDate,
			OrderDate:     purchase.OrderDate,
			PurchasedAt:   purchasedAt,
			UpdatedAt:     updatedAt,
			CustomerID:    buyerID,
			ProductID:     productID,
		},
	}, nil
}
