package syncer

import "context"

// FetchRequest identifies one page of one sales window. StartMS and EndMS
// are unix milliseconds, the unit the upstream API speaks. PageToken is
// empty for the first page of a window.
type FetchRequest struct {
	StartMS   int64
	EndMS     int64
	PageToken string
}

// FetchPage is one page of upstream sale items. An empty NextPageToken is
// terminal: the window has no further pages.
type FetchPage struct {
	Items         []SaleItem `json:"items"`
	NextPageToken string     `json:"-"`
}

// SalesFetcher fetches pages of sales from the upstream platform.
// Implemented by hotmart.Client in production and by fakes in tests.
type SalesFetcher interface {
	FetchSales(ctx context.Context, req FetchRequest) (FetchPage, error)
}

// SaleItem is the loosely-shaped upstream sale payload. Every nested
// object is optional; mapItem applies all defaulting in one place rather
// than letting callers chase missing sub-fields.
type SaleItem struct {
	Transaction string        `json:"transaction"`
	Status      string        `json:"status"`
	Purchase    *PurchaseInfo `json:"purchase"`
	Buyer       *BuyerInfo    `json:"buyer"`
	Product     *ProductInfo  `json:"product"`
}

// PurchaseInfo is the nested purchase sub-object.
type PurchaseInfo struct {
	Transaction  string       `json:"transaction"`
	Status       string       `json:"status"`
	OrderDate    int64        `json:"order_date"`
	ApprovedDate int64        `json:"approved_date"`
	Price        *PriceInfo   `json:"price"`
	Payment      *PaymentInfo `json:"payment"`
	Phone        string       `json:"phone"`
	Document     string       `json:"document"`
}

// PriceInfo carries the purchase total and its currency.
type PriceInfo struct {
	Value        float64 `json:"value"`
	CurrencyCode string  `json:"currency_value"`
}

// PaymentInfo carries payment method details.
type PaymentInfo struct {
	Type               string `json:"type"`
	InstallmentsNumber int64  `json:"installments_number"`
}

// BuyerInfo is the nested buyer sub-object.
type BuyerInfo struct {
	Ucode    string `json:"ucode"`
	ID       string `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Document string `json:"document"`
}

// ProductInfo is the nested product sub-object. The upstream sends the
// product id as a number; it is stringified during mapping.
type ProductInfo struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
