package api

import (
	"time"
)

// PartyKind discriminates the two trading-party collections.
type PartyKind string

const (
	PartySupplier PartyKind = "supplier"
	PartyCustomer PartyKind = "customer"
)

// TransactionKind enumerates the transaction families the backend accepts.
type TransactionKind string

const (
	KindPurchase        TransactionKind = "purchase"
	KindSale            TransactionKind = "sale"
	KindSupplierReturn  TransactionKind = "supplier-return"
	KindCustomerReturn  TransactionKind = "customer-return"
	KindSupplierPayment TransactionKind = "supplier-payment"
	KindCustomerPayment TransactionKind = "customer-payment"
	KindTransfer        TransactionKind = "internal-transfer"
	KindAdjustment      TransactionKind = "adjustment"
)

// TransactionStatus enumerates lifecycle statuses.
type TransactionStatus string

const (
	StatusDraft  TransactionStatus = "DRAFT"
	StatusPosted TransactionStatus = "POSTED"
	StatusVoid   TransactionStatus = "VOID"
)

// StockDirection marks adjustment lines as inbound or outbound.
type StockDirection string

const (
	DirectionIn  StockDirection = "IN"
	DirectionOut StockDirection = "OUT"
)

// DeliveryType enumerates sale delivery modes.
type DeliveryType string

const (
	DeliveryPickup DeliveryType = "pickup"
	DeliveryHome   DeliveryType = "home-delivery"
)

// Supplier summary as returned by the suppliers collection.
type Supplier struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Customer summary as returned by the customers collection.
type Customer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Status    string    `json:"status"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Variant is a sellable variation of a product.
type Variant struct {
	ID           int64  `json:"id"`
	Size         string `json:"size"`
	CurrentStock int64  `json:"current_stock"`
	Active       bool   `json:"active"`
}

// Product with its nested variants.
type Product struct {
	ID       int64     `json:"id"`
	SKU      string    `json:"sku"`
	Name     string    `json:"name"`
	Category string    `json:"category"`
	Status   string    `json:"status"`
	Variants []Variant `json:"variants"`
}

// PaymentAccount is a cash or bank account money moves through.
type PaymentAccount struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Type    string `json:"type"`
	Balance int64  `json:"balance"`
}

// TransactionLine is a posted or drafted line item.
type TransactionLine struct {
	ID             int64          `json:"id"`
	ProductID      int64          `json:"product_id"`
	VariantID      int64          `json:"variant_id"`
	Quantity       int64          `json:"quantity"`
	UnitAmount     int64          `json:"unit_amount"`
	DiscountAmount int64          `json:"discount_amount"`
	Total          int64          `json:"total"`
	ReturnableQty  int64          `json:"returnable_qty"`
	Direction      StockDirection `json:"direction,omitempty"`
	Reason         string         `json:"reason,omitempty"`
}

// PaymentEntry records money applied to a transaction.
type PaymentEntry struct {
	ID        int64     `json:"id"`
	AccountID int64     `json:"account_id"`
	Amount    int64     `json:"amount"`
	PaidAt    time.Time `json:"paid_at"`
}

// Allocation links an amount from this transaction to a prior open document.
type Allocation struct {
	ID                  int64 `json:"id"`
	TargetTransactionID int64 `json:"target_transaction_id"`
	Amount              int64 `json:"amount"`
}

// Transaction is the full transaction resource with nested collections.
type Transaction struct {
	ID              int64             `json:"id"`
	Number          string            `json:"number"`
	Kind            TransactionKind   `json:"kind"`
	Status          TransactionStatus `json:"status"`
	PartyID         int64             `json:"party_id"`
	Date            time.Time         `json:"date"`
	DeliveryType    DeliveryType      `json:"delivery_type,omitempty"`
	DeliveryAddress string            `json:"delivery_address,omitempty"`
	DeliveryFee     int64             `json:"delivery_fee"`
	Notes           string            `json:"notes"`
	Subtotal        int64             `json:"subtotal"`
	TotalDiscount   int64             `json:"total_discount"`
	TotalAmount     int64             `json:"total_amount"`
	Outstanding     int64             `json:"outstanding"`
	Lines           []TransactionLine `json:"lines"`
	Payments        []PaymentEntry    `json:"payments"`
	Allocations     []Allocation      `json:"allocations"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// ListMeta carries pagination metadata for collection responses.
type ListMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// listEnvelope is the wire shape of every collection response.
type listEnvelope[T any] struct {
	Data []T       `json:"data"`
	Meta *ListMeta `json:"meta"`
}
