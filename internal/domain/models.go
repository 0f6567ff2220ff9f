package domain

import "time"

// Customer is a trading partner in the directory. Phone and address are
// optional and always empty strings when unset, never absent.
type Customer struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"createdAt"`
}

type CustomerCreateRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type CustomerUpdateRequest struct {
	Name    *string `json:"name,omitempty"`
	Phone   *string `json:"phone,omitempty"`
	Address *string `json:"address,omitempty"`
}

// DailyRecord is one settled delivery transaction. The caller supplies the
// raw inputs (date, cages, customerId, grossWeight, emptyWeight, pricePerKg,
// paid); every other field is derived by the ledger engine before the record
// is persisted and never recomputed afterwards.
type DailyRecord struct {
	ID           string    `json:"id"`
	Date         string    `json:"date"`
	Cages        int       `json:"cages"`
	CustomerID   string    `json:"customerId"`
	CustomerName string    `json:"customerName"`
	GrossWeight  float64   `json:"grossWeight"`
	EmptyWeight  float64   `json:"emptyWeight"`
	NetWeight    float64   `json:"netWeight"`
	PricePerKg   float64   `json:"pricePerKg"`
	Total        float64   `json:"total"`
	Paid         float64   `json:"paid"`
	Remaining    float64   `json:"remaining"`
	OldBalance   float64   `json:"oldBalance"`
	TotalBalance float64   `json:"totalBalance"`
	CreatedAt    time.Time `json:"createdAt"`
}

type RecordCreateRequest struct {
	Date        string  `json:"date"`
	Cages       int     `json:"cages"`
	CustomerID  string  `json:"customerId"`
	GrossWeight float64 `json:"grossWeight"`
	EmptyWeight float64 `json:"emptyWeight"`
	PricePerKg  float64 `json:"pricePerKg"`
	Paid        float64 `json:"paid"`
}

// DailySummary aggregates a slice of records for the daily view.
type DailySummary struct {
	TotalCages     int     `json:"totalCages"`
	TotalWeight    float64 `json:"totalWeight"`
	TotalAmount    float64 `json:"totalAmount"`
	TotalPaid      float64 `json:"totalPaid"`
	TotalRemaining float64 `json:"totalRemaining"`
}

type DailyReport struct {
	Date    string        `json:"date"`
	Summary DailySummary  `json:"summary"`
	Records []DailyRecord `json:"records"`
}

// CustomerBalance is a customer's outstanding debt from records dated
// strictly before AsOf.
type CustomerBalance struct {
	CustomerID string  `json:"customerId"`
	AsOf       string  `json:"asOf"`
	Balance    float64 `json:"balance"`
}
