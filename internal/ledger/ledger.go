package ledger

import (
	"context"
	"log"
	"strings"
	"time"

	"cageledger/internal/cache"
	"cageledger/internal/directory"
	"cageledger/internal/domain"
	"cageledger/internal/store"
)

// Engine computes and persists daily delivery records. Derived amounts are
// fixed at creation time; editing or deleting earlier records never rewrites
// later ones.
type Engine struct {
	store      store.Store
	directory  *directory.Directory
	cache      cache.SummaryCache
	summaryTTL time.Duration
}

func New(s store.Store, dir *directory.Directory, summaries cache.SummaryCache, summaryTTL time.Duration) *Engine {
	if summaries == nil {
		summaries = cache.NoopSummaryCache{}
	}
	if summaryTTL <= 0 {
		summaryTTL = 5 * time.Minute
	}

	return &Engine{
		store:      s,
		directory:  dir,
		cache:      summaries,
		summaryTTL: summaryTTL,
	}
}

const dateLayout = "2006-01-02"

func (e *Engine) CreateRecord(ctx context.Context, req domain.RecordCreateRequest) (domain.DailyRecord, error) {
	date := strings.TrimSpace(req.Date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.DailyRecord{}, store.ErrValidation
	}
	if strings.TrimSpace(req.CustomerID) == "" {
		return domain.DailyRecord{}, store.ErrValidation
	}

	customer, err := e.directory.Get(ctx, req.CustomerID)
	if err != nil {
		return domain.DailyRecord{}, err
	}

	netWeight := req.GrossWeight - req.EmptyWeight
	total := netWeight * req.PricePerKg
	remaining := total - req.Paid
	oldBalance := e.oldBalance(ctx, customer.ID, date)

	doc, err := e.store.Insert(ctx, store.CollectionDailyRecord, store.Fields{
		"date":         date,
		"cages":        req.Cages,
		"customerId":   customer.ID,
		"customerName": customer.Name,
		"grossWeight":  req.GrossWeight,
		"emptyWeight":  req.EmptyWeight,
		"netWeight":    netWeight,
		"pricePerKg":   req.PricePerKg,
		"total":        total,
		"paid":         req.Paid,
		"remaining":    remaining,
		"oldBalance":   oldBalance,
		"totalBalance": remaining + oldBalance,
	})
	if err != nil {
		return domain.DailyRecord{}, err
	}

	e.invalidateSummary(ctx, date)

	return recordFromDoc(*doc), nil
}

// oldBalance sums outstanding remainders from this customer's records dated
// strictly before the given day. A storage failure degrades to zero so one
// broken lookup cannot block a new delivery.
func (e *Engine) oldBalance(ctx context.Context, customerID string, date string) float64 {
	docs, err := e.store.Query(ctx, store.CollectionDailyRecord, store.Query{
		Equal: map[string]any{"customerId": customerID},
		Less:  map[string]any{"date": date},
	})
	if err != nil {
		log.Printf("[ledger] WARN: old balance lookup failed customer=%s date=%s: %v", customerID, date, err)
		return 0
	}

	var balance float64
	for _, doc := range docs {
		balance += doc.Fields.Float("remaining")
	}
	return balance
}

// ListByDate returns all records for one day, newest first.
func (e *Engine) ListByDate(ctx context.Context, date string) ([]domain.DailyRecord, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return nil, store.ErrValidation
	}

	docs, err := e.store.Query(ctx, store.CollectionDailyRecord, store.Query{
		Equal:      map[string]any{"date": date},
		Descending: true,
	})
	if err != nil {
		return nil, err
	}
	return recordsFromDocs(docs), nil
}

// ListAll returns every record, newest first.
func (e *Engine) ListAll(ctx context.Context) ([]domain.DailyRecord, error) {
	docs, err := e.store.Query(ctx, store.CollectionDailyRecord, store.Query{Descending: true})
	if err != nil {
		return nil, err
	}
	return recordsFromDocs(docs), nil
}

func (e *Engine) DeleteRecord(ctx context.Context, id string) error {
	doc, err := e.store.Get(ctx, store.CollectionDailyRecord, id)
	if err != nil {
		return err
	}

	if err := e.store.Delete(ctx, store.CollectionDailyRecord, id); err != nil {
		return err
	}

	e.invalidateSummary(ctx, doc.Fields.String("date"))
	return nil
}

// Summarize folds a slice of records into daily totals. It is pure: order
// does not matter and an empty slice yields all zeros.
func Summarize(records []domain.DailyRecord) domain.DailySummary {
	var summary domain.DailySummary
	for _, r := range records {
		summary.TotalCages += r.Cages
		summary.TotalWeight += r.NetWeight
		summary.TotalAmount += r.Total
		summary.TotalPaid += r.Paid
		summary.TotalRemaining += r.Remaining
	}
	return summary
}

// DailyReport returns the records and summary for one day. The summary is
// served from cache when a fresh copy exists.
func (e *Engine) DailyReport(ctx context.Context, date string) (domain.DailyReport, error) {
	records, err := e.ListByDate(ctx, date)
	if err != nil {
		return domain.DailyReport{}, err
	}

	date = strings.TrimSpace(date)
	report := domain.DailyReport{Date: date, Records: records}

	cached, ok, err := e.cache.Get(ctx, date)
	if err != nil {
		log.Printf("[ledger] WARN: summary cache get failed date=%s: %v", date, err)
	}
	if ok {
		report.Summary = *cached
		return report, nil
	}

	report.Summary = Summarize(records)
	if err := e.cache.Set(ctx, date, &report.Summary, e.summaryTTL); err != nil {
		log.Printf("[ledger] WARN: summary cache set failed date=%s: %v", date, err)
	}
	return report, nil
}

// BalanceAsOf reports a customer's outstanding debt from records dated
// strictly before the given day.
func (e *Engine) BalanceAsOf(ctx context.Context, customerID string, date string) (domain.CustomerBalance, error) {
	date = strings.TrimSpace(date)
	if _, err := time.Parse(dateLayout, date); err != nil {
		return domain.CustomerBalance{}, store.ErrValidation
	}

	customer, err := e.directory.Get(ctx, customerID)
	if err != nil {
		return domain.CustomerBalance{}, err
	}

	return domain.CustomerBalance{
		CustomerID: customer.ID,
		AsOf:       date,
		Balance:    e.oldBalance(ctx, customer.ID, date),
	}, nil
}

func (e *Engine) invalidateSummary(ctx context.Context, date string) {
	if err := e.cache.Invalidate(ctx, date); err != nil {
		log.Printf("[ledger] WARN: summary cache invalidate failed date=%s: %v", date, err)
	}
}

func recordFromDoc(doc store.Document) domain.DailyRecord {
	return domain.DailyRecord{
		ID:           doc.ID,
		Date:         doc.Fields.String("date"),
		Cages:        doc.Fields.Int("cages"),
		CustomerID:   doc.Fields.String("customerId"),
		CustomerName: doc.Fields.String("customerName"),
		GrossWeight:  doc.Fields.Float("grossWeight"),
		EmptyWeight:  doc.Fields.Float("emptyWeight"),
		NetWeight:    doc.Fields.Float("netWeight"),
		PricePerKg:   doc.Fields.Float("pricePerKg"),
		Total:        doc.Fields.Float("total"),
		Paid:         doc.Fields.Float("paid"),
		Remaining:    doc.Fields.Float("remaining"),
		OldBalance:   doc.Fields.Float("oldBalance"),
		TotalBalance: doc.Fields.Float("totalBalance"),
		CreatedAt:    doc.CreatedAt,
	}
}

func recordsFromDocs(docs []store.Document) []domain.DailyRecord {
	records := make([]domain.DailyRecord, 0, len(docs))
	for _, doc := range docs {
		records = append(records, recordFromDoc(doc))
	}
	return records
}
