package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/farmlog/internal/db"
	"gorm.io/gorm"
)

var (
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrTransactionInvalid  = errors.New("invalid transaction input")
)

// FinanceService handles ledger entries and money aggregations.
type FinanceService struct {
	db *gorm.DB
}

// TransactionFilter describes filters for listing ledger entries.
// From/To bound the occurrence date, zero values are ignored.
type TransactionFilter struct {
	TransactionType string
	Category        string
	From            time.Time
	To              time.Time
}

// TransactionInput represents fields accepted when creating or updating an entry.
type TransactionInput struct {
	TransactionType string
	Category        string
	Amount          float64
	OccurredOn      time.Time
	Counterparty    string
	AnimalID        *uint
	Notes           string
}

// FinanceTotals aggregates income and expense over a period.
type FinanceTotals struct {
	Income  float64
	Expense float64
	Net     float64
}

// MonthlySummaryEntry carries the totals of a single month.
type MonthlySummaryEntry struct {
	Month string
	FinanceTotals
}

// CategoryTotal carries the total for one category inside a period.
type CategoryTotal struct {
	Category string
	Total    float64
	Count    int64
}

// NewFinanceService creates a FinanceService instance.
func NewFinanceService(gdb *gorm.DB) *FinanceService {
	return &FinanceService{db: gdb}
}

// List returns ledger entries matching the filter, newest first.
func (s *FinanceService) List(filter TransactionFilter) ([]db.Transaction, error) {
	var entries []db.Transaction

	query := s.db.Model(&db.Transaction{}).Preload("Animal")

	if transactionType := strings.TrimSpace(filter.TransactionType); transactionType != "" {
		query = query.Where("transaction_type = ?", transactionType)
	}
	if category := strings.TrimSpace(filter.Category); category != "" {
		query = query.Where("category = ?", category)
	}
	if !filter.From.IsZero() {
		query = query.Where("occurred_on >= ?", normalizeToDate(filter.From))
	}
	if !filter.To.IsZero() {
		query = query.Where("occurred_on <= ?", normalizeToDate(filter.To))
	}

	if err := query.Order("occurred_on DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}

	return entries, nil
}

// Get fetches a ledger entry by id.
func (s *FinanceService) Get(id uint) (*db.Transaction, error) {
	var entry db.Transaction
	if err := s.db.Preload("Animal").First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	return &entry, nil
}

// Create inserts a new ledger entry.
func (s *FinanceService) Create(input TransactionInput) (*db.Transaction, error) {
	if err := s.validateTransactionInput(input); err != nil {
		return nil, err
	}

	entry := db.Transaction{
		TransactionType: strings.ToLower(strings.TrimSpace(input.TransactionType)),
		Category:        strings.ToLower(strings.TrimSpace(input.Category)),
		Amount:          input.Amount,
		OccurredOn:      normalizeToDate(input.OccurredOn),
		Counterparty:    strings.TrimSpace(input.Counterparty),
		AnimalID:        normalizeAnimalRef(input.AnimalID),
		Notes:           input.Notes,
	}

	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("create transaction: %w", err)
	}
	return &entry, nil
}

// Update modifies an existing ledger entry.
func (s *FinanceService) Update(id uint, input TransactionInput) (*db.Transaction, error) {
	if err := s.validateTransactionInput(input); err != nil {
		return nil, err
	}

	var existing db.Transaction
	if err := s.db.First(&existing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("find transaction: %w", err)
	}

	existing.TransactionType = strings.ToLower(strings.TrimSpace(input.TransactionType))
	existing.Category = strings.ToLower(strings.TrimSpace(input.Category))
	existing.Amount = input.Amount
	existing.OccurredOn = normalizeToDate(input.OccurredOn)
	existing.Counterparty = strings.TrimSpace(input.Counterparty)
	existing.AnimalID = normalizeAnimalRef(input.AnimalID)
	existing.Notes = input.Notes

	if err := s.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update transaction: %w", err)
	}
	return &existing, nil
}

// Delete removes a ledger entry.
func (s *FinanceService) Delete(id uint) error {
	var entry db.Transaction
	if err := s.db.First(&entry, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTransactionNotFound
		}
		return fmt.Errorf("find transaction: %w", err)
	}
	if err := s.db.Delete(&entry).Error; err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

// CurrentMonthTotals aggregates the running month for the dashboard.
func (s *FinanceService) CurrentMonthTotals() (FinanceTotals, error) {
	now := time.Now()
	start := monthStart(now)
	return s.totalsBetween(start, start.AddDate(0, 1, 0))
}

// MonthlySummary returns totals for each of the last months, oldest first.
// The running month is included as the last entry.
func (s *FinanceService) MonthlySummary(months int) ([]MonthlySummaryEntry, error) {
	if months < 1 {
		months = 1
	}
	if months > 24 {
		months = 24
	}

	current := monthStart(time.Now())
	summary := make([]MonthlySummaryEntry, 0, months)

	for i := months - 1; i >= 0; i-- {
		start := current.AddDate(0, -i, 0)
		totals, err := s.totalsBetween(start, start.AddDate(0, 1, 0))
		if err != nil {
			return nil, err
		}
		summary = append(summary, MonthlySummaryEntry{
			Month:         start.Format("2006-01"),
			FinanceTotals: totals,
		})
	}

	return summary, nil
}

// CategoryBreakdown sums entries of one direction per category inside a period.
// Categories are ordered by their total, largest first.
func (s *FinanceService) CategoryBreakdown(transactionType string, from, to time.Time) ([]CategoryTotal, error) {
	transactionType = strings.ToLower(strings.TrimSpace(transactionType))
	if transactionType != db.TransactionTypeIncome && transactionType != db.TransactionTypeExpense {
		return nil, fmt.Errorf("%w: unsupported transaction type %s", ErrTransactionInvalid, transactionType)
	}

	query := s.db.Model(&db.Transaction{}).
		Where("transaction_type = ?", transactionType)

	if !from.IsZero() {
		query = query.Where("occurred_on >= ?", normalizeToDate(from))
	}
	if !to.IsZero() {
		query = query.Where("occurred_on <= ?", normalizeToDate(to))
	}

	var rows []CategoryTotal
	if err := query.
		Select("category, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS count").
		Group("category").
		Order("total DESC").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("aggregate categories: %w", err)
	}

	return rows, nil
}

// totalsBetween sums both directions inside [from, to).
func (s *FinanceService) totalsBetween(from, to time.Time) (FinanceTotals, error) {
	var row struct {
		Income  float64
		Expense float64
	}

	if err := s.db.Model(&db.Transaction{}).
		Select(
			"COALESCE(SUM(CASE WHEN transaction_type = ? THEN amount ELSE 0 END), 0) AS income, "+
				"COALESCE(SUM(CASE WHEN transaction_type = ? THEN amount ELSE 0 END), 0) AS expense",
			db.TransactionTypeIncome, db.TransactionTypeExpense,
		).
		Where("occurred_on >= ? AND occurred_on < ?", from, to).
		Scan(&row).Error; err != nil {
		return FinanceTotals{}, fmt.Errorf("aggregate totals: %w", err)
	}

	return FinanceTotals{
		Income:  row.Income,
		Expense: row.Expense,
		Net:     row.Income - row.Expense,
	}, nil
}

func (s *FinanceService) validateTransactionInput(input TransactionInput) error {
	transactionType := strings.ToLower(strings.TrimSpace(input.TransactionType))
	if transactionType != db.TransactionTypeIncome && transactionType != db.TransactionTypeExpense {
		return fmt.Errorf("%w: unsupported transaction type %s", ErrTransactionInvalid, input.TransactionType)
	}
	if !db.IsValidTransactionCategory(strings.ToLower(strings.TrimSpace(input.Category))) {
		return fmt.Errorf("%w: unsupported category %s", ErrTransactionInvalid, input.Category)
	}
	if input.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", ErrTransactionInvalid)
	}
	if input.OccurredOn.IsZero() {
		return fmt.Errorf("%w: occurrence date is required", ErrTransactionInvalid)
	}

	if ref := normalizeAnimalRef(input.AnimalID); ref != nil {
		var animal db.Animal
		if err := s.db.First(&animal, *ref).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrAnimalNotFound
			}
			return fmt.Errorf("find animal: %w", err)
		}
	}
	return nil
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
