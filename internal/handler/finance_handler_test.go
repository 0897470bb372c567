package handler

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/farmlog/internal/db"
	"github.com/gin-gonic/gin"
)

func TestCreateTransactionFromForm(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	values := url.Values{}
	values.Set("transaction_type", "income")
	values.Set("category", "livestock_sale")
	values.Set("amount", "4200.50")
	values.Set("occurred_on", time.Now().Format(dateFormat))
	values.Set("counterparty", "县屠宰场")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = formRequest(http.MethodPost, "/farm/api/transactions", values)

	api.CreateTransaction(c)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	body := decodeBody(t, w)
	entry, ok := body["transaction"].(map[string]any)
	if !ok {
		t.Fatalf("expected transaction object, got %v", body)
	}
	if entry["amount"].(float64) != 4200.50 {
		t.Fatalf("expected amount 4200.50, got %v", entry["amount"])
	}
	if entry["counterparty"] != "县屠宰场" {
		t.Fatalf("expected counterparty preserved, got %v", entry["counterparty"])
	}
}

func TestCreateTransactionRejectsBadAmount(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	values := url.Values{}
	values.Set("transaction_type", "expense")
	values.Set("category", "feed")
	values.Set("amount", "abc")
	values.Set("occurred_on", "2026-03-01")

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = formRequest(http.MethodPost, "/farm/api/transactions", values)

	api.CreateTransaction(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestCreateTransactionRejectsZeroAmount(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	payload := map[string]any{
		"transaction_type": "expense",
		"category":         "feed",
		"amount":           0,
		"occurred_on":      "2026-03-01",
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = jsonRequest(t, http.MethodPost, "/farm/api/transactions", payload)

	api.CreateTransaction(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}

func TestGetFinanceSummaryShape(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	entries := []db.Transaction{
		{TransactionType: db.TransactionTypeIncome, Category: db.TransactionCategoryProduceSale, Amount: 900, OccurredOn: time.Now()},
		{TransactionType: db.TransactionTypeExpense, Category: db.TransactionCategoryFeed, Amount: 250, OccurredOn: time.Now()},
	}
	for i := range entries {
		if err := db.DB.Create(&entries[i]).Error; err != nil {
			t.Fatalf("failed to seed transaction: %v", err)
		}
	}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/farm/api/finance/summary?months=3", nil)

	api.GetFinanceSummary(c)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}

	body := decodeBody(t, w)
	current, ok := body["current_month"].(map[string]any)
	if !ok {
		t.Fatalf("expected current_month object, got %v", body)
	}
	if current["income"].(float64) != 900 {
		t.Fatalf("expected income 900, got %v", current["income"])
	}
	if current["expense"].(float64) != 250 {
		t.Fatalf("expected expense 250, got %v", current["expense"])
	}
	if current["net"].(float64) != 650 {
		t.Fatalf("expected net 650, got %v", current["net"])
	}

	monthly, ok := body["monthly"].([]any)
	if !ok {
		t.Fatalf("expected monthly array, got %v", body)
	}
	if len(monthly) != 3 {
		t.Fatalf("expected 3 monthly entries, got %d", len(monthly))
	}
}

func TestGetCategoryBreakdownRejectsBadType(t *testing.T) {
	api, cleanup := setupTestDB(t)
	defer cleanup()

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/farm/api/finance/breakdown?type=transfer", nil)

	api.GetCategoryBreakdown(c)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", w.Code)
	}
}
