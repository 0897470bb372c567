package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
	"github.com/gin-gonic/gin"
)

const defaultSummaryMonths = 6

type transactionPayload struct {
	TransactionType string  `json:"transaction_type"`
	Category        string  `json:"category"`
	Amount          float64 `json:"amount"`
	OccurredOn      string  `json:"occurred_on"`
	Counterparty    string  `json:"counterparty"`
	AnimalID        uint    `json:"animal_id"`
	Notes           string  `json:"notes"`
}

// ShowFinanceList 渲染收支台账页面
func (a *API) ShowFinanceList(c *gin.Context) {
	filter, ok := parseTransactionFilter(c)
	if !ok {
		c.Redirect(http.StatusFound, "/farm/finance")
		return
	}

	transactions, err := a.finance.List(filter)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "finance_list.html", gin.H{
			"title": "收支台账",
			"error": "获取台账失败",
		})
		return
	}

	totals, err := a.finance.CurrentMonthTotals()
	if err != nil {
		totals = service.FinanceTotals{}
	}

	summary, err := a.finance.MonthlySummary(defaultSummaryMonths)
	if err != nil {
		summary = nil
	}

	animals, err := a.animals.ListActive()
	if err != nil {
		animals = nil
	}

	a.renderHTML(c, http.StatusOK, "finance_list.html", gin.H{
		"title":        "收支台账",
		"transactions": transactions,
		"totals":       totals,
		"summary":      summary,
		"animals":      animals,
		"categories":   db.TransactionCategories(),
		"types":        []string{db.TransactionTypeIncome, db.TransactionTypeExpense},
		"filter":       filter,
	})
}

// ListTransactions 返回台账列表 JSON
func (a *API) ListTransactions(c *gin.Context) {
	filter, ok := parseTransactionFilter(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期范围")
		return
	}

	transactions, err := a.finance.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取台账失败")
		return
	}

	items := make([]gin.H, 0, len(transactions))
	for _, entry := range transactions {
		items = append(items, transactionToPayload(entry))
	}

	c.JSON(http.StatusOK, gin.H{"transactions": items})
}

// GetTransaction 返回单条台账 JSON
func (a *API) GetTransaction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的台账ID")
		return
	}

	entry, err := a.finance.Get(id)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transaction": transactionToPayload(*entry)})
}

// CreateTransaction 新建收支条目
func (a *API) CreateTransaction(c *gin.Context) {
	input, ok := parseTransactionInput(c)
	if !ok {
		return
	}

	entry, err := a.finance.Create(input)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityTransaction, entry.ID, db.ActivityActionCreate, entry.Category)
	c.JSON(http.StatusCreated, gin.H{
		"message":     "台账已记录",
		"transaction": transactionToPayload(*entry),
	})
}

// UpdateTransaction 更新收支条目
func (a *API) UpdateTransaction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的台账ID")
		return
	}

	input, ok := parseTransactionInput(c)
	if !ok {
		return
	}

	entry, err := a.finance.Update(id, input)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityTransaction, entry.ID, db.ActivityActionUpdate, entry.Category)
	c.JSON(http.StatusOK, gin.H{
		"message":     "台账已更新",
		"transaction": transactionToPayload(*entry),
	})
}

// DeleteTransaction 删除收支条目
func (a *API) DeleteTransaction(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的台账ID")
		return
	}

	if err := a.finance.Delete(id); err != nil {
		handleTransactionError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityTransaction, id, db.ActivityActionDelete, "")
	c.JSON(http.StatusOK, gin.H{"message": "台账已删除"})
}

// GetFinanceSummary 返回本月合计与近几个月的收支趋势
func (a *API) GetFinanceSummary(c *gin.Context) {
	months := parseIntQuery(c, "months", defaultSummaryMonths)

	totals, err := a.finance.CurrentMonthTotals()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取本月合计失败")
		return
	}

	summary, err := a.finance.MonthlySummary(months)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取月度汇总失败")
		return
	}

	entries := make([]gin.H, 0, len(summary))
	for _, entry := range summary {
		entries = append(entries, gin.H{
			"month":   entry.Month,
			"income":  entry.Income,
			"expense": entry.Expense,
			"net":     entry.Net,
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"current_month": gin.H{
			"income":  totals.Income,
			"expense": totals.Expense,
			"net":     totals.Net,
		},
		"monthly": entries,
	})
}

// GetCategoryBreakdown 返回指定方向在时间范围内的分类合计
func (a *API) GetCategoryBreakdown(c *gin.Context) {
	transactionType := c.Query("type")

	fromPtr, ok := parseOptionalDate(c.Query("from"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return
	}
	toPtr, ok := parseOptionalDate(c.Query("to"))
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的结束日期")
		return
	}

	var from, to time.Time
	if fromPtr != nil {
		from = *fromPtr
	}
	if toPtr != nil {
		to = *toPtr
	}

	breakdown, err := a.finance.CategoryBreakdown(transactionType, from, to)
	if err != nil {
		handleTransactionError(c, err)
		return
	}

	items := make([]gin.H, 0, len(breakdown))
	for _, entry := range breakdown {
		items = append(items, gin.H{
			"category": entry.Category,
			"total":    entry.Total,
			"count":    entry.Count,
		})
	}

	c.JSON(http.StatusOK, gin.H{"breakdown": items})
}

func parseTransactionFilter(c *gin.Context) (service.TransactionFilter, bool) {
	filter := service.TransactionFilter{
		TransactionType: c.Query("type"),
		Category:        c.Query("category"),
	}

	fromPtr, ok := parseOptionalDate(c.Query("from"))
	if !ok {
		return service.TransactionFilter{}, false
	}
	toPtr, ok := parseOptionalDate(c.Query("to"))
	if !ok {
		return service.TransactionFilter{}, false
	}
	if fromPtr != nil {
		filter.From = *fromPtr
	}
	if toPtr != nil {
		filter.To = *toPtr
	}

	return filter, true
}

func parseTransactionInput(c *gin.Context) (service.TransactionInput, bool) {
	var payload transactionPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.TransactionInput{}, false
		}
	} else {
		payload.TransactionType = c.PostForm("transaction_type")
		payload.Category = c.PostForm("category")
		payload.OccurredOn = c.PostForm("occurred_on")
		payload.Counterparty = c.PostForm("counterparty")
		payload.Notes = c.PostForm("notes")

		if raw := c.PostForm("amount"); raw != "" {
			val, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, "金额应为数字")
				return service.TransactionInput{}, false
			}
			payload.Amount = val
		}
		if raw := c.PostForm("animal_id"); raw != "" {
			val, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondError(c, http.StatusBadRequest, "无效的档案ID")
				return service.TransactionInput{}, false
			}
			payload.AnimalID = uint(val)
		}
	}

	occurredOn := time.Now()
	if ptr, ok := parseOptionalDate(payload.OccurredOn); !ok {
		respondError(c, http.StatusBadRequest, "无效的发生日期")
		return service.TransactionInput{}, false
	} else if ptr != nil {
		occurredOn = *ptr
	}

	input := service.TransactionInput{
		TransactionType: payload.TransactionType,
		Category:        payload.Category,
		Amount:          payload.Amount,
		OccurredOn:      occurredOn,
		Counterparty:    payload.Counterparty,
		Notes:           payload.Notes,
	}
	if payload.AnimalID > 0 {
		animalID := payload.AnimalID
		input.AnimalID = &animalID
	}

	return input, true
}

func transactionToPayload(entry db.Transaction) gin.H {
	item := gin.H{
		"id":               entry.ID,
		"transaction_type": entry.TransactionType,
		"category":         entry.Category,
		"amount":           entry.Amount,
		"occurred_on":      entry.OccurredOn.Format(dateFormat),
		"counterparty":     entry.Counterparty,
		"notes":            entry.Notes,
	}

	if entry.AnimalID != nil {
		item["animal_id"] = *entry.AnimalID
	}
	if entry.Animal != nil {
		item["animal"] = gin.H{
			"id":         entry.Animal.ID,
			"tag_number": entry.Animal.TagNumber,
			"name":       entry.Animal.Name,
		}
	}

	return item
}

func handleTransactionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTransactionNotFound):
		respondError(c, http.StatusNotFound, "台账条目不存在")
	case errors.Is(err, service.ErrAnimalNotFound):
		respondError(c, http.StatusNotFound, "关联的档案不存在")
	case errors.Is(err, service.ErrTransactionInvalid):
		respondError(c, http.StatusBadRequest, "台账信息不完整或不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
