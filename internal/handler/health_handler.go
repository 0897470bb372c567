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

type healthPayload struct {
	AnimalID    uint    `json:"animal_id"`
	RecordType  string  `json:"record_type"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	VetName     string  `json:"vet_name"`
	Medicine    string  `json:"medicine"`
	Cost        float64 `json:"cost"`
	RecordDate  string  `json:"record_date"`
	NextDueDate string  `json:"next_due_date"`
}

// ShowHealthList 渲染健康记录列表页面
func (a *API) ShowHealthList(c *gin.Context) {
	filter, ok := parseHealthFilter(c)
	if !ok {
		c.Redirect(http.StatusFound, "/farm/health")
		return
	}

	records, err := a.health.List(filter)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "health_list.html", gin.H{
			"title": "健康管理",
			"error": "获取健康记录失败",
		})
		return
	}

	animals, err := a.animals.ListActive()
	if err != nil {
		animals = nil
	}

	view := a.farmSettings(c)
	dueSoon, err := a.health.DueSoon(view.AlertLeadDays)
	if err != nil {
		dueSoon = nil
	}
	overdue, err := a.health.Overdue()
	if err != nil {
		overdue = nil
	}

	a.renderHTML(c, http.StatusOK, "health_list.html", gin.H{
		"title":       "健康管理",
		"records":     records,
		"animals":     animals,
		"recordTypes": db.HealthRecordTypes(),
		"filter":      filter,
		"dueSoon":     dueSoon,
		"overdue":     overdue,
	})
}

// ListHealthRecords 返回健康记录 JSON
func (a *API) ListHealthRecords(c *gin.Context) {
	filter, ok := parseHealthFilter(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期范围")
		return
	}

	records, err := a.health.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取健康记录失败")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, healthToPayload(record))
	}

	c.JSON(http.StatusOK, gin.H{"records": items})
}

// GetHealthRecord 返回单条健康记录
func (a *API) GetHealthRecord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	record, err := a.health.Get(id)
	if err != nil {
		handleHealthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"record": healthToPayload(*record)})
}

// CreateHealthRecord 新建健康记录
func (a *API) CreateHealthRecord(c *gin.Context) {
	input, ok := parseHealthInput(c)
	if !ok {
		return
	}

	record, err := a.health.Create(input)
	if err != nil {
		handleHealthError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityHealth, record.ID, db.ActivityActionCreate, record.Title)
	c.JSON(http.StatusCreated, gin.H{
		"message": "健康记录已创建",
		"record":  healthToPayload(*record),
	})
}

// UpdateHealthRecord 更新健康记录
func (a *API) UpdateHealthRecord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	input, ok := parseHealthInput(c)
	if !ok {
		return
	}

	record, err := a.health.Update(id, input)
	if err != nil {
		handleHealthError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityHealth, record.ID, db.ActivityActionUpdate, record.Title)
	c.JSON(http.StatusOK, gin.H{
		"message": "健康记录已更新",
		"record":  healthToPayload(*record),
	})
}

// DeleteHealthRecord 删除健康记录
func (a *API) DeleteHealthRecord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	if err := a.health.Delete(id); err != nil {
		handleHealthError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityHealth, id, db.ActivityActionDelete, "")
	c.JSON(http.StatusOK, gin.H{"message": "健康记录已删除"})
}

// ListHealthDue 返回即将到期与已逾期的周期性事项
func (a *API) ListHealthDue(c *gin.Context) {
	view := a.farmSettings(c)
	leadDays := parseIntQuery(c, "lead_days", view.AlertLeadDays)

	dueSoon, err := a.health.DueSoon(leadDays)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取到期事项失败")
		return
	}

	overdue, err := a.health.Overdue()
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取逾期事项失败")
		return
	}

	dueItems := make([]gin.H, 0, len(dueSoon))
	for _, record := range dueSoon {
		dueItems = append(dueItems, healthToPayload(record))
	}
	overdueItems := make([]gin.H, 0, len(overdue))
	for _, record := range overdue {
		overdueItems = append(overdueItems, healthToPayload(record))
	}

	c.JSON(http.StatusOK, gin.H{
		"due_soon": dueItems,
		"overdue":  overdueItems,
	})
}

func parseHealthFilter(c *gin.Context) (service.HealthFilter, bool) {
	filter := service.HealthFilter{
		AnimalID:   parseUintQuery(c, "animal_id"),
		RecordType: c.Query("type"),
	}

	fromPtr, ok := parseOptionalDate(c.Query("from"))
	if !ok {
		return service.HealthFilter{}, false
	}
	toPtr, ok := parseOptionalDate(c.Query("to"))
	if !ok {
		return service.HealthFilter{}, false
	}
	if fromPtr != nil {
		filter.From = *fromPtr
	}
	if toPtr != nil {
		filter.To = *toPtr
	}

	return filter, true
}

func parseHealthInput(c *gin.Context) (service.HealthInput, bool) {
	var payload healthPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.HealthInput{}, false
		}
	} else {
		payload.RecordType = c.PostForm("record_type")
		payload.Title = c.PostForm("title")
		payload.Description = c.PostForm("description")
		payload.VetName = c.PostForm("vet_name")
		payload.Medicine = c.PostForm("medicine")
		payload.RecordDate = c.PostForm("record_date")
		payload.NextDueDate = c.PostForm("next_due_date")

		if raw := c.PostForm("animal_id"); raw != "" {
			val, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondError(c, http.StatusBadRequest, "无效的档案ID")
				return service.HealthInput{}, false
			}
			payload.AnimalID = uint(val)
		}
		if raw := c.PostForm("cost"); raw != "" {
			val, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, "费用应为数字")
				return service.HealthInput{}, false
			}
			payload.Cost = val
		}
	}

	recordDate := time.Now()
	if ptr, ok := parseOptionalDate(payload.RecordDate); !ok {
		respondError(c, http.StatusBadRequest, "无效的记录日期")
		return service.HealthInput{}, false
	} else if ptr != nil {
		recordDate = *ptr
	}

	duePtr, ok := parseOptionalDate(payload.NextDueDate)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的到期日期")
		return service.HealthInput{}, false
	}

	return service.HealthInput{
		AnimalID:    payload.AnimalID,
		RecordType:  payload.RecordType,
		Title:       payload.Title,
		Description: payload.Description,
		VetName:     payload.VetName,
		Medicine:    payload.Medicine,
		Cost:        payload.Cost,
		RecordDate:  recordDate,
		NextDueDate: duePtr,
	}, true
}

func healthToPayload(record db.HealthRecord) gin.H {
	item := gin.H{
		"id":          record.ID,
		"animal_id":   record.AnimalID,
		"record_type": record.RecordType,
		"title":       record.Title,
		"description": record.Description,
		"vet_name":    record.VetName,
		"medicine":    record.Medicine,
		"cost":        record.Cost,
		"record_date": record.RecordDate.Format(dateFormat),
	}

	if record.NextDueDate != nil {
		item["next_due_date"] = record.NextDueDate.Format(dateFormat)
	}
	if record.Animal.ID != 0 {
		item["animal"] = gin.H{
			"id":         record.Animal.ID,
			"tag_number": record.Animal.TagNumber,
			"name":       record.Animal.Name,
		}
	}

	return item
}

func handleHealthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrHealthNotFound):
		respondError(c, http.StatusNotFound, "健康记录不存在")
	case errors.Is(err, service.ErrAnimalNotFound):
		respondError(c, http.StatusNotFound, "关联的档案不存在")
	case errors.Is(err, service.ErrHealthInvalidInput):
		respondError(c, http.StatusBadRequest, "健康记录信息不完整或不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
