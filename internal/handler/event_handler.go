package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
	"github.com/farmlog/internal/view"
	"github.com/gin-gonic/gin"
)

type eventPayload struct {
	Title     string `json:"title"`
	EventType string `json:"event_type"`
	AnimalID  uint   `json:"animal_id"`
	StartDate string `json:"start_date"`
	Location  string `json:"location"`
	Notes     string `json:"notes"`
}

// ShowEventList 渲染农事事件列表页面
func (a *API) ShowEventList(c *gin.Context) {
	filter, ok := parseEventFilter(c)
	if !ok {
		c.Redirect(http.StatusFound, "/farm/events")
		return
	}

	events, err := a.events.List(filter)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "event_list.html", gin.H{
			"title": "农事安排",
			"error": "获取事件列表失败",
		})
		return
	}

	animals, err := a.animals.ListActive()
	if err != nil {
		animals = nil
	}

	upcoming, err := a.events.Upcoming(7)
	if err != nil {
		upcoming = nil
	}

	a.renderHTML(c, http.StatusOK, "event_list.html", gin.H{
		"title":      "农事安排",
		"events":     events,
		"animals":    animals,
		"eventTypes": db.FarmEventTypes(),
		"statuses":   []string{db.EventStatusScheduled, db.EventStatusCompleted, db.EventStatusCancelled},
		"filter":     filter,
		"upcoming":   upcoming,
		"eventIcons": view.EventIconSVGMap(),
	})
}

// ListEvents 返回事件列表 JSON
func (a *API) ListEvents(c *gin.Context) {
	filter, ok := parseEventFilter(c)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的日期范围")
		return
	}

	events, err := a.events.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取事件列表失败")
		return
	}

	items := make([]gin.H, 0, len(events))
	for _, event := range events {
		items = append(items, eventToPayload(event))
	}

	c.JSON(http.StatusOK, gin.H{"events": items})
}

// GetEvent 返回单个事件 JSON
func (a *API) GetEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的事件ID")
		return
	}

	event, err := a.events.Get(id)
	if err != nil {
		handleEventError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"event": eventToPayload(*event)})
}

// CreateEvent 新建农事事件，初始状态固定为已排期。
func (a *API) CreateEvent(c *gin.Context) {
	input, ok := parseEventInput(c)
	if !ok {
		return
	}

	event, err := a.events.Create(input)
	if err != nil {
		handleEventError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityEvent, event.ID, db.ActivityActionCreate, event.Title)
	c.JSON(http.StatusCreated, gin.H{
		"message": "事件已创建",
		"event":   eventToPayload(*event),
	})
}

// UpdateEvent 更新事件内容，不改变状态。
func (a *API) UpdateEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的事件ID")
		return
	}

	input, ok := parseEventInput(c)
	if !ok {
		return
	}

	event, err := a.events.Update(id, input)
	if err != nil {
		handleEventError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityEvent, event.ID, db.ActivityActionUpdate, event.Title)
	c.JSON(http.StatusOK, gin.H{
		"message": "事件已更新",
		"event":   eventToPayload(*event),
	})
}

// CompleteEvent 将事件标记为已完成
func (a *API) CompleteEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的事件ID")
		return
	}

	event, err := a.events.MarkCompleted(id)
	if err != nil {
		handleEventError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityEvent, event.ID, db.ActivityActionStatus, event.Title+" -> "+event.Status)
	c.JSON(http.StatusOK, gin.H{
		"message": "事件已完成",
		"event":   eventToPayload(*event),
	})
}

// CancelEvent 将事件标记为已取消
func (a *API) CancelEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的事件ID")
		return
	}

	event, err := a.events.MarkCancelled(id)
	if err != nil {
		handleEventError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityEvent, event.ID, db.ActivityActionStatus, event.Title+" -> "+event.Status)
	c.JSON(http.StatusOK, gin.H{
		"message": "事件已取消",
		"event":   eventToPayload(*event),
	})
}

// DeleteEvent 删除事件
func (a *API) DeleteEvent(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的事件ID")
		return
	}

	if err := a.events.Delete(id); err != nil {
		handleEventError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityEvent, id, db.ActivityActionDelete, "")
	c.JSON(http.StatusOK, gin.H{"message": "事件已删除"})
}

// ListUpcomingEvents 返回未来 N 天内已排期的事件
func (a *API) ListUpcomingEvents(c *gin.Context) {
	days := parseIntQuery(c, "days", 7)

	events, err := a.events.Upcoming(days)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取近期事件失败")
		return
	}

	items := make([]gin.H, 0, len(events))
	for _, event := range events {
		items = append(items, eventToPayload(event))
	}

	c.JSON(http.StatusOK, gin.H{"events": items})
}

func parseEventFilter(c *gin.Context) (service.EventFilter, bool) {
	filter := service.EventFilter{
		Search:    c.Query("search"),
		EventType: c.Query("type"),
		Status:    c.Query("status"),
	}

	fromPtr, ok := parseOptionalDate(c.Query("from"))
	if !ok {
		return service.EventFilter{}, false
	}
	toPtr, ok := parseOptionalDate(c.Query("to"))
	if !ok {
		return service.EventFilter{}, false
	}
	if fromPtr != nil {
		filter.From = *fromPtr
	}
	if toPtr != nil {
		filter.To = *toPtr
	}

	return filter, true
}

func parseEventInput(c *gin.Context) (service.EventInput, bool) {
	var payload eventPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.EventInput{}, false
		}
	} else {
		payload.Title = c.PostForm("title")
		payload.EventType = c.PostForm("event_type")
		payload.StartDate = c.PostForm("start_date")
		payload.Location = c.PostForm("location")
		payload.Notes = c.PostForm("notes")

		if raw := c.PostForm("animal_id"); raw != "" {
			val, err := strconv.ParseUint(raw, 10, 32)
			if err != nil {
				respondError(c, http.StatusBadRequest, "无效的档案ID")
				return service.EventInput{}, false
			}
			payload.AnimalID = uint(val)
		}
	}

	startDate := time.Now()
	if ptr, ok := parseOptionalDate(payload.StartDate); !ok {
		respondError(c, http.StatusBadRequest, "无效的开始日期")
		return service.EventInput{}, false
	} else if ptr != nil {
		startDate = *ptr
	}

	input := service.EventInput{
		Title:     payload.Title,
		EventType: payload.EventType,
		StartDate: startDate,
		Location:  payload.Location,
		Notes:     payload.Notes,
	}
	if payload.AnimalID > 0 {
		animalID := payload.AnimalID
		input.AnimalID = &animalID
	}

	return input, true
}

func eventToPayload(event db.FarmEvent) gin.H {
	item := gin.H{
		"id":         event.ID,
		"title":      event.Title,
		"event_type": event.EventType,
		"start_date": event.StartDate.Format(dateFormat),
		"location":   event.Location,
		"status":     event.Status,
		"notes":      event.Notes,
	}

	if event.AnimalID != nil {
		item["animal_id"] = *event.AnimalID
	}
	if event.Animal != nil {
		item["animal"] = gin.H{
			"id":         event.Animal.ID,
			"tag_number": event.Animal.TagNumber,
			"name":       event.Animal.Name,
		}
	}

	return item
}

func handleEventError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrEventNotFound):
		respondError(c, http.StatusNotFound, "事件不存在")
	case errors.Is(err, service.ErrEventStatusInvalid):
		respondError(c, http.StatusBadRequest, "事件状态流转不合法")
	case errors.Is(err, service.ErrAnimalNotFound):
		respondError(c, http.StatusNotFound, "关联的档案不存在")
	case errors.Is(err, service.ErrEventInvalidInput):
		respondError(c, http.StatusBadRequest, "事件信息不完整或不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
