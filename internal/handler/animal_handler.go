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

const dateFormat = "2006-01-02"

type animalPayload struct {
	TagNumber string  `json:"tag_number"`
	Name      string  `json:"name"`
	Species   string  `json:"species"`
	Breed     string  `json:"breed"`
	Sex       string  `json:"sex"`
	BirthDate string  `json:"birth_date"`
	WeightKg  float64 `json:"weight_kg"`
	PhotoURL  string  `json:"photo_url"`
	Notes     string  `json:"notes"`
}

type animalStatusPayload struct {
	Status string `json:"status"`
}

type weightPayload struct {
	MeasuredOn string  `json:"measured_on"`
	WeightKg   float64 `json:"weight_kg"`
	Note       string  `json:"note"`
}

// ShowAnimalList 渲染动物档案列表页面
func (a *API) ShowAnimalList(c *gin.Context) {
	filter := service.AnimalFilter{
		Search:  c.Query("search"),
		Species: c.Query("species"),
		Status:  c.Query("status"),
		Page:    parseIntQuery(c, "page", 1),
		PerPage: parseIntQuery(c, "per_page", 0),
	}

	result, err := a.animals.List(filter)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "animal_list.html", gin.H{
			"title": "动物档案",
			"error": "获取档案列表失败",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "animal_list.html", gin.H{
		"title":        "动物档案",
		"animals":      result.Items,
		"total":        result.Total,
		"page":         result.Page,
		"perPage":      result.PerPage,
		"totalPages":   result.TotalPages,
		"filter":       filter,
		"species":      db.AnimalSpecies(),
		"statuses":     []string{db.AnimalStatusActive, db.AnimalStatusSold, db.AnimalStatusDeceased},
		"speciesIcons": view.SpeciesIconSVGMap(),
	})
}

// ShowAnimalEdit 渲染档案的新建或编辑页面，编辑路由带 id 路径参数。
func (a *API) ShowAnimalEdit(c *gin.Context) {
	data := gin.H{
		"title":   "新建档案",
		"species": db.AnimalSpecies(),
		"sexes":   []string{db.SexMale, db.SexFemale, db.SexUnknown},
	}

	var id uint
	if raw := c.Param("id"); raw != "" {
		parsed, err := parseUintParam(c, "id")
		if err != nil {
			c.Redirect(http.StatusFound, "/farm/animals")
			return
		}
		id = parsed
	}

	if id > 0 {
		animal, err := a.animals.Get(id)
		if err != nil {
			a.renderHTML(c, http.StatusNotFound, "animal_edit.html", gin.H{
				"title": "编辑档案",
				"error": "档案不存在或已被删除",
			})
			return
		}
		data["title"] = "编辑档案"
		data["animal"] = animal
	}

	a.renderHTML(c, http.StatusOK, "animal_edit.html", data)
}

// ShowAnimalDetail 渲染档案详情页，聚合体重、健康与相关动态。
func (a *API) ShowAnimalDetail(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		c.Redirect(http.StatusFound, "/farm/animals")
		return
	}

	animal, err := a.animals.Get(id)
	if err != nil {
		a.renderHTML(c, http.StatusNotFound, "animal_detail.html", gin.H{
			"title": "档案详情",
			"error": "档案不存在或已被删除",
		})
		return
	}

	notesHTML, err := renderMarkdown(animal.Notes)
	if err != nil {
		notesHTML = ""
	}

	weights, err := a.weights.List(animal.ID)
	if err != nil {
		weights = nil
	}

	healthRecords, err := a.health.List(service.HealthFilter{AnimalID: animal.ID})
	if err != nil {
		healthRecords = nil
	}

	var events []db.FarmEvent
	a.db.Where("animal_id = ?", animal.ID).
		Order("start_date DESC").
		Limit(10).
		Find(&events)

	var transactions []db.Transaction
	a.db.Where("animal_id = ?", animal.ID).
		Order("occurred_on DESC").
		Limit(10).
		Find(&transactions)

	a.renderHTML(c, http.StatusOK, "animal_detail.html", gin.H{
		"title":         "档案详情",
		"animal":        animal,
		"ageMonths":     animal.AgeMonths(time.Now()),
		"notesHTML":     notesHTML,
		"weights":       weights,
		"healthRecords": healthRecords,
		"events":        events,
		"transactions":  transactions,
		"speciesIcon":   view.SpeciesIconSVG(animal.Species),
	})
}

// ListAnimals 返回档案列表 JSON
func (a *API) ListAnimals(c *gin.Context) {
	filter := service.AnimalFilter{
		Search:  c.Query("search"),
		Species: c.Query("species"),
		Status:  c.Query("status"),
		Page:    parseIntQuery(c, "page", 1),
		PerPage: parseIntQuery(c, "per_page", 0),
	}

	result, err := a.animals.List(filter)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取档案列表失败")
		return
	}

	items := make([]gin.H, 0, len(result.Items))
	for _, animal := range result.Items {
		items = append(items, animalToPayload(animal))
	}

	c.JSON(http.StatusOK, gin.H{
		"animals":     items,
		"total":       result.Total,
		"page":        result.Page,
		"per_page":    result.PerPage,
		"total_pages": result.TotalPages,
	})
}

// GetAnimal 返回单个档案 JSON
func (a *API) GetAnimal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的档案ID")
		return
	}

	animal, err := a.animals.Get(id)
	if err != nil {
		handleAnimalError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"animal": animalToPayload(*animal)})
}

// CreateAnimal 新建档案
func (a *API) CreateAnimal(c *gin.Context) {
	input, ok := parseAnimalInput(c)
	if !ok {
		return
	}

	animal, err := a.animals.Create(input)
	if err != nil {
		handleAnimalError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityAnimal, animal.ID, db.ActivityActionCreate, animal.TagNumber)
	c.JSON(http.StatusCreated, gin.H{
		"message": "档案已创建",
		"animal":  animalToPayload(*animal),
	})
}

// UpdateAnimal 更新档案基础信息，状态流转见 UpdateAnimalStatus。
func (a *API) UpdateAnimal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的档案ID")
		return
	}

	input, ok := parseAnimalInput(c)
	if !ok {
		return
	}

	animal, err := a.animals.Update(id, input)
	if err != nil {
		handleAnimalError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityAnimal, animal.ID, db.ActivityActionUpdate, animal.TagNumber)
	c.JSON(http.StatusOK, gin.H{
		"message": "档案已更新",
		"animal":  animalToPayload(*animal),
	})
}

// UpdateAnimalStatus 处理档案状态流转（售出/死亡）。
func (a *API) UpdateAnimalStatus(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的档案ID")
		return
	}

	var payload animalStatusPayload
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	} else {
		payload.Status = c.PostForm("status")
	}

	animal, err := a.animals.UpdateStatus(id, payload.Status)
	if err != nil {
		handleAnimalError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityAnimal, animal.ID, db.ActivityActionStatus, animal.TagNumber+" -> "+animal.Status)
	c.JSON(http.StatusOK, gin.H{
		"message": "状态已更新",
		"animal":  animalToPayload(*animal),
	})
}

// DeleteAnimal 删除档案并清理关联数据
func (a *API) DeleteAnimal(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的档案ID")
		return
	}

	if err := a.animals.Delete(id); err != nil {
		handleAnimalError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityAnimal, id, db.ActivityActionDelete, "")
	c.JSON(http.StatusOK, gin.H{"message": "档案已删除"})
}

// RecordAnimalWeight 为指定动物记录一次称重，同日重复提交会覆盖。
func (a *API) RecordAnimalWeight(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的档案ID")
		return
	}

	var payload weightPayload
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return
		}
	} else {
		payload.MeasuredOn = c.PostForm("measured_on")
		payload.Note = c.PostForm("note")
		if raw := c.PostForm("weight_kg"); raw != "" {
			val, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, "体重应为数字")
				return
			}
			payload.WeightKg = val
		}
	}

	measuredOn := time.Now()
	if ptr, ok := parseOptionalDate(payload.MeasuredOn); !ok {
		respondError(c, http.StatusBadRequest, "无效的称重日期")
		return
	} else if ptr != nil {
		measuredOn = *ptr
	}

	record, err := a.weights.Record(service.WeightInput{
		AnimalID:   id,
		MeasuredOn: measuredOn,
		WeightKg:   payload.WeightKg,
		Note:       payload.Note,
	})
	if err != nil {
		handleWeightError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "称重已记录",
		"record":  weightToPayload(*record),
	})
}

// ListAnimalWeights 返回指定动物的体重历史
func (a *API) ListAnimalWeights(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的档案ID")
		return
	}

	records, err := a.weights.List(id)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取体重历史失败")
		return
	}

	items := make([]gin.H, 0, len(records))
	for _, record := range records {
		items = append(items, weightToPayload(record))
	}

	c.JSON(http.StatusOK, gin.H{"records": items})
}

// DeleteWeightRecord 删除一条称重记录并回写最新体重
func (a *API) DeleteWeightRecord(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的记录ID")
		return
	}

	if err := a.weights.Delete(id); err != nil {
		handleWeightError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "称重记录已删除"})
}

func parseAnimalInput(c *gin.Context) (service.AnimalInput, bool) {
	var payload animalPayload

	if strings.Contains(c.GetHeader("Content-Type"), "application/json") {
		if !bindJSON(c, &payload, "请求参数不合法") {
			return service.AnimalInput{}, false
		}
	} else {
		payload.TagNumber = c.PostForm("tag_number")
		payload.Name = c.PostForm("name")
		payload.Species = c.PostForm("species")
		payload.Breed = c.PostForm("breed")
		payload.Sex = c.PostForm("sex")
		payload.BirthDate = c.PostForm("birth_date")
		payload.PhotoURL = c.PostForm("photo_url")
		payload.Notes = c.PostForm("notes")

		if raw := c.PostForm("weight_kg"); raw != "" {
			val, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				respondError(c, http.StatusBadRequest, "体重应为数字")
				return service.AnimalInput{}, false
			}
			payload.WeightKg = val
		}
	}

	birthPtr, ok := parseOptionalDate(payload.BirthDate)
	if !ok {
		respondError(c, http.StatusBadRequest, "无效的出生日期")
		return service.AnimalInput{}, false
	}

	return service.AnimalInput{
		TagNumber: payload.TagNumber,
		Name:      payload.Name,
		Species:   payload.Species,
		Breed:     payload.Breed,
		Sex:       payload.Sex,
		BirthDate: birthPtr,
		WeightKg:  payload.WeightKg,
		PhotoURL:  payload.PhotoURL,
		Notes:     payload.Notes,
	}, true
}

func parseOptionalDate(value string) (*time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, true
	}

	t, err := time.ParseInLocation(dateFormat, value, time.Local)
	if err != nil {
		return nil, false
	}

	return &t, true
}

func animalToPayload(animal db.Animal) gin.H {
	item := gin.H{
		"id":         animal.ID,
		"tag_number": animal.TagNumber,
		"name":       animal.Name,
		"species":    animal.Species,
		"breed":      animal.Breed,
		"sex":        animal.Sex,
		"status":     animal.Status,
		"weight_kg":  animal.WeightKg,
		"photo_url":  animal.PhotoURL,
		"notes":      animal.Notes,
		"age_months": animal.AgeMonths(time.Now()),
	}

	if animal.BirthDate != nil {
		item["birth_date"] = animal.BirthDate.Format(dateFormat)
	}

	return item
}

func weightToPayload(record db.WeightRecord) gin.H {
	return gin.H{
		"id":          record.ID,
		"animal_id":   record.AnimalID,
		"measured_on": record.MeasuredOn.Format(dateFormat),
		"weight_kg":   record.WeightKg,
		"note":        record.Note,
	}
}

func handleAnimalError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrAnimalNotFound):
		respondError(c, http.StatusNotFound, "档案不存在")
	case errors.Is(err, service.ErrAnimalTagTaken):
		respondError(c, http.StatusConflict, "耳标号已被使用")
	case errors.Is(err, service.ErrAnimalStatusInvalid):
		respondError(c, http.StatusBadRequest, "状态流转不合法")
	case errors.Is(err, service.ErrAnimalInvalidInput):
		respondError(c, http.StatusBadRequest, "档案信息不完整或不合法")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}

func handleWeightError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrWeightNotFound):
		respondError(c, http.StatusNotFound, "称重记录不存在")
	case errors.Is(err, service.ErrWeightInvalid):
		respondError(c, http.StatusBadRequest, "称重数据不合法")
	case errors.Is(err, service.ErrAnimalNotFound):
		respondError(c, http.StatusNotFound, "档案不存在")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}

// recordActivity 将一次后台操作写入动态流，失败仅记录日志。
func (a *API) recordActivity(c *gin.Context, entity string, entityID uint, action, details string) {
	userID, _ := currentUserID(c)
	a.activities.Record(userID, entity, entityID, action, details)
}
