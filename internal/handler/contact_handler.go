package handler

import (
	"errors"
	"net/http"

	"github.com/farmlog/internal/db"
	"github.com/farmlog/internal/service"
	"github.com/gin-gonic/gin"
)

type contactRequest struct {
	Kind    string `json:"kind"`
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	Company string `json:"company"`
	Note    string `json:"note"`
	Sort    *int   `json:"sort"`
	Visible *bool  `json:"visible"`
}

type contactReorderRequest struct {
	IDs []uint `json:"ids"`
}

// ShowContactList 渲染往来通讯录管理页面
func (a *API) ShowContactList(c *gin.Context) {
	contacts, err := a.contacts.List(true)
	if err != nil {
		a.renderHTML(c, http.StatusInternalServerError, "contact_list.html", gin.H{
			"title": "通讯录",
			"error": "获取通讯录失败",
		})
		return
	}

	a.renderHTML(c, http.StatusOK, "contact_list.html", gin.H{
		"title":    "通讯录",
		"contacts": contacts,
		"kinds":    db.ContactKinds(),
	})
}

// ListContacts 返回通讯录列表 JSON
func (a *API) ListContacts(c *gin.Context) {
	includeHidden := c.Query("all") == "1"

	contacts, err := a.contacts.List(includeHidden)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "获取通讯录失败")
		return
	}

	items := make([]gin.H, 0, len(contacts))
	for _, contact := range contacts {
		items = append(items, contactToPayload(contact))
	}

	c.JSON(http.StatusOK, gin.H{"contacts": items})
}

// CreateContact 新建联系人
func (a *API) CreateContact(c *gin.Context) {
	var payload contactRequest
	if !bindJSON(c, &payload, "请检查联系人信息") {
		return
	}

	contact, err := a.contacts.Create(payload.toInput())
	if err != nil {
		handleContactError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityContact, contact.ID, db.ActivityActionCreate, contact.Name)
	c.JSON(http.StatusCreated, gin.H{
		"message": "联系人已创建",
		"contact": contactToPayload(*contact),
	})
}

// UpdateContact 更新联系人
func (a *API) UpdateContact(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	var payload contactRequest
	if !bindJSON(c, &payload, "请检查联系人信息") {
		return
	}

	contact, err := a.contacts.Update(id, payload.toInput())
	if err != nil {
		handleContactError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityContact, contact.ID, db.ActivityActionUpdate, contact.Name)
	c.JSON(http.StatusOK, gin.H{
		"message": "联系人已更新",
		"contact": contactToPayload(*contact),
	})
}

// DeleteContact 删除联系人
func (a *API) DeleteContact(c *gin.Context) {
	id, err := parseUintParam(c, "id")
	if err != nil {
		respondError(c, http.StatusBadRequest, "无效的联系人ID")
		return
	}

	if err := a.contacts.Delete(id); err != nil {
		handleContactError(c, err)
		return
	}

	a.recordActivity(c, db.ActivityEntityContact, id, db.ActivityActionDelete, "")
	c.JSON(http.StatusOK, gin.H{"message": "联系人已删除"})
}

// ReorderContacts 按传入的 ID 顺序重排通讯录
func (a *API) ReorderContacts(c *gin.Context) {
	var payload contactReorderRequest
	if !bindJSON(c, &payload, "排序数据格式不正确") {
		return
	}

	if err := a.contacts.Reorder(payload.IDs); err != nil {
		respondError(c, http.StatusInternalServerError, "更新排序失败")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "排序已更新"})
}

func (r contactRequest) toInput() service.ContactInput {
	return service.ContactInput{
		Kind:    r.Kind,
		Name:    r.Name,
		Phone:   r.Phone,
		Email:   r.Email,
		Company: r.Company,
		Note:    r.Note,
		Sort:    r.Sort,
		Visible: r.Visible,
	}
}

func contactToPayload(contact db.Contact) gin.H {
	return gin.H{
		"id":      contact.ID,
		"kind":    contact.Kind,
		"name":    contact.Name,
		"phone":   contact.Phone,
		"email":   contact.Email,
		"company": contact.Company,
		"note":    contact.Note,
		"sort":    contact.Sort,
		"visible": contact.Visible,
	}
}

func handleContactError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrContactNotFound):
		respondError(c, http.StatusNotFound, "联系人不存在")
	case errors.Is(err, service.ErrContactInvalidInput):
		respondError(c, http.StatusBadRequest, "请检查必填项")
	default:
		respondError(c, http.StatusInternalServerError, "操作失败")
	}
}
