package api

import (
	"net/http"

	"inventory-service/internal/models"
	"inventory-service/internal/service"

	"github.com/gin-gonic/gin"
)

// listItems handles GET /items with optional filters and pagination
func (h *Handler) listItems(c *gin.Context) {
	page, ok := h.pageRequest(c)
	if !ok {
		return
	}
	categoryID, ok := parseOptionalID(c, "categoryId")
	if !ok {
		return
	}
	supplierID, ok := parseOptionalID(c, "supplierId")
	if !ok {
		return
	}

	filter := models.ItemFilter{
		PageRequest: page,
		CategoryID:  categoryID,
		SupplierID:  supplierID,
		Status:      c.Query("status"),
		Search:      c.Query("search"),
	}
	items, total, err := h.items.List(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondList(c, page, items, total)
}

func (h *Handler) getItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	item, err := h.items.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// createItem handles item creation. The stock alert check runs after the
// response is written and never changes it.
func (h *Handler) createItem(c *gin.Context) {
	var req service.CreateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	item, _, err := h.items.Create(c.Request.Context(), &req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *Handler) updateItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req service.UpdateItemRequest
	if !bindJSON(c, &req) {
		return
	}
	userID, ok := h.userID(c)
	if !ok {
		return
	}

	item, _, err := h.items.Update(c.Request.Context(), id, &req, userID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) deleteItem(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.items.Delete(c.Request.Context(), id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
