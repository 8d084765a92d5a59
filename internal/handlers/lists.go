package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kosarica/catalog-service/internal/apperrors"
	"github.com/kosarica/catalog-service/internal/database"
	"github.com/kosarica/catalog-service/internal/middleware"
)

// ListsHandler serves the /v2/lists shopping-list endpoints. All
// queries are scoped to the authenticated user.
type ListsHandler struct {
	pool *pgxpool.Pool
}

// NewListsHandler creates the shopping lists handler.
func NewListsHandler(pool *pgxpool.Pool) *ListsHandler {
	return &ListsHandler{pool: pool}
}

// List godoc
// @Summary List the caller's shopping lists
// @Tags lists
// @Success 200 {array} database.ShoppingList
// @Router /v2/lists [get]
func (h *ListsHandler) List(c *gin.Context) {
	rows, err := h.pool.Query(c.Request.Context(), `
		SELECT id, user_id, name, created_at FROM shopping_lists
		WHERE user_id = $1 ORDER BY created_at DESC`, middleware.UserID(c))
	if err != nil {
		respondError(c, fmt.Errorf("failed to list shopping lists: %w", err))
		return
	}
	defer rows.Close()

	lists := []database.ShoppingList{}
	for rows.Next() {
		var l database.ShoppingList
		if err := rows.Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt); err != nil {
			respondError(c, fmt.Errorf("failed to scan shopping list: %w", err))
			return
		}
		lists = append(lists, l)
	}
	if err := rows.Err(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, lists)
}

type createListRequest struct {
	Name string `json:"name" binding:"required"`
}

// Create godoc
// @Summary Create a shopping list
// @Tags lists
// @Accept json
// @Param request body createListRequest true "list"
// @Success 201 {object} database.ShoppingList
// @Router /v2/lists [post]
func (h *ListsHandler) Create(c *gin.Context) {
	var req createListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	var l database.ShoppingList
	err := h.pool.QueryRow(c.Request.Context(), `
		INSERT INTO shopping_lists (user_id, name, created_at)
		VALUES ($1, $2, NOW())
		RETURNING id, user_id, name, created_at`,
		middleware.UserID(c), req.Name).Scan(&l.ID, &l.UserID, &l.Name, &l.CreatedAt)
	if err != nil {
		respondError(c, fmt.Errorf("failed to create shopping list: %w", err))
		return
	}
	c.JSON(http.StatusCreated, l)
}

// Delete godoc
// @Summary Delete a shopping list and its items
// @Tags lists
// @Param id path int true "list id"
// @Success 204
// @Failure 404 {object} map[string]string
// @Router /v2/lists/{id} [delete]
func (h *ListsHandler) Delete(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.ownList(ctx, middleware.UserID(c), listID); err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.pool.Exec(ctx, `DELETE FROM shopping_list_items WHERE list_id = $1`, listID); err != nil {
		respondError(c, fmt.Errorf("failed to delete list items: %w", err))
		return
	}
	if _, err := h.pool.Exec(ctx, `DELETE FROM shopping_lists WHERE id = $1`, listID); err != nil {
		respondError(c, fmt.Errorf("failed to delete list: %w", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// Items godoc
// @Summary List the items of a shopping list
// @Tags lists
// @Param id path int true "list id"
// @Success 200 {array} database.ShoppingListItem
// @Router /v2/lists/{id}/items [get]
func (h *ListsHandler) Items(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.ownList(ctx, middleware.UserID(c), listID); err != nil {
		respondError(c, err)
		return
	}

	rows, err := h.pool.Query(ctx, `
		SELECT id, list_id, g_product_id, note, quantity, is_checked
		FROM shopping_list_items WHERE list_id = $1 ORDER BY id`, listID)
	if err != nil {
		respondError(c, fmt.Errorf("failed to list items: %w", err))
		return
	}
	defer rows.Close()

	items := []database.ShoppingListItem{}
	for rows.Next() {
		var it database.ShoppingListItem
		if err := rows.Scan(&it.ID, &it.ListID, &it.GProductID, &it.Note, &it.Quantity, &it.IsChecked); err != nil {
			respondError(c, fmt.Errorf("failed to scan item: %w", err))
			return
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

type addItemRequest struct {
	GProductID *int64 `json:"g_product_id"`
	Note       string `json:"note"`
	Quantity   int    `json:"quantity"`
}

// AddItem godoc
// @Summary Add an item to a shopping list
// @Tags lists
// @Accept json
// @Param id path int true "list id"
// @Param request body addItemRequest true "item"
// @Success 201 {object} database.ShoppingListItem
// @Router /v2/lists/{id}/items [post]
func (h *ListsHandler) AddItem(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req addItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	ctx := c.Request.Context()
	if err := h.ownList(ctx, middleware.UserID(c), listID); err != nil {
		respondError(c, err)
		return
	}

	var it database.ShoppingListItem
	err := h.pool.QueryRow(ctx, `
		INSERT INTO shopping_list_items (list_id, g_product_id, note, quantity, is_checked)
		VALUES ($1, $2, $3, $4, false)
		RETURNING id, list_id, g_product_id, note, quantity, is_checked`,
		listID, req.GProductID, req.Note, req.Quantity).Scan(
		&it.ID, &it.ListID, &it.GProductID, &it.Note, &it.Quantity, &it.IsChecked)
	if err != nil {
		respondError(c, fmt.Errorf("failed to add item: %w", err))
		return
	}
	c.JSON(http.StatusCreated, it)
}

type updateItemRequest struct {
	Note      *string `json:"note"`
	Quantity  *int    `json:"quantity"`
	IsChecked *bool   `json:"is_checked"`
}

// UpdateItem godoc
// @Summary Update an item's note, quantity or checked state
// @Tags lists
// @Accept json
// @Param id path int true "list id"
// @Param itemID path int true "item id"
// @Param request body updateItemRequest true "fields to update"
// @Success 200 {object} database.ShoppingListItem
// @Router /v2/lists/{id}/items/{itemID} [patch]
func (h *ListsHandler) UpdateItem(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemID")
	if !ok {
		return
	}
	var req updateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if err := h.ownList(ctx, middleware.UserID(c), listID); err != nil {
		respondError(c, err)
		return
	}

	var it database.ShoppingListItem
	err := h.pool.QueryRow(ctx, `
		UPDATE shopping_list_items SET
			note = COALESCE($1, note),
			quantity = COALESCE($2, quantity),
			is_checked = COALESCE($3, is_checked)
		WHERE id = $4 AND list_id = $5
		RETURNING id, list_id, g_product_id, note, quantity, is_checked`,
		req.Note, req.Quantity, req.IsChecked, itemID, listID).Scan(
		&it.ID, &it.ListID, &it.GProductID, &it.Note, &it.Quantity, &it.IsChecked)
	if errors.Is(err, pgx.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}
	if err != nil {
		respondError(c, fmt.Errorf("failed to update item: %w", err))
		return
	}
	c.JSON(http.StatusOK, it)
}

// DeleteItem godoc
// @Summary Remove an item from a shopping list
// @Tags lists
// @Param id path int true "list id"
// @Param itemID path int true "item id"
// @Success 204
// @Router /v2/lists/{id}/items/{itemID} [delete]
func (h *ListsHandler) DeleteItem(c *gin.Context) {
	listID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	itemID, ok := parseIDParam(c, "itemID")
	if !ok {
		return
	}
	ctx := c.Request.Context()
	if err := h.ownList(ctx, middleware.UserID(c), listID); err != nil {
		respondError(c, err)
		return
	}
	if _, err := h.pool.Exec(ctx,
		`DELETE FROM shopping_list_items WHERE id = $1 AND list_id = $2`, itemID, listID); err != nil {
		respondError(c, fmt.Errorf("failed to delete item: %w", err))
		return
	}
	c.Status(http.StatusNoContent)
}

// ownList verifies the list belongs to the user.
func (h *ListsHandler) ownList(ctx context.Context, userID, listID int64) error {
	var owner int64
	err := h.pool.QueryRow(ctx, `SELECT user_id FROM shopping_lists WHERE id = $1`, listID).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.New(apperrors.KindNotFound, "list not found")
	}
	if err != nil {
		return fmt.Errorf("failed to check list ownership: %w", err)
	}
	if owner != userID {
		return apperrors.New(apperrors.KindForbidden, "not your list")
	}
	return nil
}
