package cellar

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vinohub/internal/auth"
	"vinohub/internal/sync"
	"vinohub/internal/wines"
	"vinohub/pkg/models"
)

type Handler struct {
	Repo  *Repo
	Wines *wines.Repo
	Hub   *sync.Hub
}

func NewHandler(repo *Repo, winesRepo *wines.Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Wines: winesRepo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.PUT("", h.upsert)               // PUT /api/cellar
	rg.GET("", h.list)                 // GET /api/cellar?status=
	rg.GET("/:wine_id", h.get)         // GET /api/cellar/:wine_id
	rg.DELETE("/:wine_id", h.remove)   // DELETE /api/cellar/:wine_id
}

type upsertReq struct {
	WineID   string `json:"wine_id"`
	Status   string `json:"status"`
	Quantity *int   `json:"quantity"`
}

func (h *Handler) upsert(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req upsertReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}

	wineID := strings.TrimSpace(req.WineID)
	if wineID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wine_id required"})
		return
	}

	status, ok := normalizeStatus(req.Status)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
		return
	}

	quantity := 1
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "quantity must be >= 0"})
			return
		}
		quantity = *req.Quantity
	}

	// The shelf only tracks wines the user has in their journal.
	w, err := h.Wines.GetByID(c.Request.Context(), claims.UserID, wineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "wine not found"})
		return
	}

	item := models.CellarItem{
		UserID:   claims.UserID,
		WineID:   wineID,
		Status:   status,
		Quantity: quantity,
	}
	if err := h.Repo.Upsert(c.Request.Context(), item); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save failed"})
		return
	}

	saved, err := h.Repo.Get(c.Request.Context(), claims.UserID, wineID)
	if err != nil || saved == nil {
		saved = &item
	}

	h.broadcast(sync.CellarEvent{
		Type:     "cellar.update",
		UserID:   claims.UserID,
		WineID:   wineID,
		Status:   status,
		Quantity: quantity,
		At:       time.Now().UTC(),
	})
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	status := strings.TrimSpace(c.Query("status"))
	if status != "" {
		var ok bool
		status, ok = normalizeStatus(status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, status, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"items": items,
	})
}

func (h *Handler) get(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	item, err := h.Repo.Get(c.Request.Context(), claims.UserID, c.Param("wine_id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if item == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	wineID := c.Param("wine_id")

	ok, err := h.Repo.Delete(c.Request.Context(), claims.UserID, wineID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(sync.CellarEvent{
		Type:   "cellar.delete",
		UserID: claims.UserID,
		WineID: wineID,
		At:     time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) broadcast(ev sync.CellarEvent) {
	if h.Hub != nil {
		go h.Hub.BroadcastJSON(ev)
	}
}

func normalizeStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cellar":
		return "cellar", true
	case "wishlist":
		return "wishlist", true
	case "tried":
		return "tried", true
	default:
		return "", false
	}
}

func parseInt(s string, def int) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
