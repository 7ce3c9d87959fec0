package wines

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"vinohub/internal/auth"
	"vinohub/internal/sync"
	"vinohub/pkg/models"
)

type Handler struct {
	Repo *Repo
	Hub  *sync.Hub
}

func NewHandler(repo *Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.list)          // GET /api/wines?q=&limit=&offset=
	rg.POST("", h.create)       // POST /api/wines
	rg.GET("/:id", h.getByID)   // GET /api/wines/:id
	rg.PATCH("/:id", h.update)  // PATCH /api/wines/:id
	rg.DELETE("/:id", h.remove) // DELETE /api/wines/:id
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, c.Query("q"), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"items": items,
	})
}

type createReq struct {
	Name     string   `json:"name"`
	Winery   string   `json:"winery"`
	Variety  string   `json:"variety"`
	Region   string   `json:"region"`
	Country  string   `json:"country"`
	Vintage  *int     `json:"vintage"`
	Price    *float64 `json:"price"`
	Type     string   `json:"type"`
	Body     string   `json:"body"`
	Acidity  string   `json:"acidity"`
	Pairings []string `json:"pairings"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
		return
	}
	wineType, ok := normalizeType(req.Type)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
		return
	}

	w := models.Wine{
		ID:       uuid.NewString(),
		UserID:   claims.UserID,
		Name:     req.Name,
		Winery:   strings.TrimSpace(req.Winery),
		Variety:  strings.TrimSpace(req.Variety),
		Region:   strings.TrimSpace(req.Region),
		Country:  strings.TrimSpace(req.Country),
		Vintage:  req.Vintage,
		Price:    req.Price,
		Type:     wineType,
		Body:     strings.TrimSpace(req.Body),
		Acidity:  strings.TrimSpace(req.Acidity),
		Pairings: req.Pairings,
	}
	if err := h.Repo.Create(c.Request.Context(), w); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	saved, err := h.Repo.GetByID(c.Request.Context(), claims.UserID, w.ID)
	if err != nil || saved == nil {
		saved = &w
	}

	h.broadcast(sync.WineEvent{
		Type:   "wine.update",
		UserID: claims.UserID,
		WineID: w.ID,
		Name:   w.Name,
		At:     time.Now().UTC(),
	})
	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) getByID(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	w, err := h.Repo.GetByID(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, w)
}

type updateReq struct {
	Name     *string   `json:"name"`
	Winery   *string   `json:"winery"`
	Variety  *string   `json:"variety"`
	Region   *string   `json:"region"`
	Country  *string   `json:"country"`
	Vintage  *int      `json:"vintage"`
	Price    *float64  `json:"price"`
	Type     *string   `json:"type"`
	Body     *string   `json:"body"`
	Acidity  *string   `json:"acidity"`
	Pairings *[]string `json:"pairings"`
}

func (h *Handler) update(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	w, err := h.Repo.GetByID(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	var req updateReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "name required"})
			return
		}
		w.Name = name
	}
	if req.Winery != nil {
		w.Winery = strings.TrimSpace(*req.Winery)
	}
	if req.Variety != nil {
		w.Variety = strings.TrimSpace(*req.Variety)
	}
	if req.Region != nil {
		w.Region = strings.TrimSpace(*req.Region)
	}
	if req.Country != nil {
		w.Country = strings.TrimSpace(*req.Country)
	}
	if req.Vintage != nil {
		w.Vintage = req.Vintage
	}
	if req.Price != nil {
		w.Price = req.Price
	}
	if req.Type != nil {
		wineType, ok := normalizeType(*req.Type)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid type"})
			return
		}
		w.Type = wineType
	}
	if req.Body != nil {
		w.Body = strings.TrimSpace(*req.Body)
	}
	if req.Acidity != nil {
		w.Acidity = strings.TrimSpace(*req.Acidity)
	}
	if req.Pairings != nil {
		w.Pairings = *req.Pairings
	}

	ok, err := h.Repo.Update(c.Request.Context(), *w)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	saved, err := h.Repo.GetByID(c.Request.Context(), claims.UserID, w.ID)
	if err != nil || saved == nil {
		saved = w
	}

	h.broadcast(sync.WineEvent{
		Type:   "wine.update",
		UserID: claims.UserID,
		WineID: w.ID,
		Name:   w.Name,
		At:     time.Now().UTC(),
	})
	c.JSON(http.StatusOK, saved)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	id := c.Param("id")

	ok, err := h.Repo.Delete(c.Request.Context(), claims.UserID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(sync.WineEvent{
		Type:   "wine.delete",
		UserID: claims.UserID,
		WineID: id,
		At:     time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) broadcast(ev sync.WineEvent) {
	if h.Hub != nil {
		go h.Hub.BroadcastJSON(ev)
	}
}

// normalizeType maps the free-form type field onto the set the rest of the
// system understands. Empty stays empty; unknown values are rejected.
func normalizeType(s string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(s))
	switch t {
	case "":
		return "", true
	case "rose":
		return "rosé", true
	case "red", "white", "rosé", "sparkling", "dessert", "fortified":
		return t, true
	default:
		return "", false
	}
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
