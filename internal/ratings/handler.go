package ratings

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"vinohub/internal/auth"
	"vinohub/internal/catalog"
	"vinohub/internal/sync"
	"vinohub/internal/wines"
	"vinohub/pkg/models"
)

type Handler struct {
	Repo    *Repo
	Wines   *wines.Repo
	Catalog *catalog.Repo
	Hub     *sync.Hub
}

func NewHandler(repo *Repo, winesRepo *wines.Repo, catalogRepo *catalog.Repo, hub *sync.Hub) *Handler {
	return &Handler{Repo: repo, Wines: winesRepo, Catalog: catalogRepo, Hub: hub}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)       // POST /api/ratings
	rg.GET("", h.list)          // GET /api/ratings?limit=&offset=
	rg.DELETE("/:id", h.delete) // DELETE /api/ratings/:id
}

// RegisterWineRoutes hangs the per-wine listing off the wines group.
func (h *Handler) RegisterWineRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id/ratings", h.listByWine) // GET /api/wines/:id/ratings
}

type inlineWine struct {
	Name     string   `json:"name"`
	Winery   string   `json:"winery"`
	Variety  string   `json:"variety"`
	Region   string   `json:"region"`
	Country  string   `json:"country"`
	Vintage  *int     `json:"vintage"`
	Price    *float64 `json:"price"`
	Type     string   `json:"type"`
	Pairings []string `json:"pairings"`
}

type createReq struct {
	WineID    string      `json:"wine_id"`
	CatalogID string      `json:"catalog_id"`
	Wine      *inlineWine `json:"wine"`
	Rating    float64     `json:"rating"`
	Note      string      `json:"note"`
	Vintage   *int        `json:"vintage"`
}

func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if !validRating(req.Rating) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be 0.0-5.0 in 0.1 steps"})
		return
	}

	w, errMsg, status := h.resolveWine(c, claims.UserID, req)
	if w == nil {
		c.JSON(status, gin.H{"error": errMsg})
		return
	}

	rt, err := h.Repo.Create(c.Request.Context(), models.Rating{
		UserID:  claims.UserID,
		WineID:  w.ID,
		Rating:  req.Rating,
		Note:    strings.TrimSpace(req.Note),
		Vintage: req.Vintage,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	h.broadcast(sync.RatingEvent{
		Type:     "rating.create",
		UserID:   claims.UserID,
		RatingID: rt.ID,
		WineID:   w.ID,
		Rating:   rt.Rating,
		At:       time.Now().UTC(),
	})
	c.JSON(http.StatusCreated, gin.H{
		"rating": rt,
		"wine":   w,
	})
}

// resolveWine turns whatever reference the request carried into a journal
// wine. Exactly one of wine_id, catalog_id, or an inline wine is expected;
// catalog and inline references are materialized into the journal first.
func (h *Handler) resolveWine(c *gin.Context, userID string, req createReq) (*models.Wine, string, int) {
	ctx := c.Request.Context()

	switch {
	case strings.TrimSpace(req.WineID) != "":
		w, err := h.Wines.GetByID(ctx, userID, strings.TrimSpace(req.WineID))
		if err != nil {
			return nil, "lookup failed", http.StatusInternalServerError
		}
		if w == nil {
			return nil, "wine not found", http.StatusNotFound
		}
		return w, "", 0

	case strings.TrimSpace(req.CatalogID) != "":
		cw, err := h.Catalog.GetByID(ctx, strings.TrimSpace(req.CatalogID))
		if err != nil {
			return nil, "lookup failed", http.StatusInternalServerError
		}
		if cw == nil {
			return nil, "catalog wine not found", http.StatusNotFound
		}
		w, _, err := h.Wines.Materialize(ctx, userID, *cw)
		if err != nil {
			return nil, "create failed", http.StatusInternalServerError
		}
		return w, "", 0

	case req.Wine != nil:
		name := strings.TrimSpace(req.Wine.Name)
		if name == "" {
			return nil, "wine name required", http.StatusBadRequest
		}
		w, _, err := h.Wines.Materialize(ctx, userID, models.CatalogWine{
			Name:     name,
			Winery:   strings.TrimSpace(req.Wine.Winery),
			Variety:  strings.TrimSpace(req.Wine.Variety),
			Region:   strings.TrimSpace(req.Wine.Region),
			Country:  strings.TrimSpace(req.Wine.Country),
			Vintage:  req.Wine.Vintage,
			Price:    req.Wine.Price,
			Type:     strings.ToLower(strings.TrimSpace(req.Wine.Type)),
			Pairings: req.Wine.Pairings,
		})
		if err != nil {
			return nil, "create failed", http.StatusInternalServerError
		}
		return w, "", 0
	}

	return nil, "wine_id, catalog_id, or wine required", http.StatusBadRequest
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, err := h.Repo.ListByUser(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) listByWine(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	wineID := strings.TrimSpace(c.Param("id"))
	if wineID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "wine id required"})
		return
	}

	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, err := h.Repo.ListByWine(c.Request.Context(), claims.UserID, wineID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":  limit,
		"offset": offset,
		"items":  items,
	})
}

func (h *Handler) delete(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	idRaw := strings.TrimSpace(c.Param("id"))
	id, err := strconv.ParseInt(idRaw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	rt, err := h.Repo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if rt == nil || rt.UserID != claims.UserID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	ok, err := h.Repo.Delete(c.Request.Context(), id, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	h.broadcast(sync.RatingEvent{
		Type:     "rating.delete",
		UserID:   claims.UserID,
		RatingID: id,
		WineID:   rt.WineID,
		At:       time.Now().UTC(),
	})
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (h *Handler) broadcast(ev sync.RatingEvent) {
	if h.Hub != nil {
		go h.Hub.BroadcastJSON(ev)
	}
}

// validRating accepts scores from 0.0 to 5.0 on a 0.1 grid.
func validRating(r float64) bool {
	if r < 0 || r > 5 {
		return false
	}
	scaled := r * 10
	return math.Abs(scaled-math.Round(scaled)) < 1e-9
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
