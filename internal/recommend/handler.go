package recommend

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"vinohub/internal/auth"
	"vinohub/pkg/models"
)

// HistorySource supplies a user's rating history joined to its wines.
type HistorySource interface {
	TastingHistory(ctx context.Context, userID string) ([]TastedWine, error)
}

// CandidateSource supplies catalog wines to score.
type CandidateSource interface {
	Search(ctx context.Context, query string, limit int) ([]models.CatalogWine, error)
	TopRated(ctx context.Context, limit int) ([]models.CatalogWine, error)
	GetByID(ctx context.Context, id string) (*models.CatalogWine, error)
}

type Handler struct {
	History HistorySource
	Catalog CandidateSource
}

func NewHandler(history HistorySource, catalog CandidateSource) *Handler {
	return &Handler{History: history, Catalog: catalog}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/recommendations", h.recommend)  // GET /recommendations?q=&limit=
	rg.GET("/catalog/:id/score", h.score)    // GET /catalog/:id/score
}

// candidatePool is how many catalog wines one recommendation request scores.
const candidatePool = 100

func (h *Handler) recommend(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	ctx := c.Request.Context()

	limit := parseLimit(c.Query("limit"), 20)

	history, err := h.History.TastingHistory(ctx, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history failed"})
		return
	}
	model := Calculate(history)

	var candidates []models.CatalogWine
	if q := strings.TrimSpace(c.Query("q")); q != "" {
		candidates, err = h.Catalog.Search(ctx, q, candidatePool)
	} else {
		candidates, err = h.Catalog.TopRated(ctx, candidatePool)
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "catalog failed"})
		return
	}

	type scored struct {
		Wine      models.CatalogWine `json:"wine"`
		Predicted float64            `json:"predicted"`
	}
	items := make([]scored, 0, len(candidates))
	for _, w := range candidates {
		if s, ok := Predict(model, CandidateFromCatalog(w)); ok {
			items = append(items, scored{Wine: w, Predicted: s})
		}
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Predicted != items[j].Predicted {
			return items[i].Predicted > items[j].Predicted
		}
		return items[i].Wine.Name < items[j].Wine.Name
	})
	if len(items) > limit {
		items = items[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"count":        len(items),
		"rating_count": model.RatingCount,
		"items":        items,
	})
}

func (h *Handler) score(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	ctx := c.Request.Context()

	w, err := h.Catalog.GetByID(ctx, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "get failed"})
		return
	}
	if w == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	history, err := h.History.TastingHistory(ctx, claims.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history failed"})
		return
	}
	model := Calculate(history)

	p, ok := Explain(model, CandidateFromCatalog(*w))
	if !ok {
		// no personal and no community signal: a normal outcome
		c.JSON(http.StatusOK, gin.H{"wine": w, "score": nil})
		return
	}

	resp := gin.H{
		"wine":            w,
		"score":           p.Score,
		"personal_weight": p.PersonalWeight,
		"rating_count":    model.RatingCount,
	}
	if p.HasPersonal {
		resp["personal"] = p.Personal
	}
	if p.HasCommunity {
		resp["community"] = p.Community
	}
	if p.ColorPenalty > 0 {
		resp["color_penalty"] = p.ColorPenalty
	}
	c.JSON(http.StatusOK, resp)
}

func parseLimit(s string, def int) int {
	if strings.TrimSpace(s) == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 100 {
		return def
	}
	return n
}
