package scans

import (
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/rs/zerolog/log"

	"vinohub/internal/auth"
	"vinohub/internal/menuscan"
	"vinohub/internal/notify"
	"vinohub/internal/ocr"
	"vinohub/internal/scanfeed"
	"vinohub/internal/sync"
	"vinohub/pkg/models"
)

const maxImageBytes = 10 << 20

type Handler struct {
	Repo    *Repo
	Matcher *menuscan.Matcher
	OCR     ocr.Recognizer
	Feed    *scanfeed.Hub
	Hub     *sync.Hub
	Notify  *notify.Server
	Dir     string
}

func NewHandler(repo *Repo, matcher *menuscan.Matcher, rec ocr.Recognizer,
	feed *scanfeed.Hub, hub *sync.Hub, udp *notify.Server, dir string) *Handler {
	return &Handler{
		Repo:    repo,
		Matcher: matcher,
		OCR:     rec,
		Feed:    feed,
		Hub:     hub,
		Notify:  udp,
		Dir:     dir,
	}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.create)       // POST /api/scans (multipart image or JSON lines)
	rg.GET("", h.list)          // GET /api/scans?limit=&offset=
	rg.GET("/:id", h.getByID)   // GET /api/scans/:id
	rg.DELETE("/:id", h.remove) // DELETE /api/scans/:id
}

type linesReq struct {
	Lines []string `json:"lines"`
}

// create runs the whole pipeline in the request: pull text off the image
// (or take lines as given), classify, resolve each candidate, persist.
// Matches stream to the scan's feed room as they land.
func (h *Handler) create(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	scanID := uuid.NewString()

	var (
		lines     []string
		imagePath string
	)

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		file, header, err := c.Request.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "image file required"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
			return
		}
		if len(data) > maxImageBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "image too large"})
			return
		}

		kind, _ := filetype.Match(data)
		switch kind.Extension {
		case "jpg", "png", "webp":
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported image type"})
			return
		}

		imagePath = h.storeImage(scanID, kind.Extension, data)

		// Recognition failure is an empty menu, not an error: the scan
		// still records, just with nothing detected.
		lines, err = h.OCR.Recognize(c.Request.Context(), data, header.Filename)
		if err != nil {
			log.Warn().Err(err).Str("scan", scanID).Msg("ocr failed")
			lines = nil
		}
	} else {
		var req linesReq
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
			return
		}
		lines = req.Lines
	}

	ctx := c.Request.Context()
	cands := menuscan.ExtractCandidates(lines)

	detected := make([]models.DetectedEntry, 0, len(cands))
	matches := make([]models.ScanMatch, 0, len(cands))
	var prior []menuscan.Match

	for _, cand := range cands {
		detected = append(detected, models.DetectedEntry{Text: cand.Name, Variety: cand.Variety})

		m := h.Matcher.Resolve(ctx, claims.UserID, cand, prior)
		if m == nil {
			continue
		}
		prior = append(prior, *m)

		sm := models.ScanMatch{
			Text:    cand.Name,
			Variety: cand.Variety,
			Name:    m.Name(),
			Winery:  m.Winery(),
		}
		if m.Wine != nil {
			sm.WineID = m.Wine.ID
		} else if m.Catalog != nil {
			sm.CatalogID = m.Catalog.ID
		}
		matches = append(matches, sm)

		if h.Feed != nil {
			h.Feed.MatchFound(scanID, sm)
		}
	}

	scan := models.Scan{
		ID:        scanID,
		UserID:    claims.UserID,
		ImagePath: imagePath,
		Detected:  detected,
		Matches:   matches,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Repo.Create(ctx, scan); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "create failed"})
		return
	}

	saved, err := h.Repo.GetByID(ctx, claims.UserID, scanID)
	if err != nil || saved == nil {
		saved = &scan
	}

	if h.Feed != nil {
		h.Feed.Complete(scanID, len(matches))
	}
	if h.Notify != nil {
		go h.Notify.ScanComplete(claims.UserID, scanID, len(matches))
	}
	h.broadcast(sync.ScanEvent{
		Type:    "scan.create",
		UserID:  claims.UserID,
		ScanID:  scanID,
		Matches: len(matches),
		At:      time.Now().UTC(),
	})

	c.JSON(http.StatusCreated, saved)
}

func (h *Handler) list(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	limit := parseInt(c.Query("limit"), 20)
	offset := parseInt(c.Query("offset"), 0)

	items, total, err := h.Repo.List(c.Request.Context(), claims.UserID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"total": total,
		"items": items,
	})
}

func (h *Handler) getByID(c *gin.Context) {
	claims := auth.MustGetClaims(c)

	scan, err := h.Repo.GetByID(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if scan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, scan)
}

func (h *Handler) remove(c *gin.Context) {
	claims := auth.MustGetClaims(c)
	id := c.Param("id")

	scan, err := h.Repo.GetByID(c.Request.Context(), claims.UserID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		return
	}
	if scan == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	ok, err := h.Repo.Delete(c.Request.Context(), claims.UserID, id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "delete failed"})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if scan.ImagePath != "" {
		if err := os.Remove(scan.ImagePath); err != nil {
			log.Debug().Err(err).Str("path", scan.ImagePath).Msg("remove scan image failed")
		}
	}
	if h.Feed != nil {
		h.Feed.Drop(id)
	}
	h.broadcast(sync.ScanEvent{
		Type:   "scan.delete",
		UserID: claims.UserID,
		ScanID: id,
		At:     time.Now().UTC(),
	})

	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *Handler) storeImage(scanID, ext string, data []byte) string {
	if h.Dir == "" {
		return ""
	}
	if err := os.MkdirAll(h.Dir, 0o755); err != nil {
		log.Warn().Err(err).Str("dir", h.Dir).Msg("scan dir unavailable")
		return ""
	}
	p := filepath.Join(h.Dir, scanID+"."+ext)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		log.Warn().Err(err).Str("path", p).Msg("store scan image failed")
		return ""
	}
	return p
}

func (h *Handler) broadcast(ev sync.ScanEvent) {
	if h.Hub != nil {
		go h.Hub.BroadcastJSON(ev)
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
