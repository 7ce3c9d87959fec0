package importer

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"vinohub/internal/ingest"
	"vinohub/internal/ratings"
	"vinohub/internal/wines"
	"vinohub/pkg/models"
)

// Searcher is the catalog text-search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.CatalogWine, error)
}

const matchLimit = 20

// Reconciler matches CSV rows against the catalog and writes the results
// into a user's journal. Rows process strictly in file order so duplicate
// detection sees everything earlier rows inserted.
type Reconciler struct {
	Catalog Searcher
	Wines   *wines.Repo
	Ratings *ratings.Repo
}

func NewReconciler(catalog Searcher, winesRepo *wines.Repo, ratingsRepo *ratings.Repo) *Reconciler {
	return &Reconciler{Catalog: catalog, Wines: winesRepo, Ratings: ratingsRepo}
}

// Summary is what an import run reports back.
type Summary struct {
	Rows      int      `json:"rows"`
	Imported  int      `json:"imported"`
	Skipped   int      `json:"skipped"` // already rated, silently skipped
	Unmatched []string `json:"unmatched,omitempty"`
	Errors    []string `json:"errors,omitempty"`
}

// ImportRatings runs the rating-import mode: each row is matched to a
// catalog entry, materialized into the user's journal, and rated. Rows
// whose resolved wine already carries a rating are counted as skipped so
// re-running an export never duplicates or overwrites history.
func (r *Reconciler) ImportRatings(ctx context.Context, userID string, rows []Row) (*Summary, error) {
	sum := &Summary{Rows: len(rows)}

	for _, row := range rows {
		cw := r.matchRow(ctx, row.Name, row.Winery, row.Country)
		if cw == nil {
			sum.Unmatched = append(sum.Unmatched, row.Name)
			continue
		}

		w, created, err := r.Wines.Materialize(ctx, userID, *cw)
		if err != nil {
			return sum, fmt.Errorf("row %d: materialize: %w", row.Line, err)
		}

		if !created {
			n, err := r.Ratings.CountByWine(ctx, userID, w.ID)
			if err != nil {
				return sum, fmt.Errorf("row %d: count ratings: %w", row.Line, err)
			}
			if n > 0 {
				sum.Skipped++
				continue
			}
		}

		if row.Rating == nil {
			sum.Errors = append(sum.Errors, fmt.Sprintf("row %d (%s): no rating value", row.Line, row.Name))
			continue
		}

		rt := models.Rating{
			UserID:  userID,
			WineID:  w.ID,
			Rating:  *row.Rating,
			Note:    row.Note,
			Vintage: row.Vintage,
		}
		if row.TastedAt != nil {
			rt.CreatedAt = *row.TastedAt
		}
		if _, err := r.Ratings.Create(ctx, rt); err != nil {
			return sum, fmt.Errorf("row %d: create rating: %w", row.Line, err)
		}
		sum.Imported++
	}

	log.Info().Int("rows", sum.Rows).Int("imported", sum.Imported).
		Int("skipped", sum.Skipped).Int("unmatched", len(sum.Unmatched)).
		Msg("rating import done")
	return sum, nil
}

// matchRow resolves a row to a catalog entry. The name search anchors
// everything; winery and country hints pick among its results. A winery
// hint that picked nothing can still anchor a winery-only search. With no
// hints at all, the top name result is accepted only when its name and the
// target mutually contain each other.
func (r *Reconciler) matchRow(ctx context.Context, name, winery, country string) *models.CatalogWine {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}

	results := r.search(ctx, name)

	if winery != "" {
		for i := range results {
			if wineryMatches(results[i].Winery, winery) {
				return &results[i]
			}
		}
	}
	if country != "" {
		for i := range results {
			if strings.EqualFold(strings.TrimSpace(results[i].Country), strings.TrimSpace(country)) {
				return &results[i]
			}
		}
	}

	if winery != "" {
		for _, cw := range r.search(ctx, winery) {
			if mutualContains(cw.Name, name) {
				hit := cw
				return &hit
			}
		}
		return nil
	}

	if country == "" && len(results) > 0 && mutualContains(results[0].Name, name) {
		return &results[0]
	}
	return nil
}

func (r *Reconciler) search(ctx context.Context, query string) []models.CatalogWine {
	if r.Catalog == nil {
		return nil
	}
	hits, err := r.Catalog.Search(ctx, query, matchLimit)
	if err != nil {
		log.Debug().Err(err).Str("query", query).Msg("catalog search failed")
		return nil
	}
	return hits
}

// wineryMatches accepts case-insensitive equality or mutual containment,
// so "Ch. Margaux" still lines up with "Château Margaux".
func wineryMatches(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

func mutualContains(a, b string) bool {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

// RowsToCanonical converts catalog-bootstrap rows into canonical entries
// ready for ingest.SaveToCatalog. The community average column feeds the
// catalog rating; a personal rating column is ignored in this mode.
func RowsToCanonical(rows []Row) []models.WineCanonical {
	out := make([]models.WineCanonical, 0, len(rows))
	for _, row := range rows {
		w := models.WineCanonical{
			Name:     row.Name,
			Winery:   row.Winery,
			Variety:  row.Variety,
			Region:   row.Region,
			Country:  row.Country,
			Vintage:  row.Vintage,
			Rating:   row.Average,
			Price:    row.Price,
			Type:     row.Type,
			Pairings: row.Pairings,
		}
		w.ID = ingest.Slug(w)
		if w.ID == "" {
			continue
		}
		w.SourceIDs = map[string]string{"csv": w.ID}
		out = append(out, w)
	}
	return out
}
