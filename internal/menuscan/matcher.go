package menuscan

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"vinohub/pkg/models"
)

// Searcher is the catalog text-search collaborator.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.CatalogWine, error)
}

// JournalStore finds the user's own wines by name fragment.
type JournalStore interface {
	SearchByName(ctx context.Context, userID, name string) ([]models.Wine, error)
}

// Match is a resolved candidate. Exactly one of Wine and Catalog is set,
// depending on which store the name resolved against.
type Match struct {
	Candidate Candidate
	Wine      *models.Wine
	Catalog   *models.CatalogWine
}

func (m Match) Name() string {
	if m.Wine != nil {
		return m.Wine.Name
	}
	if m.Catalog != nil {
		return m.Catalog.Name
	}
	return ""
}

func (m Match) Winery() string {
	if m.Wine != nil {
		return m.Wine.Winery
	}
	if m.Catalog != nil {
		return m.Catalog.Winery
	}
	return ""
}

// Matcher resolves classified candidates. Store and search failures count
// as misses, never as errors: a scan always completes.
type Matcher struct {
	Catalog Searcher
	Journal JournalStore
}

// Resolve tries, in order: wines already resolved in this scan, the user's
// journal, a catalog search on the cleaned name, and for "Winery, Name"
// lines the reordered and winery-only searches. Returns nil when every
// strategy misses.
func (m *Matcher) Resolve(ctx context.Context, userID string, cand Candidate, prior []Match) *Match {
	name := cleanName(cand.Name)
	if name == "" {
		return nil
	}

	// 1. reuse a wine this scan already resolved
	nf := fold(name)
	for i := range prior {
		pn := fold(cleanName(prior[i].Name()))
		if pn == "" {
			continue
		}
		if strings.Contains(nf, pn) || strings.Contains(pn, nf) {
			hit := prior[i]
			hit.Candidate = cand
			return &hit
		}
	}

	// 2. journal substring match
	if m.Journal != nil {
		wines, err := m.Journal.SearchByName(ctx, userID, name)
		if err != nil {
			log.Debug().Err(err).Str("name", name).Msg("journal lookup failed")
		} else if len(wines) > 0 {
			w := wines[0]
			return &Match{Candidate: cand, Wine: &w}
		}
	}

	// 3. catalog search on the cleaned name
	if hit := m.searchTop(ctx, withVariety(name, cand.Variety)); hit != nil {
		return &Match{Candidate: cand, Catalog: hit}
	}

	// 4. menu "Winery, Name" convention: reorder, then winery alone
	if i := strings.Index(cand.Name, ","); i >= 0 {
		winery := cleanName(cand.Name[:i])
		rest := cleanName(cand.Name[i+1:])
		if winery != "" && rest != "" {
			if hit := m.searchTop(ctx, withVariety(rest+" "+winery, cand.Variety)); hit != nil {
				return &Match{Candidate: cand, Catalog: hit}
			}
		}
		if winery != "" {
			if hit := m.searchTop(ctx, withVariety(winery, cand.Variety)); hit != nil {
				return &Match{Candidate: cand, Catalog: hit}
			}
		}
	}

	return nil
}

func (m *Matcher) searchTop(ctx context.Context, query string) *models.CatalogWine {
	if m.Catalog == nil || strings.TrimSpace(query) == "" {
		return nil
	}
	hits, err := m.Catalog.Search(ctx, query, 1)
	if err != nil {
		log.Debug().Err(err).Str("query", query).Msg("catalog search failed")
		return nil
	}
	if len(hits) == 0 {
		return nil
	}
	return &hits[0]
}

func withVariety(query, variety string) string {
	if variety == "" {
		return query
	}
	return query + " " + variety
}
