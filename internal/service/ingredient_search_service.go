package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/search"
	"kitchen-backoffice/internal/units"
)

type SearchResult struct {
	Query   string             `json:"query"`
	Source  string             `json:"source"`
	Results []search.Candidate `json:"results"`
}

type IngredientSearchService interface {
	// Search asks the database first and falls back to ranking the user's
	// cached CSV and master candidates when the database errors or finds
	// nothing.
	Search(ctx context.Context, userID uuid.UUID, query string) (*SearchResult, error)
}

type ingredientSearchService struct {
	masters repository.UnitConversionRepository
	prices  PurchasePriceService
	cache   *search.Cache
	limit   int
	log     *zap.Logger
}

func NewIngredientSearchService(masters repository.UnitConversionRepository, prices PurchasePriceService, cache *search.Cache, limit int, log *zap.Logger) IngredientSearchService {
	if limit <= 0 {
		limit = search.DefaultLimit
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ingredientSearchService{masters: masters, prices: prices, cache: cache, limit: limit, log: log}
}

func (s *ingredientSearchService) Search(ctx context.Context, userID uuid.UUID, query string) (*SearchResult, error) {
	out := &SearchResult{Query: query, Results: []search.Candidate{}}
	if units.NormalizeName(query) == "" {
		out.Source = "local"
		return out, nil
	}

	rows, err := s.masters.SearchIngredients(ctx, query, s.limit)
	if err != nil {
		s.log.Warn("server search failed, using local ranking", zap.Error(err))
	}
	if err == nil && len(rows) > 0 {
		out.Source = search.SourceServer
		for _, m := range rows {
			out.Results = append(out.Results, search.Candidate{
				Name:         m.IngredientName,
				Key:          m.NameKey,
				Unit:         m.PacketUnit,
				Price:        m.LastPrice,
				Vendor:       m.Vendor,
				PacketSize:   m.PacketSize,
				PacketUnit:   m.PacketUnit,
				ItemCategory: m.ItemCategory,
				Source:       search.SourceServer,
			})
		}
		return out, nil
	}

	cands, err := s.candidates(ctx, userID)
	if err != nil {
		return nil, err
	}
	out.Source = "local"
	if ranked := search.Rank(query, cands, s.limit); ranked != nil {
		out.Results = ranked
	}
	return out, nil
}

func (s *ingredientSearchService) candidates(ctx context.Context, userID uuid.UUID) ([]search.Candidate, error) {
	if c, ok := s.cache.Get(userID); ok {
		return c, nil
	}
	prices, err := s.prices.LoadPrices(ctx, userID)
	if err != nil {
		return nil, err
	}
	masters, err := s.masters.FindAll()
	if err != nil {
		return nil, err
	}
	c := search.BuildCandidates(prices, masters)
	s.cache.Set(userID, c)
	return c, nil
}
