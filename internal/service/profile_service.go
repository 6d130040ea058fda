package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/pkg/cache"
)

type ProfilePhase string

const (
	PhaseCached    ProfilePhase = "cached"
	PhaseConfirmed ProfilePhase = "confirmed"
)

const (
	profileLoadAttempts = 2
	profileCacheTTL     = 7 * 24 * time.Hour
)

// ProfileState is the result of a profile load. A cached state may be stale;
// a confirmed state was read from the database during this call.
type ProfileState struct {
	Phase   ProfilePhase          `json:"phase"`
	Profile model.ProfileResponse `json:"profile"`
}

type UpdateProfileRequest struct {
	DisplayName string `json:"display_name" validate:"notblank"`
	StoreName   string `json:"store_name"`
}

type ProfileService interface {
	// Cached returns the last known profile without touching the database.
	Cached(ctx context.Context, id uuid.UUID) (*ProfileState, bool)
	// Load confirms the profile against the database, retrying once. When
	// the database stays unreachable it falls back to the cached state.
	Load(ctx context.Context, id uuid.UUID) (*ProfileState, error)
	Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*model.ProfileResponse, error)
	ListAll() ([]model.ProfileResponse, error)
	Remember(ctx context.Context, p *model.Profile)
	Forget(ctx context.Context, id uuid.UUID)
}

type profileService struct {
	repo    repository.ProfileRepository
	cache   *cache.Cache
	backoff time.Duration
	log     *zap.Logger
}

func NewProfileService(repo repository.ProfileRepository, c *cache.Cache, log *zap.Logger) ProfileService {
	if log == nil {
		log = zap.NewNop()
	}
	return &profileService{repo: repo, cache: c, backoff: 500 * time.Millisecond, log: log}
}

func (s *profileService) Cached(ctx context.Context, id uuid.UUID) (*ProfileState, bool) {
	var resp model.ProfileResponse
	ok, err := s.cache.GetJSON(ctx, cache.ProfileKey(id.String()), &resp)
	if err != nil {
		s.log.Warn("profile cache read failed", zap.String("profile_id", id.String()), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return &ProfileState{Phase: PhaseCached, Profile: resp}, true
}

func (s *profileService) Load(ctx context.Context, id uuid.UUID) (*ProfileState, error) {
	var (
		p   *model.Profile
		err error
	)
	for attempt := 1; attempt <= profileLoadAttempts; attempt++ {
		p, err = s.repo.FindByID(id)
		if err == nil {
			break
		}
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.Forget(ctx, id)
			return nil, ErrProfileNotFound
		}
		s.log.Warn("profile load failed", zap.Int("attempt", attempt), zap.Error(err))
		if attempt < profileLoadAttempts {
			select {
			case <-ctx.Done():
				attempt = profileLoadAttempts
			case <-time.After(s.backoff):
			}
		}
	}
	if err != nil {
		if cached, ok := s.Cached(ctx, id); ok {
			return cached, nil
		}
		return nil, err
	}

	s.Remember(ctx, p)
	return &ProfileState{Phase: PhaseConfirmed, Profile: p.ToResponse()}, nil
}

func (s *profileService) Update(ctx context.Context, id uuid.UUID, req UpdateProfileRequest) (*model.ProfileResponse, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	p, err := s.repo.FindByID(id)
	if err != nil {
		return nil, notFound(err, ErrProfileNotFound)
	}
	p.DisplayName = req.DisplayName
	p.StoreName = req.StoreName
	p.UpdatedBy = p.Email
	if err := s.repo.Update(p); err != nil {
		return nil, err
	}
	s.Remember(ctx, p)
	resp := p.ToResponse()
	return &resp, nil
}

func (s *profileService) ListAll() ([]model.ProfileResponse, error) {
	profiles, err := s.repo.FindAll()
	if err != nil {
		return nil, err
	}
	out := make([]model.ProfileResponse, len(profiles))
	for i := range profiles {
		out[i] = profiles[i].ToResponse()
	}
	return out, nil
}

func (s *profileService) Remember(ctx context.Context, p *model.Profile) {
	if err := s.cache.SetJSON(ctx, cache.ProfileKey(p.ID.String()), p.ToResponse(), profileCacheTTL); err != nil {
		s.log.Warn("profile cache write failed", zap.String("profile_id", p.ID.String()), zap.Error(err))
	}
}

func (s *profileService) Forget(ctx context.Context, id uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.ProfileKey(id.String())); err != nil {
		s.log.Warn("profile cache delete failed", zap.String("profile_id", id.String()), zap.Error(err))
	}
}
