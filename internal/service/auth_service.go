package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"kitchen-backoffice/internal/model"
	"kitchen-backoffice/internal/repository"
	"kitchen-backoffice/internal/ws"
	"kitchen-backoffice/pkg/jwt"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrProfileInactive    = errors.New("profile is inactive")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrSessionReplaced    = errors.New("session expired (logged in on another device)")
	ErrSessionTimeout     = errors.New("session expired due to inactivity")
)

// SessionIdleTimeout ends sessions without a heartbeat for this long.
const SessionIdleTimeout = 30 * time.Minute

type AuthService interface {
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error
	ValidateToken(tokenString string) (*model.ProfileResponse, error)
	Heartbeat(userID uuid.UUID) error
}

type LoginResponse struct {
	Token   string                `json:"token"`
	Profile model.ProfileResponse `json:"profile"`
}

type authService struct {
	profileRepo repository.ProfileRepository
	profiles    ProfileService
	hub         *ws.Hub
	log         *zap.Logger
	now         func() time.Time
}

func NewAuthService(profileRepo repository.ProfileRepository, profiles ProfileService, hub *ws.Hub, log *zap.Logger) AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &authService{
		profileRepo: profileRepo,
		profiles:    profiles,
		hub:         hub,
		log:         log,
		now:         time.Now,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	p, err := s.profileRepo.FindByEmail(email)
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if !p.IsActive {
		return nil, ErrProfileInactive
	}
	if !p.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	// A fresh token version logs out every other device.
	now := s.now()
	p.TokenVersion = uuid.New().String()
	p.LastSeenAt = &now
	if err := s.profileRepo.Update(p); err != nil {
		return nil, errors.New("failed to update session")
	}

	token, err := jwt.GenerateToken(p.ID, p.Email, p.DisplayName, string(p.Role), p.TokenVersion)
	if err != nil {
		return nil, errors.New("failed to generate token")
	}
	s.profiles.Remember(ctx, p)

	s.log.Info("login", zap.String("profile_id", p.ID.String()))
	return &LoginResponse{Token: token, Profile: p.ToResponse()}, nil
}

func (s *authService) ResetPassword(ctx context.Context, email, oldPassword, newPassword string) error {
	p, err := s.profileRepo.FindByEmail(email)
	if err != nil {
		return ErrProfileNotFound
	}
	if !p.CheckPassword(oldPassword) {
		return ErrWrongPassword
	}
	if err := p.SetPassword(newPassword); err != nil {
		return errors.New("failed to hash new password")
	}
	// Changing the password ends existing sessions.
	p.TokenVersion = uuid.New().String()
	if err := s.profileRepo.Update(p); err != nil {
		return err
	}
	s.profiles.Forget(ctx, p.ID)
	return nil
}

func (s *authService) ValidateToken(tokenString string) (*model.ProfileResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	p, err := s.profileRepo.FindByID(claims.UserID)
	if err != nil {
		return nil, ErrProfileNotFound
	}
	if !p.IsActive {
		return nil, ErrProfileInactive
	}
	if p.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}
	if p.LastSeenAt == nil || s.now().Sub(*p.LastSeenAt) > SessionIdleTimeout {
		return nil, ErrSessionTimeout
	}
	resp := p.ToResponse()
	return &resp, nil
}

func (s *authService) Heartbeat(userID uuid.UUID) error {
	now := s.now()
	if err := s.profileRepo.UpdateLastSeen(userID, now); err != nil {
		return err
	}
	s.hub.Publish(ws.Event{
		Type: ws.EventUserStatus,
		Payload: map[string]any{
			"user_id":      userID.String(),
			"status":       "online",
			"last_seen_at": now,
		},
	})
	return nil
}
