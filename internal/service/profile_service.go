package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/duncun-ubuntu/financial-backend/internal/domain"
	"github.com/duncun-ubuntu/financial-backend/internal/port"

	"github.com/ttacon/libphonenumber"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var profileTracer = otel.Tracer("service/profile")

// ProfileService reads and edits the owner's profile.
type ProfileService struct {
	store       port.ProfileStore
	phoneRegion string
	logger      *zap.Logger
	now         func() time.Time
}

// NewProfileService creates a profile service. phoneRegion is the ISO
// region used for numbers given without a country code.
func NewProfileService(store port.ProfileStore, phoneRegion string, logger *zap.Logger) *ProfileService {
	return &ProfileService{
		store:       store,
		phoneRegion: strings.ToUpper(phoneRegion),
		logger:      logger,
		now:         time.Now,
	}
}

// Get returns the owner's profile, creating the default one on first use.
func (s *ProfileService) Get(ctx context.Context, ownerID int64) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Get")
	defer span.End()

	p, err := s.store.GetProfile(ctx, ownerID)
	if err == nil {
		return p, nil
	}

	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		return nil, err
	}

	p = domain.NewProfile(ownerID, "", "", s.now())
	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("create profile: %w", err)
	}
	s.logger.Info("profile created", zap.Int64("owner_id", ownerID))
	return p, nil
}

// Update applies the non-nil fields of req. A phone number is checked and
// stored in E.164 form.
func (s *ProfileService) Update(ctx context.Context, ownerID int64, req *domain.UpdateProfileRequest) (*domain.Profile, error) {
	ctx, span := profileTracer.Start(ctx, "ProfileService.Update")
	defer span.End()

	if req.Phone != nil && strings.TrimSpace(*req.Phone) != "" {
		phone, err := s.normalizePhone(*req.Phone)
		if err != nil {
			return nil, err
		}
		req.Phone = &phone
	}

	p, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	req.Apply(p)

	if err := s.store.SaveProfile(ctx, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	return p, nil
}

func (s *ProfileService) normalizePhone(raw string) (string, error) {
	num, err := libphonenumber.Parse(raw, s.phoneRegion)
	if err != nil {
		return "", &domain.ErrValidation{Field: "phone", Message: "phone number could not be parsed"}
	}
	if !libphonenumber.IsValidNumber(num) {
		return "", &domain.ErrValidation{Field: "phone", Message: "phone number is not valid"}
	}
	return libphonenumber.Format(num, libphonenumber.E164), nil
}
