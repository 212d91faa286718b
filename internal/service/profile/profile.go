package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/thera_backend/internal/domain"
	"github.com/Alijeyrad/thera_backend/internal/store"
	"github.com/Alijeyrad/thera_backend/pkg/s3"
	"github.com/Alijeyrad/thera_backend/pkg/sms"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type UpdateRequest struct {
	FullName        *string
	AvatarURL       *string
	Phone           *string
	Bio             *string
	Specialties     []string
	HourlyRateCents *int64
	Timezone        *string
}

type AvatarUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"upload_url"`
}

type TherapistPage struct {
	Items   []domain.Profile `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	PerPage int              `json:"per_page"`
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Store interface {
	GetProfile(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	UpdateProfile(ctx context.Context, id uuid.UUID, patch domain.ProfilePatch) (*domain.Profile, error)
	ListTherapists(ctx context.Context, page store.Page) ([]domain.Profile, int, error)
	SetSubscriptionStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error
}

// Presigner issues upload URLs for avatar objects.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string) (string, error)
}

type Service interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	GetTherapist(ctx context.Context, id uuid.UUID) (*domain.Profile, error)
	Update(ctx context.Context, ownerID uuid.UUID, req UpdateRequest) (*domain.Profile, error)
	AvatarUploadURL(ctx context.Context, ownerID uuid.UUID, contentType string) (*AvatarUpload, error)
	ListTherapists(ctx context.Context, page, perPage int) (*TherapistPage, error)
	SetSubscriptionStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type profileService struct {
	store   Store
	uploads Presigner
}

// New builds the profile service. uploads may be nil when object storage is
// not configured.
func New(st Store, uploads Presigner) Service {
	return &profileService{store: st, uploads: uploads}
}

func (s *profileService) Get(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := s.store.GetProfile(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *profileService) GetTherapist(ctx context.Context, id uuid.UUID) (*domain.Profile, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !p.Role.IsTherapist() {
		return nil, ErrNotTherapist
	}
	return p, nil
}

func (s *profileService) Update(ctx context.Context, ownerID uuid.UUID, req UpdateRequest) (*domain.Profile, error) {
	current, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if !current.Role.IsTherapist() && (req.Bio != nil || req.Specialties != nil || req.HourlyRateCents != nil) {
		return nil, ErrTherapistOnly
	}

	var patch domain.ProfilePatch

	if req.FullName != nil {
		name := strings.TrimSpace(*req.FullName)
		if name == "" {
			return nil, ErrInvalidName
		}
		patch.FullName = &name
	}
	if req.AvatarURL != nil {
		avatar := strings.TrimSpace(*req.AvatarURL)
		if avatar != "" && !strings.HasPrefix(avatar, "https://") && !s3.OwnsAvatarKey(ownerID, avatar) {
			return nil, ErrInvalidAvatar
		}
		patch.AvatarURL = &avatar
	}
	if req.Phone != nil {
		phone := strings.TrimSpace(*req.Phone)
		if phone != "" {
			phone, err = sms.NormalizePhone(phone)
			if err != nil {
				return nil, ErrInvalidPhone
			}
		}
		patch.Phone = &phone
	}
	if req.Bio != nil {
		bio := strings.TrimSpace(*req.Bio)
		patch.Bio = &bio
	}
	if req.Specialties != nil {
		specs := lo.Uniq(lo.Compact(lo.Map(req.Specialties, func(v string, _ int) string {
			return strings.TrimSpace(v)
		})))
		patch.Specialties = &specs
	}
	if req.HourlyRateCents != nil {
		if *req.HourlyRateCents < 0 {
			return nil, ErrInvalidRate
		}
		patch.HourlyRateCents = req.HourlyRateCents
	}
	if req.Timezone != nil {
		tz := strings.TrimSpace(*req.Timezone)
		if _, err := time.LoadLocation(tz); err != nil || tz == "" {
			return nil, ErrInvalidTimezone
		}
		patch.Timezone = &tz
	}

	p, err := s.store.UpdateProfile(ctx, ownerID, patch)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return p, nil
}

func (s *profileService) AvatarUploadURL(ctx context.Context, ownerID uuid.UUID, contentType string) (*AvatarUpload, error) {
	if s.uploads == nil {
		return nil, ErrUploadsDisabled
	}
	key, err := s3.AvatarKey(ownerID, contentType)
	if err != nil {
		return nil, ErrUnsupportedImage
	}
	url, err := s.uploads.PresignUpload(ctx, key, contentType)
	if err != nil {
		return nil, fmt.Errorf("presign avatar upload: %w", err)
	}
	return &AvatarUpload{Key: key, UploadURL: url}, nil
}

func (s *profileService) ListTherapists(ctx context.Context, page, perPage int) (*TherapistPage, error) {
	p := store.Page{Page: page, PerPage: perPage}.Normalized()
	items, total, err := s.store.ListTherapists(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("list therapists: %w", err)
	}
	return &TherapistPage{Items: items, Total: total, Page: p.Page, PerPage: p.PerPage}, nil
}

func (s *profileService) SetSubscriptionStatus(ctx context.Context, id uuid.UUID, status domain.SubscriptionStatus) error {
	if err := s.store.SetSubscriptionStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("set subscription status: %w", err)
	}
	return nil
}
