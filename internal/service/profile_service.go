package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/squad-service/internal/auth"
	"github.com/spec-kit/squad-service/internal/domain"
	"github.com/spec-kit/squad-service/internal/events"
	"github.com/spec-kit/squad-service/internal/repository"
	apperrors "github.com/spec-kit/squad-service/pkg/util/errorutil"
)

// ProfileService manages the caller's own profile.
type ProfileService struct {
	profiles repository.ProfileRepository
	publisher
}

// NewProfileService constructs the service.
func NewProfileService(profiles repository.ProfileRepository, dispatcher events.Dispatcher, logger *zap.Logger) *ProfileService {
	return &ProfileService{profiles: profiles, publisher: newPublisher(dispatcher, logger)}
}

// ProfileUpdateInput carries optional profile changes. Nil fields are left
// untouched; ClearX flags reset optional values.
type ProfileUpdateInput struct {
	FullName     *string
	Position     *string
	JerseyNumber *int
	BirthDate    *time.Time
	Phone        *string

	ClearJerseyNumber bool
	ClearBirthDate    bool
}

// Get returns a fresh copy of the caller's profile.
func (s *ProfileService) Get(ctx context.Context, principal *auth.Principal) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, principal.ID())
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return profile, nil
}

// Update applies in to the caller's profile.
func (s *ProfileService) Update(ctx context.Context, principal *auth.Principal, in ProfileUpdateInput) (*domain.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, principal.ID())
	if err != nil {
		return nil, notFound(err, "profile")
	}

	if in.FullName != nil {
		name := strings.TrimSpace(*in.FullName)
		if name == "" {
			return nil, apperrors.NewValidationError("full_name is required", map[string]any{"field": "full_name"})
		}
		profile.FullName = name
	}
	if in.Position != nil {
		profile.Position = trimPtr(in.Position)
	}
	if in.Phone != nil {
		profile.Phone = trimPtr(in.Phone)
	}
	if in.JerseyNumber != nil {
		if *in.JerseyNumber < 1 || *in.JerseyNumber > 99 {
			return nil, apperrors.NewValidationError("jersey_number must be between 1 and 99", map[string]any{"field": "jersey_number"})
		}
		profile.JerseyNumber = in.JerseyNumber
	}
	if in.ClearJerseyNumber {
		profile.JerseyNumber = nil
	}
	if in.BirthDate != nil {
		if in.BirthDate.After(s.now()) {
			return nil, apperrors.NewValidationError("birth_date must be in the past", map[string]any{"field": "birth_date"})
		}
		profile.BirthDate = in.BirthDate
	}
	if in.ClearBirthDate {
		profile.BirthDate = nil
	}

	if err := s.profiles.Update(ctx, profile); err != nil {
		return nil, err
	}
	if profile.TeamID != nil {
		s.publishEvent(ctx, events.Event{
			Type:     events.EventRosterChanged,
			TeamID:   *profile.TeamID,
			Table:    "profiles",
			Action:   events.ActionUpdate,
			RecordID: profile.ID,
			Actor:    actorOf(principal),
		})
	}
	return profile, nil
}
