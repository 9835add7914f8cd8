package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/events"
	"github.com/spec-kit/account-service/internal/repository"
	apperrors "github.com/spec-kit/account-service/pkg/util"
)

// UpdateUserInput carries the optional profile fields to change.
type UpdateUserInput struct {
	Name     *string
	Email    *string
	Password *string
}

// UserService implements self-service profile operations.
type UserService struct {
	users  repository.UserRepository
	hasher auth.PasswordHasher
	events events.Dispatcher
	logger *zap.Logger
}

// NewUserService builds the service.
func NewUserService(users repository.UserRepository, hasher auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{users: users, hasher: hasher, events: dispatcher, logger: logger.Named("users")}
}

// Register creates a new active account.
func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already in use", nil)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hashPassword(password)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, apperrors.NewConflict("email already in use", nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.New(events.EventUserRegistered, &user.ID, nil))
	return user, nil
}

// Update changes the caller's own profile. The target must be an active account
// belonging to the caller.
func (s *UserService) Update(ctx context.Context, callerID, id int64, in UpdateUserInput) (*domain.User, error) {
	user, err := s.users.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if user.ID != callerID {
		return nil, apperrors.NewForbidden("you may only change your own account")
	}

	var fields []string
	if in.Name != nil {
		user.Name = *in.Name
		fields = append(fields, "name")
	}
	if in.Email != nil {
		user.Email = *in.Email
		fields = append(fields, "email")
	}
	if in.Password != nil {
		hash, err := s.hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
		fields = append(fields, "password")
	}
	if len(fields) == 0 {
		return user, nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return nil, apperrors.NewConflict("email already in use", nil)
		case errors.Is(err, pgx.ErrNoRows):
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.New(events.EventUserUpdated, &user.ID, events.UserChangedPayload{Fields: fields}))
	return user, nil
}

// Deactivate disables the caller's own account. Tokens already issued expire naturally.
func (s *UserService) Deactivate(ctx context.Context, callerID, id int64) error {
	if id != callerID {
		return apperrors.NewForbidden("you may only change your own account")
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return apperrors.NewInternalError(err)
	}
	s.publish(ctx, events.New(events.EventUserDeactivated, &id, nil))
	return nil
}

// Profile returns an active user.
func (s *UserService) Profile(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindActiveByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

func (s *UserService) hashPassword(password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return "", apperrors.NewValidationError("password too long", map[string]any{"max_bytes": 72})
		}
		return "", apperrors.NewInternalError(err)
	}
	return hash, nil
}

func (s *UserService) publish(ctx context.Context, event events.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publish event", zap.String("type", string(event.Type)), zap.Error(err))
	}
}
