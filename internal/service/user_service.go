package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/immxrtalbeast/axenix_chat/internal/domain"
	"github.com/immxrtalbeast/axenix_chat/internal/repository"
	"github.com/immxrtalbeast/axenix_chat/lib/logger/sl"
)

type UserService struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
	log    *slog.Logger
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer, log *slog.Logger) *UserService {
	return &UserService{users: users, hasher: hasher, tokens: tokens, log: log}
}

func (s *UserService) Register(ctx context.Context, name, email, password string) (*domain.User, error) {
	const op = "service.user.register"
	log := s.log.With(slog.String("op", op))

	in := registerInput{
		Name:     strings.TrimSpace(name),
		Email:    normalizeEmail(email),
		Password: password,
	}
	if err := validateStruct(in, fieldErrors{"Password": ErrWeakPassword}, ErrInvalidUserInput); err != nil {
		log.Info("invalid registration", sl.Err(err))
		return nil, err
	}
	if err := checkPasswordLength(in.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		log.Error("failed to hash password", sl.Err(err))
		return nil, err
	}

	user := domain.NewUser(in.Name, in.Email, hash)
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrUserEmailExists) {
			return nil, err
		}
		log.Error("failed to create user", sl.Err(err))
		return nil, remote(op, err)
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return user, nil
}

// Login returns a session token for the user with the given credentials.
func (s *UserService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	const op = "service.user.login"
	log := s.log.With(slog.String("op", op))

	user, err := s.users.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, remote(op, err)
	}
	if !s.hasher.Verify(password, user.PasswordHash) {
		log.Info("login rejected", slog.String("user_id", user.ID.String()))
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.Identity())
	if err != nil {
		log.Error("failed to issue token", sl.Err(err))
		return "", nil, err
	}
	return token, user, nil
}

func (s *UserService) GetUser(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, remote("service.user.get", err)
	}
	return user, nil
}

// UpdateEmail passes repository errors through unchanged.
func (s *UserService) UpdateEmail(ctx context.Context, id uuid.UUID, email string) (*domain.User, error) {
	email = normalizeEmail(email)
	if err := validate.Var(email, "required,email"); err != nil {
		return nil, ErrInvalidUserInput
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.Email = email
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) UpdatePassword(ctx context.Context, id uuid.UUID, password string) error {
	if err := validate.Var(password, "required,min=6"); err != nil {
		return ErrWeakPassword
	}
	if err := checkPasswordLength(password); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, user)
}
