package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"leadbook/internal/common"
	"leadbook/internal/models"
	"leadbook/internal/repositories"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles registration, password login and session lookup
type AuthService interface {
	Register(ctx context.Context, in models.RegisterInput) (*models.User, string, error)
	Login(ctx context.Context, in models.LoginInput) (*models.User, string, error)
	Logout(ctx context.Context, token string) error
	CurrentUser(ctx context.Context, token string) (*models.User, error)
}

type authService struct {
	userRepo   repositories.UserRepository
	sessions   SessionService
	bcryptCost int
	logger     *zap.Logger

	dummyOnce sync.Once
	dummyHash []byte
}

// NewAuthService creates the auth service. bcryptCost outside bcrypt's
// accepted range falls back to bcrypt.DefaultCost.
func NewAuthService(userRepo repositories.UserRepository, sessions SessionService, bcryptCost int, logger *zap.Logger) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &authService{
		userRepo:   userRepo,
		sessions:   sessions,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates the account and signs the new user in.
func (s *authService) Register(ctx context.Context, in models.RegisterInput) (*models.User, string, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return nil, "", err
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, "", &common.DuplicateKeyError{Field: "Email"}
	} else if !errors.Is(err, common.ErrNotFound) {
		return nil, "", fmt.Errorf("failed to look up email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, common.ErrDuplicateKey) {
			return nil, "", &common.DuplicateKeyError{Field: "Email"}
		}
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, _, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	s.logger.Info("user registered", zap.String("user_id", user.ID.String()))
	return user, token, nil
}

// Login checks the password. Unknown email and wrong password fail identically.
func (s *authService) Login(ctx context.Context, in models.LoginInput) (*models.User, string, error) {
	email := common.NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		verr := &common.ValidationError{}
		if email == "" {
			verr.Add("email", "Email is required")
		}
		if in.Password == "" {
			verr.Add("password", "Password is required")
		}
		return nil, "", verr
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			// keep timing comparable to a real password check
			_ = bcrypt.CompareHashAndPassword(s.dummyPasswordHash(), []byte(in.Password))
			return nil, "", common.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, "", common.ErrInvalidCredentials
	}

	token, _, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes the token. Missing or invalid tokens are not an error, and
// neither is an unreachable revocation store: the cookie is cleared anyway.
func (s *authService) Logout(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.logger.Warn("session revocation unavailable", zap.Error(err))
	}
	return nil
}

// CurrentUser resolves a session token to its user
func (s *authService) CurrentUser(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.sessions.Verify(ctx, token)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, common.ErrSessionInvalid
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrUnauthenticated
		}
		return nil, fmt.Errorf("failed to load session user: %w", err)
	}
	return user, nil
}

func (s *authService) dummyPasswordHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte(uuid.NewString()), s.bcryptCost)
		if err != nil {
			s.logger.Warn("failed to build dummy password hash", zap.Error(err))
			return
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}
