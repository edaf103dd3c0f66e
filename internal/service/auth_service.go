package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/dom/lingo-exchange/internal/chat"
	"github.com/dom/lingo-exchange/internal/config"
	"github.com/dom/lingo-exchange/internal/domain"
	"github.com/dom/lingo-exchange/internal/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const avatarCount = 100

type AuthService struct {
	userRepo     repository.UserRepository
	chatProvider chat.Provider
	cfg          *config.Config
}

func NewAuthService(userRepo repository.UserRepository, chatProvider chat.Provider, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo:     userRepo,
		chatProvider: chatProvider,
		cfg:          cfg,
	}
}

type SignupInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	FullName string `json:"fullName" validate:"required"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type OnboardInput struct {
	FullName         string `json:"fullName" validate:"required"`
	Bio              string `json:"bio" validate:"required"`
	NativeLanguage   string `json:"nativeLanguage" validate:"required"`
	LearningLanguage string `json:"learningLanguage" validate:"required"`
	Location         string `json:"location" validate:"required"`
	ProfilePic       string `json:"profilePic"`
}

type AuthResult struct {
	User  *domain.User
	Token string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	input.FullName = strings.TrimSpace(input.FullName)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err == nil && existing != nil {
		return nil, ErrEmailExists
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        input.Email,
		PasswordHash: string(hashedPassword),
		FullName:     input.FullName,
		ProfilePic:   s.randomAvatar(),
		IsOnboarded:  false,
		Friends:      []uuid.UUID{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.syncChatUser(ctx, "auth.Signup", user)

	return s.issue(user)
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	input.Email = normalizeEmail(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return s.issue(user)
}

// Authenticate resolves a session token to its user. Every failure, including a
// user deleted after the token was issued, is reported as ErrUnauthorized.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	userID, err := s.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: user %s no longer exists", ErrUnauthorized, userID)
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) CompleteOnboarding(ctx context.Context, userID uuid.UUID, input OnboardInput) (*domain.User, error) {
	input = trimOnboardInput(input)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	domain.OnboardingProfile{
		FullName:         input.FullName,
		Bio:              input.Bio,
		NativeLanguage:   input.NativeLanguage,
		LearningLanguage: input.LearningLanguage,
		Location:         input.Location,
		ProfilePic:       input.ProfilePic,
	}.Apply(user)

	if err := s.userRepo.UpdateProfile(ctx, user); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	s.syncChatUser(ctx, "auth.CompleteOnboarding", user)

	return user, nil
}

func trimOnboardInput(in OnboardInput) OnboardInput {
	in.FullName = strings.TrimSpace(in.FullName)
	in.Bio = strings.TrimSpace(in.Bio)
	in.NativeLanguage = strings.TrimSpace(in.NativeLanguage)
	in.LearningLanguage = strings.TrimSpace(in.LearningLanguage)
	in.Location = strings.TrimSpace(in.Location)
	in.ProfilePic = strings.TrimSpace(in.ProfilePic)
	return in
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// SessionTTL is the lifetime of issued tokens; the session cookie uses the same value.
func (s *AuthService) SessionTTL() time.Duration {
	return s.cfg.SessionTTL
}

func (s *AuthService) issue(user *domain.User) (*AuthResult, error) {
	token, err := s.generateToken(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.SessionTTL)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}

// ValidateToken checks signature and expiry and returns the embedded user ID.
func (s *AuthService) ValidateToken(tokenString string) (uuid.UUID, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.cfg.JWTSecret), nil
	}, jwt.WithExpirationRequired())
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	if !token.Valid {
		return uuid.Nil, ErrUnauthorized
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid subject: %w", ErrUnauthorized, err)
	}
	return userID, nil
}

func (s *AuthService) randomAvatar() string {
	idx := rand.IntN(avatarCount) + 1
	return fmt.Sprintf(s.cfg.AvatarURLTemplate, idx)
}

// syncChatUser mirrors the user into the chat provider. Failures never fail the caller.
func (s *AuthService) syncChatUser(ctx context.Context, op string, user *domain.User) {
	err := s.chatProvider.UpsertUser(ctx, chat.User{
		ID:    user.ID.String(),
		Name:  user.FullName,
		Image: user.ProfilePic,
	})
	switch {
	case err == nil:
	case errors.Is(err, chat.ErrNotConfigured):
		// nothing to sync with
	default:
		log.Printf("ERROR [%s] failed to sync chat user %s: %v", op, user.ID, err)
	}
}
