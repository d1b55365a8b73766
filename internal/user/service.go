package user

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"courseconnect/internal/apperr"
	"courseconnect/internal/media"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type Service struct {
	repo          Repository
	images        media.Store
	jwtSecret     string
	tokenValidity time.Duration
}

type MyJWTClaims struct {
	ID       string `json:"id"`
	FullName string `json:"full_name"`
	jwt.RegisteredClaims
}

func NewService(repo Repository, images media.Store, secret string, tokenValidity time.Duration) *Service {
	return &Service{
		repo:          repo,
		images:        images,
		jwtSecret:     secret,
		tokenValidity: tokenValidity,
	}
}

func (s *Service) TokenValidity() time.Duration {
	return s.tokenValidity
}

func (s *Service) Signup(ctx context.Context, req *SignupRequest) (*AuthResponse, error) {
	fullName := strings.TrimSpace(req.FullName)
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if fullName == "" || email == "" || req.Password == "" {
		return nil, apperr.Validation("All fields are required")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperr.Validation("Invalid email address")
	}
	if len(req.Password) < minPasswordLen {
		return nil, apperr.Validation("Password must be at least 6 characters")
	}

	hashedPwd, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &User{
		ID:       uuid.New(),
		FullName: fullName,
		Email:    email,
		Password: string(hashedPwd),
	}

	if err := s.repo.CreateUser(ctx, u); err != nil {
		if errors.Is(err, apperr.ErrConflict) {
			return nil, apperr.Conflict("Email already exists")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.issue(u)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	u, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Validation("Invalid credentials")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return nil, apperr.Validation("Invalid credentials")
	}

	return s.issue(u)
}

func (s *Service) issue(u *User) (*AuthResponse, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, MyJWTClaims{
		ID:       u.ID.String(),
		FullName: u.FullName,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "courseconnect",
			Subject:   u.ID.String(),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.tokenValidity)),
		},
	})

	ss, err := token.SignedString([]byte(s.jwtSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &AuthResponse{User: *u, AccessToken: ss}, nil
}

// ValidateToken returns the user id and display name carried by a session token.
func (s *Service) ValidateToken(tokenString string) (uuid.UUID, string, error) {
	claims := &MyJWTClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(s.jwtSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil || !token.Valid {
		return uuid.Nil, "", apperr.Unauthenticated("Unauthorized - Invalid Token")
	}

	id, err := uuid.Parse(claims.ID)
	if err != nil {
		return uuid.Nil, "", apperr.Unauthenticated("Unauthorized - Invalid Token")
	}
	return id, claims.FullName, nil
}

// CurrentUser backs GET /auth/check.
func (s *Service) CurrentUser(ctx context.Context, id uuid.UUID) (*User, error) {
	u, err := s.repo.GetUserByID(ctx, id)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.Unauthenticated("Unauthorized - User not found")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// UpdateProfilePic uploads a base64 image and stores its URL on the user.
func (s *Service) UpdateProfilePic(ctx context.Context, id uuid.UUID, req *UpdateProfileRequest) (*User, error) {
	if req.ProfilePic == "" {
		return nil, apperr.Validation("Profile pic is required")
	}

	img, err := media.DecodeImage(req.ProfilePic)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Put(ctx, "avatars", img.Data, img.ContentType)
	if err != nil {
		return nil, apperr.Dependency("Failed to upload profile picture", err)
	}

	u, err := s.repo.UpdateProfilePic(ctx, id, url)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return u, nil
}

// ListOthers returns every user except the requester.
func (s *Service) ListOthers(ctx context.Context, requester uuid.UUID) ([]Summary, error) {
	users, err := s.repo.ListUsersExcept(ctx, requester)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}
