package auth

import (
	"context"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	autherrors "github.com/Jenkinson16/leaveease-api/internal/auth/errors"
	"github.com/Jenkinson16/leaveease-api/internal/authz"
	"github.com/Jenkinson16/leaveease-api/internal/shared/contextutil"
	"github.com/Jenkinson16/leaveease-api/internal/user"
	usererrors "github.com/Jenkinson16/leaveease-api/internal/user/errors"
)

const defaultTokenTTL = 24 * time.Hour

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (AuthResponse, error)
	GetMe(ctx context.Context, username string) (MeResponse, error)
}

type service struct {
	users  user.Repository
	logger *zap.Logger
}

func NewService(users user.Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("auth.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("auth.service")
	}
	return &service{users: users, logger: l}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (AuthResponse, error) {
	l := contextutil.GetLogger(ctx, s.logger)

	role := req.Role
	if role == "" {
		role = string(authz.RoleEmployee)
	}
	if !authz.ValidRole(role) {
		return AuthResponse{}, autherrors.ErrInvalidRole
	}

	taken, err := s.users.ExistsByUsername(ctx, req.Username)
	if err != nil {
		l.Error("register username lookup failed", zap.Error(err))
		return AuthResponse{}, err
	}
	if taken {
		return AuthResponse{}, usererrors.ErrUsernameTaken
	}

	taken, err = s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		l.Error("register email lookup failed", zap.Error(err))
		return AuthResponse{}, err
	}
	if taken {
		return AuthResponse{}, usererrors.ErrEmailTaken
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return AuthResponse{}, err
	}

	u := &user.User{
		ID:       uuid.New(),
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Role:     role,
	}
	if err := s.users.Create(ctx, u); err != nil {
		l.Warn("register persist failed", zap.String("username", req.Username), zap.Error(err))
		return AuthResponse{}, err
	}

	token, err := s.generateToken(u.Username, u.Role)
	if err != nil {
		return AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	l.Info("user registered",
		zap.String("username", u.Username),
		zap.String("role", u.Role),
	)
	return AuthResponse{Token: token, Username: u.Username, Role: u.Role}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (AuthResponse, error) {
	u, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(req.Password)); err != nil {
		return AuthResponse{}, autherrors.ErrInvalidCredentials
	}

	token, err := s.generateToken(u.Username, u.Role)
	if err != nil {
		return AuthResponse{}, autherrors.ErrTokenGenerationFailed
	}

	contextutil.GetLogger(ctx, s.logger).Info("user logged in", zap.String("username", u.Username))
	return AuthResponse{Token: token, Username: u.Username, Role: u.Role}, nil
}

func (s *service) GetMe(ctx context.Context, username string) (MeResponse, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return MeResponse{}, err
	}
	return MeResponse{
		ID:       u.ID.String(),
		Username: u.Username,
		Email:    u.Email,
		Role:     u.Role,
	}, nil
}

func (s *service) generateToken(username, role string) (string, error) {
	ttl := defaultTokenTTL
	if v := os.Getenv("JWT_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			ttl = d
		}
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub":  username,
		"role": role,
		"iat":  now.Unix(),
		"exp":  now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
