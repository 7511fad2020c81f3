package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-storefront/internal/model"
	"go-storefront/internal/repository"
	"go-storefront/pkg/jwt"
	"go-storefront/pkg/validator"
)

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error)
}

type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required"`
}

type LoginResponse struct {
	Token      string             `json:"token"`
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type TokenValidationResponse struct {
	User       model.UserResponse `json:"user"`
	Privileges []string           `json:"privileges"`
}

type authService struct {
	userRepo repository.UserRepository
	roleRepo repository.RoleRepository
	log      *zap.Logger
}

func NewAuthService(userRepo repository.UserRepository, roleRepo repository.RoleRepository, log *zap.Logger) AuthService {
	return &authService{
		userRepo: userRepo,
		roleRepo: roleRepo,
		log:      log,
	}
}

func (s *authService) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if msg := validator.FirstError(req); msg != "" {
		return nil, invalidInput(msg)
	}

	// 1. Email must be free
	if _, err := s.userRepo.FindByEmail(ctx, req.Email); err == nil {
		return nil, ErrEmailTaken
	} else if !repository.IsNotFound(err) {
		return nil, err
	}

	// 2. Customers shop with the CUSTOMER role
	role, err := s.roleRepo.FindByCode(ctx, model.RoleCustomer)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		RoleID:   &role.ID,
		IsActive: true,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, err
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()))
	return s.Login(ctx, req.Email, req.Password)
}

func (s *authService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	// 1. Find user by email
	user, err := s.userRepo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Check if user is active
	if !user.IsActive {
		return nil, ErrUserInactive
	}

	// 3. Verify password
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}

	roleCode := ""
	if user.Role != nil {
		roleCode = user.Role.Code
	}

	// 4. Single session: a new token version invalidates older tokens
	tokenVersion := uuid.New().String()
	if err := s.userRepo.UpdateTokenVersion(ctx, user.ID, tokenVersion); err != nil {
		return nil, errors.New("failed to update session")
	}

	privileges := user.GetPrivilegeCodes()
	token, err := jwt.GenerateToken(jwt.Principal{
		UserID:       user.ID,
		Email:        user.Email,
		Name:         user.FullName,
		RoleCode:     roleCode,
		Privileges:   privileges,
		TokenVersion: tokenVersion,
	})
	if err != nil {
		return nil, errors.New("failed to generate token")
	}

	return &LoginResponse{
		Token:      token,
		User:       user.ToResponse(),
		Privileges: privileges,
	}, nil
}

func (s *authService) ValidateToken(ctx context.Context, tokenString string) (*TokenValidationResponse, error) {
	claims, err := jwt.ValidateToken(tokenString)
	if err != nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnauthenticated
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if user.TokenVersion != claims.TokenVersion {
		return nil, ErrSessionReplaced
	}

	return &TokenValidationResponse{
		User:       user.ToResponse(),
		Privileges: user.GetPrivilegeCodes(),
	}, nil
}
