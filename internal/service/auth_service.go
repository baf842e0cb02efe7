package service

import (
	"context"
	"errors"

	"github.com/mbeoliero/kit/log"
	"github.com/kinshipapp/kinship/internal/config"
	"github.com/kinshipapp/kinship/internal/entity"
	"github.com/kinshipapp/kinship/internal/repository"
	"github.com/kinshipapp/kinship/pkg/errcode"
	"github.com/kinshipapp/kinship/pkg/idgen"
	"github.com/kinshipapp/kinship/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthService handles registration and login
type AuthService struct {
	userRepo *repository.UserRepo
	cfg      *config.Config
}

// NewAuthService creates a new AuthService
func NewAuthService(repos *repository.Repositories, cfg *config.Config) *AuthService {
	return &AuthService{
		userRepo: repos.User,
		cfg:      cfg,
	}
}

// RegisterRequest represents registration request
type RegisterRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Nickname string `json:"nickname"`
}

// LoginRequest represents login request
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// AuthResponse carries the issued token and the user's public profile
type AuthResponse struct {
	Token string           `json:"token"`
	User  *entity.UserInfo `json:"user"`
}

// Register creates a new user account and issues a token
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errcode.ErrInvalidParam
	}

	existing, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		log.CtxError(ctx, "check username failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if existing != nil {
		return nil, errcode.ErrUserExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.CtxError(ctx, "hash password failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	id, err := idgen.NextID()
	if err != nil {
		log.CtxError(ctx, "generate user id failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	nickname := req.Nickname
	if nickname == "" {
		nickname = req.Username
	}

	user := &entity.User{
		Id:       id,
		Username: req.Username,
		Password: string(hash),
		Nickname: nickname,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		// The unique index on username is authoritative; the pre-check
		// above only shortcuts the common case.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, errcode.ErrUserExists
		}
		log.CtxError(ctx, "create user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	token, err := jwt.GenerateToken(user.Id, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		log.CtxError(ctx, "generate token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "user registered: user_id=%s, username=%s", user.Id, user.Username)
	return &AuthResponse{Token: token, User: user.ToUserInfo()}, nil
}

// Login verifies credentials and issues a token
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if req.Username == "" || req.Password == "" {
		return nil, errcode.ErrInvalidParam
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		log.CtxError(ctx, "get user failed: %v", err)
		return nil, errcode.ErrInternalServer
	}
	if user == nil {
		return nil, errcode.ErrPasswordWrong
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, errcode.ErrPasswordWrong
	}

	token, err := jwt.GenerateToken(user.Id, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		log.CtxError(ctx, "generate token failed: %v", err)
		return nil, errcode.ErrInternalServer
	}

	log.CtxInfo(ctx, "user logged in: user_id=%s", user.Id)
	return &AuthResponse{Token: token, User: user.ToUserInfo()}, nil
}
