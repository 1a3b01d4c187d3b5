package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/jwt"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/oauth"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrEmailExists        = errors.New("email is already registered")
	ErrUsernameExists     = errors.New("username is already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotVerified   = errors.New("email is not verified")
	ErrInvalidVerifyCode  = errors.New("verification code is invalid or expired")
	ErrOAuthDisabled      = errors.New("github login is not configured")
	ErrInvalidOAuthState  = errors.New("invalid or expired oauth state")
)

const verificationTTL = 24 * time.Hour

// GithubProvider GitHub OAuth 能力
type GithubProvider interface {
	Enabled() bool
	GetAuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
	GetUser(ctx context.Context, token *oauth2.Token) (*oauth.GithubUser, error)
}

// VerificationMailer 发送邮箱验证码
type VerificationMailer interface {
	SendVerificationCode(to, code string) error
}

// OAuthStateStore OAuth state 存储
type OAuthStateStore interface {
	GenerateState(ctx context.Context, returnTo string) (string, error)
	ValidateState(ctx context.Context, state string) (string, error)
}

type AuthService struct {
	userRepo *repository.UserRepository
	cfg      *config.Config
	github   GithubProvider
	states   OAuthStateStore
	mailer   VerificationMailer
	notifier Notifier
	log      *logrus.Entry
}

func NewAuthService(
	userRepo *repository.UserRepository,
	github GithubProvider,
	states OAuthStateStore,
	mailer VerificationMailer,
	notifier Notifier,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		cfg:      cfg,
		github:   github,
		states:   states,
		mailer:   mailer,
		notifier: notifier,
		log:      logger.Component("auth"),
	}
}

// Register 用户注册
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	exists, err := s.userRepo.ExistsByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	exists, err = s.userRepo.ExistsByUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	verifyCode, err := generateRandomCode(32)
	if err != nil {
		return nil, err
	}

	passwordStr := string(hashedPassword)
	expiresAt := time.Now().UTC().Add(verificationTTL)
	user := &model.User{
		Username:              req.Username,
		Email:                 &req.Email,
		PasswordHash:          &passwordStr,
		Role:                  model.RoleUser,
		MembershipTier:        model.TierFree,
		VerificationCode:      &verifyCode,
		VerificationExpiresAt: &expiresAt,
	}

	if err := s.userRepo.Create(user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	// 开发环境自动验证邮箱
	if s.cfg.Server.Mode == "debug" {
		if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{"email_verified": true}); err != nil {
			return nil, err
		}
	} else if s.mailer != nil {
		if err := s.mailer.SendVerificationCode(req.Email, verifyCode); err != nil {
			s.log.WithError(err).WithField("user_id", user.ID).Warn("failed to send verification email")
		}
	}

	NotifyQuietly(ctx, s.notifier, s.log, user.ID, model.TemplateWelcome, nil)

	s.log.WithField("user_id", user.ID).Info("user registered")
	return &dto.RegisterResponse{UserID: user.ID}, nil
}

// Login 用户登录
func (s *AuthService) Login(req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByEmail(req.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if user.PasswordHash == nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	// 生产环境强制要求邮箱验证
	if !user.EmailVerified && s.cfg.Server.Mode != "debug" {
		return nil, ErrEmailNotVerified
	}

	return s.issueToken(user)
}

// VerifyEmail 验证邮箱
func (s *AuthService) VerifyEmail(code string) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByVerificationCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidVerifyCode
		}
		return nil, err
	}

	if user.VerificationExpiresAt == nil || time.Now().After(*user.VerificationExpiresAt) {
		return nil, ErrInvalidVerifyCode
	}

	if err := s.userRepo.UpdateFields(user.ID, map[string]interface{}{
		"email_verified":          true,
		"verification_code":       nil,
		"verification_expires_at": nil,
	}); err != nil {
		return nil, err
	}
	user.EmailVerified = true

	return s.issueToken(user)
}

// GetUserByID 根据 ID 获取用户
func (s *AuthService) GetUserByID(id int64) (*model.User, error) {
	user, err := s.userRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// GithubAuthURL 生成 state 并返回 GitHub 授权地址
func (s *AuthService) GithubAuthURL(ctx context.Context, returnTo string) (string, error) {
	if s.github == nil || !s.github.Enabled() || s.states == nil {
		return "", ErrOAuthDisabled
	}
	state, err := s.states.GenerateState(ctx, returnTo)
	if err != nil {
		return "", err
	}
	return s.github.GetAuthURL(state), nil
}

// GithubCallback 处理 GitHub OAuth 回调，返回登录结果和站内跳转路径
func (s *AuthService) GithubCallback(ctx context.Context, code, state string) (*dto.LoginResponse, string, error) {
	if s.github == nil || !s.github.Enabled() || s.states == nil {
		return nil, "", ErrOAuthDisabled
	}

	returnTo, err := s.states.ValidateState(ctx, state)
	if err != nil {
		if errors.Is(err, oauth.ErrInvalidState) {
			return nil, "", ErrInvalidOAuthState
		}
		return nil, "", err
	}

	token, err := s.github.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange code: %w", err)
	}

	githubUser, err := s.github.GetUser(ctx, token)
	if err != nil {
		return nil, "", err
	}

	githubIDStr := fmt.Sprintf("%d", githubUser.ID)
	user, err := s.userRepo.GetByGithubID(githubIDStr)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", err
	}

	if user == nil {
		user, err = s.createGithubUser(ctx, githubUser, githubIDStr)
		if err != nil {
			return nil, "", err
		}
	}

	resp, err := s.issueToken(user)
	if err != nil {
		return nil, "", err
	}
	return resp, returnTo, nil
}

// createGithubUser 首次 GitHub 登录：邮箱已注册时绑定到已有账号
func (s *AuthService) createGithubUser(ctx context.Context, gh *oauth.GithubUser, githubID string) (*model.User, error) {
	if gh.Email != "" {
		existing, err := s.userRepo.GetByEmail(gh.Email)
		if err == nil {
			if err := s.userRepo.UpdateFields(existing.ID, map[string]interface{}{
				"github_id":      githubID,
				"email_verified": true,
			}); err != nil {
				return nil, err
			}
			existing.GithubID = &githubID
			return existing, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	user := &model.User{
		Username:       gh.Login,
		GithubID:       &githubID,
		AvatarURL:      gh.AvatarURL,
		Role:           model.RoleUser,
		MembershipTier: model.TierFree,
		EmailVerified:  true,
	}
	if gh.Email != "" {
		user.Email = &gh.Email
	}

	exists, err := s.userRepo.ExistsByUsername(user.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		user.Username = fmt.Sprintf("%s_%d", gh.Login, gh.ID)
	}

	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	NotifyQuietly(ctx, s.notifier, s.log, user.ID, model.TemplateWelcome, nil)
	return user, nil
}

func (s *AuthService) issueToken(user *model.User) (*dto.LoginResponse, error) {
	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, err
	}
	return &dto.LoginResponse{
		Token: token,
		User:  toUserInfo(user),
	}, nil
}

func generateRandomCode(length int) (string, error) {
	bytes := make([]byte, length/2)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
