package service

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/mythrivebuddy/thrive_server/config"
	"github.com/mythrivebuddy/thrive_server/internal/model"
	"github.com/mythrivebuddy/thrive_server/internal/model/dto"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/logger"
	"github.com/mythrivebuddy/thrive_server/internal/pkg/oss"
	"github.com/mythrivebuddy/thrive_server/internal/repository"
)

var (
	ErrStorageDisabled = errors.New("object storage is not configured")
	ErrFileTooLarge    = errors.New("file is too large")
	ErrFileType        = errors.New("file type is not allowed")
)

type UserService struct {
	userRepo *repository.UserRepository
	storage  oss.Storage
	cfg      *config.Config
	log      *logrus.Entry
}

func NewUserService(userRepo *repository.UserRepository, storage oss.Storage, cfg *config.Config) *UserService {
	return &UserService{
		userRepo: userRepo,
		storage:  storage,
		cfg:      cfg,
		log:      logger.Component("user"),
	}
}

// GetProfile 获取用户详情（含 JP 概况）
func (s *UserService) GetProfile(userID int64) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return toUserInfo(user), nil
}

// UpdateProfile 更新用户信息
func (s *UserService) UpdateProfile(userID int64, req *dto.UpdateProfileRequest) (*dto.UserInfo, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	fields := map[string]interface{}{}
	if req.Username != nil && *req.Username != user.Username {
		exists, err := s.userRepo.ExistsByUsername(*req.Username)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrUsernameExists
		}
		fields["username"] = *req.Username
		user.Username = *req.Username
	}
	if req.Bio != nil {
		fields["bio"] = *req.Bio
		user.Bio = *req.Bio
	}

	if len(fields) > 0 {
		if err := s.userRepo.UpdateFields(userID, fields); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return nil, ErrUsernameExists
			}
			return nil, err
		}
	}
	return toUserInfo(user), nil
}

// UploadAvatar 上传头像到对象存储，成功后删除旧头像
func (s *UserService) UploadAvatar(userID int64, file io.Reader, filename string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		ext = ".jpg"
	}
	if !s.allowedExt(ext) {
		return "", ErrFileType
	}

	limit := s.cfg.Upload.MaxSize
	if limit <= 0 {
		limit = 5 << 20
	}
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return "", err
	}
	if int64(len(data)) > limit {
		return "", ErrFileTooLarge
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrUserNotFound
		}
		return "", err
	}

	avatarURL, err := s.storage.Put(oss.AvatarKey(userID, ext), data, oss.ContentType(ext))
	if err != nil {
		return "", fmt.Errorf("upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateFields(userID, map[string]interface{}{"avatar_url": avatarURL}); err != nil {
		return "", err
	}

	if old := s.storage.ExtractObjectKey(user.AvatarURL); old != "" && strings.HasPrefix(old, "avatars/") {
		if err := s.storage.Delete(old); err != nil {
			s.log.WithError(err).WithField("key", old).Warn("failed to delete old avatar")
		}
	}
	return avatarURL, nil
}

func (s *UserService) allowedExt(ext string) bool {
	allowed := s.cfg.Upload.AllowedExtensions
	if len(allowed) == 0 {
		allowed = []string{".jpg", ".jpeg", ".png", ".webp"}
	}
	for _, a := range allowed {
		if strings.EqualFold(a, ext) {
			return true
		}
	}
	return false
}

func toUserInfo(user *model.User) *dto.UserInfo {
	info := &dto.UserInfo{
		ID:             user.ID,
		Username:       user.Username,
		AvatarURL:      user.AvatarURL,
		Bio:            user.Bio,
		Role:           user.Role,
		MembershipTier: user.MembershipTier,
		EmailVerified:  user.EmailVerified,
		JP:             toJPSummary(user),
	}
	if user.Email != nil {
		info.Email = *user.Email
	}
	if !user.CreatedAt.IsZero() {
		info.CreatedAt = user.CreatedAt.UTC().Format(time.RFC3339)
	}
	return info
}
