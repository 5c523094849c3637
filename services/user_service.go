package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/parsix/parsix-backend/models"
	"github.com/parsix/parsix-backend/repositories"
	"github.com/parsix/parsix-backend/storage"
)

var avatarExtensions = map[string]string{
	"image/png":  "png",
	"image/jpeg": "jpg",
	"image/webp": "webp",
}

type UserService interface {
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UploadAvatar(ctx context.Context, userID, contentType string, reader io.Reader) (*models.User, error)
}

type userService struct {
	userRepo repositories.UserRepository
	uploader storage.FileUploader
	logger   *slog.Logger
}

func NewUserService(userRepo repositories.UserRepository, uploader storage.FileUploader, logger *slog.Logger) UserService {
	return &userService{userRepo: userRepo, uploader: uploader, logger: logger}
}

func (s *userService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	s.decorate(user)
	return user, nil
}

func (s *userService) UploadAvatar(ctx context.Context, userID, contentType string, reader io.Reader) (*models.User, error) {
	ext, ok := avatarExtensions[contentType]
	if !ok {
		return nil, ErrAvatarInvalidType
	}

	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldKey := user.AvatarKey

	key := fmt.Sprintf("avatars/%s.%s", userID, ext)
	if _, err := s.uploader.Upload(ctx, key, contentType, reader); err != nil {
		return nil, fmt.Errorf("failed to upload avatar: %w", err)
	}

	if err := s.userRepo.UpdateAvatarKey(ctx, userID, &key); err != nil {
		return nil, fmt.Errorf("failed to save avatar key: %w", err)
	}

	if oldKey != nil && *oldKey != key {
		if err := s.uploader.Delete(ctx, *oldKey); err != nil {
			s.logger.Warn("failed to delete previous avatar",
				slog.String("key", *oldKey), slog.Any("error", err))
		}
	}

	user.AvatarKey = &key
	s.decorate(user)

	s.logger.Info("avatar updated", slog.String("user_id", userID), slog.String("key", key))
	return user, nil
}

func (s *userService) decorate(user *models.User) {
	user.PasswordHash = ""
	if user.AvatarKey != nil {
		url := s.uploader.GetPublicURL(*user.AvatarKey)
		user.AvatarURL = &url
	}
}
