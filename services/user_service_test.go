package services

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/parsix/parsix-backend/storage"
)

type fakeUploader struct {
	objects map[string]string
	deleted []string
}

func newFakeUploader() *fakeUploader {
	return &fakeUploader{objects: make(map[string]string)}
}

func (u *fakeUploader) Upload(ctx context.Context, key string, contentType string, reader io.Reader) (*storage.UploadResult, error) {
	u.objects[key] = contentType
	return &storage.UploadResult{Key: key, Location: u.GetPublicURL(key)}, nil
}

func (u *fakeUploader) Delete(ctx context.Context, key string) error {
	delete(u.objects, key)
	u.deleted = append(u.deleted, key)
	return nil
}

func (u *fakeUploader) GetPublicURL(key string) string {
	return "https://cdn.example.com/" + key
}

func TestUserServiceGetProfile(t *testing.T) {
	users := newFakeUserRepo()
	users.add("u1", "alice")
	svc := NewUserService(users, newFakeUploader(), testLogger())

	user, err := svc.GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, "alice", user.Handle)
	require.Nil(t, user.AvatarURL)

	_, err = svc.GetProfile(context.Background(), "missing")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserServiceUploadAvatar(t *testing.T) {
	users := newFakeUserRepo()
	users.add("u1", "alice")
	uploader := newFakeUploader()
	svc := NewUserService(users, uploader, testLogger())

	_, err := svc.UploadAvatar(context.Background(), "u1", "application/pdf", strings.NewReader("nope"))
	require.ErrorIs(t, err, ErrAvatarInvalidType)

	user, err := svc.UploadAvatar(context.Background(), "u1", "image/png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	require.Equal(t, "avatars/u1.png", *user.AvatarKey)
	require.Equal(t, "https://cdn.example.com/avatars/u1.png", *user.AvatarURL)

	// A different format replaces the old object.
	user, err = svc.UploadAvatar(context.Background(), "u1", "image/webp", strings.NewReader("webp-bytes"))
	require.NoError(t, err)
	require.Equal(t, "avatars/u1.webp", *user.AvatarKey)
	require.Contains(t, uploader.deleted, "avatars/u1.png")
}
