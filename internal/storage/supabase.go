package storage

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	storage_go "github.com/supabase-community/storage-go"
)

type SupabaseStore struct {
	client *storage_go.Client
	bucket string
	logger *slog.Logger
}

func NewSupabaseStore(client *storage_go.Client, bucket string, logger *slog.Logger) *SupabaseStore {
	return &SupabaseStore{client: client, bucket: bucket, logger: logger.With("component", "supabase_storage")}
}

func (s *SupabaseStore) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	objectPath = strings.TrimPrefix(objectPath, "/")
	body, contentType := sniff(r)
	upsert := true

	if _, err := s.client.UploadFile(s.bucket, objectPath, body, storage_go.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	}); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectPath, err)
	}

	res := s.client.GetPublicUrl(s.bucket, objectPath)
	if res.SignedURL == "" {
		return "", fmt.Errorf("no public url for %s", objectPath)
	}
	s.logger.Debug("blob uploaded", "path", objectPath, "bucket", s.bucket)
	return res.SignedURL, nil
}

func (s *SupabaseStore) Delete(ctx context.Context, objectPath string) error {
	if _, err := s.client.RemoveFile(s.bucket, []string{strings.TrimPrefix(objectPath, "/")}); err != nil {
		return fmt.Errorf("failed to delete %s: %w", objectPath, err)
	}
	return nil
}
