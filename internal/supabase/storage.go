package supabase

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

const listPageSize = 1000

type StorageClient struct {
	client *storage.Client
	bucket string
}

func NewStorageClient(supabaseURL, apiKey, bucket string) (*StorageClient, error) {
	if bucket == "" {
		return nil, fmt.Errorf("storage bucket is required")
	}
	baseURL := strings.TrimRight(supabaseURL, "/")
	client := storage.NewClient(baseURL+"/storage/v1", apiKey, nil)

	return &StorageClient{
		client: client,
		bucket: bucket,
	}, nil
}

// Upload stores the blob at name inside the bucket root and returns the
// path to keep in image_path.
func (s *StorageClient) Upload(ctx context.Context, name, contentType string, data io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	opts := storage.FileOptions{}
	if contentType != "" {
		opts.ContentType = &contentType
	}
	upsert := false
	opts.Upsert = &upsert

	if _, err := s.client.UploadFile(s.bucket, name, data, opts); err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	return name, nil
}

func (s *StorageClient) Remove(ctx context.Context, storagePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{storagePath}); err != nil {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	return nil
}

// Exists pages through the folder listing until it finds name or runs out.
func (s *StorageClient) Exists(ctx context.Context, storagePath string) (bool, error) {
	dir, name := path.Split(storagePath)
	prefix := strings.TrimSuffix(dir, "/")

	for offset := 0; ; offset += listPageSize {
		if err := ctx.Err(); err != nil {
			return false, err
		}

		files, err := s.client.ListFiles(s.bucket, prefix, storage.FileSearchOptions{
			Limit:  listPageSize,
			Offset: offset,
			SortByOptions: storage.SortBy{
				Column: "name",
				Order:  "asc",
			},
		})
		if err != nil {
			return false, fmt.Errorf("failed to list files: %w", err)
		}
		for _, f := range files {
			if f.Name == name {
				return true, nil
			}
		}
		if len(files) < listPageSize {
			return false, nil
		}
	}
}

// ResolveURL returns the public URL the storage client computes for the path.
func (s *StorageClient) ResolveURL(storagePath string) string {
	return s.client.GetPublicUrl(s.bucket, storagePath).SignedURL
}
