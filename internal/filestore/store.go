package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"order-board/internal/models"
	"order-board/internal/port"
)

const dataFileMode os.FileMode = 0o644

// Store keeps the whole order collection in one pretty-printed JSON document
// and image blobs as plain files in a directory.
//
// The mutex only serializes writers inside this process. Two processes sharing
// the same file still race and the last write wins.
type Store struct {
	path     string
	imageDir string
	baseURL  string
	now      func() time.Time

	mu sync.Mutex
}

type Options struct {
	DataFile string
	ImageDir string
	// BaseURL is where the server exposes ImageDir, e.g. "http://localhost:8080/images".
	BaseURL string
}

// Open prepares the data and image directories. Call it once at startup.
func Open(opts Options) (*Store, error) {
	if opts.DataFile == "" {
		return nil, errors.New("data file path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(opts.DataFile), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if opts.ImageDir != "" {
		if err := os.MkdirAll(opts.ImageDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create image directory: %w", err)
		}
	}

	return &Store{
		path:     opts.DataFile,
		imageDir: opts.ImageDir,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		now:      time.Now,
	}, nil
}

// ReadAll returns the stored collection. A missing or unreadable document is
// treated as an empty collection.
func (s *Store) ReadAll(_ context.Context) []models.Order {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Printf("filestore: failed to read %s, treating as empty: %v", s.path, err)
		}
		return []models.Order{}
	}

	var orders []models.Order
	if err := json.Unmarshal(data, &orders); err != nil {
		log.Printf("filestore: %s is corrupt, treating as empty: %v", s.path, err)
		return []models.Order{}
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders
}

// ReplaceAll overwrites the whole document.
func (s *Store) ReplaceAll(_ context.Context, orders []models.Order) error {
	if orders == nil {
		orders = []models.Order{}
	}

	stored := make([]models.Order, len(orders))
	for i, o := range orders {
		o.ImageURL = ""
		stored[i] = o
	}

	data, err := json.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("json.MarshalIndent: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".orders-*.json")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	defer os.Remove(tmp.Name())

	// CreateTemp opens with 0600; the data file keeps the usual 0644
	if err := tmp.Chmod(dataFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Order, error) {
	orders := s.ReadAll(ctx)
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].Date.Before(orders[j].Date)
	})
	return orders, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Order, error) {
	for _, o := range s.ReadAll(ctx) {
		if o.ID == id {
			return o, nil
		}
	}
	return models.Order{}, port.ErrNotFound
}

func (s *Store) Create(ctx context.Context, draft models.OrderDraft) (models.Order, error) {
	if err := draft.Validate(); err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.ReadAll(ctx)
	order := draft.NewOrder(uuid.NewString(), s.now())
	orders = append(orders, order)

	if err := s.ReplaceAll(ctx, orders); err != nil {
		return models.Order{}, fmt.Errorf("s.ReplaceAll: %w", err)
	}
	return order, nil
}

func (s *Store) Update(ctx context.Context, id string, patch models.OrderPatch) (models.Order, error) {
	if err := patch.Validate(); err != nil {
		return models.Order{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.ReadAll(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return models.Order{}, port.ErrNotFound
	}

	orders[idx] = patch.Apply(orders[idx])
	if err := s.ReplaceAll(ctx, orders); err != nil {
		return models.Order{}, fmt.Errorf("s.ReplaceAll: %w", err)
	}
	return orders[idx], nil
}

func (s *Store) Delete(ctx context.Context, id string) (models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	orders := s.ReadAll(ctx)
	idx := indexOf(orders, id)
	if idx < 0 {
		return models.Order{}, port.ErrNotFound
	}

	removed := orders[idx]
	orders = append(orders[:idx], orders[idx+1:]...)
	if err := s.ReplaceAll(ctx, orders); err != nil {
		return models.Order{}, fmt.Errorf("s.ReplaceAll: %w", err)
	}
	return removed, nil
}

func (s *Store) Upload(_ context.Context, name, _ string, data io.Reader) (string, error) {
	if s.imageDir == "" {
		return "", errors.New("image directory is not configured")
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid blob name %q", name)
	}

	f, err := os.Create(filepath.Join(s.imageDir, name))
	if err != nil {
		return "", fmt.Errorf("failed to create blob: %w", err)
	}
	if _, err := io.Copy(f, data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close blob: %w", err)
	}
	return name, nil
}

func (s *Store) Remove(_ context.Context, path string) error {
	if err := os.Remove(s.blobPath(path)); err != nil {
		return fmt.Errorf("failed to remove blob: %w", err)
	}
	return nil
}

func (s *Store) Exists(_ context.Context, path string) (bool, error) {
	_, err := os.Stat(s.blobPath(path))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (s *Store) ResolveURL(path string) string {
	return s.baseURL + "/" + path
}

func (s *Store) blobPath(path string) string {
	return filepath.Join(s.imageDir, filepath.Base(path))
}

func indexOf(orders []models.Order, id string) int {
	for i, o := range orders {
		if o.ID == id {
			return i
		}
	}
	return -1
}

var _ port.Storage = (*Store)(nil)
