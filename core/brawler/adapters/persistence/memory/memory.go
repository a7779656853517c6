// Package memory is a process-local brawler store for development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"brawler/core/brawler/domain"
	"brawler/modules/clock"
)

var _ domain.BrawlerRepository = (*BrawlerStore)(nil)

type BrawlerStore struct {
	clock clock.Clock

	mu      sync.RWMutex
	lastID  int64
	byID    map[int64]domain.Brawler
	handles map[string]int64
}

func New(c clock.Clock) *BrawlerStore {
	if c == nil {
		c = clock.RealClockProvider()
	}
	return &BrawlerStore{
		clock:   c,
		byID:    make(map[int64]domain.Brawler),
		handles: make(map[string]int64),
	}
}

// Register implements domain.BrawlerRepository.
func (s *BrawlerStore) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Brawler, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.handles[req.Handle]; ok {
		return nil, domain.ErrDuplicateBrawler
	}
	s.lastID++
	now := s.clock.Now()
	b := domain.Brawler{
		ID:          s.lastID,
		Handle:      req.Handle,
		DisplayName: req.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
		Version:     1,
	}
	s.byID[b.ID] = b
	s.handles[b.Handle] = b.ID
	return clone(b), nil
}

// UpdateDisplayName implements domain.BrawlerRepository.
func (s *BrawlerStore) UpdateDisplayName(ctx context.Context, id int64, name string) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return domain.ErrBrawlerNotFound
	}
	b.DisplayName = name
	s.touch(&b)
	s.byID[id] = b
	return nil
}

// StoreAvatar implements domain.BrawlerRepository.
func (s *BrawlerStore) StoreAvatar(ctx context.Context, id int64, encoded string) (*domain.UploadedImage, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrBrawlerNotFound
	}
	b.Avatar = &encoded
	s.touch(&b)
	s.byID[id] = b
	return &domain.UploadedImage{BrawlerID: id, Base64: encoded}, nil
}

// GetBrawler implements domain.BrawlerRepository.
func (s *BrawlerStore) GetBrawler(ctx context.Context, id int64) (*domain.Brawler, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnavailable, err)
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.byID[id]
	if !ok {
		return nil, domain.ErrBrawlerNotFound
	}
	return clone(b), nil
}

func (s *BrawlerStore) touch(b *domain.Brawler) {
	b.UpdatedAt = s.clock.Now()
	b.Version++
}

// clone detaches the returned value from the stored one.
func clone(b domain.Brawler) *domain.Brawler {
	if b.Avatar != nil {
		a := *b.Avatar
		b.Avatar = &a
	}
	return &b
}
