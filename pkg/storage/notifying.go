package storage

import (
	"context"
	"log"

	"github.com/matst80/slask-filterset/pkg/types"
)

type Publisher interface {
	PublishSaved(fs *types.FilterSet) error
}

// NotifyingStorage publishes every saved filter set after it has been stored.
// Publishing failures are logged and never fail the save.
type NotifyingStorage struct {
	Storage
	Publisher Publisher
}

func (s *NotifyingStorage) Save(ctx context.Context, payload types.SavePayload) (*types.FilterSet, error) {
	saved, err := s.Storage.Save(ctx, payload)
	if err != nil {
		return nil, err
	}
	s.publish(saved)
	return saved, nil
}

func (s *NotifyingStorage) SavePreset(ctx context.Context, fs *types.FilterSet) (*types.FilterSet, error) {
	saved, err := s.Storage.SavePreset(ctx, fs)
	if err != nil {
		return nil, err
	}
	s.publish(saved)
	return saved, nil
}

func (s *NotifyingStorage) publish(fs *types.FilterSet) {
	if s.Publisher == nil {
		return
	}
	if err := s.Publisher.PublishSaved(fs); err != nil {
		log.Printf("Error publishing saved filter set %s: %v", fs.UUID, err)
	}
}
