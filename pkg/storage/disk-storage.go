package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"sync"

	"github.com/matst80/slask-filterset/pkg/common/jsoncompat"
	"github.com/matst80/slask-filterset/pkg/types"
)

// DiskStorage keeps every filter set in a single json file.
type DiskStorage struct {
	Path string
	mu   sync.Mutex
}

type filterSetFile struct {
	FilterSets []types.FilterSet `json:"filter_sets"`
}

func NewDiskStorage(path string) *DiskStorage {
	return &DiskStorage{Path: path}
}

func (s *DiskStorage) readFile() (*filterSetFile, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, os.ErrNotExist) {
		return &filterSetFile{FilterSets: []types.FilterSet{}}, nil
	}
	if err != nil {
		return nil, err
	}
	file := &filterSetFile{}
	if err = jsoncompat.Unmarshal(data, file); err != nil {
		return nil, err
	}
	return file, nil
}

func (s *DiskStorage) writeFile(file *filterSetFile) error {
	data, err := jsoncompat.Marshal(file)
	if err != nil {
		return err
	}
	if err = os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	if err = os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.Path)
}

func (s *DiskStorage) upsert(fs *types.FilterSet) (*types.FilterSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.readFile()
	if err != nil {
		return nil, err
	}
	assignIdentity(fs)
	idx := slices.IndexFunc(file.FilterSets, func(existing types.FilterSet) bool {
		return existing.UUID == fs.UUID
	})
	if idx == -1 {
		file.FilterSets = append(file.FilterSets, *fs)
	} else {
		fs.IsPreset = fs.IsPreset || file.FilterSets[idx].IsPreset
		file.FilterSets[idx] = *fs
	}
	if err = s.writeFile(file); err != nil {
		return nil, err
	}
	return fs.Clone(), nil
}

func (s *DiskStorage) Save(_ context.Context, payload types.SavePayload) (*types.FilterSet, error) {
	return s.upsert(payload.ToFilterSet())
}

func (s *DiskStorage) SavePreset(_ context.Context, fs *types.FilterSet) (*types.FilterSet, error) {
	preset := fs.Clone()
	preset.IsPreset = true
	return s.upsert(preset)
}

func (s *DiskStorage) Get(_ context.Context, id string) (*types.FilterSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.readFile()
	if err != nil {
		return nil, err
	}
	key := Key(id)
	for _, fs := range file.FilterSets {
		if fs.UUID == key {
			return fs.Clone(), nil
		}
	}
	return nil, ErrNotFound
}

func (s *DiskStorage) ListPresets(_ context.Context, searchType types.SearchType) ([]types.FilterSet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, err := s.readFile()
	if err != nil {
		return nil, err
	}
	presets := make([]types.FilterSet, 0)
	for _, fs := range file.FilterSets {
		if fs.IsPreset && matchesType(&fs, searchType) {
			presets = append(presets, fs)
		}
	}
	return presets, nil
}
