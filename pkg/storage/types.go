package storage

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/matst80/slask-filterset/pkg/types"
)

var ErrNotFound = errors.New("filter set not found")

const idPrefix = "/filter-sets/"

const defaultStatus = "current"

// Storage persists filter sets and presets.
type Storage interface {
	Save(ctx context.Context, payload types.SavePayload) (*types.FilterSet, error)
	Get(ctx context.Context, id string) (*types.FilterSet, error)
	SavePreset(ctx context.Context, fs *types.FilterSet) (*types.FilterSet, error)
	ListPresets(ctx context.Context, searchType types.SearchType) ([]types.FilterSet, error)
}

// Key reduces either a uuid or an "@id" path to the uuid used as storage key.
func Key(id string) string {
	id = strings.TrimPrefix(id, idPrefix)
	return strings.Trim(id, "/")
}

func assignIdentity(fs *types.FilterSet) {
	if fs.UUID == "" {
		if key := Key(fs.Id); key != "" {
			fs.UUID = key
		} else {
			fs.UUID = uuid.New().String()
		}
	}
	if fs.Id == "" {
		fs.Id = idPrefix + fs.UUID + "/"
	}
	if fs.Status == "" {
		fs.Status = defaultStatus
	}
}

func matchesType(fs *types.FilterSet, searchType types.SearchType) bool {
	return searchType == "" || fs.SearchType == searchType
}
