package server

import (
	"errors"
	"log"
	"net/http"

	"github.com/matst80/slask-filterset/pkg/common"
	"github.com/matst80/slask-filterset/pkg/filterset"
	"github.com/matst80/slask-filterset/pkg/types"
)

var errTooManyRequests = errors.New("too many requests")

const defaultTitle = "New Filter Set"

func (s *FilterSetServer) lookup(r *http.Request) (*session, error) {
	return s.sessions.get(r.PathValue("id"))
}

// CreateSession opens a controller for a stored filter set, or for a new one
// when no filterset parameter is given.
func (s *FilterSetServer) CreateSession(w http.ResponseWriter, r *http.Request) (any, error) {
	req := CreateSessionRequest{}
	if err := decodeQuery(r, &req); err != nil {
		return nil, err
	}
	if req.SearchType == "" {
		req.SearchType = types.VariantSample
	}
	if !req.SearchType.Valid() {
		return nil, common.WithStatus(http.StatusBadRequest, errors.New("unknown search type "+string(req.SearchType)))
	}

	var doc *types.FilterSet
	if req.FilterSet != "" {
		if s.Storage == nil {
			return nil, common.WithStatus(http.StatusNotImplemented, filterset.ErrNoSaver)
		}
		stored, err := s.Storage.Get(r.Context(), req.FilterSet)
		if err != nil {
			return nil, statusOf(err)
		}
		doc = stored
	} else {
		title := req.Title
		if title == "" {
			title = defaultTitle
		}
		doc = &types.FilterSet{Title: title, SearchType: req.SearchType}
	}

	href := req.Href
	if href == "" {
		href = s.SearchHref
	}
	cfg := filterset.Config{
		SearchHref:     href,
		ExcludedFields: s.ExcludedFields,
		Counter:        s.Counter,
	}
	if s.Storage != nil {
		cfg.Saver = s.Storage
	}
	c, err := filterset.NewController(doc, s.Navigator, cfg)
	if err != nil {
		return nil, statusOf(err)
	}
	sess := s.sessions.add(c)
	log.Printf("created session %s for filter set %q", sess.id, doc.Identity())
	c.Start()
	return sess.view(), nil
}

func (s *FilterSetServer) GetSession(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	return sess.view(), nil
}

func (s *FilterSetServer) DeleteSession(w http.ResponseWriter, r *http.Request) (any, error) {
	id := r.PathValue("id")
	if !s.sessions.remove(id) {
		return nil, common.WithStatus(http.StatusNotFound, ErrSessionNotFound)
	}
	s.Throttle.Forget(id)
	return nil, nil
}

func (s *FilterSetServer) AddBlock(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	var seed *types.FilterBlock
	if r.ContentLength > 0 {
		req := BlockRequest{}
		if err = decodeBody(r, &req); err != nil {
			return nil, err
		}
		seed = &types.FilterBlock{Name: req.Name, Query: req.Query}
	}
	idx, err := sess.controller.AddBlock(seed)
	if err != nil {
		return nil, statusOf(err)
	}
	return BlockResponse{SessionView: sess.view(), Index: idx}, nil
}

func (s *FilterSetServer) CopyBlock(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	from, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	idx, err := sess.controller.CopyBlock(from)
	if err != nil {
		return nil, statusOf(err)
	}
	return BlockResponse{SessionView: sess.view(), Index: idx}, nil
}

func (s *FilterSetServer) RemoveBlock(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	idx, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	if err = sess.controller.RemoveBlock(idx); err != nil {
		return nil, statusOf(err)
	}
	return sess.view(), nil
}

func (s *FilterSetServer) RenameBlock(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	idx, err := pathIndex(r)
	if err != nil {
		return nil, err
	}
	req := BlockRequest{}
	if err = decodeBody(r, &req); err != nil {
		return nil, err
	}
	if err = sess.controller.RenameBlock(idx, req.Name); err != nil {
		return nil, statusOf(err)
	}
	return sess.view(), nil
}

func (s *FilterSetServer) SetTitle(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	req := TitleRequest{}
	if err = decodeBody(r, &req); err != nil {
		return nil, err
	}
	sess.controller.SetTitle(req.Title)
	return sess.view(), nil
}

func (s *FilterSetServer) SelectBlock(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	req := SelectRequest{}
	if err = decodeQuery(r, &req); err != nil {
		return nil, err
	}
	if err = sess.controller.SelectBlock(req.Index, req.Exclusive); err != nil {
		return nil, statusOf(err)
	}
	return sess.view(), nil
}

func (s *FilterSetServer) SelectAll(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	sess.controller.SelectAll()
	return sess.view(), nil
}

func (s *FilterSetServer) ToggleIntersect(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	sess.controller.ToggleIntersect()
	return sess.view(), nil
}

func (s *FilterSetServer) ImportPreset(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	if s.Storage == nil {
		return nil, common.WithStatus(http.StatusNotImplemented, filterset.ErrNoSaver)
	}
	preset, err := s.Storage.Get(r.Context(), r.PathValue("preset"))
	if err != nil {
		return nil, statusOf(err)
	}
	if err = sess.controller.ImportFromPreset(preset); err != nil {
		return nil, statusOf(err)
	}
	return sess.view(), nil
}

func (s *FilterSetServer) Save(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	if _, err = sess.controller.Save(r.Context()); err != nil {
		return nil, statusOf(err)
	}
	return sess.view(), nil
}

func (s *FilterSetServer) RefreshCounts(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	if err = sess.controller.RefreshCounts(r.Context()); err != nil {
		return nil, statusOf(err)
	}
	return sess.view(), nil
}

// ReceiveContext feeds a search response the client loaded on its own.
func (s *FilterSetServer) ReceiveContext(w http.ResponseWriter, r *http.Request) (any, error) {
	sess, err := s.lookup(r)
	if err != nil {
		return nil, err
	}
	ctx := &types.SearchContext{}
	if err = decodeBody(r, ctx); err != nil {
		return nil, err
	}
	sess.controller.ReceiveSearchContext(ctx)
	return sess.view(), nil
}

func (s *FilterSetServer) ListPresets(w http.ResponseWriter, r *http.Request) (any, error) {
	if s.Storage == nil {
		return nil, common.WithStatus(http.StatusNotImplemented, filterset.ErrNoSaver)
	}
	req := PresetsRequest{}
	if err := decodeQuery(r, &req); err != nil {
		return nil, err
	}
	presets, err := s.Storage.ListPresets(r.Context(), req.SearchType)
	if err != nil {
		return nil, statusOf(err)
	}
	if presets == nil {
		presets = []types.FilterSet{}
	}
	return presets, nil
}

func (s *FilterSetServer) SavePreset(w http.ResponseWriter, r *http.Request) (any, error) {
	if s.Storage == nil {
		return nil, common.WithStatus(http.StatusNotImplemented, filterset.ErrNoSaver)
	}
	fs := &types.FilterSet{}
	if err := decodeBody(r, fs); err != nil {
		return nil, err
	}
	if len(fs.Blocks) == 0 {
		return nil, common.WithStatus(http.StatusBadRequest, filterset.ErrNoBlocks)
	}
	saved, err := s.Storage.SavePreset(r.Context(), fs)
	if err != nil {
		return nil, statusOf(err)
	}
	return saved, nil
}
