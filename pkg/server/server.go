package server

import (
	"net/http"
	"time"

	"github.com/matst80/slask-filterset/pkg/common"
	"github.com/matst80/slask-filterset/pkg/filterset"
	"github.com/matst80/slask-filterset/pkg/storage"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const DefaultSearchHref = "/search/?type=VariantSample"

// FilterSetServer holds one controller per session and exposes its operations over http.
type FilterSetServer struct {
	Storage        storage.Storage
	Navigator      filterset.Navigator
	Counter        filterset.BlockCounter
	SearchHref     string
	ExcludedFields []string
	Throttle       *common.Throttle
	sessions       *sessionStore
}

type Options struct {
	SearchHref     string
	ExcludedFields []string
	// ThrottleEvery is the minimum spacing of mutations per session, off when zero.
	ThrottleEvery time.Duration
	ThrottleBurst int
}

func DefaultOptions() Options {
	return Options{
		SearchHref:    DefaultSearchHref,
		ThrottleEvery: 100 * time.Millisecond,
		ThrottleBurst: 1,
	}
}

func NewFilterSetServer(store storage.Storage, navigator filterset.Navigator, counter filterset.BlockCounter, opts Options) *FilterSetServer {
	if opts.SearchHref == "" {
		opts.SearchHref = DefaultSearchHref
	}
	return &FilterSetServer{
		Storage:        store,
		Navigator:      navigator,
		Counter:        counter,
		SearchHref:     opts.SearchHref,
		ExcludedFields: opts.ExcludedFields,
		Throttle:       common.NewThrottle(opts.ThrottleEvery, opts.ThrottleBurst),
		sessions:       newSessionStore(),
	}
}

// throttled rejects mutations that arrive faster than the session throttle allows.
func (s *FilterSetServer) throttled(fn func(w http.ResponseWriter, r *http.Request) (any, error)) func(w http.ResponseWriter, r *http.Request) (any, error) {
	return func(w http.ResponseWriter, r *http.Request) (any, error) {
		if !s.Throttle.Allow(r.PathValue("id")) {
			return nil, common.WithStatus(http.StatusTooManyRequests, errTooManyRequests)
		}
		return fn(w, r)
	}
}

func (s *FilterSetServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("GET /presets", common.JsonHandler(s.ListPresets))
	mux.HandleFunc("POST /presets", common.JsonHandler(s.SavePreset))

	mux.HandleFunc("POST /sessions", common.JsonHandler(s.CreateSession))
	mux.HandleFunc("GET /sessions/{id}", common.JsonHandler(s.GetSession))
	mux.HandleFunc("DELETE /sessions/{id}", common.JsonHandler(s.DeleteSession))

	mux.HandleFunc("POST /sessions/{id}/blocks", common.JsonHandler(s.throttled(s.AddBlock)))
	mux.HandleFunc("PUT /sessions/{id}/blocks/{index}", common.JsonHandler(s.throttled(s.RenameBlock)))
	mux.HandleFunc("DELETE /sessions/{id}/blocks/{index}", common.JsonHandler(s.throttled(s.RemoveBlock)))
	mux.HandleFunc("POST /sessions/{id}/blocks/{index}/copy", common.JsonHandler(s.throttled(s.CopyBlock)))
	mux.HandleFunc("PUT /sessions/{id}/title", common.JsonHandler(s.throttled(s.SetTitle)))
	mux.HandleFunc("POST /sessions/{id}/select", common.JsonHandler(s.throttled(s.SelectBlock)))
	mux.HandleFunc("POST /sessions/{id}/select-all", common.JsonHandler(s.throttled(s.SelectAll)))
	mux.HandleFunc("POST /sessions/{id}/intersect", common.JsonHandler(s.throttled(s.ToggleIntersect)))
	mux.HandleFunc("POST /sessions/{id}/import/{preset}", common.JsonHandler(s.throttled(s.ImportPreset)))
	mux.HandleFunc("POST /sessions/{id}/save", common.JsonHandler(s.throttled(s.Save)))
	mux.HandleFunc("POST /sessions/{id}/counts", common.JsonHandler(s.RefreshCounts))
	mux.HandleFunc("POST /sessions/{id}/context", common.JsonHandler(s.ReceiveContext))

	return mux
}
