package navigation

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/matst80/slask-filterset/pkg/common/jsoncompat"
	"github.com/matst80/slask-filterset/pkg/filterset"
	"github.com/matst80/slask-filterset/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	DefaultCompoundPath = "/compound_search"
	maxResponseSize     = 32 << 20
)

var searchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "filterset_search_duration_seconds",
	Help:    "Time spent waiting for the search backend",
	Buckets: prometheus.DefBuckets,
}, []string{"kind"})

// HttpNavigator runs navigation targets against the search backend over http
// and reports the response as a search context.
type HttpNavigator struct {
	BaseUrl      string
	CompoundPath string
	Client       *http.Client
	Timeout      time.Duration
}

type searchResponse struct {
	Id         string               `json:"@id"`
	Total      int                  `json:"total"`
	Filters    []types.ActiveFilter `json:"filters"`
	SearchType types.SearchType     `json:"search_type"`
}

func NewHttpNavigator(baseUrl string) *HttpNavigator {
	return &HttpNavigator{
		BaseUrl:      baseUrl,
		CompoundPath: DefaultCompoundPath,
		Client:       &http.Client{},
		Timeout:      30 * time.Second,
	}
}

// Navigate loads target in the background and calls onComplete once with the result.
func (n *HttpNavigator) Navigate(target types.NavigationTarget, opts types.NavigateOptions, onComplete func(types.NavigateResult)) {
	go func() {
		ctx := context.Background()
		if n.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, n.Timeout)
			defer cancel()
		}
		sc, err := n.Load(ctx, target)
		onComplete(types.NavigateResult{Context: sc, Err: err})
	}()
}

// Load runs target and decodes the search response.
func (n *HttpNavigator) Load(ctx context.Context, target types.NavigationTarget) (*types.SearchContext, error) {
	var req *http.Request
	var err error
	kind := "single"
	if target.IsCompound() {
		kind = "compound"
		body, merr := jsoncompat.Marshal(target.Compound)
		if merr != nil {
			return nil, merr
		}
		path := n.CompoundPath
		if path == "" {
			path = DefaultCompoundPath
		}
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, n.BaseUrl+path, bytes.NewReader(body))
		if err == nil {
			req.Header.Set("Content-Type", "application/json")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, n.BaseUrl+target.Href, nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	timer := prometheus.NewTimer(searchDuration.WithLabelValues(kind))
	defer timer.ObserveDuration()

	client := n.Client
	if client == nil {
		client = http.DefaultClient
	}
	res, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	data, err := io.ReadAll(io.LimitReader(res.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	// the backend answers 404 with a regular body when nothing matched
	if res.StatusCode != http.StatusOK && res.StatusCode != http.StatusNotFound {
		return nil, fmt.Errorf("search %s returned %d", req.URL.Path, res.StatusCode)
	}
	sr := &searchResponse{}
	if err = jsoncompat.Unmarshal(data, sr); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	sc := &types.SearchContext{
		Href:       sr.Id,
		Total:      sr.Total,
		Filters:    sr.Filters,
		SearchType: sr.SearchType,
	}
	if sc.Href == "" && !target.IsCompound() {
		sc.Href = target.Href
	}
	return sc, nil
}

// CountBlock returns the total for href without fetching any results.
func (n *HttpNavigator) CountBlock(ctx context.Context, href string) (int, error) {
	sc, err := n.Load(ctx, types.NavigationTarget{Href: filterset.BlockHref(href, "limit=0")})
	if err != nil {
		log.Printf("Error counting %s: %v", href, err)
		return 0, err
	}
	return sc.Total, nil
}
