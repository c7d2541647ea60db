package assets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ivlev/reelforge/internal/pkg/errors"
	"github.com/ivlev/reelforge/internal/pkg/logger"
)

const DefaultPexelsEndpoint = "https://api.pexels.com/v1/search"

// maxImageBytes caps a single download.
const maxImageBytes = 20 << 20

// PexelsFetcher takes the first search hit for a query and downloads its largest
// rendition.
type PexelsFetcher struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
	Retries  int
	Log      *logger.Logger
}

func NewPexelsFetcher(apiKey string, log *logger.Logger) *PexelsFetcher {
	if log == nil {
		log = logger.Discard()
	}
	return &PexelsFetcher{
		Endpoint: DefaultPexelsEndpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 30 * time.Second},
		Retries:  2,
		Log:      log.WithComponent("assets"),
	}
}

type pexelsSearch struct {
	Photos []struct {
		ID  int64 `json:"id"`
		Src struct {
			Large2x string `json:"large2x"`
			Large   string `json:"large"`
			Medium  string `json:"medium"`
		} `json:"src"`
	} `json:"photos"`
}

func (p *PexelsFetcher) Fetch(ctx context.Context, query string) ([]byte, error) {
	if p.APIKey == "" {
		return nil, errors.AssetLoadFailure(query, errors.New(errors.CodeUnavailable, "PEXELS_API_KEY is not set"))
	}

	var err error
	for attempt := 1; attempt <= p.Retries+1; attempt++ {
		var data []byte
		data, err = p.fetchOnce(ctx, query)
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil || errors.IsCode(err, errors.CodeNotFound) {
			break
		}
		p.Log.Debug("pexels attempt failed", "query", query, "attempt", attempt, "error", err)
		select {
		case <-ctx.Done():
		case <-time.After(time.Duration(attempt) * 200 * time.Millisecond):
		}
	}
	return nil, errors.AssetLoadFailure(query, err)
}

func (p *PexelsFetcher) fetchOnce(ctx context.Context, query string) ([]byte, error) {
	u := fmt.Sprintf("%s?query=%s&per_page=1", p.Endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", p.APIKey)

	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d from pexels search", resp.StatusCode)
	}

	var search pexelsSearch
	if err := json.NewDecoder(resp.Body).Decode(&search); err != nil {
		return nil, fmt.Errorf("decode pexels search: %w", err)
	}
	if len(search.Photos) == 0 {
		return nil, errors.Newf(errors.CodeNotFound, "no photos for %q", query)
	}
	src := search.Photos[0].Src
	imageURL := firstNonEmpty(src.Large2x, src.Large, src.Medium)
	if imageURL == "" {
		return nil, errors.Newf(errors.CodeNotFound, "photo %d has no usable rendition", search.Photos[0].ID)
	}

	return p.download(ctx, imageURL)
}

func (p *PexelsFetcher) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d downloading %s", resp.StatusCode, imageURL)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, err
	}
	// An error page rather than an image.
	if len(data) < 100 {
		return nil, fmt.Errorf("response too small (%d bytes)", len(data))
	}
	return data, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
