package distance

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"fieldroute-service/internal/domain"
	"fieldroute-service/internal/platform/obs"
)

// RemoteDistanceProvider resolves road distance from an external routing
// service: GET {baseURL}/distance?from=lat,lon&to=lat,lon returning
// {"distance_km": <number>}. Transient failures are retried with backoff.
//
// The provider is safe for concurrent use.
type RemoteDistanceProvider struct {
	session *http.Client
	apiKey  string
	baseURL string
}

func NewRemoteDistanceProvider(baseURL, apiKey string) (*RemoteDistanceProvider, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("route api base URL is empty")
	}
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("route api key is empty")
	}

	return &RemoteDistanceProvider{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

type distanceResponse struct {
	DistanceKm float64 `json:"distance_km"`
}

type httpStatusError struct {
	Code int
	Body string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("Code %d: %s", e.Code, e.Body)
}

func (p *RemoteDistanceProvider) GetDistance(ctx context.Context, a, b domain.Coordinates) (_ float64, err error) {
	defer obs.Time(ctx, "distance.remote.GetDistance")(&err)

	url := fmt.Sprintf("%s/distance?from=%f,%f&to=%f,%f", p.baseURL, a.Lat, a.Lon, b.Lat, b.Lon)

	resp, err := p.doWithRetry(ctx, func() (*http.Request, error) {
		return p.newRequest(ctx, http.MethodGet, url)
	})
	if err != nil {
		return 0, fmt.Errorf("get remote distance: %w", err)
	}
	defer resp.Body.Close()

	var body distanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("get remote distance: decode response: %w", err)
	}
	if body.DistanceKm < 0 {
		return 0, fmt.Errorf("get remote distance: negative distance %v", body.DistanceKm)
	}

	return body.DistanceKm, nil
}

func (p *RemoteDistanceProvider) newRequest(ctx context.Context, method, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Authorization", p.apiKey)
	req.Header.Set("Accept", "application/json")

	return req, nil
}

func (p *RemoteDistanceProvider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.session.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		b, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &httpStatusError{
			Code: resp.StatusCode,
			Body: strings.TrimSpace(string(b)),
		}
	}
	return resp, nil
}

// doWithRetry retries transient failures (network errors, 5xx responses)
// using exponential backoff while respecting context cancellation.
func (p *RemoteDistanceProvider) doWithRetry(
	ctx context.Context,
	makeReq func() (*http.Request, error),
) (*http.Response, error) {
	const maxAttempts = 4
	backoff := 200 * time.Millisecond

	var lastErr error

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		req, err := makeReq()
		if err != nil {
			return nil, fmt.Errorf("make request: %w", err)
		}

		resp, err := p.do(req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		retry := false
		var he *httpStatusError
		if errors.As(err, &he) {
			switch he.Code {
			case 429, 500, 502, 503, 504:
				retry = true
			}
		}

		var netErr net.Error
		if !retry && errors.As(err, &netErr) {
			retry = true
		}

		if !retry || attempt == maxAttempts {
			return nil, lastErr
		}

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}

		backoff *= 2
	}

	return nil, lastErr
}
