package geocode

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const (
	censusOneLineURL = "https://geocoding.geo.census.gov/geocoder/locations/onelineaddress"
	censusBenchmark  = "Public_AR_Current"
)

// censusOneLineResponse is the JSON response from the Census single-address API.
type censusOneLineResponse struct {
	Result struct {
		AddressMatches []censusAddressMatch `json:"addressMatches"`
	} `json:"result"`
}

type censusAddressMatch struct {
	Coordinates struct {
		X float64 `json:"x"` // longitude
		Y float64 `json:"y"` // latitude
	} `json:"coordinates"`
	MatchedAddress string `json:"matchedAddress"`
}

// geocodeCensus geocodes a single address using the Census one-line API.
func (g *geocoder) geocodeCensus(ctx context.Context, addr AddressInput) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: census rate limit")
	}

	oneLine := formatOneLine(addr)
	params := url.Values{
		"address":   {oneLine},
		"benchmark": {censusBenchmark},
		"format":    {"json"},
	}

	reqURL := g.baseURL + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: census build request")
	}

	body, err := g.doWithRetry(ctx, req)
	if err != nil {
		return nil, err
	}

	var censusResp censusOneLineResponse
	if err := json.Unmarshal(body, &censusResp); err != nil {
		return nil, eris.Wrap(err, "geocode: census parse response")
	}

	if len(censusResp.Result.AddressMatches) == 0 {
		zap.L().Debug("census no match", zap.String("address", oneLine))
		return &Result{Matched: false, Source: "census"}, nil
	}

	match := censusResp.Result.AddressMatches[0]
	return &Result{
		Latitude:  match.Coordinates.Y,
		Longitude: match.Coordinates.X,
		Source:    "census",
		Matched:   true,
	}, nil
}

const censusMaxAttempts = 3

// doWithRetry issues req, retrying transport errors and 5xx responses
// with exponential backoff. The Census geocoder sheds load with 503s
// during business hours, so one retry usually covers it.
func (g *geocoder) doWithRetry(ctx context.Context, req *http.Request) ([]byte, error) {
	backoff := 500 * time.Millisecond
	var lastErr error

	for attempt := 0; attempt < censusMaxAttempts; attempt++ {
		if attempt > 0 {
			zap.L().Warn("retrying census request", zap.Int("attempt", attempt), zap.Error(lastErr))
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, eris.Wrap(ctx.Err(), "geocode: census retry")
			case <-timer.C:
			}
			backoff *= 2
		}

		resp, err := g.httpClient.Do(req)
		if err != nil {
			lastErr = eris.Wrap(err, "geocode: census request")
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close() //nolint:errcheck
		if err != nil {
			lastErr = eris.Wrap(err, "geocode: census read body")
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = eris.Errorf("geocode: census returned status %d", resp.StatusCode)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return nil, eris.Errorf("geocode: census returned status %d", resp.StatusCode)
		}
		return body, nil
	}
	return nil, lastErr
}

// cacheKey returns SHA-256 hex of the normalized address.
func cacheKey(addr AddressInput) string {
	normalized := fmt.Sprintf("%s|%s|%s|%s",
		strings.ToLower(strings.TrimSpace(addr.Street)),
		strings.ToLower(strings.TrimSpace(addr.City)),
		strings.ToLower(strings.TrimSpace(addr.State)),
		strings.TrimSpace(addr.ZipCode),
	)
	h := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", h)
}

// formatOneLine formats an address as a single line for the Census API.
func formatOneLine(addr AddressInput) string {
	parts := []string{addr.Street, addr.City, addr.State, addr.ZipCode}
	var nonEmpty []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, ", ")
}
