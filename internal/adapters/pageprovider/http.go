package pageprovider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Amund211/pagecache/internal/constants"
	"github.com/Amund211/pagecache/internal/domain"
	"github.com/Amund211/pagecache/internal/reporting"
)

type HttpClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type PageProvider interface {
	GetPage(ctx context.Context, page int) (string, error)
}

type httpPageProvider struct {
	httpClient HttpClient
	apiURL     *url.URL
}

func NewHTTPPageProvider(httpClient HttpClient, baseURL string) (PageProvider, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid base url scheme %q", base.Scheme)
	}

	return httpPageProvider{
		httpClient: httpClient,
		apiURL:     base.JoinPath("api"),
	}, nil
}

func (p httpPageProvider) GetPage(ctx context.Context, page int) (string, error) {
	u := *p.apiURL
	u.RawQuery = url.Values{"page": []string{strconv.Itoa(page)}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		err := fmt.Errorf("failed to create request: %w", err)
		reporting.Report(ctx, err)
		return "", err
	}

	req.Header.Set("User-Agent", constants.USER_AGENT)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Abandoned by the caller
			return "", fmt.Errorf("failed to send request: %w", err)
		}
		err := fmt.Errorf("failed to send request: %w", err)
		reporting.Report(ctx, err)
		return "", err
	}

	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		err := fmt.Errorf("failed to read response body: %w", err)
		reporting.Report(ctx, err)
		return "", err
	}

	pageData, err := pageFromResponse(resp.StatusCode, data)
	if err != nil {
		if !errors.Is(err, domain.ErrTemporarilyUnavailable) {
			reporting.Report(ctx, err, map[string]string{
				"data":   string(data),
				"status": strconv.Itoa(resp.StatusCode),
				"page":   strconv.Itoa(page),
			})
		}
		return "", err
	}

	return pageData, nil
}

// pageFromResponse maps an api response to the page data.
// Non-2xx responses are returned as a *domain.StatusError so the message is the status text.
func pageFromResponse(statusCode int, data []byte) (string, error) {
	if statusCode < 200 || statusCode >= 300 {
		return "", domain.NewStatusError(statusCode)
	}

	var response domain.PageData
	if err := json.Unmarshal(data, &response); err != nil {
		return "", fmt.Errorf("failed to parse page response: %w", err)
	}

	return response.Data, nil
}
