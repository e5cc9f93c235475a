package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
)

// ErrActivityNotFound is returned when Strava reports 404 for an activity.
var ErrActivityNotFound = errors.New("strava activity not found")

// APIClient calls the Strava REST API on behalf of an athlete.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient returns a client for baseURL (APIBaseURL when empty).
// httpClient may be nil.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if baseURL == "" {
		baseURL = APIBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: httpTimeout}
	}
	return &APIClient{baseURL: baseURL, httpClient: httpClient}
}

// FetchActivity loads one activity using the athlete's access token.
// The token is used as is; it is not refreshed.
func (c *APIClient) FetchActivity(ctx context.Context, accessToken string, id int64) (ActivityData, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))

	url := c.baseURL + "/activities/" + strconv.FormatInt(id, 10)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ActivityData{}, fmt.Errorf("strava.APIClient.FetchActivity: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return ActivityData{}, fmt.Errorf("strava.APIClient.FetchActivity: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ActivityData{}, fmt.Errorf("strava.APIClient.FetchActivity: %w: %d", ErrActivityNotFound, id)
	case resp.StatusCode != http.StatusOK:
		return ActivityData{}, fmt.Errorf("strava.APIClient.FetchActivity: unexpected status %d", resp.StatusCode)
	}

	var data ActivityData
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return ActivityData{}, fmt.Errorf("strava.APIClient.FetchActivity: decode: %w", err)
	}
	return data, nil
}
