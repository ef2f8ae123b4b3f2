// Package strava is a minimal client for the Strava v3 REST API: the OAuth
// token lifecycle plus the activity listing the sync needs. Webhooks and
// scheduled polling are deliberately absent; syncs run on demand.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"golang.org/x/oauth2"
)

const (
	baseURL  = "https://www.strava.com/api/v3"
	authURL  = "https://www.strava.com/oauth/authorize"
	tokenURL = "https://www.strava.com/oauth/token"
)

// Client wraps the Strava API with the application's OAuth credentials.
type Client struct {
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewClient creates a Strava API client.
func NewClient(clientID, clientSecret, redirectURL string) *Client {
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{"read,activity:read"},
			Endpoint: oauth2.Endpoint{
				AuthURL:  authURL,
				TokenURL: tokenURL,
			},
		},
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AuthCodeURL returns the authorization URL the athlete is sent to.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for a token bundle.
func (c *Client) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return c.oauth.Exchange(ctx, code)
}

// Refresh returns a valid token, refreshing through the token endpoint when
// the current one expired. The returned token may carry a rotated refresh
// token that must be persisted.
func (c *Client) Refresh(ctx context.Context, tok *oauth2.Token) (*oauth2.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	return c.oauth.TokenSource(ctx, tok).Token()
}

// Athlete is the authenticated athlete's profile.
type Athlete struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Sex       string `json:"sex"` // "M" or "F"
}

// Activity is one entry from the athlete's activity list. Distances are
// meters, times seconds, exactly as the API returns them.
type Activity struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	SportType        string   `json:"sport_type"`
	StartDate        string   `json:"start_date"` // RFC3339, UTC
	Distance         float64  `json:"distance"`
	MovingTime       int      `json:"moving_time"`
	AverageHeartRate *float64 `json:"average_heartrate,omitempty"`
	HasHeartRate     bool     `json:"has_heartrate"`
}

// StartTime parses the activity's start timestamp.
func (a *Activity) StartTime() (time.Time, error) {
	return time.Parse(time.RFC3339, a.StartDate)
}

// GetAthlete fetches the authenticated athlete's profile.
func (c *Client) GetAthlete(ctx context.Context, tok *oauth2.Token) (*Athlete, error) {
	var athlete Athlete
	if err := c.get(ctx, tok, "/athlete", nil, &athlete); err != nil {
		return nil, err
	}
	return &athlete, nil
}

// ListActivities fetches one page of the athlete's activities with start
// times in (after, before).
func (c *Client) ListActivities(ctx context.Context, tok *oauth2.Token, after, before time.Time, page, perPage int) ([]Activity, error) {
	params := map[string]string{
		"after":    strconv.FormatInt(after.Unix(), 10),
		"before":   strconv.FormatInt(before.Unix(), 10),
		"page":     strconv.Itoa(page),
		"per_page": strconv.Itoa(perPage),
	}
	var activities []Activity
	if err := c.get(ctx, tok, "/athlete/activities", params, &activities); err != nil {
		return nil, err
	}
	return activities, nil
}

func (c *Client) get(ctx context.Context, tok *oauth2.Token, path string, params map[string]string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+path, nil)
	if err != nil {
		return err
	}
	if len(params) > 0 {
		q := req.URL.Query()
		for k, v := range params {
			q.Set(k, v)
		}
		req.URL.RawQuery = q.Encode()
	}
	tok.SetAuthHeader(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("strava request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("strava %s returned status %d: %s", path, resp.StatusCode, string(body))
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
