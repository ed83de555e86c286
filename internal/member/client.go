package member

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrMemberNotFound is returned when the member service has no such user.
var ErrMemberNotFound = errors.New("member not found")

// Client is the HTTP implementation of Service.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient builds a client for the member service at baseURL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type usernameResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func (c *Client) FindUsernameByID(ctx context.Context, userID string) (string, error) {
	endpoint := c.baseURL + "/api/members/" + url.PathEscape(userID) + "/username"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("member service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", fmt.Errorf("%w: %s", ErrMemberNotFound, userID)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("member service returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var decoded usernameResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("decode member response: %w", err)
	}
	if decoded.Username == "" {
		return "", fmt.Errorf("member service returned empty username for %s", userID)
	}
	return decoded.Username, nil
}
