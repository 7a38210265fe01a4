package listings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/secondhandhub/marketplace-backend/pkg/config"
)

// AttachClient notifies the users service that a seller gained a
// listing. Transport failures, timeouts, and non-200 responses are all
// the same outcome for the caller: the listing exists but is not
// attached.
type AttachClient interface {
	Attach(ctx context.Context, userID, listingID string) error
}

type httpDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// ProfileClient calls the users service over HTTP with a finite
// timeout.
type ProfileClient struct {
	baseURL string
	client  httpDoer
}

func NewProfileClient(cfg config.ServicesConfig) *ProfileClient {
	return &ProfileClient{
		baseURL: strings.TrimSuffix(cfg.ProfileBaseURL, "/"),
		client:  &http.Client{Timeout: cfg.AttachTimeout},
	}
}

type attachPayload struct {
	UserID    string `json:"user_id"`
	ListingID string `json:"listing_id"`
}

func (c *ProfileClient) Attach(ctx context.Context, userID, listingID string) error {
	body, err := json.Marshal(attachPayload{UserID: userID, ListingID: listingID})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/internal/add-listing", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("calling users service: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("users service returned status %d", resp.StatusCode)
	}
	return nil
}
