package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"onboarding/internal/types"
)

const connectorUserAgent = "OnboardingNotifier/1.0"

// ConnectorConfig holds the bot identity used to authenticate against the
// Bot Framework connector.
type ConnectorConfig struct {
	AppID       string
	AppPassword types.SecretString
	TokenURL    string
	Scope       string
	Timeout     time.Duration

	// HTTPClient is the underlying client for both token and connector calls.
	// Nil uses a new client with Timeout.
	HTTPClient *http.Client
}

// ConnectorClient posts activities into existing Bot Framework conversations.
// It implements types.Transport.
type ConnectorClient struct {
	base *BaseClient
}

var _ types.Transport = (*ConnectorClient)(nil)

// NewConnectorClient builds a client whose requests carry a bearer token from
// the OAuth2 client credentials flow. Tokens are cached and refreshed by the
// oauth2 token source.
func NewConnectorClient(cfg ConnectorConfig) *ConnectorClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: timeout}
	}

	cc := clientcredentials.Config{
		ClientID:     cfg.AppID,
		ClientSecret: cfg.AppPassword.Unmask(),
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{cfg.Scope},
		AuthStyle:    oauth2.AuthStyleInParams,
	}
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, httpClient)
	authed := cc.Client(tokenCtx)
	authed.Timeout = timeout

	return &ConnectorClient{base: NewBaseClient(authed, connectorUserAgent)}
}

// newConnectorClientWithBase is used by tests to bypass authentication.
func newConnectorClientWithBase(base *BaseClient) *ConnectorClient {
	return &ConnectorClient{base: base}
}

type activityAttachment struct {
	ContentType string          `json:"contentType"`
	Content     json.RawMessage `json:"content"`
}

type activity struct {
	Type        string               `json:"type"`
	Summary     string               `json:"summary,omitempty"`
	Attachments []activityAttachment `json:"attachments"`
}

// ResumeConversationAndSend posts payload as a message activity to the
// conversation identified by ref.
func (c *ConnectorClient) ResumeConversationAndSend(ctx context.Context, ref types.ConversationRef, payload types.Payload) error {
	if ref.ServiceURL == "" || ref.ConversationID == "" {
		return &types.DeliveryError{
			StatusCode: http.StatusBadRequest,
			Message:    "conversation reference is incomplete",
		}
	}

	body, err := json.Marshal(activity{
		Type:    "message",
		Summary: payload.Summary,
		Attachments: []activityAttachment{{
			ContentType: payload.ContentType,
			Content:     payload.Content,
		}},
	})
	if err != nil {
		return &types.DeliveryError{
			StatusCode: http.StatusBadRequest,
			Message:    "failed to encode activity",
			Err:        err,
		}
	}

	endpoint := activitiesURL(ref)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return &types.DeliveryError{
			StatusCode: http.StatusBadRequest,
			Message:    fmt.Sprintf("invalid connector url %q", endpoint),
			Err:        err,
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func activitiesURL(ref types.ConversationRef) string {
	return strings.TrimRight(ref.ServiceURL, "/") +
		"/v3/conversations/" + url.PathEscape(ref.ConversationID) + "/activities"
}
