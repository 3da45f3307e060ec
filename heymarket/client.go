// ABOUTME: Authenticated Heymarket API client
// ABOUTME: Injects the security token header and wraps list, report, and message calls
package heymarket

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/harperreed/heyreport/transport"
)

const (
	// DefaultBaseURL is the production client API host.
	DefaultBaseURL = "https://api-prod-client.heymarket.com"

	securityHeader = "x-emb-security-token"
	contentType    = "application/json;charset=UTF-8"

	listsPath    = "/v4/lists/fetch"
	reportPath   = "/v2/broadcast/report"
	messagesPath = "/v2/messages/fetch"
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	SecurityToken string
	TeamID        int64
	HTTPClient    *http.Client
	Logger        *log.Logger
	// Now is used for the date field of list and message bodies.
	Now func() time.Time
	// OnConversationError is called for every absorbed conversation failure.
	OnConversationError func(error)
}

// Client talks to the Heymarket client API.
type Client struct {
	baseURL   string
	token     string
	teamID    int64
	http      *http.Client
	logger    *log.Logger
	now       func() time.Time
	onConvErr func(error)
}

// NewClient creates a Client, filling defaults for anything unset.
func NewClient(opts Options) *Client {
	c := &Client{
		baseURL:   strings.TrimRight(opts.BaseURL, "/"),
		token:     opts.SecurityToken,
		teamID:    opts.TeamID,
		http:      opts.HTTPClient,
		logger:    opts.Logger,
		now:       opts.Now,
		onConvErr: opts.OnConversationError,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.http == nil {
		c.http = http.DefaultClient
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// TeamID returns the team the client queries.
func (c *Client) TeamID() int64 {
	return c.teamID
}

// Send issues one call with the security and content-type headers set.
// An empty method means POST. Failures are *transport.NetworkError,
// *transport.HTTPStatusError, or *transport.DecodeError.
func (c *Client) Send(ctx context.Context, url, method string, body, out any) error {
	return transport.Do(ctx, c.http, transport.Request{
		Method: method,
		URL:    url,
		Headers: map[string]string{
			securityHeader: c.token,
			"content-type": contentType,
		},
		Body: body,
	}, out)
}

func (c *Client) timestamp() string {
	return c.now().UTC().Format("2006-01-02T15:04:05.000Z")
}
