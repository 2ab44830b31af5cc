package fyle

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/fylein/fyle-slack-app-sub000/internal/pkg/env"
)

const (
	defaultFyleAuthURL  = "https://accounts.fylehq.com/app/developers/#/oauth/authorize"
	defaultFyleTokenURL = "https://accounts.fylehq.com/api/oauth/token"
	defaultFyleAPIURL   = "https://in1.fylehq.com/platform/v1"
	defaultFyleAppURL   = "https://app.fylehq.com"
)

var (
	// ErrNotFound means the resource was deleted or is not visible to the user.
	ErrNotFound = errors.New("fyle: resource not found")
	// ErrForbidden means the user lost access to the resource.
	ErrForbidden = errors.New("fyle: access forbidden")
	// ErrUnauthorized means the user's Fyle credentials were revoked or expired
	// and the account has to be linked again.
	ErrUnauthorized = errors.New("fyle: credentials rejected")
)

// APIError is any other non-2xx response from the Fyle platform.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("fyle api error: status=%d body=%s", e.StatusCode, e.Body)
}

// IsUnavailable reports whether err means the resource can no longer be read.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrForbidden)
}

// ReportAPI is the part of the platform API used by the approval flow.
type ReportAPI interface {
	GetReport(ctx context.Context, reportID string) (*Report, error)
	ApproveReport(ctx context.Context, reportID string) (*Report, error)
}

// API is the full client surface used by the app.
type API interface {
	ReportAPI
	GetMyProfile(ctx context.Context) (*Profile, error)
	CountReports(ctx context.Context, role string, state ReportState) (int, error)
	CreateExpense(ctx context.Context, in NewExpense) (*Expense, error)
}

// Client talks to the Fyle platform API on behalf of one user.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// OAuthConfigFromEnv returns the Fyle OAuth client configuration.
func OAuthConfigFromEnv() *oauth2.Config {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	return &oauth2.Config{
		ClientID:     strings.TrimSpace(env.GetEnv("FYLE_CLIENT_ID", "")),
		ClientSecret: strings.TrimSpace(env.GetEnv("FYLE_CLIENT_SECRET", "")),
		RedirectURL:  base + "/fyle/oauth/callback",
		Endpoint: oauth2.Endpoint{
			AuthURL:   strings.TrimSpace(env.GetEnv("FYLE_AUTH_URL", defaultFyleAuthURL)),
			TokenURL:  strings.TrimSpace(env.GetEnv("FYLE_TOKEN_URL", defaultFyleTokenURL)),
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

// APIBaseURL is the platform API root.
func APIBaseURL() string {
	return strings.TrimRight(env.GetEnv("FYLE_API_URL", defaultFyleAPIURL), "/")
}

// AppURL is the Fyle web app root, used for deep links.
func AppURL() string {
	return strings.TrimRight(env.GetEnv("FYLE_APP_URL", defaultFyleAppURL), "/")
}

// ReportURL deep links a report in the Fyle web app.
func ReportURL(reportID string, asApprover bool) string {
	view := "my_reports"
	if asApprover {
		view = "team_reports"
	}
	return fmt.Sprintf("%s/app/main/#/%s/%s", AppURL(), view, url.PathEscape(reportID))
}

// NewClient builds a client whose access tokens are minted from refreshToken.
func NewClient(ctx context.Context, cfg *oauth2.Config, baseURL, refreshToken string) *Client {
	return newClientFromToken(ctx, cfg, baseURL, &oauth2.Token{RefreshToken: refreshToken})
}

func newClientFromToken(ctx context.Context, cfg *oauth2.Config, baseURL string, tok *oauth2.Token) *Client {
	httpClient := oauth2.NewClient(ctx, cfg.TokenSource(ctx, tok))
	httpClient.Timeout = 15 * time.Second
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTPClient: httpClient}
}

type listResponse[T any] struct {
	Count int `json:"count"`
	Data  []T `json:"data"`
}

type itemResponse[T any] struct {
	Data T `json:"data"`
}

type itemRequest[T any] struct {
	Data T `json:"data"`
}

// GetReport loads a report visible to the approver.
func (c *Client) GetReport(ctx context.Context, reportID string) (*Report, error) {
	q := url.Values{}
	q.Set("id", "eq."+reportID)
	var out listResponse[Report]
	if err := c.do(ctx, http.MethodGet, "/approver/reports", q, nil, &out); err != nil {
		return nil, err
	}
	if len(out.Data) == 0 {
		return nil, ErrNotFound
	}
	return &out.Data[0], nil
}

// ApproveReport approves the report as the authenticated approver.
func (c *Client) ApproveReport(ctx context.Context, reportID string) (*Report, error) {
	body := itemRequest[map[string]string]{Data: map[string]string{"id": reportID}}
	var out itemResponse[Report]
	if err := c.do(ctx, http.MethodPost, "/approver/reports/approve", nil, body, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) GetMyProfile(ctx context.Context) (*Profile, error) {
	var out itemResponse[Profile]
	if err := c.do(ctx, http.MethodGet, "/spender/my_profile", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

// CountReports counts reports in state for role "spender" or "approver".
func (c *Client) CountReports(ctx context.Context, role string, state ReportState) (int, error) {
	if role != "spender" && role != "approver" {
		return 0, fmt.Errorf("unknown report role %q", role)
	}
	q := url.Values{}
	q.Set("state", "eq."+string(state))
	q.Set("limit", "1")
	var out listResponse[json.RawMessage]
	if err := c.do(ctx, http.MethodGet, "/"+role+"/reports", q, nil, &out); err != nil {
		return 0, err
	}
	return out.Count, nil
}

func (c *Client) CreateExpense(ctx context.Context, in NewExpense) (*Expense, error) {
	if in.Source == "" {
		in.Source = "SLACK"
	}
	var out itemResponse[Expense]
	if err := c.do(ctx, http.MethodPost, "/spender/expenses", nil, itemRequest[NewExpense]{Data: in}, &out); err != nil {
		return nil, err
	}
	return &out.Data, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil &&
			retrieveErr.Response.StatusCode >= 400 && retrieveErr.Response.StatusCode < 500 {
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusForbidden:
		return ErrForbidden
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return &APIError{StatusCode: resp.StatusCode, Body: string(raw)}
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}
