package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"authwatch/internal"
	"authwatch/internal/config"
)

// Client scrapes the dashboard connections table over plain HTTP. It keeps
// a cookie jar so the session established by Login carries across the
// paginated table fetches.
type Client struct {
	cfg        config.Config
	httpClient *http.Client
	limiter    *RateLimiter
	loggedIn   bool
}

func NewClient(cfg config.Config) (*Client, error) {
	if err := cfg.Require("DASHBOARD_EMAIL", cfg.DashboardEmail); err != nil {
		return nil, err
	}
	if err := cfg.Require("DASHBOARD_PASSWORD", cfg.DashboardPassword); err != nil {
		return nil, err
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Jar:     jar,
			Timeout: time.Duration(cfg.DashboardTimeoutMs) * time.Millisecond,
		},
		limiter: NewRateLimiter(cfg.DashboardRateLimitRPS),
	}, nil
}

// Login loads the login page (following the identity-provider redirect),
// fills the credential form and submits it. When no credential form is
// present the session cookie is still valid and nothing needs doing.
func (c *Client) Login(ctx context.Context) error {
	loginURL := strings.TrimRight(c.cfg.DashboardBaseURL, "/") + "/auth/login"
	doc, finalURL, err := c.getDocument(ctx, loginURL)
	if err != nil {
		return fmt.Errorf("load login page: %w", err)
	}

	form := findCredentialForm(doc)
	if form == nil {
		// The identity provider sometimes serves the form inside an iframe.
		if src, ok := doc.Find("iframe[src]").First().Attr("src"); ok {
			frameURL, err := resolveHref(finalURL, src)
			if err != nil {
				return fmt.Errorf("resolve login iframe: %w", err)
			}
			frameDoc, frameFinalURL, err := c.getDocument(ctx, frameURL)
			if err != nil {
				return fmt.Errorf("load login iframe: %w", err)
			}
			doc, finalURL = frameDoc, frameFinalURL
			form = findCredentialForm(doc)
		}
	}
	if form == nil {
		// Already authenticated from a previous session.
		c.loggedIn = true
		return nil
	}

	values := url.Values{}
	form.Find("input").Each(func(_ int, input *goquery.Selection) {
		name, ok := input.Attr("name")
		if !ok || name == "" {
			return
		}
		value, _ := input.Attr("value")
		values.Set(name, value)
	})
	setFirst(values, []string{"username", "email"}, c.cfg.DashboardEmail)
	setFirst(values, []string{"password"}, c.cfg.DashboardPassword)

	action, _ := form.Attr("action")
	actionURL, err := resolveHref(finalURL, action)
	if err != nil {
		return fmt.Errorf("resolve login form action: %w", err)
	}

	c.limiter.WaitTurn()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, actionURL, strings.NewReader(values.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("submit login form: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return fmt.Errorf("login rejected: status=%d", resp.StatusCode)
	}

	dashboardHost, err := url.Parse(c.cfg.DashboardBaseURL)
	if err != nil {
		return err
	}
	if resp.Request.URL.Host != dashboardHost.Host {
		return fmt.Errorf("login did not return to dashboard: landed on %s", resp.Request.URL.Host)
	}

	c.loggedIn = true
	return nil
}

// FetchConnections scrapes every page of the connections table and returns
// the raw records, Locations cell unparsed.
func (c *Client) FetchConnections(ctx context.Context) ([]internal.ConnectionRecord, error) {
	if !c.loggedIn {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	pageURL := strings.TrimRight(c.cfg.DashboardBaseURL, "/") + "/connection"
	seen := map[string]struct{}{}
	var all []internal.ConnectionRecord

	for {
		if _, ok := seen[pageURL]; ok {
			break
		}
		seen[pageURL] = struct{}{}

		doc, finalURL, err := c.getDocument(ctx, pageURL)
		if err != nil {
			return nil, fmt.Errorf("load connections page: %w", err)
		}

		records, err := parseConnectionsTable(doc)
		if err != nil {
			return nil, err
		}
		all = append(all, records...)

		href, ok := nextPageHref(doc)
		if !ok {
			break
		}
		next, err := resolveHref(finalURL, href)
		if err != nil {
			return nil, fmt.Errorf("resolve next page link: %w", err)
		}
		pageURL = next
	}

	fmt.Printf("dashboard scrape done pages=%d records=%d\n", len(seen), len(all))
	return all, nil
}

func (c *Client) getDocument(ctx context.Context, rawURL string) (*goquery.Document, *url.URL, error) {
	c.limiter.WaitTurn()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, nil, fmt.Errorf("dashboard status %d for %s", resp.StatusCode, rawURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, nil, err
	}
	return doc, resp.Request.URL, nil
}

func findCredentialForm(doc *goquery.Document) *goquery.Selection {
	form := doc.Find("form").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return s.Find("input#username, input[name=username], input[type=email]").Length() > 0
	}).First()
	if form.Length() == 0 {
		return nil
	}
	return form
}

func resolveHref(base *url.URL, href string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	if base == nil {
		return parsed.String(), nil
	}
	return base.ResolveReference(parsed).String(), nil
}

func setFirst(values url.Values, names []string, value string) {
	for _, name := range names {
		if _, ok := values[name]; ok {
			values.Set(name, value)
			return
		}
	}
	values.Set(names[0], value)
}
