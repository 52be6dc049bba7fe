package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
	"github.com/MrSnakeDoc/duewatch/internal/logger"
	"github.com/MrSnakeDoc/duewatch/internal/sources/portal"
)

// Options describes the portal and how to drive the browser.
type Options struct {
	Bin      string // empty = let rod find or download a browser
	Headless bool

	LoginURL   string // SSO form
	HomeMarker string // substring of the URL reached after a successful login

	UsernameSelector string
	PasswordSelector string
	SubmitSelector   string
	TableSelector    string // activity table, waited for after login

	NavTimeout     time.Duration
	ExtractTimeout time.Duration
}

// Defaults for the portal the tool was built for.
const (
	DefaultUsernameSelector = "#username"
	DefaultPasswordSelector = "#password"
	DefaultSubmitSelector   = `button[value="Submit"]`
	DefaultTableSelector    = "#avaliacao-portal table"
	DefaultHomeMarker       = "portais/discente/discente.jsf"
	DefaultNavTimeout       = 30 * time.Second
	DefaultExtractTimeout   = 15 * time.Second
)

func (o Options) withDefaults() Options {
	if o.UsernameSelector == "" {
		o.UsernameSelector = DefaultUsernameSelector
	}
	if o.PasswordSelector == "" {
		o.PasswordSelector = DefaultPasswordSelector
	}
	if o.SubmitSelector == "" {
		o.SubmitSelector = DefaultSubmitSelector
	}
	if o.TableSelector == "" {
		o.TableSelector = DefaultTableSelector
	}
	if o.HomeMarker == "" {
		o.HomeMarker = DefaultHomeMarker
	}
	if o.NavTimeout <= 0 {
		o.NavTimeout = DefaultNavTimeout
	}
	if o.ExtractTimeout <= 0 {
		o.ExtractTimeout = DefaultExtractTimeout
	}
	return o
}

// Client drives a real browser through the portal login.
type Client struct {
	opts Options
	log  logger.Logger
}

// New creates a browser client.
func New(opts Options, log logger.Logger) *Client {
	return &Client{opts: opts.withDefaults(), log: log}
}

// Session is an authenticated browser page. Close it when done.
type Session struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
}

// Close shuts the browser down and removes its profile directory.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.browser != nil {
		err = s.browser.Close()
	}
	if s.launcher != nil {
		s.launcher.Cleanup()
	}
	return err
}

// Authenticate launches a browser, fills the SSO form and waits until the
// portal home is reached. A login that ends anywhere else is an
// *domain.AuthenticationError.
func (c *Client) Authenticate(ctx context.Context, username, password string) (*Session, error) {
	if c.opts.LoginURL == "" {
		return nil, errors.New("portal login url is not configured")
	}

	session, err := c.launch(ctx)
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			_ = session.Close()
		}
	}()

	c.log.Debug("opening portal login page", logger.String("url", c.opts.LoginURL))
	page, err := session.browser.Page(proto.TargetCreateTarget{URL: c.opts.LoginURL})
	if err != nil {
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}
	session.page = page

	nav := page.Context(ctx).Timeout(c.opts.NavTimeout)
	if err := nav.WaitLoad(); err != nil {
		return nil, fmt.Errorf("login page did not load: %w", err)
	}
	if err := fill(nav, c.opts.UsernameSelector, username); err != nil {
		return nil, err
	}
	if err := fill(nav, c.opts.PasswordSelector, password); err != nil {
		return nil, err
	}

	submit, err := nav.Element(c.opts.SubmitSelector)
	if err != nil {
		return nil, fmt.Errorf("login form has no submit button %q: %w", c.opts.SubmitSelector, err)
	}
	waitNav := nav.WaitNavigation(proto.PageLifecycleEventNameNetworkAlmostIdle)
	if err := submit.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return nil, fmt.Errorf("failed to submit login form: %w", err)
	}
	waitNav()

	landed, err := c.waitForHome(ctx, page)
	if err != nil {
		return nil, &domain.AuthenticationError{URL: landed, Reason: "portal home page was not reached"}
	}

	c.log.Info("authenticated on portal", logger.String("url", landed))
	ok = true
	return session, nil
}

// FetchRawRows waits for the activity table and parses its rows. A table
// that does not show up within the extraction timeout is an
// *domain.ExtractionTimeoutError.
func (c *Client) FetchRawRows(ctx context.Context, session *Session) ([]portal.RawRow, error) {
	if session == nil || session.page == nil {
		return nil, errors.New("no authenticated session")
	}

	table, err := session.page.Context(ctx).Timeout(c.opts.ExtractTimeout).Element(c.opts.TableSelector)
	if err != nil {
		return nil, &domain.ExtractionTimeoutError{
			Selector: c.opts.TableSelector,
			Waited:   c.opts.ExtractTimeout,
			Err:      err,
		}
	}

	markup, err := table.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read activity table: %w", err)
	}
	return portal.ParseRows(markup)
}

func (c *Client) launch(ctx context.Context) (*Session, error) {
	l := launcher.New().Headless(c.opts.Headless).Context(ctx)
	if c.opts.Bin != "" {
		l = l.Bin(c.opts.Bin)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Cleanup()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}
	return &Session{launcher: l, browser: b}, nil
}

// waitForHome polls the page URL until it contains the home marker or the
// navigation timeout expires. It returns the last URL seen.
func (c *Client) waitForHome(ctx context.Context, page *rod.Page) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.NavTimeout)
	defer cancel()

	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	last := ""
	for {
		if info, err := page.Context(ctx).Info(); err == nil {
			last = info.URL
			if strings.Contains(last, c.opts.HomeMarker) {
				return last, nil
			}
		}
		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func fill(page *rod.Page, selector, value string) error {
	el, err := page.Element(selector)
	if err != nil {
		return fmt.Errorf("login form field %q not found: %w", selector, err)
	}
	if err := el.Input(value); err != nil {
		return fmt.Errorf("failed to fill %q: %w", selector, err)
	}
	return nil
}
