package telegram

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/MrSnakeDoc/duewatch/internal/notify"
)

// DefaultAPIURL is the public Bot API endpoint.
const DefaultAPIURL = "https://api.telegram.org"

// Client sends messages through the Telegram Bot API.
type Client struct {
	bot   *tgbotapi.BotAPI
	token string
	http  *http.Client
}

// New creates a client. An empty apiURL means DefaultAPIURL. No request is
// made until the first Send.
func New(apiURL, token string, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	httpClient := &http.Client{Timeout: timeout}

	bot := &tgbotapi.BotAPI{Token: token, Client: httpClient, Buffer: 100}
	bot.SetAPIEndpoint(strings.TrimRight(apiURL, "/") + "/bot%s/%s")

	return &Client{bot: bot, token: token, http: httpClient}
}

// APIError is a response the Bot API rejected.
type APIError struct {
	StatusCode  int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram api error (status %d): %s", e.StatusCode, e.Description)
}

// Send implements notify.Sink. Numeric destinations are chat ids, anything
// else is passed as a channel username.
func (c *Client) Send(ctx context.Context, destination, text string, opts notify.SendOptions) error {
	msg := tgbotapi.MessageConfig{
		Text:                  text,
		DisableWebPagePreview: true,
	}
	if id, err := strconv.ParseInt(destination, 10, 64); err == nil {
		msg.ChatID = id
	} else {
		msg.ChannelUsername = destination
	}
	if opts.Markdown {
		msg.ParseMode = tgbotapi.ModeMarkdown
	}

	doer := &contextDoer{ctx: ctx, client: c.http}
	bot := *c.bot
	bot.Client = doer

	_, err := bot.Request(msg)
	if err == nil {
		return nil
	}

	var tgErr *tgbotapi.Error
	switch {
	case errors.As(err, &tgErr):
		code := tgErr.Code
		if code == 0 {
			code = doer.status
		}
		return &APIError{StatusCode: code, Description: tgErr.Message}
	case doer.status == 0:
		// the url embeds the bot token
		return fmt.Errorf("telegram request failed: %w", redact(err, c.token))
	case doer.status != http.StatusOK:
		return &APIError{StatusCode: doer.status, Description: http.StatusText(doer.status)}
	default:
		return fmt.Errorf("failed to decode telegram response: %w", err)
	}
}

// contextDoer binds the bot's requests to the caller's context and keeps
// the last HTTP status, which the bot library does not expose.
type contextDoer struct {
	ctx    context.Context
	client *http.Client
	status int
}

func (d *contextDoer) Do(req *http.Request) (*http.Response, error) {
	resp, err := d.client.Do(req.WithContext(d.ctx))
	if resp != nil {
		d.status = resp.StatusCode
	}
	return resp, err
}

// redactedError hides the token in the message and keeps the cause.
type redactedError struct {
	msg string
	err error
}

func (e *redactedError) Error() string { return e.msg }
func (e *redactedError) Unwrap() error { return e.err }

func redact(err error, token string) error {
	if token == "" {
		return err
	}
	return &redactedError{msg: strings.ReplaceAll(err.Error(), token, "***"), err: err}
}
