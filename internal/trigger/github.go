package trigger

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/go-github/v68/github"

	"github.com/MrSnakeDoc/duewatch/internal/domain"
)

// DefaultAPIURL is the public GitHub REST endpoint.
const DefaultAPIURL = "https://api.github.com"

// Workflow input names understood by the run workflow.
const (
	InputDestination = "destination_id"
	InputSendAll     = "send_all"
)

// Repo identifies a repository.
type Repo struct {
	Owner string
	Name  string
}

// ParseRepo reads "owner/name".
func ParseRepo(s string) (Repo, error) {
	owner, name, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || owner == "" || name == "" || strings.Contains(name, "/") {
		return Repo{}, fmt.Errorf("invalid repository %q, want owner/name", s)
	}
	return Repo{Owner: owner, Name: name}, nil
}

func (r Repo) String() string { return r.Owner + "/" + r.Name }

// Inputs are passed to the dispatched workflow.
type Inputs struct {
	DestinationID string
	SendAll       bool
}

func (in Inputs) values() map[string]any {
	v := map[string]any{InputSendAll: strconv.FormatBool(in.SendAll)}
	if in.DestinationID != "" {
		v[InputDestination] = in.DestinationID
	}
	return v
}

// Dispatcher starts remote workflow runs through workflow_dispatch.
type Dispatcher struct {
	gh *github.Client
}

// NewDispatcher creates a dispatcher. An empty apiURL means DefaultAPIURL.
func NewDispatcher(apiURL, token string, timeout time.Duration) (*Dispatcher, error) {
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base, err := url.Parse(strings.TrimRight(apiURL, "/") + "/")
	if err != nil {
		return nil, fmt.Errorf("invalid github api url %q: %w", apiURL, err)
	}

	gh := github.NewClient(&http.Client{Timeout: timeout})
	if token != "" {
		gh = gh.WithAuthToken(token)
	}
	gh.BaseURL = base
	return &Dispatcher{gh: gh}, nil
}

// Dispatch asks GitHub to run workflow on ref. Any failure is a
// *domain.DispatchError; StatusCode is 0 when no response came back.
func (d *Dispatcher) Dispatch(ctx context.Context, repo Repo, workflow, ref string, inputs Inputs) error {
	event := github.CreateWorkflowDispatchEventRequest{Ref: ref, Inputs: inputs.values()}
	resp, err := d.gh.Actions.CreateWorkflowDispatchEventByFileName(ctx, repo.Owner, repo.Name, workflow, event)
	if err == nil {
		return nil
	}

	var accepted *github.AcceptedError
	if errors.As(err, &accepted) {
		return nil
	}
	if resp == nil || resp.Response == nil {
		return &domain.DispatchError{Message: "dispatch request failed", Err: err}
	}

	status := resp.StatusCode
	return &domain.DispatchError{StatusCode: status, Message: githubMessage(err, status)}
}

func githubMessage(err error, status int) string {
	var (
		errResp   *github.ErrorResponse
		rateLimit *github.RateLimitError
		msg       string
	)
	switch {
	case errors.As(err, &errResp):
		msg = errResp.Message
	case errors.As(err, &rateLimit):
		msg = rateLimit.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return msg
}

// Describe renders a dispatch failure for the person who asked for it.
func Describe(err error) string {
	const prefix = "❌ Failed to start the activity fetch."

	var dispatchErr *domain.DispatchError
	if !errors.As(err, &dispatchErr) {
		return fmt.Sprintf("%s\n⚠️ %v", prefix, err)
	}
	switch dispatchErr.StatusCode {
	case http.StatusNotFound:
		return prefix + "\n🔍 Workflow not found in the repository."
	case http.StatusUnauthorized:
		return prefix + "\n🔐 GitHub authentication failed."
	default:
		return fmt.Sprintf("%s\n⚠️ %s", prefix, dispatchErr.Error())
	}
}
