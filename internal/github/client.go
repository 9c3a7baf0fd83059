package github

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gh "github.com/google/go-github/v55/github"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
)

// Fetcher performs one complete fetch attempt and reports a classified Outcome.
// This interface is implemented by *Client and can be used for testing.
type Fetcher interface {
	Fetch(ctx context.Context) Outcome
}

// Ensure Client implements Fetcher at compile time.
var _ Fetcher = (*Client)(nil)

const (
	defaultUserAgent  = "controldeck/0.1"
	defaultTimeout    = 20 * time.Second
	defaultRetryAfter = time.Minute
	reposPerPage      = 100
	maxRepos          = 200
	eventsPerPage     = 50
)

// Client fetches account data from the GitHub REST API.
type Client struct {
	api     *gh.Client
	user    string
	timeout time.Duration
	now     func() time.Time
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

// WithBaseURL points the client at a different API root (GitHub Enterprise or
// a test server).
func WithBaseURL(raw string) Option {
	return func(o *clientOptions) { o.baseURL = raw }
}

// WithTimeout bounds each Fetch call. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

// WithHTTPClient overrides the transport used when no token is configured.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// NewClient builds a Client for user. An empty token uses anonymous access,
// which works with a much smaller rate limit.
func NewClient(token, user string, opts ...Option) (*Client, error) {
	user = strings.TrimSpace(user)
	if user == "" {
		return nil, fmt.Errorf("github user is required")
	}

	o := clientOptions{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(&o)
	}
	if o.timeout <= 0 {
		o.timeout = defaultTimeout
	}

	httpClient := o.httpClient
	if token = strings.TrimSpace(token); token != "" {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token})
		httpClient = oauth2.NewClient(context.Background(), ts)
	}

	api := gh.NewClient(httpClient)
	api.UserAgent = defaultUserAgent
	if o.baseURL != "" {
		base, err := parseBaseURL(o.baseURL)
		if err != nil {
			return nil, err
		}
		api.BaseURL = base
	}

	return &Client{
		api:     api,
		user:    user,
		timeout: o.timeout,
		now:     time.Now,
	}, nil
}

// Fetch retrieves profile, repositories and events in one attempt. It never
// panics or blocks past the configured timeout; every failure is classified.
func (c *Client) Fetch(ctx context.Context) Outcome {
	attempt := uuid.NewString()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	started := c.now()
	bundle, err := c.fetchBundle(ctx)
	if err != nil {
		out := Failure(classify(err, c.now()))
		out.AttemptID = attempt
		log.Printf("github: attempt %s for %s failed after %s: %v", attempt, c.user, c.now().Sub(started).Round(time.Millisecond), out.Err)
		return out
	}

	out := Success(*bundle, c.now())
	out.AttemptID = attempt
	log.Printf("github: attempt %s for %s ok: %d repos, %d events, %d stars",
		attempt, c.user, len(bundle.Repos), len(bundle.Events), bundle.Stats.Stars)
	return out
}

func (c *Client) fetchBundle(ctx context.Context) (*Bundle, error) {
	var rate gh.Rate

	profile, resp, err := c.fetchProfile(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	rate = pickRate(rate, resp)

	repos, resp, err := c.fetchRepos(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch repos: %w", err)
	}
	rate = pickRate(rate, resp)

	events, resp, err := c.fetchEvents(ctx)
	if err != nil {
		// The feed is secondary; only failures that would also break the next
		// request abort the attempt.
		if kind := KindOf(classify(err, c.now())); kind == KindRateLimited || kind == KindUnauthorized {
			return nil, fmt.Errorf("fetch events: %w", err)
		}
		log.Printf("github: events for %s unavailable: %v", c.user, err)
		events = nil
	}
	rate = pickRate(rate, resp)

	return &Bundle{
		Profile: profile,
		Repos:   repos,
		Events:  events,
		Stats:   ComputeStats(profile, repos),
		RateLimit: RateLimit{
			Limit:     rate.Limit,
			Remaining: rate.Remaining,
			ResetAt:   rate.Reset.Time,
		},
	}, nil
}

func (c *Client) fetchProfile(ctx context.Context) (Profile, *gh.Response, error) {
	u, resp, err := c.api.Users.Get(ctx, c.user)
	if err != nil {
		return Profile{}, resp, err
	}
	return Profile{
		Login:       u.GetLogin(),
		Name:        u.GetName(),
		Bio:         u.GetBio(),
		AvatarURL:   u.GetAvatarURL(),
		PublicRepos: u.GetPublicRepos(),
		PublicGists: u.GetPublicGists(),
		Followers:   u.GetFollowers(),
		Following:   u.GetFollowing(),
		CreatedAt:   u.GetCreatedAt().Time,
	}, resp, nil
}

func (c *Client) fetchRepos(ctx context.Context) ([]Repo, *gh.Response, error) {
	opts := &gh.RepositoryListOptions{
		Type:        "owner",
		Sort:        "pushed",
		ListOptions: gh.ListOptions{PerPage: reposPerPage},
	}

	var (
		all  []Repo
		last *gh.Response
	)
	for {
		repos, resp, err := c.api.Repositories.List(ctx, c.user, opts)
		if err != nil {
			return nil, resp, err
		}
		last = resp

		for _, r := range repos {
			all = append(all, Repo{
				Name:        r.GetName(),
				FullName:    r.GetFullName(),
				Description: r.GetDescription(),
				HTMLURL:     r.GetHTMLURL(),
				Language:    r.GetLanguage(),
				Stars:       r.GetStargazersCount(),
				Forks:       r.GetForksCount(),
				Watchers:    r.GetWatchersCount(),
				OpenIssues:  r.GetOpenIssuesCount(),
				Fork:        r.GetFork(),
				PushedAt:    r.GetPushedAt().Time,
				UpdatedAt:   r.GetUpdatedAt().Time,
			})
			if len(all) >= maxRepos {
				return all, last, nil
			}
		}

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return all, last, nil
}

func (c *Client) fetchEvents(ctx context.Context) ([]Event, *gh.Response, error) {
	raw, resp, err := c.api.Activity.ListEventsPerformedByUser(ctx, c.user, false, &gh.ListOptions{PerPage: eventsPerPage})
	if err != nil {
		return nil, resp, err
	}
	events := make([]Event, 0, len(raw))
	for _, e := range raw {
		if e.GetID() == "" {
			continue
		}
		events = append(events, Event{
			ID:        e.GetID(),
			Type:      e.GetType(),
			Actor:     e.GetActor().GetLogin(),
			RepoName:  e.GetRepo().GetName(),
			CreatedAt: e.GetCreatedAt().Time,
		})
	}
	return events, resp, nil
}

// classify maps go-github and transport errors onto the fetch taxonomy.
func classify(err error, now time.Time) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}

	var rateErr *gh.RateLimitError
	if errors.As(err, &rateErr) {
		return &FetchError{Kind: KindRateLimited, RetryAfter: retryDeadline(rateErr.Rate.Reset.Time, now), Err: err}
	}

	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &abuseErr) {
		until := time.Time{}
		if abuseErr.RetryAfter != nil {
			until = now.Add(*abuseErr.RetryAfter)
		}
		return &FetchError{Kind: KindRateLimited, RetryAfter: retryDeadline(until, now), Err: err}
	}

	var respErr *gh.ErrorResponse
	if errors.As(err, &respErr) && respErr.Response != nil {
		switch respErr.Response.StatusCode {
		case http.StatusUnauthorized:
			return &FetchError{Kind: KindUnauthorized, Err: err}
		case http.StatusNotFound:
			return &FetchError{Kind: KindNotFound, Err: err}
		case http.StatusTooManyRequests:
			until := parseRetryAfter(respErr.Response.Header.Get("Retry-After"), now)
			return &FetchError{Kind: KindRateLimited, RetryAfter: retryDeadline(until, now), Err: err}
		}
	}

	return &FetchError{Kind: KindTransient, Err: err}
}

func retryDeadline(until, now time.Time) time.Time {
	if until.After(now) {
		return until
	}
	return now.Add(defaultRetryAfter)
}

func parseRetryAfter(value string, now time.Time) time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}
	}
	if secs, err := strconv.Atoi(value); err == nil && secs >= 0 {
		return now.Add(time.Duration(secs) * time.Second)
	}
	if t, err := http.ParseTime(value); err == nil {
		return t
	}
	return time.Time{}
}

// pickRate keeps the most recent non-empty rate observation.
func pickRate(current gh.Rate, resp *gh.Response) gh.Rate {
	if resp == nil || resp.Rate.Limit == 0 {
		return current
	}
	return resp.Rate
}

func parseBaseURL(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse base url %q: %w", raw, err)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
