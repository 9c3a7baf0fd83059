package github

import "time"

// Profile mirrors the subset of the GitHub user payload shown on the dashboard.
type Profile struct {
	Login       string    `json:"login"`
	Name        string    `json:"name,omitempty"`
	Bio         string    `json:"bio,omitempty"`
	AvatarURL   string    `json:"avatar_url,omitempty"`
	PublicRepos int       `json:"public_repos"`
	PublicGists int       `json:"public_gists"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repo describes a repository owned by the watched account.
type Repo struct {
	Name        string    `json:"name"`
	FullName    string    `json:"full_name"`
	Description string    `json:"description,omitempty"`
	HTMLURL     string    `json:"html_url"`
	Language    string    `json:"language,omitempty"`
	Stars       int       `json:"stars"`
	Forks       int       `json:"forks"`
	Watchers    int       `json:"watchers"`
	OpenIssues  int       `json:"open_issues"`
	Fork        bool      `json:"fork"`
	PushedAt    time.Time `json:"pushed_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Event is one entry of the account's public activity feed.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Actor     string    `json:"actor"`
	RepoName  string    `json:"repo"`
	CreatedAt time.Time `json:"created_at"`
	// New is set until the event has been drawn once. It is never persisted
	// as true across restarts.
	New bool `json:"new,omitempty"`
}

// Icon returns a short bracketed glyph for the event type.
func (e Event) Icon() string {
	if icon, ok := eventIcons[e.Type]; ok {
		return icon
	}
	return "[?]"
}

// Verb describes the event type as a phrase ("pushed to", "starred").
func (e Event) Verb() string {
	if verb, ok := eventVerbs[e.Type]; ok {
		return verb
	}
	return "did something in"
}

var eventIcons = map[string]string{
	"PushEvent":              "[^]",
	"CreateEvent":            "[+]",
	"DeleteEvent":            "[-]",
	"IssuesEvent":            "[!]",
	"IssueCommentEvent":      "[#]",
	"PullRequestEvent":       "[~]",
	"PullRequestReviewEvent": "[.]",
	"WatchEvent":             "[*]",
	"ForkEvent":              "[Y]",
	"ReleaseEvent":           "[>]",
	"PublicEvent":            "[@]",
	"MemberEvent":            "[&]",
	"GollumEvent":            "[W]",
	"CommitCommentEvent":     "[C]",
}

var eventVerbs = map[string]string{
	"PushEvent":              "pushed to",
	"CreateEvent":            "created",
	"DeleteEvent":            "deleted",
	"IssuesEvent":            "opened issue in",
	"IssueCommentEvent":      "commented on",
	"PullRequestEvent":       "opened PR in",
	"PullRequestReviewEvent": "reviewed PR in",
	"WatchEvent":             "starred",
	"ForkEvent":              "forked",
	"ReleaseEvent":           "released",
	"PublicEvent":            "made public",
	"MemberEvent":            "added member to",
	"GollumEvent":            "updated wiki in",
	"CommitCommentEvent":     "commented on commit in",
}

// Stats aggregates account-wide counters.
type Stats struct {
	Stars     int `json:"stars"`
	Forks     int `json:"forks"`
	Watchers  int `json:"watchers"`
	Repos     int `json:"repos"`
	Followers int `json:"followers"`
	Following int `json:"following"`
}

// RateLimit reports the core API quota observed on the last response.
type RateLimit struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"reset_at"`
}

// UsagePercent returns how much of the quota has been consumed.
func (r RateLimit) UsagePercent() float64 {
	if r.Limit <= 0 {
		return 0
	}
	return float64(r.Limit-r.Remaining) / float64(r.Limit) * 100
}

// Low reports whether fewer than ten requests remain.
func (r RateLimit) Low() bool {
	return r.Limit > 0 && r.Remaining < 10
}

// Bundle is the full replacement data set produced by one successful fetch.
type Bundle struct {
	Profile   Profile
	Repos     []Repo
	Events    []Event
	Stats     Stats
	RateLimit RateLimit
}

// ComputeStats sums repository counters and folds in profile follower counts.
func ComputeStats(profile Profile, repos []Repo) Stats {
	stats := Stats{
		Repos:     len(repos),
		Followers: profile.Followers,
		Following: profile.Following,
	}
	for _, r := range repos {
		stats.Stars += r.Stars
		stats.Forks += r.Forks
		stats.Watchers += r.Watchers
	}
	return stats
}
