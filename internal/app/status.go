package app

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	jsoniter "github.com/json-iterator/go"
	"github.com/olekukonko/tablewriter"

	"github.com/five82/controldeck/internal/cache"
	"github.com/five82/controldeck/internal/github"
	"github.com/five82/controldeck/internal/state"
	"github.com/five82/controldeck/internal/ui"
)

const statusEvents = 10

// CachedSnapshot builds the snapshot the dashboard would start with from the
// cache file at path.
func CachedSnapshot(path string) (state.Snapshot, error) {
	env, err := cache.New(path).Read()
	if err != nil {
		return state.Snapshot{}, err
	}
	store := &state.Store{}
	store.Seed(env)
	return store.Snapshot(), nil
}

// WriteStatus prints snap as plain tables.
func WriteStatus(w io.Writer, snap state.Snapshot, now time.Time) error {
	if _, err := fmt.Fprintf(w, "%s\n\n", ui.StatusLine(snap, now)); err != nil {
		return err
	}
	if !snap.HasData() {
		_, err := fmt.Fprintln(w, "No cached data.")
		return err
	}

	summary := tablewriter.NewWriter(w)
	summary.SetHeader([]string{"Metric", "Value"})
	summary.Append([]string{"User", snap.Profile.Login})
	summary.Append([]string{"Stars", humanize.Comma(int64(snap.Stats.Stars))})
	summary.Append([]string{"Forks", humanize.Comma(int64(snap.Stats.Forks))})
	summary.Append([]string{"Watchers", humanize.Comma(int64(snap.Stats.Watchers))})
	summary.Append([]string{"Repositories", humanize.Comma(int64(snap.Stats.Repos))})
	summary.Append([]string{"Followers", humanize.Comma(int64(snap.Stats.Followers))})
	summary.Append([]string{"Following", humanize.Comma(int64(snap.Stats.Following))})
	if rl := snap.RateLimit; rl.Limit > 0 {
		summary.Append([]string{"API quota", fmt.Sprintf("%d/%d left", rl.Remaining, rl.Limit)})
	}
	summary.Append([]string{"Last fetched", lastFetched(snap.LastFetched, now)})
	summary.Render()

	if len(snap.Spotlight) > 0 {
		fmt.Fprintln(w)
		repos := tablewriter.NewWriter(w)
		repos.SetHeader([]string{"#", "Repository", "Stars", "Forks", "Language", "Pushed"})
		for i, r := range snap.Spotlight {
			repos.Append([]string{
				strconv.Itoa(i + 1),
				r.Name,
				humanize.Comma(int64(r.Stars)),
				humanize.Comma(int64(r.Forks)),
				r.Language,
				humanize.RelTime(r.PushedAt, now, "ago", "from now"),
			})
		}
		repos.Render()
	}

	if len(snap.Events) > 0 {
		fmt.Fprintln(w)
		events := tablewriter.NewWriter(w)
		events.SetHeader([]string{"When", "Event", "Repository"})
		for _, ev := range snap.Events[:min(statusEvents, len(snap.Events))] {
			events.Append([]string{
				humanize.RelTime(ev.CreatedAt, now, "ago", "from now"),
				ev.Actor + " " + ev.Verb(),
				ev.RepoName,
			})
		}
		events.Render()
	}
	return nil
}

type statusDoc struct {
	State       string           `json:"state"`
	Reason      string           `json:"reason,omitempty"`
	LastFetched *time.Time       `json:"last_fetched,omitempty"`
	Profile     *github.Profile  `json:"profile,omitempty"`
	Stats       github.Stats     `json:"stats"`
	Spotlight   []github.Repo    `json:"spotlight"`
	Events      []github.Event   `json:"events"`
	RateLimit   github.RateLimit `json:"rate_limit"`
}

// WriteStatusJSON prints snap as indented JSON.
func WriteStatusJSON(w io.Writer, snap state.Snapshot) error {
	doc := statusDoc{
		State:     snap.State.String(),
		Reason:    snap.Reason(),
		Stats:     snap.Stats,
		Spotlight: snap.Spotlight,
		Events:    snap.Events,
		RateLimit: snap.RateLimit,
	}
	if !snap.LastFetched.IsZero() {
		doc.LastFetched = &snap.LastFetched
	}
	if snap.HasProfile {
		doc.Profile = &snap.Profile
	}
	if doc.Spotlight == nil {
		doc.Spotlight = []github.Repo{}
	}
	if doc.Events == nil {
		doc.Events = []github.Event{}
	}
	enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func lastFetched(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return fmt.Sprintf("%s (%s)", humanize.RelTime(t, now, "ago", "from now"), t.Local().Format("2006-01-02 15:04:05"))
}
