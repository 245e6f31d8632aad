package ingest

import "fmt"

// Result tracks counts and per-row errors from an ingestion run.
type Result struct {
	Rows           int      `json:"rows"`
	Inserted       int      `json:"inserted"`
	Skipped        int      `json:"skipped"`
	TeamsCreated   int      `json:"teamsCreated"`
	PlayersCreated int      `json:"playersCreated"`
	GamesCreated   int      `json:"gamesCreated"`
	Errors         []string `json:"errors,omitempty"`
}

// Add merges another Result into this one.
func (r *Result) Add(other Result) {
	r.Rows += other.Rows
	r.Inserted += other.Inserted
	r.Skipped += other.Skipped
	r.TeamsCreated += other.TeamsCreated
	r.PlayersCreated += other.PlayersCreated
	r.GamesCreated += other.GamesCreated
	r.Errors = append(r.Errors, other.Errors...)
}

// AddError records an error message.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
}

// AddErrorf records a formatted error message.
func (r *Result) AddErrorf(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// Summary returns a human-readable summary of the run.
func (r *Result) Summary() string {
	return fmt.Sprintf(
		"rows=%d inserted=%d skipped=%d teams=%d players=%d games=%d errors=%d",
		r.Rows, r.Inserted, r.Skipped,
		r.TeamsCreated, r.PlayersCreated, r.GamesCreated,
		len(r.Errors),
	)
}
