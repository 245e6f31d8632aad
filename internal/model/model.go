// Package model holds the record types shared by the stores, the ingestion
// path and the query engine.
package model

import "time"

// DefaultLeague is assigned to teams created by ingestion.
const DefaultLeague = "NCAA"

// Team is a team record. Name is unique.
type Team struct {
	ID     string `json:"id" db:"id"`
	Name   string `json:"name" db:"name"`
	League string `json:"league" db:"league"`
}

// Player is a player record. Name is unique across all teams.
type Player struct {
	ID       string  `json:"id" db:"id"`
	Name     string  `json:"name" db:"name"`
	TeamID   string  `json:"teamId" db:"team_id"`
	Position *string `json:"position,omitempty" db:"position"`
}

// Game is keyed by (Date, HomeTeamID). Both team refs point at the ingesting team.
type Game struct {
	ID         string    `json:"id"`
	Date       time.Time `json:"date"`
	HomeTeamID string    `json:"homeTeamId"`
	AwayTeamID string    `json:"awayTeamId"`
}

// StatLine is one player's box score for one game. Nil fields were absent at
// ingestion and are skipped by averages.
type StatLine struct {
	ID        string   `json:"id"`
	PlayerID  string   `json:"playerId"`
	GameID    string   `json:"gameId"`
	Minutes   *float64 `json:"minutes,omitempty"`
	Points    *float64 `json:"points,omitempty"`
	Assists   *float64 `json:"assists,omitempty"`
	Rebounds  *float64 `json:"rebounds,omitempty"`
	Steals    *float64 `json:"steals,omitempty"`
	Blocks    *float64 `json:"blocks,omitempty"`
	FGA       *float64 `json:"fga,omitempty"`
	FGM       *float64 `json:"fgm,omitempty"`
	TPA       *float64 `json:"tpa,omitempty"`
	TPM       *float64 `json:"tpm,omitempty"`
	FTA       *float64 `json:"fta,omitempty"`
	FTM       *float64 `json:"ftm,omitempty"`
	Turnovers *float64 `json:"turnovers,omitempty"`
	PlusMinus *float64 `json:"plusMinus,omitempty"`
}

// TeamRef is the joined team shape embedded in a summary row.
type TeamRef struct {
	Name string `json:"name"`
}

// PlayerAggregate is a grouped row as a store returns it. Averages are nil when
// no StatLine contributed a value.
type PlayerAggregate struct {
	ID          string   `db:"id"`
	Name        string   `db:"name"`
	TeamID      string   `db:"team_id"`
	Position    *string  `db:"position"`
	GameCount   int      `db:"game_count"`
	AvgPoints   *float64 `db:"avg_points"`
	AvgAssists  *float64 `db:"avg_assists"`
	AvgRebounds *float64 `db:"avg_rebounds"`
	AvgMinutes  *float64 `db:"avg_minutes"`
	TeamName    *string  `db:"team_name"`
}

// PlayerSummary is the client-facing summary row.
type PlayerSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	TeamID      string   `json:"teamId"`
	Position    string   `json:"position"`
	GameCount   int      `json:"gameCount"`
	AvgPoints   float64  `json:"avgPoints"`
	AvgAssists  float64  `json:"avgAssists"`
	AvgRebounds float64  `json:"avgRebounds"`
	AvgMinutes  float64  `json:"avgMinutes"`
	Team        *TeamRef `json:"team"`
}

// PlayerPage is one page of summaries plus the unpaginated match count.
type PlayerPage struct {
	Items    []PlayerSummary `json:"items"`
	Page     int             `json:"page"`
	PageSize int             `json:"pageSize"`
	Total    int             `json:"total"`
}

// DatedStatLine is a StatLine joined to its game's date.
type DatedStatLine struct {
	StatLineID string
	Date       time.Time
	Points     *float64
	Assists    *float64
	Rebounds   *float64
	Minutes    *float64
}

// SeriesPoint is one point of a player time series.
type SeriesPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}

// String returns a pointer to s, or nil for the empty string.
func String(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// OrphanCounts reports StatLines whose references no longer resolve.
type OrphanCounts struct {
	MissingPlayer int `json:"missingPlayer" db:"missing_player"`
	MissingGame   int `json:"missingGame" db:"missing_game"`
}

// Total is the number of dangling references.
func (o OrphanCounts) Total() int {
	return o.MissingPlayer + o.MissingGame
}
