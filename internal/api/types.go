package api

import (
	"sort"
	"time"
)

// ClientConfig is the public configuration an rCTF server hands to clients.
type ClientConfig struct {
	CTFName         string            `json:"ctfName"`
	Divisions       map[string]string `json:"divisions"`
	DefaultDivision string            `json:"defaultDivision,omitempty"`
	Origin          string            `json:"origin"`
	StartTime       int64             `json:"startTime"`
	EndTime         int64             `json:"endTime"`
	EmailEnabled    bool              `json:"emailEnabled"`
	UserMembers     bool              `json:"userMembers"`
	FaviconURL      string            `json:"faviconUrl,omitempty"`
}

// DivisionName returns the display name for a division id, falling back to the id.
func (c ClientConfig) DivisionName(id string) string {
	if name, ok := c.Divisions[id]; ok {
		return name
	}
	return id
}

// DivisionIDs returns the division ids in a stable order.
func (c ClientConfig) DivisionIDs() []string {
	ids := make([]string, 0, len(c.Divisions))
	for id := range c.Divisions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Start returns the CTF start time. Zero when the server does not report one.
func (c ClientConfig) Start() time.Time {
	if c.StartTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.StartTime)
}

// End returns the CTF end time. Zero when the server does not report one.
func (c ClientConfig) End() time.Time {
	if c.EndTime == 0 {
		return time.Time{}
	}
	return time.UnixMilli(c.EndTime)
}

// File is a downloadable attachment of a challenge.
type File struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

// Challenge is a single challenge as returned by /challs.
type Challenge struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Category    string `json:"category" yaml:"category"`
	Author      string `json:"author" yaml:"author"`
	Files       []File `json:"files" yaml:"files"`
	Points      int    `json:"points" yaml:"points"`
	Solves      int    `json:"solves" yaml:"solves"`
	SortWeight  int    `json:"sortWeight" yaml:"sortWeight"`
}

// SortChallenges orders challenges by descending sort weight, keeping the
// server order for ties.
func SortChallenges(challs []Challenge) {
	sort.SliceStable(challs, func(i, j int) bool {
		return challs[i].SortWeight > challs[j].SortWeight
	})
}

// Solve is an entry of a profile's solve history.
type Solve struct {
	ID        string `json:"id"`
	Category  string `json:"category"`
	Name      string `json:"name"`
	Points    int    `json:"points"`
	Solves    int    `json:"solves"`
	CreatedAt int64  `json:"createdAt"`
}

// SolvedAt converts the millisecond timestamp to UTC.
func (s Solve) SolvedAt() time.Time {
	return time.UnixMilli(s.CreatedAt).UTC()
}

// Profile is a team's user data. Email, TeamToken and AllowedDivisions are
// only populated for the authenticated team. A zero place means unranked.
type Profile struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Email            string   `json:"email,omitempty"`
	Division         string   `json:"division"`
	AllowedDivisions []string `json:"allowedDivisions,omitempty"`
	TeamToken        string   `json:"teamToken,omitempty"`
	Score            int      `json:"score"`
	DivisionPlace    int      `json:"divisionPlace"`
	GlobalPlace      int      `json:"globalPlace"`
	Solves           []Solve  `json:"solves"`
}

// SolvedIDs returns the set of challenge ids the team has solved.
func (p Profile) SolvedIDs() map[string]bool {
	ids := make(map[string]bool, len(p.Solves))
	for _, s := range p.Solves {
		ids[s.ID] = true
	}
	return ids
}

// Member is a team member registered by email.
type Member struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// LeaderboardEntry is one team on the scoreboard.
type LeaderboardEntry struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

// Leaderboard is one page of the scoreboard. Total counts every team in the
// queried division, not just the page.
type Leaderboard struct {
	Total   int                `json:"total"`
	Entries []LeaderboardEntry `json:"leaderboard"`
}

// GraphPoint is a score sample in a team's history.
type GraphPoint struct {
	Time  int64 `json:"time"`
	Score int   `json:"score"`
}

// At converts the millisecond timestamp to UTC.
func (p GraphPoint) At() time.Time {
	return time.UnixMilli(p.Time).UTC()
}

// GraphEntry is the score history of one top team.
type GraphEntry struct {
	ID     string       `json:"id"`
	Name   string       `json:"name"`
	Points []GraphPoint `json:"points"`
}

// Latest returns the most recent sample.
func (e GraphEntry) Latest() (GraphPoint, bool) {
	var latest GraphPoint
	for i, p := range e.Points {
		if i == 0 || p.Time > latest.Time {
			latest = p
		}
	}
	return latest, len(e.Points) > 0
}

// Graph is the score history of the top teams.
type Graph struct {
	Entries []GraphEntry `json:"graph"`
}

// ChallengeSolve is one solve of a specific challenge.
type ChallengeSolve struct {
	ID        string `json:"id"`
	CreatedAt int64  `json:"createdAt"`
	UserID    string `json:"userId"`
	UserName  string `json:"userName"`
}

// SolvedAt converts the millisecond timestamp to UTC.
func (s ChallengeSolve) SolvedAt() time.Time {
	return time.UnixMilli(s.CreatedAt).UTC()
}

// ChallengeSolves is one page of solves of a challenge.
type ChallengeSolves struct {
	Solves []ChallengeSolve `json:"solves"`
}

// AccountUpdate holds the fields of a PATCH /users/me. Nil fields are omitted.
type AccountUpdate struct {
	Name     *string
	Division *string
}

// ScoreboardOptions selects a scoreboard page. An empty Division means all
// divisions; a non-positive Limit uses the server-side default for the call.
type ScoreboardOptions struct {
	Division string
	Limit    int
	Offset   int
}
