package league

import (
	"fmt"
	"time"
)

type teamSeed struct {
	id, name, abbr, city, conference, division string
}

var nbaTeams = []teamSeed{
	{"1", "Hawks", "ATL", "Atlanta", "East", "Southeast"},
	{"2", "Celtics", "BOS", "Boston", "East", "Atlantic"},
	{"3", "Nets", "BKN", "Brooklyn", "East", "Atlantic"},
	{"4", "Hornets", "CHA", "Charlotte", "East", "Southeast"},
	{"5", "Bulls", "CHI", "Chicago", "East", "Central"},
	{"6", "Cavaliers", "CLE", "Cleveland", "East", "Central"},
	{"7", "Mavericks", "DAL", "Dallas", "West", "Southwest"},
	{"8", "Nuggets", "DEN", "Denver", "West", "Northwest"},
	{"9", "Pistons", "DET", "Detroit", "East", "Central"},
	{"10", "Warriors", "GSW", "Golden State", "West", "Pacific"},
	{"11", "Rockets", "HOU", "Houston", "West", "Southwest"},
	{"12", "Pacers", "IND", "Indiana", "East", "Central"},
	{"13", "Clippers", "LAC", "Los Angeles", "West", "Pacific"},
	{"14", "Lakers", "LAL", "Los Angeles", "West", "Pacific"},
	{"15", "Grizzlies", "MEM", "Memphis", "West", "Southwest"},
	{"16", "Heat", "MIA", "Miami", "East", "Southeast"},
	{"17", "Bucks", "MIL", "Milwaukee", "East", "Central"},
	{"18", "Timberwolves", "MIN", "Minnesota", "West", "Northwest"},
	{"19", "Pelicans", "NOP", "New Orleans", "West", "Southwest"},
	{"20", "Knicks", "NYK", "New York", "East", "Atlantic"},
	{"21", "Thunder", "OKC", "Oklahoma City", "West", "Northwest"},
	{"22", "Magic", "ORL", "Orlando", "East", "Southeast"},
	{"23", "76ers", "PHI", "Philadelphia", "East", "Atlantic"},
	{"24", "Suns", "PHX", "Phoenix", "West", "Pacific"},
	{"25", "Trail Blazers", "POR", "Portland", "West", "Northwest"},
	{"26", "Kings", "SAC", "Sacramento", "West", "Pacific"},
	{"27", "Spurs", "SAS", "San Antonio", "West", "Southwest"},
	{"28", "Raptors", "TOR", "Toronto", "East", "Atlantic"},
	{"29", "Jazz", "UTA", "Utah", "West", "Northwest"},
	{"30", "Wizards", "WAS", "Washington", "East", "Southeast"},
}

// SampleLeague builds a full 30-team league with generated rosters and draft
// picks. Deterministic: the same now produces the same league.
func SampleLeague(now time.Time) *State {
	state := NewState()
	for _, seed := range nbaTeams {
		state.AddTeam(&Team{
			ID:           seed.id,
			Name:         seed.name,
			Abbreviation: seed.abbr,
			City:         seed.city,
			Conference:   seed.conference,
			Division:     seed.division,
			Roster:       SamplePlayers(seed.abbr, 15),
			DraftPicks:   sampleDraftPicks(seed.abbr, now.Year()),
			SalaryCap:    DefaultSalaryCap,
			LuxuryTax:    DefaultLuxuryTax,
		})
	}
	return state
}

// SamplePlayers generates count players for a team. Salaries taper with the
// roster slot, positions rotate PG→C, and stat lines cycle so each roster
// has a spread of player quality.
func SamplePlayers(teamAbbr string, count int) []Player {
	players := make([]Player, 0, count)
	for i := 1; i <= count; i++ {
		salaryMultiplier := 0.5
		switch {
		case i <= 5:
			salaryMultiplier = 1.5
		case i <= 10:
			salaryMultiplier = 0.8
		}

		players = append(players, Player{
			ID:            fmt.Sprintf("%s_%d", teamAbbr, i),
			Name:          fmt.Sprintf("%s Player %d", teamAbbr, i),
			Position:      AllPositions[(i-1)%len(AllPositions)],
			Age:           22 + i%10,
			Height:        fmt.Sprintf("%d'%d\"", 6+i%3, i%12),
			Weight:        180 + (i*5)%70,
			Salary:        1_000_000 * float64(15-i) * salaryMultiplier,
			ContractYears: 1 + i%5,
			Stats: StatLine{
				StatPPG:    float64(10 + i%20),
				StatRPG:    float64(3 + i%10),
				StatAPG:    float64(2 + i%8),
				StatSPG:    0.5 + float64(i%2),
				StatBPG:    0.3 + float64(i%3),
				StatFGPct:  0.4 + float64(i%10)/100,
				StatFG3Pct: 0.3 + float64(i%15)/100,
			},
		})
	}
	return players
}

func sampleDraftPicks(teamAbbr string, year int) []DraftPick {
	return []DraftPick{
		{Year: year + 1, Round: 1, OriginalTeam: teamAbbr},
		{Year: year + 1, Round: 2, OriginalTeam: teamAbbr},
		{Year: year + 2, Round: 1, OriginalTeam: teamAbbr},
		{Year: year + 2, Round: 2, OriginalTeam: teamAbbr},
		{Year: year + 3, Round: 1, OriginalTeam: teamAbbr},
	}
}
