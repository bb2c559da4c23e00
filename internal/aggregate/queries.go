package aggregate

import "github.com/mauv0809/tournament-stats/internal/database"

const (
	queryAvgPlayerElo = `SELECT AVG(elorating) FROM players`

	queryMatchesPerTeam = `
		SELECT t.team_id, t.team_name, COUNT(DISTINCT m.match_id) AS total_matches
		FROM teams t
		LEFT JOIN matches m ON t.team_id = m.team1_id OR t.team_id = m.team2_id
		GROUP BY t.team_id, t.team_name
		ORDER BY total_matches DESC, t.team_id`

	queryTeamWinRates = `
		SELECT t.team_id, t.team_name,
			SUM(CASE
				WHEN (m.team1_id = t.team_id AND ma.result = 'white wins')
				  OR (m.team2_id = t.team_id AND ma.result = 'black wins')
				THEN 1 ELSE 0
			END) AS wins,
			COUNT(ma.match_id) AS total_games
		FROM teams t
		LEFT JOIN matches m ON t.team_id = m.team1_id OR t.team_id = m.team2_id
		LEFT JOIN match_assignments ma ON m.match_id = ma.match_id
		GROUP BY t.team_id, t.team_name
		ORDER BY t.team_id`

	queryTopPlayersByElo = `
		SELECT username, name, surname, elorating, nationality
		FROM players
		ORDER BY elorating DESC, username
		LIMIT ?`

	queryMostActivePlayers = `
		SELECT p.username, p.name, p.surname, COUNT(ma.match_id) AS total_matches
		FROM players p
		LEFT JOIN match_assignments ma ON p.username = ma.white_player OR p.username = ma.black_player
		GROUP BY p.username, p.name, p.surname
		ORDER BY total_matches DESC, p.username
		LIMIT ?`

	queryAvgEloByNationality = `
		SELECT nationality, AVG(elorating) AS avg_elo, COUNT(*) AS player_count
		FROM players
		WHERE nationality IS NOT NULL
		GROUP BY nationality
		HAVING COUNT(*) >= ?
		ORDER BY avg_elo DESC, nationality`

	queryTotalMatches = `SELECT COUNT(*) FROM matches`

	queryMatchesByResult = `
		SELECT result, COUNT(*) AS count
		FROM match_assignments
		GROUP BY result`

	queryArbiterAvgRatings = `
		SELECT arbiter_username, AVG(ratings) AS avg_rating, COUNT(*) AS rated_count
		FROM matches
		WHERE ratings IS NOT NULL
		GROUP BY arbiter_username
		ORDER BY arbiter_username`

	queryHallUtilization = `
		SELECT h.hall_id, h.hall_name, h.hall_country, h.hall_capacity, COUNT(m.match_id) AS match_count
		FROM halls h
		LEFT JOIN matches m ON h.hall_id = m.hall_id
		GROUP BY h.hall_id, h.hall_name, h.hall_country, h.hall_capacity
		ORDER BY match_count DESC, h.hall_id`
)

// summaryCounts lists the entity counts of the summary stat, in output order.
var summaryCounts = []struct {
	key   string
	table string
}{
	{"total_users", "users"},
	{"total_players", "players"},
	{"total_coaches", "coaches"},
	{"total_arbiters", "arbiters"},
	{"total_teams", "teams"},
	{"total_matches", "matches"},
	{"total_halls", "halls"},
}

func queryMatchesPerMonth(dialect database.Dialect) string {
	return `
		SELECT ` + dialect.MonthBucket("date") + ` AS month, COUNT(*) AS count
		FROM matches
		WHERE date IS NOT NULL
		GROUP BY month
		ORDER BY month DESC
		LIMIT ?`
}
