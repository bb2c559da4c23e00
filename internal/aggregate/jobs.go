package aggregate

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/mauv0809/tournament-stats/internal/database"
	"github.com/mauv0809/tournament-stats/internal/stats"
	"github.com/shopspring/decimal"
)

// DefaultJobs returns the aggregation jobs in publication order.
func DefaultJobs(dialect database.Dialect) []Job {
	return []Job{
		{Name: "summary", Run: computeSummary},
		{Name: "teams", Run: computeTeams},
		{Name: "players", Run: computePlayers},
		{Name: "matches", Run: matchesJob(dialect)},
		{Name: "halls", Run: computeHalls},
	}
}

func computeSummary(ctx context.Context, q Querier, save Saver) error {
	summary := make(map[string]int64, len(summaryCounts)+1)
	for _, c := range summaryCounts {
		var n int64
		if err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+c.table).Scan(&n); err != nil {
			return fmt.Errorf("count %s: %w", c.table, err)
		}
		summary[c.key] = n
	}

	var avg decimal.NullDecimal
	if err := q.QueryRowContext(ctx, queryAvgPlayerElo).Scan(&avg); err != nil {
		return fmt.Errorf("average elo: %w", err)
	}
	summary["average_player_elo"] = RoundedInt(avg)

	save.Save(ctx, StatSummary, stats.KeyedMap(summary), stats.CategorySummary)
	return nil
}

func computeTeams(ctx context.Context, q Querier, save Saver) error {
	perTeam, err := collect(ctx, q, queryMatchesPerTeam, nil, func(rows *sql.Rows) (TeamMatches, error) {
		var r TeamMatches
		err := rows.Scan(&r.TeamID, &r.TeamName, &r.Matches)
		return r, err
	})
	if err != nil {
		return fmt.Errorf("matches per team: %w", err)
	}
	save.Save(ctx, StatMatchesPerTeam, stats.Sequence(perTeam), stats.CategoryTeams)

	winRates, err := collect(ctx, q, queryTeamWinRates, nil, func(rows *sql.Rows) (TeamWinRate, error) {
		var r TeamWinRate
		var wins, total sql.NullInt64
		if err := rows.Scan(&r.TeamID, &r.TeamName, &wins, &total); err != nil {
			return r, err
		}
		r.Wins = wins.Int64
		r.TotalGames = total.Int64
		r.WinRate = WinRate(r.Wins, r.TotalGames)
		return r, nil
	})
	if err != nil {
		return fmt.Errorf("team win rates: %w", err)
	}
	save.Save(ctx, StatTeamWinRates, stats.Sequence(winRates), stats.CategoryTeams)
	return nil
}

func computePlayers(ctx context.Context, q Querier, save Saver) error {
	top, err := collect(ctx, q, queryTopPlayersByElo, []any{topPlayersLimit}, func(rows *sql.Rows) (TopPlayer, error) {
		var r TopPlayer
		var name, surname string
		var elo sql.NullInt64
		var nationality sql.NullString
		if err := rows.Scan(&r.Username, &name, &surname, &elo, &nationality); err != nil {
			return r, err
		}
		r.Name = fullName(name, surname)
		r.Elo = elo.Int64
		r.Nationality = nationality.String
		return r, nil
	})
	if err != nil {
		return fmt.Errorf("top players: %w", err)
	}
	save.Save(ctx, StatTopPlayersByElo, stats.Sequence(top), stats.CategoryPlayers)

	active, err := collect(ctx, q, queryMostActivePlayers, []any{topPlayersLimit}, func(rows *sql.Rows) (ActivePlayer, error) {
		var r ActivePlayer
		var name, surname string
		if err := rows.Scan(&r.Username, &name, &surname, &r.Matches); err != nil {
			return r, err
		}
		r.Name = fullName(name, surname)
		return r, nil
	})
	if err != nil {
		return fmt.Errorf("most active players: %w", err)
	}
	save.Save(ctx, StatMostActivePlayers, stats.Sequence(active), stats.CategoryPlayers)

	byNationality, err := collect(ctx, q, queryAvgEloByNationality, []any{minPlayersPerNationality}, func(rows *sql.Rows) (NationalityElo, error) {
		var r NationalityElo
		var avg decimal.NullDecimal
		if err := rows.Scan(&r.Nationality, &avg, &r.PlayerCount); err != nil {
			return r, err
		}
		r.AvgElo = RoundedInt(avg)
		return r, nil
	})
	if err != nil {
		return fmt.Errorf("average elo by nationality: %w", err)
	}
	save.Save(ctx, StatAvgEloByNationality, stats.Sequence(byNationality), stats.CategoryPlayers)
	return nil
}

func matchesJob(dialect database.Dialect) func(ctx context.Context, q Querier, save Saver) error {
	perMonthQuery := queryMatchesPerMonth(dialect)

	return func(ctx context.Context, q Querier, save Saver) error {
		var total int64
		if err := q.QueryRowContext(ctx, queryTotalMatches).Scan(&total); err != nil {
			return fmt.Errorf("total matches: %w", err)
		}
		save.Save(ctx, StatTotalMatches, stats.Int(total), stats.CategoryMatches)

		byResult := map[string]int64{}
		_, err := collect(ctx, q, queryMatchesByResult, nil, func(rows *sql.Rows) (struct{}, error) {
			var label sql.NullString
			var count int64
			if err := rows.Scan(&label, &count); err != nil {
				return struct{}{}, err
			}
			if !label.Valid || label.String == "" {
				label.String = unknownResultLabel
			}
			byResult[label.String] += count
			return struct{}{}, nil
		})
		if err != nil {
			return fmt.Errorf("matches by result: %w", err)
		}
		save.Save(ctx, StatMatchesByResult, stats.KeyedMap(byResult), stats.CategoryMatches)

		perMonth, err := collect(ctx, q, perMonthQuery, []any{monthsReported}, func(rows *sql.Rows) (MonthCount, error) {
			var r MonthCount
			err := rows.Scan(&r.Month, &r.Count)
			return r, err
		})
		if err != nil {
			return fmt.Errorf("matches per month: %w", err)
		}
		save.Save(ctx, StatMatchesPerMonth, stats.Sequence(perMonth), stats.CategoryMatches)

		arbiters, err := collect(ctx, q, queryArbiterAvgRatings, nil, func(rows *sql.Rows) (ArbiterRating, error) {
			var r ArbiterRating
			var arbiter sql.NullString
			var avg decimal.NullDecimal
			if err := rows.Scan(&arbiter, &avg, &r.RatedCount); err != nil {
				return r, err
			}
			r.Arbiter = arbiter.String
			r.AvgRating = RoundedCents(avg)
			return r, nil
		})
		if err != nil {
			return fmt.Errorf("arbiter ratings: %w", err)
		}
		save.Save(ctx, StatArbiterAvgRatings, stats.Sequence(arbiters), stats.CategoryArbiters)
		return nil
	}
}

func computeHalls(ctx context.Context, q Querier, save Saver) error {
	usage, err := collect(ctx, q, queryHallUtilization, nil, func(rows *sql.Rows) (HallUsage, error) {
		var r HallUsage
		var country sql.NullString
		var capacity, hosted sql.NullInt64
		if err := rows.Scan(&r.HallID, &r.HallName, &country, &capacity, &hosted); err != nil {
			return r, err
		}
		r.Country = country.String
		r.Capacity = capacity.Int64
		r.MatchesHosted = hosted.Int64
		return r, nil
	})
	if err != nil {
		return fmt.Errorf("hall utilization: %w", err)
	}
	save.Save(ctx, StatHallUtilization, stats.Sequence(usage), stats.CategoryHalls)
	return nil
}

// collect runs query and maps every row with scan. A scan error fails the
// whole stat rather than publishing a ranking with rows missing.
func collect[T any](ctx context.Context, q Querier, query string, args []any, scan func(*sql.Rows) (T, error)) ([]T, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
