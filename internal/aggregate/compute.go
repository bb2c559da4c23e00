package aggregate

import (
	"strings"

	"github.com/mauv0809/tournament-stats/internal/stats"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// WinRate returns wins as a percentage of total games, rounded to two
// decimals. A team without games has a rate of 0.
func WinRate(wins, totalGames int64) stats.Decimal {
	if totalGames < 1 {
		totalGames = 1
	}
	rate := decimal.NewFromInt(wins).Mul(hundred).Div(decimal.NewFromInt(totalGames))
	return stats.NewDecimal(rate.Round(2))
}

// RoundedInt rounds an average to the nearest integer; NULL averages are 0.
func RoundedInt(avg decimal.NullDecimal) int64 {
	if !avg.Valid {
		return 0
	}
	return avg.Decimal.Round(0).IntPart()
}

// RoundedCents rounds an average to two decimals; NULL averages are 0.
func RoundedCents(avg decimal.NullDecimal) stats.Decimal {
	if !avg.Valid {
		return stats.NewDecimal(decimal.Zero)
	}
	return stats.NewDecimal(avg.Decimal.Round(2))
}

func fullName(name, surname string) string {
	return strings.TrimSpace(name + " " + surname)
}
