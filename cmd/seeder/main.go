package main

import (
	"context"
	"database/sql"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/tournament-stats/internal/config"
	"github.com/mauv0809/tournament-stats/internal/database"
)

const (
	numTeams   = 8
	numHalls   = 5
	numPlayers = 120
	numMatches = 2000
	batchSize  = 100
)

var (
	nationalities = []string{"TR", "DE", "US", "IN", "NO", "FR", "CN", "AZ"}
	firstNames    = []string{"Ali", "Anna", "Boris", "Chen", "Deniz", "Elif", "Hikaru", "Ian", "Judit", "Magnus", "Nodirbek", "Wei"}
	surnames      = []string{"Aronian", "Caruana", "Ding", "Erdogmus", "Gukesh", "Kasparova", "Nakamura", "Polgar", "Radjabov", "Yilmaz"}
	results       = []string{"white wins", "black wins", "draw"}
)

func main() {
	log.Info("Starting database seeder...")
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %s", err)
	}
	if cfg.Database.Driver == "mysql" {
		log.Fatalf("The seeder only targets SQLite or libSQL databases; set DB_DRIVER=sqlite3 or DB_DRIVER=libsql")
	}

	db, teardown, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %s", err)
	}
	defer teardown()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("Failed to connect to database: %s", err)
	}
	if err := database.CreateSourceSchema(ctx, db); err != nil {
		log.Fatalf("%s", err)
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	startTime := time.Now()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %s", err)
	}
	if err := seed(ctx, tx, rng); err != nil {
		tx.Rollback()
		log.Fatalf("Failed to seed database: %s", err)
	}
	if err := tx.Commit(); err != nil {
		log.Fatalf("Failed to commit transaction: %s", err)
	}

	log.Info("Successfully seeded tournament data.", "duration", time.Since(startTime))
}

func seed(ctx context.Context, tx *sql.Tx, rng *rand.Rand) error {
	for i := 1; i <= numTeams; i++ {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO teams (team_id, team_name, sponsor_id) VALUES (?, ?, ?)",
			i, fmt.Sprintf("Team %d", i), rng.Intn(5)+1); err != nil {
			return fmt.Errorf("insert team: %w", err)
		}
		coach := fmt.Sprintf("coach%d", i)
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO users (username, password, role) VALUES (?, ?, 'coach')", coach, uuid.NewString()); err != nil {
			return fmt.Errorf("insert coach user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO coaches (username, name, surname, nationality, team_id, contract_start, contract_finish)
			VALUES (?, ?, ?, ?, ?, '2024-01-01', '2026-12-31')`,
			coach, pick(rng, firstNames), pick(rng, surnames), pick(rng, nationalities), i); err != nil {
			return fmt.Errorf("insert coach: %w", err)
		}
	}
	log.Info("Ensured teams and coaches exist.", "teams", numTeams)

	for i := 1; i <= numHalls; i++ {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO halls (hall_id, hall_name, hall_country, hall_capacity) VALUES (?, ?, ?, ?)",
			i, fmt.Sprintf("Hall %d", i), pick(rng, nationalities), 20+rng.Intn(10)*10); err != nil {
			return fmt.Errorf("insert hall: %w", err)
		}
	}

	arbiters := []string{"arbiter1", "arbiter2", "arbiter3", "arbiter4"}
	for _, a := range arbiters {
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO users (username, password, role) VALUES (?, ?, 'arbiter')", a, uuid.NewString()); err != nil {
			return fmt.Errorf("insert arbiter user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO arbiters (username, name, surname, nationality, experience_level) VALUES (?, ?, ?, ?, ?)",
			a, pick(rng, firstNames), pick(rng, surnames), pick(rng, nationalities), pick(rng, []string{"beginner", "intermediate", "advanced", "expert"})); err != nil {
			return fmt.Errorf("insert arbiter: %w", err)
		}
	}

	players := make([]string, 0, numPlayers)
	for i := 1; i <= numPlayers; i++ {
		username := fmt.Sprintf("player%d", i)
		players = append(players, username)
		if _, err := tx.ExecContext(ctx, "INSERT OR IGNORE INTO users (username, password, role) VALUES (?, ?, 'player')", username, uuid.NewString()); err != nil {
			return fmt.Errorf("insert player user: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT OR IGNORE INTO players (username, name, surname, nationality, dateofbirth, elorating, fideid, titleid)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			username, pick(rng, firstNames), pick(rng, surnames), pick(rng, nationalities),
			fmt.Sprintf("%d-%02d-%02d", 1970+rng.Intn(35), rng.Intn(12)+1, rng.Intn(28)+1),
			1200+rng.Intn(1600), strings.ToUpper(uuid.NewString()[:8]), rng.Intn(6)+1); err != nil {
			return fmt.Errorf("insert player: %w", err)
		}
	}
	log.Info("Ensured players exist.", "players", numPlayers)

	log.Info("Preparing to insert matches...", "total", numMatches, "batch_size", batchSize)
	matchStrings := make([]string, 0, batchSize)
	matchArgs := make([]any, 0, batchSize*9)
	assignStrings := make([]string, 0, batchSize)
	assignArgs := make([]any, 0, batchSize*4)

	for i := 1; i <= numMatches; i++ {
		date := time.Now().AddDate(0, 0, -rng.Intn(540))
		team1 := rng.Intn(numTeams) + 1
		team2 := (team1+rng.Intn(numTeams-1))%numTeams + 1
		var rating any
		if rng.Intn(4) > 0 {
			rating = fmt.Sprintf("%d.%02d", 5+rng.Intn(5), rng.Intn(4)*25)
		}

		matchStrings = append(matchStrings, "(?, ?, ?, ?, ?, ?, ?, ?, ?)")
		matchArgs = append(matchArgs, i, date.Format("2006-01-02"), rng.Intn(3)+1, rng.Intn(numHalls)+1, rng.Intn(10)+1,
			team1, team2, pick(rng, arbiters), rating)

		var result any
		if date.Before(time.Now().AddDate(0, 0, -7)) {
			result = pick(rng, results)
		}
		white := pick(rng, players)
		black := pick(rng, players)
		for black == white {
			black = pick(rng, players)
		}
		assignStrings = append(assignStrings, "(?, ?, ?, ?)")
		assignArgs = append(assignArgs, i, white, black, result)

		if i%batchSize == 0 || i == numMatches {
			stmt := fmt.Sprintf(`INSERT OR IGNORE INTO matches (match_id, date, time_slot, hall_id, table_id, team1_id, team2_id, arbiter_username, ratings)
				VALUES %s`, strings.Join(matchStrings, ","))
			if _, err := tx.ExecContext(ctx, stmt, matchArgs...); err != nil {
				return fmt.Errorf("insert matches: %w", err)
			}
			stmt = fmt.Sprintf(`INSERT OR IGNORE INTO match_assignments (match_id, white_player, black_player, result)
				VALUES %s`, strings.Join(assignStrings, ","))
			if _, err := tx.ExecContext(ctx, stmt, assignArgs...); err != nil {
				return fmt.Errorf("insert match assignments: %w", err)
			}

			// Reset for the next batch
			matchStrings = matchStrings[:0]
			matchArgs = matchArgs[:0]
			assignStrings = assignStrings[:0]
			assignArgs = assignArgs[:0]
			log.Info("Inserted batch", "completed", i, "total", numMatches)
		}
	}
	return nil
}

func pick(rng *rand.Rand, values []string) string {
	return values[rng.Intn(len(values))]
}
