// Command seed-data fills a user's ledger with synthetic expenses so the
// dashboard and the anomaly scorer have something realistic to chew on.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/joho/godotenv"
	"spendtrack/internal/auth"
	"spendtrack/internal/config"
	"spendtrack/internal/core"
	"spendtrack/internal/storage"
)

var seedCategories = []core.Category{
	core.Food,
	core.Transport,
	core.Utilities,
	core.Entertainment,
	core.Miscellaneous,
}

var seedDescriptions = []string{
	"Groceries",
	"Lunch out",
	"Bus ticket",
	"Fuel",
	"Electricity bill",
	"Streaming subscription",
	"Cinema",
	"Pharmacy",
	"Coffee",
	"Household supplies",
	"Gift",
	"",
}

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	var (
		username = flag.String("user", "", "username to seed expenses for")
		password = flag.String("password", "", "password for the user (created if missing)")
		months   = flag.Int("months", 18, "number of months to span")
		perMonth = flag.Int("per-month", 40, "entries per month")
		seed     = flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	)
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: seed-data -user NAME -password PASS [-months N] [-per-month N]")
		os.Exit(2)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx := context.Background()

	userID, err := resolveUser(ctx, repo, *username, *password)
	if err != nil {
		logger.Error("User resolution failed", "error", err, "username", *username)
		os.Exit(1)
	}

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(*seed))

	inserted, err := insertSyntheticExpenses(ctx, repo, rng, userID, *months, *perMonth)
	if err != nil {
		logger.Error("Seeding failed", "error", err, "inserted", inserted)
		os.Exit(1)
	}

	logger.Info("Seeding complete",
		"user_id", userID,
		"inserted", inserted,
		"months", *months,
		"seed", *seed)
}

// resolveUser logs in with the given credentials, creating the account if
// it does not exist yet.
func resolveUser(ctx context.Context, repo *storage.SQLiteRepository, username, password string) (int64, error) {
	user, err := repo.GetUserByLogin(ctx, username)
	if err == nil {
		if err := auth.CheckPassword(user.PasswordHash, password); err != nil {
			return 0, fmt.Errorf("invalid username or password")
		}
		return user.ID, nil
	}
	if err != storage.ErrUserNotFound {
		return 0, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	id, err := repo.CreateUser(ctx, username, hash, "")
	if err != nil {
		return 0, err
	}
	slog.InfoContext(ctx, "Created user", "user_id", id, "username", username)
	return id, nil
}

// insertSyntheticExpenses writes months*perMonth expenses, walking month by
// month from (now - months) to now. Amounts are uniform in [10, 500) with
// two decimals, categories and necessity are uniform picks.
func insertSyntheticExpenses(ctx context.Context, repo *storage.SQLiteRepository, rng *rand.Rand, userID int64, months, perMonth int) (int, error) {
	base := time.Now().UTC().AddDate(0, 0, -30*months)
	inserted := 0

	for m := 0; m < months; m++ {
		for i := 0; i < perMonth; i++ {
			day := base.AddDate(0, 0, rng.Intn(30))
			record := core.ExpenseRecord{
				Amount:      core.Money{Cents: 1000 + rng.Int63n(49000)},
				Category:    seedCategories[rng.Intn(len(seedCategories))],
				Date:        core.NewDate(day.Year(), int(day.Month()), day.Day()),
				IsNecessary: rng.Intn(2) == 1,
				Description: seedDescriptions[rng.Intn(len(seedDescriptions))],
			}
			if _, err := repo.Append(ctx, userID, record); err != nil {
				return inserted, err
			}
			inserted++
		}
		base = base.AddDate(0, 0, 30)
	}

	return inserted, nil
}
