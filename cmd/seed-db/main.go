// Command seed-db creates the schema, staff API keys and sample data for a
// fresh installation.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/auth"
	"github.com/xenking/kasir/internal/domain/member"
	"github.com/xenking/kasir/internal/domain/menu"
	"github.com/xenking/kasir/internal/importer"
	"github.com/xenking/kasir/internal/storage/postgres"
)

var sampleMenu = []menu.Item{
	{ID: "nasi-goreng", Name: "Nasi Goreng", Description: "Fried rice with egg", Price: decimal.RequireFromString("25000"), Category: "food", Available: true, PreparationTime: 12},
	{ID: "mie-ayam", Name: "Mie Ayam", Description: "Chicken noodles", Price: decimal.RequireFromString("20000"), Category: "food", Available: true, PreparationTime: 10},
	{ID: "sate-ayam", Name: "Sate Ayam", Description: "Ten chicken skewers", Price: decimal.RequireFromString("30000"), Category: "food", Available: true, PreparationTime: 15},
	{ID: "es-teh", Name: "Es Teh Manis", Price: decimal.RequireFromString("5000"), Category: "drink", Available: true, PreparationTime: 2},
	{ID: "kopi-tubruk", Name: "Kopi Tubruk", Price: decimal.RequireFromString("8000"), Category: "drink", Available: true, PreparationTime: 4},
}

var sampleMembers = []member.Member{
	{Name: "Budi Santoso", Phone: "081234567890", DiscountPercentage: decimal.NewFromInt(5)},
	{Name: "Siti Rahayu", Phone: "081298765432", DiscountPercentage: decimal.NewFromInt(10)},
}

type staffKey struct {
	role auth.Role
	key  string
}

func main() {
	var (
		databaseURL  string
		menuFile     string
		apiKeyPepper string
		adminKey     string
		cashierKey   string
		kitchenKey   string
		withMembers  bool
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&menuFile, "menu-file", "", "CSV menu to import instead of the built-in sample")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or KASIR_API_KEY_PEPPER env)")
	flag.StringVar(&adminKey, "admin-key", "", "API key for the admin user; generated when empty")
	flag.StringVar(&cashierKey, "cashier-key", "", "API key for a cashier user; skipped when empty")
	flag.StringVar(&kitchenKey, "kitchen-key", "", "API key for a kitchen user; skipped when empty")
	flag.BoolVar(&withMembers, "members", true, "create sample loyalty members")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("KASIR_API_KEY_PEPPER")
	}
	if adminKey == "" {
		adminKey = auth.NewKey()
		// Printed once; only the hash is stored.
		fmt.Printf("admin API key: %s\n", adminKey)
	}

	keys := []staffKey{{auth.RoleAdmin, adminKey}}
	if cashierKey != "" {
		keys = append(keys, staffKey{auth.RoleCashier, cashierKey})
	}
	if kitchenKey != "" {
		keys = append(keys, staffKey{auth.RoleKitchen, kitchenKey})
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, menuFile, []byte(apiKeyPepper), keys, withMembers); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, menuFile string, pepper []byte, keys []staffKey, withMembers bool) error {
	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := postgres.Migrate(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedMenu(ctx, postgres.NewMenuRepository(pool), menuFile); err != nil {
		return errors.Wrap(err, "seed menu")
	}

	if withMembers {
		if err := seedMembers(ctx, postgres.NewMemberRepository(pool)); err != nil {
			return errors.Wrap(err, "seed members")
		}
	}

	users := postgres.NewUserRepository(pool)
	for _, k := range keys {
		u := auth.User{
			ID:      "user-" + string(k.role),
			Name:    string(k.role),
			Role:    k.role,
			KeyHash: auth.HashKey(pepper, k.key),
		}
		if err := users.Upsert(ctx, u); err != nil {
			return errors.Wrapf(err, "seed %s user", k.role)
		}
		slog.Info("user seeded", slog.String("role", string(k.role)))
	}

	return nil
}

func seedMenu(ctx context.Context, repo *postgres.MenuRepository, menuFile string) error {
	items := sampleMenu
	if menuFile != "" {
		f, err := importer.Open(menuFile)
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()

		res, err := importer.ReadMenu(f)
		if err != nil {
			return errors.Wrapf(err, "read %s", menuFile)
		}
		slog.Info("menu file parsed", slog.Int("items", len(res.Items)), slog.Int("skipped", res.Skipped))
		items = res.Items
	}

	for _, item := range items {
		if err := repo.Upsert(ctx, item); err != nil {
			return err
		}
	}
	slog.Info("menu seeded", slog.Int("count", len(items)))
	return nil
}

func seedMembers(ctx context.Context, repo *postgres.MemberRepository) error {
	existing, err := repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		slog.Info("members already present, skipping", slog.Int("count", len(existing)))
		return nil
	}

	now := time.Now().UTC()
	for _, m := range sampleMembers {
		m.ID = uuid.New().String()
		m.JoinDate = now
		if err := repo.Create(ctx, &m); err != nil {
			return err
		}
	}
	slog.Info("members seeded", slog.Int("count", len(sampleMembers)))
	return nil
}
