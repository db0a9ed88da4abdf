// README: Seed tool; provisions tables and menu items for local runs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"tableside/internal/config"
	"tableside/internal/infra"
	"tableside/internal/modules/menu"
	"tableside/internal/types"
)

var menuItems = []menu.Item{
	{ID: "margherita", Name: "Margherita Pizza", Description: "Tomato, mozzarella, basil", Price: types.Money{Amount: 1200, Currency: "USD"}, IsAvailable: true},
	{ID: "pepperoni", Name: "Pepperoni Pizza", Description: "Pepperoni, mozzarella", Price: types.Money{Amount: 1400, Currency: "USD"}, IsAvailable: true},
	{ID: "caesar", Name: "Caesar Salad", Description: "Romaine, parmesan, croutons", Price: types.Money{Amount: 900, Currency: "USD"}, IsAvailable: true},
	{ID: "carbonara", Name: "Spaghetti Carbonara", Description: "Egg, guanciale, pecorino", Price: types.Money{Amount: 1500, Currency: "USD"}, IsAvailable: true},
	{ID: "tiramisu", Name: "Tiramisu", Description: "Espresso-soaked ladyfingers", Price: types.Money{Amount: 700, Currency: "USD"}, IsAvailable: true},
	{ID: "lemonade", Name: "Fresh Lemonade", Price: types.Money{Amount: 400, Currency: "USD"}, IsAvailable: true},
}

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	db, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	menuStore := menu.NewStore(db)
	for i := range menuItems {
		if err := menuStore.Upsert(ctx, &menuItems[i]); err != nil {
			logger.Error("menu seed failed", "item", menuItems[i].Name, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("menu seeded", "items", len(menuItems))

	// Twelve four-tops and a few larger tables.
	for n := 1; n <= 15; n++ {
		capacity := 4
		if n > 12 {
			capacity = 8
		}
		_, err := db.Exec(ctx, `
			INSERT INTO tables (id, table_number, capacity, status)
			VALUES ($1, $2, $3, 'available')
			ON CONFLICT (table_number) DO NOTHING`,
			fmt.Sprintf("table-%02d", n), n, capacity)
		if err != nil {
			logger.Error("table seed failed", "table", n, "error", err)
			os.Exit(1)
		}
	}
	logger.Info("tables seeded", "tables", 15)
}
