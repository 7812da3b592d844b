package main

import (
	"context"
	"flag"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"github.com/aroi-pos/api/internal/config"
	"github.com/aroi-pos/api/internal/database"
	"github.com/aroi-pos/api/internal/enum"
)

type seedProduct struct {
	name     string
	price    string
	category string
}

// A starter menu so a fresh shop has something to sell.
var seedProducts = []seedProduct{
	{"ข้าวกะเพราหมูสับ", "55", "อาหารจานเดียว"},
	{"ข้าวผัดหมู", "55", "อาหารจานเดียว"},
	{"ข้าวไข่เจียว", "45", "อาหารจานเดียว"},
	{"ก๋วยเตี๋ยวหมูน้ำใส", "50", "ก๋วยเตี๋ยว"},
	{"ก๋วยเตี๋ยวต้มยำ", "55", "ก๋วยเตี๋ยว"},
	{"เกาเหลา", "60", "ก๋วยเตี๋ยว"},
	{"น้ำเปล่า", "10", "เครื่องดื่ม"},
	{"ชาเย็น", "25", "เครื่องดื่ม"},
	{"โค้ก", "20", "เครื่องดื่ม"},
}

func main() {
	pin := flag.String("pin", "", "Admin PIN (overrides ADMIN_PIN)")
	skipMenu := flag.Bool("skip-menu", false, "Seed shop config only, no starter menu")
	flag.Parse()

	cfg := config.Load()
	if *pin == "" {
		*pin = cfg.AdminPIN
	}
	if *pin == "8888" {
		log.Println("WARNING: Using default PIN '8888'. Change it in production!")
	}

	if err := database.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Migrations failed: %v", err)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	hash, err := bcrypt.GenerateFromPassword([]byte(*pin), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash PIN: %v", err)
	}

	// Seed in a transaction: config and menu land together or not at all.
	tx, err := pool.Begin(ctx)
	if err != nil {
		log.Fatalf("Failed to begin transaction: %v", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	queries := database.New(tx)

	if err := queries.UpsertShopConfig(ctx, enum.DefaultCategories, string(hash)); err != nil {
		log.Fatalf("Failed to seed shop config: %v", err)
	}
	log.Println("Seeded shop config")

	if !*skipMenu {
		existing, err := queries.ListProducts(ctx)
		if err != nil {
			log.Fatalf("Failed to check existing menu: %v", err)
		}
		if len(existing) > 0 {
			log.Printf("Menu already has %d items, skipping starter menu", len(existing))
		} else {
			for _, p := range seedProducts {
				_, err := queries.CreateProduct(ctx, database.CreateProductParams{
					Name:     p.name,
					Price:    decimal.RequireFromString(p.price),
					Category: p.category,
				})
				if err != nil {
					log.Fatalf("Failed to seed product %q: %v", p.name, err)
				}
			}
			log.Printf("Seeded %d menu items", len(seedProducts))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		log.Fatalf("Failed to commit: %v", err)
	}
	log.Println("Seed complete")
}
