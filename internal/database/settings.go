package database

import (
	"context"
	"encoding/json"
	"fmt"
)

// GetShopConfig reads the single shop configuration row.
func (q *Queries) GetShopConfig(ctx context.Context) (ShopConfig, error) {
	var (
		cfg        ShopConfig
		categories []byte
	)
	err := q.db.QueryRow(ctx, `
		SELECT categories, admin_pin_hash, updated_at
		FROM shop_config WHERE id = 1`).
		Scan(&categories, &cfg.AdminPinHash, &cfg.UpdatedAt)
	if err != nil {
		return ShopConfig{}, err
	}
	if err := json.Unmarshal(categories, &cfg.Categories); err != nil {
		return ShopConfig{}, fmt.Errorf("decode categories: %w", err)
	}
	return cfg, nil
}

// UpdateCategories replaces the enabled category set.
func (q *Queries) UpdateCategories(ctx context.Context, categories []string) (ShopConfig, error) {
	encoded, err := json.Marshal(categories)
	if err != nil {
		return ShopConfig{}, fmt.Errorf("encode categories: %w", err)
	}
	_, err = q.db.Exec(ctx, `
		UPDATE shop_config SET categories = $1, updated_at = now() WHERE id = 1`, encoded)
	if err != nil {
		return ShopConfig{}, err
	}
	return q.GetShopConfig(ctx)
}

// UpsertShopConfig creates or refreshes the configuration row. Used
// by the seeder; the PIN hash is only overwritten when provided.
func (q *Queries) UpsertShopConfig(ctx context.Context, categories []string, adminPinHash string) error {
	encoded, err := json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("encode categories: %w", err)
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO shop_config (id, categories, admin_pin_hash)
		VALUES (1, $1, $2)
		ON CONFLICT (id) DO UPDATE SET
			categories = EXCLUDED.categories,
			admin_pin_hash = CASE WHEN EXCLUDED.admin_pin_hash <> '' THEN EXCLUDED.admin_pin_hash ELSE shop_config.admin_pin_hash END,
			updated_at = now()`,
		encoded, adminPinHash)
	return err
}
