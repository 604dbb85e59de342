package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/keydeck-core/internal/device"
	"github.com/nerrad567/keydeck-core/internal/render"
)

// SQLiteRepository persists device configuration in SQLite. It
// implements device.ConfigSource.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// DeviceConfig loads a device's saved configuration, including its
// image blobs. Returns device.ErrDeviceNotFound for serials that have
// never been committed.
func (r *SQLiteRepository) DeviceConfig(ctx context.Context, serial string) (*device.Config, error) {
	query := `SELECT serial, vendor_id, product_id, brightness, layout
		FROM device_configs WHERE serial = ?`

	var cfg device.Config
	var layoutJSON []byte
	err := r.db.QueryRowContext(ctx, query, serial).Scan(
		&cfg.Serial, &cfg.VendorID, &cfg.ProductID, &cfg.Brightness, &layoutJSON,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", device.ErrDeviceNotFound, serial)
		}
		return nil, fmt.Errorf("querying device config: %w", err)
	}

	if err := json.Unmarshal(layoutJSON, &cfg.Layout); err != nil {
		return nil, fmt.Errorf("decoding layout for %s: %w", serial, err)
	}

	images, err := r.loadImages(ctx, serial)
	if err != nil {
		return nil, err
	}
	cfg.Images = images
	return &cfg, nil
}

func (r *SQLiteRepository) loadImages(ctx context.Context, serial string) (map[string]*render.ImageData, error) {
	query := `SELECT name, frames FROM device_images WHERE serial = ?`

	rows, err := r.db.QueryContext(ctx, query, serial)
	if err != nil {
		return nil, fmt.Errorf("querying device images: %w", err)
	}
	defer rows.Close()

	images := make(map[string]*render.ImageData)
	for rows.Next() {
		var name string
		var framesJSON []byte
		if err := rows.Scan(&name, &framesJSON); err != nil {
			return nil, fmt.Errorf("scanning device image: %w", err)
		}
		img := &render.ImageData{Name: name}
		if err := json.Unmarshal(framesJSON, &img.Frames); err != nil {
			return nil, fmt.Errorf("decoding frames for image %q: %w", name, err)
		}
		images[name] = img
	}
	return images, rows.Err()
}

// SaveDeviceConfig upserts a device's configuration and replaces its
// image blobs, atomically.
func (r *SQLiteRepository) SaveDeviceConfig(ctx context.Context, cfg *device.Config) error {
	layoutJSON, err := json.Marshal(cfg.Layout)
	if err != nil {
		return fmt.Errorf("encoding layout for %s: %w", cfg.Serial, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO device_configs (serial, vendor_id, product_id, brightness, layout, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(serial) DO UPDATE SET
			vendor_id = excluded.vendor_id,
			product_id = excluded.product_id,
			brightness = excluded.brightness,
			layout = excluded.layout,
			updated_at = excluded.updated_at`,
		cfg.Serial, cfg.VendorID, cfg.ProductID, cfg.Brightness, layoutJSON, now, now,
	)
	if err != nil {
		return fmt.Errorf("upserting device config: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM device_images WHERE serial = ?`, cfg.Serial); err != nil {
		return fmt.Errorf("clearing device images: %w", err)
	}
	for name, img := range cfg.Images {
		framesJSON, err := json.Marshal(img.Frames)
		if err != nil {
			return fmt.Errorf("encoding frames for image %q: %w", name, err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO device_images (serial, name, frames, created_at) VALUES (?, ?, ?, ?)`,
			cfg.Serial, name, framesJSON, now,
		)
		if err != nil {
			return fmt.Errorf("inserting device image %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing device config: %w", err)
	}
	return nil
}

// Serials lists every persisted device serial.
func (r *SQLiteRepository) Serials(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT serial FROM device_configs ORDER BY serial`)
	if err != nil {
		return nil, fmt.Errorf("querying serials: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var serial string
		if err := rows.Scan(&serial); err != nil {
			return nil, fmt.Errorf("scanning serial: %w", err)
		}
		out = append(out, serial)
	}
	return out, rows.Err()
}

// Delete removes a device's configuration and images.
func (r *SQLiteRepository) Delete(ctx context.Context, serial string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM device_configs WHERE serial = ?`, serial)
	if err != nil {
		return fmt.Errorf("deleting device config: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", device.ErrDeviceNotFound, serial)
	}
	return nil
}

// compile-time interface check
var _ device.ConfigSource = (*SQLiteRepository)(nil)
