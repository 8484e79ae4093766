package settings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"

	_ "modernc.org/sqlite"

	"smartpress/internal/config"
)

// Keys for the persisted settings table.
const (
	KeyVideoQuality = "video_quality"
	KeyImageQuality = "image_quality"
)

// Quality ranges. Video quality is an x264 CRF value where lower means
// better quality; image quality is an ffmpeg q-scale value with the same
// orientation.
const (
	VideoQualityMin     = 18
	VideoQualityMax     = 35
	VideoQualityDefault = 28

	ImageQualityMin     = 2
	ImageQualityMax     = 31
	ImageQualityDefault = 15
)

// ErrUnknownKey is returned for keys outside the fixed settings schema.
var ErrUnknownKey = errors.New("unknown setting")

// Values is the full resolved settings snapshot.
type Values struct {
	VideoQuality int
	ImageQuality int
}

// Defaults returns the settings applied before any user customization.
func Defaults() Values {
	return Values{
		VideoQuality: VideoQualityDefault,
		ImageQuality: ImageQualityDefault,
	}
}

// Store reads and writes settings rows.
type Store struct {
	db     *sql.DB
	ownsDB bool
}

// Open connects to the settings table inside the shared data directory
// database, creating the table when absent.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	return OpenPath(filepath.Join(cfg.Paths.DataDir, "queue.db"))
}

// OpenPath opens the settings store at an explicit database location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, ownsDB: true}
	if err := store.init(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying connection when this store owns it.
func (s *Store) Close() error {
	if s == nil || s.db == nil || !s.ownsDB {
		return nil
	}
	return s.db.Close()
}

func (s *Store) init(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `
        CREATE TABLE IF NOT EXISTS settings (
            key TEXT PRIMARY KEY,
            value INTEGER NOT NULL
        )`)
	if err != nil {
		return fmt.Errorf("create settings table: %w", err)
	}
	return nil
}

// Get returns the stored value for a key, clamped to its legal range.
// Missing rows yield the key's default.
func (s *Store) Get(ctx context.Context, key string) (int, error) {
	min, max, def, err := boundsFor(key)
	if err != nil {
		return 0, err
	}

	var value int
	row := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key)
	switch err := row.Scan(&value); {
	case errors.Is(err, sql.ErrNoRows):
		return def, nil
	case err != nil:
		return 0, fmt.Errorf("read setting %s: %w", key, err)
	}
	return clamp(value, min, max), nil
}

// Set stores a value for a key after clamping it to the legal range. The
// clamped value is returned so callers can surface what was persisted.
func (s *Store) Set(ctx context.Context, key string, value int) (int, error) {
	min, max, _, err := boundsFor(key)
	if err != nil {
		return 0, err
	}

	clamped := clamp(value, min, max)
	_, err = s.db.ExecContext(
		ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, clamped,
	)
	if err != nil {
		return 0, fmt.Errorf("write setting %s: %w", key, err)
	}
	return clamped, nil
}

// Load resolves the complete settings snapshot.
func (s *Store) Load(ctx context.Context) (Values, error) {
	video, err := s.Get(ctx, KeyVideoQuality)
	if err != nil {
		return Values{}, err
	}
	image, err := s.Get(ctx, KeyImageQuality)
	if err != nil {
		return Values{}, err
	}
	return Values{VideoQuality: video, ImageQuality: image}, nil
}

// Bounds reports the legal range and default for a key.
func Bounds(key string) (min, max, def int, err error) {
	return boundsFor(key)
}

// Keys lists the known setting keys in display order.
func Keys() []string {
	return []string{KeyVideoQuality, KeyImageQuality}
}

func boundsFor(key string) (min, max, def int, err error) {
	switch key {
	case KeyVideoQuality:
		return VideoQualityMin, VideoQualityMax, VideoQualityDefault, nil
	case KeyImageQuality:
		return ImageQualityMin, ImageQualityMax, ImageQualityDefault, nil
	default:
		return 0, 0, 0, fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}

func clamp(value, min, max int) int {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
