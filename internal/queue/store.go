package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"smartpress/internal/config"
)

// Store manages queue persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewItemParams describes one ingested file.
type NewItemParams struct {
	SourcePath  string
	DisplayName string
	MediaType   string
	Mode        Mode
	Preview     string
}

// Open initializes or connects to the queue database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.DataDir, "queue.db")
	return OpenPath(dbPath)
}

// OpenPath opens the queue database at an explicit location.
func OpenPath(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	// Items left compressing by a crashed process go back to pending as
	// soon as the store is opened again.
	if _, err := store.ResetStuckCompressing(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// NewItem appends one pending item to the queue.
func (s *Store) NewItem(ctx context.Context, params NewItemParams) (*Item, error) {
	sourcePath := strings.TrimSpace(params.SourcePath)
	if sourcePath == "" {
		return nil, errors.New("source path required")
	}
	mediaType := strings.TrimSpace(params.MediaType)
	if mediaType == "" {
		return nil, errors.New("media type required")
	}
	switch params.Mode {
	case ModeClient, ModeServer:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, params.Mode)
	}

	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO queue_items (
            source_path, display_name, media_type, mode, status, progress,
            preview, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?)`,
		sourcePath,
		nullableString(params.DisplayName),
		mediaType,
		string(params.Mode),
		string(StatusPending),
		nullableString(params.Preview),
		timestamp,
		timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	return s.GetByID(ctx, id)
}

// GetByID fetches a queue item by identifier. A missing item yields nil, nil.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM queue_items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// Update persists the full item state, replacing the stored row by id.
func (s *Store) Update(ctx context.Context, item *Item) error {
	if item == nil {
		return errors.New("item is nil")
	}
	item.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET source_path = ?, display_name = ?, media_type = ?, mode = ?,
             status = ?, progress = ?, preview = ?, download_link = ?,
             original_size = ?, new_size = ?, ai_result_json = ?,
             error_message = ?, updated_at = ?
         WHERE id = ?`,
		item.SourcePath,
		nullableString(item.DisplayName),
		item.MediaType,
		string(item.Mode),
		string(item.Status),
		item.Progress,
		nullableString(item.Preview),
		nullableString(item.DownloadLink),
		nullableInt64(item.OriginalSize),
		nullableInt64(item.NewSize),
		nullableString(item.AIResultJSON),
		nullableString(item.ErrorMessage),
		item.UpdatedAt.Format(time.RFC3339Nano),
		item.ID,
	)
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// SetAIResult attaches analysis metadata to an item without touching any
// other field. Enrichment owns exactly this column.
func (s *Store) SetAIResult(ctx context.Context, id int64, resultJSON string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items SET ai_result_json = ?, updated_at = ? WHERE id = ?`,
		nullableString(resultJSON),
		time.Now().UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return fmt.Errorf("set ai result: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns items filtered by status set (or all items), in insertion order.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	var (
		rows *sql.Rows
		err  error
	)

	baseQuery := `SELECT ` + itemColumns + ` FROM queue_items`
	orderClause := ` ORDER BY id`

	if len(statuses) == 0 {
		rows, err = s.db.QueryContext(ctx, baseQuery+orderClause)
	} else {
		placeholders := makePlaceholders(len(statuses))
		args := make([]any, len(statuses))
		for i, status := range statuses {
			args[i] = status
		}
		query := baseQuery + ` WHERE status IN (` + placeholders + `)` + orderClause
		rows, err = s.db.QueryContext(ctx, query, args...)
	}
	if err != nil {
		return nil, fmt.Errorf("list queue items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// LatestDoneServerItem returns the most recently finished server-mode item,
// the only valid target for AI enrichment. Missing yields nil, nil.
func (s *Store) LatestDoneServerItem(ctx context.Context) (*Item, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT `+itemColumns+` FROM queue_items
         WHERE status = ? AND mode = ?
         ORDER BY updated_at DESC, id DESC LIMIT 1`,
		StatusDone,
		string(ModeServer),
	)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest done server item: %w", err)
	}
	return item, nil
}

// ResetStuckCompressing demotes restored in-flight items back to pending.
// In-flight work cannot be resumed across a restart.
func (s *Store) ResetStuckCompressing(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items
         SET status = ?, progress = 0, download_link = NULL,
             original_size = NULL, new_size = NULL, error_message = NULL,
             updated_at = ?
         WHERE status = ?`,
		StatusPending,
		time.Now().UTC().Format(time.RFC3339Nano),
		StatusCompressing,
	)
	if err != nil {
		return 0, fmt.Errorf("reset stuck items: %w", err)
	}
	return res.RowsAffected()
}

// RetryErrored re-arms failed items to pending for a fresh attempt. With no
// ids, every errored item is re-armed.
func (s *Store) RetryErrored(ctx context.Context, ids ...int64) (int64, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)
	setClause := `SET status = ?, progress = 0, download_link = NULL,
            original_size = NULL, new_size = NULL, ai_result_json = NULL,
            error_message = NULL, updated_at = ?`

	if len(ids) == 0 {
		res, err := s.db.ExecContext(
			ctx,
			`UPDATE queue_items `+setClause+` WHERE status = ?`,
			StatusPending, timestamp, StatusError,
		)
		if err != nil {
			return 0, fmt.Errorf("retry errored items: %w", err)
		}
		return res.RowsAffected()
	}

	placeholders := makePlaceholders(len(ids))
	args := make([]any, 0, len(ids)+3)
	args = append(args, StatusPending, timestamp, StatusError)
	for _, id := range ids {
		args = append(args, id)
	}
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE queue_items `+setClause+` WHERE status = ? AND id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("retry selected items: %w", err)
	}
	return res.RowsAffected()
}

// Remove deletes an item by identifier.
func (s *Store) Remove(ctx context.Context, id int64) (bool, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return affected > 0, nil
}

// Clear removes all items from the queue.
func (s *Store) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items`)
	if err != nil {
		return 0, fmt.Errorf("clear queue: %w", err)
	}
	return res.RowsAffected()
}

// ClearDone removes only finished items from the queue.
func (s *Store) ClearDone(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusDone)
	if err != nil {
		return 0, fmt.Errorf("clear done: %w", err)
	}
	return res.RowsAffected()
}

// ClearErrored removes only failed items from the queue.
func (s *Store) ClearErrored(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM queue_items WHERE status = ?`, StatusError)
	if err != nil {
		return 0, fmt.Errorf("clear errored: %w", err)
	}
	return res.RowsAffected()
}

// GetStats returns a count of items grouped by status.
func (s *Store) GetStats(ctx context.Context) (Stats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(1) FROM queue_items GROUP BY status`)
	if err != nil {
		return Stats{}, fmt.Errorf("queue stats: %w", err)
	}
	defer rows.Close()

	stats := Stats{}
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return Stats{}, err
		}
		stats.Total += count
		switch status {
		case StatusPending:
			stats.Pending += count
		case StatusCompressing:
			stats.Compressing += count
		case StatusDone:
			stats.Done += count
		case StatusError:
			stats.Errored += count
		}
	}
	return stats, rows.Err()
}

const itemColumns = "id, source_path, display_name, media_type, mode, status, progress, preview, download_link, original_size, new_size, ai_result_json, error_message, created_at, updated_at"

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id           int64
		sourcePath   string
		displayName  sql.NullString
		mediaType    string
		modeStr      string
		statusStr    string
		progress     int
		preview      sql.NullString
		downloadLink sql.NullString
		originalSize sql.NullInt64
		newSize      sql.NullInt64
		aiResult     sql.NullString
		errorMessage sql.NullString
		createdRaw   string
		updatedRaw   string
	)

	if err := scanner.Scan(
		&id,
		&sourcePath,
		&displayName,
		&mediaType,
		&modeStr,
		&statusStr,
		&progress,
		&preview,
		&downloadLink,
		&originalSize,
		&newSize,
		&aiResult,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:           id,
		SourcePath:   sourcePath,
		DisplayName:  displayName.String,
		MediaType:    mediaType,
		Mode:         Mode(modeStr),
		Status:       Status(statusStr),
		Progress:     progress,
		Preview:      preview.String,
		DownloadLink: downloadLink.String,
		OriginalSize: originalSize.Int64,
		NewSize:      newSize.Int64,
		AIResultJSON: aiResult.String,
		ErrorMessage: errorMessage.String,
	}

	if created, err := parseTimeString(createdRaw); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	placeholders := make([]byte, 0, count*2)
	for i := 0; i < count; i++ {
		if i > 0 {
			placeholders = append(placeholders, ',')
		}
		placeholders = append(placeholders, '?')
	}
	return string(placeholders)
}
