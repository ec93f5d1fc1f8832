package store

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/serroba/shortlink/internal/apperr"
	"github.com/serroba/shortlink/internal/auth"
	"github.com/serroba/shortlink/internal/shortener"
)

const uniqueViolation = "23505"

const mappingColumns = `id, long_url, short_code, created_at, expires_at, clicks, owner_id`

// PostgresStore is a PostgreSQL implementation of shortener.Repository and
// auth.UserRepository.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL-backed store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (p *PostgresStore) NextID(ctx context.Context) (int64, error) {
	var id int64

	if err := p.pool.QueryRow(ctx, `SELECT nextval('mappings_id_seq')`).Scan(&id); err != nil {
		return 0, classify("store.NextID", err)
	}

	return id, nil
}

func (p *PostgresStore) Create(ctx context.Context, m *shortener.Mapping) error {
	query := `
		INSERT INTO mappings (` + mappingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := p.pool.Exec(ctx, query,
		m.ID,
		m.LongURL,
		string(m.ShortCode),
		m.CreatedAt,
		m.ExpiresAt,
		m.Clicks,
		m.OwnerID,
	)
	if isUniqueViolation(err) {
		return shortener.ErrConflict
	}

	return classify("store.Create", err)
}

func (p *PostgresStore) GetByID(ctx context.Context, id int64) (*shortener.Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM mappings WHERE id = $1`

	return p.getOne(ctx, "store.GetByID", query, id)
}

func (p *PostgresStore) GetByLongURL(ctx context.Context, longURL string) (*shortener.Mapping, error) {
	query := `SELECT ` + mappingColumns + ` FROM mappings WHERE long_url = $1`

	return p.getOne(ctx, "store.GetByLongURL", query, longURL)
}

func (p *PostgresStore) getOne(ctx context.Context, op, query string, arg any) (*shortener.Mapping, error) {
	m, err := scanMapping(p.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shortener.ErrNotFound
		}

		return nil, classify(op, err)
	}

	return m, nil
}

func (p *PostgresStore) UpdateExpiration(ctx context.Context, id int64, expiresAt time.Time, ownerID string) error {
	tag, err := p.pool.Exec(ctx,
		`UPDATE mappings SET expires_at = $2, owner_id = $3 WHERE id = $1`,
		id, expiresAt, ownerID,
	)
	if err != nil {
		return classify("store.UpdateExpiration", err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

// IncrementClicks bumps the counter in a single statement so concurrent
// resolutions never lose an update.
func (p *PostgresStore) IncrementClicks(ctx context.Context, id int64) (int64, error) {
	var clicks int64

	err := p.pool.QueryRow(ctx,
		`UPDATE mappings SET clicks = clicks + 1 WHERE id = $1 RETURNING clicks`,
		id,
	).Scan(&clicks)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, shortener.ErrNotFound
		}

		return 0, classify("store.IncrementClicks", err)
	}

	return clicks, nil
}

func (p *PostgresStore) Delete(ctx context.Context, id int64) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM mappings WHERE id = $1`, id)
	if err != nil {
		return classify("store.Delete", err)
	}

	if tag.RowsAffected() == 0 {
		return shortener.ErrNotFound
	}

	return nil
}

func (p *PostgresStore) List(ctx context.Context) ([]*shortener.Mapping, error) {
	rows, err := p.pool.Query(ctx, `SELECT `+mappingColumns+` FROM mappings ORDER BY id`)
	if err != nil {
		return nil, classify("store.List", err)
	}
	defer rows.Close()

	var out []*shortener.Mapping

	for rows.Next() {
		m, err := scanMapping(rows)
		if err != nil {
			return nil, classify("store.List", err)
		}

		out = append(out, m)
	}

	if err = rows.Err(); err != nil {
		return nil, classify("store.List", err)
	}

	return out, nil
}

func (p *PostgresStore) CreateUser(ctx context.Context, user *auth.User) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO users (id, username, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, user.Username, user.PasswordHash, user.CreatedAt,
	)
	if isUniqueViolation(err) {
		return auth.ErrUsernameTaken
	}

	return classify("store.CreateUser", err)
}

func (p *PostgresStore) GetUserByUsername(ctx context.Context, username string) (*auth.User, error) {
	var user auth.User

	err := p.pool.QueryRow(ctx,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = $1`,
		username,
	).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrUserNotFound
		}

		return nil, classify("store.GetUserByUsername", err)
	}

	return &user, nil
}

// Ping checks database connectivity.
func (p *PostgresStore) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func scanMapping(row pgx.Row) (*shortener.Mapping, error) {
	var (
		m    shortener.Mapping
		code string
	)

	err := row.Scan(
		&m.ID,
		&m.LongURL,
		&code,
		&m.CreatedAt,
		&m.ExpiresAt,
		&m.Clicks,
		&m.OwnerID,
	)
	if err != nil {
		return nil, err
	}

	m.ShortCode = shortener.Code(code)

	return &m, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError

	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// classify marks connection-level failures as unavailable so the API can
// answer 503 instead of 500.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		connErr *pgconn.ConnectError
		netErr  *net.OpError
	)

	if errors.As(err, &connErr) || errors.As(err, &netErr) || pgconn.Timeout(err) {
		return &apperr.Error{Kind: apperr.KindUnavailable, Op: op, Msg: "Database connection failed", Err: err}
	}

	return apperr.Wrap(apperr.KindInternal, op, err)
}

// Compile-time checks.
var (
	_ shortener.Repository = (*PostgresStore)(nil)
	_ auth.UserRepository  = (*PostgresStore)(nil)
)
