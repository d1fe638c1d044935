package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ovenline/ovenline/internal/storage"
)

// durableStore is the canonical session record store. Rows here are the
// audit/recovery trail; the cache tier is only ever a faster copy of them.
type durableStore struct {
	db *sql.DB
}

func newDurableStore(db *sql.DB) (*durableStore, error) {
	s := &durableStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize sessions schema: %w", err)
	}
	return s, nil
}

func (s *durableStore) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS active_sessions (
			session_id TEXT PRIMARY KEY,
			customer_phone TEXT,
			interface_type TEXT NOT NULL,
			agent_state TEXT,
			order_data TEXT,
			order_id INTEGER,
			created_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_sessions_created ON active_sessions(created_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *durableStore) insert(ctx context.Context, sess *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO active_sessions (
			session_id, customer_phone, interface_type,
			agent_state, order_data, order_id, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, nullString(sess.CustomerPhone), sess.InterfaceType,
		nullRaw(sess.AgentState), nullRaw(sess.OrderData),
		sess.OrderID, sess.CreatedAt.UnixNano(),
	)
	return err
}

func (s *durableStore) get(ctx context.Context, id string) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT session_id, customer_phone, interface_type,
		       agent_state, order_data, order_id, created_at
		FROM active_sessions WHERE session_id = ?`, id)
	return scanSession(row)
}

// update applies the non-nil fields of u to an existing row. Reports
// storage.ErrNotFound when the row does not exist.
func (s *durableStore) update(ctx context.Context, id string, u Update) error {
	var sets []string
	var args []any

	if u.CustomerPhone != nil {
		sets = append(sets, "customer_phone = ?")
		args = append(args, *u.CustomerPhone)
	}
	if u.AgentState != nil {
		sets = append(sets, "agent_state = ?")
		args = append(args, string(u.AgentState))
	}
	if u.OrderData != nil {
		sets = append(sets, "order_data = ?")
		args = append(args, string(u.OrderData))
	}
	if u.OrderID != nil {
		sets = append(sets, "order_id = ?")
		args = append(args, *u.OrderID)
	}

	if len(sets) == 0 {
		// Nothing to write; still report absence so union semantics hold
		_, err := s.get(ctx, id)
		return err
	}

	args = append(args, id)
	res, err := s.db.ExecContext(ctx,
		`UPDATE active_sessions SET `+strings.Join(sets, ", ")+` WHERE session_id = ?`,
		args...)
	if err != nil {
		return err
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// delete removes the row, reporting whether one existed.
func (s *durableStore) delete(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM active_sessions WHERE session_id = ?`, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (s *durableStore) scan(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT session_id, customer_phone, interface_type,
		       agent_state, order_data, order_id, created_at
		FROM active_sessions ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}
	return sessions, rows.Err()
}

func (s *durableStore) count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM active_sessions`).Scan(&n)
	return n, err
}

// deleteOlderThan removes rows created before cutoff, returning the count.
func (s *durableStore) deleteOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM active_sessions WHERE created_at < ?`, cutoff.UnixNano())
	if err != nil {
		return 0, err
	}
	rows, err := res.RowsAffected()
	return int(rows), err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var (
		sess       Session
		phone      sql.NullString
		agentState sql.NullString
		orderData  sql.NullString
		orderID    sql.NullInt64
		createdAt  int64
	)

	err := row.Scan(&sess.ID, &phone, &sess.InterfaceType,
		&agentState, &orderData, &orderID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if phone.Valid {
		sess.CustomerPhone = phone.String
	}
	if agentState.Valid {
		sess.AgentState = []byte(agentState.String)
	}
	if orderData.Valid {
		sess.OrderData = []byte(orderData.String)
	}
	if orderID.Valid {
		id := orderID.Int64
		sess.OrderID = &id
	}
	sess.CreatedAt = time.Unix(0, createdAt).UTC()

	return &sess, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullRaw(raw []byte) any {
	if len(raw) == 0 {
		return nil
	}
	return string(raw)
}
