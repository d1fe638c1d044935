package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ovenline/ovenline/internal/observability"
	"github.com/ovenline/ovenline/internal/storage"
)

// Manager owns all order records: it is the only writer of the orders table
// and the only component allowed to move an order through its status machine.
type Manager struct {
	db     *sql.DB
	retry  *storage.Retryer
	logger zerolog.Logger
}

// Config holds order manager configuration
type Config struct {
	DB      *sql.DB
	Retryer *storage.Retryer
	Logger  zerolog.Logger
}

// NewManager creates a new order manager and ensures the schema exists.
func NewManager(cfg Config) (*Manager, error) {
	observability.EnsureRegistered()

	if cfg.DB == nil {
		return nil, errors.New("database handle is required")
	}
	if cfg.Retryer == nil {
		cfg.Retryer = storage.NewRetryer(storage.DefaultRetryConfig())
	}

	m := &Manager{
		db:     cfg.DB,
		retry:  cfg.Retryer,
		logger: cfg.Logger,
	}

	if err := m.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize orders schema: %w", err)
	}

	m.logger.Info().Msg("Order manager initialized")
	return m, nil
}

// initSchema creates the orders table
func (m *Manager) initSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS orders (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			customer_name TEXT NOT NULL,
			phone_number TEXT NOT NULL,
			address TEXT NOT NULL,
			order_details TEXT NOT NULL,
			total_amount REAL NOT NULL,
			estimated_delivery INTEGER NOT NULL,
			payment_method TEXT NOT NULL,
			payment_status TEXT NOT NULL,
			payment_details TEXT NOT NULL DEFAULT '{}',
			order_status TEXT NOT NULL,
			interface_type TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_orders_phone ON orders(phone_number);
		CREATE INDEX IF NOT EXISTS idx_orders_status ON orders(order_status);
	`

	_, err := m.db.Exec(schema)
	return err
}

// Create persists a new order. Inputs must already be validated by the
// caller; the order starts at order_status=pending, payment_status=pending.
func (m *Manager) Create(ctx context.Context, in CreateInput) (*Order, error) {
	detailsJSON, err := json.Marshal(in.Details)
	if err != nil {
		return nil, storage.Permanent(fmt.Errorf("failed to marshal order details: %w", err))
	}

	now := time.Now().UTC()
	var id int64

	err = m.retry.Do(ctx, "order.create", func(ctx context.Context) error {
		res, err := m.db.ExecContext(ctx, `
			INSERT INTO orders (
				customer_name, phone_number, address, order_details,
				total_amount, estimated_delivery, payment_method,
				payment_status, payment_details, order_status,
				interface_type, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, '{}', ?, ?, ?, ?)`,
			in.CustomerName, in.PhoneNumber, in.Address, string(detailsJSON),
			in.TotalAmount, in.EstimatedDelivery, in.PaymentMethod,
			string(PaymentPending), string(StatusPending),
			string(in.InterfaceType), now.UnixNano(), now.UnixNano(),
		)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return nil, err
	}

	observability.RecordOrderCreated(string(in.InterfaceType))
	m.logger.Info().
		Int64("orderID", id).
		Str("customer", in.CustomerName).
		Float64("total", in.TotalAmount).
		Str("interface", string(in.InterfaceType)).
		Msg("Order created")

	return &Order{
		ID:                id,
		CustomerName:      in.CustomerName,
		PhoneNumber:       in.PhoneNumber,
		Address:           in.Address,
		Details:           in.Details,
		TotalAmount:       in.TotalAmount,
		EstimatedDelivery: in.EstimatedDelivery,
		PaymentMethod:     in.PaymentMethod,
		PaymentStatus:     PaymentPending,
		PaymentDetails:    map[string]any{},
		Status:            StatusPending,
		InterfaceType:     in.InterfaceType,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

const orderColumns = `id, customer_name, phone_number, address, order_details,
	total_amount, estimated_delivery, payment_method, payment_status,
	payment_details, order_status, interface_type, created_at, updated_at`

// Get retrieves an order by id.
func (m *Manager) Get(ctx context.Context, id int64) (*Order, error) {
	var o *Order
	err := m.retry.Do(ctx, "order.get", func(ctx context.Context) error {
		row := m.db.QueryRowContext(ctx,
			`SELECT `+orderColumns+` FROM orders WHERE id = ?`, id)
		var scanErr error
		o, scanErr = scanOrder(row)
		return scanErr
	})
	if err != nil {
		return nil, err
	}
	return o, nil
}

// UpdateStatus moves an order to next. The transition check and the write
// are a single conditional UPDATE keyed on the legal-predecessor set, so two
// racing writers cannot both apply conflicting transitions.
func (m *Manager) UpdateStatus(ctx context.Context, id int64, next Status) error {
	preds := predecessors(next)
	if !next.Valid() || len(preds) == 0 {
		current, err := m.currentStatus(ctx, id)
		if err != nil {
			return err
		}
		return &InvalidTransitionError{From: current, To: next}
	}

	placeholders := strings.Repeat("?, ", len(preds)-1) + "?"
	args := make([]any, 0, len(preds)+3)
	args = append(args, string(next), time.Now().UTC().UnixNano(), id)
	for _, p := range preds {
		args = append(args, string(p))
	}

	var rows int64
	err := m.retry.Do(ctx, "order.update_status", func(ctx context.Context) error {
		res, err := m.db.ExecContext(ctx,
			`UPDATE orders SET order_status = ?, updated_at = ?
			 WHERE id = ? AND order_status IN (`+placeholders+`)`, args...)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return err
	}

	if rows == 0 {
		current, err := m.currentStatus(ctx, id)
		if err != nil {
			return err
		}
		return &InvalidTransitionError{From: current, To: next}
	}

	observability.RecordStatusTransition(string(next))
	m.logger.Info().
		Int64("orderID", id).
		Str("status", string(next)).
		Msg("Order status updated")
	return nil
}

// currentStatus reads the stored status, mapping a missing row to ErrNotFound.
func (m *Manager) currentStatus(ctx context.Context, id int64) (Status, error) {
	var current string
	err := m.retry.Do(ctx, "order.get_status", func(ctx context.Context) error {
		err := m.db.QueryRowContext(ctx,
			`SELECT order_status FROM orders WHERE id = ?`, id).Scan(&current)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		return err
	})
	if err != nil {
		return "", err
	}
	return Status(current), nil
}

// UpdatePayment sets the payment status and merges details into the stored
// payment_details map. The merge is additive: existing keys are never
// dropped, only added to or overwritten.
func (m *Manager) UpdatePayment(ctx context.Context, id int64, status PaymentStatus, details map[string]any) error {
	err := m.retry.Do(ctx, "order.update_payment", func(ctx context.Context) error {
		tx, err := m.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer tx.Rollback()

		var existingJSON string
		err = tx.QueryRowContext(ctx,
			`SELECT payment_details FROM orders WHERE id = ?`, id).Scan(&existingJSON)
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ErrNotFound
		}
		if err != nil {
			return err
		}

		merged := map[string]any{}
		if existingJSON != "" {
			if err := json.Unmarshal([]byte(existingJSON), &merged); err != nil {
				return storage.Permanent(fmt.Errorf("corrupt payment details for order %d: %w", id, err))
			}
		}
		for k, v := range details {
			merged[k] = v
		}

		mergedJSON, err := json.Marshal(merged)
		if err != nil {
			return storage.Permanent(err)
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE orders SET payment_status = ?, payment_details = ?, updated_at = ? WHERE id = ?`,
			string(status), string(mergedJSON), time.Now().UTC().UnixNano(), id); err != nil {
			return err
		}

		return tx.Commit()
	})
	if err != nil {
		return err
	}

	m.logger.Info().
		Int64("orderID", id).
		Str("paymentStatus", string(status)).
		Msg("Order payment status updated")
	return nil
}

// ByPhone returns the customer's most recent orders, newest first.
func (m *Manager) ByPhone(ctx context.Context, phone string, limit int) ([]*Order, error) {
	if limit <= 0 {
		limit = 10
	}
	return m.queryOrders(ctx, "order.by_phone",
		`SELECT `+orderColumns+` FROM orders
		 WHERE phone_number = ? ORDER BY created_at DESC LIMIT ?`, phone, limit)
}

// Active returns paid orders that are still moving through the kitchen and
// delivery pipeline, oldest first.
func (m *Manager) Active(ctx context.Context) ([]*Order, error) {
	return m.queryOrders(ctx, "order.active",
		`SELECT `+orderColumns+` FROM orders
		 WHERE order_status IN (?, ?, ?, ?, ?) AND payment_status = ?
		 ORDER BY created_at ASC`,
		string(StatusPending), string(StatusPaymentConfirmed), string(StatusPreparing),
		string(StatusReady), string(StatusOutForDelivery), string(PaymentCompleted))
}

// ByStatus returns orders with the given status, newest first.
func (m *Manager) ByStatus(ctx context.Context, status Status) ([]*Order, error) {
	return m.queryOrders(ctx, "order.by_status",
		`SELECT `+orderColumns+` FROM orders
		 WHERE order_status = ? ORDER BY created_at DESC`, string(status))
}

func (m *Manager) queryOrders(ctx context.Context, name, query string, args ...any) ([]*Order, error) {
	var orders []*Order
	err := m.retry.Do(ctx, name, func(ctx context.Context) error {
		rows, err := m.db.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		orders = orders[:0]
		for rows.Next() {
			o, err := scanOrder(rows)
			if err != nil {
				return err
			}
			orders = append(orders, o)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("query", name).Int("count", len(orders)).Msg("Orders retrieved")
	return orders, nil
}

// rowScanner covers *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*Order, error) {
	var (
		o                    Order
		detailsJSON          string
		paymentDetailsJSON   string
		status, payStatus    string
		interfaceType        string
		createdAt, updatedAt int64
	)

	err := row.Scan(
		&o.ID, &o.CustomerName, &o.PhoneNumber, &o.Address, &detailsJSON,
		&o.TotalAmount, &o.EstimatedDelivery, &o.PaymentMethod, &payStatus,
		&paymentDetailsJSON, &status, &interfaceType, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(detailsJSON), &o.Details); err != nil {
		return nil, storage.Permanent(fmt.Errorf("corrupt order details for order %d: %w", o.ID, err))
	}
	o.PaymentDetails = map[string]any{}
	if paymentDetailsJSON != "" {
		if err := json.Unmarshal([]byte(paymentDetailsJSON), &o.PaymentDetails); err != nil {
			return nil, storage.Permanent(fmt.Errorf("corrupt payment details for order %d: %w", o.ID, err))
		}
	}

	o.Status = Status(status)
	o.PaymentStatus = PaymentStatus(payStatus)
	o.InterfaceType = InterfaceType(interfaceType)
	o.CreatedAt = time.Unix(0, createdAt).UTC()
	o.UpdatedAt = time.Unix(0, updatedAt).UTC()

	return &o, nil
}
