package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tiendago/tienda-api/internal/model"
)

// ErrInsufficientStock reports that a reservation would drive a product's
// stock below zero. It is detected inside the transaction by the conditional
// UPDATE, so a concurrent reservation can never over-commit stock.
var ErrInsufficientStock = errors.New("insufficient stock")

type CartRepository interface {
	GetLine(ctx context.Context, id int64) (*model.CartLine, error)
	ListByUser(ctx context.Context, userID int64) ([]model.CartEntry, error)
	ListAll(ctx context.Context) ([]model.CartOverviewRow, error)

	// Reserve inserts the line and decrements the product's stock in one
	// transaction, filling in line.ID on success.
	Reserve(ctx context.Context, line *model.CartLine) error
	// UpdateQuantity sets a line's quantity and applies the delta to the
	// product's stock in one transaction.
	UpdateQuantity(ctx context.Context, lineID int64, quantity int) error
	// Release deletes a line and restores its quantity to the product's
	// stock in one transaction.
	Release(ctx context.Context, lineID int64) error
	// ReleaseAll clears a user's cart, restoring stock for every line, and
	// returns the product ids that changed. All-or-nothing.
	ReleaseAll(ctx context.Context, userID int64) ([]int64, error)
}

type pgCartRepo struct{ pool *pgxpool.Pool }

func NewCartRepository(pool *pgxpool.Pool) CartRepository {
	return &pgCartRepo{pool: pool}
}

func (r *pgCartRepo) GetLine(ctx context.Context, id int64) (*model.CartLine, error) {
	line := &model.CartLine{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, user_id, product_id, quantity, created_at, updated_at FROM cart_lines WHERE id = $1`, id,
	).Scan(&line.ID, &line.UserID, &line.ProductID, &line.Quantity, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get cart line: %w", err)
	}
	return line, nil
}

func (r *pgCartRepo) ListByUser(ctx context.Context, userID int64) ([]model.CartEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, p.id, p.name, p.price, c.quantity, p.price * c.quantity
		 FROM cart_lines c
		 JOIN products p ON c.product_id = p.id
		 WHERE c.user_id = $1
		 ORDER BY c.id`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("list cart lines: %w", err)
	}
	defer rows.Close()

	var entries []model.CartEntry
	for rows.Next() {
		var e model.CartEntry
		if err := rows.Scan(&e.LineID, &e.ProductID, &e.ProductName, &e.Price, &e.Quantity, &e.Subtotal); err != nil {
			return nil, fmt.Errorf("scan cart entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *pgCartRepo) ListAll(ctx context.Context) ([]model.CartOverviewRow, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT c.id, u.name, p.name, c.quantity, p.price * c.quantity
		 FROM cart_lines c
		 JOIN users u ON c.user_id = u.id
		 JOIN products p ON c.product_id = p.id
		 ORDER BY c.id`,
	)
	if err != nil {
		return nil, fmt.Errorf("list all carts: %w", err)
	}
	defer rows.Close()

	var overview []model.CartOverviewRow
	for rows.Next() {
		var row model.CartOverviewRow
		if err := rows.Scan(&row.LineID, &row.UserName, &row.ProductName, &row.Quantity, &row.Subtotal); err != nil {
			return nil, fmt.Errorf("scan cart overview: %w", err)
		}
		overview = append(overview, row)
	}
	return overview, rows.Err()
}

func (r *pgCartRepo) Reserve(ctx context.Context, line *model.CartLine) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := decrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
		return err
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO cart_lines (user_id, product_id, quantity, created_at, updated_at)
		 VALUES ($1, $2, $3, NOW(), NOW())
		 RETURNING id, created_at, updated_at`,
		line.UserID, line.ProductID, line.Quantity,
	).Scan(&line.ID, &line.CreatedAt, &line.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert cart line: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgCartRepo) UpdateQuantity(ctx context.Context, lineID int64, quantity int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var productID int64
	var current int
	err = tx.QueryRow(ctx,
		`SELECT product_id, quantity FROM cart_lines WHERE id = $1 FOR UPDATE`, lineID,
	).Scan(&productID, &current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("lock cart line: %w", err)
	}

	delta := quantity - current
	switch {
	case delta > 0:
		if err := decrementStock(ctx, tx, productID, delta); err != nil {
			return err
		}
	case delta < 0:
		if err := restoreStock(ctx, tx, productID, -delta); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx,
		`UPDATE cart_lines SET quantity = $2, updated_at = NOW() WHERE id = $1`, lineID, quantity,
	); err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgCartRepo) Release(ctx context.Context, lineID int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var productID int64
	var quantity int
	err = tx.QueryRow(ctx,
		`SELECT product_id, quantity FROM cart_lines WHERE id = $1 FOR UPDATE`, lineID,
	).Scan(&productID, &quantity)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return pgx.ErrNoRows
		}
		return fmt.Errorf("lock cart line: %w", err)
	}

	if err := restoreStock(ctx, tx, productID, quantity); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE id = $1`, lineID); err != nil {
		return fmt.Errorf("delete cart line: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *pgCartRepo) ReleaseAll(ctx context.Context, userID int64) ([]int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	rows, err := tx.Query(ctx,
		`SELECT product_id, quantity FROM cart_lines WHERE user_id = $1 FOR UPDATE`, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("lock cart lines: %w", err)
	}

	type held struct {
		productID int64
		quantity  int
	}
	var lines []held
	for rows.Next() {
		var h held
		if err := rows.Scan(&h.productID, &h.quantity); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan cart line: %w", err)
		}
		lines = append(lines, h)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read cart lines: %w", err)
	}

	var productIDs []int64
	for _, h := range lines {
		if err := restoreStock(ctx, tx, h.productID, h.quantity); err != nil {
			return nil, err
		}
		productIDs = append(productIDs, h.productID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM cart_lines WHERE user_id = $1`, userID); err != nil {
		return nil, fmt.Errorf("clear cart: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return productIDs, nil
}

func decrementStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	ct, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock - $2, updated_at = NOW() WHERE id = $1 AND stock >= $2`,
		productID, quantity,
	)
	if err != nil {
		return fmt.Errorf("decrement stock: %w", err)
	}
	if ct.RowsAffected() == 0 {
		return ErrInsufficientStock
	}
	return nil
}

func restoreStock(ctx context.Context, tx pgx.Tx, productID int64, quantity int) error {
	if _, err := tx.Exec(ctx,
		`UPDATE products SET stock = stock + $2, updated_at = NOW() WHERE id = $1`,
		productID, quantity,
	); err != nil {
		return fmt.Errorf("restore stock: %w", err)
	}
	return nil
}
