package repository

import (
	"context"
	"database/sql"

	"github.com/transitbook/journey-reservation/internal/model"
	"github.com/transitbook/journey-reservation/internal/pricing"
)

// RuleRepo provides access to the discount_rules and
// cancellation_rules tables.  Rule sets are read-mostly: the booking
// lifecycle loads an immutable snapshot per operation, so updates
// here never affect prices already fixed on existing bookings.
type RuleRepo struct {
	db *sql.DB
}

// NewRuleRepo returns a RuleRepo bound to the given database.
func NewRuleRepo(db *sql.DB) *RuleRepo { return &RuleRepo{db: db} }

// DiscountTable loads the current discount rule set as a pricing
// table.  An empty rule set yields a table that never matches.
func (r *RuleRepo) DiscountTable(ctx context.Context) (*pricing.Table, error) {
	return r.loadTable(ctx, "discount_rules")
}

// CancellationTable loads the current cancellation rule set as a
// pricing table.
func (r *RuleRepo) CancellationTable(ctx context.Context) (*pricing.Table, error) {
	return r.loadTable(ctx, "cancellation_rules")
}

func (r *RuleRepo) loadTable(ctx context.Context, table string) (*pricing.Table, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT threshold_days, percent FROM `+table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []pricing.Rule
	for rows.Next() {
		var rule pricing.Rule
		if err := rows.Scan(&rule.ThresholdDays, &rule.Percent); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	// NewTable rejects duplicate thresholds, surfacing a malformed
	// rule configuration as an error rather than undefined selection.
	return pricing.NewTable(rules)
}

// ListDiscounts returns all discount rules ordered by threshold.
func (r *RuleRepo) ListDiscounts(ctx context.Context) ([]model.DiscountRule, error) {
	const q = `SELECT id, threshold_days, percent, created_at FROM discount_rules ORDER BY threshold_days`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rules := make([]model.DiscountRule, 0)
	for rows.Next() {
		var dr model.DiscountRule
		if err := rows.Scan(&dr.ID, &dr.ThresholdDays, &dr.Percent, &dr.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, dr)
	}
	return rules, rows.Err()
}

// ListCancellations returns all cancellation rules ordered by threshold.
func (r *RuleRepo) ListCancellations(ctx context.Context) ([]model.CancellationRule, error) {
	const q = `SELECT id, threshold_days, percent, created_at FROM cancellation_rules ORDER BY threshold_days`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	rules := make([]model.CancellationRule, 0)
	for rows.Next() {
		var cr model.CancellationRule
		if err := rows.Scan(&cr.ID, &cr.ThresholdDays, &cr.Percent, &cr.CreatedAt); err != nil {
			return nil, err
		}
		rules = append(rules, cr)
	}
	return rules, rows.Err()
}

// CreateDiscount inserts a discount rule.  Duplicate thresholds fail
// with ErrConflict.
func (r *RuleRepo) CreateDiscount(ctx context.Context, thresholdDays int, percent float64) (uint64, error) {
	return r.createRule(ctx, "discount_rules", thresholdDays, percent)
}

// CreateCancellation inserts a cancellation rule.  Duplicate
// thresholds fail with ErrConflict.
func (r *RuleRepo) CreateCancellation(ctx context.Context, thresholdDays int, percent float64) (uint64, error) {
	return r.createRule(ctx, "cancellation_rules", thresholdDays, percent)
}

func (r *RuleRepo) createRule(ctx context.Context, table string, thresholdDays int, percent float64) (uint64, error) {
	var n int
	if err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE threshold_days = ?`, thresholdDays).Scan(&n); err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, ErrConflict
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO `+table+` (threshold_days, percent) VALUES (?, ?)`, thresholdDays, percent)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// DeleteDiscount removes a discount rule by id.
func (r *RuleRepo) DeleteDiscount(ctx context.Context, id uint64) error {
	return r.deleteRule(ctx, "discount_rules", id)
}

// DeleteCancellation removes a cancellation rule by id.
func (r *RuleRepo) DeleteCancellation(ctx context.Context, id uint64) error {
	return r.deleteRule(ctx, "cancellation_rules", id)
}

func (r *RuleRepo) deleteRule(ctx context.Context, table string, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
