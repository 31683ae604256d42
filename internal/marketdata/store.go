// Package marketdata implements domain.MarketDataStore on the SQLite market
// database.
package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/aristath/eventscope/internal/database"
	"github.com/aristath/eventscope/internal/domain"
	"github.com/aristath/eventscope/internal/utils"
	"github.com/rs/zerolog"
)

// table describes one long-format return table.
type table struct {
	name   string // quoted where it collides with a keyword
	entity string
}

var (
	indexTable    = table{name: `"index"`, entity: "index_name"}
	industryTable = table{name: "industry", entity: "industry_name"}
	stockTable    = table{name: "stock", entity: "stkcode"}
)

// Store reads and seeds the market tables.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

var _ domain.MarketDataStore = (*Store)(nil)

// NewStore creates a store over an open market database.
func NewStore(db *sql.DB, log zerolog.Logger) *Store {
	return &Store{
		db:  db,
		log: log.With().Str("repo", "marketdata").Logger(),
	}
}

// Indices returns every index row inside span.
func (s *Store) Indices(ctx context.Context, span domain.DateRange) (domain.Series, error) {
	return s.query(ctx, indexTable, nil, span)
}

// Index returns one index inside span.
func (s *Store) Index(ctx context.Context, name string, span domain.DateRange) (domain.Series, error) {
	return s.query(ctx, indexTable, []string{name}, span)
}

// Industries returns every industry row inside span.
func (s *Store) Industries(ctx context.Context, span domain.DateRange) (domain.Series, error) {
	return s.query(ctx, industryTable, nil, span)
}

// Industry returns one industry inside span.
func (s *Store) Industry(ctx context.Context, name string, span domain.DateRange) (domain.Series, error) {
	return s.query(ctx, industryTable, []string{name}, span)
}

// Stocks returns the given stocks inside span. No codes means no rows.
func (s *Store) Stocks(ctx context.Context, codes []string, span domain.DateRange) (domain.Series, error) {
	if len(codes) == 0 {
		return nil, nil
	}
	return s.query(ctx, stockTable, codes, span)
}

// IndustryMembers returns the stock codes of an industry, sorted.
func (s *Store) IndustryMembers(ctx context.Context, industry string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT stock FROM stock_industry WHERE industry_name = ? ORDER BY stock`, industry)
	if err != nil {
		return nil, fmt.Errorf("failed to query members of %s: %w", industry, err)
	}
	defer rows.Close()

	var codes []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("failed to scan industry member: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating industry members: %w", err)
	}
	return codes, nil
}

// IndustryOf returns the industry of a stock, or "" when it has none.
func (s *Store) IndustryOf(ctx context.Context, code string) (string, error) {
	var industry string
	err := s.db.QueryRowContext(ctx,
		`SELECT industry_name FROM stock_industry WHERE stock = ?`, code).Scan(&industry)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query industry of %s: %w", code, err)
	}
	return industry, nil
}

// HasIndustry reports whether the industry table holds any row for name, on
// any date.
func (s *Store) HasIndustry(ctx context.Context, name string) (bool, error) {
	return s.exists(ctx, industryTable, name)
}

// HasStock reports whether the stock table holds any row for code, on any
// date.
func (s *Store) HasStock(ctx context.Context, code string) (bool, error) {
	return s.exists(ctx, stockTable, code)
}

func (s *Store) exists(ctx context.Context, t table, entity string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT 1 FROM %s WHERE %s = ? LIMIT 1`, t.name, t.entity), entity).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to look up %s in %s: %w", entity, t.name, err)
	}
	return true, nil
}

// query selects rows of t for the given entities (all when nil) whose date
// falls in span. Dates may carry a time suffix, so the upper bound is the
// day after span.End, exclusive.
func (s *Store) query(ctx context.Context, t table, entities []string, span domain.DateRange) (domain.Series, error) {
	q := fmt.Sprintf(`SELECT date, %s, "return", volume FROM %s WHERE date >= ? AND date < ?`, t.entity, t.name)
	args := []interface{}{span.Start.String(), span.End.AddDays(1).String()}

	if len(entities) > 0 {
		q += fmt.Sprintf(" AND %s IN (%s)", t.entity, placeholders(len(entities)))
		for _, e := range entities {
			args = append(args, e)
		}
	}
	q += fmt.Sprintf(" ORDER BY %s, date", t.entity)

	done := utils.MeasureQuery(strings.Trim(t.name, `"`), s.log)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", t.name, err)
	}
	defer rows.Close()

	var series domain.Series
	for rows.Next() {
		var (
			rawDate string
			o       domain.Observation
		)
		if err := rows.Scan(&rawDate, &o.Entity, &o.Return, &o.Volume); err != nil {
			return nil, fmt.Errorf("failed to scan %s row: %w", t.name, err)
		}
		o.Date, err = domain.ParseDate(rawDate)
		if err != nil {
			return nil, fmt.Errorf("bad date in %s for %s: %w", t.name, o.Entity, err)
		}
		series = append(series, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating %s rows: %w", t.name, err)
	}

	done(len(series))
	return series, nil
}

// ReplaceIndex upserts index rows.
func (s *Store) ReplaceIndex(series domain.Series) error {
	return s.replace(indexTable, series)
}

// ReplaceIndustry upserts industry rows.
func (s *Store) ReplaceIndustry(series domain.Series) error {
	return s.replace(industryTable, series)
}

// ReplaceStock upserts stock rows.
func (s *Store) ReplaceStock(series domain.Series) error {
	return s.replace(stockTable, series)
}

func (s *Store) replace(t table, series domain.Series) error {
	q := fmt.Sprintf(`INSERT OR REPLACE INTO %s (date, %s, "return", volume) VALUES (?, ?, ?, ?)`, t.name, t.entity)

	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		stmt, err := tx.Prepare(q)
		if err != nil {
			return fmt.Errorf("failed to prepare insert: %w", err)
		}
		defer stmt.Close()

		for _, o := range series {
			if o.Volume < 0 {
				return fmt.Errorf("negative volume for %s on %s", o.Entity, o.Date)
			}
			if _, err := stmt.Exec(o.Date.String(), o.Entity, o.Return, o.Volume); err != nil {
				return fmt.Errorf("failed to insert %s on %s: %w", o.Entity, o.Date, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write %s rows: %w", t.name, err)
	}

	s.log.Info().Str("table", strings.Trim(t.name, `"`)).Int("rows", len(series)).Msg("Stored market rows")
	return nil
}

// ReplaceMembership upserts stock -> industry assignments.
func (s *Store) ReplaceMembership(members map[string]string) error {
	err := database.WithTransaction(s.db, func(tx *sql.Tx) error {
		for stock, industry := range members {
			if _, err := tx.Exec(
				`INSERT OR REPLACE INTO stock_industry (stock, industry_name) VALUES (?, ?)`,
				stock, industry,
			); err != nil {
				return fmt.Errorf("failed to assign %s to %s: %w", stock, industry, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to write industry membership: %w", err)
	}

	s.log.Info().Int("stocks", len(members)).Msg("Stored industry membership")
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}
