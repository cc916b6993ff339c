// Package postgres serves the scholarship catalog from PostgreSQL.
package postgres

import (
	"context"
	_ "embed"
	"fmt"
	"strings"

	"github.com/aretw0/becas/internal/textutil"
	"github.com/aretw0/becas/pkg/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

// columns maps each field to its column. Only these names reach SQL text.
var columns = map[domain.Field]string{
	domain.FieldArea:           "area",
	domain.FieldEducationLevel: "education_level",
	domain.FieldLocation:       "location",
	domain.FieldOrganization:   "organization",
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Repository implements ports.ScholarshipRepository over a pgx pool.
type Repository struct {
	db   querier
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Repository{db: pool, pool: pool}, nil
}

// Close closes the connection pool.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Migrate creates the catalog tables when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("failed to migrate catalog schema: %w", err)
	}
	return nil
}

// Upsert stores s with its requirements and deadlines, replacing any previous version.
func (r *Repository) Upsert(ctx context.Context, s domain.Scholarship) error {
	if r.pool == nil {
		return fmt.Errorf("upsert needs a connection pool")
	}
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx,
			`INSERT INTO scholarships (name, description, area, education_level, location, organization)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (name) DO UPDATE SET description = $2, area = $3, education_level = $4, location = $5, organization = $6`,
			s.Name, s.Description, s.Area, s.EducationLevel, s.Location, s.Organization,
		)
		if err != nil {
			return fmt.Errorf("failed to upsert scholarship %s: %w", s.Name, err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_requirements WHERE scholarship = $1`, s.Name); err != nil {
			return fmt.Errorf("failed to clear requirements: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM scholarship_deadlines WHERE scholarship = $1`, s.Name); err != nil {
			return fmt.Errorf("failed to clear deadlines: %w", err)
		}
		for i, req := range s.Requirements {
			_, err := tx.Exec(ctx,
				`INSERT INTO scholarship_requirements (scholarship, position, name, description) VALUES ($1, $2, $3, $4)`,
				s.Name, i, req.Name, req.Description,
			)
			if err != nil {
				return fmt.Errorf("failed to insert requirement: %w", err)
			}
		}
		for i, d := range s.Deadlines {
			_, err := tx.Exec(ctx,
				`INSERT INTO scholarship_deadlines (scholarship, position, name, date) VALUES ($1, $2, $3, $4)`,
				s.Name, i, d.Name, d.Date,
			)
			if err != nil {
				return fmt.Errorf("failed to insert deadline: %w", err)
			}
		}
		return nil
	})
}

// filterQuery builds the search statement. Unset filters are skipped;
// AnyValue matches every row and a stored AnyValue matches every filter.
func filterQuery(filters domain.Filters) (string, []any) {
	var (
		conds []string
		args  []any
	)
	for _, f := range domain.Fields {
		v := filters.Get(f)
		if v == "" || v == domain.AnyValue {
			continue
		}
		args = append(args, v)
		col := columns[f]
		conds = append(conds, fmt.Sprintf("(%s = $%d OR %s = '%s')", col, len(args), col, domain.AnyValue))
	}

	sql := `SELECT name, description, area, education_level, location, organization FROM scholarships`
	if len(conds) > 0 {
		sql += " WHERE " + strings.Join(conds, " AND ")
	}
	return sql + " ORDER BY name", args
}

func (r *Repository) FindByFilters(ctx context.Context, filters domain.Filters) ([]domain.Scholarship, error) {
	sql, args := filterQuery(filters)
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scholarships: %w", err)
	}
	defer rows.Close()

	var out []domain.Scholarship
	for rows.Next() {
		var s domain.Scholarship
		if err := rows.Scan(&s.Name, &s.Description, &s.Area, &s.EducationLevel, &s.Location, &s.Organization); err != nil {
			return nil, fmt.Errorf("failed to scan scholarship: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read scholarships: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoResults
	}
	return out, nil
}

func (r *Repository) Criteria(ctx context.Context, field domain.Field) ([]string, error) {
	col, ok := columns[field]
	if !ok {
		return nil, &domain.FieldNotFoundError{Alias: string(field)}
	}
	return r.queryStrings(ctx, "SELECT DISTINCT "+col+" FROM scholarships WHERE "+col+" <> '' ORDER BY 1")
}

func (r *Repository) Names(ctx context.Context) ([]string, error) {
	return r.queryStrings(ctx, "SELECT name FROM scholarships ORDER BY name")
}

// nameMatch compares names ignoring case and underscores.
const nameMatch = `lower(replace(scholarship, '_', ' ')) = $1`

func (r *Repository) Requirements(ctx context.Context, name string) ([]domain.Requirement, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, description FROM scholarship_requirements WHERE `+nameMatch+` ORDER BY position`,
		foldName(name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Requirement, error) {
		var req domain.Requirement
		err := row.Scan(&req.Name, &req.Description)
		return req, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read requirements: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoResults
	}
	return out, nil
}

func (r *Repository) Deadlines(ctx context.Context, name string) ([]domain.Deadline, error) {
	rows, err := r.db.Query(ctx,
		`SELECT name, date FROM scholarship_deadlines WHERE `+nameMatch+` ORDER BY position`,
		foldName(name),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query deadlines: %w", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Deadline, error) {
		var d domain.Deadline
		err := row.Scan(&d.Name, &d.Date)
		return d, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read deadlines: %w", err)
	}
	if len(out) == 0 {
		return nil, domain.ErrNoResults
	}
	return out, nil
}

func (r *Repository) queryStrings(ctx context.Context, sql string) ([]string, error) {
	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog: %w", err)
	}
	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	return out, nil
}

func foldName(name string) string {
	return textutil.Fold(strings.ReplaceAll(name, "_", " "))
}
