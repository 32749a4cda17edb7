// Package migrations applies embedded goose migrations through a pgx pool.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/database"
	"github.com/sirupsen/logrus"

	"github.com/jacksonlee411/provider-portal/pkg/logging"
)

// Schema is one module's migration set. Each schema keeps its own version
// table so modules can be versioned independently.
type Schema struct {
	Name string
	FS   fs.FS
}

func (s Schema) table() string {
	return "goose_" + s.Name + "_version"
}

type Applied struct {
	Schema   string
	Version  int64
	Source   string
	Duration time.Duration
}

type Status struct {
	Schema    string
	Version   int64
	Source    string
	Applied   bool
	AppliedAt time.Time
}

type Runner struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

func NewRunner(pool *pgxpool.Pool, log *logrus.Entry) *Runner {
	if log == nil {
		log = logging.Nop()
	}
	return &Runner{pool: pool, log: log.WithField("component", "migrations")}
}

func (r *Runner) provider(db *sql.DB, s Schema) (*goose.Provider, error) {
	store, err := database.NewStore(database.DialectPostgres, s.table())
	if err != nil {
		return nil, fmt.Errorf("migrations %s: store: %w", s.Name, err)
	}
	p, err := goose.NewProvider("", db, s.FS, goose.WithStore(store))
	if err != nil {
		return nil, fmt.Errorf("migrations %s: %w", s.Name, err)
	}
	return p, nil
}

// Up applies every pending migration of each schema in order.
func (r *Runner) Up(ctx context.Context, schemas ...Schema) ([]Applied, error) {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	var applied []Applied
	for _, s := range schemas {
		p, err := r.provider(db, s)
		if err != nil {
			return applied, err
		}
		results, err := p.Up(ctx)
		for _, res := range results {
			if res == nil || res.Source == nil {
				continue
			}
			applied = append(applied, Applied{
				Schema:   s.Name,
				Version:  res.Source.Version,
				Source:   res.Source.Path,
				Duration: res.Duration,
			})
			r.log.WithFields(logrus.Fields{
				"schema":   s.Name,
				"version":  res.Source.Version,
				"duration": res.Duration,
			}).Info("migration applied")
		}
		if err != nil {
			return applied, fmt.Errorf("migrations %s: up: %w", s.Name, err)
		}
	}
	return applied, nil
}

// Status lists every known migration and whether it has been applied.
func (r *Runner) Status(ctx context.Context, schemas ...Schema) ([]Status, error) {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	var out []Status
	for _, s := range schemas {
		p, err := r.provider(db, s)
		if err != nil {
			return nil, err
		}
		statuses, err := p.Status(ctx)
		if err != nil {
			return nil, fmt.Errorf("migrations %s: status: %w", s.Name, err)
		}
		for _, st := range statuses {
			out = append(out, Status{
				Schema:    s.Name,
				Version:   st.Source.Version,
				Source:    st.Source.Path,
				Applied:   st.State == goose.StateApplied,
				AppliedAt: st.AppliedAt,
			})
		}
	}
	return out, nil
}
