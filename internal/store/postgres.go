package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"seaplan/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	p := &Postgres{db: db}
	if err := p.ensureSchema(context.Background()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

func (p *Postgres) ensureSchema(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS plans (
    id          text PRIMARY KEY,
    created_at  timestamptz NOT NULL DEFAULT now(),
    objective   bigint NOT NULL,
    vessels     int NOT NULL,
    dropped     int NOT NULL,
    payload     jsonb NOT NULL
);
CREATE TABLE IF NOT EXISTS planner_config (
    id      int PRIMARY KEY DEFAULT 1,
    payload jsonb NOT NULL
);`)
	return err
}

func (p *Postgres) SavePlan(ctx context.Context, pl *model.Plan) (string, error) {
	if pl.ID == "" {
		pl.ID = uuid.NewString()
	}
	if pl.CreatedAt == "" {
		pl.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	payload, err := json.Marshal(pl)
	if err != nil {
		return "", err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO plans (id, created_at, objective, vessels, dropped, payload) VALUES ($1,$2,$3,$4,$5,$6)`,
		pl.ID, pl.CreatedAt, pl.Objective, len(pl.Routes), len(pl.Dropped), payload)
	if err != nil {
		return "", err
	}
	return pl.ID, nil
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM plans WHERE id=$1`, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrNotFound
	}
	if err != nil {
		return model.Plan{}, err
	}
	var out model.Plan
	if err := json.Unmarshal(payload, &out); err != nil {
		return model.Plan{}, err
	}
	return out, nil
}

func (p *Postgres) ListPlans(ctx context.Context, cursor string, limit int) ([]model.PlanSummary, string, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var rows *sql.Rows
	var err error
	if cursor != "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, created_at, objective, vessels, dropped FROM plans WHERE id > $1 ORDER BY id LIMIT $2`, cursor, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT id, created_at, objective, vessels, dropped FROM plans ORDER BY id LIMIT $1`, limit)
	}
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := []model.PlanSummary{}
	for rows.Next() {
		var s model.PlanSummary
		var created time.Time
		if err := rows.Scan(&s.ID, &created, &s.Objective, &s.Vessels, &s.Dropped); err != nil {
			return nil, "", err
		}
		s.CreatedAt = created.UTC().Format(time.RFC3339)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, "", err
	}
	next := ""
	if len(out) == limit {
		next = out[len(out)-1].ID
	}
	return out, next, nil
}

func (p *Postgres) GetPlannerConfig(ctx context.Context) (map[string]any, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx, `SELECT payload FROM planner_config WHERE id=1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Postgres) SavePlannerConfig(ctx context.Context, cfg map[string]any) error {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO planner_config (id, payload) VALUES (1, $1) ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload`, payload)
	return err
}
