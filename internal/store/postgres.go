package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"

	"fieldnav/internal/model"
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
	return &Postgres{db: db}, nil
}

// Migrate creates the competitions table. Idempotent, run at startup.
func (p *Postgres) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS competitions (
    id           TEXT PRIMARY KEY,
    tenant_id    TEXT NOT NULL,
    days         INT NOT NULL,
    winner       TEXT NOT NULL DEFAULT '',
    winner_value DOUBLE PRECISION NOT NULL DEFAULT 0,
    payload      JSONB NOT NULL,
    created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS competitions_tenant_created_idx
    ON competitions (tenant_id, created_at);`)
	if err != nil {
		return fmt.Errorf("migrate competitions: %w", err)
	}
	return nil
}

func (p *Postgres) SaveCompetition(ctx context.Context, comp model.Competition) error {
	payload, err := json.Marshal(comp)
	if err != nil {
		return fmt.Errorf("save competition %s: marshal: %w", comp.ID, err)
	}
	winner := ""
	winnerValue := 0.0
	if len(comp.Standings) > 0 {
		winner = comp.Standings[0].Name
		winnerValue = comp.Standings[0].TotalValue
	}
	_, err = p.db.ExecContext(ctx, `
INSERT INTO competitions (id, tenant_id, days, winner, winner_value, payload)
VALUES ($1,$2,$3,$4,$5,$6)
ON CONFLICT (id) DO UPDATE SET payload = EXCLUDED.payload,
    winner = EXCLUDED.winner, winner_value = EXCLUDED.winner_value`,
		comp.ID, comp.TenantID, comp.Days, winner, winnerValue, payload)
	if err != nil {
		return fmt.Errorf("save competition %s: %w", comp.ID, err)
	}
	return nil
}

func (p *Postgres) GetCompetition(ctx context.Context, tenantID, id string) (model.Competition, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM competitions WHERE tenant_id=$1 AND id=$2`, tenantID, id).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Competition{}, ErrNotFound
	}
	if err != nil {
		return model.Competition{}, err
	}
	var comp model.Competition
	if err := json.Unmarshal(payload, &comp); err != nil {
		return model.Competition{}, fmt.Errorf("get competition %s: unmarshal: %w", id, err)
	}
	return comp, nil
}

func (p *Postgres) ListCompetitions(ctx context.Context, tenantID, cursor string, limit int) ([]model.Competition, string, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx, `
SELECT id, payload FROM competitions
WHERE tenant_id=$1 AND ($2 = '' OR id > $2)
ORDER BY id
LIMIT $3`, tenantID, cursor, limit+1)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()

	out := []model.Competition{}
	var next string
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, "", err
		}
		if len(out) == limit {
			next = out[len(out)-1].ID
			break
		}
		var comp model.Competition
		if err := json.Unmarshal(payload, &comp); err != nil {
			return nil, "", fmt.Errorf("list competitions: unmarshal %s: %w", id, err)
		}
		out = append(out, comp)
	}
	return out, next, rows.Err()
}

func (p *Postgres) ListDayResults(ctx context.Context, tenantID, id, agent string) ([]model.DayResult, error) {
	c, err := p.GetCompetition(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	return dayResults(c, agent), nil
}

func (p *Postgres) CompetitionStats(ctx context.Context, tenantID string) (map[string]any, error) {
	var count, days int
	var bestValue sql.NullFloat64
	var bestAgent sql.NullString
	err := p.db.QueryRowContext(ctx, `
SELECT count(*), coalesce(sum(days),0), max(winner_value),
    (SELECT winner FROM competitions WHERE tenant_id=$1 ORDER BY winner_value DESC LIMIT 1)
FROM competitions WHERE tenant_id=$1`, tenantID).Scan(&count, &days, &bestValue, &bestAgent)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"competitions": count,
		"days":         days,
		"bestValue":    bestValue.Float64,
		"bestAgent":    bestAgent.String,
	}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }
