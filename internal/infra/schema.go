package infra

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

const schemaDDL = `
create table if not exists import_jobs (
    id               uuid primary key,
    restaurant_name  text not null,
    location_hint    text,
    website_override text,
    status           text not null default 'QUEUED',
    progress         int  not null default 0,
    current_step     text not null default 'Queued',
    error_message    text,
    result_zip_key   text,
    logs             jsonb not null default '[]'::jsonb,
    metadata         jsonb not null default '{}'::jsonb,
    created_by       text not null default '',
    created_at       timestamptz not null default now(),
    updated_at       timestamptz not null default now(),
    started_at       timestamptz,
    finished_at      timestamptz
);

create index if not exists idx_import_jobs_status_created
    on import_jobs (status, created_at);
`

// EnsureSchema applies the import-job DDL. Statements are idempotent so both
// binaries can run this at startup without coordination.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
