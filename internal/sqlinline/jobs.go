package sqlinline

const jobColumns = `id, restaurant_name, location_hint, website_override, status, progress,
       current_step, error_message, result_zip_key, logs, metadata, created_by,
       created_at, updated_at, started_at, finished_at`

const QCreateJob = `--sql 7c1f4a2e-9b3d-4f6a-8e21-0d5c7b9a1f30
insert into import_jobs (id, restaurant_name, location_hint, website_override, status, current_step, created_by, logs)
values ($1, $2, $3, $4, 'QUEUED', 'Queued', $5, '[]'::jsonb)
returning ` + jobColumns + `;
`

const QGetJob = `--sql 3e8b6c1d-2a4f-4e9b-b7c3-91f0a6d4e852
select ` + jobColumns + `
from import_jobs
where id = $1;
`

const QListJobs = `--sql 5a9d2f7b-8c1e-4d3a-a6b9-4e7c0f2d8b16
select ` + jobColumns + `
from import_jobs
where ($1::text is null or status = $1)
order by created_at desc
limit $2;
`

// QClaimJob atomically picks the oldest QUEUED job and marks it RUNNING. The
// skip-locked clause keeps a second worker process from double-claiming even
// though the design assumes only one.
const QClaimJob = `--sql 9f4e8b2a-6d1c-4a7f-9e3b-2c8d5f0a7e41
with next_job as (
    select id
    from import_jobs
    where status = 'QUEUED'
    order by created_at asc
    for update skip locked
    limit 1
)
update import_jobs
set status = 'RUNNING', started_at = now(), updated_at = now()
where id in (select id from next_job)
returning ` + jobColumns + `;
`

const QJobStatus = `--sql 1b7d9e4c-3f2a-4c8b-8a6d-5e0f1c9b2d73
select status from import_jobs where id = $1;
`

// QCheckpoint writes progress, step label, and a log line in one statement so
// the three are atomic from the caller's perspective.
const QCheckpoint = `--sql 6d3a1f8e-4b9c-4e2d-b1a7-8f5e2c0d9a64
update import_jobs
set progress = greatest(progress, $2),
    current_step = coalesce(nullif($3, ''), current_step),
    logs = case when $4 = '' then logs
                else logs || jsonb_build_array(jsonb_build_object('time', now(), 'message', $4::text)) end,
    updated_at = now()
where id = $1;
`

const QAppendLog = `--sql 2f8c5d1a-7e4b-4a9f-9c2e-6b3d0a8f5e17
update import_jobs
set logs = logs || jsonb_build_array(jsonb_build_object('time', now(), 'message', $2::text)),
    updated_at = now()
where id = $1;
`

const QSetMetadata = `--sql 8e2b7f4d-1c9a-4d6e-a3f8-0b5c2e9d7a48
update import_jobs
set metadata = metadata || $2::jsonb,
    updated_at = now()
where id = $1;
`

const QMarkCompleted = `--sql 4a6f2d9b-8e3c-4b1a-9d5f-7c0e4b2a8f59
update import_jobs
set status = 'COMPLETED', progress = 100, current_step = 'Done',
    result_zip_key = $2, finished_at = now(), updated_at = now()
where id = $1;
`

const QMarkFailed = `--sql 0c9e4b7a-2d8f-4e6c-b3a1-9f2d7c5e0b84
update import_jobs
set status = 'FAILED', error_message = $2, finished_at = now(), updated_at = now()
where id = $1;
`

const QMarkNeedsInput = `--sql e5d1a8f3-6b2c-4f9e-8d4a-1c7b0e3f9a26
update import_jobs
set status = 'NEEDS_INPUT', error_message = $2, finished_at = now(), updated_at = now()
where id = $1;
`

const QCancelJob = `--sql b3f7e2c8-4d0a-4b5e-9f1c-8a6d3e0b7f92
update import_jobs
set status = 'CANCELED', finished_at = now(), updated_at = now(),
    logs = logs || jsonb_build_array(jsonb_build_object('time', now(), 'message', 'Job canceled by admin'))
where id = $1 and status in ('QUEUED', 'RUNNING')
returning ` + jobColumns + `;
`

const QRetryJob = `--sql d7a4c9e1-5f8b-4c2d-8e6a-3b0f9d2c7e15
update import_jobs
set status = 'QUEUED', progress = 0, current_step = 'Queued (retry)',
    error_message = null, started_at = null, finished_at = null, updated_at = now(),
    logs = logs || jsonb_build_array(jsonb_build_object('time', now(), 'message', 'Job retried by admin'))
where id = $1 and status in ('FAILED', 'CANCELED', 'NEEDS_INPUT', 'COMPLETED')
returning ` + jobColumns + `;
`

// QRequeueStale returns RUNNING rows abandoned by a crashed worker to the
// queue. Run once at worker startup only; a live single worker owns at most
// one RUNNING row, so anything older than the threshold is orphaned.
const QRequeueStale = `--sql f9b2e5d7-0a4c-4e8f-b6d3-2c1a8f5e9b07
update import_jobs
set status = 'QUEUED', progress = 0, current_step = 'Queued (recovered)',
    started_at = null, updated_at = now(),
    logs = logs || jsonb_build_array(jsonb_build_object('time', now(), 'message', 'Requeued after worker restart'))
where status = 'RUNNING' and started_at < now() - $1::interval
returning id;
`
