package sqlinline

const QEnsureJobsTable = `--sql a936cc38-189c-4dec-9dfa-f7efe6e25ae7
create table if not exists tryon_jobs (
    id uuid primary key,
    transport text not null,
    status text not null,
    error text not null default '',
    processing_time double precision not null default 0,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QUpsertJob = `--sql b8c6faf4-8843-44d4-8030-129789a278b1
insert into tryon_jobs (id, transport, status, error, processing_time, created_at, updated_at)
values ($1::uuid, $2::text, $3::text, $4::text, $5::double precision, $6::timestamptz, now())
on conflict (id) do update set
    status = excluded.status,
    error = excluded.error,
    processing_time = excluded.processing_time,
    updated_at = now();
`

const QSelectJob = `--sql b8ce3748-13a6-456a-abcf-e513f6097259
select id::text, transport, status, error, processing_time, created_at
from tryon_jobs
where id = $1::uuid
limit 1;
`

const QSelectRecentJobs = `--sql cf35df40-e341-4488-8e40-fa560e2c347e
select id::text, transport, status, error, processing_time, created_at
from tryon_jobs
order by created_at desc
limit $1::int;
`
