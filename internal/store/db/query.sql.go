package db

import (
	"context"
)

const upsertPollRun = `-- name: UpsertPollRun :one
insert into poll_runs (run_date, source_url, success, poll_count, updated_at)
values (?, ?, ?, ?, ?)
on conflict (run_date) do update set
    source_url = excluded.source_url,
    success = excluded.success,
    poll_count = excluded.poll_count,
    updated_at = excluded.updated_at
returning id
`

type UpsertPollRunParams struct {
	RunDate   string
	SourceUrl string
	Success   bool
	PollCount int64
	UpdatedAt int64
}

func (q *Queries) UpsertPollRun(ctx context.Context, arg UpsertPollRunParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, upsertPollRun,
		arg.RunDate,
		arg.SourceUrl,
		arg.Success,
		arg.PollCount,
		arg.UpdatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const markPollRunFailed = `-- name: MarkPollRunFailed :exec
insert into poll_runs (run_date, source_url, success, poll_count, updated_at)
values (?, ?, false, 0, ?)
on conflict (run_date) do update set
    success = false,
    updated_at = excluded.updated_at
`

type MarkPollRunFailedParams struct {
	RunDate   string
	SourceUrl string
	UpdatedAt int64
}

func (q *Queries) MarkPollRunFailed(ctx context.Context, arg MarkPollRunFailedParams) error {
	_, err := q.db.ExecContext(ctx, markPollRunFailed, arg.RunDate, arg.SourceUrl, arg.UpdatedAt)
	return err
}

const deleteRunPolls = `-- name: DeleteRunPolls :exec
delete from polls where run_id = ?
`

func (q *Queries) DeleteRunPolls(ctx context.Context, runID int64) error {
	_, err := q.db.ExecContext(ctx, deleteRunPolls, runID)
	return err
}

const createPoll = `-- name: CreatePoll :exec
insert into polls (
    run_id, poll_date, pollster, sample_size, area,
    labour, conservative, reform, libdem, green, snp, pc, others
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreatePoll(ctx context.Context, arg Poll) error {
	_, err := q.db.ExecContext(ctx, createPoll,
		arg.RunID,
		arg.PollDate,
		arg.Pollster,
		arg.SampleSize,
		arg.Area,
		arg.Values[0],
		arg.Values[1],
		arg.Values[2],
		arg.Values[3],
		arg.Values[4],
		arg.Values[5],
		arg.Values[6],
		arg.Values[7],
	)
	return err
}

const getPollRun = `-- name: GetPollRun :one
select id, run_date, source_url, success, poll_count, updated_at
from poll_runs
where run_date = ?
`

func (q *Queries) GetPollRun(ctx context.Context, runDate string) (PollRun, error) {
	row := q.db.QueryRowContext(ctx, getPollRun, runDate)
	var i PollRun
	err := row.Scan(
		&i.ID,
		&i.RunDate,
		&i.SourceUrl,
		&i.Success,
		&i.PollCount,
		&i.UpdatedAt,
	)
	return i, err
}

const getLatestSuccessfulRun = `-- name: GetLatestSuccessfulRun :one
select id, run_date, source_url, success, poll_count, updated_at
from poll_runs
where success = true
order by run_date desc
limit 1
`

func (q *Queries) GetLatestSuccessfulRun(ctx context.Context) (PollRun, error) {
	row := q.db.QueryRowContext(ctx, getLatestSuccessfulRun)
	var i PollRun
	err := row.Scan(
		&i.ID,
		&i.RunDate,
		&i.SourceUrl,
		&i.Success,
		&i.PollCount,
		&i.UpdatedAt,
	)
	return i, err
}

const getRuns = `-- name: GetRuns :many
select id, run_date, source_url, success, poll_count, updated_at
from poll_runs
order by run_date desc
limit ?
`

func (q *Queries) GetRuns(ctx context.Context, limit int64) ([]PollRun, error) {
	rows, err := q.db.QueryContext(ctx, getRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []PollRun
	for rows.Next() {
		var i PollRun
		if err := rows.Scan(
			&i.ID,
			&i.RunDate,
			&i.SourceUrl,
			&i.Success,
			&i.PollCount,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getRunPolls = `-- name: GetRunPolls :many
select id, run_id, poll_date, pollster, sample_size, area,
    labour, conservative, reform, libdem, green, snp, pc, others
from polls
where run_id = ?
order by poll_date desc, id asc
`

func (q *Queries) GetRunPolls(ctx context.Context, runID int64) ([]Poll, error) {
	rows, err := q.db.QueryContext(ctx, getRunPolls, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Poll
	for rows.Next() {
		var i Poll
		if err := rows.Scan(
			&i.ID,
			&i.RunID,
			&i.PollDate,
			&i.Pollster,
			&i.SampleSize,
			&i.Area,
			&i.Values[0],
			&i.Values[1],
			&i.Values[2],
			&i.Values[3],
			&i.Values[4],
			&i.Values[5],
			&i.Values[6],
			&i.Values[7],
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertAggregateRun = `-- name: UpsertAggregateRun :exec
insert into aggregate_runs (
    aggregate_date,
    labour, conservative, reform, libdem, green, snp, pc, others,
    lead_party, lead_value, poll_count, updated_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (aggregate_date) do update set
    labour = excluded.labour,
    conservative = excluded.conservative,
    reform = excluded.reform,
    libdem = excluded.libdem,
    green = excluded.green,
    snp = excluded.snp,
    pc = excluded.pc,
    others = excluded.others,
    lead_party = excluded.lead_party,
    lead_value = excluded.lead_value,
    poll_count = excluded.poll_count,
    updated_at = excluded.updated_at
`

func (q *Queries) UpsertAggregateRun(ctx context.Context, arg AggregateRun) error {
	_, err := q.db.ExecContext(ctx, upsertAggregateRun,
		arg.AggregateDate,
		arg.Values[0],
		arg.Values[1],
		arg.Values[2],
		arg.Values[3],
		arg.Values[4],
		arg.Values[5],
		arg.Values[6],
		arg.Values[7],
		arg.LeadParty,
		arg.LeadValue,
		arg.PollCount,
		arg.UpdatedAt,
	)
	return err
}

const getAggregateRuns = `-- name: GetAggregateRuns :many
select aggregate_date,
    labour, conservative, reform, libdem, green, snp, pc, others,
    lead_party, lead_value, poll_count, updated_at
from aggregate_runs
order by aggregate_date desc
limit ?
`

func (q *Queries) GetAggregateRuns(ctx context.Context, limit int64) ([]AggregateRun, error) {
	rows, err := q.db.QueryContext(ctx, getAggregateRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []AggregateRun
	for rows.Next() {
		var i AggregateRun
		if err := rows.Scan(
			&i.AggregateDate,
			&i.Values[0],
			&i.Values[1],
			&i.Values[2],
			&i.Values[3],
			&i.Values[4],
			&i.Values[5],
			&i.Values[6],
			&i.Values[7],
			&i.LeadParty,
			&i.LeadValue,
			&i.PollCount,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
