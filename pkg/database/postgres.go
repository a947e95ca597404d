package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	ie "github.com/voidshard/foreman/pkg/errors"
	"github.com/voidshard/foreman/pkg/structs"
)

const (
	// attempts made at registering a task before we give up on serialization failures
	maxRegisterAttempts = 3

	taskColumns  = "id, type, title, priority_order, tag, app_id, finalize_url, hash, payload, registered_at, locked_by, last_lock_update"
	eventInserts = "event_type, event_time, title, details, app_id, tag, machine, agent, task_id, subtask_id, task_type, task_order, task_hash, task_data"
)

// pgxPool is the subset of *pgxpool.Pool we use
type pgxPool interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	BeginTx(ctx context.Context, opts pgx.TxOptions) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// execer is implemented by both pools and transactions
type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// scanner is implemented by pgx.Row & pgx.Rows
type scanner interface {
	Scan(dest ...any) error
}

// Postgres is a Database implementation that uses postgres. Live task state
// goes through a pgx pool, the read side of the event history and applications
// through History.
type Postgres struct {
	opts    *Options
	pool    pgxPool
	history *History
}

// NewPostgres returns a new Postgres database connection.
func NewPostgres(opts *Options) (*Postgres, error) {
	opts.SetDefaults()
	pool, err := pgxpool.New(context.Background(), opts.connString())
	if err != nil {
		return nil, err
	}
	history, err := NewHistory(opts)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return &Postgres{pool: pool, opts: opts, history: history}, nil
}

// Close shuts down the database connection(s).
func (p *Postgres) Close() error {
	p.pool.Close()
	if p.history != nil {
		return p.history.Close()
	}
	return nil
}

// RegisterTask inserts or updates a task, see Database.
func (p *Postgres) RegisterTask(ctx context.Context, in *structs.Task, machine string) (*RegisterResult, error) {
	var err error
	for i := 0; i < maxRegisterAttempts; i++ {
		var result *RegisterResult
		result, err = p.registerTask(ctx, in, machine)
		if err == nil {
			return result, nil
		}
		if !isRetryable(err) {
			break
		}
	}
	return nil, fmt.Errorf("%w %v", ie.ErrRegistrationFailed, err)
}

// registerTask is a single attempt at registering a task in a serializable transaction.
// Two concurrent registrations of the same task will cause one of them to fail
// with a serialization (or unique) error, which the caller retries.
func (p *Postgres) registerTask(ctx context.Context, in *structs.Task, machine string) (*RegisterResult, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{}
	existing, err := scanTask(tx.QueryRow(
		ctx,
		fmt.Sprintf(`SELECT %s FROM tasks WHERE hash=$1 AND payload=$2 LIMIT 1;`, taskColumns),
		in.Hash, in.Payload,
	))
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		t := &structs.Task{TaskSpec: in.TaskSpec, Order: in.Order, RegisteredAt: timeNow()}
		err = tx.QueryRow(
			ctx,
			`INSERT INTO tasks (type, title, priority_order, tag, app_id, finalize_url, hash, payload, registered_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id;`,
			toTaskSqlArgs(t)...,
		).Scan(&t.ID)
		if err != nil {
			tx.Rollback(ctx)
			return nil, err
		}
		result.Task = t
		result.Created = true
	case err != nil:
		tx.Rollback(ctx)
		return nil, err
	case in.Order < existing.Order:
		_, err = tx.Exec(ctx, `UPDATE tasks SET priority_order=$1 WHERE id=$2;`, in.Order, existing.ID)
		if err != nil {
			tx.Rollback(ctx)
			return nil, err
		}
		existing.Order = in.Order
		result.Task = existing
		result.Updated = true
	default:
		result.Task = existing
	}

	if result.Created || result.Updated {
		err = insertEvent(ctx, tx, structs.NewRegisterEvent(result.Task, machine, result.Created))
		if err != nil {
			tx.Rollback(ctx)
			return nil, err
		}
	}

	err = tx.Commit(ctx)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	return result, nil
}

// ClaimNext leases the next task, see Database.
//
// The select & update happen in one statement; the inner select takes a row lock and
// skips rows locked by concurrent claims, so two agents can never be handed the same row.
func (p *Postgres) ClaimNext(ctx context.Context, machine, agent string, capabilities []string, leaseTimeout int64) (*structs.Task, error) {
	if len(capabilities) == 0 {
		return nil, nil
	}
	now := timeNow()
	in, args := toSqlIn(4, "type", capabilities)
	args = append([]interface{}{agent, now, now - leaseTimeout}, args...)

	qstr := fmt.Sprintf(`UPDATE tasks SET locked_by=$1, last_lock_update=$2
	WHERE id = (
		SELECT id FROM tasks
		WHERE (locked_by = '' OR last_lock_update < $3) AND %s
		ORDER BY priority_order ASC, registered_at ASC, id ASC
		LIMIT 1
		FOR UPDATE SKIP LOCKED
	) AND (locked_by = '' OR last_lock_update < $3)
	RETURNING %s;`, in, taskColumns)

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	t, err := scanTask(tx.QueryRow(ctx, qstr, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		tx.Rollback(ctx)
		return nil, nil
	} else if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}

	err = insertEvent(ctx, tx, structs.NewTaskEvent(structs.EventStarted, t, machine, agent))
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}

	err = tx.Commit(ctx)
	if err != nil {
		tx.Rollback(ctx)
		return nil, err
	}
	return t, nil
}

// RenewLease refreshes a task's lease, see Database.
func (p *Postgres) RenewLease(ctx context.Context, taskID int64) (bool, error) {
	info, err := p.pool.Exec(ctx, `UPDATE tasks SET last_lock_update=$1 WHERE id=$2;`, timeNow(), taskID)
	if err != nil {
		return false, err
	}
	return info.RowsAffected() > 0, nil
}

// CountExpiredLeases counts claimable tasks, see Database.
func (p *Postgres) CountExpiredLeases(ctx context.Context, leaseTimeout int64) (int64, error) {
	var count int64
	err := p.pool.QueryRow(
		ctx,
		`SELECT COUNT(1) FROM tasks WHERE locked_by = '' OR last_lock_update < $1;`,
		timeNow()-leaseTimeout,
	).Scan(&count)
	return count, err
}

// Finalize removes a finished task, see Database.
func (p *Postgres) Finalize(ctx context.Context, result *structs.TaskResult) (bool, error) {
	if result == nil || result.Task == nil {
		return false, fmt.Errorf("%w result has no task", ie.ErrInvalidArg)
	}

	info, err := p.pool.Exec(ctx, `DELETE FROM tasks WHERE id=$1;`, result.Task.ID)
	if err != nil {
		return false, err
	}

	err = insertEvent(ctx, p.pool, finishEvent(result))
	return info.RowsAffected() > 0, err
}

// InsertEvent appends an event to the history
func (p *Postgres) InsertEvent(ctx context.Context, e *structs.TaskEvent) error {
	return insertEvent(ctx, p.pool, e)
}

// UnfinishedEvents see History.UnfinishedEvents
func (p *Postgres) UnfinishedEvents(ctx context.Context, appID, tag string, since int64) ([]*structs.TaskEvent, error) {
	return p.history.UnfinishedEvents(ctx, appID, tag, since)
}

// EventsForTask see History.EventsForTask
func (p *Postgres) EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error) {
	return p.history.EventsForTask(ctx, taskID, appID, tag)
}

// RegisterApplication see History.RegisterApplication
func (p *Postgres) RegisterApplication(ctx context.Context, app *structs.Application) (*structs.Application, error) {
	return p.history.RegisterApplication(ctx, app)
}

// Applications see History.Applications
func (p *Postgres) Applications(ctx context.Context) ([]*structs.Application, error) {
	return p.history.Applications(ctx)
}

// insertEvent writes an event with the given pool or transaction
func insertEvent(ctx context.Context, db execer, e *structs.TaskEvent) error {
	if e.EventTime == 0 {
		e.EventTime = timeNow()
	}
	_, err := db.Exec(
		ctx,
		fmt.Sprintf(`INSERT INTO task_events (%s) VALUES (%s);`, eventInserts, toPlaceholders(1, 14)),
		toEventSqlArgs(e)...,
	)
	return err
}

// finishEvent returns the Done / Failed event for a task result
func finishEvent(result *structs.TaskResult) *structs.TaskEvent {
	e := structs.NewTaskEvent(result.EventType(), result.Task, result.Machine, result.Agent)
	if result.Error != nil {
		e.Details = result.Error.String()
	}
	return e
}

// isRetryable returns true for errors caused by a concurrent transaction
func isRetryable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case "40001", "40P01", "23505": // serialization_failure, deadlock_detected, unique_violation
		return true
	default:
		return false
	}
}

// scanTask reads a row of taskColumns
func scanTask(row scanner) (*structs.Task, error) {
	t := &structs.Task{}
	err := row.Scan(
		&t.ID,
		&t.Type,
		&t.Title,
		&t.Order,
		&t.Tag,
		&t.AppID,
		&t.FinalizeURL,
		&t.Hash,
		&t.Payload,
		&t.RegisteredAt,
		&t.LockedBy,
		&t.LastLockUpdate,
	)
	if err != nil {
		return nil, err
	}
	return t, nil
}

// toSqlIn converts a list of strings into a SQL IN clause
func toSqlIn(offset int, field string, args []string) (string, []interface{}) {
	if len(args) == 0 {
		return "", []interface{}{}
	}
	vals := []string{}
	ifargs := []interface{}{}
	for i, a := range args {
		vals = append(vals, fmt.Sprintf("$%d", i+offset))
		ifargs = append(ifargs, a)
	}
	return fmt.Sprintf("%s IN (%s)", field, strings.Join(vals, ", ")), ifargs
}

// toPlaceholders returns "$offset, $offset+1 .. " for count values
func toPlaceholders(offset, count int) string {
	vals := []string{}
	for i := offset; i < count+offset; i++ {
		vals = append(vals, fmt.Sprintf("$%d", i))
	}
	return strings.Join(vals, ", ")
}

// toTaskSqlArgs converts a task into args (for an insert)
func toTaskSqlArgs(t *structs.Task) []interface{} {
	return []interface{}{
		t.Type,
		t.Title,
		t.Order,
		t.Tag,
		t.AppID,
		t.FinalizeURL,
		t.Hash,
		t.Payload,
		t.RegisteredAt,
	}
}

// toEventSqlArgs converts an event into args (for an insert)
func toEventSqlArgs(e *structs.TaskEvent) []interface{} {
	return []interface{}{
		string(e.EventType),
		e.EventTime,
		e.Title,
		e.Details,
		e.AppID,
		e.Tag,
		e.Machine,
		e.Agent,
		e.TaskID,
		e.SubtaskID,
		e.TaskType,
		e.TaskOrder,
		e.TaskHash,
		e.TaskData,
	}
}
