package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

const (
	eventColumns = "id, event_type, event_time, title, details, app_id, tag, machine, agent, task_id, subtask_id, task_type, task_order, task_hash, task_data"
)

// History provides the read side of the task event history and the application
// registry. It talks to the same database as Postgres through database/sql so
// monitoring queries never compete with claims for pool connections.
type History struct {
	db *sql.DB
}

// NewHistory opens a database/sql connection using the lib/pq driver.
func NewHistory(opts *Options) (*History, error) {
	opts.SetDefaults()
	db, err := sql.Open("postgres", opts.connString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &History{db: db}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// UnfinishedEvents returns the Registered events newer than `since` of tasks that have
// no Done / Failed event. Registrations of tasks that failed inside the window are
// returned again relabelled as Failed, so callers see tasks whose row is already gone.
func (h *History) UnfinishedEvents(ctx context.Context, appID, tag string, since int64) ([]*structs.TaskEvent, error) {
	filter, args := toEventFilter(2, "e", map[string]string{"app_id": appID, "tag": tag})
	args = append([]interface{}{since}, args...)

	qstr := fmt.Sprintf(`SELECT %s FROM task_events e
	WHERE e.event_type = 'Registered' AND e.event_time > $1%s
	AND NOT EXISTS (SELECT 1 FROM task_events f WHERE f.task_id = e.task_id AND f.event_type IN ('Done', 'Failed'))
	UNION ALL
	SELECT %s FROM task_events e
	WHERE e.event_type = 'Registered' AND e.event_time > $1%s
	AND EXISTS (SELECT 1 FROM task_events f WHERE f.task_id = e.task_id AND f.event_type = 'Failed' AND f.event_time > $1)
	ORDER BY id;`,
		toEventColumns("e", ""), filter, toEventColumns("e", structs.EventFailed), filter,
	)

	return h.queryEvents(ctx, qstr, args...)
}

// EventsForTask returns every event of a task, oldest first.
func (h *History) EventsForTask(ctx context.Context, taskID int64, appID, tag string) ([]*structs.TaskEvent, error) {
	filter, args := toEventFilter(2, "", map[string]string{"app_id": appID, "tag": tag})
	args = append([]interface{}{taskID}, args...)

	qstr := fmt.Sprintf(`SELECT %s FROM task_events WHERE task_id = $1%s ORDER BY id;`, eventColumns, filter)
	return h.queryEvents(ctx, qstr, args...)
}

// RegisterApplication inserts or updates an application. Application ids are
// case insensitive; rows are keyed by the lower case id & the latest spelling
// is kept in the app data.
func (h *History) RegisterApplication(ctx context.Context, app *structs.Application) (*structs.Application, error) {
	data, err := json.Marshal(app)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal application: %w", err)
	}

	out := *app
	err = h.db.QueryRowContext(ctx, `
		INSERT INTO applications (app_id, app_data, registration_date, last_update_date)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (app_id) DO UPDATE SET app_data = EXCLUDED.app_data, last_update_date = EXCLUDED.last_update_date
		RETURNING registration_date, last_update_date
	`, strings.ToLower(app.AppID), string(data), timeNow()).Scan(&out.RegistrationDate, &out.LastUpdateDate)
	if err != nil {
		return nil, fmt.Errorf("failed to register application: %w", err)
	}
	return &out, nil
}

// Applications returns all registered applications.
func (h *History) Applications(ctx context.Context) ([]*structs.Application, error) {
	rows, err := h.db.QueryContext(ctx, `SELECT app_id, app_data, registration_date, last_update_date FROM applications ORDER BY app_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query applications: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("failed to close rows", zap.Error(err))
		}
	}()

	apps := []*structs.Application{}
	for rows.Next() {
		var appID, data string
		var registered, updated int64
		if err := rows.Scan(&appID, &data, &registered, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, decodeApplication(appID, data, registered, updated))
	}
	return apps, rows.Err()
}

func (h *History) queryEvents(ctx context.Context, qstr string, args ...interface{}) ([]*structs.TaskEvent, error) {
	rows, err := h.db.QueryContext(ctx, qstr, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query task events: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			zap.L().Warn("failed to close rows", zap.Error(err))
		}
	}()

	events := []*structs.TaskEvent{}
	for rows.Next() {
		e := &structs.TaskEvent{}
		var et string
		err := rows.Scan(
			&e.ID,
			&et,
			&e.EventTime,
			&e.Title,
			&e.Details,
			&e.AppID,
			&e.Tag,
			&e.Machine,
			&e.Agent,
			&e.TaskID,
			&e.SubtaskID,
			&e.TaskType,
			&e.TaskOrder,
			&e.TaskHash,
			&e.TaskData,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task event: %w", err)
		}
		e.EventType = structs.EventType(et)
		events = append(events, e)
	}
	return events, rows.Err()
}

// decodeApplication builds an application from its stored row. Broken app data
// is logged and the app is returned with only its id & dates set.
func decodeApplication(appID, data string, registered, updated int64) *structs.Application {
	app := &structs.Application{}
	if data != "" {
		if err := json.Unmarshal([]byte(data), app); err != nil {
			zap.L().Warn("app data deserialization error", zap.String("app_id", appID), zap.Error(err))
			app = &structs.Application{}
		}
	}
	if app.AppID == "" {
		app.AppID = appID
	}
	app.RegistrationDate = registered
	app.LastUpdateDate = updated
	return app
}

// toEventFilter converts optional equality filters into " AND x = $n" clauses.
// Empty values are skipped; keys are sorted so args are stable.
func toEventFilter(offset int, alias string, in map[string]string) (string, []interface{}) {
	keys := []string{}
	for k, v := range in {
		if v != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	and := []string{}
	args := []interface{}{}
	for _, k := range keys {
		and = append(and, fmt.Sprintf(" AND %s%s = $%d", prefix, k, offset+len(args)))
		args = append(args, in[k])
	}
	return strings.Join(and, ""), args
}

// toEventColumns returns eventColumns prefixed with the given alias, optionally
// replacing the event type with a constant.
func toEventColumns(alias string, eventType structs.EventType) string {
	cols := strings.Split(eventColumns, ", ")
	for i, c := range cols {
		if c == "event_type" && eventType != "" {
			cols[i] = fmt.Sprintf("'%s' AS event_type", eventType)
			continue
		}
		cols[i] = alias + "." + c
	}
	return strings.Join(cols, ", ")
}
