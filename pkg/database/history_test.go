package database

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/foreman/pkg/structs"
)

var eventRowColumns = []string{
	"id", "event_type", "event_time", "title", "details", "app_id", "tag", "machine", "agent",
	"task_id", "subtask_id", "task_type", "task_order", "task_hash", "task_data",
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock, *History) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	return db, mock, &History{db: db}
}

func TestNewHistory(t *testing.T) {
	t.Run("connection failure", func(t *testing.T) {
		_, err := NewHistory(&Options{URL: "postgres://nobody@127.0.0.1:1/none?sslmode=disable&connect_timeout=1"})
		assert.Error(t, err)
	})
}

func TestToEventFilter(t *testing.T) {
	cases := []struct {
		Name       string
		Alias      string
		Given      map[string]string
		ExpectSql  string
		ExpectArgs []interface{}
	}{
		{"none", "", map[string]string{"app_id": "", "tag": ""}, "", []interface{}{}},
		{"app", "", map[string]string{"app_id": "app", "tag": ""}, " AND app_id = $2", []interface{}{"app"}},
		{"both aliased", "e", map[string]string{"tag": "t", "app_id": "app"}, " AND e.app_id = $2 AND e.tag = $3", []interface{}{"app", "t"}},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			qstr, args := toEventFilter(2, c.Alias, c.Given)
			assert.Equal(t, c.ExpectSql, qstr)
			assert.Equal(t, c.ExpectArgs, args)
		})
	}
}

func TestToEventColumns(t *testing.T) {
	cols := toEventColumns("e", structs.EventFailed)

	assert.Contains(t, cols, "e.id, 'Failed' AS event_type, e.event_time")
	assert.NotContains(t, cols, "e.event_type")
	assert.Contains(t, toEventColumns("e", ""), "e.event_type")
}

func TestHistoryUnfinishedEvents(t *testing.T) {
	db, mock, h := setupMockDB(t)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows(eventRowColumns).
		AddRow(1, "Registered", 100, "a", "", "app", "", "m", "", 1, "", "echo", 100.0, 9, "x").
		AddRow(4, "Failed", 101, "b", "", "app", "", "m", "", 2, "", "echo", 100.0, 8, "y")

	mock.ExpectQuery("SELECT .* FROM task_events e").
		WithArgs(int64(50), "app").
		WillReturnRows(rows)

	events, err := h.UnfinishedEvents(context.Background(), "app", "", 50)

	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, structs.EventRegistered, events[0].EventType)
	assert.Equal(t, int64(1), events[0].TaskID)
	assert.Equal(t, structs.EventFailed, events[1].EventType)
	assert.Equal(t, "y", events[1].TaskData)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryEventsForTask(t *testing.T) {
	db, mock, h := setupMockDB(t)
	defer func() { _ = db.Close() }()

	t.Run("events", func(t *testing.T) {
		rows := sqlmock.NewRows(eventRowColumns).
			AddRow(1, "Registered", 100, "a", "", "app", "tag", "m", "", 3, "", "echo", 100.0, 9, "x").
			AddRow(2, "Started", 101, "a", "", "app", "tag", "m", "agent", 3, "", "", 0.0, 0, "")

		mock.ExpectQuery("SELECT .* FROM task_events WHERE task_id").
			WithArgs(int64(3), "tag").
			WillReturnRows(rows)

		events, err := h.EventsForTask(context.Background(), 3, "", "tag")

		require.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, structs.EventStarted, events[1].EventType)
		assert.Equal(t, "agent", events[1].Agent)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT .* FROM task_events WHERE task_id").
			WithArgs(int64(3)).
			WillReturnError(fmt.Errorf("boom"))

		_, err := h.EventsForTask(context.Background(), 3, "", "")

		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestHistoryRegisterApplication(t *testing.T) {
	fixedTime(t, 1000)
	db, mock, h := setupMockDB(t)
	defer func() { _ = db.Close() }()

	app := &structs.Application{AppID: "app", ApplicationURL: "http://localhost"}

	mock.ExpectQuery("INSERT INTO applications").
		WithArgs("app", sqlmock.AnyArg(), int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"registration_date", "last_update_date"}).AddRow(500, 1000))

	out, err := h.RegisterApplication(context.Background(), app)

	require.NoError(t, err)
	assert.Equal(t, int64(500), out.RegistrationDate)
	assert.Equal(t, int64(1000), out.LastUpdateDate)
	assert.Equal(t, "http://localhost", out.ApplicationURL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRegisterApplicationIgnoresCase(t *testing.T) {
	fixedTime(t, 1000)
	db, mock, h := setupMockDB(t)
	defer func() { _ = db.Close() }()

	mock.ExpectQuery("INSERT INTO applications").
		WithArgs("app1", sqlmock.AnyArg(), int64(1000)).
		WillReturnRows(sqlmock.NewRows([]string{"registration_date", "last_update_date"}).AddRow(500, 1000))
	mock.ExpectQuery("SELECT app_id, app_data").
		WillReturnRows(sqlmock.NewRows([]string{"app_id", "app_data", "registration_date", "last_update_date"}).
			AddRow("app1", `{"app_id": "App1"}`, 500, 1000))

	out, err := h.RegisterApplication(context.Background(), &structs.Application{AppID: "App1"})
	require.NoError(t, err)
	assert.Equal(t, "App1", out.AppID)

	apps, err := h.Applications(context.Background())
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "App1", apps[0].AppID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryApplications(t *testing.T) {
	db, mock, h := setupMockDB(t)
	defer func() { _ = db.Close() }()

	rows := sqlmock.NewRows([]string{"app_id", "app_data", "registration_date", "last_update_date"}).
		AddRow("good", `{"application_url": "http://localhost"}`, 1, 2).
		AddRow("broken", `{not json`, 3, 4)

	mock.ExpectQuery("SELECT app_id, app_data").WillReturnRows(rows)

	apps, err := h.Applications(context.Background())

	require.NoError(t, err)
	require.Len(t, apps, 2)
	assert.Equal(t, "good", apps[0].AppID)
	assert.Equal(t, "http://localhost", apps[0].ApplicationURL)
	assert.Equal(t, "broken", apps[1].AppID)
	assert.Equal(t, "", apps[1].ApplicationURL)
	assert.Equal(t, int64(4), apps[1].LastUpdateDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
