package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
	"marcel.works/pointing/app/model"
)

func TestRethinkEnsureSchemaCreatesMissing(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.DBList()).Return([]interface{}{"rethinkdb"}, nil)
	mock.On(r.DBCreate(db)).Return(r.WriteResponse{DBsCreated: 1}, nil)
	mock.On(r.DB(db).TableList()).Return([]interface{}{"other"}, nil)
	mock.On(r.DB(db).TableCreate(tableVotedTasks)).Return(r.WriteResponse{TablesCreated: 1}, nil)
	mock.On(r.DB(db).Table(tableVotedTasks).IndexCreate(fieldSession)).Return(r.WriteResponse{}, nil)
	store := RethinkService{Session: mock}

	require.NoError(t, store.EnsureSchema())

	mock.AssertExpectations(t)
}

func TestRethinkEnsureSchemaKeepsExisting(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.DBList()).Return([]interface{}{"rethinkdb", db}, nil)
	mock.On(r.DB(db).TableList()).Return([]interface{}{tableVotedTasks}, nil)
	create := mock.On(r.DBCreate(db)).Return(r.WriteResponse{}, nil)
	store := RethinkService{Session: mock}

	require.NoError(t, store.EnsureSchema())

	mock.AssertNotExecuted(t, create)
}

func TestRethinkEnsureSchemaReportsFailure(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.DBList()).Return([]interface{}{"rethinkdb"}, nil)
	mock.On(r.DBCreate(db)).Return(nil, errors.New("permission denied"))
	store := RethinkService{Session: mock}

	err := store.EnsureSchema()

	assert.ErrorContains(t, err, "create db")
}

func TestRethinkAppendVotedTask(t *testing.T) {
	mock := r.NewMock()
	insert := mock.On(r.DB(db).Table(tableVotedTasks).Insert(votedTaskDocument{
		Session: "SESSION1",
		TaskId:  "task-1",
		Title:   "Login form",
		Score:   5,
		VotedAt: 1760866200000,
	})).Return(r.WriteResponse{Inserted: 1}, nil)
	store := RethinkService{Session: mock}

	err := store.AppendVotedTask(context.Background(), "SESSION1", model.VotedTask{
		ID:      "task-1",
		Title:   "Login form",
		Score:   5,
		VotedAt: 1760866200000,
	})

	require.NoError(t, err)
	mock.AssertExecuted(t, insert)
}

func TestRethinkAppendVotedTaskFails(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.DB(db).Table(tableVotedTasks).Insert(r.MockAnything())).Return(nil, errors.New("connection closed"))
	store := RethinkService{Session: mock}

	err := store.AppendVotedTask(context.Background(), "SESSION1", model.VotedTask{ID: "task-1"})

	assert.ErrorContains(t, err, "insert voted task SESSION1")
}

func TestRethinkVotedTasks(t *testing.T) {
	mock := r.NewMock()
	mock.On(r.DB(db).Table(tableVotedTasks).
		Filter(r.Row.Field(fieldSession).Eq("SESSION1")).
		OrderBy(fieldVotedAt)).
		Return([]interface{}{
			map[string]interface{}{"id": "a", "session": "SESSION1", "taskId": "task-1", "title": "Login form", "score": 3, "votedAt": 1000},
			map[string]interface{}{"id": "b", "session": "SESSION1", "taskId": "task-2", "title": "Logout", "score": 8, "votedAt": 2000},
		}, nil)
	store := RethinkService{Session: mock}

	tasks, err := store.VotedTasks(context.Background(), "SESSION1")

	require.NoError(t, err)
	assert.Equal(t, []model.VotedTask{
		{ID: "task-1", Title: "Login form", Score: 3, VotedAt: 1000},
		{ID: "task-2", Title: "Logout", Score: 8, VotedAt: 2000},
	}, tasks)
	mock.AssertExpectations(t)
}
