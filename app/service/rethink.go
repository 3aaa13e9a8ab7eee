package service

import (
	"context"
	"fmt"

	r "gopkg.in/rethinkdb/rethinkdb-go.v6"
	"marcel.works/pointing/app/model"
)

var (
	db              = "pointing"
	tableVotedTasks = "voted_tasks"
	fieldSession    = "session"
	fieldVotedAt    = "votedAt"
)

type votedTaskDocument struct {
	Id      string `rethinkdb:"id,omitempty"`
	Session string `rethinkdb:"session"`
	TaskId  string `rethinkdb:"taskId"`
	Title   string `rethinkdb:"title"`
	Score   int    `rethinkdb:"score"`
	VotedAt int64  `rethinkdb:"votedAt"`
}

type RethinkService struct {
	Session r.QueryExecutor
}

func (s *RethinkService) Connect(hosts []string) error {
	session, err := r.Connect(r.ConnectOpts{
		Addresses: hosts,
	})
	if err != nil {
		return err
	}
	s.Session = session
	return nil
}

func (s *RethinkService) Close() error {
	if session, ok := s.Session.(*r.Session); ok {
		return session.Close()
	}
	return nil
}

// EnsureSchema creates the database, table and session index when missing.
func (s *RethinkService) EnsureSchema() error {
	var dbs []string
	if err := readAll(r.DBList(), s.Session, &dbs); err != nil {
		return err
	}
	if !contains(dbs, db) {
		if _, err := r.DBCreate(db).RunWrite(s.Session); err != nil {
			return fmt.Errorf("create db: %w", err)
		}
	}

	var tables []string
	if err := readAll(r.DB(db).TableList(), s.Session, &tables); err != nil {
		return err
	}
	if !contains(tables, tableVotedTasks) {
		if _, err := r.DB(db).TableCreate(tableVotedTasks).RunWrite(s.Session); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
		if _, err := r.DB(db).Table(tableVotedTasks).IndexCreate(fieldSession).RunWrite(s.Session); err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

func (s *RethinkService) AppendVotedTask(ctx context.Context, code string, task model.VotedTask) error {
	_, err := r.DB(db).Table(tableVotedTasks).
		Insert(votedTaskDocument{
			Session: code,
			TaskId:  task.ID,
			Title:   task.Title,
			Score:   task.Score,
			VotedAt: task.VotedAt,
		}).
		RunWrite(s.Session, r.RunOpts{Context: ctx})
	if err != nil {
		return fmt.Errorf("insert voted task %s: %w", code, err)
	}
	return nil
}

func (s *RethinkService) VotedTasks(ctx context.Context, code string) ([]model.VotedTask, error) {
	result, err := r.DB(db).Table(tableVotedTasks).
		Filter(r.Row.Field(fieldSession).Eq(code)).
		OrderBy(fieldVotedAt).
		Run(s.Session, r.RunOpts{Context: ctx})
	if err != nil {
		return nil, fmt.Errorf("read history %s: %w", code, err)
	}
	defer result.Close()

	var docs []votedTaskDocument
	if err := result.All(&docs); err != nil {
		return nil, fmt.Errorf("decode history %s: %w", code, err)
	}
	tasks := make([]model.VotedTask, 0, len(docs))
	for _, doc := range docs {
		tasks = append(tasks, model.VotedTask{
			ID:      doc.TaskId,
			Title:   doc.Title,
			Score:   doc.Score,
			VotedAt: doc.VotedAt,
		})
	}
	return tasks, nil
}

func readAll(term r.Term, session r.QueryExecutor, dest interface{}) error {
	result, err := term.Run(session)
	if err != nil {
		return err
	}
	defer result.Close()
	return result.All(dest)
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
