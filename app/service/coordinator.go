package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"marcel.works/pointing/app/model"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrNameTaken          = errors.New("name already taken")
	ErrNameRequired       = errors.New("name is required")
	ErrCoordinatorStopped = errors.New("coordinator stopped")
)

// Messages shown to the user who caused a validation error.
const (
	msgSessionNotFound = "Session not found"
	msgNameTaken       = "Name already taken in this session"
	msgRenameTaken     = "Name already taken"
	msgNameRequired    = "Name is required"
	msgCreateFailed    = "Could not create session"
)

const defaultInboxSize = 256

// Recorder receives every voted task once it is final.
type Recorder interface {
	Record(code string, task model.VotedTask)
}

type CoordinatorOption func(*Coordinator)

func WithClock(now func() time.Time) CoordinatorOption {
	return func(c *Coordinator) {
		c.now = now
	}
}

func WithRecorder(recorder Recorder) CoordinatorOption {
	return func(c *Coordinator) {
		c.recorder = recorder
	}
}

func WithTaskIDs(newID func() string) CoordinatorOption {
	return func(c *Coordinator) {
		c.newID = newID
	}
}

func WithCharacterPicker(pick func(used []string) Character) CoordinatorOption {
	return func(c *Coordinator) {
		c.pick = pick
	}
}

func WithInboxSize(size int) CoordinatorOption {
	return func(c *Coordinator) {
		if size > 0 {
			c.inbox = make(chan func(), size)
		}
	}
}

// Coordinator applies commands to the registry one at a time. Run executes
// queued jobs on a single goroutine, so session state is never shared
// between two handlers and needs no locking.
type Coordinator struct {
	registry  *Registry
	transport Transport
	recorder  Recorder
	logger    *zap.Logger

	now   func() time.Time
	newID func() string
	pick  func(used []string) Character

	inbox chan func()
	done  chan struct{}
}

func NewCoordinator(registry *Registry, transport Transport, logger *zap.Logger, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		registry:  registry,
		transport: transport,
		logger:    logger,
		now:       time.Now,
		newID:     uuid.NewString,
		pick: func(used []string) Character {
			return PickCharacter(used, nil)
		},
		inbox: make(chan func(), defaultInboxSize),
		done:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run processes queued commands until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	defer close(c.done)
	c.logger.Info("waiting for commands ...")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info("coordinator stopped", zap.Int("sessions", c.registry.Len()))
			return
		case job := <-c.inbox:
			job()
		}
	}
}

// Dispatch queues a command. It drops the command once Run has returned.
func (c *Coordinator) Dispatch(command model.Command) {
	if err := c.submit(context.Background(), func() { c.Handle(command) }); err != nil {
		c.logger.Debug("dropped command", zap.String("cmd", command.Cmd), zap.String("conn", command.ConnID))
	}
}

func (c *Coordinator) submit(ctx context.Context, job func()) error {
	select {
	case <-c.done:
		return ErrCoordinatorStopped
	default:
	}
	select {
	case c.inbox <- job:
		return nil
	case <-c.done:
		return ErrCoordinatorStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Lookup summarizes a live session.
func (c *Coordinator) Lookup(ctx context.Context, code string) (model.SessionSummary, bool, error) {
	type result struct {
		summary model.SessionSummary
		ok      bool
	}
	results := make(chan result, 1)
	err := c.submit(ctx, func() {
		session, ok := c.registry.Get(code)
		if !ok {
			results <- result{}
			return
		}
		results <- result{ok: true, summary: model.SessionSummary{
			Code:           session.Code,
			Participants:   len(session.Users),
			CurrentTask:    copyTask(session.CurrentTask),
			VotedTasks:     append([]model.VotedTask{}, session.VotedTasks...),
			IsVotingActive: session.IsVotingActive,
			IsRevealed:     session.IsRevealed,
		}}
	})
	if err != nil {
		return model.SessionSummary{}, false, err
	}
	select {
	case r := <-results:
		return r.summary, r.ok, nil
	case <-c.done:
		return model.SessionSummary{}, false, ErrCoordinatorStopped
	case <-ctx.Done():
		return model.SessionSummary{}, false, ctx.Err()
	}
}

// SessionCount reports how many sessions are live.
func (c *Coordinator) SessionCount(ctx context.Context) (int, error) {
	results := make(chan int, 1)
	if err := c.submit(ctx, func() { results <- c.registry.Len() }); err != nil {
		return 0, err
	}
	select {
	case n := <-results:
		return n, nil
	case <-c.done:
		return 0, ErrCoordinatorStopped
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

// Handle applies one command synchronously. Only the Run goroutine, or a test
// that owns the coordinator exclusively, may call it.
func (c *Coordinator) Handle(command model.Command) {
	switch command.Cmd {
	case model.CmdCreateSession:
		c.createSession(command)
	case model.CmdJoinSession:
		c.joinSession(command)
	case model.CmdRejoinSession:
		c.rejoinSession(command)
	case model.CmdVote:
		c.vote(command)
	case model.CmdChangeName:
		c.changeName(command)
	case model.CmdCreateTask:
		c.createTask(command)
	case model.CmdRevealVotes:
		c.revealVotes(command)
	case model.CmdNewTask:
		c.newTask(command)
	case model.CmdPing:
		c.send(command.ConnID, model.EventPong, nil)
	case model.CmdDisconnect:
		c.disconnect(command)
	default:
		c.logger.Debug("unknown command", zap.String("cmd", command.Cmd), zap.String("conn", command.ConnID))
	}
}

func (c *Coordinator) createSession(command model.Command) {
	code, err := c.registry.Create(command.ConnID)
	if err != nil {
		c.logger.Error("could not create session", zap.Error(err))
		reply(command, model.Ack{Error: msgCreateFailed})
		return
	}
	c.leaveOther(command.ConnID, code)
	c.registry.Bind(command.ConnID, code)

	c.logger.Info("session created", zap.String("session", code), zap.String("admin", command.ConnID))
	reply(command, model.Ack{Success: true, Code: code})
}

func (c *Coordinator) joinSession(command model.Command) {
	user, err := c.join(command.ConnID, command.SessionId, command.Name)
	if err != nil {
		c.logger.Debug("join rejected", zap.String("session", command.SessionId), zap.Error(err))
		reply(command, model.Ack{Error: validationMessage(err)})
		return
	}
	session, _ := c.registry.Get(command.SessionId)

	c.broadcast(session.Code, model.EventUserJoined, user)
	c.send(command.ConnID, model.EventSessionState, Sanitize(session, command.ConnID))

	c.logger.Info("user joined", zap.String("session", session.Code), zap.String("user", user.Name))
	reply(command, model.Ack{Success: true})
}

func (c *Coordinator) join(connID, code, name string) (model.User, error) {
	session, ok := c.registry.Get(code)
	if !ok {
		return model.User{}, ErrSessionNotFound
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return model.User{}, ErrNameRequired
	}
	if indexByName(session.Users, name, "") >= 0 {
		return model.User{}, ErrNameTaken
	}

	c.leaveOther(connID, code)

	used := make([]string, 0, len(session.Users))
	for _, u := range session.Users {
		used = append(used, u.Character)
	}
	user := model.User{
		ID:        connID,
		Name:      name,
		Character: c.pick(used).Name,
	}
	session.Users = append(session.Users, user)
	c.registry.Bind(connID, code)
	return user, nil
}

func (c *Coordinator) rejoinSession(command model.Command) {
	session, ok := c.registry.Get(command.SessionId)
	if !ok {
		reply(command, model.Ack{})
		return
	}
	i := indexByName(session.Users, strings.TrimSpace(command.Name), "")
	if i < 0 {
		reply(command, model.Ack{})
		return
	}

	c.leaveOther(command.ConnID, session.Code)
	session.Users[i].ID = command.ConnID
	c.registry.Bind(command.ConnID, session.Code)
	c.broadcastState(session)

	user := session.Users[i]
	c.logger.Info("user rejoined", zap.String("session", session.Code), zap.String("user", user.Name))
	reply(command, model.Ack{Success: true, User: &user})
}

func (c *Coordinator) vote(command model.Command) {
	session, user := c.participant(command.ConnID)
	if user == nil || !session.IsVotingActive || session.IsRevealed || !command.Vote.Valid() {
		c.logger.Debug("vote ignored", zap.String("conn", command.ConnID))
		return
	}

	user.Vote = command.Vote
	user.HasVoted = true
	user.IsOnBreak = command.Vote == model.VoteBreak

	c.broadcast(session.Code, model.EventUserVoted, command.ConnID)
	c.broadcastState(session)

	c.logger.Info("user voted", zap.String("session", session.Code), zap.String("user", user.Name))
}

func (c *Coordinator) changeName(command model.Command) {
	session, user := c.participant(command.ConnID)
	if user == nil {
		return
	}
	name := strings.TrimSpace(command.Name)
	if name == "" {
		c.send(command.ConnID, model.EventError, msgNameRequired)
		return
	}
	if indexByName(session.Users, name, command.ConnID) >= 0 {
		c.send(command.ConnID, model.EventError, msgRenameTaken)
		return
	}

	oldName := user.Name
	user.Name = name

	c.broadcast(session.Code, model.EventNameChanged, model.NameChange{ID: command.ConnID, NewName: name})
	c.broadcastState(session)

	c.logger.Info("user renamed", zap.String("session", session.Code), zap.String("from", oldName), zap.String("to", name))
}

func (c *Coordinator) createTask(command model.Command) {
	session := c.adminSession(command.ConnID)
	if session == nil {
		return
	}

	task := model.Task{ID: c.newID(), Title: command.Title}
	session.CurrentTask = &task
	session.IsVotingActive = true
	session.IsRevealed = false
	resetVotes(session)

	c.broadcast(session.Code, model.EventTaskCreated, task)
	c.broadcastState(session)

	c.logger.Info("task created", zap.String("session", session.Code), zap.String("title", task.Title))
}

func (c *Coordinator) revealVotes(command model.Command) {
	session := c.adminSession(command.ConnID)
	if session == nil {
		return
	}

	// a task is scored once, on its first reveal
	if session.CurrentTask != nil && !session.IsRevealed {
		voted := model.VotedTask{
			ID:      session.CurrentTask.ID,
			Title:   session.CurrentTask.Title,
			Score:   Score(session.Users),
			VotedAt: c.now().UnixMilli(),
		}
		session.VotedTasks = append(session.VotedTasks, voted)
		if c.recorder != nil {
			c.recorder.Record(session.Code, voted)
		}
	}
	session.IsRevealed = true

	c.broadcast(session.Code, model.EventVotesRevealed, nil)
	c.broadcastState(session)

	c.logger.Info("votes revealed", zap.String("session", session.Code))
}

func (c *Coordinator) newTask(command model.Command) {
	session := c.adminSession(command.ConnID)
	if session == nil {
		return
	}

	session.CurrentTask = nil
	session.IsVotingActive = false
	session.IsRevealed = false
	resetVotes(session)

	c.broadcastState(session)

	c.logger.Info("task cleared", zap.String("session", session.Code))
}

func (c *Coordinator) disconnect(command model.Command) {
	c.leave(command.ConnID)
}

// leaveOther makes connID leave the session it is bound to, unless that
// session is code.
func (c *Coordinator) leaveOther(connID, code string) {
	if current, ok := c.registry.SessionFor(connID); ok && current != code {
		c.leave(connID)
	}
}

// leave detaches connID from its session. An admin leaving ends the session.
func (c *Coordinator) leave(connID string) {
	code, ok := c.registry.SessionFor(connID)
	if !ok {
		return
	}
	session, ok := c.registry.Get(code)
	if !ok {
		c.registry.Unbind(connID)
		return
	}

	if session.AdminID == connID {
		c.registry.Unbind(connID)
		c.broadcast(code, model.EventSessionEnded, nil)
		c.registry.Delete(code)
		c.logger.Info("admin left, session ended", zap.String("session", code))
		return
	}

	c.registry.Unbind(connID)
	i := indexByID(session.Users, connID)
	if i < 0 {
		return
	}
	name := session.Users[i].Name
	session.Users = append(session.Users[:i:i], session.Users[i+1:]...)

	c.broadcast(code, model.EventUserLeft, connID)
	c.broadcastState(session)

	c.logger.Info("user left", zap.String("session", code), zap.String("user", name))
}

// participant resolves the session and user record bound to connID.
func (c *Coordinator) participant(connID string) (*model.Session, *model.User) {
	code, ok := c.registry.SessionFor(connID)
	if !ok {
		return nil, nil
	}
	session, ok := c.registry.Get(code)
	if !ok {
		return nil, nil
	}
	i := indexByID(session.Users, connID)
	if i < 0 {
		return session, nil
	}
	return session, &session.Users[i]
}

// adminSession returns the session administered by connID, or nil.
func (c *Coordinator) adminSession(connID string) *model.Session {
	code, ok := c.registry.SessionFor(connID)
	if !ok {
		return nil
	}
	session, ok := c.registry.Get(code)
	if !ok || session.AdminID != connID {
		c.logger.Debug("admin command ignored", zap.String("conn", connID))
		return nil
	}
	return session
}

func (c *Coordinator) send(connID, typ string, data interface{}) {
	c.transport.Send(connID, model.Broadcast{
		Type:      typ,
		Data:      data,
		Timestamp: c.now(),
	})
}

func (c *Coordinator) broadcast(code, typ string, data interface{}) {
	for _, connID := range c.registry.Members(code) {
		c.send(connID, typ, data)
	}
}

// broadcastState sends every room member its own sanitized view of the
// session as it is right now.
func (c *Coordinator) broadcastState(session *model.Session) {
	for _, connID := range c.registry.Members(session.Code) {
		c.send(connID, model.EventSessionState, Sanitize(session, connID))
	}
}

func resetVotes(session *model.Session) {
	for i := range session.Users {
		if session.Users[i].IsOnBreak {
			continue
		}
		session.Users[i].Vote = model.NoVote
		session.Users[i].HasVoted = false
	}
}

func indexByName(users []model.User, name, exceptID string) int {
	for i, u := range users {
		if u.ID != exceptID && strings.EqualFold(u.Name, name) {
			return i
		}
	}
	return -1
}

func indexByID(users []model.User, id string) int {
	for i, u := range users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func validationMessage(err error) string {
	switch {
	case errors.Is(err, ErrSessionNotFound):
		return msgSessionNotFound
	case errors.Is(err, ErrNameRequired):
		return msgNameRequired
	case errors.Is(err, ErrNameTaken):
		return msgNameTaken
	}
	return err.Error()
}

func reply(command model.Command, ack model.Ack) {
	if command.Reply != nil {
		command.Reply(ack)
	}
}

func copyTask(task *model.Task) *model.Task {
	if task == nil {
		return nil
	}
	t := *task
	return &t
}
