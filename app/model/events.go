package model

// Client to server.
const (
	CmdCreateSession = "session:create"
	CmdJoinSession   = "session:join"
	CmdRejoinSession = "session:rejoin"
	CmdVote          = "user:vote"
	CmdChangeName    = "user:change-name"
	CmdCreateTask    = "admin:create-task"
	CmdRevealVotes   = "admin:reveal-votes"
	CmdNewTask       = "admin:new-task"
	CmdPing          = "keepalive:ping"
	// CmdDisconnect is synthesized by transports when a connection goes away.
	CmdDisconnect = "disconnect"
)

// Server to client.
const (
	EventSessionState  = "session:state"
	EventSessionEnded  = "session:ended"
	EventUserJoined    = "user:joined"
	EventUserLeft      = "user:left"
	EventUserVoted     = "user:voted"
	EventNameChanged   = "user:name-changed"
	EventTaskCreated   = "task:created"
	EventVotesRevealed = "votes:revealed"
	EventError         = "error"
	EventPong          = "keepalive:pong"
	EventAck           = "ack"
)

// NameChange is the payload of EventNameChanged.
type NameChange struct {
	ID      string `json:"id"`
	NewName string `json:"newName"`
}
