package model

import "time"

// Command is one inbound action from a connection. Transports fill ConnID and,
// when the client asked for an acknowledgement, Reply.
type Command struct {
	Cmd       string    `json:"cmd"`
	Ack       uint64    `json:"ack,omitempty"`
	Client    string    `json:"client,omitempty"`
	SessionId string    `json:"sessionId,omitempty"`
	Name      string    `json:"name,omitempty"`
	Vote      VoteValue `json:"vote,omitempty"`
	Title     string    `json:"title,omitempty"`

	ConnID string    `json:"-"`
	Reply  func(Ack) `json:"-"`
}

type Broadcast struct {
	Type      string      `json:"type"`
	Ack       uint64      `json:"ack,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Ack is the response payload for request/response commands.
type Ack struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Code    string `json:"code,omitempty"`
	User    *User  `json:"user,omitempty"`
}

type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Character string    `json:"character"`
	Vote      VoteValue `json:"vote"`
	HasVoted  bool      `json:"hasVoted"`
	IsOnBreak bool      `json:"isOnBreak"`
}

type Task struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// VotedTask is written once at reveal time and never changed afterwards.
type VotedTask struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Score   int    `json:"score"`
	VotedAt int64  `json:"votedAt"`
}

type Session struct {
	Code           string      `json:"code"`
	AdminID        string      `json:"adminId"`
	Users          []User      `json:"users"`
	CurrentTask    *Task       `json:"currentTask"`
	VotedTasks     []VotedTask `json:"votedTasks"`
	IsVotingActive bool        `json:"isVotingActive"`
	IsRevealed     bool        `json:"isRevealed"`
}

// SessionSummary is the read-only view served over HTTP.
type SessionSummary struct {
	Code           string      `json:"code"`
	Participants   int         `json:"participants"`
	CurrentTask    *Task       `json:"currentTask"`
	VotedTasks     []VotedTask `json:"votedTasks"`
	IsVotingActive bool        `json:"isVotingActive"`
	IsRevealed     bool        `json:"isRevealed"`
}
