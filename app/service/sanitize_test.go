package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"marcel.works/pointing/app/model"
)

func votingSession(revealed bool) *model.Session {
	return &model.Session{
		Code:    "ABCD1234",
		AdminID: "ws:admin",
		Users: []model.User{
			{ID: "ws:alice", Name: "Alice", Vote: "3", HasVoted: true},
			{ID: "ws:bob", Name: "Bob", Vote: model.VoteBreak, HasVoted: true, IsOnBreak: true},
			{ID: "ws:carol", Name: "Carol"},
		},
		CurrentTask:    &model.Task{ID: "t1", Title: "Estimate X"},
		IsVotingActive: true,
		IsRevealed:     revealed,
	}
}

func TestSanitizeHidesOtherVotes(t *testing.T) {
	session := votingSession(false)

	view := Sanitize(session, "ws:alice")

	require.Len(t, view.Users, 3)
	assert.Equal(t, model.VoteValue("3"), view.Users[0].Vote)
	assert.Equal(t, model.NoVote, view.Users[1].Vote)
	assert.True(t, view.Users[1].HasVoted)
	assert.True(t, view.Users[1].IsOnBreak)
	assert.Equal(t, model.NoVote, view.Users[2].Vote)
	assert.False(t, view.Users[2].HasVoted)
}

func TestSanitizeForAdminHidesEverything(t *testing.T) {
	view := Sanitize(votingSession(false), "ws:admin")

	for _, user := range view.Users {
		assert.Equal(t, model.NoVote, user.Vote, user.Name)
	}
	assert.True(t, view.Users[0].HasVoted)
}

func TestSanitizeDoesNotTouchSource(t *testing.T) {
	session := votingSession(false)

	_ = Sanitize(session, "ws:carol")

	assert.Equal(t, model.VoteValue("3"), session.Users[0].Vote)
	assert.Equal(t, model.VoteBreak, session.Users[1].Vote)
}

func TestSanitizeRevealedIsUnchanged(t *testing.T) {
	session := votingSession(true)

	view := Sanitize(session, "ws:carol")

	assert.Same(t, session, view)
	assert.Equal(t, model.VoteValue("3"), view.Users[0].Vote)
}
