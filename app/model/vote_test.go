package model

import (
	"testing"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoteValueValid(t *testing.T) {
	for _, v := range VoteOptions {
		assert.True(t, v.Valid(), "%q", v)
	}
	for _, v := range []VoteValue{NoVote, "4", "13", "?", "03"} {
		assert.False(t, v.Valid(), "%q", v)
	}
}

func TestVoteValueNumeric(t *testing.T) {
	n, ok := VoteValue("5").Numeric()
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	for _, v := range []VoteValue{VoteBreak, VoteUnsure, NoVote, "4", "+3", "03"} {
		_, ok := v.Numeric()
		assert.False(t, ok, "%q", v)
	}
}

func TestUserVoteEncodesAbsentAsNull(t *testing.T) {
	payload, err := json.Marshal(User{ID: "a", Name: "Alice"})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"vote":null`)

	payload, err = json.Marshal(User{ID: "a", Vote: VoteBreak})
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"vote":"☕"`)
}

func TestCommandDecodesVote(t *testing.T) {
	var cmd Command
	require.NoError(t, json.Unmarshal([]byte(`{"cmd":"user:vote","vote":"8","ack":2}`), &cmd))
	assert.Equal(t, CmdVote, cmd.Cmd)
	assert.Equal(t, VoteValue("8"), cmd.Vote)
	assert.Equal(t, uint64(2), cmd.Ack)

	cmd = Command{}
	require.NoError(t, json.Unmarshal([]byte(`{"cmd":"user:vote","vote":null}`), &cmd))
	assert.Equal(t, NoVote, cmd.Vote)
}
