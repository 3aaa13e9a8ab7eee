package model

import (
	"strconv"

	"github.com/segmentio/encoding/json"
)

// VoteValue is a card value. The zero value means no vote and is encoded as null.
type VoteValue string

const (
	NoVote     VoteValue = ""
	VoteBreak  VoteValue = "☕"
	VoteUnsure VoteValue = "❓"
)

// VoteOptions lists every card a participant may play, in display order.
var VoteOptions = []VoteValue{VoteBreak, VoteUnsure, "1", "2", "3", "5", "8"}

// ScoreOptions are the numeric cards in ascending order.
var ScoreOptions = []int{1, 2, 3, 5, 8}

func (v VoteValue) Valid() bool {
	for _, option := range VoteOptions {
		if v == option {
			return true
		}
	}
	return false
}

// Numeric reports the card's number, or false for break, unsure and absent.
func (v VoteValue) Numeric() (int, bool) {
	n, err := strconv.Atoi(string(v))
	if err != nil || strconv.Itoa(n) != string(v) {
		return 0, false
	}
	for _, option := range ScoreOptions {
		if n == option {
			return n, true
		}
	}
	return 0, false
}

func (v VoteValue) MarshalJSON() ([]byte, error) {
	if v == NoVote {
		return []byte("null"), nil
	}
	return json.Marshal(string(v))
}

func (v *VoteValue) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*v = NoVote
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*v = VoteValue(s)
	return nil
}
