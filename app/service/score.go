package service

import (
	"math"

	"marcel.works/pointing/app/model"
)

// Score averages the numeric votes and snaps the mean to the nearest card.
// Break, unsure and missing votes are ignored; no numeric votes scores 0.
// When the mean sits exactly between two cards the smaller card wins.
func Score(users []model.User) int {
	sum, count := 0, 0
	for _, user := range users {
		if !user.HasVoted {
			continue
		}
		if n, ok := user.Vote.Numeric(); ok {
			sum += n
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return nearestOption(float64(sum) / float64(count))
}

func nearestOption(mean float64) int {
	closest := model.ScoreOptions[0]
	for _, option := range model.ScoreOptions[1:] {
		// strict comparison keeps the earlier, smaller card on ties
		if math.Abs(float64(option)-mean) < math.Abs(float64(closest)-mean) {
			closest = option
		}
	}
	return closest
}
