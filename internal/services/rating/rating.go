// Package rating implements the Elo adjustment and rank tiers.
package rating

import (
	"math"

	"github.com/mcoot/worduel/internal/model"
)

// K is the maximum rating change for a single match
const K = 32

// Delta returns the rating points the winner gains and the loser loses
func Delta(winnerRating, loserRating int) int {
	expected := 1 / (1 + math.Pow(10, float64(loserRating-winnerRating)/400))
	return int(math.Round(K * (1 - expected)))
}

// RankFor returns the tier for a rating
func RankFor(rating int) model.Rank {
	for _, tier := range model.RankTiers {
		if rating >= tier.MinRating {
			return tier.Rank
		}
	}
	return model.RankBronze
}

// View builds the client-facing view of a profile
func View(p *model.Profile) model.ProfileView {
	return model.ProfileView{
		Username:    p.Username,
		Balance:     p.Balance,
		Rating:      p.Rating,
		Rank:        RankFor(p.Rating),
		GamesPlayed: p.GamesPlayed,
		GamesWon:    p.GamesWon,
	}
}
