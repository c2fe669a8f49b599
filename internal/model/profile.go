package model

import "time"

// Starting values for newly provisioned accounts
const (
	DefaultBalance = 1000
	DefaultRating  = 1000
)

// Profile is a player's durable account record
type Profile struct {
	Username    string    `json:"username"`
	Balance     int       `json:"balance"`
	Rating      int       `json:"rating"`
	GamesPlayed int       `json:"games_played"`
	GamesWon    int       `json:"games_won"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewProfile returns a profile with default balance and rating
func NewProfile(username string, now time.Time) *Profile {
	return &Profile{
		Username:  username,
		Balance:   DefaultBalance,
		Rating:    DefaultRating,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Rank is a named skill tier derived from rating
type Rank string

const (
	RankBronze      Rank = "Bronze"
	RankSilver      Rank = "Silver"
	RankGold        Rank = "Gold"
	RankPlatinum    Rank = "Platinum"
	RankDiamond     Rank = "Diamond"
	RankMaster      Rank = "Master"
	RankGrandmaster Rank = "Grandmaster"
	RankLegend      Rank = "Legend"
)

// RankTier is the lower rating bound of a rank
type RankTier struct {
	Rank      Rank
	MinRating int
}

// RankTiers lists tiers from highest to lowest
var RankTiers = []RankTier{
	{RankLegend, 2300},
	{RankGrandmaster, 2100},
	{RankMaster, 1900},
	{RankDiamond, 1700},
	{RankPlatinum, 1500},
	{RankGold, 1300},
	{RankSilver, 1100},
	{RankBronze, 0},
}
