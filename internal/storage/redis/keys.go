package redis

import (
	"fmt"

	"github.com/mcoot/worduel/internal/model"
)

// Key prefix for all worduel data
const keyPrefix = "worduel"

// profileKey returns the Redis key for a Profile
func profileKey(username string) string {
	return fmt.Sprintf("%s:profile:%s", keyPrefix, username)
}

// matchKey returns the Redis key for a settled MatchRecord
func matchKey(id model.MatchID) string {
	return fmt.Sprintf("%s:match:%s", keyPrefix, id)
}

// historyIndexKey returns the Redis key for the LIST of a player's match ids, newest first
func historyIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:history:%s", keyPrefix, username)
}

// dictionaryKey returns the Redis key for one dictionary word set
func dictionaryKey(list model.WordList) string {
	return fmt.Sprintf("%s:dictionary:%s", keyPrefix, list)
}
