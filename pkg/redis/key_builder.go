package redis

import "fmt"

// KeyBuilder provides environment-aware Redis key building so staging
// and production can share one instance.
type KeyBuilder struct {
	prefix string
}

// NewKeyBuilder creates a new key builder with environment-based prefix.
func NewKeyBuilder(environment string) *KeyBuilder {
	prefix := "prod"
	if environment == "development" || environment == "staging" || environment == "test" {
		prefix = "staging"
	}
	return &KeyBuilder{prefix: prefix}
}

// BuildKey constructs a Redis key with the environment prefix.
func (kb *KeyBuilder) BuildKey(key string) string {
	return fmt.Sprintf("%s:%s", kb.prefix, key)
}

// GetPrefix returns the current environment prefix.
func (kb *KeyBuilder) GetPrefix() string {
	return kb.prefix
}

// KeyStandings is the cached final standings for a completed prompt.
func (kb *KeyBuilder) KeyStandings(leagueID, promptID int64) string {
	return kb.BuildKey(fmt.Sprintf(KeyStandings, leagueID, promptID))
}

// KeyNotifyQueue is the delivery job list consumed by the push worker.
func (kb *KeyBuilder) KeyNotifyQueue() string {
	return kb.BuildKey(KeyNotifyQueue)
}

// KeySchedulerLastRun records the timestamp of the last completed pass.
func (kb *KeyBuilder) KeySchedulerLastRun() string {
	return kb.BuildKey(KeySchedulerLock)
}
