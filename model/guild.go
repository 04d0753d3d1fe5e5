package model

import (
	"time"
)

const (
	BucketGuild  = "guild"
	BucketGlobal = "global"

	// DefaultHelpKey is the helpMessages key holding the guild-wide help text.
	DefaultHelpKey = "__default"
)

// GuildRecord is the unit of persistence: everything the service knows about
// one guild. It is owned by the verification store; nothing else mutates it.
type GuildRecord struct {
	ID           string
	Name         string
	RoleRules    map[string]VerificationRule
	HelpMessages map[string]string
	Verified     map[string]VerificationStatus
}

func NewGuildRecord(id, name string) *GuildRecord {
	return &GuildRecord{
		ID:           id,
		Name:         name,
		RoleRules:    make(map[string]VerificationRule),
		HelpMessages: make(map[string]string),
		Verified:     make(map[string]VerificationStatus),
	}
}

type VerificationState string

const (
	StatePending  VerificationState = "pending"
	StateVerified VerificationState = "verified"
	// StateDenied removes the stored entry so the user can verify again later.
	StateDenied VerificationState = "denied"
)

type VerificationStatus struct {
	Status   VerificationState
	Time     time.Time
	Username string
}

// GlobalConfig is the single record in the global bucket: command words and
// fallback help messages shared by every guild.
type GlobalConfig struct {
	Commands     map[string]string
	HelpMessages map[string]string
}

func NewGlobalConfig() *GlobalConfig {
	return &GlobalConfig{
		Commands:     make(map[string]string),
		HelpMessages: make(map[string]string),
	}
}
