package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRosterEntryPlayerRef(t *testing.T) {
	userId := 4
	manualId := 9

	entry := &RosterEntry{UserId: &userId}
	ref := entry.PlayerRef()
	assert.True(t, ref.IsRegistered())
	assert.Equal(t, 4, ref.UserId)
	assert.Equal(t, "registered:4", ref.String())

	entry = &RosterEntry{ManualPlayerId: &manualId}
	ref = entry.PlayerRef()
	assert.True(t, ref.IsManual())
	assert.Equal(t, 9, ref.ManualId)
	assert.Equal(t, "manual:9", ref.String())
}

func TestRosterEntryPlayerName(t *testing.T) {
	entry := &RosterEntry{Id: 12, User: &User{DisplayName: "Avery"}}
	assert.Equal(t, "Avery", entry.PlayerName())

	entry = &RosterEntry{Id: 12, ManualPlayer: &ManualPlayer{Name: "Jo"}}
	assert.Equal(t, "Jo", entry.PlayerName())

	// no association loaded, fall back to the row id
	entry = &RosterEntry{Id: 12}
	assert.Equal(t, "entry 12", entry.PlayerName())
}
