package repository

import (
	"encoding/json"
	"testing"
	"time"

	"birthday_quest_backend/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSessionRoundTrip(t *testing.T) {
	sess := &game.Session{
		ID:         "s-1",
		PlayerName: "小王",
		Character:  game.Character{ID: 1, Name: "梅医生"},
		Questions: []game.Question{
			{ID: 7, Text: "题", Answers: []string{"对", "错"}, CorrectIndex: 0},
		},
		TotalQuestions: 1,
		Phase:          game.PhaseLocked,
		LastCorrect:    true,
		StartedAt:      time.Unix(1700000000, 0),
	}

	data, err := json.Marshal(sess)
	require.NoError(t, err)

	got, err := DecodeSession(data)
	require.NoError(t, err)
	assert.Equal(t, "s-1", got.ID)
	assert.Equal(t, "小王", got.PlayerName)
	assert.Equal(t, game.PhaseLocked, got.Phase)
	assert.True(t, got.LastCorrect)
	assert.False(t, got.PendingPenalty)
}

func TestDecodeSessionRejectsBadSnapshots(t *testing.T) {
	_, err := DecodeSession([]byte("not json"))
	assert.Error(t, err)

	// 缺少会话 ID 的快照视为损坏
	_, err = DecodeSession([]byte(`{"phase":"idle"}`))
	assert.Error(t, err)
}

func TestStoreGetMemoryMissWithoutRedis(t *testing.T) {
	store := NewSessionStore(nil, time.Hour)
	_, err := store.Get("missing")
	assert.Error(t, err)
}
