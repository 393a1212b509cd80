package hookxpg

import (
	"testing"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/hookx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord(t *testing.T) {
	events, err := hookx.DecodeEvents(`[
		{"event":"hard_bounce","ts":1385020180,"msg":{"_id":"exampleaaaaaaaaaaaaaaaaaaaaaaaaa","email":"bounce@example.com","state":"bounced"}},
		{"type":"whitelist","action":"remove","entry":{"email":"w@example.com"}}
	]`)
	require.NoError(t, err)
	received := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

	bounce := newRecord(events[0], received)
	assert.Equal(t, "hard_bounce", bounce.EventType)
	assert.Equal(t, "exampleaaaaaaaaaaaaaaaaaaaaaaaaa", bounce.MessageID)
	assert.Equal(t, "bounce@example.com", bounce.Email)
	require.NotNil(t, bounce.OccurredAt)
	assert.Equal(t, int64(1385020180), bounce.OccurredAt.Unix())
	assert.JSONEq(t, string(events[0].Raw), string(bounce.Payload))
	assert.Equal(t, received, bounce.ReceivedAt)

	sync := newRecord(events[1], received)
	assert.Equal(t, "whitelist_remove", sync.EventType)
	assert.Equal(t, "w@example.com", sync.Email)
	assert.Empty(t, sync.MessageID)
	assert.Nil(t, sync.OccurredAt)
	assert.NotEqual(t, bounce.ID, sync.ID)
}

func TestNewStoreDefaultTable(t *testing.T) {
	assert.Equal(t, defaultTable, NewStore(nil, "").table)
	assert.Equal(t, "events", NewStore(nil, "events").table)
}
