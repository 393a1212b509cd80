package outboxredis

import (
	"testing"
	"time"

	"github.com/Abraxas-365/mandrillx/pkg/outbox"
	"github.com/stretchr/testify/assert"
)

func TestKeys(t *testing.T) {
	q := NewRedisQueue(nil, "", time.Hour)
	assert.Equal(t, "mandrillx:outbox:queue:mandrill", q.queueKey("mandrill"))
	assert.Equal(t, "mandrillx:outbox:scheduled:mandrill", q.scheduledKey("mandrill"))
	assert.Equal(t, "mandrillx:outbox:entry:abc", q.entryKey("abc"))

	custom := NewRedisQueue(nil, "app:mail", 0)
	assert.Equal(t, "app:mail:entry:abc", custom.entryKey("abc"))
}

func TestExpirationOnlyForFinalStates(t *testing.T) {
	q := NewRedisQueue(nil, "", time.Hour)
	entry := outbox.NewEntry("id", "mandrill", nil, 3, time.Now())

	assert.Zero(t, q.expiration(entry))
	entry.Status = outbox.StatusRetrying
	assert.Zero(t, q.expiration(entry))
	entry.Status = outbox.StatusSent
	assert.Equal(t, time.Hour, q.expiration(entry))
	entry.Status = outbox.StatusFailed
	assert.Equal(t, time.Hour, q.expiration(entry))
}
