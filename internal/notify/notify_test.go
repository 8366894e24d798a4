package notify

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	r := &Recorder{}
	assert.Empty(t, r.Sent())

	assert.NoError(t, r.Notify("punchr", "Daily journey complete."))
	assert.NoError(t, r.Notify("punchr", "again"))

	sent := r.Sent()
	assert.Equal(t, []Message{{"punchr", "Daily journey complete."}, {"punchr", "again"}}, sent)

	sent[0].Title = "changed"
	assert.Equal(t, "punchr", r.Sent()[0].Title)
}

func TestNop(t *testing.T) {
	var n Notifier = Nop{}
	assert.NoError(t, n.Notify("punchr", "ignored"))
}
