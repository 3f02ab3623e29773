package events

import (
	"bytes"
	"context"
	"errors"
	"log"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lifeledger/pkg/domain"
)

func TestRecorderCapturesAndFilters(t *testing.T) {
	rec := NewRecorder()
	ctx := context.Background()

	e1 := New(TopicBlood, ActionUnitRegistered, 1, domain.Address("BANK_A"), 100)
	e2 := New(TopicBlood, ActionUnitAllocated, 1, domain.Address("BANK_A"), 200).
		WithTransition("available", "reserved").
		WithField("hospital", "HOSP_A")
	e3 := New(TopicRequest, ActionRequestCreated, 7, domain.Address("HOSP_A"), 300)

	require.NoError(t, rec.Emit(ctx, e1))
	require.NoError(t, rec.Emit(ctx, e2))
	require.NoError(t, rec.Emit(ctx, e3))

	assert.Len(t, rec.Events(), 3)

	allocated := rec.ByAction(ActionUnitAllocated)
	require.Len(t, allocated, 1)
	assert.Equal(t, "reserved", allocated[0].ToStatus)
	assert.Equal(t, "HOSP_A", allocated[0].Fields["hospital"])
}

func TestLogEmitterWritesOneLine(t *testing.T) {
	var buf bytes.Buffer
	emitter := NewLogEmitter(log.New(&buf, "", 0))

	event := New(TopicRequest, ActionRequestApproved, 9, domain.Address("ADMIN"), 400).
		WithTransition("pending", "approved")
	require.NoError(t, emitter.Emit(context.Background(), event))

	out := buf.String()
	assert.Contains(t, out, "action=request_approved")
	assert.Contains(t, out, "entity=9")
	assert.Contains(t, out, `to="approved"`)
}

type failingEmitter struct{}

func (failingEmitter) Emit(context.Context, Event) error { return errors.New("sink down") }

func TestMultiTriesAllSinks(t *testing.T) {
	rec := NewRecorder()
	multi := Multi{failingEmitter{}, rec}

	err := multi.Emit(context.Background(), New(TopicBlood, ActionUnitRegistered, 1, "BANK_A", 100))
	assert.Error(t, err)
	assert.Len(t, rec.Events(), 1, "later sinks still receive the event")
}
