package actuator_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benmeehan/envnode/internal/mocks"
	"github.com/benmeehan/envnode/pkg/actuator"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestBlink_SequenceEndsOff(t *testing.T) {
	out := new(mocks.MockOutput)
	var calls []bool
	out.On("Set", mock.Anything).Run(func(args mock.Arguments) {
		calls = append(calls, args.Bool(0))
	}).Return(nil)

	err := actuator.Blink(context.Background(), out, 11, time.Millisecond)

	assert.NoError(t, err)
	assert.Equal(t, []bool{true, false, true, false, true, false, true, false, true, false, true, false}, calls)
}

func TestBlink_Cancelled(t *testing.T) {
	out := actuator.NewLogOutput(zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := actuator.Blink(ctx, out, 11, time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, out.On())
	assert.Equal(t, 2, out.Sets())
}

func TestBlink_OutputError(t *testing.T) {
	out := new(mocks.MockOutput)
	out.On("Set", true).Return(errors.New("line busy"))

	err := actuator.Blink(context.Background(), out, 3, time.Millisecond)

	assert.EqualError(t, err, "line busy")
	out.AssertNumberOfCalls(t, "Set", 1)
}

func TestLogOutput(t *testing.T) {
	out := actuator.NewLogOutput(zerolog.Nop())

	assert.NoError(t, out.Set(true))
	assert.True(t, out.On())
	assert.NoError(t, out.Set(false))
	assert.False(t, out.On())
	assert.Equal(t, 2, out.Sets())
	assert.NoError(t, out.Close())
}
