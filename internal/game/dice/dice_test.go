package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/critter/internal/game/dice"
)

func TestCryptoSource_Property_RangesHold(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 1000).Draw(rt, "n")
		v := src.Intn(n)
		assert.GreaterOrEqual(rt, v, 0)
		assert.Less(rt, v, n)
		f := src.Float64()
		assert.GreaterOrEqual(rt, f, 0.0)
		assert.Less(rt, f, 1.0)
	})
}

func TestCryptoSource_IntnPanicsOnNonPositive(t *testing.T) {
	src := dice.NewCryptoSource()
	assert.PanicsWithValue(t, "dice: Intn called with n <= 0", func() { src.Intn(0) })
}

func TestSeededSource_SameSeedSameSequence(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Float64(), b.Float64(), "draw %d", i)
		require.Equal(t, a.Intn(16), b.Intn(16), "draw %d", i)
	}
}

func TestSeededSource_ReportsSeed(t *testing.T) {
	seed, ok := dice.SeedOf(dice.NewSeededSource(7))
	require.True(t, ok)
	assert.Equal(t, uint64(7), seed)

	_, ok = dice.SeedOf(dice.NewCryptoSource())
	assert.False(t, ok)
}

func TestScriptedSource_ReplaysInOrderAndCycles(t *testing.T) {
	src := dice.NewScriptedSource(0.1, 0.9)
	assert.Equal(t, 0.1, src.Float64())
	assert.Equal(t, 0.9, src.Float64())
	assert.Equal(t, 0.1, src.Float64())
	assert.Equal(t, 3, src.Draws())
}

func TestScriptedSource_IntnClampsTopValue(t *testing.T) {
	src := dice.NewScriptedSource(1.0, 0.0, 0.5)
	assert.Equal(t, 1, src.Intn(2))
	assert.Equal(t, 0, src.Intn(2))
	assert.Equal(t, 5, src.Intn(10))
}

func TestBytes_LengthAndDeterminism(t *testing.T) {
	a := dice.Bytes(dice.NewSeededSource(3), 8)
	b := dice.Bytes(dice.NewSeededSource(3), 8)
	assert.Len(t, a, 8)
	assert.Equal(t, a, b)
}

func TestLoggedSource_LogsEachDraw(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	src := dice.NewLoggedSource(dice.NewScriptedSource(0.25), zap.New(core))

	assert.Equal(t, 0.25, src.Float64())
	assert.Equal(t, 1, src.Intn(4))

	entries := logs.FilterMessage("random draw").All()
	require.Len(t, entries, 2)
	assert.Equal(t, "uniform", entries[0].ContextMap()["kind"])
	assert.Equal(t, "intn", entries[1].ContextMap()["kind"])
}

func TestLoggedSource_ForwardsSeed(t *testing.T) {
	src := dice.NewLoggedSource(dice.NewSeededSource(99), zap.NewNop())
	seed, ok := dice.SeedOf(src)
	require.True(t, ok)
	assert.Equal(t, uint64(99), seed)

	_, ok = dice.SeedOf(dice.NewLoggedSource(dice.NewCryptoSource(), zap.NewNop()))
	assert.False(t, ok)
}

func TestNewSeed(t *testing.T) {
	_, err := dice.NewSeed()
	assert.NoError(t, err)
}
