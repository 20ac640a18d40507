package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"One Hundred Years of Solitude": "one-hundred-years-of-solitude",
		"La Mujer del Animal":           "la-mujer-del-animal",
		"Positivo / Negativo":           "positivo-negativo",
		"  Suspensión!  ":               "suspensión",
		"El Rojo - Más Puro":            "el-rojo-más-puro",
	}
	for in, want := range cases {
		assert.Equal(t, want, Slugify(in, 50), in)
	}

	long := Slugify("a very long title that keeps going and going well past fifty runes", 50)
	assert.LessOrEqual(t, len([]rune(long)), 50)
}

func TestTitleCase(t *testing.T) {
	assert.Equal(t, "Dialogue Editor", TitleCase("dialogue EDITOR"))
	assert.Equal(t, "", TitleCase("   "))
}

func TestCollapseSpaces(t *testing.T) {
	assert.Equal(t, "sound editor", CollapseSpaces("  sound \t editor \n"))
}

func TestCircuitBreakerOpensAndRecovers(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker("test", 3, 30*time.Second, zap.NewNop()).WithClock(func() time.Time { return now })

	cb.RecordFailure()
	cb.RecordFailure()
	if !cb.CanExecute() {
		t.Fatalf("circuit should stay closed below threshold")
	}

	cb.RecordFailure()
	if cb.CanExecute() {
		t.Fatalf("circuit should open at threshold")
	}
	assert.NotNil(t, cb.Status().NextRetryTime)

	now = now.Add(30 * time.Second)
	assert.Equal(t, CircuitStateHalfOpen, cb.State())

	cb.RecordFailure()
	assert.Equal(t, CircuitStateOpen, cb.State())

	now = now.Add(31 * time.Second)
	assert.True(t, cb.CanExecute())
	cb.RecordSuccess()
	assert.Equal(t, CircuitStateClosed, cb.State())
	assert.Equal(t, 0, cb.Status().FailureCount)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, "debug", ParseLevel("DEBUG").String())
	assert.Equal(t, "warn", ParseLevel("warning").String())
	assert.Equal(t, "info", ParseLevel("bogus").String())
}
