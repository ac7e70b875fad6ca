package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFixed(t *testing.T) {
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Fixed(at)
	assert.Equal(t, at, c.Now())
	assert.Equal(t, 90*time.Second, Since(c, at.Add(-90*time.Second)))
}

func TestOrReal(t *testing.T) {
	assert.IsType(t, RealClock{}, OrReal(nil))

	fixed := Fixed(time.Unix(0, 0))
	assert.Equal(t, time.Unix(0, 0), OrReal(fixed).Now())
}
