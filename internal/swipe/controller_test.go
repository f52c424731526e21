package swipe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	right []string
	left  []string
}

func newTestController(items []string) (*Controller[string], *recorder) {
	rec := &recorder{}
	c := NewController(items, Options[string]{
		OnSwipeRight: func(s string) { rec.right = append(rec.right, s) },
		OnSwipeLeft:  func(s string) { rec.left = append(rec.left, s) },
	})
	return c, rec
}

func swipeOnce(t *testing.T, c *Controller[string], dx, velocity float64) Direction {
	t.Helper()
	require.NoError(t, c.BeginDrag())
	require.NoError(t, c.UpdateDrag(dx))
	dir, err := c.EndDrag(velocity)
	require.NoError(t, err)
	if dir != Cancel {
		_, err := c.CompleteAnimation()
		require.NoError(t, err)
	}
	return dir
}

func TestNewController_defaults(t *testing.T) {
	c := NewController([]string{"a"}, Options[string]{})

	assert.Equal(t, float64(DefaultVelocityThreshold), c.velocityThreshold)
	assert.Equal(t, float64(DefaultMaxRotation), c.maxRotation)
	assert.Equal(t, float64(2*DefaultScreenWidth), c.hiddenOffset)
	assert.Equal(t, StateIdle, c.State())
	assert.Equal(t, 0, c.Index())
}

func TestController_swipeRight(t *testing.T) {
	c, rec := newTestController([]string{"A", "B", "C"})

	require.NoError(t, c.BeginDrag())
	assert.Equal(t, StateDragging, c.State())
	require.NoError(t, c.UpdateDrag(120))

	dir, err := c.EndDrag(1000)
	require.NoError(t, err)
	assert.Equal(t, Right, dir)
	assert.Equal(t, StateAnimatingOut, c.State())
	assert.Equal(t, c.hiddenOffset, c.Offset(), "expected card to leave the screen to the right")
	assert.Empty(t, rec.right, "expected callback to wait for the animation")

	sw, err := c.CompleteAnimation()
	require.NoError(t, err)
	assert.Equal(t, Swipe[string]{Item: "A", Direction: Right, Index: 0}, sw)
	assert.Equal(t, []string{"A"}, rec.right)
	assert.Empty(t, rec.left)

	assert.Equal(t, 1, c.Index())
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.Offset())

	cur, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, "B", cur)
	next, ok := c.Next()
	assert.True(t, ok)
	assert.Equal(t, "C", next)
}

func TestController_swipeLeft(t *testing.T) {
	c, rec := newTestController([]string{"A", "B"})

	dir := swipeOnce(t, c, -200, -900)
	assert.Equal(t, Left, dir)
	assert.Equal(t, []string{"A"}, rec.left)
	assert.Empty(t, rec.right)
	assert.Equal(t, 1, c.Index())
}

func TestController_cancelBelowThreshold(t *testing.T) {
	c, rec := newTestController([]string{"A"})

	require.NoError(t, c.BeginDrag())
	require.NoError(t, c.UpdateDrag(-30))
	assert.Equal(t, -30.0, c.Offset())

	dir, err := c.EndDrag(200)
	require.NoError(t, err)
	assert.Equal(t, Cancel, dir)
	assert.Equal(t, 0, c.Index(), "expected index to be unchanged")
	assert.Equal(t, 0.0, c.Offset(), "expected offset to return to exactly zero")
	assert.Equal(t, StateIdle, c.State())
	assert.Empty(t, rec.left)
	assert.Empty(t, rec.right)
}

func TestController_cancelIgnoresDisplacement(t *testing.T) {
	c, _ := newTestController([]string{"A", "B"})

	// far past the affordance threshold but released slowly
	dir := swipeOnce(t, c, 700, 799)
	assert.Equal(t, Cancel, dir)
	assert.Equal(t, 0, c.Index())
}

func TestController_indexIncreasesOncePerCommit(t *testing.T) {
	c, rec := newTestController([]string{"A", "B", "C"})

	gestures := []struct {
		velocity float64
		commit   bool
	}{
		{1000, true},
		{100, false},
		{-800, true},
		{-799, false},
		{0, false},
		{5000, true},
		{-2000, true},
	}

	expected := 0
	for _, g := range gestures {
		before := c.Index()
		swipeOnce(t, c, 10, g.velocity)
		if g.commit {
			expected++
			assert.Equal(t, before+1, c.Index(), "expected index to advance by one for velocity %v", g.velocity)
		} else {
			assert.Equal(t, before, c.Index(), "expected index unchanged for velocity %v", g.velocity)
		}
	}

	assert.Equal(t, expected, c.Index())
	assert.Len(t, append(rec.left, rec.right...), expected, "expected one callback per committed gesture")
}

func TestController_wrapsModuloQueueLength(t *testing.T) {
	c, rec := newTestController([]string{"A", "B", "C"})

	for i := 0; i < 4; i++ {
		swipeOnce(t, c, 0, 1000)
	}

	assert.Equal(t, 4, c.Index())
	assert.Equal(t, []string{"A", "B", "C", "A"}, rec.right)

	cur, _ := c.Current()
	next, _ := c.Next()
	assert.Equal(t, "B", cur)
	assert.Equal(t, "C", next)
}

func TestController_singleCard(t *testing.T) {
	c, rec := newTestController([]string{"A"})

	_, ok := c.Next()
	assert.False(t, ok, "expected no distinct next card")

	swipeOnce(t, c, 0, 1000)
	swipeOnce(t, c, 0, -1000)

	cur, ok := c.Current()
	assert.True(t, ok)
	assert.Equal(t, "A", cur)
	assert.Equal(t, []string{"A"}, rec.right)
	assert.Equal(t, []string{"A"}, rec.left)
}

func TestController_callbackReceivesCardHeldAtGestureStart(t *testing.T) {
	var got []string
	var c *Controller[string]
	c = NewController([]string{"A", "B", "C"}, Options[string]{
		OnSwipeRight: func(s string) {
			// by now the index already points at the following card
			cur, _ := c.Current()
			assert.Equal(t, "B", cur)
			got = append(got, s)
		},
	})

	require.NoError(t, c.BeginDrag())
	_, err := c.EndDrag(1000)
	require.NoError(t, err)
	_, err = c.CompleteAnimation()
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, got)
}

func TestController_invalidTransitions(t *testing.T) {
	t.Run("empty queue", func(t *testing.T) {
		c, _ := newTestController(nil)
		assert.ErrorIs(t, c.BeginDrag(), ErrEmptyQueue)
		_, ok := c.Current()
		assert.False(t, ok)
	})

	t.Run("update before begin", func(t *testing.T) {
		c, _ := newTestController([]string{"A"})
		assert.ErrorIs(t, c.UpdateDrag(10), ErrInvalidTransition)
	})

	t.Run("end before begin", func(t *testing.T) {
		c, _ := newTestController([]string{"A"})
		_, err := c.EndDrag(1000)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("second gesture during animation", func(t *testing.T) {
		c, _ := newTestController([]string{"A", "B"})
		require.NoError(t, c.BeginDrag())
		_, err := c.EndDrag(1000)
		require.NoError(t, err)
		assert.ErrorIs(t, c.BeginDrag(), ErrInvalidTransition)
	})

	t.Run("complete without animation", func(t *testing.T) {
		c, rec := newTestController([]string{"A"})
		_, err := c.CompleteAnimation()
		assert.ErrorIs(t, err, ErrInvalidTransition)

		require.NoError(t, c.BeginDrag())
		_, err = c.EndDrag(10)
		require.NoError(t, err)
		_, err = c.CompleteAnimation()
		assert.ErrorIs(t, err, ErrInvalidTransition, "expected cancelled gesture to have nothing to complete")
		assert.Empty(t, rec.right)
	})

	t.Run("complete twice", func(t *testing.T) {
		c, rec := newTestController([]string{"A", "B"})
		require.NoError(t, c.BeginDrag())
		_, err := c.EndDrag(1000)
		require.NoError(t, err)
		_, err = c.CompleteAnimation()
		require.NoError(t, err)
		_, err = c.CompleteAnimation()
		assert.ErrorIs(t, err, ErrInvalidTransition)
		assert.Equal(t, []string{"A"}, rec.right, "expected exactly one callback")
	})
}

func TestController_reset(t *testing.T) {
	c, _ := newTestController([]string{"A", "B"})
	swipeOnce(t, c, 0, 1000)
	require.NoError(t, c.BeginDrag())
	require.NoError(t, c.UpdateDrag(50))

	c.Reset([]string{"X"})

	assert.Equal(t, 0, c.Index())
	assert.Equal(t, StateIdle, c.State())
	assert.Zero(t, c.Offset())
	cur, _ := c.Current()
	assert.Equal(t, "X", cur)
}

func TestController_visuals(t *testing.T) {
	c := NewController([]string{"A", "B"}, Options[string]{ScreenWidth: 100})
	require.NoError(t, c.BeginDrag())

	tcases := []struct {
		name        string
		dx          float64
		rotation    float64
		like        float64
		pass        float64
		nextScale   float64
		nextOpacity float64
	}{
		{"centered", 0, 0, 0, 0, 0.8, 0.5},
		{"quarter right", 50, 15, 1, 0, 0.85, 0.625},
		{"small left", -20, -6, 0, 0.5, 0.82, 0.55},
		{"fully right", 200, 60, 1, 0, 1, 1},
		{"beyond left is clamped", -1000, -60, 0, 1, 1, 1},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, c.UpdateDrag(tc.dx))
			assert.InDelta(t, tc.rotation, c.Rotation(), 1e-9)
			assert.InDelta(t, tc.like, c.LikeOpacity(), 1e-9)
			assert.InDelta(t, tc.pass, c.PassOpacity(), 1e-9)
			assert.InDelta(t, tc.nextScale, c.NextScale(), 1e-9)
			assert.InDelta(t, tc.nextOpacity, c.NextOpacity(), 1e-9)
		})
	}
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("right")
	assert.NoError(t, err)
	assert.Equal(t, Right, d)

	d, err = ParseDirection("left")
	assert.NoError(t, err)
	assert.Equal(t, Left, d)

	_, err = ParseDirection("up")
	assert.Error(t, err)
}
