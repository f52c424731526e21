// Package swipe implements the card stack interaction: a single horizontal
// drag gesture over a queue of cards, classified on release as a like, a
// pass or a cancel.
package swipe

import (
	"errors"
	"fmt"
	"math"
)

const (
	DefaultVelocityThreshold = 800
	DefaultMaxRotation       = 60
	DefaultScreenWidth       = 400
)

var (
	ErrEmptyQueue        = errors.New("card queue is empty")
	ErrInvalidTransition = errors.New("invalid transition")
)

type State int

const (
	StateIdle State = iota
	StateDragging
	StateAnimatingOut
	StateTransitioning
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateAnimatingOut:
		return "animating-out"
	case StateTransitioning:
		return "transitioning"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

type Direction int

const (
	Left Direction = iota - 1
	Cancel
	Right
)

func (d Direction) String() string {
	switch d {
	case Left:
		return "left"
	case Right:
		return "right"
	default:
		return "cancel"
	}
}

// ParseDirection accepts "left" or "right".
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "left":
		return Left, nil
	case "right":
		return Right, nil
	default:
		return Cancel, fmt.Errorf("unknown swipe direction %q", s)
	}
}

// Swipe is a committed gesture and the card it applied to.
type Swipe[T any] struct {
	Item      T
	Direction Direction
	Index     int
}

type Options[T any] struct {
	VelocityThreshold float64
	MaxRotation       float64
	ScreenWidth       float64
	OnSwipeRight      func(T)
	OnSwipeLeft       func(T)
}

// Controller is not safe for concurrent use; one gesture is processed at a
// time by its owner.
type Controller[T any] struct {
	items      []T
	index      int
	state      State
	offset     float64
	dragOrigin float64

	// captured at BeginDrag and handed to the callback after the animation
	held      T
	direction Direction

	velocityThreshold float64
	maxRotation       float64
	hiddenOffset      float64
	onSwipeRight      func(T)
	onSwipeLeft       func(T)
}

func NewController[T any](items []T, opts Options[T]) *Controller[T] {
	c := &Controller[T]{
		items:             items,
		velocityThreshold: opts.VelocityThreshold,
		maxRotation:       opts.MaxRotation,
		onSwipeRight:      opts.OnSwipeRight,
		onSwipeLeft:       opts.OnSwipeLeft,
	}

	if c.velocityThreshold <= 0 {
		c.velocityThreshold = DefaultVelocityThreshold
	}
	if c.maxRotation <= 0 {
		c.maxRotation = DefaultMaxRotation
	}

	width := opts.ScreenWidth
	if width <= 0 {
		width = DefaultScreenWidth
	}
	c.hiddenOffset = 2 * width

	return c
}

func (c *Controller[T]) transitionErr(op string) error {
	return fmt.Errorf("%s while %s: %w", op, c.state, ErrInvalidTransition)
}

// Reset replaces the queue and returns the controller to its initial state.
func (c *Controller[T]) Reset(items []T) {
	var zero T
	c.items = items
	c.index = 0
	c.state = StateIdle
	c.offset = 0
	c.dragOrigin = 0
	c.held = zero
	c.direction = Cancel
}

func (c *Controller[T]) Len() int {
	return len(c.items)
}

func (c *Controller[T]) Index() int {
	return c.index
}

func (c *Controller[T]) State() State {
	return c.state
}

func (c *Controller[T]) Offset() float64 {
	return c.offset
}

func (c *Controller[T]) Current() (T, bool) {
	var zero T
	if len(c.items) == 0 {
		return zero, false
	}
	return c.items[c.index%len(c.items)], true
}

// Next returns the card rendered under the current one. A queue with a
// single card has no distinct next card.
func (c *Controller[T]) Next() (T, bool) {
	var zero T
	if len(c.items) < 2 {
		return zero, false
	}
	return c.items[(c.index+1)%len(c.items)], true
}

func (c *Controller[T]) BeginDrag() error {
	if c.state != StateIdle {
		return c.transitionErr("begin drag")
	}

	current, ok := c.Current()
	if !ok {
		return ErrEmptyQueue
	}

	c.held = current
	c.dragOrigin = c.offset
	c.state = StateDragging
	return nil
}

// UpdateDrag moves the card to deltaX, the translation accumulated since the
// gesture began.
func (c *Controller[T]) UpdateDrag(deltaX float64) error {
	if c.state != StateDragging {
		return c.transitionErr("update drag")
	}

	c.offset = c.dragOrigin + deltaX
	return nil
}

// EndDrag classifies the release. Below the velocity threshold the card
// snaps back regardless of displacement; otherwise it leaves the screen in
// the direction of the velocity and CompleteAnimation must follow.
func (c *Controller[T]) EndDrag(velocityX float64) (Direction, error) {
	if c.state != StateDragging {
		return Cancel, c.transitionErr("end drag")
	}

	if math.Abs(velocityX) < c.velocityThreshold {
		var zero T
		c.offset = 0
		c.held = zero
		c.state = StateIdle
		return Cancel, nil
	}

	c.direction = Left
	if velocityX > 0 {
		c.direction = Right
	}
	c.offset = float64(c.direction) * c.hiddenOffset
	c.state = StateAnimatingOut
	return c.direction, nil
}

// CompleteAnimation advances the stack once the card is off screen and
// invokes the swipe callback with the card held since BeginDrag.
func (c *Controller[T]) CompleteAnimation() (Swipe[T], error) {
	if c.state != StateAnimatingOut {
		return Swipe[T]{}, c.transitionErr("complete animation")
	}

	c.state = StateTransitioning
	swiped := Swipe[T]{Item: c.held, Direction: c.direction, Index: c.index}

	var zero T
	c.index++
	c.offset = 0
	c.dragOrigin = 0
	c.held = zero
	c.direction = Cancel

	cb := c.onSwipeLeft
	if swiped.Direction == Right {
		cb = c.onSwipeRight
	}
	if cb != nil {
		cb(swiped.Item)
	}

	c.state = StateIdle
	return swiped, nil
}

// interpolate maps x from [inMin, inMax] onto [outMin, outMax], clamped.
func interpolate(x, inMin, inMax, outMin, outMax float64) float64 {
	if inMax == inMin {
		return outMin
	}
	t := (x - inMin) / (inMax - inMin)
	t = math.Max(0, math.Min(1, t))
	return outMin + t*(outMax-outMin)
}

// Rotation is the card tilt in degrees.
func (c *Controller[T]) Rotation() float64 {
	if c.offset < 0 {
		return -interpolate(-c.offset, 0, c.hiddenOffset, 0, c.maxRotation)
	}
	return interpolate(c.offset, 0, c.hiddenOffset, 0, c.maxRotation)
}

func (c *Controller[T]) LikeOpacity() float64 {
	return interpolate(c.offset, 0, c.hiddenOffset/5, 0, 1)
}

func (c *Controller[T]) PassOpacity() float64 {
	return interpolate(-c.offset, 0, c.hiddenOffset/5, 0, 1)
}

func (c *Controller[T]) NextScale() float64 {
	return interpolate(math.Abs(c.offset), 0, c.hiddenOffset, 0.8, 1)
}

func (c *Controller[T]) NextOpacity() float64 {
	return interpolate(math.Abs(c.offset), 0, c.hiddenOffset, 0.5, 1)
}
