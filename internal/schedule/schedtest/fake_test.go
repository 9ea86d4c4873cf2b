package schedtest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFake_AdvanceRunsDueTasksInOrder(t *testing.T) {
	f := New()
	var order []string

	f.AfterFunc(3*time.Second, func() { order = append(order, "c") })
	f.AfterFunc(time.Second, func() { order = append(order, "a") })
	f.AfterFunc(2*time.Second, func() { order = append(order, "b") })

	f.Advance(2 * time.Second)
	assert.Equal(t, []string{"a", "b"}, order)
	assert.Equal(t, 1, f.Pending())

	f.Advance(time.Second)
	assert.Equal(t, []string{"a", "b", "c"}, order)
	assert.Zero(t, f.Pending())
}

func TestFake_Stop(t *testing.T) {
	f := New()
	ran := false

	timer := f.AfterFunc(time.Second, func() { ran = true })
	assert.True(t, timer.Stop())
	assert.False(t, timer.Stop())

	f.Advance(time.Minute)
	assert.False(t, ran)
}

func TestFake_NestedScheduling(t *testing.T) {
	f := New()
	start := f.Now()
	var at []time.Duration

	f.AfterFunc(time.Second, func() {
		at = append(at, f.Now().Sub(start))
		f.AfterFunc(time.Second, func() {
			at = append(at, f.Now().Sub(start))
		})
	})

	f.Advance(5 * time.Second)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, at)
	assert.Equal(t, 5*time.Second, f.Now().Sub(start))
}
