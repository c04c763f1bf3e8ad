package cleanup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeSweepable struct {
	name    string
	events  *[]string
	running bool
}

func (f *fakeSweepable) Start(_ context.Context) {
	f.running = true
	*f.events = append(*f.events, "start:"+f.name)
}

func (f *fakeSweepable) Stop() {
	f.running = false
	*f.events = append(*f.events, "stop:"+f.name)
}

func TestServiceStartsComponentsInRegistrationOrder(t *testing.T) {
	events := []string{}
	a := &fakeSweepable{name: "a", events: &events}
	b := &fakeSweepable{name: "b", events: &events}

	svc := NewService(a, b)
	svc.Start(context.Background())

	assert.Equal(t, []string{"start:a", "start:b"}, events)
	assert.True(t, a.running)
	assert.True(t, b.running)
}

func TestServiceStopsComponentsInReverseOrder(t *testing.T) {
	events := []string{}
	a := &fakeSweepable{name: "a", events: &events}
	b := &fakeSweepable{name: "b", events: &events}

	svc := NewService(a, b)
	svc.Start(context.Background())
	events = events[:0]

	svc.Stop()

	assert.Equal(t, []string{"stop:b", "stop:a"}, events)
	assert.False(t, a.running)
	assert.False(t, b.running)
}

func TestServiceWithNoComponents(t *testing.T) {
	svc := NewService()
	svc.Start(context.Background())
	svc.Stop()
}
