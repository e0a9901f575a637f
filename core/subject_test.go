package core

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubject_SubscribeReceivesCurrentValue(t *testing.T) {
	s := NewSubject("")
	s.Publish("alice")

	var got []string
	unsubscribe := s.Subscribe(func(v string) { got = append(got, v) })

	s.Publish("bob")
	unsubscribe()
	s.Publish("carol")

	assert.Equal(t, []string{"alice", "bob"}, got)
	assert.Equal(t, "carol", s.Value())
}

func TestSubject_NotifiesInSubscriptionOrder(t *testing.T) {
	s := NewSubject(0)

	var order []string
	s.Subscribe(func(int) { order = append(order, "first") })
	s.Subscribe(func(int) { order = append(order, "second") })
	order = nil

	s.Publish(1)
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestSubject_CallbackMayReadValue(t *testing.T) {
	s := NewSubject(1)
	var seen int
	s.Subscribe(func(int) { seen = s.Value() })

	s.Publish(7)
	assert.Equal(t, 7, seen)
}

func TestSubject_ConcurrentPublish(t *testing.T) {
	s := NewSubject(0)
	var mu sync.Mutex
	count := 0
	s.Subscribe(func(int) {
		mu.Lock()
		count++
		mu.Unlock()
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Publish(i)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 51, count)
}
