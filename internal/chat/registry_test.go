package chat

import (
	"errors"
	"fmt"
	"sync"
	"testing"
)

type fakeChannel struct {
	mu     sync.Mutex
	msgs   [][]byte
	fail   bool
	closed bool
}

func (f *fakeChannel) Send(p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail || f.closed {
		return errors.New("send failed")
	}
	f.msgs = append(f.msgs, p)
	return nil
}

func (f *fakeChannel) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeChannel) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

func TestRegistryLastRegistrationWins(t *testing.T) {
	reg := NewRegistry[string]()
	first, second := &fakeChannel{}, &fakeChannel{}

	if prev := reg.Register("ana", first); prev != nil {
		t.Fatalf("Register() on empty key returned %v", prev)
	}
	if prev := reg.Register("ana", second); prev != Channel(first) {
		t.Fatalf("Register() replaced = %v, want first channel", prev)
	}
	if first.closed {
		t.Error("replaced channel was closed")
	}

	got, ok := reg.Lookup("ana")
	if !ok || got != Channel(second) {
		t.Fatalf("Lookup() = %v, %v; want second channel", got, ok)
	}

	if reg.Release("ana", first) {
		t.Error("Release() with stale channel removed the registration")
	}
	if reg.Len() != 1 {
		t.Errorf("Len() = %d, want 1", reg.Len())
	}
	if !reg.Release("ana", second) {
		t.Error("Release() with current channel returned false")
	}
	if _, ok := reg.Lookup("ana"); ok {
		t.Error("Lookup() found a released key")
	}
}

func TestRegistryUnregisterIdempotent(t *testing.T) {
	reg := NewRegistry[string]()
	reg.Register("ana", &fakeChannel{})

	reg.Unregister("ana")
	reg.Unregister("ana")
	reg.Unregister("never-registered")

	if reg.Len() != 0 {
		t.Errorf("Len() = %d, want 0", reg.Len())
	}
}

func TestRegistryBroadcast(t *testing.T) {
	reg := NewRegistry[EventKey]()
	a, b, broken, other := &fakeChannel{}, &fakeChannel{}, &fakeChannel{fail: true}, &fakeChannel{}
	reg.Register(EventKey{1, "a"}, a)
	reg.Register(EventKey{1, "b"}, b)
	reg.Register(EventKey{1, "broken"}, broken)
	reg.Register(EventKey{2, "other"}, other)

	n := reg.Broadcast(func(k EventKey) bool { return k.EventID == 1 }, []byte("hi"))
	if n != 2 {
		t.Errorf("Broadcast() delivered = %d, want 2", n)
	}
	if a.count() != 1 || b.count() != 1 {
		t.Errorf("event 1 channels got %d and %d messages, want 1 each", a.count(), b.count())
	}
	if other.count() != 0 {
		t.Errorf("event 2 channel got %d messages, want 0", other.count())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	reg := NewRegistry[string]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("user-%d", i%10)
			ch := &fakeChannel{}
			reg.Register(key, ch)
			reg.Lookup(key)
			reg.Broadcast(func(string) bool { return true }, []byte("x"))
			reg.Release(key, ch)
		}(i)
	}
	wg.Wait()

	if reg.Len() > 10 {
		t.Errorf("Len() = %d, want at most 10", reg.Len())
	}
}
