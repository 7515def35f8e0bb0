package observable

import (
	"testing"
	"time"
)

func TestField_GetSet(t *testing.T) {
	f := NewField("initial")
	if got := f.Get(); got != "initial" {
		t.Errorf("Get() = %q, want %q", got, "initial")
	}

	f.Set("updated")
	if got := f.Get(); got != "updated" {
		t.Errorf("Get() = %q, want %q", got, "updated")
	}
}

func TestField_SubscribeReceivesWrites(t *testing.T) {
	f := NewField(0)
	ch, cancel := f.Subscribe()
	defer cancel()

	f.Set(42)

	select {
	case got := <-ch:
		if got != 42 {
			t.Errorf("received %d, want 42", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestField_SlowSubscriberSeesLatest(t *testing.T) {
	f := NewField(0)
	ch, cancel := f.Subscribe()
	defer cancel()

	// Nobody reading; each write replaces the undelivered value.
	f.Set(1)
	f.Set(2)
	f.Set(3)

	select {
	case got := <-ch:
		if got != 3 {
			t.Errorf("received %d, want latest value 3", got)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for notification")
	}
}

func TestField_CancelStopsNotifications(t *testing.T) {
	f := NewField(0)
	ch, cancel := f.Subscribe()
	cancel()

	f.Set(7)

	select {
	case v := <-ch:
		t.Errorf("received %d after cancel", v)
	default:
	}
}

func TestField_ConcurrentWrites(t *testing.T) {
	f := NewField(0)
	done := make(chan struct{})
	for i := 0; i < 10; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 100; j++ {
				f.Set(n)
				_ = f.Get()
			}
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	got := f.Get()
	if got < 0 || got > 9 {
		t.Errorf("Get() = %d, want a written value", got)
	}
}
