package cart

import (
	"sync"
	"time"
)

// TimerScheduler implements Scheduler on stdlib timers.
type TimerScheduler struct{}

func NewTimerScheduler() *TimerScheduler { return &TimerScheduler{} }

func (*TimerScheduler) Repeat(interval time.Duration, fn func()) (cancel func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			ticker.Stop()
			close(done)
		})
	}
}

func (*TimerScheduler) Once(delay time.Duration, fn func()) (cancel func()) {
	timer := time.AfterFunc(delay, fn)
	var once sync.Once
	return func() {
		once.Do(func() { timer.Stop() })
	}
}
