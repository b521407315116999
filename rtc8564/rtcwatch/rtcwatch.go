// Package rtcwatch polls an RTC-8564 for fired alarms and expired timers and hands each one to a Publisher.
package rtcwatch

import (
	"context"
	"errors"
	"time"

	"github.com/ajanata/drivers/rtc8564"
)

type Kind string

const (
	Alarm Kind = "alarm"
	Timer Kind = "timer"
)

// Event is one observed alarm or timer flag. At is the chip time when the flag was seen, zero if the chip had no
// valid time.
type Event struct {
	Kind Kind
	At   time.Time
}

// Clock is the subset of *rtc8564.Device the watcher needs.
type Clock interface {
	Status() (rtc8564.Status, error)
	Now() (time.Time, error)
	ClearAlarmFlag() error
	ClearTimerFlag() error
}

type Publisher interface {
	Publish(Event) error
}

// PublisherFunc adapts a function to a Publisher.
type PublisherFunc func(Event) error

func (f PublisherFunc) Publish(e Event) error { return f(e) }

type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const DefaultInterval = time.Second

type Watcher struct {
	Clock     Clock
	Publisher Publisher
	// Interval between polls, DefaultInterval if zero.
	Interval time.Duration
	Logger   Logger
}

// Run polls until ctx is done. Poll errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	interval := w.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		events, err := w.Poll()
		if err != nil && w.Logger != nil {
			w.Logger.Errorf("rtcwatch: %v", err)
		}
		for _, e := range events {
			if w.Logger != nil {
				w.Logger.Infof("rtcwatch: %s at %s", e.Kind, e.At.Format(time.RFC3339))
			}
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Poll reads the flags once and publishes an event for each one that is set. A flag is cleared only after its event
// was published, so a failed publish is retried on the next poll.
func (w *Watcher) Poll() ([]Event, error) {
	st, err := w.Clock.Status()
	if err != nil {
		return nil, err
	}
	if !st.AlarmFlag() && !st.TimerFlag() {
		return nil, nil
	}

	at, err := w.Clock.Now()
	if err != nil && !errors.Is(err, rtc8564.ErrVoltageLow) {
		return nil, err
	}

	var events []Event
	if st.AlarmFlag() {
		e := Event{Kind: Alarm, At: at}
		if err := w.Publisher.Publish(e); err != nil {
			return events, err
		}
		if err := w.Clock.ClearAlarmFlag(); err != nil {
			return events, err
		}
		events = append(events, e)
	}
	if st.TimerFlag() {
		e := Event{Kind: Timer, At: at}
		if err := w.Publisher.Publish(e); err != nil {
			return events, err
		}
		if err := w.Clock.ClearTimerFlag(); err != nil {
			return events, err
		}
		events = append(events, e)
	}
	return events, nil
}
