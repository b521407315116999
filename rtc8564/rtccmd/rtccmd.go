// Package rtccmd implements a small line-oriented command language for an RTC-8564, for use on a serial console or
// from a host command line. Lines are split into words with shell quoting rules.
//
//	now
//	set 2024-05-06 12:34:56
//	init 2024-05-06 12:34:56
//	alarm
//	alarm set minute=30 hour=7 irq
//	alarm off|flag|clear
//	timer start 1hz 10 repeat irq
//	timer stop|flag|clear|value
//	clkout 1hz|32hz|1024hz|32768hz|off
//	status
package rtccmd

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/ajanata/drivers/rtc8564"
)

// ErrUsage is wrapped by every error caused by a malformed command line.
var ErrUsage = errors.New("usage")

// Clock is the subset of *rtc8564.Device the commands need.
type Clock interface {
	Initialize(rtc8564.DateTime) (bool, error)
	SetDateTime(rtc8564.DateTime) error
	DateTime() (rtc8564.DateTime, error)
	SetAlarm(rtc8564.AlarmEnable, rtc8564.AlarmTime, bool) error
	Alarm() (rtc8564.AlarmEnable, rtc8564.AlarmTime, error)
	ClearAlarmFlag() error
	SetTimer(rtc8564.TimerConfig) error
	ClearTimerFlag() error
	TimerValue() (uint8, error)
	SetClkoutFrequency(bool, rtc8564.ClkoutFrequency) error
	Status() (rtc8564.Status, error)
}

const layout = "2006-01-02 15:04:05"

var timerClocks = map[string]rtc8564.TimerClock{
	"4096hz": rtc8564.Timer4096Hz,
	"64hz":   rtc8564.Timer64Hz,
	"1hz":    rtc8564.Timer1Hz,
	"1/60hz": rtc8564.TimerMinute,
}

var clkoutFrequencies = map[string]rtc8564.ClkoutFrequency{
	"32768hz": rtc8564.Clkout32768Hz,
	"1024hz":  rtc8564.Clkout1024Hz,
	"32hz":    rtc8564.Clkout32Hz,
	"1hz":     rtc8564.Clkout1Hz,
}

// Exec runs one command line against c and returns its output.
func Exec(c Clock, line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUsage, err)
	}
	if len(args) == 0 {
		return "", nil
	}

	switch strings.ToLower(args[0]) {
	case "now":
		dt, err := c.DateTime()
		if err != nil {
			return "", err
		}
		return FormatDateTime(dt), nil
	case "set":
		dt, err := parseDateTime(args[1:])
		if err != nil {
			return "", err
		}
		return done(c.SetDateTime(dt))
	case "init":
		dt, err := parseDateTime(args[1:])
		if err != nil {
			return "", err
		}
		reset, err := c.Initialize(dt)
		if err != nil {
			return "", err
		}
		if reset {
			return "reset", nil
		}
		return "ok", nil
	case "alarm":
		return alarm(c, args[1:])
	case "timer":
		return timer(c, args[1:])
	case "clkout":
		return clkout(c, args[1:])
	case "status":
		st, err := c.Status()
		if err != nil {
			return "", err
		}
		return FormatStatus(st), nil
	}
	return "", usagef("unknown command %q", args[0])
}

// FormatDateTime renders dt like "2024-05-06 12:34:56 Mon".
func FormatDateTime(dt rtc8564.DateTime) string {
	return fmt.Sprintf("%04d-%02d-%02d %02d:%02d:%02d %s",
		rtc8564.BaseYear+int(dt.Year), dt.Month, dt.Day, dt.Hour, dt.Minute, dt.Second,
		time.Weekday(dt.Weekday % 7).String()[:3])
}

// FormatStatus lists the control register 2 bits that are set, or "-".
func FormatStatus(st rtc8564.Status) string {
	var out []string
	if st.AlarmFlag() {
		out = append(out, "alarm-flag")
	}
	if st.TimerFlag() {
		out = append(out, "timer-flag")
	}
	if st.AlarmInterrupt() {
		out = append(out, "alarm-irq")
	}
	if st.TimerInterrupt() {
		out = append(out, "timer-irq")
	}
	if st.TimerRepeat() {
		out = append(out, "timer-repeat")
	}
	if len(out) == 0 {
		return "-"
	}
	return strings.Join(out, " ")
}

// parseDateTime accepts the date and time either as two words or as one quoted word.
func parseDateTime(args []string) (rtc8564.DateTime, error) {
	if len(args) == 0 {
		return rtc8564.DateTime{}, usagef("expected %q", layout)
	}
	t, err := time.Parse(layout, strings.Join(args, " "))
	if err != nil {
		return rtc8564.DateTime{}, usagef("%v", err)
	}
	if t.Year() < rtc8564.BaseYear || t.Year() > rtc8564.BaseYear+199 {
		return rtc8564.DateTime{}, usagef("year %d out of range", t.Year())
	}
	return rtc8564.FromTime(t), nil
}

func alarm(c Clock, args []string) (string, error) {
	if len(args) == 0 {
		enable, at, err := c.Alarm()
		if err != nil {
			return "", err
		}
		return formatAlarm(enable, at), nil
	}

	switch args[0] {
	case "set":
		var (
			enable    rtc8564.AlarmEnable
			at        rtc8564.AlarmTime
			interrupt bool
		)
		for _, arg := range args[1:] {
			if arg == "irq" {
				interrupt = true
				continue
			}
			key, val, ok := strings.Cut(arg, "=")
			if !ok {
				return "", usagef("bad alarm field %q", arg)
			}
			var err error
			switch key {
			case "minute":
				at.Minute, err = parseUint8(key, val, 0, 59)
				enable |= rtc8564.AlarmMinute
			case "hour":
				at.Hour, err = parseUint8(key, val, 0, 23)
				enable |= rtc8564.AlarmHour
			case "day":
				at.Day, err = parseUint8(key, val, 1, 31)
				enable |= rtc8564.AlarmDay
			case "weekday":
				at.Weekday, err = parseUint8(key, val, 0, 6)
				enable |= rtc8564.AlarmWeekday
			default:
				return "", usagef("unknown alarm field %q", key)
			}
			if err != nil {
				return "", err
			}
		}
		return done(c.SetAlarm(enable, at, interrupt))
	case "off":
		return done(c.SetAlarm(rtc8564.AlarmNone, rtc8564.AlarmTime{}, false))
	case "flag":
		st, err := c.Status()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(st.AlarmFlag()), nil
	case "clear":
		return done(c.ClearAlarmFlag())
	}
	return "", usagef("unknown alarm command %q", args[0])
}

func formatAlarm(enable rtc8564.AlarmEnable, at rtc8564.AlarmTime) string {
	if enable == rtc8564.AlarmNone {
		return "off"
	}
	var out []string
	if enable.Has(rtc8564.AlarmMinute) {
		out = append(out, fmt.Sprintf("minute=%d", at.Minute))
	}
	if enable.Has(rtc8564.AlarmHour) {
		out = append(out, fmt.Sprintf("hour=%d", at.Hour))
	}
	if enable.Has(rtc8564.AlarmDay) {
		out = append(out, fmt.Sprintf("day=%d", at.Day))
	}
	if enable.Has(rtc8564.AlarmWeekday) {
		out = append(out, fmt.Sprintf("weekday=%d", at.Weekday))
	}
	return strings.Join(out, " ")
}

func timer(c Clock, args []string) (string, error) {
	if len(args) == 0 {
		return "", usagef("timer start|stop|flag|clear|value")
	}

	switch args[0] {
	case "start":
		if len(args) < 3 {
			return "", usagef("timer start <clock> <count> [repeat] [irq]")
		}
		clock, ok := timerClocks[strings.ToLower(args[1])]
		if !ok {
			return "", usagef("unknown timer clock %q", args[1])
		}
		count, err := parseUint8("count", args[2], 1, 255)
		if err != nil {
			return "", err
		}
		cfg := rtc8564.TimerConfig{Enabled: true, Clock: clock, Counter: count}
		for _, arg := range args[3:] {
			switch arg {
			case "repeat":
				cfg.Repeat = true
			case "irq":
				cfg.Interrupt = true
			default:
				return "", usagef("unknown timer option %q", arg)
			}
		}
		return done(c.SetTimer(cfg))
	case "stop":
		return done(c.SetTimer(rtc8564.TimerConfig{}))
	case "flag":
		st, err := c.Status()
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(st.TimerFlag()), nil
	case "clear":
		return done(c.ClearTimerFlag())
	case "value":
		v, err := c.TimerValue()
		if err != nil {
			return "", err
		}
		return strconv.Itoa(int(v)), nil
	}
	return "", usagef("unknown timer command %q", args[0])
}

func clkout(c Clock, args []string) (string, error) {
	if len(args) != 1 {
		return "", usagef("clkout 32768hz|1024hz|32hz|1hz|off")
	}
	if args[0] == "off" {
		return done(c.SetClkoutFrequency(false, rtc8564.Clkout32768Hz))
	}
	freq, ok := clkoutFrequencies[strings.ToLower(args[0])]
	if !ok {
		return "", usagef("unknown clkout frequency %q", args[0])
	}
	return done(c.SetClkoutFrequency(true, freq))
}

func parseUint8(name, s string, lo, hi uint8) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil || uint8(v) < lo || uint8(v) > hi {
		return 0, usagef("%s must be %d-%d, got %q", name, lo, hi, s)
	}
	return uint8(v), nil
}

func done(err error) (string, error) {
	if err != nil {
		return "", err
	}
	return "ok", nil
}

func usagef(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrUsage, fmt.Sprintf(format, args...))
}
