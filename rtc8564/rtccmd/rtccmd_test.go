package rtccmd

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"tinygo.org/x/drivers/tester"

	"github.com/ajanata/drivers/rtc8564"
)

func newClock(c *qt.C) (*rtc8564.Device, *tester.I2CDevice8) {
	bus := tester.NewI2CBus(c)
	fake := tester.NewI2CDevice(c, rtc8564.Address)
	bus.AddDevice(fake)
	return rtc8564.New(bus), fake
}

func TestSetNow(t *testing.T) {
	c := qt.New(t)
	dev, fake := newClock(c)

	out, err := Exec(dev, "set 2024-05-06 12:34:56")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "ok")
	c.Assert(fake.Registers[rtc8564.Control1], qt.Equals, uint8(0))

	out, err = Exec(dev, "now")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "2024-05-06 12:34:56 Mon")

	out, err = Exec(dev, `set "2150-01-01 00:00:00"`)
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.MonthCentury], qt.Equals, uint8(rtc8564.CenturyBit|0x01))
	out, err = Exec(dev, "NOW")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "2150-01-01 00:00:00 Thu")
}

func TestNowVoltageLow(t *testing.T) {
	c := qt.New(t)
	dev, fake := newClock(c)
	fake.Registers[rtc8564.Seconds] = rtc8564.VLBit

	_, err := Exec(dev, "now")
	c.Assert(err, qt.ErrorIs, rtc8564.ErrVoltageLow)
}

func TestInit(t *testing.T) {
	c := qt.New(t)
	dev, fake := newClock(c)
	dev.Configure(rtc8564.Config{SettleDelay: 1})
	fake.Registers[rtc8564.Seconds] = rtc8564.VLBit
	fake.Registers[rtc8564.TimerControl] = rtc8564.TEBit

	out, err := Exec(dev, "init 2024-01-01 00:00:00")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "reset")
	c.Assert(fake.Registers[rtc8564.TimerControl], qt.Equals, uint8(0))
	c.Assert(fake.Registers[rtc8564.MinuteAlarm], qt.Equals, uint8(rtc8564.AEBit))

	out, err = Exec(dev, "init 2024-01-01 00:00:00")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "ok")
}

func TestAlarm(t *testing.T) {
	c := qt.New(t)
	dev, fake := newClock(c)

	out, err := Exec(dev, "alarm set minute=30 hour=7 irq")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "ok")
	c.Assert(fake.Registers[rtc8564.MinuteAlarm], qt.Equals, uint8(0x30))
	c.Assert(fake.Registers[rtc8564.HourAlarm], qt.Equals, uint8(0x07))
	c.Assert(fake.Registers[rtc8564.DayAlarm], qt.Equals, uint8(rtc8564.AEBit))
	c.Assert(fake.Registers[rtc8564.Control2], qt.Equals, uint8(rtc8564.AIEBit))

	out, err = Exec(dev, "alarm")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "minute=30 hour=7")

	out, err = Exec(dev, "alarm flag")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "false")

	fake.Registers[rtc8564.Control2] |= rtc8564.AFBit
	out, err = Exec(dev, "alarm flag")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "true")
	out, err = Exec(dev, "status")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "alarm-flag alarm-irq")

	_, err = Exec(dev, "alarm clear")
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.Control2], qt.Equals, uint8(rtc8564.AIEBit))

	_, err = Exec(dev, "alarm off")
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.Control2], qt.Equals, uint8(0))
	out, err = Exec(dev, "alarm")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "off")
}

func TestTimer(t *testing.T) {
	c := qt.New(t)
	dev, fake := newClock(c)

	out, err := Exec(dev, "timer start 1/60hz 10 repeat")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "ok")
	c.Assert(fake.Registers[rtc8564.Timer], qt.Equals, uint8(10))
	c.Assert(fake.Registers[rtc8564.TimerControl], qt.Equals, uint8(rtc8564.TEBit|uint8(rtc8564.TimerMinute)))
	c.Assert(fake.Registers[rtc8564.Control2], qt.Equals, uint8(rtc8564.TITPBit))

	out, err = Exec(dev, "timer value")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "10")

	fake.Registers[rtc8564.Control2] |= rtc8564.TFBit
	out, err = Exec(dev, "timer flag")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "true")
	_, err = Exec(dev, "timer clear")
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.Control2], qt.Equals, uint8(rtc8564.TITPBit))

	_, err = Exec(dev, "timer stop")
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.TimerControl], qt.Equals, uint8(0))
}

func TestClkout(t *testing.T) {
	c := qt.New(t)
	dev, fake := newClock(c)

	_, err := Exec(dev, "clkout 32Hz")
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.ClkoutControl], qt.Equals, uint8(rtc8564.FEBit|uint8(rtc8564.Clkout32Hz)))

	_, err = Exec(dev, "clkout off")
	c.Assert(err, qt.IsNil)
	c.Assert(fake.Registers[rtc8564.ClkoutControl], qt.Equals, uint8(0))
}

func TestUsage(t *testing.T) {
	c := qt.New(t)
	dev, _ := newClock(c)

	for _, line := range []string{
		"bogus",
		"set",
		"set 2024-13-01 00:00:00",
		"set 1999-12-31 23:59:59",
		"alarm set minute=60",
		"alarm set second=1",
		"alarm set minute",
		"alarm snooze",
		"timer",
		"timer start 2hz 10",
		"timer start 1hz 0",
		"timer start 1hz 256",
		"timer start 1hz 5 forever",
		"clkout",
		"clkout 2hz",
		`now "unterminated`,
	} {
		_, err := Exec(dev, line)
		c.Check(err, qt.ErrorIs, ErrUsage, qt.Commentf("%s", line))
	}

	out, err := Exec(dev, "   ")
	c.Assert(err, qt.IsNil)
	c.Assert(out, qt.Equals, "")
}

func TestFormatStatus(t *testing.T) {
	c := qt.New(t)
	c.Assert(FormatStatus(0), qt.Equals, "-")
	c.Assert(FormatStatus(rtc8564.TFBit|rtc8564.TIEBit|rtc8564.TITPBit), qt.Equals, "timer-flag timer-irq timer-repeat")
}
