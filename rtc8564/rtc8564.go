// Package rtc8564 implements a driver for the Epson RTC-8564 Real-Time Clock (RTC): calendar time, the minute/hour/
// day/weekday alarm, the countdown timer and the CLKOUT pin. Interrupt lines are not serviced; the alarm and timer
// flags are polled instead.
//
// Register writes that touch several bits are always read-modify-write, and the write sequences follow the flow
// charts in the application manual so that no partial alarm, timer or time value is ever live on the chip.
//
// Datasheet: Epson RTC-8564NB application manual, sections 13.5 (flow charts) and 13.6 (I2C protocol).
package rtc8564

import (
	"sync"
	"time"

	"tinygo.org/x/drivers"
)

// Logger receives retry diagnostics. It matches the Debugf method of common leveled loggers.
type Logger interface {
	Debugf(format string, args ...interface{})
}

type Config struct {
	// Address defaults to Address (0x51).
	Address uint8
	// Retries is the number of extra attempts for a failed transfer. 0 selects 3, negative disables retrying.
	Retries int
	// RetryDelay is the pause between attempts, 1ms by default.
	RetryDelay time.Duration
	// Timeout bounds the time spent retrying one transfer, 100ms by default.
	Timeout time.Duration
	// SettleDelay is how long Initialize waits for the oscillator after a power loss, 1s by default.
	SettleDelay time.Duration
	Logger      Logger
}

// TimerConfig describes the countdown timer. The timer counts Counter periods of Clock and then raises the timer
// flag, once or, with Repeat, every time it reloads.
type TimerConfig struct {
	Enabled   bool
	Repeat    bool
	Clock     TimerClock
	Counter   uint8
	Interrupt bool
}

// Status is a snapshot of control register 2, which holds the interrupt enables and the alarm and timer flags.
type Status uint8

func (s Status) TimerInterrupt() bool { return s&TIEBit != 0 }
func (s Status) AlarmInterrupt() bool { return s&AIEBit != 0 }
func (s Status) TimerFlag() bool      { return s&TFBit != 0 }
func (s Status) AlarmFlag() bool      { return s&AFBit != 0 }
func (s Status) TimerRepeat() bool    { return s&TITPBit != 0 }

// Device is one RTC-8564 on an I2C bus. Its methods are safe for concurrent use, but nothing stops other code from
// talking to the chip behind its back.
type Device struct {
	bus     drivers.I2C
	Address uint8

	mu          sync.Mutex
	w           [8]byte
	retries     int
	retryDelay  time.Duration
	timeout     time.Duration
	settleDelay time.Duration
	log         Logger
	sleep       func(time.Duration)
}

// New creates a new driver on the specified preconfigured I2C bus, with the default Config.
func New(bus drivers.I2C) *Device {
	d := &Device{
		bus:   bus,
		sleep: time.Sleep,
	}
	d.Configure(Config{})
	return d
}

func (d *Device) Configure(c Config) {
	if c.Address == 0 {
		c.Address = Address
	}
	if c.Retries == 0 {
		c.Retries = 3
	} else if c.Retries < 0 {
		c.Retries = 0
	}
	if c.RetryDelay == 0 {
		c.RetryDelay = time.Millisecond
	}
	if c.Timeout == 0 {
		c.Timeout = 100 * time.Millisecond
	}
	if c.SettleDelay == 0 {
		c.SettleDelay = time.Second
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.Address = c.Address
	d.retries = c.Retries
	d.retryDelay = c.RetryDelay
	d.timeout = c.Timeout
	d.settleDelay = c.SettleDelay
	d.log = c.Logger
}

// Initialize brings the chip into a known state after it lost power: it waits for the oscillator to settle, stops the
// clock, writes dt, disarms the alarm, selects 32768 Hz on a disabled CLKOUT and stops the timer. If the VL bit is
// clear the chip still keeps valid time and nothing is written. It reports whether the chip was reset.
func (d *Device) Initialize(dt DateTime) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sec, err := d.readRegister(Seconds)
	if err != nil {
		return false, err
	}
	if !SecondsReg(sec).VoltageLow() {
		return false, nil
	}
	d.debugf("rtc8564: voltage low, resetting")

	d.sleep(d.settleDelay)

	// stop the clock and clear all interrupts and flags
	err = d.writeRegisters(Control1, []byte{StopBit, 0})
	if err != nil {
		return false, err
	}
	err = d.setDateTime(dt)
	if err != nil {
		return false, err
	}
	err = d.setAlarm(AlarmNone, AlarmTime{}, false)
	if err != nil {
		return false, err
	}
	err = d.setClkoutFrequency(false, Clkout32768Hz)
	if err != nil {
		return false, err
	}
	return true, d.setTimer(TimerConfig{Clock: Timer4096Hz})
}

// LostPower reports whether the VL bit is set, i.e. the time must be set again.
func (d *Device) LostPower() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	sec, err := d.readRegister(Seconds)
	return SecondsReg(sec).VoltageLow(), err
}

// Stopped reports whether the STOP bit is set and the clock is not counting.
func (d *Device) Stopped() (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c1, err := d.readRegister(Control1)
	return c1&StopBit != 0, err
}

// SetDateTime writes dt with the clock stopped, so no carry can ripple through the registers mid-write. Writing the
// seconds register also clears the VL bit.
func (d *Device) SetDateTime(dt DateTime) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setDateTime(dt)
}

func (d *Device) setDateTime(dt DateTime) error {
	err := d.writeRegister(Control1, StopBit)
	if err != nil {
		return err
	}
	data := dt.Encode()
	err = d.writeRegisters(Seconds, data[:])
	if err != nil {
		return err
	}
	return d.writeRegister(Control1, 0)
}

// DateTime reads the current time in one transfer. It returns ErrVoltageLow if the time is not valid.
func (d *Device) DateTime() (DateTime, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := [7]byte{}
	err := d.readRegisters(Seconds, buf[:])
	if err != nil {
		return DateTime{}, err
	}
	return DecodeDateTime(buf)
}

// Set writes t, converted to UTC.
func (d *Device) Set(t time.Time) error {
	return d.SetDateTime(FromTime(t.UTC()))
}

// Now reads the current time as UTC.
func (d *Device) Now() (time.Time, error) {
	dt, err := d.DateTime()
	if err != nil {
		return time.Time{}, err
	}
	return dt.Time(), nil
}

// SetAlarm arms the fields of at selected by enable. The alarm interrupt is held off while the alarm registers are
// rewritten and then enabled or disabled according to interrupt. The alarm flag is left alone.
func (d *Device) SetAlarm(enable AlarmEnable, at AlarmTime, interrupt bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setAlarm(enable, at, interrupt)
}

func (d *Device) setAlarm(enable AlarmEnable, at AlarmTime, interrupt bool) error {
	c2, err := d.readRegister(Control2)
	if err != nil {
		return err
	}
	c2 &^= AIEBit
	err = d.writeRegister(Control2, c2)
	if err != nil {
		return err
	}

	data := EncodeAlarm(enable, at)
	err = d.writeRegisters(MinuteAlarm, data[:])
	if err != nil {
		return err
	}

	if interrupt {
		c2 |= AIEBit
	}
	return d.writeRegister(Control2, c2)
}

// Alarm reads back the alarm registers.
func (d *Device) Alarm() (AlarmEnable, AlarmTime, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	buf := [4]byte{}
	err := d.readRegisters(MinuteAlarm, buf[:])
	if err != nil {
		return AlarmNone, AlarmTime{}, err
	}
	enable, at := DecodeAlarm(buf)
	return enable, at, nil
}

// AlarmFlag reports whether the alarm has fired since the flag was last cleared.
func (d *Device) AlarmFlag() (bool, error) {
	c2, err := d.Status()
	return c2.AlarmFlag(), err
}

func (d *Device) ClearAlarmFlag() error {
	return d.clearControl2(AFBit)
}

// SetTimer stops the countdown timer and, if cfg.Enabled, configures and restarts it. The timer flag is cleared on
// restart. A disabled cfg leaves the timer stopped and control register 2 untouched.
func (d *Device) SetTimer(cfg TimerConfig) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setTimer(cfg)
}

func (d *Device) setTimer(cfg TimerConfig) error {
	err := d.writeRegister(TimerControl, 0)
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return nil
	}

	c2, err := d.readRegister(Control2)
	if err != nil {
		return err
	}
	c2 &^= TITPBit | TFBit | TIEBit
	err = d.writeRegister(Control2, c2)
	if err != nil {
		return err
	}

	if cfg.Repeat {
		c2 |= TITPBit
	}
	if cfg.Interrupt {
		c2 |= TIEBit
	}
	err = d.writeRegister(Control2, c2)
	if err != nil {
		return err
	}
	err = d.writeRegister(Timer, cfg.Counter)
	if err != nil {
		return err
	}
	// this starts the countdown
	return d.writeRegister(TimerControl, uint8(cfg.Clock&0x03)|TEBit)
}

// TimerFlag reports whether the timer has expired since the flag was last cleared.
func (d *Device) TimerFlag() (bool, error) {
	c2, err := d.Status()
	return c2.TimerFlag(), err
}

func (d *Device) ClearTimerFlag() error {
	return d.clearControl2(TFBit)
}

// TimerValue reads the current countdown value.
func (d *Device) TimerValue() (uint8, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.readRegister(Timer)
}

// SetClkoutFrequency selects the CLKOUT frequency and enables or disables the pin.
func (d *Device) SetClkoutFrequency(enabled bool, freq ClkoutFrequency) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.setClkoutFrequency(enabled, freq)
}

func (d *Device) setClkoutFrequency(enabled bool, freq ClkoutFrequency) error {
	val := uint8(freq) &^ FEBit
	if enabled {
		val |= FEBit
	}
	return d.writeRegister(ClkoutControl, val)
}

// Status reads control register 2.
func (d *Device) Status() (Status, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c2, err := d.readRegister(Control2)
	return Status(c2), err
}

// clearControl2 clears mask in control register 2 without touching any other bit.
func (d *Device) clearControl2(mask uint8) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	c2, err := d.readRegister(Control2)
	if err != nil {
		return err
	}
	return d.writeRegister(Control2, c2&^mask)
}
