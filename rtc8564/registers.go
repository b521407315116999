package rtc8564

const Address = 0x51 // I2C address for RTC-8564

// Registers
const (
	Control1      = 0x00 // Control register 1, holds the STOP bit
	Control2      = 0x01 // Control register 2, interrupt enables and flags
	Seconds       = 0x02 // Time registers starting with seconds, also holds VL
	Minutes       = 0x03
	Hours         = 0x04
	Days          = 0x05
	Weekdays      = 0x06
	MonthCentury  = 0x07 // Month, also holds the century bit
	Years         = 0x08
	MinuteAlarm   = 0x09 // Alarm registers starting with minutes
	HourAlarm     = 0x0A
	DayAlarm      = 0x0B
	WeekdayAlarm  = 0x0C
	ClkoutControl = 0x0D // CLKOUT enable and frequency select
	TimerControl  = 0x0E // Timer enable and source clock
	Timer         = 0x0F // Timer countdown value
)

// Control1 bits
const (
	StopBit = 0x20
)

// Control2 bits
const (
	TIEBit  = 0x01 // timer interrupt enable
	AIEBit  = 0x02 // alarm interrupt enable
	TFBit   = 0x04 // timer flag
	AFBit   = 0x08 // alarm flag
	TITPBit = 0x10 // timer repeat (pulse) mode
)

// Calendar bits. Both live at bit 7, VL in the seconds register and C in the month register.
const (
	VLBit      = 0x80
	CenturyBit = 0x80
)

// AEBit is set in an alarm register to exclude that field from the alarm comparison.
const AEBit = 0x80

// TEBit starts the countdown timer when set in TimerControl.
const TEBit = 0x80

// FEBit enables the CLKOUT pin when set in ClkoutControl.
const FEBit = 0x80

// TimerClock selects the source clock of the countdown timer.
type TimerClock uint8

const (
	Timer4096Hz TimerClock = iota // 244 µs period
	Timer64Hz                     // 15.625 ms period
	Timer1Hz
	TimerMinute // 1/60 Hz
)

// ClkoutFrequency selects the frequency emitted on the CLKOUT pin.
type ClkoutFrequency uint8

const (
	Clkout32768Hz ClkoutFrequency = iota
	Clkout1024Hz
	Clkout32Hz
	Clkout1Hz
)
