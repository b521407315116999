package rtc8564

import "time"

// BaseYear is the calendar year stored as year offset 0.
const BaseYear = 2000

// DateTime is the calendar time as held by the chip. Year is an offset from BaseYear in the range 0-199, the century
// bit covering the upper half. Weekday counts from 0 (Sunday) to 6. Fields are not range checked.
type DateTime struct {
	Second  uint8
	Minute  uint8
	Hour    uint8
	Day     uint8
	Month   uint8
	Year    uint8
	Weekday uint8
}

// AlarmTime holds the comparison values of the alarm registers.
type AlarmTime struct {
	Minute  uint8
	Hour    uint8
	Day     uint8
	Weekday uint8
}

// AlarmEnable selects which AlarmTime fields take part in the alarm comparison.
type AlarmEnable uint8

const (
	AlarmNone    AlarmEnable = 0
	AlarmMinute  AlarmEnable = 0x01
	AlarmHour    AlarmEnable = 0x02
	AlarmDay     AlarmEnable = 0x04
	AlarmWeekday AlarmEnable = 0x08
	AlarmAll                 = AlarmMinute | AlarmHour | AlarmDay | AlarmWeekday
)

// Has reports whether every field in f is enabled.
func (e AlarmEnable) Has(f AlarmEnable) bool {
	return e&f == f
}

// SecondsReg is the raw seconds register.
type SecondsReg uint8

// VoltageLow reports whether the oscillator stopped since the time was last set. Time read alongside it is undefined.
func (r SecondsReg) VoltageLow() bool {
	return r&VLBit != 0
}

func (r SecondsReg) Value() uint8 {
	return bcdToDec(uint8(r) & 0x7F)
}

// MonthReg is the raw month/century register.
type MonthReg uint8

// Century reports whether the year lies 100 years after the stored two-digit year.
func (r MonthReg) Century() bool {
	return r&CenturyBit != 0
}

func (r MonthReg) Value() uint8 {
	return bcdToDec(uint8(r) & 0x1F)
}

// AlarmReg is one raw alarm register.
type AlarmReg uint8

// Armed reports whether the field takes part in the alarm comparison. The chip's AE bit is set for fields that don't.
func (r AlarmReg) Armed() bool {
	return r&AEBit == 0
}

// Encode packs dt into the seven time registers, starting with Seconds.
func (dt DateTime) Encode() [7]byte {
	data := [7]byte{
		decToBcd(dt.Second),
		decToBcd(dt.Minute),
		decToBcd(dt.Hour),
		decToBcd(dt.Day),
		decToBcd(dt.Weekday),
		decToBcd(dt.Month),
		decToBcd(dt.Year),
	}
	if dt.Year >= 100 {
		data[5] |= CenturyBit
		data[6] = decToBcd(dt.Year - 100)
	}
	return data
}

// DecodeDateTime unpacks the seven time registers. It returns ErrVoltageLow if the VL bit is set.
func DecodeDateTime(data [7]byte) (DateTime, error) {
	sec := SecondsReg(data[0])
	if sec.VoltageLow() {
		return DateTime{}, ErrVoltageLow
	}
	month := MonthReg(data[5])

	dt := DateTime{
		Second:  sec.Value(),
		Minute:  bcdToDec(data[1] & 0x7F),
		Hour:    bcdToDec(data[2] & 0x3F),
		Day:     bcdToDec(data[3] & 0x3F),
		Weekday: bcdToDec(data[4] & 0x07),
		Month:   month.Value(),
		Year:    bcdToDec(data[6]),
	}
	if month.Century() {
		dt.Year += 100
	}
	return dt, nil
}

// EncodeAlarm packs at into the four alarm registers. Fields not in enable are written with only the AE bit set.
func EncodeAlarm(enable AlarmEnable, at AlarmTime) [4]byte {
	values := [4]uint8{at.Minute, at.Hour, at.Day, at.Weekday}
	var data [4]byte
	for i, v := range values {
		if enable&(1<<i) != 0 {
			data[i] = decToBcd(v)
		} else {
			data[i] = AEBit
		}
	}
	return data
}

// DecodeAlarm unpacks the four alarm registers. Fields that are not armed are left zero.
func DecodeAlarm(data [4]byte) (AlarmEnable, AlarmTime) {
	masks := [4]uint8{0x7F, 0x3F, 0x3F, 0x07}
	var values [4]uint8
	var enable AlarmEnable
	for i, b := range data {
		if !AlarmReg(b).Armed() {
			continue
		}
		enable |= 1 << i
		values[i] = bcdToDec(b & masks[i])
	}
	return enable, AlarmTime{
		Minute:  values[0],
		Hour:    values[1],
		Day:     values[2],
		Weekday: values[3],
	}
}

// FromTime converts t, in its own location, to a DateTime. Years outside BaseYear to BaseYear+199 do not fit.
func FromTime(t time.Time) DateTime {
	return DateTime{
		Second:  uint8(t.Second()),
		Minute:  uint8(t.Minute()),
		Hour:    uint8(t.Hour()),
		Day:     uint8(t.Day()),
		Month:   uint8(t.Month()),
		Year:    uint8(t.Year() - BaseYear),
		Weekday: uint8(t.Weekday()),
	}
}

// Time returns dt as a UTC time. The weekday register is ignored.
func (dt DateTime) Time() time.Time {
	return time.Date(BaseYear+int(dt.Year), time.Month(dt.Month), int(dt.Day),
		int(dt.Hour), int(dt.Minute), int(dt.Second), 0, time.UTC)
}

// decToBcd converts 0-99 to BCD
func decToBcd(dec uint8) uint8 {
	return dec + 6*(dec/10)
}

// bcdToDec converts BCD to 0-99
func bcdToDec(bcd uint8) uint8 {
	return bcd - 6*(bcd>>4)
}
