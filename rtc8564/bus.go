package rtc8564

import "time"

// writeRegisters writes data to consecutive registers starting at reg in a single transfer.
func (d *Device) writeRegisters(reg uint8, data []byte) error {
	d.w[0] = reg
	n := copy(d.w[1:], data)
	return d.tx("write", reg, d.w[:n+1], nil)
}

// readRegisters fills buf from consecutive registers starting at reg in a single transfer.
func (d *Device) readRegisters(reg uint8, buf []byte) error {
	d.w[0] = reg
	return d.tx("read", reg, d.w[:1], buf)
}

func (d *Device) readRegister(reg uint8) (uint8, error) {
	buf := [1]byte{}
	err := d.readRegisters(reg, buf[:])
	return buf[0], err
}

func (d *Device) writeRegister(reg, val uint8) error {
	buf := [1]byte{val}
	return d.writeRegisters(reg, buf[:])
}

// tx retries a failed transfer until it succeeds, the retries run out or the timeout passes, whichever comes first.
// The bus is expected to return rather than block when the chip does not acknowledge.
func (d *Device) tx(op string, reg uint8, w, r []byte) error {
	start := time.Now()
	attempts := 0
	for {
		attempts++
		err := d.bus.Tx(uint16(d.Address), w, r)
		if err == nil {
			return nil
		}
		if attempts > d.retries || time.Since(start) >= d.timeout {
			return &BusTimeoutError{Op: op, Register: reg, Attempts: attempts, Err: err}
		}
		d.debugf("rtc8564: %s 0x%02X attempt %d: %v", op, reg, attempts, err)
		d.sleep(d.retryDelay)
	}
}

func (d *Device) debugf(format string, args ...interface{}) {
	if d.log != nil {
		d.log.Debugf(format, args...)
	}
}
