package attinywdt

// Single-register I2C operations. One register per transaction; the bus
// transport guarantees atomicity per Tx and owns any retry policy. Nothing at
// this layer retries, batches, or caches.

// readReg uses local buffers: diagnostic reads may run concurrently with
// control writes and must not share scratch space with them.
func (d *Device) readReg(reg byte) (byte, error) {
	var w, r [1]byte
	w[0] = reg
	if err := d.i2c.Tx(d.addr, w[:], r[:]); err != nil {
		return 0, err
	}
	return r[0], nil
}

// writeReg is only called with d.mu held.
func (d *Device) writeReg(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	return d.i2c.Tx(d.addr, d.w[:2], nil)
}
