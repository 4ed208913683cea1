package conv

const hexd = "0123456789abcdef"

// U8Hex0x writes "0xNN" lowercase, zero-padded. Needs a 4-byte buffer.
// This is the textual register format exposed to diagnostics tooling.
func U8Hex0x(buf []byte, n uint8) []byte {
	if len(buf) < 4 {
		return buf[:0]
	}
	buf[0] = '0'
	buf[1] = 'x'
	buf[2] = hexd[n>>4]
	buf[3] = hexd[n&0xF]
	return buf[:4]
}

// U8Hex0xString is the allocating convenience form of U8Hex0x.
func U8Hex0xString(n uint8) string {
	var buf [4]byte
	return string(U8Hex0x(buf[:], n))
}
