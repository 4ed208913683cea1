package conv

import "testing"

func TestU8Hex0x(t *testing.T) {
	cases := []struct {
		in   uint8
		want string
	}{
		{0x00, "0x00"},
		{0x06, "0x06"},
		{0x2a, "0x2a"},
		{0xff, "0xff"},
	}
	var buf [4]byte
	for _, c := range cases {
		if got := string(U8Hex0x(buf[:], c.in)); got != c.want {
			t.Fatalf("U8Hex0x(%d) = %q, want %q", c.in, got, c.want)
		}
		if got := U8Hex0xString(c.in); got != c.want {
			t.Fatalf("U8Hex0xString(%d) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestU8Hex0x_ShortBuffer(t *testing.T) {
	var buf [2]byte
	if got := U8Hex0x(buf[:], 0x12); len(got) != 0 {
		t.Fatalf("short buffer returned %q", got)
	}
}
