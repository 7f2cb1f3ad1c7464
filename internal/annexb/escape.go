package annexb

// EscapeRBSP inserts an emulation prevention byte (0x03) after every pair
// of zero bytes that is followed by a byte <= 0x03, and after a trailing
// pair of zero bytes. The input is returned as is when nothing needs
// escaping.
func EscapeRBSP(rbsp []byte) []byte {
	if !needsEscape(rbsp) {
		return rbsp
	}
	out := make([]byte, 0, len(rbsp)+len(rbsp)/2)
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 3 {
			out = append(out, 3)
			zeros = 0
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	if zeros >= 2 {
		out = append(out, 3)
	}
	return out
}

func needsEscape(rbsp []byte) bool {
	zeros := 0
	for _, b := range rbsp {
		if zeros >= 2 && b <= 3 {
			return true
		}
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return zeros >= 2
}

// UnescapeRBSP removes emulation prevention bytes from a NAL unit payload.
func UnescapeRBSP(payload []byte) []byte {
	out := make([]byte, 0, len(payload))
	zeros := 0
	for i, b := range payload {
		if zeros >= 2 && b == 3 {
			// A trailing 0x03 and one followed by a byte <= 0x03 are both
			// emulation prevention bytes.
			if i+1 == len(payload) || payload[i+1] <= 3 {
				zeros = 0
				continue
			}
		}
		out = append(out, b)
		if b == 0 {
			zeros++
		} else {
			zeros = 0
		}
	}
	return out
}
