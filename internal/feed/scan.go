package feed

var tsKey = []byte(`"ts"`)

// scanTimestamp extracts the ts field from a raw tick line without a full
// decode, so lines before the window of interest can be skipped cheaply.
func scanTimestamp(payload []byte) (int64, bool) {
	idx := indexOf(payload, tsKey)
	if idx < 0 {
		return 0, false
	}
	i := idx + len(tsKey)
	for i < len(payload) && payload[i] != ':' {
		i++
	}
	if i >= len(payload) {
		return 0, false
	}
	i++
	for i < len(payload) && isSpace(payload[i]) {
		i++
	}
	if i >= len(payload) || payload[i] < '0' || payload[i] > '9' {
		return 0, false
	}
	var v int64
	for i < len(payload) && payload[i] >= '0' && payload[i] <= '9' {
		v = v*10 + int64(payload[i]-'0')
		i++
	}
	return v, true
}

func indexOf(payload, key []byte) int {
	if len(key) == 0 || len(payload) < len(key) {
		return -1
	}
outer:
	for i := 0; i <= len(payload)-len(key); i++ {
		for j := 0; j < len(key); j++ {
			if payload[i+j] != key[j] {
				continue outer
			}
		}
		return i
	}
	return -1
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
