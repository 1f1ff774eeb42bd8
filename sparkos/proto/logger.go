package proto

// LogLinePayload encodes a MsgLogLine payload.
//
// Convention:
//   - Payload is UTF-8 bytes without a trailing newline.
//   - Lines longer than max bytes are cut, never split across messages.
//   - Delivery is best-effort; callers may drop on overflow.
func LogLinePayload(line string, max int) []byte {
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	if max >= 0 && len(line) > max {
		line = line[:max]
	}
	return []byte(line)
}
