package proto

import "encoding/binary"

// MaxCalcTokenBytes bounds a MsgCalcKey token.
const MaxCalcTokenBytes = 8

// CalcKeyPayload encodes a MsgCalcKey payload.
//
// Layout (little-endian):
//   - u8: token length
//   - bytes: token (e.g. "7", "+/-", "=")
func CalcKeyPayload(token string) []byte {
	if len(token) > MaxCalcTokenBytes {
		token = token[:MaxCalcTokenBytes]
	}
	buf := make([]byte, 1+len(token))
	buf[0] = byte(len(token))
	copy(buf[1:], token)
	return buf
}

// DecodeCalcKeyPayload decodes a CalcKeyPayload.
func DecodeCalcKeyPayload(payload []byte) (token string, ok bool) {
	if len(payload) < 1 {
		return "", false
	}
	n := int(payload[0])
	if n > MaxCalcTokenBytes || len(payload) < 1+n {
		return "", false
	}
	return string(payload[1 : 1+n]), true
}

// CalcDisplayRespPayload encodes a MsgCalcDisplayResp payload.
//
// Layout (little-endian):
//   - u16: display length
//   - bytes: display text
//
// ok is false when the text does not fit in max bytes.
func CalcDisplayRespPayload(display string, max int) (payload []byte, ok bool) {
	if 2+len(display) > max {
		return nil, false
	}
	buf := make([]byte, 2+len(display))
	binary.LittleEndian.PutUint16(buf[0:2], uint16(len(display)))
	copy(buf[2:], display)
	return buf, true
}

// DecodeCalcDisplayRespPayload decodes a CalcDisplayRespPayload.
func DecodeCalcDisplayRespPayload(payload []byte) (display string, ok bool) {
	if len(payload) < 2 {
		return "", false
	}
	n := int(binary.LittleEndian.Uint16(payload[0:2]))
	if len(payload) < 2+n {
		return "", false
	}
	return string(payload[2 : 2+n]), true
}
