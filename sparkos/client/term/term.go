package term

import (
	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"
)

// Write sends payload to the terminal service in MaxMessageBytes chunks.
//
// Each chunk waits at most retry ticks for queue space; the first failing
// result is returned and the rest of the payload is dropped.
func Write(ctx *kernel.Context, termCap kernel.Capability, payload []byte, retry int) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	for len(payload) > 0 {
		chunk := payload
		if len(chunk) > kernel.MaxMessageBytes {
			chunk = chunk[:kernel.MaxMessageBytes]
		}
		res := ctx.SendToCapRetry(termCap, uint16(proto.MsgTermWrite), chunk, kernel.Capability{}, retry)
		if res != kernel.SendOK {
			return res
		}
		payload = payload[len(chunk):]
	}
	return kernel.SendOK
}

// WriteString sends a string to the terminal service.
func WriteString(ctx *kernel.Context, termCap kernel.Capability, s string, retry int) kernel.SendResult {
	return Write(ctx, termCap, []byte(s), retry)
}

// Clear requests a terminal reset/clear.
func Clear(ctx *kernel.Context, termCap kernel.Capability) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	return ctx.SendToCapResult(termCap, uint16(proto.MsgTermClear), nil, kernel.Capability{})
}
