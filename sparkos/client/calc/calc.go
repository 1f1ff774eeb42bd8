// Package calc is the IPC client of the calculator task.
package calc

import (
	"errors"
	"fmt"

	"pocketcalc/sparkos/kernel"
	"pocketcalc/sparkos/proto"
)

// ErrRemote is wrapped by errors returned from a MsgError reply.
var ErrRemote = errors.New("calculator error")

// Press forwards one keypad token, e.g. "7" or "+/-".
func Press(ctx *kernel.Context, calcCap kernel.Capability, token string) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	return ctx.SendToCapResult(calcCap, uint16(proto.MsgCalcKey), proto.CalcKeyPayload(token), kernel.Capability{})
}

// Reset clears the calculator.
func Reset(ctx *kernel.Context, calcCap kernel.Capability) kernel.SendResult {
	if ctx == nil {
		return kernel.SendErrInvalidFromCap
	}
	return ctx.SendToCapResult(calcCap, uint16(proto.MsgCalcReset), nil, kernel.Capability{})
}

// Display asks the calculator for its display text and waits for the reply on
// replyCap, which must carry both rights. The request is sent from replyCap's
// endpoint.
//
// Messages on replyCap other than the reply are discarded.
func Display(ctx *kernel.Context, calcCap, replyCap kernel.Capability) (string, error) {
	if ctx == nil {
		return "", fmt.Errorf("calc display: nil context")
	}
	res := ctx.SendCapResult(replyCap, calcCap, uint16(proto.MsgCalcDisplay), nil, replyCap.Restrict(kernel.RightSend))
	if res != kernel.SendOK {
		return "", fmt.Errorf("calc display send: %s", res)
	}

	for {
		msg, ok := ctx.Recv(replyCap)
		if !ok {
			return "", fmt.Errorf("calc display: reply endpoint closed")
		}
		switch proto.Kind(msg.Kind) {
		case proto.MsgCalcDisplayResp:
			text, ok := proto.DecodeCalcDisplayRespPayload(msg.Payload())
			if !ok {
				return "", fmt.Errorf("calc display: malformed reply")
			}
			return text, nil
		case proto.MsgError:
			code, ref, _, ok := proto.DecodeErrorPayload(msg.Payload())
			if !ok || ref != proto.MsgCalcDisplay {
				continue
			}
			return "", fmt.Errorf("calc display: %s: %w", code, ErrRemote)
		}
	}
}
