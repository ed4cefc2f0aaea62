package runtime

import (
	"go.uber.org/zap"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

const unknownError = "unknown error"

// nativeFailure turns a sentinel return from op into an error carrying the
// engine's last-error message. It must run inside Library.Do directly after
// the failing call. The message string belongs to the engine and is not
// freed.
func (r *Runtime) nativeFailure(phase errors.Phase, op string) error {
	return r.fail(phase, op, func() (string, error) {
		p := r.lib.LastError()
		if p == 0 {
			return "", nil
		}
		return r.lib.ReadCString(p)
	})
}

// envelopeFailure is nativeFailure for calls that report their message in
// the result envelope. readErr is the error hit copying that message.
func (r *Runtime) envelopeFailure(op, msg string, readErr error) error {
	return r.fail(errors.PhaseConvert, op, func() (string, error) { return msg, readErr })
}

// fail is the single constructor of engine-reported errors. A pending
// backend fault takes precedence over the engine's own message. A message
// that cannot be read becomes the cause of an "unknown error".
func (r *Runtime) fail(phase errors.Phase, op string, message func() (string, error)) error {
	r.metrics.NativeFailure(op)
	if err := r.takeFault(); err != nil {
		return err
	}
	msg, readErr := message()
	if readErr != nil {
		Logger().Warn("cannot read engine error message", zap.String("op", op), zap.Error(readErr))
		msg = ""
	}
	if msg == "" {
		msg = unknownError
	}
	e := errors.Native(phase, op, msg)
	e.Cause = readErr
	return e
}

// absent is called when op returned null meaning "no value". It reports a
// backend fault if one explains the null instead.
func (r *Runtime) absent(op string) error {
	if err := r.takeFault(); err != nil {
		r.metrics.NativeFailure(op)
		return err
	}
	return nil
}

func (r *Runtime) takeFault() error {
	if f, ok := r.lib.(unpdf.Faulter); ok {
		return f.Fault()
	}
	return nil
}

// discardFault logs and clears a fault raised by a call whose sentinel
// already tells the caller everything.
func (r *Runtime) discardFault(op string) {
	if err := r.takeFault(); err != nil {
		r.metrics.NativeFailure(op)
		Logger().Warn("engine call faulted", zap.String("op", op), zap.Error(err))
	}
}
