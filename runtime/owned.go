package runtime

import (
	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/metrics"
)

// Owned payloads are copied into Go memory and released before the copy is
// returned, on every path. These helpers run inside Library.Do.

// takeString copies and frees the non-null owned string at p.
func (r *Runtime) takeString(p unpdf.Ptr) (string, error) {
	r.metrics.Allocated(metrics.KindString)
	defer func() {
		r.lib.FreeString(p)
		r.metrics.Released(metrics.KindString)
	}()

	return r.lib.ReadCString(p)
}

// takeBytes copies and frees the non-null owned buffer at p.
func (r *Runtime) takeBytes(p unpdf.Ptr, n int) ([]byte, error) {
	r.metrics.Allocated(metrics.KindBytes)
	defer func() {
		r.lib.FreeBytes(p, n)
		r.metrics.Released(metrics.KindBytes)
	}()

	if n == 0 {
		return []byte{}, nil
	}
	return r.lib.Read(p, n)
}

// takeEnvelope copies the payload of env and releases the envelope once.
// A failed envelope becomes a native error carrying the engine's message.
// An envelope with neither payload owns nothing and is not released.
func (r *Runtime) takeEnvelope(op string, env unpdf.Envelope) (string, error) {
	if env.Data == 0 && env.Error == 0 {
		if env.Success {
			return "", nil
		}
		return "", r.envelopeFailure(op, "", nil)
	}

	r.metrics.Allocated(metrics.KindEnvelope)
	defer func() {
		r.lib.FreeResult(env)
		r.metrics.Released(metrics.KindEnvelope)
	}()

	if !env.Success {
		msg, err := r.lib.ReadCString(env.Error)
		return "", r.envelopeFailure(op, msg, err)
	}
	if env.Data == 0 {
		return "", nil
	}
	return r.lib.ReadCString(env.Data)
}
