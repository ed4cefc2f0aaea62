package engine

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/tetratelabs/wazero/api"

	"github.com/iyulab/unpdf"
	"github.com/iyulab/unpdf/errors"
)

// WazeroMemory wraps wazero memory to implement unpdf.Memory
type WazeroMemory struct {
	mem api.Memory
}

// NewMemory wraps a guest's linear memory.
func NewMemory(mem api.Memory) *WazeroMemory {
	return &WazeroMemory{mem: mem}
}

func offset(p unpdf.Ptr, length int) (uint32, bool) {
	if uint64(p) > math.MaxUint32 || length < 0 || uint64(length) > math.MaxUint32 {
		return 0, false
	}
	return uint32(p), true
}

// Read copies length bytes at p out of linear memory.
func (m *WazeroMemory) Read(p unpdf.Ptr, length int) ([]byte, error) {
	if p == 0 {
		return nil, errors.NilPointer(errors.PhaseMemory, "read")
	}
	off, ok := offset(p, length)
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, uint64(p), length)
	}
	view, ok := m.mem.Read(off, uint32(length))
	if !ok {
		return nil, errors.OutOfBounds(errors.PhaseMemory, uint64(p), length)
	}
	out := make([]byte, length)
	copy(out, view)
	return out, nil
}

// ReadCString copies the NUL-terminated string at p out of linear memory.
func (m *WazeroMemory) ReadCString(p unpdf.Ptr) (string, error) {
	if p == 0 {
		return "", errors.NilPointer(errors.PhaseMemory, "read_cstring")
	}
	off, ok := offset(p, 0)
	size := m.mem.Size()
	if !ok || off >= size {
		return "", errors.OutOfBounds(errors.PhaseMemory, uint64(p), 0)
	}
	view, _ := m.mem.Read(off, size-off)
	end := bytes.IndexByte(view, 0)
	if end < 0 {
		return "", errors.OutOfBounds(errors.PhaseMemory, uint64(p), len(view))
	}
	return string(view[:end]), nil
}

// Write copies data into linear memory at p.
func (m *WazeroMemory) Write(p unpdf.Ptr, data []byte) error {
	if p == 0 {
		return errors.NilPointer(errors.PhaseMemory, "write")
	}
	off, ok := offset(p, len(data))
	if !ok || !m.mem.Write(off, data) {
		return errors.OutOfBounds(errors.PhaseMemory, uint64(p), len(data))
	}
	return nil
}

func (m *WazeroMemory) ReadU32(p unpdf.Ptr) (uint32, error) {
	off, ok := offset(p, 4)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, uint64(p), 4)
	}
	val, ok := m.mem.ReadUint32Le(off)
	if !ok {
		return 0, errors.OutOfBounds(errors.PhaseMemory, uint64(p), 4)
	}
	return val, nil
}

func (m *WazeroMemory) WriteU32(p unpdf.Ptr, value uint32) error {
	off, ok := offset(p, 4)
	if !ok || !m.mem.WriteUint32Le(off, value) {
		return errors.OutOfBounds(errors.PhaseMemory, uint64(p), 4)
	}
	return nil
}

// ReadEnvelope decodes a result struct stored at p.
func (m *WazeroMemory) ReadEnvelope(p unpdf.Ptr) (unpdf.Envelope, error) {
	raw, err := m.Read(p, envelopeSize)
	if err != nil {
		return unpdf.Envelope{}, err
	}
	return unpdf.Envelope{
		Success: raw[envelopeSuccessOff] != 0,
		Data:    unpdf.Ptr(binary.LittleEndian.Uint32(raw[envelopeDataOff:])),
		Error:   unpdf.Ptr(binary.LittleEndian.Uint32(raw[envelopeErrorOff:])),
	}, nil
}

// WriteEnvelope encodes env as a result struct at p.
func (m *WazeroMemory) WriteEnvelope(p unpdf.Ptr, env unpdf.Envelope) error {
	raw := make([]byte, envelopeSize)
	if env.Success {
		raw[envelopeSuccessOff] = 1
	}
	binary.LittleEndian.PutUint32(raw[envelopeDataOff:], uint32(env.Data))
	binary.LittleEndian.PutUint32(raw[envelopeErrorOff:], uint32(env.Error))
	return m.Write(p, raw)
}

// Size returns the current size of linear memory in bytes.
func (m *WazeroMemory) Size() uint32 {
	if m.mem == nil {
		return 0
	}
	return m.mem.Size()
}

// Compile-time check that WazeroMemory implements unpdf.Memory
var _ unpdf.Memory = (*WazeroMemory)(nil)
