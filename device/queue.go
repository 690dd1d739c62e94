package device

import (
	"fmt"
)

// Array is a block of float64 values owned by a Queue
type Array interface {
	Len() int
}

// Queue moves arrays between the host and a compute device. Arrays made by
// one queue are only valid with that queue.
type Queue interface {
	ToDevice(host []float64) (Array, error)
	FromDevice(a Array) ([]float64, error)
	Finish() error
	Free()
	Mode() string
}

// HostArray is an Array living in host memory
type HostArray []float64

func (h HostArray) Len() int { return len(h) }

// HostQueue keeps every array in host memory
type HostQueue struct{}

func NewHostQueue() *HostQueue { return &HostQueue{} }

func (HostQueue) ToDevice(host []float64) (Array, error) {
	return HostArray(append([]float64{}, host...)), nil
}

func (HostQueue) FromDevice(a Array) ([]float64, error) {
	h, ok := a.(HostArray)
	if !ok {
		return nil, fmt.Errorf("array of type %T does not belong to the host queue", a)
	}
	return append([]float64{}, h...), nil
}

func (HostQueue) Finish() error { return nil }
func (HostQueue) Free()         {}
func (HostQueue) Mode() string  { return "Host" }

// ToHost reads any array produced by q, host arrays are copied directly
func ToHost(q Queue, a Array) ([]float64, error) {
	if h, ok := a.(HostArray); ok {
		return append([]float64{}, h...), nil
	}
	return q.FromDevice(a)
}

// New returns the queue for mode, "host" always works and "occa" needs a
// binary built with the occa tag
func New(mode string) (Queue, error) {
	switch mode {
	case "", "host", "Host":
		return NewHostQueue(), nil
	case "occa", "OCCA":
		return newOCCAQueue()
	}
	return nil, fmt.Errorf("unknown device mode %q", mode)
}
