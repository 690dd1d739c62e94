//go:build occa

package device

import (
	"fmt"
	"unsafe"

	"github.com/notargets/gocca"

	"github.com/notargets/fembem/utils"
)

// Backends tried in order when opening an OCCA device
var Backends = []string{
	`{"mode": "OpenMP"}`,
	`{"mode": "CUDA", "device_id": 0}`,
	`{"mode": "Serial"}`,
}

type OCCAArray struct {
	mem *gocca.OCCAMemory
	n   int
}

func (a *OCCAArray) Len() int { return a.n }

// OCCAQueue holds arrays in the memory of an OCCA device
type OCCAQueue struct {
	Device *gocca.OCCADevice
	arrays []*OCCAArray
}

func newOCCAQueue() (Queue, error) { return NewOCCAQueue() }

// NewOCCAQueue opens the first backend that is available
func NewOCCAQueue() (q *OCCAQueue, err error) {
	for _, props := range Backends {
		var dev *gocca.OCCADevice
		if dev, err = gocca.NewDevice(props); err == nil {
			utils.Log().Infow("opened device", "mode", dev.Mode())
			return &OCCAQueue{Device: dev}, nil
		}
		utils.Log().Debugw("device backend unavailable", "props", props, "error", err)
	}
	return nil, fmt.Errorf("no OCCA backend available: %v", err)
}

func (q *OCCAQueue) ToDevice(host []float64) (Array, error) {
	a := &OCCAArray{n: len(host)}
	if len(host) == 0 {
		return a, nil
	}
	a.mem = q.Device.Malloc(int64(len(host)*8), unsafe.Pointer(&host[0]), nil)
	if a.mem == nil {
		return nil, fmt.Errorf("device allocation of %d values failed", len(host))
	}
	q.arrays = append(q.arrays, a)
	return a, nil
}

func (q *OCCAQueue) FromDevice(a Array) (host []float64, err error) {
	oa, ok := a.(*OCCAArray)
	if !ok {
		return nil, fmt.Errorf("array of type %T does not belong to the OCCA queue", a)
	}
	host = make([]float64, oa.n)
	if oa.n == 0 {
		return
	}
	q.Device.Finish()
	oa.mem.CopyTo(unsafe.Pointer(&host[0]), int64(oa.n*8))
	return
}

func (q *OCCAQueue) Finish() error {
	q.Device.Finish()
	return nil
}

// Free releases every array made by the queue and the device
func (q *OCCAQueue) Free() {
	for _, a := range q.arrays {
		a.mem.Free()
	}
	q.arrays = nil
	q.Device.Free()
}

func (q *OCCAQueue) Mode() string { return q.Device.Mode() }
