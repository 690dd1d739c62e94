//go:build !occa

package device

import (
	"fmt"
)

func newOCCAQueue() (Queue, error) {
	return nil, fmt.Errorf("OCCA support is not built in, rebuild with -tags occa")
}
