package utils

const (
	NODETOL = 1.e-12
	// FLIPTOL bounds ||F*F - I|| relative to ||I|| for a flip matrix
	FLIPTOL = 1.e-12
	// ZEROTOL is the magnitude below which resampling entries are dropped
	ZEROTOL = 1.e-15
)
