package utils

const (
	// NODETOL is the relative tolerance below which a length is treated as zero
	NODETOL = 1.e-12
)
