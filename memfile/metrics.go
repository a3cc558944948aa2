package memfile

// Metrics holds counters of a single file.
type Metrics struct {
	BytesWritten uint64
	BytesRead    uint64

	// BytesEncoded is the raw size of blocks compressed by the codec, BytesCompressed is their compressed size.
	BytesEncoded    uint64
	BytesCompressed uint64

	BulkPasses uint64

	// BlocksCompressed counts blocks moved to the compressed chain, BlocksStored counts those of them
	// kept raw because the codec could not shrink them.
	BlocksCompressed uint64
	BlocksStored     uint64

	Decompressions     uint64
	CacheHits          uint64
	Evictions          uint64
	BoundaryCarries    uint64
	ReserveAllocations uint64
}

// Ratio returns the compression ratio achieved by the codec.
func (m Metrics) Ratio() float64 {
	if m.BytesCompressed == 0 {
		return 0
	}
	return float64(m.BytesEncoded) / float64(m.BytesCompressed)
}
