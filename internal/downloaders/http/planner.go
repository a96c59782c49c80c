package splithttp

// PlanRanges splits totalSize bytes into contiguous ranges, one per worker.
//
// Every range but the last is totalSize/workers bytes long. The last range
// absorbs the remainder and ends at totalSize, one index past the final
// byte; callers put ByteRange.Clamp on the wire. When there are fewer bytes
// than workers, only totalSize ranges are produced.
func PlanRanges(totalSize int64, workers int) []ByteRange {
	if totalSize <= 0 || workers < 1 {
		return nil
	}
	effective := min(int64(workers), totalSize)
	segmentSize := totalSize / effective
	ranges := make([]ByteRange, effective)
	for i := int64(0); i < effective; i++ {
		ranges[i] = ByteRange{
			Start: i * segmentSize,
			End:   i*segmentSize + segmentSize - 1,
		}
	}
	ranges[effective-1].End = totalSize
	return ranges
}
