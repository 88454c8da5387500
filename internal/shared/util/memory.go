package util

import (
	"runtime"
)

type HeapStats struct {
	AllocBytes uint64
	SysBytes   uint64
	NumGC      uint32
}

// ReadHeapStats samples the runtime allocator. It briefly stops the world, so
// call it around loads rather than per query.
func ReadHeapStats() HeapStats {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return HeapStats{
		AllocBytes: m.Alloc,
		SysBytes:   m.Sys,
		NumGC:      m.NumGC,
	}
}
