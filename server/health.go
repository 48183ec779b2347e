package server

import (
	"math"
	"runtime"
	"time"
)

var startTime = time.Now()

const mb = 1024 * 1024

// HealthStats runtime stats reported by /healthcheck?stats
type HealthStats struct {
	Uptime          int64   `json:"uptime"`
	Goroutines      int     `json:"goroutines"`
	NumberOfCPUs    int     `json:"number_of_cpus"`
	GCCycles        uint32  `json:"gc_cycles"`
	AllocatedMemory float64 `json:"allocated_memory"`
	HeapAllocated   float64 `json:"heap_allocated"`
	HeapSys         float64 `json:"heap_sys"`
	ObjectsInUse    uint64  `json:"objects_in_use"`
	OSMemory        float64 `json:"os_memory_obtained"`
}

// GetHealthStats reads current runtime stats, memory in megabytes
func GetHealthStats() *HealthStats {
	mem := &runtime.MemStats{}
	runtime.ReadMemStats(mem)
	return &HealthStats{
		Uptime:          int64(time.Since(startTime).Seconds()),
		Goroutines:      runtime.NumGoroutine(),
		NumberOfCPUs:    runtime.NumCPU(),
		GCCycles:        mem.NumGC,
		AllocatedMemory: megabytes(mem.Alloc),
		HeapAllocated:   megabytes(mem.HeapAlloc),
		HeapSys:         megabytes(mem.HeapSys),
		ObjectsInUse:    mem.Mallocs - mem.Frees,
		OSMemory:        megabytes(mem.Sys),
	}
}

func megabytes(n uint64) float64 {
	return math.Round(float64(n)/mb*100) / 100
}
