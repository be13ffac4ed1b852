// +build linux

package main

import (
	"sync"
	"syscall"
	"time"
)

// SI is the part of sysinfo(2) used to watch memory during a run.
type SI struct {
	Uptime    time.Duration // time since boot
	Procs     uint64        // number of current processes
	TotalRam  uint64        // total usable main memory size [kB]
	FreeRam   uint64        // available memory size [kB]
	BufferRam uint64        // memory used by buffers [kB]
	TotalSwap uint64        // total swap space size [kB]
	FreeSwap  uint64        // swap space still available [kB]
	mu        sync.Mutex
}

var sis = &SI{}

// CPUInfo reads the linux sysinfo data structure.
//
// http://man7.org/linux/man-pages/man2/sysinfo.2.html
func CPUInfo() *SI {
	si := &syscall.Sysinfo_t{}
	if err := syscall.Sysinfo(si); err != nil {
		panic("syscall.Sysinfo:" + err.Error())
	}

	sis.mu.Lock()
	defer sis.mu.Unlock()

	unit := uint64(si.Unit) * 1024 // kB

	sis.Uptime = time.Duration(si.Uptime) * time.Second
	sis.Procs = uint64(si.Procs)
	sis.TotalRam = uint64(si.Totalram) / unit
	sis.FreeRam = uint64(si.Freeram) / unit
	sis.BufferRam = uint64(si.Bufferram) / unit
	sis.TotalSwap = uint64(si.Totalswap) / unit
	sis.FreeSwap = uint64(si.Freeswap) / unit

	return sis
}
