// Package systeminfo gathers host facts used to suggest a hardware profile.
// The carbon formula never reads them.
package systeminfo

import (
	"context"

	"carbonlint/logger"
	"carbonlint/tables"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

const gib = 1 << 30

type SystemInfo struct {
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelArch      string `json:"kernel_arch,omitempty"`
	Virtualization  string `json:"virtualization,omitempty"`
	CPUModel        string `json:"cpu_model,omitempty"`
	LogicalCPUs     int    `json:"logical_cpus"`
	PhysicalCPUs    int    `json:"physical_cpus"`
	MemoryBytes     uint64 `json:"memory_bytes"`
}

// GetSystemInfo never fails as a whole; each probe that errors is logged and
// leaves its fields empty.
func GetSystemInfo(ctx context.Context) *SystemInfo {
	info := &SystemInfo{}

	if h, err := host.InfoWithContext(ctx); err != nil {
		logger.Debugf("Failed to gather host info: %v", err)
	} else {
		info.OS = h.OS
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelArch = h.KernelArch
		if h.VirtualizationRole == "guest" {
			info.Virtualization = h.VirtualizationSystem
		}
	}

	if n, err := cpu.CountsWithContext(ctx, true); err != nil {
		logger.Debugf("Failed to count logical CPUs: %v", err)
	} else {
		info.LogicalCPUs = n
	}
	if n, err := cpu.CountsWithContext(ctx, false); err != nil {
		logger.Debugf("Failed to count physical CPUs: %v", err)
	} else {
		info.PhysicalCPUs = n
	}
	if stats, err := cpu.InfoWithContext(ctx); err != nil {
		logger.Debugf("Failed to gather CPU info: %v", err)
	} else if len(stats) > 0 {
		info.CPUModel = stats[0].ModelName
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err != nil {
		logger.Debugf("Failed to gather memory info: %v", err)
	} else {
		info.MemoryBytes = vm.Total
	}
	return info
}

// SuggestProfile maps host size onto the closest hardware profile key.
// Virtualised hosts are treated as servers.
func SuggestProfile(info *SystemInfo) string {
	if info == nil {
		return "laptop"
	}
	switch {
	case info.Virtualization != "",
		info.LogicalCPUs >= 16,
		info.MemoryBytes >= 64*gib:
		return "server"
	case info.LogicalCPUs >= 8 && info.MemoryBytes >= 16*gib:
		return "desktop"
	default:
		return "laptop"
	}
}

// EstimatedPowerWatts is the profile's CPU TDP plus its per-GB memory draw
// for the given amount of memory.
func EstimatedPowerWatts(p tables.HardwareProfile, memoryBytes uint64) float64 {
	return p.CPUTDPWatts + p.MemPerGB*float64(memoryBytes)/gib
}
