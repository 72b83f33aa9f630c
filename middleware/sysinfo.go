package middleware

import (
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

type SystemInfo struct {
	CPUInfo  []cpu.InfoStat
	MemInfo  *mem.VirtualMemoryStat
	DiskInfo []disk.UsageStat
	LoadInfo *load.AvgStat
}

// GetSystemInfo gathers the system's CPU, memory, and disk information
func GetSystemInfo() (*SystemInfo, error) {
	sysInfo := &SystemInfo{}

	// Get CPU information
	cpuInfo, err := cpu.Info()
	if err != nil {
		return nil, err
	}
	sysInfo.CPUInfo = cpuInfo

	// Get memory information
	memInfo, err := mem.VirtualMemory()
	if err != nil {
		return nil, err
	}
	sysInfo.MemInfo = memInfo

	// Get disk information
	partitions, err := disk.Partitions(true)
	if err != nil {
		return nil, err
	}

	for _, p := range partitions {
		diskInfo, err := disk.Usage(p.Mountpoint)
		if err != nil {
			return nil, err
		}
		sysInfo.DiskInfo = append(sysInfo.DiskInfo, *diskInfo)
	}

	// Get load info
	loadInfo, err := load.Avg()
	if err != nil {
		return nil, err
	}
	sysInfo.LoadInfo = loadInfo

	return sysInfo, nil
}
