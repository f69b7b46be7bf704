package mdvrp

import (
	"fmt"

	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/mem"
)

// CollectSysInfo describes the machine the benchmark runs on. Fields that
// cannot be read stay empty.
func CollectSysInfo() SysInfo {
	var info SysInfo
	if hostStat, err := host.Info(); err == nil {
		info.Platform = fmt.Sprintf("%s %s", hostStat.Platform, hostStat.PlatformVersion)
	} else {
		Log(LogDebug, "Couldn't read host info: %s", err.Error())
	}
	if cpuStat, err := cpu.Info(); err == nil && len(cpuStat) > 0 {
		info.CPU = cpuStat[0].ModelName
	} else if err != nil {
		Log(LogDebug, "Couldn't read cpu info: %s", err.Error())
	}
	if vmStat, err := mem.VirtualMemory(); err == nil {
		info.RAM = fmt.Sprintf("%d GB", vmStat.Total/1024/1024/1024)
	} else {
		Log(LogDebug, "Couldn't read memory info: %s", err.Error())
	}
	return info
}
