package agent

import (
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"

	"github.com/voidshard/foreman/pkg/structs"
)

const mb = 1024 * 1024

// healthSnapshot returns a coarse view of this process. Anything we fail to
// read is left zero.
func healthSnapshot(ref structs.AgentRef, working bool, started time.Time) *structs.HealthRecord {
	rec := &structs.HealthRecord{
		Machine:   ref.Machine,
		Agent:     ref.Agent,
		EventTime: time.Now().Unix(),
		ProcessID: os.Getpid(),
		StartTime: started.Unix(),
		EventType: structs.EventIdle,
	}
	if working {
		rec.EventType = structs.EventProgress
	}

	proc, err := process.NewProcess(int32(rec.ProcessID))
	if err != nil {
		zap.L().Debug("failed to inspect agent process", zap.Error(err))
		return rec
	}
	if cpu, err := proc.CPUPercent(); err == nil {
		rec.CPU = cpu
	}
	if info, err := proc.MemoryInfo(); err == nil && info != nil {
		rec.RAM = info.RSS / mb
	}
	if created, err := proc.CreateTime(); err == nil && created > 0 {
		rec.StartTime = created / 1000
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		rec.TotalRAM = vm.Total / mb
	}
	return rec
}
