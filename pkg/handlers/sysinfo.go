// Package handlers implements the agent's registered commands: the Go
// analogues of original_source/cmd_stdsys.c, cmd_system.c, cmd_uci.c, and
// cmd_ubus.c, each grounded on a library already pulled in by the wider
// example pack rather than the original's raw syscalls.
package handlers

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/wire"
)

// Sysinfo reports uptime, load averages, and memory counters, replacing the
// original's sysinfo(2) struct with gopsutil's cross-platform host/load/mem
// collectors (already grounded as a nabbar-golib dependency).
func Sysinfo() registry.Descriptor {
	return registry.Descriptor{
		Type:      "sysinfo",
		Atomicity: registry.Atomic,
		Handler:   sysinfoHandler,
	}
}

func sysinfoHandler(_ context.Context, _ *wire.Table, out *wire.Table) int {
	info, err := host.Info()
	if err != nil {
		return -errno.EIO
	}
	la, err := load.Avg()
	if err != nil {
		return -errno.EIO
	}
	vm, err := mem.VirtualMemory()
	if err != nil {
		return -errno.EIO
	}
	sw, err := mem.SwapMemory()
	if err != nil {
		return -errno.EIO
	}

	out.Set("uptime", info.Uptime)
	out.Set("load1", la.Load1)
	out.Set("load5", la.Load5)
	out.Set("load15", la.Load15)
	out.Set("totalram", vm.Total)
	out.Set("freeram", vm.Free)
	out.Set("sharedram", vm.Shared)
	out.Set("bufferram", vm.Buffers)
	out.Set("totalswap", sw.Total)
	out.Set("freeswap", sw.Free)
	out.Set("procs", info.Procs)

	return wire.DataReply
}
