package handlers

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sys/unix"

	"github.com/blogic/udrone/pkg/errno"
	"github.com/blogic/udrone/pkg/registry"
	"github.com/blogic/udrone/pkg/wire"
)

const systemOutputLimit = 8192

// systemTimeout is how long a command may run before its process group is
// killed.
const systemTimeout = 30 * time.Second

// System runs a host command and captures its stdout. It is registered
// non-atomic: the original never marked "system" UDRONE_HANDLER_ATOMIC
// either, since it can block on a child process for as long as the command
// needs.
//
// This is the REDESIGN FLAG fix for the original's handler_system, which
// built its argv from the raw blob buffer via a broken single-string
// blobmsg_get_string call on an array attribute. Here "cmd" is decoded as an
// explicit string array: cmd[0] is the executable path, cmd[1:] are its
// arguments.
func System() registry.Descriptor {
	return registry.Descriptor{
		Type:      "system",
		Atomicity: registry.NonAtomic,
		Handler:   systemHandler,
	}
}

func systemHandler(ctx context.Context, args *wire.Table, out *wire.Table) int {
	argv, ok := args.GetStringSlice("cmd")
	if !ok || len(argv) == 0 {
		return -errno.EINVAL
	}

	ctx, cancel := context.WithTimeout(ctx, systemTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Cancel = func() error {
		return unix.Kill(-cmd.Process.Pid, unix.SIGKILL)
	}

	if lines, ok := args.GetStringSlice("stdin"); ok {
		cmd.Stdin = strings.NewReader(strings.Join(lines, "\n"))
	}

	if err := cmd.Run(); err != nil {
		return -errno.EIO
	}

	buf := stdout.Bytes()
	if len(buf) > systemOutputLimit {
		buf = buf[:systemOutputLimit]
	}
	out.Set("stdout", string(buf))

	return wire.DataReply
}
