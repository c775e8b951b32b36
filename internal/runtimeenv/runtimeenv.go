// Package runtimeenv holds the bits of process lifecycle that don't
// belong to any one transport or store concern: dropping privileges
// after binding listener ports, and telling systemd we're up.
package runtimeenv

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	"github.com/nhr-fau/voidkv/internal/corelog"
)

// DropPrivileges switches the process's uid/gid after privileged ports
// have been bound. The Go runtime applies the underlying setuid/setgid
// syscall to every OS thread, not just the caller's, so this is safe to
// call once from main after all listeners are up.
func DropPrivileges(username, group string) error {
	if group != "" {
		g, err := user.LookupGroup(group)
		if err != nil {
			corelog.Warnf("runtimeenv: lookup group %q: %s", group, err)
			return err
		}
		gid, _ := strconv.Atoi(g.Gid)
		if err := syscall.Setgid(gid); err != nil {
			corelog.Warnf("runtimeenv: setgid %d: %s", gid, err)
			return err
		}
	}

	if username != "" {
		u, err := user.Lookup(username)
		if err != nil {
			corelog.Warnf("runtimeenv: lookup user %q: %s", username, err)
			return err
		}
		uid, _ := strconv.Atoi(u.Uid)
		if err := syscall.Setuid(uid); err != nil {
			corelog.Warnf("runtimeenv: setuid %d: %s", uid, err)
			return err
		}
	}

	return nil
}

// SystemdNotify informs systemd of a readiness or status change via
// sd_notify, a no-op outside of a systemd unit
// (https://www.freedesktop.org/software/systemd/man/sd_notify.html).
func SystemdNotify(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}

	args := []string{fmt.Sprintf("--pid=%d", os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}
	if status != "" {
		args = append(args, fmt.Sprintf("--status=%s", status))
	}

	if err := exec.Command("systemd-notify", args...).Run(); err != nil {
		corelog.Debugf("runtimeenv: systemd-notify: %s", err)
	}
}
