// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

//go:build unix

package identity

import (
	"fmt"
	"os/user"
	"strconv"

	"golang.org/x/sys/unix"

	"github.com/driftwood-mud/driftwood/lib/mudlog"
)

// Syscall and lookup seams. Tests override these to exercise the
// transition logic without actually changing process identity.
var (
	getuid   = unix.Getuid
	geteuid  = unix.Geteuid
	setuid   = unix.Setuid
	getgid   = unix.Getgid
	setgid   = unix.Setgid
	setUmask = unix.Umask

	lookupUser    = user.Lookup
	lookupUserID  = user.LookupId
	lookupGroup   = user.LookupGroup
	lookupGroupID = user.LookupGroupId
)

// Supported reports whether identity transitions exist on this
// platform.
func Supported() bool { return true }

// Apply resolves spec against defaults and applies the resulting
// identity, in fixed order: uid, anti-root guard, gid, umask.
//
// The uid and gid steps are no-ops when the resolved value matches the
// current one; a no-op emits no "assuming" log line. Unresolvable
// names and OS-denied changes are fatal. A malformed umask is the one
// non-fatal case: it logs a warning and leaves the umask unchanged.
func Apply(spec Spec, defaults Defaults, log *mudlog.Logger) (Resolved, error) {
	var resolved Resolved

	uidValue := fallback(spec.UID, defaults, "uid")
	gidValue := fallback(spec.GID, defaults, "gid")
	umaskValue := fallback(spec.Umask, defaults, "umask")

	// Step 1-2: resolve and apply the uid.
	explicitRoot := false
	if uidValue != "" {
		uid, name, err := resolveUser(uidValue)
		if err != nil {
			log.Critical("no such user", "user", uidValue)
			return resolved, err
		}
		resolved.UID, resolved.HasUID = uid, true
		if uid == 0 {
			explicitRoot = true
		}

		if getuid() != uid {
			if err := setuid(uid); err != nil {
				applyErr := &ApplyError{Kind: "uid", ID: uid, Err: err}
				log.Critical("unable to assume the uid",
					"uid", uid, "user", name, "error", err)
				return resolved, applyErr
			}
			log.Info("assuming the uid", "uid", uid, "user", name)
		}
	}

	// Step 3: anti-root guard. Privilege must have been dropped by
	// now unless root was asked for in so many words.
	if geteuid() == 0 {
		if explicitRoot {
			log.Warning("the server is running as root; this is not recommended")
		} else {
			log.Critical("please do not run the server as root")
			log.Critical("set a uid via the --uid command-line argument or in the " +
				"world configuration file; if the server must run as root, " +
				"provide a uid of 0")
			return resolved, ErrRootExecution
		}
	}

	// Step 4: resolve and apply the gid.
	if gidValue != "" {
		gid, name, err := resolveGroup(gidValue)
		if err != nil {
			log.Critical("no such group", "group", gidValue)
			return resolved, err
		}
		resolved.GID, resolved.HasGID = gid, true

		if getgid() != gid {
			if err := setgid(gid); err != nil {
				applyErr := &ApplyError{Kind: "gid", ID: gid, Err: err}
				log.Critical("unable to assume the gid",
					"gid", gid, "group", name, "error", err)
				return resolved, applyErr
			}
			log.Info("assuming the gid", "gid", gid, "group", name)
		}
	}

	// Step 5: the umask. Malformed values warn and change nothing.
	if umaskValue != "" {
		mask, err := strconv.ParseInt(umaskValue, 8, 32)
		if err != nil || mask < 0 || mask > 0o777 {
			log.Warning("invalid value for umask", "umask", umaskValue)
		} else {
			previous := setUmask(int(mask))
			resolved.Umask, resolved.HasUmask = int(mask), true
			log.Info("assuming the umask",
				"umask", fmt.Sprintf("%04o", mask),
				"previous", fmt.Sprintf("%04o", previous))
		}
	}

	return resolved, nil
}

// fallback returns value, or the named world setting when value is
// empty.
func fallback(value string, defaults Defaults, key string) string {
	if value != "" || defaults == nil {
		return value
	}
	return defaults.Str(key)
}

// resolveUser turns a user name or numeric id into a uid. The
// returned name is informational for logging and may be empty when a
// numeric id has no passwd entry.
func resolveUser(value string) (int, string, error) {
	if uid, err := strconv.Atoi(value); err == nil {
		name := ""
		if entry, err := lookupUserID(value); err == nil {
			name = entry.Username
		}
		return uid, name, nil
	}

	entry, err := lookupUser(value)
	if err != nil {
		return 0, "", &ResolutionError{Kind: "user", Name: value}
	}
	uid, err := strconv.Atoi(entry.Uid)
	if err != nil {
		return 0, "", &ResolutionError{Kind: "user", Name: value}
	}
	return uid, entry.Username, nil
}

// resolveGroup turns a group name or numeric id into a gid.
func resolveGroup(value string) (int, string, error) {
	if gid, err := strconv.Atoi(value); err == nil {
		name := ""
		if entry, err := lookupGroupID(value); err == nil {
			name = entry.Name
		}
		return gid, name, nil
	}

	entry, err := lookupGroup(value)
	if err != nil {
		return 0, "", &ResolutionError{Kind: "group", Name: value}
	}
	gid, err := strconv.Atoi(entry.Gid)
	if err != nil {
		return 0, "", &ResolutionError{Kind: "group", Name: value}
	}
	return gid, entry.Name, nil
}
