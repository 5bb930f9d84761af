// Copyright 2026 The Driftwood Authors
// SPDX-License-Identifier: Apache-2.0

// Driftwoodd is the Driftwood world host: a long-running process that
// loads a world library, binds the listening sockets, optionally
// changes its process identity, loads the library's extension
// modules, and serves connections under the cooperative game loop
// until stopped, hung up (copyover request), or interrupted.
package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/pflag"

	"github.com/driftwood-mud/driftwood/boot"
	"github.com/driftwood-mud/driftwood/lib/hooks"
	"github.com/driftwood-mud/driftwood/lib/identity"
	"github.com/driftwood-mud/driftwood/lib/mudlog"
	"github.com/driftwood-mud/driftwood/lib/process"
	"github.com/driftwood-mud/driftwood/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		libraryPath string
		bindAddr    string
		httpAddr    string
		logPath     string
		logLevel    string
		uid         string
		gid         string
		umask       string
		early       bool
		copyover    string
		showVersion bool
	)

	pflag.StringVar(&libraryPath, "path", "lib", "load the world library from PATH")
	pflag.StringVarP(&bindAddr, "bind", "b", "", "bind the telnet server to the given ADDRESS:PORT")
	pflag.StringVar(&httpAddr, "http", "", "bind the HTTP server to the given ADDRESS:PORT")
	pflag.StringVarP(&logPath, "log", "l", "../log", "store log files at PATH, relative to the world library")
	pflag.StringVar(&logLevel, "level", "info", "only log messages of LEVEL or higher")
	pflag.StringVarP(&uid, "uid", "u", "", "run as the specified user (name or number)")
	pflag.StringVarP(&gid, "gid", "g", "", "run as the specified group (name or number)")
	pflag.StringVar(&umask, "umask", "", "use the provided umask (octal)")
	pflag.BoolVar(&early, "early", false, "assume the new identity early, before executing any code from the world library")
	pflag.StringVar(&copyover, "copyover", "", "copyover handoff state (reserved)")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.CommandLine.MarkHidden("copyover")
	pflag.Parse()

	if showVersion {
		fmt.Printf("driftwoodd %s\n", version.Info())
		return nil
	}

	logger, err := mudlog.New(mudlog.Options{
		Level: logLevel,
		Dir:   filepath.Join(libraryPath, logPath),
	})
	if err != nil {
		return err
	}
	logger.Info("driftwood starting", "version", version.Short())

	hookSet := hooks.NewRegistry(logger)

	supervisor := boot.New(boot.Config{
		LibraryPath: libraryPath,
		BindAddr:    bindAddr,
		HTTPAddr:    httpAddr,
		Identity: identity.Spec{
			UID:   uid,
			GID:   gid,
			Umask: umask,
		},
		EarlyIdentity:   early,
		CopyoverHandoff: copyover,
	}, hookSet, logger)

	return supervisor.Run()
}
