// Copyright 2026 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Rvrun boots the kernel and runs its applications to completion.
//
// Usage:
//
//	rvrun [-config file.hcl] [-trace] [-v] [-cpuprofile file] [app...]
//
// Applications named on the command line replace the configuration's
// boot list. Their output goes to standard output; kernel logs and the
// exit summary go to standard error.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"runtime/pprof"
	"strings"
	"text/tabwriter"

	"golang.org/x/term"

	"rsc.io/rvkern/config"
	"rsc.io/rvkern/kernel"
)

var (
	configFile = flag.String("config", "", "read boot configuration from `file`")
	trace      = flag.Bool("trace", false, "trace every instruction and system call")
	verbose    = flag.Bool("v", false, "log task creation and exit")
	cpuprofile = flag.String("cpuprofile", "", "write cpuprofile to `file`")
)

func usage() {
	fmt.Fprintf(os.Stderr, "usage: rvrun [-config file.hcl] [-trace] [-v] [-cpuprofile file] [app...]\n")
	flag.PrintDefaults()
	os.Exit(2)
}

func main() {
	log.SetPrefix("rvrun: ")
	log.SetFlags(0)
	flag.Usage = usage
	flag.Parse()

	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal(err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal(err)
		}
		defer pprof.StopCPUProfile()
	}

	cfg := config.Default()
	if *configFile != "" {
		c, err := config.Load(*configFile)
		if err != nil {
			log.Fatal(err)
		}
		cfg = c
	}
	if flag.NArg() > 0 {
		cfg.Boot = flag.Args()
	}
	if *trace {
		cfg.Trace = true
	}

	kc, err := cfg.Kernel()
	if err != nil {
		log.Fatal(err)
	}
	kc.Console = os.Stdout
	level := slog.LevelWarn
	switch {
	case cfg.Trace:
		level = slog.LevelDebug
	case *verbose:
		level = slog.LevelInfo
	}
	kc.Logger = newLogger(os.Stderr, level)

	m := kernel.New(kc)
	if err := m.Boot(cfg.Boot...); err != nil {
		log.Fatal(err)
	}
	m.Start()
	summary(os.Stderr, m.Exits())
}

// newLogger logs text to a terminal and JSON to anything else.
func newLogger(w *os.File, level slog.Level) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if term.IsTerminal(int(w.Fd())) {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// summary prints one line per exited task, cut to the terminal width.
func summary(f *os.File, exits []kernel.Exit) {
	width := 0
	if term.IsTerminal(int(f.Fd())) {
		if w, _, err := term.GetSize(int(f.Fd())); err == nil {
			width = w
		}
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 8, 2, ' ', 0)
	fmt.Fprintf(tw, "PID\tAPP\tCODE\tTIME\n")
	for _, e := range exits {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%v\n", e.Pid, e.Name, e.Code, e.Time)
	}
	tw.Flush()
	writeLines(f, b.String(), width)
}

func writeLines(w io.Writer, text string, width int) {
	for line := range strings.Lines(text) {
		line = strings.TrimSuffix(line, "\n")
		if width > 0 && len(line) > width {
			line = line[:width]
		}
		fmt.Fprintln(w, line)
	}
}
