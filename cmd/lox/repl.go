package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/peterh/liner"

	"github.com/chazu/lox/manifest"
	"github.com/chazu/lox/pkg/runtime"
)

const banner = "Welcome to the lox prompt\n^D or :quit to exit\n"

// runREPL reads one expression per line and prints its value. The same
// runtime, and therefore the same VM, serves the whole session.
func runREPL(rt *runtime.Runtime, m *manifest.Manifest, stdout, stderr io.Writer) int {
	fmt.Fprint(stdout, banner+"\n")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	histPath := m.HistoryPath()
	if histPath != "" {
		if f, err := os.Open(histPath); err == nil {
			_, _ = ln.ReadHistory(f)
			_ = f.Close()
		}
		defer func() {
			if f, err := os.Create(histPath); err == nil {
				_, _ = ln.WriteHistory(f)
				_ = f.Close()
			}
		}()
	}

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigc)
	go func() {
		if _, ok := <-sigc; ok {
			ln.Close()
			os.Exit(130)
		}
	}()

	for {
		line, err := ln.Prompt(m.Repl.Prompt)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(stdout)
			return exitOK
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			fmt.Fprintf(stderr, "Error reading input: %v\n", err)
			return exitIOErr
		}

		if !evalLine(rt, line, stdout, stderr) {
			return exitOK
		}
		if strings.TrimSpace(line) != "" {
			ln.AppendHistory(line)
		}
	}
}

// evalLine handles one line of REPL input. It returns false when the
// session should end.
func evalLine(rt *runtime.Runtime, line string, stdout, stderr io.Writer) bool {
	input := strings.TrimSpace(line)
	if input == "" {
		return true
	}

	if strings.HasPrefix(input, ":") {
		switch strings.ToLower(input) {
		case ":quit", ":q":
			return false
		case ":help", ":h":
			fmt.Fprintln(stdout, "Enter an expression to evaluate it.")
			fmt.Fprintln(stdout, "  :session   Show the session ID")
			fmt.Fprintln(stdout, "  :quit      Exit")
		case ":session":
			fmt.Fprintln(stdout, rt.ID())
		default:
			fmt.Fprintf(stdout, "Unknown command: %s (type :help for commands)\n", input)
		}
		return true
	}

	v, err := rt.Eval(input)
	switch {
	case errors.Is(err, runtime.ErrCompile):
		// diagnostics were already printed
	case err != nil:
		fmt.Fprintln(stderr, err)
	default:
		fmt.Fprintln(stdout, v)
	}
	return true
}
