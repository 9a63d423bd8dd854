// Lox CLI - runs expressions from a file or an interactive prompt, compiles
// them to .loxc files, and serves them over Connect, gRPC or LSP.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/lox/manifest"
	"github.com/chazu/lox/pkg/bytecode"
	"github.com/chazu/lox/pkg/runtime"
	"github.com/chazu/lox/server"
	"github.com/chazu/lox/store"
)

// Exit codes from sysexits.h.
const (
	exitOK       = 0
	exitUsage    = 64
	exitDataErr  = 65
	exitSoftware = 70
	exitIOErr    = 74
)

// CompiledExt is the extension of compiled chunk files.
const CompiledExt = ".loxc"

var log = commonlog.GetLogger("lox.cli")

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	output    string
	printCode bool
	trace     bool
	noCache   bool
	verbosity int
	serve     bool
	port      int
	grpcPort  int
	lsp       bool
}

func run(args []string, stdout, stderr io.Writer) int {
	var opts options
	fs := flag.NewFlagSet("lox", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.output, "o", "", "Compile the source file to `file` instead of running it")
	fs.BoolVar(&opts.printCode, "d", false, "Print the bytecode of each compiled chunk")
	fs.BoolVar(&opts.trace, "trace", false, "Trace execution (stack and instruction per step)")
	fs.BoolVar(&opts.noCache, "no-cache", false, "Do not read or write the chunk cache")
	fs.IntVar(&opts.verbosity, "v", 0, "Log verbosity (overrides lox.toml when non-zero)")
	fs.BoolVar(&opts.serve, "serve", false, "Start the evaluation server (Connect HTTP/JSON)")
	fs.IntVar(&opts.port, "port", 0, "Evaluation server port (default from lox.toml, :4567)")
	fs.IntVar(&opts.grpcPort, "grpc-port", 0, "Also serve gRPC on this port (used with -serve)")
	fs.BoolVar(&opts.lsp, "lsp", false, "Start a language server on stdio")

	fs.Usage = func() {
		fmt.Fprintf(stderr, "Usage: lox [options] [file]\n\n")
		fmt.Fprintf(stderr, "Without a file, starts an interactive prompt.\n\n")
		fmt.Fprintf(stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(stderr, "\nExamples:\n")
		fmt.Fprintf(stderr, "  lox                        # Start REPL\n")
		fmt.Fprintf(stderr, "  lox expr.lox               # Run a source file\n")
		fmt.Fprintf(stderr, "  lox -o expr.loxc expr.lox  # Compile to bytecode\n")
		fmt.Fprintf(stderr, "  lox expr.loxc              # Run compiled bytecode\n")
		fmt.Fprintf(stderr, "  lox -serve -port 8080      # Evaluation server on :8080\n")
	}
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}
	if fs.NArg() > 1 {
		fs.Usage()
		return exitUsage
	}

	m, err := loadManifest()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitDataErr
	}

	verbosity := m.Log.Verbosity
	if opts.verbosity != 0 {
		verbosity = opts.verbosity
	}
	commonlog.Configure(verbosity, m.LogFile())

	rtOpts := []runtime.Option{runtime.WithDiagnostics(stderr)}
	if opts.printCode || m.Debug.PrintCode {
		rtOpts = append(rtOpts, runtime.WithPrintCode(stdout))
	}
	if opts.trace || m.Debug.TraceExecution {
		rtOpts = append(rtOpts, runtime.WithTrace(stdout))
	}
	if !opts.noCache && m.Cache.Enabled && opts.output == "" {
		if s := openStore(m); s != nil {
			defer s.Close()
			rtOpts = append(rtOpts, runtime.WithStore(s))
		}
	}

	switch {
	case opts.lsp:
		if err := server.NewLSP(rtOpts...).Run(); err != nil {
			fmt.Fprintf(stderr, "LSP error: %v\n", err)
			return exitSoftware
		}
		return exitOK

	case opts.serve:
		return serve(m, opts, rtOpts, stderr)

	case fs.NArg() == 0:
		if opts.output != "" {
			fmt.Fprintln(stderr, "Error: -o requires a source file")
			return exitUsage
		}
		return runREPL(runtime.New(rtOpts...), m, stdout, stderr)

	case opts.output != "":
		return compileFile(fs.Arg(0), opts.output, stderr)

	default:
		return runFile(runtime.New(rtOpts...), fs.Arg(0), stdout, stderr)
	}
}

// loadManifest finds lox.toml above the working directory, falling back
// to the defaults.
func loadManifest() (*manifest.Manifest, error) {
	wd, err := os.Getwd()
	if err != nil {
		return manifest.Default(), nil
	}
	m, err := manifest.FindAndLoad(wd)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

// openStore opens the chunk cache. A cache that cannot be opened is
// reported and skipped.
func openStore(m *manifest.Manifest) *store.Store {
	s, err := store.Open(m.CachePath())
	if err != nil {
		log.Warningf("chunk cache disabled: %v", err)
		return nil
	}
	return s
}

// runFile runs a source file, or a compiled .loxc file, and prints its value.
func runFile(rt *runtime.Runtime, path string, stdout, stderr io.Writer) int {
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read file %q: %v\n", path, err)
		return exitIOErr
	}

	var chunk *bytecode.Chunk
	if strings.EqualFold(filepath.Ext(path), CompiledExt) {
		chunk, err = bytecode.UnmarshalChunk(data)
		if err != nil {
			fmt.Fprintf(stderr, "Could not load %q: %v\n", path, err)
			return exitDataErr
		}
	} else {
		chunk, err = rt.Compile(string(data))
		if err != nil {
			// diagnostics were already printed
			return exitDataErr
		}
	}

	v, err := rt.Run(chunk)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitSoftware
	}
	fmt.Fprintln(stdout, v)
	return exitOK
}

// compileFile compiles src and writes the encoded chunk to out.
func compileFile(src, out string, stderr io.Writer) int {
	data, err := os.ReadFile(src)
	if err != nil {
		fmt.Fprintf(stderr, "Could not read file %q: %v\n", src, err)
		return exitIOErr
	}

	rt := runtime.New(runtime.WithDiagnostics(stderr))
	chunk, err := rt.Compile(string(data))
	if err != nil {
		return exitDataErr
	}

	encoded, err := bytecode.MarshalChunk(chunk)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitSoftware
	}
	if err := os.WriteFile(out, encoded, 0o644); err != nil {
		fmt.Fprintf(stderr, "Could not write %q: %v\n", out, err)
		return exitIOErr
	}
	log.Infof("wrote %s (%d instructions, %d bytes)", out, chunk.Len(), len(encoded))
	return exitOK
}

// serve runs the evaluation server until it fails.
func serve(m *manifest.Manifest, opts options, rtOpts []runtime.Option, stderr io.Writer) int {
	srv := server.New(rtOpts...)
	defer srv.Stop()

	if opts.grpcPort > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", opts.grpcPort))
		if err != nil {
			fmt.Fprintf(stderr, "Server error: %v\n", err)
			return exitIOErr
		}
		go func() {
			if err := srv.ServeGRPC(lis); err != nil {
				log.Errorf("gRPC server: %v", err)
			}
		}()
	}

	addr := m.Server.Addr
	if opts.port > 0 {
		addr = fmt.Sprintf(":%d", opts.port)
	}
	if err := srv.ListenAndServe(addr); err != nil {
		fmt.Fprintf(stderr, "Server error: %v\n", err)
		return exitSoftware
	}
	return exitOK
}
