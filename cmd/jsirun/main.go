package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"

	"github.com/wippyai/jsi-runtime/debugger"
	"github.com/wippyai/jsi-runtime/engine"
	"github.com/wippyai/jsi-runtime/jsi"
	"github.com/wippyai/jsi-runtime/queue"
	"github.com/wippyai/jsi-runtime/runtime"
	"github.com/wippyai/jsi-runtime/scriptstore"
)

type options struct {
	script      string
	config      string
	cache       string
	debug       bool
	port        int
	breakStart  bool
	interactive bool
	verbose     bool
}

func main() {
	var o options
	flag.StringVar(&o.script, "script", "", "Script file to evaluate")
	flag.StringVar(&o.config, "config", "", "Runtime arguments (YAML)")
	flag.StringVar(&o.cache, "cache", "", "Prepared script cache directory")
	flag.BoolVar(&o.debug, "debug", false, "Enable the debugger endpoint")
	flag.IntVar(&o.port, "port", debugger.DefaultPort, "Debugger port")
	flag.BoolVar(&o.breakStart, "break", false, "Wait for a debugger before running")
	flag.BoolVar(&o.interactive, "i", false, "Interactive console")
	flag.BoolVar(&o.verbose, "v", false, "Debug logging")
	flag.Parse()

	if o.script == "" && flag.NArg() > 0 {
		o.script = flag.Arg(0)
	}
	if o.script == "" && !o.interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Usage: jsirun -script <file.js> [-config args.yaml] [-cache dir] [-debug [-port n] [-break]]")
			fmt.Fprintln(os.Stderr, "       jsirun -i  (interactive console)")
			os.Exit(1)
		}
		o.interactive = true
	}

	logger := newLogger(o.verbose)
	defer logger.Sync()
	setLoggers(logger)

	args, err := o.runtimeArgs(logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if o.interactive {
		err = runInteractive(args)
	} else {
		err = run(args, o)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) *zap.Logger {
	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.DisableStacktrace = true
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func setLoggers(l *zap.Logger) {
	runtime.SetLogger(l.Named("runtime"))
	engine.SetLogger(l.Named("engine"))
	debugger.SetLogger(l.Named("debugger"))
	scriptstore.SetLogger(l.Named("scriptstore"))
	queue.SetLogger(l.Named("queue"))
}

// runtimeArgs loads the config file and applies flags over it.
func (o options) runtimeArgs(logger *zap.Logger) (runtime.RuntimeArgs, error) {
	args := runtime.DefaultArgs()
	if o.config != "" {
		var err error
		if args, err = runtime.LoadArgs(o.config); err != nil {
			return args, err
		}
	}
	args.Logger = logger
	args.EnableConsole = true

	if o.cache != "" {
		store, err := scriptstore.NewFile(o.cache)
		if err != nil {
			return args, err
		}
		root := ""
		if o.script != "" {
			root = filepath.Dir(o.script)
		}
		args = args.WithScriptCache(scriptstore.FileVersions{Root: root}, store)
	}
	if o.debug {
		args = args.WithDebugging(o.port, o.breakStart)
	}
	return args, nil
}

func run(args runtime.RuntimeArgs, o options) error {
	q := queue.NewSerial()
	rt, err := runtime.New(args.WithQueue(q))
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close()

	v, err := evaluateFile(rt, args, o.script)
	if err != nil {
		return err
	}
	if v.Kind() != jsi.KindUndefined {
		s, err := rt.ToString(v)
		if err != nil {
			return err
		}
		fmt.Println(s)
	}
	v.Release()
	q.Drain()

	if rt.Debugger() == nil {
		return nil
	}
	fmt.Fprintf(os.Stderr, "Debugger listening on %s, press Ctrl+C to exit\n", rt.Debugger().URL())
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	defer signal.Stop(stop)
	for {
		select {
		case <-q.Ready():
			q.Drain()
		case <-stop:
			return nil
		}
	}
}

// evaluateFile runs path through the script store when one is
// configured, so the cache sees the file's version.
func evaluateFile(rt *runtime.Runtime, args runtime.RuntimeArgs, path string) (jsi.Value, error) {
	if args.ScriptStore != nil {
		url := path
		if fv, ok := args.ScriptStore.(scriptstore.FileVersions); ok && fv.Root != "" {
			url = filepath.Base(path)
		}
		return rt.EvaluateScript(nil, url)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return jsi.Undefined(), fmt.Errorf("read script: %w", err)
	}
	return rt.EvaluateScript(jsi.BytesBuffer(data), path)
}
