package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"golang.org/x/term"

	"github.com/iyulab/unpdf/config"
	"github.com/iyulab/unpdf/runtime"
)

const usage = `Usage: unpdf [flags] <command> [command flags] <file.pdf>

Commands:
  markdown   convert to Markdown (-frontmatter, -escape, -spacing)
  text       convert to plain text (-plain drops layout)
  json       convert to JSON (-compact)
  info       print document metadata (-json for the raw engine output)
  resources  list embedded resources
  extract    write embedded resources to a directory (-out, -id)
  browse     interactive document browser
  version    print the engine version

Flags:
`

func main() {
	var (
		configFile  = flag.String("config", "", "YAML configuration file")
		libPath     = flag.String("lib", "", "Engine library file or directory")
		allowWASM   = flag.Bool("wasm", false, "Fall back to unpdf.wasm when no native library loads")
		verbose     = flag.Bool("v", false, "Debug logging")
		dumpMetrics = flag.Bool("metrics", false, "Print collected metrics to stderr on exit")
	)
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *allowWASM {
		cfg.Library.AllowWASM = true
	}
	if *verbose {
		cfg.Logging.Level = "debug"
		cfg.Logging.Format = "console"
	}

	if err := run(cfg, *libPath, *dumpMetrics, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.FromEnv()
	}
	return config.LoadConfigWithEnvOverrides(path)
}

func run(cfg *config.Config, libPath string, dumpMetrics bool, command string, args []string) error {
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	reg := prometheus.NewRegistry()
	rt, err := runtime.New(context.Background(),
		runtime.WithConfig(cfg),
		runtime.WithLibraryPath(libPath),
		runtime.WithLogger(logger),
		runtime.WithRegisterer(reg),
	)
	if err != nil {
		return err
	}
	defer rt.Close()

	if dumpMetrics {
		defer writeMetrics(reg)
	}

	cmd, ok := commands[command]
	if !ok {
		return fmt.Errorf("unknown command %q", command)
	}
	return cmd(rt, args)
}

func writeMetrics(reg *prometheus.Registry) {
	families, err := reg.Gather()
	if err != nil {
		fmt.Fprintf(os.Stderr, "gather metrics: %v\n", err)
		return
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(os.Stderr, mf); err != nil {
			fmt.Fprintf(os.Stderr, "write metrics: %v\n", err)
			return
		}
	}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}
