package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/sadopc/godupes/internal/config"
	"github.com/sadopc/godupes/internal/dupes"
	"github.com/sadopc/godupes/internal/fsys"
	"github.com/sadopc/godupes/internal/logging"
	"github.com/sadopc/godupes/internal/model"
	"github.com/sadopc/godupes/internal/ops"
	"github.com/sadopc/godupes/internal/remote"
	"github.com/sadopc/godupes/internal/ui"
)

var (
	version = "dev"
)

type scanTarget struct {
	Remote         bool
	LocalPath      string
	SSHDestination string
	RemotePath     string
}

// flags holds the parsed command line. Detection and output settings are
// merged into a config.Config only when set explicitly.
type flags struct {
	configPath  string
	compare     bool
	hash        string
	preHash     bool
	minSize     int64
	concurrency int
	workers     int
	exclude     string
	noHidden    bool
	format      string
	exportPath  string
	importPath  string
	interactive bool
	logLevel    string
	logFile     string
	sshPort     int
	sshBatch    bool
	sshTimeout  int
	showVersion bool
}

func main() {
	var f flags
	defaults := config.Default()

	flag.StringVar(&f.configPath, "config", "", "Read settings from a TOML file (flags override it)")
	flag.BoolVar(&f.compare, "compare", false, "Compare candidates byte by byte instead of by checksum")
	flag.BoolVar(&f.compare, "c", false, "Shorthand for --compare")
	flag.StringVar(&f.hash, "hash", defaults.Detect.Hash, "Checksum algorithm: md5, sha256 or xxhash")
	flag.BoolVar(&f.preHash, "prehash", false, "Narrow candidates by a checksum of their first 4 KiB first")
	flag.Int64Var(&f.minSize, "min-size", 0, "Ignore files smaller than this many bytes")
	flag.IntVar(&f.concurrency, "j", 0, "Max concurrent directory scans (0 = auto: 3x CPU cores)")
	flag.IntVar(&f.workers, "workers", 0, "Concurrent checksum workers (0 = number of CPUs)")
	flag.StringVar(&f.exclude, "exclude", "", "Comma-separated list of file or directory names to skip")
	flag.BoolVar(&f.noHidden, "no-hidden", false, "Skip files and directories whose name starts with '.'")
	flag.StringVar(&f.format, "format", defaults.Output.Format, "Output format: json, yaml or text")
	flag.StringVar(&f.exportPath, "export", "", "Write a full report to a JSON or YAML file ('-' for stdout)")
	flag.StringVar(&f.importPath, "import", "", "Load a report written by --export instead of scanning")
	flag.BoolVar(&f.interactive, "interactive", false, "Browse the duplicate groups in a terminal UI")
	flag.BoolVar(&f.interactive, "i", false, "Shorthand for --interactive")
	flag.StringVar(&f.logLevel, "log-level", defaults.Log.Level, "Log level: debug, info, warn or error")
	flag.StringVar(&f.logFile, "log-file", "", "Append logs to this file instead of stderr")
	flag.IntVar(&f.sshPort, "ssh-port", defaults.SSH.Port, "SSH port for remote scans")
	flag.BoolVar(&f.sshBatch, "ssh-batch", false, "Disable SSH password prompts (key/agent auth only)")
	flag.IntVar(&f.sshTimeout, "ssh-timeout", defaults.SSH.TimeoutSeconds, "SSH connection timeout in seconds")
	flag.BoolVar(&f.showVersion, "version", false, "Show version")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "godupes - find duplicate files\n\n")
		fmt.Fprintf(os.Stderr, "Usage: godupes [options] [path|user@host [remote-path]]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  godupes .                          Print duplicate groups under the current directory\n")
		fmt.Fprintf(os.Stderr, "  godupes -c ~/Photos                Compare candidates byte by byte\n")
		fmt.Fprintf(os.Stderr, "  godupes --hash xxhash --prehash .  Fast checksums with a pre-hash stage\n")
		fmt.Fprintf(os.Stderr, "  godupes --format text /srv         Human-readable listing\n")
		fmt.Fprintf(os.Stderr, "  godupes --export dupes.json .      Save a full report\n")
		fmt.Fprintf(os.Stderr, "  godupes -i --import dupes.json     Browse a saved report\n")
		fmt.Fprintf(os.Stderr, "  godupes -i user@192.168.1.10       Search a remote home directory over SSH\n")
		fmt.Fprintf(os.Stderr, "  godupes --ssh-port 2222 user@host /var/www\n")
	}

	flag.Parse()

	if f.showVersion {
		fmt.Printf("godupes %s\n", version)
		os.Exit(0)
	}

	if err := run(f); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(f flags) error {
	cfg, err := loadConfig(f)
	if err != nil {
		return err
	}

	if f.interactive && !isTerminal(os.Stdin) {
		return errors.New("--interactive needs a terminal")
	}

	logger, closeLog, err := newLogger(cfg, f.interactive)
	if err != nil {
		return err
	}
	defer closeLog()

	format, err := ops.ParseFormat(cfg.Output.Format)
	if err != nil {
		return err
	}

	if f.importPath != "" {
		if flag.NArg() > 0 {
			return errors.New("--import cannot be used with scan targets")
		}
		return runImport(f, format)
	}

	opts, err := detectOptions(cfg, logger)
	if err != nil {
		return err
	}

	target, err := resolveScanTarget(flag.Args())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var filesystem fsys.FS = fsys.NewLocal()
	root := target.LocalPath
	if target.Remote {
		rfs, err := remote.Dial(ctx, remote.Config{
			Target:    target.SSHDestination,
			Port:      cfg.SSH.Port,
			BatchMode: cfg.SSH.Batch,
			Timeout:   time.Duration(cfg.SSH.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			return err
		}
		defer rfs.Close()
		filesystem = rfs
		root = target.RemotePath
	}

	if f.interactive {
		app := ui.NewApp(filesystem, root, opts)
		app.ExportPath = f.exportPath
		app.Version = version
		return runProgram(app)
	}

	result, err := find(ctx, filesystem, root, opts)
	if err != nil {
		return err
	}

	if f.exportPath != "" {
		if err := ops.Export(result, f.exportPath, ops.FormatForPath(f.exportPath), version); err != nil {
			return fmt.Errorf("export error: %w", err)
		}
		if f.exportPath != "-" {
			fmt.Printf("Exported to %s\n", f.exportPath)
		}
		return nil
	}
	return ops.WriteGroups(os.Stdout, result, format)
}

func runImport(f flags, format ops.Format) error {
	if f.interactive {
		app := ui.NewAppFromImport(f.importPath)
		app.ExportPath = f.exportPath
		app.Version = version
		return runProgram(app)
	}

	report, err := ops.Import(f.importPath)
	if err != nil {
		return fmt.Errorf("importing: %w", err)
	}

	if f.exportPath != "" {
		if err := ops.Export(report.Result(), f.exportPath, ops.FormatForPath(f.exportPath), version); err != nil {
			return fmt.Errorf("export error: %w", err)
		}
		if f.exportPath != "-" {
			fmt.Printf("Exported to %s\n", f.exportPath)
		}
		return nil
	}
	return ops.WriteGroups(os.Stdout, report.Result(), format)
}

func runProgram(app *ui.App) error {
	p := tea.NewProgram(app, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return err
	}
	return app.FatalError()
}

// loadConfig reads the optional config file and applies every flag the user
// set explicitly on top of it.
func loadConfig(f flags) (*config.Config, error) {
	cfg := config.Default()
	if f.configPath != "" {
		var err error
		if cfg, err = config.Load(f.configPath); err != nil {
			return nil, err
		}
	}

	flag.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "c", "compare":
			if f.compare {
				cfg.Detect.Method = config.MethodCompare
			} else {
				cfg.Detect.Method = config.MethodChecksum
			}
		case "hash":
			cfg.Detect.Hash = f.hash
		case "prehash":
			cfg.Detect.PreHash = f.preHash
		case "workers":
			cfg.Detect.Workers = f.workers
		case "min-size":
			cfg.Scan.MinSize = f.minSize
		case "j":
			cfg.Scan.Concurrency = f.concurrency
		case "exclude":
			cfg.Scan.Exclude = splitComma(f.exclude)
		case "no-hidden":
			cfg.Scan.SkipHidden = f.noHidden
		case "format":
			cfg.Output.Format = f.format
		case "log-level":
			cfg.Log.Level = f.logLevel
		case "log-file":
			cfg.Log.File = f.logFile
		case "ssh-port":
			cfg.SSH.Port = f.sshPort
		case "ssh-batch":
			cfg.SSH.Batch = f.sshBatch
		case "ssh-timeout":
			cfg.SSH.TimeoutSeconds = f.sshTimeout
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger keeps the terminal UI clean: without a log file it logs nowhere.
func newLogger(cfg *config.Config, interactive bool) (*zap.Logger, func() error, error) {
	if interactive && cfg.Log.File == "" {
		return zap.NewNop(), func() error { return nil }, nil
	}
	return logging.New(strings.ToLower(cfg.Log.Level), cfg.Log.File)
}

func detectOptions(cfg *config.Config, logger *zap.Logger) (dupes.Options, error) {
	algo, err := dupes.ParseAlgorithm(cfg.Detect.Hash)
	if err != nil {
		return dupes.Options{}, err
	}

	opts := dupes.DefaultOptions()
	opts.Method = model.Method(cfg.Detect.Method)
	opts.Algorithm = algo
	opts.PreHash = cfg.Detect.PreHash
	opts.Workers = cfg.Detect.Workers
	opts.MinSize = cfg.Scan.MinSize
	opts.Scan.SkipHidden = cfg.Scan.SkipHidden
	opts.Scan.ExcludePatterns = cfg.Scan.Exclude
	opts.Scan.Concurrency = cfg.Scan.Concurrency
	opts.Logger = logger
	return opts, nil
}

// find runs the pipeline, drawing a one-line progress report on stderr when
// it is a terminal.
func find(ctx context.Context, filesystem fsys.FS, root string, opts dupes.Options) (*model.Result, error) {
	finder := dupes.NewFinder(filesystem, opts)
	if !isTerminal(os.Stderr) {
		return finder.Find(ctx, root, nil)
	}

	progressCh := make(chan dupes.Progress, 16)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		printProgress(os.Stderr, progressCh)
	}()

	result, err := finder.Find(ctx, root, progressCh)
	close(progressCh)
	wg.Wait()
	return result, err
}

func printProgress(w io.Writer, progress <-chan dupes.Progress) {
	var last time.Time
	printed := false
	for p := range progress {
		if p.Phase != dupes.PhaseDone && time.Since(last) < 100*time.Millisecond {
			continue
		}
		last = time.Now()
		printed = true
		if p.Total > 0 {
			fmt.Fprintf(w, "\r\x1b[K%s: %d/%d (%d files, %d skipped)", p.Phase, p.Processed, p.Total, p.Files, p.Skipped)
		} else {
			fmt.Fprintf(w, "\r\x1b[K%s: %d files, %d skipped", p.Phase, p.Files, p.Skipped)
		}
	}
	if printed {
		fmt.Fprint(w, "\r\x1b[K")
	}
}

func isTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

func resolveScanTarget(args []string) (scanTarget, error) {
	if len(args) == 0 {
		return scanTarget{LocalPath: "."}, nil
	}

	first := args[0]
	if pathExists(first) {
		if len(args) > 1 {
			return scanTarget{}, fmt.Errorf("too many positional arguments for local scan")
		}
		return scanTarget{LocalPath: first}, nil
	}

	if isRemote, err := validateRemoteTarget(first); isRemote {
		if err != nil {
			return scanTarget{}, err
		}
		if len(args) > 2 {
			return scanTarget{}, fmt.Errorf("too many positional arguments for remote scan")
		}

		remotePath := "."
		if len(args) == 2 && strings.TrimSpace(args[1]) != "" {
			remotePath = args[1]
		}

		return scanTarget{
			Remote:         true,
			SSHDestination: first,
			RemotePath:     remotePath,
		}, nil
	}

	if len(args) > 1 {
		return scanTarget{}, fmt.Errorf("too many positional arguments")
	}

	// A missing local root is reported by the scan itself.
	return scanTarget{LocalPath: first}, nil
}

func validateRemoteTarget(raw string) (bool, error) {
	if strings.ContainsAny(raw, `/\`) {
		return false, nil
	}
	if strings.Count(raw, "@") != 1 {
		return false, nil
	}

	user, host, _ := strings.Cut(raw, "@")
	if user == "" || host == "" {
		return true, fmt.Errorf("invalid remote target %q: expected user@host", raw)
	}
	if strings.HasPrefix(user, "-") || strings.HasPrefix(host, "-") {
		return true, fmt.Errorf("invalid remote target %q", raw)
	}
	if strings.ContainsAny(user, " \t\n\r") || strings.ContainsAny(host, " \t\n\r") {
		return true, fmt.Errorf("invalid remote target %q: spaces are not allowed", raw)
	}
	if strings.HasPrefix(host, "[") {
		end := strings.Index(host, "]")
		switch {
		case end == -1:
			return true, fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
		case end == 1:
			return true, fmt.Errorf("invalid remote target %q: empty host", raw)
		case end != len(host)-1:
			rest := host[end+1:]
			if strings.HasPrefix(rest, ":") && isAllDigits(rest[1:]) {
				return true, fmt.Errorf("remote target %q must not include :port; use --ssh-port", raw)
			}
			return true, fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
		}
	} else if strings.Contains(host, "]") {
		return true, fmt.Errorf("invalid remote target %q: malformed bracketed host", raw)
	}
	if looksLikeHostPort(host) {
		return true, fmt.Errorf("remote target %q must not include :port; use --ssh-port", raw)
	}

	return true, nil
}

func looksLikeHostPort(host string) bool {
	if strings.Count(host, ":") != 1 {
		return false
	}
	_, port, _ := strings.Cut(host, ":")
	return isAllDigits(port)
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func pathExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func splitComma(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
