// Package main provides the entry point for the streampager CLI.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/streampager/streampager/internal/file"
	"github.com/streampager/streampager/internal/prompt"
	"github.com/streampager/streampager/ui"
)

const (
	// ExitCodeInternal is returned for internal errors.
	ExitCodeInternal = 1

	// ExitCodeBadArgs is returned for invalid command-line arguments.
	ExitCodeBadArgs = 2

	// ExitCodeSIGINT is the signal offset for SIGINT (Ctrl+C).
	ExitCodeSIGINT = 128 + 2

	// ExitCodeSIGTERM is the signal offset for SIGTERM.
	ExitCodeSIGTERM = 128 + 15
)

// ExitError carries a specific process exit code up to main.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("exit with code %d", e.Code)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile  string
	fullscreen  bool
	delayed     float64
	noAlternate bool
	commands    []string
	fdArgs      []string
	errorFdArgs []string
	progressFd  int
	force       bool

	rootCmd = &cobra.Command{
		Use:   "sp [FILE...]",
		Short: "Page streams as they grow",
		Long: "\nA pager for command output and growing files: scroll, search,\n" +
			"and switch between streams while data is still arriving.",
		SilenceErrors: false,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return validateOptions(cmd)
		},
		RunE: execute,
	}
)

// validateOptions rejects invalid flag values and flag combinations.
func validateOptions(cmd *cobra.Command) error {
	if progressFd < -1 {
		return &ExitError{Code: ExitCodeBadArgs, Err: fmt.Errorf("invalid progress fd %d", progressFd)}
	}
	for _, arg := range append(append([]string{}, fdArgs...), errorFdArgs...) {
		if _, _, err := parseFdArg(arg); err != nil {
			return &ExitError{Code: ExitCodeBadArgs, Err: err}
		}
	}
	if cmd.Flags().Changed("delayed") && delayed <= 0 {
		return &ExitError{Code: ExitCodeBadArgs, Err: fmt.Errorf("delay must be positive, got %v", delayed)}
	}
	if fullscreen && noAlternate {
		return &ExitError{Code: ExitCodeBadArgs, Err: errors.New("cannot use both --fullscreen and --no-alternate")}
	}
	return nil
}

// parseFdArg splits "FD[=TITLE]".
func parseFdArg(arg string) (int, string, error) {
	fdStr, title, _ := strings.Cut(arg, "=")
	fd, err := strconv.Atoi(fdStr)
	if err != nil || fd < 0 {
		return 0, "", fmt.Errorf("invalid fd argument %q", arg)
	}
	return fd, title, nil
}

// interfaceMode resolves the startup mode from flags and config.
func interfaceMode(cmd *cobra.Command) (ui.InterfaceMode, float64) {
	switch {
	case fullscreen || force:
		return ui.ModeFullscreen, 0
	case noAlternate:
		return ui.ModeDirect, 0
	case cmd.Flags().Changed("delayed"):
		return ui.ModeDelayed, delayed
	}
	switch viper.GetString("interface_mode") {
	case "fullscreen":
		return ui.ModeFullscreen, 0
	case "direct":
		return ui.ModeDirect, 0
	case "hybrid":
		return ui.ModeDelayed, delayed
	default: // "delayed" and the unset default
		return ui.ModeDelayed, delayed
	}
}

// buildInputs assembles the primary/error file pairs from positional
// paths, --fd arguments, --command subprocesses, stdin, and the
// environment. Error fds attach to the most recently declared primary.
func buildInputs(cfg *ui.Config, args []string) ([]ui.Input, *file.ProgressFile, error) {
	var inputs []ui.Input
	nextID := 0
	newID := func() int { id := nextID; nextID++; return id }

	addPrimary := func(f file.File) {
		inputs = append(inputs, ui.Input{Primary: f})
	}
	attachError := func(f file.File) error {
		if len(inputs) == 0 {
			return errors.New("--error-fd requires a preceding input")
		}
		inputs[len(inputs)-1].Error = f
		return nil
	}

	// Positional paths are static on-disk files.
	for _, path := range args {
		if path == "-" {
			addPrimary(file.NewStream(newID(), titleOr(cfg.Title, "stdin"), os.Stdin))
			continue
		}
		mf, err := file.OpenMapped(newID(), filepath.Base(path), path)
		if err != nil {
			return nil, nil, err
		}
		addPrimary(mf)
	}

	// Explicit descriptor arguments stream.
	for _, arg := range fdArgs {
		fd, title, err := parseFdArg(arg)
		if err != nil {
			return nil, nil, err
		}
		addPrimary(file.NewStream(newID(), titleOr(title, fmt.Sprintf("fd %d", fd)), os.NewFile(uintptr(fd), title)))
	}

	// Spawned subprocesses page their stdout, with stderr attached as
	// the error companion.
	for _, cmdStr := range commands {
		primary, errFile, err := spawnCommand(newID, cmdStr)
		if err != nil {
			return nil, nil, err
		}
		addPrimary(primary)
		if err := attachError(errFile); err != nil {
			return nil, nil, err
		}
	}

	// Piped stdin becomes a primary when nothing else claimed one.
	if len(inputs) == 0 {
		if yes, err := stdinIsPipe(); err != nil {
			return nil, nil, err
		} else if yes {
			addPrimary(file.NewStream(newID(), titleOr(cfg.Title, "stdin"), os.Stdin))
		}
	}

	if len(inputs) == 0 {
		return nil, nil, &ExitError{Code: ExitCodeBadArgs, Err: errors.New("no input: pass a file, --fd, --command, or pipe stdin")}
	}

	// Error fds from flags, then the environment default.
	for _, arg := range errorFdArgs {
		fd, title, err := parseFdArg(arg)
		if err != nil {
			return nil, nil, err
		}
		ef := file.NewStream(newID(), titleOr(title, fmt.Sprintf("fd %d", fd)), os.NewFile(uintptr(fd), title))
		if err := attachError(ef); err != nil {
			return nil, nil, err
		}
	}
	if cfg.ErrorFD >= 0 && inputs[len(inputs)-1].Error == nil {
		ef := file.NewStream(newID(), "stderr", os.NewFile(uintptr(cfg.ErrorFD), "error-fd"))
		_ = attachError(ef)
	}

	// Progress stream: flag wins over environment.
	var progress *file.ProgressFile
	pfd := progressFd
	if pfd < 0 {
		pfd = cfg.ProgressFD
	}
	if pfd >= 0 {
		progress = file.NewProgress(newID(), "progress", os.NewFile(uintptr(pfd), "progress-fd"))
	}

	return inputs, progress, nil
}

// spawnCommand runs cmdStr under the shell, paging its stdout with
// stderr as the error companion.
func spawnCommand(newID func() int, cmdStr string) (file.File, file.File, error) {
	c := exec.Command("/bin/sh", "-c", cmdStr)
	stdout, err := c.StdoutPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create stdout pipe: %w", err)
	}
	stderr, err := c.StderrPipe()
	if err != nil {
		return nil, nil, fmt.Errorf("unable to create stderr pipe: %w", err)
	}
	if err := c.Start(); err != nil {
		return nil, nil, fmt.Errorf("unable to start %q: %w", cmdStr, err)
	}
	go func() {
		if err := c.Wait(); err != nil {
			log.Debug("command exited", "cmd", cmdStr, "err", err)
		}
	}()
	primary := file.NewStream(newID(), cmdStr, stdout)
	errFile := file.NewStream(newID(), cmdStr+" (stderr)", stderr)
	return primary, errFile, nil
}

func titleOr(title, fallback string) string {
	if title != "" {
		return title
	}
	return fallback
}

func stdinIsPipe() (bool, error) {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false, fmt.Errorf("unable to stat stdin: %w", err)
	}
	if stat.Mode()&os.ModeCharDevice == 0 || stat.Size() > 0 {
		return true, nil
	}
	return false, nil
}

func execute(cmd *cobra.Command, args []string) error {
	// Environment-derived defaults bind onto the controller config.
	cfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing environment: %w", err)
	}

	cfg.Mode, cfg.DelaySeconds = interfaceMode(cmd)
	cfg.ScrollPastEOF = viper.GetBool("scroll_past_eof")
	cfg.ReadAheadLines = viper.GetUint("read_ahead_lines")
	cfg.StartupPollInput = viper.GetBool("startup_poll_input")
	cfg.WrappingMode = viper.GetString("wrapping_mode")
	cfg.Keymap = loadKeymap(viper.GetString("keymap"))

	inputs, progress, err := buildInputs(&cfg, args)
	if err != nil {
		return err
	}

	return ui.Run(cfg, inputs, progress)
}

// loadKeymap resolves a named keymap under the config dir's keymaps/
// directory into the default binding set. Each non-comment line is
// "context key command"; the heavy keymap grammar lives outside the
// core, so anything unparsable here is skipped with a warning.
func loadKeymap(name string) prompt.Keymap {
	k := prompt.Default()
	if name == "" {
		return k
	}
	dirs, err := gap.NewScope(gap.User, "streampager").ConfigDirs()
	if err != nil || len(dirs) == 0 {
		log.Warn("could not resolve config dir for keymap", "name", name, "err", err)
		return k
	}
	path := filepath.Join(dirs[0], "keymaps", name)
	f, err := os.Open(path)
	if err != nil {
		log.Warn("could not open keymap", "path", path, "err", err)
		return k
	}
	defer f.Close() //nolint:errcheck

	contexts := map[string]prompt.Context{
		"normal": prompt.ContextNormal,
		"prompt": prompt.ContextPrompt,
		"help":   prompt.ContextHelp,
	}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineStr := strings.TrimSpace(sc.Text())
		if lineStr == "" || strings.HasPrefix(lineStr, "#") {
			continue
		}
		fields := strings.Fields(lineStr)
		if len(fields) != 3 {
			log.Warn("skipping malformed keymap line", "line", lineStr)
			continue
		}
		ctx, ok := contexts[fields[0]]
		if !ok {
			log.Warn("skipping unknown keymap context", "context", fields[0])
			continue
		}
		k.Bind(ctx, fields[1], prompt.Command(fields[2]))
	}
	return k
}

func main() {
	var err error

	notify := make(chan os.Signal, 1)
	signal.Notify(notify, syscall.SIGTERM, syscall.SIGINT)
	done := make(chan struct{})
	go func() {
		select {
		case s := <-notify:
			// The Bubble Tea program restores the terminal on its own
			// ctrl+c path; this covers the pre-fullscreen window and
			// non-interactive modes.
			signal.Stop(notify)
			if s == syscall.SIGINT {
				os.Exit(ExitCodeSIGINT)
			}
			os.Exit(ExitCodeSIGTERM)
		case <-done:
		}
	}()

	defer func() {
		close(done)
		signal.Stop(notify)

		if err != nil {
			var exitErr *ExitError
			if errors.As(err, &exitErr) {
				fmt.Fprintln(os.Stderr, exitErr.Error())
				os.Exit(exitErr.Code)
			}
			os.Exit(ExitCodeInternal)
		}
	}()

	closer, err := setupLog(viper.GetBool("debug"))
	if err != nil {
		fmt.Println(err)
		return
	}
	defer closer() //nolint:errcheck

	err = rootCmd.Execute()
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &ExitError{Code: ExitCodeBadArgs, Err: err}
	})

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVarP(&fullscreen, "fullscreen", "F", false, "enter full-screen immediately")
	rootCmd.Flags().Float64VarP(&delayed, "delayed", "D", 2, "delay full-screen entry by SECONDS; short input prints inline")
	rootCmd.Flags().BoolVarP(&noAlternate, "no-alternate", "X", false, "do not switch to the alternate screen")
	rootCmd.Flags().StringArrayVarP(&commands, "command", "c", nil, "run a command and page its output (repeatable)")
	rootCmd.Flags().StringArrayVar(&fdArgs, "fd", nil, "page an inherited file descriptor, FD[=TITLE] (repeatable)")
	rootCmd.Flags().StringArrayVar(&errorFdArgs, "error-fd", nil, "attach FD[=TITLE] as the error stream of the previous input")
	rootCmd.Flags().IntVar(&progressFd, "progress-fd", -1, "read form-feed-delimited progress pages from FD")
	rootCmd.Flags().BoolVar(&force, "force", false, "always page, even when the input would fit the terminal")

	viper.SetDefault("interface_mode", "delayed")
	viper.SetDefault("scroll_past_eof", false)
	viper.SetDefault("read_ahead_lines", 1000)
	viper.SetDefault("startup_poll_input", true)
	viper.SetDefault("wrapping_mode", "none")
	viper.SetDefault("keymap", "")
	viper.SetDefault("debug", false)
}

// knownConfigKeys is the recognized streampager.toml surface; anything
// else is ignored with a warning.
var knownConfigKeys = map[string]bool{
	"interface_mode":     true,
	"scroll_past_eof":    true,
	"read_ahead_lines":   true,
	"startup_poll_input": true,
	"wrapping_mode":      true,
	"keymap":             true,
	"debug":              true,
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "streampager")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: Could not load configuration directory: %v\n", err)
		return
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "streampager")}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("streampager")
	viper.SetConfigType("toml")
	viper.SetEnvPrefix("streampager")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
		return
	}

	for _, key := range viper.AllKeys() {
		if !knownConfigKeys[key] {
			log.Warn("Ignoring unknown configuration key", "key", key)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
	}
}
