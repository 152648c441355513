package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ktgen/internal/config"
	"ktgen/internal/genbash"
	"ktgen/internal/jobs"
	"ktgen/internal/logging"
	"ktgen/internal/rundir"
	"ktgen/internal/settings"
)

// command describes a CLI subcommand.
type command struct {
	name  string
	short string
	usage string
	long  string
	run   func(args []string) error
}

var commands = []command{
	{
		name:  "init",
		short: "Create a run directory and starter settings",
		usage: "ktgen init <run-dir> [--defaults]",
		long: `Create a run directory with fifo/ input/ output/ static/ work/.

Prompts for the analysis settings (samples, threshold, which losses to
compute and which outputs to produce) and writes analysis_settings.yaml
and ktgen.yaml. With --defaults the prompts are skipped and every answer
takes its default.

Errors if the directory exists and is not empty.
`,
		run: runInit,
	},
	{
		name:  "genbash",
		short: "Write the run script for a run directory",
		usage: "ktgen genbash <run-dir> [processes]",
		long: `Compile the run directory's analysis settings into a shell script.

Settings are read from the path configured by analysis_settings
(default analysis_settings.json; .yaml and .toml are also accepted). The
script is written, executable, to the configured script path (default
run_ktools.sh) together with <script>.manifest.yaml.

processes overrides the configured process count. Configuration comes from
<run-dir>/ktgen.yaml and KTGEN_* variables, with <run-dir>/.env loaded
first.
`,
		run: runGenbash,
	},
	{
		name:  "show",
		short: "Print the run script without writing it",
		usage: "ktgen show <run-dir> [processes]",
		long: `Compile the run directory's analysis settings and print the script on
stdout. Nothing is written to the run directory.
`,
		run: runShow,
	},
	{
		name:  "plan",
		short: "Summarise the pipes and jobs a script would use",
		usage: "ktgen plan <run-dir> [processes]",
		long: `Print the number of named pipes per run type and the number of
background jobs per job family, plus any settings warnings.
`,
		run: runPlan,
	},
}

// stdout receives command output; logs go to stderr.
var stdout io.Writer = os.Stdout

// prompt asks the init questions. Tests replace it.
var prompt = promptQuestions

func printUsage(w io.Writer) {
	fmt.Fprintf(w, "ktgen: ktools run script generator\n\n")
	fmt.Fprintf(w, "Usage:\n  ktgen <command> [arguments]\n\n")
	fmt.Fprintf(w, "Commands:\n")
	for _, cmd := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", cmd.name, cmd.short)
	}
	fmt.Fprintf(w, "\nRun 'ktgen help <command>' for details on a specific command.\n")
}

func printCommandHelp(w io.Writer, name string) {
	for _, cmd := range commands {
		if cmd.name == name {
			fmt.Fprintf(w, "Usage: %s\n\n%s", cmd.usage, cmd.long)
			return
		}
	}
	fmt.Fprintf(w, "ktgen: unknown command %q\n\nRun 'ktgen help' for usage.\n", name)
}

func dispatch(args []string) error {
	if len(args) == 0 || args[0] == "--help" || args[0] == "-h" {
		printUsage(stdout)
		return nil
	}
	if args[0] == "help" {
		if len(args) >= 2 {
			printCommandHelp(stdout, args[1])
		} else {
			printUsage(stdout)
		}
		return nil
	}
	for _, cmd := range commands {
		if cmd.name == args[0] {
			return cmd.run(args[1:])
		}
	}
	return fmt.Errorf("unknown command %q\n\nRun 'ktgen help' for usage.", args[0])
}

// ---------------------------------------------------------------------------
// init
// ---------------------------------------------------------------------------

func runInit(args []string) error {
	var dir string
	defaults := false
	for _, a := range args {
		switch {
		case a == "--defaults":
			defaults = true
		case dir == "" && !strings.HasPrefix(a, "-"):
			dir = a
		default:
			return fmt.Errorf("usage: ktgen init <run-dir> [--defaults]")
		}
	}
	if dir == "" {
		return fmt.Errorf("usage: ktgen init <run-dir> [--defaults]")
	}

	answers := map[string]string{}
	if !defaults {
		var err error
		answers, err = prompt(settings.Questions())
		if err != nil {
			return fmt.Errorf("prompt: %w", err)
		}
	}
	s, err := settings.FromAnswers(answers)
	if err != nil {
		return err
	}
	data, err := settings.Marshal(s)
	if err != nil {
		return err
	}

	rd, err := rundir.Init(dir)
	if err != nil {
		return err
	}
	const settingsFile = "analysis_settings.yaml"
	if err := os.WriteFile(rd.Path(settingsFile), data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	cfg, err := yaml.Marshal(map[string]string{"analysis_settings": settingsFile})
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(rd.ConfigPath(), cfg, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	fmt.Fprintf(stdout, "created run directory %s\n", dir)
	for _, w := range settings.Lint(s) {
		fmt.Fprintf(stdout, "  warning: %s\n", w)
	}
	return nil
}

// ---------------------------------------------------------------------------
// genbash, show, plan
// ---------------------------------------------------------------------------

// session is a loaded run directory ready for generation.
type session struct {
	ctx          context.Context
	dir          *rundir.RunDir
	cfg          *config.Config
	log          *logging.Logger
	settingsPath string
	settings     *settings.AnalysisSettings
	warnings     []string
}

// open loads everything a command needs from "<run-dir> [processes]".
func open(name string, args []string) (*session, error) {
	if len(args) < 1 || len(args) > 2 {
		return nil, fmt.Errorf("usage: ktgen %s <run-dir> [processes]", name)
	}
	dir, err := rundir.Open(args[0])
	if err != nil {
		return nil, err
	}

	envPath := dir.Path(".env")
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return nil, fmt.Errorf("load %s: %w", envPath, err)
		}
	}
	cfg, err := config.Load(dir.ConfigPath())
	if err != nil {
		return nil, err
	}
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("processes must be a positive integer, got %q: %w", args[1], genbash.ErrNoProcesses)
		}
		cfg.Processes = n
	}

	l, err := logging.NewLogger(&cfg.Log)
	if err != nil {
		return nil, err
	}
	ctx := logging.WithRunID(context.Background(), uuid.NewString())
	l = l.Named(name)

	sess := &session{
		ctx:          ctx,
		dir:          dir,
		cfg:          cfg,
		log:          l,
		settingsPath: dir.Path(cfg.AnalysisSettings),
	}
	sess.settings, err = settings.Load(sess.settingsPath)
	if err != nil {
		return nil, err
	}
	sess.warnings = settings.Lint(sess.settings)
	for _, w := range sess.warnings {
		l.Warn(ctx, "settings warning", zap.String("warning", w), zap.String("settings", sess.settingsPath))
	}
	if cfg.Strict && len(sess.warnings) > 0 {
		return nil, fmt.Errorf("strict: %d settings warning(s): %s", len(sess.warnings), strings.Join(sess.warnings, "; "))
	}
	return sess, nil
}

func (s *session) options() []genbash.Option {
	return []genbash.Option{genbash.WithLogger(s.log), genbash.WithContext(s.ctx)}
}

func (s *session) close() {
	_ = s.log.Sync()
}

func runGenbash(args []string) error {
	sess, err := open("genbash", args)
	if err != nil {
		return err
	}
	defer sess.close()

	scriptPath := sess.dir.Path(sess.cfg.Script)
	r, err := genbash.Write(scriptPath, sess.settings, sess.cfg.Processes, sess.options()...)
	if err != nil {
		return err
	}
	sess.log.Info(sess.ctx, "wrote script", zap.String("path", scriptPath))

	if sess.cfg.Manifest {
		m, err := genbash.BuildManifest(r, sess.settingsPath, scriptPath)
		if err != nil {
			return err
		}
		if err := genbash.WriteManifest(genbash.ManifestPath(scriptPath), m); err != nil {
			return err
		}
	}
	fmt.Fprintf(stdout, "wrote %s (%d processes, %d pipes)\n", scriptPath, r.Processes, len(r.Fifos))
	return nil
}

func runShow(args []string) error {
	sess, err := open("show", args)
	if err != nil {
		return err
	}
	defer sess.close()

	r, err := genbash.Generate(sess.settings, sess.cfg.Processes, sess.options()...)
	if err != nil {
		return err
	}
	_, err = r.Script.WriteTo(stdout)
	return err
}

func runPlan(args []string) error {
	sess, err := open("plan", args)
	if err != nil {
		return err
	}
	defer sess.close()

	r, err := genbash.Generate(sess.settings, sess.cfg.Processes, sess.options()...)
	if err != nil {
		return err
	}
	fmt.Fprintf(stdout, "settings:  %s\n", sess.settingsPath)
	fmt.Fprintf(stdout, "processes: %d\n", r.Processes)
	fmt.Fprintf(stdout, "pipes:\n")
	for _, rt := range settings.RunTypes {
		n := 0
		for _, f := range r.Fifos {
			if f.RunType == rt {
				n++
			}
		}
		fmt.Fprintf(stdout, "  %-4s %d\n", rt, n)
	}
	fmt.Fprintf(stdout, "jobs:\n")
	for _, f := range jobs.Families {
		fmt.Fprintf(stdout, "  %-4s %d\n", f, r.Jobs[f.String()])
	}
	for _, w := range sess.warnings {
		fmt.Fprintf(stdout, "warning: %s\n", w)
	}
	outs, err := sess.dir.Outputs()
	if err != nil {
		return err
	}
	if len(outs) > 0 {
		fmt.Fprintf(stdout, "existing outputs, removed when the script runs: %s\n", strings.Join(outs, ", "))
	}
	return nil
}

func main() {
	if err := dispatch(os.Args[1:]); err != nil {
		if errors.Is(err, rundir.ErrNotRunDir) {
			fmt.Fprintf(os.Stderr, "ktgen: %v\n", err)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}
