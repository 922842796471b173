package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/vanderheijden86/kgview/pkg/debug"
)

// maxSummaryStderr caps the stderr excerpt printed per failed hook.
const maxSummaryStderr = 200

// Result is the outcome of one hook run.
type Result struct {
	Hook     Hook
	Phase    HookPhase
	Success  bool
	Stdout   string
	Stderr   string
	Duration time.Duration
	Error    error
}

// Executor runs the configured hooks for one export and records results.
type Executor struct {
	config  *Config
	export  ExportContext
	results []Result
}

// NewExecutor returns an executor for config. A nil config runs nothing.
func NewExecutor(config *Config, export ExportContext) *Executor {
	if config == nil {
		config = &Config{}
	}
	return &Executor{config: config, export: export}
}

// RunHooks loads .kgv/hooks.yaml from projectDir. It returns a nil executor
// when noHooks is set or nothing is configured.
func RunHooks(projectDir string, export ExportContext, noHooks bool) (*Executor, error) {
	if noHooks {
		return nil, nil
	}
	loader := NewLoader(WithProjectDir(projectDir))
	if err := loader.Load(); err != nil {
		return nil, err
	}
	for _, w := range loader.Warnings() {
		debug.Warn("hooks: %s", w)
	}
	if !loader.HasHooks() {
		return nil, nil
	}
	return NewExecutor(loader.Config(), export), nil
}

// SetExport replaces the export context, e.g. once the node count is known.
func (e *Executor) SetExport(export ExportContext) {
	e.export = export
}

// RunPreExport runs pre-export hooks in order and stops at the first failure
// whose on_error is "fail".
func (e *Executor) RunPreExport(ctx context.Context) error {
	for _, h := range e.config.Hooks.PreExport {
		res := e.run(ctx, h, PreExport)
		if !res.Success && h.OnError != OnErrorContinue {
			return fmt.Errorf("pre-export hook %q failed: %w", h.Name, res.Error)
		}
	}
	return nil
}

// RunPostExport runs every post-export hook. Failures with on_error "fail"
// are joined into the returned error after all hooks ran.
func (e *Executor) RunPostExport(ctx context.Context) error {
	var errs []error
	for _, h := range e.config.Hooks.PostExport {
		res := e.run(ctx, h, PostExport)
		if !res.Success && h.OnError == OnErrorFail {
			errs = append(errs, fmt.Errorf("post-export hook %q failed: %w", h.Name, res.Error))
		}
	}
	return errors.Join(errs...)
}

// Results returns the results recorded so far.
func (e *Executor) Results() []Result {
	return e.results
}

// Summary is a short human report of all hook runs, empty when none ran.
func (e *Executor) Summary() string {
	if len(e.results) == 0 {
		return ""
	}
	var ok, failed int
	for _, r := range e.results {
		if r.Success {
			ok++
		} else {
			failed++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Hooks: %d succeeded, %d failed\n", ok, failed)
	for _, r := range e.results {
		if r.Success {
			continue
		}
		fmt.Fprintf(&b, "  ✗ [%s] %s: %v\n", r.Phase, r.Hook.Name, r.Error)
		if r.Stderr != "" {
			fmt.Fprintf(&b, "    stderr: %s\n", truncate(r.Stderr, maxSummaryStderr))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (e *Executor) run(ctx context.Context, h Hook, phase HookPhase) Result {
	if ctx == nil {
		ctx = context.Background()
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := shellCommand(ctx, h.Command)
	cmd.Env = e.environ(h)
	cmd.WaitDelay = time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Hook:     h,
		Phase:    phase,
		Success:  err == nil,
		Stdout:   strings.TrimSpace(stdout.String()),
		Stderr:   strings.TrimSpace(stderr.String()),
		Duration: time.Since(start),
		Error:    err,
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		res.Success = false
		res.Error = fmt.Errorf("timed out after %v", timeout)
	}
	e.results = append(e.results, res)

	debug.Log("hooks: %s %q done in %v (ok=%v)", phase, h.Name, res.Duration, res.Success)
	return res
}

// environ is the process environment plus the export variables plus the
// hook's own env, whose values may reference either.
func (e *Executor) environ(h Hook) []string {
	exportEnv := e.export.ToEnv()
	lookup := make(map[string]string, len(exportEnv))
	for _, kv := range exportEnv {
		k, v, _ := strings.Cut(kv, "=")
		lookup[k] = v
	}

	env := append(os.Environ(), exportEnv...)
	for k, v := range h.Env {
		expanded := os.Expand(v, func(name string) string {
			if val, ok := lookup[name]; ok {
				return val
			}
			return os.Getenv(name)
		})
		env = append(env, k+"="+expanded)
	}
	return env
}

func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// truncate keeps s within n bytes, ending in "..." when cut, without
// splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n - 3
	if n <= 3 {
		cut = n
	}
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	if n <= 3 {
		return s[:cut]
	}
	return s[:cut] + "..."
}
