package deck

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/slidebuilder/internal/config"
	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/logfields"
)

// RevealMDBuilder invokes `<command...> <source> --static <dest> <args...>` once per talk.
// The process runs inside WorkDir (the content root) so a reveal-md.json there applies to
// every talk; the source path is passed relative to it.
type RevealMDBuilder struct {
	Command    []string
	Args       []string
	WorkDir    string
	Timeout    time.Duration
	EntryFiles []string
}

// NewRevealMDBuilder configures the converter from the build configuration.
func NewRevealMDBuilder(cfg *config.Config) *RevealMDBuilder {
	return &RevealMDBuilder{
		Command:    cfg.Converter.Command,
		Args:       cfg.Converter.Args,
		WorkDir:    cfg.Content.Root,
		Timeout:    cfg.Converter.TimeoutDuration(),
		EntryFiles: cfg.Assets.EntryFiles,
	}
}

// Build runs the converter and blocks until it exits.
func (b *RevealMDBuilder) Build(ctx context.Context, sourcePath, destDir string) (BuildOutput, error) {
	if len(b.Command) == 0 {
		return BuildOutput{}, errors.ConfigError("no converter command configured").Build()
	}
	bin, err := exec.LookPath(b.Command[0])
	if err != nil {
		return BuildOutput{}, errors.ExternalToolFailure("converter executable not found").
			WithCause(fmt.Errorf("%w: %w", ErrConverterNotFound, err)).
			WithContext("command", b.Command[0]).
			Build()
	}

	argv, err := b.arguments(sourcePath, destDir)
	if err != nil {
		return BuildOutput{}, errors.InternalError("cannot resolve converter paths").WithCause(err).Build()
	}
	cmdline := strings.Join(append(append([]string{}, b.Command...), argv...), " ")

	if b.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, b.Command[1:]...), argv...)
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = b.WorkDir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	slog.Info("> "+cmdline, logfields.Command(cmdline))
	runErr := cmd.Run()

	if out := stdout.String(); out != "" {
		slog.Debug("converter stdout", "output", out)
	}
	if errOut := stderr.String(); errOut != "" {
		slog.Warn("converter stderr", "error_output", errOut)
	}

	if runErr != nil {
		cause := fmt.Errorf("%w: %w", ErrConverterFailed, runErr)
		if ctx.Err() == context.DeadlineExceeded {
			cause = fmt.Errorf("%w after %s: %w", ErrConverterTimeout, b.Timeout, runErr)
		}
		return BuildOutput{}, errors.ExternalToolFailure("deck converter failed").
			WithCause(cause).
			WithContext("command", cmdline).
			WithContext("output", combinedOutput(stdout.String(), stderr.String())).
			Build()
	}

	return CollectOutput(destDir, b.EntryFiles), nil
}

// arguments resolves paths against WorkDir: the source relative to it, the destination
// relative when possible so the logged command line stays short.
func (b *RevealMDBuilder) arguments(sourcePath, destDir string) ([]string, error) {
	workAbs, err := filepath.Abs(orDot(b.WorkDir))
	if err != nil {
		return nil, err
	}
	srcAbs, err := filepath.Abs(sourcePath)
	if err != nil {
		return nil, err
	}
	destAbs, err := filepath.Abs(destDir)
	if err != nil {
		return nil, err
	}
	src, err := filepath.Rel(workAbs, srcAbs)
	if err != nil {
		src = srcAbs
	}
	dest, err := filepath.Rel(workAbs, destAbs)
	if err != nil {
		dest = destAbs
	}
	if err := os.MkdirAll(filepath.Dir(destAbs), 0o750); err != nil {
		return nil, err
	}
	argv := []string{src, "--static", dest}
	return append(argv, b.Args...), nil
}

func orDot(dir string) string {
	if dir == "" {
		return "."
	}
	return dir
}

func combinedOutput(stdout, stderr string) string {
	switch {
	case stdout == "":
		return stderr
	case stderr == "":
		return stdout
	default:
		return stdout + "\n" + stderr
	}
}
