package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/slidebuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/slidebuilder/internal/manifest"
)

const fakeReveal = `#!/bin/sh
[ "$2" = "--static" ] || exit 64
mkdir -p "$3/dist" "$3/css"
echo 'body{}' > "$3/dist/reveal.css"
cat > "$3/index.html" <<'HTML'
<html><head><link rel="stylesheet" href="./dist/reveal.css"></head>
<body><script src="./dist/reveal.js"></script></body></html>
HTML
`

type project struct {
	dir    string
	config string
	output string
}

// newProject lays out two talks and a configuration pointing at a fake converter.
func newProject(t *testing.T, converter string) project {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell script converter requires a POSIX shell")
	}
	dir := t.TempDir()
	for _, rel := range []string{"talks/intro/presentation.md", "talks/physics/Gravity/presentation.md"} {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o750))
		require.NoError(t, os.WriteFile(p, []byte("# Slide one\n\n---\n\n# Slide two\n"), 0o600))
	}
	script := filepath.Join(dir, "fake-reveal")
	require.NoError(t, os.WriteFile(script, []byte(converter), 0o755))

	p := project{
		dir:    dir,
		config: filepath.Join(dir, "slidebuilder.yaml"),
		output: filepath.Join(dir, "public", "slides"),
	}
	yaml := "content:\n  root: " + filepath.Join(dir, "talks") + "\n" +
		"output:\n  directory: " + p.output + "\n" +
		"workspace:\n  directory: " + filepath.Join(dir, ".slides-tmp") + "\n" +
		"converter:\n  command: [" + script + "]\n"
	require.NoError(t, os.WriteFile(p.config, []byte(yaml), 0o600))
	return p
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var cli CLI
	parser, err := kong.New(&cli, kong.Name("slidebuilder"), kong.Vars{"version": "test"},
		kong.Exit(func(int) { t.Fatal("unexpected exit") }))
	require.NoError(t, err)
	kctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	var out bytes.Buffer
	err = kctx.Run(&Global{Out: &out}, &cli)
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	p := newProject(t, fakeReveal)

	out, err := run(t, "-c", p.config, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 2 talk(s)")

	page, err := os.ReadFile(filepath.Join(p.output, "gravity", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), `href="../dist/reveal.css"`)
	assert.NotContains(t, string(page), `"./dist/`)
	assert.FileExists(t, filepath.Join(p.output, "dist", "reveal.css"))

	entries, err := manifest.Read(filepath.Join(p.output, "talks.json"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "intro", entries[0].Slug, "lexical discovery order")
	assert.Equal(t, "/slides/gravity/", entries[1].URL)
	assert.Equal(t, "physics", entries[1].Category)
}

func TestBuildCommand_OutputOverrideAndMetrics(t *testing.T) {
	p := newProject(t, fakeReveal)
	alt := filepath.Join(p.dir, "site", "decks")
	metricsFile := filepath.Join(p.dir, "slidebuilder.prom")

	_, err := run(t, "-c", p.config, "build", "-o", alt, "--metrics-file", metricsFile)
	require.NoError(t, err)

	entries, err := manifest.Read(filepath.Join(alt, "talks.json"))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "/decks/intro/", entries[0].URL)
	assert.NoDirExists(t, p.output)

	data, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "slidebuilder_build_outcomes_total")
}

func TestBuildCommand_ConverterFailure(t *testing.T) {
	p := newProject(t, "#!/bin/sh\necho 'theme not found' >&2\nexit 1\n")

	_, err := run(t, "-c", p.config, "build")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryExternalTool))
	assert.Equal(t, 9, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
	assert.NoDirExists(t, p.output)
}

func TestBuildCommand_InvalidConfig(t *testing.T) {
	p := newProject(t, fakeReveal)
	require.NoError(t, os.WriteFile(p.config, []byte("converter:\n  timeout: soon\n"), 0o600))

	_, err := run(t, "-c", p.config, "build")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))
	assert.Equal(t, 7, errors.NewCLIErrorAdapter(false, nil).ExitCodeFor(err))
}

func TestDiscoverCommand_Table(t *testing.T) {
	p := newProject(t, fakeReveal)

	out, err := run(t, "-c", p.config, "discover")
	require.NoError(t, err)
	assert.Contains(t, out, "gravity")
	assert.Contains(t, out, "physics/Gravity/presentation.md")
	assert.Contains(t, out, "2 talk(s) under")
}

func TestDiscoverCommand_JSON(t *testing.T) {
	p := newProject(t, fakeReveal)

	out, err := run(t, "-c", p.config, "discover", "--json")
	require.NoError(t, err)

	var entries []manifest.Entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2)
	assert.Equal(t, "Gravity", entries[1].Title)
	assert.NoDirExists(t, p.output, "discover never writes output")
}

func TestInitCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "slidebuilder.yaml")

	out, err := run(t, "-c", path, "init")
	require.NoError(t, err)
	assert.Contains(t, out, path)
	assert.FileExists(t, path)

	_, err = run(t, "-c", path, "init")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryConfig))

	_, err = run(t, "-c", path, "init", "--force")
	require.NoError(t, err)
}

func TestInvalidLogFormat(t *testing.T) {
	_, err := run(t, "--log-format", "xml", "discover")
	require.Error(t, err)
}

func TestBuildCommand_DryRun(t *testing.T) {
	p := newProject(t, fakeReveal)

	out, err := run(t, "-c", p.config, "build", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "dry run")
	assert.NoDirExists(t, p.output)
}

func TestCleanCommand(t *testing.T) {
	p := newProject(t, fakeReveal)
	_, err := run(t, "-c", p.config, "build")
	require.NoError(t, err)
	require.DirExists(t, p.output)

	out, err := run(t, "-c", p.config, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed "+p.output)
	assert.NoDirExists(t, p.output)

	out, err = run(t, "-c", p.config, "clean")
	require.NoError(t, err)
	assert.Contains(t, out, "Nothing to clean")
}

func TestCleanCommand_RefusesForeignDirectory(t *testing.T) {
	p := newProject(t, fakeReveal)
	require.NoError(t, os.MkdirAll(p.output, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(p.output, "notes.txt"), []byte("mine"), 0o600))

	_, err := run(t, "-c", p.config, "clean")
	require.Error(t, err)
	assert.True(t, errors.HasCategory(err, errors.CategoryValidation))
	assert.FileExists(t, filepath.Join(p.output, "notes.txt"))
}

func TestDiscoverCommand_ShowsMetadata(t *testing.T) {
	p := newProject(t, fakeReveal)
	meta := filepath.Join(p.dir, "talks", "intro", "meta.json")
	require.NoError(t, os.WriteFile(meta, []byte(`{"tag":"Go"}`), 0o600))

	out, err := run(t, "-c", p.config, "discover")
	require.NoError(t, err)
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "intro/presentation.md") {
			assert.Contains(t, line, "yes")
			assert.Contains(t, line, "Go")
		}
		if strings.Contains(line, "Gravity/presentation.md") {
			assert.NotContains(t, line, "yes")
		}
	}
}

func TestWatchRebuildReloadsConfig(t *testing.T) {
	p := newProject(t, fakeReveal)
	cli := &CLI{Config: p.config}
	cmd := &WatchCmd{}
	var out bytes.Buffer
	rebuild := cmd.rebuilder(&Global{Out: &out}, cli, filepath.Join(p.dir, "talks"))

	require.NoError(t, rebuild(context.Background()))
	assert.FileExists(t, filepath.Join(p.output, "talks.json"))

	data, err := os.ReadFile(p.config)
	require.NoError(t, err)
	moved := filepath.Join(p.dir, "site", "decks")
	edited := strings.Replace(string(data), "directory: "+p.output, "directory: "+moved, 1)
	require.NotEqual(t, string(data), edited)
	require.NoError(t, os.WriteFile(p.config, []byte(edited), 0o600))

	require.NoError(t, rebuild(context.Background()))
	entries, err := manifest.Read(filepath.Join(moved, "talks.json"))
	require.NoError(t, err)
	assert.Equal(t, "/decks/intro/", entries[0].URL)
	assert.Contains(t, out.String(), moved)
}
