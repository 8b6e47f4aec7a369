package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	cerrors "github.com/matzehuels/coaldraw/pkg/errors"
	"github.com/matzehuels/coaldraw/pkg/tree"
)

const (
	testAncestors = "4,4,5,6,5,6,-1"
	testBranches  = "1,1,2,3,1,2,0"
)

// testEnv is a config file with a private cache directory.
type testEnv struct {
	dir    string
	config string
}

func newTestEnv(t *testing.T, extra string) testEnv {
	t.Helper()
	dir := t.TempDir()
	body := fmt.Sprintf("[cache]\ndir = %q\n%s", filepath.Join(dir, "cache"), extra)
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return testEnv{dir: dir, config: path}
}

// run executes the root command and returns what it printed.
func (e testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := New(io.Discard, LogInfo)
	c.SetOutput(&out)

	root := c.RootCommand()
	root.SetArgs(append([]string{"--config", e.config}, args...))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func (e testEnv) path(name string) string { return filepath.Join(e.dir, name) }

func TestRenderToFile(t *testing.T) {
	env := newTestEnv(t, "")
	target := env.path("out/tree.svg")

	out, err := env.run(t, "render", "--ancestors", testAncestors, "--branches", testBranches, "--labels", "-o", target)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("<svg")) {
		t.Errorf("output does not start with <svg: %.40q", data)
	}
	for _, want := range []string{"Rendered tree", "7 nodes", "6 edges", "fresh", target} {
		if !strings.Contains(out, want) {
			t.Errorf("render output missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "render", "--ancestors", testAncestors, "--branches", testBranches, "--labels", "-o", target)
	if err != nil {
		t.Fatalf("second render error: %v", err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("second render should be served from cache:\n%s", out)
	}
}

func TestRenderMultipleFormats(t *testing.T) {
	env := newTestEnv(t, "")
	treeFile := env.path("tree.json")
	if _, err := env.run(t, "tree", "build", "--ancestors", testAncestors, "--branches", testBranches, "-o", treeFile); err != nil {
		t.Fatalf("tree build error: %v", err)
	}

	if _, err := env.run(t, "render", treeFile, "-f", "svg,json,dot", "--no-cache"); err != nil {
		t.Fatalf("render error: %v", err)
	}
	for _, name := range []string{"tree.svg", "tree.scene.json", "tree.dot"} {
		if _, err := os.Stat(env.path(name)); err != nil {
			t.Errorf("expected %s: %v", name, err)
		}
	}
	if _, err := tree.ReadFile(treeFile); err != nil {
		t.Errorf("tree file no longer readable: %v", err)
	}
}

func TestRenderStdout(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "render", "--ancestors", testAncestors, "--branches", testBranches, "-o", "-", "-f", "dot", "--no-cache")
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.HasPrefix(out, "digraph G {") {
		t.Errorf("stdout = %.40q, want DOT source", out)
	}

	_, err = env.run(t, "render", "--ancestors", testAncestors, "--branches", testBranches, "-o", "-", "-f", "svg,png", "--no-cache")
	if !cerrors.Is(err, cerrors.ErrCodeInvalidOptions) {
		t.Errorf("stdout with two formats error = %v, want INVALID_OPTIONS", err)
	}
}

func TestRenderConfigDefaults(t *testing.T) {
	env := newTestEnv(t, "[render]\nwidth = 250\nheight = 120\n")

	tests := []struct {
		name  string
		flags []string
		want  string
	}{
		{"from config", nil, `width="250" height="120"`},
		{"flag wins", []string{"--width", "300"}, `width="300" height="120"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--ancestors", testAncestors, "--branches", testBranches, "-o", "-", "--no-cache"}, tt.flags...)
			out, err := env.run(t, args...)
			if err != nil {
				t.Fatalf("render error: %v", err)
			}
			if !strings.Contains(out, tt.want) {
				t.Errorf("svg missing %q:\n%.200s", tt.want, out)
			}
		})
	}
}

func TestRenderErrors(t *testing.T) {
	env := newTestEnv(t, "")

	tests := []struct {
		name string
		args []string
		code cerrors.Code
	}{
		{"no tree", []string{"render"}, cerrors.ErrCodeInvalidInput},
		{"bad format", []string{"render", "--ancestors", "2,2,-1", "--branches", "1,1,0", "-f", "gif"}, cerrors.ErrCodeInvalidFormat},
		{"bad viz", []string{"render", "--ancestors", "2,2,-1", "--branches", "1,1,0", "--viz", "radial"}, cerrors.ErrCodeInvalidOptions},
		{"bad mutation", []string{"render", "--ancestors", "2,2,-1", "--branches", "1,1,0", "--mutation", "one"}, cerrors.ErrCodeInvalidOptions},
		{"missing css", []string{"render", "--ancestors", "2,2,-1", "--branches", "1,1,0", "--css", "nope.css"}, cerrors.ErrCodeFileNotFound},
		{"cyclic tree", []string{"render", "--ancestors", "1,0", "--branches", "1,1"}, cerrors.ErrCodeInvalidTree},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.run(t, tt.args...)
			if !cerrors.Is(err, tt.code) {
				t.Errorf("error = %v, want code %s", err, tt.code)
			}
		})
	}
}

func TestTreeCommands(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "tree", "build", "--ancestors", testAncestors, "--branches", testBranches)
	if err != nil {
		t.Fatalf("tree build error: %v", err)
	}
	tr, err := tree.Read(strings.NewReader(out))
	if err != nil {
		t.Fatalf("tree build output is not a tree: %v", err)
	}
	if tr.Len() != 7 {
		t.Errorf("built tree has %d nodes, want 7", tr.Len())
	}

	out, err = env.run(t, "tree", "info", "--ancestors", "2,2,-1", "--branches", "1,1,0")
	if err != nil {
		t.Fatalf("tree info error: %v", err)
	}
	for _, want := range []string{"Nodes", "Leaves", "leaf", "internal", "root", "400x200"} {
		if !strings.Contains(out, want) {
			t.Errorf("tree info missing %q:\n%s", want, out)
		}
	}
}

func TestFigureCommand(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "figure")
	if err != nil {
		t.Fatalf("figure list error: %v", err)
	}
	if out != "coalescent_plot\ncoalescent_tree\n" {
		t.Errorf("figure list = %q", out)
	}

	out, err = env.run(t, "figure", "coalescent_tree", "-o", "-", "--small")
	if err != nil {
		t.Fatalf("figure error: %v", err)
	}
	if !strings.HasPrefix(out, "<svg") {
		t.Errorf("figure stdout = %.40q, want SVG", out)
	}

	if _, err := env.run(t, "figure", "nope"); !cerrors.Is(err, cerrors.ErrCodeFigureNotFound) {
		t.Errorf("unknown figure error = %v, want FIGURE_NOT_FOUND", err)
	}
}

func TestQuizAnswer(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "quiz")
	if err != nil {
		t.Fatalf("quiz list error: %v", err)
	}
	if !strings.Contains(out, "WrightFisher") || !strings.Contains(out, "Q1") {
		t.Errorf("quiz list missing sections:\n%s", out)
	}

	out, err = env.run(t, "quiz", "WrightFisher", "Q1", "--answer", "2")
	if err != nil {
		t.Fatalf("correct answer error: %v", err)
	}
	if !strings.Contains(out, "Correct!") {
		t.Errorf("correct answer output:\n%s", out)
	}

	if _, err := env.run(t, "quiz", "WrightFisher", "Q1", "--answer", "1"); !errors.Is(err, ErrIncorrectAnswer) {
		t.Errorf("wrong answer error = %v, want ErrIncorrectAnswer", err)
	}
	if _, err := env.run(t, "quiz", "WrightFisher", "--answer", "1"); !cerrors.Is(err, cerrors.ErrCodeInvalidInput) {
		t.Errorf("answer without label error = %v, want INVALID_INPUT", err)
	}
	if _, err := env.run(t, "quiz", "WrightFisher", "Q1", "--question", "5", "--answer", "1"); !cerrors.Is(err, cerrors.ErrCodeInvalidInput) {
		t.Errorf("out of range question error = %v, want INVALID_INPUT", err)
	}
}

func TestCacheCommands(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "cache", "path")
	if err != nil {
		t.Fatalf("cache path error: %v", err)
	}
	if strings.TrimSpace(out) != env.path("cache") {
		t.Errorf("cache path = %q, want %q", strings.TrimSpace(out), env.path("cache"))
	}

	if _, err := env.run(t, "render", "--ancestors", "2,2,-1", "--branches", "1,1,0", "-o", env.path("t.svg")); err != nil {
		t.Fatalf("render error: %v", err)
	}
	out, err = env.run(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Cleared") {
		t.Errorf("cache clear output:\n%s", out)
	}

	disabled := newTestEnv(t, "backend = \"none\"\n")
	out, err = disabled.run(t, "cache", "clear")
	if err != nil {
		t.Fatalf("cache clear error: %v", err)
	}
	if !strings.Contains(out, "Caching is disabled") {
		t.Errorf("disabled cache clear output:\n%s", out)
	}
}

func TestConfigCommands(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.run(t, "config", "show")
	if err != nil {
		t.Fatalf("config show error: %v", err)
	}
	for _, want := range []string{"[render]", "[cache]", env.path("cache")} {
		if !strings.Contains(out, want) {
			t.Errorf("config show missing %q:\n%s", want, out)
		}
	}

	out, err = env.run(t, "config", "path")
	if err != nil {
		t.Fatalf("config path error: %v", err)
	}
	if strings.TrimSpace(out) != env.config {
		t.Errorf("config path = %q, want %q", strings.TrimSpace(out), env.config)
	}

	if _, err := env.run(t, "config", "init"); err == nil {
		t.Error("config init over an existing file should fail without --force")
	}
	if _, err := env.run(t, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error: %v", err)
	}
}

func TestInvalidConfig(t *testing.T) {
	env := newTestEnv(t, "[render]\ncolour = \"red\"\n")
	if _, err := env.run(t, "figure"); err == nil {
		t.Error("unknown config key should fail")
	}
}

func TestRenderCacheScope(t *testing.T) {
	env := newTestEnv(t, "scope = \"a:\"\n")
	args := []string{"render", "--ancestors", "2,2,-1", "--branches", "1,1,0", "-o", env.path("t.svg")}
	if _, err := env.run(t, args...); err != nil {
		t.Fatalf("render error: %v", err)
	}

	out, err := env.run(t, args...)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(out, "cached") {
		t.Errorf("scoped render should hit its own entry:\n%s", out)
	}

	// same directory, other scope
	other := env
	other.config = filepath.Join(env.dir, "other.toml")
	body := fmt.Sprintf("[cache]\ndir = %q\nscope = \"b:\"\n", env.path("cache"))
	if err := os.WriteFile(other.config, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	out, err = other.run(t, args...)
	if err != nil {
		t.Fatalf("render error: %v", err)
	}
	if !strings.Contains(out, "fresh") {
		t.Errorf("another scope should miss:\n%s", out)
	}
}
