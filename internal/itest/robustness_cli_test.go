//go:build integration

package itest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"
)

const cliTimeout = 2 * time.Minute

type robustCase struct {
	name            string
	args            func(t *testing.T, repoRoot string) []string
	env             map[string]string
	wantContains    []string
	wantNotContains []string
}

type cliRunResult struct {
	exitCode int
	output   string
}

func TestRobustness_ArgsValidation(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	sample := fixturePath(t)

	cases := []robustCase{
		{
			name: "too many args",
			args: staticArgs(sample, "extra"),
			wantContains: []string{
				"accepts at most 1 arg(s), received 2",
			},
		},
		{
			name: "unknown flag",
			args: staticArgs(sample, "--wat"),
			wantContains: []string{
				"unknown flag: --wat",
			},
		},
		{
			name: "width non int",
			args: staticArgs(sample, "--width", "nope"),
			wantContains: []string{
				`invalid argument "nope"`,
			},
		},
		{
			name: "fps zero",
			args: staticArgs(sample, "--fps", "0"),
			wantContains: []string{
				"config: fps must be > 0",
			},
		},
		{
			name: "unknown mode",
			args: staticArgs(sample, "--mode", "gif"),
			wantContains: []string{
				`config: unknown output mode "gif"`,
			},
		},
		{
			name: "raster too small",
			args: staticArgs(sample, "--mode", "video", "--raster", "320x240"),
			wantContains: []string{
				"does not fit raster 320x240",
			},
		},
		{
			name: "malformed raster",
			args: staticArgs(sample, "--mode", "video", "--raster", "huge"),
			wantContains: []string{
				"config: --raster: want WxH",
			},
		},
		{
			name: "bad env default",
			args: staticArgs(sample),
			env: map[string]string{
				"ASCIIFY_WIDTH": "wide",
			},
			wantContains: []string{
				"config: parse env",
			},
		},
		{
			name: "missing preset",
			args: staticArgs(sample, "--config", "/nonexistent/preset.yaml"),
			wantContains: []string{
				"config: read preset",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_InvalidInputMedia(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	sample := fixturePath(t)

	cases := []robustCase{
		{
			name: "missing input path",
			args: staticArgs(filepath.Join(t.TempDir(), "does-not-exist.mp4")),
			wantContains: []string{
				"source unavailable",
				"no such file or directory",
			},
		},
		{
			name: "input is directory",
			args: func(t *testing.T, _ string) []string {
				return []string{t.TempDir()}
			},
			wantContains: []string{
				"source unavailable",
				"is a directory",
			},
		},
		{
			name: "input is non media file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				p := filepath.Join(t.TempDir(), "not-media.txt")
				if err := os.WriteFile(p, []byte("hello"), 0o644); err != nil {
					t.Fatalf("write fixture: %v", err)
				}
				return []string{p}
			},
			wantContains: []string{
				"source unavailable",
				"ffprobe",
			},
			wantNotContains: []string{
				"_ascii.bat",
			},
		},
		{
			name: "out points to file",
			args: func(t *testing.T, _ string) []string {
				t.Helper()
				tmp := t.TempDir()
				outFile := filepath.Join(tmp, "out-file")
				if err := os.WriteFile(outFile, []byte("x"), 0o644); err != nil {
					t.Fatalf("write out file fixture: %v", err)
				}
				return []string{sample, "--out", outFile}
			},
			wantContains: []string{
				"write failure",
				"not a directory",
			},
		},
	}

	runRobustCases(t, repoRoot, cases)
}

func TestRobustness_NoSourceHeadless(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	res := runCLI(t, repoRoot, []string{"--yes"}, nil)
	if res.exitCode != 0 {
		t.Fatalf("expected exit 0 without a source, got %d\noutput:\n%s", res.exitCode, res.output)
	}
	if !strings.Contains(res.output, "no file selected") {
		t.Fatalf("expected a no selection notice\noutput:\n%s", res.output)
	}
}

func TestCLI_ScriptHeadless(t *testing.T) {
	repoRoot := mustRepoRoot(t)
	sample := fixturePath(t)
	out := t.TempDir()

	res := runCLI(t, repoRoot, []string{sample, "--yes", "--out", out, "-n", "20", "-W", "60", "-H", "20"}, nil)
	if res.exitCode != 0 {
		t.Fatalf("cli failed with %d\noutput:\n%s", res.exitCode, res.output)
	}
	script := filepath.Join(out, "sample_ascii", "sample_ascii.bat")
	b, err := os.ReadFile(script)
	if err != nil {
		t.Fatalf("read script: %v\noutput:\n%s", err, res.output)
	}
	if n := strings.Count(string(b), "\r\necho Frame "); n != 20 {
		t.Fatalf("expected 20 frames, got %d", n)
	}
	if !strings.Contains(res.output, "processed frames") {
		t.Fatalf("expected progress lines\noutput:\n%s", res.output)
	}
}

func runRobustCases(t *testing.T, repoRoot string, cases []robustCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := runCLI(t, repoRoot, tc.args(t, repoRoot), tc.env)
			if res.exitCode == 0 {
				t.Fatalf("expected non-zero exit code, got 0\noutput:\n%s", res.output)
			}
			for _, want := range tc.wantContains {
				if !strings.Contains(res.output, want) {
					t.Fatalf("expected output to contain %q\noutput:\n%s", want, res.output)
				}
			}
			for _, notWant := range tc.wantNotContains {
				if strings.Contains(res.output, notWant) {
					t.Fatalf("expected output to not contain %q\noutput:\n%s", notWant, res.output)
				}
			}
		})
	}
}

func runCLI(t *testing.T, repoRoot string, args []string, env map[string]string) cliRunResult {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), cliTimeout)
	defer cancel()

	cmdArgs := append([]string{"run", "./cmd/asciify"}, args...)
	cmd := exec.CommandContext(ctx, "go", cmdArgs...)
	cmd.Dir = repoRoot
	cmd.Env = mergeEnv(
		os.Environ(),
		map[string]string{
			"NO_COLOR": "1",
			"TERM":     "dumb",
		},
		env,
	)

	out, err := cmd.CombinedOutput()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		t.Fatalf("command timed out after %s: go %s", cliTimeout, strings.Join(cmdArgs, " "))
	}

	res := cliRunResult{output: string(out)}
	if err == nil {
		res.exitCode = 0
		return res
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		res.exitCode = exitErr.ExitCode()
		return res
	}

	t.Fatalf("run command: %v\noutput:\n%s", err, string(out))
	return cliRunResult{}
}

func mergeEnv(base []string, overrides ...map[string]string) []string {
	env := make(map[string]string, len(base))
	for _, kv := range base {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			continue
		}
		env[kv[:i]] = kv[i+1:]
	}

	for _, set := range overrides {
		for k, v := range set {
			env[k] = v
		}
	}

	out := make([]string, 0, len(env))
	for k, v := range env {
		out = append(out, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(out)
	return out
}

// fixturePath returns a short lavfi clip shared by every case of a test.
func fixturePath(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "sample.mp4")
	makeFixture(t, p, "160x120", 30, 2)
	return p
}

func mustRepoRoot(t *testing.T) string {
	t.Helper()

	repoRoot, err := findRepoRoot()
	if err != nil {
		t.Fatalf("repo root: %v", err)
	}
	return repoRoot
}

func staticArgs(args ...string) func(t *testing.T, _ string) []string {
	clone := append([]string(nil), args...)
	return func(t *testing.T, _ string) []string {
		t.Helper()
		return append([]string(nil), clone...)
	}
}
