package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"
)

func testApp(out, errOut *bytes.Buffer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	app.ExitErrHandler = func(*cli.Context, error) {}
	return app
}

func setupDirs(t *testing.T) (string, string) {
	t.Helper()
	root := t.TempDir()
	input := filepath.Join(root, "data")
	if err := os.MkdirAll(input, 0755); err != nil {
		t.Fatal(err)
	}
	return input, filepath.Join(root, "outputs")
}

func TestApp_RunAndHistory(t *testing.T) {
	input, output := setupDirs(t)
	files := map[string]string{
		"a.txt": "1\n2\n2\nx\n",
		"b.txt": "2\n3\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(input, name), []byte(content), 0644); err != nil {
			t.Fatal(err)
		}
	}

	var out, errOut bytes.Buffer
	args := []string{"scale-map", "run", "--quiet", "--input-dir", input, "--output-dir", output, "--top", "2"}
	if err := testApp(&out, &errOut).Run(args); err != nil {
		t.Fatalf("run error = %v (stderr: %s)", err, errOut.String())
	}

	report, err := os.ReadFile(filepath.Join(output, "final_output.txt"))
	if err != nil {
		t.Fatalf("report missing: %v", err)
	}
	want := "Top 2 elements with the highest frequencies:\n" +
		"Number: 2, Frequency: 3\n" +
		"Number: 1, Frequency: 1\n"
	if string(report) != want {
		t.Errorf("report = %q, want %q", report, want)
	}
	if !strings.Contains(out.String(), want) {
		t.Errorf("stdout missing report:\n%s", out.String())
	}

	out.Reset()
	if err := testApp(&out, &errOut).Run([]string{"scale-map", "history", "--output-dir", output}); err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out.String(), "completed") || !strings.Contains(out.String(), "Total: 1 runs") {
		t.Errorf("history output missing run:\n%s", out.String())
	}

	out.Reset()
	if err := testApp(&out, &errOut).Run([]string{"scale-map", "history", "show", "--output-dir", output}); err != nil {
		t.Fatalf("history show error = %v", err)
	}
	if !strings.Contains(out.String(), "Number: 2, Frequency: 3") {
		t.Errorf("history show missing results:\n%s", out.String())
	}
}

func TestApp_NoInputExitsCleanly(t *testing.T) {
	input, output := setupDirs(t)

	var out, errOut bytes.Buffer
	args := []string{"scale-map", "run", "--quiet", "--no-history", "--input-dir", input, "--output-dir", output}
	if err := testApp(&out, &errOut).Run(args); err != nil {
		t.Fatalf("run error = %v, want clean exit", err)
	}
	if !strings.Contains(errOut.String(), "No data files found") {
		t.Errorf("stderr = %q, want a no-input message", errOut.String())
	}
	if _, err := os.Stat(filepath.Join(output, "final_output.txt")); !os.IsNotExist(err) {
		t.Errorf("report written for empty input: %v", err)
	}
}

func TestApp_MapReduceClean(t *testing.T) {
	input, output := setupDirs(t)
	if err := os.WriteFile(filepath.Join(input, "a.txt"), []byte("5\n5\n6\n"), 0644); err != nil {
		t.Fatal(err)
	}

	var out, errOut bytes.Buffer
	base := []string{"--quiet", "--no-history", "--input-dir", input, "--output-dir", output}
	for _, cmd := range []string{"map", "reduce", "clean"} {
		args := append([]string{"scale-map", cmd}, base...)
		if cmd == "clean" {
			args = []string{"scale-map", "clean", "--output-dir", output}
		}
		if err := testApp(&out, &errOut).Run(args); err != nil {
			t.Fatalf("%s error = %v (stderr: %s)", cmd, err, errOut.String())
		}
		if cmd == "reduce" && !strings.Contains(out.String(), "Number: 5, Frequency: 2") {
			t.Errorf("reduce output missing report:\n%s", out.String())
		}
	}

	if _, err := os.Stat(filepath.Join(output, "mapper_output_0.json")); !os.IsNotExist(err) {
		t.Errorf("clean left mapper output behind: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "final_output.txt")); !os.IsNotExist(err) {
		t.Errorf("clean left report behind: %v", err)
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# comment\nSCALE_MAP_TEST_NEW=\"from-file\"\nSCALE_MAP_TEST_SET=from-file\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCALE_MAP_TEST_SET", "from-env")
	t.Setenv("SCALE_MAP_TEST_NEW", "")
	os.Unsetenv("SCALE_MAP_TEST_NEW")

	if err := loadDotenv(path); err != nil {
		t.Fatalf("loadDotenv() error = %v", err)
	}
	if got := os.Getenv("SCALE_MAP_TEST_NEW"); got != "from-file" {
		t.Errorf("SCALE_MAP_TEST_NEW = %q, want from-file", got)
	}
	if got := os.Getenv("SCALE_MAP_TEST_SET"); got != "from-env" {
		t.Errorf("SCALE_MAP_TEST_SET = %q, want existing value kept", got)
	}

	if err := loadDotenv(filepath.Join(dir, "missing.env")); err != nil {
		t.Errorf("loadDotenv() on missing file error = %v, want nil", err)
	}
}
