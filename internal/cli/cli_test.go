// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes one invocation against a fresh command tree and returns
// stdout, stderr and the exit code Main would report.
func runCLI(t *testing.T, stdin string, args ...string) (string, string, int) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), exitCode(err)
}

func baseArgs(t *testing.T) []string {
	t.Helper()
	return []string{"--rng", "software", "--store-dir", t.TempDir()}
}

func splitLines(out string) []string {
	var lines []string
	for _, l := range strings.Split(out, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
	}
	return lines
}

func TestSplitCombine(t *testing.T) {
	base := baseArgs(t)

	out, _, code := runCLI(t, "Hello World!", append(base, "split", "-n", "5", "-k", "3")...)
	require.Equal(t, 0, code)
	shares := splitLines(out)
	require.Len(t, shares, 5)

	args := append(append(base, "combine"), shares[1:4]...)
	out, _, code = runCLI(t, "", args...)
	require.Equal(t, 0, code)
	assert.Equal(t, "Hello World!", out)

	args = append(append(base, "combine", "--base64"), shares[0], shares[2], shares[4])
	out, _, code = runCLI(t, "", args...)
	require.Equal(t, 0, code)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("Hello World!")), strings.TrimSpace(out))
}

func TestSplitJSONOutput(t *testing.T) {
	base := baseArgs(t)

	out, _, code := runCLI(t, "json secret", append(base, "-o", "json", "split", "-n", "4", "-k", "2")...)
	require.Equal(t, 0, code)

	var resp struct {
		Shares    []string `json:"shares"`
		Threshold uint64   `json:"threshold"`
		SetID     string   `json:"set_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Len(t, resp.Shares, 4)
	assert.Equal(t, uint64(2), resp.Threshold)
	assert.Empty(t, resp.SetID)

	out, _, code = runCLI(t, "", append(append(base, "-o", "json", "combine"), resp.Shares[2:]...)...)
	require.Equal(t, 0, code)
	var secret struct {
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &secret))
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("json secret")), secret.Secret)
}

func TestSplitFromFileAndBase64(t *testing.T) {
	base := baseArgs(t)
	dir := t.TempDir()

	secret := []byte{0x00, 0x00, 0xff, 0x10}
	in := filepath.Join(dir, "secret.b64")
	require.NoError(t, os.WriteFile(in, []byte(base64.StdEncoding.EncodeToString(secret)+"\n"), 0600))

	out, _, code := runCLI(t, "", append(base, "split", "-n", "3", "-k", "2", "--in", in, "--base64")...)
	require.Equal(t, 0, code)
	shares := splitLines(out)
	require.Len(t, shares, 3)

	shareFile := filepath.Join(dir, "shares.txt")
	content := "# shares\n\n" + shares[0] + "\n  " + shares[2] + "  \n"
	require.NoError(t, os.WriteFile(shareFile, []byte(content), 0600))

	outFile := filepath.Join(dir, "restored.bin")
	_, _, code = runCLI(t, "", append(base, "combine", "--in", shareFile, "--out", outFile)...)
	require.Equal(t, 0, code)

	restored, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Equal(t, secret, restored)

	info, err := os.Stat(outFile)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestCombineFromStdin(t *testing.T) {
	base := baseArgs(t)

	out, _, code := runCLI(t, "piped", append(base, "split", "-n", "3", "-k", "3")...)
	require.Equal(t, 0, code)

	out, _, code = runCLI(t, out, append(base, "combine", "--in", "-")...)
	require.Equal(t, 0, code)
	assert.Equal(t, "piped", out)
}

func TestShareSetLifecycle(t *testing.T) {
	base := baseArgs(t)

	out, _, code := runCLI(t, "stored secret",
		append(base, "-o", "json", "split", "-n", "5", "-k", "3", "--save", "--name", "backup")...)
	require.Equal(t, 0, code)
	var split struct {
		SetID string `json:"set_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &split))
	require.NotEmpty(t, split.SetID)

	out, _, code = runCLI(t, "", append(base, "-o", "json", "sets", "list")...)
	require.Equal(t, 0, code)
	var list struct {
		Sets []struct {
			ID        string `json:"id"`
			Name      string `json:"name"`
			Threshold uint64 `json:"threshold"`
			Total     uint64 `json:"total"`
		} `json:"sets"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &list))
	require.Len(t, list.Sets, 1)
	assert.Equal(t, split.SetID, list.Sets[0].ID)
	assert.Equal(t, "backup", list.Sets[0].Name)
	assert.Equal(t, uint64(3), list.Sets[0].Threshold)
	assert.Equal(t, uint64(5), list.Sets[0].Total)

	out, _, code = runCLI(t, "", append(base, "sets", "show", split.SetID)...)
	require.Equal(t, 0, code)
	assert.Contains(t, out, split.SetID)
	assert.Contains(t, out, "3 of 5")
	assert.NotContains(t, out, "stored secret")

	out, _, code = runCLI(t, "", append(base, "combine", "--set", split.SetID)...)
	require.Equal(t, 0, code)
	assert.Equal(t, "stored secret", out)

	_, _, code = runCLI(t, "", append(base, "sets", "delete", split.SetID)...)
	require.Equal(t, 0, code)

	_, _, code = runCLI(t, "", append(base, "sets", "show", split.SetID)...)
	assert.Equal(t, 4, code)

	out, _, code = runCLI(t, "", append(base, "sets", "list")...)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "No share sets found")
}

func TestInspect(t *testing.T) {
	base := baseArgs(t)

	out, _, code := runCLI(t, "inspect me", append(base, "split", "-n", "3", "-k", "2")...)
	require.Equal(t, 0, code)
	shares := splitLines(out)

	out, _, code = runCLI(t, "", append(append(base, "inspect"), shares...)...)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "INPUT")
	for _, s := range shares {
		assert.NotContains(t, out, s)
	}

	out, _, code = runCLI(t, "", append(append(base, "-o", "json", "inspect"), shares[0])...)
	require.Equal(t, 0, code)
	var info struct {
		Shares []struct {
			Input     uint64 `json:"input"`
			PrimeBits int    `json:"prime_bits"`
			SecretLen int    `json:"secret_len"`
		} `json:"shares"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	require.Len(t, info.Shares, 1)
	assert.Equal(t, uint64(1), info.Shares[0].Input)
	assert.Equal(t, 10, info.Shares[0].SecretLen)
	assert.GreaterOrEqual(t, info.Shares[0].PrimeBits, 88)
}

func TestExitCodes(t *testing.T) {
	base := baseArgs(t)

	out1, _, code := runCLI(t, "first-secret-0001", append(base, "split", "-n", "3", "-k", "2")...)
	require.Equal(t, 0, code)
	out2, _, code := runCLI(t, "second-secret-002", append(base, "split", "-n", "3", "-k", "2")...)
	require.Equal(t, 0, code)
	a, b := splitLines(out1), splitLines(out2)

	tests := []struct {
		name  string
		stdin string
		args  []string
		want  int
	}{
		{"threshold above shares", "x", []string{"split", "-n", "2", "-k", "3"}, 2},
		{"zero shares", "x", []string{"split", "-n", "0", "-k", "0"}, 2},
		{"no shares given", "", []string{"combine"}, 2},
		{"malformed share", "", []string{"combine", "not-a-share!"}, 2},
		{"duplicate share", "", []string{"combine", a[0], a[0]}, 2},
		{"shares from different splits", "", []string{"combine", a[0], b[1]}, 3},
		{"unknown set", "", []string{"combine", "--set", "6f1c9d4e-2b7a-4c1e-9f3a-8d5b2e7c1a40"}, 4},
		{"unknown output format", "", []string{"-o", "yaml", "version"}, 1},
		{"unknown rng", "x", []string{"--rng", "dice", "split"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append(append([]string{}, base...), tt.args...)
			_, _, code := runCLI(t, tt.stdin, args...)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestMainPrintsErrors(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := Main([]string{"--rng", "software", "combine", "not-a-share!"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	assert.Contains(t, stderr.String(), "Error:")

	stdout.Reset()
	stderr.Reset()
	code = Main([]string{"--rng", "software", "-o", "json", "combine"}, &stdout, &stderr)
	assert.Equal(t, 2, code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(stderr.Bytes(), &resp))
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "invalid_argument", resp["type"])
}

func TestVersion(t *testing.T) {
	out, _, code := runCLI(t, "", "version")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "shamir version "+Version)

	out, _, code = runCLI(t, "", "-o", "json", "version")
	require.Equal(t, 0, code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, Version, resp["version"])
	assert.NotEmpty(t, resp["go_version"])
}

func TestMetricsDump(t *testing.T) {
	base := baseArgs(t)

	_, stderr, code := runCLI(t, "metered", append(base, "--metrics", "split", "-n", "3", "-k", "2")...)
	require.Equal(t, 0, code)
	assert.Contains(t, stderr, "shamir_shares_generated_total")
	assert.Contains(t, stderr, `shamir_operations_total{operation="split",status="success"}`)
	assert.NotContains(t, stderr, "go_goroutines")
}
