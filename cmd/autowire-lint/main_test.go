package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

func upload(t *testing.T, URL, content string) {
	t.Helper()
	err := afs.New().Upload(context.Background(), URL, file.DefaultFileOsMode, bytes.NewReader([]byte(content)))
	require.NoError(t, err)
}

func TestRun_Valid(t *testing.T) {
	base := "mem://localhost/autowire-lint/valid/"
	upload(t, base+"a.yaml", "aliases:\n  Store.Primary: S3Store\n")
	upload(t, base+"b.yaml", "preferences:\n  Store: Store.Primary\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-c", base + "a.yaml", "-c", base + "b.yaml", "-e", "none.env"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Equal(t, "alias Store.Primary -> S3Store\npreference Store -> Store.Primary\n", stdout.String())
	assert.Contains(t, stderr.String(), "configuration is valid")
}

func TestRun_Invalid(t *testing.T) {
	base := "mem://localhost/autowire-lint/invalid/"
	upload(t, base+"a.yaml", "aliases:\n  A: B\n")
	upload(t, base+"b.yaml", "aliases:\n  B: A\n")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-c", base + "a.yaml", "-c", base + "b.yaml", "-e", "none.env"}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "b.yaml")
}

func TestRun_EnvDefaults(t *testing.T) {
	base := "mem://localhost/autowire-lint/env/"
	upload(t, base+"a.yaml", "aliases:\n  X: Y\n")

	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(envConfig+"="+base+"a.yaml\n"+envLogLevel+"=debug\n"), 0o600))
	t.Setenv(envConfig, "")
	require.NoError(t, os.Unsetenv(envConfig))
	t.Setenv(envLogLevel, "")
	require.NoError(t, os.Unsetenv(envLogLevel))

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-e", envFile, "-q"}, &stdout, &stderr)

	assert.Equal(t, 0, code, stderr.String())
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "loading configuration")
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	t.Setenv(envConfig, "")

	assert.Equal(t, 2, run(context.Background(), []string{"-e", "none.env"}, &stdout, &stderr))
	assert.Equal(t, 2, run(context.Background(), []string{"--bogus"}, &stdout, &stderr))
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, splitList(" a, ,b "))
	assert.Nil(t, splitList(""))
}
