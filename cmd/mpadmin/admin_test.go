package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envLookup(env map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}
}

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	dsnFlag = ""
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAdminInit_Memory(t *testing.T) {
	lookupEnv = envLookup(nil)
	t.Cleanup(func() { lookupEnv = envLookupOS })

	out, err := runCmd(t, "", "admin", "init", "--dsn", "memory", "-u", "root", "-p", "pw", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, `created admin account "root"`)
}

func TestAdminInit_PromptsForPassword(t *testing.T) {
	lookupEnv = envLookup(nil)
	t.Cleanup(func() { lookupEnv = envLookupOS })

	out, err := runCmd(t, "s3cret\n", "admin", "init", "-d", "memory", "-u", "root", "--role", "admin")
	require.NoError(t, err)
	assert.Contains(t, out, "Password: ")
	assert.Contains(t, out, "created")
}

func TestAdminInit_DefaultsFromEnv(t *testing.T) {
	lookupEnv = envLookup(map[string]string{
		"DATABASE_URL":   "memory",
		"ADMIN_USERNAME": "boss",
		"ADMIN_PASSWORD": "pw",
	})
	t.Cleanup(func() { lookupEnv = envLookupOS })

	out, err := runCmd(t, "", "admin", "init")
	require.NoError(t, err)
	assert.Contains(t, out, `"boss"`)
}

func TestAdminInit_RequiresUsername(t *testing.T) {
	lookupEnv = envLookup(nil)
	t.Cleanup(func() { lookupEnv = envLookupOS })

	_, err := runCmd(t, "", "admin", "init", "-d", "memory", "-p", "pw")
	require.Error(t, err)
}

func TestMigrate_RejectsMemory(t *testing.T) {
	lookupEnv = envLookup(nil)
	t.Cleanup(func() { lookupEnv = envLookupOS })

	_, err := runCmd(t, "", "migrate", "-d", "memory")
	require.Error(t, err)
}

func TestPromptPassword_Empty(t *testing.T) {
	_, err := promptPassword(strings.NewReader("\n"), &bytes.Buffer{})
	require.Error(t, err)
}
