package executor

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/foreman/pkg/structs"
)

// writeExecutor writes a shell script executor named `name` into its own
// directory under dir & returns the script path
func writeExecutor(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("executor scripts require a posix shell")
	}

	exeDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(exeDir, 0755))

	path := filepath.Join(exeDir, NormalizeName(name))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0755))
	return path
}

func testOptions() *Options {
	opts := &Options{Timeout: time.Second, WaitDelay: 200 * time.Millisecond}
	opts.SetDefaults()
	return opts
}

func TestOutProcExecute(t *testing.T) {
	dir := t.TempDir()
	cmd := writeExecutor(t, dir, "echo", `
echo 'StartSubtask:{"id":"s1","t":"working"}'
echo 'Progress:{"p":1,"pm":2}'
echo 'FinishSubtask:{"id":"s1"}'
echo "ResultData:$(pwd)"
exit 0`)

	l := &recordingListener{}
	task := testTask()
	out := NewOutput(task, l)
	exe := NewOutProc(cmd, task, &Credentials{}, out, testOptions())

	code, err := exe.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, code)

	data, resultErr := out.Result()
	assert.Nil(t, resultErr)
	resolved, _ := filepath.EvalSymlinks(filepath.Dir(cmd))
	got, _ := filepath.EvalSymlinks(data)
	assert.Equal(t, resolved, got)

	assert.Len(t, l.started, 1)
	assert.Len(t, l.finished, 1)
	require.Len(t, l.progress, 1)
	assert.Equal(t, "s1", l.progress[0].Progress.SubtaskID)

	// already exited
	exe.Terminate()
	exe.Terminate()
}

func TestOutProcArguments(t *testing.T) {
	dir := t.TempDir()
	cmd := writeExecutor(t, dir, "args", `
for arg in "$@"; do
  echo "arg $arg"
done
echo "ResultData:$#"`)

	task := testTask()
	task.Payload = `{"say": "hi"}`
	out := NewOutput(task, nil)
	exe := NewOutProc(cmd, task, &Credentials{Username: "u", Password: "p", APIKey: "k"}, out, testOptions())

	code, err := exe.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	data, _ := out.Result()
	assert.Equal(t, "4", data)
}

func TestOutProcExitCode(t *testing.T) {
	dir := t.TempDir()
	cmd := writeExecutor(t, dir, "fail", `
echo 'ERROR:{"ErrorCode":"Nope","Message":"did not work"}'
exit 3`)

	task := testTask()
	out := NewOutput(task, nil)
	exe := NewOutProc(cmd, task, &Credentials{}, out, testOptions())

	code, err := exe.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, code)
	_, resultErr := out.Result()
	require.NotNil(t, resultErr)
	assert.Equal(t, "Nope", resultErr.ErrorCode)
	assert.Equal(t, "did not work", resultErr.Message)
}

func TestOutProcWatchdog(t *testing.T) {
	dir := t.TempDir()
	cmd := writeExecutor(t, dir, "hang", `
echo "about to hang"
exec sleep 30`)

	task := testTask()
	task.Type = "hang"
	out := NewOutput(task, nil)
	opts := testOptions()
	exe := NewOutProc(cmd, task, &Credentials{}, out, opts)

	start := time.Now()
	code, err := exe.Execute(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
	assert.Less(t, elapsed, 2*opts.Timeout+opts.WaitDelay+time.Second)

	_, resultErr := out.Result()
	require.NotNil(t, resultErr)
	assert.Equal(t, structs.ErrorCodeExecutorTerminated, resultErr.ErrorCode)
	assert.Equal(t, structs.ErrorCodeExecutorTerminated, resultErr.ErrorType)
	assert.Equal(t, "EXECUTOR TERMINATED: hang.", resultErr.Message)
}

func TestOutProcWatchdogKillsChildren(t *testing.T) {
	dir := t.TempDir()
	cmd := writeExecutor(t, dir, "forks", `
echo "about to hang"
sleep 30`)

	task := testTask()
	task.Type = "forks"
	out := NewOutput(task, nil)
	opts := &Options{Timeout: time.Second, WaitDelay: 10 * time.Second}
	opts.SetDefaults()
	exe := NewOutProc(cmd, task, &Credentials{}, out, opts)

	start := time.Now()
	code, err := exe.Execute(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.NotEqual(t, 0, code)
	// sleep holds stdout open, we only return this quickly if it died with the shell
	assert.Less(t, elapsed, 2*opts.Timeout+time.Second)

	_, resultErr := out.Result()
	require.NotNil(t, resultErr)
	assert.Equal(t, structs.ErrorCodeExecutorTerminated, resultErr.ErrorCode)
}

func TestOutProcChattyExecutorIsNotKilled(t *testing.T) {
	dir := t.TempDir()
	cmd := writeExecutor(t, dir, "chatty", `
for i in 1 2 3 4 5 6; do
  echo "tick $i"
  sleep 0.4
done
echo "ResultData:done"`)

	task := testTask()
	out := NewOutput(task, nil)
	exe := NewOutProc(cmd, task, &Credentials{}, out, testOptions())

	code, err := exe.Execute(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 0, code)
	data, resultErr := out.Result()
	assert.Nil(t, resultErr)
	assert.Equal(t, "done", data)
}

func TestOutProcMissingCommand(t *testing.T) {
	task := testTask()
	out := NewOutput(task, nil)
	exe := NewOutProc(filepath.Join(t.TempDir(), "nope"), task, &Credentials{}, out, testOptions())

	_, err := exe.Execute(context.Background())

	assert.Error(t, err)
	exe.Terminate()
}

func TestLineWriter(t *testing.T) {
	lines := []string{}
	w := &lineWriter{onLine: func(l string) { lines = append(lines, l) }}

	w.Write([]byte("one\r\ntw"))
	w.Write([]byte("o\nthree"))
	assert.Equal(t, []string{"one", "two"}, lines)

	w.Flush()
	w.Flush()
	assert.Equal(t, []string{"one", "two", "three"}, lines)
}
