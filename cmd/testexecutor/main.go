// testexecutor is a sample task executor. It echoes its task payload back as
// the result, reporting progress along the way.
//
// Install it as TaskExecutors/echo/echo to serve the "echo" task type. A payload
// of "fail" exits non zero with a structured error.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const (
	steps = 3
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, 200*time.Millisecond))
}

func run(args []string, out io.Writer, pause time.Duration) int {
	in := parseArgs(args)
	data := in["DATA"]

	fmt.Fprintf(out, "StartSubtask:%s\n", mustJson(map[string]string{"id": "echo", "t": "echoing payload"}))
	for i := 1; i <= steps; i++ {
		time.Sleep(pause)
		fmt.Fprintf(out, "Progress:%s\n", mustJson(map[string]interface{}{
			"subtaskId": "echo", "p": i, "pm": steps, "op": i, "opm": steps, "d": fmt.Sprintf("step %d", i),
		}))
	}
	fmt.Fprintf(out, "FinishSubtask:%s\n", mustJson(map[string]string{"id": "echo", "t": "echoed payload"}))

	if data == "fail" {
		fmt.Fprintf(out, "ERROR:%s\n", mustJson(map[string]string{
			"ErrorCode": "EchoFailed", "ErrorType": "Test", "Message": "asked to fail",
		}))
		return 1
	}
	if in["USERNAME"] == "" {
		fmt.Fprintln(out, "WARNING:no credentials given")
	}
	fmt.Fprintf(out, "ResultData:%s\n", data)
	return 0
}

// parseArgs reads KEY:"value" arguments, where quotes in value are doubled.
func parseArgs(args []string) map[string]string {
	out := map[string]string{}
	for _, a := range args {
		key, value, ok := strings.Cut(a, ":")
		if !ok {
			continue
		}
		value = strings.TrimSuffix(strings.TrimPrefix(value, `"`), `"`)
		out[strings.ToUpper(key)] = strings.ReplaceAll(value, `""`, `"`)
	}
	return out
}

func mustJson(in interface{}) string {
	data, err := json.Marshal(in)
	if err != nil {
		panic(err)
	}
	return string(data)
}
