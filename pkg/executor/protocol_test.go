package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voidshard/foreman/pkg/structs"
)

func intPtr(i int) *int {
	return &i
}

func TestParseLine(t *testing.T) {
	cases := []struct {
		Name      string
		Given     string
		Expect    Event
		ExpectErr bool
	}{
		{
			"progress",
			`Progress:{"p":3,"pm":10,"op":3,"opm":10,"d":"half"}`,
			&ProgressEvent{Progress: &structs.Progress{
				SubtaskProgress:    intPtr(3),
				SubtaskProgressMax: intPtr(10),
				OverallProgress:    intPtr(3),
				OverallProgressMax: intPtr(10),
				Details:            "half",
			}},
			false,
		},
		{
			"progress lower case with spaces",
			`progress:  {"op":1}  `,
			&ProgressEvent{Progress: &structs.Progress{OverallProgress: intPtr(1)}},
			false,
		},
		{
			"malformed progress",
			`Progress:{"p":`,
			nil,
			true,
		},
		{
			"start subtask",
			`StartSubtask:{"id":"abc","t":"title","d":"details"}`,
			&SubtaskStartEvent{Subtask: &structs.Subtask{ID: "abc", Title: "title", Details: "details"}},
			false,
		},
		{
			"finish subtask",
			`FINISHSUBTASK:{"id":"abc"}`,
			&SubtaskFinishEvent{Subtask: &structs.Subtask{ID: "abc"}},
			false,
		},
		{
			"malformed subtask",
			`StartSubtask:nope`,
			nil,
			true,
		},
		{
			"result data is trimmed",
			`ResultData:  ok  `,
			&ResultDataEvent{Data: "ok"},
			false,
		},
		{
			"error is verbatim",
			`error: {"Message":"x"}`,
			&ErrorEvent{Text: ` {"Message":"x"}`},
			false,
		},
		{
			"warning",
			`Warning:careful`,
			&WarningEvent{Text: "careful"},
			false,
		},
		{
			"anything else",
			`hello world`,
			&UnrecognizedEvent{Line: "hello world"},
			false,
		},
		{
			"short line",
			`Pro`,
			&UnrecognizedEvent{Line: "Pro"},
			false,
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			result, err := ParseLine(c.Given)
			if c.ExpectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, c.Expect, result)
		})
	}
}
