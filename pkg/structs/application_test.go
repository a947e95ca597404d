package structs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthenticationForTask(t *testing.T) {
	def := &TaskAuthOptions{TaskType: "Default", APIKey: "def"}
	empty := &TaskAuthOptions{TaskType: "", APIKey: "empty"}
	specific := &TaskAuthOptions{TaskType: "Preview", APIKey: "preview"}

	cases := []struct {
		Name   string
		Auth   []*TaskAuthOptions
		Type   string
		Expect *TaskAuthOptions
	}{
		{"NoAuth", nil, "Preview", nil},
		{"ExactMatch", []*TaskAuthOptions{def, specific}, "Preview", specific},
		{"ExactMatchIgnoresCase", []*TaskAuthOptions{def, specific}, "preview", specific},
		{"DefaultFallback", []*TaskAuthOptions{specific, def}, "Index", def},
		{"EmptyTypeFallback", []*TaskAuthOptions{empty, specific}, "Index", empty},
		{"FirstDefaultWins", []*TaskAuthOptions{empty, def}, "Index", empty},
		{"NoMatch", []*TaskAuthOptions{specific}, "Index", nil},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			app := &Application{AppID: "app", Authentication: c.Auth}
			assert.Equal(t, c.Expect, app.AuthenticationForTask(c.Type))
		})
	}
}

func TestFinalizeURLFor(t *testing.T) {
	app := &Application{TaskFinalizeURL: "http://app/finalize"}

	assert.Equal(t, "http://task/finalize", (&Task{TaskSpec: TaskSpec{FinalizeURL: "http://task/finalize"}}).FinalizeURLFor(app))
	assert.Equal(t, "http://app/finalize", (&Task{}).FinalizeURLFor(app))
	assert.Equal(t, "", (&Task{}).FinalizeURLFor(nil))
}
