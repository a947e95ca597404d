package executor

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/voidshard/foreman/pkg/structs"
)

func TestBuildArgs(t *testing.T) {
	cases := []struct {
		Name   string
		Task   *structs.Task
		Creds  *Credentials
		Expect []string
	}{
		{
			"no credentials",
			&structs.Task{TaskSpec: structs.TaskSpec{Payload: "hi"}},
			&Credentials{},
			[]string{`USERNAME:""`, `PASSWORD:""`, `DATA:"hi"`},
		},
		{
			"quotes are doubled",
			&structs.Task{TaskSpec: structs.TaskSpec{Payload: `{"a":"b"}`}},
			&Credentials{Username: "u", Password: "p"},
			[]string{`USERNAME:"u"`, `PASSWORD:"p"`, `DATA:"{""a"":""b""}"`},
		},
		{
			"api key",
			&structs.Task{TaskSpec: structs.TaskSpec{Payload: "x"}},
			&Credentials{APIKey: "key"},
			[]string{`USERNAME:""`, `PASSWORD:""`, `DATA:"x"`, `APIKEY:"key"`},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, buildArgs(c.Task, c.Creds))
		})
	}
}

func TestCredentialsFor(t *testing.T) {
	configured := map[string]*Credentials{
		"App1": {Username: "config-user", Password: "config-pass"},
	}

	cases := []struct {
		Name   string
		Task   *structs.Task
		Expect *Credentials
	}{
		{
			"attached to task",
			&structs.Task{
				TaskSpec:       structs.TaskSpec{AppID: "app1"},
				Authentication: &structs.TaskAuthOptions{ClientID: "id", ClientSecret: "secret", APIKey: "key"},
			},
			&Credentials{Username: "id", Password: "secret", APIKey: "key"},
		},
		{
			"configured for app",
			&structs.Task{TaskSpec: structs.TaskSpec{AppID: "app1"}},
			&Credentials{Username: "config-user", Password: "config-pass"},
		},
		{
			"nothing",
			&structs.Task{TaskSpec: structs.TaskSpec{AppID: "other"}},
			&Credentials{},
		},
	}

	for _, c := range cases {
		t.Run(c.Name, func(t *testing.T) {
			assert.Equal(t, c.Expect, credentialsFor(c.Task, configured))
		})
	}
}
