package executor

import (
	"fmt"
	"strings"

	"github.com/voidshard/foreman/pkg/structs"
)

// credentialsFor picks the credentials handed to the executor of a task. Those
// attached to the task by the coordinator win, then any configured for the app.
func credentialsFor(t *structs.Task, configured map[string]*Credentials) *Credentials {
	if auth := t.Authentication; auth != nil {
		return &Credentials{Username: auth.ClientID, Password: auth.ClientSecret, APIKey: auth.APIKey}
	}
	for appID, creds := range configured {
		if creds != nil && strings.EqualFold(appID, t.AppID) {
			return creds
		}
	}
	return &Credentials{}
}

// buildArgs returns the command line arguments of an executor
func buildArgs(t *structs.Task, creds *Credentials) []string {
	args := []string{
		fmt.Sprintf(`USERNAME:"%s"`, creds.Username),
		fmt.Sprintf(`PASSWORD:"%s"`, creds.Password),
		fmt.Sprintf(`DATA:"%s"`, escapeArgument(t.Payload)),
	}
	if creds.APIKey != "" {
		args = append(args, fmt.Sprintf(`APIKEY:"%s"`, creds.APIKey))
	}
	return args
}

func escapeArgument(in string) string {
	return strings.ReplaceAll(in, `"`, `""`)
}
