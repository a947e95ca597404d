package structs

import (
	"strings"
)

const (
	DefaultAuthTaskType = "Default"
)

// TaskAuthOptions are credentials an application hands to executors of a given task type.
type TaskAuthOptions struct {
	// TaskType these credentials are for, "" or "Default" apply to all types
	// without a specific entry.
	TaskType string `json:"task_type"`

	ClientID     string `json:"client_id,omitempty"`
	ClientSecret string `json:"client_secret,omitempty"`
	APIKey       string `json:"api_key,omitempty"`

	// APIKeyExpiration unix time in seconds, 0 means no expiry
	APIKeyExpiration int64 `json:"api_key_expiration,omitempty"`
}

// Application is a client of the coordinator that registers tasks.
type Application struct {
	AppID             string             `json:"app_id"`
	ApplicationURL    string             `json:"application_url"`
	TaskFinalizeURL   string             `json:"task_finalize_url,omitempty"`
	AuthenticationURL string             `json:"authentication_url,omitempty"`
	AuthorizationURL  string             `json:"authorization_url,omitempty"`
	Authentication    []*TaskAuthOptions `json:"authentication,omitempty"`

	// RegistrationDate unix time in seconds
	RegistrationDate int64 `json:"registration_date"`

	// LastUpdateDate unix time in seconds
	LastUpdateDate int64 `json:"last_update_date"`
}

// AuthenticationForTask returns the credentials for the given task type; an exact
// (case insensitive) match wins, otherwise the default entry is used.
func (a *Application) AuthenticationForTask(taskType string) *TaskAuthOptions {
	var def *TaskAuthOptions
	for _, auth := range a.Authentication {
		if auth == nil {
			continue
		}
		if auth.TaskType != "" && strings.EqualFold(auth.TaskType, taskType) {
			return auth
		}
		if def == nil && (auth.TaskType == "" || strings.EqualFold(auth.TaskType, DefaultAuthTaskType)) {
			def = auth
		}
	}
	return def
}
