package structs

const (
	// ErrorUnknownAppID tells the caller to register the application before retrying
	ErrorUnknownAppID = "UnknownAppId"

	// ErrorTaskRegistrationFailed is returned when the store refused the task
	ErrorTaskRegistrationFailed = "TaskRegistrationFailed"
)

// RegisterTaskRequest is sent by applications to register a task.
type RegisterTaskRequest struct {
	AppID       string   `json:"app_id"`
	Type        string   `json:"type"`
	Title       string   `json:"title"`
	Priority    Priority `json:"priority,omitempty"`
	Tag         string   `json:"tag,omitempty"`
	FinalizeURL string   `json:"finalize_url,omitempty"`
	Payload     string   `json:"payload"`

	// Hash is computed by the coordinator if 0
	Hash int64 `json:"hash,omitempty"`

	// MachineName of the registering application, recorded on the event
	MachineName string `json:"machine_name,omitempty"`
}

// RegisterTaskResponse is returned from a task registration. If Error is set
// Task will be nil.
type RegisterTaskResponse struct {
	Task    *Task  `json:"task,omitempty"`
	Created bool   `json:"created"`
	Updated bool   `json:"updated"`
	Error   string `json:"error,omitempty"`
}

// RegisterApplicationRequest is sent by applications to (re)register themselves.
type RegisterApplicationRequest struct {
	AppID             string             `json:"app_id"`
	ApplicationURL    string             `json:"application_url"`
	TaskFinalizeURL   string             `json:"task_finalize_url,omitempty"`
	AuthenticationURL string             `json:"authentication_url,omitempty"`
	AuthorizationURL  string             `json:"authorization_url,omitempty"`
	Authentication    []*TaskAuthOptions `json:"authentication,omitempty"`
}

// RegisterApplicationResponse is returned from an application registration.
type RegisterApplicationResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ToApplication converts the request into an Application
func (r *RegisterApplicationRequest) ToApplication() *Application {
	return &Application{
		AppID:             r.AppID,
		ApplicationURL:    r.ApplicationURL,
		TaskFinalizeURL:   r.TaskFinalizeURL,
		AuthenticationURL: r.AuthenticationURL,
		AuthorizationURL:  r.AuthorizationURL,
		Authentication:    r.Authentication,
	}
}
