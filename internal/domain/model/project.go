package model

// Project is a submission entered into one event. Its display fields are
// joined onto every score record read back from the store.
type Project struct {
	ProjectID   string `json:"project_id" yaml:"project_id" validate:"required"`
	EventID     string `json:"event_id" yaml:"event_id"`
	ProjectName string `json:"project_name" yaml:"project_name"`
	LeadName    string `json:"lead_name" yaml:"lead_name"`
	LeadEmail   string `json:"lead_email" yaml:"lead_email"`
}
