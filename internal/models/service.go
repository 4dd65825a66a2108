package models

// Service is a catalogue entry shown to clients.
type Service struct {
	ID          int64  `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Category    string `json:"category" yaml:"category"`
	Description string `json:"description" yaml:"description"`
	AppOnly     bool   `json:"app_only" yaml:"app_only"`
}

// ServiceListing is a catalogue entry resolved for a platform and pincode.
type ServiceListing struct {
	ID             int64  `json:"id"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	Description    string `json:"description"`
	BookingEnabled bool   `json:"booking_enabled"`
	AppOnly        bool   `json:"app_only"`
	Message        string `json:"message,omitempty"`
}
