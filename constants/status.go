package constants

// FormStatus is the canonical status for rows in tax_forms.
type FormStatus string

// Stable values (store these exact strings in DB).
const (
	FormStatusUploaded FormStatus = "UPLOADED" // registered, not processed yet
	FormStatusQueued   FormStatus = "QUEUED"
	FormStatusRunning  FormStatus = "RUNNING"
	FormStatusParsed   FormStatus = "PARSED" // fields extracted and stored
	FormStatusFailed   FormStatus = "FAILED" // terminal failure
)
