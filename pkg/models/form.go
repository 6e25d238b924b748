package models

// UserRecord is the validated form submission that gets persisted.
// The ID doubles as the storage key.
type UserRecord struct {
	ID        string `json:"id" firestore:"id"`
	Name      string `json:"name" firestore:"name"`
	Email     string `json:"email" firestore:"email"`
	Mobile    string `json:"mobile" firestore:"mobile"`
	Checkbox1 bool   `json:"checkbox1" firestore:"checkbox1"`
}

// RawSubmission is the request body as it arrives, before validation.
// Values are strings for url-encoded forms and may be any JSON type otherwise.
type RawSubmission map[string]any

// Field names as they appear on the wire.
const (
	FieldID        = "id"
	FieldName      = "name"
	FieldEmail     = "email"
	FieldMobile    = "mobile"
	FieldCheckbox1 = "checkbox1"
)
