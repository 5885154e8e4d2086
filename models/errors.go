package models

// ValidationError reports caller input that cannot be stored.
type ValidationError string

func (e ValidationError) Error() string { return "validation error: " + string(e) }
