package utils

import "github.com/google/uuid"

// GenerateID returns a fresh v4 UUID for new rows.
func GenerateID() string {
	return uuid.New().String()
}

func IsValidUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
