package utils

import (
	"github.com/google/uuid"
)

// NewRandomID returns a new random (v4) uuid string
func NewRandomID() string {
	return uuid.New().String()
}
