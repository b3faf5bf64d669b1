package models

import (
	"encoding/json"
	"strings"
	"testing"
)

// TestUserHashNotSerialized guards against leaking password hashes in API
// responses.
func TestUserHashNotSerialized(t *testing.T) {
	u := User{Email: "seller@example.com", PasswordHash: "$2a$10$secret"}
	b, err := json.Marshal(u)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "secret") {
		t.Errorf("password hash serialized: %s", b)
	}
}
