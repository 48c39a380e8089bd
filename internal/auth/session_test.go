package auth

import (
	"errors"
	"testing"
	"time"
)

func TestSessionRoundTrip(t *testing.T) {
	m := NewSessionManager("s3cret", 7*24*time.Hour)

	token, expires, err := m.Issue(&Identity{Subject: "g-42", Email: "ana@example.com", Name: "Ana"})
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	if d := time.Until(expires); d < 7*24*time.Hour-time.Minute {
		t.Errorf("expires in %v, want about 7 days", d)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if claims.Subject != "g-42" || claims.Email != "ana@example.com" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestSessionRejects(t *testing.T) {
	m := NewSessionManager("s3cret", time.Hour)
	good, _, _ := m.Issue(&Identity{Subject: "g-1"})

	expiredMgr := NewSessionManager("s3cret", time.Hour)
	expiredMgr.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, _ := expiredMgr.Issue(&Identity{Subject: "g-1"})

	otherSecret, _, _ := NewSessionManager("other", time.Hour).Issue(&Identity{Subject: "g-1"})
	noSubject, _, _ := m.Issue(&Identity{})

	tests := []struct {
		name    string
		token   string
		wantErr error
	}{
		{"empty", "", ErrMissingCredential},
		{"expired", expired, ErrInvalidCredential},
		{"wrong secret", otherSecret, ErrInvalidCredential},
		{"no subject", noSubject, ErrInvalidCredential},
		{"tampered", good + "x", ErrInvalidCredential},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := m.Parse(tt.token); !errors.Is(err, tt.wantErr) {
				t.Errorf("Parse() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
