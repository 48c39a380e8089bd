package helpers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
)

func TestAvatarFilename(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		original string
		wantExt  string
		wantErr  bool
	}{
		{"png accepted", "1234", "me.PNG", ".png", false},
		{"jpeg accepted", "1234", "photo.jpeg", ".jpeg", false},
		{"pdf rejected", "1234", "cv.pdf", "", true},
		{"no extension rejected", "1234", "avatar", "", true},
		{"path chars stripped", "../etc", "x.jpg", ".jpg", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AvatarFilename(tt.user, tt.original)
			if (err != nil) != tt.wantErr {
				t.Fatalf("AvatarFilename() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if strings.ContainsAny(got, "/\\") {
				t.Errorf("filename %q contains a path separator", got)
			}
			if !strings.HasSuffix(got, tt.wantExt) {
				t.Errorf("filename %q lost its extension", got)
			}
		})
	}
}

func TestCanonicalPair(t *testing.T) {
	low, high := CanonicalPair("b", "a")
	if low != "a" || high != "b" {
		t.Errorf("CanonicalPair(b, a) = %s, %s", low, high)
	}
	low2, high2 := CanonicalPair("a", "b")
	if low != low2 || high != high2 {
		t.Error("CanonicalPair is not order independent")
	}
}

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", "   ", "\n\t"} {
		if !IsBlank(s) {
			t.Errorf("IsBlank(%q) = false", s)
		}
	}
	if IsBlank(" hi ") {
		t.Error("IsBlank(\" hi \") = true")
	}
}

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err    error
		kind   Kind
		status int
	}{
		{Unauthenticated("no token"), KindUnauthenticated, http.StatusUnauthorized},
		{Validation("capacity must be > 0"), KindValidation, http.StatusBadRequest},
		{Conflict("event is full"), KindConflict, http.StatusConflict},
		{NotFound("event not found"), KindNotFound, http.StatusNotFound},
		{Forbidden("not the recipient"), KindForbidden, http.StatusForbidden},
		{Internal(errors.New("db down")), KindInternal, http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", Conflict("dup")), KindConflict, http.StatusConflict},
		{errors.New("plain"), KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := KindOf(tt.err); got != tt.kind {
			t.Errorf("KindOf(%v) = %s, want %s", tt.err, got, tt.kind)
		}
		if got := KindOf(tt.err).HTTPStatus(); got != tt.status {
			t.Errorf("status for %v = %d, want %d", tt.err, got, tt.status)
		}
	}

	if got := ReasonOf(Internal(errors.New("secret dsn"))); strings.Contains(got, "secret") {
		t.Errorf("internal reason leaks details: %q", got)
	}
}
