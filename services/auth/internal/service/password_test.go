package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQuickRatio(t *testing.T) {
	assert.Equal(t, 1.0, quickRatio("abc", "cba"))
	assert.Equal(t, 0.0, quickRatio("abc", "xyz"))
	assert.InDelta(t, 0.5, quickRatio("ab", "ac"), 1e-9)
}

func TestCheckPassword(t *testing.T) {
	pc := passwordContext{Username: "alice", Email: "alice@example.com", FirstName: "Alice", LastName: "Liddell"}

	assert.Empty(t, checkPassword("Sup3r-Secret-Pass", 8, pc))

	tests := []struct {
		name     string
		password string
		want     string
	}{
		{name: "short", password: "x1-Y", want: "too short"},
		{name: "long", password: strings.Repeat("ab", 40), want: "too long"},
		{name: "numeric", password: "12093847561", want: "entirely numeric"},
		{name: "common case insensitive", password: "Password123", want: "too common"},
		{name: "similar to last name", password: "liddell1", want: "similar to the last name"},
		{name: "similar to email", password: "alice@example.co", want: "similar to the email address"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := strings.Join(checkPassword(tt.password, 8, pc), " | ")
			assert.Contains(t, got, tt.want)
		})
	}
}
