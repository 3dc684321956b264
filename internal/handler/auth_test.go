package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	tests := map[string]string{
		"":                      defaultLanding,
		"/dashboard/":           "/dashboard/",
		"/feedbacks/?aluno=ana": "/feedbacks/?aluno=ana",
		"https://evil.example/": defaultLanding,
		"//evil.example/":       defaultLanding,
		`/\evil.example`:        defaultLanding,
		"dashboard":             defaultLanding,
	}

	for next, want := range tests {
		assert.Equal(t, want, safeNext(next), next)
	}
}

func TestDetailURL(t *testing.T) {
	assert.Equal(t, "/feedbacks/7/", detailURL(7, ""))
	assert.Equal(t, "/feedbacks/7/?ok=status", detailURL(7, "status"))
}
