package email

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type joinRequestEmailData struct {
	Title         string
	RequesterName string
	AcceptURL     string
	DenyURL       string
}

func TestTemplateRenderer_Pending(t *testing.T) {
	r := NewTemplateRenderer()

	subject, html, text, err := r.Render("join_request_pending", joinRequestEmailData{
		Title:         "GopherCon",
		RequesterName: "Bob",
		AcceptURL:     "http://localhost:8080/events/join-request/tok-accept",
		DenyURL:       "http://localhost:8080/events/join-request/tok-deny",
	})
	require.NoError(t, err)

	assert.Equal(t, "New Join Request for GopherCon", subject)
	assert.Contains(t, html, "tok-accept")
	assert.Contains(t, html, "tok-deny")
	assert.Contains(t, text, "Bob has requested to join")
	assert.Contains(t, text, "tok-deny")
}

func TestTemplateRenderer_Resolved(t *testing.T) {
	r := NewTemplateRenderer()

	for name, want := range map[string]string{
		"join_request_accepted": "accepted",
		"join_request_rejected": "denied",
	} {
		subject, _, text, err := r.Render(name, joinRequestEmailData{Title: "GopherCon"})
		require.NoError(t, err)
		assert.Equal(t, "Join Request Status", subject)
		assert.Contains(t, text, want)
		assert.Contains(t, text, "GopherCon")
	}
}

func TestTemplateRenderer_UnknownTemplate(t *testing.T) {
	r := NewTemplateRenderer()

	_, _, _, err := r.Render("no_such_template", nil)
	require.Error(t, err)
}
