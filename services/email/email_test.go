package emailsvc

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/mail"
	"sync"
	"testing"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/tests"
)

func welcome() *core.EmailMessage {
	return &core.EmailMessage{
		To:          []mail.Address{{Name: "Alice Martin", Address: "alice@academia.local"}},
		Subject:     "Welcome to Academia",
		TextContent: "Hello Alice",
	}
}

func TestConsoleService(t *testing.T) {
	conf := testutil.NewConfig()
	conf.DefaultFromEmail = mail.Address{Name: "Academia", Address: "noreply@academia.local"}
	out := new(bytes.Buffer)
	svc := NewConsoleService(conf, out, testutil.NewLogger(), core.FixedClock(testutil.Now))

	svc.SendMessages(welcome(), &core.EmailMessage{Subject: "no recipients", TextContent: "lost"}, &core.EmailMessage{
		To: []mail.Address{{Address: "bob@academia.local"}},
	})
	svc.Wait()

	sent := svc.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome to Academia", sent[0].Subject)

	body := out.String()
	assert.Contains(t, body, `From: "Academia" <noreply@academia.local>`)
	assert.Contains(t, body, "Subject: [Academia] Welcome to Academia")
	assert.Contains(t, body, `To: "Alice Martin" <alice@academia.local>`)
	assert.Contains(t, body, "Hello Alice")
	assert.NotContains(t, body, "text/html")
}

func TestSendgridService(t *testing.T) {
	conf := testutil.NewConfig()
	conf.SendgridApiKey = "SG.key"
	conf.DefaultFromEmail = mail.Address{Name: "Academia", Address: "noreply@academia.local"}
	svc := NewSendgridService(conf, testutil.NewLogger())

	req := svc.request(*welcome())
	assert.Equal(t, rest.Method(http.MethodPost), req.Method)
	assert.Equal(t, "Bearer SG.key", req.Headers["Authorization"])

	var payload struct {
		From struct {
			Email string `json:"email"`
		} `json:"from"`
		Personalizations []struct {
			Subject string `json:"subject"`
			To      []struct {
				Email string `json:"email"`
			} `json:"to"`
		} `json:"personalizations"`
		Content []struct {
			Type  string `json:"type"`
			Value string `json:"value"`
		} `json:"content"`
	}
	require.NoError(t, json.Unmarshal(req.Body, &payload))
	assert.Equal(t, "noreply@academia.local", payload.From.Email)
	if assert.Len(t, payload.Personalizations, 1) {
		assert.Equal(t, "[Academia] Welcome to Academia", payload.Personalizations[0].Subject)
		assert.Equal(t, "alice@academia.local", payload.Personalizations[0].To[0].Email)
	}
	if assert.Len(t, payload.Content, 1) {
		assert.Equal(t, "text/plain", payload.Content[0].Type)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	sendgridAPIFunc = func(req rest.Request) (*rest.Response, error) {
		defer wg.Done()
		return &rest.Response{StatusCode: http.StatusAccepted}, nil
	}
	defer func() { sendgridAPIFunc = sendgrid.API }()
	svc.SendMessages(welcome())
	wg.Wait()
}
