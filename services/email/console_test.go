package emailsvc

import (
	"io/ioutil"
	"log"
	"net/mail"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gpatrack/gpatrack/core"
	appfs "github.com/gpatrack/gpatrack/fs"
	logsvc "github.com/gpatrack/gpatrack/services/logger"
)

var conf *core.Config

func TestMain(m *testing.M) {
	conf = core.NewTestConfig()
	core.ParseEmailTemplates(appfs.FS, conf, logsvc.NewRollbarLogger(log.New(ioutil.Discard, "", 0), conf))
	os.Exit(m.Run())
}

func Test_consoleService_sendMessage(t *testing.T) {
	svc := consoleService{
		conf:          conf,
		from:          conf.DefaultFromEmail(),
		subjPrefix:    "[Test] ",
		disableOutput: true,
	}
	to := []mail.Address{{Name: "Ada", Address: "ada@test.io"}}

	tests := []struct {
		name     string
		msg      core.EmailMessage
		wantSent bool
		wantErr  bool
	}{
		{name: "no recipient", msg: core.EmailMessage{Subject: "Hi", BodyStr: "Hello"}},
		{name: "no content", msg: core.EmailMessage{To: to, Subject: "Hi"}},
		{name: "unknown template", msg: core.EmailMessage{To: to, TemplateName: "lol"}, wantErr: true},
		{name: "plain body", msg: core.EmailMessage{To: to, Subject: "Hi", BodyStr: "Hello"}, wantSent: true},
		{
			name: "template",
			msg: core.EmailMessage{
				To:           to,
				Subject:      "Password Reset",
				TemplateName: "password_reset",
				TemplateData: map[string]string{"Name": "Ada", "ResetURL": "http://localhost:3000/password-reset/uid/token"},
			},
			wantSent: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.msg
			sent, err := svc.sendMessage(&msg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantSent, sent)
		})
	}
}

func Test_consoleService_format(t *testing.T) {
	svc := consoleService{conf: conf, from: mail.Address{Name: "GPA Tracker", Address: "noreply@test.io"}, subjPrefix: "[Test] "}

	msg := core.EmailMessage{
		To:           []mail.Address{{Name: "Ada", Address: "ada@test.io"}, {Address: "bob@test.io"}},
		Bcc:          []mail.Address{{Address: "audit@test.io"}},
		Subject:      "Password Reset",
		TemplateName: "password_reset",
		TemplateData: map[string]string{"Name": "Ada", "ResetURL": "http://localhost:3000/password-reset/uid/token"},
	}
	require.NoError(t, msg.Render(conf))
	require.NotEmpty(t, msg.HTMLContent)

	body, err := svc.format(msg)
	require.NoError(t, err)
	assert.Contains(t, body, "From: \"GPA Tracker\" <noreply@test.io>\r\n")
	assert.Contains(t, body, "Subject: [Test] Password Reset\r\n")
	assert.Contains(t, body, "To: \"Ada\" <ada@test.io>, <bob@test.io>\r\n")
	assert.Contains(t, body, "BCC: <audit@test.io>\r\n")
	assert.NotContains(t, body, "\r\nCC:")
	assert.Contains(t, body, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, body, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, body, "http://localhost:3000/password-reset/uid/token")
}

func TestConsoleServiceMock(t *testing.T) {
	svc := NewConsoleServiceMock(conf)
	svc.SendMessages(
		&core.EmailMessage{To: []mail.Address{{Address: "ada@test.io"}}, BodyStr: "Hello"},
		&core.EmailMessage{BodyStr: "dropped"},
	)
	msgs := svc.SentMessages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "Hello", msgs[0].TextContent)

	svc.Reset()
	assert.Empty(t, svc.SentMessages())
}
