package emailer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	mail "github.com/xhit/go-simple-mail/v2"

	"github.com/ngoduykhanh/usermgr/model"
)

type recordingMailer struct {
	toName, to, subject, content string
}

func (r *recordingMailer) Send(toName string, to string, subject string, content string) error {
	r.toName, r.to, r.subject, r.content = toName, to, subject, content
	return nil
}

func TestWelcomeContent_EscapesInput(t *testing.T) {
	content, err := WelcomeContent(model.UserInfo{Username: "<script>", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Contains(t, content, "&lt;script&gt;")
	assert.Contains(t, content, "bob@example.com")
}

func TestSendWelcome(t *testing.T) {
	m := &recordingMailer{}
	err := SendWelcome(m, "Welcome", model.UserInfo{Username: "bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "bob", m.toName)
	assert.Equal(t, "bob@example.com", m.to)
	assert.Equal(t, "Welcome", m.subject)
	assert.Contains(t, m.content, "Hi bob")
}

func TestSmtpOptions(t *testing.T) {
	assert.Equal(t, mail.AuthPlain, authType("plain"))
	assert.Equal(t, mail.AuthLogin, authType("LOGIN"))
	assert.Equal(t, mail.AuthNone, authType(""))

	assert.Equal(t, mail.EncryptionSSLTLS, encryptionType("ssltls"))
	assert.Equal(t, mail.EncryptionNone, encryptionType("none"))
	assert.Equal(t, mail.EncryptionSTARTTLS, encryptionType("whatever"))

	assert.Equal(t, "a@b.c", addressField("a@b.c", ""))
	assert.Equal(t, "Al <a@b.c>", addressField("a@b.c", "Al"))
}
