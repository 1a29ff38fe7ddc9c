package emailer

import (
	"bytes"
	"html/template"

	"github.com/ngoduykhanh/usermgr/model"
)

var welcomeTemplate = template.Must(template.New("welcome").Parse(`Hi {{.Username}},</br>
<p>an administrator created an account for you. You can sign in with <b>{{.Email}}</b>.</p>
<p>Ask your administrator for the initial password and change it from your profile page.</p>
`))

// WelcomeContent renders the body of the mail sent to accounts created by an admin
func WelcomeContent(user model.UserInfo) (string, error) {
	var buf bytes.Buffer
	if err := welcomeTemplate.Execute(&buf, user); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// SendWelcome notifies a freshly created user
func SendWelcome(mailer Emailer, subject string, user model.UserInfo) error {
	content, err := WelcomeContent(user)
	if err != nil {
		return err
	}
	return mailer.Send(user.Username, user.Email, subject, content)
}
