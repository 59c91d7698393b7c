package mail

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
)

var welcomeTmpl = template.Must(template.New("welcome").Parse(`<p>Welcome to Prosperity!</p>
<p>Your account <b>{{.Email}}</b> is ready. Sign in and create your first report.</p>`))

var verificationTmpl = template.Must(template.New("verification").Parse(`<p>Please confirm your email address.</p>
<p><a href="{{.Link}}">Verify email</a></p>
<p>This link expires in 24 hours. If you did not create an account, ignore this message.</p>`))

var resetTmpl = template.Must(template.New("reset").Parse(`<p>We received a request to reset your password.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>This link expires in 10 minutes. If you did not request a reset, ignore this message.</p>`))

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	// templates are compile-time constants; execution cannot fail on these inputs
	_ = t.Execute(&buf, data)
	return buf.String()
}

// WelcomeMessage greets a new account.
func WelcomeMessage(to string) *Message {
	return &Message{
		To:      to,
		Subject: "Welcome to Prosperity",
		HTML:    render(welcomeTmpl, struct{ Email string }{Email: to}),
	}
}

// VerificationMessage carries the email-verification link. The token rides a
// frontend URL so the click lands on a page that calls the API.
func VerificationMessage(frontendURL, to, token string) *Message {
	link := fmt.Sprintf("%s/verify-email?token=%s", frontendURL, url.QueryEscape(token))
	return &Message{
		To:      to,
		Subject: "Verify your email address",
		HTML:    render(verificationTmpl, struct{ Link string }{Link: link}),
	}
}

// ResetMessage carries the password-reset link.
func ResetMessage(frontendURL, to, token string) *Message {
	link := fmt.Sprintf("%s/reset-password?token=%s", frontendURL, url.QueryEscape(token))
	return &Message{
		To:      to,
		Subject: "Reset your password",
		HTML:    render(resetTmpl, struct{ Link string }{Link: link}),
	}
}
