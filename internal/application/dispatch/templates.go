package dispatch

import (
	"fmt"
	"html/template"
	"strings"
)

type emailVars struct {
	UserName        string
	SiteName        string
	SiteURL         string
	Code            string
	VerificationURL string
	EmailAddress    string
	LoginURL        string
	ExpiryMinutes   int
}

var verificationTmpl = template.Must(template.New("verification").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333;">{{.SiteName}}</h1>
  <p>Hello {{.UserName}},</p>
  <p>To verify your email address ({{.EmailAddress}}), use the verification code below:</p>
  <div style="font-size: 32px; font-weight: bold; font-family: monospace; letter-spacing: 3px; margin: 20px 0;">{{.Code}}</div>
  <p>Or click the link to verify automatically:</p>
  <p><a href="{{.VerificationURL}}">Verify Email Address</a></p>
  <p style="color: #999; font-size: 14px;">This code expires in {{.ExpiryMinutes}} minutes.
  If you did not create an account with {{.SiteName}}, please ignore this email.</p>
</div>`))

var welcomeTmpl = template.Must(template.New("welcome").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #333;">Welcome to {{.SiteName}}!</h1>
  <p>Hello {{.UserName}},</p>
  <p>Your account has been created and verified. You can now sign in and use all features.</p>
  <p><a href="{{.LoginURL}}">Login to your account</a></p>
  <p style="color: #999; font-size: 14px;">Best regards,<br>The {{.SiteName}} Team</p>
</div>`))

func render(t *template.Template, vars emailVars) (string, error) {
	var b strings.Builder
	if err := t.Execute(&b, vars); err != nil {
		return "", fmt.Errorf("render %s template: %w", t.Name(), err)
	}
	return b.String(), nil
}

func smsBody(siteName, code string, expiryMinutes int) string {
	return fmt.Sprintf("Your verification code for %s is: %s. This code will expire in %d minutes.",
		siteName, code, expiryMinutes)
}
