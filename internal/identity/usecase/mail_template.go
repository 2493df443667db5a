package usecase

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/workpulse/workpulse/internal/identity/entity"
	"github.com/workpulse/workpulse/internal/pkg/mail"
)

const (
	subjectForgotPassword = "WorkPulse Reset Password Verification"
	subjectVerifyAccount  = "Account Verification OTP"
)

type otpMailData struct {
	Title   string
	Name    string
	Code    string
	Intro   string
	Enter   string
	Dismiss string
}

var otpMailTmpl = template.Must(template.New("otp").Parse(`<div style="font-family: Poppins, sans-serif; max-width: 600px; margin: 0 auto; background-color: #f9f9f9; padding: 20px; border: 1px solid #ccc; border-radius: 5px;">
  <h1 style="font-size: 22px; font-weight: 500; color: #854CE6; text-align: center; margin-bottom: 30px;">{{.Title}}</h1>
  <div style="background-color: #FFF; border: 1px solid #e5e5e5; border-radius: 5px; box-shadow: 0px 3px 6px rgba(0,0,0,0.05);">
    <div style="background-color: #854CE6; border-top-left-radius: 5px; border-top-right-radius: 5px; padding: 20px 0;">
      <h2 style="font-size: 28px; font-weight: 500; color: #FFF; text-align: center; margin-bottom: 10px;">Verification Code</h2>
      <h1 style="font-size: 32px; font-weight: 500; color: #FFF; text-align: center; margin-bottom: 20px;">{{.Code}}</h1>
    </div>
    <div style="padding: 30px;">
      <p style="font-size: 14px; color: #666; margin-bottom: 20px;">Dear {{.Name}},</p>
      <p style="font-size: 14px; color: #666; margin-bottom: 20px;">{{.Intro}}</p>
      <p style="font-size: 20px; font-weight: 500; text-align: center; margin-bottom: 30px; color: #854CE6;">{{.Code}}</p>
      <p style="font-size: 12px; color: #666; margin-bottom: 20px;">{{.Enter}}</p>
      <p style="font-size: 12px; color: #666; margin-bottom: 20px;">{{.Dismiss}}</p>
    </div>
  </div>
  <br>
  <p style="font-size: 16px; color: #666; margin-bottom: 20px; text-align: center;">Best regards,<br>The WorkPulse Team</p>
</div>`))

// otpMail renders the email carrying code for the given reason.
func otpMail(to, name, code string, reason entity.OTPReason) (mail.Message, error) {
	data := otpMailData{Name: displayName(name, to), Code: code}
	subject := subjectVerifyAccount

	if reason.IsForgotPassword() {
		subject = subjectForgotPassword
		data.Title = "Reset Your WorkPulse Account Password"
		data.Intro = "To reset your WorkPulse account password, please enter the following verification code:"
		data.Enter = "Please enter this code in the WorkPulse app to reset your password."
		data.Dismiss = "If you did not request a password reset, please disregard this email."
	} else {
		data.Title = "Verify WorkPulse Account"
		data.Intro = "Thank you for creating a WorkPulse account. To activate your account, please enter the following verification code:"
		data.Enter = "Please enter this code in the WorkPulse app to activate your account."
		data.Dismiss = "If you did not create a WorkPulse account, please disregard this email."
	}

	var buf bytes.Buffer
	if err := otpMailTmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{To: []string{to}, Subject: subject, HTMLBody: buf.String()}, nil
}

func displayName(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
