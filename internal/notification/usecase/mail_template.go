package usecase

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/workpulse/workpulse/internal/notification/entity"
	"github.com/workpulse/workpulse/internal/pkg/mail"
)

const (
	subjectPasswordReset   = "Your WorkPulse password was reset"
	subjectPasswordChanged = "Your WorkPulse password was changed"
)

type noticeMailData struct {
	Name    string
	Summary string
	When    string
}

var noticeMailTmpl = template.Must(template.New("notice").Parse(`<div style="font-family: Poppins, sans-serif; max-width: 600px; margin: 0 auto; background-color: #f9f9f9; padding: 20px; border: 1px solid #ccc; border-radius: 5px;">
  <h1 style="font-size: 22px; font-weight: 500; color: #854CE6; text-align: center; margin-bottom: 30px;">Security notice</h1>
  <div style="background-color: #FFF; border: 1px solid #e5e5e5; border-radius: 5px; padding: 30px;">
    <p style="font-size: 14px; color: #666; margin-bottom: 20px;">Dear {{.Name}},</p>
    <p style="font-size: 14px; color: #666; margin-bottom: 20px;">{{.Summary}} on {{.When}}.</p>
    <p style="font-size: 12px; color: #666; margin-bottom: 20px;">If this was not you, contact your WorkPulse administrator right away.</p>
  </div>
  <br>
  <p style="font-size: 16px; color: #666; margin-bottom: 20px; text-align: center;">Best regards,<br>The WorkPulse Team</p>
</div>`))

func noticeMail(n entity.Notice) (mail.Message, error) {
	data := noticeMailData{
		Name: n.Username,
		When: n.OccurredAt.UTC().Format("Jan 2, 2006 15:04 UTC"),
	}
	if strings.TrimSpace(data.Name) == "" {
		data.Name, _, _ = strings.Cut(n.Email, "@")
	}

	subject := subjectPasswordChanged
	data.Summary = "The password of your WorkPulse account was changed"
	if n.Kind == entity.NoticeKindPasswordReset {
		subject = subjectPasswordReset
		data.Summary = "The password of your WorkPulse account was reset with an email verification code"
	}

	var buf bytes.Buffer
	if err := noticeMailTmpl.Execute(&buf, data); err != nil {
		return mail.Message{}, err
	}

	return mail.Message{To: []string{n.Email}, Subject: subject, HTMLBody: buf.String()}, nil
}
