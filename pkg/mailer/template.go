package mailer

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// NotificationEmailData feeds the notification email template.
type NotificationEmailData struct {
	Title         string
	Message       string
	RecipientName string
	Priority      string
	CreatedAt     time.Time
}

var priorityColors = map[string]string{
	"low":    "#52c41a",
	"medium": "#1890ff",
	"high":   "#faad14",
	"urgent": "#f5222d",
}

var priorityLabels = map[string]string{
	"low":    "Low",
	"medium": "Medium",
	"high":   "High",
	"urgent": "Urgent",
}

var notificationTemplate = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <title>{{.Title}}</title>
</head>
<body style="margin: 0; padding: 0; font-family: 'Segoe UI', Tahoma, sans-serif; background-color: #f5f5f5;">
  <table width="100%" cellpadding="0" cellspacing="0" style="background-color: #f5f5f5; padding: 20px;">
    <tr>
      <td align="center">
        <table width="600" cellpadding="0" cellspacing="0" style="background-color: #ffffff; border-radius: 8px; overflow: hidden;">
          <tr>
            <td style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; text-align: center;">
              <h1 style="color: #ffffff; margin: 0; font-size: 24px;">School Dashboard</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 20px 30px 0;">
              <div style="display: inline-block; background-color: {{.PriorityColor}}; color: white; padding: 6px 12px; border-radius: 4px; font-size: 12px; font-weight: 600; text-transform: uppercase;">
                {{.PriorityLabel}}
              </div>
            </td>
          </tr>
          <tr>
            <td style="padding: 20px 30px;">
              <h2 style="color: #333; margin: 0 0 15px; font-size: 20px;">{{.Title}}</h2>
              <p style="color: #666; font-size: 16px; margin: 0 0 20px;">Hello <strong>{{.RecipientName}}</strong>,</p>
              <div style="background-color: #f9f9f9; border-left: 4px solid {{.PriorityColor}}; padding: 15px; margin: 20px 0; border-radius: 4px;">
                <p style="color: #333; font-size: 15px; margin: 0;">{{.Message}}</p>
              </div>
            </td>
          </tr>
          <tr>
            <td style="background-color: #fafafa; padding: 20px 30px; border-top: 1px solid #e8e8e8;">
              <p style="color: #999; font-size: 12px; margin: 0; text-align: center;">
                This email was sent automatically by School Dashboard.<br>
                Please do not reply to this email.<br>
                School Dashboard &copy; {{.Year}}
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>
`))

type templateContext struct {
	NotificationEmailData
	PriorityColor string
	PriorityLabel string
	Year          int
}

// RenderNotificationEmail produces the HTML body and a plain-text fallback for
// a notification email.
func RenderNotificationEmail(data NotificationEmailData) (html string, text string, err error) {
	color, ok := priorityColors[data.Priority]
	if !ok {
		color = priorityColors["medium"]
	}
	label, ok := priorityLabels[data.Priority]
	if !ok {
		label = priorityLabels["medium"]
	}

	var sb strings.Builder
	err = notificationTemplate.Execute(&sb, templateContext{
		NotificationEmailData: data,
		PriorityColor:         color,
		PriorityLabel:         label,
		Year:                  time.Now().Year(),
	})
	if err != nil {
		return "", "", err
	}

	text = fmt.Sprintf("School Dashboard\n\n%s\n\nHello %s,\n\n%s\n\n---\nThis email was sent automatically by School Dashboard.\nPlease do not reply to this email.",
		data.Title, data.RecipientName, data.Message)

	return sb.String(), text, nil
}
