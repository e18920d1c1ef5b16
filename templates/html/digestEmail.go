package templates

import (
	"fmt"
	"html"
)

// DigestSubject is the subject line of the unread digest email
const DigestSubject = "You have unread secure messages"

// DigestText is the plain text part of the unread digest email. It carries
// counts only, never message content.
func DigestText(unread, conversations int, appURL string) string {
	return fmt.Sprintf("You have %s waiting in %s. Sign in to read them: %s",
		plural(unread, "unread message"), plural(conversations, "conversation"), appURL)
}

// RenderUnreadDigestEmail generates branded HTML telling a participant how
// many secure messages are waiting for them. Names are HTML-escaped.
func RenderUnreadDigestEmail(name string, unread, conversations int, appURL string) string {
	safeName := html.EscapeString(name)
	if safeName == "" {
		safeName = "there"
	}
	safeURL := html.EscapeString(appURL)
	safeSubject := html.EscapeString(DigestSubject)

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>%s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f7fb; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #0f766e 0%%, #2563eb 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 24px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .count { font-size: 32px; font-weight: 700; color: #0f766e; }
    .button { display: inline-block; padding: 12px 24px; background-color: #2563eb; color: #fff; border-radius: 6px; text-decoration: none; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>%s</h1>
    </div>
    <div class="content">
      <p>Hi %s,</p>
      <p><span class="count">%d</span> unread in %s.</p>
      <p>For your privacy, message content is only shown after you sign in.</p>
      <p><a class="button" href="%s">Open secure messages</a></p>
    </div>
    <div class="footer">
      <p>This is an automated notification from your care team's secure messaging service.</p>
    </div>
  </div>
</body>
</html>`, safeSubject, safeSubject, safeName, unread, plural(conversations, "conversation"), safeURL)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
