package templates

import (
	"fmt"
	"html"
	"strings"
)

// RenderCaseUpdateEmail generates branded HTML for a case lifecycle email.
// The message is plain text that gets HTML-escaped and has newlines converted
// to <br> tags.
func RenderCaseUpdateEmail(recipientName, caseRef, message string) string {
	escaped := html.EscapeString(message)
	htmlBody := strings.ReplaceAll(escaped, "\n", "<br>")

	greeting := "Magandang araw"
	if recipientName != "" {
		greeting = fmt.Sprintf("Magandang araw, %s", html.EscapeString(recipientName))
	}

	return fmt.Sprintf(`<!DOCTYPE html PUBLIC "-//W3C//DTD XHTML 1.0 Strict//EN" "http://www.w3.org/TR/xhtml1/DTD/xhtml1-strict.dtd">
<html xmlns="http://www.w3.org/1999/xhtml">
<head>
  <meta http-equiv="Content-Type" content="text/html; charset=utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1, minimum-scale=1, maximum-scale=1">
  <title>Update on your case %s</title>
  <style type="text/css">
    body { font-family: 'Segoe UI', Tahoma, Geneva, Verdana, sans-serif; margin: 0; padding: 0; background-color: #f4f4f5; }
    .container { max-width: 600px; margin: 0 auto; background-color: #ffffff; }
    .header { background: linear-gradient(135deg, #1e3a8a 0%%, #1d4ed8 100%%); padding: 40px 30px; text-align: center; }
    .header h1 { color: #fff; margin: 0; font-size: 22px; font-weight: 700; }
    .content { padding: 40px 30px; color: #1f2937; line-height: 1.6; font-size: 15px; }
    .case-ref { display: inline-block; background-color: #eff6ff; color: #1d4ed8; padding: 4px 12px; border-radius: 4px; font-weight: 700; }
    .footer { padding: 30px; text-align: center; color: #6b7280; font-size: 12px; border-top: 1px solid #e5e7eb; }
  </style>
</head>
<body>
  <div class="container">
    <div class="header">
      <h1>Barangay Portal</h1>
    </div>
    <div class="content">
      <p>%s,</p>
      <p>There is an update on your case <span class="case-ref">%s</span>:</p>
      <p>%s</p>
      <p>You can view the full details by logging in to the Barangay Portal.</p>
    </div>
    <div class="footer">
      <p>This is an automated message from your Barangay Portal. Please do not reply to this email.</p>
    </div>
  </div>
</body>
</html>`, html.EscapeString(caseRef), greeting, html.EscapeString(caseRef), htmlBody)
}
