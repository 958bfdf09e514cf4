package services

import (
	"fmt"
	"html"
	"time"

	"gopkg.in/gomail.v2"
)

type EmailService interface {
	SendWelcomeEmail(email, name string) error
	SendPasswordResetEmail(email, token string) error
	SendTaskAssignedEmail(email, name, taskTitle string, dueDate *time.Time) error
}

type emailService struct {
	dialer *gomail.Dialer
	from   string
}

func NewEmailService(smtpHost string, smtpPort int, smtpUser, smtpPassword, fromEmail string) EmailService {
	dialer := gomail.NewDialer(smtpHost, smtpPort, smtpUser, smtpPassword)
	return &emailService{
		dialer: dialer,
		from:   fromEmail,
	}
}

func (s *emailService) send(to, subject, body string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", body)
	return s.dialer.DialAndSend(m)
}

func (s *emailService) SendWelcomeEmail(email, name string) error {
	body := fmt.Sprintf(`
		<h2>Welcome to Task Tracker, %s!</h2>
		<p>Your account has been successfully created.</p>
		<p>You can now create tasks, assign them to teammates and follow their progress.</p>
	`, html.EscapeString(name))

	if err := s.send(email, "Welcome to Task Tracker!", body); err != nil {
		return fmt.Errorf("failed to send welcome email: %w", err)
	}
	return nil
}

func (s *emailService) SendPasswordResetEmail(email, token string) error {
	body := fmt.Sprintf(`
		<h3>Password reset requested</h3>
		<p>We received a request to reset the password for your account.</p>
		<p>Use the following token to reset your password: <strong>%s</strong></p>
		<p>The token is valid for one hour. If you did not request this change, you can ignore this email.</p>
	`, token)

	if err := s.send(email, "Password reset request", body); err != nil {
		return fmt.Errorf("failed to send password reset email: %w", err)
	}
	return nil
}

func (s *emailService) SendTaskAssignedEmail(email, name, taskTitle string, dueDate *time.Time) error {
	due := "no due date"
	if dueDate != nil {
		due = dueDate.Format("02.01.2006 15:04")
	}
	body := fmt.Sprintf(`
		<h3>Hi %s, a task was assigned to you</h3>
		<p><strong>%s</strong></p>
		<p>Due: %s</p>
	`, html.EscapeString(name), html.EscapeString(taskTitle), due)

	if err := s.send(email, "New task: "+taskTitle, body); err != nil {
		return fmt.Errorf("failed to send task email: %w", err)
	}
	return nil
}
