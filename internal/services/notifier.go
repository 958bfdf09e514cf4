package services

import (
	"html"
	"log"

	"tasktracker/internal/models"
)

// AssignmentNotifier tells a user that a task was assigned to them.
// Delivery problems are logged and never returned.
type AssignmentNotifier interface {
	NotifyAssigned(task *models.Task, assignee *models.User)
}

type assignmentNotifier struct {
	emails EmailService
	tg     *TelegramService
}

// NewAssignmentNotifier accepts nil for either channel.
func NewAssignmentNotifier(emails EmailService, tg *TelegramService) AssignmentNotifier {
	return &assignmentNotifier{emails: emails, tg: tg}
}

func (n *assignmentNotifier) NotifyAssigned(task *models.Task, assignee *models.User) {
	if task == nil || assignee == nil {
		return
	}
	if n.emails != nil {
		if err := n.emails.SendTaskAssignedEmail(assignee.Email, assignee.FullName(), task.Title, task.DueDate); err != nil {
			log.Printf("[task][notify][email][err] task=%s assignee=%s: %v", task.ID, assignee.ID, err)
		}
	}
	if n.tg != nil && assignee.TelegramChatID != 0 {
		if err := n.tg.SendMessage(assignee.TelegramChatID, formatAssignedTask(task)); err != nil {
			log.Printf("[task][notify][tg][err] task=%s assignee=%s: %v", task.ID, assignee.ID, err)
		}
	}
}

func formatAssignedTask(t *models.Task) string {
	due := "not set"
	if t.DueDate != nil {
		due = t.DueDate.Format("2006-01-02 15:04")
	}
	return "📌 New task assigned\n" +
		"• <b>" + html.EscapeString(t.Title) + "</b>\n" +
		"• Priority: <code>" + string(t.Priority) + "</code>\n" +
		"• Due: <code>" + due + "</code>"
}
