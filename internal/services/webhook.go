// Package services posts task notifications to Discord and Slack webhooks.
// Both targets are configured by env; an unset URL simply skips that target.
package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/taskdeck/taskdeck/internal/models"
)

type DiscordWebhookField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type DiscordEmbed struct {
	Title       string                `json:"title"`
	Description string                `json:"description"`
	Color       int                   `json:"color"`
	Fields      []DiscordWebhookField `json:"fields"`
	Footer      *DiscordFooter        `json:"footer,omitempty"`
	Timestamp   string                `json:"timestamp"`
}

type DiscordFooter struct {
	Text string `json:"text"`
}

type DiscordWebhookRequest struct {
	Username string         `json:"username"`
	Embeds   []DiscordEmbed `json:"embeds"`
}

type SlackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

type SlackAttachment struct {
	Color     string       `json:"color"`
	Title     string       `json:"title"`
	Text      string       `json:"text"`
	Fields    []SlackField `json:"fields"`
	Footer    string       `json:"footer"`
	Timestamp int64        `json:"ts"`
}

type SlackWebhookRequest struct {
	Username    string            `json:"username"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Text        string            `json:"text"`
	Attachments []SlackAttachment `json:"attachments"`
}

const (
	ColorBlue   = 3447003  // #3498DB - task assigned
	ColorGreen  = 65280    // #00FF00 - task completed
	ColorOrange = 16753920 // #FFA500 - status change / overdue

	Username = "Taskdeck"
)

// Configured reports whether at least one webhook target is set.
func Configured() bool {
	return os.Getenv("DISCORD_WEBHOOK_URL") != "" || os.Getenv("SLACK_WEBHOOK_URL") != ""
}

func taskFields(task models.Task) []DiscordWebhookField {
	fields := []DiscordWebhookField{
		{Name: "Assignee", Value: task.AssignedTo.FullName(), Inline: true},
		{Name: "Priority", Value: task.Priority, Inline: true},
		{Name: "Status", Value: task.Status, Inline: true},
	}

	if task.DueDate != nil {
		fields = append(fields, DiscordWebhookField{
			Name:   "Due",
			Value:  task.DueDate.Format("2006-01-02 15:04 UTC"),
			Inline: true,
		})
	}

	return fields
}

func taskSlackFields(task models.Task) []SlackField {
	fields := []SlackField{
		{Title: "Assignee", Value: task.AssignedTo.FullName(), Short: true},
		{Title: "Priority", Value: task.Priority, Short: true},
		{Title: "Status", Value: task.Status, Short: true},
	}

	if task.DueDate != nil {
		fields = append(fields, SlackField{
			Title: "Due",
			Value: task.DueDate.Format("2006-01-02 15:04 UTC"),
			Short: true,
		})
	}

	return fields
}

// NotifyTaskAssigned announces a freshly created task. Intended to run on
// its own goroutine; failures are logged and dropped.
func NotifyTaskAssigned(task models.Task) {
	notify(task,
		"New task assigned",
		fmt.Sprintf("**%s** has been assigned to %s.", task.Title, task.AssignedTo.FullName()),
		ColorBlue, "good", ":clipboard:")
}

// NotifyStatusChanged announces a status transition.
func NotifyStatusChanged(task models.Task, oldStatus string) {
	color := ColorOrange
	slackColor := "warning"

	if task.Status == "completed" {
		color = ColorGreen
		slackColor = "good"
	}

	notify(task,
		"Task status changed",
		fmt.Sprintf("**%s** moved from %s to %s.", task.Title, oldStatus, task.Status),
		color, slackColor, ":arrows_counterclockwise:")
}

// NotifyTaskOverdue announces a task past its due date. Called by the
// overdue sweeper.
func NotifyTaskOverdue(task models.Task) {
	notify(task,
		"Task overdue",
		fmt.Sprintf("**%s** is past its due date and is still %s.", task.Title, task.Status),
		ColorOrange, "danger", ":alarm_clock:")
}

func notify(task models.Task, title, description string, color int, slackColor, emoji string) {
	if discordURL := os.Getenv("DISCORD_WEBHOOK_URL"); discordURL != "" {
		payload := DiscordWebhookRequest{
			Username: Username,
			Embeds: []DiscordEmbed{
				{
					Title:       title,
					Description: description,
					Color:       color,
					Fields:      taskFields(task),
					Footer:      &DiscordFooter{Text: "Taskdeck"},
					Timestamp:   time.Now().Format(time.RFC3339),
				},
			},
		}

		if err := sendDiscordWebhook(discordURL, payload); err != nil {
			log.Printf("Discord notification failed for task %d: %v", task.ID, err)
		}
	}

	if slackURL := os.Getenv("SLACK_WEBHOOK_URL"); slackURL != "" {
		payload := SlackWebhookRequest{
			Username:  Username,
			IconEmoji: emoji,
			Text:      title,
			Attachments: []SlackAttachment{
				{
					Color:     slackColor,
					Title:     task.Title,
					Text:      description,
					Fields:    taskSlackFields(task),
					Footer:    "Taskdeck",
					Timestamp: time.Now().Unix(),
				},
			},
		}

		if err := sendSlackWebhook(slackURL, payload); err != nil {
			log.Printf("Slack notification failed for task %d: %v", task.ID, err)
		}
	}
}

func sendDiscordWebhook(webhookURL string, payload DiscordWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Discord payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Discord webhook returned status %d", resp.StatusCode)
	}

	return nil
}

func sendSlackWebhook(webhookURL string, payload SlackWebhookRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal Slack payload: %w", err)
	}

	resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return fmt.Errorf("failed to send Slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("Slack webhook returned status %d", resp.StatusCode)
	}

	return nil
}
