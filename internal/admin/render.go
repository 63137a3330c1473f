// Package admin renders archive data for the operator CLI.
package admin

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"wellnesschat/backend/internal/models"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	Primary = lipgloss.Color("#2b6e4f")
	Muted   = lipgloss.Color("#6B7280")
	Danger  = lipgloss.Color("#EF4444")

	TableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(Primary).Padding(0, 1)
	TableRowStyle    = lipgloss.NewStyle().Padding(0, 1)
	TableRowAltStyle = lipgloss.NewStyle().Padding(0, 1).Foreground(lipgloss.Color("#9CA3AF"))
	MutedStyle       = lipgloss.NewStyle().Foreground(Muted).Italic(true)
	ErrorStyle       = lipgloss.NewStyle().Foreground(Danger).Bold(true)
)

const timeLayout = "2006-01-02 15:04"

func render(headers []string, rows [][]string, empty string) string {
	if len(rows) == 0 {
		return MutedStyle.Render(empty)
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(Primary)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return TableHeaderStyle
			case row%2 == 0:
				return TableRowStyle
			default:
				return TableRowAltStyle
			}
		}).
		String()
}

// RoomsTable lists archived rooms.
func RoomsTable(rooms []models.ChatRoom) string {
	rows := make([][]string, 0, len(rooms))
	for _, r := range rooms {
		ended := "-"
		if r.EndedAt != nil {
			ended = r.EndedAt.Local().Format(timeLayout)
		}
		state := "ended"
		if r.IsActive {
			state = "active"
		}
		rows = append(rows, []string{r.RoomID, r.User1ID, r.User2ID, truncate(r.Topic, 24), state, r.StartedAt.Local().Format(timeLayout), ended})
	}
	return render([]string{"Room", "Member 1", "Member 2", "Topic", "State", "Started", "Ended"}, rows, "No rooms")
}

// TranscriptTable lists archived messages of one room.
func TranscriptTable(history []models.ChatHistory) string {
	rows := make([][]string, 0, len(history))
	for _, h := range history {
		rows = append(rows, []string{fmt.Sprintf("%d", h.Seq), h.SentAt.Local().Format(time.TimeOnly), h.SenderID, truncate(h.Content, 60)})
	}
	return render([]string{"#", "Time", "Sender", "Message"}, rows, "No archived messages")
}

// BookingsTable lists counseling bookings.
func BookingsTable(bookings []models.Booking) string {
	rows := make([][]string, 0, len(bookings))
	for _, b := range bookings {
		rows = append(rows, []string{b.ID, b.ParticipantID, b.RequestedFor, b.CreatedAt.Local().Format(timeLayout)})
	}
	return render([]string{"ID", "Participant", "Requested for", "Created"}, rows, "No bookings")
}

// ChatLogTable lists chatbot log lines.
func ChatLogTable(logs []models.ChatLog) string {
	rows := make([][]string, 0, len(logs))
	for _, l := range logs {
		rows = append(rows, []string{l.ParticipantID, l.CreatedAt.Local().Format(timeLayout), l.Sender, truncate(l.Message, 60)})
	}
	return render([]string{"Participant", "Time", "Sender", "Message"}, rows, "No chatbot logs")
}

// WriteChatLogCSV writes logs with the anon_id,timestamp,sender,message header.
func WriteChatLogCSV(w io.Writer, logs []models.ChatLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"anon_id", "timestamp", "sender", "message"}); err != nil {
		return err
	}
	for _, l := range logs {
		msg := strings.ReplaceAll(l.Message, "\n", " ")
		if err := cw.Write([]string{l.ParticipantID, l.CreatedAt.UTC().Format(time.RFC3339), l.Sender, msg}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EventLine formats one live room event for the watch command.
func EventLine(roomID string, evt models.ChatEvent) string {
	line := fmt.Sprintf("%s  %-12s %s", evt.Timestamp.Local().Format(time.TimeOnly), evt.Type, roomID)
	if evt.SenderID != "" {
		line += "  " + evt.SenderID
	}
	if evt.Text != "" {
		line += ": " + truncate(evt.Text, 80)
	}
	return line
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
