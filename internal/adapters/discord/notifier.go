package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"corporateevents/internal/domain"
)

// messageSender is the part of *discordgo.Session the notifier needs.
type messageSender interface {
	ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
}

// Notifier posts new registrations to the organizers' Discord channel.
type Notifier struct {
	session   messageSender
	channelID string
	loc       *time.Location
}

// NewNotifier creates a notifier for channelID. Dates are shown in loc.
func NewNotifier(session messageSender, channelID string, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{session: session, channelID: channelID, loc: loc}
}

// NewSession builds a bot session. Messages are sent over REST so the gateway is not opened.
func NewSession(botToken string) (*discordgo.Session, error) {
	s, err := discordgo.New("Bot " + botToken)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return s, nil
}

func (n *Notifier) NotifyRegistration(ctx context.Context, event *domain.Event, attendance *domain.Attendance) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	_, err := n.session.ChannelMessageSend(n.channelID, FormatRegistration(event, attendance, n.loc), discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}

// FormatRegistration renders the organizer notice. Personal documents are left out.
func FormatRegistration(event *domain.Event, attendance *domain.Attendance, loc *time.Location) string {
	mode := "presencial"
	if attendance.AttendeeType == domain.AttendeeOnline {
		mode = "online"
	}
	// Event dates are calendar days stored at midnight UTC; converting would shift them.
	y, m, d := event.Date.Date()
	return fmt.Sprintf("🎟️ **Nova inscrição**\n**Evento:** %s (%s)\n**Participante:** %s\n**Cargo:** %s\n**Empresa:** %s\n**Modalidade:** %s",
		event.Title,
		time.Date(y, m, d, 0, 0, 0, 0, loc).Format("02/01/2006"),
		attendance.AttendeeFullName,
		attendance.AttendeePosition,
		domain.FormatCNPJ(attendance.CompanyCNPJ),
		mode,
	)
}

// NoopNotifier is used when no bot token is configured.
type NoopNotifier struct {
	Logger *slog.Logger
}

func (n NoopNotifier) NotifyRegistration(ctx context.Context, event *domain.Event, attendance *domain.Attendance) error {
	n.Logger.DebugContext(ctx, "organizer notice skipped (discord disabled)", "event_id", event.ID, "attendance_id", attendance.ID)
	return nil
}
