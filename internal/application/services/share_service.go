package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/lifexia/healthnav/internal/domain/entities"
	apperrors "github.com/lifexia/healthnav/pkg/errors"
)

// TextSender is the one capability the share flow needs from the messaging
// provider.
type TextSender interface {
	SendText(ctx context.Context, to, body string) (string, error)
}

// ShareRequest asks for a facility's directions to be sent to a phone.
type ShareRequest struct {
	Phone      string
	FacilityID string
	From       *entities.Location
}

// ShareReceipt reports a delivered share message.
type ShareReceipt struct {
	Reference string `json:"reference"`
	MessageID string `json:"message_id"`
	Phone     string `json:"phone"`
}

// ShareService sends facility directions to a phone over WhatsApp.
type ShareService struct {
	locations *LocationService
	sender    TextSender
	logger    zerolog.Logger
}

// NewShareService creates a new share service. sender may be nil when
// sharing is disabled; requests then fail with an unavailable error.
func NewShareService(locations *LocationService, sender TextSender, logger zerolog.Logger) *ShareService {
	return &ShareService{
		locations: locations,
		sender:    sender,
		logger:    logger.With().Str("component", "share_service").Logger(),
	}
}

// ShareDirections looks the facility up, renders the directions message, and
// sends it to the requested phone.
func (s *ShareService) ShareDirections(ctx context.Context, req ShareRequest) (*ShareReceipt, error) {
	if s.sender == nil {
		return nil, apperrors.NewUnavailableError("sharing is not configured")
	}

	phone, err := normalizePhone(req.Phone)
	if err != nil {
		return nil, err
	}

	info, err := s.locations.Directions(ctx, req.FacilityID, req.From)
	if err != nil {
		return nil, err
	}

	messageID, err := s.sender.SendText(ctx, phone, shareMessage(info))
	if err != nil {
		return nil, apperrors.NewExternalError("failed to send share message", err)
	}

	receipt := &ShareReceipt{
		Reference: uuid.New().String(),
		MessageID: messageID,
		Phone:     phone,
	}
	s.logger.Info().
		Str("reference", receipt.Reference).
		Str("facility_id", req.FacilityID).
		Msg("directions shared")
	return receipt, nil
}

// normalizePhone reduces a phone number to the digit string the Cloud API
// expects. Spaces, dashes, parentheses, and a leading plus are allowed in
// the input.
func normalizePhone(phone string) (string, error) {
	cleaned := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(phone))
	cleaned = strings.TrimPrefix(cleaned, "+")
	if len(cleaned) < 8 {
		return "", apperrors.NewValidationError("phone number is too short")
	}
	for _, r := range cleaned {
		if r < '0' || r > '9' {
			return "", apperrors.NewValidationError("phone number must contain only digits")
		}
	}
	return cleaned, nil
}

// shareMessage renders the message body. The directions link goes last so
// the preview card sits under the text.
func shareMessage(info *DirectionsInfo) string {
	f := info.Facility

	var b strings.Builder
	b.WriteString(f.Name)
	b.WriteString("\n")
	if f.Category != "" {
		b.WriteString(f.Category)
		b.WriteString("\n")
	}
	if f.Address != "" {
		b.WriteString("Address: " + f.Address + "\n")
	}
	if f.Contact != "" {
		b.WriteString("Contact: " + f.Contact + "\n")
	}
	if f.Distance != nil && f.EstimatedTime != nil {
		b.WriteString(fmt.Sprintf("Distance: %.2f km, about %d min away\n", *f.Distance, *f.EstimatedTime))
	}
	b.WriteString("Directions: " + info.URL)
	return b.String()
}
