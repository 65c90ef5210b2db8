package services_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lifexia/healthnav/internal/application/services"
	apperrors "github.com/lifexia/healthnav/pkg/errors"
)

type stubTextSender struct {
	to    string
	body  string
	id    string
	err   error
	calls int
}

func (s *stubTextSender) SendText(ctx context.Context, to, body string) (string, error) {
	s.calls++
	s.to = to
	s.body = body
	if s.err != nil {
		return "", s.err
	}
	return s.id, nil
}

func newShareService(sender services.TextSender) *services.ShareService {
	return services.NewShareService(newLocationService(nil), sender, zerolog.Nop())
}

func TestShareService_ShareDirections(t *testing.T) {
	sender := &stubTextSender{id: "wamid.test123"}
	svc := newShareService(sender)

	receipt, err := svc.ShareDirections(context.Background(), services.ShareRequest{
		Phone:      "+91 79226-83721",
		FacilityID: "h007",
		From:       &cityCenter,
	})

	require.NoError(t, err)
	assert.Equal(t, "wamid.test123", receipt.MessageID)
	assert.Equal(t, "917922683721", receipt.Phone)
	assert.NotEmpty(t, receipt.Reference)

	assert.Equal(t, "917922683721", sender.to)
	assert.True(t, strings.HasPrefix(sender.body, "Civil Hospital Ahmedabad\n"))
	assert.Contains(t, sender.body, "Distance: ")
	assert.Contains(t, sender.body,
		"Directions: https://www.google.com/maps/dir/?api=1&destination=23.045,72.598&destination_place_id=Civil+Hospital+Ahmedabad")
}

func TestShareService_UnlocatedCallerSkipsDistanceLine(t *testing.T) {
	sender := &stubTextSender{id: "wamid.x"}
	svc := newShareService(sender)

	_, err := svc.ShareDirections(context.Background(), services.ShareRequest{
		Phone:      "919900112233",
		FacilityID: "p001",
	})

	require.NoError(t, err)
	assert.NotContains(t, sender.body, "Distance: ")
}

func TestShareService_RejectsBadPhones(t *testing.T) {
	sender := &stubTextSender{id: "wamid.x"}
	svc := newShareService(sender)
	ctx := context.Background()

	for _, phone := range []string{"", "12345", "98abc76543"} {
		_, err := svc.ShareDirections(ctx, services.ShareRequest{Phone: phone, FacilityID: "h001"})
		var appErr *apperrors.AppError
		require.ErrorAs(t, err, &appErr, "phone %q", phone)
		assert.Equal(t, apperrors.ErrorTypeValidation, appErr.Type)
	}
	assert.Zero(t, sender.calls)
}

func TestShareService_UnknownFacility(t *testing.T) {
	sender := &stubTextSender{id: "wamid.x"}
	svc := newShareService(sender)

	_, err := svc.ShareDirections(context.Background(), services.ShareRequest{
		Phone:      "919900112233",
		FacilityID: "nope",
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeNotFound, appErr.Type)
	assert.Zero(t, sender.calls)
}

func TestShareService_SenderFailureIsExternal(t *testing.T) {
	sender := &stubTextSender{err: errors.New("api down")}
	svc := newShareService(sender)

	_, err := svc.ShareDirections(context.Background(), services.ShareRequest{
		Phone:      "919900112233",
		FacilityID: "h001",
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeExternal, appErr.Type)
}

func TestShareService_NilSenderIsUnavailable(t *testing.T) {
	svc := newShareService(nil)

	_, err := svc.ShareDirections(context.Background(), services.ShareRequest{
		Phone:      "919900112233",
		FacilityID: "h001",
	})

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.ErrorTypeUnavailable, appErr.Type)
}
