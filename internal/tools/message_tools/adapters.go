package message_tools

import (
	"context"
	"net/url"
	"strconv"

	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// defaultSubject is used when the caller does not provide a subject.
const defaultSubject = "Message from Property Manager"

// SendGuestMessage posts a communication to the guest linked to a
// reservation. The reservation is fetched first to resolve the guest id; a
// reservation without a guest link is a NotFound failure and no
// communications call is issued.
func SendGuestMessage(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	reservationID, err := common.RequireString(args, "reservation_id")
	if err != nil {
		return nil, err
	}
	message, err := common.RequireString(args, "message")
	if err != nil {
		return nil, err
	}
	if !common.NonBlankString(message) {
		return nil, common.Validationf("message must not be blank")
	}

	subject := defaultSubject
	if s, ok := common.StringArg(args, "subject"); ok {
		subject = s
	}

	reservation, err := client.Get(ctx, "/reservations/"+reservationID, nil)
	if err != nil {
		if status, ok := pms.StatusOf(err); ok && status == 404 {
			return nil, common.NotFound("Reservation not found")
		}
		return nil, common.Classify(err)
	}

	guestID := linkedGuestID(reservation)
	if guestID == "" {
		return nil, common.NotFound("Reservation has no linked guest")
	}

	payload := map[string]any{
		"reservationId": reservationID,
		"guestId":       guestID,
		"message":       message,
		"subject":       subject,
	}

	result, err := client.Post(ctx, "/communications", payload)
	if err != nil {
		return nil, common.Classify(err)
	}
	return result, nil
}

// GetGuestMessages returns the communications recorded for a reservation,
// newest-first as the upstream orders them.
func GetGuestMessages(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	reservationID, err := common.RequireString(args, "reservation_id")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("reservationId", reservationID)
	if limit, ok, err := common.PositiveIntArg(args, "limit"); err != nil {
		return nil, err
	} else if ok {
		query.Set("limit", strconv.Itoa(limit))
	}

	result, err := client.Get(ctx, "/communications", query)
	if err != nil {
		if status, ok := pms.StatusOf(err); ok && status == 404 {
			return nil, common.NotFound("Reservation not found")
		}
		return nil, common.Classify(err)
	}
	return result, nil
}

// linkedGuestID resolves the guest id of a reservation body, accepting both
// the flat guestId field and an embedded guest object.
func linkedGuestID(reservation any) string {
	m, ok := reservation.(map[string]any)
	if !ok {
		return ""
	}
	if id, ok := m["guestId"].(string); ok && id != "" {
		return id
	}
	if guest, ok := m["guest"].(map[string]any); ok {
		if id, ok := guest["_id"].(string); ok && id != "" {
			return id
		}
		if id, ok := guest["id"].(string); ok && id != "" {
			return id
		}
	}
	return ""
}
