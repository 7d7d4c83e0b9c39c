package reservation_tools

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// errMissingGuestID signals a guest-create response without an identifier.
var errMissingGuestID = errors.New("guest create response missing id")

// reservationStatuses is the closed set of accepted reservation states.
var reservationStatuses = map[string]bool{
	"inquiry":   true,
	"pending":   true,
	"confirmed": true,
	"canceled":  true,
}

// defaultStatus is used when the caller omits the status parameter.
const defaultStatus = "inquiry"

// ListReservations returns a single page of reservations, forwarding
// limit/skip and serialized filters to the upstream.
func ListReservations(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	query := url.Values{}

	if limit, ok, err := common.PositiveIntArg(args, "limit"); err != nil {
		return nil, err
	} else if ok {
		query.Set("limit", strconv.Itoa(limit))
	}
	if skip, ok, err := common.NonNegativeIntArg(args, "skip"); err != nil {
		return nil, err
	} else if ok {
		query.Set("skip", strconv.Itoa(skip))
	}
	if filters, ok, err := common.JSONStringArg(args, "filters"); err != nil {
		return nil, err
	} else if ok {
		query.Set("filters", filters)
	}

	result, err := client.Get(ctx, "/reservations", query)
	if err != nil {
		return nil, common.Classify(err)
	}
	return result, nil
}

// GetReservation fetches a single reservation by id, with an optional fields
// projection.
func GetReservation(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	reservationID, err := common.RequireString(args, "reservation_id")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if fields, ok := common.StringArg(args, "fields"); ok {
		query.Set("fields", fields)
	}

	result, err := client.Get(ctx, "/reservations/"+reservationID, query)
	if err != nil {
		if status, ok := pms.StatusOf(err); ok && status == 404 {
			return nil, common.NotFound("Reservation not found")
		}
		return nil, common.Classify(err)
	}
	return result, nil
}

// CreateReservation books a listing for a date range. The guest is either
// referenced by guest_id or created inline from guest_data, in which case
// the guest-create call precedes the reservation-create call and the
// returned guest id is used.
func CreateReservation(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	listingID, err := common.RequireString(args, "listing_id")
	if err != nil {
		return nil, err
	}
	checkIn, checkOut, err := common.RequireDateRange(args, "check_in", "check_out")
	if err != nil {
		return nil, err
	}

	status := defaultStatus
	if s, ok := common.StringArg(args, "status"); ok {
		if !reservationStatuses[s] {
			return nil, common.Validationf("status must be one of: inquiry, pending, confirmed, canceled")
		}
		status = s
	}

	guestID, hasGuestID := common.StringArg(args, "guest_id")
	guestData, hasGuestData := args["guest_data"].(map[string]any)
	if !hasGuestID && !hasGuestData {
		return nil, common.Validationf("either guest_id or guest_data is required")
	}

	if !hasGuestID {
		created, err := client.Post(ctx, "/guests", guestData)
		if err != nil {
			return nil, classifyCreateError(err)
		}
		guestID = createdID(created)
		if guestID == "" {
			return nil, common.Classify(&pms.APIError{Method: "POST", Path: "/guests",
				Err: errMissingGuestID})
		}
	}

	reservation := map[string]any{
		"listingId":    listingID,
		"checkInDate":  checkIn,
		"checkOutDate": checkOut,
		"status":       status,
		"guestId":      guestID,
	}

	result, err := client.Post(ctx, "/reservations", reservation)
	if err != nil {
		return nil, classifyCreateError(err)
	}
	return result, nil
}

// classifyCreateError maps the upstream failure modes of reservation
// creation: a 404 is disambiguated by whether the body mentions the listing
// or the guest, a 409 means the dates are already taken.
func classifyCreateError(err error) error {
	status, ok := pms.StatusOf(err)
	if !ok {
		return common.Classify(err)
	}

	switch status {
	case 404:
		var apiErr *pms.APIError
		if errors.As(err, &apiErr) && apiErr.BodyContains("guest") && !apiErr.BodyContains("listing") {
			return common.NotFound("Guest not found")
		}
		return common.NotFound("Listing not found")
	case 409:
		return common.Conflict("Property is not available for the specified dates")
	default:
		return common.Classify(err)
	}
}

// createdID extracts the identifier of a freshly created resource.
func createdID(body any) string {
	m, ok := body.(map[string]any)
	if !ok {
		return ""
	}
	if id, ok := m["_id"].(string); ok {
		return id
	}
	if id, ok := m["id"].(string); ok {
		return id
	}
	return ""
}
