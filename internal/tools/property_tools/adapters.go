package property_tools

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/hostbridge/hostbridge/internal/pms"
	"github.com/hostbridge/hostbridge/internal/tools/common"
)

// ListProperties returns a single page of property listings. Pagination is
// caller-driven: the adapter forwards limit/skip and returns the page as the
// upstream returns it.
func ListProperties(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
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

	result, err := client.Get(ctx, "/listings", query)
	if err != nil {
		return nil, common.Classify(err)
	}
	return result, nil
}

// GetProperty fetches a single property by id, with an optional fields
// projection.
func GetProperty(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	propertyID, err := common.RequireString(args, "property_id")
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	if fields, ok := common.StringArg(args, "fields"); ok {
		query.Set("fields", fields)
	}

	result, err := client.Get(ctx, "/listings/"+propertyID, query)
	if err != nil {
		if status, ok := pms.StatusOf(err); ok && status == 404 {
			return nil, common.NotFound("Property not found")
		}
		return nil, common.Classify(err)
	}
	return result, nil
}

// CheckAvailability queries the listings resource for properties available
// in a date range, optionally constrained to a minimum occupancy or a single
// property.
func CheckAvailability(ctx context.Context, client *pms.Client, args map[string]any) (any, error) {
	checkIn, checkOut, err := common.RequireDateRange(args, "check_in", "check_out")
	if err != nil {
		return nil, err
	}

	availability := map[string]any{
		"checkIn":  checkIn,
		"checkOut": checkOut,
	}
	if minOccupancy, ok, err := common.PositiveIntArg(args, "min_occupancy"); err != nil {
		return nil, err
	} else if ok {
		availability["minOccupancy"] = minOccupancy
	}

	encoded, err := json.Marshal(availability)
	if err != nil {
		return nil, common.Validationf("availability query is not serializable: %v", err)
	}

	query := url.Values{}
	query.Set("available", string(encoded))
	if propertyID, ok := common.StringArg(args, "property_id"); ok {
		query.Set("ids", propertyID)
	}

	result, err := client.Get(ctx, "/listings", query)
	if err != nil {
		return nil, common.Classify(err)
	}
	return result, nil
}
