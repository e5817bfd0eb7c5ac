package response

import (
	"venue-booking/internal/usecase/queries"

	"github.com/jinzhu/copier"
)

type SlotResponse struct {
	Label       string `json:"label"`
	MinuteOfDay int    `json:"minute_of_day"`
}

// AvailabilityResponse maps each catalog label to whether it can be booked.
type AvailabilityResponse map[string]bool

func FromAvailabilityResult(r *queries.AvailabilityResult) AvailabilityResponse {
	return r.Availability.AsMap()
}

func FromSlotViews(views []queries.SlotView) []SlotResponse {
	out := make([]SlotResponse, 0, len(views))
	_ = copier.Copy(&out, &views)
	return out
}
