package scheduling

import (
	"time"

	"github.com/google/uuid"
)

// GenerateFromWindow builds one candidate per expanded date of an availability
// window. Holidays and existing bookings are NOT excluded here; they surface
// later as scoring penalties. A day covered by several windows therefore yields
// several candidates (duplicates by date are kept).
func GenerateFromWindow(w AvailabilityWindow, client *Client, dates []time.Time) []SchedulingCandidate {
	if len(dates) == 0 {
		return nil
	}
	name := UnspecifiedClientName
	var clientID *uuid.UUID
	if client != nil {
		name = client.FullName
		id := client.ID
		clientID = &id
	}
	out := make([]SchedulingCandidate, 0, len(dates))
	for _, d := range dates {
		out = append(out, SchedulingCandidate{
			Date:            DateOnly(d),
			StartTime:       w.StartTime,
			AppointmentType: DefaultAppointmentType,
			ClientID:        clientID,
			ClientName:      name,
			Preference:      w.Preference,
		})
	}
	return out
}

// GenerateFromIntent builds one candidate per expanded date of a parsed
// command. Command-sourced candidates carry no compatibility score and the
// specific-date path performs no conflict check: the operator confirms them.
func GenerateFromIntent(in SchedulingIntent, dates []time.Time) []SchedulingCandidate {
	if len(dates) == 0 {
		return nil
	}
	name := in.ClientName
	if name == "" {
		name = UnspecifiedClientName
	}
	out := make([]SchedulingCandidate, 0, len(dates))
	for _, d := range dates {
		out = append(out, SchedulingCandidate{
			Date:            DateOnly(d),
			StartTime:       in.TimeOfDay,
			AppointmentType: in.AppointmentType,
			ClientID:        in.ClientID,
			ClientName:      name,
		})
	}
	return out
}
