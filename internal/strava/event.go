package strava

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/pkordes/stridelog/internal/domain"
)

// Aspect types and object types sent in webhook events.
const (
	AspectCreate = "create"
	AspectUpdate = "update"
	AspectDelete = "delete"

	ObjectActivity = "activity"
	ObjectAthlete  = "athlete"
)

// Event is a Strava push subscription event. ObjectData is an optional
// enrichment carrying the full activity, supplied by relays that fetch it
// before forwarding.
type Event struct {
	AspectType     string            `json:"aspect_type"`
	ObjectType     string            `json:"object_type"`
	ObjectID       int64             `json:"object_id"`
	OwnerID        int64             `json:"owner_id"`
	SubscriptionID int64             `json:"subscription_id"`
	EventTime      int64             `json:"event_time"`
	Updates        map[string]string `json:"updates,omitempty"`
	ObjectData     *ActivityData     `json:"object_data,omitempty"`
}

// WebhookType is the audit-log label for the event, e.g. strava_create_activity.
func (e Event) WebhookType() string {
	return "strava_" + e.AspectType + "_" + e.ObjectType
}

// Deauthorized reports whether the event revokes the athlete's authorization.
func (e Event) Deauthorized() bool {
	return e.ObjectType == ObjectAthlete && e.Updates["authorized"] == "false"
}

// ActivityData is the subset of a Strava activity the dashboard stores.
// Every field is optional so partial payloads only patch what they carry.
type ActivityData struct {
	ID                 *int64     `json:"id,omitempty"`
	Name               *string    `json:"name,omitempty"`
	Type               *string    `json:"type,omitempty"`
	SportType          *string    `json:"sport_type,omitempty"`
	Distance           *float64   `json:"distance,omitempty"`
	MovingTime         *int       `json:"moving_time,omitempty"`
	TotalElevationGain *float64   `json:"total_elevation_gain,omitempty"`
	AverageSpeed       *float64   `json:"average_speed,omitempty"`
	MaxSpeed           *float64   `json:"max_speed,omitempty"`
	AverageHeartrate   *float64   `json:"average_heartrate,omitempty"`
	MaxHeartrate       *float64   `json:"max_heartrate,omitempty"`
	Calories           *float64   `json:"calories,omitempty"`
	StartDate          *time.Time `json:"start_date,omitempty"`
	Map                *struct {
		Polyline        string `json:"polyline,omitempty"`
		SummaryPolyline string `json:"summary_polyline,omitempty"`
	} `json:"map,omitempty"`
}

// Patch converts the payload into an activity patch.
func (d ActivityData) Patch() domain.ActivityPatch {
	p := domain.ActivityPatch{
		Title:            d.Name,
		Distance:         d.Distance,
		Duration:         d.MovingTime,
		ElevationGain:    d.TotalElevationGain,
		AverageSpeed:     d.AverageSpeed,
		MaxSpeed:         d.MaxSpeed,
		AverageHeartRate: d.AverageHeartrate,
		MaxHeartRate:     d.MaxHeartrate,
		Calories:         d.Calories,
		StartDate:        d.StartDate,
	}
	if t := d.sportType(); t != "" {
		mapped := MapActivityType(t)
		p.Type = &mapped
	}
	if d.Map != nil {
		line := d.Map.SummaryPolyline
		if line == "" {
			line = d.Map.Polyline
		}
		if line != "" {
			p.Polyline = &line
		}
	}
	return p
}

func (d ActivityData) sportType() string {
	if d.Type != nil && *d.Type != "" {
		return *d.Type
	}
	if d.SportType != nil {
		return *d.SportType
	}
	return ""
}

// UpdatesPatch builds a patch from the "updates" map of an update event,
// which only ever carries title, type or privacy changes.
func UpdatesPatch(updates map[string]string) domain.ActivityPatch {
	var p domain.ActivityPatch
	if title := updates["title"]; title != "" {
		p.Title = &title
	}
	if t := updates["type"]; t != "" {
		mapped := MapActivityType(t)
		p.Type = &mapped
	}
	return p
}

var activityTypes = map[string]domain.ActivityType{
	"run":              domain.ActivityRun,
	"walk":             domain.ActivityRun,
	"hike":             domain.ActivityRun,
	"virtualrun":       domain.ActivityRun,
	"trailrun":         domain.ActivityRun,
	"ride":             domain.ActivityRide,
	"virtualride":      domain.ActivityRide,
	"ebikeride":        domain.ActivityRide,
	"gravelride":       domain.ActivityRide,
	"mountainbikeride": domain.ActivityRide,
	"swim":             domain.ActivitySwim,
}

// MapActivityType folds a Strava sport type into the dashboard's four types.
func MapActivityType(stravaType string) domain.ActivityType {
	if t, ok := activityTypes[strings.ToLower(stravaType)]; ok {
		return t
	}
	return domain.ActivityOther
}

// ParseEvent decodes a webhook body. Unknown fields are ignored and
// non-string update values are stringified.
func ParseEvent(body []byte) (Event, error) {
	var raw struct {
		Event
		Updates map[string]any `json:"updates,omitempty"`
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return Event{}, err
	}
	e := raw.Event
	if len(raw.Updates) > 0 {
		e.Updates = make(map[string]string, len(raw.Updates))
		for k, v := range raw.Updates {
			switch val := v.(type) {
			case string:
				e.Updates[k] = val
			case nil:
			default:
				b, _ := json.Marshal(val)
				e.Updates[k] = string(b)
			}
		}
	}
	return e, nil
}
