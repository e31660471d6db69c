package conversion

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/grovegear/storefront/internal/errs"
)

// EventName is the closed set of reportable marketing actions.
type EventName string

const (
	EventCompleteRegistration EventName = "CompleteRegistration"
	EventPlaceAnOrder         EventName = "PlaceAnOrder"
	EventAddToCart            EventName = "AddToCart"
)

// ParseEventName maps an endpoint slug to its event name.
func ParseEventName(slug string) (EventName, bool) {
	switch slug {
	case "complete_registration":
		return EventCompleteRegistration, true
	case "place_order":
		return EventPlaceAnOrder, true
	case "add_to_cart":
		return EventAddToCart, true
	}
	return "", false
}

// RequiresCommerceFields reports whether value/currency/content fields are
// mandatory for the event. Registration is the only exception.
func (e EventName) RequiresCommerceFields() bool {
	return e != EventCompleteRegistration
}

// Number tolerates clients sending numeric fields as JSON numbers or
// strings; validation decides whether the text parses.
type Number string

func (n *Number) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" {
		s = ""
	}
	*n = Number(s)
	return nil
}

// Request is the client-supplied event body. Body values take precedence
// over cookie/query-derived context.
type Request struct {
	URL         string `json:"url,omitempty"`
	TTCLID      string `json:"ttclid,omitempty"`
	TTP         string `json:"ttp,omitempty"`
	EventID     string `json:"event_id,omitempty"`
	Value       Number `json:"value,omitempty"`
	Currency    string `json:"currency,omitempty"`
	ContentID   string `json:"content_id,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	ContentName string `json:"content_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	ExternalID  string `json:"external_id,omitempty"`
}

// Event is the normalized, hash-safe form ready for payload shaping. No raw
// identity value survives past BuildEvent.
type Event struct {
	Name      EventName
	EventID   string
	Timestamp int64
	URL       string

	Value    float64
	ValueSet bool
	Currency string

	ContentID   string
	ContentType string
	ContentName string

	HashedEmail      string
	HashedPhone      string
	HashedExternalID string

	IP        string
	UserAgent string
	TTCLID    string
	TTP       string
}

// BuildEvent validates and normalizes a client request into an Event. The
// caller-supplied event id is honored verbatim for provider-side dedup; a
// missing one gets a fresh random identifier.
func BuildEvent(name EventName, req Request, rc RequestContext, defaultBaseURL string) (*Event, error) {
	var problems []string

	if name.RequiresCommerceFields() {
		required := []struct {
			field string
			value string
		}{
			{"value", string(req.Value)},
			{"currency", req.Currency},
			{"content_id", req.ContentID},
			{"content_type", req.ContentType},
			{"content_name", req.ContentName},
		}
		for _, r := range required {
			if strings.TrimSpace(r.value) == "" {
				problems = append(problems, r.field+" is required")
			}
		}
	}

	var value float64
	valueSet := false
	if string(req.Value) != "" {
		parsed, err := strconv.ParseFloat(string(req.Value), 64)
		if err != nil {
			problems = append(problems, "value must be a number")
		} else if parsed < 0 {
			problems = append(problems, "value must not be negative")
		} else {
			value = parsed
			valueSet = true
		}
	}

	if len(problems) > 0 {
		return nil, &errs.ValidationError{Problems: problems}
	}

	eventID := req.EventID
	if eventID == "" {
		eventID = uuid.New().String()
	}

	url := req.URL
	if url == "" {
		url = defaultBaseURL
	}

	ttclid := req.TTCLID
	if ttclid == "" {
		ttclid = rc.TTCLID
	}
	ttp := req.TTP
	if ttp == "" {
		ttp = rc.TTP
	}

	return &Event{
		Name:             name,
		EventID:          eventID,
		Timestamp:        time.Now().Unix(),
		URL:              url,
		Value:            value,
		ValueSet:         valueSet,
		Currency:         req.Currency,
		ContentID:        req.ContentID,
		ContentType:      req.ContentType,
		ContentName:      req.ContentName,
		HashedEmail:      HashIdentifier(req.Email),
		HashedPhone:      HashIdentifier(req.Phone),
		HashedExternalID: HashIdentifier(req.ExternalID),
		IP:               rc.IP,
		UserAgent:        rc.UserAgent,
		TTCLID:           ttclid,
		TTP:              ttp,
	}, nil
}
