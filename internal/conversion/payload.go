package conversion

// PayloadMode selects the outbound payload shape. The mode is deployment
// configuration, never caller input.
type PayloadMode string

const (
	PayloadFlat   PayloadMode = "flat"
	PayloadNested PayloadMode = "nested"
)

// ShapePayload renders the event into the provider's expected contract.
// Flat mode puts every field at one level; nested mode groups commerce
// fields under "properties" and identity/context fields under "user".
// Empty fields are omitted in both modes, never sent as nulls.
func ShapePayload(e *Event, mode PayloadMode) map[string]interface{} {
	payload := map[string]interface{}{
		"event":     string(e.Name),
		"event_id":  e.EventID,
		"timestamp": e.Timestamp,
	}

	commerce := map[string]interface{}{}
	if e.ValueSet {
		commerce["value"] = e.Value
	}
	putNonEmpty(commerce, "currency", e.Currency)
	putNonEmpty(commerce, "content_id", e.ContentID)
	putNonEmpty(commerce, "content_type", e.ContentType)
	putNonEmpty(commerce, "content_name", e.ContentName)
	putNonEmpty(commerce, "url", e.URL)

	user := map[string]interface{}{}
	putNonEmpty(user, "email", e.HashedEmail)
	putNonEmpty(user, "phone", e.HashedPhone)
	putNonEmpty(user, "external_id", e.HashedExternalID)
	putNonEmpty(user, "ip", e.IP)
	putNonEmpty(user, "user_agent", e.UserAgent)
	putNonEmpty(user, "ttclid", e.TTCLID)
	putNonEmpty(user, "ttp", e.TTP)

	switch mode {
	case PayloadNested:
		if len(commerce) > 0 {
			payload["properties"] = commerce
		}
		if len(user) > 0 {
			payload["user"] = user
		}
	default:
		for k, v := range commerce {
			payload[k] = v
		}
		for k, v := range user {
			payload[k] = v
		}
	}

	return payload
}

func putNonEmpty(m map[string]interface{}, key, value string) {
	if value != "" {
		m[key] = value
	}
}
