package conversion

import (
	"bytes"
	"encoding/json"
	"testing"
)

func shapedEvent() *Event {
	return &Event{
		Name:        EventPlaceAnOrder,
		EventID:     "evt-1",
		Timestamp:   1750000000,
		URL:         "https://shop.example.com/checkout",
		Value:       108.71,
		ValueSet:    true,
		Currency:    "USD",
		ContentID:   "prod-1",
		ContentType: "product",
		ContentName: "Trail Pack",
		HashedEmail: HashIdentifier("jane@example.com"),
		IP:          "10.0.0.1",
		UserAgent:   "test-agent",
		TTCLID:      "click-1",
	}
}

func TestShapePayloadFlat(t *testing.T) {
	payload := ShapePayload(shapedEvent(), PayloadFlat)

	if payload["event"] != "PlaceAnOrder" || payload["event_id"] != "evt-1" {
		t.Errorf("unexpected envelope: %v", payload)
	}
	if payload["value"] != 108.71 {
		t.Errorf("expected flat value, got %v", payload["value"])
	}
	if payload["email"] != HashIdentifier("jane@example.com") {
		t.Errorf("expected hashed email at top level, got %v", payload["email"])
	}
	if _, ok := payload["properties"]; ok {
		t.Error("flat mode must not nest properties")
	}
	if _, ok := payload["user"]; ok {
		t.Error("flat mode must not nest user")
	}
}

func TestShapePayloadNested(t *testing.T) {
	payload := ShapePayload(shapedEvent(), PayloadNested)

	properties, ok := payload["properties"].(map[string]interface{})
	if !ok {
		t.Fatal("expected properties sub-object")
	}
	if properties["value"] != 108.71 || properties["currency"] != "USD" {
		t.Errorf("unexpected properties: %v", properties)
	}

	user, ok := payload["user"].(map[string]interface{})
	if !ok {
		t.Fatal("expected user sub-object")
	}
	if user["email"] != HashIdentifier("jane@example.com") || user["ip"] != "10.0.0.1" {
		t.Errorf("unexpected user block: %v", user)
	}

	if _, ok := payload["value"]; ok {
		t.Error("nested mode must not leave commerce fields at top level")
	}
}

func TestShapePayloadOmitsEmptyFields(t *testing.T) {
	event := &Event{
		Name:      EventCompleteRegistration,
		EventID:   "evt-2",
		Timestamp: 1750000000,
	}

	for _, mode := range []PayloadMode{PayloadFlat, PayloadNested} {
		payload := ShapePayload(event, mode)
		for _, key := range []string{"value", "currency", "content_id", "email", "phone", "external_id", "ip", "user_agent", "ttclid", "ttp", "properties", "user"} {
			if _, ok := payload[key]; ok {
				t.Errorf("mode %s: expected %q omitted, payload %v", mode, key, payload)
			}
		}
	}
}

func TestShapePayloadNeverContainsRawIdentity(t *testing.T) {
	event := shapedEvent()
	for _, mode := range []PayloadMode{PayloadFlat, PayloadNested} {
		data, err := json.Marshal(ShapePayload(event, mode))
		if err != nil {
			t.Fatal(err)
		}
		if bytes.Contains(data, []byte("jane@example.com")) {
			t.Errorf("mode %s: raw email leaked into payload %s", mode, data)
		}
	}
}

func TestShapePayloadReproducible(t *testing.T) {
	event := shapedEvent()

	first, err := json.Marshal(ShapePayload(event, PayloadNested))
	if err != nil {
		t.Fatal(err)
	}
	second, err := json.Marshal(ShapePayload(event, PayloadNested))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("payload not byte-for-byte reproducible:\n%s\n%s", first, second)
	}
}
