package conversion

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/grovegear/storefront/internal/errs"
)

const testBaseURL = "https://shop.example.com"

func commerceRequest() Request {
	return Request{
		Value:       "48.00",
		Currency:    "USD",
		ContentID:   "prod-1",
		ContentType: "product",
		ContentName: "Trail Pack",
	}
}

func TestParseEventName(t *testing.T) {
	cases := map[string]EventName{
		"complete_registration": EventCompleteRegistration,
		"place_order":           EventPlaceAnOrder,
		"add_to_cart":           EventAddToCart,
	}
	for slug, want := range cases {
		got, ok := ParseEventName(slug)
		if !ok || got != want {
			t.Errorf("ParseEventName(%q) = %q, %v; want %q", slug, got, ok, want)
		}
	}

	if _, ok := ParseEventName("purchase"); ok {
		t.Error("expected unknown slug to be rejected")
	}
}

func TestBuildEventRequiredFieldsPerEvent(t *testing.T) {
	for _, name := range []EventName{EventPlaceAnOrder, EventAddToCart} {
		for _, field := range []string{"value", "currency", "content_id", "content_type", "content_name"} {
			req := commerceRequest()
			switch field {
			case "value":
				req.Value = ""
			case "currency":
				req.Currency = ""
			case "content_id":
				req.ContentID = ""
			case "content_type":
				req.ContentType = ""
			case "content_name":
				req.ContentName = ""
			}

			_, err := BuildEvent(name, req, RequestContext{}, testBaseURL)
			var ve *errs.ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("%s without %s: expected ValidationError, got %v", name, field, err)
				continue
			}
			if !strings.Contains(err.Error(), field) {
				t.Errorf("%s without %s: error %q does not name the field", name, field, err.Error())
			}
		}
	}
}

func TestBuildEventRegistrationNeedsNoCommerceFields(t *testing.T) {
	event, err := BuildEvent(EventCompleteRegistration, Request{}, RequestContext{}, testBaseURL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.ValueSet {
		t.Error("expected no value on a bare registration")
	}
	if event.EventID == "" {
		t.Error("expected a generated event id")
	}
}

func TestBuildEventValueParsing(t *testing.T) {
	req := commerceRequest()
	req.Value = "-1"
	if _, err := BuildEvent(EventAddToCart, req, RequestContext{}, testBaseURL); err == nil {
		t.Error("expected negative value to be rejected")
	}

	req.Value = "abc"
	if _, err := BuildEvent(EventAddToCart, req, RequestContext{}, testBaseURL); err == nil {
		t.Error("expected non-numeric value to be rejected")
	}

	req.Value = "0"
	event, err := BuildEvent(EventAddToCart, req, RequestContext{}, testBaseURL)
	if err != nil {
		t.Fatalf("expected zero value to be accepted, got %v", err)
	}
	if !event.ValueSet || event.Value != 0 {
		t.Errorf("expected value 0 set, got %v set=%v", event.Value, event.ValueSet)
	}
}

func TestNumberAcceptsJSONNumbersAndStrings(t *testing.T) {
	var req Request
	if err := json.Unmarshal([]byte(`{"value": 48.5}`), &req); err != nil {
		t.Fatal(err)
	}
	if string(req.Value) != "48.5" {
		t.Errorf("expected 48.5, got %q", req.Value)
	}

	if err := json.Unmarshal([]byte(`{"value": "12"}`), &req); err != nil {
		t.Fatal(err)
	}
	if string(req.Value) != "12" {
		t.Errorf("expected 12, got %q", req.Value)
	}
}

func TestBuildEventHonorsCallerEventID(t *testing.T) {
	req := commerceRequest()
	req.EventID = "evt-caller-1"

	event, err := BuildEvent(EventPlaceAnOrder, req, RequestContext{}, testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if event.EventID != "evt-caller-1" {
		t.Errorf("expected caller event id honored, got %q", event.EventID)
	}
}

func TestBuildEventBodyTakesPrecedenceOverContext(t *testing.T) {
	req := commerceRequest()
	req.TTCLID = "click-body"
	req.TTP = "cookie-body"

	rc := RequestContext{TTCLID: "click-query", TTP: "cookie-store", IP: "10.0.0.1", UserAgent: "test-agent"}

	event, err := BuildEvent(EventPlaceAnOrder, req, rc, testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if event.TTCLID != "click-body" || event.TTP != "cookie-body" {
		t.Errorf("expected body values to win, got ttclid=%q ttp=%q", event.TTCLID, event.TTP)
	}
	if event.IP != "10.0.0.1" || event.UserAgent != "test-agent" {
		t.Errorf("expected context ip/agent carried, got %q/%q", event.IP, event.UserAgent)
	}
}

func TestBuildEventContextFillsMissingIdentifiers(t *testing.T) {
	rc := RequestContext{TTCLID: "click-query", TTP: "cookie-store"}

	event, err := BuildEvent(EventCompleteRegistration, Request{}, rc, testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if event.TTCLID != "click-query" || event.TTP != "cookie-store" {
		t.Errorf("expected context fallbacks, got ttclid=%q ttp=%q", event.TTCLID, event.TTP)
	}
}

func TestBuildEventDefaultsURL(t *testing.T) {
	event, err := BuildEvent(EventCompleteRegistration, Request{}, RequestContext{}, testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if event.URL != testBaseURL {
		t.Errorf("expected default base URL, got %q", event.URL)
	}

	event, err = BuildEvent(EventCompleteRegistration, Request{URL: "https://shop.example.com/p/1"}, RequestContext{}, testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if event.URL != "https://shop.example.com/p/1" {
		t.Errorf("expected caller URL honored, got %q", event.URL)
	}
}

func TestBuildEventHashesIdentityFields(t *testing.T) {
	req := commerceRequest()
	req.Email = " Jane@Example.com "
	req.Phone = "5551234567"

	event, err := BuildEvent(EventPlaceAnOrder, req, RequestContext{}, testBaseURL)
	if err != nil {
		t.Fatal(err)
	}
	if event.HashedEmail != HashIdentifier("jane@example.com") {
		t.Errorf("expected normalized email hash, got %q", event.HashedEmail)
	}
	if event.HashedPhone == "" || event.HashedPhone == req.Phone {
		t.Errorf("expected phone hashed, got %q", event.HashedPhone)
	}
	if event.HashedExternalID != "" {
		t.Errorf("expected no hash for absent external id, got %q", event.HashedExternalID)
	}
}
