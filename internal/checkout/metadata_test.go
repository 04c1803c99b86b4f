package checkout

import (
	"fmt"
	"strings"
	"testing"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

var testContact = models.Contact{MobileNumber: "08031234567", DeliveryLocation: "12 Allen Avenue, Ikeja"}

func TestEncodeMetadataSmallCartUsesSingleKey(t *testing.T) {
	lines := []models.CartLine{
		{ItemID: "margherita", Quantity: 2},
		{ItemID: "jollof", Quantity: 1, Size: models.SizeHalfPan},
	}
	meta, err := EncodeMetadata(lines, testContact, 2599)
	if err != nil {
		t.Fatalf("EncodeMetadata returned error: %v", err)
	}

	want := `[{"itemId":"margherita","quantity":2},{"itemId":"jollof","quantity":1,"size":"Half Pan"}]`
	if meta["items"] != want {
		t.Fatalf("expected items %s, got %s", want, meta["items"])
	}
	if _, ok := meta["itemsParts"]; ok {
		t.Fatal("expected no itemsParts for a cart that fits one value")
	}
	if meta["quotedTotal"] != "2599" || meta["mobileNumber"] != testContact.MobileNumber {
		t.Fatalf("unexpected metadata: %v", meta)
	}
}

func TestMetadataRoundTripSplitsLargeCarts(t *testing.T) {
	lines := make([]models.CartLine, 0, 30)
	for i := 0; i < 30; i++ {
		lines = append(lines, models.CartLine{ItemID: fmt.Sprintf("65f1c0ffee%014d", i), Quantity: i + 1})
	}

	meta, err := EncodeMetadata(lines, testContact, 10000)
	if err != nil {
		t.Fatalf("EncodeMetadata returned error: %v", err)
	}
	if meta["itemsParts"] == "" {
		t.Fatal("expected the cart to be split across keys")
	}
	for key, value := range meta {
		if len(value) > maxMetadataValue {
			t.Fatalf("metadata value %s has %d characters", key, len(value))
		}
	}

	intent, err := DecodeMetadata(meta)
	if err != nil {
		t.Fatalf("DecodeMetadata returned error: %v", err)
	}
	if len(intent.Lines) != len(lines) {
		t.Fatalf("expected %d lines, got %d", len(lines), len(intent.Lines))
	}
	for i := range lines {
		if intent.Lines[i] != lines[i] {
			t.Fatalf("line %d: expected %+v, got %+v", i, lines[i], intent.Lines[i])
		}
	}
	if !intent.HasQuote || intent.QuotedTotal != 10000 {
		t.Fatalf("expected quoted total 10000, got %d (present=%v)", intent.QuotedTotal, intent.HasQuote)
	}
}

func TestEncodeMetadataRejectsOversizedCart(t *testing.T) {
	lines := make([]models.CartLine, 0, 1000)
	for i := 0; i < 1000; i++ {
		lines = append(lines, models.CartLine{ItemID: fmt.Sprintf("65f1c0ffee%014d", i), Quantity: 1})
	}
	_, err := EncodeMetadata(lines, testContact, 0)
	if !apperr.Is(err, apperr.KindCartTooLarge) {
		t.Fatalf("expected CartTooLarge, got %v", err)
	}
}

func TestDecodeMetadataMalformed(t *testing.T) {
	cases := map[string]map[string]string{
		"missing cart":     {"mobileNumber": "1", "deliveryLocation": "x"},
		"invalid json":     {"items": "[{", "mobileNumber": "1", "deliveryLocation": "x"},
		"empty cart":       {"items": "[]", "mobileNumber": "1", "deliveryLocation": "x"},
		"missing item id":  {"items": `[{"quantity":1}]`, "mobileNumber": "1", "deliveryLocation": "x"},
		"missing contact":  {"items": `[{"itemId":"a","quantity":1}]`},
		"bad part count":   {"itemsParts": "zero", "mobileNumber": "1", "deliveryLocation": "x"},
		"missing part":     {"itemsParts": "2", "items_0": `[{"itemId":"a",`, "mobileNumber": "1", "deliveryLocation": "x"},
		"bad quoted total": {"items": `[{"itemId":"a","quantity":1}]`, "mobileNumber": "1", "deliveryLocation": "x", "quotedTotal": "12.5"},
	}
	for name, meta := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeMetadata(meta)
			if !apperr.Is(err, apperr.KindMalformedMetadata) {
				t.Fatalf("expected MalformedMetadata, got %v", err)
			}
		})
	}
}

func TestDecodeMetadataKeepsQuantityForPricing(t *testing.T) {
	// Quantity validation belongs to pricing, so a zero survives decoding.
	intent, err := DecodeMetadata(map[string]string{
		"items":            `[{"itemId":"a","quantity":0}]`,
		"mobileNumber":     " 0803 ",
		"deliveryLocation": "Lekki",
	})
	if err != nil {
		t.Fatalf("DecodeMetadata returned error: %v", err)
	}
	if intent.Lines[0].Quantity != 0 || intent.Contact.MobileNumber != "0803" {
		t.Fatalf("unexpected intent: %+v", intent)
	}
	if intent.HasQuote {
		t.Fatal("expected no quoted total")
	}
	if !strings.EqualFold(intent.Contact.DeliveryLocation, "lekki") {
		t.Fatalf("unexpected delivery location %q", intent.Contact.DeliveryLocation)
	}
}
