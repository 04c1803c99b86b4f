package checkout

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/lateeflat25-prog/9jabukabackend/internal/apperr"
	"github.com/lateeflat25-prog/9jabukabackend/internal/models"
)

// Metadata keys shared with the processor. Values are capped at
// maxMetadataValue characters and a session holds at most 50 keys.
const (
	metaItems            = "items"
	metaItemsParts       = "itemsParts"
	metaMobileNumber     = "mobileNumber"
	metaDeliveryLocation = "deliveryLocation"
	metaQuotedTotal      = "quotedTotal"

	maxMetadataValue = 500
	maxItemParts     = 40
)

// cartEntry is the compact wire form of a cart line.
type cartEntry struct {
	ItemID   string          `json:"itemId"`
	Quantity int             `json:"quantity"`
	Size     models.SizeName `json:"size,omitempty"`
}

// Intent is what a paid session tells us about the order to create.
type Intent struct {
	Lines   []models.CartLine
	Contact models.Contact
	// QuotedTotal is the total in minor units shown when the session was
	// opened. It is informational only.
	QuotedTotal int64
	HasQuote    bool
}

// EncodeMetadata serializes the cart and contact into processor metadata,
// splitting the cart JSON across keys when it exceeds one value.
func EncodeMetadata(lines []models.CartLine, contact models.Contact, quotedTotal int64) (map[string]string, error) {
	entries := make([]cartEntry, 0, len(lines))
	for _, line := range lines {
		entries = append(entries, cartEntry{ItemID: line.ItemID, Quantity: line.Quantity, Size: line.Size})
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, err, "encode cart")
	}

	if len(contact.MobileNumber) > maxMetadataValue || len(contact.DeliveryLocation) > maxMetadataValue {
		return nil, apperr.New(apperr.KindCartTooLarge, "contact details are too long")
	}

	meta := map[string]string{
		metaMobileNumber:     contact.MobileNumber,
		metaDeliveryLocation: contact.DeliveryLocation,
		metaQuotedTotal:      strconv.FormatInt(quotedTotal, 10),
	}

	cart := string(raw)
	if len(cart) <= maxMetadataValue {
		meta[metaItems] = cart
		return meta, nil
	}

	parts := (len(cart) + maxMetadataValue - 1) / maxMetadataValue
	if parts > maxItemParts {
		return nil, apperr.New(apperr.KindCartTooLarge, "cart has too many items for one checkout")
	}
	for i := 0; i < parts; i++ {
		end := min((i+1)*maxMetadataValue, len(cart))
		meta[fmt.Sprintf("%s_%d", metaItems, i)] = cart[i*maxMetadataValue : end]
	}
	meta[metaItemsParts] = strconv.Itoa(parts)
	return meta, nil
}

// DecodeMetadata reverses EncodeMetadata. Any structural problem is reported
// as MalformedMetadata.
func DecodeMetadata(meta map[string]string) (*Intent, error) {
	cart, err := joinCart(meta)
	if err != nil {
		return nil, err
	}

	var entries []cartEntry
	if err := json.Unmarshal([]byte(cart), &entries); err != nil {
		return nil, apperr.Wrap(apperr.KindMalformedMetadata, err, "cart metadata is not valid JSON")
	}
	if len(entries) == 0 {
		return nil, apperr.New(apperr.KindMalformedMetadata, "cart metadata is empty")
	}

	intent := &Intent{
		Lines: make([]models.CartLine, 0, len(entries)),
		Contact: models.Contact{
			MobileNumber:     strings.TrimSpace(meta[metaMobileNumber]),
			DeliveryLocation: strings.TrimSpace(meta[metaDeliveryLocation]),
		},
	}
	for i, entry := range entries {
		if entry.ItemID == "" {
			return nil, apperr.New(apperr.KindMalformedMetadata, "cart entry %d has no item id", i)
		}
		intent.Lines = append(intent.Lines, models.CartLine{
			ItemID:   entry.ItemID,
			Quantity: entry.Quantity,
			Size:     entry.Size,
		})
	}

	if intent.Contact.MobileNumber == "" || intent.Contact.DeliveryLocation == "" {
		return nil, apperr.New(apperr.KindMalformedMetadata, "contact metadata is missing")
	}

	if raw, ok := meta[metaQuotedTotal]; ok && raw != "" {
		total, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperr.Wrap(apperr.KindMalformedMetadata, err, "quoted total is not a number")
		}
		intent.QuotedTotal = total
		intent.HasQuote = true
	}
	return intent, nil
}

func joinCart(meta map[string]string) (string, error) {
	rawParts, split := meta[metaItemsParts]
	if !split {
		cart, ok := meta[metaItems]
		if !ok || cart == "" {
			return "", apperr.New(apperr.KindMalformedMetadata, "cart metadata is missing")
		}
		return cart, nil
	}

	parts, err := strconv.Atoi(rawParts)
	if err != nil || parts < 1 || parts > maxItemParts {
		return "", apperr.New(apperr.KindMalformedMetadata, "invalid cart part count %q", rawParts)
	}
	var b strings.Builder
	for i := 0; i < parts; i++ {
		chunk, ok := meta[fmt.Sprintf("%s_%d", metaItems, i)]
		if !ok {
			return "", apperr.New(apperr.KindMalformedMetadata, "cart part %d is missing", i)
		}
		b.WriteString(chunk)
	}
	return b.String(), nil
}
