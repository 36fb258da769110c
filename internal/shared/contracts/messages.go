package contracts

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// PayloadFormat tags how an order id travels on the queue.
type PayloadFormat string

const (
	// PayloadText carries the order id as the raw message body, e.g. "1001".
	PayloadText PayloadFormat = "text"
	// PayloadJSON carries a webhook envelope, e.g. {"scope":"store/order/created","data":{"type":"order","id":1001}}.
	PayloadJSON PayloadFormat = "json"
)

var (
	ErrEmptyPayload   = errors.New("contracts: empty payload")
	ErrMissingOrderID = errors.New("contracts: payload has no data.id")
	ErrUnknownFormat  = errors.New("contracts: unknown payload format")
)

// OrderEnvelope is the JSON webhook shape published to the orders queue.
type OrderEnvelope struct {
	Scope string `json:"scope,omitempty"`
	Data  struct {
		Type string          `json:"type,omitempty"`
		ID   json.RawMessage `json:"id"`
	} `json:"data"`
}

// ExtractOrderID turns a raw message body into an order id according to format.
func ExtractOrderID(format PayloadFormat, body []byte) (string, error) {
	switch format {
	case PayloadText, "":
		id := strings.TrimSpace(string(body))
		if id == "" {
			return "", ErrEmptyPayload
		}
		return id, nil

	case PayloadJSON:
		if len(bytes.TrimSpace(body)) == 0 {
			return "", ErrEmptyPayload
		}

		var env OrderEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return "", fmt.Errorf("contracts: decode envelope: %w", err)
		}
		return idFromRaw(env.Data.ID)

	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// idFromRaw accepts both numeric and string ids.
func idFromRaw(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", ErrMissingOrderID
	}

	var s string
	if raw[0] == '"' {
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("contracts: decode data.id: %w", err)
		}
	} else {
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", fmt.Errorf("contracts: decode data.id: %w", err)
		}
		s = n.String()
	}

	s = strings.TrimSpace(s)
	if s == "" {
		return "", ErrMissingOrderID
	}
	return s, nil
}

// EncodeOrderID builds a message body for orderID in format, the inverse of ExtractOrderID.
// It also returns the content type to publish with.
func EncodeOrderID(format PayloadFormat, orderID string) ([]byte, string, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, "", ErrMissingOrderID
	}

	switch format {
	case PayloadText, "":
		return []byte(orderID), "text/plain", nil

	case PayloadJSON:
		id, err := json.Marshal(orderID)
		if err != nil {
			return nil, "", err
		}
		env := OrderEnvelope{Scope: "store/order/created"}
		env.Data.Type = "order"
		env.Data.ID = id

		body, err := json.Marshal(env)
		if err != nil {
			return nil, "", err
		}
		return body, "application/json", nil

	default:
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}
