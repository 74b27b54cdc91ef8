package amqp

import (
	"encoding/json"
	"time"
)

// ReceiptScanMessage asks the worker to run OCR for one uploaded receipt.
// It carries only the scan id, the worker fetches the image URL from the
// database.
type ReceiptScanMessage struct {
	ScanID    int64     `json:"scan_id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewReceiptScanMessage(scanID int64) *ReceiptScanMessage {
	return &ReceiptScanMessage{
		ScanID:    scanID,
		Timestamp: time.Now(),
	}
}

func (m *ReceiptScanMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ReceiptScanMessageFromJSON(data []byte) (*ReceiptScanMessage, error) {
	var msg ReceiptScanMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
