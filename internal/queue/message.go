package queue

import (
	"encoding/json"
	"fmt"
	"time"
)

// ProcessingTypeOCR labels results produced by the OCR worker.
const ProcessingTypeOCR = "ocr"

// JobMessage is the payload describing a unit of asynchronous OCR work.
type JobMessage struct {
	DocumentID    int64     `json:"documentId"`
	FileName      string    `json:"fileName"`
	StorageKey    string    `json:"storageKey"`
	FileType      string    `json:"fileType"`
	RequestedAt   time.Time `json:"requestedAt"`
	CorrelationID string    `json:"correlationId"`
}

// ResultMessage reports the outcome of a processing job back to the API.
type ResultMessage struct {
	DocumentID     int64     `json:"documentId"`
	ProcessingType string    `json:"processingType"`
	Success        bool      `json:"success"`
	Text           string    `json:"text,omitempty"`
	ErrorMessage   string    `json:"errorMessage,omitempty"`
	Confidence     float64   `json:"confidence"`
	ProcessedAt    time.Time `json:"processedAt"`
	CorrelationID  string    `json:"correlationId"`
}

// EncodeJob returns the JSON representation of a job message.
func EncodeJob(msg JobMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeJob parses a JSON payload into a JobMessage.
func DecodeJob(payload []byte) (JobMessage, error) {
	var msg JobMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return JobMessage{}, err
	}
	if msg.DocumentID <= 0 {
		return JobMessage{}, fmt.Errorf("job message missing document id")
	}
	return msg, nil
}

// EncodeResult returns the JSON representation of a result message.
func EncodeResult(msg ResultMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeResult parses a JSON payload into a ResultMessage.
func DecodeResult(payload []byte) (ResultMessage, error) {
	var msg ResultMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return ResultMessage{}, err
	}
	if msg.DocumentID <= 0 {
		return ResultMessage{}, fmt.Errorf("result message missing document id")
	}
	return msg, nil
}
