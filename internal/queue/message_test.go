package queue

import (
	"reflect"
	"testing"
	"time"
)

func TestJobMessageRoundTrip(t *testing.T) {
	msg := JobMessage{
		DocumentID:    42,
		FileName:      "scan.png",
		StorageKey:    "documents/2026/08/31/abc.png",
		FileType:      ".png",
		RequestedAt:   time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC),
		CorrelationID: "corr-1",
	}

	data, err := EncodeJob(msg)
	if err != nil {
		t.Fatalf("EncodeJob: %v", err)
	}
	decoded, err := DecodeJob(data)
	if err != nil {
		t.Fatalf("DecodeJob: %v", err)
	}
	if !reflect.DeepEqual(msg, decoded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, msg)
	}
}

func TestResultMessageRoundTrip(t *testing.T) {
	msg := ResultMessage{
		DocumentID:     42,
		ProcessingType: ProcessingTypeOCR,
		Success:        true,
		Text:           "hello",
		Confidence:     0.93,
		ProcessedAt:    time.Date(2026, 8, 31, 12, 5, 0, 0, time.UTC),
		CorrelationID:  "corr-1",
	}

	data, err := EncodeResult(msg)
	if err != nil {
		t.Fatalf("EncodeResult: %v", err)
	}
	decoded, err := DecodeResult(data)
	if err != nil {
		t.Fatalf("DecodeResult: %v", err)
	}
	if !reflect.DeepEqual(msg, decoded) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", decoded, msg)
	}
}

func TestDecodeJobRejectsInvalidPayloads(t *testing.T) {
	cases := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"not json", []byte("not-json")},
		{"missing document id", []byte(`{"fileName":"a.pdf"}`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := DecodeJob(tc.data); err == nil {
				t.Fatalf("expected error for %q", tc.data)
			}
		})
	}
}
