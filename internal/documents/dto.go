package documents

import (
	"time"

	"paperless-backend/internal/tags"
)

// DocumentResponse is the JSON shape returned by the API.
type DocumentResponse struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	FileName      string     `json:"fileName"`
	UploadDate    time.Time  `json:"uploadDate"`
	LastModified  *time.Time `json:"lastModified,omitempty"`
	FileType      string     `json:"fileType"`
	FileSize      int64      `json:"fileSize"`
	OCRText       string     `json:"ocrText,omitempty"`
	Summary       string     `json:"summary,omitempty"`
	OCRConfidence *float64   `json:"ocrConfidence,omitempty"`
	IsProcessed   bool       `json:"isProcessed"`
	IsIndexed     bool       `json:"isIndexed"`
	Tags          []tags.Tag `json:"tags"`
}

// SearchResponse wraps search hits with the term and timing of the query.
type SearchResponse struct {
	Documents      []DocumentResponse `json:"documents"`
	TotalCount     int                `json:"totalCount"`
	SearchTerm     string             `json:"searchTerm"`
	SearchDuration int64              `json:"searchDurationMs"`
}

func toResponse(doc Document) DocumentResponse {
	resp := DocumentResponse{
		ID:            doc.ID,
		Title:         doc.Title,
		FileName:      doc.FileName,
		UploadDate:    doc.UploadDate,
		LastModified:  doc.LastModified,
		FileType:      doc.FileType,
		FileSize:      doc.FileSize,
		OCRText:       doc.OCRText,
		Summary:       doc.Summary,
		OCRConfidence: doc.OCRConfidence,
		IsProcessed:   doc.IsProcessed,
		IsIndexed:     doc.IsIndexed,
		Tags:          doc.Tags,
	}
	if resp.Tags == nil {
		resp.Tags = []tags.Tag{}
	}
	return resp
}

func toResponses(docs []Document) []DocumentResponse {
	out := make([]DocumentResponse, 0, len(docs))
	for _, doc := range docs {
		out = append(out, toResponse(doc))
	}
	return out
}
