package dto

import (
	"time"

	"linkregistry/internal/domain/models"
	"linkregistry/internal/services/records"
)

// Request
type (
	RecordInput struct {
		ContactNumber string `json:"contact_number"`
		SourceName    string `json:"source_name"`
	}

	UploadRecordsRequest struct {
		Records []RecordInput `json:"records"`
	}

	FetchByContactsRequest struct {
		ContactNumbers BatchInput `json:"contact_numbers"`
	}
)

// Response
type (
	UploadRecordsResponse struct {
		Message  string `json:"message"`
		Inserted int    `json:"inserted"`
		Skipped  int    `json:"skipped"`
		ImportID string `json:"import_id"`
	}

	RecordResponse struct {
		RecordID      int64     `json:"record_id"`
		ContactNumber string    `json:"contact_number"`
		SourceName    string    `json:"source_name"`
		CreatedAt     time.Time `json:"created_at"`
	}

	RecordFetchResponse struct {
		Count   int              `json:"count"`
		Results []RecordResponse `json:"results"`
	}
)

func (r UploadRecordsRequest) ToDomain() []records.RecordInput {
	out := make([]records.RecordInput, len(r.Records))
	for i, rec := range r.Records {
		out[i] = records.RecordInput{ContactNumber: rec.ContactNumber, SourceName: rec.SourceName}
	}
	return out
}

func RecordFetchResponseFromDomain(found []models.Record) RecordFetchResponse {
	resp := RecordFetchResponse{Count: len(found), Results: make([]RecordResponse, len(found))}
	for i, r := range found {
		resp.Results[i] = RecordResponse{
			RecordID:      r.ID,
			ContactNumber: r.ContactNumber,
			SourceName:    r.SourceName,
			CreatedAt:     r.CreatedAt,
		}
	}
	return resp
}
