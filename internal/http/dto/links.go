package dto

import (
	"linkregistry/internal/services/links"
)

// Request
type (
	LinkRequest struct {
		Link string `json:"link"`
	}

	LinksBulkRequest struct {
		Links BatchInput `json:"links"`
	}

	IDsBulkRequest struct {
		PRBIDs BatchInput `json:"prb_ids"`
	}
)

// Response
type (
	LinkAddResponse struct {
		Message     string `json:"message"`
		GeneratedID string `json:"generatedId"`
	}

	LinkUpdateResponse struct {
		Message string `json:"message"`
		LinkID  string `json:"link_id"`
		NewLink string `json:"new_link"`
	}

	LinkDeleteResponse struct {
		Message string `json:"message"`
		LinkID  string `json:"link_id"`
	}

	LinkResolution struct {
		Link        string `json:"link"`
		GeneratedID string `json:"generatedId,omitempty"`
		Status      string `json:"status"`
		Error       string `json:"error,omitempty"`
	}

	LinksBulkResponse struct {
		Count   int              `json:"count"`
		Results []LinkResolution `json:"results"`
	}

	IDResolution struct {
		GeneratedID string  `json:"generatedId"`
		Link        *string `json:"link"`
		Error       string  `json:"error,omitempty"`
	}

	IDsBulkResponse struct {
		Count   int            `json:"count"`
		Results []IDResolution `json:"results"`
	}
)

func LinksBulkResponseFromDomain(results []links.BatchResult) LinksBulkResponse {
	resp := LinksBulkResponse{Count: len(results), Results: make([]LinkResolution, len(results))}
	for i, r := range results {
		item := LinkResolution{
			Link:        r.URL,
			GeneratedID: r.Code,
			Status:      string(r.Status),
		}
		if r.Err != nil {
			item.Error = publicMessage(r.Err)
		}
		resp.Results[i] = item
	}
	return resp
}

func IDsBulkResponseFromDomain(results []links.CodeResult) IDsBulkResponse {
	resp := IDsBulkResponse{Count: len(results), Results: make([]IDResolution, len(results))}
	for i, r := range results {
		item := IDResolution{GeneratedID: r.Code}
		if r.Err != nil {
			item.Error = publicMessage(r.Err)
		} else {
			url := r.URL
			item.Link = &url
		}
		resp.Results[i] = item
	}
	return resp
}
