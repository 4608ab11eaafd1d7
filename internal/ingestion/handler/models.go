package handler

import (
	"sigcerh/internal/ingestion/models"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

type BatchRequest struct {
	RecordIDs []string `json:"record_ids"`

	ids []id.RecordID
}

func (r *BatchRequest) Validate() error {
	if len(r.RecordIDs) == 0 {
		return dErrors.New(dErrors.CodeValidation, "record_ids is required")
	}
	seen := make(map[id.RecordID]bool, len(r.RecordIDs))
	for _, raw := range r.RecordIDs {
		recordID, err := id.ParseRecordID(raw)
		if err != nil {
			return err
		}
		if seen[recordID] {
			return dErrors.Newf(dErrors.CodeValidation, "record %s is listed twice", recordID)
		}
		seen[recordID] = true
		r.ids = append(r.ids, recordID)
	}
	return nil
}

type ResultResponse struct {
	RecordID     id.RecordID       `json:"record_id"`
	Created      int               `json:"created"`
	Existing     int               `json:"existing"`
	Linked       int               `json:"linked"`
	Skipped      int               `json:"skipped"`
	NotesWritten int               `json:"notes_written"`
	Purged       int               `json:"purged"`
	Warnings     int               `json:"warnings"`
	RowErrors    []models.RowError `json:"row_errors"`
	DurationMS   int64             `json:"duration_ms"`
	Truncated    bool              `json:"truncated"`
}

func toResultResponse(res *models.Result) ResultResponse {
	rowErrors := res.RowErrors
	if rowErrors == nil {
		rowErrors = []models.RowError{}
	}
	return ResultResponse{
		RecordID:     res.RecordID,
		Created:      res.Created,
		Existing:     res.Existing,
		Linked:       res.Linked,
		Skipped:      res.Skipped,
		NotesWritten: res.NotesWritten,
		Purged:       res.Purged,
		Warnings:     res.Warnings,
		RowErrors:    rowErrors,
		DurationMS:   res.Duration.Milliseconds(),
		Truncated:    res.Truncated,
	}
}

type BatchItemResponse struct {
	RecordID id.RecordID     `json:"record_id"`
	Result   *ResultResponse `json:"result,omitempty"`
	Error    string          `json:"error,omitempty"`
	Message  string          `json:"error_description,omitempty"`
}

type BatchResponse struct {
	Items     []BatchItemResponse `json:"items"`
	Succeeded int                 `json:"succeeded"`
	Failed    int                 `json:"failed"`
}

func toBatchResponse(items []models.BatchItem) BatchResponse {
	resp := BatchResponse{Items: make([]BatchItemResponse, len(items))}
	for i, it := range items {
		out := BatchItemResponse{RecordID: it.RecordID}
		if it.Result != nil {
			res := toResultResponse(it.Result)
			out.Result = &res
			resp.Succeeded++
		} else {
			out.Error = string(it.Code)
			if it.Code != dErrors.CodeInternal {
				out.Message = it.Error
			}
			resp.Failed++
		}
		resp.Items[i] = out
	}
	return resp
}
