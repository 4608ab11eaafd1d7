package handler

import (
	"strings"

	"sigcerh/internal/request/models"
	"sigcerh/internal/request/service"
	id "sigcerh/pkg/domain"
	dErrors "sigcerh/pkg/domain-errors"
)

const maxNoteLength = 500

// SubmitRequest is the body of POST /requests.
type SubmitRequest struct {
	FullName   string `json:"full_name"`
	NationalID string `json:"national_id"`
	Email      string `json:"email"`
	Priority   string `json:"priority"`
	StudentID  string `json:"student_id"`

	priority  models.Priority
	studentID *id.StudentID
}

func (r *SubmitRequest) Validate() error {
	r.FullName = strings.TrimSpace(r.FullName)
	r.NationalID = strings.TrimSpace(r.NationalID)
	r.Email = strings.TrimSpace(r.Email)
	if r.FullName == "" {
		return dErrors.New(dErrors.CodeValidation, "full_name is required")
	}
	p, err := models.ParsePriority(r.Priority)
	if err != nil {
		return err
	}
	r.priority = p
	if s := strings.TrimSpace(r.StudentID); s != "" {
		studentID, err := id.ParseStudentID(s)
		if err != nil {
			return err
		}
		r.studentID = &studentID
	}
	return nil
}

func (r *SubmitRequest) command(actor id.ActorID, role models.Role) service.SubmitCommand {
	return service.SubmitCommand{
		Applicant: models.Applicant{
			FullName:   r.FullName,
			NationalID: r.NationalID,
			Email:      r.Email,
		},
		Priority:  r.priority,
		StudentID: r.studentID,
		ActorID:   actor,
		ActorRole: role,
	}
}

// TransitionRequest is the body of POST /requests/{id}/transitions.
type TransitionRequest struct {
	Target   string            `json:"target"`
	Note     string            `json:"note"`
	Metadata map[string]string `json:"metadata"`

	target models.State
}

func (r *TransitionRequest) Validate() error {
	target, err := models.ParseState(r.Target)
	if err != nil {
		return err
	}
	r.target = target
	r.Note = strings.TrimSpace(r.Note)
	if len(r.Note) > maxNoteLength {
		return dErrors.Newf(dErrors.CodeValidation, "note exceeds %d characters", maxNoteLength)
	}
	for k, v := range r.Metadata {
		r.Metadata[k] = strings.TrimSpace(v)
	}
	return nil
}

// LinkRequest carries the identifier to attach to a request.
type LinkRequest struct {
	ID string `json:"id"`
}

func (r *LinkRequest) Validate() error {
	r.ID = strings.TrimSpace(r.ID)
	if r.ID == "" {
		return dErrors.New(dErrors.CodeValidation, "id is required")
	}
	return nil
}
