package controllers

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// CreateReportRequest holds the text fields of a multipart report submission.
type CreateReportRequest struct {
	Name         string   `form:"name" validate:"max=200"`
	FirstName    string   `form:"firstName" validate:"max=100"`
	MiddleName   string   `form:"middleName" validate:"max=100"`
	LastName     string   `form:"lastName" validate:"max=100"`
	Contact      string   `form:"contact" validate:"max=50"`
	Description  string   `form:"description" validate:"max=2000"`
	Location     string   `form:"location" validate:"required,max=300"`
	UserLocation string   `form:"userLocation" validate:"max=100"`
	Landmark     string   `form:"landmark" validate:"max=300"`
	Latitude     *float64 `form:"-" validate:"omitempty,latitude"`
	Longitude    *float64 `form:"-" validate:"omitempty,longitude"`
}

// UpdateStatusRequest is accepted as JSON or as multipart fields.
type UpdateStatusRequest struct {
	Status string `json:"status" form:"status" validate:"required"`
}

// RejectReportRequest is checked by the workflow, which reports a missing
// reason only after authorization.
type RejectReportRequest struct {
	Reason string `json:"reason" form:"reason"`
}

// parseCoordinate returns nil for empty input.
func parseCoordinate(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// validationMessage turns validator errors into one readable line.
func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return err.Error()
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "max":
		return fe.Field() + " is too long"
	case "latitude", "longitude":
		return fe.Field() + " is out of range"
	}
	return fe.Field() + " is invalid"
}
