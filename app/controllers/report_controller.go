package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/ecocheck/ecocheck/app/models"
	"github.com/ecocheck/ecocheck/internal/pkg/blobstore"
	"github.com/ecocheck/ecocheck/internal/pkg/usercontext"
	"github.com/ecocheck/ecocheck/internal/pkg/workflow"
)

const (
	photoPrefixReport     = "reports"
	photoPrefixResolution = "resolutions"
)

// ReportController serves the report lifecycle endpoints.
type ReportController struct {
	engine *workflow.Engine
	store  blobstore.Store
	photos PhotoOptions
}

func NewReportController(engine *workflow.Engine, store blobstore.Store, photos PhotoOptions) *ReportController {
	return &ReportController{engine: engine, store: store, photos: photos}
}

// actorFrom converts the verified caller into a workflow actor.
func actorFrom(c *fiber.Ctx) workflow.Actor {
	uc := usercontext.GetUserContext(c)
	return workflow.Actor{ID: uc.UserID, Role: uc.Role, Location: uc.Location, Active: uc.IsActive}
}

// HandleCreate handles POST /reports (multipart with a "photo" file).
func (rc *ReportController) HandleCreate(c *fiber.Ctx) error {
	actor := actorFrom(c)
	if !actor.Active {
		return errorJSON(c, fiber.StatusForbidden, CodeForbidden, "account may not submit reports")
	}

	var req CreateReportRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid form data")
	}
	var err error
	if req.Latitude, err = parseCoordinate(c.FormValue("latitude")); err != nil {
		return badRequest(c, "latitude must be a number")
	}
	if req.Longitude, err = parseCoordinate(c.FormValue("longitude")); err != nil {
		return badRequest(c, "longitude must be a number")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}

	fh := photoInput(c, "photo")
	if fh == nil {
		return badRequest(c, "Photo is required")
	}

	photo, err := storePhoto(c.UserContext(), rc.store, rc.photos, fh, photoPrefixReport)
	if err != nil {
		return respondPhotoError(c, err)
	}

	in := workflow.CreateReportInput{
		Name:            req.Name,
		FirstName:       req.FirstName,
		MiddleName:      req.MiddleName,
		LastName:        req.LastName,
		Contact:         req.Contact,
		Description:     req.Description,
		DisplayLocation: req.Location,
		UserLocation:    req.UserLocation,
		Landmark:        req.Landmark,
		Latitude:        req.Latitude,
		Longitude:       req.Longitude,
		PhotoURL:        photo.URL,
	}
	// Devices that omit coordinates often still geotag the photo.
	if in.Latitude == nil && in.Longitude == nil && photo.Metadata.HasGPS() {
		in.Latitude, in.Longitude = photo.Metadata.Latitude, photo.Metadata.Longitude
	}

	report, err := rc.engine.CreateReport(c.UserContext(), actor, in)
	if err != nil {
		discardPhoto(c.UserContext(), rc.store, photo)
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(report)
}

// HandleList handles GET /reports?status=&limit=&offset=
func (rc *ReportController) HandleList(c *fiber.Ctx) error {
	opts := workflow.ListOptions{
		Limit:  c.QueryInt("limit", 0),
		Offset: c.QueryInt("offset", 0),
	}
	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseReportStatus(raw)
		if !ok {
			return badRequest(c, "Invalid status value")
		}
		opts.Status = status
	}
	if opts.Limit < 0 || opts.Offset < 0 {
		return badRequest(c, "limit and offset must not be negative")
	}

	reports, err := rc.engine.ListReports(c.UserContext(), actorFrom(c), opts)
	if err != nil {
		return respondError(c, err)
	}
	if reports == nil {
		reports = []models.Report{}
	}
	return c.JSON(reports)
}

// HandleGet handles GET /reports/:id
func (rc *ReportController) HandleGet(c *fiber.Ctx) error {
	report, err := rc.engine.GetReport(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// HandleSetStatus handles PUT /reports/:id/status. The body is JSON or
// multipart; multipart may carry a "resolutionPhoto" file.
func (rc *ReportController) HandleSetStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if err := validate.Struct(req); err != nil {
		return badRequest(c, validationMessage(err))
	}
	target, ok := models.ParseReportStatus(req.Status)
	if !ok {
		return badRequest(c, "Invalid status value")
	}

	var photo *storedPhoto
	if fh := photoInput(c, "resolutionPhoto"); fh != nil {
		var err error
		photo, err = storePhoto(c.UserContext(), rc.store, rc.photos, fh, photoPrefixResolution)
		if err != nil {
			return respondPhotoError(c, err)
		}
	}
	photoURL := ""
	if photo != nil {
		photoURL = photo.URL
	}

	report, err := rc.engine.SetStatus(c.UserContext(), actorFrom(c), c.Params("id"), target, photoURL)
	if err != nil {
		discardPhoto(c.UserContext(), rc.store, photo)
		return respondError(c, err)
	}
	return c.JSON(report)
}

// HandleConfirm handles PUT /reports/:id/confirm
func (rc *ReportController) HandleConfirm(c *fiber.Ctx) error {
	report, err := rc.engine.Confirm(c.UserContext(), actorFrom(c), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}

// HandleReject handles PUT /reports/:id/reject with {"reason": "..."}.
func (rc *ReportController) HandleReject(c *fiber.Ctx) error {
	var req RejectReportRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
	}
	// The engine decides between forbidden and a missing reason, in that order.
	report, err := rc.engine.Reject(c.UserContext(), actorFrom(c), c.Params("id"), req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(report)
}
