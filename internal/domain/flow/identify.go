package flow

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yanqian/appliance-assistant/internal/domain/appliance"
	apperrors "github.com/yanqian/appliance-assistant/pkg/errors"
)

var imageExtensions = map[string]string{
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
}

func (e *Engine) selectCategory(s *Session, a Action) error {
	if !isCategory(a.Category) {
		return invalid(msgSelectCategory)
	}
	if err := move(s, EventCategorySelected); err != nil {
		return err
	}
	s.Category = a.Category
	if a.Brand != "" {
		s.Brand = a.Brand
	}
	if a.Subcategory != "" {
		s.Subcategory = a.Subcategory
	}
	return nil
}

func (e *Engine) backToCategory(s *Session) error {
	if err := move(s, EventCategoryReselected); err != nil {
		return err
	}
	s.Category = ""
	s.NameplateGuidance = ""
	return nil
}

// nameplateGuidance explains where the label sits on the chosen product line.
func (e *Engine) nameplateGuidance(ctx context.Context, s *Session, a Action) error {
	if err := expectFlow(s, a.Type, StateCategorySelection, StateIdentification); err != nil {
		return err
	}
	if !isSubcategory(a.Brand, a.Subcategory) {
		return invalid(msgSelectBrand)
	}
	category := a.Category
	if !isCategory(category) {
		category = s.Category
	}
	if category == "" {
		category = appliance.RefrigeratorType
	}
	s.Brand = a.Brand
	s.Subcategory = a.Subcategory
	s.NameplateGuidance = e.orchestrator.NameplateGuidance(ctx, category, a.Subcategory, a.Brand)
	return nil
}

// submitAppliance handles the manual entry form, or the correction form
// while a nameplate reading awaits confirmation.
func (e *Engine) submitAppliance(ctx context.Context, s *Session, a Action) error {
	if s.ShowPhotoConfirm {
		return e.correctAppliance(ctx, s, a)
	}
	var in ApplianceInput
	if a.Appliance != nil {
		in = *a.Appliance
	}
	brand := strings.TrimSpace(in.Brand)
	if brand == "" {
		brand = s.Brand
	}
	model := strings.TrimSpace(in.Model)
	if brand == "" || model == "" {
		return invalid(msgManualRequired)
	}
	if err := move(s, EventApplianceConfirmed); err != nil {
		return err
	}

	app := appliance.Appliance{
		Brand:         brand,
		Model:         model,
		Serial:        strings.TrimSpace(in.Serial),
		ApplianceType: strings.TrimSpace(in.ApplianceType),
	}
	if !app.HasType() {
		app.ApplianceType = e.orchestrator.DetectApplianceType(ctx, app)
	}
	s.Appliance = &app
	e.hear(s, manualEntryMessage(app))
	e.showIssues(ctx, s)
	return nil
}

func (e *Engine) correctAppliance(ctx context.Context, s *Session, a Action) error {
	if a.Appliance == nil || strings.TrimSpace(a.Appliance.Model) == "" {
		return invalid(msgModelRequired)
	}
	if err := move(s, EventApplianceConfirmed); err != nil {
		return err
	}

	app := s.CurrentAppliance()
	previous := app.Model
	app.Model = strings.TrimSpace(a.Appliance.Model)
	app.Serial = strings.TrimSpace(a.Appliance.Serial)
	if !app.HasType() || app.Model != previous {
		app.ApplianceType = e.orchestrator.DetectApplianceType(ctx, app)
	}
	s.Appliance = &app
	s.ShowPhotoConfirm = false
	e.hear(s, correctionMessage(app))
	e.say(s, correctedSummaryMessage(app))
	e.showIssues(ctx, s)
	return nil
}

// confirmAppliance accepts a nameplate reading as is.
func (e *Engine) confirmAppliance(ctx context.Context, s *Session) error {
	if !s.ShowPhotoConfirm || s.Appliance == nil || !s.Appliance.IsComplete() {
		return invalid(msgNoPhotoToConfirm)
	}
	if err := move(s, EventApplianceConfirmed); err != nil {
		return err
	}
	app := s.CurrentAppliance()
	if !app.HasType() {
		app.ApplianceType = e.orchestrator.DetectApplianceType(ctx, app)
		s.Appliance = &app
	}
	s.ShowPhotoConfirm = false
	e.showIssues(ctx, s)
	return nil
}

// identificationInput handles free text while the appliance is being
// identified: a confirmation of a complete appliance moves on, anything else
// is mined for appliance details.
func (e *Engine) identificationInput(ctx context.Context, s *Session, text string) error {
	e.hear(s, text)
	app := s.CurrentAppliance()

	if app.IsComplete() && containsAny(text, confirmKeywords) {
		if err := move(s, EventApplianceConfirmed); err != nil {
			return err
		}
		if !app.HasType() {
			app.ApplianceType = e.orchestrator.DetectApplianceType(ctx, app)
		}
		s.Appliance = &app
		s.ShowPhotoConfirm = false
		e.showIssues(ctx, s)
		return nil
	}

	if info := e.orchestrator.ExtractAppliance(ctx, text); !info.IsEmpty() {
		app = app.Merge(info)
		if app.IsComplete() && !app.HasType() {
			app.ApplianceType = e.orchestrator.DetectApplianceType(ctx, app)
		}
		s.Appliance = &app
	}

	if app.IsComplete() {
		e.say(s, applianceCheckMessage(app))
	} else {
		e.say(s, needMoreInfoReply)
	}
	return nil
}

// UploadNameplate reads appliance details from a nameplate photo. Re-uploading
// an already processed image is a no-op. A failed read leaves the session
// untouched apart from an inline notice.
func (e *Engine) UploadNameplate(ctx context.Context, s *Session, filename, contentType string, data []byte) error {
	if err := expectFlow(s, "upload_nameplate", StateCategorySelection, StateIdentification); err != nil {
		e.logger.Warn("unhandled flow event", "session_id", s.ID, "flow", s.Flow, "event", "upload_nameplate")
		return err
	}
	if len(data) == 0 {
		return invalid("Please upload a photo of your appliance nameplate.")
	}
	if int64(len(data)) > e.cfg.MaxImageBytes {
		return invalid(fmt.Sprintf("Image exceeds the %d MB upload limit.", e.cfg.MaxImageBytes>>20))
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	mimeType, ok := imageExtensions[ext]
	if !ok {
		return invalid("Please upload a JPG or PNG image.")
	}
	if strings.HasPrefix(contentType, "image/") {
		mimeType = contentType
	}

	sum := md5.Sum(data)
	hash := hex.EncodeToString(sum[:])
	s.Notice = ""
	if s.ProcessedImages[hash] {
		return nil
	}

	if e.images != nil {
		if err := e.images.Put(ctx, hash, Image{ContentType: mimeType, Data: data}); err != nil {
			return apperrors.Wrap(apperrors.CodeStorage, "failed to archive nameplate image", err)
		}
	}

	reading, err := e.orchestrator.ReadNameplate(ctx, hash, mimeType, data)
	if err != nil {
		e.logger.Warn("nameplate read failed", "session_id", s.ID, "hash", hash, "error", err)
		s.Notice = "Error processing image: " + apperrors.MessageOf(err)
		s.UpdatedAt = e.now()
		return nil
	}
	s.markProcessed(hash)

	app := s.CurrentAppliance().Merge(reading.Info)
	if app.IsComplete() {
		app.ApplianceType = e.orchestrator.DetectApplianceType(ctx, app)
	}
	s.Appliance = &app
	now := e.now()
	s.AddImageMessage(RoleUser, uploadedNameplateText, hash, now)
	s.AddImageMessage(RoleAssistant, nameplateFoundMessage(app), hash, now)
	s.ShowPhotoConfirm = true
	s.UpdatedAt = now
	e.logger.Info("nameplate processed", "session_id", s.ID, "hash", hash, "complete", app.IsComplete())
	return nil
}

// Image returns an archived upload that belongs to s.
func (e *Engine) Image(ctx context.Context, s *Session, hash string) (Image, error) {
	if e.images == nil || !s.ProcessedImages[hash] {
		return Image{}, apperrors.Wrap(apperrors.CodeNotFound, "image not found", nil)
	}
	return e.images.Get(ctx, hash)
}
