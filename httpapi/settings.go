package httpapi

import (
	"errors"
	"net/http"

	"github.com/huiapp/huiauth/internal/logging"
	"github.com/huiapp/huiauth/internal/respond"
	"github.com/huiapp/huiauth/settings"
	"github.com/huiapp/huiauth/store"
	"github.com/huiapp/huiauth/validation"
)

type updateSettingRequest struct {
	Value any `json:"value"`
}

type createSettingRequest struct {
	ID          string `json:"id"`
	Category    string `json:"category" validate:"required"`
	Key         string `json:"key" validate:"required"`
	Value       any    `json:"value"`
	Description string `json:"description"`
}

func missingValue() validation.Body {
	return validation.Result[struct{}]{
		Errors: validation.FieldErrors{{Field: "value", Message: "value is required"}},
	}.FailureBody()
}

func (h *handlers) settingsByCategory(w http.ResponseWriter, r *http.Request) {
	values, err := h.engine.Settings().GetSettingsByCategory(r.Context(), r.PathValue("category"))
	if err != nil {
		logging.LogError(r.Context(), h.logger, "settings lookup failed", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch settings")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"settings": values})
}

func (h *handlers) settingByKey(w http.ResponseWriter, r *http.Request) {
	row, err := h.engine.Settings().GetSettingByKey(r.Context(), r.PathValue("category"), r.PathValue("key"))
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Setting not found")
		return
	case err != nil:
		logging.LogError(r.Context(), h.logger, "setting lookup failed", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to fetch setting")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]any{"value": row.Value})
}

func (h *handlers) updateSetting(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[updateSettingRequest](w, r)
	if !ok {
		return
	}
	if req.Value == nil {
		respond.JSON(w, http.StatusBadRequest, missingValue())
		return
	}

	id := settings.SettingID(r.PathValue("category"), r.PathValue("key"))
	_, err := h.engine.Settings().UpdateSetting(r.Context(), id, req.Value)
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "Setting not found")
		return
	case err != nil:
		logging.LogError(r.Context(), h.logger, "setting update failed", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to update setting")
		return
	}
	respond.Message(w, http.StatusOK, "Setting updated successfully")
}

// createSetting derives the id from category and key when the body omits
// it.
func (h *handlers) createSetting(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[createSettingRequest](w, r)
	if !ok {
		return
	}
	if req.Value == nil {
		respond.JSON(w, http.StatusBadRequest, missingValue())
		return
	}
	if req.ID == "" {
		req.ID = settings.SettingID(req.Category, req.Key)
	}

	row, err := h.engine.Settings().CreateSetting(r.Context(), store.Setting{
		ID:          req.ID,
		Category:    req.Category,
		Key:         req.Key,
		Value:       req.Value,
		Description: req.Description,
	})
	switch {
	case errors.Is(err, store.ErrDuplicateKey):
		respond.Error(w, http.StatusBadRequest, "Setting already exists")
		return
	case errors.Is(err, settings.ErrInvalidSetting):
		respond.Error(w, http.StatusBadRequest, "Invalid setting")
		return
	case err != nil:
		logging.LogError(r.Context(), h.logger, "setting create failed", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to create setting")
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]any{"setting": row})
}
