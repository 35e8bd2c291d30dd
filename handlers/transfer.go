package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/padraicbc/racelog/models"
	"github.com/padraicbc/racelog/repository"
)

// MaxImportItems caps a single import.
const MaxImportItems = 1000

// ImportError lists the problems with one rejected item.
type ImportError struct {
	Index  int                 `json:"index"`
	Errors []models.FieldError `json:"errors"`
}

// ImportResult reports the outcome of an import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// DecodeImport accepts either a JSON array of races or {"items": [...]}.
func DecodeImport(body []byte) ([]json.RawMessage, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil, models.NewValidationError("items", "a list of races is required")
	}

	var items []json.RawMessage
	if body[0] == '[' {
		if err := json.Unmarshal(body, &items); err != nil {
			return nil, models.NewValidationError("items", "items must be a list of races")
		}
	} else {
		var wrapped struct {
			Items []json.RawMessage `json:"items"`
		}
		if err := decodeStrict(body, &wrapped); err != nil {
			return nil, err
		}
		items = wrapped.Items
	}

	switch {
	case len(items) == 0:
		return nil, models.NewValidationError("items", "at least one race is required")
	case len(items) > MaxImportItems:
		return nil, models.NewValidationError("items", fmt.Sprintf("at most %d races can be imported at once", MaxImportItems))
	}
	return items, nil
}

// ImportRaces validates items like POST /races, skips any whose name matches
// an existing race of owner (case-insensitive) and stores the rest in one batch.
func ImportRaces(ctx context.Context, races repository.RaceRepository, owner uuid.UUID, items []json.RawMessage) (*ImportResult, error) {
	existing, err := races.Find(ctx, owner, repository.RaceFilter{}, repository.Sort{Field: "date", Desc: true})
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing)+len(items))
	for _, r := range existing {
		seen[nameKey(r.Name)] = struct{}{}
	}

	res := &ImportResult{Errors: []ImportError{}}
	batch := make([]*models.Race, 0, len(items))
	for i, raw := range items {
		var req RaceInput
		err := decodeStrict(raw, &req)
		if err == nil {
			req.normalize()
			err = validateStruct(&req)
		}
		if err != nil {
			res.Errors = append(res.Errors, ImportError{Index: i, Errors: fieldErrors(err)})
			continue
		}

		key := nameKey(req.Name)
		if _, dup := seen[key]; dup {
			res.Skipped++
			continue
		}
		seen[key] = struct{}{}
		batch = append(batch, req.toRace(owner))
	}

	if len(batch) > 0 {
		if err := races.CreateBatch(ctx, batch); err != nil {
			return nil, err
		}
	}
	res.Imported = len(batch)
	return res, nil
}

// ExportRaces returns owner's races, newest first, in the import format.
func ExportRaces(ctx context.Context, races repository.RaceRepository, owner uuid.UUID) ([]RaceInput, error) {
	all, err := races.Find(ctx, owner, repository.RaceFilter{}, repository.Sort{Field: "date", Desc: true})
	if err != nil {
		return nil, err
	}
	out := make([]RaceInput, len(all))
	for i := range all {
		out[i] = raceInputFrom(&all[i])
	}
	return out, nil
}

func nameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func fieldErrors(err error) []models.FieldError {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Errors
	}
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return []models.FieldError{{Field: "item", Message: fmt.Sprint(he.Message)}}
	}
	return []models.FieldError{{Field: "item", Message: err.Error()}}
}

// ExportRacesHandler handles GET /races/export as a downloadable JSON array.
func (h *Handler) ExportRacesHandler(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	items, err := ExportRaces(c.Request().Context(), h.races, user.ID)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition,
		fmt.Sprintf(`attachment; filename="races-%s.json"`, h.now().Format("2006-01-02")))
	return c.JSON(http.StatusOK, items)
}

// ImportRacesHandler handles POST /races/import.
func (h *Handler) ImportRacesHandler(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}

	var body json.RawMessage
	if err := bindStrict(c, &body); err != nil {
		return err
	}
	items, err := DecodeImport(body)
	if err != nil {
		return err
	}

	res, err := ImportRaces(c.Request().Context(), h.races, user.ID, items)
	if err != nil {
		return err
	}
	h.metrics.RacesImported(res.Imported)
	h.log.Info("races imported",
		zap.String("user_id", user.ID.String()),
		zap.Int("imported", res.Imported),
		zap.Int("skipped", res.Skipped),
		zap.Int("rejected", len(res.Errors)),
	)

	return respond(c, http.StatusOK, fmt.Sprintf("%d race(s) imported", res.Imported), res)
}
