// WEAM - Financial Tracker for Contracts, Projects and Cash Flow
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/weam

package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/weam/internal/models"
	"github.com/tomtom215/weam/internal/validation"
)

// clampProgress turns anything numeric-looking into a 0..100 percentage.
// Non-numeric input is 0.
func clampProgress(v any) int {
	f, ok := coerceFloat(v)
	if !ok {
		return 0
	}
	switch {
	case f < 0:
		return 0
	case f > 100:
		return 100
	}
	return int(f)
}

// clampString stringifies v, trims it and cuts it to maxLen runes. nil is "".
func clampString(v any, maxLen int) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case json.Number:
		s = x.String()
	default:
		s = fmt.Sprint(x)
	}
	s = strings.TrimSpace(s)
	if maxLen > 0 && utf8.RuneCountInString(s) > maxLen {
		s = string([]rune(s)[:maxLen])
	}
	return s
}

// coerceFloat accepts JSON numbers and numeric strings.
func coerceFloat(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		n, err := x.Float64()
		if err != nil {
			return 0, false
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, false
		}
		f = n
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// coerceInt accepts whole numbers in any form coerceFloat does.
func coerceInt(v any) (int64, bool) {
	f, ok := coerceFloat(v)
	if !ok || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

// Validator tags for patch values that only admit a fixed set.
var (
	directionTag = fmt.Sprintf("omitempty,oneof='%s' '%s'", models.DirectionReceivable, models.DirectionPayable)
	operationTag = fmt.Sprintf("required,oneof=%s %s", models.OperationIncome, models.OperationExpense)
	roleTag      = fmt.Sprintf("required,oneof=%s %s", models.RoleAdmin, models.RoleUser)
)

// checkValue runs value through the validator. msg replaces the generated
// message when set.
func checkValue(key string, value any, tag, msg string) error {
	verr := validation.ValidateValue(key, value, tag)
	if verr == nil {
		return nil
	}
	if msg != "" {
		return badRequest("%s", msg)
	}
	return badRequest("%s", verr.Message())
}

// normalizeOperation maps the query aliases income/expense onto the stored
// operation types.
func normalizeOperation(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "income", strings.ToLower(models.OperationIncome):
		return models.OperationIncome, true
	case "expense", strings.ToLower(models.OperationExpense):
		return models.OperationExpense, true
	}
	return "", false
}

// fieldKind says how a patch value is coerced before it reaches SQL.
type fieldKind int

const (
	fieldText fieldKind = iota
	fieldNote
	fieldDate
	fieldNumber
	fieldOptionalNumber
	fieldProgress
	fieldRef
	fieldOptionalRef
	fieldDirection
	fieldOperation
	fieldRole
)

var projectFieldKinds = map[string]fieldKind{
	"contractor": fieldText,
	"project":    fieldText,
	"section":    fieldText,
	"direction":  fieldDirection,
	"grouping":   fieldText,
	"amount":     fieldNumber,
	"note":       fieldNote,
	"start":      fieldDate,
	"end":        fieldDate,
	"status":     fieldText,
	"progress":   fieldProgress,
	"user_id":    fieldOptionalRef,
}

var transactionFieldKinds = map[string]fieldKind{
	"responsible":   fieldText,
	"date":          fieldDate,
	"total":         fieldNumber,
	"operationType": fieldOperation,
	"note":          fieldNote,
	"project_id":    fieldRef,
	"remainder":     fieldOptionalNumber,
}

var userFieldKinds = map[string]fieldKind{
	"login":    fieldText,
	"role":     fieldRole,
	"nickname": fieldText,
}

// normalizePatch coerces every known key of patch to its column type and
// drops unknown keys. The first bad value is reported as a badRequestError.
func (h *Handler) normalizePatch(kinds map[string]fieldKind, patch map[string]any) (map[string]any, error) {
	maxText := h.cfg.Limits.MaxTextLength
	maxNote := h.cfg.Limits.MaxNoteLength

	out := make(map[string]any, len(patch))
	for key, raw := range patch {
		kind, ok := kinds[key]
		if !ok {
			continue
		}
		switch kind {
		case fieldText:
			out[key] = clampString(raw, maxText)
		case fieldNote:
			out[key] = clampString(raw, maxNote)
		case fieldDate:
			s := clampString(raw, 0)
			if err := checkValue(key, s, "ymd", ""); err != nil {
				return nil, err
			}
			out[key] = s
		case fieldNumber:
			f, ok := coerceFloat(raw)
			if !ok {
				return nil, badRequest("Invalid number for %s", key)
			}
			out[key] = f
		case fieldOptionalNumber:
			if raw == nil || raw == "" {
				out[key] = nil
				continue
			}
			f, ok := coerceFloat(raw)
			if !ok {
				return nil, badRequest("Invalid number for %s", key)
			}
			out[key] = f
		case fieldProgress:
			out[key] = clampProgress(raw)
		case fieldRef, fieldOptionalRef:
			if raw == nil || raw == "" {
				if kind == fieldRef {
					return nil, badRequest("Missing required field: %s", key)
				}
				out[key] = nil
				continue
			}
			id, ok := coerceInt(raw)
			if !ok || id <= 0 {
				return nil, badRequest("Invalid id for %s", key)
			}
			out[key] = id
		case fieldDirection:
			s := clampString(raw, maxText)
			if err := checkValue(key, s, directionTag, "Invalid direction"); err != nil {
				return nil, err
			}
			out[key] = s
		case fieldOperation:
			op, _ := normalizeOperation(clampString(raw, maxText))
			if err := checkValue(key, op, operationTag, "Invalid operationType"); err != nil {
				return nil, err
			}
			out[key] = op
		case fieldRole:
			s := clampString(raw, maxText)
			if err := checkValue(key, s, roleTag, "Invalid role"); err != nil {
				return nil, err
			}
			out[key] = s
		}
	}
	return out, nil
}

// requireText fails when key is present in values but empty.
func requireText(values map[string]any, keys ...string) error {
	for _, key := range keys {
		v, ok := values[key]
		if !ok {
			continue
		}
		if s, _ := v.(string); s == "" {
			return badRequest("Missing required field: %s", key)
		}
	}
	return nil
}

// pathID parses the {id} URL parameter. On failure it writes 400 and
// returns false.
func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "Invalid id")
		return 0, false
	}
	return id, true
}

// pathString returns a decoded URL parameter. chi matches on the raw path
// when the request carries escaped slashes, so the value may still need
// unescaping.
func pathString(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// queryID parses an optional positive integer query parameter.
func queryID(r *http.Request, key string) (*int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, badRequest("Invalid %s", key)
	}
	return &id, nil
}

// queryFloat parses an optional numeric query parameter.
func queryFloat(r *http.Request, key string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil, nil
	}
	f, ok := coerceFloat(raw)
	if !ok {
		return nil, badRequest("Invalid %s", key)
	}
	return &f, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if err := checkValue(key, raw, "ymd", ""); err != nil {
		return "", err
	}
	return raw, nil
}
