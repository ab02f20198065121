// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/pkg/types"
)

// officeRecord is the record shape returned by TMview, EUIPO and the
// national office APIs.
type officeRecord struct {
	ID                 string   `json:"id"`
	Trademark          string   `json:"trademark"`
	ApplicationNumber  string   `json:"application_number"`
	ApplicationDate    string   `json:"application_date"`
	RegistrationNumber string   `json:"registration_number"`
	RegistrationDate   string   `json:"registration_date"`
	Status             string   `json:"status"`
	Owner              string   `json:"owner"`
	Jurisdiction       string   `json:"jurisdiction"`
	NiceClasses        []int    `json:"nice_classes"`
	GoodsServices      string   `json:"goods_services"`
	Type               string   `json:"type"`
	ImageURL           string   `json:"image_url"`
	Score              *float64 `json:"score"`
}

// normalizeOffice decodes an office record and maps it onto the common
// shape. defaultJurisdiction is stamped when the record carries none.
func normalizeOffice(sourceID string, raw RawResult, defaultJurisdiction string) (types.NormalizedResult, error) {
	var rec officeRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return types.NormalizedResult{}, err
	}
	name := strings.TrimSpace(rec.Trademark)
	if name == "" {
		return types.NormalizedResult{}, errors.Newf("record %q has no mark name", rec.ID)
	}

	jurisdiction := strings.ToUpper(strings.TrimSpace(rec.Jurisdiction))
	if jurisdiction == "" {
		jurisdiction = defaultJurisdiction
	}
	markType, _ := types.ParseMarkType(rec.Type)
	status, _ := types.ParseStatus(rec.Status)

	return types.NormalizedResult{
		SourceID:           sourceID,
		ExternalID:         strings.TrimSpace(rec.ID),
		Name:               name,
		MarkType:           markType,
		Status:             status,
		Jurisdiction:       jurisdiction,
		ClassCodes:         validClasses(rec.NiceClasses),
		ApplicationNumber:  strings.TrimSpace(rec.ApplicationNumber),
		RegistrationNumber: strings.TrimSpace(rec.RegistrationNumber),
		FilingDate:         parseDate(rec.ApplicationDate),
		RegistrationDate:   parseDate(rec.RegistrationDate),
		RawSimilarity:      clampScore(rec.Score),
		Owner:              strings.TrimSpace(rec.Owner),
		GoodsServices:      strings.TrimSpace(rec.GoodsServices),
		ImageURL:           strings.TrimSpace(rec.ImageURL),
	}, nil
}
