// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package registry

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/pdiddy/mark-search/pkg/types"
)

// WIPOJurisdiction is the pseudo-jurisdiction of international
// registrations under the Madrid system.
const WIPOJurisdiction = "WO"

// WIPO searches the Madrid Monitor of international registrations. A query
// jurisdiction is passed as a designated-country filter.
type WIPO struct {
	src httpSource
}

// NewWIPO creates a WIPO adapter. The API key is sent as X-API-Key.
func NewWIPO(id string, o HTTPOptions) *WIPO {
	var headers map[string]string
	if o.APIKey != "" {
		headers = map[string]string{"X-API-Key": o.APIKey}
	}
	return &WIPO{src: newHTTPSource(id, o, headers)}
}

// ID implements Adapter.
func (w *WIPO) ID() string { return w.src.id }

// Search implements Adapter.
func (w *WIPO) Search(ctx context.Context, q types.NormalizedQuery) ([]RawResult, error) {
	params := baseParams(q)
	if j := q.Jurisdiction(); j != "" {
		params.Set("countries", j)
	}
	return w.src.fetch(ctx, params)
}

type wipoBasicApplication struct {
	Country           string `json:"country"`
	ApplicationNumber string `json:"application_number"`
	ApplicationDate   string `json:"application_date"`
}

type wipoRecord struct {
	ID                              string               `json:"id"`
	Trademark                       string               `json:"trademark"`
	InternationalRegistrationNumber string               `json:"international_registration_number"`
	InternationalRegistrationDate   string               `json:"international_registration_date"`
	Status                          string               `json:"status"`
	Holder                          string               `json:"holder"`
	DesignatedCountries             []string             `json:"designated_countries"`
	NiceClasses                     []int                `json:"nice_classes"`
	GoodsServices                   string               `json:"goods_services"`
	Type                            string               `json:"type"`
	ImageURL                        string               `json:"image_url"`
	BasicApplication                wipoBasicApplication `json:"basic_application"`
	Score                           *float64             `json:"score"`
}

// NormalizeResult implements Adapter. The basic application supplies the
// application number and filing date.
func (w *WIPO) NormalizeResult(raw RawResult) (types.NormalizedResult, error) {
	var rec wipoRecord
	if err := decodeRecord(raw, &rec); err != nil {
		return types.NormalizedResult{}, err
	}
	name := strings.TrimSpace(rec.Trademark)
	if name == "" {
		return types.NormalizedResult{}, errors.Newf("record %q has no mark name", rec.ID)
	}
	markType, _ := types.ParseMarkType(rec.Type)
	status, _ := types.ParseStatus(rec.Status)

	var designated []string
	for _, c := range rec.DesignatedCountries {
		if c = strings.ToUpper(strings.TrimSpace(c)); c != "" {
			designated = append(designated, c)
		}
	}

	return types.NormalizedResult{
		SourceID:            w.src.id,
		ExternalID:          strings.TrimSpace(rec.ID),
		Name:                name,
		MarkType:            markType,
		Status:              status,
		Jurisdiction:        WIPOJurisdiction,
		ClassCodes:          validClasses(rec.NiceClasses),
		ApplicationNumber:   strings.TrimSpace(rec.BasicApplication.ApplicationNumber),
		RegistrationNumber:  strings.TrimSpace(rec.InternationalRegistrationNumber),
		FilingDate:          parseDate(rec.BasicApplication.ApplicationDate),
		RegistrationDate:    parseDate(rec.InternationalRegistrationDate),
		RawSimilarity:       clampScore(rec.Score),
		Owner:               strings.TrimSpace(rec.Holder),
		GoodsServices:       strings.TrimSpace(rec.GoodsServices),
		ImageURL:            strings.TrimSpace(rec.ImageURL),
		DesignatedCountries: designated,
	}, nil
}
