package arcgis

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jongeeting/development-digest/internal/domain"
)

const (
	permitFields = "permitnumber,address,council_district,permittype,typeofwork," +
		"numberofunits,contractorname,approvedscopeofwork,permitissuedate," +
		"permitdescription,commercialorresidential,geocode_x,geocode_y"

	appealFields = "appealnumber,address,council_district,appealtype,applicationtype," +
		"appealgrounds,createddate,primaryappellant,geocode_x,geocode_y"
)

// FetchPermits returns residential permit records issued since the given
// time. The server-side filter selects residential new construction plus all
// change-of-use permits; change-of-use rows are then kept only when their
// scope mentions "residential", because conversions TO residential are
// flagged Commercial upstream.
func (c *Client) FetchPermits(ctx context.Context, since time.Time) ([]domain.RawRecord, error) {
	where := fmt.Sprintf(
		"((commercialorresidential = 'Residential' AND typeofwork = 'New Construction') "+
			"OR (typeofwork = 'Change of Use')) AND permitissuedate >= TIMESTAMP '%s'",
		since.UTC().Format("2006-01-02 15:04:05"))

	params := url.Values{
		"where":         {where},
		"outFields":     {permitFields},
		"orderByFields": {"council_district,permitissuedate DESC"},
	}

	rows, err := c.query(ctx, c.permitsURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch permits: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(rows))
	for _, row := range rows {
		rec := permitRecord(row)
		if rec.TypeOfWork == "Change of Use" &&
			!strings.Contains(strings.ToLower(rec.Narrative), "residential") {
			continue
		}
		records = append(records, rec)
	}

	c.metrics.RecordsFetched.WithLabelValues("permits").Add(float64(len(records)))
	c.logger.Debug("fetched permits", "rows", len(rows), "kept", len(records))
	return records, nil
}

// FetchAppeals returns zoning variance appeal records created since the
// given time.
func (c *Client) FetchAppeals(ctx context.Context, since time.Time) ([]domain.RawRecord, error) {
	where := fmt.Sprintf(
		"createddate >= TIMESTAMP '%s' AND (UPPER(applicationtype) LIKE '%%ZBA%%' "+
			"OR UPPER(appealtype) LIKE '%%VARIANCE%%' OR UPPER(appealgrounds) LIKE '%%VARIANCE%%')",
		since.UTC().Format("2006-01-02 15:04:05"))

	params := url.Values{
		"where":         {where},
		"outFields":     {appealFields},
		"orderByFields": {"council_district,createddate DESC"},
	}

	rows, err := c.query(ctx, c.appealsURL, params)
	if err != nil {
		return nil, fmt.Errorf("fetch appeals: %w", err)
	}

	records := make([]domain.RawRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, appealRecord(row))
	}

	c.metrics.RecordsFetched.WithLabelValues("appeals").Add(float64(len(records)))
	c.logger.Debug("fetched appeals", "rows", len(rows))
	return records, nil
}

func permitRecord(row map[string]any) domain.RawRecord {
	return domain.RawRecord{
		Kind:            domain.KindPermit,
		ID:              attrString(row, "permitnumber"),
		Address:         attrString(row, "address"),
		CouncilDistrict: attrString(row, "council_district"),
		PermitType:      attrString(row, "permittype"),
		TypeOfWork:      attrString(row, "typeofwork"),
		NumberOfUnits:   attrInt(row, "numberofunits"),
		Developer:       attrString(row, "contractorname"),
		Narrative:       attrString(row, "approvedscopeofwork"),
		Description:     attrString(row, "permitdescription"),
		Timestamp:       attrString(row, "permitissuedate"),
		Lon:             attrFloat(row, "geocode_x"),
		Lat:             attrFloat(row, "geocode_y"),
	}
}

func appealRecord(row map[string]any) domain.RawRecord {
	return domain.RawRecord{
		Kind:            domain.KindAppeal,
		ID:              attrString(row, "appealnumber"),
		Address:         attrString(row, "address"),
		CouncilDistrict: attrString(row, "council_district"),
		AppealType:      attrString(row, "appealtype"),
		ApplicationType: attrString(row, "applicationtype"),
		Developer:       attrString(row, "primaryappellant"),
		Narrative:       attrString(row, "appealgrounds"),
		Timestamp:       attrString(row, "createddate"),
		Lon:             attrFloat(row, "geocode_x"),
		Lat:             attrFloat(row, "geocode_y"),
	}
}

// Attribute coercion helpers. FeatureServer responses are loosely typed:
// numbers arrive as float64, numeric strings appear where integers are
// expected, and nulls are common.

func attrString(row map[string]any, key string) string {
	switch v := row[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func attrInt(row map[string]any, key string) int {
	switch v := row[key].(type) {
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return 0
}

func attrFloat(row map[string]any, key string) float64 {
	switch v := row[key].(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
	}
	return 0
}
