package handler

import (
	"bytes"
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/pkordes/stridelog/internal/domain"
)

// csvHeaders is the first row of every CSV export.
var csvHeaders = []string{
	"id", "strava_id", "title", "activity_type", "start_date",
	"distance_m", "moving_time_s", "elevation_gain_m",
	"average_speed_mps", "max_speed_mps",
	"average_heart_rate", "max_heart_rate", "calories",
}

const exportFilename = "activities"

// ExportActivities handles GET /api/activities/export?format=csv|json.
// JSON is the default.
func (s *Server) ExportActivities(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}
	if format != "json" && format != "csv" {
		badRequest(w, "format must be one of csv, json")
		return
	}

	items, err := s.opts.Activities.Export(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, err, "activity")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename+"."+format+`"`)
	if format == "json" {
		writeJSON(w, http.StatusOK, mapSlice(items, activityToResponse))
		return
	}

	body := buildCSV(items)
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Length", strconv.Itoa(body.Len()))
	w.WriteHeader(http.StatusOK)
	_, _ = body.WriteTo(w)
}

// buildCSV encodes activities one per line after the header row.
// Absent optional values are empty cells.
func buildCSV(items []domain.Activity) *bytes.Buffer {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)

	//nolint:errcheck // bytes.Buffer.Write never returns an error.
	cw.Write(csvHeaders)
	for _, a := range items {
		//nolint:errcheck
		cw.Write(activityToCSVRecord(a))
	}
	cw.Flush()
	return &buf
}

func activityToCSVRecord(a domain.Activity) []string {
	strava := ""
	if a.StravaID != nil {
		strava = strconv.FormatInt(*a.StravaID, 10)
	}
	return []string{
		a.ID.String(),
		strava,
		a.Title,
		string(a.Type),
		a.StartDate.UTC().Format(time.RFC3339),
		formatFloat(a.Distance),
		strconv.Itoa(a.Duration),
		formatOptionalFloat(a.ElevationGain),
		formatOptionalFloat(a.AverageSpeed),
		formatOptionalFloat(a.MaxSpeed),
		formatOptionalFloat(a.AverageHeartRate),
		formatOptionalFloat(a.MaxHeartRate),
		formatOptionalFloat(a.Calories),
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// formatOptionalFloat returns "" for nil.
func formatOptionalFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return formatFloat(*f)
}
