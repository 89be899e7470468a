package api

import (
	"math"
	"time"

	"github.com/signalsfoundry/orbital-risk/internal/assessment"
	"github.com/signalsfoundry/orbital-risk/risk"
)

// reportResponse is the stable report contract shared by both risk
// endpoints. Currency fields are rounded to cents.
type reportResponse struct {
	FinancialRisk        float64 `json:"financial_risk"`
	CollisionRisk        float64 `json:"collision_risk"`
	InsurancePremium     float64 `json:"insurance_premium"`
	RiskClass            string  `json:"risk_class"`
	RiskClassDescription string  `json:"risk_class_description"`
	ObjectCount          int     `json:"object_count"`
}

func newReportResponse(r risk.Report) reportResponse {
	return reportResponse{
		FinancialRisk:        roundCents(r.FinancialRisk),
		CollisionRisk:        r.CollisionProbability,
		InsurancePremium:     roundCents(r.InsurancePremium),
		RiskClass:            string(r.Class),
		RiskClassDescription: r.Description(),
		ObjectCount:          r.Count,
	}
}

func roundCents(v float64) float64 { return math.Round(v*100) / 100 }

type orbitResponse struct {
	reportResponse
	AssessmentID    string  `json:"assessment_id"`
	LowerAltitudeKm float64 `json:"shell_lower_altitude_km"`
	UpperAltitudeKm float64 `json:"shell_upper_altitude_km"`
	SkippedCount    int     `json:"skipped_count"`
}

func newOrbitResponse(a assessment.OrbitAssessment) orbitResponse {
	return orbitResponse{
		reportResponse:  newReportResponse(a.Report),
		AssessmentID:    a.ID,
		LowerAltitudeKm: a.LowerAltitudeKm,
		UpperAltitudeKm: a.UpperAltitudeKm,
		SkippedCount:    a.Skipped,
	}
}

type conjunctionResponse struct {
	CatalogNumber int       `json:"catalog_number"`
	Name          string    `json:"name"`
	Epoch         time.Time `json:"epoch"`
	TimeToCPA     float64   `json:"time_to_cpa_s"`
	DistanceKm    float64   `json:"distance_km"`
}

type corridorResponse struct {
	Points          int     `json:"points"`
	LengthKm        float64 `json:"length_km"`
	DurationS       float64 `json:"duration_s"`
	FinalAltitudeKm float64 `json:"final_altitude_km"`
	AzimuthDeg      float64 `json:"azimuth_deg"`
	AzimuthFallback bool    `json:"azimuth_fallback"`
	Converged       bool    `json:"converged"`
}

type takeoffResponse struct {
	reportResponse
	AssessmentID    string                `json:"assessment_id"`
	CorridorRadius  float64               `json:"launch_corridor_radius_km"`
	AscentTimeS     float64               `json:"ascent_time_s"`
	CandidateCount  int                   `json:"candidate_count"`
	SkippedCount    int                   `json:"skipped_count"`
	Conjunctions    []conjunctionResponse `json:"conjunctions"`
	ReferenceCourse corridorResponse      `json:"reference_trajectory"`
}

func newTakeoffResponse(a assessment.TakeoffAssessment) takeoffResponse {
	conj := make([]conjunctionResponse, 0, len(a.Conjunctions))
	for _, c := range a.Conjunctions {
		conj = append(conj, conjunctionResponse{
			CatalogNumber: c.CatalogNumber,
			Name:          c.Name,
			Epoch:         c.Epoch,
			TimeToCPA:     c.TimeToCPA,
			DistanceKm:    c.DistanceKm,
		})
	}
	return takeoffResponse{
		reportResponse: newReportResponse(a.Report),
		AssessmentID:   a.ID,
		CorridorRadius: a.CorridorRadiusM / 1000,
		AscentTimeS:    a.AscentTimeS,
		CandidateCount: a.Candidates,
		SkippedCount:   a.Skipped,
		Conjunctions:   conj,
		ReferenceCourse: corridorResponse{
			Points:          a.Corridor.Points,
			LengthKm:        a.Corridor.LengthKm,
			DurationS:       a.Corridor.DurationS,
			FinalAltitudeKm: a.Corridor.FinalAltitudeKm,
			AzimuthDeg:      a.Corridor.AzimuthDeg,
			AzimuthFallback: a.Corridor.AzimuthFallback,
			Converged:       a.Corridor.Converged,
		},
	}
}

type cellResponse struct {
	MeanMotionBin  float64 `json:"mean_motion_bin"`
	InclinationBin int     `json:"inclination_bin"`
	Count          int     `json:"count"`
	AvgInclination float64 `json:"avg_inclination"`
	AvgMeanMotion  float64 `json:"avg_mean_motion"`
}

type congestionResponse struct {
	AssessmentID  string         `json:"assessment_id"`
	ObjectCount   int            `json:"object_count"`
	SkippedCount  int            `json:"skipped_count"`
	MinMeanMotion float64        `json:"min_mean_motion"`
	MaxMeanMotion float64        `json:"max_mean_motion"`
	Cells         []cellResponse `json:"cells"`
}

func newCongestionResponse(a assessment.CongestionAssessment) congestionResponse {
	cells := make([]cellResponse, 0, len(a.Cells))
	for _, c := range a.Cells {
		cells = append(cells, cellResponse{
			MeanMotionBin:  c.MeanMotionBin,
			InclinationBin: c.InclinationBin,
			Count:          c.Count,
			AvgInclination: c.AvgInclinationDeg,
			AvgMeanMotion:  c.AvgMeanMotion,
		})
	}
	return congestionResponse{
		AssessmentID:  a.ID,
		ObjectCount:   a.ObjectCount,
		SkippedCount:  a.Skipped,
		MinMeanMotion: a.MinMeanMotion,
		MaxMeanMotion: a.MaxMeanMotion,
		Cells:         cells,
	}
}

// Render converts an assessment result into its JSON response body. It
// returns nil for values that are not assessment results.
func Render(result any) any {
	switch a := result.(type) {
	case assessment.OrbitAssessment:
		return newOrbitResponse(a)
	case assessment.TakeoffAssessment:
		return newTakeoffResponse(a)
	case assessment.CongestionAssessment:
		return newCongestionResponse(a)
	default:
		return nil
	}
}
