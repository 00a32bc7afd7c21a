package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gridpulse/gridpulse/internal/griddata"
	"github.com/gridpulse/gridpulse/internal/highlights"
	"github.com/gridpulse/gridpulse/internal/history"
	"github.com/gridpulse/gridpulse/internal/llm"
	"github.com/gridpulse/gridpulse/models"
)

type snapshotResponse struct {
	Summary       string                 `json:"_summary"`
	ISO           string                 `json:"iso"`
	Timestamp     string                 `json:"timestamp"`
	Prices        *models.PriceSnapshot  `json:"prices"`
	Load          *models.LoadSnapshot   `json:"load"`
	GenerationMix map[string]int         `json:"generation_mix"`
	GridStatus    *models.StatusSnapshot `json:"grid_status"`
	Highlights    []string               `json:"highlights"`
}

// handleMarketSnapshot returns current conditions with rule-based highlights.
// No LLM involved.
func (s *Server) handleMarketSnapshot(w http.ResponseWriter, r *http.Request) {
	iso, err := griddata.ValidateISO(isoParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	snap, err := s.grid.Snapshot(r.Context(), iso)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	lines := highlights.Generate(snap.FuelMix, snap.Load, snap.Prices)

	s.writeJSON(w, http.StatusOK, snapshotResponse{
		Summary:       snapshotSummary(iso, snap),
		ISO:           iso,
		Timestamp:     snap.FuelMix.Timestamp,
		Prices:        snap.Prices,
		Load:          snap.Load,
		GenerationMix: snap.FuelMix.Sources,
		GridStatus:    snap.Status,
		Highlights:    lines,
	})
}

// snapshotSummary builds the one-line digest MCP-style clients lead with.
func snapshotSummary(iso string, snap *griddata.GridSnapshot) string {
	topSource, topMW := "N/A", 0
	totalGen := 0
	for name, mw := range snap.FuelMix.Sources {
		if topSource == "N/A" || mw > topMW {
			topSource, topMW = name, mw
		}
		if mw > 0 {
			totalGen += mw
		}
	}
	topPct := 0.0
	if totalGen > 0 {
		topPct = float64(topMW) / float64(totalGen) * 100
	}
	return fmt.Sprintf("%s grid at %s: %d MW load, $%.2f/MWh avg price, %s leading at %.0f%% of generation",
		iso, snap.FuelMix.Timestamp, snap.Load.CurrentMW, snap.Prices.AverageLMP, topSource, topPct)
}

type analysisBody struct {
	IsUnusual  bool            `json:"is_unusual"`
	Severity   models.Severity `json:"severity"`
	Sigma      float64         `json:"sigma"`
	Percentile int             `json:"percentile"`
}

type priceAnalysisResponse struct {
	Summary      string                `json:"_summary"`
	ISO          string                `json:"iso"`
	Timestamp    string                `json:"timestamp"`
	CurrentPrice float64               `json:"current_price"`
	Unit         string                `json:"unit"`
	Analysis     analysisBody          `json:"analysis"`
	Baselines    models.PriceBaselines `json:"baselines"`
	Verdict      string                `json:"verdict"`
}

// handlePriceAnalysis scores the current average LMP against baselines.
func (s *Server) handlePriceAnalysis(w http.ResponseWriter, r *http.Request) {
	iso, err := griddata.ValidateISO(isoParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	prices, err := s.grid.Prices(r.Context(), iso)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	result := s.store.AnalyzePrice(r.Context(), iso, prices.AverageLMP)

	s.writeJSON(w, http.StatusOK, priceAnalysisResponse{
		Summary:      result.Verdict,
		ISO:          iso,
		Timestamp:    prices.Timestamp,
		CurrentPrice: result.CurrentPrice,
		Unit:         result.Unit,
		Analysis: analysisBody{
			IsUnusual:  result.IsUnusual,
			Severity:   result.Severity,
			Sigma:      result.Sigma,
			Percentile: result.Percentile,
		},
		Baselines: result.Baselines,
		Verdict:   result.Verdict,
	})
}

type historyResponse struct {
	Summary     string           `json:"_summary"`
	ISO         string           `json:"iso"`
	Dataset     string           `json:"dataset"`
	DatasetID   string           `json:"dataset_id"`
	RecordCount int              `json:"record_count"`
	Records     []map[string]any `json:"records"`
}

// Timestamp-like columns scanned when summarizing a record window.
var timestampColumns = []string{"interval_start_utc", "interval_start", "timestamp", "time"}

// handleMarketHistory queries the hosted historical datasets. Validation here
// is against the hosted multi-ISO set, not the live scraping set.
func (s *Server) handleMarketHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	dataset := q.Get("dataset")
	if dataset == "" {
		dataset = "lmp"
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, errorBody{Error: "limit must be an integer"})
			return
		}
		limit = n
	}

	res, err := s.history.Query(r.Context(), isoParam(r), dataset, q.Get("start"), q.Get("end"), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	s.writeJSON(w, http.StatusOK, historyResponse{
		Summary:     historySummary(res),
		ISO:         res.ISO,
		Dataset:     res.Dataset,
		DatasetID:   res.DatasetID,
		RecordCount: len(res.Records),
		Records:     res.Records,
	})
}

func historySummary(res *history.Result) string {
	dateRange := ""
	if n := len(res.Records); n > 0 {
		first, last := res.Records[0], res.Records[n-1]
		for _, col := range timestampColumns {
			if v, ok := first[col]; ok {
				dateRange = fmt.Sprintf(" from %v to %v", v, last[col])
				break
			}
		}
	}
	return fmt.Sprintf("%s %s data: %d records returned%s (via gridstatus.io hosted API)",
		res.ISO, res.Dataset, len(res.Records), dateRange)
}

type explainResponse struct {
	Summary             string                      `json:"_summary"`
	ISO                 string                      `json:"iso"`
	Timestamp           string                      `json:"timestamp"`
	Focus               string                      `json:"focus"`
	Explanation         string                      `json:"explanation"`
	ContributingFactors []models.ContributingFactor `json:"contributing_factors"`
	DataSources         []string                    `json:"data_sources"`
}

// handleExplain asks the completion model to synthesize what drives current
// conditions from mix, load, prices and weather.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	if s.completion == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "AI synthesis is not configured"})
		return
	}

	iso, err := griddata.ValidateISO(isoParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	focus := r.URL.Query().Get("focus")
	if focus == "" {
		focus = "general"
	}

	snap, err := s.grid.Snapshot(r.Context(), iso)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	wx, err := s.weather.Conditions(r.Context(), iso)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	text, err := s.completion.Complete(r.Context(), explainMessages(iso, focus, snap, wx), 800)
	if err != nil {
		s.logger.Error().Err(err).Msg("Completion failed")
		s.writeJSON(w, http.StatusBadGateway, errorBody{Error: "AI synthesis failed"})
		return
	}

	var parsed models.GridExplanation
	if err := json.Unmarshal([]byte(llm.StripFences(text)), &parsed); err != nil {
		// Model ignored the JSON contract; serve its prose as-is.
		parsed = models.GridExplanation{Explanation: strings.TrimSpace(text)}
	}

	factors := parsed.ContributingFactors
	if factors == nil {
		factors = []models.ContributingFactor{}
	}
	names := make([]string, 0, 3)
	for _, f := range factors {
		if len(names) == 3 {
			break
		}
		names = append(names, f.Factor)
	}
	top := "unknown"
	if len(names) > 0 {
		top = strings.Join(names, ", ")
	}

	s.writeJSON(w, http.StatusOK, explainResponse{
		Summary:             fmt.Sprintf("%s grid analysis (focus: %s): Key drivers — %s. See full explanation for details.", iso, focus, top),
		ISO:                 iso,
		Timestamp:           snap.FuelMix.Timestamp,
		Focus:               focus,
		Explanation:         parsed.Explanation,
		ContributingFactors: factors,
		DataSources:         []string{"gridstatus", "openmeteo"},
	})
}

func explainMessages(iso, focus string, snap *griddata.GridSnapshot, wx *models.WeatherSnapshot) []models.ChatMessage {
	sourcesJSON, _ := json.MarshalIndent(snap.FuelMix.Sources, "", "  ")
	hubsJSON, _ := json.MarshalIndent(snap.Prices.ByHub, "", "  ")
	locationsJSON, _ := json.MarshalIndent(wx.Locations, "", "  ")

	dataContext := fmt.Sprintf(
		"ISO: %s\nTimestamp: %s\n\nGeneration Mix (MW):\n%s\n\nLoad: %d MW\n\n"+
			"Prices ($/MWh):\n  Average LMP: $%.2f\n  By hub: %s\n\n"+
			"Weather:\n  Average temp: %s°F\n  Average wind: %s mph\n  Locations: %s",
		iso, snap.FuelMix.Timestamp, sourcesJSON, snap.Load.CurrentMW,
		snap.Prices.AverageLMP, hubsJSON,
		floatOrNA(wx.AvgTemperatureF), floatOrNA(wx.AvgWindSpeedMPH), locationsJSON,
	)

	systemPrompt := fmt.Sprintf(
		"You are an energy market analyst. Given the following grid data, "+
			"explain what's driving current conditions in plain language.\n\n"+
			"Focus: %s\n\n"+
			"Respond in JSON with this exact structure:\n"+
			"{\n"+
			"  \"explanation\": \"2-3 paragraph explanation suitable for a trader or analyst. "+
			"Be specific with numbers. Don't hedge excessively.\",\n"+
			"  \"contributing_factors\": [\n"+
			"    {\"factor\": \"name\", \"impact\": \"high|medium|low|mitigating\", \"detail\": \"specifics\"}\n"+
			"  ]\n"+
			"}", focus)

	return []models.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: dataContext},
	}
}

func floatOrNA(v *float64) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.1f", *v)
}

type fuelMixSummaryResponse struct {
	Timestamp string         `json:"timestamp"`
	FuelMixMW map[string]int `json:"fuel_mix_mw"`
	AISummary string         `json:"ai_summary"`
}

// handleFuelMixSummary returns the latest fuel mix with a short AI summary.
func (s *Server) handleFuelMixSummary(w http.ResponseWriter, r *http.Request) {
	if s.completion == nil {
		s.writeJSON(w, http.StatusServiceUnavailable, errorBody{Error: "AI synthesis is not configured"})
		return
	}

	iso, err := griddata.ValidateISO(isoParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	mix, err := s.grid.FuelMix(r.Context(), iso)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sourcesJSON, _ := json.MarshalIndent(mix.Sources, "", "  ")
	messages := []models.ChatMessage{
		{
			Role: "system",
			Content: "You are an energy grid analyst. Summarize the fuel mix data " +
				"in 2-3 sentences. Note anything interesting about the current " +
				"generation mix. Be concise.",
		},
		{
			Role: "user",
			Content: fmt.Sprintf("Here is the latest %s fuel mix as of %s (values in MW):\n%s",
				iso, mix.Timestamp, sourcesJSON),
		},
	}

	text, err := s.completion.Complete(r.Context(), messages, 200)
	if err != nil {
		s.logger.Error().Err(err).Msg("Completion failed")
		s.writeJSON(w, http.StatusBadGateway, errorBody{Error: "AI synthesis failed"})
		return
	}

	s.writeJSON(w, http.StatusOK, fuelMixSummaryResponse{
		Timestamp: mix.Timestamp,
		FuelMixMW: mix.Sources,
		AISummary: strings.TrimSpace(text),
	})
}

// handleWeather returns averaged load-center conditions for the ISO.
func (s *Server) handleWeather(w http.ResponseWriter, r *http.Request) {
	iso, err := griddata.ValidateISO(isoParam(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	wx, err := s.weather.Conditions(r.Context(), iso)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, wx)
}
