// Package commentary asks a language model to narrate a finished analysis.
// It reads the result and never changes it.
package commentary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/phuslu/log"

	"finsight/pkg/core/llm"
	"finsight/pkg/core/utils"
	"finsight/pkg/models"
)

// ErrGateBlocked is returned while failing integrity checks are
// unacknowledged.
var ErrGateBlocked = errors.New("commentary: results are withheld until failing checks are acknowledged")

// Section keys in display order.
var Sections = []struct {
	Key   string
	Title string
}{
	{"executive_summary", "Executive Summary"},
	{"trading_performance", "Trading Performance"},
	{"cashflow_liquidity", "Cash Flow and Liquidity"},
	{"balance_sheet", "Balance Sheet"},
	{"risks_opportunities", "Risks and Opportunities"},
}

type response struct {
	ExecutiveSummary   string   `json:"executive_summary"`
	TradingPerformance string   `json:"trading_performance"`
	CashflowLiquidity  string   `json:"cashflow_liquidity"`
	BalanceSheet       string   `json:"balance_sheet"`
	RisksOpportunities string   `json:"risks_opportunities"`
	TalkingPoints      []string `json:"talking_points"`
}

func (r response) text(key string) string {
	switch key {
	case "executive_summary":
		return r.ExecutiveSummary
	case "trading_performance":
		return r.TradingPerformance
	case "cashflow_liquidity":
		return r.CashflowLiquidity
	case "balance_sheet":
		return r.BalanceSheet
	case "risks_opportunities":
		return r.RisksOpportunities
	}
	return ""
}

type Generator struct {
	provider llm.Provider
	model    string
	now      func() time.Time
}

// New creates a generator. model may be empty for the provider default.
func New(provider llm.Provider, model string) *Generator {
	return &Generator{provider: provider, model: model, now: time.Now}
}

func (g *Generator) SetClock(now func() time.Time) {
	g.now = now
}

// Generate produces commentary for res. The caller attaches the returned
// value to the result if it wants to keep it.
func (g *Generator) Generate(ctx context.Context, res *models.AnalysisResult) (*models.Commentary, error) {
	if res == nil {
		return nil, errors.New("commentary: nil result")
	}
	if !res.Gate.Visible() {
		return nil, ErrGateBlocked
	}
	if g.provider == nil {
		return nil, llm.ErrDisabled
	}

	prompt, err := BuildPrompt(res)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := g.provider.GenerateResponse(ctx, prompt, systemPrompt, llm.Options{Model: g.model, JSON: true})
	if err != nil {
		return nil, fmt.Errorf("commentary: %w", err)
	}

	var parsed response
	if err := utils.SmartParse(raw, &parsed); err != nil {
		log.Warn().Str("run_id", res.ID).Int("chars", len(raw)).Msg("commentary response was not JSON")
		return nil, fmt.Errorf("commentary: %w", err)
	}

	out := &models.Commentary{
		Provider:    g.provider.Name(),
		Model:       g.model,
		GeneratedAt: g.now().UTC(),
	}
	for _, s := range Sections {
		md := utils.CleanMarkdown(parsed.text(s.Key))
		if md == "" {
			continue
		}
		html, err := utils.RenderHTML(md)
		if err != nil {
			return nil, fmt.Errorf("commentary: render %s: %w", s.Key, err)
		}
		out.Sections = append(out.Sections, models.CommentarySection{Key: s.Key, Title: s.Title, Markdown: md, HTML: html})
	}
	for _, p := range parsed.TalkingPoints {
		if p = strings.TrimSpace(p); p != "" {
			out.TalkingPoints = append(out.TalkingPoints, p)
		}
	}
	if len(out.Sections) == 0 {
		return nil, errors.New("commentary: response contained no sections")
	}

	log.Info().
		Str("run_id", res.ID).
		Str("provider", out.Provider).
		Int("sections", len(out.Sections)).
		Dur("elapsed", time.Since(start)).
		Msg("commentary generated")
	return out, nil
}
