package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/aetherscore/internal/models"
	"github.com/rewired-gh/aetherscore/internal/pipeline"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Hello World", "Hello World"},
		{"Hello_World", "Hello\\_World"},
		{"Test*bold*", "Test\\*bold\\*"},
		{"Lift: 7.1%", "Lift: 7\\.1%"},
		{"[link](url)", "\\[link\\]\\(url\\)"},
		{"~strikethrough~", "\\~strikethrough\\~"},
		{"`code`", "\\`code\\`"},
		{">blockquote", "\\>blockquote"},
		{"#header", "\\#header"},
		{"+plus-minus", "\\+plus\\-minus"},
		{"=equal|pipe", "\\=equal\\|pipe"},
		{"{brace}", "\\{brace\\}"},
		{"end!", "end\\!"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatMessage(t *testing.T) {
	c := &Client{}
	bundles := []*pipeline.Bundle{
		{
			Pipeline:     pipeline.Aggregate,
			DrawCount:    1240,
			Log:          make([]models.PerformanceLogItem, 3),
			NextDrawDate: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
			Analysis: pipeline.AnalysisResult{
				Coupons: []models.Coupon{{Main: []int{3, 11, 19, 27, 44}, Stars: []int{2, 9}}},
				Regime:  models.RegimeVolatile,
			},
			Insight: models.ForecastInsight{Draws: 3, AvgMainHits: 1.05, AvgBaselineHits: 0.98, Lift: 7.142857},
		},
		{
			Pipeline: pipeline.Friday,
			Insight:  models.ForecastInsight{Draws: 2, AvgMainHits: 0.5, AvgBaselineHits: 0.52, Lift: -4},
		},
	}

	got := c.formatMessage(bundles, time.Date(2024, time.March, 2, 9, 30, 0, 0, time.UTC))

	for _, want := range []string{
		"🕒 Finished 2024\\-03\\-02 09:30:00\n",
		"*aggregate* · next draw Tue 2024\\-03\\-05\n",
		"   🎟 3 11 19 27 44 ⭐ 2 9\n",
		"   🎯 1\\.05 hits per draw vs 0\\.98 baseline \\(\\+7\\.1%\\)\n",
		"   📊 1,240 draws, 3 backtested, regime Volatile\n",
		"*friday* · next draw unknown\n",
		"   🎯 0\\.50 hits per draw vs 0\\.52 baseline \\(\\-4\\.0%\\)\n",
		"   📊 0 draws, 0 backtested, regime Balanced\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("message missing %q\n%s", want, got)
		}
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// Either the empty token or the chat ID parse must fail.
	_, err := NewClient("", "not-a-number", 3, time.Second)
	if err == nil {
		t.Error("Expected error for invalid chat ID, got nil")
	}
}
