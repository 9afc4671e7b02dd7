// Package vocab holds the keyword lists used to admit, score and categorize
// financial news. Lists are plain data injected into the filter and scorer.
package vocab

import (
	"fmt"
	"sort"
	"strings"
)

// Legal, spam and off-topic phrases that disqualify an article outright.
var ExclusionTerms = Terms{
	// securities litigation
	"shareholder alert", "class action", "lawsuit", "attorney", "law firm",
	"securities fraud", "reminds investors", "kahn swick", "losses in excess",
	"lead plaintiff", "legal notice", "litigation", "ponzi scheme", "pump and dump",
	// corporate filing spam
	"reverse stock split", "stock split", "dividend announcement", "announces grant", "stock options",
	// retrospective listicles
	"if you invested", "you would have", "outperformed", "zacks rank",
	// generic listicles
	"3 stocks", "top stocks", "stocks to buy",
	// off-topic
	"horoscope", "recipe", "online dating", "dating app", "celebrity gossip", "weather forecast",
	"weight loss", "diet pill", "miracle cure", "get rich quick", "earn money from home",
	"work from home scam",
}

// LegalTerms flag press releases that are really legal notices.
var LegalTerms = Terms{
	"lawsuit", "investigation", "class action", "shareholder", "securities", "attorney",
	"legal", "litigation", "plaintiff", "settlement", "investors who",
}

var PromotionalPhrases = Terms{
	"paid promotion", "sponsored content", "advertisement", "buy now",
	"limited time offer", "act fast",
}

var PressWireSources = Terms{
	"prnewswire", "pr newswire", "businesswire", "business wire", "globenewswire",
	"globe newswire", "accesswire", "newsfile",
}

// MajorCompanies back the significance gate.
var MajorCompanies = Terms{
	"apple", "microsoft", "alphabet", "google", "amazon", "tesla", "nvidia", "meta platforms",
	"netflix", "jpmorgan", "bank of america", "goldman sachs", "morgan stanley", "berkshire",
	"walmart", "exxon", "chevron", "johnson & johnson", "visa", "mastercard", "broadcom",
	"intel", "amd", "boeing", "coinbase", "blackrock", "openai",
}

// SignificanceKeywords back the significance gate: monetary policy, macro data,
// commodities and crypto.
var SignificanceKeywords = Terms{
	"federal reserve", "fed", "interest rate", "rate cut", "rate hike", "inflation", "cpi",
	"gdp", "unemployment", "jobs report", "payrolls", "treasury", "bond yield", "recession",
	"tariff", "central bank", "ecb", "opec", "oil price", "crude", "gold", "bitcoin",
	"ethereum", "crypto", "s&p 500", "nasdaq", "dow jones", "earnings",
}

// FinancialIndicators are the positive evidence that a record is financial news.
var FinancialIndicators = Terms{
	"stock", "market", "trading", "investment", "earnings", "revenue", "profit", "share",
	"price", "analyst", "economy", "economic", "financial", "nasdaq", "dow", "s&p", "fed",
	"inflation", "gdp",
	"crypto", "bitcoin", "ethereum", "blockchain", "defi",
	"merger", "acquisition", "ipo", "ceo", "cfo", "board", "dividend", "split", "buyback",
	"guidance",
	"bank", "rates", "bonds", "commodities", "oil", "gold", "tech", "healthcare", "energy",
	"utilities", "reit",
}

var PremiumSources = Terms{
	"reuters", "bloomberg", "cnbc", "marketwatch", "wsj", "wall street journal",
	"financial times", "barrons", "barron's", "seeking alpha", "yahoo finance", "benzinga",
	"zacks", "motley fool", "investing.com", "nasdaq", "sec.gov",
}

var HighImpactKeywords = Terms{
	"fed", "federal reserve", "interest rate", "inflation", "gdp", "unemployment",
	"earnings", "profit", "revenue", "guidance", "outlook", "forecast",
	"merger", "acquisition", "ipo", "stock split", "dividend",
	"sec", "regulation", "antitrust", "approval", "fda",
	"oil price", "gold", "dollar", "treasury", "bond yield",
}

var MediumImpactKeywords = Terms{
	"ceo", "cfo", "executive", "leadership", "appointment",
	"partnership", "deal", "contract", "launch", "product",
	"upgrade", "downgrade", "analyst", "price target",
	"bitcoin", "crypto", "blockchain", "ai", "artificial intelligence",
}

// MajorTickers are large-cap and benchmark symbols.
var MajorTickers = Terms{
	"AAPL", "MSFT", "GOOGL", "AMZN", "TSLA", "NVDA", "META", "NFLX",
	"SPY", "QQQ", "BTC", "ETH", "CRYPTO:BTC", "CRYPTO:ETH", "JPM", "BAC", "WMT", "JNJ", "PG",
}

var ClickbaitPhrases = Terms{
	"you won't believe", "shocking", "this will", "must see",
}

// MacroTerms earn the second category tier in headline ranking.
var MacroTerms = Terms{
	"federal reserve", "fed", "interest rate", "rate cut", "rate hike", "inflation",
	"central bank", "powell", "ecb", "treasury", "tariff", "sanctions", "geopolitical",
	"war", "opec", "recession",
}

var MarketMoveTerms = Terms{
	"rally", "rallies", "surge", "surges", "plunge", "plunges", "selloff", "sell-off",
	"record high", "all-time high", "tumble", "soar", "slump", "rebound",
}

var SectorTerms = Terms{
	"tech", "energy", "bank", "semiconductor", "chip", "healthcare", "oil", "retail",
	"real estate", "utilities",
}

// GoldContext phrases confirm that a "gold" mention is about the metal market.
var GoldContext = Terms{
	"gold price", "gold prices", "gold futures", "spot gold", "bullion", "precious metal",
	"safe haven", "safe-haven", "gold rally", "gold hits", "gold rises", "gold falls",
	"gold climbs", "gold slips", "per ounce", "an ounce", "xau",
}

var GoldExclusions = Terms{
	"dividend", "stock split", "ipo", "initial public offering",
}

var CryptoAssets = Terms{
	"bitcoin", "btc", "ethereum", "eth", "crypto", "cryptocurrency", "dogecoin",
}

var CryptoActions = Terms{
	"price", "rally", "surge", "drop", "whale", "etf", "adoption", "regulation",
	"institutional", "record", "falls", "rises", "jumps", "slides",
}

var CryptoExclusions = Terms{
	"stock split", "sec filing", "holding inc", "holdings inc", "earnings announcement",
	"10-k", "10-q", "8-k",
}

// HeadlineSpam disqualifies a headline in category searches.
var HeadlineSpam = Terms{
	"alert", "reminder", "deadline",
}

// Vocabulary bundles every list a filter, scorer or category matcher needs.
type Vocabulary struct {
	ExclusionTerms       Terms
	LegalTerms           Terms
	PromotionalPhrases   Terms
	PressWireSources     Terms
	MajorCompanies       Terms
	SignificanceKeywords Terms
	FinancialIndicators  Terms
	PremiumSources       Terms
	HighImpactKeywords   Terms
	MediumImpactKeywords Terms
	MajorTickers         Terms
	ClickbaitPhrases     Terms
	MacroTerms           Terms
	MarketMoveTerms      Terms
	SectorTerms          Terms
	GoldContext          Terms
	GoldExclusions       Terms
	CryptoAssets         Terms
	CryptoActions        Terms
	CryptoExclusions     Terms
	HeadlineSpam         Terms
}

// Default returns a fresh copy of the built-in vocabulary.
func Default() Vocabulary {
	return Vocabulary{
		ExclusionTerms:       ExclusionTerms.clone(),
		LegalTerms:           LegalTerms.clone(),
		PromotionalPhrases:   PromotionalPhrases.clone(),
		PressWireSources:     PressWireSources.clone(),
		MajorCompanies:       MajorCompanies.clone(),
		SignificanceKeywords: SignificanceKeywords.clone(),
		FinancialIndicators:  FinancialIndicators.clone(),
		PremiumSources:       PremiumSources.clone(),
		HighImpactKeywords:   HighImpactKeywords.clone(),
		MediumImpactKeywords: MediumImpactKeywords.clone(),
		MajorTickers:         upper(MajorTickers),
		ClickbaitPhrases:     ClickbaitPhrases.clone(),
		MacroTerms:           MacroTerms.clone(),
		MarketMoveTerms:      MarketMoveTerms.clone(),
		SectorTerms:          SectorTerms.clone(),
		GoldContext:          GoldContext.clone(),
		GoldExclusions:       GoldExclusions.clone(),
		CryptoAssets:         CryptoAssets.clone(),
		CryptoActions:        CryptoActions.clone(),
		CryptoExclusions:     CryptoExclusions.clone(),
		HeadlineSpam:         HeadlineSpam.clone(),
	}
}

// WithOverrides returns a copy of v where each named list is replaced.
// Names are the snake_case keys listed by Names.
func (v Vocabulary) WithOverrides(overrides map[string][]string) (Vocabulary, error) {
	out := v.copy()
	fields := out.fields()
	for name, list := range overrides {
		f, ok := fields[name]
		if !ok {
			return Vocabulary{}, fmt.Errorf("unknown vocabulary list %q", name)
		}
		if name == "major_tickers" {
			*f = upper(Terms(list))
			continue
		}
		*f = Terms(list).clone()
	}
	return out, nil
}

// Names returns the configurable list names in sorted order.
func Names() []string {
	v := Vocabulary{}
	var names []string
	for n := range v.fields() {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (v *Vocabulary) fields() map[string]*Terms {
	return map[string]*Terms{
		"exclusion_terms":        &v.ExclusionTerms,
		"legal_terms":            &v.LegalTerms,
		"promotional_phrases":    &v.PromotionalPhrases,
		"press_wire_sources":     &v.PressWireSources,
		"major_companies":        &v.MajorCompanies,
		"significance_keywords":  &v.SignificanceKeywords,
		"financial_indicators":   &v.FinancialIndicators,
		"premium_sources":        &v.PremiumSources,
		"high_impact_keywords":   &v.HighImpactKeywords,
		"medium_impact_keywords": &v.MediumImpactKeywords,
		"major_tickers":          &v.MajorTickers,
		"clickbait_phrases":      &v.ClickbaitPhrases,
		"macro_terms":            &v.MacroTerms,
		"market_move_terms":      &v.MarketMoveTerms,
		"sector_terms":           &v.SectorTerms,
		"gold_context":           &v.GoldContext,
		"gold_exclusions":        &v.GoldExclusions,
		"crypto_assets":          &v.CryptoAssets,
		"crypto_actions":         &v.CryptoActions,
		"crypto_exclusions":      &v.CryptoExclusions,
		"headline_spam":          &v.HeadlineSpam,
	}
}

func (v Vocabulary) copy() Vocabulary {
	out := v
	for _, f := range out.fields() {
		*f = append(Terms(nil), (*f)...)
	}
	return out
}

func upper(t Terms) Terms {
	out := make(Terms, len(t))
	for i, s := range t {
		out[i] = strings.ToUpper(strings.TrimSpace(s))
	}
	return out
}
