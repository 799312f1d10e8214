// Package detect implements the eight signal detectors the governance
// kernel runs over each role's raw text output. Pattern lists load from
// a YAML config with a hardcoded fallback when the file is absent,
// following the same global-var-plus-RWMutex shape as the scorer
// config pattern in the reference ml/config.go: detection must keep
// working even when no config directory is mounted.
package detect

import (
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/govkernel/chain/internal/models"
)

// Config is the YAML-loadable pattern set every detector consults.
type Config struct {
	SycophancyPhrases  []string            `yaml:"sycophancy_phrases"`
	HedgePhrases       []string            `yaml:"hedge_phrases"`
	AntonymPairs       [][2]string         `yaml:"antonym_pairs"`
	Superlatives       []string            `yaml:"superlatives"`
	SecretPatterns     []string            `yaml:"secret_patterns"`
	DomainKeywords     map[string][]string `yaml:"domain_keywords"`
	PlausibleNumericMax float64            `yaml:"plausible_numeric_max"`
}

var (
	cfg   *Config
	cfgMu sync.RWMutex
)

var defaultSycophancyPhrases = []string{
	"great question", "absolutely right", "i love that", "what a fantastic",
	"you're so right", "excellent point", "couldn't agree more",
}

var defaultHedgePhrases = []string{
	"maybe", "possibly", "could be", "perhaps", "might be", "it's possible that", "not sure but",
}

var defaultAntonymPairs = [][2]string{
	{"increase", "decrease"},
	{"always", "never"},
	{"safe", "unsafe"},
	{"required", "optional"},
	{"enabled", "disabled"},
	{"included", "excluded"},
}

var defaultSuperlatives = []string{
	"best ever", "guaranteed", "100% certain", "never fails", "always works", "perfect solution",
}

var defaultSecretPatterns = []string{
	`AKIA[0-9A-Z]{16}`,                 // AWS access key
	`AIza[0-9A-Za-z\-_]{35}`,           // GCP API key
	`sk_live_[0-9a-zA-Z]{24,}`,         // Stripe live secret key
	`eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`, // JWT shape
}

var defaultDomainKeywords = map[string][]string{
	"marketing": {"campaign", "audience", "funnel", "conversion", "brand"},
	"technical": {"api", "schema", "deploy", "latency", "database"},
	"ops":       {"runbook", "incident", "on-call", "sla", "escalation"},
	"creative":  {"narrative", "tone", "visual", "copy", "storyboard"},
	"education": {"curriculum", "lesson", "learner", "assessment"},
	"product":   {"roadmap", "backlog", "persona", "feature"},
	"strategy":  {"moat", "positioning", "market", "competitive"},
	"research":  {"hypothesis", "sample", "methodology", "citation"},
	"finance":   {"npv", "irr", "roi", "cashflow", "valuation"},
}

// LoadConfig reads a YAML detector config from path, falling back
// silently to hardcoded defaults if the file does not exist.
func LoadConfig(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("detect: read config: %w", err)
	}

	var loaded Config
	if err := yaml.Unmarshal(raw, &loaded); err != nil {
		return fmt.Errorf("detect: parse config: %w", err)
	}

	cfgMu.Lock()
	cfg = &loaded
	cfgMu.Unlock()
	return nil
}

// ResetConfig clears the loaded config, restoring hardcoded defaults.
// Used by tests to ensure isolation.
func ResetConfig() {
	cfgMu.Lock()
	cfg = nil
	cfgMu.Unlock()
}

func current() *Config {
	cfgMu.RLock()
	defer cfgMu.RUnlock()
	return cfg
}

func sycophancyPhrases() []string {
	if c := current(); c != nil && len(c.SycophancyPhrases) > 0 {
		return c.SycophancyPhrases
	}
	return defaultSycophancyPhrases
}

func hedgePhrases() []string {
	if c := current(); c != nil && len(c.HedgePhrases) > 0 {
		return c.HedgePhrases
	}
	return defaultHedgePhrases
}

func antonymPairs() [][2]string {
	if c := current(); c != nil && len(c.AntonymPairs) > 0 {
		return c.AntonymPairs
	}
	return defaultAntonymPairs
}

func superlatives() []string {
	if c := current(); c != nil && len(c.Superlatives) > 0 {
		return c.Superlatives
	}
	return defaultSuperlatives
}

func secretPatterns() []string {
	if c := current(); c != nil && len(c.SecretPatterns) > 0 {
		return c.SecretPatterns
	}
	return defaultSecretPatterns
}

func domainKeywords() map[string][]string {
	if c := current(); c != nil && len(c.DomainKeywords) > 0 {
		return c.DomainKeywords
	}
	return defaultDomainKeywords
}

// defaultPlausibleNumericMax bounds Fabrication's numeric-claim check
// when no config overrides it.
const defaultPlausibleNumericMax = 1_000_000.0

// PlausibleNumericMax returns the configured numeric-claim ceiling
// Fabrication should be called with, falling back to a conservative
// default when unset.
func PlausibleNumericMax() float64 {
	if c := current(); c != nil && c.PlausibleNumericMax > 0 {
		return c.PlausibleNumericMax
	}
	return defaultPlausibleNumericMax
}

// Finding is one detector's evidence-bearing result.
type Finding struct {
	Fired    bool
	Evidence []string
}

var wordBoundary = func(phrase string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(phrase) + `\b`)
}

// Sycophancy fires when any configured sycophantic phrase appears,
// case-insensitive, at a word boundary.
func Sycophancy(text string) Finding {
	var evidence []string
	for _, phrase := range sycophancyPhrases() {
		if wordBoundary(phrase).MatchString(text) {
			evidence = append(evidence, phrase)
		}
	}
	return Finding{Fired: len(evidence) > 0, Evidence: evidence}
}

// Contradiction fires when two canonical antonyms both appear within a
// 3-sentence window, a proxy for the entity-level polarity clash the
// spec describes.
func Contradiction(text string) Finding {
	sentences := splitSentences(text)
	var evidence []string

	for i := range sentences {
		window := strings.ToLower(strings.Join(sentences[i:min(i+3, len(sentences))], " "))
		for _, pair := range antonymPairs() {
			if strings.Contains(window, pair[0]) && strings.Contains(window, pair[1]) {
				evidence = append(evidence, fmt.Sprintf("%q vs %q near sentence %d", pair[0], pair[1], i))
			}
		}
	}
	return Finding{Fired: len(evidence) > 0, Evidence: evidence}
}

// Ambiguity fires when hedge density exceeds 4 per 1000 tokens and no
// paragraph carries a numeric or capitalized named-entity anchor.
func Ambiguity(text string) Finding {
	tokens := strings.Fields(text)
	if len(tokens) == 0 {
		return Finding{}
	}

	hedgeCount := 0
	var evidence []string
	lower := strings.ToLower(text)
	for _, phrase := range hedgePhrases() {
		count := strings.Count(lower, phrase)
		if count > 0 {
			hedgeCount += count
			evidence = append(evidence, phrase)
		}
	}

	density := float64(hedgeCount) / float64(len(tokens)) * 1000
	hasAnchor := hasNumericOrEntityAnchor(text)

	return Finding{Fired: density >= 4 && !hasAnchor, Evidence: evidence}
}

var numericAnchor = regexp.MustCompile(`\d`)
var capitalizedWord = regexp.MustCompile(`\b[A-Z][a-z]+\b`)

func hasNumericOrEntityAnchor(text string) bool {
	return numericAnchor.MatchString(text) || capitalizedWord.MatchString(text)
}

// Overconfidence fires when superlative language appears without any
// accompanying acceptance test or falsification in the same artifact.
func Overconfidence(text string, hasAcceptanceOrFalsification bool) Finding {
	var evidence []string
	lower := strings.ToLower(text)
	for _, s := range superlatives() {
		if strings.Contains(lower, s) {
			evidence = append(evidence, s)
		}
	}
	return Finding{Fired: len(evidence) > 0 && !hasAcceptanceOrFalsification, Evidence: evidence}
}

var citationLike = regexp.MustCompile(`\(([A-Z][a-zA-Z]+),?\s*(19|20)\d{2}\)`)
var doiLike = regexp.MustCompile(`\b10\.\d{4,9}/\S+\b`)
var linkLike = regexp.MustCompile(`https?://\S+`)

// Fabrication fires when a citation-like pattern appears with no
// accompanying DOI or link, or when a numeric claim exceeds the
// domain's configured plausible maximum.
func Fabrication(text string, domainNumericMax float64) Finding {
	var evidence []string

	citations := citationLike.FindAllString(text, -1)
	for _, c := range citations {
		if !doiLike.MatchString(text) && !linkLike.MatchString(text) {
			evidence = append(evidence, "uncorroborated citation: "+c)
		}
	}

	if domainNumericMax > 0 {
		for _, n := range extractLargeNumbers(text) {
			if n > domainNumericMax {
				evidence = append(evidence, fmt.Sprintf("implausible numeric claim: %v", n))
			}
		}
	}

	return Finding{Fired: len(evidence) > 0, Evidence: evidence}
}

var largeNumber = regexp.MustCompile(`\b\d{4,}(\.\d+)?\b`)

func extractLargeNumbers(text string) []float64 {
	var out []float64
	for _, m := range largeNumber.FindAllString(text, -1) {
		var f float64
		if _, err := fmt.Sscanf(m, "%f", &f); err == nil {
			out = append(out, f)
		}
	}
	return out
}

// base64Run matches candidate base64-charset substrings long enough to
// plausibly be an encoded key or token rather than an ordinary word.
var base64Run = regexp.MustCompile(`[A-Za-z0-9+/]{24,}={0,2}`)

// highEntropyBase64MinBits is the minimum Shannon entropy, in bits per
// character, a base64-charset run must carry before it is treated as
// a likely high-entropy secret rather than ordinary identifier text
// (identifiers and prose cluster much lower, typically under 3.5).
const highEntropyBase64MinBits = 4.0

// shannonEntropy returns s's Shannon entropy in bits per character.
func shannonEntropy(s string) float64 {
	if s == "" {
		return 0
	}
	counts := make(map[rune]int)
	for _, r := range s {
		counts[r]++
	}
	n := float64(len(s))
	entropy := 0.0
	for _, count := range counts {
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// highEntropyBase64 returns every base64-shaped run in text whose
// Shannon entropy clears highEntropyBase64MinBits, the spec's generic
// catch-all alongside the named AWS/GCP/Stripe/JWT shapes.
func highEntropyBase64(text string) []string {
	var hits []string
	for _, m := range base64Run.FindAllString(text, -1) {
		if shannonEntropy(m) >= highEntropyBase64MinBits {
			hits = append(hits, m)
		}
	}
	return hits
}

// Secrets fires when any configured secret-shape regex matches, or a
// high-entropy base64-shaped run is found.
func Secrets(text string) Finding {
	var evidence []string
	for _, pattern := range secretPatterns() {
		re, err := regexp.Compile(pattern)
		if err != nil {
			continue
		}
		if m := re.FindString(text); m != "" {
			evidence = append(evidence, TruncateEvidence(m))
		}
	}
	for _, m := range highEntropyBase64(text) {
		evidence = append(evidence, TruncateEvidence(m))
	}
	return Finding{Fired: len(evidence) > 0, Evidence: evidence}
}

// TruncateEvidence keeps secret evidence snippets short so a detected
// key is never fully reproduced in logs or ledger entries.
func TruncateEvidence(s string) string {
	if len(s) <= 12 {
		return s
	}
	return s[:6] + "..." + s[len(s)-4:]
}

// DomainMisrouting fires when the text's dominant keyword cluster
// disagrees with the declared domain, using a simple bag-of-keywords
// score against each domain's keyword list.
func DomainMisrouting(text string, declared models.Domain) Finding {
	lower := strings.ToLower(text)
	scores := make(map[string]int)
	for domain, words := range domainKeywords() {
		for _, w := range words {
			scores[domain] += strings.Count(lower, w)
		}
	}

	best, bestScore := "", 0
	for domain, score := range scores {
		if score > bestScore {
			best, bestScore = domain, score
		}
	}

	if best == "" || bestScore == 0 {
		return Finding{}
	}
	if best == string(declared) {
		return Finding{}
	}
	return Finding{Fired: true, Evidence: []string{fmt.Sprintf("dominant keyword cluster suggests %q, declared %q", best, declared)}}
}

// ObservabilityGap fires when the Critic's findings carry no
// cross-kind references at all (an empty or entirely single-kind
// critique set).
func ObservabilityGap(critiques []models.Critique) Finding {
	if len(critiques) == 0 {
		return Finding{Fired: true, Evidence: []string{"no critique findings produced"}}
	}
	for _, c := range critiques {
		kinds := make(map[string]bool)
		for _, ref := range c.Refs {
			if len(ref) > 0 {
				kinds[string(ref[0])] = true
			}
		}
		if len(kinds) >= 2 {
			return Finding{}
		}
	}
	return Finding{Fired: true, Evidence: []string{"no critique finding cross-references more than one artifact kind"}}
}

// CountHedges returns the total number of hedge-phrase occurrences in
// text, for callers (like taes) that need a raw count rather than a
// fired/not-fired signal.
func CountHedges(text string) int {
	lower := strings.ToLower(text)
	count := 0
	for _, phrase := range hedgePhrases() {
		count += strings.Count(lower, phrase)
	}
	return count
}

// CountContradictions returns the number of antonym-pair windows found
// across the text, for callers that need a raw count rather than a
// fired/not-fired signal.
func CountContradictions(text string) int {
	return len(Contradiction(text).Evidence)
}

func splitSentences(text string) []string {
	raw := regexp.MustCompile(`[.!?]+\s*`).Split(text, -1)
	var out []string
	for _, s := range raw {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
