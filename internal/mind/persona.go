package mind

import (
	"log"
	"os"
	"strings"
	"sync"
)

// FallbackBasePrompt is used when the base prompt document cannot be read.
const FallbackBasePrompt = "You are a helpful, friendly AI assistant. Be concise and helpful."

// Traits shape the persona clause of the system prompt. Each value comes
// from a small fixed vocabulary; unknown values emit no clause.
type Traits struct {
	Formality   string // formal, casual, friendly
	Humor       string // none, light, moderate, heavy
	Helpfulness string // low, medium, high
	Creativity  string // low, medium, high
}

// Settings is the process-wide persona configuration. One value for the
// whole bot, mutated only by admin commands.
type Settings struct {
	SystemPrompt             string
	SafetyLevel              string // strict, moderate, permissive
	Temperature              float64
	MaxResponseLength        int
	ContextLength            int
	ContextEnabled           bool
	AutoReplyEnabled         bool
	AutoReplyTriggerWords    []string
	AutoReplyProbability     float64
	AutoReplyCooldownSeconds int
	Traits                   Traits
}

var formalityClauses = map[string]string{
	"formal":   "Respond in a formal, professional tone.",
	"casual":   "Respond in a casual, conversational tone.",
	"friendly": "Respond in a warm, friendly tone.",
}

var humorClauses = map[string]string{
	"light":    "Occasionally use light humor when appropriate.",
	"moderate": "Use humor moderately to make responses engaging.",
	"heavy":    "Use humor frequently to make responses entertaining.",
}

var helpfulnessClauses = map[string]string{
	"high":   "Be extremely helpful and thorough in your responses.",
	"medium": "Be helpful and informative in your responses.",
}

var creativityClauses = map[string]string{
	"high":   "Be creative and think outside the box.",
	"medium": "Be moderately creative in your responses.",
}

var safetyClauses = map[string]string{
	"strict": "Never provide harmful, illegal, or inappropriate content. " +
		"Always prioritize safety and ethical considerations. " +
		"Refuse requests that could cause harm.",
	"moderate": "Avoid harmful or inappropriate content. " +
		"Be cautious with sensitive topics and provide balanced perspectives.",
	"permissive": "Be helpful while being mindful of content appropriateness.",
}

// Persona holds the live settings behind a lock. Admission reads and
// admin writes may run concurrently.
type Persona struct {
	mu       sync.RWMutex
	basePath string
	settings Settings
}

// NewPersona loads the base prompt document from basePath and installs
// the default settings. A missing or unreadable document is not fatal.
func NewPersona(basePath string) *Persona {
	p := &Persona{basePath: basePath}
	p.settings = defaultSettings(p.loadBase())
	return p
}

func (p *Persona) loadBase() string {
	b, err := os.ReadFile(p.basePath)
	if err != nil {
		log.Printf("[WARN] Base prompt %s not readable (%v), using built-in default", p.basePath, err)
		return FallbackBasePrompt
	}
	base := strings.TrimSpace(string(b))
	if base == "" {
		return FallbackBasePrompt
	}
	log.Printf("[INFO] Loaded base prompt from %s", p.basePath)
	return base
}

func defaultSettings(basePrompt string) Settings {
	return Settings{
		SystemPrompt:             basePrompt,
		SafetyLevel:              "moderate",
		Temperature:              0.7,
		MaxResponseLength:        2000,
		ContextLength:            10,
		ContextEnabled:           true,
		AutoReplyEnabled:         true,
		AutoReplyProbability:     1.0,
		AutoReplyCooldownSeconds: 10,
		Traits: Traits{
			Formality:   "casual",
			Humor:       "light",
			Helpfulness: "high",
			Creativity:  "medium",
		},
	}
}

// Snapshot returns a copy of the current settings.
func (p *Persona) Snapshot() Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	s := p.settings
	s.AutoReplyTriggerWords = append([]string(nil), p.settings.AutoReplyTriggerWords...)
	return s
}

// TraitsUpdate is a partial trait change; nil fields keep current values.
type TraitsUpdate struct {
	Formality   *string
	Humor       *string
	Helpfulness *string
	Creativity  *string
}

// Update is a partial settings change; nil fields keep current values.
// Trait updates merge per trait key.
type Update struct {
	SystemPrompt             *string
	SafetyLevel              *string
	Temperature              *float64
	MaxResponseLength        *int
	ContextLength            *int
	ContextEnabled           *bool
	AutoReplyEnabled         *bool
	AutoReplyTriggerWords    *[]string
	AutoReplyProbability     *float64
	AutoReplyCooldownSeconds *int
	Traits                   *TraitsUpdate
}

func (p *Persona) Apply(u Update) {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := &p.settings
	if u.SystemPrompt != nil {
		s.SystemPrompt = *u.SystemPrompt
	}
	if u.SafetyLevel != nil {
		s.SafetyLevel = *u.SafetyLevel
	}
	if u.Temperature != nil {
		s.Temperature = *u.Temperature
	}
	if u.MaxResponseLength != nil {
		s.MaxResponseLength = *u.MaxResponseLength
	}
	if u.ContextLength != nil {
		s.ContextLength = *u.ContextLength
	}
	if u.ContextEnabled != nil {
		s.ContextEnabled = *u.ContextEnabled
	}
	if u.AutoReplyEnabled != nil {
		s.AutoReplyEnabled = *u.AutoReplyEnabled
	}
	if u.AutoReplyTriggerWords != nil {
		s.AutoReplyTriggerWords = *u.AutoReplyTriggerWords
	}
	if u.AutoReplyProbability != nil {
		s.AutoReplyProbability = *u.AutoReplyProbability
	}
	if u.AutoReplyCooldownSeconds != nil {
		s.AutoReplyCooldownSeconds = *u.AutoReplyCooldownSeconds
	}
	if u.Traits != nil {
		if u.Traits.Formality != nil {
			s.Traits.Formality = *u.Traits.Formality
		}
		if u.Traits.Humor != nil {
			s.Traits.Humor = *u.Traits.Humor
		}
		if u.Traits.Helpfulness != nil {
			s.Traits.Helpfulness = *u.Traits.Helpfulness
		}
		if u.Traits.Creativity != nil {
			s.Traits.Creativity = *u.Traits.Creativity
		}
	}
}

// Reset re-reads the base prompt document and restores the default bundle.
func (p *Persona) Reset() {
	base := p.loadBase()
	p.mu.Lock()
	p.settings = defaultSettings(base)
	p.mu.Unlock()
}

// Clear installs a minimal neutral persona. Auto-reply is switched off
// rather than left dangling: a cleared bot answers mentions and DMs only.
func (p *Persona) Clear() {
	p.mu.Lock()
	p.settings = Settings{
		SystemPrompt:             "You are an AI assistant.",
		SafetyLevel:              "moderate",
		Temperature:              0.7,
		MaxResponseLength:        2000,
		ContextLength:            10,
		ContextEnabled:           true,
		AutoReplyEnabled:         false,
		AutoReplyProbability:     0,
		AutoReplyCooldownSeconds: 10,
		Traits: Traits{
			Formality:   "casual",
			Humor:       "none",
			Helpfulness: "medium",
			Creativity:  "low",
		},
	}
	p.mu.Unlock()
}

// ReloadBase re-reads the base prompt document and replaces only the
// system prompt, leaving every other setting untouched.
func (p *Persona) ReloadBase() {
	base := p.loadBase()
	p.mu.Lock()
	p.settings.SystemPrompt = base
	p.mu.Unlock()
}

// RenderSystemPrompt composes base prompt, trait clauses, and the safety
// clause. Sections with nothing to say are omitted.
func (p *Persona) RenderSystemPrompt() string {
	s := p.Snapshot()

	var clauses []string
	if c, ok := formalityClauses[s.Traits.Formality]; ok {
		clauses = append(clauses, c)
	}
	if c, ok := humorClauses[s.Traits.Humor]; ok {
		clauses = append(clauses, c)
	}
	if c, ok := helpfulnessClauses[s.Traits.Helpfulness]; ok {
		clauses = append(clauses, c)
	}
	if c, ok := creativityClauses[s.Traits.Creativity]; ok {
		clauses = append(clauses, c)
	}

	var b strings.Builder
	b.WriteString(s.SystemPrompt)
	b.WriteString("\n\n")
	if len(clauses) > 0 {
		b.WriteString("Personality: ")
		b.WriteString(strings.Join(clauses, " "))
		b.WriteString("\n\n")
	}
	if safety, ok := safetyClauses[s.SafetyLevel]; ok {
		b.WriteString("Safety Guidelines: ")
		b.WriteString(safety)
		b.WriteString("\n\n")
	}
	return b.String()
}
