// Package entity resolves free-text counterparty names into stable
// canonical entities. The "same name, many spellings" problem is treated
// as clustering over observed aliases: aliases accrete onto entities and
// are never reassigned, with a manual override table as pinned,
// unbreakable edges that the automatic path can neither override nor
// bypass.
package entity

import (
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// Config carries the resolver thresholds.
type Config struct {
	// MatchThreshold is the minimum similarity for an automatic merge.
	MatchThreshold float64
	// ReviewThreshold is the lower bound of the near-miss band: a best
	// match scoring in [ReviewThreshold, MatchThreshold) creates a new
	// entity and emits a possible-duplicate signal for human review
	// instead of guessing.
	ReviewThreshold float64
}

func (c *Config) applyDefaults() {
	if c.MatchThreshold == 0 {
		c.MatchThreshold = 0.88
	}
	if c.ReviewThreshold == 0 {
		c.ReviewThreshold = 0.72
	}
}

// Resolver maps raw party names to entity ids. Matching runs under a
// read lock; entity creation and alias binding serialize on the write
// lock so two concurrent workers can never mint duplicate entities for
// the same previously-unseen name.
type Resolver struct {
	mu         sync.RWMutex
	entities   map[string]*domain.Entity
	aliasIndex map[string]string // normalized alias -> entity id
	codeIndex  map[string]string // external party code -> entity id
	overrides  map[string]string // normalized alias -> entity id, pinned

	cfg    Config
	logger *slog.Logger
	clock  func() time.Time
	newID  func() string

	sinkMu sync.Mutex
	sink   func(domain.Signal)
}

// NewResolver creates a resolver seeded with known entities.
func NewResolver(cfg Config, seed []domain.Entity, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cfg.applyDefaults()
	r := &Resolver{
		entities:   make(map[string]*domain.Entity),
		aliasIndex: make(map[string]string),
		codeIndex:  make(map[string]string),
		overrides:  make(map[string]string),
		cfg:        cfg,
		logger:     logger,
		clock:      time.Now,
		newID:      uuid.NewString,
	}
	for i := range seed {
		e := seed[i]
		r.entities[e.ID] = &e
		r.aliasIndex[normalizeName(e.CanonicalName)] = e.ID
		for _, alias := range e.Aliases {
			r.aliasIndex[normalizeName(alias)] = e.ID
		}
	}
	return r
}

// SetSignalSink installs the destination for review signals.
func (r *Resolver) SetSignalSink(sink func(domain.Signal)) {
	r.sinkMu.Lock()
	r.sink = sink
	r.sinkMu.Unlock()
}

// AddOverride pins an alias to an entity. Overrides take precedence over
// every automatic rule.
func (r *Resolver) AddOverride(alias, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.overrides[normalizeName(alias)] = entityID
}

// RegisterCode binds a stable external party code to an entity.
func (r *Resolver) RegisterCode(code, entityID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.codeIndex[strings.ToUpper(strings.TrimSpace(code))] = entityID
}

// Resolve returns the entity id for a raw party name, creating a new
// entity when nothing matches confidently. An empty name resolves to "".
// A non-empty externalCode is authoritative when already bound, and is
// bound to whatever entity the name resolves to otherwise, so the next
// record carrying the code skips fuzzy matching entirely.
func (r *Resolver) Resolve(rawName, externalCode string) string {
	norm := normalizeName(rawName)
	if norm == "" {
		return ""
	}
	code := strings.ToUpper(strings.TrimSpace(externalCode))

	r.mu.RLock()
	if id, ok := r.lookupLocked(norm, code); ok && (code == "" || r.codeIndex[code] == id) {
		r.mu.RUnlock()
		return id
	}
	best, bestScore := r.bestMatchLocked(norm)
	r.mu.RUnlock()

	r.mu.Lock()
	defer r.mu.Unlock()

	// Re-check under the write lock: another worker may have bound the
	// alias while we were scoring.
	if id, ok := r.lookupLocked(norm, code); ok {
		r.bindCodeLocked(code, id)
		return id
	}

	if best != "" && bestScore >= r.cfg.MatchThreshold {
		e := r.entities[best]
		e.Aliases = append(e.Aliases, strings.TrimSpace(rawName))
		r.aliasIndex[norm] = best
		r.bindCodeLocked(code, best)
		r.logger.Debug("alias merged",
			"alias", rawName,
			"entity", e.CanonicalName,
			"similarity", bestScore,
		)
		return best
	}

	// Below threshold: never silently merge plausibly-distinct entities.
	id := r.createLocked(rawName, norm)
	r.bindCodeLocked(code, id)
	if best != "" && bestScore >= r.cfg.ReviewThreshold {
		r.emitPossibleDuplicate(rawName, id, r.entities[best], bestScore)
	}
	return id
}

// EntityByID returns a copy of the entity.
func (r *Resolver) EntityByID(id string) (domain.Entity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entities[id]
	if !ok {
		return domain.Entity{}, false
	}
	return *e, true
}

// Entities returns a snapshot of all entities, ordered by creation time.
func (r *Resolver) Entities() []domain.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// RecordCommodity notes that an entity traded a commodity.
func (r *Resolver) RecordCommodity(entityID, hctID string) {
	if entityID == "" || hctID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entities[entityID]
	if !ok {
		return
	}
	for _, c := range e.Commodities {
		if c == hctID {
			return
		}
	}
	e.Commodities = append(e.Commodities, hctID)
}

// lookupLocked tries the exact paths in precedence order: pinned
// override, bound external code, known alias. code must already be
// upper-cased and trimmed.
func (r *Resolver) lookupLocked(norm, code string) (string, bool) {
	if id, ok := r.overrides[norm]; ok {
		return id, true
	}
	if code != "" {
		if id, ok := r.codeIndex[code]; ok {
			return id, true
		}
	}
	if id, ok := r.aliasIndex[norm]; ok {
		return id, true
	}
	return "", false
}

// bindCodeLocked records a first-seen external code against an entity.
// An already-bound code is left alone: codes are stable identifiers and
// never reassigned by the automatic path.
func (r *Resolver) bindCodeLocked(code, entityID string) {
	if code == "" {
		return
	}
	if _, ok := r.codeIndex[code]; ok {
		return
	}
	r.codeIndex[code] = entityID
}

// bestMatchLocked scores norm against every canonical name and alias.
// Ties break deterministically: highest similarity, then earliest
// created entity, then lowest id.
func (r *Resolver) bestMatchLocked(norm string) (string, float64) {
	bestID := ""
	bestScore := 0.0
	var bestCreated time.Time
	for alias, id := range r.aliasIndex {
		score := similarity(norm, alias)
		if score < bestScore {
			continue
		}
		created := r.entities[id].CreatedAt
		if score > bestScore ||
			created.Before(bestCreated) ||
			(created.Equal(bestCreated) && id < bestID) {
			bestID = id
			bestScore = score
			bestCreated = created
		}
	}
	return bestID, bestScore
}

func (r *Resolver) createLocked(rawName, norm string) string {
	id := r.newID()
	r.entities[id] = &domain.Entity{
		ID:            id,
		CanonicalName: strings.TrimSpace(rawName),
		Class:         domain.EntityUnclassified,
		CreatedAt:     r.clock().UTC(),
	}
	r.aliasIndex[norm] = id
	return id
}

func (r *Resolver) emitPossibleDuplicate(rawName, newID string, near *domain.Entity, score float64) {
	r.sinkMu.Lock()
	sink := r.sink
	r.sinkMu.Unlock()
	if sink == nil {
		return
	}
	sink(domain.Signal{
		ID:       r.newID(),
		Type:     domain.SignalPossibleDuplicate,
		Severity: domain.SeverityLow,
		Headline: "Possible duplicate entity: \"" + rawName + "\" near \"" + near.CanonicalName + "\"",
		Detail: map[string]any{
			"new_entity_id":      newID,
			"existing_entity_id": near.ID,
			"similarity":         score,
		},
		EmittedAt: r.clock().UTC(),
	})
}

var nonAlnum = regexp.MustCompile(`[^A-Z0-9 ]+`)
var multiSpace = regexp.MustCompile(`\s+`)

// corporate suffixes that carry no identity signal.
var stopTokens = map[string]bool{
	"LTD": true, "LIMITED": true, "PVT": true, "PRIVATE": true,
	"INC": true, "LLC": true, "CO": true, "COMPANY": true,
	"CORP": true, "CORPORATION": true, "PLC": true, "GMBH": true,
	"SA": true, "SARL": true, "BV": true, "PTE": true,
}

// normalizeName canonicalizes a party name for indexing: upper-case,
// punctuation stripped, corporate suffixes dropped.
func normalizeName(name string) string {
	s := strings.ToUpper(strings.TrimSpace(name))
	if s == "" {
		return ""
	}
	s = nonAlnum.ReplaceAllString(s, " ")
	tokens := multiSpace.Split(strings.TrimSpace(s), -1)
	kept := tokens[:0]
	for _, t := range tokens {
		if t == "" || stopTokens[t] {
			continue
		}
		kept = append(kept, t)
	}
	if len(kept) == 0 {
		kept = tokens
	}
	return strings.Join(kept, " ")
}
