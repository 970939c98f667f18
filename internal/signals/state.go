package signals

import (
	"sort"
	"sync"
	"time"

	"github.com/sri0310-dev/tesseract/pkg/contracts/domain"
)

// State is the lifecycle stage of a tracked condition.
type State string

const (
	StateQuiet        State = "QUIET"
	StateWatch        State = "WATCH"
	StateAlert        State = "ALERT"
	StateAcknowledged State = "ACKNOWLEDGED"
	StateExpired      State = "EXPIRED"
)

// TrackerConfig tunes the escalation machine.
type TrackerConfig struct {
	// ConsecutiveForAlert is how many consecutive evaluations a condition
	// must persist before escalating from watch to alert. Default 2.
	ConsecutiveForAlert int
	// Cooldown suppresses re-alerting on the same condition after an
	// alert fires. Default 24h.
	Cooldown time.Duration
	// TTL expires a condition that stopped triggering. Default 72h.
	TTL time.Duration
}

func (c *TrackerConfig) applyDefaults() {
	if c.ConsecutiveForAlert == 0 {
		c.ConsecutiveForAlert = 2
	}
	if c.Cooldown == 0 {
		c.Cooldown = 24 * time.Hour
	}
	if c.TTL == 0 {
		c.TTL = 72 * time.Hour
	}
}

type condition struct {
	state       State
	consecutive int
	lastSeen    time.Time
	lastAlertAt time.Time
	signal      domain.Signal
}

// Tracker runs the quiet -> watch -> alert lifecycle for recurring
// conditions, keyed by signal type, commodity and corridor. Observe is
// fed every candidate signal the generator produces; a first sighting
// emits a watch entry, and only conditions that persist escalate to
// alert.
type Tracker struct {
	mu    sync.Mutex
	cfg   TrackerConfig
	conds map[string]*condition
	clock func() time.Time
}

// NewTracker creates a signal tracker.
func NewTracker(cfg TrackerConfig) *Tracker {
	cfg.applyDefaults()
	return &Tracker{
		cfg:   cfg,
		conds: make(map[string]*condition),
		clock: time.Now,
	}
}

// Observe feeds a candidate signal. It returns the signal and true on
// every state transition that emits: entry into watch, escalation to
// alert, and re-alert after the cooldown; repeat observations inside a
// state advance silently.
func (t *Tracker) Observe(sig domain.Signal) (domain.Signal, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()

	key := conditionKey(sig)
	c, ok := t.conds[key]
	if !ok {
		c = &condition{state: StateQuiet}
		t.conds[key] = c
	}
	c.lastSeen = now
	c.signal = sig
	c.consecutive++

	switch c.state {
	case StateQuiet, StateExpired:
		c.state = StateWatch
		c.consecutive = 1
		return sig, true
	case StateWatch:
		if c.consecutive >= t.cfg.ConsecutiveForAlert {
			c.state = StateAlert
			c.lastAlertAt = now
			return sig, true
		}
	case StateAlert, StateAcknowledged:
		if now.Sub(c.lastAlertAt) >= t.cfg.Cooldown {
			c.state = StateAlert
			c.lastAlertAt = now
			return sig, true
		}
	}
	return domain.Signal{}, false
}

// Tick winds down conditions that have stopped triggering: an alert
// that goes a full cooldown without re-observation reverts to quiet,
// and any condition silent past the TTL expires. Call it once per
// evaluation cycle after observing the cycle's candidates.
func (t *Tracker) Tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	now := t.clock()
	for _, c := range t.conds {
		if c.state == StateExpired {
			continue
		}
		idle := now.Sub(c.lastSeen)
		if idle >= t.cfg.TTL {
			c.state = StateExpired
			c.consecutive = 0
			continue
		}
		if (c.state == StateAlert || c.state == StateAcknowledged) && idle >= t.cfg.Cooldown {
			c.state = StateQuiet
			c.consecutive = 0
		}
	}
}

// Acknowledge marks an alerted condition as seen by a human, which
// keeps it from re-alerting until the cooldown elapses again.
func (t *Tracker) Acknowledge(signalID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, c := range t.conds {
		if c.signal.ID == signalID && c.state == StateAlert {
			c.state = StateAcknowledged
			c.signal.Acknowledged = true
			return true
		}
	}
	return false
}

// Active returns the currently alerting or acknowledged signals, most
// severe first, then most recent.
func (t *Tracker) Active() []domain.Signal {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []domain.Signal
	for _, c := range t.conds {
		if c.state == StateAlert || c.state == StateAcknowledged {
			out = append(out, c.signal)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Severity.Rank() != out[j].Severity.Rank() {
			return out[i].Severity.Rank() < out[j].Severity.Rank()
		}
		return out[i].EmittedAt.After(out[j].EmittedAt)
	})
	return out
}

// StateOf reports the lifecycle stage of the condition behind a signal.
func (t *Tracker) StateOf(sig domain.Signal) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.conds[conditionKey(sig)]
	if !ok {
		return StateQuiet
	}
	return c.state
}

func conditionKey(sig domain.Signal) string {
	return string(sig.Type) + "|" + sig.HCTID + "|" + sig.Corridor
}
