package zapcard

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
)

// Speed buckets for typing and scrolling pace.
const (
	SpeedSlow   = "slow"
	SpeedMedium = "medium"
	SpeedFast   = "fast"
)

// HumanizeConfig holds the timing ranges for simulated interaction. These are
// plain tuning constants; a uniform PRNG is all the randomness needed here.
type HumanizeConfig struct {
	TypingSpeed string `yaml:"typing_speed"`
	ScrollSpeed string `yaml:"scroll_speed"`

	PreActionPauseMinMs  int `yaml:"pre_action_pause_min_ms"`
	PreActionPauseMaxMs  int `yaml:"pre_action_pause_max_ms"`
	PostClickPauseMinMs  int `yaml:"post_click_pause_min_ms"`
	PostClickPauseMaxMs  int `yaml:"post_click_pause_max_ms"`
	ElementWaitTimeoutMs int `yaml:"element_wait_timeout_ms"`

	ExploreProbability      float64 `yaml:"explore_probability"`
	ExploreClickProbability float64 `yaml:"explore_click_probability"`
	ExploreBackProbability  float64 `yaml:"explore_back_probability"`
}

func DefaultHumanizeConfig() HumanizeConfig {
	return HumanizeConfig{
		TypingSpeed:             SpeedMedium,
		ScrollSpeed:             SpeedMedium,
		PreActionPauseMinMs:     300,
		PreActionPauseMaxMs:     800,
		PostClickPauseMinMs:     500,
		PostClickPauseMaxMs:     1000,
		ElementWaitTimeoutMs:    10000,
		ExploreProbability:      0.30,
		ExploreClickProbability: 0.20,
		ExploreBackProbability:  0.50,
	}
}

// Humanizer performs UI actions through randomized multi-step timing instead
// of single instantaneous automation calls. Every primitive swallows the
// underlying error, logs it, and reports success as a bool: a false means
// "did not happen" and the enclosing step decides whether that fails it.
type Humanizer struct {
	page  Page
	cfg   HumanizeConfig
	log   zerolog.Logger
	rand  *rand.Rand
	sleep func(time.Duration)
}

func NewHumanizer(page Page, cfg HumanizeConfig, log zerolog.Logger) *Humanizer {
	return &Humanizer{
		page:  page,
		cfg:   cfg,
		log:   log,
		rand:  rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep: time.Sleep,
	}
}

func (h *Humanizer) elementTimeout() time.Duration {
	return time.Duration(h.cfg.ElementWaitTimeoutMs) * time.Millisecond
}

// Click moves a simulated pointer to a random point inside the target's
// bounding box, pauses like a human lining up a click, then clicks.
func (h *Humanizer) Click(sel string) bool {
	el, err := h.page.Element(sel, h.elementTimeout())
	if err != nil {
		h.log.Debug().Str("selector", sel).Err(err).Msg("click target not found")
		return false
	}
	return h.clickElement(sel, el)
}

func (h *Humanizer) clickElement(sel string, el Element) bool {
	h.approach(el)
	h.pauseRange(h.cfg.PreActionPauseMinMs, h.cfg.PreActionPauseMaxMs)

	if err := el.Click(); err != nil {
		h.log.Debug().Str("selector", sel).Err(err).Msg("click failed")
		return false
	}

	h.pauseRange(h.cfg.PostClickPauseMinMs, h.cfg.PostClickPauseMaxMs)
	return true
}

// Type fills the target with text one character at a time, with per-character
// delays drawn from the configured speed bucket. When clear is set the field
// is emptied first.
func (h *Humanizer) Type(sel, text string, clear bool) bool {
	el, err := h.page.Element(sel, h.elementTimeout())
	if err != nil {
		h.log.Debug().Str("selector", sel).Err(err).Msg("type target not found")
		return false
	}

	h.approach(el)
	h.pauseRange(h.cfg.PreActionPauseMinMs, h.cfg.PreActionPauseMaxMs)

	if clear {
		if err := el.Clear(); err != nil {
			h.log.Debug().Str("selector", sel).Err(err).Msg("failed to clear field")
			return false
		}
	}

	minDelay, maxDelay := typingDelayRange(h.cfg.TypingSpeed)
	for _, ch := range text {
		if err := el.Input(string(ch)); err != nil {
			h.log.Debug().Str("selector", sel).Err(err).Msg("typing interrupted")
			return false
		}
		h.pauseRange(minDelay, maxDelay)
	}

	h.pauseRange(h.cfg.PreActionPauseMinMs, h.cfg.PreActionPauseMaxMs)
	return true
}

// Scroll scrolls the page by distance pixels (random 100-500 when zero),
// broken into 10-30px chunks with speed-dependent inter-chunk delays.
func (h *Humanizer) Scroll(distance int) bool {
	if distance == 0 {
		distance = 100 + h.rand.Intn(401)
	}

	minDelay, maxDelay := scrollDelayRange(h.cfg.ScrollSpeed)

	remaining := distance
	sign := 1
	if remaining < 0 {
		sign = -1
		remaining = -remaining
	}

	for remaining > 0 {
		chunk := 10 + h.rand.Intn(21)
		if chunk > remaining {
			chunk = remaining
		}
		remaining -= chunk

		js := fmt.Sprintf(`() => window.scrollBy(0, %d)`, chunk*sign)
		if _, err := h.page.Eval(js); err != nil {
			h.log.Debug().Err(err).Msg("scroll failed")
			return false
		}
		h.pauseRange(minDelay, maxDelay)
	}

	h.pauseRange(h.cfg.PreActionPauseMinMs, h.cfg.PreActionPauseMaxMs)
	return true
}

// Explore performs filler actions with a fixed probability: scrolling,
// idling, or hovering over a random interactive element. An incidental click
// may happen, and may in turn trigger a navigate-back recovery. Exploration
// is pure noise for anti-automation heuristics; it never fails the flow.
func (h *Humanizer) Explore() {
	if h.rand.Float64() >= h.cfg.ExploreProbability {
		return
	}

	actions := 1 + h.rand.Intn(3)
	h.log.Debug().Int("actions", actions).Msg("exploring page")

	for i := 0; i < actions; i++ {
		switch h.rand.Intn(3) {
		case 0:
			h.Scroll(0)
		case 1:
			h.pauseRange(800, 2000)
		case 2:
			h.hoverRandomElement()
		}
		h.pauseRange(500, 1500)
	}
}

func (h *Humanizer) hoverRandomElement() {
	els, err := h.page.Elements("a, button")
	if err != nil || len(els) == 0 {
		return
	}

	el := els[h.rand.Intn(len(els))]
	if visible, err := el.Visible(); err != nil || !visible {
		return
	}

	if err := el.Hover(); err != nil {
		h.log.Debug().Err(err).Msg("exploratory hover failed")
		return
	}

	if h.rand.Float64() < h.cfg.ExploreClickProbability {
		if err := el.Click(); err != nil {
			return
		}
		h.pauseRange(500, 1500)
		if h.rand.Float64() < h.cfg.ExploreBackProbability {
			if _, err := h.page.Eval(`() => history.back()`); err == nil {
				h.pauseRange(800, 2000)
			}
		}
	}
}

// approach dispatches pointer movement toward a random point inside the
// element's box, so the eventual click has a plausible hover trail.
func (h *Humanizer) approach(el Element) {
	box, err := el.Box()
	if err != nil {
		return
	}

	x := box.X + h.rand.Float64()*box.Width
	y := box.Y + h.rand.Float64()*box.Height

	if err := h.page.MoveMouse(x, y); err != nil {
		h.log.Debug().Err(err).Msg("pointer move failed")
	}
	if err := el.Hover(); err != nil {
		h.log.Debug().Err(err).Msg("hover failed")
	}
}

func (h *Humanizer) pauseRange(minMs, maxMs int) {
	if maxMs <= minMs {
		h.sleep(time.Duration(minMs) * time.Millisecond)
		return
	}
	ms := minMs + h.rand.Intn(maxMs-minMs+1)
	h.sleep(time.Duration(ms) * time.Millisecond)
}

func typingDelayRange(speed string) (int, int) {
	switch speed {
	case SpeedSlow:
		return 100, 200
	case SpeedFast:
		return 30, 70
	default:
		return 70, 120
	}
}

func scrollDelayRange(speed string) (int, int) {
	switch speed {
	case SpeedSlow:
		return 40, 60
	case SpeedFast:
		return 10, 20
	default:
		return 20, 40
	}
}
