package zapcard

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// ConsentConfig describes the optional cookie-consent interstitial the
// checkout widget may show. Candidates are dismissal selectors ordered
// most-specific first; the resolver walks them until one works.
type ConsentConfig struct {
	DialogSelector string   `yaml:"dialog_selector"`
	Candidates     []string `yaml:"candidates"`

	// StorageKey is the consent state the dialog gates. Used by the terminal
	// fallback that accepts minimal consent directly.
	StorageKey string `yaml:"storage_key"`
}

func DefaultConsentConfig() ConsentConfig {
	return ConsentConfig{
		DialogSelector: "#cookie-consent, .cookie-banner, [data-testid='consent-dialog']",
		Candidates: []string{
			"#cookie-consent button[data-action='accept-necessary']",
			".cookie-banner .accept-minimal",
			"[data-testid='consent-dialog'] button.secondary",
			".cookie-banner button",
		},
		StorageKey: "cookie_consent",
	}
}

// resolveConsent dismisses the consent interstitial if one is present. It is
// strictly best-effort: every failure is logged and swallowed so the calling
// step proceeds regardless.
func resolveConsent(page Page, human *Humanizer, cfg ConsentConfig, log zerolog.Logger) {
	// Give the dialog a beat to animate in, like a person noticing it.
	human.pauseRange(500, 1500)

	_, err := page.Element(cfg.DialogSelector, 2*time.Second)
	if err != nil {
		log.Debug().Msg("no consent dialog present")
		return
	}

	log.Debug().Msg("consent dialog detected")
	human.Scroll(80)

	for _, candidate := range cfg.Candidates {
		if _, err := page.Element(candidate, 500*time.Millisecond); err != nil {
			continue
		}
		if !human.Click(candidate) {
			continue
		}
		if waitDialogGone(page, cfg.DialogSelector, 2*time.Second) {
			log.Debug().Str("candidate", candidate).Msg("consent dialog dismissed")
			return
		}
	}

	// No candidate worked. Two best-effort recoveries, both always attempted:
	// accept minimal consent directly, then hide the dialog outright.
	acceptJS := fmt.Sprintf(`() => {
		try {
			document.cookie = %q + '=minimal; path=/';
			localStorage.setItem(%q, 'minimal');
		} catch (e) {}
		return true;
	}`, cfg.StorageKey, cfg.StorageKey)
	if _, err := page.Eval(acceptJS); err != nil {
		log.Debug().Err(err).Msg("consent state fallback failed")
	}

	hideJS := fmt.Sprintf(`() => {
		try {
			document.querySelectorAll(%q).forEach(el => { el.style.display = 'none'; });
		} catch (e) {}
		return true;
	}`, cfg.DialogSelector)
	if _, err := page.Eval(hideJS); err != nil {
		log.Debug().Err(err).Msg("consent hide fallback failed")
	}

	log.Warn().Msg("consent dialog could not be dismissed cleanly, continuing anyway")
}

func waitDialogGone(page Page, sel string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := page.Element(sel, 200*time.Millisecond); err != nil {
			return true
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}
