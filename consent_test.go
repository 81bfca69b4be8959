package zapcard

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestResolveConsentNoDialog(t *testing.T) {
	page := newStubPage()
	h, _ := newTestHumanizer(page, testConfig().Humanize)

	resolveConsent(page, h, testConfig().Consent, zerolog.Nop())

	if len(page.evals) != 0 {
		t.Errorf("resolver ran %d scripts against a page with no dialog", len(page.evals))
	}
}

func TestResolveConsentDismissesViaCandidate(t *testing.T) {
	page := newStubPage()
	page.elements["#consent"] = &stubElement{visible: true}
	accept := &stubElement{visible: true}
	accept.onClick = func() { delete(page.elements, "#consent") }
	page.elements["#consent-accept"] = accept

	h, _ := newTestHumanizer(page, testConfig().Humanize)

	resolveConsent(page, h, testConfig().Consent, zerolog.Nop())

	if accept.clicks != 1 {
		t.Errorf("accept button clicked %d times, expected 1", accept.clicks)
	}
	for _, js := range page.evals {
		if strings.Contains(js, "display") {
			t.Error("hide fallback ran even though a candidate dismissed the dialog")
		}
	}
}

func TestResolveConsentFallsBackWhenNoCandidateWorks(t *testing.T) {
	page := newStubPage()
	// Dialog present, no dismissal candidate in the DOM.
	page.elements["#consent"] = &stubElement{visible: true}

	h, _ := newTestHumanizer(page, testConfig().Humanize)
	cfg := testConfig().Consent

	resolveConsent(page, h, cfg, zerolog.Nop())

	var acceptedState, hidDialog bool
	for _, js := range page.evals {
		if strings.Contains(js, cfg.StorageKey) && strings.Contains(js, "localStorage") {
			acceptedState = true
		}
		if strings.Contains(js, "display") && strings.Contains(js, cfg.DialogSelector) {
			hidDialog = true
		}
	}
	if !acceptedState {
		t.Error("minimal-consent fallback script never ran")
	}
	if !hidDialog {
		t.Error("hide-dialog fallback script never ran")
	}
}

func TestResolveConsentNeverPanicsOnStubbornDialog(t *testing.T) {
	page := newStubPage()
	// Dialog present, candidate present but clicking it changes nothing.
	page.elements["#consent"] = &stubElement{visible: true}
	page.elements["#consent-accept"] = &stubElement{visible: true}

	h, _ := newTestHumanizer(page, testConfig().Humanize)

	// Must return without error or panic; fallbacks are the only requirement.
	resolveConsent(page, h, testConfig().Consent, zerolog.Nop())

	if len(page.evals) < 2 {
		t.Errorf("expected both fallback scripts to run, saw %d evals", len(page.evals))
	}
}
