package zapcard

import "time"

// The session driver talks to the browser through these interfaces rather
// than rod directly, so the checkout flow can be exercised against stubs.
// RodProvider is the production implementation.

// LaunchOptions configures a browser launch.
type LaunchOptions struct {
	Headless   bool
	ProfileDir string
}

// Provider launches browser instances.
type Provider interface {
	Launch(opts LaunchOptions) (Browser, error)
}

// Browser is one running browser process. Exclusively owned by a single
// session; never shared.
type Browser interface {
	NewPage() (Page, error)
	Alive() bool
	Close() error
}

// Box is an element's bounding box in page coordinates.
type Box struct {
	X, Y, Width, Height float64
}

// Page is a navigable surface: either the top-level page or an embedded
// frame resolved through FrameByURL.
type Page interface {
	Navigate(url string) error
	WaitLoad() error

	// FrameByURL resolves the embedded subdocument whose URL contains
	// urlSubstr. Returns an ElementNotFoundError if no frame matches.
	FrameByURL(urlSubstr string) (Page, error)

	// Element waits up to timeout for a node matching sel.
	Element(sel string, timeout time.Duration) (Element, error)

	// ElementWithText waits up to timeout for a node matching sel whose text
	// content matches the given pattern.
	ElementWithText(sel, pattern string, timeout time.Duration) (Element, error)

	// Elements returns all current matches without waiting.
	Elements(sel string) ([]Element, error)

	// Eval runs a JS function (rod style, `() => ...`) against the document
	// and returns the result serialized as JSON text.
	Eval(js string) (string, error)

	// MoveMouse dispatches a pointer move to the given page coordinates.
	MoveMouse(x, y float64) error

	// Clipboard reads the system clipboard as seen by the page.
	Clipboard() (string, error)

	Close() error
}

// Element is a located DOM node.
type Element interface {
	Text() (string, error)
	Attribute(name string) (string, error)
	Click() error
	Input(text string) error
	Clear() error
	Hover() error
	Visible() (bool, error)
	Box() (Box, error)
}
