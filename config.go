package zapcard

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	// CheckoutURL is the page that embeds the third-party checkout widget.
	CheckoutURL string `yaml:"checkout_url"`

	// WidgetFrameURL identifies the embedded checkout frame by URL substring.
	WidgetFrameURL string `yaml:"widget_frame_url"`

	BrowserProfilePath string `yaml:"browser_profile_path"`
	Headless           bool   `yaml:"headless"`

	// ActionTimeoutMs bounds each individual wait on the page or widget.
	ActionTimeoutMs int `yaml:"action_timeout_ms"`

	// FramePollMinMs/MaxMs pace the wait for the widget frame to attach.
	FramePollMinMs int `yaml:"frame_poll_min_ms"`
	FramePollMaxMs int `yaml:"frame_poll_max_ms"`

	Country string `yaml:"country"`

	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	Retry    RetryConfig    `yaml:"retry"`
	Queue    QueueConfig    `yaml:"queue"`
	Humanize HumanizeConfig `yaml:"humanize"`
	Consent  ConsentConfig  `yaml:"consent"`

	Selectors SelectorConfig `yaml:"selectors"`
}

// SelectorConfig keeps every DOM hook in one place. Third-party markup
// changes without notice, so none of these are hardcoded in the flow.
type SelectorConfig struct {
	ProductCard        string `yaml:"product_card"`
	DenominationInput  string `yaml:"denomination_input"`
	DenominationSubmit string `yaml:"denomination_submit"`

	IdentityForm     string `yaml:"identity_form"`
	FirstNameInput   string `yaml:"first_name_input"`
	LastNameInput    string `yaml:"last_name_input"`
	IdentityContinue string `yaml:"identity_continue"`

	// PaymentMethodOption is a format string receiving the method id.
	PaymentMethodOption string `yaml:"payment_method_option"`
	PaymentContinue     string `yaml:"payment_continue"`

	DepositAddress    string `yaml:"deposit_address"`
	DepositAmount     string `yaml:"deposit_amount"`
	DepositQR         string `yaml:"deposit_qr"`
	CopyAddressButton string `yaml:"copy_address_button"`
}

func DefaultConfig() *Config {
	return &Config{
		CheckoutURL:        "https://app.zapcard.xyz/buy",
		WidgetFrameURL:     "checkout",
		BrowserProfilePath: filepath.Join(userDataDir(), "browser-profile"),
		Headless:           true,
		ActionTimeoutMs:    15000,
		FramePollMinMs:     250,
		FramePollMaxMs:     750,
		Country:            "US",
		LogLevel:           "info",
		LogFile:            "",
		Retry:              DefaultRetryConfig(),
		Queue:              DefaultQueueConfig(),
		Humanize:           DefaultHumanizeConfig(),
		Consent:            DefaultConsentConfig(),
		Selectors: SelectorConfig{
			ProductCard:         "[data-testid='giftcard-product'], .product-card",
			DenominationInput:   "input[name='amount'], input[data-testid='denomination']",
			DenominationSubmit:  "button[type='submit'], button[data-testid='continue']",
			IdentityForm:        "form[data-testid='identity'], .identity-form",
			FirstNameInput:      "input[name='firstName']",
			LastNameInput:       "input[name='lastName']",
			IdentityContinue:    "button[data-testid='identity-continue']",
			PaymentMethodOption: "[data-method='%s'], input[value='%s']",
			PaymentContinue:     "button[data-testid='payment-continue'], button.continue",
			DepositAddress:      "[data-testid='deposit-address'], .deposit-address",
			DepositAmount:       "[data-testid='deposit-amount'], .deposit-amount",
			DepositQR:           "[data-testid='deposit-qr'] img, .qr-code img",
			CopyAddressButton:   "button[data-testid='copy-address'], .copy-address",
		},
	}
}

// LoadConfig reads the yaml config at path, writing the default file first if
// none exists so users get a template to edit.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := config.Save(path); err != nil {
			return nil, err
		}
		return config, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	if config.BrowserProfilePath != "" {
		if err := os.MkdirAll(config.BrowserProfilePath, 0755); err != nil {
			return nil, err
		}
	}

	return config, nil
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func userDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./zapcard-data"
	}
	return filepath.Join(home, ".zapcard")
}
