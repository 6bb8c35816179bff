package pipeline

import (
	"strings"

	"github.com/dtnitsch/fxlens/models"
	"github.com/dtnitsch/fxlens/pkg/urlgate"
	"go.uber.org/zap"
)

// Status is the payload of a ping acknowledgement.
type Status struct {
	Enabled      bool   `json:"enabled"`
	Suppressed   bool   `json:"suppressed"`
	FromCurrency string `json:"fromCurrency"`
	ToCurrency   string `json:"toCurrency"`
	PageURL      string `json:"pageUrl,omitempty"`
}

// Handle applies a settings message and acknowledges it synchronously.
// Every accepted change hides the tooltip.
func (p *Pipeline) Handle(msg models.Message) models.Ack {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch msg.Action {
	case models.ActionPing:
		return models.OK(Status{
			Enabled:      p.settings.Enabled,
			Suppressed:   p.suppressedLocked(),
			FromCurrency: p.settings.FromCurrency,
			ToCurrency:   p.settings.ToCurrency,
			PageURL:      p.pageURL,
		})

	case models.ActionToggleEnabled:
		if msg.Enabled == nil {
			return missingField(msg.Action, "enabled")
		}
		p.settings.Enabled = *msg.Enabled
		p.logger.Debug("conversion toggled", zap.Bool("enabled", *msg.Enabled))

	case models.ActionCurrencyChanged:
		from := strings.ToUpper(strings.TrimSpace(msg.FromCurrency))
		to := strings.ToUpper(strings.TrimSpace(msg.ToCurrency))
		if from == "" || to == "" {
			return missingField(msg.Action, "fromCurrency/toCurrency")
		}
		p.settings.FromCurrency, p.settings.ToCurrency = from, to

	case models.ActionProcessingFeeChanged:
		if msg.ProcessingFee == nil {
			return missingField(msg.Action, "processingFee")
		}
		p.settings.ProcessingFeeEnabled = *msg.ProcessingFee

	case models.ActionTariffChanged:
		if msg.Tariff == nil {
			return missingField(msg.Action, "tariff")
		}
		p.settings.TariffEnabled = *msg.Tariff

	case models.ActionTariffPercentageChanged:
		if msg.TariffPercentage == nil {
			return missingField(msg.Action, "tariffPercentage")
		}
		p.settings.TariffPercentage = *msg.TariffPercentage

	case models.ActionURLFilterChanged:
		// Omitted fields keep their current value; an explicit empty list clears.
		u := models.URLFilter{
			Mode:      p.filter.URLFilterMode,
			Allowlist: p.filter.AllowlistURLs,
			Blocklist: p.filter.BlocklistURLs,
		}
		if msg.URLFilterMode != nil {
			u.Mode = *msg.URLFilterMode
		}
		if msg.AllowlistURLs != nil {
			u.Allowlist = urlgate.NormalizePatterns(msg.AllowlistURLs)
		}
		if msg.BlocklistURLs != nil {
			u.Blocklist = urlgate.NormalizePatterns(msg.BlocklistURLs)
		}
		p.filter = p.filter.WithURLFilter(u)
		p.compileLocked()

	case models.ActionSelectorFilterChanged:
		sf := models.SelectorFilter{
			Mode:    p.filter.SelectorFilterMode,
			Allowed: p.filter.AllowedSelectors,
			Blocked: p.filter.BlockedSelectors,
		}
		if msg.SelectorFilterMode != nil {
			sf.Mode = *msg.SelectorFilterMode
		}
		if msg.AllowedSelectors != nil {
			sf.Allowed = msg.AllowedSelectors
		}
		if msg.BlockedSelectors != nil {
			sf.Blocked = msg.BlockedSelectors
		}
		p.filter = p.filter.WithSelectorFilter(sf)
		p.compileLocked()

	default:
		return models.NewUnknownActionAck(msg.Action)
	}

	p.configChangedLocked()
	return models.OK(nil)
}

func missingField(action, field string) models.Ack {
	return models.Fail("invalid_message", action+" requires "+field)
}
