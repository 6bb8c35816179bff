package models

// Message actions understood by the pipeline and the rate service.
const (
	ActionPing                    = "ping"
	ActionToggleEnabled           = "toggleEnabled"
	ActionCurrencyChanged         = "currencyChanged"
	ActionProcessingFeeChanged    = "processingFeeChanged"
	ActionTariffChanged           = "tariffChanged"
	ActionTariffPercentageChanged = "tariffPercentageChanged"
	ActionURLFilterChanged        = "urlFilterChanged"
	ActionSelectorFilterChanged   = "selectorFilterChanged"
	ActionConvertCurrency         = "convertCurrency"
	ActionGetExchangeRate         = "getExchangeRate"
)

// Message is the envelope sent by the settings UI and storage layer.
// Only the fields relevant to Action are set.
type Message struct {
	Action string `json:"action"`

	Enabled          *bool    `json:"enabled,omitempty"`
	FromCurrency     string   `json:"fromCurrency,omitempty"`
	ToCurrency       string   `json:"toCurrency,omitempty"`
	ProcessingFee    *bool    `json:"processingFee,omitempty"`
	Tariff           *bool    `json:"tariff,omitempty"`
	TariffPercentage *float64 `json:"tariffPercentage,omitempty"`

	// A nil list means "unchanged"; an empty one clears it.
	URLFilterMode      *FilterMode `json:"urlFilterMode,omitempty"`
	AllowlistURLs      []string    `json:"allowlistUrls"`
	BlocklistURLs      []string    `json:"blocklistUrls"`
	SelectorFilterMode *FilterMode `json:"selectorFilterMode,omitempty"`
	AllowedSelectors   []string    `json:"allowedSelectors"`
	BlockedSelectors   []string    `json:"blockedSelectors"`

	Amount float64 `json:"amount,omitempty"` // convertCurrency only
}

// Ack is the synchronous acknowledgement for a Message.
type Ack struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *ErrorInfo  `json:"error,omitempty"`
}

// ErrorInfo provides structured error information.
type ErrorInfo struct {
	Type    string `json:"error_type"`
	Message string `json:"message"`
}

// OK acknowledges a message with optional data.
func OK(data interface{}) Ack {
	return Ack{Success: true, Data: data}
}

// Fail builds a failed acknowledgement.
func Fail(errType, msg string) Ack {
	return Ack{
		Success: false,
		Error: &ErrorInfo{
			Type:    errType,
			Message: msg,
		},
	}
}

// NewUnknownActionAck creates an acknowledgement for unrecognised actions.
func NewUnknownActionAck(action string) Ack {
	return Fail("unknown_action", "Action '"+action+"' not recognized")
}
