package help

const ColdstartYAML = `# fxlens Quick Start

what_it_does: |
  Watches text entry fields, pulls the last money amount out of what you
  type and shows it converted into your target currency, optionally with a
  5% processing fee and a tariff.

commands:
  convert_once: |
    fxlens convert '¥12,800'
    fxlens convert --from USD --to EUR --fee --tariff 10 '$40'
    fxlens convert --render 'total 3,500円'

  settings: |
    fxlens settings get
    fxlens settings get tariffPercentage
    fxlens settings set toCurrency EUR
    fxlens settings set blocklistUrls "bank.example, *.internal.example"
    fxlens settings swap
    fxlens settings watch --file ~/.config/fxlens/settings.yaml

  rates: |
    fxlens rates get JPY USD
    fxlens rates refresh JPY USD
    fxlens rates list

  pages: |
    fxlens check-url https://shop.example/cart
    fxlens scan --urls "https://shop.example/cart,https://shop.example/checkout" --workers 4

  interactive: |
    fxlens try
    fxlens serve --port 8787

settings_keys:
  isEnabled: "true|false, master switch"
  processingFeeEnabled: "true|false, adds 5%"
  tariffEnabled: "true|false"
  tariffPercentage: "0-100"
  fromCurrency: "ISO code, swapping happens if it equals toCurrency"
  toCurrency: "ISO code"
  urlFilterMode: "disabled|allowlist|blocklist"
  allowlistUrls: "domains, *.wildcards or full URL prefixes"
  blocklistUrls: "same forms as allowlistUrls"
  selectorFilterMode: "disabled|allowlist|blocklist"
  allowedSelectors: "one CSS selector per line"
  blockedSelectors: "one CSS selector per line"

http_api:
  health: "GET  /health"
  metrics: "GET  /metrics"
  open_page: "POST /api/v1/pages {url}"
  signal: "POST /api/v1/pages/:id/signals {kind, key, element, text}"
  message: "POST /api/v1/pages/:id/messages {action, ...}"
  tooltip: "GET  /api/v1/pages/:id/tooltip"
  convert: "POST /api/v1/convert {text, fromCurrency, toCurrency}"
  rate: "GET  /api/v1/rates/:from/:to"

config:
  file: "~/.config/fxlens/config.yaml (or --config)"
  env: "FXLENS_SECTION_FIELD, e.g. FXLENS_RATES_CACHE_TTL=10m"

error_behavior:
  - "No amount in text: the tooltip is hidden"
  - "Rate lookup fails: stored rate, then a built-in table, then 1.0"
  - "Exit codes: 0=success, 1=usage error, 2=runtime failure"
`
