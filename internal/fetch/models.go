package fetch

// Job defines a page for a worker to scan.
type Job struct {
	URL string
}

// ElementReport is one watched element on a scanned page.
type ElementReport struct {
	Key    string `json:"key" yaml:"key"`
	Tag    string `json:"tag" yaml:"tag"`
	Text   string `json:"text,omitempty" yaml:"text,omitempty"`
	Amount string `json:"amount,omitempty" yaml:"amount,omitempty"`
}

// Result holds the outcome of a scanned page.
type Result struct {
	URL        string          `json:"url" yaml:"url"`
	Title      string          `json:"title,omitempty" yaml:"title,omitempty"`
	Allowed    bool            `json:"allowed" yaml:"allowed"`
	Candidates int             `json:"candidates" yaml:"candidates"`
	Monitored  []ElementReport `json:"monitored,omitempty" yaml:"monitored,omitempty"`
	Markers    map[string]int  `json:"markers,omitempty" yaml:"markers,omitempty"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	ErrorType  string          `json:"error_type,omitempty" yaml:"error_type,omitempty"`
}

// Report is the output of scan.
type Report struct {
	Pages []Result `json:"pages" yaml:"pages"`
	// TopMarkers lists the most frequent currency markers across all pages,
	// as "marker:count".
	TopMarkers []string `json:"top_markers,omitempty" yaml:"top_markers,omitempty"`
}

// URLCheck is the output of check-url.
type URLCheck struct {
	URL     string `json:"url" yaml:"url"`
	Domain  string `json:"domain" yaml:"domain"`
	Mode    string `json:"mode" yaml:"mode"`
	Allowed bool   `json:"allowed" yaml:"allowed"`
}
