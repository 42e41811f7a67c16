package types

// Status is the terminal status of an article. The set is closed.
type Status string

const (
	StatusOK                      Status = "ok"
	StatusNoContent               Status = "no-content-detected"
	StatusErrorDownload           Status = "error-download"
	StatusErrorParsing            Status = "error-parsing"
	StatusBlockedFallbackRequired Status = "blocked-fallback-required"
)

// AllStatuses lists every terminal status in report order.
var AllStatuses = []Status{
	StatusOK,
	StatusNoContent,
	StatusErrorDownload,
	StatusErrorParsing,
	StatusBlockedFallbackRequired,
}

// Valid reports whether s is one of the closed set.
func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s Status) String() string { return string(s) }

// Method names the extractor that produced an article's text.
type Method string

const (
	MethodPrimary        Method = "primary"
	MethodDomainSelector Method = "domain-selector"
	MethodDynamicRender  Method = "dynamic-render"
)

// AllMethods lists every extraction method in escalation order.
var AllMethods = []Method{MethodPrimary, MethodDomainSelector, MethodDynamicRender}

// Valid reports whether m is a known method.
func (m Method) Valid() bool {
	return m == MethodPrimary || m == MethodDomainSelector || m == MethodDynamicRender
}

func (m Method) String() string { return string(m) }

// FetchStatus tags the outcome of a fetch or render call.
type FetchStatus string

const (
	FetchOK      FetchStatus = "ok"
	FetchError   FetchStatus = "error"
	FetchBlocked FetchStatus = "blocked"
	FetchTimeout FetchStatus = "timeout"
)

// ResultStatus tags the outcome of a single extractor.
type ResultStatus string

const (
	ResultOK           ResultStatus = "ok"
	ResultInsufficient ResultStatus = "insufficient-content"
	ResultError        ResultStatus = "error"
)
