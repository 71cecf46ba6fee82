package source

import (
	"fmt"
	"math"
)

// WarningKind tags a routing diagnostic.
type WarningKind string

// Warning kinds emitted while routing a spec.
const (
	WarnUnknownExtension           WarningKind = "unknown_extension"
	WarnUnknownExtensionNoFallback WarningKind = "unknown_extension_no_fallback"
	WarnOpenAPIParseFailed         WarningKind = "openapi_parse_failed"
	WarnJSONParseFailed            WarningKind = "json_parse_failed"
	WarnYAMLParseFailed            WarningKind = "yaml_parse_failed"
	WarnSniffInspectFailed         WarningKind = "sniff_inspect_failed"
	WarnFallbackNotice             WarningKind = "fallback_notice"
	WarnNoConfidence               WarningKind = "no_confidence"
	WarnLowConfidence              WarningKind = "low_confidence"
)

// Warning is a non-fatal diagnostic. The payload fields used depend on Kind;
// text is produced only when the warning is rendered.
type Warning struct {
	Kind WarningKind

	// Detail carries the underlying error text for *ParseFailed and
	// SniffInspectFailed.
	Detail string

	// ConfidencePct and ThresholdPct are set for LowConfidence.
	ConfidencePct int
	ThresholdPct  int
}

// String renders the warning for display.
func (w Warning) String() string {
	switch w.Kind {
	case WarnUnknownExtension:
		return "Unrecognized file extension; using LLM parser fallback."
	case WarnUnknownExtensionNoFallback:
		return "Unrecognized file extension and LLM fallback disabled."
	case WarnOpenAPIParseFailed:
		return fmt.Sprintf("OpenAPI parsing failed (%s).", w.Detail)
	case WarnJSONParseFailed:
		return fmt.Sprintf("JSON parsing failed (%s).", w.Detail)
	case WarnYAMLParseFailed:
		return fmt.Sprintf("YAML parsing failed (%s).", w.Detail)
	case WarnSniffInspectFailed:
		return fmt.Sprintf("Failed to inspect YAML/JSON content (%s).", w.Detail)
	case WarnFallbackNotice:
		return "Falling back to LLM parser."
	case WarnNoConfidence:
		return "LLM did not return a confidence score."
	case WarnLowConfidence:
		return fmt.Sprintf("LLM confidence %d%% is below threshold %d%%; results may be incomplete.",
			w.ConfidencePct, w.ThresholdPct)
	default:
		return string(w.Kind)
	}
}

// MarshalText renders the warning as its display string so encoded results
// carry plain messages.
func (w Warning) MarshalText() ([]byte, error) {
	return []byte(w.String()), nil
}

// ParseFailedWarning returns the "<format> parsing failed" warning for a
// structural format.
func ParseFailedWarning(format Format, err error) Warning {
	kind := WarnJSONParseFailed
	switch format {
	case FormatOpenAPI:
		kind = WarnOpenAPIParseFailed
	case FormatYAML:
		kind = WarnYAMLParseFailed
	}
	return Warning{Kind: kind, Detail: err.Error()}
}

// SniffFailedWarning reports a failed best-effort content inspection.
func SniffFailedWarning(err error) Warning {
	return Warning{Kind: WarnSniffInspectFailed, Detail: err.Error()}
}

// LowConfidenceWarning reports a generative result scoring below threshold.
// Both values are given in [0,1] and rendered as rounded percentages.
func LowConfidenceWarning(confidence, threshold float64) Warning {
	return Warning{
		Kind:          WarnLowConfidence,
		ConfidencePct: int(math.Round(confidence * 100)),
		ThresholdPct:  int(math.Round(threshold * 100)),
	}
}
