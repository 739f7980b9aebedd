package sarif

// Version is the SARIF version read and written by patchdiff.
const Version = "2.1.0"

// Schema is the JSON schema URI for SARIF 2.1.0.
const Schema = "https://raw.githubusercontent.com/oasis-tcs/sarif-spec/main/sarif-2.1/schema/sarif-schema-2.1.0.json"

// Baseline states used when comparing a run against a baseline.
const (
	BaselineNew       = "new"
	BaselineUnchanged = "unchanged"
	BaselineUpdated   = "updated"
	BaselineAbsent    = "absent"
)

// Log is the top-level SARIF document.
type Log struct {
	Version string `json:"version"`
	Schema  string `json:"$schema,omitempty"`
	Runs    []Run  `json:"runs"`
}

// Run is the output of one tool invocation.
type Run struct {
	Tool              Tool               `json:"tool"`
	AutomationDetails *AutomationDetails `json:"automationDetails,omitempty"`
	Results           []Result           `json:"results"`
}

// AutomationDetails identifies the run.
type AutomationDetails struct {
	ID string `json:"id,omitempty"`
}

// Tool describes the analysis tool.
type Tool struct {
	Driver Driver `json:"driver"`
}

// Driver is the tool component that produced the results.
type Driver struct {
	Name           string `json:"name"`
	Version        string `json:"version,omitempty"`
	InformationURI string `json:"informationUri,omitempty"`
	Rules          []Rule `json:"rules,omitempty"`
}

// Rule is a reporting descriptor.
type Rule struct {
	ID               string         `json:"id"`
	Name             string         `json:"name,omitempty"`
	ShortDescription *Message       `json:"shortDescription,omitempty"`
	DefaultConfig    *DefaultConfig `json:"defaultConfiguration,omitempty"`
}

// DefaultConfig holds the default level of a rule.
type DefaultConfig struct {
	Level string `json:"level"`
}

// ReportingDescriptorReference names a rule by id or by its index in the
// driver's rules.
type ReportingDescriptorReference struct {
	ID    string `json:"id,omitempty"`
	Index *int   `json:"index,omitempty"`
}

// Result is a single finding. The rule may be named by RuleID, Rule or
// RuleIndex.
type Result struct {
	RuleID        string                        `json:"ruleId,omitempty"`
	RuleIndex     *int                          `json:"ruleIndex,omitempty"`
	Rule          *ReportingDescriptorReference `json:"rule,omitempty"`
	Level         string                        `json:"level,omitempty"`
	Message       Message                       `json:"message"`
	Locations     []Location                    `json:"locations,omitempty"`
	BaselineState string                        `json:"baselineState,omitempty"`
}

// Message is a plain-text message.
type Message struct {
	Text string `json:"text"`
}

// Location wraps a physical location.
type Location struct {
	PhysicalLocation PhysicalLocation `json:"physicalLocation"`
}

// PhysicalLocation points at a region of an artifact.
type PhysicalLocation struct {
	ArtifactLocation ArtifactLocation `json:"artifactLocation"`
	Region           *Region          `json:"region,omitempty"`
}

// ArtifactLocation is the URI of a file.
type ArtifactLocation struct {
	URI string `json:"uri"`
}

// Region is a range within an artifact. Zero values are omitted.
type Region struct {
	StartLine   int `json:"startLine,omitempty"`
	StartColumn int `json:"startColumn,omitempty"`
	EndLine     int `json:"endLine,omitempty"`
}

// Level maps SARIF levels to the severity names used in reports.
func Level(severity string) string {
	switch severity {
	case "error":
		return "error"
	case "warning":
		return "warning"
	default:
		return "note"
	}
}
