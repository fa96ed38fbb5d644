package errs

// Code is a machine-readable protocol error code.
type Code string

// String returns the string form of the code.
func (c Code) String() string { return string(c) }

const (
	CodeParse          Code = "E_PARSE"
	CodeVersion        Code = "E_VERSION"
	CodeSchema         Code = "E_SCHEMA"
	CodeMissingField   Code = "E_MISSING_FIELD"
	CodeInvalidParam   Code = "E_INVALID_PARAM"
	CodeAuthFailed     Code = "E_AUTH_FAILED"
	CodeSignature      Code = "E_SIGNATURE"
	CodeCapability     Code = "E_CAPABILITY"
	CodeConsent        Code = "E_CONSENT"
	CodeClassification Code = "E_CLASSIFICATION"
	CodeRateLimit      Code = "E_RATE_LIMIT"
	CodeTimeout        Code = "E_TIMEOUT"
	CodeTaskFailed     Code = "E_TASK_FAILED"
	CodeInternal       Code = "E_INTERNAL"
)

// Category groups codes for the "error" operation payload.
type Category string

const (
	CategoryProtocol   Category = "protocol"
	CategoryValidation Category = "validation"
	CategoryAuth       Category = "auth"
	CategoryPrivacy    Category = "privacy"
	CategoryTransport  Category = "transport"
	CategoryExecution  Category = "execution"
)

type codeInfo struct {
	category    Category
	recoverable bool
}

var codeTable = map[Code]codeInfo{
	CodeParse:          {CategoryProtocol, false},
	CodeVersion:        {CategoryProtocol, false},
	CodeSchema:         {CategoryValidation, false},
	CodeMissingField:   {CategoryValidation, false},
	CodeInvalidParam:   {CategoryValidation, false},
	CodeAuthFailed:     {CategoryAuth, false},
	CodeSignature:      {CategoryAuth, false},
	CodeCapability:     {CategoryAuth, false},
	CodeConsent:        {CategoryPrivacy, true},
	CodeClassification: {CategoryPrivacy, true},
	CodeRateLimit:      {CategoryTransport, true},
	CodeTimeout:        {CategoryTransport, true},
	CodeTaskFailed:     {CategoryExecution, true},
	CodeInternal:       {CategoryExecution, false},
}

// Category reports the payload category for c. Unknown codes are execution errors.
func (c Code) Category() Category {
	if info, ok := codeTable[c]; ok {
		return info.category
	}
	return CategoryExecution
}

// Recoverable reports whether errors with this code are recoverable by default.
func (c Code) Recoverable() bool {
	return codeTable[c].recoverable
}

// Known reports whether c is one of the protocol codes.
func (c Code) Known() bool {
	_, ok := codeTable[c]
	return ok
}
