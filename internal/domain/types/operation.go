package types

// Operation is the "op" tag selecting the payload shape.
type Operation string

const (
	OpHello    Operation = "hello"
	OpVerify   Operation = "verify"
	OpQuery    Operation = "query"
	OpRespond  Operation = "respond"
	OpTask     Operation = "task"
	OpStream   Operation = "stream"
	OpTool     Operation = "tool"
	OpConsent  Operation = "consent"
	OpError    Operation = "error"
	OpRegister Operation = "register"
)

// Operations lists the operations with a known payload shape.
var Operations = []Operation{
	OpHello, OpVerify, OpQuery, OpRespond, OpTask,
	OpStream, OpTool, OpConsent, OpError, OpRegister,
}

// String returns the wire value.
func (o Operation) String() string { return string(o) }

// Known reports whether o has a registered payload shape.
func (o Operation) Known() bool {
	for _, v := range Operations {
		if v == o {
			return true
		}
	}
	return false
}
