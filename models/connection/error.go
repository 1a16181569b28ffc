package connection

import "fmt"

// Loop codes tell the session loop what to do after a connection error.
const (
	ConnLoopBreak uint8 = iota
	ConnLoopRetry
	ConnLoopAbnormalClosureRetry
	ConnLoopContinue
)

type ConnErr struct {
	code uint8
	desc string
}

func NewConnErr(code uint8) ConnErr {
	return ConnErr{code: code}
}

func (c ConnErr) AddDesc(desc string) ConnErr {
	c.desc = desc
	return c
}

func (c ConnErr) Error() string {
	if c.desc == "" {
		return fmt.Sprintf("connection error, code: %d", c.code)
	}
	return fmt.Sprintf("connection error, code: %d, desc: %s", c.code, c.desc)
}

func (c ConnErr) Code() uint8 {
	return c.code
}

// IsBreak reports whether the session loop has to stop.
func (c ConnErr) IsBreak() bool {
	return c.code == ConnLoopBreak
}
