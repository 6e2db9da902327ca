package engine

// ErrorClass selects the built-in constructor used by CreateError.
type ErrorClass uint8

const (
	ErrorClassError ErrorClass = iota
	ErrorClassRange
	ErrorClassReference
	ErrorClassSyntax
	ErrorClassType
	ErrorClassURI
)

var errorClassNames = [...]string{
	ErrorClassError:     "Error",
	ErrorClassRange:     "RangeError",
	ErrorClassReference: "ReferenceError",
	ErrorClassSyntax:    "SyntaxError",
	ErrorClassType:      "TypeError",
	ErrorClassURI:       "URIError",
}

func (e ErrorClass) String() string {
	if int(e) < len(errorClassNames) {
		return errorClassNames[e]
	}
	return "Error"
}

// CreateError creates an error object of the given class. message must be
// a string.
func (c *Context) CreateError(class ErrorClass, message Ref) (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	m, code := c.value(message)
	if code != NoError {
		return InvalidRef, code
	}
	if typeOf(m) != ValueString {
		return InvalidRef, ErrorInvalidArgument
	}
	return c.newRef(c.newError(class.String(), m.String()), objectSize)
}

// SetException makes v the pending exception.
func (c *Context) SetException(v Ref) ErrorCode {
	if code := c.enterAny(); code != NoError {
		return code
	}
	val, code := c.value(v)
	if code != NoError {
		return code
	}
	c.exception = val
	return NoError
}

// HasException reports whether an exception is pending.
func (c *Context) HasException() (bool, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return false, code
	}
	return c.exception != nil, NoError
}

// GetAndClearException returns the pending exception and clears it.
// Without one it returns ErrorInvalidArgument.
func (c *Context) GetAndClearException() (Ref, ErrorCode) {
	if code := c.enterAny(); code != NoError {
		return InvalidRef, code
	}
	if c.exception == nil {
		return InvalidRef, ErrorInvalidArgument
	}
	ex := c.exception
	c.exception = nil
	return c.wrap(ex)
}
