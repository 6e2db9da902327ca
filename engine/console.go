package engine

import (
	"github.com/dop251/goja_nodejs/console"
	"github.com/dop251/goja_nodejs/require"
	"go.uber.org/zap"
)

// ZapPrinter routes script console output to a zap logger.
type ZapPrinter struct {
	L *zap.Logger
}

func (p ZapPrinter) logger() *zap.Logger {
	if p.L == nil {
		return Logger()
	}
	return p.L
}

func (p ZapPrinter) Log(s string)   { p.logger().Info(s, zap.String("source", "console")) }
func (p ZapPrinter) Warn(s string)  { p.logger().Warn(s, zap.String("source", "console")) }
func (p ZapPrinter) Error(s string) { p.logger().Error(s, zap.String("source", "console")) }

// EnableConsole installs require and a console global printing to p.
func (c *Context) EnableConsole(p console.Printer) ErrorCode {
	if code := c.enter(); code != NoError {
		return code
	}
	if p == nil {
		return ErrorNullArgument
	}
	reg := new(require.Registry)
	reg.RegisterNativeModule(console.ModuleName, console.RequireWithPrinter(p))
	reg.Enable(c.vm)
	if code := c.guard(func() { console.Enable(c.vm) }); code != NoError {
		return code
	}
	return NoError
}
