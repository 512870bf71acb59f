// Package logger wraps zap with a console encoder and carries the sugared
// logger through context.Context.
//
// Services receive a context and log through it (Info, InfoKV, ErrorKV, ...),
// so names and fields attached upstream with WithName and WithKV show up on
// every line produced by the packaging run, including external tool output.
package logger
