// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package log

import (
	"context"
	"fmt"
	"io"
)

// logErr is an error that carries the message logged when it was created.
type logErr struct {
	cause error
	msg   *Message
}

// Err returns an error that wraps cause with msg and the logger's values.
// The error is not written to the handler.
func (l *Logger) Err(cause error, msg string) error {
	return logErr{cause, l.Message(Error, false, msg)}
}

// Errf is Err with a formatted message.
func (l *Logger) Errf(cause error, format string, args ...interface{}) error {
	return logErr{cause, l.Messagef(Error, false, format, args...)}
}

// Cause returns the wrapped error.
func (e logErr) Cause() error  { return e.cause }
func (e logErr) Unwrap() error { return e.cause }

func (e logErr) Error() string {
	if e.cause == nil {
		return e.msg.Text
	}
	return fmt.Sprintf("%v\n   Cause: %v", e.msg.Text, e.cause)
}

// Format prints the message values and the cause chain for %+v.
func (e logErr) Format(s fmt.State, verb rune) {
	if verb != 'v' || !s.Flag('+') {
		io.WriteString(s, e.Error())
		return
	}
	io.WriteString(s, e.msg.Text)
	for _, v := range e.msg.Values {
		fmt.Fprintf(s, "\n   %v: %v", v.Name, v.Value)
	}
	if e.cause != nil {
		fmt.Fprintf(s, "\n   Cause: %+v", e.cause)
	}
}

// Err returns an error wrapping cause with msg and the values held by ctx.
func Err(ctx context.Context, cause error, msg string) error {
	return From(ctx).Err(cause, msg)
}

// Errf is Err with a formatted message.
func Errf(ctx context.Context, cause error, format string, args ...interface{}) error {
	return From(ctx).Errf(cause, format, args...)
}
