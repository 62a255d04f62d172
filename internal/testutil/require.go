// Package testutil is a minimal, dependency-free assertion helper built on
// plain testing.TB, no third-party assertion library.
package testutil

import (
	"fmt"
	"reflect"
	"strings"
)

// TestingT is the subset of *testing.T this package needs, so callers can
// also pass a mock in their own tests.
type TestingT interface {
	Fatal(args ...interface{})
}

func fail(t TestingT, message, format string, args ...interface{}) {
	if format != "" {
		message = fmt.Sprintf("%s: %s", message, fmt.Sprintf(format, args...))
	} else if len(args) > 0 {
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = fmt.Sprintf("%v", a)
		}
		message = fmt.Sprintf("%s: %s", message, strings.Join(parts, " "))
	}
	t.Fatal(message)
}

// True fails the test unless actual is true.
func True(t TestingT, actual bool, msgAndArgs ...interface{}) {
	if !actual {
		fail(t, "expected true", firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// False fails the test unless actual is false.
func False(t TestingT, actual bool, msgAndArgs ...interface{}) {
	if actual {
		fail(t, "expected false", firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// Nil fails the test unless actual is nil.
func Nil(t TestingT, actual interface{}, msgAndArgs ...interface{}) {
	if !isNil(actual) {
		fail(t, fmt.Sprintf("expected nil, but was %v", actual), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// NotNil fails the test unless actual is non-nil.
func NotNil(t TestingT, actual interface{}, msgAndArgs ...interface{}) {
	if isNil(actual) {
		fail(t, "expected non-nil", firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// Equal fails the test unless expected and actual are deeply equal.
func Equal(t TestingT, expected, actual interface{}, msgAndArgs ...interface{}) {
	if !reflect.DeepEqual(expected, actual) {
		fail(t, fmt.Sprintf("expected %#v, but was %#v", expected, actual), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// Contains fails the test unless s contains substr.
func Contains(t TestingT, s, substr string, msgAndArgs ...interface{}) {
	if !strings.Contains(s, substr) {
		fail(t, fmt.Sprintf("expected %q to contain %q", s, substr), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// Error fails the test unless err is non-nil.
func Error(t TestingT, err error, msgAndArgs ...interface{}) {
	if err == nil {
		fail(t, "expected an error", firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// NoError fails the test unless err is nil.
func NoError(t TestingT, err error, msgAndArgs ...interface{}) {
	if err != nil {
		fail(t, fmt.Sprintf("expected no error, but was %v", err), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// EqualError fails the test unless err's message equals expected.
func EqualError(t TestingT, err error, expected string, msgAndArgs ...interface{}) {
	if err == nil {
		fail(t, fmt.Sprintf("expected error %q, but was nil", expected), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
		return
	}
	if err.Error() != expected {
		fail(t, fmt.Sprintf("expected error %q, but was %q", expected, err.Error()), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// Panics fails the test unless fn panics.
func Panics(t TestingT, fn func(), msgAndArgs ...interface{}) {
	if !didPanic(fn) {
		fail(t, "expected panic", firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

// PanicsWithMessageContains fails the test unless fn panics with a message
// containing substr.
func PanicsWithMessageContains(t TestingT, substr string, fn func(), msgAndArgs ...interface{}) {
	msg, panicked := capturePanicMessage(fn)
	if !panicked {
		fail(t, "expected panic", firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
		return
	}
	if !strings.Contains(msg, substr) {
		fail(t, fmt.Sprintf("expected panic message to contain %q, but was %q", substr, msg), firstFormat(msgAndArgs), restArgs(msgAndArgs)...)
	}
}

func didPanic(fn func()) (panicked bool) {
	defer func() {
		if recover() != nil {
			panicked = true
		}
	}()
	fn()
	return false
}

func capturePanicMessage(fn func()) (msg string, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			panicked = true
			msg = fmt.Sprintf("%v", r)
		}
	}()
	fn()
	return "", false
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Ptr, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}

func firstFormat(msgAndArgs []interface{}) string {
	if len(msgAndArgs) == 0 {
		return ""
	}
	if s, ok := msgAndArgs[0].(string); ok && strings.Contains(s, "%") {
		return s
	}
	return ""
}

func restArgs(msgAndArgs []interface{}) []interface{} {
	if len(msgAndArgs) == 0 {
		return nil
	}
	if s, ok := msgAndArgs[0].(string); ok && strings.Contains(s, "%") {
		return msgAndArgs[1:]
	}
	return msgAndArgs
}
