package assert

import "fmt"

// NotNil panics if value is nil, name identifies the value in the message.
func NotNil(value any, name string) {
	if value == nil {
		panic(fmt.Sprintf("expected %s to be not nil", name))
	}
}

// NotEmptyStr panics if str is empty, name identifies the value in the message.
func NotEmptyStr(str string, name string) {
	if str == "" {
		panic(fmt.Sprintf("expected %s to be non-empty", name))
	}
}
