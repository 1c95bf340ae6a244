package utils

import (
	"testing"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestAssertType(t *testing.T) {
	one := 1
	_, err := AssertType[string](one)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expected string but got int")

	_, err = AssertType[myAssertIfc](one)
	test.That(t, err, test.ShouldNotBeNil)

	asserted, err := AssertType[myAssertIfc](myAssertInt(one))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, asserted.method1(), test.ShouldBeError, errors.New("cool 8)"))

	ptr := &someStruct{}
	back, err := AssertType[*someStruct](interface{}(ptr))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, back, test.ShouldEqual, ptr)
}

type myAssertIfc interface {
	method1() error
}

type myAssertInt int

func (m myAssertInt) method1() error {
	return errors.New("cool 8)")
}
