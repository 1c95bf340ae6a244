package utils

import (
	"testing"

	"go.viam.com/test"
)

var sampleAttributeMap = AttributeMap{
	"ok_boolean_false": false,
	"ok_boolean_true":  true,
	"bad_boolean":      "notabool",
	"ok_int":           3,
	"ok_int_float":     3.0,
	"bad_int":          "three",
	"ok_float":         0.88,
	"bad_float":        []interface{}{1.0},
	"ok_string":        "gradient_walk",
	"bad_string":       []interface{}{"a", "b"},
	"ok_nested":        map[string]interface{}{"k": 5},
}

func TestAttributeMap(t *testing.T) {
	test.That(t, sampleAttributeMap.Has("ok_int"), test.ShouldBeTrue)
	test.That(t, sampleAttributeMap.Has("junk_key"), test.ShouldBeFalse)

	b := sampleAttributeMap.GetBool("ok_boolean_true", false)
	test.That(t, b, test.ShouldBeTrue)
	b = sampleAttributeMap.GetBool("ok_boolean_false", true)
	test.That(t, b, test.ShouldBeFalse)
	b = sampleAttributeMap.GetBool("junk_key", true)
	test.That(t, b, test.ShouldBeTrue)
	badBoolGetter := func() {
		sampleAttributeMap.GetBool("bad_boolean", false)
	}
	test.That(t, badBoolGetter, test.ShouldPanic)

	i := sampleAttributeMap.GetInt("ok_int", 0)
	test.That(t, i, test.ShouldEqual, 3)
	// JSON decodes all numbers to float64
	i = sampleAttributeMap.GetInt("ok_int_float", 0)
	test.That(t, i, test.ShouldEqual, 3)
	i = sampleAttributeMap.GetInt("junk_key", 17)
	test.That(t, i, test.ShouldEqual, 17)
	badIntGetter := func() {
		sampleAttributeMap.GetInt("bad_int", 0)
	}
	test.That(t, badIntGetter, test.ShouldPanic)

	f := sampleAttributeMap.GetFloat64("ok_float", 0)
	test.That(t, f, test.ShouldEqual, 0.88)
	f = sampleAttributeMap.GetFloat64("junk_key", 0.5)
	test.That(t, f, test.ShouldEqual, 0.5)
	badFloatGetter := func() {
		sampleAttributeMap.GetFloat64("bad_float", 0)
	}
	test.That(t, badFloatGetter, test.ShouldPanic)

	s := sampleAttributeMap.GetString("ok_string")
	test.That(t, s, test.ShouldEqual, "gradient_walk")
	s = sampleAttributeMap.GetString("junk_key")
	test.That(t, s, test.ShouldEqual, "")
	badStringGetter := func() {
		sampleAttributeMap.GetString("bad_string")
	}
	test.That(t, badStringGetter, test.ShouldPanic)

	nested := sampleAttributeMap.GetAttributeMap("ok_nested")
	test.That(t, nested.GetInt("k", 0), test.ShouldEqual, 5)
	nested = sampleAttributeMap.GetAttributeMap("junk_key")
	test.That(t, nested, test.ShouldHaveLength, 0)
}

type fakeConfig struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
	Size      int     `json:"size"`
	Skipped   string  `json:"-"`
}

func TestTransformAttributeMap(t *testing.T) {
	am := AttributeMap{
		"name":      "x",
		"threshold": 0.95,
		"size":      32,
	}
	conf, unused, err := TransformAttributeMap[fakeConfig](am)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unused, test.ShouldBeEmpty)
	test.That(t, conf.Name, test.ShouldEqual, "x")
	test.That(t, conf.Threshold, test.ShouldEqual, 0.95)
	test.That(t, conf.Size, test.ShouldEqual, 32)

	// pointer form allocates
	confPtr, unused, err := TransformAttributeMap[*fakeConfig](am)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unused, test.ShouldBeEmpty)
	test.That(t, confPtr.Size, test.ShouldEqual, 32)

	// unknown keys are reported sorted, not dropped silently
	am = AttributeMap{
		"name":    "x",
		"zcruft":  1,
		"acruft":  2,
		"skipped": "nope",
	}
	_, unused, err = TransformAttributeMap[fakeConfig](am)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unused, test.ShouldResemble, []string{"acruft", "skipped", "zcruft"})
}

func TestMergeAttributeMap(t *testing.T) {
	conf := fakeConfig{Name: "default", Threshold: 0.88, Size: 32}
	unused, err := MergeAttributeMap(AttributeMap{"threshold": 0.95}, &conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unused, test.ShouldBeEmpty)
	// only the configured field changes
	test.That(t, conf.Name, test.ShouldEqual, "default")
	test.That(t, conf.Threshold, test.ShouldEqual, 0.95)
	test.That(t, conf.Size, test.ShouldEqual, 32)

	unused, err = MergeAttributeMap(AttributeMap{"size": 16.0, "mystery": true}, &conf)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, unused, test.ShouldResemble, []string{"mystery"})
	test.That(t, conf.Size, test.ShouldEqual, 16)

	_, err = MergeAttributeMap[fakeConfig](AttributeMap{}, nil)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestJSONTags(t *testing.T) {
	tags := JSONTags(fakeConfig{})
	test.That(t, tags, test.ShouldResemble, []TypedName{
		{"name", "string"},
		{"threshold", "float64"},
		{"size", "int"},
	})
}

func TestValidNameRegex(t *testing.T) {
	test.That(t, ValidNameRegex.MatchString("gradient_walk"), test.ShouldBeTrue)
	test.That(t, ValidNameRegex.MatchString("quantize-5"), test.ShouldBeTrue)
	test.That(t, ValidNameRegex.MatchString(""), test.ShouldBeFalse)
	test.That(t, ValidNameRegex.MatchString("-leading"), test.ShouldBeFalse)
	test.That(t, ValidNameRegex.MatchString("has space"), test.ShouldBeFalse)
	err := ErrInvalidName("has space")
	test.That(t, err.Error(), test.ShouldContainSubstring, "must start with a letter or number")
}
