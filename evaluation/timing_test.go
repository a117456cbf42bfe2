package evaluation

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"go.viam.com/test"
)

func TestNumWarmup(t *testing.T) {
	test.That(t, numWarmup(50, 1000), test.ShouldEqual, 5)
	test.That(t, numWarmup(50, 10), test.ShouldEqual, 5)
	test.That(t, numWarmup(50, 3), test.ShouldEqual, 2)
	test.That(t, numWarmup(50, 1), test.ShouldEqual, 0)
	test.That(t, numWarmup(3, 1000), test.ShouldEqual, 2)
	test.That(t, numWarmup(1, 1000), test.ShouldEqual, 0)
}

func TestFormatTimedelta(t *testing.T) {
	test.That(t, formatTimedelta(0), test.ShouldEqual, "0:00:00")
	test.That(t, formatTimedelta(1500*time.Millisecond), test.ShouldEqual, "0:00:01")
	test.That(t, formatTimedelta(95*time.Second), test.ShouldEqual, "0:01:35")
	test.That(t, formatTimedelta(10*time.Hour+2*time.Minute+3*time.Second), test.ShouldEqual, "10:02:03")
	test.That(t, formatTimedelta(25*time.Hour), test.ShouldEqual, "1 day, 1:00:00")
	test.That(t, formatTimedelta(72*time.Hour+5*time.Second), test.ShouldEqual, "3 days, 0:00:05")
}

func TestInferenceContext(t *testing.T) {
	var m ModeFlag
	test.That(t, m.Training(), test.ShouldBeFalse)

	m.Train(true)
	err := InferenceContext(&m, func() error {
		test.That(t, m.Training(), test.ShouldBeFalse)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Training(), test.ShouldBeTrue)

	boom := errors.New("boom")
	err = InferenceContext(&m, func() error { return boom })
	test.That(t, err, test.ShouldEqual, boom)
	test.That(t, m.Training(), test.ShouldBeTrue)

	m.Eval()
	err = InferenceContext(&m, func() error {
		m.Train(true)
		return nil
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, m.Training(), test.ShouldBeFalse)
}
