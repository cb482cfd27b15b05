package stop

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func alwaysStops() Result {
	c := make(Channel)
	go c.Done()
	return c.Result()
}

func neverStops(err error) Func {
	return func() Result {
		c := make(Channel)
		go c.Done(err)
		return c.Result()
	}
}

func TestChannelDone(t *testing.T) {
	c := make(Channel)
	go c.Done()

	var r Result = c.Result()
	require.Empty(t, r.Wait())
}

func TestChannelDoneWithError(t *testing.T) {
	failure := errors.New("failed to close listener")
	c := make(Channel)
	go c.Done(failure)

	var r Result = c.Result()
	errs := r.Wait()
	require.Len(t, errs, 1)
	require.Equal(t, failure, errs[0])
}

func TestGroupStopClean(t *testing.T) {
	sg := NewGroup()
	sg.AddFunc(alwaysStops)
	sg.AddFunc(AlreadyStoppedFunc)

	require.Empty(t, sg.Stop().Wait())
}

func TestGroupStopAggregatesErrors(t *testing.T) {
	first := errors.New("first member refused to stop")
	second := errors.New("second member refused to stop")

	sg := NewGroup()
	sg.AddFunc(neverStops(first))
	sg.AddFunc(alwaysStops)
	sg.AddFunc(neverStops(second))

	errs := sg.Stop().Wait()
	require.Equal(t, []error{first, second}, errs)
}
