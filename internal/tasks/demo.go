package tasks

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/rs/zerolog"

	"github.com/3cpo-dev/gaxx-rich/internal/core"
	"github.com/3cpo-dev/gaxx-rich/pkg/api"
)

func HelloWorld(tc *core.TaskContext) (api.Outcome, error) {
	return api.NewResult(tc.Host, tc.Name, fmt.Sprintf("%s says hello world!", tc.Host.Name)), nil
}

// Say greets with text.
func Say(text string) core.Task {
	return func(tc *core.TaskContext) (api.Outcome, error) {
		return api.NewResult(tc.Host, tc.Name, fmt.Sprintf("%s says %s", tc.Host.Name, text)), nil
	}
}

// Count lists 0..number-1 at debug severity, failing whenever fail says so.
func Count(number int, fail func() bool) core.Task {
	return func(tc *core.TaskContext) (api.Outcome, error) {
		if fail != nil && fail() {
			return nil, errors.New("random exception")
		}
		beans := make([]int, number)
		for i := range beans {
			beans[i] = i
		}
		return api.NewResult(tc.Host, tc.Name, fmt.Sprint(beans), api.WithSeverity(zerolog.DebugLevel)), nil
	}
}

// GreetAndCount says hi, counts beans and says bye as three subtasks, then
// reports the parity of the count. A failed subtask ends it early.
func GreetAndCount(number int, fail func() bool) core.Task {
	return func(tc *core.TaskContext) (api.Outcome, error) {
		if _, err := tc.Run("Greeting is the polite thing to do", Say("hi!")); err != nil {
			return nil, err
		}
		if _, err := tc.Run("Counting beans", Count(number, fail)); err != nil {
			return nil, err
		}
		if _, err := tc.Run("We should say bye too", Say("bye!")); err != nil {
			return nil, err
		}

		parity := "even"
		if number%2 == 1 {
			parity = "odd"
		}
		return api.NewResult(tc.Host, tc.Name, fmt.Sprintf("%s counted %s times!", tc.Host, parity)), nil
	}
}

// RandomFailure fails one time in n.
func RandomFailure(n int) func() bool {
	return func() bool { return rand.IntN(n) == n-1 }
}
