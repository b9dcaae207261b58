// Package mocks provides shared test doubles for the store and auth
// interfaces.
//
// Two styles are available. The Mock* types carry function fields that
// override an in-memory default, so a test can stub one method and let the
// rest behave like the real store:
//
//	users := mocks.NewMockUserStore()
//	tasks := mocks.NewMockTaskStore(users)
//	tasks.CountByStatusFn = func(ctx context.Context) (map[domain.TaskStatus]int, error) {
//	    return nil, errors.New("boom")
//	}
//
// The TestifyMock* types are github.com/stretchr/testify/mock based and
// suit tests that assert exact call sequences.
package mocks
