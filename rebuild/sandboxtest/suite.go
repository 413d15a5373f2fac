package sandboxtest

import (
	"context"
	"errors"

	"github.com/google/uuid"
	check "gopkg.in/check.v1"

	"github.com/mycok/entityusage/rebuild"
)

// BaseSuite defines a re-usable set of sandbox store related tests that can
// be executed against any type that implements rebuild.SandboxStore.
type BaseSuite struct {
	s rebuild.SandboxStore
}

// SetStore configures the test-suite to run all tests against store.
func (s *BaseSuite) SetStore(store rebuild.SandboxStore) {
	s.s = store
}

// TestSaveLoadDelete verifies that a sandbox survives a round trip through
// the store and can be removed.
func (s *BaseSuite) TestSaveLoadDelete(c *check.C) {
	ctx := context.TODO()

	_, err := s.s.Load(ctx, "usage")
	c.Assert(errors.Is(err, rebuild.ErrSandboxNotFound), check.Equals, true)

	sb := &rebuild.Sandbox{
		RunID:           uuid.New(),
		Types:           []string{"article", "media"},
		TypeIndex:       1,
		Started:         true,
		Processed:       3,
		Total:           7,
		LastProcessedID: "abc",
		CurrentID:       "12",
		Revision:        rebuild.RevisionCursor{Active: true, LastRevisionID: 40, Offset: 15},
		Results:         []string{"article:1", "media:abc"},
		Finished:        3.0 / 7.0,
	}
	c.Assert(s.s.Save(ctx, "usage", sb), check.IsNil)

	got, err := s.s.Load(ctx, "usage")
	c.Assert(err, check.IsNil)
	c.Assert(got, check.DeepEquals, sb)

	// Loaded sandboxes do not alias the stored state.
	got.Processed++
	again, err := s.s.Load(ctx, "usage")
	c.Assert(err, check.IsNil)
	c.Assert(again.Processed, check.Equals, 3)

	c.Assert(s.s.Delete(ctx, "usage"), check.IsNil)
	_, err = s.s.Load(ctx, "usage")
	c.Assert(errors.Is(err, rebuild.ErrSandboxNotFound), check.Equals, true)

	// Deleting a missing key is not an error.
	c.Assert(s.s.Delete(ctx, "usage"), check.IsNil)
}

// TestKeysAreIndependent verifies that sandboxes saved under different keys
// do not overwrite each other.
func (s *BaseSuite) TestKeysAreIndependent(c *check.C) {
	ctx := context.TODO()

	a := &rebuild.Sandbox{RunID: uuid.New(), Types: []string{"article"}}
	b := &rebuild.Sandbox{RunID: uuid.New(), Types: []string{"media"}, Done: true, Finished: 1}

	c.Assert(s.s.Save(ctx, "a", a), check.IsNil)
	c.Assert(s.s.Save(ctx, "b", b), check.IsNil)

	got, err := s.s.Load(ctx, "a")
	c.Assert(err, check.IsNil)
	c.Assert(got.RunID, check.Equals, a.RunID)

	got, err = s.s.Load(ctx, "b")
	c.Assert(err, check.IsNil)
	c.Assert(got.Done, check.Equals, true)

	c.Assert(s.s.Delete(ctx, "a"), check.IsNil)
	c.Assert(s.s.Delete(ctx, "b"), check.IsNil)
}
