package intern

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterners_InternFQNPathAndResolve(t *testing.T) {
	in := New()

	fqn := in.InternFQNPath([]string{"OuterA", "InnerA1"})
	assert.Equal(t, "OuterA::InnerA1", in.ResolveFQN(fqn))
}

func TestInterners_ResolveRootFQN(t *testing.T) {
	in := New()
	assert.Equal(t, "", in.ResolveFQN(in.InternFQNPath(nil)))
}

func TestInterners_TablesAreIndependent(t *testing.T) {
	in := New()

	nameHandle := in.Names.Intern("foo.rb")
	uriHandle := in.URIs.Intern("foo.rb")

	// Same text interned into two different tables must not collide just
	// because the underlying uint32 values happen to match.
	assert.Equal(t, "foo.rb", in.Names.MustResolve(nameHandle))
	assert.Equal(t, "foo.rb", in.URIs.MustResolve(uriHandle))
}
