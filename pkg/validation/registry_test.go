package validation_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/formkit/pkg/eventloop"
	"github.com/dmitrymomot/formkit/pkg/validation"
)

type combinedRecorder struct {
	statuses []validation.Status
}

func (r *combinedRecorder) observe(status validation.Status) {
	r.statuses = append(r.statuses, status)
}

func newRegistry(t *testing.T) (*validation.Registry, *combinedRecorder, *eventloop.Manual) {
	t.Helper()
	sched := eventloop.NewManual()
	rec := &combinedRecorder{}
	reg, err := validation.NewRegistry(rec.observe, validation.WithScheduler(sched))
	require.NoError(t, err)
	return reg, rec, sched
}

func nonEmpty() []validation.Dependency[string] {
	return []validation.Dependency[string]{
		validation.Message(func(v string) string {
			if v == "" {
				return "required"
			}
			return ""
		}),
	}
}

func TestRegistryCombinesStatuses(t *testing.T) {
	t.Parallel()

	reg, rec, sched := newRegistry(t)

	name, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)
	email, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	_, ok := reg.Status()
	assert.False(t, ok)

	require.NoError(t, name.Evaluate("alice", nil))
	sched.Flush()
	require.NoError(t, email.Evaluate("", nil))
	sched.Flush()
	require.NoError(t, name.Evaluate("bob", nil))
	sched.Flush()
	require.NoError(t, email.Evaluate("a@b.c", nil))
	sched.Flush()

	assert.Equal(t, []validation.Status{
		validation.StatusValid,
		validation.StatusInvalid,
		validation.StatusValid,
	}, rec.statuses)

	st, ok := reg.Status()
	require.True(t, ok)
	assert.Equal(t, validation.StatusValid, st)
}

func TestRegistryPendingMember(t *testing.T) {
	t.Parallel()

	reg, rec, sched := newRegistry(t)

	var calls []pendingCall
	remote, err := validation.Register(reg, []validation.Dependency[string]{capture(&calls)})
	require.NoError(t, err)
	local, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)

	require.NoError(t, local.Evaluate("", nil))
	require.NoError(t, remote.Evaluate("x", nil))
	sched.Flush()

	// Validating outranks Invalid.
	assert.Equal(t, []validation.Status{validation.StatusInvalid, validation.StatusValidating}, rec.statuses)

	calls[0].reject("down")
	sched.Flush()
	assert.Equal(t, validation.StatusError, rec.statuses[len(rec.statuses)-1])
}

func TestRegistryUnregister(t *testing.T) {
	t.Parallel()

	reg, rec, sched := newRegistry(t)

	good, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)
	bad, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)

	require.NoError(t, good.Evaluate("ok", nil))
	require.NoError(t, bad.Evaluate("", nil))
	sched.Flush()
	assert.Equal(t, []validation.Status{validation.StatusValid, validation.StatusInvalid}, rec.statuses)

	require.NoError(t, bad.Unregister())
	sched.Flush()
	assert.Equal(t, validation.StatusValid, rec.statuses[len(rec.statuses)-1])
	assert.Equal(t, 1, reg.Len())

	assert.ErrorIs(t, bad.Unregister(), validation.ErrUnregistered)
	assert.ErrorIs(t, bad.Evaluate("x", nil), validation.ErrUnregistered)
	assert.ErrorIs(t, bad.Using("x"), validation.ErrUnregistered)

	require.NoError(t, good.Evaluate("", nil))
	sched.Flush()
	require.NoError(t, good.Unregister())
	sched.Flush()

	// An empty registry is valid.
	assert.Equal(t, []validation.Status{
		validation.StatusValid,
		validation.StatusInvalid,
		validation.StatusValid,
		validation.StatusInvalid,
		validation.StatusValid,
	}, rec.statuses)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryUnregisterDropsInflight(t *testing.T) {
	t.Parallel()

	reg, rec, sched := newRegistry(t)

	var calls []pendingCall
	h, err := validation.Register(reg, []validation.Dependency[string]{capture(&calls)})
	require.NoError(t, err)

	require.NoError(t, h.Evaluate("x", nil))
	sched.Flush()
	require.NoError(t, h.Unregister())
	sched.Flush()

	calls[0].resolve(false, "late")
	sched.Flush()

	assert.Equal(t, []validation.Status{validation.StatusValidating, validation.StatusValid}, rec.statuses)
}

func TestRegistryHandles(t *testing.T) {
	t.Parallel()

	reg, _, sched := newRegistry(t)

	extra := &recorder{}
	a, err := validation.Register(reg, nonEmpty(),
		validation.WithObserver(extra.observe),
		validation.WithScheduler(eventloop.NewManual()),
		validation.WithName("first"),
	)
	require.NoError(t, err)
	b, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)

	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, a.ID(), a.Unit().ID())
	assert.Equal(t, "first", a.Unit().Name())

	// Members always run on the registry scheduler.
	require.NoError(t, a.Evaluate("", nil))
	sched.Flush()
	assert.Equal(t, []validation.Status{validation.StatusInvalid}, extra.statuses())

	st, ok := a.State()
	require.True(t, ok)
	assert.Equal(t, []any{"required"}, st.Payload)

	require.NoError(t, a.Using("seed"))
	assert.ErrorIs(t, a.Using("again"), validation.ErrAlreadyInitialized)
}

func TestRegistryErrors(t *testing.T) {
	t.Parallel()

	_, err := validation.NewRegistry(nil)
	assert.ErrorIs(t, err, validation.ErrNilObserver)

	_, err = validation.Register[string](nil, nonEmpty())
	assert.ErrorIs(t, err, validation.ErrNilRegistry)

	reg, _, _ := newRegistry(t)
	_, err = validation.Register[string](reg, nil)
	assert.ErrorIs(t, err, validation.ErrNoDependencies)
	assert.Equal(t, 0, reg.Len())
}

func TestRegistryAsParent(t *testing.T) {
	t.Parallel()

	reg, _, sched := newRegistry(t)
	field, err := validation.Register(reg, nonEmpty())
	require.NoError(t, err)

	rec := &recorder{}
	form, err := validation.New(rec.observe, []validation.Dependency[string]{
		validation.Parent[string](reg),
	}, validation.WithScheduler(sched))
	require.NoError(t, err)
	_ = form

	require.NoError(t, field.Evaluate("", nil))
	sched.Flush()
	require.NoError(t, field.Evaluate("x", nil))
	sched.Flush()

	// Registry states carry status only.
	assert.Equal(t, []validation.State{
		{Status: validation.StatusInvalid, Payload: []any{}},
		{Status: validation.StatusValid, Payload: []any{}},
	}, rec.states)
}
