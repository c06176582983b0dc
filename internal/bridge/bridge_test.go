package bridge

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/flatbind/internal/ir"
)

type addresser struct{}

func (addresser) Pointer(elem *ir.ProjectedType, isConst bool) *ir.ProjectedType {
	return &ir.ProjectedType{Kind: ir.ProjPointer, Ident: elem.Ident + "*", Elem: elem, Const: isConst}
}

var float = &ir.ProjectedType{Kind: ir.ProjScalar, Ident: "float", Size: 4, Align: 4}

func TestWrapMovesReturnToOutParam(t *testing.T) {
	f := &ir.BoundFunction{
		Symbol: "Imath_2_5__Vec3__1float__3__length",
		Params: []ir.BoundParam{{Name: ir.ReceiverParam, Receiver: true, Mode: ir.PassPointer, Type: float}},
		Return: float,
		Throws: true,
	}

	w := Wrap(f, addresser{})
	require.NotSame(t, f, w)
	assert.Len(t, f.Params, 1, "input is not mutated")

	out, ok := w.OutParam()
	require.True(t, ok)
	assert.Equal(t, ir.ReturnParam, out.Name)
	assert.Equal(t, "float*", out.Type.Ident)
	assert.Same(t, float, w.Return, "nominal return is preserved")
	assert.Len(t, w.Inputs(), 0)
	assert.Equal(t, "flat_status_t", CReturn(w, "flat_status_t"))

	assert.Same(t, w, Wrap(w, addresser{}), "wrapping is idempotent")
}

func TestWrapVoidAndNoexcept(t *testing.T) {
	void := &ir.BoundFunction{Symbol: "x", Throws: true}
	w := Wrap(void, addresser{})
	_, ok := w.OutParam()
	assert.False(t, ok, "void functions get no out-parameter")
	assert.Equal(t, "st", CReturn(w, "st"))

	noexcept := &ir.BoundFunction{Symbol: "y", Return: float}
	assert.Same(t, noexcept, Wrap(noexcept, addresser{}))
	assert.Equal(t, "float", CReturn(noexcept, "st"))
	assert.Equal(t, "void", CReturn(&ir.BoundFunction{}, "st"))
}

func TestShimBody(t *testing.T) {
	body := strings.Join(ShimBody("*return_ = this_->length();", ExceptionVar("imath")), "\n")
	assert.Contains(t, body, "try {\n    *return_ = this_->length();\n    return 0;")
	assert.Contains(t, body, "catch (std::exception& e)")
	assert.Contains(t, body, "imath_exception_string = e.what();")
	assert.Contains(t, body, "catch (...)")
	assert.Equal(t, 2, strings.Count(body, "return -1;"))
	assert.Equal(t, "imath_get_exception_string", MessageAccessor("imath"))
}

func TestGuard(t *testing.T) {
	assert.Equal(t, ir.StatusOK, Guard(func() error { return nil }))
	assert.Equal(t, ir.StatusException, Guard(func() error { return errors.New("boom") }))
	assert.Equal(t, ir.StatusException, Guard(func() error { panic("boom") }))
	assert.Equal(t, ir.StatusOK, Guard(func() error { return nil }), "no state survives a failed call")
}

func TestCheck(t *testing.T) {
	assert.NoError(t, Check("f", ir.StatusOK, func() string {
		t.Fatal("message must not be fetched on success")
		return ""
	}))

	err := Check("f", ir.StatusException, func() string { return "vector too long" })
	require.ErrorIs(t, err, ir.ErrNativeException)
	var ce *CallError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "vector too long", ce.Message)
	assert.Equal(t, "f: native exception raised across the binding boundary: vector too long", err.Error())
}

type counter struct {
	value     int
	destroyed int
}

func TestSlotFailedConstructionIsNeverDestroyed(t *testing.T) {
	var s Slot[counter]
	failing := func(c *counter) ir.StatusCode {
		c.value = 99 // partially written before throwing
		return ir.StatusException
	}

	err := s.Construct("ctor", failing)
	require.ErrorIs(t, err, ir.ErrNativeException)
	assert.False(t, s.Constructed())
	_, ok := s.Get()
	assert.False(t, ok)

	dtorCalls := 0
	err = s.Destroy("dtor", func(c *counter) ir.StatusCode {
		dtorCalls++
		return ir.StatusOK
	})
	assert.ErrorIs(t, err, ErrNotConstructed)
	assert.Zero(t, dtorCalls)
}

func TestSlotLifecycle(t *testing.T) {
	var s Slot[counter]
	require.NoError(t, s.Construct("ctor", func(c *counter) ir.StatusCode {
		c.value = 7
		return ir.StatusOK
	}))
	v, ok := s.Get()
	require.True(t, ok)
	assert.Equal(t, 7, v.value)

	assert.ErrorIs(t, s.Construct("ctor", func(*counter) ir.StatusCode { return ir.StatusOK }), ErrAlreadyConstructed)

	require.NoError(t, s.Destroy("dtor", func(c *counter) ir.StatusCode {
		c.destroyed++
		return ir.StatusOK
	}))
	assert.False(t, s.Constructed())
	assert.ErrorIs(t, s.Destroy("dtor", func(*counter) ir.StatusCode { return ir.StatusOK }), ErrNotConstructed)
}
