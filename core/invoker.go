package core

import (
	"fmt"
	"reflect"
	"runtime"
)

// Cloner is implemented by values that need their own copy logic when they are
// captured by a new thread. Clone must return a value of the receiver's type;
// a Clone method with any other signature is ignored.
type Cloner[T any] interface {
	Clone() T
}

// captured is implemented by the Ref and Move wrappers, which bypass the
// default copy of a captured value.
type captured interface {
	capturedValue() reflect.Value
}

// Reference binds a value to a new thread by pointer instead of by copy.
// See Ref.
type Reference[T any] struct {
	p *T
}

// Ref passes p to the new thread as-is. The callable receives the *T and
// shares the pointee with the caller, who must keep it alive and synchronize
// access until the thread has finished with it.
//
// Ref may also wrap the callable itself: the functor's Run method is then
// invoked on *p and the functor is never copied.
func Ref[T any](p *T) Reference[T] {
	if p == nil {
		panic("thread: Ref of nil pointer")
	}
	return Reference[T]{p: p}
}

// Get returns the wrapped pointer.
func (r Reference[T]) Get() *T { return r.p }

func (r Reference[T]) capturedValue() reflect.Value {
	return reflect.ValueOf(r.p)
}

// Moved carries a value whose ownership was transferred with Move.
type Moved[T any] struct {
	v T
}

// Move transfers *p into the new thread without cloning it and resets *p to
// the zero value of T. Use it for values that must not be copied.
func Move[T any](p *T) Moved[T] {
	if p == nil {
		panic("thread: Move of nil pointer")
	}
	m := Moved[T]{v: *p}
	var zero T
	*p = zero
	return m
}

func (m Moved[T]) capturedValue() reflect.Value {
	return reflect.ValueOf(&m.v).Elem()
}

// invoker owns the callable and the arguments captured for one thread.
// It is handed to the trampoline and invoked exactly once.
type invoker struct {
	target reflect.Value
	args   []reflect.Value
	spread bool
	desc   string
}

// newInvoker captures fn and args. It panics when fn is not callable with
// args, the same way a mismatched call would fail to compile.
func newInvoker(fn any, args ...any) *invoker {
	if fn == nil {
		panic("thread: nil callable")
	}

	callee := decayCopy(fn)
	target := callableTarget(callee)
	ft := target.Type()

	if ft.NumOut() != 0 {
		panic(fmt.Sprintf("thread: callable %s must not return values", ft))
	}

	numIn := ft.NumIn()
	if ft.IsVariadic() {
		if len(args) < numIn-1 {
			panic(fmt.Sprintf("thread: callable %s needs at least %d arguments, got %d", ft, numIn-1, len(args)))
		}
	} else if len(args) != numIn {
		panic(fmt.Sprintf("thread: callable %s needs %d arguments, got %d", ft, numIn, len(args)))
	}

	bound := make([]reflect.Value, len(args))
	for i, arg := range args {
		if arg != nil {
			bound[i] = decayCopy(arg)
		}
	}

	// A final slice matching the variadic slot is passed as the whole
	// variadic argument, like f(xs...).
	spread := ft.IsVariadic() && len(args) == numIn &&
		bound[numIn-1].IsValid() && bound[numIn-1].Type().AssignableTo(ft.In(numIn-1))

	for i, v := range bound {
		pt := paramType(ft, i)
		if spread && i == numIn-1 {
			pt = ft.In(i)
		}
		if !v.IsValid() {
			bound[i] = reflect.Zero(pt)
			continue
		}
		if !v.Type().AssignableTo(pt) {
			panic(fmt.Sprintf("thread: argument %d of type %s is not assignable to %s", i, v.Type(), pt))
		}
	}

	return &invoker{
		target: target,
		args:   bound,
		spread: spread,
		desc:   describeCallable(callee),
	}
}

// invoke runs the captured call and releases everything it captured.
// Calling invoke a second time panics.
func (inv *invoker) invoke() {
	if !inv.target.IsValid() {
		panic("thread: callable invoked twice")
	}
	target, args := inv.target, inv.args
	inv.target, inv.args = reflect.Value{}, nil
	if inv.spread {
		target.CallSlice(args)
		return
	}
	target.Call(args)
}

// decayCopy produces the value the new thread owns. Ref and Move wrappers
// unwrap without copying, non-pointer Cloner values are cloned, slices and
// maps get fresh backing storage (a shallow copy of their elements), and
// everything else is copied by assignment. Plain pointers, channels and
// funcs are copied as references and so share what they point to; Ref
// spells that out at the call site.
func decayCopy(x any) reflect.Value {
	if c, ok := x.(captured); ok {
		return c.capturedValue()
	}
	v := reflect.ValueOf(x)
	if v.Kind() == reflect.Pointer {
		return v
	}
	if m := v.MethodByName("Clone"); m.IsValid() {
		mt := m.Type()
		if mt.NumIn() == 0 && mt.NumOut() == 1 && mt.Out(0) == v.Type() {
			return m.Call(nil)[0]
		}
	}
	switch v.Kind() {
	case reflect.Slice:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeSlice(v.Type(), v.Len(), v.Len())
		reflect.Copy(c, v)
		return c
	case reflect.Map:
		if v.IsNil() {
			return v
		}
		c := reflect.MakeMapWithSize(v.Type(), v.Len())
		iter := v.MapRange()
		for iter.Next() {
			c.SetMapIndex(iter.Key(), iter.Value())
		}
		return c
	}
	return v
}

// callableTarget resolves v to a func value: v itself when it is a func,
// otherwise its Run method.
func callableTarget(v reflect.Value) reflect.Value {
	if v.Kind() == reflect.Func {
		if v.IsNil() {
			panic("thread: nil callable")
		}
		return v
	}

	if v.Kind() != reflect.Pointer {
		// Pointer-receiver Run methods need an addressable copy.
		p := reflect.New(v.Type())
		p.Elem().Set(v)
		v = p
	} else if v.IsNil() {
		panic("thread: nil callable")
	}

	m := v.MethodByName("Run")
	if !m.IsValid() {
		panic(fmt.Sprintf("thread: %s is neither a func nor has a Run method", v.Type()))
	}
	return m
}

// describeCallable names the callable for logs: the function name for func
// values, the type otherwise.
func describeCallable(v reflect.Value) string {
	if v.Kind() == reflect.Func {
		if fn := runtime.FuncForPC(v.Pointer()); fn != nil && fn.Name() != "" {
			return fn.Name()
		}
	}
	return v.Type().String()
}

func paramType(ft reflect.Type, i int) reflect.Type {
	if ft.IsVariadic() && i >= ft.NumIn()-1 {
		return ft.In(ft.NumIn() - 1).Elem()
	}
	return ft.In(i)
}
