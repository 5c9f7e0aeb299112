package rng

import (
	"fmt"
	"math/rand/v2"
	"reflect"
	"unsafe"
)

var sourceType = reflect.TypeFor[rand.Source]()

// DetectLayout inspects an opaque generator type and reports its state layout.
//
// proto may be a value or a (possibly nil) pointer of the generator type. The
// type must be a struct whose fields are all 32-bit or all 64-bit integers,
// between two and four of them. Anything else fails with ErrUnknownLayout.
func DetectLayout(proto any) (Layout, error) {
	t := reflect.TypeOf(proto)
	if t == nil {
		return Layout{}, fmt.Errorf("%w: nil prototype", ErrUnknownLayout)
	}
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return Layout{}, fmt.Errorf("%w: %s is not a struct", ErrUnknownLayout, t)
	}

	l := Layout{Words: t.NumField()}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		w := wordWidth(f.Type.Kind())
		if w == 0 {
			return Layout{}, fmt.Errorf("%w: %s.%s has type %s", ErrUnknownLayout, t, f.Name, f.Type)
		}
		if i == 0 {
			l.Width = w
		} else if w != l.Width {
			return Layout{}, fmt.Errorf("%w: %s mixes %d and %d byte fields", ErrUnknownLayout, t, l.Width, w)
		}
	}
	if err := l.Validate(); err != nil {
		return Layout{}, fmt.Errorf("%s: %w", t, err)
	}
	return l, nil
}

func wordWidth(k reflect.Kind) int {
	switch k {
	case reflect.Uint32, reflect.Int32:
		return 4
	case reflect.Uint64, reflect.Int64:
		return 8
	}
	return 0
}

// Injector builds instances of an opaque generator type by writing state words
// straight into its fields. The type's own constructor never runs.
type Injector struct {
	layout Layout
	typ    reflect.Type
	fields []reflect.StructField
}

// NewInjector inspects proto once and binds the field offsets. It fails when the
// layout is unknown or *T does not implement math/rand/v2.Source.
func NewInjector(proto any) (*Injector, error) {
	l, err := DetectLayout(proto)
	if err != nil {
		return nil, err
	}
	t := reflect.TypeOf(proto)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if !reflect.PointerTo(t).Implements(sourceType) {
		return nil, fmt.Errorf("%w: *%s is not a rand.Source", ErrUnknownLayout, t)
	}

	fields := make([]reflect.StructField, t.NumField())
	for i := range fields {
		fields[i] = t.Field(i)
	}
	return &Injector{layout: l, typ: t, fields: fields}, nil
}

func (j *Injector) Layout() Layout { return j.layout }

func (j *Injector) Build(st State) rand.Source {
	v := reflect.New(j.typ)
	base := v.UnsafePointer()
	for i, f := range j.fields {
		field := reflect.NewAt(f.Type, unsafe.Add(base, f.Offset)).Elem()
		w := st.Words[i]
		switch f.Type.Kind() {
		case reflect.Uint32, reflect.Uint64:
			field.SetUint(w)
		case reflect.Int32:
			field.SetInt(int64(int32(uint32(w))))
		case reflect.Int64:
			field.SetInt(int64(w))
		}
	}
	return v.Interface().(rand.Source)
}
