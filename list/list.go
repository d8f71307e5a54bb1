// Package list implements persistent list.
package list

import (
	"bytes"
	"encoding/json"
)

// List is a persistent list. It is immutable; Cons shares the entire
// receiver as the rest of the new list, so it is safe for concurrent use.
type List interface {
	json.Marshaler
	// Len returns the number of values in the list.
	Len() int
	// Cons returns a new list with an additional value in the front.
	Cons(any) List
	// First returns the first value in the list.
	First() any
	// Rest returns the list after the first value.
	Rest() List
}

// Empty is an empty list.
var Empty List = &list{}

// FromSlice returns a list containing the values of the slice, in order: the
// first element of the slice becomes the first value of the list.
func FromSlice(s []any) List {
	l := Empty
	for i := len(s) - 1; i >= 0; i-- {
		l = l.Cons(s[i])
	}
	return l
}

type list struct {
	first any
	rest  *list
	count int
}

func (l *list) Len() int {
	return l.count
}

func (l *list) Cons(val any) List {
	return &list{val, l, l.count + 1}
}

func (l *list) First() any {
	return l.first
}

func (l *list) Rest() List {
	return l.rest
}

func (l *list) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	first := true
	for n := l; n != nil && n.count > 0; n = n.rest {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		b, err := json.Marshal(n.first)
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}
