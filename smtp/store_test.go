package smtp

import "testing"

type widget struct{ name string }

func TestStoreGetSet(t *testing.T) {
	s := NewStore()
	if _, ok := Get[widget](s); ok {
		t.Fatal("expected no widget yet")
	}
	Set(s, widget{name: "a"})
	v, ok := Get[widget](s)
	if !ok || v.name != "a" {
		t.Fatalf("%+v %v", v, ok)
	}
	Set(s, widget{name: "b"})
	v, ok = Get[widget](s)
	if !ok || v.name != "b" {
		t.Fatalf("expected Set to replace, got %+v", v)
	}
}

func TestStoreAddMulti(t *testing.T) {
	s := NewStore()
	Add(s, widget{name: "a"})
	Add(s, widget{name: "b"})
	Add(s, widget{name: "c"})
	all := GetAll[widget](s)
	if len(all) != 3 || all[0].name != "a" || all[2].name != "c" {
		t.Fatalf("%+v", all)
	}
}

func TestStoreGetPanicsWithMoreThanOneValue(t *testing.T) {
	s := NewStore()
	Add(s, widget{name: "a"})
	Add(s, widget{name: "b"})
	defer func() {
		if recover() == nil {
			t.Fatal("expected Get to panic with more than one value present")
		}
	}()
	Get[widget](s)
}

type prependingWidget struct{ name string }

func (prependingWidget) PrependsOnAdd() bool { return true }

func TestStoreAddPrepend(t *testing.T) {
	s := NewStore()
	Add(s, prependingWidget{name: "first"})
	Add(s, prependingWidget{name: "second"})
	all := GetAll[prependingWidget](s)
	if len(all) != 2 || all[0].name != "second" || all[1].name != "first" {
		t.Fatalf("%+v", all)
	}
}

func TestStoreGetOrCompose(t *testing.T) {
	s := NewStore()
	Add(s, widget{name: "a"})
	Add(s, widget{name: "b"})
	composeCalls := 0
	compose := func(parts []widget) widget {
		composeCalls++
		joined := ""
		for _, p := range parts {
			joined += p.name
		}
		return widget{name: joined}
	}
	first := GetOrCompose(s, compose)
	second := GetOrCompose(s, compose)
	if first.name != "ab" || second.name != "ab" {
		t.Fatalf("%+v %+v", first, second)
	}
	if composeCalls != 1 {
		t.Fatalf("expected compose to run once and be cached, ran %d times", composeCalls)
	}
}

func TestStoreRemove(t *testing.T) {
	s := NewStore()
	Set(s, widget{name: "a"})
	Remove[widget](s)
	if _, ok := Get[widget](s); ok {
		t.Fatal("expected widget to be removed")
	}
}

func TestStoreDistinctTypesDoNotCollide(t *testing.T) {
	s := NewStore()
	Set(s, widget{name: "a"})
	Set(s, prependingWidget{name: "b"})
	w, ok := Get[widget](s)
	if !ok || w.name != "a" {
		t.Fatalf("%+v", w)
	}
	p, ok := Get[prependingWidget](s)
	if !ok || p.name != "b" {
		t.Fatalf("%+v", p)
	}
}
