package memory

import (
	"testing"
)

type payload struct{ n int }

func BenchmarkPtr_NewReset(b *testing.B) {
	for i := 0; i < b.N; i++ {
		p := New(&payload{n: i})
		p.Reset()
	}
}

func BenchmarkPtr_CloneReset(b *testing.B) {
	p := New(&payload{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q := p.Clone()
		q.Reset()
	}
}

func BenchmarkWeak_Lock(b *testing.B) {
	p := New(&payload{})
	w := p.Weak()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		q := w.Lock()
		q.Reset()
	}
}

func BenchmarkAddToGroup(b *testing.B) {
	root := New(&payload{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		p := New(&payload{n: i})
		root.AddToGroup(p)
		p.Reset()
	}
}

func BenchmarkMergeGroup_Small(b *testing.B) {
	root := New(&payload{})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		x := New(&payload{})
		y := New(&payload{})
		x.AddToGroup(y)
		root.MergeGroup(x)
		x.Reset()
		y.Reset()
	}
}

func BenchmarkGroupDestroy_100(b *testing.B) {
	for i := 0; i < b.N; i++ {
		root := New(&payload{})
		for j := 0; j < 100; j++ {
			p := New(&payload{n: j})
			root.AddToGroup(p)
			p.Reset()
		}
		root.Reset()
	}
}
